package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseRole(t *testing.T) {
	for in, want := range map[string]Role{"USER": RoleUser, " admin ": RoleAdmin, "Admin": RoleAdmin} {
		got, ok := ParseRole(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}
	got, ok := ParseRole("guest")
	assert.False(t, ok)
	assert.Equal(t, RoleNone, got)
}

func TestParseField(t *testing.T) {
	for in, want := range map[string]Field{"name": FieldProductName, "productName": FieldProductName, "code": FieldBarcode, "MATERIAL": FieldMaterial} {
		got, ok := ParseField(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}
	_, ok := ParseField("weight")
	assert.False(t, ok)
}

func TestProductInfo_FromExternalAPI(t *testing.T) {
	assert.True(t, ProductInfo{DataSource: "API_OpenFoodFacts"}.FromExternalAPI())
	assert.False(t, ProductInfo{DataSource: SourceNotFoundEverywhere}.FromExternalAPI())
	assert.False(t, ProductInfo{DataSource: "api_lower"}.FromExternalAPI())
}

func TestIsPlaceholderName(t *testing.T) {
	assert.True(t, IsPlaceholderName("Nome não fornecido pela API"))
	assert.True(t, IsPlaceholderName("Produto não cadastrado no banco de dados"))
	assert.False(t, IsPlaceholderName("Suco X"))
}

func TestDraft_GetWith(t *testing.T) {
	d := Draft{Barcode: "1"}
	d2 := d.With(FieldMaterial, "Vidro")
	assert.Equal(t, "", d.Material, "With does not mutate the receiver")
	assert.Equal(t, "Vidro", d2.Get(FieldMaterial))
	assert.Equal(t, "1", d2.Get(FieldBarcode))
	assert.Equal(t, d2, d2.With(Field("weight"), "x"))
}

func TestMaterials(t *testing.T) {
	assert.Len(t, Materials, 10)
	m, ok := LookupMaterial("Eletrônico")
	assert.True(t, ok)
	assert.Equal(t, "Lixo Eletrônico", m.Label)
	assert.False(t, IsKnownMaterial("Madeira"))
}
