package schema

// Material is one entry of the material vocabulary offered by the
// suggestion and review editors.
type Material struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Materials is the vocabulary shared by both editors, in display order.
// The values must match the material keys the backend stores.
var Materials = []Material{
	{Value: "Plástico", Label: "Plástico"},
	{Value: "Vidro", Label: "Vidro"},
	{Value: "Papel", Label: "Papel"},
	{Value: "Papelão", Label: "Papelão"},
	{Value: "Metal", Label: "Metal (Aço/Ferro)"},
	{Value: "Alumínio", Label: "Alumínio"},
	{Value: "Borracha", Label: "Borracha"},
	{Value: "Orgânico", Label: "Orgânico"},
	{Value: "Eletrônico", Label: "Lixo Eletrônico"},
	{Value: "Outro", Label: "Outro (descreva se necessário)"},
}

// IsKnownMaterial reports whether value is in the vocabulary.
// The client does not enforce this; the server has the last word.
func IsKnownMaterial(value string) bool {
	_, ok := LookupMaterial(value)
	return ok
}

// LookupMaterial returns the vocabulary entry for value.
func LookupMaterial(value string) (Material, bool) {
	for _, m := range Materials {
		if m.Value == value {
			return m, true
		}
	}
	return Material{}, false
}
