package schema

import "strings"

// Role is the access level of the current session.
type Role string

const (
	// RoleNone means no role has been chosen yet.
	RoleNone  Role = ""
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// ParseRole converts a stored or typed value into a Role.
// Matching is case-insensitive; anything else yields RoleNone and false.
func ParseRole(s string) (Role, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case string(RoleUser):
		return RoleUser, true
	case string(RoleAdmin):
		return RoleAdmin, true
	}
	return RoleNone, false
}

// Data source markers reported by the lookup endpoint.
const (
	// ExternalAPIPrefix prefixes every dataSource that came from a third-party product API.
	ExternalAPIPrefix = "API_"
	// SourceNotFoundEverywhere means neither the local database nor any external API knew the barcode.
	SourceNotFoundEverywhere = "Not_Found_Everywhere"
)

// placeholderNames are product names the backend fills in when it has no real name.
var placeholderNames = []string{
	"Nome não fornecido pela API",
	"Produto não encontrado",
	"Produto não cadastrado no banco de dados",
}

// IsPlaceholderName reports whether name is one of the backend's "no name" fillers.
func IsPlaceholderName(name string) bool {
	for _, p := range placeholderNames {
		if name == p {
			return true
		}
	}
	return false
}

// ProductInfo is the lookup response for a barcode.
// When SuggestionNeeded is true the display fields may be placeholders.
type ProductInfo struct {
	Barcode              string `json:"barcode"`
	ProductName          string `json:"productName"`
	Material             string `json:"material"`
	DisposalTips         string `json:"disposalTips"`
	RecyclingInfo        string `json:"recyclingInfo"`
	SustainabilityImpact string `json:"sustainabilityImpact"`
	DataSource           string `json:"dataSource"`
	SuggestionNeeded     bool   `json:"suggestionNeeded"`
}

// FromExternalAPI reports whether the record came from an external product API.
func (p ProductInfo) FromExternalAPI() bool {
	return strings.HasPrefix(p.DataSource, ExternalAPIPrefix)
}

// Draft holds the editable fields of a suggestion, either while a user
// writes one (SuggestionDraft) or while an admin reviews one (ReviewDraft).
// It doubles as the request body of the create and approve endpoints.
type Draft struct {
	Barcode     string `json:"barcode"`
	ProductName string `json:"productName"`
	Material    string `json:"material"`
}

// Get returns the value of field f.
func (d Draft) Get(f Field) string {
	switch f {
	case FieldBarcode:
		return d.Barcode
	case FieldProductName:
		return d.ProductName
	case FieldMaterial:
		return d.Material
	}
	return ""
}

// With returns a copy of d with field f set to value.
func (d Draft) With(f Field, value string) Draft {
	switch f {
	case FieldBarcode:
		d.Barcode = value
	case FieldProductName:
		d.ProductName = value
	case FieldMaterial:
		d.Material = value
	}
	return d
}

// PendingSuggestion is a suggestion the server has accepted and not yet approved.
// ID is server-assigned and never changed by the client.
type PendingSuggestion struct {
	ID          int64  `json:"id"`
	Barcode     string `json:"barcode"`
	ProductName string `json:"productName"`
	Material    string `json:"material"`
}

// Draft returns the editable fields of s.
func (s PendingSuggestion) Draft() Draft {
	return Draft{Barcode: s.Barcode, ProductName: s.ProductName, Material: s.Material}
}

// Field names an editable Draft field.
type Field string

const (
	FieldBarcode     Field = "barcode"
	FieldProductName Field = "productName"
	FieldMaterial    Field = "material"
)

// Fields lists the Draft fields in display order.
var Fields = []Field{FieldBarcode, FieldProductName, FieldMaterial}

// ParseField accepts the JSON name of a field, case-insensitively, plus the
// short aliases "name" and "code".
func ParseField(s string) (Field, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "barcode", "code":
		return FieldBarcode, true
	case "productname", "name":
		return FieldProductName, true
	case "material":
		return FieldMaterial, true
	}
	return "", false
}
