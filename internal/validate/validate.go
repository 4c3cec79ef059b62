package validate

import (
	"fmt"
	"strings"

	"github.com/projetoecoscan/ecoscan/internal/schema"
)

// ValidationError reports required fields that are empty.
// It is resolved by the caller and never reaches the network layer.
type ValidationError struct {
	Missing []schema.Field
}

func (e *ValidationError) Error() string {
	names := make([]string, len(e.Missing))
	for i, f := range e.Missing {
		names[i] = string(f)
	}
	return fmt.Sprintf("missing required field(s): %s", strings.Join(names, ", "))
}

// Has reports whether f is among the missing fields.
func (e *ValidationError) Has(f schema.Field) bool {
	for _, m := range e.Missing {
		if m == f {
			return true
		}
	}
	return false
}

// Draft checks the rule shared by suggestion submission and approval:
// productName and material must be non-empty. Whitespace-only counts as empty.
func Draft(d schema.Draft) error {
	var missing []schema.Field
	if blank(d.ProductName) {
		missing = append(missing, schema.FieldProductName)
	}
	if blank(d.Material) {
		missing = append(missing, schema.FieldMaterial)
	}
	if len(missing) > 0 {
		return &ValidationError{Missing: missing}
	}
	return nil
}

// Trim returns d with surrounding whitespace removed from every field. Drafts
// are trimmed before they are sent so the server sees what Draft checked.
func Trim(d schema.Draft) schema.Draft {
	for _, f := range schema.Fields {
		d = d.With(f, strings.TrimSpace(d.Get(f)))
	}
	return d
}

// Barcode trims a captured or typed code and rejects it when nothing is left.
func Barcode(code string) (string, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return "", &ValidationError{Missing: []schema.Field{schema.FieldBarcode}}
	}
	return code, nil
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
