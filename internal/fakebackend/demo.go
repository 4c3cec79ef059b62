package fakebackend

import "github.com/projetoecoscan/ecoscan/internal/schema"

// SeedDemo loads a small catalog covering each lookup outcome: a complete
// product, an external record with a usable name, an external record with a
// placeholder name, and one pending suggestion.
func SeedDemo(s *Server) {
	s.AddProduct(productFor(schema.Draft{Barcode: "7891000100103", ProductName: "Suco X", Material: "Papelão"}))
	s.AddProduct(productFor(schema.Draft{Barcode: "7894900011517", ProductName: "Refrigerante Lata", Material: "Alumínio"}))
	s.AddExternal("7891910000197", "Biscoito Integral")
	s.AddExternal("7896004000855", "Nome não fornecido pela API")
	s.AddSuggestion(schema.Draft{Barcode: "7898080640017", ProductName: "Garrafa de Água", Material: "Plástico"})
}
