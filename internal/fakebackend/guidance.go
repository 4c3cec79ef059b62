package fakebackend

import "github.com/projetoecoscan/ecoscan/internal/schema"

type guidance struct {
	disposal  string
	recycling string
	impact    string
}

var guidanceByMaterial = map[string]guidance{
	"Plástico":   {"Lave e descarte no coletor vermelho.", "Reciclável na maioria dos municípios.", "Leva até 400 anos para se decompor."},
	"Vidro":      {"Descarte no coletor verde, sem tampa.", "100% reciclável indefinidamente.", "Reciclar economiza energia e matéria-prima."},
	"Papel":      {"Descarte seco no coletor azul.", "Reciclável se limpo e seco.", "Reduz o corte de árvores."},
	"Papelão":    {"Desmonte e descarte no coletor azul.", "Reciclável se limpo e seco.", "Reduz o corte de árvores."},
	"Metal":      {"Descarte no coletor amarelo.", "Reciclável.", "Reciclar reduz a mineração."},
	"Alumínio":   {"Amasse e descarte no coletor amarelo.", "Reciclável indefinidamente.", "Reciclar economiza até 95% da energia."},
	"Borracha":   {"Leve a um ponto de coleta específico.", "Reciclagem limitada.", "Não descarte no lixo comum."},
	"Orgânico":   {"Descarte no lixo orgânico ou composte.", "Compostável.", "Compostagem reduz metano em aterros."},
	"Eletrônico": {"Leve a um ponto de coleta de eletrônicos.", "Componentes recicláveis em centros especializados.", "Contém metais pesados."},
}

// productFor builds the product record an approval creates.
func productFor(d schema.Draft) schema.ProductInfo {
	g, ok := guidanceByMaterial[d.Material]
	if !ok {
		g = guidance{"Consulte a coleta seletiva do seu município.", "Verifique com a coleta local.", "Informação não disponível."}
	}
	return schema.ProductInfo{
		Barcode:              d.Barcode,
		ProductName:          d.ProductName,
		Material:             d.Material,
		DisposalTips:         g.disposal,
		RecyclingInfo:        g.recycling,
		SustainabilityImpact: g.impact,
		DataSource:           SourceLocal,
	}
}
