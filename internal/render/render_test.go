package render

import (
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/projetoecoscan/ecoscan/internal/app"
	"github.com/projetoecoscan/ecoscan/internal/locale"
	"github.com/projetoecoscan/ecoscan/internal/patch"
	"github.com/projetoecoscan/ecoscan/internal/review"
	"github.com/projetoecoscan/ecoscan/internal/scan"
	"github.com/projetoecoscan/ecoscan/internal/schema"
	"github.com/projetoecoscan/ecoscan/internal/session"
)

func productView() app.View {
	return app.View{
		Screen: session.ViewMainContent,
		Role:   schema.RoleUser,
		Scan: &app.ScanView{
			Phase:   scan.PhaseProductShown,
			Barcode: "7891000100103",
			Product: &schema.ProductInfo{
				Barcode:      "7891000100103",
				ProductName:  "Suco X",
				Material:     "Papelão",
				DisposalTips: "Desmonte a caixa.",
				DataSource:   "Local_DB",
			},
		},
	}
}

func reviewView() app.View {
	sel := schema.PendingSuggestion{ID: 42, Barcode: "222", ProductName: "Lata", Material: "Metal"}
	d := schema.Draft{Barcode: "222", ProductName: "Lata", Material: "Alumínio"}
	return app.View{
		Screen: session.ViewMainContent,
		Role:   schema.RoleAdmin,
		Review: &app.ReviewView{
			Phase:       review.PhaseReviewing,
			Suggestions: []schema.PendingSuggestion{sel},
			Selected:    &sel,
			Draft:       &d,
			Changes:     patch.Diff(sel.Draft(), d),
			Error:       "Material inválido",
		},
	}
}

func textRender(t *testing.T, v app.View) string {
	t.Helper()
	r, err := NewRenderer("text", locale.MustNew("pt-BR"))
	require.NoError(t, err)
	out, err := r.Render(v)
	require.NoError(t, err)
	return string(out)
}

func TestText_Product(t *testing.T) {
	out := textRender(t, productView())
	assert.Contains(t, out, "Perfil: USER\n")
	assert.Contains(t, out, "Produto: Suco X\n")
	assert.Contains(t, out, "Material Principal: Papelão\n")
	assert.Contains(t, out, "Dicas de Descarte: Desmonte a caixa.\n")
}

func TestText_SuggestionDraft(t *testing.T) {
	msg := locale.Message{ID: locale.MsgLookupNotFound, Text: "Produto não encontrado. Ajude-nos cadastrando!"}
	out := textRender(t, app.View{
		Screen: session.ViewMainContent,
		Role:   schema.RoleUser,
		Scan: &app.ScanView{
			Phase:  scan.PhaseSuggestionNeeded,
			Draft:  &schema.Draft{Barcode: "0000000000000"},
			Notice: &msg,
		},
	})
	assert.Contains(t, out, "Código de Barras: 0000000000000\n")
	assert.Contains(t, out, "Nome do Produto: \n")
	assert.Contains(t, out, "> Produto não encontrado. Ajude-nos cadastrando!\n")
}

func TestText_Review(t *testing.T) {
	out := textRender(t, reviewView())
	assert.Contains(t, out, "Sugestões Pendentes\n")
	assert.Contains(t, out, "  #42 222 Lata (Metal)\n")
	assert.Contains(t, out, "ID da Sugestão: 42\n")
	assert.Contains(t, out, "~ Material: ")
	assert.Contains(t, out, "! Material inválido\n")
	assert.NotContains(t, out, "Nenhuma sugestão pendente.")
}

func TestText_EmptyReviewAndLogin(t *testing.T) {
	out := textRender(t, app.View{
		Screen: session.ViewMainContent,
		Role:   schema.RoleAdmin,
		Review: &app.ReviewView{Phase: review.PhaseListing, Suggestions: []schema.PendingSuggestion{}},
	})
	assert.Contains(t, out, "Nenhuma sugestão pendente.\n")

	msg := locale.Message{ID: locale.MsgWrongPassword, Text: "Senha incorreta!"}
	out = textRender(t, app.View{Screen: session.ViewAdminLogin, LoginError: &msg})
	assert.True(t, strings.HasPrefix(out, "Acesso do administrador\n"), out)
	assert.Contains(t, out, "! Senha incorreta!\n")
}

func TestJSON(t *testing.T) {
	r, err := NewRenderer("json", locale.MustNew("pt-BR"))
	require.NoError(t, err)
	out, err := r.Render(reviewView())
	require.NoError(t, err)

	var decoded app.View
	require.NoError(t, json.Unmarshal(out, &decoded))
	require.NotNil(t, decoded.Review)
	assert.Equal(t, int64(42), decoded.Review.Selected.ID)
	assert.Equal(t, "Material inválido", decoded.Review.Error)
}

func TestNewRenderer_UnknownFormat(t *testing.T) {
	_, err := NewRenderer("xml", locale.MustNew("pt-BR"))
	assert.Error(t, err)
}
