package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/projetoecoscan/ecoscan/internal/fakebackend"
	"github.com/projetoecoscan/ecoscan/internal/gateway"
	"github.com/projetoecoscan/ecoscan/internal/review"
	"github.com/projetoecoscan/ecoscan/internal/scan"
	"github.com/projetoecoscan/ecoscan/internal/schema"
	"github.com/projetoecoscan/ecoscan/internal/session"
	"github.com/projetoecoscan/ecoscan/internal/store"
)

const secret = "Admin"

type fixture struct {
	fb    *fakebackend.Server
	store *store.Memory
	c     *Controller
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	fb := fakebackend.New()
	srv := httptest.NewServer(fb.Handler())
	t.Cleanup(srv.Close)
	gw, err := gateway.New(srv.URL, gateway.WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	st := store.NewMemory()
	c := New(Options{Backend: gw, Store: st, AdminSecret: secret})
	c.Start()
	return &fixture{fb: fb, store: st, c: c}
}

func (f *fixture) loginAdmin(t *testing.T) {
	t.Helper()
	require.NoError(t, f.c.ChooseRole(schema.RoleAdmin))
	require.NoError(t, f.c.Authenticate(secret))
}

func TestScanRequiresRole(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	assert.ErrorIs(t, f.c.StartScan(ctx), ErrRoleRequired)
	assert.ErrorIs(t, f.c.EnterManual(ctx, "123"), ErrRoleRequired)
	assert.ErrorIs(t, f.c.SubmitSuggestion(ctx), ErrRoleRequired)
	assert.Zero(t, f.fb.Requests())

	v := f.c.View()
	assert.Equal(t, session.ViewRoleSelection, v.Screen)
	assert.Nil(t, v.Scan)
}

func TestManualLookup_ProductShown(t *testing.T) {
	f := newFixture(t)
	f.fb.AddProduct(schema.ProductInfo{Barcode: "7891000100103", ProductName: "Suco X", Material: "Papelão"})
	require.NoError(t, f.c.ChooseRole(schema.RoleUser))

	require.NoError(t, f.c.EnterManual(context.Background(), " 7891000100103 "))
	v := f.c.View()
	require.NotNil(t, v.Scan)
	assert.Equal(t, scan.PhaseProductShown, v.Scan.Phase)
	require.NotNil(t, v.Scan.Product)
	assert.Equal(t, "Suco X", v.Scan.Product.ProductName)
	assert.Nil(t, v.Scan.Draft)
}

func TestSuggestionFlow(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.c.ChooseRole(schema.RoleUser))
	ctx := context.Background()

	require.NoError(t, f.c.EnterManual(ctx, "0000000000000"))
	v := f.c.View()
	assert.Equal(t, scan.PhaseSuggestionNeeded, v.Scan.Phase)
	assert.Equal(t, &schema.Draft{Barcode: "0000000000000"}, v.Scan.Draft)
	assert.Equal(t, "Produto não encontrado. Ajude-nos cadastrando!", v.Scan.Notice.Text)

	require.NoError(t, f.c.UpdateDraftField(schema.FieldMaterial, "Vidro"))
	before := f.fb.Requests()
	require.Error(t, f.c.SubmitSuggestion(ctx))
	assert.Equal(t, before, f.fb.Requests())
	assert.Contains(t, f.c.View().Scan.Notice.Text, "Nome do Produto")

	require.NoError(t, f.c.UpdateDraftField(schema.FieldProductName, "Pote"))
	require.NoError(t, f.c.SubmitSuggestion(ctx))
	assert.Equal(t, scan.PhaseIdle, f.c.View().Scan.Phase)
	require.Len(t, f.fb.Pending(), 1)
	assert.Equal(t, "Pote", f.fb.Pending()[0].ProductName)
}

func TestOpenReview_UserForbidden(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.c.ChooseRole(schema.RoleUser))

	assert.ErrorIs(t, f.c.OpenReview(context.Background()), review.ErrForbidden)
	assert.ErrorIs(t, f.c.Approve(context.Background()), review.ErrForbidden)
	assert.Zero(t, f.fb.Count(fakebackend.RouteList))
	assert.Zero(t, f.fb.Count(fakebackend.RouteApprove))
}

func TestOpenReview_ClearsScanAndCloseRestoresIdle(t *testing.T) {
	f := newFixture(t)
	f.loginAdmin(t)
	ctx := context.Background()
	f.fb.AddSuggestion(schema.Draft{Barcode: "222", ProductName: "Lata", Material: "Metal"})

	require.NoError(t, f.c.EnterManual(ctx, "999"))
	require.NoError(t, f.c.OpenReview(ctx))

	v := f.c.View()
	assert.Nil(t, v.Scan)
	require.NotNil(t, v.Review)
	assert.Len(t, v.Review.Suggestions, 1)
	assert.ErrorIs(t, f.c.EnterManual(ctx, "1"), ErrReviewOpen)

	f.c.CloseReview()
	v = f.c.View()
	assert.Nil(t, v.Review)
	require.NotNil(t, v.Scan)
	assert.Equal(t, scan.PhaseIdle, v.Scan.Phase)
}

func TestReviewApproval(t *testing.T) {
	f := newFixture(t)
	f.loginAdmin(t)
	ctx := context.Background()
	s := f.fb.AddSuggestion(schema.Draft{Barcode: "222", ProductName: "Lata", Material: "Metal"})

	require.NoError(t, f.c.OpenReview(ctx))
	require.NoError(t, f.c.SelectSuggestion(s.ID))
	require.NoError(t, f.c.UpdateReviewField(schema.FieldMaterial, "Madeira"))
	require.Error(t, f.c.Approve(ctx))

	v := f.c.View()
	assert.Equal(t, "Material inválido", v.Review.Error)
	require.NotNil(t, v.Review.Draft)
	assert.Equal(t, "Madeira", v.Review.Draft.Material)
	require.Len(t, v.Review.Changes, 1)
	assert.Equal(t, schema.FieldMaterial, v.Review.Changes[0].Field)

	require.NoError(t, f.c.UpdateReviewField(schema.FieldMaterial, "Alumínio"))
	listsBefore := f.fb.Count(fakebackend.RouteList)
	require.NoError(t, f.c.Approve(ctx))

	v = f.c.View()
	assert.Equal(t, review.PhaseListing, v.Review.Phase)
	assert.Nil(t, v.Review.Selected)
	assert.Empty(t, v.Review.Suggestions)
	assert.Equal(t, listsBefore+1, f.fb.Count(fakebackend.RouteList))
	p, ok := f.fb.Product("222")
	require.True(t, ok)
	assert.Equal(t, "Alumínio", p.Material)
}

func TestLogoutDiscardsReview(t *testing.T) {
	f := newFixture(t)
	f.loginAdmin(t)
	ctx := context.Background()
	s := f.fb.AddSuggestion(schema.Draft{Barcode: "222", ProductName: "Lata", Material: "Metal"})
	require.NoError(t, f.c.OpenReview(ctx))
	require.NoError(t, f.c.SelectSuggestion(s.ID))

	f.c.Logout()

	v := f.c.View()
	assert.Equal(t, session.ViewRoleSelection, v.Screen)
	assert.Equal(t, schema.RoleNone, v.Role)
	assert.Nil(t, v.Review)
	_, ok, err := f.store.Get(session.RoleKey)
	require.NoError(t, err)
	assert.False(t, ok)

	f.loginAdmin(t)
	v = f.c.View()
	assert.Nil(t, v.Review, "a new session starts with review closed")
	assert.Equal(t, scan.PhaseIdle, v.Scan.Phase)
}

func TestStart_RestoresRole(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.c.ChooseRole(schema.RoleUser))

	c := New(Options{Store: f.store, AdminSecret: secret})
	assert.Equal(t, schema.RoleUser, c.Start())
	assert.Equal(t, session.ViewMainContent, c.View().Screen)
}

func TestView_JSON(t *testing.T) {
	f := newFixture(t)
	f.loginAdmin(t)
	require.NoError(t, f.c.OpenReview(context.Background()))

	b, err := json.Marshal(f.c.View())
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"screen": "main-content",
		"role": "ADMIN",
		"busy": false,
		"review": {"phase": "listing", "loading": false, "suggestions": []}
	}`, string(b))
}

func TestLookupFailureOffersSuggestion(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.c.ChooseRole(schema.RoleUser))
	f.fb.FailNext(fakebackend.RouteLookup, http.StatusInternalServerError, "boom")

	require.NoError(t, f.c.EnterManual(context.Background(), "42"))
	v := f.c.View()
	assert.Equal(t, scan.PhaseLookupFailed, v.Scan.Phase)
	assert.Equal(t, &schema.Draft{Barcode: "42"}, v.Scan.Draft)
	assert.Equal(t, "Falha ao buscar dados: Erro do servidor: 500 - boom.", v.Scan.Error)
}

func TestLookupWithoutProductOffersSuggestion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte("null"))
	}))
	t.Cleanup(srv.Close)
	gw, err := gateway.New(srv.URL, gateway.WithHTTPClient(srv.Client()))
	require.NoError(t, err)
	c := New(Options{Backend: gw, Store: store.NewMemory(), AdminSecret: secret})
	c.Start()
	require.NoError(t, c.ChooseRole(schema.RoleUser))

	require.NoError(t, c.EnterManual(context.Background(), "42"))
	v := c.View()
	assert.Equal(t, scan.PhaseLookupFailed, v.Scan.Phase)
	assert.Nil(t, v.Scan.Product)
	assert.Equal(t, &schema.Draft{Barcode: "42"}, v.Scan.Draft)
}
