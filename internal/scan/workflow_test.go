package scan

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/projetoecoscan/ecoscan/internal/flight"
	"github.com/projetoecoscan/ecoscan/internal/gateway"
	"github.com/projetoecoscan/ecoscan/internal/locale"
	"github.com/projetoecoscan/ecoscan/internal/schema"
	"github.com/projetoecoscan/ecoscan/internal/validate"
)

// stubBackend records calls and answers from its fields. When gate is
// non-nil every call blocks until it is closed.
type stubBackend struct {
	mu          sync.Mutex
	info        *schema.ProductInfo
	lookupErr   error
	receipt     *gateway.SuggestionReceipt
	submitErr   error
	gate        chan struct{}
	entered     chan struct{}
	lookups     []string
	submissions []schema.Draft
}

func (b *stubBackend) wait() {
	if b.entered != nil {
		b.entered <- struct{}{}
	}
	if b.gate != nil {
		<-b.gate
	}
}

func (b *stubBackend) Lookup(_ context.Context, barcode string) (*schema.ProductInfo, error) {
	b.mu.Lock()
	b.lookups = append(b.lookups, barcode)
	info, err := b.info, b.lookupErr
	b.mu.Unlock()
	b.wait()
	if err != nil {
		return nil, err
	}
	cp := *info
	return &cp, nil
}

func (b *stubBackend) CreateSuggestion(_ context.Context, d schema.Draft) (*gateway.SuggestionReceipt, error) {
	b.mu.Lock()
	b.submissions = append(b.submissions, d)
	r, err := b.receipt, b.submitErr
	b.mu.Unlock()
	b.wait()
	if err != nil {
		return nil, err
	}
	if r == nil {
		r = &gateway.SuggestionReceipt{}
	}
	return r, nil
}

func (b *stubBackend) calls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.lookups) + len(b.submissions)
}

func newWorkflow(b *stubBackend) *Workflow {
	return New(b, AlwaysGranted, flight.New(), locale.MustNew("pt-BR"))
}

func found(name string) *schema.ProductInfo {
	return &schema.ProductInfo{
		Barcode:     "7891000100103",
		ProductName: name,
		Material:    "Vidro",
		DataSource:  "Local_DB",
	}
}

func TestStartScan_FromIdle(t *testing.T) {
	w := newWorkflow(&stubBackend{})
	require.NoError(t, w.StartScan(context.Background()))
	assert.Equal(t, PhaseScanning, w.Phase())

	assert.ErrorIs(t, w.StartScan(context.Background()), ErrInvalidTransition)
}

func TestStartScan_PermissionDenied(t *testing.T) {
	w := New(&stubBackend{}, Fixed(Denied), flight.New(), locale.MustNew("pt-BR"))
	err := w.StartScan(context.Background())
	assert.ErrorIs(t, err, ErrPermissionDenied)

	snap := w.Snapshot()
	assert.Equal(t, PhaseIdle, snap.State.Phase())
	require.NotNil(t, snap.Notice)
	assert.Equal(t, locale.MsgPermissionDenied, snap.Notice.ID)
}

func TestStartScan_ClearsPreviousResult(t *testing.T) {
	b := &stubBackend{info: &schema.ProductInfo{SuggestionNeeded: true, DataSource: schema.SourceNotFoundEverywhere}}
	w := newWorkflow(b)
	require.NoError(t, w.EnterManual(context.Background(), "123"))
	require.NotNil(t, w.Snapshot().Notice)

	require.NoError(t, w.ScanAnother())
	require.NoError(t, w.StartScan(context.Background()))
	snap := w.Snapshot()
	assert.Nil(t, snap.Notice)
	assert.Nil(t, snap.Err)
}

func TestCapture_ProductShown(t *testing.T) {
	b := &stubBackend{info: found("Suco X")}
	w := newWorkflow(b)
	require.NoError(t, w.StartScan(context.Background()))
	require.NoError(t, w.Capture(context.Background(), "7891000100103"))

	snap := w.Snapshot()
	shown, ok := snap.State.(ProductShown)
	require.True(t, ok, "state %T", snap.State)
	assert.Equal(t, "Suco X", shown.Product.ProductName)
	_, hasDraft := w.Draft()
	assert.False(t, hasDraft)
	assert.Equal(t, []string{"7891000100103"}, b.lookups)
}

func TestCapture_RequiresScanning(t *testing.T) {
	b := &stubBackend{info: found("Suco X")}
	w := newWorkflow(b)
	assert.ErrorIs(t, w.Capture(context.Background(), "123"), ErrInvalidTransition)
	assert.Zero(t, b.calls())
}

func TestEnterManual_NotFoundEverywhere(t *testing.T) {
	b := &stubBackend{info: &schema.ProductInfo{
		Barcode:          "0000000000000",
		ProductName:      "Produto não encontrado",
		DataSource:       schema.SourceNotFoundEverywhere,
		SuggestionNeeded: true,
	}}
	w := newWorkflow(b)
	require.NoError(t, w.EnterManual(context.Background(), "0000000000000"))

	snap := w.Snapshot()
	sn, ok := snap.State.(SuggestionNeeded)
	require.True(t, ok, "state %T", snap.State)
	assert.Equal(t, schema.Draft{Barcode: "0000000000000"}, sn.Draft)
	assert.Equal(t, ReasonNotFound, sn.Reason)
	require.NotNil(t, snap.Notice)
	assert.Equal(t, locale.MsgLookupNotFound, snap.Notice.ID)
	assert.Equal(t, "Produto não encontrado. Ajude-nos cadastrando!", snap.Notice.Text)
}

func TestSuggestionSeeding(t *testing.T) {
	tests := []struct {
		name       string
		source     string
		product    string
		wantName   string
		wantReason Reason
	}{
		{"external api with real name", "API_OpenFoodFacts", "Biscoito Y", "Biscoito Y", ReasonIncomplete},
		{"external api placeholder", "API_OpenFoodFacts", "Nome não fornecido pela API", "", ReasonIncomplete},
		{"external api not found placeholder", "API_UPCItemDB", "Produto não encontrado", "", ReasonIncomplete},
		{"external api db placeholder", "API_X", "Produto não cadastrado no banco de dados", "", ReasonIncomplete},
		{"external api empty name", "API_OpenFoodFacts", "", "", ReasonIncomplete},
		{"local source never prefills", "Local_DB_Incomplete", "Biscoito Y", "", ReasonIncomplete},
		{"lowercase marker is not external", "api_OpenFoodFacts", "Biscoito Y", "", ReasonIncomplete},
		{"not found everywhere", schema.SourceNotFoundEverywhere, "Biscoito Y", "", ReasonNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &stubBackend{info: &schema.ProductInfo{
				ProductName:      tt.product,
				DataSource:       tt.source,
				SuggestionNeeded: true,
			}}
			w := newWorkflow(b)
			require.NoError(t, w.EnterManual(context.Background(), " 555 "))

			sn, ok := w.Snapshot().State.(SuggestionNeeded)
			require.True(t, ok)
			assert.Equal(t, "555", sn.Draft.Barcode)
			assert.Equal(t, tt.wantName, sn.Draft.ProductName)
			assert.Empty(t, sn.Draft.Material)
			assert.Equal(t, tt.wantReason, sn.Reason)
		})
	}
}

func TestIncompleteMessage(t *testing.T) {
	b := &stubBackend{info: &schema.ProductInfo{DataSource: "API_OpenFoodFacts", SuggestionNeeded: true}}
	w := newWorkflow(b)
	require.NoError(t, w.EnterManual(context.Background(), "1"))
	assert.Equal(t, locale.MsgLookupIncomplete, w.Snapshot().Notice.ID)
}

func TestEnterManual_EmptyNeverCallsBackend(t *testing.T) {
	for _, in := range []string{"", " ", "\t", "\n  \n"} {
		b := &stubBackend{info: found("x")}
		w := newWorkflow(b)

		err := w.EnterManual(context.Background(), in)
		var ve *validate.ValidationError
		require.True(t, errors.As(err, &ve), "input %q: %v", in, err)
		assert.Zero(t, b.calls(), "input %q", in)

		snap := w.Snapshot()
		assert.Equal(t, PhaseIdle, snap.State.Phase())
		require.NotNil(t, snap.Notice)
		assert.Equal(t, locale.MsgEmptyBarcode, snap.Notice.ID)
	}
}

func TestCapture_WhitespaceNeverCallsBackend(t *testing.T) {
	b := &stubBackend{info: found("x")}
	w := newWorkflow(b)
	require.NoError(t, w.StartScan(context.Background()))
	require.Error(t, w.Capture(context.Background(), "   "))
	assert.Zero(t, b.calls())
	assert.Equal(t, PhaseScanning, w.Phase())
}

func TestLookupFailure_OffersSuggestion(t *testing.T) {
	b := &stubBackend{lookupErr: &gateway.NetworkError{Op: gateway.OpLookup, Err: errors.New("connection refused")}}
	w := newWorkflow(b)
	require.NoError(t, w.EnterManual(context.Background(), "789"))

	snap := w.Snapshot()
	lf, ok := snap.State.(LookupFailed)
	require.True(t, ok, "state %T", snap.State)
	assert.Equal(t, schema.Draft{Barcode: "789"}, lf.Draft)
	require.NotNil(t, snap.Notice)
	assert.Equal(t, locale.MsgLookupFailed, snap.Notice.ID)
	assert.Equal(t, "Falha ao buscar dados: lookup: connection refused.", snap.ErrText)

	d, ok := w.Draft()
	assert.True(t, ok)
	assert.Equal(t, "789", d.Barcode)
}

func TestLookup_RejectsConcurrentCapture(t *testing.T) {
	b := &stubBackend{info: found("Suco X"), gate: make(chan struct{}), entered: make(chan struct{}, 1)}
	w := newWorkflow(b)

	done := make(chan error, 1)
	go func() { done <- w.EnterManual(context.Background(), "111") }()
	<-b.entered

	assert.Equal(t, PhaseLookingUp, w.Phase())
	assert.True(t, w.Snapshot().Busy)
	assert.ErrorIs(t, w.EnterManual(context.Background(), "222"), ErrBusy)
	assert.ErrorIs(t, w.StartScan(context.Background()), ErrBusy)

	close(b.gate)
	require.NoError(t, <-done)
	assert.Equal(t, []string{"111"}, b.lookups)
	assert.Equal(t, PhaseProductShown, w.Phase())
	assert.False(t, w.Snapshot().Busy)
}

func TestCancel_DiscardsInFlightResult(t *testing.T) {
	b := &stubBackend{info: found("Suco X"), gate: make(chan struct{}), entered: make(chan struct{}, 1)}
	w := newWorkflow(b)

	done := make(chan error, 1)
	go func() { done <- w.EnterManual(context.Background(), "111") }()
	<-b.entered

	w.Cancel()
	assert.Equal(t, PhaseIdle, w.Phase())
	close(b.gate)

	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrCanceled)
	case <-time.After(2 * time.Second):
		t.Fatal("lookup did not return")
	}
	assert.Equal(t, PhaseIdle, w.Phase(), "late result must not leave Idle")
}

func TestCancel_FromEveryPhase(t *testing.T) {
	b := &stubBackend{info: &schema.ProductInfo{SuggestionNeeded: true, DataSource: schema.SourceNotFoundEverywhere}}
	w := newWorkflow(b)

	require.NoError(t, w.StartScan(context.Background()))
	w.Cancel()
	assert.Equal(t, PhaseIdle, w.Phase())

	require.NoError(t, w.EnterManual(context.Background(), "1"))
	require.NoError(t, w.UpdateDraftField(schema.FieldMaterial, "Vidro"))
	w.Cancel()
	snap := w.Snapshot()
	assert.Equal(t, PhaseIdle, snap.State.Phase())
	assert.Nil(t, snap.Notice)
	_, ok := w.Draft()
	assert.False(t, ok)
}

func TestScanAnother(t *testing.T) {
	w := newWorkflow(&stubBackend{info: found("Suco X")})
	require.NoError(t, w.ScanAnother(), "no-op from Idle")

	require.NoError(t, w.StartScan(context.Background()))
	assert.ErrorIs(t, w.ScanAnother(), ErrInvalidTransition)

	require.NoError(t, w.Capture(context.Background(), "1"))
	require.NoError(t, w.ScanAnother())
	assert.Equal(t, PhaseIdle, w.Phase())
}

func TestEnterManual_OnlyFromIdle(t *testing.T) {
	b := &stubBackend{info: found("Suco X")}
	w := newWorkflow(b)
	require.NoError(t, w.EnterManual(context.Background(), "1"))
	assert.ErrorIs(t, w.EnterManual(context.Background(), "2"), ErrInvalidTransition)
	assert.Equal(t, []string{"1"}, b.lookups)
}
