// Package scan sequences barcode capture, product lookup and the
// suggestion a user submits when the product is unknown or incomplete.
package scan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/projetoecoscan/ecoscan/internal/flight"
	"github.com/projetoecoscan/ecoscan/internal/gateway"
	"github.com/projetoecoscan/ecoscan/internal/locale"
	"github.com/projetoecoscan/ecoscan/internal/schema"
	"github.com/projetoecoscan/ecoscan/internal/validate"
)

var (
	// ErrBusy is returned when another network operation holds the in-flight token.
	ErrBusy = flight.ErrBusy
	// ErrInvalidTransition is returned when an operation is not valid in the current phase.
	ErrInvalidTransition = errors.New("operation not valid in the current scan phase")
	// ErrPermissionDenied is returned by StartScan when camera access is refused.
	ErrPermissionDenied = errors.New("camera permission denied")
	// ErrCanceled is returned when the workflow was reset while a call was in flight;
	// the call's result was discarded.
	ErrCanceled = errors.New("operation canceled")
)

// Backend is the part of the gateway the scan workflow calls.
type Backend interface {
	Lookup(ctx context.Context, barcode string) (*schema.ProductInfo, error)
	CreateSuggestion(ctx context.Context, d schema.Draft) (*gateway.SuggestionReceipt, error)
}

// Snapshot is a copy of the workflow state.
type Snapshot struct {
	State State
	// Notice is the current user-facing message, if any.
	Notice *locale.Message
	// Err is the last failure; ErrText is how it is shown.
	Err     error
	ErrText string
	Busy    bool
}

// Workflow is the scan/lookup state machine. It is safe for concurrent
// use; network calls run without holding the state lock and are serialized
// by the in-flight guard.
type Workflow struct {
	backend Backend
	perms   PermissionProvider
	guard   *flight.Guard
	loc     *locale.Localizer

	mu      sync.Mutex
	state   State
	gen     uint64
	notice  *locale.Message
	err     error
	errText string
}

// New returns a workflow in Idle. guard may be shared with other
// workflows so that only one network call is outstanding overall.
func New(backend Backend, perms PermissionProvider, guard *flight.Guard, loc *locale.Localizer) *Workflow {
	return &Workflow{
		backend: backend,
		perms:   perms,
		guard:   guard,
		loc:     loc,
		state:   Idle{},
	}
}

// Snapshot returns a copy of the current state.
func (w *Workflow) Snapshot() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	return Snapshot{
		State:   w.state,
		Notice:  w.notice,
		Err:     w.err,
		ErrText: w.errText,
		Busy:    w.guard.Busy(),
	}
}

// Phase returns the current phase.
func (w *Workflow) Phase() Phase {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state.Phase()
}

// StartScan activates the capture surface. Valid only from Idle and only
// when the permission provider grants camera access.
func (w *Workflow) StartScan(ctx context.Context) error {
	if err := w.expectIdle("start scan"); err != nil {
		return err
	}

	if w.perms.Request(ctx) != Granted {
		w.mu.Lock()
		msg := w.loc.Message(locale.MsgPermissionDenied)
		w.notice = &msg
		w.mu.Unlock()
		slog.Info("scan refused: camera permission denied")
		return ErrPermissionDenied
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state.Phase() != PhaseIdle {
		return fmt.Errorf("start scan from %s: %w", w.state.Phase(), ErrInvalidTransition)
	}
	w.clearLocked()
	w.state = Scanning{}
	return nil
}

func (w *Workflow) expectIdle(op string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.guard.Busy() {
		return fmt.Errorf("%s: %w", op, ErrBusy)
	}
	if w.state.Phase() != PhaseIdle {
		return fmt.Errorf("%s from %s: %w", op, w.state.Phase(), ErrInvalidTransition)
	}
	return nil
}

// Capture handles a barcode decoded by the camera. Valid from Scanning.
func (w *Workflow) Capture(ctx context.Context, code string) error {
	return w.lookup(ctx, code, SourceCamera)
}

// EnterManual handles a typed barcode. Valid from Idle; the text is
// trimmed and rejected when empty.
func (w *Workflow) EnterManual(ctx context.Context, text string) error {
	return w.lookup(ctx, text, SourceManual)
}

func (w *Workflow) lookup(ctx context.Context, raw string, src Source) error {
	release, err := w.guard.Acquire(gateway.OpLookup)
	if err != nil {
		slog.Debug("barcode ignored while busy", "source", src)
		return err
	}
	defer release()

	want := PhaseIdle
	if src == SourceCamera {
		want = PhaseScanning
	}

	w.mu.Lock()
	if w.state.Phase() != want {
		phase := w.state.Phase()
		w.mu.Unlock()
		return fmt.Errorf("%s barcode from %s: %w", src, phase, ErrInvalidTransition)
	}
	code, verr := validate.Barcode(raw)
	if verr != nil {
		var ve *validate.ValidationError
		errors.As(verr, &ve)
		msg := w.loc.Validation(ve)
		w.notice = &msg
		w.mu.Unlock()
		return verr
	}
	w.clearLocked()
	w.gen++
	gen := w.gen
	w.state = LookingUp{Barcode: code, Source: src}
	w.mu.Unlock()

	info, lerr := w.backend.Lookup(ctx, code)

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.gen != gen {
		slog.Debug("discarding lookup result after cancel", "barcode", code)
		return ErrCanceled
	}
	if lerr != nil {
		slog.Warn("lookup failed", "barcode", code, "error", lerr)
		w.state = LookupFailed{Draft: schema.Draft{Barcode: code}, Cause: lerr}
		msg := w.loc.Message(locale.MsgLookupFailed)
		w.notice = &msg
		w.err = lerr
		w.errText = w.loc.Cause(locale.MsgLookupFailedDetail, lerr).Text
		return nil
	}
	w.applyLocked(code, info)
	return nil
}

// applyLocked moves to ProductShown or SuggestionNeeded from a lookup response.
func (w *Workflow) applyLocked(code string, info *schema.ProductInfo) {
	if !info.SuggestionNeeded {
		w.state = ProductShown{Product: *info}
		return
	}

	d := schema.Draft{Barcode: code}
	if info.FromExternalAPI() && info.ProductName != "" && !schema.IsPlaceholderName(info.ProductName) {
		d.ProductName = info.ProductName
	}
	reason, msgID := ReasonIncomplete, locale.MsgLookupIncomplete
	if info.DataSource == schema.SourceNotFoundEverywhere {
		reason, msgID = ReasonNotFound, locale.MsgLookupNotFound
	}
	w.state = SuggestionNeeded{Draft: d, Reason: reason}
	msg := w.loc.Message(msgID)
	w.notice = &msg
}

// ScanAnother leaves a terminal phase for Idle.
func (w *Workflow) ScanAnother() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	switch w.state.Phase() {
	case PhaseIdle:
		return nil
	case PhaseProductShown, PhaseSuggestionNeeded, PhaseLookupFailed:
		w.resetLocked()
		return nil
	}
	return fmt.Errorf("scan another from %s: %w", w.state.Phase(), ErrInvalidTransition)
}

// Cancel discards any result, draft, message, or in-flight call and
// returns to Idle. A call still in flight finishes, but its result is dropped.
func (w *Workflow) Cancel() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.resetLocked()
}

func (w *Workflow) resetLocked() {
	w.gen++
	w.state = Idle{}
	w.clearLocked()
}

func (w *Workflow) clearLocked() {
	w.notice = nil
	w.err = nil
	w.errText = ""
}
