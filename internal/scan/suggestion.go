package scan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/projetoecoscan/ecoscan/internal/gateway"
	"github.com/projetoecoscan/ecoscan/internal/locale"
	"github.com/projetoecoscan/ecoscan/internal/schema"
	"github.com/projetoecoscan/ecoscan/internal/validate"
)

var (
	// ErrNoDraft is returned by suggestion operations outside the suggestion phases.
	ErrNoDraft = errors.New("no suggestion draft is open")
	// ErrImmutableField is returned when editing the barcode of a suggestion.
	ErrImmutableField = errors.New("field cannot be edited")
	// ErrUnknownField is returned for a field name that is not part of a draft.
	ErrUnknownField = errors.New("unknown draft field")
)

// Draft returns the open suggestion draft.
func (w *Workflow) Draft() (schema.Draft, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return draftOf(w.state)
}

// UpdateDraftField edits the open draft. No validation happens until Submit.
// The barcode belongs to the lookup attempt and cannot be edited.
func (w *Workflow) UpdateDraftField(f schema.Field, value string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	d, ok := draftOf(w.state)
	if !ok {
		return fmt.Errorf("edit %s in %s: %w", f, w.state.Phase(), ErrNoDraft)
	}
	switch f {
	case schema.FieldProductName, schema.FieldMaterial:
	case schema.FieldBarcode:
		return fmt.Errorf("%s: %w", f, ErrImmutableField)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownField, f)
	}
	w.state = withDraft(w.state, d.With(f, value))
	return nil
}

// Submit validates the draft and posts it. A validation failure makes no
// network call. On success the workflow returns to Idle with the server's
// confirmation (or a default one); on failure the draft stays as it was so
// that retrying sends the same body.
func (w *Workflow) Submit(ctx context.Context) error {
	release, err := w.guard.Acquire(gateway.OpCreateSuggestion)
	if err != nil {
		return err
	}
	defer release()

	w.mu.Lock()
	d, ok := draftOf(w.state)
	if !ok {
		phase := w.state.Phase()
		w.mu.Unlock()
		return fmt.Errorf("submit from %s: %w", phase, ErrNoDraft)
	}
	if verr := validate.Draft(d); verr != nil {
		var ve *validate.ValidationError
		errors.As(verr, &ve)
		msg := w.loc.Validation(ve)
		w.notice = &msg
		w.mu.Unlock()
		return verr
	}
	d = validate.Trim(d)
	w.clearLocked()
	gen := w.gen
	w.mu.Unlock()

	receipt, serr := w.backend.CreateSuggestion(ctx, d)

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.gen != gen {
		// The user moved on; report the outcome without touching their new state.
		return serr
	}
	if serr != nil {
		slog.Warn("suggestion submit failed", "barcode", d.Barcode, "error", serr)
		msg := w.loc.Cause(locale.MsgSubmitFailed, serr)
		w.notice = &msg
		w.err = serr
		w.errText = serr.Error()
		return serr
	}

	w.resetLocked()
	msg := w.loc.Message(locale.MsgSuggestionThanks)
	if receipt != nil && receipt.Message != "" {
		msg.Text = receipt.Message
	}
	w.notice = &msg
	slog.Info("suggestion submitted", "barcode", d.Barcode)
	return nil
}
