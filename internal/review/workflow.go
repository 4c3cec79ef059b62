// Package review is the admin surface: list pending suggestions, edit one,
// approve it.
package review

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/projetoecoscan/ecoscan/internal/flight"
	"github.com/projetoecoscan/ecoscan/internal/gateway"
	"github.com/projetoecoscan/ecoscan/internal/locale"
	"github.com/projetoecoscan/ecoscan/internal/patch"
	"github.com/projetoecoscan/ecoscan/internal/schema"
	"github.com/projetoecoscan/ecoscan/internal/validate"
)

var (
	// ErrBusy is returned when another network operation holds the in-flight token.
	ErrBusy = flight.ErrBusy
	// ErrForbidden is returned to any role other than ADMIN. No request is made.
	ErrForbidden = errors.New("review requires the ADMIN role")
	// ErrInvalidTransition is returned when an operation is not valid in the current phase.
	ErrInvalidTransition = errors.New("operation not valid in the current review phase")
	// ErrNoSelection is returned by draft operations when nothing is selected.
	ErrNoSelection = errors.New("no suggestion selected")
	// ErrUnknownSuggestion is returned by Select for an id not in the list.
	ErrUnknownSuggestion = errors.New("suggestion not in the pending list")
	// ErrUnknownField is returned for a field name that is not part of a draft.
	ErrUnknownField = errors.New("unknown draft field")
	// ErrCanceled is returned when the surface was closed while a call was in flight.
	ErrCanceled = errors.New("operation canceled")
)

// Backend is the part of the gateway the review workflow calls.
type Backend interface {
	ListSuggestions(ctx context.Context) ([]schema.PendingSuggestion, error)
	ApproveSuggestion(ctx context.Context, id int64, d schema.Draft) (*schema.ProductInfo, error)
}

// RoleSource reports the active role.
type RoleSource interface {
	Role() schema.Role
}

// Snapshot is a copy of the workflow state.
type Snapshot struct {
	State   State
	Notice  *locale.Message
	Err     error
	ErrText string
	Busy    bool
}

// Workflow is the review state machine. Every operation checks the role
// first; a non-admin caller never reaches the backend.
type Workflow struct {
	backend Backend
	roles   RoleSource
	guard   *flight.Guard
	loc     *locale.Localizer

	mu      sync.Mutex
	state   State
	gen     uint64
	notice  *locale.Message
	err     error
	errText string
}

// New returns a Closed workflow.
func New(backend Backend, roles RoleSource, guard *flight.Guard, loc *locale.Localizer) *Workflow {
	return &Workflow{
		backend: backend,
		roles:   roles,
		guard:   guard,
		loc:     loc,
		state:   Closed{},
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

func (w *Workflow) authorize(op string) error {
	if role := w.roles.Role(); role != schema.RoleAdmin {
		slog.Warn("review operation refused", "op", op, "role", role)
		return fmt.Errorf("%s: %w", op, ErrForbidden)
	}
	return nil
}

// Open shows the review surface and fetches the pending list. A failed
// fetch leaves an empty list and the error; it is not retried.
func (w *Workflow) Open(ctx context.Context) error {
	if err := w.authorize("open review"); err != nil {
		return err
	}
	release, err := w.guard.Acquire(gateway.OpListSuggestions)
	if err != nil {
		return err
	}
	defer release()

	w.mu.Lock()
	w.clearLocked()
	w.gen++
	gen := w.gen
	w.state = Listing{Loading: true}
	w.mu.Unlock()

	return w.fetch(ctx, gen)
}

// Refresh re-fetches the pending list from plain Listing.
func (w *Workflow) Refresh(ctx context.Context) error {
	if err := w.authorize("refresh review"); err != nil {
		return err
	}
	release, err := w.guard.Acquire(gateway.OpListSuggestions)
	if err != nil {
		return err
	}
	defer release()

	w.mu.Lock()
	if w.state.Phase() != PhaseListing {
		phase := w.state.Phase()
		w.mu.Unlock()
		return fmt.Errorf("refresh from %s: %w", phase, ErrInvalidTransition)
	}
	w.clearLocked()
	gen := w.gen
	w.state = Listing{Loading: true}
	w.mu.Unlock()

	return w.fetch(ctx, gen)
}

// fetch loads the list into a Listing state. The caller holds the token.
func (w *Workflow) fetch(ctx context.Context, gen uint64) error {
	list, err := w.backend.ListSuggestions(ctx)

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.gen != gen {
		return ErrCanceled
	}
	if err != nil {
		slog.Warn("listing pending suggestions failed", "error", err)
		w.state = Listing{}
		w.err = err
		w.errText = w.loc.Cause(locale.MsgListFailed, err).Text
		return err
	}
	if list == nil {
		list = []schema.PendingSuggestion{}
	}
	w.state = Listing{Suggestions: list}
	return nil
}

// Select copies the listed suggestion id into a fresh draft, replacing
// any previous selection and its edits.
func (w *Workflow) Select(id int64) error {
	if err := w.authorize("select suggestion"); err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state.Phase() == PhaseClosed {
		return fmt.Errorf("select from %s: %w", w.state.Phase(), ErrInvalidTransition)
	}
	list := listOf(w.state)
	for _, s := range list {
		if s.ID == id {
			w.state = Reviewing{Suggestions: list, Selected: s, Draft: s.Draft()}
			w.clearLocked()
			return nil
		}
	}
	return fmt.Errorf("%w: id %d", ErrUnknownSuggestion, id)
}

// Selected returns the selected suggestion and the reviewer's draft.
func (w *Workflow) Selected() (schema.PendingSuggestion, schema.Draft, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	r, ok := w.state.(Reviewing)
	return r.Selected, r.Draft, ok
}

// UpdateReviewField edits the draft only; the selected suggestion is untouched.
func (w *Workflow) UpdateReviewField(f schema.Field, value string) error {
	if err := w.authorize("edit review"); err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	r, ok := w.state.(Reviewing)
	if !ok {
		return fmt.Errorf("edit %s: %w", f, ErrNoSelection)
	}
	switch f {
	case schema.FieldBarcode, schema.FieldProductName, schema.FieldMaterial:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownField, f)
	}
	r.Draft = r.Draft.With(f, value)
	w.state = r
	return nil
}

// Changes diffs the draft against the suggestion as it was submitted.
func (w *Workflow) Changes() ([]patch.Change, error) {
	sel, d, ok := w.Selected()
	if !ok {
		return nil, ErrNoSelection
	}
	return patch.Diff(sel.Draft(), d), nil
}

// Approve validates the draft and approves the selected suggestion by the
// id captured at selection. On success the selection is cleared and the
// list re-fetched; a failed re-fetch is kept in the snapshot, not returned.
// On failure the draft stays open for correction.
func (w *Workflow) Approve(ctx context.Context) error {
	if err := w.authorize("approve suggestion"); err != nil {
		return err
	}
	release, err := w.guard.Acquire(gateway.OpApprove)
	if err != nil {
		return err
	}
	defer release()

	w.mu.Lock()
	r, ok := w.state.(Reviewing)
	if !ok {
		w.mu.Unlock()
		return ErrNoSelection
	}
	if verr := validate.Draft(r.Draft); verr != nil {
		var ve *validate.ValidationError
		errors.As(verr, &ve)
		msg := w.loc.Validation(ve)
		w.notice = &msg
		w.mu.Unlock()
		return verr
	}
	w.clearLocked()
	gen := w.gen
	id, d := r.Selected.ID, validate.Trim(r.Draft)
	w.mu.Unlock()

	_, aerr := w.backend.ApproveSuggestion(ctx, id, d)

	w.mu.Lock()
	if w.gen != gen {
		w.mu.Unlock()
		return aerr
	}
	if aerr != nil {
		slog.Warn("approving suggestion failed", "id", id, "error", aerr)
		msg := w.loc.Cause(locale.MsgApproveFailed, aerr)
		w.notice = &msg
		w.err = aerr
		w.errText = aerr.Error()
		w.mu.Unlock()
		return aerr
	}
	slog.Info("suggestion approved", "id", id, "barcode", d.Barcode)
	msg := w.loc.Message(locale.MsgApproveSuccess)
	w.notice = &msg
	w.state = Listing{Loading: true}
	w.mu.Unlock()

	if err := w.fetch(ctx, gen); err != nil && !errors.Is(err, ErrCanceled) {
		slog.Debug("list refresh after approval failed", "error", err)
	}
	return nil
}

// CancelReview drops the selection and draft and returns to the list.
func (w *Workflow) CancelReview() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	switch st := w.state.(type) {
	case Reviewing:
		w.state = Listing{Suggestions: st.Suggestions}
		w.clearLocked()
		return nil
	case Listing:
		return nil
	}
	return fmt.Errorf("cancel review from %s: %w", w.state.Phase(), ErrInvalidTransition)
}

// Close discards the list, selection, and draft. A call still in flight
// finishes, but its result is dropped.
func (w *Workflow) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.gen++
	w.state = Closed{}
	w.clearLocked()
}

func (w *Workflow) clearLocked() {
	w.notice = nil
	w.err = nil
	w.errText = ""
}
