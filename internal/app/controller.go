// Package app composes the session, the scan workflow and the review
// workflow behind one role-gated controller.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/projetoecoscan/ecoscan/internal/flight"
	"github.com/projetoecoscan/ecoscan/internal/locale"
	"github.com/projetoecoscan/ecoscan/internal/patch"
	"github.com/projetoecoscan/ecoscan/internal/review"
	"github.com/projetoecoscan/ecoscan/internal/scan"
	"github.com/projetoecoscan/ecoscan/internal/schema"
	"github.com/projetoecoscan/ecoscan/internal/session"
	"github.com/projetoecoscan/ecoscan/internal/store"
)

var (
	// ErrRoleRequired is returned by scan operations before a role is active.
	ErrRoleRequired = errors.New("choose a role first")
	// ErrReviewOpen is returned by scan operations while the review surface is shown.
	ErrReviewOpen = errors.New("review surface is open")
)

// Backend is everything the controller needs from the gateway.
type Backend interface {
	scan.Backend
	review.Backend
}

// Controller is the single entry point for a client session. Scan and
// review share one in-flight token, so at most one request is outstanding.
type Controller struct {
	session *session.Manager
	scan    *scan.Workflow
	review  *review.Workflow
	guard   *flight.Guard
	loc     *locale.Localizer
}

// Options configures New.
type Options struct {
	Backend     Backend
	Store       store.Store
	Permissions scan.PermissionProvider
	AdminSecret string
	Localizer   *locale.Localizer
}

// New wires a Controller. The persisted role is not read until Start.
func New(opts Options) *Controller {
	perms := opts.Permissions
	if perms == nil {
		perms = scan.AlwaysGranted
	}
	loc := opts.Localizer
	if loc == nil {
		loc = locale.MustNew(locale.DefaultLanguage)
	}
	guard := flight.New()
	sess := session.New(opts.Store, opts.AdminSecret, loc)
	return &Controller{
		session: sess,
		scan:    scan.New(opts.Backend, perms, guard, loc),
		review:  review.New(opts.Backend, sess, guard, loc),
		guard:   guard,
		loc:     loc,
	}
}

// Start restores the persisted role.
func (c *Controller) Start() schema.Role {
	role := c.session.Load()
	slog.Debug("session started", "role", role)
	return role
}

// Role returns the active role.
func (c *Controller) Role() schema.Role { return c.session.Role() }

// Localizer returns the message catalog in use.
func (c *Controller) Localizer() *locale.Localizer { return c.loc }

// ChooseRole picks USER, or moves to the admin login for ADMIN.
func (c *Controller) ChooseRole(role schema.Role) error { return c.session.ChooseRole(role) }

// Authenticate checks the admin password.
func (c *Controller) Authenticate(password string) error { return c.session.Authenticate(password) }

// BackToRoleSelection leaves the admin login without choosing a role.
func (c *Controller) BackToRoleSelection() error { return c.session.BackToRoleSelection() }

// Logout clears the role and discards every scan, suggestion and review
// state so nothing carries over into the next session.
func (c *Controller) Logout() {
	c.review.Close()
	c.scan.Cancel()
	c.session.Logout()
}

func (c *Controller) scanAllowed(op string) error {
	if c.session.Snapshot().View != session.ViewMainContent {
		return fmt.Errorf("%s: %w", op, ErrRoleRequired)
	}
	if c.review.Phase() != review.PhaseClosed {
		return fmt.Errorf("%s: %w", op, ErrReviewOpen)
	}
	return nil
}

// StartScan activates the capture surface.
func (c *Controller) StartScan(ctx context.Context) error {
	if err := c.scanAllowed("start scan"); err != nil {
		return err
	}
	return c.scan.StartScan(ctx)
}

// Capture looks up a barcode delivered by the capture surface.
func (c *Controller) Capture(ctx context.Context, code string) error {
	if err := c.scanAllowed("capture"); err != nil {
		return err
	}
	return c.scan.Capture(ctx, code)
}

// EnterManual looks up a typed barcode.
func (c *Controller) EnterManual(ctx context.Context, text string) error {
	if err := c.scanAllowed("manual entry"); err != nil {
		return err
	}
	return c.scan.EnterManual(ctx, text)
}

// ScanAnother leaves a finished lookup for Idle.
func (c *Controller) ScanAnother() error {
	if err := c.scanAllowed("scan another"); err != nil {
		return err
	}
	return c.scan.ScanAnother()
}

// CancelScan returns the scan workflow to Idle.
func (c *Controller) CancelScan() { c.scan.Cancel() }

// UpdateDraftField edits the open suggestion draft.
func (c *Controller) UpdateDraftField(f schema.Field, value string) error {
	if err := c.scanAllowed("edit suggestion"); err != nil {
		return err
	}
	return c.scan.UpdateDraftField(f, value)
}

// SubmitSuggestion validates and sends the suggestion draft.
func (c *Controller) SubmitSuggestion(ctx context.Context) error {
	if err := c.scanAllowed("submit suggestion"); err != nil {
		return err
	}
	return c.scan.Submit(ctx)
}

// OpenReview clears the scan surface and opens the review list. Only ADMIN
// may open it; the check happens before anything is cleared.
func (c *Controller) OpenReview(ctx context.Context) error {
	if role := c.session.Role(); role != schema.RoleAdmin {
		return fmt.Errorf("open review as %q: %w", role, review.ErrForbidden)
	}
	if c.guard.Busy() {
		return fmt.Errorf("open review while %s is in flight: %w", c.guard.Op(), flight.ErrBusy)
	}
	c.scan.Cancel()
	return c.review.Open(ctx)
}

// RefreshReview re-fetches the pending list.
func (c *Controller) RefreshReview(ctx context.Context) error { return c.review.Refresh(ctx) }

// SelectSuggestion opens a fresh review draft for id.
func (c *Controller) SelectSuggestion(id int64) error { return c.review.Select(id) }

// UpdateReviewField edits the review draft.
func (c *Controller) UpdateReviewField(f schema.Field, value string) error {
	return c.review.UpdateReviewField(f, value)
}

// ReviewChanges diffs the review draft against the selected suggestion.
func (c *Controller) ReviewChanges() ([]patch.Change, error) { return c.review.Changes() }

// Approve sends the review draft for the selected suggestion.
func (c *Controller) Approve(ctx context.Context) error { return c.review.Approve(ctx) }

// CancelReview drops the selection and its draft.
func (c *Controller) CancelReview() error { return c.review.CancelReview() }

// CloseReview hides the review surface and puts the scan workflow at Idle.
func (c *Controller) CloseReview() {
	c.review.Close()
	c.scan.Cancel()
}
