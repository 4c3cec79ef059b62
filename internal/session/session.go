package session

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/projetoecoscan/ecoscan/internal/locale"
	"github.com/projetoecoscan/ecoscan/internal/schema"
	"github.com/projetoecoscan/ecoscan/internal/store"
)

// RoleKey is the storage key holding the persisted role.
const RoleKey = "@userRole"

var (
	// ErrWrongPassword is returned by Authenticate for a bad admin password.
	ErrWrongPassword = errors.New("wrong admin password")
	// ErrInvalidTransition is returned when an operation is not valid in the current view.
	ErrInvalidTransition = errors.New("operation not valid in the current view")
	// ErrUnknownRole is returned by ChooseRole for anything but USER or ADMIN.
	ErrUnknownRole = errors.New("unknown role")
)

// View is the screen the session currently routes to.
type View string

const (
	ViewRoleSelection View = "role-selection"
	ViewAdminLogin    View = "admin-login"
	ViewMainContent   View = "main-content"
)

// Snapshot is a copy of the session state.
type Snapshot struct {
	View       View            `json:"view"`
	Role       schema.Role     `json:"role,omitempty"`
	LoginError *locale.Message `json:"loginError,omitempty"`
	Warning    *locale.Message `json:"warning,omitempty"`
}

// Manager owns the current role. It is the only writer of the persisted
// role; everything else reads it through Role.
type Manager struct {
	mu       sync.Mutex
	store    store.Store
	secret   string
	loc      *locale.Localizer
	view     View
	role     schema.Role
	loginErr *locale.Message
	warning  *locale.Message
}

// New returns a Manager in the role-selection view. Call Load to restore a
// persisted role.
func New(st store.Store, adminSecret string, loc *locale.Localizer) *Manager {
	return &Manager{
		store:  st,
		secret: adminSecret,
		loc:    loc,
		view:   ViewRoleSelection,
	}
}

// Load reads the persisted role. Storage failures and unknown values are
// logged and yield RoleNone, routing to role selection.
func (m *Manager) Load() schema.Role {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.role, m.view = schema.RoleNone, ViewRoleSelection
	raw, ok, err := m.store.Get(RoleKey)
	if err != nil {
		slog.Warn("loading persisted role failed", "error", err)
		return schema.RoleNone
	}
	if !ok || raw == "" {
		return schema.RoleNone
	}
	role, valid := schema.ParseRole(raw)
	if !valid {
		slog.Warn("ignoring unknown persisted role", "value", raw)
		return schema.RoleNone
	}
	m.role, m.view = role, ViewMainContent
	return role
}

// ChooseRole handles a pick on the role-selection view. USER is persisted
// and goes straight to main content; ADMIN moves to the login view and
// persists nothing until Authenticate succeeds.
func (m *Manager) ChooseRole(role schema.Role) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.view != ViewRoleSelection {
		return fmt.Errorf("choose role from %s: %w", m.view, ErrInvalidTransition)
	}
	switch role {
	case schema.RoleUser:
		m.persist(schema.RoleUser)
	case schema.RoleAdmin:
		m.view = ViewAdminLogin
		m.loginErr = nil
		m.warning = nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownRole, role)
	}
	return nil
}

// Authenticate checks password against the shared admin secret. There is
// no lockout; a failure only sets the login error.
func (m *Manager) Authenticate(password string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.view != ViewAdminLogin {
		return fmt.Errorf("authenticate from %s: %w", m.view, ErrInvalidTransition)
	}
	if subtle.ConstantTimeCompare([]byte(password), []byte(m.secret)) != 1 {
		msg := m.loc.Message(locale.MsgWrongPassword)
		m.loginErr = &msg
		slog.Info("admin authentication failed")
		return ErrWrongPassword
	}
	m.loginErr = nil
	m.persist(schema.RoleAdmin)
	return nil
}

// BackToRoleSelection abandons the admin login view.
func (m *Manager) BackToRoleSelection() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.view != ViewAdminLogin {
		return fmt.Errorf("leave login from %s: %w", m.view, ErrInvalidTransition)
	}
	m.view = ViewRoleSelection
	m.loginErr = nil
	return nil
}

// Logout clears the persisted role and returns to role selection. A storage
// failure leaves a warning but the in-memory role is cleared regardless.
func (m *Manager) Logout() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.warning = nil
	if err := m.store.Remove(RoleKey); err != nil {
		slog.Warn("clearing persisted role failed", "error", err)
		msg := m.loc.Message(locale.MsgRoleClearFailed)
		m.warning = &msg
	}
	m.role = schema.RoleNone
	m.view = ViewRoleSelection
	m.loginErr = nil
}

// Role returns the active role, RoleNone when none is chosen.
func (m *Manager) Role() schema.Role {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.role
}

// Snapshot returns a copy of the session state.
func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Snapshot{View: m.view, Role: m.role, LoginError: m.loginErr, Warning: m.warning}
}

// persist stores role and advances to main content even when the write fails.
func (m *Manager) persist(role schema.Role) {
	m.warning = nil
	if err := m.store.Set(RoleKey, string(role)); err != nil {
		slog.Warn("persisting role failed", "role", role, "error", err)
		msg := m.loc.Message(locale.MsgRoleSaveFailed)
		m.warning = &msg
	}
	m.role = role
	m.view = ViewMainContent
}
