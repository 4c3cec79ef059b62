package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/projetoecoscan/ecoscan/internal/app"
	"github.com/projetoecoscan/ecoscan/internal/config"
	"github.com/projetoecoscan/ecoscan/internal/gateway"
	"github.com/projetoecoscan/ecoscan/internal/locale"
	"github.com/projetoecoscan/ecoscan/internal/render"
	"github.com/projetoecoscan/ecoscan/internal/review"
	"github.com/projetoecoscan/ecoscan/internal/scan"
	"github.com/projetoecoscan/ecoscan/internal/store"
)

// globalFlags holds the persistent flags shared by every command.
type globalFlags struct {
	backend  string
	lang     string
	stateDir string
	format   string
	logLevel string
	envFile  string
}

// env is what a command runs against: the controller plus output plumbing.
type env struct {
	cfg      *config.Config
	loc      *locale.Localizer
	ctrl     *app.Controller
	renderer render.Renderer
	format   string
	out      io.Writer
}

// loadConfig applies flag overrides on top of the loaded configuration.
func loadConfig(g *globalFlags) (*config.Config, error) {
	cfg, err := config.LoadFile(g.envFile)
	if err != nil {
		return nil, codeError(exitConfig, "loading config: %s", err)
	}
	if g.backend != "" {
		cfg.BackendURL = g.backend
	}
	if g.lang != "" {
		cfg.Lang = g.lang
	}
	if g.stateDir != "" {
		cfg.StateDir = g.stateDir
	}
	if g.logLevel != "" {
		cfg.LogLevel = g.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, codeError(exitConfig, "invalid config: %s", err)
	}
	level, _ := config.ParseLevel(cfg.LogLevel)
	setupLogger(os.Stderr, level)
	return cfg, nil
}

// newEnv builds the controller and restores the persisted role.
func newEnv(g *globalFlags, out io.Writer) (*env, error) {
	cfg, err := loadConfig(g)
	if err != nil {
		return nil, err
	}
	loc, err := locale.New(cfg.Lang)
	if err != nil {
		return nil, codeError(exitConfig, "%s", err)
	}
	renderer, err := render.NewRenderer(g.format, loc)
	if err != nil {
		return nil, codeError(exitConfig, "invalid format: %s", err)
	}
	gw, err := gateway.New(cfg.BackendURL, gateway.WithTimeout(cfg.HTTPTimeout))
	if err != nil {
		return nil, codeError(exitConfig, "%s", err)
	}
	st := store.NewFileStore(cfg.StateDir)
	slog.Debug("client configured", "backend", gw.BaseURL(), "state", st.Path(), "lang", cfg.Lang)

	ctrl := app.New(app.Options{
		Backend:     gw,
		Store:       st,
		Permissions: scan.AlwaysGranted,
		AdminSecret: cfg.AdminPassword,
		Localizer:   loc,
	})
	ctrl.Start()
	return &env{cfg: cfg, loc: loc, ctrl: ctrl, renderer: renderer, format: g.format, out: out}, nil
}

// show renders the current view.
func (e *env) show() error {
	b, err := e.renderer.Render(e.ctrl.View())
	if err != nil {
		return codeError(exitGeneric, "rendering output: %s", err)
	}
	if _, err := e.out.Write(b); err != nil {
		return codeError(exitGeneric, "writing output: %s", err)
	}
	return nil
}

// finish renders the view and then reports err, so that the user sees the
// localized state even when the command fails.
func (e *env) finish(err error) error {
	if serr := e.show(); serr != nil && err == nil {
		return serr
	}
	return classify(e.localize(err))
}

// localizedError shows a translated message and still unwraps to the
// original error.
type localizedError struct {
	msg string
	err error
}

func (l *localizedError) Error() string { return l.msg }
func (l *localizedError) Unwrap() error { return l.err }

// localize replaces the text of role-gate refusals with the user's language.
func (e *env) localize(err error) error {
	switch {
	case errors.Is(err, app.ErrRoleRequired):
		return &localizedError{msg: e.loc.T(locale.MsgRoleRequired), err: err}
	case errors.Is(err, review.ErrForbidden):
		return &localizedError{msg: e.loc.T(locale.MsgAdminOnly), err: err}
	}
	return err
}

func fprintf(w io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
