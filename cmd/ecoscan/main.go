package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/projetoecoscan/ecoscan/internal/app"
	"github.com/projetoecoscan/ecoscan/internal/flight"
	"github.com/projetoecoscan/ecoscan/internal/gateway"
	"github.com/projetoecoscan/ecoscan/internal/review"
	"github.com/projetoecoscan/ecoscan/internal/scan"
	"github.com/projetoecoscan/ecoscan/internal/session"
	"github.com/projetoecoscan/ecoscan/internal/validate"
)

// version is set at build time via -ldflags "-X main.version=x.y.z".
var version = "dev"

// Exit codes.
const (
	exitGeneric = 1
	exitRefused = 2
	exitConfig  = 3
	exitBackend = 4
)

// exitErr carries a numeric exit code through the cobra error path.
type exitErr struct {
	code int
	msg  string
}

func (e *exitErr) Error() string { return e.msg }

// codeError returns an exitErr for the given code.
func codeError(code int, format string, args ...any) error {
	return &exitErr{code: code, msg: fmt.Sprintf(format, args...)}
}

// classify maps a workflow error to an exitErr. Errors that already carry
// a code pass through unchanged.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var ee *exitErr
	if errors.As(err, &ee) {
		return err
	}
	var (
		ve *validate.ValidationError
		se *gateway.ServerError
		ne *gateway.NetworkError
	)
	switch {
	case errors.As(err, &ve),
		errors.Is(err, session.ErrWrongPassword),
		errors.Is(err, session.ErrInvalidTransition),
		errors.Is(err, session.ErrUnknownRole),
		errors.Is(err, review.ErrForbidden),
		errors.Is(err, review.ErrNoSelection),
		errors.Is(err, review.ErrUnknownSuggestion),
		errors.Is(err, review.ErrUnknownField),
		errors.Is(err, review.ErrInvalidTransition),
		errors.Is(err, flight.ErrBusy),
		errors.Is(err, scan.ErrInvalidTransition),
		errors.Is(err, scan.ErrPermissionDenied),
		errors.Is(err, scan.ErrNoDraft),
		errors.Is(err, scan.ErrImmutableField),
		errors.Is(err, scan.ErrUnknownField),
		errors.Is(err, app.ErrRoleRequired),
		errors.Is(err, app.ErrReviewOpen):
		return codeError(exitRefused, "%s", err)
	case errors.As(err, &se), errors.As(err, &ne):
		return codeError(exitBackend, "%s", err)
	}
	return codeError(exitGeneric, "%s", err)
}

// setupLogger installs a text slog handler on w at level.
func setupLogger(w io.Writer, level slog.Level) {
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := newRootCmd(os.Stdin, os.Stdout)
	err := root.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		var ee *exitErr
		if errors.As(err, &ee) {
			os.Exit(ee.code)
		}
		os.Exit(exitGeneric)
	}
}

func newRootCmd(in io.Reader, out io.Writer) *cobra.Command {
	var g globalFlags
	root := &cobra.Command{
		Use:           "ecoscan",
		Short:         "Look up recycling information by barcode and crowd-source missing products",
		Long:          "ecoscan scans or looks up product barcodes against the EcoScan backend, submits suggestions for unknown products, and lets administrators review and approve them.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetIn(in)
	root.SetOut(out)

	pf := root.PersistentFlags()
	pf.StringVar(&g.backend, "backend", "", "Backend base URL (overrides ECOSCAN_BACKEND_URL)")
	pf.StringVar(&g.lang, "lang", "", "Message language, e.g. pt-BR or en-US (overrides ECOSCAN_LANG)")
	pf.StringVar(&g.stateDir, "state-dir", "", "Directory holding the persisted role (overrides ECOSCAN_STATE_DIR)")
	pf.StringVar(&g.format, "format", "text", "Output format: text or json")
	pf.StringVar(&g.logLevel, "log-level", "", "Log level: debug, info, warn or error (overrides ECOSCAN_LOG_LEVEL)")
	pf.StringVar(&g.envFile, "env-file", ".env", "Optional dotenv file read before the environment")

	root.AddCommand(
		newStatusCmd(&g),
		newRoleCmd(&g),
		newLogoutCmd(&g),
		newLookupCmd(&g),
		newSuggestCmd(&g),
		newScanCmd(&g),
		newReviewCmd(&g),
		newMaterialsCmd(&g),
		newShellCmd(&g),
		newFakeBackendCmd(&g),
	)
	return root
}
