package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/projetoecoscan/ecoscan/internal/fakebackend"
)

// fakeBackendFlags holds the parsed flags for the fake-backend command.
type fakeBackendFlags struct {
	addr string
	demo bool
}

func newFakeBackendCmd(g *globalFlags) *cobra.Command {
	var flags fakeBackendFlags
	cmd := &cobra.Command{
		Use:   "fake-backend",
		Short: "Serve an in-memory backend for local testing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := loadConfig(g); err != nil {
				return err
			}
			return runFakeBackend(cmd.Context(), flags, cmd.OutOrStdout())
		},
	}
	f := cmd.Flags()
	f.StringVar(&flags.addr, "addr", "localhost:5291", "Listen address")
	f.BoolVar(&flags.demo, "demo", true, "Seed demo products and one pending suggestion")
	return cmd
}

// runFakeBackend serves until ctx is done, then shuts down gracefully.
func runFakeBackend(ctx context.Context, flags fakeBackendFlags, out io.Writer) error {
	fb := fakebackend.New()
	if flags.demo {
		fakebackend.SeedDemo(fb)
	}

	ln, err := net.Listen("tcp", flags.addr)
	if err != nil {
		return codeError(exitConfig, "listening on %s: %s", flags.addr, err)
	}
	srv := &http.Server{
		Handler:           fb.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	fprintf(out, "fake backend listening on http://%s\n", ln.Addr())

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			return codeError(exitGeneric, "fake backend: %s", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return codeError(exitGeneric, "shutting down fake backend: %s", err)
	}
	slog.Info("fake backend stopped", "requests", fb.Requests())
	return nil
}
