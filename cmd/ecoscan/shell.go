package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/projetoecoscan/ecoscan/internal/capture"
	"github.com/projetoecoscan/ecoscan/internal/patch"
	"github.com/projetoecoscan/ecoscan/internal/redact"
	"github.com/projetoecoscan/ecoscan/internal/schema"
)

const shellHelp = `commands:
  status                      show the current screen
  role user|admin             choose a role
  login <password>            authenticate as admin
  back                        leave the admin login
  logout                      clear the role
  scan                        activate the capture surface
  capture <barcode>           deliver a scanned barcode
  enter <barcode>             type a barcode
  set <field> <value>         edit the suggestion draft (name, material)
  submit                      send the suggestion
  another                     scan another product
  cancel                      return to idle
  review                      open the review list (admin)
  refresh                     re-fetch the review list
  select <id>                 select a pending suggestion
  edit <field> <value>        edit the review draft (barcode, name, material)
  diff                        show the edits made to the selection
  approve                     approve the selection
  unselect                    drop the selection
  close                       close the review list
  materials                   list the material vocabulary
  help                        show this text
  quit                        leave the shell
`

func newShellCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Drive the whole workflow interactively, one command per line",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShell(cmd.Context(), g, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}

// errQuit ends the shell loop.
var errQuit = errors.New("quit")

// runShell reads commands from in until EOF or quit. A failing command
// prints its error and the loop goes on.
func runShell(ctx context.Context, g *globalFlags, in io.Reader, out io.Writer) error {
	e, err := newEnv(g, out)
	if err != nil {
		return err
	}
	if err := e.show(); err != nil {
		return err
	}

	src := capture.NewLineSource(in)
	for {
		line, err := src.Next(ctx)
		if errors.Is(err, io.EOF) || ctx.Err() != nil {
			return nil
		}
		if err != nil {
			return err
		}
		slog.Debug("shell command", "line", redact.Command(line))
		err = e.exec(ctx, line)
		if errors.Is(err, errQuit) {
			return nil
		}
		if err != nil {
			fprintf(out, "error: %s\n", e.localize(err))
		}
		if err := e.show(); err != nil {
			return err
		}
	}
}

// exec runs one shell line.
func (e *env) exec(ctx context.Context, line string) error {
	cmd, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)
	c := e.ctrl

	switch strings.ToLower(cmd) {
	case "status":
		return nil
	case "help", "?":
		fprintf(e.out, "%s", shellHelp)
		return nil
	case "quit", "exit":
		return errQuit
	case "role":
		role, ok := schema.ParseRole(rest)
		if !ok {
			return errors.New("usage: role user|admin")
		}
		return c.ChooseRole(role)
	case "login":
		return c.Authenticate(rest)
	case "back":
		return c.BackToRoleSelection()
	case "logout":
		c.Logout()
		return nil
	case "scan":
		return c.StartScan(ctx)
	case "capture":
		return c.Capture(ctx, rest)
	case "enter":
		return c.EnterManual(ctx, rest)
	case "set":
		f, v, err := fieldArg(rest)
		if err != nil {
			return err
		}
		return c.UpdateDraftField(f, v)
	case "submit":
		return c.SubmitSuggestion(ctx)
	case "another":
		return c.ScanAnother()
	case "cancel":
		c.CancelScan()
		return nil
	case "review":
		return c.OpenReview(ctx)
	case "refresh":
		return c.RefreshReview(ctx)
	case "select":
		id, err := strconv.ParseInt(rest, 10, 64)
		if err != nil {
			return errors.New("usage: select <id>")
		}
		return c.SelectSuggestion(id)
	case "edit":
		f, v, err := fieldArg(rest)
		if err != nil {
			return err
		}
		return c.UpdateReviewField(f, v)
	case "diff":
		changes, err := c.ReviewChanges()
		if err != nil {
			return err
		}
		fprintf(e.out, "%s", patch.Text(changes))
		return nil
	case "approve":
		return c.Approve(ctx)
	case "unselect":
		return c.CancelReview()
	case "close":
		c.CloseReview()
		return nil
	case "materials":
		return runMaterials(e.format, e.out)
	}
	return errors.New("unknown command " + strconv.Quote(cmd) + "; try help")
}

// fieldArg splits "<field> <value...>". The value may be empty to clear a field.
func fieldArg(s string) (schema.Field, string, error) {
	name, value, _ := strings.Cut(s, " ")
	f, ok := schema.ParseField(name)
	if !ok {
		return "", "", errors.New("usage: <barcode|name|material> <value>")
	}
	return f, strings.TrimSpace(value), nil
}
