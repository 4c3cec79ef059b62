package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/projetoecoscan/ecoscan/internal/capture"
	"github.com/projetoecoscan/ecoscan/internal/patch"
	"github.com/projetoecoscan/ecoscan/internal/schema"
	"github.com/projetoecoscan/ecoscan/internal/session"
)

func newStatusCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the active role and screen",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(g, cmd.OutOrStdout())
		},
	}
}

func runStatus(g *globalFlags, out io.Writer) error {
	e, err := newEnv(g, out)
	if err != nil {
		return err
	}
	return e.finish(nil)
}

func newRoleCmd(g *globalFlags) *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:       "role <user|admin>",
		Short:     "Choose the session role; admin asks for the shared password",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"user", "admin"},
		RunE: func(cmd *cobra.Command, args []string) error {
			role, ok := schema.ParseRole(args[0])
			if !ok {
				return codeError(exitRefused, "unknown role %q: expected user or admin", args[0])
			}
			return runRole(g, role, password, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&password, "password", "", "Admin password; prompted for when omitted")
	return cmd
}

// runRole switches to role. An existing role is logged out first, since a
// role can only be chosen from the role-selection screen.
func runRole(g *globalFlags, role schema.Role, password string, in io.Reader, out io.Writer) error {
	e, err := newEnv(g, out)
	if err != nil {
		return err
	}
	if e.ctrl.View().Screen != session.ViewRoleSelection {
		e.ctrl.Logout()
	}
	if err := e.ctrl.ChooseRole(role); err != nil {
		return e.finish(err)
	}
	if role == schema.RoleAdmin {
		pw, err := readPassword(in, password)
		if err != nil {
			return codeError(exitGeneric, "reading password: %s", err)
		}
		return e.finish(e.ctrl.Authenticate(pw))
	}
	return e.finish(nil)
}

// readPassword returns flagValue when set, reads without echo from a
// terminal, and otherwise takes the first line of in.
func readPassword(in io.Reader, flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(os.Stderr, "Senha: ")
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func newLogoutCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Clear the persisted role",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(g, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			e.ctrl.Logout()
			return e.finish(nil)
		},
	}
}

func newLookupCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "lookup <barcode>",
		Short: "Look up a typed barcode",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLookup(cmd.Context(), g, args[0], cmd.OutOrStdout())
		},
	}
}

func runLookup(ctx context.Context, g *globalFlags, barcode string, out io.Writer) error {
	e, err := newEnv(g, out)
	if err != nil {
		return err
	}
	return e.finish(e.ctrl.EnterManual(ctx, barcode))
}

// suggestFlags holds the parsed flags for the suggest command.
type suggestFlags struct {
	name     string
	material string
}

func newSuggestCmd(g *globalFlags) *cobra.Command {
	var flags suggestFlags
	cmd := &cobra.Command{
		Use:   "suggest <barcode>",
		Short: "Suggest details for a product the backend does not know",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSuggest(cmd.Context(), g, args[0], flags, cmd.OutOrStdout())
		},
	}
	f := cmd.Flags()
	f.StringVar(&flags.name, "name", "", "Product name (keeps a name pre-filled from an external source when omitted)")
	f.StringVar(&flags.material, "material", "", "Main material; see the materials command")
	return cmd
}

// runSuggest looks the barcode up first; a suggestion is only possible
// when the lookup asks for one or fails.
func runSuggest(ctx context.Context, g *globalFlags, barcode string, flags suggestFlags, out io.Writer) error {
	e, err := newEnv(g, out)
	if err != nil {
		return err
	}
	if err := e.ctrl.EnterManual(ctx, barcode); err != nil {
		return e.finish(err)
	}
	if v := e.ctrl.View(); v.Scan == nil || v.Scan.Draft == nil {
		if err := e.show(); err != nil {
			return err
		}
		return codeError(exitRefused, "product %s is already registered", strings.TrimSpace(barcode))
	}
	if flags.name != "" {
		if err := e.ctrl.UpdateDraftField(schema.FieldProductName, flags.name); err != nil {
			return e.finish(err)
		}
	}
	if flags.material != "" {
		if !schema.IsKnownMaterial(flags.material) {
			slog.Warn("material is not in the known vocabulary; the backend may reject it", "material", flags.material)
		}
		if err := e.ctrl.UpdateDraftField(schema.FieldMaterial, flags.material); err != nil {
			return e.finish(err)
		}
	}
	return e.finish(e.ctrl.SubmitSuggestion(ctx))
}

func newScanCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "scan",
		Short: "Read barcodes from stdin, one per line, and look each up",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(cmd.Context(), g, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}

func runScan(ctx context.Context, g *globalFlags, in io.Reader, out io.Writer) error {
	e, err := newEnv(g, out)
	if err != nil {
		return err
	}
	src := capture.NewLineSource(in)
	for {
		if err := e.ctrl.StartScan(ctx); err != nil {
			return e.finish(err)
		}
		code, err := src.Next(ctx)
		if err != nil {
			e.ctrl.CancelScan()
			if errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) {
				return nil
			}
			return classify(err)
		}
		if err := e.ctrl.Capture(ctx, code); err != nil {
			return e.finish(err)
		}
		if err := e.show(); err != nil {
			return err
		}
		if err := e.ctrl.ScanAnother(); err != nil {
			return classify(err)
		}
	}
}

func newReviewCmd(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "review",
		Short: "List and approve pending suggestions (admin only)",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List pending suggestions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReviewList(cmd.Context(), g, cmd.OutOrStdout())
		},
	})

	var flags approveFlags
	approve := &cobra.Command{
		Use:   "approve <id>",
		Short: "Approve a pending suggestion, optionally editing its fields",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return codeError(exitRefused, "invalid suggestion id %q", args[0])
			}
			return runApprove(cmd.Context(), g, id, flags, cmd.OutOrStdout())
		},
	}
	f := approve.Flags()
	f.StringVar(&flags.barcode, "barcode", "", "Replace the suggested barcode")
	f.StringVar(&flags.name, "name", "", "Replace the suggested product name")
	f.StringVar(&flags.material, "material", "", "Replace the suggested material")
	f.BoolVar(&flags.dryRun, "dry-run", false, "Show the edited suggestion and its changes without approving")
	cmd.AddCommand(approve)
	return cmd
}

func runReviewList(ctx context.Context, g *globalFlags, out io.Writer) error {
	e, err := newEnv(g, out)
	if err != nil {
		return err
	}
	return e.finish(e.ctrl.OpenReview(ctx))
}

// approveFlags holds the parsed flags for review approve.
type approveFlags struct {
	barcode  string
	name     string
	material string
	dryRun   bool
}

func runApprove(ctx context.Context, g *globalFlags, id int64, flags approveFlags, out io.Writer) error {
	e, err := newEnv(g, out)
	if err != nil {
		return err
	}
	if err := e.ctrl.OpenReview(ctx); err != nil {
		return e.finish(err)
	}
	if err := e.ctrl.SelectSuggestion(id); err != nil {
		return e.finish(err)
	}
	edits := []struct {
		field schema.Field
		value string
	}{
		{schema.FieldBarcode, flags.barcode},
		{schema.FieldProductName, flags.name},
		{schema.FieldMaterial, flags.material},
	}
	for _, ed := range edits {
		if ed.value == "" {
			continue
		}
		if err := e.ctrl.UpdateReviewField(ed.field, ed.value); err != nil {
			return e.finish(err)
		}
	}
	if flags.dryRun {
		return e.finish(nil)
	}

	changes, err := e.ctrl.ReviewChanges()
	if err != nil {
		return classify(err)
	}
	if len(changes) > 0 {
		slog.Info("approving with edits", "id", id, "changes", len(changes))
		if g.format != "json" {
			fprintf(out, "%s", patch.Text(changes))
		}
	}
	return e.finish(e.ctrl.Approve(ctx))
}

func newMaterialsCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "materials",
		Short: "List the material vocabulary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMaterials(g.format, cmd.OutOrStdout())
		},
	}
}

func runMaterials(format string, out io.Writer) error {
	switch format {
	case "json":
		b, err := json.MarshalIndent(schema.Materials, "", "  ")
		if err != nil {
			return codeError(exitGeneric, "encoding materials: %s", err)
		}
		fprintf(out, "%s\n", b)
		return nil
	case "", "text":
		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		for _, m := range schema.Materials {
			fprintf(tw, "%s\t%s\n", m.Value, m.Label)
		}
		return tw.Flush()
	}
	return codeError(exitConfig, "invalid format: unknown format %q: supported formats are text, json", format)
}
