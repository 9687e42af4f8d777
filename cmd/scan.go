package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"catalog-sync/core/catalog"
	"catalog-sync/core/reconcile"
	"catalog-sync/core/render"
	"catalog-sync/core/storage"
	"catalog-sync/feature/scan"

	"github.com/spf13/cobra"
)

// yesConfirm accepts every gate without prompting.
var yesConfirm bool

var scanTargets = func() []string {
	out := make([]string, 0, len(catalog.Kinds)+1)
	for _, k := range catalog.Kinds {
		out = append(out, string(k))
	}
	return append(out, scan.TargetAll)
}()

// scanCmd reconciles the catalog with the warehouse.
var scanCmd = &cobra.Command{
	Use:   "scan <target>",
	Short: "Record new warehouse objects in the catalog",
	Long: `Lists the warehouse objects of the target kind, compares them with the catalog by natural
key and records the new ones. Objects that vanished from the warehouse are reported and
never removed.

Before anything is written you are asked to confirm; declining aborts the run with a
non-zero exit. Targets: database, schema, table, column, role, user, grants_to_roles,
role_grants, all.

Examples:
  # Reconcile everything, confirming each step
  scan all

  # Non-interactive
  scan all --yes`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: scanTargets,
	RunE:      runScan,
}

func init() {
	scanCmd.Flags().BoolVar(&yesConfirm, "yes", false, "Accept every confirmation (non-interactive)")
	RootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	target := args[0]
	if _, err := scan.Targets(target); err != nil {
		return err
	}

	e, err := loadEnv()
	if err != nil {
		return err
	}
	defer e.logger.Sync()

	decider, err := deciderFor(os.Stdin, cmd.OutOrStdout())
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeCatalog, err := e.openCatalog()
	if err != nil {
		return err
	}
	defer closeCatalog()

	inv, closeWarehouse, err := e.openWarehouse(ctx)
	if err != nil {
		return err
	}
	defer closeWarehouse()

	var archive *scan.Archive
	if e.cfg.Storage.Enabled {
		client, err := storage.NewClient(e.cfg.Storage)
		if err != nil {
			return fmt.Errorf("failed to create storage client: %w", err)
		}
		archive = scan.NewArchive(client, e.cfg.Storage)
	}

	svc := scan.NewService(inv, store, e.policy(), decider, archive, e.logger)
	report, err := svc.Scan(ctx, target)
	if report != nil {
		printReport(cmd.OutOrStdout(), report)
	}
	if errors.Is(err, reconcile.ErrDeclined) {
		e.logger.Warn("Scan cancelled by operator. The declined batch was not written.")
	}
	return err
}

// deciderFor prompts on a terminal and refuses to guess otherwise.
func deciderFor(in *os.File, out io.Writer) (reconcile.Decider, error) {
	if yesConfirm {
		return reconcile.AutoApprove, nil
	}
	if !scan.IsInteractive(in) {
		return nil, errors.New("stdin is not a terminal: pass --yes to accept every confirmation")
	}
	return scan.NewPrompter(in, out), nil
}

func printReport(w io.Writer, r *scan.Report) {
	rows := make([]map[string]any, 0, len(r.Passes))
	var skips []map[string]any
	for _, p := range r.Passes {
		rows = append(rows, map[string]any{
			"kind":     p.Kind,
			"remote":   p.Remote,
			"catalog":  p.Catalog,
			"missing":  p.Missing,
			"new":      p.New,
			"inserted": p.Inserted,
			"skipped":  len(p.Skips),
		})
		for _, s := range p.Skips {
			skips = append(skips, map[string]any{"kind": s.Kind, "parent": s.Parent, "error": s.Error})
		}
	}
	render.Table(w, []string{"kind", "remote", "catalog", "missing", "new", "inserted", "skipped"}, rows)
	if len(skips) > 0 {
		_, _ = fmt.Fprintln(w, "Skipped scopes:")
		render.Table(w, []string{"kind", "parent", "error"}, skips)
	}
	for _, p := range r.Passes {
		for _, n := range p.Notes {
			_, _ = fmt.Fprintf(w, "note (%s): %s\n", p.Kind, n)
		}
	}
}
