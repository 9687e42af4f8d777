package cmd

import (
	"errors"
	"fmt"

	"catalog-sync/core/storage"
	"catalog-sync/feature/integrity"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var errUnhealthy = errors.New("integrity check found problems")

// checkCmd runs the integrity checks.
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check catalog integrity",
	Long: `Checks that every catalog table exists with the expected columns, that every identity
reference points at an existing row, and, when archiving is enabled, that the report bucket exists.
Exits non-zero when a problem is found.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv()
		if err != nil {
			return err
		}
		defer e.logger.Sync()

		store, closeCatalog, err := e.openCatalog()
		if err != nil {
			return err
		}
		defer closeCatalog()

		var client storage.Client
		if e.cfg.Storage.Enabled {
			if client, err = storage.NewClient(e.cfg.Storage); err != nil {
				return err
			}
		}

		report, err := integrity.NewService(store, client, e.cfg.Storage, e.logger).CheckAll(cmd.Context())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for _, p := range report.Tables {
			_, _ = fmt.Fprintln(out, p)
		}
		if len(report.References) > 0 {
			t := table.NewWriter()
			t.SetOutputMirror(out)
			t.AppendHeader(table.Row{"Kind", "Id", "Column", "Target", "Missing id"})
			for _, d := range report.References {
				t.AppendRow(table.Row{d.Kind, d.ID, d.Column, d.Target, d.RefID})
			}
			t.Render()
		}
		if report.Archive != nil && !report.Archive.Exists {
			_, _ = fmt.Fprintf(out, "Bucket %s does not exist.\n", report.Archive.Bucket)
		}

		if !report.Healthy() {
			return errUnhealthy
		}
		_, _ = fmt.Fprintln(out, "Catalog is healthy.")
		return nil
	},
}

func init() {
	RootCmd.AddCommand(checkCmd)
}
