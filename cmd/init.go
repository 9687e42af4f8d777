package cmd

import (
	"fmt"

	"catalog-sync/feature/tags"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// initCmd creates the catalog tables.
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the catalog and tag tables",
	Long: `Creates every catalog table, with unique indexes on the natural keys, and the tag tables.
Running it again is harmless.`,
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

		ctx := cmd.Context()
		if err := store.Migrate(ctx); err != nil {
			return err
		}
		if err := tags.Migrate(ctx, store); err != nil {
			return err
		}

		e.logger.Info("Catalog initialized",
			zap.String("driver", e.cfg.Catalog.Driver),
			zap.String("namespace", store.Namespace()))
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Catalog initialized.")
		return nil
	},
}

func init() {
	RootCmd.AddCommand(initCmd)
}
