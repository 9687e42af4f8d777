package cmd

import (
	"fmt"

	"catalog-sync/core/render"
	"catalog-sync/feature/clearance"

	"github.com/spf13/cobra"
)

var sessionDetailsCmd = &cobra.Command{
	Use:   "session-details",
	Short: "Show the warehouse user, warehouse and roles of the configured session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv()
		if err != nil {
			return err
		}
		defer e.logger.Sync()

		ctx := cmd.Context()
		inv, closeWarehouse, err := e.openWarehouse(ctx)
		if err != nil {
			return err
		}
		defer closeWarehouse()

		sess, err := clearance.NewService(inv, e.logger).SessionDetails(ctx)
		if err != nil {
			return err
		}
		return render.JSON(cmd.OutOrStdout(), sess)
	},
}

var showRequiredGrantsCmd = &cobra.Command{
	Use:   "show-required-grants",
	Short: "List the privileges a scan needs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return render.JSON(cmd.OutOrStdout(), clearance.Required())
	},
}

var showMissingGrantsCmd = &cobra.Command{
	Use:   "show-missing-grants",
	Short: "List the required privileges none of the session user's roles hold",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv()
		if err != nil {
			return err
		}
		defer e.logger.Sync()

		ctx := cmd.Context()
		inv, closeWarehouse, err := e.openWarehouse(ctx)
		if err != nil {
			return err
		}
		defer closeWarehouse()

		missing, err := clearance.NewService(inv, e.logger).Missing(ctx)
		if err != nil {
			return err
		}
		if len(missing) == 0 {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "User in session has all of the required grants.")
			return nil
		}
		return render.JSON(cmd.OutOrStdout(), missing)
	},
}

func init() {
	RootCmd.AddCommand(sessionDetailsCmd, showRequiredGrantsCmd, showMissingGrantsCmd)
}
