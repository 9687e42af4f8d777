package cmd

import (
	"fmt"

	"catalog-sync/core/render"
	"catalog-sync/feature/tags"

	"github.com/spf13/cobra"
)

var tagNameLike string

var createTagCmd = &cobra.Command{
	Use:   "create-tag <name> [allowed values...]",
	Short: "Create a tag, optionally restricted to a set of values",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withTags(cmd, func(svc *tags.Service) error {
			tag, err := svc.Create(cmd.Context(), args[0], args[1:])
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Tag '%s' created successfully.\n", tag.Name)
			return nil
		})
	},
}

var showTagsCmd = &cobra.Command{
	Use:   "show-tags",
	Short: "List tags and their allowed values",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withTags(cmd, func(svc *tags.Service) error {
			found, err := svc.List(cmd.Context(), tagNameLike)
			if err != nil {
				return err
			}
			return render.JSON(cmd.OutOrStdout(), found)
		})
	},
}

var setTagCmd = &cobra.Command{
	Use:   "set-tag <file>",
	Short: "Assign a tag value to objects listed in a YAML or JSON file",
	Long: `Assigns a tag value to warehouse objects. The file looks like:

  tag: pii
  value: email
  objects:
    - type: column
      path: ANALYTICS.PUBLIC.USERS.EMAIL

Object types: user, role, table, column, view. Objects already carrying the value are skipped.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		req, err := tags.ReadAssignmentFile(args[0])
		if err != nil {
			return err
		}
		return withTags(cmd, func(svc *tags.Service) error {
			res, err := svc.Set(cmd.Context(), req)
			if err != nil {
				return err
			}
			for _, o := range res.Skipped {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Tag '%s' with value '%s' already assigned to %s '%s'. Skipping...\n", req.Tag, req.Value, o.Type, o.Path)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Tag '%s' set on %d objects.\n", req.Tag, len(res.Assigned))
			return nil
		})
	},
}

func withTags(cmd *cobra.Command, fn func(*tags.Service) error) error {
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

	return fn(tags.NewService(store, e.logger))
}

func init() {
	showTagsCmd.Flags().StringVar(&tagNameLike, "name-like", "", "Only tags whose name contains this text")
	RootCmd.AddCommand(createTagCmd, showTagsCmd, setTagCmd)
}
