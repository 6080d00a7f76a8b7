package cli

import (
	"fmt"

	"grocery/internal/infra/db"

	"github.com/spf13/cobra"
)

// NewMigrateCommand creates the migrate command.
func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "migrate",
		Short:         "Create or update database tables",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			gormDB, err := openDB(cmd.Context(), rootOpts)
			if err != nil {
				return err
			}
			defer closeDB(gormDB)

			if err := db.Migrate(gormDB); err != nil {
				return WrapExitError(ExitFailure, "failed to migrate database", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Migration complete.")
			return nil
		},
	}
}
