package commands

import (
	"github.com/spf13/cobra"

	"github.com/yukikurage/volunteer-lifecycle-api/internal/database"
)

// MigrateCmd creates the migrate command
func MigrateCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := app.OpenDB()
			if err != nil {
				return err
			}
			return database.Migrate(db, app.Logger)
		},
	}
}
