package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/yukikurage/volunteer-lifecycle-api/internal/repository"
	"github.com/yukikurage/volunteer-lifecycle-api/internal/services"
)

// GrantAdminCmd creates the grant-admin command
func GrantAdminCmd(app *App) *cobra.Command {
	var revoke bool

	cmd := &cobra.Command{
		Use:   "grant-admin <email>",
		Short: "Grant or revoke platform administration for a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := app.OpenDB()
			if err != nil {
				return err
			}

			actorService := services.NewActorService(repository.NewUserRepository(db), repository.NewOrganizationRepository(db))
			user, err := actorService.GrantSuperAdmin(args[0], !revoke)
			if err != nil {
				return fmt.Errorf("failed to update %s: %w", args[0], err)
			}

			app.Logger.Info("Updated super admin flag",
				zap.Uint64("user_id", user.ID),
				zap.String("email", user.Email),
				zap.Bool("super_admin", user.IsSuperAdmin),
			)
			return nil
		},
	}

	cmd.Flags().BoolVar(&revoke, "revoke", false, "Revoke instead of grant")
	return cmd
}
