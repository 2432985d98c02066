package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/yukikurage/volunteer-lifecycle-api/cmd/server/commands"
)

func main() {
	app := &commands.App{}

	rootCmd := &cobra.Command{
		Use:          "server",
		Short:        "Volunteer lifecycle API",
		Long:         `Serves the volunteer lifecycle API and runs its supporting jobs.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.Init()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			app.Sync()
		},
	}

	rootCmd.AddCommand(commands.ServeCmd(app))
	rootCmd.AddCommand(commands.MigrateCmd(app))
	rootCmd.AddCommand(commands.RelayCmd(app))
	rootCmd.AddCommand(commands.GrantAdminCmd(app))

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
