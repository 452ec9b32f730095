package cmd

import (
	"github.com/spf13/cobra"

	"github.com/yjchoi-grove/vibe-coding/utils"
)

func init() {
	migrateCommand := &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			// bootstrap migrates every model on open
			a, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()
			utils.Sugar.Infof("database schema is up to date (driver=%s)", a.cfg.DBDriver)
			return nil
		},
	}
	RootCommand.AddCommand(migrateCommand)
}
