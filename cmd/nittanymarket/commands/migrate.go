package commands

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	applog "nittanymarket/internal/log"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create missing tables and indexes, then exit",
	Long: `Apply the schema to the configured database.

Every statement is idempotent, so running migrate against an existing
database only adds what is missing.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		// OpenDB migrates before returning
		db, _, err := openStore(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer db.Close()
		applog.L().Info("schema applied", zap.String("driver", cfg.DBDriver))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
