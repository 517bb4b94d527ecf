package commands

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	applog "nittanymarket/internal/log"
	"nittanymarket/internal/repos"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load the demo accounts and catalog",
	Long: `Insert demo categories, listings, buyers, a seller and a helpdesk
account. Seeding is skipped when the demo helpdesk account already exists.

All demo accounts use the password ` + repos.DemoPassword + `.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		db, store, err := openStore(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := repos.Seed(cmd.Context(), store); err != nil {
			return err
		}
		applog.L().Info("demo data ready",
			zap.Strings("accounts", []string{repos.DemoBuyer, repos.DemoBuyer2, repos.DemoSeller, repos.DemoHelpdesk}))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
}
