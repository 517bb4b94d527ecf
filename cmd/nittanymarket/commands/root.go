package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"nittanymarket/internal/config"
	applog "nittanymarket/internal/log"
	"nittanymarket/internal/repos"
)

var (
	// Global flags
	configFile string
	dbDriver   string
	dbDSN      string
)

// rootCmd runs the web server when no subcommand is given.
var rootCmd = &cobra.Command{
	Use:   "nittanymarket",
	Short: "Nittany Market - a marketplace for buyers, sellers and helpdesk staff",
	Long: `Nittany Market serves the marketplace web application.

Configuration comes from defaults, an optional config.yaml, a .env file and
environment variables (PORT, DB_DRIVER, DB_DSN, LOG_FILE, ...). The --db-driver
and --db-dsn flags override the database settings.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Path to a config file (default: ./config.yaml or ./configs/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&dbDriver, "db-driver", "", "Database driver: sqlite or pgx")
	rootCmd.PersistentFlags().StringVar(&dbDSN, "db-dsn", "", "Database DSN (file path for sqlite, URL for pgx)")
}

// loadConfig reads .env, the config file and the environment, then applies
// the command-line overrides.
func loadConfig() (config.Config, error) {
	_ = godotenv.Load()
	cfg, err := config.Load(configFile)
	if err != nil {
		return cfg, err
	}
	if dbDriver != "" {
		cfg.DBDriver = dbDriver
	}
	if dbDSN != "" {
		cfg.DBDSN = dbDSN
	}
	return cfg, nil
}

// setupLogging tees the JSON log to cfg.LogFile when one is configured.
// The returned closer flushes and closes the file.
func setupLogging(cfg config.Config) (func(), error) {
	if cfg.LogFile == "" {
		return applog.Sync, nil
	}
	f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file %s: %w", cfg.LogFile, err)
	}
	restore := applog.SetOutput(io.MultiWriter(os.Stdout, f))
	return func() {
		applog.Sync()
		restore()
		_ = f.Close()
	}, nil
}

func openStore(ctx context.Context, cfg config.Config) (*sqlx.DB, *repos.Store, error) {
	db, err := repos.OpenDB(ctx, cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s database: %w", cfg.DBDriver, err)
	}
	applog.L().Info("database ready", zap.String("driver", cfg.DBDriver))
	return db, repos.NewStore(db), nil
}
