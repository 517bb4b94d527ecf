package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port         string        `mapstructure:"port"`
	DBDriver     string        `mapstructure:"db_driver"`
	DBDSN        string        `mapstructure:"db_dsn"`
	LogFile      string        `mapstructure:"log_file"`
	TemplatesDir string        `mapstructure:"templates_dir"`
	StaticDir    string        `mapstructure:"static_dir"`
	SessionTTL   time.Duration `mapstructure:"session_ttl"`
	RememberTTL  time.Duration `mapstructure:"remember_ttl"`
	CookieSecure bool          `mapstructure:"cookie_secure"`
	SeedDemo     bool          `mapstructure:"seed_demo"`
}

func Defaults() Config {
	return Config{
		Port:         "8080",
		DBDriver:     "sqlite",
		DBDSN:        "nittanymarket.db",
		LogFile:      "",
		TemplatesDir: "./web/templates",
		StaticDir:    "./web/static",
		SessionTTL:   30 * time.Minute,
		RememberTTL:  30 * 24 * time.Hour,
		CookieSecure: false,
		SeedDemo:     true,
	}
}

// Load reads defaults, then config.yaml from path (or . and ./configs when
// path is empty), then environment variables such as PORT or DB_DSN.
// A missing config file is not an error.
func Load(path string) (Config, error) {
	v := viper.New()
	d := Defaults()
	v.SetDefault("port", d.Port)
	v.SetDefault("db_driver", d.DBDriver)
	v.SetDefault("db_dsn", d.DBDSN)
	v.SetDefault("log_file", d.LogFile)
	v.SetDefault("templates_dir", d.TemplatesDir)
	v.SetDefault("static_dir", d.StaticDir)
	v.SetDefault("session_ttl", d.SessionTTL)
	v.SetDefault("remember_ttl", d.RememberTTL)
	v.SetDefault("cookie_secure", d.CookieSecure)
	v.SetDefault("seed_demo", d.SeedDemo)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
	}
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if cfg.DBDriver != "sqlite" && cfg.DBDriver != "pgx" {
		return Config{}, fmt.Errorf("db_driver %q: want sqlite or pgx", cfg.DBDriver)
	}
	return cfg, nil
}
