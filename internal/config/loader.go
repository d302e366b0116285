package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config captures environment driven configuration values for the course admin service.
type Config struct {
	HTTPPort          int           `env:"COURSEADMIN_HTTP_PORT" envDefault:"8080"`
	SQLiteDSN         string        `env:"COURSEADMIN_SQLITE_DSN" envDefault:"file:courseadmin.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"`
	Timezone          string        `env:"COURSEADMIN_TIMEZONE" envDefault:"Asia/Tokyo"`
	LogLevel          string        `env:"COURSEADMIN_LOG_LEVEL" envDefault:"info"`
	LogDir            string        `env:"COURSEADMIN_LOG_DIR"`
	AggregateCacheTTL time.Duration `env:"COURSEADMIN_AGGREGATE_CACHE_TTL" envDefault:"30s"`
}

// Load parses configuration values from the current process environment.
//
// A .env file in the working directory is applied first when present. Defaults
// cover every optional field; validation reports localized error messages for
// out of range values.
func Load() (Config, error) {
	_ = godotenv.Load(".env")

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("環境変数の読み込みに失敗しました: %w", err)
	}

	invalid := make([]string, 0, 2)
	if cfg.HTTPPort <= 0 || cfg.HTTPPort > 65535 {
		invalid = append(invalid, "COURSEADMIN_HTTP_PORT")
	}
	if strings.TrimSpace(cfg.SQLiteDSN) == "" {
		invalid = append(invalid, "COURSEADMIN_SQLITE_DSN")
	}
	if strings.TrimSpace(cfg.Timezone) == "" {
		invalid = append(invalid, "COURSEADMIN_TIMEZONE")
	}
	if cfg.AggregateCacheTTL < 0 {
		invalid = append(invalid, "COURSEADMIN_AGGREGATE_CACHE_TTL")
	}

	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("環境変数の値が不正です: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}
