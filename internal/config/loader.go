package config

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"
	_ "time/tzdata" // zone lookups must not depend on the host's zoneinfo

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Environment variable names.
const (
	envPrefix     = "RPE_"
	envConfigFile = "RPE_CONFIG"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if RPE_CONFIG is set
//  3. env (prefix RPE_)
func Load(_ context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv(envConfigFile); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: file %s: %v", ErrLoadConfig, path, err)
		}
	}

	// RPE_QUEUE_SIZE -> queue_size. Keys are flat, so underscores are kept.
	envProvider := env.ProviderWithValue(envPrefix, ".", func(key, value string) (string, interface{}) {
		key = strings.TrimPrefix(strings.ToLower(key), strings.ToLower(envPrefix))
		if key == "config" {
			return "", nil
		}
		if key == "coach_emails" {
			return key, splitList(value)
		}
		return key, value
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %v", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.AcuteWindow < 1:
		return fmt.Errorf("%w: acute_window must be positive", ErrInvalidConfig)
	case c.ElevatedRatio <= 0 || c.VeryHighRatio < c.ElevatedRatio:
		return fmt.Errorf("%w: ratios must satisfy 0 < elevated_ratio <= very_high_ratio", ErrInvalidConfig)
	}

	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("%w: timezone %q: %v", ErrInvalidConfig, c.Timezone, err)
	}

	switch c.StoreDriver {
	case DriverCSV:
		if c.CSVPath == "" {
			return fmt.Errorf("%w: csv_path must not be empty", ErrInvalidConfig)
		}
	case DriverSQLite, DriverPostgres:
		if c.SQLDSN == "" {
			return fmt.Errorf("%w: sql_dsn is required for store_driver %s", ErrInvalidConfig, c.StoreDriver)
		}
	default:
		return fmt.Errorf("%w: unknown store_driver %q", ErrInvalidConfig, c.StoreDriver)
	}

	switch c.ReportSource {
	case SourceStore:
	case SourceSheets:
		if c.SheetsSpreadsheetID == "" || c.SheetsCredentialsFile == "" {
			return fmt.Errorf("%w: sheets source needs sheets_spreadsheet_id and sheets_credentials_file", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown report_source %q", ErrInvalidConfig, c.ReportSource)
	}

	switch c.NotifyDriver {
	case NotifyLog:
	case NotifyRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("%w: redis_addr is required for notify_driver redis", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown notify_driver %q", ErrInvalidConfig, c.NotifyDriver)
	}
	return nil
}

// Location returns the configured time zone. Validate has already checked it.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
