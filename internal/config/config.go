// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - New returns a Config filled with defaults.
// - Load(ctx) layers defaults, an optional YAML file and RPE_* environment variables.
// - Validation failures wrap ErrInvalidConfig.
package config

import (
	"runtime"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":4025".
	Addr string `koanf:"addr"`

	// Timezone names the IANA zone used to derive a submission's calendar date.
	Timezone string `koanf:"timezone"`

	// CORSAllowedOrigin is echoed in Access-Control-Allow-Origin; empty disables CORS headers.
	CORSAllowedOrigin string `koanf:"cors_allowed_origin"`

	// QueueSize bounds the pending write queue.
	QueueSize int `koanf:"queue_size"`

	// WriterCount sets the number of store writers. One keeps writes serialized.
	WriterCount int `koanf:"writer_count"`

	// DedupeSize bounds the reminder deduper.
	DedupeSize int `koanf:"dedupe_size"`

	// StoreDriver selects the table store: csv, sqlite or postgres.
	StoreDriver string `koanf:"store_driver"`

	// CSVPath is the table file used by the csv driver.
	CSVPath string `koanf:"csv_path"`

	// SQLDSN is the data source name used by the sqlite and postgres drivers.
	SQLDSN string `koanf:"sql_dsn"`

	// ReportSource selects where reports read from: store or sheets.
	ReportSource string `koanf:"report_source"`

	// Sheets source settings, used when ReportSource is "sheets".
	SheetsSpreadsheetID   string `koanf:"sheets_spreadsheet_id"`
	SheetsRange           string `koanf:"sheets_range"`
	SheetsCredentialsFile string `koanf:"sheets_credentials_file"`

	// AcuteWindow is the number of most recent sessions averaged for acute load.
	AcuteWindow int `koanf:"acute_window"`

	// ElevatedRatio and VeryHighRatio are the A:C thresholds for the risk states.
	ElevatedRatio float64 `koanf:"elevated_ratio"`
	VeryHighRatio float64 `koanf:"very_high_ratio"`

	// WorkloadParallelism caps concurrent per-athlete workload computations.
	WorkloadParallelism int `koanf:"workload_parallelism"`

	// NotifyDriver selects the dispatcher: log or redis.
	NotifyDriver string `koanf:"notify_driver"`

	// Redis dispatcher settings.
	RedisAddr        string `koanf:"redis_addr"`
	RedisReminderKey string `koanf:"redis_reminder_key"`
	RedisReportKey   string `koanf:"redis_report_key"`

	// CoachEmails is the default recipient list for coach reports.
	CoachEmails []string `koanf:"coach_emails"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:            "info",
		Addr:                ":4025",
		Timezone:            "America/Chicago",
		CORSAllowedOrigin:   "*",
		QueueSize:           1_024,
		WriterCount:         1,
		DedupeSize:          10_000,
		StoreDriver:         DriverCSV,
		CSVPath:             "responses.csv",
		ReportSource:        SourceStore,
		SheetsRange:         "RPE Sheet",
		AcuteWindow:         7,
		ElevatedRatio:       1.5,
		VeryHighRatio:       2.0,
		WorkloadParallelism: runtime.NumCPU(),
		NotifyDriver:        NotifyLog,
		RedisReminderKey:    "rpe:reminders",
		RedisReportKey:      "rpe:coach-reports",
	}
}

// Store drivers.
const (
	DriverCSV      = "csv"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Report sources.
const (
	SourceStore  = "store"
	SourceSheets = "sheets"
)

// Notification drivers.
const (
	NotifyLog   = "log"
	NotifyRedis = "redis"
)
