package service

import (
	"context"
	"fmt"

	"github.com/bulldogs/rpetracker/internal/adapters/notify"
	"github.com/bulldogs/rpetracker/internal/adapters/repository"
	"github.com/bulldogs/rpetracker/internal/config"
	"github.com/bulldogs/rpetracker/internal/domain/workload"
	"github.com/bulldogs/rpetracker/pkg/logger"
)

// OpenStore opens the table store selected by cfg.StoreDriver.
func OpenStore(ctx context.Context, cfg *config.Config, log logger.Logger) (repository.Store, error) {
	opt := repository.WithLogger(log.Named("store"))
	switch cfg.StoreDriver {
	case config.DriverCSV:
		return repository.NewCSVStore(cfg.CSVPath, opt)
	case config.DriverSQLite, config.DriverPostgres:
		return repository.NewSQLStore(ctx, cfg.StoreDriver, cfg.SQLDSN, opt)
	default:
		return nil, fmt.Errorf("%w: %q", repository.ErrUnsupportedDriver, cfg.StoreDriver)
	}
}

// OpenSource returns where reports read from. The store itself is the
// default source.
func OpenSource(ctx context.Context, cfg *config.Config, store repository.Store, log logger.Logger) (repository.Source, error) {
	if cfg.ReportSource != config.SourceSheets {
		return store, nil
	}
	return repository.NewSheetsSource(ctx, cfg.SheetsSpreadsheetID, cfg.SheetsRange,
		repository.CredentialsFile(cfg.SheetsCredentialsFile),
		repository.WithLogger(log.Named("sheets")),
	)
}

// OpenDispatcher returns the dispatcher selected by cfg.NotifyDriver.
func OpenDispatcher(ctx context.Context, cfg *config.Config, log logger.Logger) (notify.Dispatcher, error) {
	if cfg.NotifyDriver == config.NotifyRedis {
		return notify.NewRedisDispatcher(ctx, cfg.RedisAddr, cfg.RedisReminderKey, cfg.RedisReportKey, log.Named("notify"))
	}
	return notify.NewLogDispatcher(log.Named("notify")), nil
}

// FromConfig builds an unstarted Service with adapters chosen by cfg.
func FromConfig(ctx context.Context, cfg *config.Config, log logger.Logger) (*Service, error) {
	store, err := OpenStore(ctx, cfg, log)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	src, err := OpenSource(ctx, cfg, store, log)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("open report source: %w", err)
	}
	d, err := OpenDispatcher(ctx, cfg, log)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("open dispatcher: %w", err)
	}

	return New(
		WithLogger(log),
		WithStore(store),
		WithSource(src),
		WithDispatcher(d),
		WithWriterCount(cfg.WriterCount),
		WithQueueSize(cfg.QueueSize),
		WithDedupeSize(cfg.DedupeSize),
		WithLocation(cfg.Location()),
		WithCoaches(cfg.CoachEmails),
		WithWorkloadOptions(
			workload.WithAcuteWindow(cfg.AcuteWindow),
			workload.WithThresholds(cfg.ElevatedRatio, cfg.VeryHighRatio),
			workload.WithParallelism(cfg.WorkloadParallelism),
		),
	), nil
}
