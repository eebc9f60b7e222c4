package repository

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"cloud.google.com/go/civil"

	"github.com/bulldogs/rpetracker/internal/domain/model"
	"github.com/bulldogs/rpetracker/internal/domain/sheet"
	"github.com/bulldogs/rpetracker/pkg/logger"
	"github.com/bulldogs/rpetracker/pkg/metrics"
)

// CSVStore keeps the table in a single CSV file. Every Upsert is a full
// read-modify-write under a mutex, and the file is replaced atomically.
type CSVStore struct {
	path   string
	log    logger.Logger
	mu     sync.Mutex
	closed bool
}

// NewCSVStore opens the table at path, creating it with only the identity
// header when it does not exist.
func NewCSVStore(path string, opts ...Option) (*CSVStore, error) {
	o := newOptions(opts)
	s := &CSVStore{path: path, log: o.log}

	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create table dir: %w", err)
		}
		if err := s.write(sheet.New()); err != nil {
			return nil, err
		}
		s.log.Info(context.Background(), "created table file", logger.String("path", path))
	} else if err != nil {
		return nil, fmt.Errorf("stat table: %w", err)
	}
	return s, nil
}

// Fetch implements Source.
func (s *CSVStore) Fetch(ctx context.Context) (*sheet.Table, error) {
	start := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrStoreClosed
	}
	t, err := s.read()
	if err != nil {
		metrics.RecordStoreError("fetch")
		return nil, err
	}
	metrics.RecordStoreFetchLatency(float64(time.Since(start).Milliseconds()))
	metrics.UpdateTableShape(len(t.Rows), len(t.Dates))
	return t, nil
}

// Upsert implements Store.
func (s *CSVStore) Upsert(ctx context.Context, sub model.Submission, day civil.Date) (sheet.Result, error) {
	start := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return sheet.Result{}, ErrStoreClosed
	}
	if err := ctx.Err(); err != nil {
		return sheet.Result{}, err
	}

	t, err := s.read()
	if err != nil {
		metrics.RecordStoreError("upsert")
		return sheet.Result{}, err
	}
	res := t.Upsert(sub, day)
	if err := s.write(t); err != nil {
		metrics.RecordStoreError("upsert")
		return sheet.Result{}, err
	}

	metrics.RecordStoreUpsertLatency(float64(time.Since(start).Milliseconds()))
	metrics.UpdateTableShape(len(t.Rows), len(t.Dates))
	s.log.Debug(ctx, "table updated",
		logger.String("day", sheet.FormatDate(day)),
		logger.Bool("row_inserted", res.RowInserted),
		logger.Bool("overwrote", res.Overwrote),
	)
	return res, nil
}

// Close implements Store.
func (s *CSVStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *CSVStore) read() (*sheet.Table, error) {
	b, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read table: %w", err)
	}
	t, err := sheet.Decode(bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCorruptTable, s.path, err)
	}
	return t, nil
}

// tableFileMode is used for a table file that does not exist yet; an existing
// file keeps its permissions across writes.
const tableFileMode = 0o644

// write replaces the file through a temp file in the same directory so a
// reader never sees a partial table.
func (s *CSVStore) write(t *sheet.Table) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(s.path), "."+filepath.Base(s.path)+".*")
	if err != nil {
		return fmt.Errorf("create temp table: %w", err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	mode := os.FileMode(tableFileMode)
	if info, statErr := os.Stat(s.path); statErr == nil {
		mode = info.Mode().Perm()
	}
	if err = tmp.Chmod(mode); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("chmod temp table: %w", err)
	}

	if err = sheet.Encode(tmp, t); err != nil {
		_ = tmp.Close()
		return err
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync temp table: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close temp table: %w", err)
	}
	if err = os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace table: %w", err)
	}
	return nil
}
