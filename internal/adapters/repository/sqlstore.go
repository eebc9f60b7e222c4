package repository

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"  // postgres driver
	_ "modernc.org/sqlite" // sqlite driver

	"github.com/bulldogs/rpetracker/internal/domain/model"
	"github.com/bulldogs/rpetracker/internal/domain/sheet"
	"github.com/bulldogs/rpetracker/pkg/logger"
	"github.com/bulldogs/rpetracker/pkg/metrics"
)

// SQL drivers accepted by NewSQLStore.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// schema is portable between sqlite and postgres. Days are stored as
// YYYY-MM-DD text; seq preserves the order athletes first submitted in.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS athletes (
		email_key         TEXT PRIMARY KEY,
		email             TEXT NOT NULL,
		last4             TEXT NOT NULL DEFAULT '',
		last_name         TEXT NOT NULL DEFAULT '',
		first_name        TEXT NOT NULL DEFAULT '',
		position          TEXT NOT NULL DEFAULT '',
		summer_attendance TEXT NOT NULL DEFAULT '',
		seq               BIGINT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS ratings (
		email_key TEXT NOT NULL REFERENCES athletes (email_key),
		day       TEXT NOT NULL,
		raw       TEXT NOT NULL,
		PRIMARY KEY (email_key, day)
	)`,
	`CREATE INDEX IF NOT EXISTS ratings_day_idx ON ratings (day)`,
}

type athleteRow struct {
	EmailKey         string `db:"email_key"`
	Email            string `db:"email"`
	Last4            string `db:"last4"`
	LastName         string `db:"last_name"`
	FirstName        string `db:"first_name"`
	Position         string `db:"position"`
	SummerAttendance string `db:"summer_attendance"`
}

type ratingRow struct {
	EmailKey string `db:"email_key"`
	Day      string `db:"day"`
	Raw      string `db:"raw"`
}

// SQLStore keeps athletes and ratings in two tables.
type SQLStore struct {
	db  *sqlx.DB
	log logger.Logger
}

// NewSQLStore connects with driver and dsn and creates the schema if needed.
func NewSQLStore(ctx context.Context, driver, dsn string, opts ...Option) (*SQLStore, error) {
	if driver != DriverSQLite && driver != DriverPostgres {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, driver)
	}
	db, err := sqlx.ConnectContext(ctx, driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}
	if driver == DriverSQLite {
		// One connection serializes writers and keeps :memory: databases shared.
		db.SetMaxOpenConns(1)
	}
	return newSQLStore(ctx, db, opts...)
}

func newSQLStore(ctx context.Context, db *sqlx.DB, opts ...Option) (*SQLStore, error) {
	o := newOptions(opts)
	s := &SQLStore{db: db, log: o.log}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLStore) migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// Fetch implements Source.
func (s *SQLStore) Fetch(ctx context.Context) (*sheet.Table, error) {
	start := time.Now()

	var athletes []athleteRow
	err := s.db.SelectContext(ctx, &athletes, `
		SELECT email_key, email, last4, last_name, first_name, position, summer_attendance
		FROM athletes
		ORDER BY seq`)
	if err != nil {
		metrics.RecordStoreError("fetch")
		return nil, fmt.Errorf("select athletes: %w", err)
	}

	var ratings []ratingRow
	err = s.db.SelectContext(ctx, &ratings, `SELECT email_key, day, raw FROM ratings ORDER BY day`)
	if err != nil {
		metrics.RecordStoreError("fetch")
		return nil, fmt.Errorf("select ratings: %w", err)
	}

	t := sheet.New()
	ids := make(map[string]model.Identity, len(athletes))
	for _, a := range athletes {
		id := model.Identity{
			Email:            a.Email,
			Last4:            a.Last4,
			LastName:         a.LastName,
			FirstName:        a.FirstName,
			Position:         a.Position,
			SummerAttendance: a.SummerAttendance,
		}
		ids[a.EmailKey] = id
		t.Rows = append(t.Rows, sheet.Row{Identity: id, Ratings: map[civil.Date]string{}})
	}
	for _, r := range ratings {
		day, err := civil.ParseDate(r.Day)
		if err != nil {
			metrics.RecordStoreError("fetch")
			return nil, fmt.Errorf("%w: rating day %q: %v", ErrCorruptTable, r.Day, err)
		}
		id, ok := ids[r.EmailKey]
		if !ok {
			continue
		}
		t.Upsert(model.Submission{Identity: id, Intensity: r.Raw}, day)
	}

	metrics.RecordStoreFetchLatency(float64(time.Since(start).Milliseconds()))
	metrics.UpdateTableShape(len(t.Rows), len(t.Dates))
	return t, nil
}

// Upsert implements Store. The athlete insert and the rating upsert share a
// transaction.
func (s *SQLStore) Upsert(ctx context.Context, sub model.Submission, day civil.Date) (res sheet.Result, err error) {
	start := time.Now()
	res.Day = day
	key := sub.Key()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		metrics.RecordStoreError("upsert")
		return res, fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			metrics.RecordStoreError("upsert")
			_ = tx.Rollback()
		}
	}()

	inserted, err := tx.ExecContext(ctx, tx.Rebind(`
		INSERT INTO athletes (email_key, email, last4, last_name, first_name, position, summer_attendance, seq)
		SELECT ?, ?, ?, ?, ?, ?, ?, COALESCE(MAX(seq), 0) + 1 FROM athletes WHERE true
		ON CONFLICT (email_key) DO NOTHING`),
		key, sub.Email, sub.Last4, sub.LastName, sub.FirstName, sub.Position, sub.SummerAttendance)
	if err != nil {
		return res, fmt.Errorf("insert athlete: %w", err)
	}
	n, err := inserted.RowsAffected()
	if err != nil {
		return res, fmt.Errorf("insert athlete: %w", err)
	}
	res.RowInserted = n > 0

	var sameDay, sameCell int
	err = tx.QueryRowxContext(ctx, tx.Rebind(`
		SELECT COUNT(*), COALESCE(SUM(CASE WHEN email_key = ? THEN 1 ELSE 0 END), 0)
		FROM ratings WHERE day = ?`), key, day.String()).Scan(&sameDay, &sameCell)
	if err != nil {
		return res, fmt.Errorf("check rating: %w", err)
	}
	res.DateAdded = sameDay == 0
	res.Overwrote = sameCell > 0

	_, err = tx.ExecContext(ctx, tx.Rebind(`
		INSERT INTO ratings (email_key, day, raw) VALUES (?, ?, ?)
		ON CONFLICT (email_key, day) DO UPDATE SET raw = excluded.raw`),
		key, day.String(), sub.Intensity)
	if err != nil {
		return res, fmt.Errorf("upsert rating: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return res, fmt.Errorf("commit: %w", err)
	}
	metrics.RecordStoreUpsertLatency(float64(time.Since(start).Milliseconds()))
	s.log.Debug(ctx, "rating stored",
		logger.String("day", day.String()),
		logger.Bool("row_inserted", res.RowInserted),
	)
	return res, nil
}

// Close implements Store.
func (s *SQLStore) Close() error {
	return s.db.Close()
}
