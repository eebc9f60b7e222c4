// Package repository persists the athlete table and reads it back for reports.
package repository

import (
	"context"

	"cloud.google.com/go/civil"

	"github.com/bulldogs/rpetracker/internal/domain/model"
	"github.com/bulldogs/rpetracker/internal/domain/sheet"
)

// Source provides the current wide table.
type Source interface {
	// Fetch returns a fresh copy of the table. Callers may modify it.
	Fetch(ctx context.Context) (*sheet.Table, error)
}

// Store is a Source that also records submissions.
type Store interface {
	Source

	// Upsert sets the submission's rating for day, creating the athlete row
	// and the date column as needed.
	Upsert(ctx context.Context, sub model.Submission, day civil.Date) (sheet.Result, error)

	Close() error
}
