package seed

import (
	"context"
	"fmt"

	"cloud.google.com/go/civil"

	"github.com/bulldogs/rpetracker/internal/domain/model"
	"github.com/bulldogs/rpetracker/internal/domain/sheet"
	"github.com/bulldogs/rpetracker/pkg/logger"
)

// Writer stores one submission for a given day.
type Writer interface {
	Upsert(ctx context.Context, sub model.Submission, day civil.Date) (sheet.Result, error)
}

// Stats summarizes a seeding run.
type Stats struct {
	Athletes int
	Days     int
	Written  int
	Skipped  int
}

// History writes days of ratings for roster, ending on last. Days an athlete
// skips are left blank.
func (g *Generator) History(ctx context.Context, w Writer, roster []Athlete, last civil.Date, days int) (Stats, error) {
	stats := Stats{Athletes: len(roster), Days: days}
	first := last.AddDays(-(days - 1))

	for i := 0; i < days; i++ {
		day := first.AddDays(i)
		for _, a := range roster {
			if err := ctx.Err(); err != nil {
				return stats, err
			}
			raw, ok := g.Rating(a, i, days)
			if !ok {
				stats.Skipped++
				continue
			}
			sub := model.Submission{Identity: a.Identity, Intensity: raw}
			if _, err := w.Upsert(ctx, sub, day); err != nil {
				return stats, fmt.Errorf("seed %s on %s: %w", a.Email, day, err)
			}
			stats.Written++
		}
		g.logger.Debug(ctx, "seeded day", logger.String("day", day.String()), logger.Int("athletes", len(roster)))
	}
	return stats, nil
}
