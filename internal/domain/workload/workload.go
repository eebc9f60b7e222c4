// Package workload computes acute:chronic workload ratios from session ratings
// and classifies them into risk states.
package workload

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/bulldogs/rpetracker/internal/domain/model"
	"github.com/bulldogs/rpetracker/internal/domain/reshape"
	"github.com/bulldogs/rpetracker/internal/domain/sheet"
)

// Default calculator configuration.
const (
	DefaultAcuteWindow   = 7
	DefaultElevatedRatio = 1.5
	DefaultVeryHighRatio = 2.0
	maxRating            = 10
)

// Calculator computes workload samples for a table.
type Calculator struct {
	acuteWindow int
	elevated    float64
	veryHigh    float64
	parallelism int
}

// NewCalculator creates a calculator with configuration options.
func NewCalculator(opts ...Option) *Calculator {
	c := &Calculator{
		acuteWindow: DefaultAcuteWindow,
		elevated:    DefaultElevatedRatio,
		veryHigh:    DefaultVeryHighRatio,
		parallelism: runtime.NumCPU(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Normalize maps a rating typed on the wrong scale back to 0..10. Whole
// numbers above 1000, 100 and 10 lose three, two and one decimal places in
// turn; whatever still exceeds 10 is clamped, negatives become 0.
// Fractional values above 10 are clamped rather than rescaled: 25.5 and
// 1500.5 both become 10.
func Normalize(v float64) float64 {
	if v < 0 {
		return 0
	}
	for _, div := range [...]float64{1000, 100, 10} {
		if v > div && v == math.Trunc(v) {
			v /= div
		}
	}
	return math.Min(v, maxRating)
}

// History returns the row's numeric ratings, normalized and in date order.
func History(r sheet.Row) []model.Sample {
	out := make([]model.Sample, 0, len(r.Ratings))
	for d, raw := range r.Ratings {
		v, ok := reshape.ParseRating(raw)
		if !ok {
			continue
		}
		out = append(out, model.Sample{Date: d, Value: Normalize(v)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// Eligible reports whether a row has the identity a workload sample needs.
func Eligible(r sheet.Row) bool {
	return strings.TrimSpace(r.LastName) != "" && strings.TrimSpace(r.Position) != ""
}

// Compute derives one athlete's sample from a chronological history.
// ok is false when the history is empty.
func (c *Calculator) Compute(id model.Identity, history []model.Sample) (model.WorkloadSample, bool) {
	if len(history) == 0 {
		return model.WorkloadSample{}, false
	}

	values := make([]float64, len(history))
	for i, s := range history {
		values[i] = s.Value
	}
	chronic := mean(values)
	acute := mean(values[max(0, len(values)-c.acuteWindow):])

	var ratio float64
	if chronic != 0 {
		ratio = acute / chronic
	}

	last := history[len(history)-1]
	return model.WorkloadSample{
		Email:      id.Email,
		LastName:   id.LastName,
		FirstName:  id.FirstName,
		Position:   id.Position,
		Acute:      acute,
		Chronic:    chronic,
		Ratio:      ratio,
		Latest:     last.Value,
		LatestDate: last.Date,
		Sessions:   len(history),
		State:      c.State(ratio, chronic),
	}, true
}

// State classifies a ratio. A zero chronic load has nothing to compare
// against and is reported separately from low risk.
func (c *Calculator) State(ratio, chronic float64) model.RiskState {
	switch {
	case chronic == 0:
		return model.InsufficientData
	case ratio > c.veryHigh:
		return model.VeryHigh
	case ratio > c.elevated:
		return model.Elevated
	default:
		return model.Normal
	}
}

// Calculate computes samples for every eligible row with at least one
// numeric rating. Rows are processed concurrently; the result keeps table order.
func (c *Calculator) Calculate(ctx context.Context, t *sheet.Table) ([]model.WorkloadSample, error) {
	type slot struct {
		sample model.WorkloadSample
		ok     bool
	}
	slots := make([]slot, len(t.Rows))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.parallelism)
	for i := range t.Rows {
		row := t.Rows[i]
		if !Eligible(row) {
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			s, ok := c.Compute(row.Identity, History(row))
			slots[i] = slot{sample: s, ok: ok}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("calculate workload: %w", err)
	}

	out := make([]model.WorkloadSample, 0, len(slots))
	for _, s := range slots {
		if s.ok {
			out = append(out, s.sample)
		}
	}
	return out, nil
}

// Flagged returns the samples at or above minState, in input order.
func Flagged(samples []model.WorkloadSample, minState model.RiskState) []model.WorkloadSample {
	out := make([]model.WorkloadSample, 0, len(samples))
	for _, s := range samples {
		if s.State >= minState {
			out = append(out, s)
		}
	}
	return out
}

// CountStates tallies samples per risk state name. Every state is present.
func CountStates(samples []model.WorkloadSample) map[string]int {
	counts := map[string]int{
		model.InsufficientData.String(): 0,
		model.Normal.String():           0,
		model.Elevated.String():         0,
		model.VeryHigh.String():         0,
	}
	for _, s := range samples {
		counts[s.State.String()]++
	}
	return counts
}

func mean(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
