package reshape

import (
	"sort"

	"github.com/bulldogs/rpetracker/internal/domain/model"
	"github.com/bulldogs/rpetracker/internal/domain/sheet"
)

// RankSize caps the top and needs-attention lists of a summary.
const RankSize = 5

// Summarize builds the team overview sent to coaches.
func Summarize(t *sheet.Table) model.TeamSummary {
	rows := Wide(t)

	var avgs []float64
	ranked := make([]model.AthleteAverage, 0, len(rows))
	for _, r := range rows {
		if !r.AverageValue.Valid {
			continue
		}
		avgs = append(avgs, r.AverageValue.Float64)
		ranked = append(ranked, model.AthleteAverage{
			Email:     r.Email,
			LastName:  r.LastName,
			FirstName: r.FirstName,
			Position:  r.Position,
			Average:   r.AverageValue.Float64,
		})
	}

	positions := PositionAverages(rows)
	sort.SliceStable(positions, func(i, j int) bool {
		a, b := positions[i].Mean, positions[j].Mean
		if a.Valid != b.Valid {
			return a.Valid
		}
		return a.Float64 > b.Float64
	})

	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Average > ranked[j].Average })
	top := ranked[:min(RankSize, len(ranked))]

	low := make([]model.AthleteAverage, 0, RankSize)
	for i := len(ranked) - 1; i >= 0 && len(low) < RankSize; i-- {
		if ranked[i].Average > 0 {
			low = append(low, ranked[i])
		}
	}

	s := model.TeamSummary{
		TeamAverage:    model.Mean(avgs),
		Athletes:       len(rows),
		Sessions:       len(t.Dates),
		Positions:      positions,
		Top:            append(make([]model.AthleteAverage, 0, len(top)), top...),
		NeedsAttention: low,
	}
	if d, ok := t.LatestDate(); ok {
		s.LatestSession = &d
	}
	return s
}
