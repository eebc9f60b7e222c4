// Package reshape derives report views from the wide table. Everything here
// is pure and recomputed per request.
package reshape

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"cloud.google.com/go/civil"

	"github.com/bulldogs/rpetracker/internal/domain/model"
	"github.com/bulldogs/rpetracker/internal/domain/sheet"
)

// ParseRating reads a raw cell as a number. Blank, non-numeric and non-finite
// cells are missing.
func ParseRating(raw string) (float64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// Wide converts every row's cells to numbers and attaches the row average.
func Wide(t *sheet.Table) []model.WideRow {
	out := make([]model.WideRow, 0, len(t.Rows))
	for _, r := range t.Rows {
		values := make(map[civil.Date]float64, len(r.Ratings))
		nums := make([]float64, 0, len(r.Ratings))
		for _, d := range t.Dates {
			if v, ok := ParseRating(r.Ratings[d]); ok {
				values[d] = v
				nums = append(nums, v)
			}
		}
		out = append(out, model.WideRow{
			Identity:     r.Identity,
			Values:       values,
			AverageValue: model.Mean(nums),
		})
	}
	return out
}

// Melt produces one observation per (row, date), rows first then dates.
// Missing cells are kept as undefined values only when keepMissing is set.
func Melt(t *sheet.Table, keepMissing bool) []model.Observation {
	out := make([]model.Observation, 0, len(t.Rows)*len(t.Dates))
	for _, r := range t.Rows {
		for _, d := range t.Dates {
			v, ok := ParseRating(r.Ratings[d])
			if !ok && !keepMissing {
				continue
			}
			obs := model.Observation{
				Position:  r.Position,
				Email:     r.Email,
				LastName:  r.LastName,
				FirstName: r.FirstName,
				Date:      d,
			}
			if ok {
				obs.Value = model.Some(v)
			}
			out = append(out, obs)
		}
	}
	return out
}

type positionDay struct {
	position string
	date     civil.Date
}

// PositionDaily averages observations per position and date, sorted by
// position then date. Blank positions are left out.
func PositionDaily(obs []model.Observation) []model.PositionDailyAverage {
	groups := make(map[positionDay][]float64)
	for _, o := range obs {
		pos := strings.TrimSpace(o.Position)
		if pos == "" {
			continue
		}
		k := positionDay{position: pos, date: o.Date}
		vals := groups[k]
		if o.Value.Valid {
			vals = append(vals, o.Value.Float64)
		}
		groups[k] = vals
	}

	out := make([]model.PositionDailyAverage, 0, len(groups))
	for k, vals := range groups {
		out = append(out, model.PositionDailyAverage{
			Position: k.position,
			Date:     k.date,
			Mean:     model.Mean(vals),
			Samples:  len(vals),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Position != out[j].Position {
			return out[i].Position < out[j].Position
		}
		return out[i].Date.Before(out[j].Date)
	})
	return out
}

// PositionAverages averages the defined athlete averages of each position,
// sorted by position.
func PositionAverages(rows []model.WideRow) []model.PositionAverage {
	type group struct {
		athletes int
		avgs     []float64
	}
	groups := make(map[string]*group)
	for _, r := range rows {
		pos := strings.TrimSpace(r.Position)
		if pos == "" {
			continue
		}
		g, ok := groups[pos]
		if !ok {
			g = &group{}
			groups[pos] = g
		}
		g.athletes++
		if r.AverageValue.Valid {
			g.avgs = append(g.avgs, r.AverageValue.Float64)
		}
	}

	out := make([]model.PositionAverage, 0, len(groups))
	for pos, g := range groups {
		out = append(out, model.PositionAverage{Position: pos, Mean: model.Mean(g.avgs), Athletes: g.athletes})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out
}

// Emails returns the non-blank row emails, trimmed, first spelling kept for
// case-insensitive duplicates, in table order.
func Emails(t *sheet.Table) []string {
	seen := make(map[string]struct{}, len(t.Rows))
	out := make([]string, 0, len(t.Rows))
	for _, r := range t.Rows {
		key := model.Key(r.Email)
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, strings.TrimSpace(r.Email))
	}
	return out
}
