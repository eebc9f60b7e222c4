// Package seed generates synthetic athlete histories and drives a running
// tracker over HTTP.
package seed

import (
	"fmt"
	"math/rand/v2"
	"strconv"

	"github.com/google/uuid"

	"github.com/bulldogs/rpetracker/internal/domain/model"
	"github.com/bulldogs/rpetracker/pkg/logger"
)

// Positions cycled through when building a roster.
var Positions = []string{"QB", "RB", "WR", "TE", "OL", "DL", "LB", "DB", "K"}

var (
	firstNames = []string{"Avery", "Blake", "Cameron", "Dakota", "Emerson", "Finley", "Harper", "Jordan", "Kendall", "Logan", "Morgan", "Quinn", "Reese", "Riley", "Sawyer", "Taylor"}
	lastNames  = []string{"Adams", "Brooks", "Carter", "Diaz", "Ellis", "Foster", "Garcia", "Hayes", "Irwin", "Jensen", "Kim", "Lopez", "Morris", "Nguyen", "Owens", "Price"}
)

// Profile shapes an athlete's daily ratings.
type Profile int

const (
	// Steady athletes rate around a fixed level.
	Steady Profile = iota
	// Ramping athletes rate low for the first half and high for the second,
	// which drives their acute load above the chronic one.
	Ramping
	// Sporadic athletes skip days and sometimes type free text.
	Sporadic
)

// Generator produces rosters and ratings from a seeded source so runs are
// reproducible.
type Generator struct {
	rng    *rand.Rand
	domain string
	logger logger.Logger
}

// NewGenerator returns a generator seeded with seed.
func NewGenerator(seed uint64, opts ...Option) *Generator {
	g := &Generator{
		rng:    rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		domain: "school.edu",
		logger: logger.Nop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Athlete is one generated roster entry.
type Athlete struct {
	model.Identity
	Profile Profile
}

// Roster returns n athletes with unique emails.
func (g *Generator) Roster(n int) []Athlete {
	out := make([]Athlete, n)
	for i := range out {
		first := firstNames[g.rng.IntN(len(firstNames))]
		last := lastNames[g.rng.IntN(len(lastNames))]
		// Names repeat across a roster; the uuid suffix keeps emails unique.
		tag := uuid.NewString()[:8]
		out[i] = Athlete{
			Identity: model.Identity{
				Email:            fmt.Sprintf("%s.%s.%s@%s", first, last, tag, g.domain),
				Last4:            fmt.Sprintf("%04d", g.rng.IntN(10_000)),
				LastName:         last,
				FirstName:        first,
				Position:         Positions[i%len(Positions)],
				SummerAttendance: []string{"Yes", "No"}[g.rng.IntN(2)],
			},
			Profile: Profile(g.rng.IntN(3)),
		}
	}
	return out
}

// Rating returns the raw intensity an athlete enters on day index of total.
// ok is false when the athlete skips the day.
func (g *Generator) Rating(a Athlete, index, total int) (raw string, ok bool) {
	switch a.Profile {
	case Ramping:
		if index < total/2 {
			return strconv.Itoa(2 + g.rng.IntN(2)), true
		}
		return strconv.Itoa(8 + g.rng.IntN(3)), true
	case Sporadic:
		switch r := g.rng.IntN(10); {
		case r < 3:
			return "", false
		case r == 3:
			return "tired", true
		default:
			return strconv.Itoa(1 + g.rng.IntN(10)), true
		}
	default:
		return strconv.Itoa(4 + g.rng.IntN(4)), true
	}
}
