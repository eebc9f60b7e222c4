// Package sheet models the wide athlete table: one row per email, one column
// per session date, and the CSV layout it is stored in.
package sheet

import (
	"sort"
	"strings"

	"cloud.google.com/go/civil"

	"github.com/bulldogs/rpetracker/internal/domain/model"
)

// Identity column headers, in stored order.
const (
	HeaderEmail            = "Email"
	HeaderLast4            = "Last 4 Digits"
	HeaderLastName         = "Last Name"
	HeaderFirstName        = "First Name"
	HeaderPosition         = "Position"
	HeaderSummerAttendance = "Summer Attendance"
)

// IdentityHeaders lists the fixed leading columns.
var IdentityHeaders = []string{
	HeaderEmail,
	HeaderLast4,
	HeaderLastName,
	HeaderFirstName,
	HeaderPosition,
	HeaderSummerAttendance,
}

// Row is one athlete. Ratings holds raw cell text; a missing key is a blank cell.
type Row struct {
	model.Identity
	Ratings map[civil.Date]string
}

// Rating returns the raw cell for day and whether it is non-blank.
func (r Row) Rating(day civil.Date) (string, bool) {
	v, ok := r.Ratings[day]
	return v, ok && strings.TrimSpace(v) != ""
}

// Table is the wide table. Dates is strictly ascending and contains every
// date used by any row.
type Table struct {
	Dates []civil.Date
	Rows  []Row
}

// New returns an empty table.
func New() *Table { return &Table{} }

// Result describes what an Upsert changed.
type Result struct {
	Day         civil.Date
	RowInserted bool
	DateAdded   bool
	Overwrote   bool
}

// Find returns the index of the row keyed by email.
func (t *Table) Find(email string) (int, bool) {
	key := model.Key(email)
	if key == "" {
		return -1, false
	}
	for i := range t.Rows {
		if t.Rows[i].Key() == key {
			return i, true
		}
	}
	return -1, false
}

// Upsert records sub's rating on day. An existing row keeps its identity
// fields; a new row is appended with only that cell set.
func (t *Table) Upsert(sub model.Submission, day civil.Date) Result {
	res := Result{Day: day, DateAdded: t.addDate(day)}

	i, ok := t.Find(sub.Email)
	if !ok {
		t.Rows = append(t.Rows, Row{Identity: sub.Identity, Ratings: map[civil.Date]string{}})
		i = len(t.Rows) - 1
		res.RowInserted = true
	}
	row := &t.Rows[i]
	if row.Ratings == nil {
		row.Ratings = map[civil.Date]string{}
	}
	_, res.Overwrote = row.Rating(day)
	row.Ratings[day] = sub.Intensity
	return res
}

// addDate inserts day into Dates keeping it sorted; reports whether it was new.
func (t *Table) addDate(day civil.Date) bool {
	i := sort.Search(len(t.Dates), func(i int) bool { return !t.Dates[i].Before(day) })
	if i < len(t.Dates) && t.Dates[i] == day {
		return false
	}
	t.Dates = append(t.Dates, civil.Date{})
	copy(t.Dates[i+1:], t.Dates[i:])
	t.Dates[i] = day
	return true
}

// Header returns the column labels: identity first, then dates ascending.
func (t *Table) Header() []string {
	out := make([]string, 0, len(IdentityHeaders)+len(t.Dates))
	out = append(out, IdentityHeaders...)
	for _, d := range t.Dates {
		out = append(out, FormatDate(d))
	}
	return out
}

// LatestDate returns the most recent session column.
func (t *Table) LatestDate() (civil.Date, bool) {
	if len(t.Dates) == 0 {
		return civil.Date{}, false
	}
	return t.Dates[len(t.Dates)-1], true
}
