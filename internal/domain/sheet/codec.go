package sheet

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"cloud.google.com/go/civil"

	"github.com/bulldogs/rpetracker/internal/domain/model"
)

// column describes how one header maps onto a Row.
type column struct {
	identity int // index into IdentityHeaders, or -1 for a date column
	date     civil.Date
}

// FromRecords builds a table from a header record followed by data records.
// Identity headers are matched by name in any order; every other header must
// be a MM/DD/YYYY date. Rows sharing an email are merged into the first one.
func FromRecords(records [][]string) (*Table, error) {
	t := New()
	if len(records) == 0 {
		return t, nil
	}

	cols, err := parseHeader(records[0])
	if err != nil {
		return nil, err
	}
	for _, c := range cols {
		if c.identity < 0 {
			t.addDate(c.date)
		}
	}

	for _, rec := range records[1:] {
		row, blank := decodeRow(cols, rec)
		if blank {
			continue
		}
		if i, ok := t.Find(row.Email); ok {
			existing := &t.Rows[i]
			for d, v := range row.Ratings {
				if _, set := existing.Rating(d); !set {
					existing.Ratings[d] = v
				}
			}
			continue
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

func parseHeader(header []string) ([]column, error) {
	cols := make([]column, len(header))
	seenIdentity := make(map[int]bool, len(IdentityHeaders))
	seenDate := make(map[civil.Date]bool, len(header))

	for i, h := range header {
		// Spreadsheet exports sometimes carry a UTF-8 BOM on the first cell.
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if idx := identityIndex(h); idx >= 0 {
			if seenIdentity[idx] {
				return nil, fmt.Errorf("%w: %q", ErrDuplicateColumn, h)
			}
			seenIdentity[idx] = true
			cols[i] = column{identity: idx}
			continue
		}
		d, err := ParseDate(h)
		if err != nil {
			return nil, fmt.Errorf("column %d: %w", i+1, err)
		}
		if seenDate[d] {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateColumn, h)
		}
		seenDate[d] = true
		cols[i] = column{identity: -1, date: d}
	}
	if !seenIdentity[0] {
		return nil, ErrMissingEmailColumn
	}
	return cols, nil
}

func identityIndex(h string) int {
	for i, name := range IdentityHeaders {
		if strings.EqualFold(h, name) {
			return i
		}
	}
	return -1
}

// decodeRow maps a record onto a Row. Short records read as blank cells.
func decodeRow(cols []column, rec []string) (Row, bool) {
	row := Row{Ratings: map[civil.Date]string{}}
	fields := [6]*string{
		&row.Email, &row.Last4, &row.LastName,
		&row.FirstName, &row.Position, &row.SummerAttendance,
	}
	blank := true
	for i, c := range cols {
		if i >= len(rec) {
			break
		}
		v := strings.TrimSpace(rec[i])
		if v == "" {
			continue
		}
		blank = false
		if c.identity >= 0 {
			*fields[c.identity] = v
			continue
		}
		row.Ratings[c.date] = v
	}
	return row, blank
}

// Records renders the table as a header record followed by one record per row.
func (t *Table) Records() [][]string {
	out := make([][]string, 0, len(t.Rows)+1)
	out = append(out, t.Header())
	for _, r := range t.Rows {
		rec := make([]string, 0, len(IdentityHeaders)+len(t.Dates))
		rec = append(rec, identityRecord(r.Identity)...)
		for _, d := range t.Dates {
			rec = append(rec, r.Ratings[d])
		}
		out = append(out, rec)
	}
	return out
}

func identityRecord(id model.Identity) []string {
	return []string{id.Email, id.Last4, id.LastName, id.FirstName, id.Position, id.SummerAttendance}
}

// Decode reads a CSV table. Empty input yields an empty table.
func Decode(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return FromRecords(records)
}

// Encode writes the table as CSV.
func Encode(w io.Writer, t *Table) error {
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(t.Records()); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}
