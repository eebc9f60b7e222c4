package sheet

import (
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"
)

// DateLayout is the header layout of date columns.
const DateLayout = "01/02/2006"

// parseLayout also accepts the unpadded month and day spreadsheets display.
const parseLayout = "1/2/2006"

// ParseDate parses a MM/DD/YYYY column label.
func ParseDate(s string) (civil.Date, error) {
	t, err := time.Parse(parseLayout, strings.TrimSpace(s))
	if err != nil {
		return civil.Date{}, fmt.Errorf("%w: %q", ErrMalformedDate, s)
	}
	return civil.DateOf(t), nil
}

// FormatDate renders a date as a MM/DD/YYYY column label.
func FormatDate(d civil.Date) string {
	return d.In(time.UTC).Format(DateLayout)
}

// Today returns the calendar date of now in loc.
func Today(now time.Time, loc *time.Location) civil.Date {
	if loc == nil {
		loc = time.UTC
	}
	return civil.DateOf(now.In(loc))
}
