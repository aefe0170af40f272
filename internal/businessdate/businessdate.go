// Package businessdate maps timestamps to business days. A business day
// runs from 05:00 local time to 04:59:59.999 the next morning, so late-night
// entries land on the day they belong to rather than the calendar date.
package businessdate

import (
	"fmt"
	"time"
)

// BoundaryHour is the local wall-clock hour at which a new business day starts.
const BoundaryHour = 5

const dateLayout = "2006-01-02"

type Result struct {
	Date     string // YYYY-MM-DD
	StartUTC time.Time
	EndUTC   time.Time
	Timezone string
}

// Calculate resolves the business date for ts in the given IANA timezone.
// Deterministic for any historical pair; conversions go through the zone
// database so the boundary tracks local wall-clock time across DST shifts.
func Calculate(ts time.Time, timezone string) (Result, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return Result{}, fmt.Errorf("unknown timezone %q: %w", timezone, err)
	}

	local := ts.In(loc)
	year, month, day := local.Date()
	if local.Hour() < BoundaryHour {
		year, month, day = local.AddDate(0, 0, -1).Date()
	}

	start := time.Date(year, month, day, BoundaryHour, 0, 0, 0, loc)
	end := time.Date(year, month, day+1, BoundaryHour-1, 59, 59, 999000000, loc)

	return Result{
		Date:     time.Date(year, month, day, 0, 0, 0, 0, time.UTC).Format(dateLayout),
		StartUTC: start.UTC(),
		EndUTC:   end.UTC(),
		Timezone: timezone,
	}, nil
}

// Today returns the business date of the current instant.
func Today(timezone string) (Result, error) {
	return Calculate(time.Now(), timezone)
}

// ValidDate reports whether s is a well-formed YYYY-MM-DD date string.
func ValidDate(s string) bool {
	_, err := time.Parse(dateLayout, s)
	return err == nil
}

// ValidRange reports whether start and end are well-formed dates with
// start <= end. String comparison is sufficient for YYYY-MM-DD.
func ValidRange(start, end string) bool {
	return ValidDate(start) && ValidDate(end) && start <= end
}
