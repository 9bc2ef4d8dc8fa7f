package valueobject

import (
	"errors"
	"fmt"
	"time"
)

// Period is a value object representing a billing period as an inclusive
// calendar date range. Times of day are normalized away; two periods with the
// same dates are equal regardless of the clock component they were built from.
type Period struct {
	start time.Time
	end   time.Time
}

// NewPeriod creates a Period from inclusive start and end dates.
// Returns error if end precedes start.
func NewPeriod(start, end time.Time) (Period, error) {
	s := truncateToDate(start)
	e := truncateToDate(end)
	if e.Before(s) {
		return Period{}, errors.New("period end cannot precede period start")
	}
	return Period{start: s, end: e}, nil
}

// MonthOf returns the calendar-month period containing the given date.
func MonthOf(date time.Time) Period {
	d := truncateToDate(date)
	start := time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, -1)
	return Period{start: start, end: end}
}

func truncateToDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Start returns the inclusive start date
func (p Period) Start() time.Time {
	return p.start
}

// End returns the inclusive end date
func (p Period) End() time.Time {
	return p.end
}

// Days returns the number of calendar days in the period, inclusive
func (p Period) Days() int {
	return int(p.end.Sub(p.start).Hours()/24) + 1
}

// Contains reports whether the given date falls within the period
func (p Period) Contains(date time.Time) bool {
	d := truncateToDate(date)
	return !d.Before(p.start) && !d.After(p.end)
}

// Overlaps reports whether two periods share at least one day
func (p Period) Overlaps(other Period) bool {
	return !p.start.After(other.end) && !other.start.After(p.end)
}

// Equals reports whether two periods cover the same date range
func (p Period) Equals(other Period) bool {
	return p.start.Equal(other.start) && p.end.Equal(other.end)
}

// String returns the period formatted as "2006-01-02..2006-01-02"
func (p Period) String() string {
	return fmt.Sprintf("%s..%s", p.start.Format("2006-01-02"), p.end.Format("2006-01-02"))
}
