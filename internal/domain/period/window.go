// Package period derives reporting windows from user-facing period
// specifications. Pure functions, no I/O.
package period

import (
	"fmt"
	"strings"
	"time"

	"stockledger/internal/core/apperror"
)

// Window is a reporting period. Start and End are both inclusive business
// dates: the ledger is queried with occurred_at <= End, and entries with
// occurred_at < Start form the opening balance.
type Window struct {
	Start time.Time
	End   time.Time
}

// Monthly derives the window for a month given as "YYYY-MM":
// first day through last day of that month.
func Monthly(month string) (Window, error) {
	start, err := time.ParseInLocation("2006-01-02", month+"-01", time.UTC)
	if err != nil {
		return Window{}, apperror.NewValidation("month is required for monthly report, format YYYY-MM").WithCause(err)
	}
	end := start.AddDate(0, 1, 0).AddDate(0, 0, -1)
	return Window{Start: start, End: end}, nil
}

// Weekly parses a "YYYY-MM-DD to YYYY-MM-DD" range string.
func Weekly(weekRange string) (Window, error) {
	if !strings.Contains(weekRange, "to") {
		return Window{}, apperror.NewValidation("date range is required for weekly report")
	}
	parts := strings.SplitN(weekRange, "to", 2)
	if len(parts) != 2 {
		return Window{}, apperror.NewValidation("invalid date range format for weekly report")
	}

	start, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(parts[0]), time.UTC)
	if err != nil {
		return Window{}, apperror.NewValidation("invalid start date in weekly range").WithCause(err)
	}
	end, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(parts[1]), time.UTC)
	if err != nil {
		return Window{}, apperror.NewValidation("invalid end date in weekly range").WithCause(err)
	}
	if end.Before(start) {
		return Window{}, apperror.NewValidation("weekly range end precedes start")
	}
	return Window{Start: start, End: end}, nil
}

// Quarterly returns the fixed calendar boundaries for a quarter of a year.
func Quarterly(year, quarter int) (Window, error) {
	if quarter < 1 || quarter > 4 {
		return Window{}, apperror.NewValidation(fmt.Sprintf("quarter must be 1-4, got %d", quarter))
	}
	if year <= 0 {
		return Window{}, apperror.NewValidation("year is required for quarterly report")
	}

	boundaries := [4]Window{
		{Start: date(year, time.January, 1), End: date(year, time.March, 31)},
		{Start: date(year, time.April, 1), End: date(year, time.June, 30)},
		{Start: date(year, time.July, 1), End: date(year, time.September, 30)},
		{Start: date(year, time.October, 1), End: date(year, time.December, 31)},
	}
	return boundaries[quarter-1], nil
}

// Yearly returns January 1 through December 31 of a year.
func Yearly(year int) (Window, error) {
	if year <= 0 {
		return Window{}, apperror.NewValidation("year is required for yearly report")
	}
	return Window{Start: date(year, time.January, 1), End: date(year, time.December, 31)}, nil
}

// Clamp validates a window against the current moment: windows starting in the
// future are rejected, and an end boundary beyond now is pulled back to now.
func (w Window) Clamp(now time.Time) (Window, error) {
	if w.Start.After(now) {
		return Window{}, apperror.NewValidation("cannot generate reports for future dates")
	}
	if w.End.After(now) {
		w.End = now
	}
	return w, nil
}

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
