package domain

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

// MaxMonthRange is the widest range, in months, a single request may span.
const MaxMonthRange = 48

var (
	// ErrInvalidRange is returned when a range ends before it starts.
	ErrInvalidRange = errors.New("end date is before start date")
	// ErrRangeTooLong is returned when a range exceeds MaxMonthRange.
	ErrRangeTooLong = fmt.Errorf("date range exceeds %d months", MaxMonthRange)
)

// Month is a calendar month formatted the way the upstream expects.
type Month struct {
	Year  string `json:"year"`
	Month string `json:"month"`
}

func (m Month) String() string { return m.Year + "-" + m.Month }

// ParseMonth reads "YYYY-MM" (or a full "YYYY-MM-DD" date) as the first
// day of that month in UTC.
func ParseMonth(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01", s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse month %q: %w", s, err)
	}
	return firstOfMonth(t), nil
}

// MonthsBetween lists every month from start's month to end's month
// inclusive. The day of month is ignored.
func MonthsBetween(start, end time.Time) []Month {
	cur := firstOfMonth(start)
	last := firstOfMonth(end)

	var months []Month
	for !cur.After(last) {
		months = append(months, Month{
			Year:  strconv.Itoa(cur.Year()),
			Month: fmt.Sprintf("%02d", int(cur.Month())),
		})
		cur = cur.AddDate(0, 1, 0)
	}
	return months
}

// MonthDiff returns the number of month boundaries between start and end.
func MonthDiff(start, end time.Time) int {
	return (end.Year()-start.Year())*12 + int(end.Month()) - int(start.Month())
}

// IsFutureDate reports whether t falls after the last day of the current month.
func IsFutureDate(t time.Time) bool {
	now := clock.Now()
	lastDay := time.Date(now.Year(), now.Month()+1, 0, 0, 0, 0, 0, now.Location())
	return t.After(lastDay)
}

// ValidateRange checks ordering and the MaxMonthRange limit.
func ValidateRange(start, end time.Time) error {
	if end.Before(start) {
		return ErrInvalidRange
	}
	if MonthDiff(start, end) > MaxMonthRange {
		return ErrRangeTooLong
	}
	return nil
}

func firstOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}
