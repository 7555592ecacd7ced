package domain

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestMonthsBetween(t *testing.T) {
	tests := []struct {
		name  string
		start time.Time
		end   time.Time
		want  []Month
	}{
		{
			name:  "same month",
			start: date(2024, time.January, 5),
			end:   date(2024, time.January, 28),
			want:  []Month{{"2024", "01"}},
		},
		{
			name:  "crosses year boundary",
			start: date(2023, time.November, 30),
			end:   date(2024, time.February, 1),
			want:  []Month{{"2023", "11"}, {"2023", "12"}, {"2024", "01"}, {"2024", "02"}},
		},
		{
			name:  "end before start",
			start: date(2024, time.March, 1),
			end:   date(2024, time.February, 1),
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MonthsBetween(tt.start, tt.end))
		})
	}
}

func TestMonthsBetween_DayOfMonthOverflow(t *testing.T) {
	// Jan 31 + 1 month must not skip February.
	got := MonthsBetween(date(2024, time.January, 31), date(2024, time.March, 31))
	assert.Equal(t, []Month{{"2024", "01"}, {"2024", "02"}, {"2024", "03"}}, got)
}

func TestMonthDiff(t *testing.T) {
	assert.Equal(t, 0, MonthDiff(date(2024, 5, 1), date(2024, 5, 30)))
	assert.Equal(t, 13, MonthDiff(date(2023, 1, 1), date(2024, 2, 1)))
	assert.Equal(t, -2, MonthDiff(date(2024, 3, 1), date(2024, 1, 1)))
}

func TestValidateRange(t *testing.T) {
	require.NoError(t, ValidateRange(date(2020, 1, 1), date(2024, 1, 1)))
	require.ErrorIs(t, ValidateRange(date(2020, 1, 1), date(2024, 2, 1)), ErrRangeTooLong)
	require.ErrorIs(t, ValidateRange(date(2024, 2, 1), date(2024, 1, 1)), ErrInvalidRange)
}

func TestIsFutureDate(t *testing.T) {
	SetClock(clockwork.NewFakeClockAt(date(2024, time.February, 10)))
	defer SetClock(nil)

	assert.False(t, IsFutureDate(date(2024, time.February, 29)))
	assert.False(t, IsFutureDate(date(2023, time.December, 1)))
	assert.True(t, IsFutureDate(date(2024, time.March, 1)))
}

func TestParseMonth(t *testing.T) {
	got, err := ParseMonth("2024-03")
	require.NoError(t, err)
	assert.Equal(t, date(2024, time.March, 1), got)

	got, err = ParseMonth("2024-03-17")
	require.NoError(t, err)
	assert.Equal(t, date(2024, time.March, 1), got)

	_, err = ParseMonth("March")
	require.Error(t, err)
}
