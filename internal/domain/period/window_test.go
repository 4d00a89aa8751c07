package period

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockledger/internal/core/apperror"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestMonthly(t *testing.T) {
	tests := []struct {
		name      string
		month     string
		wantStart time.Time
		wantEnd   time.Time
	}{
		{"january", "2023-01", day(2023, time.January, 1), day(2023, time.January, 31)},
		{"april", "2023-04", day(2023, time.April, 1), day(2023, time.April, 30)},
		{"february", "2023-02", day(2023, time.February, 1), day(2023, time.February, 28)},
		{"february leap", "2024-02", day(2024, time.February, 1), day(2024, time.February, 29)},
		{"december", "2023-12", day(2023, time.December, 1), day(2023, time.December, 31)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, err := Monthly(tt.month)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStart, w.Start)
			assert.Equal(t, tt.wantEnd, w.End)
		})
	}
}

func TestMonthly_Invalid(t *testing.T) {
	for _, month := range []string{"", "2023", "13-2023", "2023-13"} {
		_, err := Monthly(month)
		require.Error(t, err, "month %q", month)
		appErr, ok := apperror.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, apperror.CodeValidation, appErr.Code)
	}
}

func TestWeekly(t *testing.T) {
	w, err := Weekly("2023-06-05 to 2023-06-11")
	require.NoError(t, err)
	assert.Equal(t, day(2023, time.June, 5), w.Start)
	assert.Equal(t, day(2023, time.June, 11), w.End)
}

func TestWeekly_Invalid(t *testing.T) {
	tests := []string{
		"",
		"2023-06-05",
		"2023-06-05 until 2023-06-11",
		"garbage to 2023-06-11",
		"2023-06-11 to 2023-06-05",
	}
	for _, rangeStr := range tests {
		_, err := Weekly(rangeStr)
		assert.Error(t, err, "range %q", rangeStr)
	}
}

func TestQuarterly(t *testing.T) {
	tests := []struct {
		quarter   int
		wantStart time.Time
		wantEnd   time.Time
	}{
		{1, day(2023, time.January, 1), day(2023, time.March, 31)},
		{2, day(2023, time.April, 1), day(2023, time.June, 30)},
		{3, day(2023, time.July, 1), day(2023, time.September, 30)},
		{4, day(2023, time.October, 1), day(2023, time.December, 31)},
	}
	for _, tt := range tests {
		w, err := Quarterly(2023, tt.quarter)
		require.NoError(t, err)
		assert.Equal(t, tt.wantStart, w.Start, "Q%d start", tt.quarter)
		assert.Equal(t, tt.wantEnd, w.End, "Q%d end", tt.quarter)
	}
}

func TestQuarterly_Invalid(t *testing.T) {
	for _, q := range []int{0, 5, -1} {
		_, err := Quarterly(2023, q)
		assert.Error(t, err, "quarter %d", q)
	}
	_, err := Quarterly(0, 1)
	assert.Error(t, err)
}

func TestYearly(t *testing.T) {
	w, err := Yearly(2023)
	require.NoError(t, err)
	assert.Equal(t, day(2023, time.January, 1), w.Start)
	assert.Equal(t, day(2023, time.December, 31), w.End)

	// Leap year: boundaries are unaffected, leap day falls inside.
	w, err = Yearly(2024)
	require.NoError(t, err)
	assert.Equal(t, day(2024, time.January, 1), w.Start)
	assert.Equal(t, day(2024, time.December, 31), w.End)
}

func TestClamp(t *testing.T) {
	now := time.Date(2023, time.June, 15, 12, 0, 0, 0, time.UTC)

	t.Run("future start rejected", func(t *testing.T) {
		w := Window{Start: day(2023, time.July, 1), End: day(2023, time.July, 31)}
		_, err := w.Clamp(now)
		require.Error(t, err)
		appErr, ok := apperror.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, apperror.CodeValidation, appErr.Code)
	})

	t.Run("future end clamped to now", func(t *testing.T) {
		w := Window{Start: day(2023, time.June, 1), End: day(2023, time.June, 30)}
		clamped, err := w.Clamp(now)
		require.NoError(t, err)
		assert.Equal(t, day(2023, time.June, 1), clamped.Start)
		assert.Equal(t, now, clamped.End)
	})

	t.Run("past window untouched", func(t *testing.T) {
		w := Window{Start: day(2023, time.May, 1), End: day(2023, time.May, 31)}
		clamped, err := w.Clamp(now)
		require.NoError(t, err)
		assert.Equal(t, w, clamped)
	})
}
