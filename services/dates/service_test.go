package dates

import (
	"testing"
	"time"

	"github.com/HummdG/taza-ticket-clean/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedNow pins the clock to Monday 2026-08-10 12:00 UTC.
func fixedNow() time.Time {
	return time.Date(2026, time.August, 10, 12, 0, 0, 0, time.UTC)
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	return NewService(time.UTC, 1).WithNow(fixedNow)
}

func TestParseRelative(t *testing.T) {
	svc := newTestService(t)

	cases := []struct {
		in   string
		want string
	}{
		{"today", "2026-08-10"},
		{"tomorrow", "2026-08-11"},
		{"day after tomorrow", "2026-08-12"},
		{"next week", "2026-08-17"},
		{"next month", "2026-09-10"},
		{"next friday", "2026-08-14"},
		{"next monday", "2026-08-17"}, // same weekday as today rolls a full week
		{"this friday", "2026-08-14"},
		{"this monday", "2026-08-10"},
		{"in 3 days", "2026-08-13"},
		{"in 2 weeks", "2026-08-24"},
		{"in 1 month", "2026-09-10"},
	}

	for _, tc := range cases {
		kind, start, end, ok := svc.Parse(tc.in)
		require.True(t, ok, "Parse(%q)", tc.in)
		assert.Equal(t, models.DateSearchExact, kind, tc.in)
		assert.Equal(t, tc.want, start, tc.in)
		assert.Equal(t, tc.want, end, tc.in)
	}
}

func TestParseOrdinalDate(t *testing.T) {
	svc := newTestService(t)

	kind, start, end, ok := svc.Parse("24th August")
	require.True(t, ok)
	assert.Equal(t, models.DateSearchExact, kind)
	assert.Equal(t, "2026-08-24", start)
	assert.Equal(t, "2026-08-24", end)

	// An already-passed ordinal rolls into next year.
	_, start, _, ok = svc.Parse("3rd August")
	require.True(t, ok)
	assert.Equal(t, "2027-08-03", start)
}

func TestParseNumericDayFirst(t *testing.T) {
	svc := newTestService(t)

	kind, start, _, ok := svc.Parse("24-08-2026")
	require.True(t, ok)
	assert.Equal(t, models.DateSearchExact, kind)
	assert.Equal(t, "2026-08-24", start)

	_, start, _, ok = svc.Parse("2026-09-05")
	require.True(t, ok)
	assert.Equal(t, "2026-09-05", start)
}

func TestParseDayRange(t *testing.T) {
	svc := newTestService(t)

	kind, start, end, ok := svc.Parse("12th-16th August")
	require.True(t, ok)
	assert.Equal(t, models.DateSearchRange, kind)
	assert.Equal(t, "2026-08-12", start)
	assert.Equal(t, "2026-08-16", end)

	kind, start, end, ok = svc.Parse("August 12-16")
	require.True(t, ok)
	assert.Equal(t, models.DateSearchRange, kind)
	assert.Equal(t, "2026-08-12", start)
	assert.Equal(t, "2026-08-16", end)

	// A range whose month already passed resolves to next year.
	_, start, end, ok = svc.Parse("5th-9th March")
	require.True(t, ok)
	assert.Equal(t, "2027-03-05", start)
	assert.Equal(t, "2027-03-09", end)

	// A range starting before today in the current month rolls forward too.
	_, start, end, ok = svc.Parse("1st-4th August")
	require.True(t, ok)
	assert.Equal(t, "2027-08-01", start)
	assert.Equal(t, "2027-08-04", end)
}

func TestParseMonth(t *testing.T) {
	svc := newTestService(t)

	kind, start, end, ok := svc.Parse("september")
	require.True(t, ok)
	assert.Equal(t, models.DateSearchMonth, kind)
	assert.Equal(t, "2026-09-01", start)
	assert.Equal(t, "2026-09-30", end)

	// A bare month that already passed means next year's occurrence.
	kind, start, end, ok = svc.Parse("march")
	require.True(t, ok)
	assert.Equal(t, models.DateSearchMonth, kind)
	assert.Equal(t, "2027-03-01", start)
	assert.Equal(t, "2027-03-31", end)

	// Explicit year wins over the roll-forward rule.
	_, start, end, ok = svc.Parse("december 2026")
	require.True(t, ok)
	assert.Equal(t, "2026-12-01", start)
	assert.Equal(t, "2026-12-31", end)

	// Two-digit years pivot at 50.
	month, year, ok := svc.ParseMonthYear("sep 27")
	require.True(t, ok)
	assert.Equal(t, time.September, month)
	assert.Equal(t, 2027, year)
}

func TestParseIdempotent(t *testing.T) {
	svc := newTestService(t)

	inputs := []string{"tomorrow", "next friday", "september", "12th-16th August", "24-08-2026"}
	for _, in := range inputs {
		k1, s1, e1, ok1 := svc.Parse(in)
		k2, s2, e2, ok2 := svc.Parse(in)
		assert.Equal(t, ok1, ok2, in)
		assert.Equal(t, k1, k2, in)
		assert.Equal(t, s1, s2, in)
		assert.Equal(t, e1, e2, in)
	}
}

func TestParseUnrecognized(t *testing.T) {
	svc := newTestService(t)

	for _, in := range []string{"", "   ", "whenever works", "cheap please"} {
		_, _, _, ok := svc.Parse(in)
		assert.False(t, ok, "Parse(%q)", in)
	}
}

func TestMakeDateRejectsNormalization(t *testing.T) {
	_, ok := makeDate(2026, time.February, 30, time.UTC)
	assert.False(t, ok)

	_, ok = makeDate(2026, time.February, 28, time.UTC)
	assert.True(t, ok)
}

func TestExpandRange(t *testing.T) {
	svc := newTestService(t)

	got, err := svc.ExpandRange("2026-08-12", "2026-08-16")
	require.NoError(t, err)
	require.Len(t, got, 5)
	assert.Equal(t, "2026-08-12", got[0])
	assert.Equal(t, "2026-08-16", got[4])

	// Inclusive daily sequence with no gaps.
	for i := 1; i < len(got); i++ {
		prev, _ := time.Parse("2006-01-02", got[i-1])
		cur, _ := time.Parse("2006-01-02", got[i])
		assert.Equal(t, 24*time.Hour, cur.Sub(prev))
	}

	single, err := svc.ExpandRange("2026-08-12", "2026-08-12")
	require.NoError(t, err)
	assert.Equal(t, []string{"2026-08-12"}, single)

	_, err = svc.ExpandRange("2026-08-16", "2026-08-12")
	assert.Error(t, err)

	_, err = svc.ExpandRange("garbage", "2026-08-12")
	assert.Error(t, err)
}

func TestMonthDates(t *testing.T) {
	svc := newTestService(t)

	all := svc.MonthDates(time.September, 2026, true)
	assert.Len(t, all, 30)

	// Current month excludes dates before today.
	current := svc.MonthDates(time.August, 2026, true)
	require.NotEmpty(t, current)
	assert.Equal(t, "2026-08-10", current[0])
	assert.Len(t, current, 22)

	// Without exclusion the full month is returned.
	full := svc.MonthDates(time.August, 2026, false)
	assert.Len(t, full, 31)
	assert.Equal(t, "2026-08-01", full[0])
}

func TestIsValidTravelDate(t *testing.T) {
	svc := newTestService(t)

	assert.False(t, svc.IsValidTravelDate("2026-08-09"))
	assert.False(t, svc.IsValidTravelDate("2026-08-10")) // today fails the 1-day advance rule
	assert.True(t, svc.IsValidTravelDate("2026-08-11"))
	assert.True(t, svc.IsValidTravelDate("2027-01-01"))
	assert.False(t, svc.IsValidTravelDate("not-a-date"))
}
