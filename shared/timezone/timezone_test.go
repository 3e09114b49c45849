package timezone_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"kbox/shared/timezone"
)

func mustBusiness(t *testing.T, offset string) *timezone.Business {
	t.Helper()

	biz, ok := timezone.FromOffset(offset)
	assert.True(t, ok, "offset %s should parse", offset)

	return biz
}

func TestFromOffset(t *testing.T) {
	tests := []struct {
		name   string
		offset string
		ok     bool
	}{
		{name: "bangkok", offset: "+07:00", ok: true},
		{name: "newfoundland", offset: "-03:30", ok: true},
		{name: "utc", offset: "+00:00", ok: true},
		{name: "missing sign", offset: "07:00", ok: false},
		{name: "no colon", offset: "+0700", ok: false},
		{name: "hour out of range", offset: "+25:00", ok: false},
		{name: "minute out of range", offset: "+07:75", ok: false},
		{name: "garbage", offset: "bangkok", ok: false},
		{name: "empty", offset: "", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := timezone.FromOffset(tt.offset)
			assert.Equal(t, tt.ok, ok)
		})
	}
}

func TestParseBusinessDate(t *testing.T) {
	biz := mustBusiness(t, "+07:00")

	tests := []struct {
		name string
		in   string
		ok   bool
	}{
		{name: "valid date", in: "2026-08-30", ok: true},
		{name: "leap day", in: "2024-02-29", ok: true},
		{name: "day overflows month", in: "2024-02-30", ok: false},
		{name: "non leap feb 29", in: "2025-02-29", ok: false},
		{name: "month zero", in: "2026-00-10", ok: false},
		{name: "month thirteen", in: "2026-13-10", ok: false},
		{name: "day zero", in: "2026-01-00", ok: false},
		{name: "day thirty two", in: "2026-01-32", ok: false},
		{name: "wrong separators", in: "2026/08/30", ok: false},
		{name: "too short", in: "2026-8-30", ok: false},
		{name: "not a date", in: "whenever", ok: false},
		{name: "empty", in: "", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := biz.ParseBusinessDate(tt.in)
			assert.Equal(t, tt.ok, ok)

			if tt.ok {
				assert.Equal(t, tt.in, biz.FormatBusinessDateInput(got))
				assert.Equal(t, 0, biz.MinuteOfDay(got), "parsed date should be local midnight")
			}
		})
	}
}

func TestParseBusinessDate_OffsetIndependence(t *testing.T) {
	bangkok := mustBusiness(t, "+07:00")
	utc := mustBusiness(t, "+00:00")

	bkkMidnight, ok := bangkok.ParseBusinessDate("2026-08-30")
	assert.True(t, ok)

	utcMidnight, ok := utc.ParseBusinessDate("2026-08-30")
	assert.True(t, ok)

	// Bangkok midnight is seven hours before UTC midnight on the same date.
	assert.Equal(t, 7*time.Hour, utcMidnight.Sub(bkkMidnight))
}

func TestParseBusinessDateTime(t *testing.T) {
	biz := mustBusiness(t, "+07:00")

	got, ok := biz.ParseBusinessDateTime("2026-08-30", "18:30")
	assert.True(t, ok)
	assert.Equal(t, 18*60+30, biz.MinuteOfDay(got))

	_, ok = biz.ParseBusinessDateTime("2026-08-30", "24:00")
	assert.False(t, ok)

	_, ok = biz.ParseBusinessDateTime("2026-08-30", "18:60")
	assert.False(t, ok)

	_, ok = biz.ParseBusinessDateTime("2026-08-30", "6:30")
	assert.False(t, ok)

	_, ok = biz.ParseBusinessDateTime("2026-02-30", "10:00")
	assert.False(t, ok)
}

func TestStartOfBusinessDay_RoundTrip(t *testing.T) {
	biz := mustBusiness(t, "+07:00")

	instants := []time.Time{
		time.Date(2026, 8, 30, 16, 59, 59, 0, time.UTC),
		time.Date(2026, 8, 30, 17, 0, 0, 0, time.UTC), // midnight next day in +07:00
		time.Now(),
		time.Date(2026, 1, 1, 0, 0, 1, 0, time.UTC),
	}

	for _, x := range instants {
		start := biz.StartOfBusinessDay(x)

		parsed, ok := biz.ParseBusinessDate(biz.FormatBusinessDateInput(start))
		assert.True(t, ok)
		assert.True(t, parsed.Equal(start), "round trip should preserve start of day for %v", x)

		assert.True(t, biz.IsSameBusinessDay(x, start))
	}
}

func TestStartOfBusinessDay_DayBoundary(t *testing.T) {
	biz := mustBusiness(t, "+07:00")

	// 16:59:59 UTC is still Aug 30 in +07:00; 17:00:00 UTC is Aug 31.
	before := time.Date(2026, 8, 30, 16, 59, 59, 0, time.UTC)
	after := time.Date(2026, 8, 30, 17, 0, 0, 0, time.UTC)

	assert.Equal(t, "2026-08-30", biz.FormatBusinessDateInput(before))
	assert.Equal(t, "2026-08-31", biz.FormatBusinessDateInput(after))
	assert.False(t, biz.IsSameBusinessDay(before, after))
}

func TestAddBusinessDays(t *testing.T) {
	biz := mustBusiness(t, "+07:00")

	day, ok := biz.ParseBusinessDate("2026-08-30")
	assert.True(t, ok)

	assert.Equal(t, "2026-08-31", biz.FormatBusinessDateInput(biz.AddBusinessDays(day, 1)))
	assert.Equal(t, "2026-09-06", biz.FormatBusinessDateInput(biz.AddBusinessDays(day, 7)))
	assert.Equal(t, "2026-08-29", biz.FormatBusinessDateInput(biz.AddBusinessDays(day, -1)))

	// Pure arithmetic: exactly n*24h.
	assert.Equal(t, 48*time.Hour, biz.AddBusinessDays(day, 2).Sub(day))
}
