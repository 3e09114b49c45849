package slot_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"kbox/shared/slot"
	"kbox/shared/timezone"
)

func TestValid(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		valid bool
	}{
		{name: "midday slot", in: "12:00-14:00", valid: true},
		{name: "evening slot", in: "20:00-22:00", valid: true},
		{name: "edge hours", in: "00:00-23:59", valid: true},
		{name: "hour 24", in: "24:00-01:00", valid: false},
		{name: "minute 60", in: "12:60-14:00", valid: false},
		{name: "single digit hour", in: "9:00-11:00", valid: false},
		{name: "missing dash", in: "12:00 14:00", valid: false},
		{name: "trailing junk", in: "12:00-14:00x", valid: false},
		{name: "empty", in: "", valid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, slot.Valid(tt.in))
		})
	}
}

func TestBounds(t *testing.T) {
	start, end, ok := slot.Bounds("18:30-20:15")
	assert.True(t, ok)
	assert.Equal(t, 18*60+30, start)
	assert.Equal(t, 20*60+15, end)

	_, _, ok = slot.Bounds("nonsense")
	assert.False(t, ok)
}

func TestCatalog_Current(t *testing.T) {
	biz, ok := timezone.FromOffset("+07:00")
	assert.True(t, ok)

	catalog := slot.FromSlots([]string{
		"10:00-12:00",
		"12:00-14:00",
		"broken-slot", // skipped silently
		"14:00-16:00",
	}, biz)

	at := func(hour, minute int) time.Time {
		day, parsed := biz.ParseBusinessDate("2026-08-30")
		assert.True(t, parsed)

		return day.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
	}

	tests := []struct {
		name  string
		now   time.Time
		want  string
		found bool
	}{
		{name: "slot start is inclusive", now: at(12, 0), want: "12:00-14:00", found: true},
		{name: "inside slot", now: at(13, 59), want: "12:00-14:00", found: true},
		{name: "slot end is exclusive", now: at(16, 0), found: false},
		{name: "before opening", now: at(9, 59), found: false},
		{name: "after broken entry", now: at(14, 30), want: "14:00-16:00", found: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found := catalog.Current(tt.now)
			assert.Equal(t, tt.found, found)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCatalog_Contains(t *testing.T) {
	biz, _ := timezone.FromOffset("+07:00")
	catalog := slot.FromSlots([]string{"10:00-12:00", "12:00-14:00"}, biz)

	assert.True(t, catalog.Contains("12:00-14:00"))
	assert.False(t, catalog.Contains("14:00-16:00"))
}
