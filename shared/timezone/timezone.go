package timezone

import (
	"regexp"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"kbox/config"
)

const (
	// DefaultOffset is used when the configured business offset is missing
	// or malformed.
	DefaultOffset = "+07:00"

	dayDuration = 24 * time.Hour
)

var offsetPattern = regexp.MustCompile(`^([+-])(\d{2}):(\d{2})$`)

// Business converts between the fixed business-timezone offset and absolute
// instants, independent of the host machine's local timezone. The offset is
// fixed per deployment, so all day arithmetic is plain offset math with no
// DST awareness.
type Business struct {
	offset string
	loc    *time.Location
}

// FromOffset builds a Business for a signed UTC offset such as "+07:00".
// Returns ok=false on a malformed offset.
func FromOffset(offset string) (*Business, bool) {
	seconds, ok := parseOffsetSeconds(offset)
	if !ok {
		return nil, false
	}

	return &Business{
		offset: offset,
		loc:    time.FixedZone("UTC"+offset, seconds),
	}, true
}

// New builds a Business from the configured offset, falling back to the
// default and logging a warning when the configured value is malformed.
func New(cfg *config.Config) *Business {
	offset := cfg.App.BusinessTZOffset

	biz, ok := FromOffset(offset)
	if !ok {
		log.Warn().
			Str("offset", offset).
			Str("fallback", DefaultOffset).
			Msg("Malformed business timezone offset, using fallback")

		biz, _ = FromOffset(DefaultOffset)
	}

	return biz
}

func parseOffsetSeconds(offset string) (int, bool) {
	match := offsetPattern.FindStringSubmatch(offset)
	if match == nil {
		return 0, false
	}

	hours, _ := strconv.Atoi(match[2])
	minutes, _ := strconv.Atoi(match[3])

	if hours > 23 || minutes > 59 {
		return 0, false
	}

	seconds := (hours*60 + minutes) * 60
	if match[1] == "-" {
		seconds = -seconds
	}

	return seconds, true
}

// Offset returns the configured offset string.
func (b *Business) Offset() string {
	return b.offset
}

// Location returns the fixed business location.
func (b *Business) Location() *time.Location {
	return b.loc
}

// Now returns the current time in the business offset.
func (b *Business) Now() time.Time {
	return time.Now().In(b.loc)
}

// ParseBusinessDate parses a YYYY-MM-DD string as local midnight in the
// business offset. Rejects malformed input, out-of-range month/day, and day
// values that do not exist in the given month (e.g. 2024-02-30).
func (b *Business) ParseBusinessDate(dateStr string) (time.Time, bool) {
	year, month, day, ok := splitDate(dateStr)
	if !ok {
		return time.Time{}, false
	}

	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, b.loc)

	// time.Date normalizes overflowing days into the next month; treat that
	// as an invalid input rather than silently rolling forward.
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return time.Time{}, false
	}

	return t, true
}

// ParseBusinessDateTime parses YYYY-MM-DD plus HH:MM in the business offset.
func (b *Business) ParseBusinessDateTime(dateStr, timeStr string) (time.Time, bool) {
	day, ok := b.ParseBusinessDate(dateStr)
	if !ok {
		return time.Time{}, false
	}

	hour, minute, ok := splitClock(timeStr)
	if !ok {
		return time.Time{}, false
	}

	return day.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute), true
}

// StartOfBusinessDay floors an instant to local midnight in the business offset.
func (b *Business) StartOfBusinessDay(t time.Time) time.Time {
	local := t.In(b.loc)

	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, b.loc)
}

// AddBusinessDays adds n whole days as pure arithmetic. The offset is fixed,
// so no DST adjustment applies.
func (b *Business) AddBusinessDays(t time.Time, n int) time.Time {
	return t.Add(time.Duration(n) * dayDuration)
}

// IsSameBusinessDay reports whether two instants fall on the same business day.
func (b *Business) IsSameBusinessDay(a, c time.Time) bool {
	return b.StartOfBusinessDay(a).Equal(b.StartOfBusinessDay(c))
}

// FormatBusinessDateInput renders an instant as YYYY-MM-DD in the business
// offset, suitable for round-tripping through ParseBusinessDate.
func (b *Business) FormatBusinessDateInput(t time.Time) string {
	return t.In(b.loc).Format("2006-01-02")
}

// MinuteOfDay returns the instant's minute-of-day in the business offset.
func (b *Business) MinuteOfDay(t time.Time) int {
	local := t.In(b.loc)

	return local.Hour()*60 + local.Minute()
}

func splitDate(dateStr string) (year, month, day int, ok bool) {
	if len(dateStr) != 10 || dateStr[4] != '-' || dateStr[7] != '-' {
		return 0, 0, 0, false
	}

	year, errY := strconv.Atoi(dateStr[0:4])
	month, errM := strconv.Atoi(dateStr[5:7])
	day, errD := strconv.Atoi(dateStr[8:10])

	if errY != nil || errM != nil || errD != nil {
		return 0, 0, 0, false
	}

	if month < 1 || month > 12 || day < 1 || day > 31 {
		return 0, 0, 0, false
	}

	return year, month, day, true
}

func splitClock(timeStr string) (hour, minute int, ok bool) {
	if len(timeStr) != 5 || timeStr[2] != ':' {
		return 0, 0, false
	}

	hour, errH := strconv.Atoi(timeStr[0:2])
	minute, errM := strconv.Atoi(timeStr[3:5])

	if errH != nil || errM != nil || hour > 23 || minute > 59 || hour < 0 || minute < 0 {
		return 0, 0, false
	}

	return hour, minute, true
}

var (
	defaultOnce sync.Once
	defaultBiz  *Business
)

func defaultBusiness() *Business {
	defaultOnce.Do(func() {
		defaultBiz = New(config.Get())
	})

	return defaultBiz
}

// Now returns the current time in the deployment's business offset.
func Now() time.Time {
	return defaultBusiness().Now()
}

// Format formats a time in the deployment's business offset.
func Format(t time.Time, layout string) string {
	return t.In(defaultBusiness().loc).Format(layout)
}

// FormatBusinessDateInput formats a time as a YYYY-MM-DD business date.
func FormatBusinessDateInput(t time.Time) string {
	return defaultBusiness().FormatBusinessDateInput(t)
}
