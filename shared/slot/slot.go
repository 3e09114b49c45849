package slot

import (
	"regexp"
	"time"

	"kbox/config"
	"kbox/shared/timezone"
)

var slotPattern = regexp.MustCompile(`^([01]\d|2[0-3]):([0-5]\d)-([01]\d|2[0-3]):([0-5]\d)$`)

// Valid reports whether s matches HH:MM-HH:MM with in-range hours and minutes.
func Valid(s string) bool {
	return slotPattern.MatchString(s)
}

// Bounds returns a slot's start and end as minutes since local midnight.
// Returns ok=false for anything that does not match the slot pattern.
func Bounds(s string) (startMin, endMin int, ok bool) {
	if !slotPattern.MatchString(s) {
		return 0, 0, false
	}

	startMin = atoi2(s[0:2])*60 + atoi2(s[3:5])
	endMin = atoi2(s[6:8])*60 + atoi2(s[9:11])

	return startMin, endMin, true
}

// EndMinutes returns a slot's end as minutes since local midnight.
func EndMinutes(s string) (int, bool) {
	_, end, ok := Bounds(s)

	return end, ok
}

func atoi2(s string) int {
	return int(s[0]-'0')*10 + int(s[1]-'0')
}

// Catalog is the fixed, ordered sequence of non-overlapping slots covering
// the business day. Immutable at runtime; configurable at deploy time only.
type Catalog struct {
	slots []string
	biz   *timezone.Business
}

// NewCatalog builds the deployment slot catalog from configuration.
func NewCatalog(cfg *config.Config, biz *timezone.Business) *Catalog {
	return FromSlots(cfg.App.SlotCatalog, biz)
}

// FromSlots builds a catalog from an explicit slot list, mainly for tests
// that need alternate catalogs.
func FromSlots(slots []string, biz *timezone.Business) *Catalog {
	copied := make([]string, len(slots))
	copy(copied, slots)

	return &Catalog{slots: copied, biz: biz}
}

// Slots returns the ordered slot list.
func (c *Catalog) Slots() []string {
	out := make([]string, len(c.slots))
	copy(out, c.slots)

	return out
}

// Contains reports whether s is one of the catalog's slots.
func (c *Catalog) Contains(s string) bool {
	for _, slot := range c.slots {
		if slot == s {
			return true
		}
	}

	return false
}

// Current scans the catalog in order and returns the first slot whose
// [start,end) window contains now's minute-of-day in the business offset.
// Invalid catalog entries are skipped, never reported as errors.
func (c *Catalog) Current(now time.Time) (string, bool) {
	minute := c.biz.MinuteOfDay(now)

	for _, s := range c.slots {
		start, end, ok := Bounds(s)
		if !ok {
			continue
		}

		if minute >= start && minute < end {
			return s, true
		}
	}

	return "", false
}
