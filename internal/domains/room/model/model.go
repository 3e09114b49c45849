package model

import (
	"strings"

	"kbox/shared/model"
)

const (
	TableName  = "rooms"
	EntityName = "room"

	FieldID           = "id"
	FieldRoomNumber   = "room_number"
	FieldName         = "name"
	FieldCategory     = "category"
	FieldCapacity     = "capacity"
	FieldPricePerSlot = "price_per_slot"
	FieldStatus       = "status"
	FieldDescription  = "description"
)

const (
	StatusActive   = "ACTIVE"
	StatusInactive = "INACTIVE"
)

const (
	CategoryStandard = "STANDARD"
	CategoryPremium  = "PREMIUM"
	CategoryDeluxe   = "DELUXE"
	CategoryVIP      = "VIP"
)

type Room struct {
	ID         string `db:"id"`
	RoomNumber string `db:"room_number"`
	Name       string `db:"name"`
	Category   string `db:"category"`
	Capacity   int    `db:"capacity"`
	// PricePerSlot is in the currency's smallest unit.
	PricePerSlot int64  `db:"price_per_slot"`
	Status       string `db:"status"`
	Description  string `db:"description"`
	model.Metadata
}

// Bookable reports whether the room accepts new bookings.
func (r *Room) Bookable() bool {
	return r.Status == StatusActive
}

// NormalizeStatus maps legacy status spellings onto the two canonical
// values. AVAILABLE meant bookable; OCCUPIED and MAINTENANCE both meant
// the room was withdrawn from sale.
func NormalizeStatus(status string) (string, bool) {
	switch strings.ToUpper(strings.TrimSpace(status)) {
	case StatusActive, "AVAILABLE":
		return StatusActive, true
	case StatusInactive, "OCCUPIED", "MAINTENANCE":
		return StatusInactive, true
	default:
		return "", false
	}
}

// NormalizeCategory upper-cases and checks a room category.
func NormalizeCategory(category string) (string, bool) {
	normalized := strings.ToUpper(strings.TrimSpace(category))

	switch normalized {
	case CategoryStandard, CategoryPremium, CategoryDeluxe, CategoryVIP:
		return normalized, true
	default:
		return "", false
	}
}

// NormalizeRoomNumber canonicalizes a room number for matching, room
// numbers compare case-insensitively.
func NormalizeRoomNumber(number string) string {
	return strings.ToUpper(strings.TrimSpace(number))
}
