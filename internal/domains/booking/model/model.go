package model

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
	"time"

	"kbox/shared/model"
)

const (
	TableName  = "bookings"
	EntityName = "booking"

	FieldID            = "id"
	FieldCode          = "code"
	FieldRoomID        = "room_id"
	FieldRoomNumber    = "room_number"
	FieldRoomName      = "room_name"
	FieldRoomCategory  = "room_category"
	FieldRoomPrice     = "room_price"
	FieldUserID        = "user_id"
	FieldCustomerName  = "customer_name"
	FieldCustomerEmail = "customer_email"
	FieldCustomerPhone = "customer_phone"
	FieldBookingDate   = "booking_date"
	FieldTimeSlot      = "time_slot"
	FieldPeople        = "people"
	FieldPaymentMethod = "payment_method"
	FieldPromoCode     = "promo_code"
	FieldTotalPrice    = "total_price"
	FieldPaymentRef    = "payment_ref"
	FieldStatus        = "status"
	FieldMonthKey      = "month_key"
)

const codeBytes = 4

type Booking struct {
	ID   string `db:"id"`
	Code string `db:"code"`

	// Room snapshot, denormalized on purpose so later room edits never
	// rewrite history.
	RoomID       string `db:"room_id"`
	RoomNumber   string `db:"room_number"`
	RoomName     string `db:"room_name"`
	RoomCategory string `db:"room_category"`
	RoomPrice    int64  `db:"room_price"`

	UserID        *string `db:"user_id"`
	CustomerName  string  `db:"customer_name"`
	CustomerEmail string  `db:"customer_email"`
	CustomerPhone string  `db:"customer_phone"`

	// BookingDate is local midnight of the reserved business day.
	BookingDate   time.Time `db:"booking_date"`
	TimeSlot      string    `db:"time_slot"`
	People        int       `db:"people"`
	PaymentMethod string    `db:"payment_method"`
	PromoCode     *string   `db:"promo_code"`
	TotalPrice    int64     `db:"total_price"`
	PaymentRef    *string   `db:"payment_ref"`
	Status        string    `db:"status"`

	// MonthKey is the YYYY-MM of the booking date, for reporting.
	MonthKey string `db:"month_key"`

	model.Metadata
}

// OwnedBy reports whether the booking belongs to the given customer
// email. Staff bypass this check at the service layer.
func (b *Booking) OwnedBy(email string) bool {
	return email != "" && b.CustomerEmail == email
}

// NewCode generates a short human-readable booking code. Uniqueness is
// backed by the storage constraint, not this generator.
func NewCode() string {
	buf := make([]byte, codeBytes)

	if _, err := rand.Read(buf); err != nil {
		// crypto/rand never fails on supported platforms
		panic(err)
	}

	return "KB-" + strings.ToUpper(hex.EncodeToString(buf))
}
