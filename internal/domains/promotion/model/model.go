package model

import (
	"math"
	"strings"
	"time"

	"kbox/shared/model"
)

const (
	TableName  = "promotions"
	EntityName = "promotion"

	FieldID       = "id"
	FieldCode     = "code"
	FieldName     = "name"
	FieldType     = "discount_type"
	FieldValue    = "discount_value"
	FieldStartsAt = "starts_at"
	FieldEndsAt   = "ends_at"
	FieldActive   = "active"
)

const (
	TypePercent = "PERCENT"
	TypeFixed   = "FIXED"
)

type Promotion struct {
	ID   string `db:"id"`
	Code string `db:"code"`
	Name string `db:"name"`
	// Type is PERCENT or FIXED. Anything else is treated as no discount.
	Type     string    `db:"discount_type"`
	Value    float64   `db:"discount_value"`
	StartsAt time.Time `db:"starts_at"`
	EndsAt   time.Time `db:"ends_at"`
	Active   bool      `db:"active"`
	model.Metadata
}

// NormalizeType upper-cases and checks a discount type.
func NormalizeType(discountType string) (string, bool) {
	normalized := strings.ToUpper(strings.TrimSpace(discountType))

	switch normalized {
	case TypePercent, TypeFixed:
		return normalized, true
	default:
		return "", false
	}
}

// NormalizeCode canonicalizes a promotion code for matching.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Applicable reports whether the promotion discounts a booking made at
// the given instant. Inactive or out-of-window promotions never apply.
func (p *Promotion) Applicable(at time.Time) bool {
	if !p.Active {
		return false
	}

	if at.Before(p.StartsAt) {
		return false
	}

	if !p.EndsAt.IsZero() && at.After(p.EndsAt) {
		return false
	}

	return true
}

// Discount returns the price after applying the promotion. A promotion
// that does not apply, or carries an unknown type, leaves the price
// untouched. The result never drops below zero.
func (p *Promotion) Discount(price int64, at time.Time) int64 {
	if !p.Applicable(at) {
		return price
	}

	var discounted int64

	switch p.Type {
	case TypePercent:
		discounted = int64(math.Round(float64(price) * (1 - p.Value/100)))
	case TypeFixed:
		discounted = price - int64(math.Round(p.Value))
	default:
		return price
	}

	if discounted < 0 {
		return 0
	}

	return discounted
}
