package model_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"kbox/internal/domains/promotion/model"
)

func promo(discountType string, value float64) model.Promotion {
	return model.Promotion{
		Code:     "SING20",
		Type:     discountType,
		Value:    value,
		StartsAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		EndsAt:   time.Date(2025, 12, 31, 23, 59, 59, 0, time.UTC),
		Active:   true,
	}
}

func TestDiscount(t *testing.T) {
	at := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		promo    model.Promotion
		price    int64
		expected int64
	}{
		{name: "percent", promo: promo(model.TypePercent, 20), price: 50000, expected: 40000},
		{name: "percent rounds half up", promo: promo(model.TypePercent, 15), price: 333, expected: 283},
		{name: "percent full discount", promo: promo(model.TypePercent, 100), price: 50000, expected: 0},
		{name: "fixed", promo: promo(model.TypeFixed, 10000), price: 50000, expected: 40000},
		{name: "fixed exceeds price floors at zero", promo: promo(model.TypeFixed, 60000), price: 50000, expected: 0},
		{name: "unknown type leaves price untouched", promo: promo("BOGOF", 20), price: 50000, expected: 50000},
		{name: "zero price", promo: promo(model.TypePercent, 20), price: 0, expected: 0},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.expected, test.promo.Discount(test.price, at))
		})
	}
}

func TestDiscountWindow(t *testing.T) {
	p := promo(model.TypePercent, 20)

	t.Run("inactive promotion never applies", func(t *testing.T) {
		inactive := p
		inactive.Active = false

		at := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
		assert.Equal(t, int64(50000), inactive.Discount(50000, at))
	})

	t.Run("before window", func(t *testing.T) {
		at := time.Date(2024, 12, 31, 23, 59, 59, 0, time.UTC)
		assert.Equal(t, int64(50000), p.Discount(50000, at))
	})

	t.Run("after window", func(t *testing.T) {
		at := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
		assert.Equal(t, int64(50000), p.Discount(50000, at))
	})

	t.Run("window boundaries are inclusive", func(t *testing.T) {
		assert.Equal(t, int64(40000), p.Discount(50000, p.StartsAt))
		assert.Equal(t, int64(40000), p.Discount(50000, p.EndsAt))
	})

	t.Run("open-ended promotion", func(t *testing.T) {
		open := p
		open.EndsAt = time.Time{}

		at := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
		assert.Equal(t, int64(40000), open.Discount(50000, at))
	})
}

func TestNormalizeType(t *testing.T) {
	got, ok := model.NormalizeType("percent")
	assert.True(t, ok)
	assert.Equal(t, model.TypePercent, got)

	got, ok = model.NormalizeType(" Fixed ")
	assert.True(t, ok)
	assert.Equal(t, model.TypeFixed, got)

	_, ok = model.NormalizeType("LOYALTY")
	assert.False(t, ok)
}

func TestNormalizeCode(t *testing.T) {
	assert.Equal(t, "SING20", model.NormalizeCode(" sing20 "))
}
