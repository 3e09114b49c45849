package model_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"kbox/internal/domains/booking/model"
)

func TestNormalizeStatus(t *testing.T) {
	tests := []struct {
		input    string
		expected string
		ok       bool
	}{
		{input: "PENDING", expected: model.StatusPending, ok: true},
		{input: "CHECKED_IN", expected: model.StatusCheckedIn, ok: true},
		{input: "CHECKED-IN", expected: model.StatusCheckedIn, ok: true},
		{input: "CONFIRMED", expected: model.StatusCheckedIn, ok: true},
		{input: "confirmed", expected: model.StatusCheckedIn, ok: true},
		{input: " paid ", expected: model.StatusPaid, ok: true},
		{input: "COMPLETED", expected: model.StatusCompleted, ok: true},
		{input: "CANCELLED", expected: model.StatusCancelled, ok: true},
		{input: "REFUNDED", expected: model.StatusRefunded, ok: true},
		{input: "EXPIRED", expected: "", ok: false},
		{input: "", expected: "", ok: false},
	}

	for _, test := range tests {
		t.Run(test.input, func(t *testing.T) {
			got, ok := model.NormalizeStatus(test.input)

			assert.Equal(t, test.ok, ok)
			assert.Equal(t, test.expected, got)
		})
	}
}

func TestNormalizePaymentMethod(t *testing.T) {
	got, ok := model.NormalizePaymentMethod("cash")
	assert.True(t, ok)
	assert.Equal(t, model.PaymentMethodCash, got)

	got, ok = model.NormalizePaymentMethod("PROMPTPAY")
	assert.True(t, ok)
	assert.Equal(t, model.PaymentMethodPromptPay, got)

	got, ok = model.NormalizePaymentMethod("stripe")
	assert.True(t, ok)
	assert.Equal(t, model.PaymentMethodPromptPay, got)

	_, ok = model.NormalizePaymentMethod("CHEQUE")
	assert.False(t, ok)
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name    string
		from    string
		to      string
		allowed bool
	}{
		{name: "pending to checked in", from: model.StatusPending, to: model.StatusCheckedIn, allowed: true},
		{name: "pending to paid", from: model.StatusPending, to: model.StatusPaid, allowed: true},
		{name: "pending to cancelled", from: model.StatusPending, to: model.StatusCancelled, allowed: true},
		{name: "pending to completed", from: model.StatusPending, to: model.StatusCompleted, allowed: false},
		{name: "pending to refunded", from: model.StatusPending, to: model.StatusRefunded, allowed: false},
		{name: "checked in to paid", from: model.StatusCheckedIn, to: model.StatusPaid, allowed: true},
		{name: "checked in to cancelled", from: model.StatusCheckedIn, to: model.StatusCancelled, allowed: true},
		{name: "checked in to completed", from: model.StatusCheckedIn, to: model.StatusCompleted, allowed: false},
		{name: "paid to completed", from: model.StatusPaid, to: model.StatusCompleted, allowed: true},
		{name: "paid to refunded", from: model.StatusPaid, to: model.StatusRefunded, allowed: true},
		{name: "paid to cancelled", from: model.StatusPaid, to: model.StatusCancelled, allowed: true},
		{name: "completed is terminal", from: model.StatusCompleted, to: model.StatusCancelled, allowed: false},
		{name: "cancelled is terminal", from: model.StatusCancelled, to: model.StatusPending, allowed: false},
		{name: "refunded is terminal", from: model.StatusRefunded, to: model.StatusPaid, allowed: false},
		{name: "same status is not a transition", from: model.StatusPaid, to: model.StatusPaid, allowed: false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.allowed, model.CanTransition(test.from, test.to))
		})
	}
}

func TestIsTerminal(t *testing.T) {
	assert.True(t, model.IsTerminal(model.StatusCompleted))
	assert.True(t, model.IsTerminal(model.StatusCancelled))
	assert.True(t, model.IsTerminal(model.StatusRefunded))
	assert.False(t, model.IsTerminal(model.StatusPending))
	assert.False(t, model.IsTerminal(model.StatusCheckedIn))
	assert.False(t, model.IsTerminal(model.StatusPaid))
}

func TestIsOccupying(t *testing.T) {
	assert.True(t, model.IsOccupying(model.StatusPending))
	assert.True(t, model.IsOccupying(model.StatusCheckedIn))
	assert.True(t, model.IsOccupying(model.StatusPaid))
	assert.True(t, model.IsOccupying(model.StatusCompleted))
	assert.False(t, model.IsOccupying(model.StatusCancelled))
	assert.False(t, model.IsOccupying(model.StatusRefunded))
}
