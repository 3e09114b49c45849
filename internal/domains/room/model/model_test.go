package model_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"kbox/internal/domains/room/model"
)

func TestNormalizeStatus(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
		ok       bool
	}{
		{name: "active", input: "ACTIVE", expected: model.StatusActive, ok: true},
		{name: "inactive", input: "INACTIVE", expected: model.StatusInactive, ok: true},
		{name: "legacy available", input: "AVAILABLE", expected: model.StatusActive, ok: true},
		{name: "legacy occupied", input: "OCCUPIED", expected: model.StatusInactive, ok: true},
		{name: "legacy maintenance", input: "MAINTENANCE", expected: model.StatusInactive, ok: true},
		{name: "lowercase", input: "available", expected: model.StatusActive, ok: true},
		{name: "padded", input: "  active ", expected: model.StatusActive, ok: true},
		{name: "unknown", input: "BROKEN", expected: "", ok: false},
		{name: "empty", input: "", expected: "", ok: false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, ok := model.NormalizeStatus(test.input)

			assert.Equal(t, test.ok, ok)
			assert.Equal(t, test.expected, got)
		})
	}
}

func TestNormalizeCategory(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
		ok       bool
	}{
		{name: "standard", input: "STANDARD", expected: model.CategoryStandard, ok: true},
		{name: "vip lowercase", input: "vip", expected: model.CategoryVIP, ok: true},
		{name: "deluxe mixed case", input: "Deluxe", expected: model.CategoryDeluxe, ok: true},
		{name: "unknown", input: "PENTHOUSE", expected: "", ok: false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, ok := model.NormalizeCategory(test.input)

			assert.Equal(t, test.ok, ok)
			assert.Equal(t, test.expected, got)
		})
	}
}

func TestNormalizeRoomNumber(t *testing.T) {
	assert.Equal(t, "A-101", model.NormalizeRoomNumber(" a-101 "))
	assert.Equal(t, "VIP-2", model.NormalizeRoomNumber("vip-2"))
}

func TestBookable(t *testing.T) {
	active := model.Room{Status: model.StatusActive}
	inactive := model.Room{Status: model.StatusInactive}

	assert.True(t, active.Bookable())
	assert.False(t, inactive.Bookable())
}
