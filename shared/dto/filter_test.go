package dto_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"kbox/shared/dto"
)

func TestFilterGetWhereClause(t *testing.T) {
	tests := []struct {
		name       string
		filter     dto.Filter
		wantClause string
		wantArgs   map[string]any
	}{
		{
			name:       "eq",
			filter:     dto.Filter{Field: "status", Value: "PENDING", Operator: dto.FilterOperatorEq},
			wantClause: "status = :status",
			wantArgs:   map[string]any{"status": "PENDING"},
		},
		{
			name:       "not eq",
			filter:     dto.Filter{Field: "id", Value: "booking-1", Operator: dto.FilterOperatorNotEq},
			wantClause: "id != :id",
			wantArgs:   map[string]any{"id": "booking-1"},
		},
		{
			name:       "less",
			filter:     dto.Filter{Field: "created_at", Value: 10, Operator: dto.FilterOperatorLess},
			wantClause: "created_at < :created_at",
			wantArgs:   map[string]any{"created_at": 10},
		},
		{
			name:       "less eq",
			filter:     dto.Filter{Field: "created_at", Value: 10, Operator: dto.FilterOperatorLessEq},
			wantClause: "created_at <= :created_at",
			wantArgs:   map[string]any{"created_at": 10},
		},
		{
			name:       "greater is strict",
			filter:     dto.Filter{Field: "created_at", Value: 10, Operator: dto.FilterOperatorGreater},
			wantClause: "created_at > :created_at",
			wantArgs:   map[string]any{"created_at": 10},
		},
		{
			name:       "greater eq",
			filter:     dto.Filter{Field: "created_at", Value: 10, Operator: dto.FilterOperatorGreaterEq},
			wantClause: "created_at >= :created_at",
			wantArgs:   map[string]any{"created_at": 10},
		},
		{
			name:       "table qualifies the column",
			filter:     dto.Filter{Field: "status", Table: "bookings", Value: "PAID", Operator: dto.FilterOperatorEq},
			wantClause: "bookings.status = :status",
			wantArgs:   map[string]any{"status": "PAID"},
		},
		{
			name:       "arg name overrides the field",
			filter:     dto.Filter{Field: "created_at", ArgName: "pending_cutoff", Value: 10, Operator: dto.FilterOperatorGreater},
			wantClause: "created_at > :pending_cutoff",
			wantArgs:   map[string]any{"pending_cutoff": 10},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			clause, args := test.filter.GetWhereClause()

			assert.Equal(t, test.wantClause, clause)
			assert.Equal(t, test.wantArgs, args)
		})
	}
}

func TestFilterGetWhereClauseIn(t *testing.T) {
	filter := dto.Filter{
		Field:    "status",
		Value:    []string{"PAID", "COMPLETED"},
		Operator: dto.FilterOperatorIn,
	}

	clause, args := filter.GetWhereClause()

	assert.Equal(t, "status IN (:status_0, :status_1) ", clause)
	assert.Equal(t, map[string]any{"status_0": "PAID", "status_1": "COMPLETED"}, args)
}

func TestFilterGroupGetWhereClause(t *testing.T) {
	group := dto.FilterGroup{
		Operator: dto.FilterGroupOperatorOr,
		Filters: []any{
			dto.Filter{Field: "status", ArgName: "status_confirmed", Value: []string{"PAID"}, Operator: dto.FilterOperatorIn},
			dto.FilterGroup{
				Operator: dto.FilterGroupOperatorAnd,
				Filters: []any{
					dto.Filter{Field: "status", ArgName: "status_pending", Value: "PENDING", Operator: dto.FilterOperatorEq},
					dto.Filter{Field: "created_at", ArgName: "pending_cutoff", Value: 10, Operator: dto.FilterOperatorGreater},
				},
			},
		},
	}

	clause, args := group.GetWhereClause()

	assert.Contains(t, clause, "status IN (:status_confirmed_0)")
	assert.Contains(t, clause, "status = :status_pending AND created_at > :pending_cutoff")
	assert.Contains(t, clause, " OR ")
	assert.Equal(t, map[string]any{
		"status_confirmed_0": "PAID",
		"status_pending":     "PENDING",
		"pending_cutoff":     10,
	}, args)
}
