package validator_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"kbox/shared/failure"
	"kbox/shared/validator"
)

type bookingPayload struct {
	RoomNumber string `json:"room_number" validate:"required"`
	TimeSlot   string `json:"time_slot"   validate:"required,timeslot"`
	People     int    `json:"people"      validate:"required,min=1"`
	Email      string `json:"email"       validate:"omitempty,email"`
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{
			name: "valid payload",
			body: `{"room_number":"S101","time_slot":"12:00-14:00","people":4}`,
		},
		{
			name:    "malformed json",
			body:    `{"room_number":`,
			wantErr: true,
		},
		{
			name:    "missing room number",
			body:    `{"time_slot":"12:00-14:00","people":4}`,
			wantErr: true,
		},
		{
			name:    "bad slot format",
			body:    `{"room_number":"S101","time_slot":"noon-ish","people":4}`,
			wantErr: true,
		},
		{
			name:    "zero people",
			body:    `{"room_number":"S101","time_slot":"12:00-14:00","people":0}`,
			wantErr: true,
		},
		{
			name:    "bad email",
			body:    `{"room_number":"S101","time_slot":"12:00-14:00","people":2,"email":"not-an-email"}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var payload bookingPayload

			err := validator.Validate(strings.NewReader(tt.body), &payload)
			if tt.wantErr {
				assert.Error(t, err)
				assert.True(t, failure.IsKind(err, failure.KindValidation))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateVar(t *testing.T) {
	assert.NoError(t, validator.ValidateVar("18:00-20:00", "timeslot"))
	assert.Error(t, validator.ValidateVar("18:00", "timeslot"))
}
