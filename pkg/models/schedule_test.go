package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchedule_Validate(t *testing.T) {
	tests := []struct {
		name    string
		s       Schedule
		wantErr bool
	}{
		{
			"perpetual needs no window",
			Schedule{IsPerpetual: true},
			false,
		},
		{
			"valid window",
			Schedule{ActivationTime: "09:00", DeactivationTime: "18:00", ActiveDays: []string{"mon", "fri"}},
			false,
		},
		{
			"activation after deactivation",
			Schedule{ActivationTime: "18:00", DeactivationTime: "09:00"},
			true,
		},
		{
			"activation equals deactivation",
			Schedule{ActivationTime: "09:00", DeactivationTime: "09:00"},
			true,
		},
		{
			"unknown weekday",
			Schedule{ActivationTime: "09:00", DeactivationTime: "18:00", ActiveDays: []string{"monday"}},
			true,
		},
		{
			"bad timezone",
			Schedule{Timezone: "Nowhere/Town", IsPerpetual: true},
			true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.s.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidSchedule)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestParseClock(t *testing.T) {
	minutes, err := ParseClock("09:30")
	require.NoError(t, err)
	assert.Equal(t, 9*60+30, minutes)

	_, err = ParseClock("25:00")
	assert.Error(t, err)
}
