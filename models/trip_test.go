package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTripStatus_Committed(t *testing.T) {
	assert.True(t, TripPending.Committed())
	assert.True(t, TripActive.Committed())
	assert.False(t, TripCompleted.Committed())
}

func TestTrip_ValidateTransition(t *testing.T) {
	tests := []struct {
		from    TripStatus
		to      TripStatus
		wantErr bool
	}{
		{TripActive, TripCompleted, false},
		{TripActive, TripPending, true},
		{TripPending, TripCompleted, true},
		{TripPending, TripActive, true},
		{TripCompleted, TripActive, true},
	}

	for _, tt := range tests {
		trip := &Trip{Status: tt.from}
		err := trip.ValidateTransition(tt.to)
		if tt.wantErr {
			assert.Error(t, err, "%s -> %s", tt.from, tt.to)
		} else {
			assert.NoError(t, err, "%s -> %s", tt.from, tt.to)
		}
	}
}
