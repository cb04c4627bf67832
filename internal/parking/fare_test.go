package parking

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeFare(t *testing.T) {
	inTime := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	at := func(d time.Duration) *time.Time {
		out := inTime.Add(d)
		return &out
	}

	tests := []struct {
		name        string
		outTime     *time.Time
		parkingType ParkingType
		discount    bool
		want        float64
	}{
		{"car one hour", at(time.Hour), ParkingTypeCar, false, 1.5},
		{"car one hour with discount", at(time.Hour), ParkingTypeCar, true, 1.425},
		{"bike one hour", at(time.Hour), ParkingTypeBike, false, 1.0},
		{"bike one hour with discount", at(time.Hour), ParkingTypeBike, true, 0.95},
		{"car forty five minutes", at(45 * time.Minute), ParkingTypeCar, false, 0.75 * CarRatePerHour},
		{"bike forty five minutes", at(45 * time.Minute), ParkingTypeBike, false, 0.75 * BikeRatePerHour},
		{"car one day", at(24 * time.Hour), ParkingTypeCar, false, 24 * CarRatePerHour},
		{"car fifteen minutes", at(15 * time.Minute), ParkingTypeCar, false, 0},
		{"car fifteen minutes with discount", at(15 * time.Minute), ParkingTypeCar, true, 0},
		{"bike fifteen minutes", at(15 * time.Minute), ParkingTypeBike, false, 0},
		{"bike fifteen minutes with discount", at(15 * time.Minute), ParkingTypeBike, true, 0},
		{"exactly thirty minutes is free", at(30 * time.Minute), ParkingTypeCar, false, 0},
		{"zero length stay", at(0), ParkingTypeBike, true, 0},
		{"thirty one minutes is charged", at(31 * time.Minute), ParkingTypeCar, false, 31.0 / 60 * CarRatePerHour},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ComputeFare(inTime, tt.outTime, tt.parkingType, tt.discount)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 0.01)
		})
	}
}

func TestComputeFareFreeFloorIsExactlyZero(t *testing.T) {
	inTime := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	outTime := inTime.Add(29*time.Minute + 59*time.Second)

	for _, parkingType := range []ParkingType{ParkingTypeCar, ParkingTypeBike} {
		for _, discount := range []bool{false, true} {
			got, err := ComputeFare(inTime, &outTime, parkingType, discount)
			require.NoError(t, err)
			assert.Zero(t, got)
		}
	}
}

func TestComputeFareInvalidInterval(t *testing.T) {
	inTime := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	before := inTime.Add(-time.Hour)

	_, err := ComputeFare(inTime, nil, ParkingTypeCar, false)
	assert.True(t, errors.Is(err, ErrInvalidInterval))
	assert.Contains(t, err.Error(), "missing")

	_, err = ComputeFare(inTime, &before, ParkingTypeCar, false)
	assert.True(t, errors.Is(err, ErrInvalidInterval))
	assert.Contains(t, err.Error(), before.Format(time.RFC3339))
}

func TestComputeFareUnknownCategory(t *testing.T) {
	inTime := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	outTime := inTime.Add(2 * time.Hour)

	_, err := ComputeFare(inTime, &outTime, ParkingType("TRUCK"), false)
	assert.ErrorIs(t, err, ErrUnknownCategory)
	assert.Contains(t, err.Error(), "TRUCK")

	_, err = ComputeFare(inTime, &outTime, "", true)
	assert.ErrorIs(t, err, ErrUnknownCategory)
}

func TestCalculateFareSetsPrice(t *testing.T) {
	inTime := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	ticket := NewTicket("ABCDEF", NewParkingSpot(1, ParkingTypeCar, false), inTime)

	err := CalculateFare(ticket, false)
	assert.ErrorIs(t, err, ErrInvalidInterval)
	assert.Nil(t, ticket.Price)

	ticket.Close(inTime.Add(2 * time.Hour))
	require.NoError(t, CalculateFare(ticket, true))
	require.NotNil(t, ticket.Price)
	assert.InDelta(t, 2*CarRatePerHour*LoyaltyDiscount, *ticket.Price, 0.01)
}
