package parking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSelection(t *testing.T) {
	parkingType, err := ParseSelection(1)
	require.NoError(t, err)
	assert.Equal(t, ParkingTypeCar, parkingType)

	parkingType, err = ParseSelection(2)
	require.NoError(t, err)
	assert.Equal(t, ParkingTypeBike, parkingType)

	for _, selection := range []int{-1, 0, 3, 42} {
		_, err := ParseSelection(selection)
		assert.ErrorIs(t, err, ErrInvalidCategorySelection)
	}
}

func TestSpotOccupyAndRelease(t *testing.T) {
	spot := NewParkingSpot(1, ParkingTypeCar, true)

	spot.Occupy()
	assert.False(t, spot.Available)

	spot.Release()
	assert.True(t, spot.Available)
}

func TestDefaultLayout(t *testing.T) {
	spots := DefaultLayout(3, 2)
	require.Len(t, spots, 5)

	for i, spot := range spots {
		assert.Equal(t, i+1, spot.ID)
		assert.True(t, spot.Available)
	}
	assert.Equal(t, ParkingTypeCar, spots[2].ParkingType)
	assert.Equal(t, ParkingTypeBike, spots[3].ParkingType)
	assert.Empty(t, DefaultLayout(0, 0))
}
