package parking

import "fmt"

type ParkingType string

const (
	ParkingTypeCar  ParkingType = "CAR"
	ParkingTypeBike ParkingType = "BIKE"
)

// ParseSelection maps the console menu code to a parking type.
func ParseSelection(selection int) (ParkingType, error) {
	switch selection {
	case 1:
		return ParkingTypeCar, nil
	case 2:
		return ParkingTypeBike, nil
	default:
		return "", fmt.Errorf("%w: %d", ErrInvalidCategorySelection, selection)
	}
}

type ParkingSpot struct {
	ID          int
	ParkingType ParkingType
	Available   bool
}

func NewParkingSpot(id int, parkingType ParkingType, available bool) ParkingSpot {
	return ParkingSpot{
		ID:          id,
		ParkingType: parkingType,
		Available:   available,
	}
}

func (s *ParkingSpot) Occupy() {
	s.Available = false
}

func (s *ParkingSpot) Release() {
	s.Available = true
}

// DefaultLayout numbers car spots first, then bike spots, starting at 1.
func DefaultLayout(carSpots, bikeSpots int) []ParkingSpot {
	spots := make([]ParkingSpot, 0, carSpots+bikeSpots)
	for i := 0; i < carSpots; i++ {
		spots = append(spots, NewParkingSpot(len(spots)+1, ParkingTypeCar, true))
	}
	for i := 0; i < bikeSpots; i++ {
		spots = append(spots, NewParkingSpot(len(spots)+1, ParkingTypeBike, true))
	}
	return spots
}
