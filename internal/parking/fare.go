package parking

import (
	"fmt"
	"time"
)

const (
	CarRatePerHour  = 1.5
	BikeRatePerHour = 1.0

	// FreeParkingHours is the longest stay charged nothing.
	FreeParkingHours = 0.5
	LoyaltyDiscount  = 0.95
)

func RatePerHour(parkingType ParkingType) (float64, error) {
	switch parkingType {
	case ParkingTypeCar:
		return CarRatePerHour, nil
	case ParkingTypeBike:
		return BikeRatePerHour, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownCategory, parkingType)
	}
}

// ComputeFare prices a stay from inTime to outTime. Stays of half an hour or
// less are free. The loyalty discount applies after the hourly rate.
func ComputeFare(inTime time.Time, outTime *time.Time, parkingType ParkingType, discount bool) (float64, error) {
	if outTime == nil {
		return 0, fmt.Errorf("%w: out time is missing", ErrInvalidInterval)
	}
	if outTime.Before(inTime) {
		return 0, fmt.Errorf("%w: out time %s is before in time %s",
			ErrInvalidInterval, outTime.Format(time.RFC3339), inTime.Format(time.RFC3339))
	}

	durationInHours := outTime.Sub(inTime).Hours()
	if durationInHours <= FreeParkingHours {
		return 0, nil
	}

	rate, err := RatePerHour(parkingType)
	if err != nil {
		return 0, err
	}

	fare := durationInHours * rate
	if discount {
		fare *= LoyaltyDiscount
	}
	return fare, nil
}

// CalculateFare sets the ticket price from its interval and spot type.
func CalculateFare(ticket *Ticket, discount bool) error {
	fare, err := ComputeFare(ticket.InTime, ticket.OutTime, ticket.Spot.ParkingType, discount)
	if err != nil {
		return err
	}
	ticket.Price = &fare
	return nil
}
