package parking

import "time"

type Ticket struct {
	ID               int
	VehicleRegNumber string
	Spot             ParkingSpot
	InTime           time.Time
	OutTime          *time.Time
	Price            *float64
}

func NewTicket(vehicleRegNumber string, spot ParkingSpot, inTime time.Time) *Ticket {
	return &Ticket{
		VehicleRegNumber: vehicleRegNumber,
		Spot:             spot,
		InTime:           inTime,
	}
}

func (t *Ticket) IsClosed() bool {
	return t.OutTime != nil
}

// Close records the exit time. The price is set separately by CalculateFare.
func (t *Ticket) Close(outTime time.Time) {
	t.OutTime = &outTime
}
