package parking

import "context"

// SpotStore is the allocation store for parking spots.
type SpotStore interface {
	// NextAvailableSpot returns the lowest-numbered free spot of the given
	// type. ok is false when the lot is full for that type.
	NextAvailableSpot(ctx context.Context, parkingType ParkingType) (id int, ok bool, err error)
	GetSpot(ctx context.Context, id int) (ParkingSpot, error)
	// UpdateParking sets the availability of a spot. Marking an already
	// occupied spot unavailable fails with ErrSpotTaken.
	UpdateParking(ctx context.Context, spot ParkingSpot) error
	ListSpots(ctx context.Context) ([]ParkingSpot, error)
	EnsureSpots(ctx context.Context, spots []ParkingSpot) error
}

type TicketStore interface {
	// GetOpenTicket returns nil without error when the vehicle has no open ticket.
	GetOpenTicket(ctx context.Context, vehicleRegNumber string) (*Ticket, error)
	SaveTicket(ctx context.Context, ticket *Ticket) error
	UpdateTicket(ctx context.Context, ticket *Ticket) error
	CountTickets(ctx context.Context, vehicleRegNumber string) (int, error)
	ListTickets(ctx context.Context, vehicleRegNumber string) ([]Ticket, error)
}

type InputReader interface {
	ReadSelection() (int, error)
	ReadVehicleRegistrationNumber() (string, error)
}

// TicketEvents receives ticket lifecycle notifications.
type TicketEvents interface {
	TicketOpened(ctx context.Context, ticket Ticket) error
	TicketClosed(ctx context.Context, ticket Ticket) error
}
