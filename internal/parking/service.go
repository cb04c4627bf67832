package parking

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"parking-system/internal/logging"
)

// maxClaimAttempts bounds how often an entry moves on to another spot after
// losing it to a concurrent entry.
const maxClaimAttempts = 8

type Option func(*ParkingService)

func WithClock(now func() time.Time) Option {
	return func(s *ParkingService) {
		s.now = now
	}
}

// WithStrictEntry aborts an entry when the spot cannot be marked occupied
// instead of issuing the ticket anyway.
func WithStrictEntry(strict bool) Option {
	return func(s *ParkingService) {
		s.strictEntry = strict
	}
}

// WithAllocationLock shares the lock guarding spot allocation between
// services built over the same stores.
func WithAllocationLock(lock sync.Locker) Option {
	return func(s *ParkingService) {
		s.allocation = lock
	}
}

type ParkingService struct {
	input       InputReader
	spots       SpotStore
	tickets     TicketStore
	now         func() time.Time
	strictEntry bool
	allocation  sync.Locker
}

func NewParkingService(input InputReader, spots SpotStore, tickets TicketStore, opts ...Option) *ParkingService {
	s := &ParkingService{
		input:      input,
		spots:      spots,
		tickets:    tickets,
		now:        time.Now,
		allocation: &sync.Mutex{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *ParkingService) VehicleType() (ParkingType, error) {
	selection, err := s.input.ReadSelection()
	if err != nil {
		return "", err
	}
	return ParseSelection(selection)
}

// NextParkingNumberIfAvailable returns nil when no spot of the requested
// type is free.
func (s *ParkingService) NextParkingNumberIfAvailable(ctx context.Context) (*ParkingSpot, error) {
	parkingType, err := s.VehicleType()
	if err != nil {
		return nil, err
	}

	id, ok, err := s.spots.NextAvailableSpot(ctx, parkingType)
	if err != nil {
		return nil, err
	}
	if !ok || id <= 0 {
		logging.Info(ctx, "no parking spot available", "parking_type", parkingType)
		return nil, nil
	}

	spot := NewParkingSpot(id, parkingType, true)
	return &spot, nil
}

// ProcessIncomingVehicle allocates a spot and opens a ticket. A full lot
// yields a nil ticket and a nil error. The registration is read before the
// allocation lock is taken so a slow reader never stalls other entries.
func (s *ParkingService) ProcessIncomingVehicle(ctx context.Context) (*Ticket, error) {
	candidate, err := s.NextParkingNumberIfAvailable(ctx)
	if err != nil || candidate == nil {
		return nil, err
	}

	vehicleRegNumber, err := s.input.ReadVehicleRegistrationNumber()
	if err != nil {
		return nil, err
	}

	s.allocation.Lock()
	spot, err := s.claim(ctx, *candidate)
	s.allocation.Unlock()
	if err != nil || spot == nil {
		return nil, err
	}

	ticket := NewTicket(vehicleRegNumber, *spot, s.now())
	if err := s.tickets.SaveTicket(ctx, ticket); err != nil {
		if s.strictEntry {
			s.releaseUnticketed(ctx, *spot)
		}
		return nil, fmt.Errorf("save ticket for %s: %w", vehicleRegNumber, err)
	}

	logging.Info(ctx, "vehicle entered",
		"vehicle", vehicleRegNumber,
		"spot", spot.ID,
		"in_time", ticket.InTime,
	)
	return ticket, nil
}

// claim marks candidate occupied, moving on to the next free spot of the
// same type whenever another entry took it first. A nil spot means the lot
// filled up meanwhile.
func (s *ParkingService) claim(ctx context.Context, candidate ParkingSpot) (*ParkingSpot, error) {
	spot := candidate
	for attempt := 1; attempt <= maxClaimAttempts; attempt++ {
		spot.Occupy()
		err := s.spots.UpdateParking(ctx, spot)
		switch {
		case err == nil:
			return &spot, nil
		case errors.Is(err, ErrSpotTaken):
			logging.Debug(ctx, "parking spot taken before it could be claimed",
				"spot", spot.ID,
				"attempt", attempt,
			)
			id, ok, err := s.spots.NextAvailableSpot(ctx, spot.ParkingType)
			if err != nil {
				return nil, err
			}
			if !ok || id <= 0 {
				logging.Info(ctx, "no parking spot available", "parking_type", spot.ParkingType)
				return nil, nil
			}
			spot = NewParkingSpot(id, spot.ParkingType, true)
		case s.strictEntry:
			return nil, fmt.Errorf("%w %d: %w", ErrSpotUpdateFailed, spot.ID, err)
		default:
			logging.Warn(ctx, "unable to mark parking spot occupied, issuing ticket anyway",
				"spot", spot.ID,
				"error", err,
			)
			return &spot, nil
		}
	}
	return nil, fmt.Errorf("%w: gave up after %d contended attempts", ErrSpotUpdateFailed, maxClaimAttempts)
}

func (s *ParkingService) releaseUnticketed(ctx context.Context, spot ParkingSpot) {
	spot.Release()
	if err := s.spots.UpdateParking(ctx, spot); err != nil {
		logging.Error(ctx, "unable to release parking spot after failed ticket save",
			"spot", spot.ID,
			"error", err,
		)
	}
}

// ProcessExitingVehicle closes and prices the open ticket of the vehicle,
// then frees its spot. The spot is only freed once the ticket update succeeds,
// and the returned ticket's spot stays unavailable when freeing it failed.
func (s *ParkingService) ProcessExitingVehicle(ctx context.Context) (*Ticket, error) {
	vehicleRegNumber, err := s.input.ReadVehicleRegistrationNumber()
	if err != nil {
		return nil, err
	}

	ticket, err := s.tickets.GetOpenTicket(ctx, vehicleRegNumber)
	if err != nil {
		return nil, err
	}
	if ticket == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoOpenTicket, vehicleRegNumber)
	}

	count, err := s.tickets.CountTickets(ctx, vehicleRegNumber)
	if err != nil {
		return nil, err
	}
	discount := count > 1

	ticket.Close(s.now())
	if err := CalculateFare(ticket, discount); err != nil {
		return nil, err
	}

	if err := s.tickets.UpdateTicket(ctx, ticket); err != nil {
		logging.Error(ctx, "unable to update ticket information",
			"vehicle", vehicleRegNumber,
			"ticket", ticket.ID,
			"error", err,
		)
		return nil, fmt.Errorf("%w for %s: %w", ErrTicketNotClosed, vehicleRegNumber, err)
	}

	ticket.Spot.Release()
	if err := s.spots.UpdateParking(ctx, ticket.Spot); err != nil {
		ticket.Spot.Occupy()
		logging.Error(ctx, "unable to release parking spot",
			"spot", ticket.Spot.ID,
			"error", errors.Join(ErrSpotUpdateFailed, err),
		)
	}

	logging.Info(ctx, "vehicle exited",
		"vehicle", vehicleRegNumber,
		"spot", ticket.Spot.ID,
		"price", *ticket.Price,
		"discount", discount,
	)
	return ticket, nil
}
