package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"parking-system/internal/parking"
)

// Store keeps spots and tickets in process memory. It implements both
// parking.SpotStore and parking.TicketStore.
type Store struct {
	mu         sync.RWMutex
	spots      map[int]parking.ParkingSpot
	tickets    []parking.Ticket
	nextTicket int
}

func New() *Store {
	return &Store{
		spots:      make(map[int]parking.ParkingSpot),
		nextTicket: 1,
	}
}

func (s *Store) EnsureSpots(_ context.Context, spots []parking.ParkingSpot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, spot := range spots {
		if _, ok := s.spots[spot.ID]; !ok {
			s.spots[spot.ID] = spot
		}
	}
	return nil
}

func (s *Store) NextAvailableSpot(_ context.Context, parkingType parking.ParkingType) (int, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	best := 0
	for id, spot := range s.spots {
		if spot.Available && spot.ParkingType == parkingType && (best == 0 || id < best) {
			best = id
		}
	}
	return best, best > 0, nil
}

func (s *Store) GetSpot(_ context.Context, id int) (parking.ParkingSpot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	spot, ok := s.spots[id]
	if !ok {
		return parking.ParkingSpot{}, fmt.Errorf("%w: %d", parking.ErrSpotNotFound, id)
	}
	return spot, nil
}

func (s *Store) UpdateParking(_ context.Context, spot parking.ParkingSpot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.spots[spot.ID]
	if !ok {
		return fmt.Errorf("%w: %d", parking.ErrSpotNotFound, spot.ID)
	}
	if !spot.Available && !current.Available {
		return fmt.Errorf("%w: %d", parking.ErrSpotTaken, spot.ID)
	}
	current.Available = spot.Available
	s.spots[spot.ID] = current
	return nil
}

func (s *Store) ListSpots(_ context.Context) ([]parking.ParkingSpot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	spots := make([]parking.ParkingSpot, 0, len(s.spots))
	for _, spot := range s.spots {
		spots = append(spots, spot)
	}
	sort.Slice(spots, func(i, j int) bool {
		return spots[i].ID < spots[j].ID
	})
	return spots, nil
}

func (s *Store) SaveTicket(_ context.Context, ticket *parking.Ticket) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ticket.ID = s.nextTicket
	s.nextTicket++
	s.tickets = append(s.tickets, cloneTicket(*ticket))
	return nil
}

func (s *Store) UpdateTicket(_ context.Context, ticket *parking.Ticket) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.tickets {
		if s.tickets[i].ID == ticket.ID {
			s.tickets[i].OutTime = ticket.OutTime
			s.tickets[i].Price = ticket.Price
			s.tickets[i] = cloneTicket(s.tickets[i])
			return nil
		}
	}
	return fmt.Errorf("%w: %d", parking.ErrTicketNotFound, ticket.ID)
}

// GetOpenTicket returns the most recent ticket without an exit time.
func (s *Store) GetOpenTicket(_ context.Context, vehicleRegNumber string) (*parking.Ticket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := len(s.tickets) - 1; i >= 0; i-- {
		ticket := s.tickets[i]
		if ticket.VehicleRegNumber == vehicleRegNumber && !ticket.IsClosed() {
			ticket = cloneTicket(ticket)
			ticket.Spot = s.spots[ticket.Spot.ID]
			return &ticket, nil
		}
	}
	return nil, nil
}

func (s *Store) CountTickets(_ context.Context, vehicleRegNumber string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, ticket := range s.tickets {
		if ticket.VehicleRegNumber == vehicleRegNumber {
			count++
		}
	}
	return count, nil
}

func (s *Store) ListTickets(_ context.Context, vehicleRegNumber string) ([]parking.Ticket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var tickets []parking.Ticket
	for i := len(s.tickets) - 1; i >= 0; i-- {
		if s.tickets[i].VehicleRegNumber == vehicleRegNumber {
			tickets = append(tickets, cloneTicket(s.tickets[i]))
		}
	}
	return tickets, nil
}

func cloneTicket(t parking.Ticket) parking.Ticket {
	if t.OutTime != nil {
		out := *t.OutTime
		t.OutTime = &out
	}
	if t.Price != nil {
		price := *t.Price
		t.Price = &price
	}
	return t
}
