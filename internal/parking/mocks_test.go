package parking

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type mockSpotStore struct {
	mock.Mock
}

func (m *mockSpotStore) NextAvailableSpot(ctx context.Context, parkingType ParkingType) (int, bool, error) {
	args := m.Called(ctx, parkingType)
	return args.Int(0), args.Bool(1), args.Error(2)
}

func (m *mockSpotStore) GetSpot(ctx context.Context, id int) (ParkingSpot, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(ParkingSpot), args.Error(1)
}

func (m *mockSpotStore) UpdateParking(ctx context.Context, spot ParkingSpot) error {
	args := m.Called(ctx, spot)
	return args.Error(0)
}

func (m *mockSpotStore) ListSpots(ctx context.Context) ([]ParkingSpot, error) {
	args := m.Called(ctx)
	return args.Get(0).([]ParkingSpot), args.Error(1)
}

func (m *mockSpotStore) EnsureSpots(ctx context.Context, spots []ParkingSpot) error {
	args := m.Called(ctx, spots)
	return args.Error(0)
}

type mockTicketStore struct {
	mock.Mock
}

func (m *mockTicketStore) GetOpenTicket(ctx context.Context, vehicleRegNumber string) (*Ticket, error) {
	args := m.Called(ctx, vehicleRegNumber)
	ticket, _ := args.Get(0).(*Ticket)
	return ticket, args.Error(1)
}

func (m *mockTicketStore) SaveTicket(ctx context.Context, ticket *Ticket) error {
	args := m.Called(ctx, ticket)
	return args.Error(0)
}

func (m *mockTicketStore) UpdateTicket(ctx context.Context, ticket *Ticket) error {
	args := m.Called(ctx, ticket)
	return args.Error(0)
}

func (m *mockTicketStore) CountTickets(ctx context.Context, vehicleRegNumber string) (int, error) {
	args := m.Called(ctx, vehicleRegNumber)
	return args.Int(0), args.Error(1)
}

func (m *mockTicketStore) ListTickets(ctx context.Context, vehicleRegNumber string) ([]Ticket, error) {
	args := m.Called(ctx, vehicleRegNumber)
	return args.Get(0).([]Ticket), args.Error(1)
}

type mockTicketEvents struct {
	mock.Mock
}

func (m *mockTicketEvents) TicketOpened(ctx context.Context, ticket Ticket) error {
	args := m.Called(ctx, ticket)
	return args.Error(0)
}

func (m *mockTicketEvents) TicketClosed(ctx context.Context, ticket Ticket) error {
	args := m.Called(ctx, ticket)
	return args.Error(0)
}
