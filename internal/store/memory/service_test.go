package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parking-system/internal/parking"
)

func TestParkingACarThenExit(t *testing.T) {
	ctx := context.Background()
	s := newSeededStore(t)
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	input := parking.StaticInput{Selection: 1, VehicleRegNumber: "ABCDEF"}

	svc := parking.NewParkingService(input, s, s, parking.WithClock(clock))

	ticket, err := svc.ProcessIncomingVehicle(ctx)
	require.NoError(t, err)
	require.NotNil(t, ticket)

	spot, err := s.GetSpot(ctx, ticket.Spot.ID)
	require.NoError(t, err)
	assert.False(t, spot.Available, "the parking spot should be marked as occupied")

	now = now.Add(time.Hour)
	closed, err := svc.ProcessExitingVehicle(ctx)
	require.NoError(t, err)
	assert.InDelta(t, parking.CarRatePerHour, *closed.Price, 0.01)

	spot, err = s.GetSpot(ctx, ticket.Spot.ID)
	require.NoError(t, err)
	assert.True(t, spot.Available, "the parking spot should be released")
}

func TestParkingLotExitRecurringUser(t *testing.T) {
	ctx := context.Background()
	s := newSeededStore(t)
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	svc := parking.NewParkingService(parking.StaticInput{Selection: 1, VehicleRegNumber: "ABCDEF"}, s, s, parking.WithClock(clock))

	for visit := 0; visit < 2; visit++ {
		_, err := svc.ProcessIncomingVehicle(ctx)
		require.NoError(t, err)
		now = now.Add(time.Hour)

		closed, err := svc.ProcessExitingVehicle(ctx)
		require.NoError(t, err)

		if visit == 0 {
			assert.InDelta(t, parking.CarRatePerHour, *closed.Price, 0.01)
		} else {
			assert.InDelta(t, parking.CarRatePerHour*0.95, *closed.Price, 0.01)
		}
		now = now.Add(time.Hour)
	}

	count, err := s.CountTickets(ctx, "ABCDEF")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestConcurrentEntriesNeverShareASpot(t *testing.T) {
	ctx := context.Background()
	s := newSeededStore(t)
	var allocation sync.Mutex

	const vehicles = 20
	var wg sync.WaitGroup
	results := make(chan *parking.Ticket, vehicles)

	for i := 0; i < vehicles; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			input := parking.StaticInput{Selection: 1, VehicleRegNumber: string(rune('A'+i)) + "-CAR"}
			svc := parking.NewParkingService(input, s, s, parking.WithAllocationLock(&allocation))
			ticket, err := svc.ProcessIncomingVehicle(ctx)
			assert.NoError(t, err)
			if ticket != nil {
				results <- ticket
			}
		}(i)
	}
	wg.Wait()
	close(results)

	seen := make(map[int]bool)
	for ticket := range results {
		assert.False(t, seen[ticket.Spot.ID], "spot %d assigned twice", ticket.Spot.ID)
		seen[ticket.Spot.ID] = true
	}
	assert.Len(t, seen, 3)
}

// slowConsole answers the selection at once and waits for release before
// returning the registration number, like an operator still typing.
type slowConsole struct {
	selection int
	reading   chan struct{}
	release   chan struct{}
}

func newSlowConsole(selection int) *slowConsole {
	return &slowConsole{
		selection: selection,
		reading:   make(chan struct{}),
		release:   make(chan struct{}),
	}
}

func (c *slowConsole) ReadSelection() (int, error) {
	return c.selection, nil
}

func (c *slowConsole) ReadVehicleRegistrationNumber() (string, error) {
	close(c.reading)
	<-c.release
	return "CONSOLE", nil
}

func TestEntryDoesNotWaitForSlowConsole(t *testing.T) {
	ctx := context.Background()
	s := newSeededStore(t)
	var allocation sync.Mutex

	for _, selection := range []int{1, 2} {
		console := newSlowConsole(1)
		consoleDone := make(chan *parking.Ticket, 1)
		go func() {
			svc := parking.NewParkingService(console, s, s, parking.WithAllocationLock(&allocation))
			ticket, err := svc.ProcessIncomingVehicle(ctx)
			assert.NoError(t, err)
			consoleDone <- ticket
		}()
		<-console.reading

		apiDone := make(chan *parking.Ticket, 1)
		go func() {
			input := parking.StaticInput{Selection: selection, VehicleRegNumber: "API"}
			svc := parking.NewParkingService(input, s, s, parking.WithAllocationLock(&allocation))
			ticket, err := svc.ProcessIncomingVehicle(ctx)
			assert.NoError(t, err)
			apiDone <- ticket
		}()

		var apiTicket *parking.Ticket
		select {
		case apiTicket = <-apiDone:
		case <-time.After(2 * time.Second):
			close(console.release)
			t.Fatalf("entry with selection %d blocked behind the console", selection)
		}

		close(console.release)
		consoleTicket := <-consoleDone

		require.NotNil(t, apiTicket)
		require.NotNil(t, consoleTicket)
		assert.NotEqual(t, apiTicket.Spot.ID, consoleTicket.Spot.ID)
	}

	spots, err := s.ListSpots(ctx)
	require.NoError(t, err)
	occupied := 0
	for _, spot := range spots {
		if !spot.Available {
			occupied++
		}
	}
	assert.Equal(t, 4, occupied)
}
