package parking

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

type testTelemetry struct {
	provider *TelemetryProvider
	spans    *tracetest.SpanRecorder
	reader   *sdkmetric.ManualReader
}

func newTestTelemetry(t *testing.T) *testTelemetry {
	t.Helper()

	spans := tracetest.NewSpanRecorder()
	reader := sdkmetric.NewManualReader()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spans))
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	provider := NewTelemetryProviderWith("parking-test", tp, mp)
	t.Cleanup(func() {
		assert.NoError(t, provider.Shutdown(context.Background()))
	})

	return &testTelemetry{provider: provider, spans: spans, reader: reader}
}

func (tt *testTelemetry) spanNames() []string {
	var names []string
	for _, span := range tt.spans.Ended() {
		names = append(names, span.Name())
	}
	return names
}

// counterValue sums the data points of a counter matching status.
func (tt *testTelemetry) counterValue(t *testing.T, name, status string) float64 {
	t.Helper()

	var rm metricdata.ResourceMetrics
	require.NoError(t, tt.reader.Collect(context.Background(), &rm))

	var total float64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			switch data := m.Data.(type) {
			case metricdata.Sum[int64]:
				for _, dp := range data.DataPoints {
					if matchesStatus(dp.Attributes, status) {
						total += float64(dp.Value)
					}
				}
			case metricdata.Sum[float64]:
				for _, dp := range data.DataPoints {
					if matchesStatus(dp.Attributes, status) {
						total += dp.Value
					}
				}
			}
		}
	}
	return total
}

func matchesStatus(attrs attribute.Set, status string) bool {
	if status == "" {
		return true
	}
	v, ok := attrs.Value("status")
	return ok && v.AsString() == status
}

func TestInstrumentedParkingServiceIncoming(t *testing.T) {
	tel := newTestTelemetry(t)
	metrics, err := NewServiceMetrics(tel.provider.Meter())
	require.NoError(t, err)

	f := newFixture()
	events := &mockTicketEvents{}
	ctx := mock.Anything

	f.spots.On("NextAvailableSpot", ctx, ParkingTypeCar).Return(1, true, nil).Once()
	f.spots.On("UpdateParking", ctx, mock.Anything).Return(nil).Once()
	f.tickets.On("SaveTicket", ctx, mock.Anything).Return(nil).Once()
	events.On("TicketOpened", ctx, mock.MatchedBy(func(ticket Ticket) bool {
		return ticket.VehicleRegNumber == "ABCDEF"
	})).Return(nil).Once()

	svc := NewInstrumentedParkingService(
		f.service(StaticInput{Selection: 1, VehicleRegNumber: "ABCDEF"}),
		tel.provider, metrics, events,
	)

	ticket, err := svc.ProcessIncomingVehicle(context.Background())
	require.NoError(t, err)
	require.NotNil(t, ticket)

	assert.Contains(t, tel.spanNames(), "parking_service.process_incoming")
	assert.Equal(t, 1.0, tel.counterValue(t, "parking_entries_total", "success"))
	assert.Equal(t, 1.0, tel.counterValue(t, "parking_lot_occupancy", ""))
	events.AssertExpectations(t)
}

func TestInstrumentedParkingServiceLotFull(t *testing.T) {
	tel := newTestTelemetry(t)
	metrics, err := NewServiceMetrics(tel.provider.Meter())
	require.NoError(t, err)

	f := newFixture()
	events := &mockTicketEvents{}
	f.spots.On("NextAvailableSpot", mock.Anything, ParkingTypeBike).Return(0, false, nil).Once()

	svc := NewInstrumentedParkingService(
		f.service(StaticInput{Selection: 2, VehicleRegNumber: "BIKE01"}),
		tel.provider, metrics, events,
	)

	ticket, err := svc.ProcessIncomingVehicle(context.Background())
	require.NoError(t, err)
	assert.Nil(t, ticket)

	assert.Equal(t, 1.0, tel.counterValue(t, "parking_entries_total", "lot_full"))
	events.AssertNotCalled(t, "TicketOpened", mock.Anything, mock.Anything)
}

func TestInstrumentedParkingServiceExiting(t *testing.T) {
	tel := newTestTelemetry(t)
	metrics, err := NewServiceMetrics(tel.provider.Meter())
	require.NoError(t, err)

	f := newFixture()
	events := &mockTicketEvents{}
	ticket := openTicket(NewParkingSpot(1, ParkingTypeCar, false), 2*time.Hour)

	f.tickets.On("GetOpenTicket", mock.Anything, "ABCDEF").Return(ticket, nil).Once()
	f.tickets.On("CountTickets", mock.Anything, "ABCDEF").Return(1, nil).Once()
	f.tickets.On("UpdateTicket", mock.Anything, ticket).Return(nil).Once()
	f.spots.On("UpdateParking", mock.Anything, mock.Anything).Return(nil).Once()
	events.On("TicketClosed", mock.Anything, mock.Anything).Return(errors.New("broker down")).Once()

	svc := NewInstrumentedParkingService(
		f.service(StaticInput{VehicleRegNumber: "ABCDEF"}),
		tel.provider, metrics, events,
	)

	closed, err := svc.ProcessExitingVehicle(context.Background())
	require.NoError(t, err, "event publishing failures do not fail the exit")
	assert.InDelta(t, 3.0, *closed.Price, 0.01)

	assert.Contains(t, tel.spanNames(), "parking_service.process_exiting")
	assert.Equal(t, 1.0, tel.counterValue(t, "parking_exits_total", "success"))
	assert.InDelta(t, 3.0, tel.counterValue(t, "parking_revenue_total", ""), 0.01)
	events.AssertExpectations(t)
}

func TestInstrumentedParkingServiceExitingFailure(t *testing.T) {
	tel := newTestTelemetry(t)
	metrics, err := NewServiceMetrics(tel.provider.Meter())
	require.NoError(t, err)

	f := newFixture()
	f.tickets.On("GetOpenTicket", mock.Anything, "NOPE").Return(nil, nil).Once()

	svc := NewInstrumentedParkingService(
		f.service(StaticInput{VehicleRegNumber: "NOPE"}),
		tel.provider, metrics, nil,
	)

	_, err = svc.ProcessExitingVehicle(context.Background())
	assert.ErrorIs(t, err, ErrNoOpenTicket)
	assert.Equal(t, 1.0, tel.counterValue(t, "parking_exits_total", "failed"))

	ended := tel.spans.Ended()
	require.NotEmpty(t, ended)
	assert.NotEmpty(t, ended[len(ended)-1].Events())
}

func TestInstrumentedParkingServiceOccupancyTracksRelease(t *testing.T) {
	tel := newTestTelemetry(t)
	metrics, err := NewServiceMetrics(tel.provider.Meter())
	require.NoError(t, err)

	f := newFixture()
	f.spots.On("NextAvailableSpot", mock.Anything, ParkingTypeCar).Return(1, true, nil).Once()
	f.spots.On("UpdateParking", mock.Anything, NewParkingSpot(1, ParkingTypeCar, false)).Return(nil).Once()
	f.tickets.On("SaveTicket", mock.Anything, mock.Anything).Return(nil).Once()

	entry := NewInstrumentedParkingService(
		f.service(StaticInput{Selection: 1, VehicleRegNumber: "ABCDEF"}),
		tel.provider, metrics, nil,
	)
	_, err = entry.ProcessIncomingVehicle(context.Background())
	require.NoError(t, err)

	ticket := openTicket(NewParkingSpot(1, ParkingTypeCar, false), time.Hour)
	f.tickets.On("GetOpenTicket", mock.Anything, "ABCDEF").Return(ticket, nil).Once()
	f.tickets.On("CountTickets", mock.Anything, "ABCDEF").Return(1, nil).Once()
	f.tickets.On("UpdateTicket", mock.Anything, ticket).Return(nil).Once()
	f.spots.On("UpdateParking", mock.Anything, NewParkingSpot(1, ParkingTypeCar, true)).Return(errors.New("connection reset")).Once()

	exit := NewInstrumentedParkingService(
		f.service(StaticInput{VehicleRegNumber: "ABCDEF"}),
		tel.provider, metrics, nil,
	)
	closed, err := exit.ProcessExitingVehicle(context.Background())
	require.NoError(t, err)
	assert.False(t, closed.Spot.Available)

	assert.Equal(t, 1.0, tel.counterValue(t, "parking_lot_occupancy", ""), "spot is still occupied")
}
