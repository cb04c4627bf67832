package parking

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"parking-system/internal/logging"
)

type ServiceMetrics struct {
	entries           metric.Int64Counter
	exits             metric.Int64Counter
	revenue           metric.Float64Counter
	occupancy         metric.Int64UpDownCounter
	operationDuration metric.Float64Histogram
}

func NewServiceMetrics(meter metric.Meter) (*ServiceMetrics, error) {
	entries, err := meter.Int64Counter("parking_entries_total",
		metric.WithDescription("Total number of vehicle entries"),
		metric.WithUnit("1"))
	if err != nil {
		return nil, err
	}

	exits, err := meter.Int64Counter("parking_exits_total",
		metric.WithDescription("Total number of vehicle exits"),
		metric.WithUnit("1"))
	if err != nil {
		return nil, err
	}

	revenue, err := meter.Float64Counter("parking_revenue_total",
		metric.WithDescription("Sum of fares charged on exit"),
		metric.WithUnit("1"))
	if err != nil {
		return nil, err
	}

	occupancy, err := meter.Int64UpDownCounter("parking_lot_occupancy",
		metric.WithDescription("Current number of occupied parking spots"),
		metric.WithUnit("1"))
	if err != nil {
		return nil, err
	}

	operationDuration, err := meter.Float64Histogram("operation_duration_seconds",
		metric.WithDescription("Duration of parking service operations"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}

	return &ServiceMetrics{
		entries:           entries,
		exits:             exits,
		revenue:           revenue,
		occupancy:         occupancy,
		operationDuration: operationDuration,
	}, nil
}

type InstrumentedParkingService struct {
	*ParkingService
	telemetry *TelemetryProvider
	metrics   *ServiceMetrics
	events    TicketEvents
}

// NewInstrumentedParkingService traces and meters svc. events may be nil.
func NewInstrumentedParkingService(svc *ParkingService, telemetry *TelemetryProvider, metrics *ServiceMetrics, events TicketEvents) *InstrumentedParkingService {
	return &InstrumentedParkingService{
		ParkingService: svc,
		telemetry:      telemetry,
		metrics:        metrics,
		events:         events,
	}
}

func (ips *InstrumentedParkingService) ProcessIncomingVehicle(ctx context.Context) (*Ticket, error) {
	ctx, span := ips.telemetry.Tracer().Start(ctx, "parking_service.process_incoming")
	defer span.End()

	start := time.Now()
	span.AddEvent("allocating_spot")

	ticket, err := ips.ParkingService.ProcessIncomingVehicle(ctx)

	duration := time.Since(start).Seconds()
	labels := []attribute.KeyValue{
		attribute.String("operation", "incoming"),
	}

	switch {
	case err != nil:
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		labels = append(labels, attribute.String("status", "failed"))
	case ticket == nil:
		span.AddEvent("lot_full")
		labels = append(labels, attribute.String("status", "lot_full"))
	default:
		labels = append(labels,
			attribute.String("status", "success"),
			attribute.String("parking_type", string(ticket.Spot.ParkingType)),
		)
		span.SetAttributes(
			attribute.String("vehicle.registration_number", ticket.VehicleRegNumber),
			attribute.Int("parking_spot.id", ticket.Spot.ID),
			attribute.Int("ticket.id", ticket.ID),
		)
		span.AddEvent("ticket_opened")
		ips.metrics.occupancy.Add(ctx, 1, metric.WithAttributes(
			attribute.String("parking_type", string(ticket.Spot.ParkingType)),
		))
		if ips.events != nil {
			ips.eventFailed(ctx, ticket, ips.events.TicketOpened(ctx, *ticket))
		}
	}

	ips.metrics.entries.Add(ctx, 1, metric.WithAttributes(labels...))
	ips.metrics.operationDuration.Record(ctx, duration, metric.WithAttributes(labels...))

	return ticket, err
}

func (ips *InstrumentedParkingService) ProcessExitingVehicle(ctx context.Context) (*Ticket, error) {
	ctx, span := ips.telemetry.Tracer().Start(ctx, "parking_service.process_exiting")
	defer span.End()

	start := time.Now()
	span.AddEvent("closing_ticket")

	ticket, err := ips.ParkingService.ProcessExitingVehicle(ctx)

	duration := time.Since(start).Seconds()
	labels := []attribute.KeyValue{
		attribute.String("operation", "exiting"),
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		labels = append(labels, attribute.String("status", "failed"))
	} else {
		parkingType := attribute.String("parking_type", string(ticket.Spot.ParkingType))
		labels = append(labels, attribute.String("status", "success"), parkingType)
		span.SetAttributes(
			attribute.String("vehicle.registration_number", ticket.VehicleRegNumber),
			attribute.Int("parking_spot.id", ticket.Spot.ID),
			attribute.Int("ticket.id", ticket.ID),
			attribute.Float64("ticket.price", *ticket.Price),
		)
		span.AddEvent("ticket_closed", trace.WithAttributes(
			attribute.Float64("price", *ticket.Price),
		))
		ips.metrics.revenue.Add(ctx, *ticket.Price, metric.WithAttributes(parkingType))
		if ticket.Spot.Available {
			ips.metrics.occupancy.Add(ctx, -1, metric.WithAttributes(parkingType))
		} else {
			span.AddEvent("spot_release_failed")
		}
		if ips.events != nil {
			ips.eventFailed(ctx, ticket, ips.events.TicketClosed(ctx, *ticket))
		}
	}

	ips.metrics.exits.Add(ctx, 1, metric.WithAttributes(labels...))
	ips.metrics.operationDuration.Record(ctx, duration, metric.WithAttributes(labels...))

	return ticket, err
}

// eventFailed never fails the parking operation; the ticket is already stored.
func (ips *InstrumentedParkingService) eventFailed(ctx context.Context, ticket *Ticket, err error) {
	if err == nil {
		return
	}
	trace.SpanFromContext(ctx).RecordError(err)
	logging.Warn(ctx, "unable to publish ticket event", "ticket", ticket.ID, "error", err)
}
