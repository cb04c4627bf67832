// Package events publishes ticket lifecycle events over watermill.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"go.opentelemetry.io/otel/trace"

	"parking-system/internal/parking"
)

const (
	TopicTicketOpened = "parking.ticket.opened"
	TopicTicketClosed = "parking.ticket.closed"

	metadataTraceID = "trace_id"
)

type TicketEvent struct {
	TicketID         int        `json:"ticket_id"`
	VehicleRegNumber string     `json:"vehicle_reg_number"`
	ParkingNumber    int        `json:"parking_number"`
	ParkingType      string     `json:"parking_type"`
	InTime           time.Time  `json:"in_time"`
	OutTime          *time.Time `json:"out_time,omitempty"`
	Price            *float64   `json:"price,omitempty"`
}

func NewTicketEvent(ticket parking.Ticket) TicketEvent {
	return TicketEvent{
		TicketID:         ticket.ID,
		VehicleRegNumber: ticket.VehicleRegNumber,
		ParkingNumber:    ticket.Spot.ID,
		ParkingType:      string(ticket.Spot.ParkingType),
		InTime:           ticket.InTime,
		OutTime:          ticket.OutTime,
		Price:            ticket.Price,
	}
}

// Publisher implements parking.TicketEvents on top of a watermill publisher.
type Publisher struct {
	publisher message.Publisher
}

func NewPublisher(publisher message.Publisher) *Publisher {
	return &Publisher{publisher: publisher}
}

func (p *Publisher) TicketOpened(ctx context.Context, ticket parking.Ticket) error {
	return p.publish(ctx, TopicTicketOpened, ticket)
}

func (p *Publisher) TicketClosed(ctx context.Context, ticket parking.Ticket) error {
	return p.publish(ctx, TopicTicketClosed, ticket)
}

func (p *Publisher) publish(ctx context.Context, topic string, ticket parking.Ticket) error {
	payload, err := json.Marshal(NewTicketEvent(ticket))
	if err != nil {
		return err
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.SetContext(ctx)
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		msg.Metadata.Set(metadataTraceID, sc.TraceID().String())
	}

	return p.publisher.Publish(topic, msg)
}
