package events

import (
	"encoding/json"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill/message"
)

// Audit writes every ticket event it consumes to the log.
type Audit struct {
	logger *slog.Logger
}

func NewAudit(logger *slog.Logger) *Audit {
	return &Audit{logger: logger}
}

// Register subscribes the audit handler to both ticket topics.
func (a *Audit) Register(router *message.Router, subscriber message.Subscriber) {
	router.AddNoPublisherHandler("audit_ticket_opened", TopicTicketOpened, subscriber, a.Handle)
	router.AddNoPublisherHandler("audit_ticket_closed", TopicTicketClosed, subscriber, a.Handle)
}

func (a *Audit) Handle(msg *message.Message) error {
	var event TicketEvent
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		// Malformed payloads would be redelivered forever; drop them.
		a.logger.Error("discarding malformed ticket event", "message_id", msg.UUID, "error", err)
		return nil
	}

	args := []any{
		"topic", message.SubscribeTopicFromCtx(msg.Context()),
		"message_id", msg.UUID,
		"ticket_id", event.TicketID,
		"vehicle_reg_number", event.VehicleRegNumber,
		"parking_number", event.ParkingNumber,
		"parking_type", event.ParkingType,
	}
	if traceID := msg.Metadata.Get(metadataTraceID); traceID != "" {
		args = append(args, "traceId", traceID)
	}
	if event.Price != nil {
		args = append(args, "price", *event.Price)
	}

	a.logger.Info("ticket event", args...)
	return nil
}

func NewRouter(logger *slog.Logger) (*message.Router, error) {
	return message.NewRouter(message.RouterConfig{}, NewLoggerAdapter(logger))
}
