package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/trace"

	"parking-system/internal/parking"
)

type Meta struct {
	TraceID   string `json:"trace_id,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Meta    *Meta  `json:"meta,omitempty"`
}

type IncomingRequest struct {
	ParkingType  int    `json:"parking_type"`
	Registration string `json:"registration"`
}

type ExitingRequest struct {
	Registration string `json:"registration"`
}

type TicketResponse struct {
	ID            int        `json:"id"`
	Registration  string     `json:"registration"`
	ParkingNumber int        `json:"parking_number"`
	ParkingType   string     `json:"parking_type"`
	InTime        time.Time  `json:"in_time"`
	OutTime       *time.Time `json:"out_time,omitempty"`
	Price         *float64   `json:"price,omitempty"`
}

func newTicketResponse(ticket parking.Ticket) TicketResponse {
	return TicketResponse{
		ID:            ticket.ID,
		Registration:  ticket.VehicleRegNumber,
		ParkingNumber: ticket.Spot.ID,
		ParkingType:   string(ticket.Spot.ParkingType),
		InTime:        ticket.InTime,
		OutTime:       ticket.OutTime,
		Price:         ticket.Price,
	}
}

type SpotStatus struct {
	ParkingNumber int    `json:"parking_number"`
	ParkingType   string `json:"parking_type"`
	Available     bool   `json:"available"`
}

type SpotsResponse struct {
	Total     int          `json:"total"`
	Available int          `json:"available"`
	Occupied  int          `json:"occupied"`
	Spots     []SpotStatus `json:"spots"`
}

func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func extractMeta(ctx context.Context) *Meta {
	meta := &Meta{}

	span := trace.SpanFromContext(ctx)
	if span.SpanContext().HasTraceID() {
		meta.TraceID = span.SpanContext().TraceID().String()
	}

	if reqID, ok := ctx.Value(RequestIDKey).(string); ok {
		meta.RequestID = reqID
	}

	return meta
}

func WriteSuccess(ctx context.Context, w http.ResponseWriter, status int, message string, data any) {
	WriteJSON(w, status, Response{
		Success: true,
		Message: message,
		Data:    data,
		Meta:    extractMeta(ctx),
	})
}

func WriteError(ctx context.Context, w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, Response{
		Success: false,
		Error:   message,
		Meta:    extractMeta(ctx),
	})
}
