package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"

	"parking-system/internal/logging"
	"parking-system/internal/parking"
)

// Deps are the long-lived collaborators shared by every request.
type Deps struct {
	ServiceName string
	Spots       parking.SpotStore
	Tickets     parking.TicketStore
	Telemetry   *parking.TelemetryProvider
	Metrics     *parking.ServiceMetrics
	Events      parking.TicketEvents
	StrictEntry bool
	// AllocationLock is shared with any other service over the same stores.
	// A private mutex is used when nil.
	AllocationLock sync.Locker
}

type Handler struct {
	deps Deps
}

func NewHandler(deps Deps) *Handler {
	if deps.AllocationLock == nil {
		deps.AllocationLock = &sync.Mutex{}
	}
	if deps.ServiceName == "" {
		deps.ServiceName = "parking-system"
	}
	return &Handler{deps: deps}
}

func (h *Handler) service(input parking.InputReader) *parking.InstrumentedParkingService {
	svc := parking.NewParkingService(input, h.deps.Spots, h.deps.Tickets,
		parking.WithStrictEntry(h.deps.StrictEntry),
		parking.WithAllocationLock(h.deps.AllocationLock),
	)
	return parking.NewInstrumentedParkingService(svc, h.deps.Telemetry, h.deps.Metrics, h.deps.Events)
}

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]any{
		"status":  "healthy",
		"service": h.deps.ServiceName,
		"meta":    extractMeta(r.Context()),
	})
}

func (h *Handler) ProcessIncoming(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req IncomingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(ctx, w, http.StatusBadRequest, "Invalid request body")
		return
	}

	input := parking.StaticInput{Selection: req.ParkingType, VehicleRegNumber: req.Registration}
	ticket, err := h.service(input).ProcessIncomingVehicle(ctx)
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, parking.ErrInvalidCategorySelection), errors.Is(err, parking.ErrInvalidInput):
			status = http.StatusBadRequest
		case errors.Is(err, parking.ErrSpotUpdateFailed):
			status = http.StatusServiceUnavailable
		default:
			logging.Error(ctx, "incoming vehicle failed", "error", err)
		}
		WriteError(ctx, w, status, err.Error())
		return
	}
	if ticket == nil {
		WriteError(ctx, w, http.StatusConflict, "No parking slot available for this vehicle type")
		return
	}

	WriteSuccess(ctx, w, http.StatusCreated, "Vehicle parked successfully", newTicketResponse(*ticket))
}

func (h *Handler) ProcessExiting(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req ExitingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(ctx, w, http.StatusBadRequest, "Invalid request body")
		return
	}

	input := parking.StaticInput{VehicleRegNumber: req.Registration}
	ticket, err := h.service(input).ProcessExitingVehicle(ctx)
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, parking.ErrInvalidInput):
			status = http.StatusBadRequest
		case errors.Is(err, parking.ErrNoOpenTicket):
			status = http.StatusNotFound
		default:
			logging.Error(ctx, "exiting vehicle failed", "error", err)
		}
		WriteError(ctx, w, status, err.Error())
		return
	}

	WriteSuccess(ctx, w, http.StatusOK, "Vehicle exited successfully", newTicketResponse(*ticket))
}

func (h *Handler) GetSpots(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	spots, err := h.deps.Spots.ListSpots(ctx)
	if err != nil {
		logging.Error(ctx, "unable to list parking spots", "error", err)
		WriteError(ctx, w, http.StatusInternalServerError, "Unable to list parking spots")
		return
	}

	response := SpotsResponse{Total: len(spots), Spots: make([]SpotStatus, 0, len(spots))}
	for _, spot := range spots {
		if spot.Available {
			response.Available++
		}
		response.Spots = append(response.Spots, SpotStatus{
			ParkingNumber: spot.ID,
			ParkingType:   string(spot.ParkingType),
			Available:     spot.Available,
		})
	}
	response.Occupied = response.Total - response.Available

	WriteSuccess(ctx, w, http.StatusOK, "Status retrieved successfully", response)
}

func (h *Handler) GetTickets(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	registration := strings.TrimSpace(chi.URLParam(r, "registration"))
	if registration == "" {
		WriteError(ctx, w, http.StatusBadRequest, "Registration number is required")
		return
	}

	tickets, err := h.deps.Tickets.ListTickets(ctx, registration)
	if err != nil {
		logging.Error(ctx, "unable to list tickets", "vehicle", registration, "error", err)
		WriteError(ctx, w, http.StatusInternalServerError, "Unable to list tickets")
		return
	}
	if len(tickets) == 0 {
		WriteError(ctx, w, http.StatusNotFound, "Vehicle not found")
		return
	}

	response := make([]TicketResponse, 0, len(tickets))
	for _, ticket := range tickets {
		response = append(response, newTicketResponse(ticket))
	}

	WriteSuccess(ctx, w, http.StatusOK, "Tickets retrieved successfully", response)
}
