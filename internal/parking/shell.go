package parking

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	menuIncoming = 1
	menuExiting  = 2
	menuShutdown = 3
)

// promptedInput prints the console prompt before each read.
type promptedInput struct {
	in  InputReader
	out io.Writer
}

func NewPromptedInput(in InputReader, out io.Writer) InputReader {
	return &promptedInput{in: in, out: out}
}

func (p *promptedInput) ReadSelection() (int, error) {
	fmt.Fprintln(p.out, "Please select vehicle type from menu")
	fmt.Fprintln(p.out, "1 CAR")
	fmt.Fprintln(p.out, "2 BIKE")
	return p.in.ReadSelection()
}

func (p *promptedInput) ReadVehicleRegistrationNumber() (string, error) {
	fmt.Fprintln(p.out, "Please type the vehicle registration number and press enter key")
	return p.in.ReadVehicleRegistrationNumber()
}

type InstrumentedShell struct {
	service   *InstrumentedParkingService
	menu      InputReader
	out       io.Writer
	telemetry *TelemetryProvider
}

// NewInstrumentedShell reads menu options from menu. The service is expected
// to read its own answers from the same underlying console.
func NewInstrumentedShell(service *InstrumentedParkingService, menu InputReader, out io.Writer, telemetry *TelemetryProvider) *InstrumentedShell {
	return &InstrumentedShell{
		service:   service,
		menu:      menu,
		out:       out,
		telemetry: telemetry,
	}
}

func (s *InstrumentedShell) Run(ctx context.Context) {
	tracer := s.telemetry.Tracer()
	ctx, span := tracer.Start(ctx, "shell.run")
	defer span.End()

	span.AddEvent("shell_started")
	fmt.Fprintln(s.out, "Welcome to Parking System!")

	for ctx.Err() == nil {
		s.printMenu()

		option, err := s.menu.ReadSelection()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				span.RecordError(err)
			}
			break
		}

		cmdCtx, cmdSpan := tracer.Start(ctx, "shell.process_command",
			trace.WithAttributes(attribute.Int("command.option", option)))
		done := s.processCommand(cmdCtx, option)
		cmdSpan.End()

		if done {
			break
		}
	}

	span.AddEvent("shell_ended")
}

func (s *InstrumentedShell) printMenu() {
	fmt.Fprintln(s.out, "Please select an option. Simply enter the number to choose an action")
	fmt.Fprintln(s.out, "1 New Vehicle Entering - Allocate Parking Space")
	fmt.Fprintln(s.out, "2 Vehicle Exiting - Generate Ticket Price")
	fmt.Fprintln(s.out, "3 Shutdown System")
}

func (s *InstrumentedShell) processCommand(ctx context.Context, option int) bool {
	switch option {
	case menuIncoming:
		s.handleIncoming(ctx)
	case menuExiting:
		s.handleExiting(ctx)
	case menuShutdown:
		fmt.Fprintln(s.out, "Exiting from the system!")
		return true
	default:
		trace.SpanFromContext(ctx).AddEvent("unknown_command")
		fmt.Fprintln(s.out, "Unsupported option. Please enter a number corresponding to the provided menu")
	}
	return false
}

func (s *InstrumentedShell) handleIncoming(ctx context.Context) {
	tracer := s.telemetry.Tracer()
	ctx, span := tracer.Start(ctx, "shell.incoming_command")
	defer span.End()

	ticket, err := s.service.ProcessIncomingVehicle(ctx)
	if err != nil {
		span.AddEvent("incoming_failed")
		fmt.Fprintf(s.out, "Unable to process incoming vehicle: %s\n", err)
		return
	}
	if ticket == nil {
		span.AddEvent("parking_full")
		fmt.Fprintln(s.out, "Error fetching next available parking slot. Parking slots might be full")
		return
	}

	span.AddEvent("incoming_successful", trace.WithAttributes(
		attribute.Int("parking_spot.id", ticket.Spot.ID),
	))
	fmt.Fprintln(s.out, "Generated Ticket and saved in DB")
	fmt.Fprintf(s.out, "Please park your vehicle in spot number: %d\n", ticket.Spot.ID)
	fmt.Fprintf(s.out, "Recorded in-time for vehicle number: %s is: %s\n",
		ticket.VehicleRegNumber, ticket.InTime.Format(time.DateTime))
}

func (s *InstrumentedShell) handleExiting(ctx context.Context) {
	tracer := s.telemetry.Tracer()
	ctx, span := tracer.Start(ctx, "shell.exiting_command")
	defer span.End()

	ticket, err := s.service.ProcessExitingVehicle(ctx)
	if err != nil {
		span.AddEvent("exiting_failed")
		fmt.Fprintf(s.out, "Unable to process exiting vehicle: %s\n", err)
		return
	}

	span.AddEvent("exiting_successful")
	fmt.Fprintf(s.out, "Please pay the parking fare: %v\n", *ticket.Price)
	fmt.Fprintf(s.out, "Recorded out-time for vehicle number: %s is: %s\n",
		ticket.VehicleRegNumber, ticket.OutTime.Format(time.DateTime))
}
