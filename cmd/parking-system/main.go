package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"parking-system/internal/config"
	"parking-system/internal/events"
	"parking-system/internal/logging"
	"parking-system/internal/parking"
	"parking-system/internal/server"
	"parking-system/internal/store/memory"
	"parking-system/internal/store/postgres"
	"parking-system/internal/store/redisstore"
	"parking-system/internal/store/sqlite"
)

func main() {
	cfg := config.Load()

	mode := flag.String("mode", cfg.Mode, "Mode to run: cli, server, or both")
	port := flag.String("port", cfg.Port, "Port for HTTP server")
	flag.Parse()
	cfg.Mode = *mode
	cfg.Port = *port

	if err := run(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "parking-system: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	telemetry, err := parking.NewTelemetryProvider(ctx, parking.TelemetryConfig{
		ServiceName:  cfg.OTelServiceName,
		Environment:  cfg.Environment,
		OTLPEndpoint: cfg.OTelEndpoint,
	})
	if err != nil {
		return fmt.Errorf("initialize telemetry: %w", err)
	}
	defer shutdownTelemetry(telemetry)

	logging.Init(cfg.OTelServiceName, cfg.Environment)

	app, err := newApp(ctx, cfg, telemetry)
	if err != nil {
		return err
	}
	defer app.close()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	switch cfg.Mode {
	case "cli":
		runCLI(ctx, cancel, app, sigChan)
	case "server":
		runServer(ctx, cancel, app, cfg.Port, sigChan)
	case "both":
		runBoth(ctx, cancel, app, cfg.Port, sigChan)
	default:
		return fmt.Errorf("invalid mode %q: must be cli, server, or both", cfg.Mode)
	}
	return nil
}

// app holds everything shared by the console and the HTTP API.
type app struct {
	cfg        *config.Config
	telemetry  *parking.TelemetryProvider
	metrics    *parking.ServiceMetrics
	spots      parking.SpotStore
	tickets    parking.TicketStore
	publisher  *events.Publisher
	allocation sync.Mutex
	closers    []func()
}

func newApp(ctx context.Context, cfg *config.Config, telemetry *parking.TelemetryProvider) (*app, error) {
	a := &app{cfg: cfg, telemetry: telemetry}

	metrics, err := parking.NewServiceMetrics(telemetry.Meter())
	if err != nil {
		return nil, fmt.Errorf("create metrics: %w", err)
	}
	a.metrics = metrics

	if err := a.openStores(ctx); err != nil {
		a.close()
		return nil, err
	}

	if err := a.startEvents(ctx); err != nil {
		a.close()
		return nil, err
	}

	return a, nil
}

type lotStore interface {
	parking.SpotStore
	parking.TicketStore
}

func (a *app) openStores(ctx context.Context) error {
	var store lotStore

	switch a.cfg.StoreDriver {
	case config.StoreMemory:
		store = memory.New()
	case config.StoreSQLite:
		s, err := sqlite.Open(ctx, a.cfg.SQLitePath)
		if err != nil {
			return fmt.Errorf("open sqlite store: %w", err)
		}
		a.closers = append(a.closers, func() { s.Close() })
		store = s
	case config.StorePostgres:
		pool, err := postgres.NewPool(ctx, a.cfg.DatabaseURL, a.cfg.DBConnectMaxTries)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		a.closers = append(a.closers, pool.Close)
		if err := postgres.RunMigrations(ctx, pool); err != nil {
			return fmt.Errorf("migrate postgres: %w", err)
		}
		store = postgres.NewStore(pool)
	default:
		return fmt.Errorf("unknown store driver %q", a.cfg.StoreDriver)
	}

	layout := parking.DefaultLayout(a.cfg.CarSpots, a.cfg.BikeSpots)
	if err := store.EnsureSpots(ctx, layout); err != nil {
		return fmt.Errorf("seed parking spots: %w", err)
	}
	a.spots = store
	a.tickets = store

	if a.cfg.SpotStore == config.SpotStoreRedis {
		client := redisstore.NewRedis(a.cfg.RedisAddr)
		a.closers = append(a.closers, func() { client.Close() })
		if err := client.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}

		spots := redisstore.NewSpotStore(client, "parking")
		if err := spots.EnsureSpots(ctx, layout); err != nil {
			return fmt.Errorf("seed redis parking spots: %w", err)
		}
		a.spots = spots
	}

	logging.Info(ctx, "stores ready",
		"driver", a.cfg.StoreDriver,
		"spot_store", a.cfg.SpotStore,
		"car_spots", a.cfg.CarSpots,
		"bike_spots", a.cfg.BikeSpots,
	)
	return nil
}

func (a *app) startEvents(ctx context.Context) error {
	logger := logging.Logger()

	pubSub := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 64}, events.NewLoggerAdapter(logger))
	a.closers = append(a.closers, func() { pubSub.Close() })

	router, err := events.NewRouter(logger)
	if err != nil {
		return fmt.Errorf("create event router: %w", err)
	}
	events.NewAudit(logger).Register(router, pubSub)
	a.closers = append(a.closers, func() { router.Close() })

	go func() {
		if err := router.Run(ctx); err != nil {
			logging.Error(ctx, "event router stopped", "error", err)
		}
	}()
	waitRunning(router)

	a.publisher = events.NewPublisher(pubSub)
	return nil
}

func waitRunning(router *message.Router) {
	select {
	case <-router.Running():
	case <-time.After(5 * time.Second):
		logging.Warn(context.Background(), "event router slow to start")
	}
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func (a *app) shell() *parking.InstrumentedShell {
	console := parking.NewConsoleInput(os.Stdin)
	svc := parking.NewParkingService(parking.NewPromptedInput(console, os.Stdout), a.spots, a.tickets,
		parking.WithStrictEntry(a.cfg.StrictEntry),
		parking.WithAllocationLock(&a.allocation),
	)
	instrumented := parking.NewInstrumentedParkingService(svc, a.telemetry, a.metrics, a.publisher)
	return parking.NewInstrumentedShell(instrumented, console, os.Stdout, a.telemetry)
}

func (a *app) server(port string) *server.Server {
	handler := server.NewHandler(server.Deps{
		ServiceName:    a.cfg.OTelServiceName,
		Spots:          a.spots,
		Tickets:        a.tickets,
		Telemetry:      a.telemetry,
		Metrics:        a.metrics,
		Events:         a.publisher,
		StrictEntry:    a.cfg.StrictEntry,
		AllocationLock: &a.allocation,
	})
	return server.NewServer(port, handler)
}

func runCLI(ctx context.Context, cancel context.CancelFunc, a *app, sigChan chan os.Signal) {
	go func() {
		<-sigChan
		logging.Info(ctx, "shutting down")
		cancel()
	}()

	a.shell().Run(ctx)
}

func runServer(ctx context.Context, cancel context.CancelFunc, a *app, port string, sigChan chan os.Signal) {
	srv := a.server(port)

	go func() {
		<-sigChan
		logging.Info(ctx, "received shutdown signal")
		shutdownServer(srv)
		cancel()
	}()

	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logging.Error(ctx, "server error", "error", err)
	}
}

func runBoth(ctx context.Context, cancel context.CancelFunc, a *app, port string, sigChan chan os.Signal) {
	srv := a.server(port)

	serverDone := make(chan error, 1)
	go func() {
		serverDone <- srv.Start()
	}()

	cliDone := make(chan struct{})
	go func() {
		a.shell().Run(ctx)
		close(cliDone)
	}()

	select {
	case err := <-serverDone:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error(ctx, "server error", "error", err)
		}
	case <-cliDone:
		logging.Info(ctx, "CLI exited")
	case <-sigChan:
		logging.Info(ctx, "received shutdown signal")
	}

	shutdownServer(srv)
	cancel()
}

func shutdownServer(srv *server.Server) {
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Error(shutdownCtx, "server shutdown error", "error", err)
	}
}

func shutdownTelemetry(telemetry *parking.TelemetryProvider) {
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := telemetry.Shutdown(shutdownCtx); err != nil {
		fmt.Fprintf(os.Stderr, "error shutting down telemetry: %v\n", err)
	}
}
