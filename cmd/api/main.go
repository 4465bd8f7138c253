package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.temporal.io/sdk/client"

	"github.com/midzapp/midz/internal/adapters/http"
	natsadapter "github.com/midzapp/midz/internal/adapters/nats"
	"github.com/midzapp/midz/internal/adapters/nominatim"
	"github.com/midzapp/midz/internal/adapters/postgres"
	"github.com/midzapp/midz/internal/adapters/valkey"
	"github.com/midzapp/midz/internal/core/ports"
	"github.com/midzapp/midz/internal/core/usecases"
	"github.com/midzapp/midz/internal/pkg/config"
	"github.com/midzapp/midz/internal/pkg/logging"
	"github.com/midzapp/midz/internal/pkg/telemetry"
	"github.com/midzapp/midz/internal/workflows"
)

func main() {
	cfg, err := config.Load("midz-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	// Database
	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Cache
	var cacheSvc ports.CacheService
	cache, err := valkey.New(cfg.Valkey.Addr)
	if err != nil {
		slog.Warn("valkey unavailable, geocoding uncached", "error", err)
	} else {
		cacheSvc = cache
		defer cache.Close()
	}

	// NATS
	var publisher ports.EventPublisher
	pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats unavailable, plan events disabled", "error", err)
	} else {
		publisher = pub
		defer pub.Close()
	}

	// Raw NATS connection for WebSocket relay, replaying from the stream
	var feed http.PlanFeed
	natsConn, err := natsadapter.RawConn(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats ws conn unavailable", "error", err)
	} else {
		defer natsConn.Close()
		if sub, err := natsadapter.NewSubscriber(natsConn); err != nil {
			slog.Warn("jetstream unavailable, ws relay disabled", "error", err)
		} else {
			feed = sub
		}
	}

	// Temporal, for ?async=true
	var async http.AsyncPlanner
	tc, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
	})
	if err != nil {
		slog.Warn("temporal unavailable, async planning disabled", "error", err)
	} else {
		async = workflows.NewStarter(tc, cfg.Temporal.TaskQueue)
		defer tc.Close()
	}

	// Repos
	userRepo := postgres.NewUserRepo(db)
	boardRepo := postgres.NewBoardRepo(db)

	// Use cases
	osm := nominatim.New(cfg.Geocoder.BaseURL, cfg.Geocoder.UserAgent, time.Duration(cfg.Geocoder.TimeoutSeconds)*time.Second)
	resolver := usecases.NewGeoResolver(usecases.NewCachedGeocoder(osm, cacheSvc, cfg.Geocoder.CacheTTLSeconds))
	planner := usecases.NewMeetupPlanner(
		resolver,
		usecases.NewLandValidator(resolver, osm, cfg.Planner.LandSearchQuery, cfg.Planner.LandSearchRadiusMeters),
		usecases.NewVenueRanker(resolver, osm, cfg.Planner.MaxVenues),
		userRepo,
		boardRepo,
		publisher,
		usecases.PlannerOptions{
			ResolveTimeout:     time.Duration(cfg.Planner.ResolveTimeoutMs) * time.Millisecond,
			SearchRadiusMeters: cfg.Planner.SearchRadiusMeters,
		},
	)

	deps := &http.Dependencies{
		Planner:     planner,
		Boards:      boardRepo,
		Async:       async,
		Feed:        feed,
		NATS:        natsConn,
		DB:          db,
		Cache:       cache,
		OpenAPIPath: "api/openapi.yaml",
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    256 * 1024,
		AppName:      "Midz API",
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "http://localhost:3000, http://localhost:5173, https://*.midz.app",
		AllowMethods:     "GET,POST,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: false,
		MaxAge:           3600,
	}))

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}
