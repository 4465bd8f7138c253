package main

import (
	"context"
	"log"
	"log/slog"
	"time"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

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
	cfg, err := config.Load("midz-planner-worker")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx := context.Background()

	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	var cacheSvc ports.CacheService
	if cache, err := valkey.New(cfg.Valkey.Addr); err != nil {
		slog.Warn("valkey unavailable, geocoding uncached", "error", err)
	} else {
		cacheSvc = cache
		defer cache.Close()
	}

	// The worker cannot report results without the bus.
	pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		log.Fatalf("nats: %v", err)
	}
	defer pub.Close()

	osm := nominatim.New(cfg.Geocoder.BaseURL, cfg.Geocoder.UserAgent, time.Duration(cfg.Geocoder.TimeoutSeconds)*time.Second)
	resolver := usecases.NewGeoResolver(usecases.NewCachedGeocoder(osm, cacheSvc, cfg.Geocoder.CacheTTLSeconds))
	planner := usecases.NewMeetupPlanner(
		resolver,
		usecases.NewLandValidator(resolver, osm, cfg.Planner.LandSearchQuery, cfg.Planner.LandSearchRadiusMeters),
		usecases.NewVenueRanker(resolver, osm, cfg.Planner.MaxVenues),
		postgres.NewUserRepo(db),
		postgres.NewBoardRepo(db),
		nil, // events go out through the publish activities
		usecases.PlannerOptions{
			ResolveTimeout:     time.Duration(cfg.Planner.ResolveTimeoutMs) * time.Millisecond,
			SearchRadiusMeters: cfg.Planner.SearchRadiusMeters,
		},
	)

	c, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
	})
	if err != nil {
		log.Fatalf("temporal client: %v", err)
	}
	defer c.Close()

	w := worker.New(c, cfg.Temporal.TaskQueue, worker.Options{})

	w.RegisterWorkflow(workflows.MeetupWorkflow)
	w.RegisterActivity(&workflows.MeetupActivities{
		Planner:   planner,
		Publisher: pub,
	})

	slog.Info("planner worker started", "task_queue", cfg.Temporal.TaskQueue)
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatalf("worker: %v", err)
	}
}
