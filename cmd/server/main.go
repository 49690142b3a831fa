package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"

	"plancheck/internal/delta"
	"plancheck/internal/escalation"
	"plancheck/internal/graph"
	"plancheck/internal/platform/config"
	"plancheck/internal/platform/httpserver"
	"plancheck/internal/platform/logger"
	"plancheck/internal/platform/metrics"
	"plancheck/internal/platform/middleware"
	"plancheck/internal/platform/postgres"
	redisplatform "plancheck/internal/platform/redis"
	"plancheck/internal/resolution"
	resolutionhandler "plancheck/internal/resolution/handler"
	"plancheck/internal/revalidation"
	revalidationhandler "plancheck/internal/revalidation/handler"
	"plancheck/internal/validation"
)

// main wires the engine's collaborators and keeps the server lifecycle
// small. Business logic lives in the internal packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Server, log *slog.Logger) error {
	m := metrics.New()

	cat, err := loadCatalog(cfg.CatalogPath, log)
	if err != nil {
		return err
	}

	db, err := postgres.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
		log.Info("postgres stores enabled")
	}

	redisClient, err := redisplatform.New(cfg.Redis)
	if err != nil {
		return err
	}
	var cache escalation.ResolvedFieldCache
	if redisClient != nil {
		defer redisClient.Close()
		cache = escalation.NewRedisCache(redisClient.Client)
		log.Info("redis resolved-fields cache enabled")
	} else {
		cache = escalation.NewInMemoryCache()
	}

	deltaStore := newDeltaStore(db)
	resolutionStore := newResolutionStore(db)

	depGraph := graph.New(cat)
	engine, err := delta.NewEngine(deltaStore, deltaStore, depGraph.FieldImpact, log, m)
	if err != nil {
		return err
	}

	dispatcher := validation.NewDispatcher(cfg.DispatchWorkers, log, m)
	gate := escalation.NewGate(cache, cfg.ConfidenceFloor, log, m)

	publisher, err := resolution.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, log)
	if err != nil {
		return err
	}
	defer publisher.Close()

	events := make(chan resolution.Event, 64)
	tracker := resolution.NewService(resolutionStore, resolution.NewShardedTx(resolutionStore), log, m,
		resolution.WithResolvedCache(cache),
		resolution.WithEvents(events),
	)
	worker := resolution.NewCascadeWorker(tracker, events, publisher, log)
	go func() {
		if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("cascade worker stopped", "error", err)
		}
	}()

	orchestrator, err := revalidation.NewService(revalidation.Config{
		Catalog:         cat,
		Dispatcher:      dispatcher,
		Graph:           depGraph,
		Delta:           engine,
		Gate:            gate,
		Tracker:         tracker,
		Cache:           cache,
		Submissions:     deltaStore,
		ImpactThreshold: cfg.ImpactThreshold,
		Logger:          log,
		Tracer:          otel.Tracer("plancheck/revalidation"),
		Events:          events,
	})
	if err != nil {
		return err
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RequestTime)
	router.Use(middleware.Actor)
	router.Use(middleware.Recovery(log))
	router.Use(middleware.Logger(log))

	revalidationhandler.New(orchestrator, deltaStore, cat, log).Register(router)
	resolutionhandler.New(tracker, log).Register(router)
	router.Method(http.MethodGet, "/metrics", promhttp.Handler())
	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	srv := httpserver.New(cfg.Addr, router)
	serveErr := make(chan error, 1)
	go func() {
		log.Info("starting plancheck", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Info("shutdown complete")
	return nil
}

// newDeltaStore returns the postgres-backed store when a handle is
// available, otherwise the in-memory twin.
func newDeltaStore(db *sql.DB) interface {
	delta.SubmissionStore
	delta.ChangeSetStore
} {
	if db != nil {
		return delta.NewPostgresStore(db)
	}
	return delta.NewInMemoryStore()
}

func newResolutionStore(db *sql.DB) resolution.Store {
	if db != nil {
		return resolution.NewPostgresStore(db)
	}
	return resolution.NewInMemoryStore()
}
