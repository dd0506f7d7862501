package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/okovalenko/uniconnect/internal/auth"
	"github.com/okovalenko/uniconnect/internal/catalog"
	"github.com/okovalenko/uniconnect/internal/config"
	httpx "github.com/okovalenko/uniconnect/internal/http"
	"github.com/okovalenko/uniconnect/internal/identity"
	"github.com/okovalenko/uniconnect/internal/listing"
	"github.com/okovalenko/uniconnect/internal/mirror"
	"github.com/okovalenko/uniconnect/internal/observability"
	"github.com/okovalenko/uniconnect/internal/redisclient"
	"github.com/okovalenko/uniconnect/internal/store"
)

func main() {
	// Load the config set up
	cfg := config.Load()

	// start up the observability logger
	log := observability.NewLogger(cfg.Env)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)

	defer stop()

	// tracing is optional; without an endpoint spans stay local no-ops
	if cfg.OtelEndpoint != "" {
		shutdownTracer, err := observability.InitTracer(ctx, "uniconnect-api", cfg.OtelEndpoint)

		if err != nil {
			log.Error("tracer init failed", "err", err)
			os.Exit(1)
		}

		defer func() {
			shutdownCtx, cancel := config.WithTimeout(5 * time.Second)

			defer cancel()

			if err := shutdownTracer(shutdownCtx); err != nil {
				log.Error("tracer shutdown failed", "err", err)
			}
		}()
	}

	// metrics

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	prom := observability.NewProm(registry)

	// durable backend

	durable, ping, closeStore, err := buildDurable(ctx, cfg)

	if err != nil {
		log.Error("store init failed", "err", err)
		os.Exit(1)
	}

	defer closeStore()

	// mirror push path: real HTTP mirror behind a circuit breaker when
	// configured, log-only simulation otherwise

	var pusher mirror.Pusher

	if cfg.MirrorBaseURL != "" {
		pusher = mirror.NewProtectedPusher(
			mirror.NewHTTPClient(cfg.MirrorBaseURL, 3*time.Second),
			mirror.ProtectedPusherConfig{},
		)
	} else {
		pusher = mirror.NewLogPusher()
	}

	queue := mirror.NewQueue()
	syncMetrics := observability.NewSyncMetrics()

	syncWorker := mirror.NewWorker(mirror.WorkerConfig{}, queue, pusher, syncMetrics, log).WithProm(prom)

	go func() {
		if err := syncWorker.Run(ctx); err != nil {
			log.Error("sync worker stopped", "err", err)
		}
	}()

	// store adapter with seed fallback and built-in defaults

	var seeder store.Seeder

	if cfg.SeedBaseURL != "" {
		seeder = store.NewHTTPSeeder(cfg.SeedBaseURL)
	}

	adapter := store.NewAdapter(durable, 30*time.Second, store.Options{
		Mirror: pusher,
		Retry:  queue,
		Seeder: seeder,
		Prom:   prom,
		Logger: log,
	})

	adapter.RegisterDefault("users", func() any { return []any{} })
	adapter.RegisterDefault("announcements", func() any { return []any{} })
	adapter.RegisterDefault("catalog", func() any { return catalog.Default() })

	// sessions: redis when configured, in-memory otherwise

	var sessions identity.SessionStore

	if cfg.RedisAddr != "" {
		rc := redisclient.New(redisclient.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})

		if err := rc.Ping(ctx); err != nil {
			log.Error("redis ping failed", "err", err)
			os.Exit(1)
		}

		defer rc.Close()

		sessions = identity.NewRedisSessionStore(rc.Raw())
	} else {
		sessions = identity.NewMemorySessionStore()
	}

	// services

	identitySvc := identity.NewService(adapter, sessions, log)
	listingSvc := listing.NewService(adapter, identitySvc, log)
	catalogSvc := catalog.NewService(adapter)

	autoSaver := listing.NewAutoSaver(listingSvc, 30*time.Second)
	defer autoSaver.Stop()

	jwtManager := auth.NewManager(cfg.JWTSecret, cfg.AccessTTL, cfg.RefreshTTL, cfg.RememberTTL)

	// set up routers

	router := httpx.NewRouter(httpx.Deps{
		Cfg:       cfg,
		Identity:  identitySvc,
		Listing:   listingSvc,
		AutoSaver: autoSaver,
		Catalog:   catalogSvc,
		JWT:       jwtManager,

		Prom:        prom,
		SyncMetrics: syncMetrics,
		Registry:    registry,

		Ping: ping,
	})

	// server set up
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// start server using a concurrent go-routine driven anonymous function.

	go func() {
		log.Info("Server starting", "port", cfg.Port, "env", cfg.Env, "store", cfg.StoreBackend)
		err := srv.ListenAndServe()

		if err != nil && err != http.ErrServerClosed {
			log.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown

	<-ctx.Done()
	log.Info("server shutting down")

	shutdownCh := make(chan struct{})

	go func() {
		defer close(shutdownCh)

		shutdownCtx, cancel := config.WithTimeout(10 * time.Second)

		defer cancel()

		err := srv.Shutdown(shutdownCtx)

		if err != nil {
			log.Error("graceful shutdown failed", "err", err)

			return
		}
	}()

	select {
	case <-shutdownCh:
		log.Info("shutdown complete")

	case <-time.After(12 * time.Second):
		log.Error("shutdown timed out")
	}
}

// buildDurable picks the persistence backend from config. The returned
// ping feeds the readiness probe; close releases backend resources.
func buildDurable(ctx context.Context, cfg config.Config) (store.Durable, func() error, func(), error) {
	switch cfg.StoreBackend {
	case "postgres":
		pool, err := store.NewPool(cfg.DBURL)

		if err != nil {
			return nil, nil, nil, err
		}

		pg, err := store.NewPostgresStore(ctx, pool)

		if err != nil {
			pool.Close()
			return nil, nil, nil, err
		}

		ping := func() error {
			pingCtx, cancel := config.WithTimeout(2 * time.Second)

			defer cancel()

			return pool.Ping(pingCtx)
		}

		return pg, ping, pool.Close, nil

	default:
		fs, err := store.NewFileStore(cfg.DataDir)

		if err != nil {
			return nil, nil, nil, err
		}

		return fs, func() error { return nil }, func() {}, nil
	}
}
