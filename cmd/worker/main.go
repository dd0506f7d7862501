package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/okovalenko/uniconnect/internal/config"
	"github.com/okovalenko/uniconnect/internal/mirror"
	"github.com/okovalenko/uniconnect/internal/observability"
	"github.com/okovalenko/uniconnect/internal/store"
	"github.com/okovalenko/uniconnect/internal/worker"
)

// The sync worker keeps the remote mirror converged with the durable
// store: every resync interval it re-enqueues each collection and the
// mirror worker pushes them out with retry and backoff.
func main() {
	cfg := config.Load()

	log := observability.NewLogger(cfg.Env)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)

	defer stop()

	durable, ping, closeStore, err := buildDurable(ctx, cfg)

	if err != nil {
		log.Error("store init failed", "err", err)
		os.Exit(1)
	}

	defer closeStore()

	var pusher mirror.Pusher

	if cfg.MirrorBaseURL != "" {
		pusher = mirror.NewProtectedPusher(
			mirror.NewHTTPClient(cfg.MirrorBaseURL, 3*time.Second),
			mirror.ProtectedPusherConfig{},
		)
	} else {
		pusher = mirror.NewLogPusher()
	}

	registry := prometheus.NewRegistry()
	prom := observability.NewProm(registry)

	queue := mirror.NewQueue()
	syncMetrics := observability.NewSyncMetrics()

	syncWorker := mirror.NewWorker(mirror.WorkerConfig{}, queue, pusher, syncMetrics, log).WithProm(prom)

	// probe + metrics server

	var shuttingDown atomic.Bool

	mux := worker.ProbeHandler(ping, shuttingDown.Load)
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	probeSrv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.WorkerPort),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		err := probeSrv.ListenAndServe()

		if err != nil && err != http.ErrServerClosed {
			log.Error("probe server failed", "err", err)
			os.Exit(1)
		}
	}()

	go func() {
		if err := syncWorker.Run(ctx); err != nil {
			log.Error("sync worker stopped", "err", err)
		}
	}()

	log.Info("sync worker started",
		"store", cfg.StoreBackend,
		"resync_interval", cfg.ResyncInterval,
		"probe_port", cfg.WorkerPort,
	)

	resync(ctx, durable, queue, log)

	ticker := time.NewTicker(cfg.ResyncInterval)
	defer ticker.Stop()

loop:
	for {
		select {
		case <-ctx.Done():
			break loop

		case <-ticker.C:
			resync(ctx, durable, queue, log)
		}
	}

	shuttingDown.Store(true)
	log.Info("sync worker shutting down")

	shutdownCtx, cancel := config.WithTimeout(5 * time.Second)

	defer cancel()

	if err := probeSrv.Shutdown(shutdownCtx); err != nil {
		log.Error("probe shutdown failed", "err", err)
	}

	log.Info("sync worker shutdown complete")
}

// resync walks every persisted collection and queues it for pushing.
// The queue collapses per collection, so repeated sweeps never pile up.
func resync(ctx context.Context, durable store.Durable, queue *mirror.Queue, log *slog.Logger) {
	keys, err := durable.Keys(ctx)

	if err != nil {
		log.Error("resync list failed", "err", err)
		return
	}

	for _, key := range keys {
		doc, err := durable.Get(ctx, key)

		if err != nil {
			log.Error("resync read failed", "collection", key, "err", err)
			continue
		}

		queue.Enqueue(key, doc)
	}

	log.Info("resync sweep queued", "collections", len(keys))
}

func buildDurable(ctx context.Context, cfg config.Config) (store.Durable, func(context.Context) error, func(), error) {
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

		return pg, pool.Ping, pool.Close, nil

	default:
		fs, err := store.NewFileStore(cfg.DataDir)

		if err != nil {
			return nil, nil, nil, err
		}

		return fs, nil, func() {}, nil
	}
}
