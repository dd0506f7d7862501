package mirror

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/okovalenko/uniconnect/internal/observability"
)

type WorkerConfig struct {
	PollInterval time.Duration
	MaxAttempts  int
}

// Worker drains the sync queue: it retries failed mirror pushes with
// exponential backoff until they succeed or run out of attempts.
type Worker struct {
	cfg     WorkerConfig
	queue   *Queue
	pusher  Pusher
	metrics *observability.SyncMetrics
	prom    *observability.Prom
	logger  *slog.Logger
}

func NewWorker(cfg WorkerConfig, queue *Queue, pusher Pusher, metrics *observability.SyncMetrics, logger *slog.Logger) *Worker {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 2 * time.Second
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 8
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Worker{
		cfg:     cfg,
		queue:   queue,
		pusher:  pusher,
		metrics: metrics,
		logger:  logger,
	}
}

// WithProm additionally reports per-collection push outcomes to the
// prometheus registry.
func (w *Worker) WithProm(prom *observability.Prom) *Worker {
	w.prom = prom
	return w
}

func (w *Worker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("sync worker received shutdown signal")
			return nil

		case <-ticker.C:
			w.drain(ctx)
		}
	}
}

// drain claims due jobs until the queue has none left.
func (w *Worker) drain(ctx context.Context) {
	for {
		j, err := w.queue.ClaimNext(time.Now())

		if err != nil {
			if errors.Is(err, ErrJobNotFound) {
				return
			}
			w.logger.Error("claim error", "error", err)
			return
		}

		w.process(ctx, j)

		if ctx.Err() != nil {
			return
		}
	}
}

func (w *Worker) process(ctx context.Context, j SyncJob) {
	if w.metrics != nil {
		w.metrics.IncPushed()
	}

	if w.prom != nil {
		w.prom.SyncInFlight.Inc()
		defer w.prom.SyncInFlight.Dec()
	}

	start := time.Now()

	err := w.pusher.Push(ctx, j.Collection, j.Doc)

	elapsed := time.Since(start)

	if w.metrics != nil {
		w.metrics.ObserveDuration(elapsed)
	}

	if err == nil {
		if markErr := w.queue.MarkDone(j.ID); markErr != nil {
			w.logger.Error("mark done error", "job", j.ID, "error", markErr)
		}

		if w.metrics != nil {
			w.metrics.IncDone()
		}
		w.observeOutcome(j.Collection, "done", elapsed)
		w.logger.Info("mirror replication caught up",
			"collection", j.Collection,
			"attempts", j.Attempts+1,
		)
		return
	}

	// circuit open means the mirror is known-down, no point burning an
	// attempt on it
	if errors.Is(err, ErrCircuitOpen) {
		if markErr := w.queue.MarkRetry(j.ID, err.Error(), time.Now().Add(w.cfg.PollInterval)); markErr != nil {
			w.logger.Error("mark retry error", "job", j.ID, "error", markErr)
		}
		return
	}

	if j.Attempts+1 >= w.cfg.MaxAttempts {
		if markErr := w.queue.MarkFailed(j.ID, err.Error()); markErr != nil {
			w.logger.Error("mark failed error", "job", j.ID, "error", markErr)
		}

		if w.metrics != nil {
			w.metrics.IncFailed()
		}
		w.observeOutcome(j.Collection, "failed", elapsed)
		w.logger.Error("mirror replication gave up",
			"collection", j.Collection,
			"attempts", j.Attempts+1,
			"error", err,
		)
		return
	}

	next := time.Now().Add(ExponentialBackoff(j.Attempts))

	if markErr := w.queue.MarkRetry(j.ID, err.Error(), next); markErr != nil {
		w.logger.Error("mark retry error", "job", j.ID, "error", markErr)
	}

	if w.metrics != nil {
		w.metrics.IncRetried()
	}
	w.observeOutcome(j.Collection, "retry", elapsed)
	w.logger.Warn("mirror replication retry scheduled",
		"collection", j.Collection,
		"attempts", j.Attempts+1,
		"next_run_at", next,
		"error", err,
	)
}

func (w *Worker) observeOutcome(collection, result string, elapsed time.Duration) {
	if w.prom == nil {
		return
	}
	w.prom.SyncResults.WithLabelValues(collection, result).Inc()
	w.prom.SyncDuration.WithLabelValues(collection, result).Observe(elapsed.Seconds())
}
