package mirror

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/okovalenko/uniconnect/internal/observability"
)

type scriptedPusher struct {
	mu       sync.Mutex
	failures int // fail this many calls, then succeed
	calls    int
}

func (p *scriptedPusher) Push(ctx context.Context, collection string, doc json.RawMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.calls++

	if p.calls <= p.failures {
		return errors.New("mirror down")
	}
	return nil
}

func TestQueueSupersedesOlderSnapshot(t *testing.T) {
	q := NewQueue()

	q.Enqueue("users", json.RawMessage(`{"v":1}`))
	q.Enqueue("users", json.RawMessage(`{"v":2}`))

	if q.Len() != 1 {
		t.Fatalf("want 1 queued job, got %d", q.Len())
	}

	j, err := q.ClaimNext(time.Now())

	if err != nil {
		t.Fatalf("ClaimNext: %v", err)
	}

	if string(j.Doc) != `{"v":2}` {
		t.Fatalf("want latest snapshot, got %s", j.Doc)
	}
}

func TestQueueLifecycle(t *testing.T) {
	q := NewQueue()

	q.Enqueue("announcements", json.RawMessage(`[]`))

	j, err := q.ClaimNext(time.Now())

	if err != nil {
		t.Fatalf("ClaimNext: %v", err)
	}

	if j.Status != JobProcessing {
		t.Fatalf("want processing, got %s", j.Status)
	}

	// while processing, nothing else is claimable
	_, err = q.ClaimNext(time.Now())

	if !errors.Is(err, ErrJobNotFound) {
		t.Fatalf("want ErrJobNotFound, got %v", err)
	}

	// retry pushes the job into the future
	err = q.MarkRetry(j.ID, "boom", time.Now().Add(time.Hour))

	if err != nil {
		t.Fatalf("MarkRetry: %v", err)
	}

	_, err = q.ClaimNext(time.Now())

	if !errors.Is(err, ErrJobNotFound) {
		t.Fatalf("job due in an hour must not be claimable, got %v", err)
	}

	j2, err := q.ClaimNext(time.Now().Add(2 * time.Hour))

	if err != nil {
		t.Fatalf("ClaimNext after due: %v", err)
	}

	if j2.Attempts != 1 {
		t.Fatalf("want 1 attempt recorded, got %d", j2.Attempts)
	}

	err = q.MarkDone(j2.ID)

	if err != nil {
		t.Fatalf("MarkDone: %v", err)
	}

	if q.Len() != 0 {
		t.Fatalf("want empty queue, got %d", q.Len())
	}
}

func TestQueueKeepsSnapshotArrivingMidFlight(t *testing.T) {
	q := NewQueue()

	q.Enqueue("users", json.RawMessage(`{"v":1}`))

	j, _ := q.ClaimNext(time.Now())

	// new save lands while the old snapshot is being pushed
	q.Enqueue("users", json.RawMessage(`{"v":2}`))

	err := q.MarkDone(j.ID)

	if err != nil {
		t.Fatalf("MarkDone: %v", err)
	}

	if q.Len() != 1 {
		t.Fatal("newer snapshot must stay queued after MarkDone")
	}
}

func TestWorkerRetriesUntilSuccess(t *testing.T) {
	q := NewQueue()
	q.Enqueue("users", json.RawMessage(`{}`))

	// the worker's retry schedule uses seconds-scale backoff, so drive
	// the job through by hand instead of running the ticker loop
	pusher := &scriptedPusher{failures: 1}
	metrics := observability.NewSyncMetrics()
	w := NewWorker(WorkerConfig{MaxAttempts: 3}, q, pusher, metrics, nil)

	j, err := q.ClaimNext(time.Now())

	if err != nil {
		t.Fatalf("ClaimNext: %v", err)
	}
	w.process(context.Background(), j)

	snap := metrics.Snapshot()

	if snap.Retried != 1 || snap.Done != 0 {
		t.Fatalf("after first push want 1 retry, got %+v", snap)
	}

	j, err = q.ClaimNext(time.Now().Add(time.Hour))

	if err != nil {
		t.Fatalf("ClaimNext retry: %v", err)
	}
	w.process(context.Background(), j)

	snap = metrics.Snapshot()

	if snap.Done != 1 {
		t.Fatalf("want 1 done, got %+v", snap)
	}

	if q.Len() != 0 {
		t.Fatalf("want drained queue, got %d", q.Len())
	}
}

func TestWorkerGivesUpAfterMaxAttempts(t *testing.T) {
	q := NewQueue()
	q.Enqueue("users", json.RawMessage(`{}`))

	pusher := &scriptedPusher{failures: 100}
	metrics := observability.NewSyncMetrics()
	w := NewWorker(WorkerConfig{MaxAttempts: 2}, q, pusher, metrics, nil)

	now := time.Now()

	for i := 0; i < 2; i++ {
		j, err := q.ClaimNext(now)

		if err != nil {
			t.Fatalf("ClaimNext attempt %d: %v", i, err)
		}
		w.process(context.Background(), j)

		now = now.Add(time.Hour)
	}

	snap := metrics.Snapshot()

	if snap.Failed != 1 {
		t.Fatalf("want 1 failed, got %+v", snap)
	}

	// failed jobs stay visible for the health endpoint
	jobs := q.Snapshot()

	if len(jobs) != 1 || jobs[0].Status != JobFailed {
		t.Fatalf("want one failed job in snapshot, got %+v", jobs)
	}
}

func TestProtectedPusherOpensAndRecovers(t *testing.T) {
	pusher := &scriptedPusher{failures: 2}

	p := NewProtectedPusher(pusher, ProtectedPusherConfig{
		FailureThreshold: 2,
		Cooldown:         20 * time.Millisecond,
	})

	ctx := context.Background()
	doc := json.RawMessage(`{}`)

	for i := 0; i < 2; i++ {
		err := p.Push(ctx, "users", doc)

		if err == nil {
			t.Fatalf("push %d: want failure", i)
		}
	}

	// circuit is open now, the inner pusher must not be reached
	err := p.Push(ctx, "users", doc)

	if !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("want ErrCircuitOpen, got %v", err)
	}

	if pusher.calls != 2 {
		t.Fatalf("inner pusher called through open circuit: %d calls", pusher.calls)
	}

	time.Sleep(25 * time.Millisecond)

	// half-open trial call succeeds and closes the circuit
	err = p.Push(ctx, "users", doc)

	if err != nil {
		t.Fatalf("half-open push: %v", err)
	}

	err = p.Push(ctx, "users", doc)

	if err != nil {
		t.Fatalf("closed push: %v", err)
	}
}
