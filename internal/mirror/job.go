package mirror

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

var ErrJobNotFound = errors.New("mirror: job not found")

type JobStatus string

const (
	JobPending    JobStatus = "pending"
	JobProcessing JobStatus = "processing"
	JobSucceeded  JobStatus = "succeeded"
	JobFailed     JobStatus = "failed"
)

func (s JobStatus) IsValid() bool {
	switch s {
	case JobPending, JobProcessing, JobSucceeded, JobFailed:
		return true
	default:
		return false
	}
}

// SyncJob is one pending replication: the last document of a collection
// that could not be pushed to the mirror at save time.
type SyncJob struct {
	ID         string          `json:"id"`
	Collection string          `json:"collection"`
	Doc        json.RawMessage `json:"doc"`
	Status     JobStatus       `json:"status"`
	Attempts   int             `json:"attempts"`
	LastError  string          `json:"lastError,omitempty"`
	NextRunAt  time.Time       `json:"nextRunAt"`
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}

// Queue holds pending sync jobs in memory. Only the latest document per
// collection is kept; pushing a stale snapshot after a newer one would
// roll the mirror backwards.
type Queue struct {
	mu   sync.Mutex
	jobs map[string]*SyncJob // keyed by collection
}

func NewQueue() *Queue {
	return &Queue{
		jobs: make(map[string]*SyncJob),
	}
}

func (q *Queue) Enqueue(collection string, doc json.RawMessage) {
	now := time.Now()

	q.mu.Lock()
	defer q.mu.Unlock()

	existing, ok := q.jobs[collection]

	if ok {
		// newer snapshot supersedes the queued one, keep the attempt
		// counter so backoff still grows
		existing.Doc = doc
		existing.Status = JobPending
		existing.UpdatedAt = now
		return
	}

	q.jobs[collection] = &SyncJob{
		ID:         uuid.NewString(),
		Collection: collection,
		Doc:        doc,
		Status:     JobPending,
		NextRunAt:  now,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// ClaimNext returns the first due pending job and marks it processing.
func (q *Queue) ClaimNext(now time.Time) (SyncJob, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for _, j := range q.jobs {
		if j.Status != JobPending || j.NextRunAt.After(now) {
			continue
		}
		j.Status = JobProcessing
		j.UpdatedAt = now
		return *j, nil
	}

	return SyncJob{}, ErrJobNotFound
}

func (q *Queue) MarkDone(id string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	for key, j := range q.jobs {
		if j.ID != id {
			continue
		}

		// a newer snapshot may have arrived while this one was in
		// flight; leave it queued in that case
		if j.Status == JobPending {
			return nil
		}
		delete(q.jobs, key)
		return nil
	}

	return ErrJobNotFound
}

func (q *Queue) MarkRetry(id string, lastErr string, nextRunAt time.Time) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	for _, j := range q.jobs {
		if j.ID != id {
			continue
		}
		j.Status = JobPending
		j.Attempts++
		j.LastError = lastErr
		j.NextRunAt = nextRunAt
		j.UpdatedAt = time.Now()
		return nil
	}

	return ErrJobNotFound
}

func (q *Queue) MarkFailed(id string, lastErr string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	for _, j := range q.jobs {
		if j.ID != id {
			continue
		}
		j.Status = JobFailed
		j.Attempts++
		j.LastError = lastErr
		j.UpdatedAt = time.Now()
		return nil
	}

	return ErrJobNotFound
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.jobs)
}

// Snapshot lists the queued jobs for the health endpoint.
func (q *Queue) Snapshot() []SyncJob {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]SyncJob, 0, len(q.jobs))

	for _, j := range q.jobs {
		out = append(out, *j)
	}

	return out
}
