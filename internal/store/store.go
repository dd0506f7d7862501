package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/okovalenko/uniconnect/internal/cache"
	"github.com/okovalenko/uniconnect/internal/observability"
)

// ErrNoDocument is returned by a Durable backend when the collection has
// never been written.
var ErrNoDocument = errors.New("store: no document")

// Durable is the local persistence backend. The file backend is the
// default; the postgres backend is selected via config.
type Durable interface {
	Get(ctx context.Context, key string) (json.RawMessage, error)
	Put(ctx context.Context, key string, doc json.RawMessage) error
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context) ([]string, error)
}

// Pusher replicates a collection document to the remote mirror. A push
// failure never fails a Save.
type Pusher interface {
	Push(ctx context.Context, collection string, doc json.RawMessage) error
}

// Requeuer accepts a failed replication for later retry by the sync worker.
type Requeuer interface {
	Enqueue(collection string, doc json.RawMessage)
}

// Seeder fetches the initial document for a collection that has never
// been written locally.
type Seeder interface {
	Fetch(ctx context.Context, key string) (json.RawMessage, error)
}

// PersistenceError wraps a durable-backend failure. Mirror failures are
// deliberately not wrapped in it; only the local write is authoritative.
type PersistenceError struct {
	Op  string
	Key string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("store: %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// SaveResult reports what actually happened during a Save. Replicated is
// false when the mirror was down or not configured; the local write still
// succeeded in that case.
type SaveResult struct {
	Replicated bool
}

type Adapter struct {
	durable  Durable
	cache    *cache.Cache
	mirror   Pusher
	retry    Requeuer
	seeder   Seeder
	defaults map[string]func() any
	prom     *observability.Prom
	logger   *slog.Logger
}

type Options struct {
	Mirror Pusher
	Retry  Requeuer
	Seeder Seeder
	Prom   *observability.Prom
	Logger *slog.Logger
}

func NewAdapter(durable Durable, cacheTTL time.Duration, opts Options) *Adapter {
	logger := opts.Logger

	if logger == nil {
		logger = slog.Default()
	}

	return &Adapter{
		durable:  durable,
		cache:    cache.New(cacheTTL),
		mirror:   opts.Mirror,
		retry:    opts.Retry,
		seeder:   opts.Seeder,
		defaults: make(map[string]func() any),
		prom:     opts.Prom,
		logger:   logger,
	}
}

// RegisterDefault installs the fallback value produced when neither the
// durable backend nor the seed source has the collection. Not safe for
// concurrent use; call during wiring only.
func (a *Adapter) RegisterDefault(key string, fn func() any) {
	a.defaults[key] = fn
}

// Load resolves a collection into v, trying cache, then the durable
// backend, then the seed source, then the registered default. Whatever
// deeper layer produced the document is written back to the layers above
// it so the next Load is served from cache.
func (a *Adapter) Load(ctx context.Context, key string, v any) error {
	if raw, ok := a.cache.Get(key); ok {
		doc, ok := raw.(json.RawMessage)
		if ok {
			return json.Unmarshal(doc, v)
		}
	}

	var doc json.RawMessage

	err := a.observe("get", func() error {
		var getErr error
		doc, getErr = a.durable.Get(ctx, key)
		return getErr
	})

	if err == nil {
		a.cache.Set(key, doc)
		return json.Unmarshal(doc, v)
	}

	if !errors.Is(err, ErrNoDocument) {
		return &PersistenceError{Op: "get", Key: key, Err: err}
	}

	// never written locally, try the seed source

	if a.seeder != nil {
		seeded, seedErr := a.seeder.Fetch(ctx, key)

		if seedErr == nil {
			err = json.Unmarshal(seeded, v)

			if err != nil {
				return fmt.Errorf("store: seed for %q is not valid json: %w", key, err)
			}
			a.writeBack(ctx, key, seeded)
			return nil
		}
		a.logger.Debug("seed fetch failed", "collection", key, "error", seedErr)
	}

	fn, ok := a.defaults[key]

	if !ok {
		return &PersistenceError{Op: "get", Key: key, Err: ErrNoDocument}
	}

	doc, err = json.Marshal(fn())

	if err != nil {
		return err
	}
	a.writeBack(ctx, key, doc)

	return json.Unmarshal(doc, v)
}

// Save marshals v, replicates it to the mirror best-effort, then writes
// it to the durable backend and cache. Only a durable failure is an
// error; the mirror outcome is reported in the result.
func (a *Adapter) Save(ctx context.Context, key string, v any) (SaveResult, error) {
	doc, err := json.Marshal(v)

	if err != nil {
		return SaveResult{}, err
	}

	res := SaveResult{}

	if a.mirror != nil {
		pushErr := a.mirror.Push(ctx, key, doc)

		if pushErr == nil {
			res.Replicated = true
		} else {
			a.logger.Warn("mirror push failed, continuing with local save",
				"collection", key,
				"error", pushErr,
			)

			if a.retry != nil {
				a.retry.Enqueue(key, doc)
			}
		}
	}

	err = a.observe("put", func() error {
		return a.durable.Put(ctx, key, doc)
	})

	if err != nil {
		return res, &PersistenceError{Op: "put", Key: key, Err: err}
	}
	a.cache.Set(key, json.RawMessage(doc))

	return res, nil
}

// Delete removes the collection locally. The mirror keeps its last copy;
// the board never deletes remotely.
func (a *Adapter) Delete(ctx context.Context, key string) error {
	err := a.observe("delete", func() error {
		return a.durable.Delete(ctx, key)
	})

	if err != nil && !errors.Is(err, ErrNoDocument) {
		return &PersistenceError{Op: "delete", Key: key, Err: err}
	}
	a.cache.Delete(key)

	return nil
}

// Keys lists the collections the durable backend currently holds.
func (a *Adapter) Keys(ctx context.Context) ([]string, error) {
	var keys []string

	err := a.observe("keys", func() error {
		var kErr error
		keys, kErr = a.durable.Keys(ctx)
		return kErr
	})

	if err != nil {
		return nil, &PersistenceError{Op: "keys", Key: "", Err: err}
	}

	return keys, nil
}

// InvalidateCache drops the cached copy of a collection so the next Load
// hits the durable backend.
func (a *Adapter) InvalidateCache(key string) {
	a.cache.Delete(key)
}

// writeBack persists a seeded or defaulted document so later Loads are
// local. A failure here is logged, not returned; the caller already has
// a usable value.
func (a *Adapter) writeBack(ctx context.Context, key string, doc json.RawMessage) {
	err := a.observe("put", func() error {
		return a.durable.Put(ctx, key, doc)
	})

	if err != nil {
		a.logger.Warn("write-back failed", "collection", key, "error", err)
		return
	}
	a.cache.Set(key, doc)
}

func (a *Adapter) observe(op string, fn func() error) error {
	if a.prom == nil {
		return fn()
	}
	return a.prom.ObserveStore(op, fn)
}
