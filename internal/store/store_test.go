package store

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"
)

type fakePusher struct {
	calls int
	err   error
}

func (p *fakePusher) Push(ctx context.Context, collection string, doc json.RawMessage) error {
	p.calls++
	return p.err
}

type fakeRequeuer struct {
	collections []string
}

func (r *fakeRequeuer) Enqueue(collection string, doc json.RawMessage) {
	r.collections = append(r.collections, collection)
}

type fakeSeeder struct {
	docs map[string]json.RawMessage
}

func (s *fakeSeeder) Fetch(ctx context.Context, key string) (json.RawMessage, error) {
	doc, ok := s.docs[key]

	if !ok {
		return nil, errors.New("no seed")
	}
	return doc, nil
}

type testDoc struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func newFileAdapter(t *testing.T, opts Options) *Adapter {
	t.Helper()

	fs, err := NewFileStore(t.TempDir())

	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}

	return NewAdapter(fs, time.Minute, opts)
}

func TestAdapterLoadFallsBackToDefault(t *testing.T) {
	a := newFileAdapter(t, Options{})
	a.RegisterDefault("settings", func() any {
		return testDoc{Name: "default", Count: 7}
	})

	var got testDoc

	err := a.Load(context.Background(), "settings", &got)

	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if got.Name != "default" || got.Count != 7 {
		t.Fatalf("unexpected doc: %+v", got)
	}

	// the default must have been written back so a cold Load is durable
	a.InvalidateCache("settings")

	var again testDoc

	err = a.Load(context.Background(), "settings", &again)

	if err != nil {
		t.Fatalf("Load after write-back: %v", err)
	}

	if again != got {
		t.Fatalf("write-back mismatch: %+v vs %+v", again, got)
	}
}

func TestAdapterLoadUnknownCollection(t *testing.T) {
	a := newFileAdapter(t, Options{})

	var got testDoc

	err := a.Load(context.Background(), "nope", &got)

	if !errors.Is(err, ErrNoDocument) {
		t.Fatalf("want ErrNoDocument, got %v", err)
	}

	var pErr *PersistenceError

	if !errors.As(err, &pErr) {
		t.Fatalf("want PersistenceError, got %T", err)
	}
}

func TestAdapterLoadPrefersSeedOverDefault(t *testing.T) {
	seed, _ := json.Marshal(testDoc{Name: "seeded", Count: 1})

	a := newFileAdapter(t, Options{
		Seeder: &fakeSeeder{docs: map[string]json.RawMessage{"announcements": seed}},
	})
	a.RegisterDefault("announcements", func() any {
		return testDoc{Name: "default"}
	})

	var got testDoc

	err := a.Load(context.Background(), "announcements", &got)

	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if got.Name != "seeded" {
		t.Fatalf("want seeded doc, got %+v", got)
	}
}

func TestAdapterSaveRoundTrip(t *testing.T) {
	a := newFileAdapter(t, Options{})

	want := testDoc{Name: "users", Count: 3}

	res, err := a.Save(context.Background(), "users", want)

	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	// no mirror configured, so nothing was replicated
	if res.Replicated {
		t.Fatal("want Replicated=false without a mirror")
	}

	a.InvalidateCache("users")

	var got testDoc

	err = a.Load(context.Background(), "users", &got)

	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if got != want {
		t.Fatalf("round trip mismatch: %+v vs %+v", got, want)
	}
}

func TestAdapterSaveMirrorDownStillPersists(t *testing.T) {
	pusher := &fakePusher{err: errors.New("mirror down")}
	retry := &fakeRequeuer{}

	a := newFileAdapter(t, Options{Mirror: pusher, Retry: retry})

	res, err := a.Save(context.Background(), "announcements", testDoc{Name: "x"})

	if err != nil {
		t.Fatalf("Save must not fail on mirror errors: %v", err)
	}

	if res.Replicated {
		t.Fatal("want Replicated=false when the push fails")
	}

	if len(retry.collections) != 1 || retry.collections[0] != "announcements" {
		t.Fatalf("want one retry enqueued, got %v", retry.collections)
	}

	var got testDoc

	err = a.Load(context.Background(), "announcements", &got)

	if err != nil || got.Name != "x" {
		t.Fatalf("local copy missing after mirror failure: %+v %v", got, err)
	}
}

func TestAdapterSaveReplicates(t *testing.T) {
	pusher := &fakePusher{}

	a := newFileAdapter(t, Options{Mirror: pusher})

	res, err := a.Save(context.Background(), "users", testDoc{Name: "y"})

	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	if !res.Replicated {
		t.Fatal("want Replicated=true")
	}

	if pusher.calls != 1 {
		t.Fatalf("want exactly one push, got %d", pusher.calls)
	}
}

func TestFileStoreKeysAndDelete(t *testing.T) {
	fs, err := NewFileStore(t.TempDir())

	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}

	ctx := context.Background()

	for _, k := range []string{"users", "announcements"} {
		err = fs.Put(ctx, k, json.RawMessage(`{}`))

		if err != nil {
			t.Fatalf("Put %s: %v", k, err)
		}
	}

	keys, err := fs.Keys(ctx)

	if err != nil {
		t.Fatalf("Keys: %v", err)
	}

	if len(keys) != 2 {
		t.Fatalf("want 2 keys, got %v", keys)
	}

	err = fs.Delete(ctx, "users")

	if err != nil {
		t.Fatalf("Delete: %v", err)
	}

	_, err = fs.Get(ctx, "users")

	if !errors.Is(err, ErrNoDocument) {
		t.Fatalf("want ErrNoDocument after delete, got %v", err)
	}

	err = fs.Delete(ctx, "users")

	if !errors.Is(err, ErrNoDocument) {
		t.Fatalf("double delete: want ErrNoDocument, got %v", err)
	}
}
