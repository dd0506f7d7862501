package listing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/okovalenko/uniconnect/internal/domain/announcement"
	"github.com/okovalenko/uniconnect/internal/store"
)

type fakeOrgCounter struct {
	universities int
	companies    int
}

func (c fakeOrgCounter) CountByType(ctx context.Context) (int, int, error) {
	return c.universities, c.companies, nil
}

func newTestService(t *testing.T) *Service {
	t.Helper()

	fs, err := store.NewFileStore(t.TempDir())

	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	adapter := store.NewAdapter(fs, time.Minute, store.Options{})

	return NewService(adapter, fakeOrgCounter{universities: 2, companies: 3}, nil)
}

func createRequest() announcement.CreateRequest {
	return announcement.CreateRequest{
		Title:       "Лекція з Go",
		Category:    "lecture",
		Description: "Практика бекенду",
		Format:      "online",
	}
}

func TestCreateDefaults(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	a, err := svc.Create(ctx, "author-1", "company", createRequest())

	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if a.ID == "" || a.Status != announcement.StatusActive || !a.IsActive {
		t.Fatalf("bad defaults: %+v", a)
	}

	if a.ViewCount != 0 {
		t.Fatalf("new posting must start at zero views, got %d", a.ViewCount)
	}

	if a.AuthorID != "author-1" || a.OrganizationType != "company" {
		t.Fatalf("author not recorded: %+v", a)
	}
}

func TestGetByIDIsPure(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	a, err := svc.Create(ctx, "author-1", "company", createRequest())

	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	for i := 0; i < 3; i++ {
		got, err := svc.GetByID(ctx, a.ID)

		if err != nil {
			t.Fatalf("GetByID: %v", err)
		}

		if got.ViewCount != 0 {
			t.Fatalf("GetByID must not count views, got %d", got.ViewCount)
		}
	}

	_, err = svc.GetByID(ctx, "missing")

	if !errors.Is(err, announcement.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestRecordViewIsMonotonic(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	a, err := svc.Create(ctx, "author-1", "company", createRequest())

	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	for want := 1; want <= 3; want++ {
		got, err := svc.RecordView(ctx, a.ID)

		if err != nil {
			t.Fatalf("RecordView: %v", err)
		}

		if got != want {
			t.Fatalf("want %d views, got %d", want, got)
		}
	}

	_, err = svc.RecordView(ctx, "missing")

	if !errors.Is(err, announcement.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestUpdateMergePatch(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	a, err := svc.Create(ctx, "author-1", "company", createRequest())

	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	title := "Оновлена лекція"
	urgent := true

	updated, err := svc.Update(ctx, a.ID, announcement.UpdatePatch{
		Title:  &title,
		Urgent: &urgent,
	})

	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	if updated.Title != title || !updated.Urgent {
		t.Fatalf("patch not applied: %+v", updated)
	}

	// untouched fields survive
	if updated.Category != "lecture" || updated.Description != "Практика бекенду" {
		t.Fatalf("patch clobbered fields: %+v", updated)
	}

	if !updated.UpdatedAt.After(a.UpdatedAt) && !updated.UpdatedAt.Equal(a.UpdatedAt) {
		t.Fatalf("updatedAt not refreshed: %v vs %v", updated.UpdatedAt, a.UpdatedAt)
	}

	_, err = svc.Update(ctx, "missing", announcement.UpdatePatch{Title: &title})

	if !errors.Is(err, announcement.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	a, err := svc.Create(ctx, "author-1", "company", createRequest())

	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	err = svc.Delete(ctx, a.ID)

	if err != nil {
		t.Fatalf("Delete: %v", err)
	}

	_, err = svc.GetByID(ctx, a.ID)

	if !errors.Is(err, announcement.ErrNotFound) {
		t.Fatalf("deleted posting still readable: %v", err)
	}

	err = svc.Delete(ctx, a.ID)

	if !errors.Is(err, announcement.ErrNotFound) {
		t.Fatalf("double delete: want ErrNotFound, got %v", err)
	}
}

func TestGetActiveExcludesDraftsAndExpired(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, "a1", "company", createRequest())

	if err != nil {
		t.Fatalf("create active: %v", err)
	}

	draft := createRequest()
	draft.Status = announcement.StatusDraft

	_, err = svc.Create(ctx, "a1", "company", draft)

	if err != nil {
		t.Fatalf("create draft: %v", err)
	}

	expired := createRequest()
	expired.ExpiryDate = time.Now().AddDate(0, 0, -2).Format("2006-01-02")

	_, err = svc.Create(ctx, "a1", "company", expired)

	if err != nil {
		t.Fatalf("create expired: %v", err)
	}

	active, err := svc.GetActive(ctx)

	if err != nil {
		t.Fatalf("GetActive: %v", err)
	}

	if len(active) != 1 {
		t.Fatalf("want 1 active posting, got %d", len(active))
	}

	// the author still sees all three
	mine, err := svc.GetByAuthor(ctx, "a1")

	if err != nil || len(mine) != 3 {
		t.Fatalf("GetByAuthor: %d %v", len(mine), err)
	}
}

func TestStatistics(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, "a1", "company", createRequest())

	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	draft := createRequest()
	draft.Status = announcement.StatusDraft

	_, err = svc.Create(ctx, "a1", "company", draft)

	if err != nil {
		t.Fatalf("create draft: %v", err)
	}

	stats, err := svc.Statistics(ctx)

	if err != nil {
		t.Fatalf("Statistics: %v", err)
	}

	want := Statistics{
		TotalAnnouncements:  2,
		ActiveAnnouncements: 1,
		TotalUniversities:   2,
		TotalCompanies:      3,
		TodayAnnouncements:  2,
	}

	if stats != want {
		t.Fatalf("want %+v, got %+v", want, stats)
	}
}

func TestDraftLifecycle(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.LoadDraft(ctx, "a1")

	if !errors.Is(err, ErrNoDraft) {
		t.Fatalf("want ErrNoDraft, got %v", err)
	}

	form := createRequest()

	err = svc.SaveDraft(ctx, "a1", form)

	if err != nil {
		t.Fatalf("SaveDraft: %v", err)
	}

	d, err := svc.LoadDraft(ctx, "a1")

	if err != nil {
		t.Fatalf("LoadDraft: %v", err)
	}

	if d.Form.Title != form.Title || d.SavedAt.IsZero() {
		t.Fatalf("bad draft: %+v", d)
	}

	// drafts are per author
	_, err = svc.LoadDraft(ctx, "someone-else")

	if !errors.Is(err, ErrNoDraft) {
		t.Fatalf("foreign draft leaked: %v", err)
	}

	err = svc.ClearDraft(ctx, "a1")

	if err != nil {
		t.Fatalf("ClearDraft: %v", err)
	}

	_, err = svc.LoadDraft(ctx, "a1")

	if !errors.Is(err, ErrNoDraft) {
		t.Fatalf("cleared draft still readable: %v", err)
	}
}

func TestAutoSaverKeepsLastTouch(t *testing.T) {
	svc := newTestService(t)
	as := NewAutoSaver(svc, 30*time.Millisecond)
	defer as.Stop()

	first := createRequest()
	first.Title = "перший"

	second := createRequest()
	second.Title = "другий"

	as.Touch("a1", first)
	as.Touch("a1", second)

	deadline := time.Now().Add(2 * time.Second)

	for {
		d, err := svc.LoadDraft(context.Background(), "a1")

		if err == nil {
			if d.Form.Title != "другий" {
				t.Fatalf("autosave kept the wrong form: %+v", d.Form)
			}
			return
		}

		if time.Now().After(deadline) {
			t.Fatal("autosave never fired")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestAutoSaverCancel(t *testing.T) {
	svc := newTestService(t)
	as := NewAutoSaver(svc, 20*time.Millisecond)
	defer as.Stop()

	as.Touch("a1", createRequest())
	as.Cancel("a1")

	time.Sleep(60 * time.Millisecond)

	_, err := svc.LoadDraft(context.Background(), "a1")

	if !errors.Is(err, ErrNoDraft) {
		t.Fatalf("cancelled autosave still wrote: %v", err)
	}
}
