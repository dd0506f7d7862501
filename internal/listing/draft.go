package listing

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/okovalenko/uniconnect/internal/domain/announcement"
	"github.com/okovalenko/uniconnect/internal/store"
)

const draftsCollection = "drafts"

var ErrNoDraft = errors.New("no saved draft")

// Draft is an unsaved announcement form, kept per author so an
// interrupted session can resume where it stopped.
type Draft struct {
	Form    announcement.CreateRequest `json:"form"`
	SavedAt time.Time                  `json:"savedAt"`
}

// drafts are a single document keyed by author id
type draftDoc map[string]Draft

func (s *Service) SaveDraft(ctx context.Context, authorID string, form announcement.CreateRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.loadDrafts(ctx)

	if err != nil {
		return err
	}

	doc[authorID] = Draft{Form: form, SavedAt: time.Now()}

	_, err = s.store.Save(ctx, draftsCollection, doc)

	return err
}

func (s *Service) LoadDraft(ctx context.Context, authorID string) (Draft, error) {
	doc, err := s.loadDrafts(ctx)

	if err != nil {
		return Draft{}, err
	}

	d, ok := doc[authorID]

	if !ok {
		return Draft{}, ErrNoDraft
	}

	return d, nil
}

func (s *Service) ClearDraft(ctx context.Context, authorID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.loadDrafts(ctx)

	if err != nil {
		return err
	}

	if _, ok := doc[authorID]; !ok {
		return nil
	}

	delete(doc, authorID)

	_, err = s.store.Save(ctx, draftsCollection, doc)

	return err
}

func (s *Service) loadDrafts(ctx context.Context) (draftDoc, error) {
	var doc draftDoc

	err := s.store.Load(ctx, draftsCollection, &doc)

	if err != nil {
		if errors.Is(err, store.ErrNoDocument) {
			return draftDoc{}, nil
		}
		return nil, err
	}

	if doc == nil {
		doc = draftDoc{}
	}

	return doc, nil
}

// AutoSaver persists a form 30 seconds after the author's last change.
// Every Touch restarts the timer, so only the final state in a burst of
// edits is written.
type AutoSaver struct {
	svc      *Service
	interval time.Duration

	mu     sync.Mutex
	timers map[string]*time.Timer
	closed bool
}

func NewAutoSaver(svc *Service, interval time.Duration) *AutoSaver {
	if interval <= 0 {
		interval = 30 * time.Second
	}

	return &AutoSaver{
		svc:      svc,
		interval: interval,
		timers:   make(map[string]*time.Timer),
	}
}

func (as *AutoSaver) Touch(authorID string, form announcement.CreateRequest) {
	as.mu.Lock()
	defer as.mu.Unlock()

	if as.closed {
		return
	}

	if t, ok := as.timers[authorID]; ok {
		t.Stop()
	}

	as.timers[authorID] = time.AfterFunc(as.interval, func() {
		as.mu.Lock()
		delete(as.timers, authorID)
		as.mu.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := as.svc.SaveDraft(ctx, authorID, form); err != nil {
			as.svc.logger.Warn("draft autosave failed", "author", authorID, "error", err)
		}
	})
}

// Cancel drops a pending autosave without writing, e.g. after publish.
func (as *AutoSaver) Cancel(authorID string) {
	as.mu.Lock()
	defer as.mu.Unlock()

	if t, ok := as.timers[authorID]; ok {
		t.Stop()
		delete(as.timers, authorID)
	}
}

// Stop cancels every pending autosave. Used at shutdown.
func (as *AutoSaver) Stop() {
	as.mu.Lock()
	defer as.mu.Unlock()

	as.closed = true

	for id, t := range as.timers {
		t.Stop()
		delete(as.timers, id)
	}
}
