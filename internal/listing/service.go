package listing

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/okovalenko/uniconnect/internal/domain/announcement"
	"github.com/okovalenko/uniconnect/internal/store"
)

const announcementsCollection = "announcements"

// CollectionStore is the slice of the store adapter the listing service
// needs.
type CollectionStore interface {
	Load(ctx context.Context, key string, v any) error
	Save(ctx context.Context, key string, v any) (store.SaveResult, error)
}

// OrgCounter supplies the organization totals for the statistics widget.
// Implemented by the identity service.
type OrgCounter interface {
	CountByType(ctx context.Context) (universities, companies int, err error)
}

type Service struct {
	store  CollectionStore
	orgs   OrgCounter
	logger *slog.Logger

	// serializes load-mutate-save cycles on the announcements collection
	mu sync.Mutex
}

func NewService(st CollectionStore, orgs OrgCounter, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		store:  st,
		orgs:   orgs,
		logger: logger,
	}
}

func (s *Service) load(ctx context.Context) ([]announcement.Announcement, error) {
	var items []announcement.Announcement

	err := s.store.Load(ctx, announcementsCollection, &items)

	if err != nil {
		if errors.Is(err, store.ErrNoDocument) {
			return []announcement.Announcement{}, nil
		}
		return nil, err
	}

	return items, nil
}

func (s *Service) save(ctx context.Context, items []announcement.Announcement) error {
	res, err := s.store.Save(ctx, announcementsCollection, items)

	if err != nil {
		return err
	}

	if !res.Replicated {
		s.logger.Warn("announcements collection saved locally only", "count", len(items))
	}

	return nil
}

func (s *Service) Create(ctx context.Context, authorID, orgType string, req announcement.CreateRequest) (announcement.Announcement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.load(ctx)

	if err != nil {
		return announcement.Announcement{}, err
	}

	a := announcement.NewFromCreateRequest(req, authorID, orgType)

	items = append(items, a)

	err = s.save(ctx, items)

	if err != nil {
		return announcement.Announcement{}, err
	}

	return a, nil
}

func (s *Service) Update(ctx context.Context, id string, p announcement.UpdatePatch) (announcement.Announcement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.load(ctx)

	if err != nil {
		return announcement.Announcement{}, err
	}

	for i, a := range items {
		if a.ID != id {
			continue
		}

		items[i] = a.Apply(p)

		err = s.save(ctx, items)

		if err != nil {
			return announcement.Announcement{}, err
		}

		return items[i], nil
	}

	return announcement.Announcement{}, announcement.ErrNotFound
}

func (s *Service) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.load(ctx)

	if err != nil {
		return err
	}

	for i, a := range items {
		if a.ID != id {
			continue
		}

		items = append(items[:i], items[i+1:]...)

		return s.save(ctx, items)
	}

	return announcement.ErrNotFound
}

// GetByID is a pure read; use RecordView to count a viewing.
func (s *Service) GetByID(ctx context.Context, id string) (announcement.Announcement, error) {
	items, err := s.load(ctx)

	if err != nil {
		return announcement.Announcement{}, err
	}

	for _, a := range items {
		if a.ID == id {
			return a, nil
		}
	}

	return announcement.Announcement{}, announcement.ErrNotFound
}

// RecordView increments the view counter and returns the new count.
func (s *Service) RecordView(ctx context.Context, id string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.load(ctx)

	if err != nil {
		return 0, err
	}

	for i, a := range items {
		if a.ID != id {
			continue
		}

		items[i].ViewCount = a.ViewCount + 1

		err = s.save(ctx, items)

		if err != nil {
			return 0, err
		}

		return items[i].ViewCount, nil
	}

	return 0, announcement.ErrNotFound
}

func (s *Service) GetAll(ctx context.Context) ([]announcement.Announcement, error) {
	return s.load(ctx)
}

// GetActive filters to published postings whose expiry date has not
// passed. Drafts and deactivated postings are excluded.
func (s *Service) GetActive(ctx context.Context) ([]announcement.Announcement, error) {
	items, err := s.load(ctx)

	if err != nil {
		return nil, err
	}

	now := time.Now()
	out := make([]announcement.Announcement, 0, len(items))

	for _, a := range items {
		if !a.IsActive || a.Expired(now) {
			continue
		}
		out = append(out, a)
	}

	return out, nil
}

// GetByAuthor returns everything the author created, drafts included.
func (s *Service) GetByAuthor(ctx context.Context, authorID string) ([]announcement.Announcement, error) {
	items, err := s.load(ctx)

	if err != nil {
		return nil, err
	}

	out := make([]announcement.Announcement, 0)

	for _, a := range items {
		if a.AuthorID == authorID {
			out = append(out, a)
		}
	}

	return out, nil
}

type Statistics struct {
	TotalAnnouncements  int `json:"totalAnnouncements"`
	ActiveAnnouncements int `json:"activeAnnouncements"`
	TotalUniversities   int `json:"totalUniversities"`
	TotalCompanies      int `json:"totalCompanies"`
	TodayAnnouncements  int `json:"todayAnnouncements"`
}

func (s *Service) Statistics(ctx context.Context) (Statistics, error) {
	items, err := s.load(ctx)

	if err != nil {
		return Statistics{}, err
	}

	now := time.Now()
	y, m, d := now.Date()

	stats := Statistics{
		TotalAnnouncements: len(items),
	}

	for _, a := range items {
		if a.IsActive && !a.Expired(now) {
			stats.ActiveAnnouncements++
		}

		cy, cm, cd := a.CreatedAt.Date()

		if cy == y && cm == m && cd == d {
			stats.TodayAnnouncements++
		}
	}

	if s.orgs != nil {
		stats.TotalUniversities, stats.TotalCompanies, err = s.orgs.CountByType(ctx)

		if err != nil {
			return Statistics{}, err
		}
	}

	return stats, nil
}
