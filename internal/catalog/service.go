package catalog

import (
	"context"
	"errors"

	"github.com/okovalenko/uniconnect/internal/store"
)

const catalogCollection = "catalog"

type CollectionStore interface {
	Load(ctx context.Context, key string, v any) error
}

// Service resolves the reference data through the store adapter so a
// seeded or locally edited catalog wins over the built-in table.
type Service struct {
	store CollectionStore
}

func NewService(st CollectionStore) *Service {
	return &Service{store: st}
}

func (s *Service) Catalog(ctx context.Context) (Catalog, error) {
	var c Catalog

	err := s.store.Load(ctx, catalogCollection, &c)

	if err != nil {
		if errors.Is(err, store.ErrNoDocument) {
			return Default(), nil
		}
		return Catalog{}, err
	}

	return c, nil
}
