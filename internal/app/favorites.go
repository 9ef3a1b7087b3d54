package app

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"museum_directory/internal/domain"
)

// FavoritesService keeps the user's favorite museums. Each favorite stores a
// snapshot of the museum so the list survives catalog outages.
type FavoritesService struct {
	repo    domain.FavoritesRepository
	catalog domain.Catalog
	now     func() time.Time
}

func NewFavoritesService(r domain.FavoritesRepository, c domain.Catalog) *FavoritesService {
	return &FavoritesService{repo: r, catalog: c, now: time.Now}
}

// WithClock replaces the time source, for tests.
func (s *FavoritesService) WithClock(now func() time.Time) *FavoritesService {
	s.now = now
	return s
}

// Add resolves the museum through the catalog and stores it. Adding an
// existing favorite refreshes its snapshot and keeps the original date.
func (s *FavoritesService) Add(ctx context.Context, museumID string) (domain.Favorite, error) {
	museumID = strings.TrimSpace(museumID)
	if museumID == "" {
		return domain.Favorite{}, domain.NewValidationError("id", "must not be empty")
	}
	m, err := s.catalog.GetByID(ctx, museumID)
	if err != nil {
		return domain.Favorite{}, err
	}

	f := domain.Favorite{MuseumID: museumID, Museum: m, AddedAt: s.now().UTC()}
	prev, err := s.repo.Get(ctx, museumID)
	switch {
	case err == nil:
		f.AddedAt = prev.AddedAt
	case !errors.Is(err, domain.ErrNotFound):
		return domain.Favorite{}, err
	}

	if err := s.repo.Upsert(ctx, f); err != nil {
		return domain.Favorite{}, err
	}
	log.Debug().Str("museum_id", museumID).Msg("favorite saved")
	return f, nil
}

// Remove reports whether the museum was a favorite.
func (s *FavoritesService) Remove(ctx context.Context, museumID string) (bool, error) {
	return s.repo.Delete(ctx, strings.TrimSpace(museumID))
}

// Toggle adds the museum when absent and removes it otherwise. added tells
// which happened; f is only set when the museum was added.
//
// Every toggle ends with exactly one successful Delete or Insert, so
// concurrent toggles of one museum behave as if run one after another.
func (s *FavoritesService) Toggle(ctx context.Context, museumID string) (added bool, f domain.Favorite, err error) {
	museumID = strings.TrimSpace(museumID)
	if museumID == "" {
		return false, domain.Favorite{}, domain.NewValidationError("id", "must not be empty")
	}
	var m *domain.Museum
	for {
		removed, err := s.repo.Delete(ctx, museumID)
		if err != nil {
			return false, domain.Favorite{}, err
		}
		if removed {
			return false, domain.Favorite{}, nil
		}
		if m == nil {
			got, err := s.catalog.GetByID(ctx, museumID)
			if err != nil {
				return false, domain.Favorite{}, err
			}
			m = &got
		}
		f = domain.Favorite{MuseumID: museumID, Museum: *m, AddedAt: s.now().UTC()}
		inserted, err := s.repo.Insert(ctx, f)
		if err != nil {
			return false, domain.Favorite{}, err
		}
		if inserted {
			return true, f, nil
		}
		// another toggle added it in between; undo it on this turn
		if err := ctx.Err(); err != nil {
			return false, domain.Favorite{}, err
		}
	}
}

func (s *FavoritesService) Has(ctx context.Context, museumID string) (bool, error) {
	_, err := s.repo.Get(ctx, strings.TrimSpace(museumID))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, domain.ErrNotFound):
		return false, nil
	}
	return false, err
}

// List returns favorites, most recently added first.
func (s *FavoritesService) List(ctx context.Context) ([]domain.Favorite, error) {
	return s.repo.List(ctx)
}
