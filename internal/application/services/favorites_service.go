package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"

	"github.com/zatekoja/erbedfinder/backend/internal/domain/entities"
	"github.com/zatekoja/erbedfinder/backend/internal/domain/providers"
	"github.com/zatekoja/erbedfinder/backend/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/erbedfinder/backend/pkg/errors"
)

const favoritesKey = "favorites"

// FavoritesService persists each owner's pinned hospital snapshots
type FavoritesService struct {
	store providers.CacheProvider
	mu    sync.Mutex
}

// NewFavoritesService creates a new favorites service
func NewFavoritesService(store providers.CacheProvider) *FavoritesService {
	return &FavoritesService{store: store}
}

// FavoritesKey returns the persisted key for owner; the anonymous owner uses "favorites".
func FavoritesKey(owner string) string {
	owner = strings.TrimSpace(owner)
	if owner == "" {
		return favoritesKey
	}
	return favoritesKey + ":" + owner
}

// List returns owner's favorites in pin order
func (s *FavoritesService) List(ctx context.Context, owner string) ([]entities.HospitalRecord, error) {
	return s.load(ctx, owner)
}

// IsFavorite reports whether id is pinned by owner
func (s *FavoritesService) IsFavorite(ctx context.Context, owner, id string) (bool, error) {
	favorites, err := s.load(ctx, owner)
	if err != nil {
		return false, err
	}
	return indexOf(favorites, id) >= 0, nil
}

// Toggle removes record if it is pinned, otherwise appends a snapshot of it.
// It returns the new favorite status and the resulting set.
func (s *FavoritesService) Toggle(ctx context.Context, owner string, record entities.HospitalRecord) (bool, []entities.HospitalRecord, error) {
	if strings.TrimSpace(record.ID) == "" {
		return false, nil, apperrors.NewValidationError("hospital id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	favorites, err := s.load(ctx, owner)
	if err != nil {
		return false, nil, err
	}

	pinned := false
	if i := indexOf(favorites, record.ID); i >= 0 {
		favorites = append(favorites[:i], favorites[i+1:]...)
	} else {
		favorites = append(favorites, record.Snapshot())
		pinned = true
	}

	data, err := json.Marshal(favorites)
	if err != nil {
		return false, nil, apperrors.NewInternalError("failed to encode favorites", err)
	}
	if err := s.store.Set(ctx, FavoritesKey(owner), data, 0); err != nil {
		return false, nil, apperrors.NewStorageError("failed to persist favorites", err)
	}

	observability.LoggerFromContext(ctx).Debug().
		Str("hospital_id", record.ID).
		Bool("favorite", pinned).
		Int("favorites", len(favorites)).
		Msg("Toggled favorite")
	return pinned, favorites, nil
}

// load reads the set; a missing or unreadable entry is an empty set.
func (s *FavoritesService) load(ctx context.Context, owner string) ([]entities.HospitalRecord, error) {
	key := FavoritesKey(owner)
	data, err := s.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, providers.ErrCacheMiss) {
			return []entities.HospitalRecord{}, nil
		}
		return nil, apperrors.NewStorageError("failed to read favorites", err)
	}

	var favorites []entities.HospitalRecord
	if err := json.Unmarshal(data, &favorites); err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Str("key", key).Msg("Discarding unreadable favorites")
		return []entities.HospitalRecord{}, nil
	}
	if favorites == nil {
		favorites = []entities.HospitalRecord{}
	}
	return favorites, nil
}

func indexOf(records []entities.HospitalRecord, id string) int {
	for i, r := range records {
		if r.ID == id {
			return i
		}
	}
	return -1
}
