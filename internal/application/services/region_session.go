package services

import (
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/zatekoja/erbedfinder/backend/internal/domain/entities"
	apperrors "github.com/zatekoja/erbedfinder/backend/pkg/errors"
)

// RegionSessions tracks the latest region run per device so a result that was
// superseded by a newer region change is discarded instead of served.
type RegionSessions struct {
	mu     sync.Mutex
	latest map[string]string
	newID  func() string
}

// NewRegionSessions creates an empty run registry
func NewRegionSessions() *RegionSessions {
	return &RegionSessions{
		latest: make(map[string]string),
		newID:  uuid.NewString,
	}
}

// Begin records a new run for device and returns its id. Any earlier run for
// the same device becomes stale.
func (r *RegionSessions) Begin(device string) string {
	id := r.newID()
	r.mu.Lock()
	r.latest[sessionKey(device)] = id
	r.mu.Unlock()
	return id
}

// IsCurrent reports whether runID is still the device's latest run
func (r *RegionSessions) IsCurrent(device, runID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.latest[sessionKey(device)] == runID
}

// Complete stamps result with runID if the run is still current and releases
// it. A superseded run yields a conflict error and no result.
func (r *RegionSessions) Complete(device, runID string, result entities.FetchResult) (entities.FetchResult, error) {
	key := sessionKey(device)

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.latest[key] != runID {
		return entities.FetchResult{}, apperrors.NewConflictError("region request superseded by a newer one")
	}
	delete(r.latest, key)
	result.RunID = runID
	return result, nil
}

func sessionKey(device string) string {
	device = strings.TrimSpace(device)
	if device == "" {
		return "anonymous"
	}
	return device
}
