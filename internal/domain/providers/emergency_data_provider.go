package providers

import (
	"context"

	"github.com/zatekoja/erbedfinder/backend/internal/domain/entities"
)

// LiveStatus classifies a live bed-count response
type LiveStatus int

const (
	// LiveUnusable covers transport failures, error markers and unrecognized envelopes
	LiveUnusable LiveStatus = iota
	// LiveEmpty is a well-formed envelope carrying zero items
	LiveEmpty
	// LivePopulated is a well-formed envelope carrying at least one item
	LivePopulated
)

func (s LiveStatus) String() string {
	switch s {
	case LiveEmpty:
		return "empty"
	case LivePopulated:
		return "populated"
	default:
		return "unusable"
	}
}

// LiveResponse is the outcome of a live bed-count query. Failures are carried
// in Err with Status LiveUnusable rather than returned.
type LiveResponse struct {
	Status  LiveStatus
	Records []entities.HospitalRecord
	Err     error
}

// Usable reports whether the pipeline may use the response instead of simulating.
func (r LiveResponse) Usable() bool {
	return r.Status != LiveUnusable
}

// ListResponse is the outcome of a facility-roster query keyed by facility id.
type ListResponse struct {
	Usable      bool
	Coordinates map[string]entities.Coordinate
	Err         error
}

// EmergencyDataProvider issues the two upstream queries
type EmergencyDataProvider interface {
	// FetchLive queries bed availability for a province and optional district
	FetchLive(ctx context.Context, query entities.RegionQuery) LiveResponse

	// FetchList queries facility coordinates for a whole province
	FetchList(ctx context.Context, province string) ListResponse
}
