package providers

import (
	"context"

	"github.com/zatekoja/erbedfinder/backend/internal/domain/entities"
)

// GeolocationProvider resolves an approximate user coordinate. Results are
// advisory and never trusted for anything beyond distance ranking.
type GeolocationProvider interface {
	// LocateIP returns the coordinate for a client IP address
	LocateIP(ctx context.Context, ip string) (*entities.Coordinate, error)
}
