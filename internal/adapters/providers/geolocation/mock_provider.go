package geolocation

import (
	"context"

	"github.com/zatekoja/erbedfinder/backend/internal/domain/entities"
	"github.com/zatekoja/erbedfinder/backend/internal/domain/providers"
)

// MockGeolocationProvider returns a fixed coordinate for every address.
type MockGeolocationProvider struct {
	coordinate entities.Coordinate
}

// NewMockGeolocationProvider creates a provider that always answers with the
// default reference point (central Seoul).
func NewMockGeolocationProvider() providers.GeolocationProvider {
	return NewStaticGeolocationProvider(entities.DefaultReference)
}

// NewStaticGeolocationProvider creates a provider pinned to coord.
func NewStaticGeolocationProvider(coord entities.Coordinate) providers.GeolocationProvider {
	return &MockGeolocationProvider{coordinate: coord}
}

// LocateIP ignores ip and returns the pinned coordinate
func (m *MockGeolocationProvider) LocateIP(ctx context.Context, ip string) (*entities.Coordinate, error) {
	c := m.coordinate
	return &c, nil
}
