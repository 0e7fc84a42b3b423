package services

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/zatekoja/erbedfinder/backend/internal/domain/entities"
	"github.com/zatekoja/erbedfinder/backend/internal/domain/providers"
	"github.com/zatekoja/erbedfinder/backend/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/erbedfinder/backend/pkg/errors"
)

// Cache family names; they prefix every persisted key.
const (
	LiveCacheFamily        = "live"
	CoordinatesCacheFamily = "list"
)

// HospitalService runs the acquisition pipeline for one region: cache check,
// concurrent live and roster fetch, merge, cache write, or simulation fallback.
type HospitalService struct {
	provider    providers.EmergencyDataProvider
	live        providers.TTLStore[[]entities.HospitalRecord]
	coordinates providers.TTLStore[map[string]entities.Coordinate]
	simulator   *SimulationService
	metrics     *observability.Metrics

	rosterFlight singleflight.Group
}

// NewHospitalService creates a new hospital service
func NewHospitalService(
	provider providers.EmergencyDataProvider,
	live providers.TTLStore[[]entities.HospitalRecord],
	coordinates providers.TTLStore[map[string]entities.Coordinate],
	simulator *SimulationService,
	metrics *observability.Metrics,
) *HospitalService {
	return &HospitalService{
		provider:    provider,
		live:        live,
		coordinates: coordinates,
		simulator:   simulator,
		metrics:     metrics,
	}
}

// Load returns the hospital list for query. It never fails: every outcome is
// one of LIVE with data, LIVE empty, or SIMULATION.
func (s *HospitalService) Load(ctx context.Context, query entities.RegionQuery) entities.FetchResult {
	query = query.Normalize()
	regionKey := query.Key()
	ctx, span := observability.StartSpan(ctx, "HospitalService.Load", attribute.String("region.key", regionKey))
	defer span.End()
	logger := observability.LoggerFromContext(ctx)

	if cached, ok := s.live.Get(ctx, regionKey); ok {
		observability.RecordCacheHit(ctx, s.metrics, LiveCacheFamily)
		return s.finish(ctx, entities.FetchResult{
			Region:    query,
			Hospitals: cached,
			Source:    entities.SourceLive,
			FromCache: true,
		})
	}
	observability.RecordCacheMiss(ctx, s.metrics, LiveCacheFamily)

	// Neither fetch cancels the other; the merge needs both outcomes.
	var (
		live   providers.LiveResponse
		coords map[string]entities.Coordinate
		g      errgroup.Group
	)
	g.Go(func() error {
		live = s.provider.FetchLive(ctx, query)
		return nil
	})
	g.Go(func() error {
		coords = s.coordinatesFor(ctx, query.Province)
		return nil
	})
	_ = g.Wait()

	switch live.Status {
	case providers.LiveUnusable:
		observability.RecordError(span, live.Err)
		logger.Warn().Err(live.Err).Str("region", regionKey).Msg("Live data unusable, serving simulation")
		return s.finish(ctx, entities.FetchResult{
			Region:    query,
			Hospitals: s.simulator.Generate(query),
			Source:    entities.SourceSimulation,
		})
	case providers.LiveEmpty:
		logger.Info().Str("region", regionKey).Msg("Live data returned no hospitals")
		return s.finish(ctx, entities.FetchResult{
			Region:    query,
			Hospitals: []entities.HospitalRecord{},
			Source:    entities.SourceLive,
		})
	}

	merged := MergeCoordinates(live.Records, coords)
	if err := s.live.Set(ctx, regionKey, merged); err != nil {
		logger.Warn().Err(err).Str("region", regionKey).Msg("Failed to cache live data")
	}

	logger.Debug().
		Str("region", regionKey).
		Int("hospitals", len(merged)).
		Int("coordinates", len(coords)).
		Msg("Merged live data with facility roster")

	return s.finish(ctx, entities.FetchResult{
		Region:    query,
		Hospitals: merged,
		Source:    entities.SourceLive,
	})
}

// WarmCoordinates refreshes the roster cache for province regardless of freshness.
func (s *HospitalService) WarmCoordinates(ctx context.Context, province string) (int, error) {
	resp := s.fetchRoster(ctx, province)
	if !resp.Usable {
		if resp.Err != nil {
			return 0, resp.Err
		}
		return 0, apperrors.NewTransportError("facility roster unusable for "+entities.ProvinceKey(province), nil)
	}
	return len(resp.Coordinates), nil
}

// coordinatesFor returns the province roster from cache or upstream. Any
// failure yields an empty map.
func (s *HospitalService) coordinatesFor(ctx context.Context, province string) map[string]entities.Coordinate {
	key := entities.ProvinceKey(province)
	if cached, ok := s.coordinates.Get(ctx, key); ok {
		observability.RecordCacheHit(ctx, s.metrics, CoordinatesCacheFamily)
		return cached
	}
	observability.RecordCacheMiss(ctx, s.metrics, CoordinatesCacheFamily)

	resp := s.fetchRoster(ctx, province)
	if !resp.Usable {
		return map[string]entities.Coordinate{}
	}
	return resp.Coordinates
}

// fetchRoster queries the roster and caches a usable, non-empty result.
// Concurrent calls for the same province share one upstream query, which
// outlives the cancellation of any single caller.
func (s *HospitalService) fetchRoster(ctx context.Context, province string) providers.ListResponse {
	key := entities.ProvinceKey(province)
	v, _, _ := s.rosterFlight.Do(key, func() (interface{}, error) {
		fetchCtx := context.WithoutCancel(ctx)
		resp := s.provider.FetchList(fetchCtx, province)
		if resp.Usable && len(resp.Coordinates) > 0 {
			if err := s.coordinates.Set(fetchCtx, key, resp.Coordinates); err != nil {
				observability.LoggerFromContext(ctx).Warn().Err(err).
					Str("province", key).Msg("Failed to cache facility roster")
			}
		}
		return resp, nil
	})
	return v.(providers.ListResponse)
}

func (s *HospitalService) finish(ctx context.Context, result entities.FetchResult) entities.FetchResult {
	observability.RecordPipelineResult(ctx, s.metrics, string(result.State()))
	return result
}

// MergeCoordinates attaches roster coordinates to live records by facility id.
// A roster coordinate replaces whatever the live record carried; records
// without a roster entry keep their own. The inputs are not modified.
func MergeCoordinates(records []entities.HospitalRecord, coords map[string]entities.Coordinate) []entities.HospitalRecord {
	merged := make([]entities.HospitalRecord, len(records))
	for i, r := range records {
		out := r.Snapshot()
		if c, ok := coords[r.ID]; ok {
			out.Coordinate = &entities.Coordinate{Latitude: c.Latitude, Longitude: c.Longitude}
		}
		merged[i] = out
	}
	return merged
}
