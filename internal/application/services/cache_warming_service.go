package services

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/zatekoja/erbedfinder/backend/internal/domain/entities"
	"github.com/zatekoja/erbedfinder/backend/internal/infrastructure/observability"
)

const warmConcurrency = 4

// CacheWarmingService pre-loads the facility roster cache for every catalogued province
type CacheWarmingService struct {
	hospitals *HospitalService
	catalogue *entities.RegionCatalogue
}

// NewCacheWarmingService creates a new cache warming service
func NewCacheWarmingService(hospitals *HospitalService, catalogue *entities.RegionCatalogue) *CacheWarmingService {
	return &CacheWarmingService{
		hospitals: hospitals,
		catalogue: catalogue,
	}
}

// WarmResult summarizes one warming pass
type WarmResult struct {
	Provinces   int
	Failed      int
	Coordinates int
}

// WarmCache refreshes the roster of every province. Failures are collected,
// not fatal; the returned error joins them.
func (s *CacheWarmingService) WarmCache(ctx context.Context) (WarmResult, error) {
	logger := observability.LoggerFromContext(ctx)
	logger.Info().Msg("Starting cache warming")

	regions := s.catalogue.Regions()
	errs := make([]error, len(regions))
	var coords atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(warmConcurrency)
	for i, region := range regions {
		g.Go(func() error {
			n, err := s.hospitals.WarmCoordinates(gctx, region.Province)
			if err != nil {
				errs[i] = fmt.Errorf("%s: %w", region.Province, err)
				return nil
			}
			coords.Add(int64(n))
			return nil
		})
	}
	_ = g.Wait()

	result := WarmResult{Provinces: len(regions), Coordinates: int(coords.Load())}
	for _, err := range errs {
		if err != nil {
			result.Failed++
		}
	}

	logger.Info().
		Int("provinces", result.Provinces).
		Int("failed", result.Failed).
		Int("coordinates", result.Coordinates).
		Msg("Cache warming completed")
	return result, errors.Join(errs...)
}

// StartPeriodicWarming warms once and then every interval until ctx is done.
// A non-positive interval warms once only.
func (s *CacheWarmingService) StartPeriodicWarming(ctx context.Context, interval time.Duration) {
	logger := observability.LoggerFromContext(ctx)
	if _, err := s.WarmCache(ctx); err != nil {
		logger.Warn().Err(err).Msg("Initial cache warming incomplete")
	}
	if interval <= 0 {
		logger.Warn().Dur("interval", interval).Msg("Periodic cache warming disabled, interval must be positive")
		return
	}

	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				logger.Info().Msg("Stopping cache warming service")
				return
			case <-ticker.C:
				if _, err := s.WarmCache(ctx); err != nil {
					logger.Warn().Err(err).Msg("Periodic cache warming incomplete")
				}
			}
		}
	}()
	logger.Info().Dur("interval", interval).Msg("Started periodic cache warming")
}
