package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/zatekoja/erbedfinder/backend/internal/adapters/cache"
	"github.com/zatekoja/erbedfinder/backend/internal/application/services"
	"github.com/zatekoja/erbedfinder/backend/internal/domain/entities"
	"github.com/zatekoja/erbedfinder/backend/internal/infrastructure/clients/emergency"
	redisclient "github.com/zatekoja/erbedfinder/backend/internal/infrastructure/clients/redis"
	"github.com/zatekoja/erbedfinder/backend/internal/infrastructure/observability"
	"github.com/zatekoja/erbedfinder/backend/pkg/config"
	"github.com/zatekoja/erbedfinder/backend/pkg/retry"
)

func main() {
	var province string
	flag.StringVar(&province, "province", "", "Single province to warm (default: every province)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	observability.InitLogger(cfg.OTEL.ServiceName+"-warmer", cfg.Server.Env)

	if cfg.Store.Backend != "redis" {
		log.Fatal().Str("backend", cfg.Store.Backend).Msg("Warming needs a shared store, set STORE_BACKEND=redis")
	}
	if cfg.EmergencyAPI.ServiceKey == "" {
		log.Fatal().Msg("ER_API_SERVICE_KEY is not set")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	redisClient, err := redisclient.NewClient(ctx, &cfg.Redis, retry.StartupConfig())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer redisClient.Close()

	metrics, err := observability.InitMetrics()
	if err != nil {
		log.Warn().Err(err).Msg("Failed to initialize metrics")
	}

	store := cache.NewRedisAdapter(redisClient, "er")
	catalogue := entities.DefaultRegionCatalogue()

	hospitalService := services.NewHospitalService(
		emergency.NewClient(cfg.EmergencyAPI, metrics),
		cache.NewTTLCache[[]entities.HospitalRecord](store, services.LiveCacheFamily, cfg.Cache.LiveTTL),
		cache.NewTTLCache[map[string]entities.Coordinate](store, services.CoordinatesCacheFamily, cfg.Cache.CoordinatesTTL),
		services.NewSimulationService(catalogue),
		metrics,
	)

	start := time.Now()

	if province != "" {
		if _, ok := catalogue.Lookup(province); !ok {
			log.Fatal().Str("province", province).Msg("Unknown province")
		}
		count, err := hospitalService.WarmCoordinates(ctx, province)
		if err != nil {
			log.Fatal().Err(err).Str("province", province).Msg("Failed to warm province")
		}
		log.Info().Str("province", province).Int("coordinates", count).Dur("took", time.Since(start)).Msg("Province warmed")
		return
	}

	result, err := services.NewCacheWarmingService(hospitalService, catalogue).WarmCache(ctx)
	log.Info().
		Int("provinces", result.Provinces).
		Int("failed", result.Failed).
		Int("coordinates", result.Coordinates).
		Dur("took", time.Since(start)).
		Msg("Warming complete")
	if err != nil {
		log.Error().Err(err).Msg("Some provinces could not be warmed")
		os.Exit(1)
	}
}
