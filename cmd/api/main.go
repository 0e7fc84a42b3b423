package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/zatekoja/erbedfinder/backend/internal/adapters/cache"
	"github.com/zatekoja/erbedfinder/backend/internal/adapters/providers/geolocation"
	"github.com/zatekoja/erbedfinder/backend/internal/api/handlers"
	"github.com/zatekoja/erbedfinder/backend/internal/api/middleware"
	"github.com/zatekoja/erbedfinder/backend/internal/api/routes"
	"github.com/zatekoja/erbedfinder/backend/internal/application/services"
	"github.com/zatekoja/erbedfinder/backend/internal/domain/entities"
	"github.com/zatekoja/erbedfinder/backend/internal/domain/providers"
	"github.com/zatekoja/erbedfinder/backend/internal/infrastructure/clients/emergency"
	redisclient "github.com/zatekoja/erbedfinder/backend/internal/infrastructure/clients/redis"
	"github.com/zatekoja/erbedfinder/backend/internal/infrastructure/observability"
	"github.com/zatekoja/erbedfinder/backend/pkg/config"
	"github.com/zatekoja/erbedfinder/backend/pkg/retry"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	observability.InitLogger(cfg.OTEL.ServiceName, cfg.Server.Env)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize OpenTelemetry
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(ctx, cfg.OTEL.ServiceName, cfg.OTEL.ServiceVersion, cfg.OTEL.Endpoint)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to setup OpenTelemetry, continuing without it")
		} else {
			defer func() {
				shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer shutdownCancel()
				if err := shutdown(shutdownCtx); err != nil {
					log.Error().Err(err).Msg("Error shutting down OpenTelemetry")
				}
			}()
			log.Info().Str("endpoint", cfg.OTEL.Endpoint).Msg("OpenTelemetry initialized")
		}
	}

	metrics, err := observability.InitMetrics()
	if err != nil {
		log.Warn().Err(err).Msg("Failed to initialize metrics")
	}

	// Key-value store behind both caches and favorites
	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open store")
	}
	defer closeStore()

	catalogue := entities.DefaultRegionCatalogue()

	emergencyClient := emergency.NewClient(cfg.EmergencyAPI, metrics)
	if cfg.EmergencyAPI.ServiceKey == "" {
		log.Warn().Msg("ER_API_SERVICE_KEY is not set, every region will be served from simulation")
	}

	liveCache := cache.NewTTLCache[[]entities.HospitalRecord](store, services.LiveCacheFamily, cfg.Cache.LiveTTL)
	coordinateCache := cache.NewTTLCache[map[string]entities.Coordinate](store, services.CoordinatesCacheFamily, cfg.Cache.CoordinatesTTL)

	simulationService := services.NewSimulationService(catalogue)
	hospitalService := services.NewHospitalService(emergencyClient, liveCache, coordinateCache, simulationService, metrics)
	favoritesService := services.NewFavoritesService(store)
	rankingService := services.NewRankingService(cfg.Ranking.PageSize)
	regionSessions := services.NewRegionSessions()

	var geolocationProvider providers.GeolocationProvider
	switch cfg.Geolocation.Provider {
	case "ipapi":
		geolocationProvider = geolocation.NewIPAPIProvider(cfg.Geolocation.IPLookupURL, cfg.Geolocation.Timeout, store)
		log.Info().Str("url", cfg.Geolocation.IPLookupURL).Msg("Using ipapi geolocation provider")
	default:
		geolocationProvider = geolocation.NewMockGeolocationProvider()
		log.Info().Msg("Using mock geolocation provider")
	}

	if cfg.Cache.WarmEnabled {
		warmingService := services.NewCacheWarmingService(hospitalService, catalogue)
		go warmingService.StartPeriodicWarming(ctx, cfg.Cache.WarmInterval)
		log.Info().Dur("interval", cfg.Cache.WarmInterval).Msg("Coordinate cache warming enabled")
	}

	// Initialize handlers
	hospitalHandler := handlers.NewHospitalHandler(
		hospitalService,
		favoritesService,
		rankingService,
		regionSessions,
		geolocationProvider,
		catalogue,
	)
	regionHandler := handlers.NewRegionHandler(catalogue)
	favoritesHandler := handlers.NewFavoritesHandler(favoritesService)

	cacheMiddleware := middleware.NewCacheMiddleware(store)

	router := routes.NewRouter(
		hospitalHandler,
		regionHandler,
		favoritesHandler,
		cacheMiddleware,
		metrics,
	)

	handler := router.SetupRoutes()

	// Create HTTP server
	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Str("addr", serverAddr).Msg("Server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Server shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error during server shutdown")
	}

	log.Info().Msg("Server stopped")
}

// openStore returns the configured key-value store and its release function
func openStore(ctx context.Context, cfg *config.Config) (providers.CacheProvider, func(), error) {
	if cfg.Store.Backend == "memory" {
		log.Info().Msg("Using in-memory store")
		return cache.NewMemoryAdapter(), func() {}, nil
	}

	client, err := redisclient.NewClient(ctx, &cfg.Redis, retry.StartupConfig())
	if err != nil {
		return nil, nil, err
	}
	log.Info().Str("addr", cfg.Redis.RedisAddr()).Msg("Connected to Redis")

	closeFn := func() {
		if err := client.Close(); err != nil {
			log.Error().Err(err).Msg("Error closing Redis connection")
		}
	}
	return cache.NewRedisAdapter(client, "er"), closeFn, nil
}
