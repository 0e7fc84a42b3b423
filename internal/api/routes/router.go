package routes

import (
	"net/http"

	"github.com/zatekoja/erbedfinder/backend/internal/api/handlers"
	"github.com/zatekoja/erbedfinder/backend/internal/api/middleware"
	"github.com/zatekoja/erbedfinder/backend/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	hospitalHandler  *handlers.HospitalHandler
	regionHandler    *handlers.RegionHandler
	favoritesHandler *handlers.FavoritesHandler

	cacheMiddleware *middleware.CacheMiddleware
	metrics         *observability.Metrics
}

// NewRouter creates a new router
func NewRouter(
	hospitalHandler *handlers.HospitalHandler,
	regionHandler *handlers.RegionHandler,
	favoritesHandler *handlers.FavoritesHandler,
	cacheMiddleware *middleware.CacheMiddleware,
	metrics *observability.Metrics,
) *Router {
	return &Router{
		mux:              http.NewServeMux(),
		hospitalHandler:  hospitalHandler,
		regionHandler:    regionHandler,
		favoritesHandler: favoritesHandler,
		cacheMiddleware:  cacheMiddleware,
		metrics:          metrics,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	r.mux.HandleFunc("GET /health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	// Region catalogue
	r.mux.HandleFunc("GET /api/regions", r.regionHandler.ListRegions)
	r.mux.HandleFunc("GET /api/regions/nearest", r.regionHandler.NearestRegion)

	// Hospitals
	r.mux.HandleFunc("GET /api/hospitals", r.hospitalHandler.ListHospitals)

	// Favorites
	r.mux.HandleFunc("GET /api/favorites", r.favoritesHandler.ListFavorites)
	r.mux.HandleFunc("POST /api/favorites/toggle", r.favoritesHandler.ToggleFavorite)

	// Apply middleware in reverse order (last middleware wraps first).
	// CORS must be outermost so cached responses also get CORS headers.
	var handler http.Handler = r.mux

	if r.cacheMiddleware != nil {
		handler = r.cacheMiddleware.Middleware(handler)
	}

	handler = middleware.LoggingMiddleware(handler)
	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)
	handler = middleware.ResponseOptimization(handler)
	handler = middleware.CORSMiddleware(handler)

	return handler
}
