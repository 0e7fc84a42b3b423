package handlers

import (
	"net/http"

	"github.com/zatekoja/erbedfinder/backend/internal/domain/entities"
	"github.com/zatekoja/erbedfinder/backend/pkg/geo"
)

// RegionHandler serves the region catalogue
type RegionHandler struct {
	catalogue *entities.RegionCatalogue
}

// NewRegionHandler creates a new region handler
func NewRegionHandler(catalogue *entities.RegionCatalogue) *RegionHandler {
	return &RegionHandler{catalogue: catalogue}
}

// ListRegions handles GET /api/regions
func (h *RegionHandler) ListRegions(w http.ResponseWriter, r *http.Request) {
	regions := h.catalogue.Regions()
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"regions": regions,
		"count":   len(regions),
	})
}

// NearestRegion handles GET /api/regions/nearest?lat=...&lon=...
func (h *RegionHandler) NearestRegion(w http.ResponseWriter, r *http.Request) {
	coord, err := parseCoordinate(r)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	if coord == nil {
		respondWithError(w, http.StatusBadRequest, "lat and lon parameters are required")
		return
	}

	region, ok := h.catalogue.NearestProvince(coord.Latitude, coord.Longitude)
	if !ok {
		respondWithError(w, http.StatusNotFound, "region catalogue is empty")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"region": region,
		"distance_km": geo.DistanceKm(coord.Latitude, coord.Longitude,
			region.Reference.Latitude, region.Reference.Longitude),
	})
}
