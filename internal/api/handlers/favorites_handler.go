package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/zatekoja/erbedfinder/backend/internal/api/middleware"
	"github.com/zatekoja/erbedfinder/backend/internal/application/services"
	"github.com/zatekoja/erbedfinder/backend/internal/domain/entities"
)

const maxFavoriteBodyBytes = 64 << 10

// FavoritesHandler serves a device's pinned hospitals
type FavoritesHandler struct {
	favorites *services.FavoritesService
}

// NewFavoritesHandler creates a new favorites handler
func NewFavoritesHandler(favorites *services.FavoritesService) *FavoritesHandler {
	return &FavoritesHandler{favorites: favorites}
}

// ListFavorites handles GET /api/favorites
func (h *FavoritesHandler) ListFavorites(w http.ResponseWriter, r *http.Request) {
	favorites, err := h.favorites.List(r.Context(), deviceID(r))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"favorites": favorites,
		"count":     len(favorites),
	})
}

// ToggleFavorite handles POST /api/favorites/toggle
func (h *FavoritesHandler) ToggleFavorite(w http.ResponseWriter, r *http.Request) {
	var record entities.HospitalRecord
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxFavoriteBodyBytes)).Decode(&record); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid hospital record")
		return
	}

	favorite, favorites, err := h.favorites.Toggle(r.Context(), deviceID(r), record)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"favorite":  favorite,
		"favorites": favorites,
	})
}

func deviceID(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get(middleware.DeviceIDHeader))
}
