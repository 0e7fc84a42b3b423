package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/zatekoja/erbedfinder/backend/internal/application/services"
	"github.com/zatekoja/erbedfinder/backend/internal/domain/entities"
	"github.com/zatekoja/erbedfinder/backend/internal/domain/providers"
	"github.com/zatekoja/erbedfinder/backend/internal/infrastructure/observability"
)

// HospitalHandler serves the ranked hospital list
type HospitalHandler struct {
	hospitals   *services.HospitalService
	favorites   *services.FavoritesService
	ranking     *services.RankingService
	sessions    *services.RegionSessions
	geolocation providers.GeolocationProvider
	catalogue   *entities.RegionCatalogue
}

// NewHospitalHandler creates a new hospital handler. geolocation may be nil.
func NewHospitalHandler(
	hospitals *services.HospitalService,
	favorites *services.FavoritesService,
	ranking *services.RankingService,
	sessions *services.RegionSessions,
	geolocation providers.GeolocationProvider,
	catalogue *entities.RegionCatalogue,
) *HospitalHandler {
	return &HospitalHandler{
		hospitals:   hospitals,
		favorites:   favorites,
		ranking:     ranking,
		sessions:    sessions,
		geolocation: geolocation,
		catalogue:   catalogue,
	}
}

type hospitalListResponse struct {
	Source           entities.DataSource         `json:"source"`
	State            entities.ResultState        `json:"state"`
	Region           entities.RegionQuery        `json:"region"`
	FromCache        bool                        `json:"from_cache"`
	RunID            string                      `json:"run_id,omitempty"`
	UserLocation     *entities.Coordinate        `json:"user_location,omitempty"`
	Hospitals        []entities.HospitalListItem `json:"hospitals"`
	Count            int                         `json:"count"`
	Total            int                         `json:"total"`
	VisibleCount     int                         `json:"visible_count"`
	HasMore          bool                        `json:"has_more"`
	NextVisibleCount int                         `json:"next_visible_count,omitempty"`
}

// ListHospitals handles GET /api/hospitals
func (h *HospitalHandler) ListHospitals(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()
	logger := observability.LoggerFromContext(ctx)

	userLocation, err := parseCoordinate(r)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	if userLocation == nil && strings.EqualFold(q.Get("locate"), "ip") && h.geolocation != nil {
		if coord, err := h.geolocation.LocateIP(ctx, clientIP(r)); err == nil {
			userLocation = coord
		} else {
			logger.Debug().Err(err).Msg("IP geolocation failed, ranking without location")
		}
	}

	province := strings.TrimSpace(q.Get("province"))
	if province == "" && userLocation != nil {
		if region, ok := h.catalogue.NearestProvince(userLocation.Latitude, userLocation.Longitude); ok {
			province = region.Province
		}
	}
	if province == "" {
		respondWithError(w, http.StatusBadRequest, "province parameter is required")
		return
	}

	pediatricOnly := false
	if raw := q.Get("pediatric"); raw != "" {
		pediatricOnly, err = strconv.ParseBool(raw)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "invalid pediatric parameter")
			return
		}
	}

	visible := h.ranking.PageSize()
	if raw := q.Get("limit"); raw != "" {
		visible, err = strconv.Atoi(raw)
		if err != nil || visible <= 0 {
			respondWithError(w, http.StatusBadRequest, "invalid limit parameter")
			return
		}
	}

	query := entities.NewRegionQuery(province, q.Get("district"))
	device := deviceID(r)

	var runID string
	if device != "" {
		runID = h.sessions.Begin(device)
	}

	result := h.hospitals.Load(ctx, query)

	if device != "" {
		result, err = h.sessions.Complete(device, runID, result)
		if err != nil {
			logger.Info().Str("region", query.Key()).Msg("Discarding superseded region result")
			respondWithAppError(w, r, err)
			return
		}
	}

	favorites, err := h.favorites.List(ctx, device)
	if err != nil {
		logger.Warn().Err(err).Msg("Favorites unavailable, ranking without them")
		favorites = nil
	}

	page := h.ranking.Rank(services.RankingInput{
		Live:          result.Hospitals,
		Favorites:     favorites,
		UserLocation:  userLocation,
		PediatricOnly: pediatricOnly,
		SearchText:    q.Get("q"),
		VisibleCount:  visible,
	})

	items := make([]entities.HospitalListItem, len(page.Items))
	for i, ranked := range page.Items {
		items[i] = entities.NewHospitalListItem(ranked.Record, ranked.IsFavorite)
	}

	respondWithJSON(w, http.StatusOK, hospitalListResponse{
		Source:           result.Source,
		State:            result.State(),
		Region:           result.Region,
		FromCache:        result.FromCache,
		RunID:            result.RunID,
		UserLocation:     userLocation,
		Hospitals:        items,
		Count:            len(items),
		Total:            page.Total,
		VisibleCount:     page.VisibleCount,
		HasMore:          page.HasMore,
		NextVisibleCount: page.NextVisibleCount,
	})
}
