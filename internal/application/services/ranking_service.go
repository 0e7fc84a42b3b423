package services

import (
	"sort"
	"strings"

	"github.com/zatekoja/erbedfinder/backend/internal/domain/entities"
	"github.com/zatekoja/erbedfinder/backend/pkg/geo"
)

// DefaultPageSize is the default visible window of a ranked list
const DefaultPageSize = 30

// RankingInput holds every input the ranked view is derived from
type RankingInput struct {
	Live          []entities.HospitalRecord
	Favorites     []entities.HospitalRecord
	UserLocation  *entities.Coordinate
	PediatricOnly bool
	SearchText    string
	// VisibleCount is the window size; zero or less means one page
	VisibleCount int
}

// RankedHospital is one entry of the ranked view
type RankedHospital struct {
	Record     entities.HospitalRecord
	IsFavorite bool
}

// RankedPage is the visible prefix of the ranked list
type RankedPage struct {
	Items            []RankedHospital
	Total            int
	VisibleCount     int
	HasMore          bool
	NextVisibleCount int
}

// RankingService orders hospitals by favorite status, distance and free beds
type RankingService struct {
	pageSize int
}

// NewRankingService creates a ranking service; pageSize <= 0 selects DefaultPageSize
func NewRankingService(pageSize int) *RankingService {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &RankingService{pageSize: pageSize}
}

// PageSize returns the window increment
func (s *RankingService) PageSize() int {
	return s.pageSize
}

// Rank derives the paginated view. It is a pure function of in; records are
// copied before distances are written.
func (s *RankingService) Rank(in RankingInput) RankedPage {
	working := s.mergeFavorites(in.Live, in.Favorites)

	for i := range working {
		r := &working[i].Record
		r.DistanceKm = nil
		if in.UserLocation != nil && r.Coordinate != nil {
			d := geo.DistanceKm(in.UserLocation.Latitude, in.UserLocation.Longitude,
				r.Coordinate.Latitude, r.Coordinate.Longitude)
			r.DistanceKm = &d
		}
	}

	needle := strings.ToLower(strings.TrimSpace(in.SearchText))
	filtered := working[:0]
	for _, h := range working {
		if in.PediatricOnly && h.Record.PediatricBedsAvailable == 0 {
			continue
		}
		if needle != "" && !strings.Contains(strings.ToLower(h.Record.Name), needle) {
			continue
		}
		filtered = append(filtered, h)
	}

	byDistance := in.UserLocation != nil
	sort.SliceStable(filtered, func(i, j int) bool {
		return rankedBefore(filtered[i], filtered[j], byDistance)
	})

	visible := in.VisibleCount
	if visible <= 0 {
		visible = s.pageSize
	}
	end := visible
	if end > len(filtered) {
		end = len(filtered)
	}

	page := RankedPage{
		Items:        filtered[:end],
		Total:        len(filtered),
		VisibleCount: visible,
		HasMore:      len(filtered) > visible,
	}
	if page.HasMore {
		page.NextVisibleCount = visible + s.pageSize
	}
	return page
}

// mergeFavorites puts favorites first, preferring the live record over the
// stored snapshot, followed by live records that are not favorites.
func (s *RankingService) mergeFavorites(live, favorites []entities.HospitalRecord) []RankedHospital {
	liveByID := make(map[string]entities.HospitalRecord, len(live))
	for _, r := range live {
		if _, dup := liveByID[r.ID]; !dup {
			liveByID[r.ID] = r
		}
	}

	working := make([]RankedHospital, 0, len(live)+len(favorites))
	favoriteIDs := make(map[string]struct{}, len(favorites))
	for _, f := range favorites {
		if _, dup := favoriteIDs[f.ID]; dup {
			continue
		}
		favoriteIDs[f.ID] = struct{}{}
		record := f
		if fresh, ok := liveByID[f.ID]; ok {
			record = fresh
		}
		working = append(working, RankedHospital{Record: record.Clone(), IsFavorite: true})
	}
	for _, r := range live {
		if _, fav := favoriteIDs[r.ID]; fav {
			continue
		}
		working = append(working, RankedHospital{Record: r.Clone()})
	}
	return working
}

func rankedBefore(a, b RankedHospital, byDistance bool) bool {
	if a.IsFavorite != b.IsFavorite {
		return a.IsFavorite
	}
	if byDistance {
		ad, bd := a.Record.DistanceKm, b.Record.DistanceKm
		if (ad != nil) != (bd != nil) {
			return ad != nil
		}
		if ad != nil && *ad != *bd {
			return *ad < *bd
		}
	}
	return a.Record.GeneralBedsAvailable > b.Record.GeneralBedsAvailable
}
