package services

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/erbedfinder/backend/internal/domain/entities"
)

func ids(page RankedPage) []string {
	out := make([]string, len(page.Items))
	for i, h := range page.Items {
		out[i] = h.Record.ID
	}
	return out
}

func TestRank_FavoritesFirstThenBedsDescending(t *testing.T) {
	svc := NewRankingService(0)
	live := []entities.HospitalRecord{
		{ID: "a", Name: "A", GeneralBedsAvailable: 2},
		{ID: "b", Name: "B", GeneralBedsAvailable: 9},
		{ID: "c", Name: "C", GeneralBedsAvailable: 5},
		{ID: "d", Name: "D", GeneralBedsAvailable: 1},
	}
	favorites := []entities.HospitalRecord{{ID: "d", Name: "D", GeneralBedsAvailable: 0}}

	page := svc.Rank(RankingInput{Live: live, Favorites: favorites})

	assert.Equal(t, []string{"d", "b", "c", "a"}, ids(page))
	assert.True(t, page.Items[0].IsFavorite)
	assert.Equal(t, 1, page.Items[0].Record.GeneralBedsAvailable, "live record replaces the favorite snapshot")
	for i := 2; i < len(page.Items); i++ {
		assert.Greater(t, page.Items[i-1].Record.GeneralBedsAvailable, page.Items[i].Record.GeneralBedsAvailable)
	}
	for _, h := range page.Items {
		assert.Nil(t, h.Record.DistanceKm)
	}
}

func TestRank_FavoriteSnapshotOutsideRegionIsKept(t *testing.T) {
	svc := NewRankingService(0)
	live := []entities.HospitalRecord{{ID: "a", Name: "A", GeneralBedsAvailable: 4}}
	favorites := []entities.HospitalRecord{{ID: "far", Name: "Far", GeneralBedsAvailable: 1}}

	page := svc.Rank(RankingInput{Live: live, Favorites: favorites})

	assert.Equal(t, []string{"far", "a"}, ids(page))
}

func TestRank_WithLocationOrdersByDistance(t *testing.T) {
	svc := NewRankingService(0)
	user := &entities.Coordinate{Latitude: 37.5665, Longitude: 126.9780}
	live := []entities.HospitalRecord{
		{ID: "nocoord", Name: "No coordinate", GeneralBedsAvailable: 50},
		{ID: "far", Name: "Far", GeneralBedsAvailable: 1, Coordinate: &entities.Coordinate{Latitude: 37.5971, Longitude: 126.9780}},
		{ID: "near", Name: "Near", GeneralBedsAvailable: 1, Coordinate: &entities.Coordinate{Latitude: 37.5773, Longitude: 126.9780}},
	}

	page := svc.Rank(RankingInput{Live: live, UserLocation: user})

	require.Equal(t, []string{"near", "far", "nocoord"}, ids(page))
	assert.Equal(t, 1.2, *page.Items[0].Record.DistanceKm)
	assert.Equal(t, 3.4, *page.Items[1].Record.DistanceKm)
	assert.Nil(t, page.Items[2].Record.DistanceKm)
	assert.Nil(t, live[1].DistanceKm, "inputs are not modified")
}

func TestRank_EqualDistanceFallsBackToBeds(t *testing.T) {
	svc := NewRankingService(0)
	user := &entities.Coordinate{Latitude: 37.0, Longitude: 127.0}
	here := &entities.Coordinate{Latitude: 37.0, Longitude: 127.0}
	live := []entities.HospitalRecord{
		{ID: "few", GeneralBedsAvailable: 1, Coordinate: here},
		{ID: "many", GeneralBedsAvailable: 8, Coordinate: here},
	}

	page := svc.Rank(RankingInput{Live: live, UserLocation: user})

	assert.Equal(t, []string{"many", "few"}, ids(page))
}

func TestRank_PediatricFilterIgnoresTotal(t *testing.T) {
	svc := NewRankingService(0)
	live := []entities.HospitalRecord{
		{ID: "zero", PediatricBedsAvailable: 0, PediatricBedsTotal: entities.IntPtr(12)},
		{ID: "some", PediatricBedsAvailable: 2, PediatricBedsTotal: entities.IntPtr(12)},
	}
	favorites := []entities.HospitalRecord{{ID: "favzero", PediatricBedsAvailable: 0}}

	page := svc.Rank(RankingInput{Live: live, Favorites: favorites, PediatricOnly: true})

	assert.Equal(t, []string{"some"}, ids(page))
}

func TestRank_SearchTextCaseInsensitiveTrimmed(t *testing.T) {
	svc := NewRankingService(0)
	live := []entities.HospitalRecord{
		{ID: "1", Name: "Seoul National University Hospital"},
		{ID: "2", Name: "Asan Medical Center"},
		{ID: "3", Name: "서울대학교병원"},
	}

	assert.Equal(t, []string{"1"}, ids(svc.Rank(RankingInput{Live: live, SearchText: "  UNIVERSITY "})))
	assert.Equal(t, []string{"3"}, ids(svc.Rank(RankingInput{Live: live, SearchText: "대학교"})))
	assert.Len(t, svc.Rank(RankingInput{Live: live, SearchText: "   "}).Items, 3)
}

func TestRank_Pagination(t *testing.T) {
	svc := NewRankingService(0)
	live := make([]entities.HospitalRecord, 45)
	for i := range live {
		live[i] = entities.HospitalRecord{ID: fmt.Sprintf("h%02d", i), GeneralBedsAvailable: 100 - i}
	}

	first := svc.Rank(RankingInput{Live: live})
	assert.Len(t, first.Items, DefaultPageSize)
	assert.Equal(t, 45, first.Total)
	assert.True(t, first.HasMore)
	assert.Equal(t, 60, first.NextVisibleCount)

	second := svc.Rank(RankingInput{Live: live, VisibleCount: first.NextVisibleCount})
	assert.Len(t, second.Items, 45)
	assert.False(t, second.HasMore)
	assert.Zero(t, second.NextVisibleCount)
	assert.Equal(t, ids(first), ids(second)[:DefaultPageSize], "growing the window keeps the prefix")
}

func TestRank_Deterministic(t *testing.T) {
	svc := NewRankingService(5)
	live := []entities.HospitalRecord{
		{ID: "x", GeneralBedsAvailable: 3},
		{ID: "y", GeneralBedsAvailable: 3},
		{ID: "z", GeneralBedsAvailable: 3},
	}

	first := svc.Rank(RankingInput{Live: live})
	for i := 0; i < 10; i++ {
		assert.Equal(t, ids(first), ids(svc.Rank(RankingInput{Live: live})))
	}
}

func TestRank_Empty(t *testing.T) {
	page := NewRankingService(0).Rank(RankingInput{})
	assert.Empty(t, page.Items)
	assert.Zero(t, page.Total)
	assert.False(t, page.HasMore)
}
