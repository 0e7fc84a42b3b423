package entities_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/erbedfinder/backend/internal/domain/entities"
)

func TestRegionQuery_Keys(t *testing.T) {
	whole := entities.NewRegionQuery(" 서울특별시 ", "")
	assert.Equal(t, entities.AllDistricts, whole.District)
	assert.False(t, whole.HasDistrict())
	assert.Equal(t, "서울특별시", whole.Key())

	district := entities.NewRegionQuery("서울특별시", "강남구")
	assert.True(t, district.HasDistrict())
	assert.Equal(t, "서울특별시:강남구", district.Key())
	assert.Equal(t, "서울특별시", district.ProvinceKey())

	assert.Equal(t, entities.AllDistricts, entities.RegionQuery{}.ProvinceKey())
	assert.False(t, entities.RegionQuery{Province: "경기도", District: "all"}.HasDistrict())
}

func TestRegionCatalogue_Reference(t *testing.T) {
	catalogue := entities.DefaultRegionCatalogue()

	ref, label := catalogue.Reference("부산광역시")
	assert.Equal(t, "부산", label)
	assert.InDelta(t, 35.1796, ref.Latitude, 1e-9)

	ref, label = catalogue.Reference("Atlantis")
	assert.Equal(t, entities.DefaultReference, ref)
	assert.Equal(t, "Atlantis", label)
}

func TestRegionCatalogue_NearestProvince(t *testing.T) {
	catalogue := entities.DefaultRegionCatalogue()

	// Haeundae beach
	region, ok := catalogue.NearestProvince(35.1587, 129.1604)
	require.True(t, ok)
	assert.Equal(t, "부산광역시", region.Province)

	// Jeju airport
	region, ok = catalogue.NearestProvince(33.5104, 126.4914)
	require.True(t, ok)
	assert.Equal(t, "제주특별자치도", region.Province)

	_, ok = entities.NewRegionCatalogue(nil).NearestProvince(0, 0)
	assert.False(t, ok)
}

func TestRegionCatalogue_RegionsIsACopy(t *testing.T) {
	catalogue := entities.DefaultRegionCatalogue()
	regions := catalogue.Regions()
	require.Len(t, regions, 17)

	regions[0].Province = "changed"
	_, ok := catalogue.Lookup("서울특별시")
	assert.True(t, ok)
}
