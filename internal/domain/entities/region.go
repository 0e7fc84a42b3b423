package entities

import (
	"math"
	"strings"

	"github.com/zatekoja/erbedfinder/backend/pkg/geo"
)

// AllDistricts selects a whole province.
const AllDistricts = "ALL"

// RegionQuery scopes a live bed lookup
type RegionQuery struct {
	Province string `json:"province"`
	District string `json:"district"`
}

// NewRegionQuery builds a normalized query; an empty district means AllDistricts.
func NewRegionQuery(province, district string) RegionQuery {
	return RegionQuery{Province: province, District: district}.Normalize()
}

// Normalize trims both parts and maps an empty or "all" district onto AllDistricts.
func (q RegionQuery) Normalize() RegionQuery {
	q.Province = strings.TrimSpace(q.Province)
	q.District = strings.TrimSpace(q.District)
	if q.District == "" || strings.EqualFold(q.District, AllDistricts) {
		q.District = AllDistricts
	}
	return q
}

// HasDistrict reports whether the query narrows below province level.
func (q RegionQuery) HasDistrict() bool {
	q = q.Normalize()
	return q.District != AllDistricts
}

// Key is the region key used to partition the live-data cache: "<province>[:<district>]".
func (q RegionQuery) Key() string {
	q = q.Normalize()
	if q.HasDistrict() {
		return q.Province + ":" + q.District
	}
	return q.Province
}

// ProvinceKey is the coordinate-roster cache key: the province, or AllDistricts when unset.
func (q RegionQuery) ProvinceKey() string {
	return ProvinceKey(q.Province)
}

// ProvinceKey maps a province name onto its roster cache key.
func ProvinceKey(province string) string {
	province = strings.TrimSpace(province)
	if province == "" {
		return AllDistricts
	}
	return province
}

// Region is a catalogue entry with the reference point used for simulation and
// nearest-region lookup.
type Region struct {
	Province  string     `json:"province"`
	Label     string     `json:"label"`
	Reference Coordinate `json:"reference"`
	Districts []string   `json:"districts,omitempty"`
}

// DefaultReference is used when a province is not in the catalogue.
var DefaultReference = Coordinate{Latitude: 37.5665, Longitude: 126.9780}

// RegionCatalogue is the enumerable list of provinces
type RegionCatalogue struct {
	regions []Region
	index   map[string]int
}

// NewRegionCatalogue indexes regions by province name.
func NewRegionCatalogue(regions []Region) *RegionCatalogue {
	c := &RegionCatalogue{
		regions: make([]Region, len(regions)),
		index:   make(map[string]int, len(regions)),
	}
	copy(c.regions, regions)
	for i, r := range c.regions {
		c.index[r.Province] = i
	}
	return c
}

// DefaultRegionCatalogue returns the Korean provinces served by the upstream API.
func DefaultRegionCatalogue() *RegionCatalogue {
	return NewRegionCatalogue(koreanRegions)
}

// Regions returns a copy of the catalogue in display order.
func (c *RegionCatalogue) Regions() []Region {
	out := make([]Region, len(c.regions))
	copy(out, c.regions)
	return out
}

// Lookup finds a province by name.
func (c *RegionCatalogue) Lookup(province string) (Region, bool) {
	i, ok := c.index[strings.TrimSpace(province)]
	if !ok {
		return Region{}, false
	}
	return c.regions[i], true
}

// Reference returns the province's reference point and display label, falling
// back to DefaultReference and the raw province name.
func (c *RegionCatalogue) Reference(province string) (Coordinate, string) {
	if r, ok := c.Lookup(province); ok {
		return r.Reference, r.Label
	}
	label := strings.TrimSpace(province)
	if label == "" {
		label = "서울"
	}
	return DefaultReference, label
}

// NearestProvince returns the catalogue region whose reference point is closest to (lat, lon).
func (c *RegionCatalogue) NearestProvince(lat, lon float64) (Region, bool) {
	if len(c.regions) == 0 {
		return Region{}, false
	}
	best := 0
	bestDist := math.Inf(1)
	for i, r := range c.regions {
		d := geo.DistanceKm(lat, lon, r.Reference.Latitude, r.Reference.Longitude)
		if d < bestDist {
			best, bestDist = i, d
		}
	}
	return c.regions[best], true
}

var koreanRegions = []Region{
	{
		Province: "서울특별시", Label: "서울", Reference: Coordinate{37.5665, 126.9780},
		Districts: []string{
			"강남구", "강동구", "강북구", "강서구", "관악구", "광진구", "구로구", "금천구", "노원구",
			"도봉구", "동대문구", "동작구", "마포구", "서대문구", "서초구", "성동구", "성북구", "송파구",
			"양천구", "영등포구", "용산구", "은평구", "종로구", "중구", "중랑구",
		},
	},
	{
		Province: "부산광역시", Label: "부산", Reference: Coordinate{35.1796, 129.0756},
		Districts: []string{
			"강서구", "금정구", "기장군", "남구", "동구", "동래구", "부산진구", "북구", "사상구",
			"사하구", "서구", "수영구", "연제구", "영도구", "중구", "해운대구",
		},
	},
	{Province: "대구광역시", Label: "대구", Reference: Coordinate{35.8714, 128.6014}},
	{Province: "인천광역시", Label: "인천", Reference: Coordinate{37.4563, 126.7052}},
	{Province: "광주광역시", Label: "광주", Reference: Coordinate{35.1595, 126.8526}},
	{Province: "대전광역시", Label: "대전", Reference: Coordinate{36.3504, 127.3845}},
	{Province: "울산광역시", Label: "울산", Reference: Coordinate{35.5384, 129.3114}},
	{Province: "세종특별자치시", Label: "세종", Reference: Coordinate{36.4800, 127.2890}},
	{Province: "경기도", Label: "경기", Reference: Coordinate{37.2750, 127.0095}},
	{Province: "강원특별자치도", Label: "강원", Reference: Coordinate{37.8813, 127.7298}},
	{Province: "충청북도", Label: "충북", Reference: Coordinate{36.6357, 127.4917}},
	{Province: "충청남도", Label: "충남", Reference: Coordinate{36.6588, 126.6728}},
	{Province: "전북특별자치도", Label: "전북", Reference: Coordinate{35.8242, 127.1480}},
	{Province: "전라남도", Label: "전남", Reference: Coordinate{34.8161, 126.4629}},
	{Province: "경상북도", Label: "경북", Reference: Coordinate{36.5760, 128.5056}},
	{Province: "경상남도", Label: "경남", Reference: Coordinate{35.2383, 128.6925}},
	{Province: "제주특별자치도", Label: "제주", Reference: Coordinate{33.4996, 126.5312}},
}
