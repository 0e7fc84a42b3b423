package geo_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/zatekoja/erbedfinder/backend/pkg/geo"
)

func TestDistanceKm_SamePointIsZero(t *testing.T) {
	points := [][2]float64{
		{37.5665, 126.9780},
		{33.4996, 126.5312},
		{0, 0},
		{-33.8688, 151.2093},
		{89.9, -179.9},
	}
	for _, p := range points {
		assert.Equal(t, 0.0, geo.DistanceKm(p[0], p[1], p[0], p[1]))
	}
}

func TestDistanceKm_Symmetric(t *testing.T) {
	pairs := [][4]float64{
		{37.5665, 126.9780, 35.1796, 129.0756},
		{37.4979, 127.0276, 37.5133, 127.1001},
		{33.4996, 126.5312, 37.8813, 127.7298},
		{51.5074, -0.1278, 40.7128, -74.0060},
	}
	for _, p := range pairs {
		ab := geo.DistanceKm(p[0], p[1], p[2], p[3])
		ba := geo.DistanceKm(p[2], p[3], p[0], p[1])
		assert.InDelta(t, ab, ba, 0.05)
	}
}

func TestDistanceKm_KnownDistance(t *testing.T) {
	// Seoul City Hall to Busan City Hall is roughly 325 km as the crow flies.
	d := geo.DistanceKm(37.5665, 126.9780, 35.1796, 129.0756)
	assert.InDelta(t, 325, d, 5)
}

func TestDistanceKm_RoundedToOneDecimal(t *testing.T) {
	d := geo.DistanceKm(37.4979, 127.0276, 37.5133, 127.1001)
	assert.Equal(t, math.Round(d*10)/10, d)
}

func TestDegreesToRadians(t *testing.T) {
	assert.InDelta(t, math.Pi, geo.DegreesToRadians(180), 1e-12)
	assert.InDelta(t, math.Pi/2, geo.DegreesToRadians(90), 1e-12)
	assert.Equal(t, 0.0, geo.DegreesToRadians(0))
}
