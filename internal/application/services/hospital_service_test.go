package services_test

import (
	"context"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/erbedfinder/backend/internal/adapters/cache"
	"github.com/zatekoja/erbedfinder/backend/internal/application/services"
	"github.com/zatekoja/erbedfinder/backend/internal/domain/entities"
	"github.com/zatekoja/erbedfinder/backend/internal/domain/providers"
	apperrors "github.com/zatekoja/erbedfinder/backend/pkg/errors"
)

// MockEmergencyDataProvider is a mock implementation of providers.EmergencyDataProvider
type MockEmergencyDataProvider struct {
	mock.Mock
}

func (m *MockEmergencyDataProvider) FetchLive(ctx context.Context, query entities.RegionQuery) providers.LiveResponse {
	args := m.Called(ctx, query)
	return args.Get(0).(providers.LiveResponse)
}

func (m *MockEmergencyDataProvider) FetchList(ctx context.Context, province string) providers.ListResponse {
	args := m.Called(ctx, province)
	return args.Get(0).(providers.ListResponse)
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, entities.KST)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type pipelineFixture struct {
	provider    *MockEmergencyDataProvider
	store       *cache.MemoryAdapter
	live        *cache.TTLCache[[]entities.HospitalRecord]
	coordinates *cache.TTLCache[map[string]entities.Coordinate]
	clock       *testClock
	service     *services.HospitalService
}

func newPipelineFixture() *pipelineFixture {
	clock := newTestClock()
	store := cache.NewMemoryAdapter()
	live := cache.NewTTLCache[[]entities.HospitalRecord](store, services.LiveCacheFamily, 10*time.Minute, cache.WithClock(clock.Now))
	coords := cache.NewTTLCache[map[string]entities.Coordinate](store, services.CoordinatesCacheFamily, 24*time.Hour, cache.WithClock(clock.Now))
	provider := new(MockEmergencyDataProvider)
	simulator := services.NewSimulationServiceWithRand(entities.DefaultRegionCatalogue(), rand.New(rand.NewPCG(7, 11)), clock.Now)

	return &pipelineFixture{
		provider:    provider,
		store:       store,
		live:        live,
		coordinates: coords,
		clock:       clock,
		service:     services.NewHospitalService(provider, live, coords, simulator, nil),
	}
}

func liveRecords() []entities.HospitalRecord {
	return []entities.HospitalRecord{
		{ID: "A1100010", Name: "서울대학교병원", GeneralBedsAvailable: 7},
		{ID: "A1100017", Name: "강북삼성병원", GeneralBedsAvailable: 3},
	}
}

func TestHospitalService_Load_CacheHitSkipsFetch(t *testing.T) {
	ctx := context.Background()
	f := newPipelineFixture()
	query := entities.NewRegionQuery("서울특별시", "종로구")

	cached := liveRecords()
	require.NoError(t, f.live.Set(ctx, query.Key(), cached))
	f.clock.Advance(5 * time.Minute)

	result := f.service.Load(ctx, query)

	assert.Equal(t, entities.SourceLive, result.Source)
	assert.True(t, result.FromCache)
	assert.Equal(t, cached, result.Hospitals)
	f.provider.AssertNotCalled(t, "FetchLive", mock.Anything, mock.Anything)
	f.provider.AssertNotCalled(t, "FetchList", mock.Anything, mock.Anything)
}

func TestHospitalService_Load_UnusableLiveFallsBackToSimulation(t *testing.T) {
	ctx := context.Background()
	f := newPipelineFixture()
	query := entities.NewRegionQuery("서울특별시", "")

	f.provider.On("FetchLive", mock.Anything, query).Return(providers.LiveResponse{
		Status: providers.LiveUnusable,
		Err:    apperrors.NewPayloadError("upstream reported an error: SERVICE ERROR", nil),
	})
	f.provider.On("FetchList", mock.Anything, "서울특별시").Return(providers.ListResponse{Usable: true,
		Coordinates: map[string]entities.Coordinate{"A1100010": {Latitude: 37.57, Longitude: 126.99}}})

	result := f.service.Load(ctx, query)

	assert.Equal(t, entities.SourceSimulation, result.Source)
	assert.Equal(t, entities.StateSimulation, result.State())
	assert.Len(t, result.Hospitals, services.SimulatedHospitalCount)
	for _, h := range result.Hospitals {
		assert.True(t, h.IsSimulated())
	}

	exists, err := f.store.Exists(ctx, f.live.StoreKey(query.Key()))
	require.NoError(t, err)
	assert.False(t, exists, "simulation must never be written to the live cache")
}

func TestHospitalService_Load_EmptyLiveIsNotCached(t *testing.T) {
	ctx := context.Background()
	f := newPipelineFixture()
	query := entities.NewRegionQuery("세종특별자치시", "")

	f.provider.On("FetchLive", mock.Anything, query).Return(providers.LiveResponse{Status: providers.LiveEmpty})
	f.provider.On("FetchList", mock.Anything, "세종특별자치시").Return(providers.ListResponse{Usable: true,
		Coordinates: map[string]entities.Coordinate{"B1": {Latitude: 36.48, Longitude: 127.28}}}).Once()

	first := f.service.Load(ctx, query)
	f.clock.Advance(time.Minute)
	second := f.service.Load(ctx, query)

	for _, result := range []entities.FetchResult{first, second} {
		assert.Equal(t, entities.SourceLive, result.Source)
		assert.Equal(t, entities.StateLiveEmpty, result.State())
		assert.NotNil(t, result.Hospitals)
		assert.Empty(t, result.Hospitals)
		assert.False(t, result.FromCache)
	}
	f.provider.AssertNumberOfCalls(t, "FetchLive", 2)
	f.provider.AssertNumberOfCalls(t, "FetchList", 1)
}

func TestHospitalService_Load_MergesAndCaches(t *testing.T) {
	ctx := context.Background()
	f := newPipelineFixture()
	query := entities.NewRegionQuery("서울특별시", "종로구")

	f.provider.On("FetchLive", mock.Anything, query).Return(providers.LiveResponse{
		Status:  providers.LivePopulated,
		Records: liveRecords(),
	}).Once()
	f.provider.On("FetchList", mock.Anything, "서울특별시").Return(providers.ListResponse{Usable: true,
		Coordinates: map[string]entities.Coordinate{"A1100010": {Latitude: 37.5796, Longitude: 126.9990}}}).Once()

	result := f.service.Load(ctx, query)

	assert.Equal(t, entities.StateLiveWithData, result.State())
	require.Len(t, result.Hospitals, 2)
	require.NotNil(t, result.Hospitals[0].Coordinate)
	assert.Equal(t, 37.5796, result.Hospitals[0].Coordinate.Latitude)
	assert.Nil(t, result.Hospitals[1].Coordinate)

	f.clock.Advance(9 * time.Minute)
	again := f.service.Load(ctx, query)
	assert.True(t, again.FromCache)
	assert.Equal(t, result.Hospitals, again.Hospitals)

	roster, ok := f.coordinates.Get(ctx, "서울특별시")
	assert.True(t, ok)
	assert.Len(t, roster, 1)
	f.provider.AssertExpectations(t)
}

func TestHospitalService_Load_RefetchesAfterLiveTTL(t *testing.T) {
	ctx := context.Background()
	f := newPipelineFixture()
	query := entities.NewRegionQuery("부산광역시", "")

	f.provider.On("FetchLive", mock.Anything, query).Return(providers.LiveResponse{
		Status:  providers.LivePopulated,
		Records: liveRecords(),
	})
	f.provider.On("FetchList", mock.Anything, "부산광역시").Return(providers.ListResponse{Usable: true,
		Coordinates: map[string]entities.Coordinate{"A1100017": {Latitude: 35.1, Longitude: 129.0}}})

	f.service.Load(ctx, query)
	f.clock.Advance(10 * time.Minute)
	result := f.service.Load(ctx, query)

	assert.False(t, result.FromCache)
	f.provider.AssertNumberOfCalls(t, "FetchLive", 2)
	f.provider.AssertNumberOfCalls(t, "FetchList", 1)
}

func TestHospitalService_Load_RosterSharedAcrossDistricts(t *testing.T) {
	ctx := context.Background()
	f := newPipelineFixture()
	gangnam := entities.NewRegionQuery("서울특별시", "강남구")
	mapo := entities.NewRegionQuery("서울특별시", "마포구")

	f.provider.On("FetchLive", mock.Anything, mock.Anything).Return(providers.LiveResponse{
		Status:  providers.LivePopulated,
		Records: liveRecords(),
	})
	f.provider.On("FetchList", mock.Anything, "서울특별시").Return(providers.ListResponse{Usable: true,
		Coordinates: map[string]entities.Coordinate{"A1100010": {Latitude: 37.5, Longitude: 127.0}}})

	f.service.Load(ctx, gangnam)
	f.service.Load(ctx, mapo)

	f.provider.AssertNumberOfCalls(t, "FetchLive", 2)
	f.provider.AssertNumberOfCalls(t, "FetchList", 1)
}

func TestHospitalService_Load_RosterFailureMeansNoCoordinates(t *testing.T) {
	ctx := context.Background()
	f := newPipelineFixture()
	query := entities.NewRegionQuery("대구광역시", "")

	f.provider.On("FetchLive", mock.Anything, query).Return(providers.LiveResponse{
		Status:  providers.LivePopulated,
		Records: liveRecords(),
	})
	f.provider.On("FetchList", mock.Anything, "대구광역시").Return(providers.ListResponse{
		Err: apperrors.NewTransportError("timeout", nil),
	})

	result := f.service.Load(ctx, query)

	assert.Equal(t, entities.StateLiveWithData, result.State())
	for _, h := range result.Hospitals {
		assert.Nil(t, h.Coordinate)
	}
	_, ok := f.coordinates.Get(ctx, "대구광역시")
	assert.False(t, ok, "an unusable roster is never cached")
}

func TestHospitalService_WarmCoordinates(t *testing.T) {
	ctx := context.Background()
	f := newPipelineFixture()

	f.provider.On("FetchList", mock.Anything, "경기도").Return(providers.ListResponse{Usable: true,
		Coordinates: map[string]entities.Coordinate{
			"C1": {Latitude: 37.2, Longitude: 127.0},
			"C2": {Latitude: 37.3, Longitude: 127.1},
		}})
	f.provider.On("FetchList", mock.Anything, "제주특별자치도").Return(providers.ListResponse{
		Err: apperrors.NewTransportError("refused", nil),
	})

	n, err := f.service.WarmCoordinates(ctx, "경기도")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	roster, ok := f.coordinates.Get(ctx, "경기도")
	assert.True(t, ok)
	assert.Len(t, roster, 2)

	_, err = f.service.WarmCoordinates(ctx, "제주특별자치도")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeTransport))
}

func TestMergeCoordinates_Idempotent(t *testing.T) {
	records := liveRecords()
	records[1].Coordinate = &entities.Coordinate{Latitude: 1, Longitude: 2}
	coords := map[string]entities.Coordinate{
		"A1100010": {Latitude: 37.5796, Longitude: 126.9990},
		"A1100017": {Latitude: 37.5683, Longitude: 126.9678},
	}

	once := services.MergeCoordinates(records, coords)
	twice := services.MergeCoordinates(records, coords)
	reapplied := services.MergeCoordinates(once, coords)

	assert.Equal(t, once, twice)
	assert.Equal(t, once, reapplied)
	assert.Equal(t, 37.5683, once[1].Coordinate.Latitude, "roster coordinate replaces the live one")
	assert.Nil(t, records[0].Coordinate, "inputs are not modified")
}
