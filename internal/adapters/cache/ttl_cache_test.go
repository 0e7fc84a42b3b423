package cache_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/erbedfinder/backend/internal/adapters/cache"
	"github.com/zatekoja/erbedfinder/backend/internal/domain/entities"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, entities.KST)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestTTLCache_HitWithinWindowReturnsSamePayload(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	store := cache.NewMemoryAdapter()
	live := cache.NewTTLCache[[]entities.HospitalRecord](store, "live", 10*time.Minute, cache.WithClock(clock.Now))

	payload := []entities.HospitalRecord{{ID: "A1100010", Name: "서울대학교병원", GeneralBedsAvailable: 4}}
	require.NoError(t, live.Set(ctx, "서울특별시", payload))

	clock.Advance(3 * time.Minute)
	first, ok := live.Get(ctx, "서울특별시")
	require.True(t, ok)

	clock.Advance(2 * time.Minute)
	second, ok := live.Get(ctx, "서울특별시")
	require.True(t, ok)

	assert.Equal(t, payload, first)
	assert.Equal(t, first, second)
}

func TestTTLCache_ExpiredEntryIsMissButNotDeleted(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	store := cache.NewMemoryAdapter()
	live := cache.NewTTLCache[[]entities.HospitalRecord](store, "live", 10*time.Minute, cache.WithClock(clock.Now))

	require.NoError(t, live.Set(ctx, "부산광역시", []entities.HospitalRecord{{ID: "B1"}}))
	clock.Advance(10 * time.Minute)

	_, ok := live.Get(ctx, "부산광역시")
	assert.False(t, ok)

	exists, err := store.Exists(ctx, "live:부산광역시")
	require.NoError(t, err)
	assert.True(t, exists, "stale entries stay in the store until overwritten")

	require.NoError(t, live.Set(ctx, "부산광역시", []entities.HospitalRecord{{ID: "B2"}}))
	got, ok := live.Get(ctx, "부산광역시")
	require.True(t, ok)
	assert.Equal(t, "B2", got[0].ID)
}

func TestTTLCache_MissingKey(t *testing.T) {
	coords := cache.NewTTLCache[map[string]entities.Coordinate](cache.NewMemoryAdapter(), "list", 24*time.Hour)

	got, ok := coords.Get(context.Background(), "경기도")
	assert.False(t, ok)
	assert.Nil(t, got)
}

func TestTTLCache_CorruptEntryIsMiss(t *testing.T) {
	ctx := context.Background()
	store := cache.NewMemoryAdapter()
	coords := cache.NewTTLCache[map[string]entities.Coordinate](store, "list", 24*time.Hour)

	require.NoError(t, store.Set(ctx, "list:경기도", []byte("{not json"), 0))
	_, ok := coords.Get(ctx, "경기도")
	assert.False(t, ok)

	require.NoError(t, store.Set(ctx, "list:경기도", []byte(`{"payload":{}}`), 0))
	_, ok = coords.Get(ctx, "경기도")
	assert.False(t, ok, "entries without a timestamp are unreadable")
}

func TestTTLCache_ConcurrentWritersLastCompletedWins(t *testing.T) {
	ctx := context.Background()
	store := cache.NewMemoryAdapter()
	live := cache.NewTTLCache[[]entities.HospitalRecord](store, "live", time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = live.Set(ctx, "대구광역시", []entities.HospitalRecord{{ID: "D", GeneralBedsAvailable: i}})
		}(i)
	}
	wg.Wait()

	got, ok := live.Get(ctx, "대구광역시")
	require.True(t, ok)
	require.Len(t, got, 1)
	assert.Equal(t, "D", got[0].ID)
}

func TestTTLCache_StoreKey(t *testing.T) {
	live := cache.NewTTLCache[[]entities.HospitalRecord](cache.NewMemoryAdapter(), "live", time.Minute)
	assert.Equal(t, "live:서울특별시:강남구", live.StoreKey(entities.NewRegionQuery("서울특별시", "강남구").Key()))
	assert.Equal(t, time.Minute, live.TTL())
}
