package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_EmergencyAPIConfig(t *testing.T) {
	t.Setenv("ER_API_BASE_URL", "http://er-api.test")
	t.Setenv("ER_API_SERVICE_KEY", `"abc123"`)
	t.Setenv("ER_API_LIVE_PAGE_SIZE", "50")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://er-api.test", cfg.EmergencyAPI.BaseURL)
	assert.Equal(t, "abc123", cfg.EmergencyAPI.ServiceKey)
	assert.Equal(t, 50, cfg.EmergencyAPI.LivePageSize)
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 10*time.Minute, cfg.Cache.LiveTTL)
	assert.Equal(t, 24*time.Hour, cfg.Cache.CoordinatesTTL)
	assert.Equal(t, 30, cfg.Ranking.PageSize)
	assert.Equal(t, 100, cfg.EmergencyAPI.LivePageSize)
	assert.Equal(t, 7*time.Second, cfg.Geolocation.Timeout)
	assert.Equal(t, "redis", cfg.Store.Backend)
	assert.Equal(t, "localhost:6379", cfg.Redis.RedisAddr())
}

func TestLoad_DurationOverrides(t *testing.T) {
	t.Setenv("CACHE_LIVE_TTL", "90s")
	t.Setenv("CACHE_COORDINATES_TTL", "not-a-duration")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 90*time.Second, cfg.Cache.LiveTTL)
	assert.Equal(t, 24*time.Hour, cfg.Cache.CoordinatesTTL)
}

func TestLoad_RejectsUnknownStore(t *testing.T) {
	t.Setenv("STORE_BACKEND", "etcd")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_RejectsNonPositiveDurations(t *testing.T) {
	for _, env := range []string{"CACHE_LIVE_TTL", "CACHE_COORDINATES_TTL", "CACHE_WARM_INTERVAL"} {
		for _, value := range []string{"0s", "-5m"} {
			t.Run(env+"="+value, func(t *testing.T) {
				t.Setenv(env, value)

				_, err := Load()
				require.Error(t, err)
				assert.Contains(t, err.Error(), env)
			})
		}
	}
}

func TestNormalizeServiceKey(t *testing.T) {
	assert.Equal(t, "plain+key/==", NormalizeServiceKey(" 'plain+key/==' "))
	assert.Equal(t, "plain+key/==", NormalizeServiceKey("plain%2Bkey%2F%3D%3D"))
	assert.Equal(t, "", NormalizeServiceKey(`""`))
}
