package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server       ServerConfig
	Redis        RedisConfig
	Store        StoreConfig
	EmergencyAPI EmergencyAPIConfig
	Cache        CacheConfig
	Geolocation  GeolocationConfig
	Ranking      RankingConfig
	OTEL         OTELConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host string
	Port int
	Env  string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// StoreConfig selects the persisted key-value store behind the caches and favorites
type StoreConfig struct {
	// Backend is "redis" or "memory"
	Backend string
}

// EmergencyAPIConfig holds the upstream emergency-room data service configuration
type EmergencyAPIConfig struct {
	BaseURL      string
	LivePath     string
	ListPath     string
	ServiceKey   string
	LivePageSize int
	ListPageSize int
	ListMaxPages int
	Timeout      time.Duration
}

// CacheConfig holds TTLs for the two cache families and roster warming
type CacheConfig struct {
	LiveTTL        time.Duration
	CoordinatesTTL time.Duration
	WarmEnabled    bool
	WarmInterval   time.Duration
}

// GeolocationConfig holds the user-location collaborator configuration
type GeolocationConfig struct {
	Provider    string
	IPLookupURL string
	Timeout     time.Duration
}

// RankingConfig holds list presentation defaults
type RankingConfig struct {
	PageSize int
}

// OTELConfig holds OpenTelemetry configuration
type OTELConfig struct {
	ServiceName    string
	ServiceVersion string
	Endpoint       string
	Enabled        bool
}

// Load loads configuration from environment variables, reading a .env file first when one exists
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnvAsInt("SERVER_PORT", 8080),
			Env:  getEnv("APP_ENV", "development"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvAsInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Store: StoreConfig{
			Backend: strings.ToLower(getEnv("STORE_BACKEND", "redis")),
		},
		EmergencyAPI: EmergencyAPIConfig{
			BaseURL:      getEnv("ER_API_BASE_URL", "https://apis.data.go.kr/B552657/ErmctInfoInqireService"),
			LivePath:     getEnv("ER_API_LIVE_PATH", "/getEmrrmRltmUsefulSckbdInfoInqire"),
			ListPath:     getEnv("ER_API_LIST_PATH", "/getEgytListInfoInqire"),
			ServiceKey:   NormalizeServiceKey(getEnv("ER_API_SERVICE_KEY", "")),
			LivePageSize: getEnvAsInt("ER_API_LIVE_PAGE_SIZE", 100),
			ListPageSize: getEnvAsInt("ER_API_LIST_PAGE_SIZE", 1000),
			ListMaxPages: getEnvAsInt("ER_API_LIST_MAX_PAGES", 5),
			Timeout:      getEnvAsDuration("ER_API_TIMEOUT", 10*time.Second),
		},
		Cache: CacheConfig{
			LiveTTL:        getEnvAsDuration("CACHE_LIVE_TTL", 10*time.Minute),
			CoordinatesTTL: getEnvAsDuration("CACHE_COORDINATES_TTL", 24*time.Hour),
			WarmEnabled:    getEnvAsBool("CACHE_WARM_ENABLED", false),
			WarmInterval:   getEnvAsDuration("CACHE_WARM_INTERVAL", 12*time.Hour),
		},
		Geolocation: GeolocationConfig{
			Provider:    getEnv("GEOLOCATION_PROVIDER", "mock"),
			IPLookupURL: getEnv("GEOLOCATION_IP_LOOKUP_URL", "https://ipapi.co"),
			Timeout:     getEnvAsDuration("GEOLOCATION_TIMEOUT", 7*time.Second),
		},
		Ranking: RankingConfig{
			PageSize: getEnvAsInt("RANKING_PAGE_SIZE", 30),
		},
		OTEL: OTELConfig{
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "er-bed-finder"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "1.0.0"),
			Endpoint:       getEnv("OTEL_ENDPOINT", ""),
			Enabled:        getEnvAsBool("OTEL_ENABLED", false),
		},
	}

	if cfg.Store.Backend != "redis" && cfg.Store.Backend != "memory" {
		return nil, fmt.Errorf("unsupported STORE_BACKEND %q", cfg.Store.Backend)
	}
	if cfg.Ranking.PageSize <= 0 {
		return nil, fmt.Errorf("RANKING_PAGE_SIZE must be positive, got %d", cfg.Ranking.PageSize)
	}
	for name, d := range map[string]time.Duration{
		"CACHE_LIVE_TTL":        cfg.Cache.LiveTTL,
		"CACHE_COORDINATES_TTL": cfg.Cache.CoordinatesTTL,
		"CACHE_WARM_INTERVAL":   cfg.Cache.WarmInterval,
	} {
		if d <= 0 {
			return nil, fmt.Errorf("%s must be positive, got %s", name, d)
		}
	}

	return cfg, nil
}

// RedisAddr returns the Redis address
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// NormalizeServiceKey strips quotes and whitespace from a data.go.kr service key.
// Keys issued in their "encoding" form already contain percent escapes; those are
// decoded once here so the HTTP client's own query encoding does not double them.
func NormalizeServiceKey(raw string) string {
	key := strings.TrimSpace(strings.NewReplacer(`"`, "", `'`, "").Replace(raw))
	if strings.Contains(key, "%") {
		if decoded, err := url.QueryUnescape(key); err == nil {
			return decoded
		}
	}
	return key
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
