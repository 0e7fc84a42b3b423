package geolocation

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/zatekoja/erbedfinder/backend/internal/domain/entities"
	"github.com/zatekoja/erbedfinder/backend/internal/domain/providers"
	"github.com/zatekoja/erbedfinder/backend/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/erbedfinder/backend/pkg/errors"
)

const (
	defaultIPLookupURL  = "https://ipapi.co"
	defaultHTTPTimeout  = 7 * time.Second
	defaultIPCacheTTL   = 60 * 60
	ipLookupCachePrefix = "geo:ip:"
)

// IPAPIProvider locates clients through an ipapi.co compatible IP lookup.
type IPAPIProvider struct {
	http  *resty.Client
	cache providers.CacheProvider
}

type ipapiResponse struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Error     bool     `json:"error"`
	Reason    string   `json:"reason"`
}

// NewIPAPIProvider creates a provider against baseURL. cache may be nil.
func NewIPAPIProvider(baseURL string, timeout time.Duration, cache providers.CacheProvider) providers.GeolocationProvider {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = defaultIPLookupURL
	}
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	return &IPAPIProvider{
		http: resty.New().
			SetBaseURL(strings.TrimRight(baseURL, "/")).
			SetTimeout(timeout).
			SetHeader("Accept", "application/json"),
		cache: cache,
	}
}

// LocateIP resolves ip to a coordinate. Loopback and private addresses are
// looked up as the server's own egress address.
func (p *IPAPIProvider) LocateIP(ctx context.Context, ip string) (*entities.Coordinate, error) {
	path := "/json/"
	if parsed := net.ParseIP(strings.TrimSpace(ip)); parsed != nil && !parsed.IsLoopback() && !parsed.IsPrivate() {
		path = "/" + parsed.String() + "/json/"
	}

	cacheKey := ipLookupCachePrefix + hashKey(path)
	if p.cache != nil {
		if cached, err := p.cache.Get(ctx, cacheKey); err == nil {
			var coord entities.Coordinate
			if err := json.Unmarshal(cached, &coord); err == nil {
				return &coord, nil
			}
		}
	}

	var body ipapiResponse
	resp, err := p.http.R().
		SetContext(ctx).
		SetResult(&body).
		Get(path)
	if err != nil {
		return nil, apperrors.NewTransportError("ip lookup failed", err)
	}
	if resp.IsError() {
		return nil, apperrors.NewTransportError(fmt.Sprintf("ip lookup returned HTTP %d", resp.StatusCode()), nil)
	}
	if body.Error {
		return nil, apperrors.NewPayloadError("ip lookup rejected: "+body.Reason, nil)
	}
	if body.Latitude == nil || body.Longitude == nil {
		return nil, apperrors.NewPayloadError("ip lookup returned no coordinate", nil)
	}

	coord := &entities.Coordinate{Latitude: *body.Latitude, Longitude: *body.Longitude}
	if p.cache != nil {
		if payload, err := json.Marshal(coord); err == nil {
			if err := p.cache.Set(ctx, cacheKey, payload, defaultIPCacheTTL); err != nil {
				observability.LoggerFromContext(ctx).Debug().Err(err).Msg("Failed to cache ip lookup")
			}
		}
	}
	return coord, nil
}

func hashKey(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}
