package emergency

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/attribute"

	"github.com/zatekoja/erbedfinder/backend/internal/domain/entities"
	"github.com/zatekoja/erbedfinder/backend/internal/domain/providers"
	"github.com/zatekoja/erbedfinder/backend/internal/infrastructure/observability"
	"github.com/zatekoja/erbedfinder/backend/pkg/config"
	apperrors "github.com/zatekoja/erbedfinder/backend/pkg/errors"
)

// Client queries the public emergency-room data service over HTTP. It never
// returns errors to callers; failures are folded into unusable responses.
type Client struct {
	http    *resty.Client
	cfg     config.EmergencyAPIConfig
	metrics *observability.Metrics
	now     func() time.Time
}

// NewClient creates a client for the configured upstream. Retries are left to
// the caller's fallback path, so the transport never retries on its own.
func NewClient(cfg config.EmergencyAPIConfig, metrics *observability.Metrics) *Client {
	if cfg.LivePageSize <= 0 {
		cfg.LivePageSize = 100
	}
	if cfg.ListPageSize <= 0 {
		cfg.ListPageSize = 1000
	}
	if cfg.ListMaxPages <= 0 {
		cfg.ListMaxPages = 1
	}

	httpClient := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetRetryCount(0).
		SetHeader("Accept", "application/xml")

	return &Client{
		http:    httpClient,
		cfg:     cfg,
		metrics: metrics,
		now:     time.Now,
	}
}

var _ providers.EmergencyDataProvider = (*Client)(nil)

// FetchLive queries real-time bed availability for a province and optional district.
func (c *Client) FetchLive(ctx context.Context, query entities.RegionQuery) providers.LiveResponse {
	query = query.Normalize()
	ctx, span := observability.StartSpan(ctx, "emergency.FetchLive",
		attribute.String("region.key", query.Key()))
	defer span.End()
	start := time.Now()

	if c.cfg.ServiceKey == "" {
		err := apperrors.NewValidationError("emergency API service key is not configured")
		observability.RecordFetch(ctx, c.metrics, "live", providers.LiveUnusable.String(), time.Since(start))
		return providers.LiveResponse{Status: providers.LiveUnusable, Err: err}
	}

	params := map[string]string{
		"serviceKey": c.cfg.ServiceKey,
		"STAGE1":     query.Province,
		"pageNo":     "1",
		"numOfRows":  strconv.Itoa(c.cfg.LivePageSize),
	}
	if query.HasDistrict() {
		params["STAGE2"] = query.District
	}

	data, err := c.get(ctx, c.cfg.LivePath, params)
	if err != nil {
		observability.RecordError(span, err)
		observability.RecordFetch(ctx, c.metrics, "live", providers.LiveUnusable.String(), time.Since(start))
		observability.LoggerFromContext(ctx).Warn().Err(err).
			Str("region", query.Key()).Msg("Live bed query failed")
		return providers.LiveResponse{Status: providers.LiveUnusable, Err: err}
	}

	resp := ParseLive(data, c.now())
	if resp.Err != nil {
		observability.RecordError(span, resp.Err)
		observability.LoggerFromContext(ctx).Warn().Err(resp.Err).
			Str("region", query.Key()).Msg("Live bed response unusable")
	}
	span.SetAttributes(attribute.String("live.status", resp.Status.String()),
		attribute.Int("live.records", len(resp.Records)))
	observability.RecordFetch(ctx, c.metrics, "live", resp.Status.String(), time.Since(start))
	return resp
}

// FetchList pages through the facility roster for a province and collects
// coordinates by facility id. Any failed page makes the whole roster unusable
// so a partial roster is never cached.
func (c *Client) FetchList(ctx context.Context, province string) providers.ListResponse {
	province = strings.TrimSpace(province)
	ctx, span := observability.StartSpan(ctx, "emergency.FetchList",
		attribute.String("region.province", entities.ProvinceKey(province)))
	defer span.End()
	start := time.Now()

	fail := func(err error) providers.ListResponse {
		observability.RecordError(span, err)
		observability.RecordFetch(ctx, c.metrics, "list", "unusable", time.Since(start))
		observability.LoggerFromContext(ctx).Warn().Err(err).
			Str("province", entities.ProvinceKey(province)).Msg("Facility roster query failed")
		return providers.ListResponse{Err: err}
	}

	if c.cfg.ServiceKey == "" {
		return fail(apperrors.NewValidationError("emergency API service key is not configured"))
	}

	coords := make(map[string]entities.Coordinate)
	for page := 1; page <= c.cfg.ListMaxPages; page++ {
		params := map[string]string{
			"serviceKey": c.cfg.ServiceKey,
			"pageNo":     strconv.Itoa(page),
			"numOfRows":  strconv.Itoa(c.cfg.ListPageSize),
		}
		if province != "" && province != entities.AllDistricts {
			params["Q0"] = province
		}

		data, err := c.get(ctx, c.cfg.ListPath, params)
		if err != nil {
			return fail(err)
		}
		pageCoords, itemCount, total, err := parseList(data)
		if err != nil {
			return fail(err)
		}
		for id, coord := range pageCoords {
			coords[id] = coord
		}

		if itemCount < c.cfg.ListPageSize || page*c.cfg.ListPageSize >= total {
			break
		}
	}

	span.SetAttributes(attribute.Int("list.coordinates", len(coords)))
	observability.RecordFetch(ctx, c.metrics, "list", "usable", time.Since(start))
	return providers.ListResponse{Usable: true, Coordinates: coords}
}

func (c *Client) get(ctx context.Context, path string, params map[string]string) ([]byte, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(params).
		Get(path)
	if err != nil {
		return nil, apperrors.NewTransportError("emergency API request failed", err)
	}
	if resp.IsError() {
		return nil, apperrors.NewTransportError(
			fmt.Sprintf("emergency API returned HTTP %d", resp.StatusCode()), nil)
	}
	return resp.Body(), nil
}
