// Package nominatim resolves addresses with an OpenStreetMap Nominatim server.
package nominatim

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/Overland-East-Bay/ridebook/internal/domain"
	"github.com/Overland-East-Bay/ridebook/internal/platform/logging"
	"github.com/Overland-East-Bay/ridebook/internal/ports/out/gateway"
)

const (
	DefaultBaseURL   = "https://nominatim.openstreetmap.org"
	DefaultCacheSize = 256

	// The public instance allows one request per second.
	DefaultRequestsPerSecond = 1.0
)

type Options struct {
	BaseURL           string
	UserAgent         string
	RequestsPerSecond float64
	CacheSize         int
	Timeout           time.Duration
	HTTPClient        *http.Client
	Logger            *slog.Logger
}

// Geocoder implements gateway.Geocoder.
//
// Lookups are rate limited, identical concurrent lookups share one request,
// and successful results are cached by normalized text.
type Geocoder struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	limiter    *rate.Limiter
	cache      *lru.Cache[string, domain.Coordinate]
	group      singleflight.Group
	logger     *slog.Logger
}

var _ gateway.Geocoder = (*Geocoder)(nil)

func New(opts Options) (*Geocoder, error) {
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		base = DefaultBaseURL
	}
	if strings.TrimSpace(opts.UserAgent) == "" {
		return nil, errors.New("nominatim: user agent is required")
	}
	rps := opts.RequestsPerSecond
	if rps <= 0 {
		rps = DefaultRequestsPerSecond
	}
	size := opts.CacheSize
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[string, domain.Coordinate](size)
	if err != nil {
		return nil, fmt.Errorf("nominatim: cache: %w", err)
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: opts.Timeout}
	}
	return &Geocoder{
		baseURL:    base,
		userAgent:  opts.UserAgent,
		httpClient: hc,
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
		cache:      cache,
		logger:     logging.OrDiscard(opts.Logger),
	}, nil
}

type place struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

func (g *Geocoder) ResolveAddress(ctx context.Context, text string) (domain.Coordinate, error) {
	key := normalize(text)
	if key == "" {
		return domain.Coordinate{}, &gateway.Error{Kind: gateway.KindLookupFailed, Message: "empty address"}
	}
	if c, ok := g.cache.Get(key); ok {
		return c, nil
	}

	ch := g.group.DoChan(key, func() (any, error) {
		// Detached from any single caller so a cancelled caller does not fail the others.
		c, err := g.lookup(context.WithoutCancel(ctx), key)
		if err != nil {
			return domain.Coordinate{}, err
		}
		g.cache.Add(key, c)
		return c, nil
	})
	select {
	case <-ctx.Done():
		return domain.Coordinate{}, &gateway.Error{Kind: gateway.KindTransport, Err: ctx.Err()}
	case res := <-ch:
		if res.Err != nil {
			return domain.Coordinate{}, res.Err
		}
		return res.Val.(domain.Coordinate), nil
	}
}

func (g *Geocoder) lookup(ctx context.Context, q string) (domain.Coordinate, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return domain.Coordinate{}, &gateway.Error{Kind: gateway.KindTransport, Err: fmt.Errorf("rate limit wait: %w", err)}
	}

	v := url.Values{}
	v.Set("format", "json")
	v.Set("limit", "1")
	v.Set("q", q)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/search?"+v.Encode(), nil)
	if err != nil {
		return domain.Coordinate{}, &gateway.Error{Kind: gateway.KindTransport, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", g.userAgent)

	g.logger.Debug("geocode lookup", slog.String("query", q))
	resp, err := g.httpClient.Do(req)
	if err != nil {
		return domain.Coordinate{}, &gateway.Error{Kind: gateway.KindTransport, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return domain.Coordinate{}, &gateway.Error{
			Kind:   gateway.KindTransport,
			Status: resp.StatusCode,
			Err:    fmt.Errorf("unexpected status code: %d", resp.StatusCode),
		}
	}

	var places []place
	if err := json.NewDecoder(resp.Body).Decode(&places); err != nil {
		return domain.Coordinate{}, &gateway.Error{Kind: gateway.KindLookupFailed, Err: fmt.Errorf("decode response: %w", err)}
	}
	if len(places) == 0 {
		return domain.Coordinate{}, &gateway.Error{Kind: gateway.KindLookupFailed, Message: "no match for " + q}
	}

	lat, errLat := strconv.ParseFloat(places[0].Lat, 64)
	lon, errLon := strconv.ParseFloat(places[0].Lon, 64)
	if errLat != nil || errLon != nil {
		return domain.Coordinate{}, &gateway.Error{Kind: gateway.KindLookupFailed, Err: errors.Join(errLat, errLon)}
	}
	c := domain.Coordinate{Latitude: lat, Longitude: lon}
	if err := c.Validate(); err != nil {
		return domain.Coordinate{}, &gateway.Error{Kind: gateway.KindLookupFailed, Err: err}
	}
	return c, nil
}

func normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
