// Package osrm computes driving routes with an OSRM server.
package osrm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Overland-East-Bay/ridebook/internal/domain"
	"github.com/Overland-East-Bay/ridebook/internal/platform/logging"
	"github.com/Overland-East-Bay/ridebook/internal/ports/out/gateway"
)

const DefaultBaseURL = "https://router.project-osrm.org"

type Options struct {
	BaseURL    string
	Profile    string // driving when empty
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Router implements gateway.Router.
type Router struct {
	baseURL    string
	profile    string
	httpClient *http.Client
	logger     *slog.Logger
}

var _ gateway.Router = (*Router)(nil)

func New(opts Options) *Router {
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		base = DefaultBaseURL
	}
	profile := opts.Profile
	if profile == "" {
		profile = "driving"
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: opts.Timeout}
	}
	return &Router{
		baseURL:    base,
		profile:    profile,
		httpClient: hc,
		logger:     logging.OrDiscard(opts.Logger),
	}
}

type routeResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Routes  []struct {
		Geometry struct {
			// GeoJSON positions are [longitude, latitude].
			Coordinates [][]float64 `json:"coordinates"`
		} `json:"geometry"`
		Distance float64 `json:"distance"`
		Duration float64 `json:"duration"`
	} `json:"routes"`
}

func (r *Router) ComputeRoute(ctx context.Context, from, to domain.Coordinate) ([]domain.Coordinate, error) {
	if err := from.Validate(); err != nil {
		return nil, &gateway.Error{Kind: gateway.KindComputationFailed, Err: fmt.Errorf("from: %w", err)}
	}
	if err := to.Validate(); err != nil {
		return nil, &gateway.Error{Kind: gateway.KindComputationFailed, Err: fmt.Errorf("to: %w", err)}
	}

	u := fmt.Sprintf("%s/route/v1/%s/%s;%s?overview=full&geometries=geojson", r.baseURL, r.profile, lngLat(from), lngLat(to))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, &gateway.Error{Kind: gateway.KindTransport, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, &gateway.Error{Kind: gateway.KindTransport, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	var body routeResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		if resp.StatusCode >= 500 {
			return nil, &gateway.Error{Kind: gateway.KindTransport, Status: resp.StatusCode, Err: fmt.Errorf("unexpected status code: %d", resp.StatusCode)}
		}
		return nil, &gateway.Error{Kind: gateway.KindComputationFailed, Status: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	if resp.StatusCode != http.StatusOK || body.Code != "Ok" {
		return nil, &gateway.Error{
			Kind:    gateway.KindComputationFailed,
			Status:  resp.StatusCode,
			Message: body.Message,
			Err:     fmt.Errorf("osrm code %q", body.Code),
		}
	}
	if len(body.Routes) == 0 {
		return nil, &gateway.Error{Kind: gateway.KindComputationFailed, Message: "no route found"}
	}

	coords := body.Routes[0].Geometry.Coordinates
	path := make([]domain.Coordinate, 0, len(coords))
	for _, p := range coords {
		if len(p) < 2 {
			return nil, &gateway.Error{Kind: gateway.KindComputationFailed, Err: fmt.Errorf("malformed position %v", p)}
		}
		path = append(path, domain.Coordinate{Latitude: p[1], Longitude: p[0]})
	}
	if len(path) < 2 {
		return nil, &gateway.Error{Kind: gateway.KindComputationFailed, Err: fmt.Errorf("route has %d points", len(path))}
	}
	r.logger.Debug("route computed",
		slog.Int("points", len(path)),
		slog.Float64("distance_m", body.Routes[0].Distance),
		slog.Float64("duration_s", body.Routes[0].Duration))
	return path, nil
}

func lngLat(c domain.Coordinate) string {
	return strconv.FormatFloat(c.Longitude, 'f', -1, 64) + "," + strconv.FormatFloat(c.Latitude, 'f', -1, 64)
}
