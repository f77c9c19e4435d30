// Package httpclient implements the booking service gateway over HTTP.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/Overland-East-Bay/ridebook/internal/domain"
	"github.com/Overland-East-Bay/ridebook/internal/platform/logging"
	"github.com/Overland-East-Bay/ridebook/internal/ports/out/gateway"
	"github.com/Overland-East-Bay/ridebook/internal/ports/out/idempotency"
)

const (
	pathSignup = "/api/auth/signup"
	pathLogin  = "/api/auth/login"
	pathBook   = "/api/rides/book"
	pathMy     = "/api/rides/my"
)

type Options struct {
	BaseURL string
	Timeout time.Duration

	// HTTPClient overrides the default client; Timeout is ignored when set.
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client implements gateway.Accounts, gateway.Rides and gateway.Authorizer.
// It is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger

	mu    sync.RWMutex
	token string
}

var (
	_ gateway.Accounts   = (*Client)(nil)
	_ gateway.Rides      = (*Client)(nil)
	_ gateway.Authorizer = (*Client)(nil)
)

func New(opts Options) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		return nil, errors.New("httpclient: base url is required")
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: opts.Timeout}
	}
	return &Client{
		baseURL:    base,
		httpClient: hc,
		logger:     logging.OrDiscard(opts.Logger),
	}, nil
}

func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *Client) ClearToken() {
	c.mu.Lock()
	c.token = ""
	c.mu.Unlock()
}

func (c *Client) bearer() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

type authPayload struct {
	Token string  `json:"token"`
	User  userDTO `json:"user"`
}

type userDTO struct {
	ID    domain.WireID `json:"id"`
	Name  string        `json:"name"`
	Email string        `json:"email"`
}

type rideDTO struct {
	ID             domain.WireID `json:"id"`
	PickupLocation string        `json:"pickupLocation"`
	DropLocation   string        `json:"dropLocation"`
	DateTime       flexTime      `json:"dateTime"`
	Status         string        `json:"status"`
}

func (d rideDTO) toDomain() domain.Ride {
	return domain.Ride{
		ID:             domain.RideID(d.ID),
		PickupLocation: d.PickupLocation,
		DropLocation:   d.DropLocation,
		DateTime:       time.Time(d.DateTime),
		Status:         domain.RideStatus(d.Status),
	}
}

func (c *Client) Signup(ctx context.Context, in gateway.SignupInput) (gateway.AuthResult, error) {
	body := map[string]string{"name": in.Name, "email": in.Email, "password": in.Password}
	return c.authenticate(ctx, pathSignup, body)
}

func (c *Client) Login(ctx context.Context, in gateway.LoginInput) (gateway.AuthResult, error) {
	body := map[string]string{"email": in.Email, "password": in.Password}
	return c.authenticate(ctx, pathLogin, body)
}

func (c *Client) authenticate(ctx context.Context, path string, body any) (gateway.AuthResult, error) {
	var out authPayload
	if err := c.do(ctx, http.MethodPost, path, body, nil, false, &out); err != nil {
		return gateway.AuthResult{}, err
	}
	if out.Token == "" {
		return gateway.AuthResult{}, &gateway.Error{Kind: gateway.KindServer, Status: http.StatusOK, Err: errors.New("response carries no token")}
	}
	return gateway.AuthResult{
		Token: out.Token,
		User: domain.User{
			ID:    domain.UserID(out.User.ID),
			Name:  out.User.Name,
			Email: out.User.Email,
		},
	}, nil
}

func (c *Client) SubmitBooking(ctx context.Context, req domain.BookingRequest, idempotencyKey string) (domain.Ride, error) {
	body := map[string]string{"pickupLocation": req.PickupText, "dropLocation": req.DropoffText}
	var hdr http.Header
	if idempotencyKey != "" {
		hdr = http.Header{}
		hdr.Set(idempotency.Header, idempotencyKey)
	}
	var out rideDTO
	if err := c.do(ctx, http.MethodPost, pathBook, body, hdr, true, &out); err != nil {
		return domain.Ride{}, err
	}
	return out.toDomain(), nil
}

func (c *Client) ListBookings(ctx context.Context) ([]domain.Ride, error) {
	var out []rideDTO
	if err := c.do(ctx, http.MethodGet, pathMy, nil, nil, true, &out); err != nil {
		return nil, err
	}
	rides := make([]domain.Ride, 0, len(out))
	for _, d := range out {
		rides = append(rides, d.toDomain())
	}
	return rides, nil
}

func (c *Client) do(ctx context.Context, method, path string, in any, hdr http.Header, authed bool, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return &gateway.Error{Kind: gateway.KindTransport, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, vs := range hdr {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if authed {
		if tok := c.bearer(); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	c.logger.Debug("gateway request", slog.String("method", method), slog.String("path", path))
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &gateway.Error{Kind: gateway.KindTransport, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &gateway.Error{Kind: gateway.KindTransport, Status: resp.StatusCode, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		ge := classify(resp.StatusCode, raw)
		c.logger.Debug("gateway error", slog.String("path", path), slog.Int("status", resp.StatusCode), slog.String("kind", string(ge.Kind)))
		return ge
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &gateway.Error{Kind: gateway.KindServer, Status: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// classify maps a non-2xx response to a gateway error, keeping the
// structured message of an {"error"} or {"message"} body.
func classify(status int, raw []byte) *gateway.Error {
	var eb errorBody
	_ = json.Unmarshal(raw, &eb)
	msg := strings.TrimSpace(eb.Error)
	if msg == "" {
		msg = strings.TrimSpace(eb.Message)
	}

	kind := gateway.KindServer
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		kind = gateway.KindUnauthorized
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity || status == http.StatusConflict:
		kind = gateway.KindValidation
	}
	return &gateway.Error{
		Kind:    kind,
		Status:  status,
		Message: msg,
		Err:     fmt.Errorf("unexpected status code: %d", status),
	}
}
