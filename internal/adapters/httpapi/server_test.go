package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	memclock "github.com/Overland-East-Bay/ridebook/internal/adapters/memory/clock"
	memidempotency "github.com/Overland-East-Bay/ridebook/internal/adapters/memory/idempotency"
	memriderepo "github.com/Overland-East-Bay/ridebook/internal/adapters/memory/riderepo"
	memuserrepo "github.com/Overland-East-Bay/ridebook/internal/adapters/memory/userrepo"
	"github.com/Overland-East-Bay/ridebook/internal/app/accounts"
	"github.com/Overland-East-Bay/ridebook/internal/app/rides"
	"github.com/Overland-East-Bay/ridebook/internal/platform/auth/tokenissuer"
)

type harness struct {
	h   http.Handler
	clk *memclock.ManualClock
	reg *prometheus.Registry
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	clk := memclock.NewManualClock(time.Unix(1700000000, 0).UTC())
	iss, err := tokenissuer.New([]byte("0123456789abcdef0123456789abcdef"), time.Hour, clk)
	require.NoError(t, err)

	acc := accounts.NewService(memuserrepo.NewRepo(), iss, clk)
	acc.BcryptCost = bcrypt.MinCost
	rd := rides.NewService(memriderepo.NewRepo(), clk)
	srv := NewServer(acc, rd, memidempotency.NewStore(), 10*time.Minute, clk, nil)

	reg := prometheus.NewRegistry()
	h := NewRouter(srv, RouterOptions{AuthMiddleware: NewAuthMiddleware(iss), Registry: reg})
	return &harness{h: h, clk: clk, reg: reg}
}

func (hs *harness) do(t *testing.T, method, path, token string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	hs.h.ServeHTTP(rr, req)
	return rr
}

func (hs *harness) signup(t *testing.T, email string) authResponse {
	t.Helper()
	rr := hs.do(t, http.MethodPost, "/api/auth/signup", "", signupRequest{Name: "Alice", Email: email, Password: "secret1"}, nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var out authResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	return out
}

func TestAuth_SignupAndLogin(t *testing.T) {
	hs := newHarness(t)

	res := hs.signup(t, "Alice@Example.com")
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, "alice@example.com", string(res.User.Email))
	assert.NotEmpty(t, res.User.ID)

	rr := hs.do(t, http.MethodPost, "/api/auth/login", "", loginRequest{Email: "alice@example.com", Password: "secret1"}, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var got authResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, res.User.ID, got.User.ID)
}

func TestAuth_ErrorsUseErrorField(t *testing.T) {
	hs := newHarness(t)
	hs.signup(t, "a@b.co")

	rr := hs.do(t, http.MethodPost, "/api/auth/signup", "", signupRequest{Name: "B", Email: "a@b.co", Password: "secret1"}, nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "Email already in use", body["error"])
	assert.NotEmpty(t, body["requestId"])

	rr = hs.do(t, http.MethodPost, "/api/auth/signup", "", signupRequest{Name: "B", Email: "c@b.co", Password: "123"}, nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "Password must be at least 6 characters")

	rr = hs.do(t, http.MethodPost, "/api/auth/login", "", loginRequest{Email: "a@b.co", Password: "nope"}, nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Contains(t, rr.Body.String(), `"error":"Invalid email or password"`)
}

func TestRides_RequireBearer(t *testing.T) {
	hs := newHarness(t)

	rr := hs.do(t, http.MethodGet, "/api/rides/my", "", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Contains(t, rr.Body.String(), `"message"`)

	rr = hs.do(t, http.MethodGet, "/api/rides/my", "garbage", nil, nil)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	tok := hs.signup(t, "a@b.co").Token
	hs.clk.Advance(2 * time.Hour)
	rr = hs.do(t, http.MethodGet, "/api/rides/my", tok, nil, nil)
	assert.Equal(t, http.StatusForbidden, rr.Code, "expired token")
}

func TestRides_BookAndList(t *testing.T) {
	hs := newHarness(t)
	tok := hs.signup(t, "a@b.co").Token

	rr := hs.do(t, http.MethodPost, "/api/rides/book", tok, bookRideRequest{PickupLocation: "Times Square", DropLocation: "JFK"}, nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var first rideDTO
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &first))
	assert.Equal(t, "PENDING", first.Status)

	hs.clk.Advance(time.Minute)
	rr = hs.do(t, http.MethodPost, "/api/rides/book", tok, bookRideRequest{PickupLocation: "JFK", DropLocation: "Times Square"}, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var second rideDTO
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &second))

	rr = hs.do(t, http.MethodGet, "/api/rides/my", tok, nil, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var list []rideDTO
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &list))
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, first.ID, list[1].ID)

	other := hs.signup(t, "c@d.co").Token
	rr = hs.do(t, http.MethodGet, "/api/rides/my", other, nil, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "[]", strings.TrimSpace(rr.Body.String()))
}

func TestRides_BookValidation(t *testing.T) {
	hs := newHarness(t)
	tok := hs.signup(t, "a@b.co").Token

	rr := hs.do(t, http.MethodPost, "/api/rides/book", tok, bookRideRequest{PickupLocation: " ", DropLocation: "JFK"}, nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), `"message":"Pickup location is required"`)
}

func TestRides_BookIdempotentReplay(t *testing.T) {
	hs := newHarness(t)
	tok := hs.signup(t, "a@b.co").Token
	hdr := map[string]string{"Idempotency-Key": "k-1"}
	req := bookRideRequest{PickupLocation: "A", DropLocation: "B"}

	rr1 := hs.do(t, http.MethodPost, "/api/rides/book", tok, req, hdr)
	require.Equal(t, http.StatusOK, rr1.Code)
	rr2 := hs.do(t, http.MethodPost, "/api/rides/book", tok, req, hdr)
	require.Equal(t, http.StatusOK, rr2.Code)
	assert.JSONEq(t, rr1.Body.String(), rr2.Body.String())

	rr := hs.do(t, http.MethodGet, "/api/rides/my", tok, nil, nil)
	var list []rideDTO
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &list))
	assert.Len(t, list, 1)

	// A different body under the same key is a new booking.
	rr3 := hs.do(t, http.MethodPost, "/api/rides/book", tok, bookRideRequest{PickupLocation: "A", DropLocation: "C"}, hdr)
	require.Equal(t, http.StatusOK, rr3.Code)
	assert.NotEqual(t, rr1.Body.String(), rr3.Body.String())

	// Expired records are not replayed.
	hs.clk.Advance(11 * time.Minute)
	rr4 := hs.do(t, http.MethodPost, "/api/rides/book", tok, req, hdr)
	require.Equal(t, http.StatusOK, rr4.Code)
	assert.NotEqual(t, rr1.Body.String(), rr4.Body.String())
}

func TestRouter_HealthAndMetrics(t *testing.T) {
	hs := newHarness(t)

	rr := hs.do(t, http.MethodGet, "/healthz", "", nil, nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "ok", rr.Body.String())

	rr = hs.do(t, http.MethodGet, "/metrics", "", nil, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `ridebook_devapi_requests_total{method="GET",route="/healthz",status="200"} 1`)
}

func TestHashBody_IgnoresFormatting(t *testing.T) {
	a := hashBody([]byte(`{"pickupLocation":"A","dropLocation":"B"}`))
	b := hashBody([]byte("{ \"dropLocation\": \"B\",\n \"pickupLocation\": \"A\" }"))
	c := hashBody([]byte(`{"pickupLocation":"A","dropLocation":"C"}`))
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}
