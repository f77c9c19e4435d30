package nominatim

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Overland-East-Bay/ridebook/internal/domain"
	"github.com/Overland-East-Bay/ridebook/internal/ports/out/gateway"
)

func newGeocoder(t *testing.T, h http.Handler) *Geocoder {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	g, err := New(Options{BaseURL: srv.URL, UserAgent: "ridebook-test", RequestsPerSecond: 1000, Timeout: 2 * time.Second})
	require.NoError(t, err)
	return g
}

func TestNew_RequiresUserAgent(t *testing.T) {
	_, err := New(Options{})
	assert.Error(t, err)
}

func TestGeocoder_ResolvesFirstMatch(t *testing.T) {
	var calls atomic.Int32
	g := newGeocoder(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		assert.Equal(t, "1", r.URL.Query().Get("limit"))
		assert.Equal(t, "times square", r.URL.Query().Get("q"))
		assert.Equal(t, "ridebook-test", r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte(`[{"lat":"40.758","lon":"-73.9855","display_name":"Times Square"}]`))
	}))

	c, err := g.ResolveAddress(context.Background(), "  Times   Square ")
	require.NoError(t, err)
	assert.Equal(t, domain.Coordinate{Latitude: 40.758, Longitude: -73.9855}, c)

	// Cached by normalized text.
	c2, err := g.ResolveAddress(context.Background(), "times square")
	require.NoError(t, err)
	assert.Equal(t, c, c2)
	assert.Equal(t, int32(1), calls.Load())
}

func TestGeocoder_NoMatchIsLookupFailed(t *testing.T) {
	g := newGeocoder(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))

	_, err := g.ResolveAddress(context.Background(), "nowhere")
	assert.Equal(t, gateway.KindLookupFailed, gateway.KindOf(err))

	_, err = g.ResolveAddress(context.Background(), "   ")
	assert.Equal(t, gateway.KindLookupFailed, gateway.KindOf(err))
}

func TestGeocoder_BadCoordinatesAreLookupFailed(t *testing.T) {
	g := newGeocoder(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[{"lat":"91","lon":"0"}]`))
	}))

	_, err := g.ResolveAddress(context.Background(), "pole")
	assert.Equal(t, gateway.KindLookupFailed, gateway.KindOf(err))
}

func TestGeocoder_ServerErrorIsTransportAndNotCached(t *testing.T) {
	var fail atomic.Bool
	fail.Store(true)
	g := newGeocoder(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if fail.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`[{"lat":"1","lon":"2"}]`))
	}))

	_, err := g.ResolveAddress(context.Background(), "x")
	assert.Equal(t, gateway.KindTransport, gateway.KindOf(err))

	fail.Store(false)
	c, err := g.ResolveAddress(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, domain.Coordinate{Latitude: 1, Longitude: 2}, c)
}

func TestGeocoder_CollapsesConcurrentLookups(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	g := newGeocoder(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		<-release
		_, _ = w.Write([]byte(`[{"lat":"1","lon":"2"}]`))
	}))

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := g.ResolveAddress(context.Background(), "same place")
			assert.NoError(t, err)
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()
	assert.Equal(t, int32(1), calls.Load())
}

func TestGeocoder_CancelledCaller(t *testing.T) {
	release := make(chan struct{})
	g := newGeocoder(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		<-release
		_, _ = w.Write([]byte(`[{"lat":"1","lon":"2"}]`))
	}))
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := g.ResolveAddress(ctx, "slow")
	assert.Equal(t, gateway.KindTransport, gateway.KindOf(err))
}
