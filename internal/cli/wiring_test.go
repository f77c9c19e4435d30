package cli

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	fileTokenstore "github.com/Overland-East-Bay/ridebook/internal/adapters/file/tokenstore"
	memgeocoder "github.com/Overland-East-Bay/ridebook/internal/adapters/memory/geocoder"
	memrouter "github.com/Overland-East-Bay/ridebook/internal/adapters/memory/router"
	memtokenstore "github.com/Overland-East-Bay/ridebook/internal/adapters/memory/tokenstore"
	"github.com/Overland-East-Bay/ridebook/internal/adapters/nominatim"
	"github.com/Overland-East-Bay/ridebook/internal/adapters/osrm"
	redisTokenstore "github.com/Overland-East-Bay/ridebook/internal/adapters/redis/tokenstore"
	"github.com/Overland-East-Bay/ridebook/internal/platform/config"
	"github.com/Overland-East-Bay/ridebook/internal/platform/logging"
	"github.com/Overland-East-Bay/ridebook/internal/ports/out/notify"
)

func TestNewTokenStore(t *testing.T) {
	ctx := context.Background()

	s, closeFn, err := newTokenStore(ctx, config.SessionConfig{Store: "memory"})
	require.NoError(t, err)
	assert.Nil(t, closeFn)
	assert.IsType(t, &memtokenstore.Store{}, s)

	path := filepath.Join(t.TempDir(), "token")
	s, _, err = newTokenStore(ctx, config.SessionConfig{Store: "file", File: path})
	require.NoError(t, err)
	require.IsType(t, &fileTokenstore.Store{}, s)
	assert.Equal(t, path, s.(*fileTokenstore.Store).Path())

	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()
	s, closeFn, err = newTokenStore(ctx, config.SessionConfig{Store: "redis", RedisAddr: mr.Addr(), TokenKey: "k"})
	require.NoError(t, err)
	require.NotNil(t, closeFn)
	defer closeFn()
	assert.IsType(t, &redisTokenstore.Store{}, s)
	require.NoError(t, s.Save(ctx, "tok"))
	got, err := mr.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "tok", got)

	_, _, err = newTokenStore(ctx, config.SessionConfig{Store: "carrier-pigeon"})
	assert.Error(t, err)
}

func TestProviderSelection(t *testing.T) {
	cfg := &config.Config{
		API:      config.APIConfig{Timeout: time.Second},
		Geocoder: config.GeocoderConfig{Provider: "memory"},
		Router:   config.RouterConfig{Provider: "memory"},
	}
	geo, err := newGeocoder(cfg, nil)
	require.NoError(t, err)
	assert.IsType(t, &memgeocoder.Geocoder{}, geo)
	assert.IsType(t, &memrouter.Router{}, newRouter(cfg, nil))

	cfg.Geocoder = config.GeocoderConfig{Provider: "nominatim", BaseURL: "http://localhost:1", UserAgent: "ridebook-test", RequestsPerSecond: 1, CacheSize: 8}
	cfg.Router = config.RouterConfig{Provider: "osrm", BaseURL: "http://localhost:2"}
	geo, err = newGeocoder(cfg, nil)
	require.NoError(t, err)
	assert.IsType(t, &nominatim.Geocoder{}, geo)
	assert.IsType(t, &osrm.Router{}, newRouter(cfg, nil))
}

func TestWire_FileSession(t *testing.T) {
	cfg := &config.Config{
		API:      config.APIConfig{BaseURL: "http://localhost:8080", Timeout: time.Second},
		Geocoder: config.GeocoderConfig{Provider: "memory"},
		Router:   config.RouterConfig{Provider: "memory"},
		Session:  config.SessionConfig{Store: "file", File: filepath.Join(t.TempDir(), "token"), TokenKey: "ridebook.token", DefaultTTL: time.Hour},
	}
	app, err := Wire(context.Background(), cfg, notify.Discard{}, logging.Discard())
	require.NoError(t, err)
	defer app.Close()

	require.NoError(t, app.Session.Restore(context.Background()))
	assert.False(t, app.Session.IsAuthenticated())
	p := app.Planner()
	defer p.Close()
	assert.False(t, p.CanSubmit())
	assert.NotNil(t, app.History())
}
