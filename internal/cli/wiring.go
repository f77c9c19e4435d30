package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	fileTokenstore "github.com/Overland-East-Bay/ridebook/internal/adapters/file/tokenstore"
	"github.com/Overland-East-Bay/ridebook/internal/adapters/httpclient"
	memgeocoder "github.com/Overland-East-Bay/ridebook/internal/adapters/memory/geocoder"
	memrouter "github.com/Overland-East-Bay/ridebook/internal/adapters/memory/router"
	memtokenstore "github.com/Overland-East-Bay/ridebook/internal/adapters/memory/tokenstore"
	"github.com/Overland-East-Bay/ridebook/internal/adapters/nominatim"
	"github.com/Overland-East-Bay/ridebook/internal/adapters/osrm"
	postgres "github.com/Overland-East-Bay/ridebook/internal/adapters/postgres"
	pgtokenstore "github.com/Overland-East-Bay/ridebook/internal/adapters/postgres/tokenstore"
	redisTokenstore "github.com/Overland-East-Bay/ridebook/internal/adapters/redis/tokenstore"
	"github.com/Overland-East-Bay/ridebook/internal/app/booking"
	"github.com/Overland-East-Bay/ridebook/internal/app/planner"
	"github.com/Overland-East-Bay/ridebook/internal/app/session"
	platformclock "github.com/Overland-East-Bay/ridebook/internal/platform/clock"
	"github.com/Overland-East-Bay/ridebook/internal/platform/config"
	clockport "github.com/Overland-East-Bay/ridebook/internal/ports/out/clock"
	"github.com/Overland-East-Bay/ridebook/internal/ports/out/gateway"
	"github.com/Overland-East-Bay/ridebook/internal/ports/out/notify"
	"github.com/Overland-East-Bay/ridebook/internal/ports/out/tokenstore"
)

// App holds the wired components one command runs against.
type App struct {
	Session  *session.Store
	Rides    gateway.Rides
	Geocoder gateway.Geocoder
	Router   gateway.Router
	Notifier notify.Notifier
	Logger   *slog.Logger

	closers []func()
}

// NewApp assembles an App from already-built adapters.
func NewApp(tokens tokenstore.Store, client *httpclient.Client, geo gateway.Geocoder, rtr gateway.Router, clk clockport.Clock, ttl time.Duration, n notify.Notifier, logger *slog.Logger) *App {
	return &App{
		Session:  session.NewStore(tokens, client, client, clk, session.Options{DefaultTTL: ttl, Logger: logger}),
		Rides:    client,
		Geocoder: geo,
		Router:   rtr,
		Notifier: n,
		Logger:   logger,
	}
}

// Planner builds the booking screen for one command.
func (a *App) Planner() *planner.Planner {
	return planner.New(planner.Deps{
		Session:  a.Session,
		Geocoder: a.Geocoder,
		Router:   a.Router,
		Rides:    a.Rides,
		Notifier: a.Notifier,
		Logger:   a.Logger,
	})
}

// History builds the bookings list for one command.
func (a *App) History() *booking.History {
	return booking.NewHistory(a.Session, a.Rides, a.Notifier, a.Logger)
}

// Close releases connections opened while wiring.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// WireFunc builds an App from configuration.
type WireFunc func(ctx context.Context, cfg *config.Config, n notify.Notifier, logger *slog.Logger) (*App, error)

// Wire builds the production App selected by cfg.
func Wire(ctx context.Context, cfg *config.Config, n notify.Notifier, logger *slog.Logger) (*App, error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	tokens, closeTokens, err := newTokenStore(ctx, cfg.Session)
	if err != nil {
		return nil, err
	}
	if closeTokens != nil {
		closers = append(closers, closeTokens)
	}

	client, err := httpclient.New(httpclient.Options{
		BaseURL: cfg.API.BaseURL,
		Timeout: cfg.API.Timeout,
		Logger:  logger,
	})
	if err != nil {
		cleanup()
		return nil, err
	}

	geo, err := newGeocoder(cfg, logger)
	if err != nil {
		cleanup()
		return nil, err
	}
	rtr := newRouter(cfg, logger)

	app := NewApp(tokens, client, geo, rtr, platformclock.NewSystemClock(), cfg.Session.DefaultTTL, n, logger)
	app.closers = closers
	return app, nil
}

func newTokenStore(ctx context.Context, cfg config.SessionConfig) (tokenstore.Store, func(), error) {
	switch cfg.Store {
	case "memory":
		return memtokenstore.NewStore(), nil, nil
	case "file":
		return fileTokenstore.NewStore(cfg.File), nil, nil
	case "redis":
		s := redisTokenstore.NewStoreWithAddr(cfg.RedisAddr, cfg.TokenKey)
		return s, func() { _ = s.Close() }, nil
	case "postgres":
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, postgres.PoolOptions{MaxConns: 2})
		if err != nil {
			return nil, nil, fmt.Errorf("connect session database: %w", err)
		}
		if err := postgres.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("migrate session database: %w", err)
		}
		return pgtokenstore.NewStore(pool, cfg.TokenKey), pool.Close, nil
	}
	return nil, nil, fmt.Errorf("invalid session store: %s", cfg.Store)
}

func newGeocoder(cfg *config.Config, logger *slog.Logger) (gateway.Geocoder, error) {
	switch cfg.Geocoder.Provider {
	case "nominatim":
		return nominatim.New(nominatim.Options{
			BaseURL:           cfg.Geocoder.BaseURL,
			UserAgent:         cfg.Geocoder.UserAgent,
			RequestsPerSecond: cfg.Geocoder.RequestsPerSecond,
			CacheSize:         cfg.Geocoder.CacheSize,
			Timeout:           cfg.API.Timeout,
			Logger:            logger,
		})
	case "memory":
		return memgeocoder.New(), nil
	}
	return nil, errors.New("invalid geocoder provider: " + cfg.Geocoder.Provider)
}

func newRouter(cfg *config.Config, logger *slog.Logger) gateway.Router {
	if cfg.Router.Provider == "osrm" {
		return osrm.New(osrm.Options{BaseURL: cfg.Router.BaseURL, Timeout: cfg.API.Timeout, Logger: logger})
	}
	return memrouter.New()
}
