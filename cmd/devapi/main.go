// Command devapi is a local stand-in for the ride booking service.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/Overland-East-Bay/ridebook/internal/adapters/httpapi"
	memidempotency "github.com/Overland-East-Bay/ridebook/internal/adapters/memory/idempotency"
	memriderepo "github.com/Overland-East-Bay/ridebook/internal/adapters/memory/riderepo"
	memuserrepo "github.com/Overland-East-Bay/ridebook/internal/adapters/memory/userrepo"
	postgres "github.com/Overland-East-Bay/ridebook/internal/adapters/postgres"
	pgidempotency "github.com/Overland-East-Bay/ridebook/internal/adapters/postgres/idempotency"
	pgriderepo "github.com/Overland-East-Bay/ridebook/internal/adapters/postgres/riderepo"
	pguserrepo "github.com/Overland-East-Bay/ridebook/internal/adapters/postgres/userrepo"
	"github.com/Overland-East-Bay/ridebook/internal/app/accounts"
	"github.com/Overland-East-Bay/ridebook/internal/app/rides"
	"github.com/Overland-East-Bay/ridebook/internal/platform/auth/tokenissuer"
	platformclock "github.com/Overland-East-Bay/ridebook/internal/platform/clock"
	"github.com/Overland-East-Bay/ridebook/internal/platform/config"
	"github.com/Overland-East-Bay/ridebook/internal/platform/logging"
	idempotencyport "github.com/Overland-East-Bay/ridebook/internal/ports/out/idempotency"
	riderepoport "github.com/Overland-East-Bay/ridebook/internal/ports/out/riderepo"
	userrepoport "github.com/Overland-East-Bay/ridebook/internal/ports/out/userrepo"
)

func main() {
	cfg, err := config.LoadDevAPIConfigFromEnv()
	if err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.LogLevel, "json", os.Stderr)
	if err != nil {
		slog.Error("invalid log level", "error", err)
		os.Exit(1)
	}

	clk := platformclock.NewSystemClock()
	issuer, err := tokenissuer.New(cfg.SigningKey, cfg.TokenTTL, clk)
	if err != nil {
		logger.Error("invalid token config", "error", err)
		os.Exit(1)
	}

	var (
		userRepo  userrepoport.Repository
		rideRepo  riderepoport.Repository
		idemStore idempotencyport.Store
		cleanup   func()
	)

	switch cfg.StorageBackend {
	case "postgres":
		pool, err := postgres.NewPool(context.Background(), cfg.DatabaseURL, postgres.PoolOptions{})
		if err != nil {
			logger.Error("invalid postgres config", "error", err)
			os.Exit(1)
		}
		cleanup = pool.Close
		if err := postgres.Migrate(context.Background(), pool); err != nil {
			pool.Close()
			logger.Error("migrate", "error", err)
			os.Exit(1)
		}

		userRepo = pguserrepo.NewRepo(pool)
		rideRepo = pgriderepo.NewRepo(pool)
		idemStore = pgidempotency.NewStore(pool)
	default:
		userRepo = memuserrepo.NewRepo()
		rideRepo = memriderepo.NewRepo()
		idemStore = memidempotency.NewStore()
	}

	if cleanup != nil {
		defer cleanup()
	}

	accountsSvc := accounts.NewService(userRepo, issuer, clk)
	ridesSvc := rides.NewService(rideRepo, clk)
	api := httpapi.NewServer(accountsSvc, ridesSvc, idemStore, cfg.IdempotencyTTL, clk, logger)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	handler := httpapi.NewRouter(api, httpapi.RouterOptions{
		AuthMiddleware: httpapi.NewAuthMiddleware(issuer),
		Registry:       reg,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	// Graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("devapi listening", "port", cfg.Port, "storage", cfg.StorageBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("listen", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}
