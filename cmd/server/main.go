package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dom/ridecore/internal/api"
	"github.com/dom/ridecore/internal/config"
	"github.com/dom/ridecore/internal/janitor"
	"github.com/dom/ridecore/internal/logger"
	"github.com/dom/ridecore/internal/metrics"
	"github.com/dom/ridecore/internal/notify"
	"github.com/dom/ridecore/internal/ratelimit"
	"github.com/dom/ridecore/internal/repository/postgres"
	"github.com/dom/ridecore/internal/service"
	"github.com/dom/ridecore/internal/websocket"
)

const shutdownTimeout = 30 * time.Second

func main() {
	if err := run(); err != nil {
		logger.New(logger.Options{Service: "ridecore"}).Error(context.Background(), "server.exit", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logg := logger.New(logger.Options{
		Service: "ridecore",
		Level:   logger.ParseLevel(cfg.Log.Level),
		Format:  cfg.Log.Format,
	})
	ctx := logg.WithField(context.Background(), "env", cfg.Server.Environment)

	db, err := postgres.NewConnection(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer func() {
		if err := postgres.Close(db); err != nil {
			logg.Error(ctx, "database.close", err)
		}
	}()

	m := metrics.New()
	repos := postgres.NewRepositories(db)

	hub := websocket.NewHub(websocket.HubOptions{
		BroadcastRadius: cfg.Proximity.BroadcastRadiusMeters,
		Metrics:         m,
		Logger:          logg,
	})
	go hub.Run()

	var limiter ratelimit.Store
	if cfg.Redis.URL != "" {
		store, err := ratelimit.NewRedisStore(ctx, cfg.Redis.URL)
		if err != nil {
			return err
		}
		defer store.Close()
		limiter = store
	} else {
		logg.Warn(ctx, "ratelimit.in_memory")
		limiter = ratelimit.NewMemoryStore()
	}

	services := service.NewServices(repos, cfg, notify.NewSender(cfg.Notify, logg), hub, logg)

	jan, err := janitor.New(cfg.Janitor.Schedule, services.Auth, m, logg)
	if err != nil {
		return err
	}
	jan.Start()

	srv := &http.Server{
		Addr: "0.0.0.0:" + cfg.Server.Port,
		Handler: api.NewRouter(api.RouterDeps{
			Config:         cfg,
			Services:       services,
			Hub:            hub,
			RateLimitStore: limiter,
			Metrics:        m,
			Logger:         logg,
		}),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logg.Info(logg.WithField(ctx, "addr", srv.Addr), "server.start")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
	case err := <-serveErr:
		if err != nil {
			return err
		}
	}

	logg.Info(ctx, "server.shutdown")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	err = srv.Shutdown(shutdownCtx)
	hub.Stop()
	jan.Stop(shutdownCtx)
	if err != nil {
		return err
	}
	logg.Info(ctx, "server.stopped")
	return nil
}
