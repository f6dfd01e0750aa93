package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/GoSim-25-26J-441/projects-backend/config"
	httpapi "github.com/GoSim-25-26J-441/projects-backend/internal/api/http"
	"github.com/GoSim-25-26J-441/projects-backend/internal/audit/recorder"
	auditrepo "github.com/GoSim-25-26J-441/projects-backend/internal/audit/repository"
	auditservice "github.com/GoSim-25-26J-441/projects-backend/internal/audit/service"
	"github.com/GoSim-25-26J-441/projects-backend/internal/bootstrap"
	"github.com/GoSim-25-26J-441/projects-backend/internal/cache"
	"github.com/GoSim-25-26J-441/projects-backend/internal/logging"
	"github.com/GoSim-25-26J-441/projects-backend/internal/metrics"
	projectrepo "github.com/GoSim-25-26J-441/projects-backend/internal/projects/repository"
	projectservice "github.com/GoSim-25-26J-441/projects-backend/internal/projects/service"
	"github.com/GoSim-25-26J-441/projects-backend/internal/storage/postgres"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logging.New(cfg.App.LogLevel, cfg.App.LogFormat)
	bootstrap.SetGinMode(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dsn := postgres.DSN(&cfg.Database)
	if cfg.Database.MigrateOnStart {
		if err := bootstrap.Migrate(ctx, dsn); err != nil {
			return err
		}
	}

	pool, err := bootstrap.OpenDB(ctx, bootstrap.DBOptions{
		DSN:      dsn,
		MaxConns: cfg.Database.MaxConns,
		MinConns: cfg.Database.MinConns,
	})
	if err != nil {
		return err
	}
	defer pool.Close()

	redisClient, err := bootstrap.OpenRedis(ctx, cfg.Redis.URL)
	if err != nil {
		return err
	}

	m := metrics.New()
	gw := cache.New(redisClient, m)
	defer gw.Close()

	var cachePinger httpapi.Pinger
	if gw.Enabled() {
		cachePinger = gw

		janitor, err := cache.NewJanitor(gw, cfg.Cache.PruneSchedule)
		if err != nil {
			return err
		}
		janitor.Start()
		defer func() { <-janitor.Stop().Done() }()
	}

	rec := recorder.New(auditrepo.New(pool), m, recorder.Options{
		QueueSize:    cfg.Audit.QueueSize,
		WriteTimeout: cfg.Audit.WriteTimeout,
	})
	defer func() {
		dctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := rec.Close(dctx); err != nil {
			slog.Error("audit recorder drain", "error", err)
		}
	}()

	projects := projectservice.NewProjectService(
		projectrepo.New(pool),
		postgres.NewTxManager(pool),
		gw,
		rec,
		projectservice.Options{
			CacheTTL:     cfg.Cache.TTL,
			ExcludeNames: cfg.Projects.ExcludeNames,
		},
	)

	router := bootstrap.BuildRouter(bootstrap.RouterDeps{
		ServiceName:    cfg.App.Name,
		Version:        cfg.App.Version,
		AllowedOrigins: cfg.CORS.Origins,
		RateLimitRPS:   cfg.Server.RateLimitRPS,
		RateLimitBurst: cfg.Server.RateLimitBurst,
		DB:             pool,
		Cache:          cachePinger,
		Metrics:        m,
		Projects:       projects,
		Logs:           auditservice.NewLogService(auditrepo.New(pool)),
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("listening", "addr", srv.Addr, "env", cfg.App.Environment, "version", cfg.App.Version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
		slog.Info("shutting down")
	}

	sctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		slog.Error("http shutdown", "error", err)
	}

	// Deferred cleanups run in reverse: recorder drain, janitor stop, redis close, pool close.
	return nil
}
