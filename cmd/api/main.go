package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	accounthandler "renewalwatch_backend/internal/accounts/handler"
	accountrepo "renewalwatch_backend/internal/accounts/repository"
	accountservice "renewalwatch_backend/internal/accounts/service"
	"renewalwatch_backend/internal/cache"
	estimatehandler "renewalwatch_backend/internal/estimates/handler"
	estimaterepo "renewalwatch_backend/internal/estimates/repository"
	estimateservice "renewalwatch_backend/internal/estimates/service"
	"renewalwatch_backend/internal/events"
	apphttp "renewalwatch_backend/internal/http"
	"renewalwatch_backend/internal/notification/bulk"
	notifhandler "renewalwatch_backend/internal/notification/handler"
	"renewalwatch_backend/internal/notification/inapp"
	"renewalwatch_backend/internal/notification/snooze"
	riskhandler "renewalwatch_backend/internal/risk/handler"
	riskrepo "renewalwatch_backend/internal/risk/repository"
	riskservice "renewalwatch_backend/internal/risk/service"
	"renewalwatch_backend/migrations"
	"renewalwatch_backend/platform/config"
	"renewalwatch_backend/platform/db"
	"renewalwatch_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()
	log.Info("database connection established")

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, pool, migrations.FS)
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

	eventBus := events.NewInMemoryBus(log)

	cacheCoord, err := cache.New(cfg, log)
	if err != nil {
		log.Error("failed to initialize risk cache", "error", err)
		panic("failed to initialize risk cache: " + err.Error())
	}
	defer func() { _ = cacheCoord.Close() }()
	cache.NewInvalidator(cacheCoord).RegisterHandlers(eventBus)

	// Domain wiring. Estimate and interaction mutations publish events that
	// drop stale cache entries before the mutation returns.
	estimateRepo := estimaterepo.New(pool)
	estimateSvc := estimateservice.New(estimateRepo, eventBus, log)

	accountRepo := accountrepo.New(pool)
	accountSvc := accountservice.New(accountRepo, eventBus, log)

	riskRepo := riskrepo.New(pool)
	riskSvc := riskservice.New(cfg, estimateRepo, riskRepo, cacheCoord, eventBus, log)

	inappRepo := inapp.NewRepository(pool)
	bulkRepo := bulk.NewRepository(pool)
	snoozeRepo := snooze.NewRepository(pool)

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   pool,
		EventBus: eventBus,
		Modules: []apphttp.Module{
			apphttp.NewModule("estimates", "/estimates", estimatehandler.NewHTTPHandler(estimateSvc).RegisterRoutes),
			apphttp.NewModule("accounts", "/accounts", accounthandler.NewHTTPHandler(accountSvc).RegisterRoutes),
			apphttp.NewModule("risk", "/risk", riskhandler.NewHTTPHandler(riskSvc).RegisterRoutes),
			apphttp.NewModule("notifications", "/notifications", notifhandler.NewHTTPHandler(inappRepo, bulkRepo, snoozeRepo).RegisterRoutes),
		},
	}

	engine := apphttp.NewRouter(app)

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- engine.Run(cfg.HTTPAddr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = shutdownCtx
	case err := <-srvErr:
		if err != nil {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return errors.New(name + ": invalid retry attempts")
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
