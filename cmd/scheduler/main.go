package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	accountrepo "renewalwatch_backend/internal/accounts/repository"
	"renewalwatch_backend/internal/cache"
	estimaterepo "renewalwatch_backend/internal/estimates/repository"
	"renewalwatch_backend/internal/events"
	"renewalwatch_backend/internal/notification/bulk"
	"renewalwatch_backend/internal/notification/inapp"
	"renewalwatch_backend/internal/notification/snooze"
	notifsync "renewalwatch_backend/internal/notification/sync"
	riskrepo "renewalwatch_backend/internal/risk/repository"
	riskservice "renewalwatch_backend/internal/risk/service"
	"renewalwatch_backend/internal/scheduler"
	taskrepo "renewalwatch_backend/internal/tasks/repository"
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
	log.Info("starting scheduler", "env", cfg.Env)

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

	eventBus := events.NewInMemoryBus(log)

	cacheCoord, err := cache.New(cfg, log)
	if err != nil {
		log.Error("failed to initialize risk cache", "error", err)
		panic("failed to initialize risk cache: " + err.Error())
	}
	defer func() { _ = cacheCoord.Close() }()
	cache.NewInvalidator(cacheCoord).RegisterHandlers(eventBus)

	estimateRepo := estimaterepo.New(pool)
	accountRepo := accountrepo.New(pool)
	riskRepo := riskrepo.New(pool)
	riskSvc := riskservice.New(cfg, estimateRepo, riskRepo, cacheCoord, eventBus, log)

	inappRepo := inapp.NewRepository(pool)
	bulkRepo := bulk.NewRepository(pool)
	snoozeRepo := snooze.NewRepository(pool)
	synchronizer := notifsync.New(inappRepo, bulkRepo, snoozeRepo, log)

	runner := scheduler.NewRunner(cfg, cfg, scheduler.RunnerDeps{
		Accounts:     accountRepo,
		Risk:         riskSvc,
		Tasks:        taskrepo.New(pool),
		Synchronizer: synchronizer,
		Cache:        cacheCoord,
		GlobalKey:    cache.GlobalAtRiskKey,
	}, log)

	client, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize scheduler client", "error", err)
		panic("failed to initialize scheduler client: " + err.Error())
	}
	defer func() { _ = client.Close() }()

	go scheduler.RunPeriodicScans(ctx, cfg, client, log)
	go scheduler.RunNotificationCleanup(ctx, cfg, inappRepo, log)

	worker, err := scheduler.NewWorker(cfg, runner, log)
	if err != nil {
		log.Error("failed to initialize scheduler worker", "error", err)
		panic("failed to initialize scheduler worker: " + err.Error())
	}

	worker.Run(ctx)
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
