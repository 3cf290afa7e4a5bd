// Package service runs the risk pipeline with cache-aside reads: cached
// aggregates are served as-is, misses trigger a recompute from the estimate
// source of truth, and cache write failures degrade to uncached reads
// instead of failing the request.
package service

import (
	"context"
	"time"

	"renewalwatch_backend/internal/cache"
	estimatedomain "renewalwatch_backend/internal/estimates/domain"
	"renewalwatch_backend/internal/events"
	"renewalwatch_backend/internal/risk/domain"
	"renewalwatch_backend/platform/config"
	"renewalwatch_backend/platform/logger"

	"github.com/google/uuid"
)

// EstimateSource provides the estimates the pipeline computes over.
type EstimateSource interface {
	ListByAccount(ctx context.Context, accountID uuid.UUID) ([]estimatedomain.Estimate, error)
}

// StatusStore persists computed statuses.
type StatusStore interface {
	Save(ctx context.Context, status domain.AccountRiskStatus) error
	ListAtRisk(ctx context.Context) ([]domain.AccountRiskStatus, error)
}

type Service struct {
	pipeline  *domain.Pipeline
	estimates EstimateSource
	statuses  StatusStore
	cache     *cache.Coordinator
	bus       events.Bus
	log       *logger.Logger
}

func New(cfg config.RiskConfig, estimates EstimateSource, statuses StatusStore, cacheCoord *cache.Coordinator, bus events.Bus, log *logger.Logger) *Service {
	return &Service{
		pipeline:  domain.NewPipeline(cfg.GetWonStatuses(), cfg.GetLookaheadDays()),
		estimates: estimates,
		statuses:  statuses,
		cache:     cacheCoord,
		bus:       bus,
		log:       log,
	}
}

// Pipeline exposes the configured pipeline for the batch runner.
func (s *Service) Pipeline() *domain.Pipeline { return s.pipeline }

// GetAccountRisk returns the account's current risk status, serving from
// cache when possible.
func (s *Service) GetAccountRisk(ctx context.Context, accountID uuid.UUID) (domain.AccountRiskStatus, error) {
	key := cache.AccountRiskKey(accountID)

	var cached domain.AccountRiskStatus
	hit, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		s.log.CacheDegraded(key, err)
	} else if hit {
		return cached, nil
	}

	return s.Recompute(ctx, accountID, time.Now().UTC())
}

// Recompute runs the pipeline for one account, persists the result, and
// refreshes the cache. Cache write failures are logged, not returned: the
// computed status is still correct and the next read recomputes.
func (s *Service) Recompute(ctx context.Context, accountID uuid.UUID, now time.Time) (domain.AccountRiskStatus, error) {
	ests, err := s.estimates.ListByAccount(ctx, accountID)
	if err != nil {
		return domain.AccountRiskStatus{}, err
	}

	status := s.pipeline.ComputeAccountRisk(accountID, ests, now)

	if err := s.statuses.Save(ctx, status); err != nil {
		return domain.AccountRiskStatus{}, err
	}

	key := cache.AccountRiskKey(accountID)
	if err := s.cache.Set(ctx, key, status); err != nil {
		s.log.CacheDegraded(key, err)
	}

	if s.bus != nil {
		s.bus.Publish(ctx, events.AccountRiskComputed{
			BaseEvent: events.NewBaseEvent(),
			AccountID: accountID,
			Status:    string(status.Status),
		})
	}

	return status, nil
}

// AtRiskList returns all currently at-risk accounts, soonest expiry first,
// serving the global aggregate from cache when possible.
func (s *Service) AtRiskList(ctx context.Context) ([]domain.AccountRiskStatus, error) {
	var cached []domain.AccountRiskStatus
	hit, err := s.cache.Get(ctx, cache.GlobalAtRiskKey, &cached)
	if err != nil {
		s.log.CacheDegraded(cache.GlobalAtRiskKey, err)
	} else if hit {
		return cached, nil
	}

	items, err := s.statuses.ListAtRisk(ctx)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []domain.AccountRiskStatus{}
	}

	if err := s.cache.Set(ctx, cache.GlobalAtRiskKey, items); err != nil {
		s.log.CacheDegraded(cache.GlobalAtRiskKey, err)
	}

	return items, nil
}
