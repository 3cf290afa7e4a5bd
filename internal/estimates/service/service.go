// Package service provides estimate mutations. Every successful mutation
// publishes EstimateChanged synchronously so cache invalidation happens
// before the caller sees success; a reader must never observe stale risk as
// fresh.
package service

import (
	"context"

	"renewalwatch_backend/internal/estimates/domain"
	"renewalwatch_backend/internal/estimates/repository"
	"renewalwatch_backend/internal/events"
	"renewalwatch_backend/platform/apperr"
	"renewalwatch_backend/platform/logger"

	"github.com/google/uuid"
)

type Service struct {
	repo *repository.Repository
	bus  events.Bus
	log  *logger.Logger
}

func New(repo *repository.Repository, bus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, bus: bus, log: log}
}

// Upsert creates or updates an estimate and invalidates the account's cached
// risk before returning.
func (s *Service) Upsert(ctx context.Context, e domain.Estimate) (domain.Estimate, error) {
	if s == nil || s.repo == nil {
		return domain.Estimate{}, apperr.Internal("estimate service not configured")
	}
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}

	created, err := s.repo.Upsert(ctx, e)
	if err != nil {
		return domain.Estimate{}, err
	}

	change := "updated"
	if created {
		change = "created"
	}
	if err := s.publishChanged(ctx, e.ID, e.AccountID, change); err != nil {
		return domain.Estimate{}, err
	}

	return e, nil
}

// Archive marks an estimate archived and invalidates the account's cached
// risk before returning.
func (s *Service) Archive(ctx context.Context, id uuid.UUID) error {
	if s == nil || s.repo == nil {
		return apperr.Internal("estimate service not configured")
	}

	accountID, err := s.repo.Archive(ctx, id)
	if err != nil {
		return err
	}

	return s.publishChanged(ctx, id, accountID, "archived")
}

// Get fetches a single estimate.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (domain.Estimate, error) {
	return s.repo.GetByID(ctx, id)
}

// ListByAccount returns all of an account's estimates.
func (s *Service) ListByAccount(ctx context.Context, accountID uuid.UUID) ([]domain.Estimate, error) {
	return s.repo.ListByAccount(ctx, accountID)
}

func (s *Service) publishChanged(ctx context.Context, estimateID, accountID uuid.UUID, change string) error {
	if s.bus == nil {
		return nil
	}

	// Synchronous on purpose: invalidation is part of the mutation, not a
	// background follow-up.
	err := s.bus.PublishSync(ctx, events.EstimateChanged{
		BaseEvent:  events.NewBaseEvent(),
		EstimateID: estimateID,
		AccountID:  accountID,
		Change:     change,
	})
	if err != nil {
		if s.log != nil {
			s.log.Error("estimate change propagation failed", "estimateId", estimateID, "error", err)
		}
		return apperr.Wrap(apperr.KindInternal, "estimate saved but cache invalidation failed", err)
	}
	return nil
}
