// Package service provides account reads and interaction logging. Logging
// an interaction publishes InteractionLogged synchronously: the neglected
// flag derives from interaction recency, so the cached aggregates must drop
// before the caller sees success.
package service

import (
	"context"

	"renewalwatch_backend/internal/accounts/domain"
	"renewalwatch_backend/internal/accounts/repository"
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

// Get fetches a single account.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (domain.Account, error) {
	return s.repo.GetByID(ctx, id)
}

// LogInteraction records a touch-point and invalidates the account's cached
// aggregates before returning.
func (s *Service) LogInteraction(ctx context.Context, i domain.Interaction) (uuid.UUID, error) {
	if s == nil || s.repo == nil {
		return uuid.Nil, apperr.Internal("account service not configured")
	}

	id, err := s.repo.LogInteraction(ctx, i)
	if err != nil {
		return uuid.Nil, err
	}

	if s.bus != nil {
		err := s.bus.PublishSync(ctx, events.InteractionLogged{
			BaseEvent:     events.NewBaseEvent(),
			AccountID:     i.AccountID,
			InteractionID: id,
		})
		if err != nil {
			if s.log != nil {
				s.log.Error("interaction propagation failed", "accountId", i.AccountID, "error", err)
			}
			return uuid.Nil, apperr.Wrap(apperr.KindInternal, "interaction saved but cache invalidation failed", err)
		}
	}

	return id, nil
}
