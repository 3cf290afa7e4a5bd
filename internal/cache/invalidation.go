package cache

import (
	"context"

	"renewalwatch_backend/internal/events"
)

// Invalidator subscribes to mutation events and drops the affected cache
// entries. Any structural change to an account's estimates invalidates the
// whole account entry, not a single service line: renewal classification is
// a property of the full line set.
type Invalidator struct {
	coordinator *Coordinator
}

// NewInvalidator creates the invalidation handler.
func NewInvalidator(coordinator *Coordinator) *Invalidator {
	return &Invalidator{coordinator: coordinator}
}

// RegisterHandlers subscribes to every event that can change a cached
// payload. Publishers use PublishSync so invalidation completes before the
// mutating call returns.
func (i *Invalidator) RegisterHandlers(bus *events.InMemoryBus) {
	bus.Subscribe(events.EstimateChanged{}.EventName(), i)
	bus.Subscribe(events.InteractionLogged{}.EventName(), i)
}

// Handle drops the account's cache entry and the global at-risk aggregate.
func (i *Invalidator) Handle(ctx context.Context, event events.Event) error {
	switch e := event.(type) {
	case events.EstimateChanged:
		return i.coordinator.Invalidate(ctx, AccountRiskKey(e.AccountID), GlobalAtRiskKey)
	case events.InteractionLogged:
		return i.coordinator.Invalidate(ctx, AccountRiskKey(e.AccountID), GlobalAtRiskKey)
	}
	return nil
}
