// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"renewalwatch_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Estimate Domain Events
// =============================================================================

// EstimateChanged is published when an estimate is created, updated or
// archived. Any of these can change the account's renewal risk, so the
// account's cache entry must be invalidated before the mutation returns.
type EstimateChanged struct {
	BaseEvent
	EstimateID uuid.UUID `json:"estimateId"`
	AccountID  uuid.UUID `json:"accountId"`
	Change     string    `json:"change"` // "created", "updated", "archived"
}

func (e EstimateChanged) EventName() string { return "estimates.estimate.changed" }

// =============================================================================
// Account Domain Events
// =============================================================================

// InteractionLogged is published when an interaction is recorded against an
// account. Affects the neglected-account notification trigger.
type InteractionLogged struct {
	BaseEvent
	AccountID     uuid.UUID `json:"accountId"`
	InteractionID uuid.UUID `json:"interactionId"`
}

func (e InteractionLogged) EventName() string { return "accounts.interaction.logged" }

// =============================================================================
// Risk Domain Events
// =============================================================================

// AccountRiskComputed is published after a pipeline run persists a fresh
// AccountRiskStatus for an account.
type AccountRiskComputed struct {
	BaseEvent
	AccountID uuid.UUID `json:"accountId"`
	Status    string    `json:"status"` // "at_risk", "safe", "no_data"
}

func (e AccountRiskComputed) EventName() string { return "risk.account.computed" }
