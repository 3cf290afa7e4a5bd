// Package domain holds the account model.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Account is a customer account. OwnerUserID is the user who receives this
// account's renewal notifications.
type Account struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	OwnerUserID uuid.UUID `json:"ownerUserId"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Interaction is a touch-point with an account (call, visit, email). Only
// recency matters to the pipeline: accounts without recent interactions are
// surfaced as neglected.
type Interaction struct {
	ID         uuid.UUID `json:"id"`
	AccountID  uuid.UUID `json:"accountId"`
	Kind       string    `json:"kind"`
	OccurredAt time.Time `json:"occurredAt"`
}
