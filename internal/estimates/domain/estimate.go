// Package domain holds the estimate model shared by the risk pipeline and
// the estimate repository.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Estimate is a raw sales estimate as stored. Status and PipelineStatus are
// free text from the source system; the risk pipeline derives a lifecycle
// from them rather than trusting any single field.
type Estimate struct {
	ID             uuid.UUID  `json:"id"`
	AccountID      uuid.UUID  `json:"accountId"`
	Department     string     `json:"department"`
	SiteAddress    string     `json:"siteAddress"`
	Status         string     `json:"status"`
	PipelineStatus *string    `json:"pipelineStatus,omitempty"`
	StartDate      *time.Time `json:"startDate,omitempty"`
	EndDate        *time.Time `json:"endDate,omitempty"`
	Archived       bool       `json:"archived"`
}

// HasEndDate reports whether the estimate carries a contract end date.
// Estimates without one carry no renewal risk signal.
func (e Estimate) HasEndDate() bool {
	return e.EndDate != nil && !e.EndDate.IsZero()
}
