// Package transport defines request/response DTOs for the estimates API.
package transport

import (
	"time"

	"renewalwatch_backend/internal/estimates/domain"

	"github.com/google/uuid"
)

// UpsertEstimateRequest is the write payload for an estimate. ID is optional
// on create; supplying an existing ID updates that estimate.
type UpsertEstimateRequest struct {
	ID             *uuid.UUID `json:"id"`
	AccountID      uuid.UUID  `json:"accountId" binding:"required"`
	Department     string     `json:"department"`
	SiteAddress    string     `json:"siteAddress"`
	Status         string     `json:"status" binding:"required"`
	PipelineStatus *string    `json:"pipelineStatus"`
	StartDate      *time.Time `json:"startDate"`
	EndDate        *time.Time `json:"endDate"`
	Archived       bool       `json:"archived"`
}

// ToDomain converts the request into a domain estimate.
func (r UpsertEstimateRequest) ToDomain() domain.Estimate {
	e := domain.Estimate{
		AccountID:      r.AccountID,
		Department:     r.Department,
		SiteAddress:    r.SiteAddress,
		Status:         r.Status,
		PipelineStatus: r.PipelineStatus,
		StartDate:      r.StartDate,
		EndDate:        r.EndDate,
		Archived:       r.Archived,
	}
	if r.ID != nil {
		e.ID = *r.ID
	}
	return e
}
