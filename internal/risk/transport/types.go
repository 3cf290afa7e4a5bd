// Package transport defines response DTOs for the risk API.
package transport

import (
	"time"

	"renewalwatch_backend/internal/risk/domain"

	"github.com/google/uuid"
)

// AccountRiskResponse is one account's aggregated risk status.
type AccountRiskResponse struct {
	AccountID         uuid.UUID  `json:"accountId"`
	Status            string     `json:"status"`
	DrivingEstimateID *uuid.UUID `json:"drivingEstimateId,omitempty"`
	DaysUntilExpiry   *int       `json:"daysUntilExpiry,omitempty"`
	ComputedAt        time.Time  `json:"computedAt"`
}

// FromDomain converts a computed status into the API shape.
func FromDomain(s domain.AccountRiskStatus) AccountRiskResponse {
	return AccountRiskResponse{
		AccountID:         s.AccountID,
		Status:            string(s.Status),
		DrivingEstimateID: s.DrivingEstimateID,
		DaysUntilExpiry:   s.DaysUntilExpiry,
		ComputedAt:        s.ComputedAt,
	}
}

// FromDomainList converts a status list, preserving order.
func FromDomainList(statuses []domain.AccountRiskStatus) []AccountRiskResponse {
	out := make([]AccountRiskResponse, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, FromDomain(s))
	}
	return out
}
