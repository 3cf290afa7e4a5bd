package domain

import (
	"time"

	estimatedomain "renewalwatch_backend/internal/estimates/domain"

	"github.com/google/uuid"
)

// RiskLevel is the account-level risk classification.
type RiskLevel string

const (
	RiskAtRisk RiskLevel = "at_risk"
	RiskSafe   RiskLevel = "safe"
	RiskNoData RiskLevel = "no_data"
)

// AccountRiskStatus is the aggregated result of one pipeline run for one
// account. Each run supersedes the previous status wholesale.
type AccountRiskStatus struct {
	AccountID         uuid.UUID  `json:"accountId"`
	Status            RiskLevel  `json:"status"`
	DrivingEstimateID *uuid.UUID `json:"drivingEstimateId,omitempty"`
	DaysUntilExpiry   *int       `json:"daysUntilExpiry,omitempty"`
	ComputedAt        time.Time  `json:"computedAt"`
}

// Pipeline wires the four stages together with the configured allow-list and
// lookahead window.
type Pipeline struct {
	classifier *Classifier
	windowDays int
}

// NewPipeline creates a pipeline with the given won-status allow-list and
// lookahead window in days.
func NewPipeline(wonStatuses []string, windowDays int) *Pipeline {
	return &Pipeline{
		classifier: NewClassifier(wonStatuses),
		windowDays: windowDays,
	}
}

// WindowDays returns the configured lookahead window.
func (p *Pipeline) WindowDays() int { return p.windowDays }

// Classifier exposes the underlying classifier.
func (p *Pipeline) Classifier() *Classifier { return p.classifier }

// ComputeAccountRisk runs classification, grouping, renewal resolution and
// aggregation over one account's estimates. Archived estimates are skipped.
//
// The account is AtRisk if any estimate in any line resolves to AtRisk, with
// the driving estimate being the AtRisk one expiring soonest. With no AtRisk
// estimates the account is Safe if at least one Won, dated estimate exists
// (groupable or not), otherwise NoData.
func (p *Pipeline) ComputeAccountRisk(accountID uuid.UUID, ests []estimatedomain.Estimate, now time.Time) AccountRiskStatus {
	status := AccountRiskStatus{
		AccountID:  accountID,
		ComputedAt: now,
	}

	active := make([]estimatedomain.Estimate, 0, len(ests))
	for _, e := range ests {
		if e.Archived {
			continue
		}
		active = append(active, e)
	}

	classified := p.classifier.ClassifyAll(active)
	lines := GroupServiceLines(classified)

	var driving *ClassifiedEstimate
	for _, line := range lines {
		outcomes := ResolveLine(line, now, p.windowDays)
		for i := range line.Estimates {
			e := line.Estimates[i]
			if outcomes[e.ID] != OutcomeAtRisk {
				continue
			}
			if driving == nil || soonerExpiry(e, *driving) {
				driving = &line.Estimates[i]
			}
		}
	}

	if driving != nil {
		days := DaysUntil(now, *driving.EndDate)
		status.Status = RiskAtRisk
		status.DrivingEstimateID = &driving.ID
		status.DaysUntilExpiry = &days
		return status
	}

	for _, ce := range classified {
		if ce.Lifecycle == LifecycleWon && ce.HasEndDate() {
			status.Status = RiskSafe
			return status
		}
	}

	status.Status = RiskNoData
	return status
}

// soonerExpiry reports whether a expires before b, with ID order breaking
// exact ties for determinism.
func soonerExpiry(a, b ClassifiedEstimate) bool {
	if a.EndDate.Equal(*b.EndDate) {
		return a.ID.String() < b.ID.String()
	}
	return a.EndDate.Before(*b.EndDate)
}
