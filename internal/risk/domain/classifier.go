// Package domain implements the renewal risk pipeline: lifecycle
// classification, service line grouping, renewal resolution and account-level
// aggregation. Everything here is pure; the current time and the lookahead
// window are injected so batch runs are reproducible in tests.
package domain

import (
	"strings"

	estimatedomain "renewalwatch_backend/internal/estimates/domain"
)

// Lifecycle is the canonical state derived from an estimate's status fields.
type Lifecycle string

const (
	LifecycleWon     Lifecycle = "won"
	LifecycleLost    Lifecycle = "lost"
	LifecyclePending Lifecycle = "pending"
)

// ClassifiedEstimate is an estimate plus its derived lifecycle. Computed on
// demand, never persisted.
type ClassifiedEstimate struct {
	estimatedomain.Estimate
	Lifecycle Lifecycle
}

// Classifier maps raw estimates to a lifecycle. The won-status allow-list is
// configuration, not code: call sites in the source system disagreed on the
// exact set, so the canonical rule is an exact match against this list.
type Classifier struct {
	wonStatuses map[string]struct{}
}

// NewClassifier builds a classifier from the configured won-status
// allow-list. Entries are matched exactly after trimming and lower-casing.
func NewClassifier(wonStatuses []string) *Classifier {
	set := make(map[string]struct{}, len(wonStatuses))
	for _, s := range wonStatuses {
		normalized := strings.ToLower(strings.TrimSpace(s))
		if normalized == "" {
			continue
		}
		set[normalized] = struct{}{}
	}
	return &Classifier{wonStatuses: set}
}

// Classify derives the lifecycle for a single estimate. It is total and
// deterministic: unrecognized statuses fall through to Pending, the
// conservative default, because this runs over every estimate on every pass.
//
// Priority order:
//  1. pipeline status "sold" wins regardless of the primary status
//  2. exact match against the won-status allow-list
//  3. any status containing "lost"
//  4. Pending
func (c *Classifier) Classify(e estimatedomain.Estimate) Lifecycle {
	if e.PipelineStatus != nil {
		if strings.ToLower(strings.TrimSpace(*e.PipelineStatus)) == "sold" {
			return LifecycleWon
		}
	}

	status := strings.ToLower(strings.TrimSpace(e.Status))
	if _, ok := c.wonStatuses[status]; ok {
		return LifecycleWon
	}

	if strings.Contains(status, "lost") {
		return LifecycleLost
	}

	return LifecyclePending
}

// ClassifyAll classifies every estimate for an account.
func (c *Classifier) ClassifyAll(ests []estimatedomain.Estimate) []ClassifiedEstimate {
	out := make([]ClassifiedEstimate, 0, len(ests))
	for _, e := range ests {
		out = append(out, ClassifiedEstimate{Estimate: e, Lifecycle: c.Classify(e)})
	}
	return out
}
