package domain

import (
	"time"

	"github.com/google/uuid"
)

// RenewalOutcome is the per-estimate result of resolving a service line.
type RenewalOutcome string

const (
	// OutcomeAtRisk means the contract ends within the lookahead window and
	// no sufficiently-far-out successor exists in the line.
	OutcomeAtRisk RenewalOutcome = "at_risk"
	// OutcomeRenewed means a later estimate in the same line ends far enough
	// beyond the window to supersede this one.
	OutcomeRenewed RenewalOutcome = "renewed"
	// OutcomeFutureSafe means the contract ends beyond the lookahead window.
	OutcomeFutureSafe RenewalOutcome = "future_safe"
	// OutcomeExpired means the contract end date has already passed.
	OutcomeExpired RenewalOutcome = "expired"
)

// DaysUntil returns the calendar-day difference from now to the given date,
// comparing at start-of-day so that a same-day boundary yields 0, not a
// negative elapsed-time result.
func DaysUntil(now, t time.Time) int {
	ny, nm, nd := now.UTC().Date()
	ty, tm, td := t.UTC().Date()
	nowStart := time.Date(ny, nm, nd, 0, 0, 0, 0, time.UTC)
	tStart := time.Date(ty, tm, td, 0, 0, 0, 0, time.UTC)
	return int(tStart.Sub(nowStart) / (24 * time.Hour))
}

// ResolveLine computes the outcome for every estimate in one service line.
// The line must already be sorted ascending by end date (GroupServiceLines
// guarantees this).
//
// The rule is asymmetric on purpose: a later estimate whose end date is both
// strictly after this one's and beyond the lookahead window marks this one
// Renewed, regardless of this one's own expiry. A later estimate that is
// itself still within the window cancels nothing. This keeps an account from
// being flagged when the customer already re-signed under the same line,
// while older estimates with no renewal chain still surface.
func ResolveLine(line ServiceLine, now time.Time, windowDays int) map[uuid.UUID]RenewalOutcome {
	outcomes := make(map[uuid.UUID]RenewalOutcome, len(line.Estimates))

	for i, e := range line.Estimates {
		renewed := false
		for _, later := range line.Estimates[i+1:] {
			if !later.EndDate.After(*e.EndDate) {
				continue
			}
			if DaysUntil(now, *later.EndDate) > windowDays {
				renewed = true
				break
			}
		}
		if renewed {
			outcomes[e.ID] = OutcomeRenewed
			continue
		}

		days := DaysUntil(now, *e.EndDate)
		switch {
		case days < 0:
			outcomes[e.ID] = OutcomeExpired
		case days <= windowDays:
			outcomes[e.ID] = OutcomeAtRisk
		default:
			outcomes[e.ID] = OutcomeFutureSafe
		}
	}

	return outcomes
}
