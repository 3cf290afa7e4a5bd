package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

var resolverNow = time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

func newTestAccount() uuid.UUID { return uuid.New() }

// lineOf builds a sorted service line from end-date offsets in days from
// resolverNow.
func lineOf(t *testing.T, dayOffsets ...int) ServiceLine {
	t.Helper()
	account := newTestAccount()
	ests := make([]ClassifiedEstimate, 0, len(dayOffsets))
	for _, d := range dayOffsets {
		ests = append(ests, wonEstimate(account, "paving", "9 birch rd", resolverNow.AddDate(0, 0, d)))
	}
	lines := GroupServiceLines(ests)
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(lines))
	}
	return lines[0]
}

func TestResolveLine_RenewalCancelsEarlierRisk(t *testing.T) {
	// A ends in 30 days (inside window), B in 400 days (beyond window).
	line := lineOf(t, 30, 400)
	outcomes := ResolveLine(line, resolverNow, 180)

	a, b := line.Estimates[0], line.Estimates[1]
	if outcomes[a.ID] != OutcomeRenewed {
		t.Errorf("earlier estimate with far-out successor = %q, want renewed", outcomes[a.ID])
	}
	if outcomes[b.ID] != OutcomeFutureSafe {
		t.Errorf("far-out successor = %q, want future_safe", outcomes[b.ID])
	}
}

func TestResolveLine_NoFalseCancellation(t *testing.T) {
	// A ends in 30 days, B in 60 days. B is later but still within the
	// window, so it cancels nothing; both stay at risk.
	line := lineOf(t, 30, 60)
	outcomes := ResolveLine(line, resolverNow, 180)

	for _, e := range line.Estimates {
		if outcomes[e.ID] != OutcomeAtRisk {
			t.Errorf("estimate ending %v = %q, want at_risk", e.EndDate, outcomes[e.ID])
		}
	}
}

func TestResolveLine_BoundaryInclusion(t *testing.T) {
	const window = 180

	cases := []struct {
		days int
		want RenewalOutcome
	}{
		{0, OutcomeAtRisk},
		{-1, OutcomeExpired},
		{window, OutcomeAtRisk},
		{window + 1, OutcomeFutureSafe},
	}

	for _, tc := range cases {
		line := lineOf(t, tc.days)
		outcomes := ResolveLine(line, resolverNow, window)
		if got := outcomes[line.Estimates[0].ID]; got != tc.want {
			t.Errorf("days=%d: outcome = %q, want %q", tc.days, got, tc.want)
		}
	}
}

func TestResolveLine_SuccessorMustBeStrictlyLater(t *testing.T) {
	// Two estimates with identical end dates beyond the window: neither can
	// renew the other because neither ends strictly after the other.
	line := lineOf(t, 400, 400)
	outcomes := ResolveLine(line, resolverNow, 180)

	for _, e := range line.Estimates {
		if outcomes[e.ID] != OutcomeFutureSafe {
			t.Errorf("tied estimate = %q, want future_safe", outcomes[e.ID])
		}
	}
}

func TestResolveLine_ExpiredWithFarSuccessorIsRenewed(t *testing.T) {
	// Already-expired estimate with a booked successor beyond the horizon is
	// renewed, not expired: the chain continued.
	line := lineOf(t, -30, 400)
	outcomes := ResolveLine(line, resolverNow, 180)

	if got := outcomes[line.Estimates[0].ID]; got != OutcomeRenewed {
		t.Errorf("expired estimate with far successor = %q, want renewed", got)
	}
}

func TestResolveLine_ChainOfThree(t *testing.T) {
	// 20 -> 150 -> 400: the far-out tail renews both earlier estimates.
	line := lineOf(t, 20, 150, 400)
	outcomes := ResolveLine(line, resolverNow, 180)

	if got := outcomes[line.Estimates[0].ID]; got != OutcomeRenewed {
		t.Errorf("first in chain = %q, want renewed", got)
	}
	if got := outcomes[line.Estimates[1].ID]; got != OutcomeRenewed {
		t.Errorf("second in chain = %q, want renewed", got)
	}
	if got := outcomes[line.Estimates[2].ID]; got != OutcomeFutureSafe {
		t.Errorf("tail of chain = %q, want future_safe", got)
	}
}

func TestDaysUntil_CalendarDayGranularity(t *testing.T) {
	// 23:59 today to 00:01 tomorrow is one calendar day despite being two
	// minutes of elapsed time.
	now := time.Date(2026, 8, 1, 23, 59, 0, 0, time.UTC)
	next := time.Date(2026, 8, 2, 0, 1, 0, 0, time.UTC)
	if got := DaysUntil(now, next); got != 1 {
		t.Errorf("DaysUntil across midnight = %d, want 1", got)
	}

	// Same calendar day is 0 regardless of clock distance.
	morning := time.Date(2026, 8, 1, 0, 1, 0, 0, time.UTC)
	evening := time.Date(2026, 8, 1, 23, 59, 0, 0, time.UTC)
	if got := DaysUntil(morning, evening); got != 0 {
		t.Errorf("DaysUntil same day = %d, want 0", got)
	}

	// Yesterday is -1.
	prev := time.Date(2026, 7, 31, 23, 59, 0, 0, time.UTC)
	if got := DaysUntil(morning, prev); got != -1 {
		t.Errorf("DaysUntil previous day = %d, want -1", got)
	}
}
