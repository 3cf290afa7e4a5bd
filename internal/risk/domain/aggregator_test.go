package domain

import (
	"testing"
	"time"

	estimatedomain "renewalwatch_backend/internal/estimates/domain"

	"github.com/google/uuid"
)

var aggNow = time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

func testPipeline() *Pipeline {
	return NewPipeline(defaultWonStatuses(), 180)
}

func rawWon(account uuid.UUID, dept, addr string, endOffsetDays int) estimatedomain.Estimate {
	end := aggNow.AddDate(0, 0, endOffsetDays)
	return estimatedomain.Estimate{
		ID:          uuid.New(),
		AccountID:   account,
		Department:  dept,
		SiteAddress: addr,
		Status:      "won",
		EndDate:     &end,
	}
}

func TestComputeAccountRisk_AtRiskPicksSoonestExpiry(t *testing.T) {
	account := uuid.New()
	soon := rawWon(account, "hvac", "1 elm st", 20)
	later := rawWon(account, "paving", "2 elm st", 90)

	status := testPipeline().ComputeAccountRisk(account, []estimatedomain.Estimate{later, soon}, aggNow)

	if status.Status != RiskAtRisk {
		t.Fatalf("status = %q, want at_risk", status.Status)
	}
	if status.DrivingEstimateID == nil || *status.DrivingEstimateID != soon.ID {
		t.Errorf("driving estimate should be the soonest-expiring AtRisk one")
	}
	if status.DaysUntilExpiry == nil || *status.DaysUntilExpiry != 20 {
		t.Errorf("days until expiry = %v, want 20", status.DaysUntilExpiry)
	}
	if !status.ComputedAt.Equal(aggNow) {
		t.Errorf("computed_at should be the injected now")
	}
}

func TestComputeAccountRisk_RenewedLineIsSafe(t *testing.T) {
	account := uuid.New()
	expiring := rawWon(account, "hvac", "1 elm st", 30)
	renewal := rawWon(account, "hvac", "1 elm st", 400)

	status := testPipeline().ComputeAccountRisk(account, []estimatedomain.Estimate{expiring, renewal}, aggNow)

	if status.Status != RiskSafe {
		t.Fatalf("account with renewed line = %q, want safe", status.Status)
	}
	if status.DrivingEstimateID != nil {
		t.Errorf("safe account should have no driving estimate")
	}
}

func TestComputeAccountRisk_RenewalsDoNotCrossServiceLines(t *testing.T) {
	account := uuid.New()
	// Expiring hvac line; a far-out paving estimate at another address must
	// not count as its renewal.
	expiring := rawWon(account, "hvac", "1 elm st", 30)
	otherLine := rawWon(account, "paving", "7 oak ave", 400)

	status := testPipeline().ComputeAccountRisk(account, []estimatedomain.Estimate{expiring, otherLine}, aggNow)

	if status.Status != RiskAtRisk {
		t.Fatalf("status = %q, want at_risk (renewal in another line must not cancel)", status.Status)
	}
	if status.DrivingEstimateID == nil || *status.DrivingEstimateID != expiring.ID {
		t.Errorf("driving estimate should be the expiring hvac estimate")
	}
}

func TestComputeAccountRisk_SafeWhenOnlyFutureEstimates(t *testing.T) {
	account := uuid.New()
	far := rawWon(account, "hvac", "1 elm st", 400)

	status := testPipeline().ComputeAccountRisk(account, []estimatedomain.Estimate{far}, aggNow)
	if status.Status != RiskSafe {
		t.Errorf("status = %q, want safe", status.Status)
	}
}

func TestComputeAccountRisk_NoDataCases(t *testing.T) {
	account := uuid.New()

	// No estimates at all.
	status := testPipeline().ComputeAccountRisk(account, nil, aggNow)
	if status.Status != RiskNoData {
		t.Errorf("empty account = %q, want no_data", status.Status)
	}

	// Only a lost estimate.
	end := aggNow.AddDate(0, 0, 50)
	lost := estimatedomain.Estimate{
		ID: uuid.New(), AccountID: account,
		Department: "hvac", SiteAddress: "1 elm st",
		Status: "lost to competitor", EndDate: &end,
	}
	status = testPipeline().ComputeAccountRisk(account, []estimatedomain.Estimate{lost}, aggNow)
	if status.Status != RiskNoData {
		t.Errorf("lost-only account = %q, want no_data", status.Status)
	}

	// Won but undated.
	undated := rawWon(account, "hvac", "1 elm st", 0)
	undated.EndDate = nil
	status = testPipeline().ComputeAccountRisk(account, []estimatedomain.Estimate{undated}, aggNow)
	if status.Status != RiskNoData {
		t.Errorf("won-undated account = %q, want no_data", status.Status)
	}
}

func TestComputeAccountRisk_UngroupableWonEstimateIsSafeNotAtRisk(t *testing.T) {
	account := uuid.New()
	// Won and dated but missing a department: contributes no risk signal,
	// yet proves the account has contract data.
	e := rawWon(account, "", "1 elm st", 30)

	status := testPipeline().ComputeAccountRisk(account, []estimatedomain.Estimate{e}, aggNow)
	if status.Status != RiskSafe {
		t.Errorf("ungroupable won estimate = %q, want safe", status.Status)
	}
}

func TestComputeAccountRisk_SkipsArchivedEstimates(t *testing.T) {
	account := uuid.New()
	archived := rawWon(account, "hvac", "1 elm st", 30)
	archived.Archived = true

	status := testPipeline().ComputeAccountRisk(account, []estimatedomain.Estimate{archived}, aggNow)
	if status.Status != RiskNoData {
		t.Errorf("archived-only account = %q, want no_data", status.Status)
	}
}

func TestComputeAccountRisk_Idempotent(t *testing.T) {
	account := uuid.New()
	ests := []estimatedomain.Estimate{
		rawWon(account, "hvac", "1 elm st", 30),
		rawWon(account, "hvac", "1 elm st", 400),
		rawWon(account, "paving", "2 oak ave", 90),
	}

	p := testPipeline()
	first := p.ComputeAccountRisk(account, ests, aggNow)
	for i := 0; i < 10; i++ {
		got := p.ComputeAccountRisk(account, ests, aggNow)
		if got.Status != first.Status ||
			!got.ComputedAt.Equal(first.ComputedAt) ||
			(got.DrivingEstimateID == nil) != (first.DrivingEstimateID == nil) {
			t.Fatalf("run %d produced a different status: %+v vs %+v", i, got, first)
		}
		if got.DrivingEstimateID != nil && *got.DrivingEstimateID != *first.DrivingEstimateID {
			t.Fatalf("run %d picked a different driving estimate", i)
		}
	}
}
