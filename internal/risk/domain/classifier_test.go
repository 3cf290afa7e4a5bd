package domain

import (
	"testing"

	estimatedomain "renewalwatch_backend/internal/estimates/domain"

	"github.com/google/uuid"
)

func defaultWonStatuses() []string {
	return []string{
		"contract signed",
		"work complete",
		"billing complete",
		"email contract award",
		"verbal contract award",
		"sold",
		"won",
	}
}

func strPtr(s string) *string { return &s }

func TestClassify_PipelineStatusSoldOverridesPrimaryStatus(t *testing.T) {
	c := NewClassifier(defaultWonStatuses())

	cases := []struct {
		name           string
		status         string
		pipelineStatus *string
		want           Lifecycle
	}{
		{"sold pipeline wins over lost status", "lost to competitor", strPtr("sold"), LifecycleWon},
		{"sold pipeline with whitespace and caps", "pending review", strPtr("  SOLD "), LifecycleWon},
		{"non-sold pipeline does not override", "lost to competitor", strPtr("negotiation"), LifecycleLost},
		{"nil pipeline falls through", "contract signed", nil, LifecycleWon},
	}

	for _, tc := range cases {
		e := estimatedomain.Estimate{ID: uuid.New(), Status: tc.status, PipelineStatus: tc.pipelineStatus}
		if got := c.Classify(e); got != tc.want {
			t.Errorf("%s: Classify = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestClassify_ExactMatchAllowList(t *testing.T) {
	c := NewClassifier(defaultWonStatuses())

	cases := []struct {
		status string
		want   Lifecycle
	}{
		{"contract signed", LifecycleWon},
		{"  Contract Signed  ", LifecycleWon},
		{"WORK COMPLETE", LifecycleWon},
		{"billing complete", LifecycleWon},
		{"email contract award", LifecycleWon},
		{"verbal contract award", LifecycleWon},
		{"sold", LifecycleWon},
		{"won", LifecycleWon},
		// Substring variants seen at some call sites are intentionally NOT won.
		{"contract in progress", LifecyclePending},
		{"billing + contract complete", LifecyclePending},
		{"work completed", LifecyclePending},
		{"lost", LifecycleLost},
		{"lost to competitor", LifecycleLost},
		{"LOST - price", LifecycleLost},
		{"open", LifecyclePending},
		{"", LifecyclePending},
		{"unknown garbage status", LifecyclePending},
	}

	for _, tc := range cases {
		e := estimatedomain.Estimate{ID: uuid.New(), Status: tc.status}
		if got := c.Classify(e); got != tc.want {
			t.Errorf("Classify(%q) = %q, want %q", tc.status, got, tc.want)
		}
	}
}

func TestClassify_Deterministic(t *testing.T) {
	c := NewClassifier(defaultWonStatuses())
	e := estimatedomain.Estimate{ID: uuid.New(), Status: "verbal contract award"}

	first := c.Classify(e)
	for i := 0; i < 100; i++ {
		if got := c.Classify(e); got != first {
			t.Fatalf("Classify changed between calls: %q then %q", first, got)
		}
	}
}

func TestClassify_ConfigurableAllowList(t *testing.T) {
	c := NewClassifier([]string{"Deal Closed", " FINALIZED "})

	won := estimatedomain.Estimate{Status: "deal closed"}
	if got := c.Classify(won); got != LifecycleWon {
		t.Errorf("custom allow-list entry not matched: got %q", got)
	}

	finalized := estimatedomain.Estimate{Status: "finalized"}
	if got := c.Classify(finalized); got != LifecycleWon {
		t.Errorf("allow-list entries should be normalized at construction: got %q", got)
	}

	// The default list no longer applies when a custom one is configured.
	signed := estimatedomain.Estimate{Status: "contract signed"}
	if got := c.Classify(signed); got != LifecyclePending {
		t.Errorf("default status should not match custom list: got %q", got)
	}
}
