package scheduler

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	accountdomain "renewalwatch_backend/internal/accounts/domain"
	"renewalwatch_backend/internal/notification/bulk"
	"renewalwatch_backend/internal/notification/inapp"
	notifsync "renewalwatch_backend/internal/notification/sync"
	riskdomain "renewalwatch_backend/internal/risk/domain"
	taskrepo "renewalwatch_backend/internal/tasks/repository"
	"renewalwatch_backend/platform/logger"

	"github.com/google/uuid"
)

var scanNow = time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

type stubSchedulerConfig struct{ concurrency int }

func (s stubSchedulerConfig) GetRedisURL() string                  { return "redis://localhost:6379" }
func (s stubSchedulerConfig) GetRedisTLSInsecure() bool            { return false }
func (s stubSchedulerConfig) GetAsynqQueueName() string            { return "default" }
func (s stubSchedulerConfig) GetAsynqConcurrency() int             { return 10 }
func (s stubSchedulerConfig) GetRiskScanInterval() time.Duration   { return 6 * time.Hour }
func (s stubSchedulerConfig) GetRiskScanConcurrency() int          { return s.concurrency }

type stubNotificationConfig struct{}

func (stubNotificationConfig) GetNeglectedAccountDays() int { return 30 }
func (stubNotificationConfig) GetTaskDueWindow() time.Duration {
	return 24 * time.Hour
}
func (stubNotificationConfig) GetReadNotificationRetention() time.Duration {
	return 30 * 24 * time.Hour
}

type fakeAccountSource struct {
	accounts  map[uuid.UUID]accountdomain.Account
	neglected []accountdomain.Account
}

func (f *fakeAccountSource) ListIDs(context.Context) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(f.accounts))
	for id := range f.accounts {
		ids = append(ids, id)
	}
	return ids, nil
}

func (f *fakeAccountSource) GetByID(_ context.Context, id uuid.UUID) (accountdomain.Account, error) {
	a, ok := f.accounts[id]
	if !ok {
		return accountdomain.Account{}, fmt.Errorf("account %s not found", id)
	}
	return a, nil
}

func (f *fakeAccountSource) ListNeglectedSince(context.Context, time.Time) ([]accountdomain.Account, error) {
	return f.neglected, nil
}

type fakeRiskComputer struct {
	statuses map[uuid.UUID]riskdomain.AccountRiskStatus
	failing  map[uuid.UUID]bool
}

func (f *fakeRiskComputer) Recompute(_ context.Context, accountID uuid.UUID, now time.Time) (riskdomain.AccountRiskStatus, error) {
	if f.failing[accountID] {
		return riskdomain.AccountRiskStatus{}, fmt.Errorf("estimate source unavailable")
	}
	s, ok := f.statuses[accountID]
	if !ok {
		s = riskdomain.AccountRiskStatus{AccountID: accountID, Status: riskdomain.RiskNoData, ComputedAt: now}
	}
	return s, nil
}

type fakeTaskSource struct {
	due []taskrepo.Task
}

func (f *fakeTaskSource) ListDueWithin(context.Context, time.Time, time.Duration) ([]taskrepo.Task, error) {
	return f.due, nil
}

type fakePerEntityStore struct {
	mu   sync.Mutex
	keys map[string]int
}

func (f *fakePerEntityStore) Upsert(_ context.Context, p inapp.UpsertParams) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.keys == nil {
		f.keys = make(map[string]int)
	}
	key := p.UserID.String() + "/" + p.Type + "/" + p.RelatedEntityID.String()
	f.keys[key]++
	return f.keys[key] == 1, nil
}

type fakeBulkStore struct {
	mu    sync.Mutex
	feeds map[uuid.UUID][]bulk.Entry
}

func (f *fakeBulkStore) Replace(_ context.Context, userID uuid.UUID, entries []bulk.Entry, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.feeds == nil {
		f.feeds = make(map[uuid.UUID][]bulk.Entry)
	}
	f.feeds[userID] = entries
	return nil
}

type fakeInvalidator struct {
	mu   sync.Mutex
	keys []string
}

func (f *fakeInvalidator) Invalidate(_ context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keys = append(f.keys, keys...)
	return nil
}

type runnerFixture struct {
	runner      *Runner
	accounts    *fakeAccountSource
	risk        *fakeRiskComputer
	tasks       *fakeTaskSource
	perEntity   *fakePerEntityStore
	bulkFeed    *fakeBulkStore
	invalidator *fakeInvalidator
}

func newRunnerFixture() *runnerFixture {
	accounts := &fakeAccountSource{accounts: make(map[uuid.UUID]accountdomain.Account)}
	risk := &fakeRiskComputer{
		statuses: make(map[uuid.UUID]riskdomain.AccountRiskStatus),
		failing:  make(map[uuid.UUID]bool),
	}
	tasks := &fakeTaskSource{}
	perEntity := &fakePerEntityStore{}
	bulkFeed := &fakeBulkStore{}
	invalidator := &fakeInvalidator{}

	log := logger.New("development")
	synchronizer := notifsync.New(perEntity, bulkFeed, nil, log)
	runner := NewRunner(stubSchedulerConfig{concurrency: 2}, stubNotificationConfig{}, RunnerDeps{
		Accounts:     accounts,
		Risk:         risk,
		Tasks:        tasks,
		Synchronizer: synchronizer,
		Cache:        invalidator,
		GlobalKey:    "risk:atrisk:global",
	}, log)

	return &runnerFixture{
		runner:      runner,
		accounts:    accounts,
		risk:        risk,
		tasks:       tasks,
		perEntity:   perEntity,
		bulkFeed:    bulkFeed,
		invalidator: invalidator,
	}
}

func (f *runnerFixture) addAccount(name string, status riskdomain.RiskLevel, days *int) accountdomain.Account {
	a := accountdomain.Account{ID: uuid.New(), Name: name, OwnerUserID: uuid.New()}
	f.accounts.accounts[a.ID] = a
	f.risk.statuses[a.ID] = riskdomain.AccountRiskStatus{
		AccountID:       a.ID,
		Status:          status,
		DaysUntilExpiry: days,
		ComputedAt:      scanNow,
	}
	return a
}

func intPtr(v int) *int { return &v }

func TestScanAll_NotifiesOwnersOfAtRiskAccounts(t *testing.T) {
	f := newRunnerFixture()
	atRisk := f.addAccount("Risky Co", riskdomain.RiskAtRisk, intPtr(14))
	f.addAccount("Safe Co", riskdomain.RiskSafe, nil)
	f.addAccount("Empty Co", riskdomain.RiskNoData, nil)

	report, err := f.runner.ScanAll(context.Background(), scanNow)
	if err != nil {
		t.Fatalf("ScanAll failed: %v", err)
	}

	if report.AccountsProcessed != 3 {
		t.Errorf("processed = %d, want 3", report.AccountsProcessed)
	}
	if report.NotificationsCreated != 1 || report.NotificationsUpdated != 0 {
		t.Errorf("created/updated = %d/%d, want 1/0", report.NotificationsCreated, report.NotificationsUpdated)
	}
	if report.Errors != 0 {
		t.Errorf("errors = %d, want 0", report.Errors)
	}

	feed := f.bulkFeed.feeds[atRisk.OwnerUserID]
	if len(feed) != 1 || feed[0].AccountID != atRisk.ID {
		t.Errorf("bulk feed should hold the at-risk account, got %+v", feed)
	}
}

func TestScanAll_RerunUpdatesInsteadOfDuplicating(t *testing.T) {
	f := newRunnerFixture()
	f.addAccount("Risky Co", riskdomain.RiskAtRisk, intPtr(14))

	if _, err := f.runner.ScanAll(context.Background(), scanNow); err != nil {
		t.Fatalf("first scan failed: %v", err)
	}
	report, err := f.runner.ScanAll(context.Background(), scanNow.Add(time.Hour))
	if err != nil {
		t.Fatalf("second scan failed: %v", err)
	}

	if report.NotificationsCreated != 0 || report.NotificationsUpdated != 1 {
		t.Errorf("second scan created/updated = %d/%d, want 0/1",
			report.NotificationsCreated, report.NotificationsUpdated)
	}
	if len(f.perEntity.keys) != 1 {
		t.Errorf("expected 1 distinct notification key, got %d", len(f.perEntity.keys))
	}
}

func TestScanAll_ResolvedRiskClearsTheBulkFeed(t *testing.T) {
	f := newRunnerFixture()
	a := f.addAccount("Recovered Co", riskdomain.RiskAtRisk, intPtr(10))

	if _, err := f.runner.ScanAll(context.Background(), scanNow); err != nil {
		t.Fatalf("first scan failed: %v", err)
	}
	if len(f.bulkFeed.feeds[a.OwnerUserID]) != 1 {
		t.Fatal("setup: at-risk account should be in the owner's feed")
	}

	// A renewal landed between scans; the account is safe now.
	f.risk.statuses[a.ID] = riskdomain.AccountRiskStatus{
		AccountID:  a.ID,
		Status:     riskdomain.RiskSafe,
		ComputedAt: scanNow.Add(time.Hour),
	}

	if _, err := f.runner.ScanAll(context.Background(), scanNow.Add(time.Hour)); err != nil {
		t.Fatalf("second scan failed: %v", err)
	}
	feed, ok := f.bulkFeed.feeds[a.OwnerUserID]
	if !ok {
		t.Fatal("owner must receive a replacement feed after the risk resolves")
	}
	if len(feed) != 0 {
		t.Errorf("stale at-risk entry survived the rescan: %+v", feed)
	}
}

func TestScanAll_FailingAccountIsSkippedNotFatal(t *testing.T) {
	f := newRunnerFixture()
	broken := f.addAccount("Broken Co", riskdomain.RiskAtRisk, intPtr(3))
	f.risk.failing[broken.ID] = true
	healthy := f.addAccount("Healthy Co", riskdomain.RiskAtRisk, intPtr(7))

	report, err := f.runner.ScanAll(context.Background(), scanNow)
	if err != nil {
		t.Fatalf("ScanAll failed: %v", err)
	}

	if report.Errors != 1 {
		t.Errorf("errors = %d, want 1", report.Errors)
	}
	if report.AccountsProcessed != 1 {
		t.Errorf("processed = %d, want 1", report.AccountsProcessed)
	}
	if report.NotificationsCreated != 1 {
		t.Errorf("healthy account should still notify, created = %d", report.NotificationsCreated)
	}
	if len(f.bulkFeed.feeds[healthy.OwnerUserID]) != 1 {
		t.Error("healthy account missing from bulk feed")
	}
}

func TestScanAll_NeglectedAccountsReachTheBulkFeed(t *testing.T) {
	f := newRunnerFixture()
	neglected := accountdomain.Account{ID: uuid.New(), Name: "Forgotten Co", OwnerUserID: uuid.New()}
	f.accounts.neglected = []accountdomain.Account{neglected}

	if _, err := f.runner.ScanAll(context.Background(), scanNow); err != nil {
		t.Fatalf("ScanAll failed: %v", err)
	}

	feed := f.bulkFeed.feeds[neglected.OwnerUserID]
	if len(feed) != 1 || feed[0].Type != bulk.EntryNeglectedAccount {
		t.Errorf("expected neglected entry, got %+v", feed)
	}
}

func TestScanAll_DueTasksProduceAssigneeNotifications(t *testing.T) {
	f := newRunnerFixture()
	assignee := uuid.New()
	f.tasks.due = []taskrepo.Task{{
		ID:             uuid.New(),
		AssignedUserID: assignee,
		Title:          "Renewal call",
		DueAt:          scanNow.Add(6 * time.Hour),
	}}

	report, err := f.runner.ScanAll(context.Background(), scanNow)
	if err != nil {
		t.Fatalf("ScanAll failed: %v", err)
	}
	if report.NotificationsCreated != 1 {
		t.Errorf("created = %d, want 1", report.NotificationsCreated)
	}
}

func TestScanAll_InvalidatesGlobalAggregate(t *testing.T) {
	f := newRunnerFixture()
	f.addAccount("Any Co", riskdomain.RiskSafe, nil)

	if _, err := f.runner.ScanAll(context.Background(), scanNow); err != nil {
		t.Fatalf("ScanAll failed: %v", err)
	}

	found := false
	for _, key := range f.invalidator.keys {
		if key == "risk:atrisk:global" {
			found = true
		}
	}
	if !found {
		t.Error("global at-risk aggregate was not invalidated after the scan")
	}
}

func TestScanAccount_SingleAccountPath(t *testing.T) {
	f := newRunnerFixture()
	a := f.addAccount("Solo Co", riskdomain.RiskAtRisk, intPtr(2))

	if err := f.runner.ScanAccount(context.Background(), a.ID, scanNow); err != nil {
		t.Fatalf("ScanAccount failed: %v", err)
	}
	if len(f.perEntity.keys) != 1 {
		t.Errorf("expected 1 notification, got %d", len(f.perEntity.keys))
	}
}
