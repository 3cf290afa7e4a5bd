package scheduler

import (
	"context"
	"sync"
	"time"

	accountdomain "renewalwatch_backend/internal/accounts/domain"
	notifsync "renewalwatch_backend/internal/notification/sync"
	riskdomain "renewalwatch_backend/internal/risk/domain"
	taskrepo "renewalwatch_backend/internal/tasks/repository"
	"renewalwatch_backend/platform/config"
	"renewalwatch_backend/platform/logger"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// AccountSource provides the accounts the batch scan iterates over.
type AccountSource interface {
	ListIDs(ctx context.Context) ([]uuid.UUID, error)
	GetByID(ctx context.Context, id uuid.UUID) (accountdomain.Account, error)
	ListNeglectedSince(ctx context.Context, cutoff time.Time) ([]accountdomain.Account, error)
}

// RiskComputer recomputes one account's risk from the source of truth.
type RiskComputer interface {
	Recompute(ctx context.Context, accountID uuid.UUID, now time.Time) (riskdomain.AccountRiskStatus, error)
}

// TaskSource provides due tasks for the task-due notification trigger.
type TaskSource interface {
	ListDueWithin(ctx context.Context, now time.Time, window time.Duration) ([]taskrepo.Task, error)
}

// GlobalCacheInvalidator drops the dashboard-wide aggregate after a scan so
// the next read reflects the fresh statuses.
type GlobalCacheInvalidator interface {
	Invalidate(ctx context.Context, keys ...string) error
}

// RunReport summarizes one batch scan.
type RunReport struct {
	AccountsProcessed    int
	NotificationsCreated int
	NotificationsUpdated int
	Errors               int
	Duration             time.Duration
}

// Runner drives the periodic scan: recompute every account's risk, then
// synchronize notifications from the fresh statuses, due tasks, and the
// neglected-account set.
type Runner struct {
	accounts     AccountSource
	risk         RiskComputer
	tasks        TaskSource
	synchronizer *notifsync.Synchronizer
	cache        GlobalCacheInvalidator
	globalKey    string
	concurrency  int
	neglectedAge time.Duration
	taskWindow   time.Duration
	log          *logger.Logger
}

type RunnerDeps struct {
	Accounts     AccountSource
	Risk         RiskComputer
	Tasks        TaskSource
	Synchronizer *notifsync.Synchronizer
	Cache        GlobalCacheInvalidator
	GlobalKey    string
}

func NewRunner(cfg config.SchedulerConfig, notifCfg config.NotificationConfig, deps RunnerDeps, log *logger.Logger) *Runner {
	concurrency := cfg.GetRiskScanConcurrency()
	if concurrency < 1 {
		concurrency = 4
	}

	return &Runner{
		accounts:     deps.Accounts,
		risk:         deps.Risk,
		tasks:        deps.Tasks,
		synchronizer: deps.Synchronizer,
		cache:        deps.Cache,
		globalKey:    deps.GlobalKey,
		concurrency:  concurrency,
		neglectedAge: time.Duration(notifCfg.GetNeglectedAccountDays()) * 24 * time.Hour,
		taskWindow:   notifCfg.GetTaskDueWindow(),
		log:          log,
	}
}

// ScanAll recomputes every account and resynchronizes notifications. One
// failing account is logged, counted, and skipped; it never aborts the
// batch.
func (r *Runner) ScanAll(ctx context.Context, now time.Time) (RunReport, error) {
	started := time.Now()
	var report RunReport

	ids, err := r.accounts.ListIDs(ctx)
	if err != nil {
		return report, err
	}

	var mu sync.Mutex
	atRisk := make([]notifsync.AccountRisk, 0)
	owners := make(map[uuid.UUID]struct{})

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for _, id := range ids {
		id := id
		g.Go(func() error {
			res, ar, scanErr := r.scanOne(gctx, id, now)
			mu.Lock()
			defer mu.Unlock()
			if scanErr != nil {
				r.log.AccountSkipped(id.String(), scanErr)
				report.Errors++
				return nil
			}
			report.AccountsProcessed++
			report.NotificationsCreated += res.Created
			report.NotificationsUpdated += res.Updated
			// Every scanned owner gets a replacement feed, so accounts that
			// resolved their risk disappear from the bulk document too.
			owners[ar.Account.OwnerUserID] = struct{}{}
			if ar.Status.Status == riskdomain.RiskAtRisk {
				atRisk = append(atRisk, ar)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return report, err
	}

	neglected, err := r.accounts.ListNeglectedSince(ctx, now.Add(-r.neglectedAge))
	if err != nil {
		r.log.Error("neglected account query failed", "error", err)
		report.Errors++
		neglected = nil
	}

	ownerIDs := make([]uuid.UUID, 0, len(owners))
	for id := range owners {
		ownerIDs = append(ownerIDs, id)
	}
	if err := r.synchronizer.SyncBulkFeeds(ctx, ownerIDs, atRisk, neglected, now); err != nil {
		r.log.Error("bulk feed synchronization failed", "error", err)
		report.Errors++
	}

	taskRes, err := r.syncDueTasks(ctx, now)
	if err != nil {
		r.log.Error("task-due synchronization failed", "error", err)
		report.Errors++
	}
	report.NotificationsCreated += taskRes.Created
	report.NotificationsUpdated += taskRes.Updated

	if r.cache != nil && r.globalKey != "" {
		if err := r.cache.Invalidate(ctx, r.globalKey); err != nil {
			r.log.CacheDegraded(r.globalKey, err)
		}
	}

	report.Duration = time.Since(started)
	r.log.BatchReport(report.AccountsProcessed, report.NotificationsCreated,
		report.NotificationsUpdated, report.Errors, float64(report.Duration.Milliseconds()))
	return report, nil
}

// ScanAccount runs the pipeline and per-entity synchronization for a single
// account. Bulk feeds are left to the next full scan.
func (r *Runner) ScanAccount(ctx context.Context, accountID uuid.UUID, now time.Time) error {
	_, _, err := r.scanOne(ctx, accountID, now)
	return err
}

func (r *Runner) scanOne(ctx context.Context, accountID uuid.UUID, now time.Time) (notifsync.Result, notifsync.AccountRisk, error) {
	var res notifsync.Result

	account, err := r.accounts.GetByID(ctx, accountID)
	if err != nil {
		return res, notifsync.AccountRisk{}, err
	}

	status, err := r.risk.Recompute(ctx, accountID, now)
	if err != nil {
		return res, notifsync.AccountRisk{}, err
	}

	ar := notifsync.AccountRisk{Account: account, Status: status}
	res, err = r.synchronizer.SyncAccountRisk(ctx, ar, now)
	return res, ar, err
}

func (r *Runner) syncDueTasks(ctx context.Context, now time.Time) (notifsync.Result, error) {
	var total notifsync.Result
	if r.tasks == nil {
		return total, nil
	}

	due, err := r.tasks.ListDueWithin(ctx, now, r.taskWindow)
	if err != nil {
		return total, err
	}

	for _, task := range due {
		res, err := r.synchronizer.SyncTaskDue(ctx, task, now)
		if err != nil {
			r.log.Error("task-due notification failed", "taskId", task.ID, "error", err)
			continue
		}
		total.Created += res.Created
		total.Updated += res.Updated
	}
	return total, nil
}
