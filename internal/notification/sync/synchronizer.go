// Package sync converts aggregated risk facts and other triggering events
// into notification records. Two dedup disciplines apply: per-entity kinds
// are upserted by identity, bulk kinds are replaced wholesale per user.
// Snoozes suppress emission for both kinds; facts are still computed so
// caches and audit stay accurate.
package sync

import (
	"context"
	"fmt"
	"sort"
	"time"

	accountdomain "renewalwatch_backend/internal/accounts/domain"
	"renewalwatch_backend/internal/notification/bulk"
	"renewalwatch_backend/internal/notification/inapp"
	riskdomain "renewalwatch_backend/internal/risk/domain"
	taskrepo "renewalwatch_backend/internal/tasks/repository"
	"renewalwatch_backend/platform/logger"

	"github.com/google/uuid"
)

// PerEntityStore is the per-entity notification persistence the
// synchronizer needs.
type PerEntityStore interface {
	Upsert(ctx context.Context, p inapp.UpsertParams) (created bool, err error)
}

// BulkStore is the bulk feed persistence the synchronizer needs.
type BulkStore interface {
	Replace(ctx context.Context, userID uuid.UUID, entries []bulk.Entry, computedAt time.Time) error
}

// SnoozeStore resolves a user's active snoozes.
type SnoozeStore interface {
	ActiveTargets(ctx context.Context, userID uuid.UUID, now time.Time) (map[uuid.UUID]time.Time, error)
}

// Result counts store effects for the batch report.
type Result struct {
	Created int
	Updated int
}

// AccountRisk pairs an account with its freshly computed status; the
// synchronizer routes notifications to the account's owner.
type AccountRisk struct {
	Account accountdomain.Account
	Status  riskdomain.AccountRiskStatus
}

// Synchronizer applies the notification state machine for both kinds.
type Synchronizer struct {
	perEntity PerEntityStore
	bulkFeed  BulkStore
	snoozes   SnoozeStore
	log       *logger.Logger
}

func New(perEntity PerEntityStore, bulkFeed BulkStore, snoozes SnoozeStore, log *logger.Logger) *Synchronizer {
	return &Synchronizer{
		perEntity: perEntity,
		bulkFeed:  bulkFeed,
		snoozes:   snoozes,
		log:       log,
	}
}

// SyncAccountRisk upserts the owner's per-entity renewal-risk notification
// when the account is at risk. Safe and NoData accounts emit nothing here;
// their disappearance from the bulk feed is handled by the wholesale
// replace in SyncBulkFeeds.
func (s *Synchronizer) SyncAccountRisk(ctx context.Context, ar AccountRisk, now time.Time) (Result, error) {
	var res Result

	if ar.Status.Status != riskdomain.RiskAtRisk {
		return res, nil
	}

	snoozed, err := s.activeTargets(ctx, ar.Account.OwnerUserID, now)
	if err != nil {
		return res, err
	}
	if _, ok := snoozed[ar.Account.ID]; ok {
		return res, nil
	}

	days := 0
	if ar.Status.DaysUntilExpiry != nil {
		days = *ar.Status.DaysUntilExpiry
	}

	created, err := s.perEntity.Upsert(ctx, inapp.UpsertParams{
		UserID:          ar.Account.OwnerUserID,
		Type:            inapp.TypeRenewalRisk,
		Title:           fmt.Sprintf("%s: contract expiring soon", ar.Account.Name),
		Message:         fmt.Sprintf("A won contract for %s expires in %d days with no renewal booked.", ar.Account.Name, days),
		RelatedEntityID: ar.Account.ID,
	})
	if err != nil {
		return res, err
	}
	if created {
		res.Created++
	} else {
		res.Updated++
	}
	return res, nil
}

// SyncTaskDue upserts the assignee's per-entity task-due notification.
func (s *Synchronizer) SyncTaskDue(ctx context.Context, task taskrepo.Task, now time.Time) (Result, error) {
	var res Result

	snoozed, err := s.activeTargets(ctx, task.AssignedUserID, now)
	if err != nil {
		return res, err
	}
	if _, ok := snoozed[task.ID]; ok {
		return res, nil
	}

	due := task.DueAt
	created, err := s.perEntity.Upsert(ctx, inapp.UpsertParams{
		UserID:          task.AssignedUserID,
		Type:            inapp.TypeTaskDue,
		Title:           fmt.Sprintf("Task due: %s", task.Title),
		Message:         fmt.Sprintf("%q is due %s.", task.Title, due.Format("Jan 2, 2006")),
		RelatedEntityID: task.ID,
		ScheduledFor:    &due,
	})
	if err != nil {
		return res, err
	}
	if created {
		res.Created++
	} else {
		res.Updated++
	}
	return res, nil
}

// SyncBulkFeeds rebuilds bulk feeds from the current at-risk set and the
// neglected-account set. Each user's previous list is replaced wholesale.
// owners is every user touched by the scan, qualifying or not: each of
// them gets a replacement document, empty when none of their accounts
// remain in either set, so stale entries disappear.
func (s *Synchronizer) SyncBulkFeeds(ctx context.Context, owners []uuid.UUID, atRisk []AccountRisk, neglected []accountdomain.Account, now time.Time) error {
	type userFeed struct {
		entries []bulk.Entry
	}
	feeds := make(map[uuid.UUID]*userFeed)
	feedFor := func(userID uuid.UUID) *userFeed {
		f, ok := feeds[userID]
		if !ok {
			f = &userFeed{entries: []bulk.Entry{}}
			feeds[userID] = f
		}
		return f
	}

	for _, owner := range owners {
		if owner == uuid.Nil {
			continue
		}
		feedFor(owner)
	}

	// Soonest expiry first; account ID breaks ties for determinism.
	sorted := append([]AccountRisk(nil), atRisk...)
	sort.Slice(sorted, func(i, j int) bool {
		di, dj := daysOrMax(sorted[i].Status), daysOrMax(sorted[j].Status)
		if di != dj {
			return di < dj
		}
		return sorted[i].Account.ID.String() < sorted[j].Account.ID.String()
	})

	for _, ar := range sorted {
		if ar.Status.Status != riskdomain.RiskAtRisk {
			continue
		}
		owner := ar.Account.OwnerUserID
		snoozed, err := s.activeTargets(ctx, owner, now)
		if err != nil {
			return err
		}
		if _, ok := snoozed[ar.Account.ID]; ok {
			feedFor(owner) // still gets a (possibly empty) replacement feed
			continue
		}

		days := 0
		if ar.Status.DaysUntilExpiry != nil {
			days = *ar.Status.DaysUntilExpiry
		}
		f := feedFor(owner)
		f.entries = append(f.entries, bulk.Entry{
			Type:            bulk.EntryAtRiskAccount,
			Title:           fmt.Sprintf("%s at risk", ar.Account.Name),
			Message:         fmt.Sprintf("Contract expires in %d days without a booked renewal.", days),
			AccountID:       ar.Account.ID,
			DaysUntilExpiry: ar.Status.DaysUntilExpiry,
			CreatedAt:       now,
		})
	}

	for _, acct := range neglected {
		owner := acct.OwnerUserID
		snoozed, err := s.activeTargets(ctx, owner, now)
		if err != nil {
			return err
		}
		if _, ok := snoozed[acct.ID]; ok {
			feedFor(owner)
			continue
		}

		f := feedFor(owner)
		f.entries = append(f.entries, bulk.Entry{
			Type:      bulk.EntryNeglectedAccount,
			Title:     fmt.Sprintf("%s needs attention", acct.Name),
			Message:   "No recent interactions logged for this account.",
			AccountID: acct.ID,
			CreatedAt: now,
		})
	}

	for userID, f := range feeds {
		if err := s.bulkFeed.Replace(ctx, userID, f.entries, now); err != nil {
			return err
		}
	}
	return nil
}

func (s *Synchronizer) activeTargets(ctx context.Context, userID uuid.UUID, now time.Time) (map[uuid.UUID]time.Time, error) {
	if s.snoozes == nil {
		return nil, nil
	}
	return s.snoozes.ActiveTargets(ctx, userID, now)
}

func daysOrMax(status riskdomain.AccountRiskStatus) int {
	if status.DaysUntilExpiry == nil {
		return int(^uint(0) >> 1)
	}
	return *status.DaysUntilExpiry
}
