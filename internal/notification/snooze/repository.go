// Package snooze provides user-scoped, time-bounded notification
// suppression. A snooze targets one entity (account or task) and is
// independent of read state: the underlying fact is still computed, but
// nothing is (re-)emitted until the snooze expires.
package snooze

import (
	"context"
	"fmt"
	"time"

	"renewalwatch_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	opUpsert        = "notification.snooze.repository.upsert"
	opActiveTargets = "notification.snooze.repository.active_targets"
	opDelete        = "notification.snooze.repository.delete"

	errRepoNotConfigured = "snooze repository not configured"
)

// Snooze suppresses notifications for (user, target) until SnoozedUntil.
type Snooze struct {
	UserID       uuid.UUID `json:"userId"`
	TargetID     uuid.UUID `json:"targetId"`
	SnoozedUntil time.Time `json:"snoozedUntil"`
}

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Upsert creates or extends a snooze for (user, target).
func (r *Repository) Upsert(ctx context.Context, s Snooze) error {
	if r == nil || r.pool == nil {
		return apperr.Internal(errRepoNotConfigured).WithOp(opUpsert)
	}
	if s.UserID == uuid.Nil || s.TargetID == uuid.Nil {
		return apperr.Validation("userId and targetId are required").WithOp(opUpsert)
	}
	if s.SnoozedUntil.IsZero() {
		return apperr.Validation("snoozedUntil is required").WithOp(opUpsert)
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO rw_notification_snoozes (user_id, target_id, snoozed_until)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, target_id) DO UPDATE SET
			snoozed_until = EXCLUDED.snoozed_until
	`, s.UserID, s.TargetID, s.SnoozedUntil)
	if err != nil {
		return apperr.Internal(fmt.Sprintf("upsert snooze failed: %v", err)).WithOp(opUpsert)
	}
	return nil
}

// ActiveTargets returns the targets a user has snoozed as of now. Expired
// snoozes are simply not returned; cleanup is a separate maintenance
// concern.
func (r *Repository) ActiveTargets(ctx context.Context, userID uuid.UUID, now time.Time) (map[uuid.UUID]time.Time, error) {
	if r == nil || r.pool == nil {
		return nil, apperr.Internal(errRepoNotConfigured).WithOp(opActiveTargets)
	}
	if userID == uuid.Nil {
		return nil, apperr.Validation("userId is required").WithOp(opActiveTargets)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT target_id, snoozed_until
		FROM rw_notification_snoozes
		WHERE user_id = $1 AND snoozed_until > $2
	`, userID, now)
	if err != nil {
		return nil, apperr.Internal(fmt.Sprintf("active snoozes query failed: %v", err)).WithOp(opActiveTargets)
	}
	defer rows.Close()

	targets := make(map[uuid.UUID]time.Time)
	for rows.Next() {
		var target uuid.UUID
		var until time.Time
		if scanErr := rows.Scan(&target, &until); scanErr != nil {
			return nil, apperr.Internal(fmt.Sprintf("scan snooze failed: %v", scanErr)).WithOp(opActiveTargets)
		}
		targets[target] = until
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, apperr.Internal(fmt.Sprintf("iterate snoozes failed: %v", rowsErr)).WithOp(opActiveTargets)
	}

	return targets, nil
}

// Delete removes a snooze, re-enabling delivery for the target.
func (r *Repository) Delete(ctx context.Context, userID, targetID uuid.UUID) error {
	if r == nil || r.pool == nil {
		return apperr.Internal(errRepoNotConfigured).WithOp(opDelete)
	}
	if userID == uuid.Nil || targetID == uuid.Nil {
		return apperr.Validation("userId and targetId are required").WithOp(opDelete)
	}

	_, err := r.pool.Exec(ctx, `
		DELETE FROM rw_notification_snoozes
		WHERE user_id = $1 AND target_id = $2
	`, userID, targetID)
	if err != nil {
		return apperr.Internal(fmt.Sprintf("delete snooze failed: %v", err)).WithOp(opDelete)
	}
	return nil
}
