// Package inapp provides per-entity in-app notifications: one row per
// (user, type, related entity), enforced unique by the store. Re-firing the
// same fact updates the row in place instead of duplicating it.
package inapp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"renewalwatch_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	opUpsert      = "notification.inapp.repository.upsert"
	opList        = "notification.inapp.repository.list"
	opCountUnread = "notification.inapp.repository.count_unread"
	opMarkRead    = "notification.inapp.repository.mark_read"
	opMarkAllRead = "notification.inapp.repository.mark_all_read"
	opDelete      = "notification.inapp.repository.delete"
	opDeleteStale = "notification.inapp.repository.delete_stale"

	errRepoNotConfigured = "in-app notification repository not configured"
	errUserIDRequired    = "userId is required"

	// pgUniqueViolation is the class 23 code raised when a concurrent
	// insert beats the update-by-key path.
	pgUniqueViolation = "23505"
)

// Notification kinds for the per-entity discipline.
const (
	TypeRenewalRisk = "renewal_risk"
	TypeTaskDue     = "task_due"
)

type Notification struct {
	ID              uuid.UUID  `json:"id"`
	UserID          uuid.UUID  `json:"userId"`
	Type            string     `json:"type"`
	Title           string     `json:"title"`
	Message         string     `json:"message"`
	RelatedEntityID uuid.UUID  `json:"relatedEntityId"`
	IsRead          bool       `json:"isRead"`
	ScheduledFor    *time.Time `json:"scheduledFor,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

type UpsertParams struct {
	UserID          uuid.UUID
	Type            string
	Title           string
	Message         string
	RelatedEntityID uuid.UUID
	ScheduledFor    *time.Time
}

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Upsert refreshes the notification for (user, type, related entity), or
// creates it when absent. The read flag is never touched by a refresh:
// re-deriving the same fact must not mark a read notification unread.
//
// The update-by-key path runs first; the unique index only catches the race
// where a concurrent insert lands between the update and the insert, in
// which case the update is retried. Returns true when a new row was created.
func (r *Repository) Upsert(ctx context.Context, p UpsertParams) (bool, error) {
	if r == nil || r.pool == nil {
		return false, apperr.Internal(errRepoNotConfigured).WithOp(opUpsert)
	}
	if p.UserID == uuid.Nil || p.RelatedEntityID == uuid.Nil {
		return false, apperr.Validation("userId and relatedEntityId are required").WithOp(opUpsert)
	}
	if p.Type == "" || p.Title == "" {
		return false, apperr.Validation("type and title are required").WithOp(opUpsert)
	}

	updated, err := r.updateByKey(ctx, p)
	if err != nil {
		return false, err
	}
	if updated {
		return false, nil
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO rw_notifications (id, user_id, type, title, message, related_entity_id, scheduled_for)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, uuid.New(), p.UserID, p.Type, p.Title, p.Message, p.RelatedEntityID, p.ScheduledFor)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			// Lost the race to a concurrent insert; fall back to update.
			if _, retryErr := r.updateByKey(ctx, p); retryErr != nil {
				return false, retryErr
			}
			return false, nil
		}
		return false, apperr.Internal(fmt.Sprintf("insert notification failed: %v", err)).WithOp(opUpsert)
	}
	return true, nil
}

func (r *Repository) updateByKey(ctx context.Context, p UpsertParams) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE rw_notifications
		SET title = $4, message = $5, scheduled_for = $6, updated_at = now()
		WHERE user_id = $1 AND type = $2 AND related_entity_id = $3
	`, p.UserID, p.Type, p.RelatedEntityID, p.Title, p.Message, p.ScheduledFor)
	if err != nil {
		return false, apperr.Internal(fmt.Sprintf("update notification failed: %v", err)).WithOp(opUpsert)
	}
	return tag.RowsAffected() > 0, nil
}

// List returns a user's notifications newest first.
func (r *Repository) List(ctx context.Context, userID uuid.UUID, limit int, unreadOnly bool) ([]Notification, error) {
	if r == nil || r.pool == nil {
		return nil, apperr.Internal(errRepoNotConfigured).WithOp(opList)
	}
	if userID == uuid.Nil {
		return nil, apperr.Validation(errUserIDRequired).WithOp(opList)
	}
	if limit < 1 {
		limit = 20
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, type, title, message, related_entity_id, is_read, scheduled_for, created_at, updated_at
		FROM rw_notifications
		WHERE user_id = $1 AND ($2 = FALSE OR is_read = FALSE)
		ORDER BY updated_at DESC
		LIMIT $3
	`, userID, unreadOnly, limit)
	if err != nil {
		return nil, apperr.Internal(fmt.Sprintf("list notifications query failed: %v", err)).WithOp(opList)
	}
	defer rows.Close()

	items := make([]Notification, 0, limit)
	for rows.Next() {
		var n Notification
		if scanErr := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Message, &n.RelatedEntityID,
			&n.IsRead, &n.ScheduledFor, &n.CreatedAt, &n.UpdatedAt); scanErr != nil {
			return nil, apperr.Internal(fmt.Sprintf("scan notification failed: %v", scanErr)).WithOp(opList)
		}
		items = append(items, n)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, apperr.Internal(fmt.Sprintf("iterate notifications failed: %v", rowsErr)).WithOp(opList)
	}

	return items, nil
}

// CountUnread returns the number of unread notifications for a user.
func (r *Repository) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	if r == nil || r.pool == nil {
		return 0, apperr.Internal(errRepoNotConfigured).WithOp(opCountUnread)
	}
	if userID == uuid.Nil {
		return 0, apperr.Validation(errUserIDRequired).WithOp(opCountUnread)
	}

	var count int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM rw_notifications
		WHERE user_id = $1 AND is_read = FALSE
	`, userID).Scan(&count)
	if err != nil {
		return 0, apperr.Internal(fmt.Sprintf("count unread notifications failed: %v", err)).WithOp(opCountUnread)
	}

	return count, nil
}

// MarkRead marks one notification read. Scoped by user so one user can never
// mark another's notifications.
func (r *Repository) MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error {
	if r == nil || r.pool == nil {
		return apperr.Internal(errRepoNotConfigured).WithOp(opMarkRead)
	}
	if userID == uuid.Nil || notificationID == uuid.Nil {
		return apperr.Validation("userId and notificationId are required").WithOp(opMarkRead)
	}

	_, err := r.pool.Exec(ctx, `
		UPDATE rw_notifications
		SET is_read = TRUE, read_at = now()
		WHERE id = $1 AND user_id = $2
	`, notificationID, userID)
	if err != nil {
		return apperr.Internal(fmt.Sprintf("mark notification read failed: %v", err)).WithOp(opMarkRead)
	}

	return nil
}

// MarkAllRead marks all of a user's notifications read.
func (r *Repository) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	if r == nil || r.pool == nil {
		return apperr.Internal(errRepoNotConfigured).WithOp(opMarkAllRead)
	}
	if userID == uuid.Nil {
		return apperr.Validation(errUserIDRequired).WithOp(opMarkAllRead)
	}

	_, err := r.pool.Exec(ctx, `
		UPDATE rw_notifications
		SET is_read = TRUE, read_at = now()
		WHERE user_id = $1 AND is_read = FALSE
	`, userID)
	if err != nil {
		return apperr.Internal(fmt.Sprintf("mark all notifications read failed: %v", err)).WithOp(opMarkAllRead)
	}

	return nil
}

// Delete removes one notification, scoped by user.
func (r *Repository) Delete(ctx context.Context, userID, notificationID uuid.UUID) error {
	if r == nil || r.pool == nil {
		return apperr.Internal(errRepoNotConfigured).WithOp(opDelete)
	}
	if userID == uuid.Nil || notificationID == uuid.Nil {
		return apperr.Validation("userId and notificationId are required").WithOp(opDelete)
	}

	_, err := r.pool.Exec(ctx, `
		DELETE FROM rw_notifications
		WHERE id = $1 AND user_id = $2
	`, notificationID, userID)
	if err != nil {
		return apperr.Internal(fmt.Sprintf("delete notification failed: %v", err)).WithOp(opDelete)
	}

	return nil
}

// DeleteReadBefore removes read notifications older than the cutoff.
// Returns the number of rows removed.
func (r *Repository) DeleteReadBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	if r == nil || r.pool == nil {
		return 0, apperr.Internal(errRepoNotConfigured).WithOp(opDeleteStale)
	}

	tag, err := r.pool.Exec(ctx, `
		DELETE FROM rw_notifications
		WHERE is_read = TRUE AND read_at < $1
	`, cutoff)
	if err != nil {
		return 0, apperr.Internal(fmt.Sprintf("delete stale notifications failed: %v", err)).WithOp(opDeleteStale)
	}

	return tag.RowsAffected(), nil
}
