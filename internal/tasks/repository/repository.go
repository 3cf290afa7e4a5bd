// Package repository provides postgres persistence for follow-up tasks.
// Tasks feed the per-entity task-due notification kind.
package repository

import (
	"context"
	"fmt"
	"time"

	"renewalwatch_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	opListDueWithin = "tasks.repository.list_due_within"

	errRepoNotConfigured = "task repository not configured"
)

// Task is a follow-up item assigned to a user, optionally tied to an account.
type Task struct {
	ID             uuid.UUID  `json:"id"`
	AccountID      *uuid.UUID `json:"accountId,omitempty"`
	AssignedUserID uuid.UUID  `json:"assignedUserId"`
	Title          string     `json:"title"`
	DueAt          time.Time  `json:"dueAt"`
	Completed      bool       `json:"completed"`
}

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListDueWithin returns open tasks due between now and now+window, the set
// that should carry a task-due notification.
func (r *Repository) ListDueWithin(ctx context.Context, now time.Time, window time.Duration) ([]Task, error) {
	if r == nil || r.pool == nil {
		return nil, apperr.Internal(errRepoNotConfigured).WithOp(opListDueWithin)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, account_id, assigned_user_id, title, due_at, completed
		FROM rw_tasks
		WHERE completed = FALSE
		  AND due_at >= $1
		  AND due_at <= $2
		ORDER BY due_at, id
	`, now, now.Add(window))
	if err != nil {
		return nil, apperr.Internal(fmt.Sprintf("list due tasks failed: %v", err)).WithOp(opListDueWithin)
	}
	defer rows.Close()

	var items []Task
	for rows.Next() {
		var t Task
		if scanErr := rows.Scan(&t.ID, &t.AccountID, &t.AssignedUserID, &t.Title, &t.DueAt, &t.Completed); scanErr != nil {
			return nil, apperr.Internal(fmt.Sprintf("scan task failed: %v", scanErr)).WithOp(opListDueWithin)
		}
		items = append(items, t)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, apperr.Internal(fmt.Sprintf("iterate tasks failed: %v", rowsErr)).WithOp(opListDueWithin)
	}

	return items, nil
}
