// Package repository provides postgres persistence for accounts and
// interactions.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"renewalwatch_backend/internal/accounts/domain"
	"renewalwatch_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	opListIDs            = "accounts.repository.list_ids"
	opGetByID            = "accounts.repository.get_by_id"
	opLogInteraction     = "accounts.repository.log_interaction"
	opLastInteractionAt  = "accounts.repository.last_interaction_at"
	opListNeglectedSince = "accounts.repository.list_neglected_since"

	errRepoNotConfigured = "account repository not configured"
)

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListIDs returns every account ID, in stable order, for the batch scan.
func (r *Repository) ListIDs(ctx context.Context) ([]uuid.UUID, error) {
	if r == nil || r.pool == nil {
		return nil, apperr.Internal(errRepoNotConfigured).WithOp(opListIDs)
	}

	rows, err := r.pool.Query(ctx, `SELECT id FROM rw_accounts ORDER BY id`)
	if err != nil {
		return nil, apperr.Internal(fmt.Sprintf("list account ids failed: %v", err)).WithOp(opListIDs)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if scanErr := rows.Scan(&id); scanErr != nil {
			return nil, apperr.Internal(fmt.Sprintf("scan account id failed: %v", scanErr)).WithOp(opListIDs)
		}
		ids = append(ids, id)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, apperr.Internal(fmt.Sprintf("iterate account ids failed: %v", rowsErr)).WithOp(opListIDs)
	}

	return ids, nil
}

// GetByID fetches a single account.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (domain.Account, error) {
	if r == nil || r.pool == nil {
		return domain.Account{}, apperr.Internal(errRepoNotConfigured).WithOp(opGetByID)
	}

	var a domain.Account
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, owner_user_id, created_at
		FROM rw_accounts
		WHERE id = $1
	`, id).Scan(&a.ID, &a.Name, &a.OwnerUserID, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Account{}, apperr.NotFound("account not found").WithOp(opGetByID)
		}
		return domain.Account{}, apperr.Internal(fmt.Sprintf("get account failed: %v", err)).WithOp(opGetByID)
	}
	return a, nil
}

// LogInteraction records a touch-point with an account.
func (r *Repository) LogInteraction(ctx context.Context, i domain.Interaction) (uuid.UUID, error) {
	if r == nil || r.pool == nil {
		return uuid.Nil, apperr.Internal(errRepoNotConfigured).WithOp(opLogInteraction)
	}
	if i.AccountID == uuid.Nil {
		return uuid.Nil, apperr.Validation("accountId is required").WithOp(opLogInteraction)
	}
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	if i.OccurredAt.IsZero() {
		i.OccurredAt = time.Now().UTC()
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO rw_interactions (id, account_id, kind, occurred_at)
		VALUES ($1, $2, $3, $4)
	`, i.ID, i.AccountID, i.Kind, i.OccurredAt)
	if err != nil {
		return uuid.Nil, apperr.Internal(fmt.Sprintf("log interaction failed: %v", err)).WithOp(opLogInteraction)
	}
	return i.ID, nil
}

// LastInteractionAt returns the most recent interaction time for an account,
// or nil when the account has never been touched.
func (r *Repository) LastInteractionAt(ctx context.Context, accountID uuid.UUID) (*time.Time, error) {
	if r == nil || r.pool == nil {
		return nil, apperr.Internal(errRepoNotConfigured).WithOp(opLastInteractionAt)
	}

	var last *time.Time
	err := r.pool.QueryRow(ctx, `
		SELECT MAX(occurred_at) FROM rw_interactions WHERE account_id = $1
	`, accountID).Scan(&last)
	if err != nil {
		return nil, apperr.Internal(fmt.Sprintf("last interaction query failed: %v", err)).WithOp(opLastInteractionAt)
	}
	return last, nil
}

// ListNeglectedSince returns accounts whose latest interaction is older than
// the cutoff (or that have none at all), together with that latest time.
func (r *Repository) ListNeglectedSince(ctx context.Context, cutoff time.Time) ([]domain.Account, error) {
	if r == nil || r.pool == nil {
		return nil, apperr.Internal(errRepoNotConfigured).WithOp(opListNeglectedSince)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT a.id, a.name, a.owner_user_id, a.created_at
		FROM rw_accounts a
		LEFT JOIN LATERAL (
			SELECT MAX(occurred_at) AS last_at
			FROM rw_interactions i
			WHERE i.account_id = a.id
		) li ON TRUE
		WHERE li.last_at IS NULL OR li.last_at < $1
		ORDER BY a.id
	`, cutoff)
	if err != nil {
		return nil, apperr.Internal(fmt.Sprintf("list neglected accounts failed: %v", err)).WithOp(opListNeglectedSince)
	}
	defer rows.Close()

	var items []domain.Account
	for rows.Next() {
		var a domain.Account
		if scanErr := rows.Scan(&a.ID, &a.Name, &a.OwnerUserID, &a.CreatedAt); scanErr != nil {
			return nil, apperr.Internal(fmt.Sprintf("scan neglected account failed: %v", scanErr)).WithOp(opListNeglectedSince)
		}
		items = append(items, a)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, apperr.Internal(fmt.Sprintf("iterate neglected accounts failed: %v", rowsErr)).WithOp(opListNeglectedSince)
	}

	return items, nil
}
