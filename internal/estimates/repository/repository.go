// Package repository provides postgres persistence for estimates.
package repository

import (
	"context"
	"errors"
	"fmt"

	"renewalwatch_backend/internal/estimates/domain"
	"renewalwatch_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	opListByAccount = "estimates.repository.list_by_account"
	opGetByID       = "estimates.repository.get_by_id"
	opUpsert        = "estimates.repository.upsert"
	opArchive       = "estimates.repository.archive"

	errRepoNotConfigured = "estimate repository not configured"
)

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const estimateColumns = `id, account_id, department, site_address, status, pipeline_status, start_date, end_date, archived`

func scanEstimate(row pgx.Row) (domain.Estimate, error) {
	var e domain.Estimate
	err := row.Scan(&e.ID, &e.AccountID, &e.Department, &e.SiteAddress,
		&e.Status, &e.PipelineStatus, &e.StartDate, &e.EndDate, &e.Archived)
	return e, err
}

// ListByAccount returns all estimates for an account, archived included.
// The risk pipeline filters archived rows itself so callers that need the
// full history (exports, audits) can reuse this query.
func (r *Repository) ListByAccount(ctx context.Context, accountID uuid.UUID) ([]domain.Estimate, error) {
	if r == nil || r.pool == nil {
		return nil, apperr.Internal(errRepoNotConfigured).WithOp(opListByAccount)
	}
	if accountID == uuid.Nil {
		return nil, apperr.Validation("accountId is required").WithOp(opListByAccount)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+estimateColumns+`
		FROM rw_estimates
		WHERE account_id = $1
		ORDER BY end_date NULLS LAST, id
	`, accountID)
	if err != nil {
		return nil, apperr.Internal(fmt.Sprintf("list estimates query failed: %v", err)).WithOp(opListByAccount)
	}
	defer rows.Close()

	var items []domain.Estimate
	for rows.Next() {
		e, scanErr := scanEstimate(rows)
		if scanErr != nil {
			return nil, apperr.Internal(fmt.Sprintf("scan estimate failed: %v", scanErr)).WithOp(opListByAccount)
		}
		items = append(items, e)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, apperr.Internal(fmt.Sprintf("iterate estimates failed: %v", rowsErr)).WithOp(opListByAccount)
	}

	return items, nil
}

// GetByID fetches a single estimate.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (domain.Estimate, error) {
	if r == nil || r.pool == nil {
		return domain.Estimate{}, apperr.Internal(errRepoNotConfigured).WithOp(opGetByID)
	}

	e, err := scanEstimate(r.pool.QueryRow(ctx, `
		SELECT `+estimateColumns+`
		FROM rw_estimates
		WHERE id = $1
	`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Estimate{}, apperr.NotFound("estimate not found").WithOp(opGetByID)
		}
		return domain.Estimate{}, apperr.Internal(fmt.Sprintf("get estimate failed: %v", err)).WithOp(opGetByID)
	}
	return e, nil
}

// Upsert inserts or updates an estimate, keyed by ID. Returns true when a
// new row was created.
func (r *Repository) Upsert(ctx context.Context, e domain.Estimate) (bool, error) {
	if r == nil || r.pool == nil {
		return false, apperr.Internal(errRepoNotConfigured).WithOp(opUpsert)
	}
	if e.ID == uuid.Nil || e.AccountID == uuid.Nil {
		return false, apperr.Validation("id and accountId are required").WithOp(opUpsert)
	}

	var created bool
	err := r.pool.QueryRow(ctx, `
		INSERT INTO rw_estimates (id, account_id, department, site_address, status, pipeline_status, start_date, end_date, archived)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			department = EXCLUDED.department,
			site_address = EXCLUDED.site_address,
			status = EXCLUDED.status,
			pipeline_status = EXCLUDED.pipeline_status,
			start_date = EXCLUDED.start_date,
			end_date = EXCLUDED.end_date,
			archived = EXCLUDED.archived,
			updated_at = now()
		RETURNING (xmax = 0)
	`, e.ID, e.AccountID, e.Department, e.SiteAddress, e.Status, e.PipelineStatus, e.StartDate, e.EndDate, e.Archived).Scan(&created)
	if err != nil {
		return false, apperr.Internal(fmt.Sprintf("upsert estimate failed: %v", err)).WithOp(opUpsert)
	}
	return created, nil
}

// Archive marks an estimate archived. Returns the owning account so callers
// can invalidate its cache entry.
func (r *Repository) Archive(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	if r == nil || r.pool == nil {
		return uuid.Nil, apperr.Internal(errRepoNotConfigured).WithOp(opArchive)
	}

	var accountID uuid.UUID
	err := r.pool.QueryRow(ctx, `
		UPDATE rw_estimates
		SET archived = TRUE, updated_at = now()
		WHERE id = $1
		RETURNING account_id
	`, id).Scan(&accountID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, apperr.NotFound("estimate not found").WithOp(opArchive)
		}
		return uuid.Nil, apperr.Internal(fmt.Sprintf("archive estimate failed: %v", err)).WithOp(opArchive)
	}
	return accountID, nil
}
