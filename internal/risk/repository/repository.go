// Package repository persists computed account risk statuses. Each pipeline
// run supersedes the previous status row wholesale; there is no history.
package repository

import (
	"context"
	"errors"
	"fmt"

	"renewalwatch_backend/internal/risk/domain"
	"renewalwatch_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	opSave       = "risk.repository.save"
	opGet        = "risk.repository.get"
	opListAtRisk = "risk.repository.list_at_risk"

	errRepoNotConfigured = "risk repository not configured"
)

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Save stores the status for an account, replacing any previous one.
func (r *Repository) Save(ctx context.Context, status domain.AccountRiskStatus) error {
	if r == nil || r.pool == nil {
		return apperr.Internal(errRepoNotConfigured).WithOp(opSave)
	}
	if status.AccountID == uuid.Nil {
		return apperr.Validation("accountId is required").WithOp(opSave)
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO rw_account_risk_status (account_id, status, driving_estimate_id, days_until_expiry, computed_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (account_id) DO UPDATE SET
			status = EXCLUDED.status,
			driving_estimate_id = EXCLUDED.driving_estimate_id,
			days_until_expiry = EXCLUDED.days_until_expiry,
			computed_at = EXCLUDED.computed_at
	`, status.AccountID, status.Status, status.DrivingEstimateID, status.DaysUntilExpiry, status.ComputedAt)
	if err != nil {
		return apperr.Internal(fmt.Sprintf("save risk status failed: %v", err)).WithOp(opSave)
	}
	return nil
}

// Get returns the last computed status for an account.
func (r *Repository) Get(ctx context.Context, accountID uuid.UUID) (domain.AccountRiskStatus, error) {
	if r == nil || r.pool == nil {
		return domain.AccountRiskStatus{}, apperr.Internal(errRepoNotConfigured).WithOp(opGet)
	}
	if accountID == uuid.Nil {
		return domain.AccountRiskStatus{}, apperr.Validation("accountId is required").WithOp(opGet)
	}

	var s domain.AccountRiskStatus
	err := r.pool.QueryRow(ctx, `
		SELECT account_id, status, driving_estimate_id, days_until_expiry, computed_at
		FROM rw_account_risk_status
		WHERE account_id = $1
	`, accountID).Scan(&s.AccountID, &s.Status, &s.DrivingEstimateID, &s.DaysUntilExpiry, &s.ComputedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.AccountRiskStatus{}, apperr.NotFound("risk status not computed yet").WithOp(opGet)
		}
		return domain.AccountRiskStatus{}, apperr.Internal(fmt.Sprintf("get risk status failed: %v", err)).WithOp(opGet)
	}
	return s, nil
}

// ListAtRisk returns all at-risk statuses, soonest expiry first.
func (r *Repository) ListAtRisk(ctx context.Context) ([]domain.AccountRiskStatus, error) {
	if r == nil || r.pool == nil {
		return nil, apperr.Internal(errRepoNotConfigured).WithOp(opListAtRisk)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT account_id, status, driving_estimate_id, days_until_expiry, computed_at
		FROM rw_account_risk_status
		WHERE status = $1
		ORDER BY days_until_expiry NULLS LAST, account_id
	`, domain.RiskAtRisk)
	if err != nil {
		return nil, apperr.Internal(fmt.Sprintf("list at-risk query failed: %v", err)).WithOp(opListAtRisk)
	}
	defer rows.Close()

	var items []domain.AccountRiskStatus
	for rows.Next() {
		var s domain.AccountRiskStatus
		if scanErr := rows.Scan(&s.AccountID, &s.Status, &s.DrivingEstimateID, &s.DaysUntilExpiry, &s.ComputedAt); scanErr != nil {
			return nil, apperr.Internal(fmt.Sprintf("scan risk status failed: %v", scanErr)).WithOp(opListAtRisk)
		}
		items = append(items, s)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, apperr.Internal(fmt.Sprintf("iterate risk statuses failed: %v", rowsErr)).WithOp(opListAtRisk)
	}

	return items, nil
}
