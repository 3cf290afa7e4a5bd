// Package bulk provides bulk/aggregate notifications: one document per user
// holding an ordered entry list, replaced wholesale each computation.
// Staleness of any single entry is indistinguishable from absence without
// re-deriving all entries anyway, so the list is never diffed row-by-row.
package bulk

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"renewalwatch_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	opReplace = "notification.bulk.repository.replace"
	opGet     = "notification.bulk.repository.get"

	errRepoNotConfigured = "bulk notification repository not configured"
)

// Entry kinds for the bulk discipline.
const (
	EntryAtRiskAccount    = "at_risk_account"
	EntryNeglectedAccount = "neglected_account"
)

// Entry is one item of a user's bulk feed.
type Entry struct {
	Type            string    `json:"type"`
	Title           string    `json:"title"`
	Message         string    `json:"message"`
	AccountID       uuid.UUID `json:"accountId"`
	DaysUntilExpiry *int      `json:"daysUntilExpiry,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
}

// Feed is one user's bulk document.
type Feed struct {
	UserID     uuid.UUID `json:"userId"`
	Entries    []Entry   `json:"entries"`
	ComputedAt time.Time `json:"computedAt"`
}

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Replace overwrites the user's entire feed. An empty entry list is a valid
// feed: it records that the computation ran and found nothing.
func (r *Repository) Replace(ctx context.Context, userID uuid.UUID, entries []Entry, computedAt time.Time) error {
	if r == nil || r.pool == nil {
		return apperr.Internal(errRepoNotConfigured).WithOp(opReplace)
	}
	if userID == uuid.Nil {
		return apperr.Validation("userId is required").WithOp(opReplace)
	}
	if entries == nil {
		entries = []Entry{}
	}

	raw, err := json.Marshal(entries)
	if err != nil {
		return apperr.Internal(fmt.Sprintf("marshal bulk entries failed: %v", err)).WithOp(opReplace)
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO rw_bulk_notifications (user_id, entries, computed_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE SET
			entries = EXCLUDED.entries,
			computed_at = EXCLUDED.computed_at
	`, userID, raw, computedAt)
	if err != nil {
		return apperr.Internal(fmt.Sprintf("replace bulk feed failed: %v", err)).WithOp(opReplace)
	}
	return nil
}

// Get returns the user's feed, or an empty one when none has been computed.
func (r *Repository) Get(ctx context.Context, userID uuid.UUID) (Feed, error) {
	if r == nil || r.pool == nil {
		return Feed{}, apperr.Internal(errRepoNotConfigured).WithOp(opGet)
	}
	if userID == uuid.Nil {
		return Feed{}, apperr.Validation("userId is required").WithOp(opGet)
	}

	var raw []byte
	feed := Feed{UserID: userID, Entries: []Entry{}}
	err := r.pool.QueryRow(ctx, `
		SELECT entries, computed_at
		FROM rw_bulk_notifications
		WHERE user_id = $1
	`, userID).Scan(&raw, &feed.ComputedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return feed, nil
		}
		return Feed{}, apperr.Internal(fmt.Sprintf("get bulk feed failed: %v", err)).WithOp(opGet)
	}

	if err := json.Unmarshal(raw, &feed.Entries); err != nil {
		return Feed{}, apperr.Internal(fmt.Sprintf("decode bulk entries failed: %v", err)).WithOp(opGet)
	}
	return feed, nil
}
