package billing

import (
	"database/sql"
	"fmt"

	"github.com/studyforge/backend/internal/models"
)

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Upsert records the processor's view of a subscription, keyed by the
// processor's own subscription ID so replayed webhooks converge instead of
// duplicating rows.
func (s *Store) Upsert(sub models.Subscription) error {
	_, err := s.db.Exec(
		`INSERT INTO subscriptions
		     (user_id, provider_sub_id, status, current_period_end, cancel_at_period_end, canceled_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (provider_sub_id)
		 DO UPDATE SET status = EXCLUDED.status,
		               current_period_end = EXCLUDED.current_period_end,
		               cancel_at_period_end = EXCLUDED.cancel_at_period_end,
		               canceled_at = EXCLUDED.canceled_at,
		               updated_at = NOW()`,
		sub.UserID, sub.ProviderSubID, sub.Status, sub.CurrentPeriodEnd,
		sub.CancelAtPeriodEnd, sub.CanceledAt,
	)
	if err != nil {
		return fmt.Errorf("upsert subscription: %w", err)
	}
	return nil
}

func (s *Store) ListForUser(userID int64) ([]models.Subscription, error) {
	rows, err := s.db.Query(
		`SELECT id, user_id, provider_sub_id, status, current_period_end,
		        cancel_at_period_end, canceled_at, created_at, updated_at
		 FROM subscriptions WHERE user_id = $1 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("query subscriptions: %w", err)
	}
	defer rows.Close()

	var subs []models.Subscription
	for rows.Next() {
		var sub models.Subscription
		if err := rows.Scan(&sub.ID, &sub.UserID, &sub.ProviderSubID, &sub.Status,
			&sub.CurrentPeriodEnd, &sub.CancelAtPeriodEnd, &sub.CanceledAt,
			&sub.CreatedAt, &sub.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan subscription: %w", err)
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}
