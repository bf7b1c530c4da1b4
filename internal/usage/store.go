package usage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/studyforge/backend/internal/models"
)

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// PeriodKey names the monthly quota window, e.g. "2026-08". Counters never
// roll over; a new period simply gets a fresh row.
func PeriodKey(t time.Time) string {
	return t.UTC().Format("2006-01")
}

// EnsureCounter creates the user's counter for the period if absent. An
// existing counter keeps its usage but its limit is raised when the caller's
// entitlement grew (plan upgrades mid-period). Limits are never lowered here,
// so invite bonuses survive.
func (s *Store) EnsureCounter(userID int64, period string, limit int) error {
	_, err := s.db.Exec(
		`INSERT INTO usage_counters (user_id, period, pages_used, page_limit)
		 VALUES ($1, $2, 0, $3)
		 ON CONFLICT (user_id, period)
		 DO UPDATE SET page_limit = GREATEST(usage_counters.page_limit, EXCLUDED.page_limit)`,
		userID, period, limit,
	)
	if err != nil {
		return fmt.Errorf("ensure usage counter: %w", err)
	}
	return nil
}

// TryIncrement atomically consumes pages from the counter. The conditional
// UPDATE is the entire race story: two concurrent uploads both run it, and
// the row lock guarantees at most one succeeds when only one fits.
func (s *Store) TryIncrement(userID int64, period string, pages int) (*models.UsageResult, error) {
	var used, limit int
	err := s.db.QueryRow(
		`UPDATE usage_counters
		 SET pages_used = pages_used + $1, updated_at = NOW()
		 WHERE user_id = $2 AND period = $3 AND pages_used + $1 <= page_limit
		 RETURNING pages_used, page_limit`,
		pages, userID, period,
	).Scan(&used, &limit)

	if err == sql.ErrNoRows {
		// Denied: report the untouched counter.
		counter, cerr := s.Counter(userID, period)
		if cerr != nil {
			return nil, cerr
		}
		return &models.UsageResult{Allowed: false, CurrentCount: counter.PagesUsed, LimitCount: counter.PageLimit}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("increment usage: %w", err)
	}

	return &models.UsageResult{Allowed: true, CurrentCount: used, LimitCount: limit}, nil
}

// AddBonusPages raises the period's limit, e.g. for invite rewards.
func (s *Store) AddBonusPages(userID int64, period string, bonus int) error {
	_, err := s.db.Exec(
		`UPDATE usage_counters
		 SET page_limit = page_limit + $1, updated_at = NOW()
		 WHERE user_id = $2 AND period = $3`,
		bonus, userID, period,
	)
	if err != nil {
		return fmt.Errorf("add bonus pages: %w", err)
	}
	return nil
}

func (s *Store) Counter(userID int64, period string) (*models.UsageCounter, error) {
	var c models.UsageCounter
	err := s.db.QueryRow(
		`SELECT id, user_id, period, pages_used, page_limit, updated_at
		 FROM usage_counters WHERE user_id = $1 AND period = $2`,
		userID, period,
	).Scan(&c.ID, &c.UserID, &c.Period, &c.PagesUsed, &c.PageLimit, &c.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get usage counter: %w", err)
	}
	return &c, nil
}
