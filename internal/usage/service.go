package usage

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/studyforge/backend/internal/models"
)

// SubscriptionSource reports whether a user currently holds an active pro
// plan. Satisfied by the billing service.
type SubscriptionSource interface {
	HasActivePro(userID int64) (bool, error)
}

// Service enforces the monthly page quota. Every document upload passes
// through CheckAndIncrement before any expensive work happens.
type Service struct {
	store     *Store
	subs      SubscriptionSource
	baseLimit int
	proLimit  int
}

func NewService(store *Store, subs SubscriptionSource) *Service {
	return &Service{
		store:     store,
		subs:      subs,
		baseLimit: envInt("STARTER_PAGE_LIMIT", 100),
		proLimit:  envInt("PRO_PAGE_LIMIT", 1000),
	}
}

// CheckAndIncrement consumes pages from the user's current period, creating
// the counter lazily. A denied request leaves the counter untouched and
// returns ErrLimitReached alongside the counter state.
func (s *Service) CheckAndIncrement(userID int64, pages int, now time.Time) (*models.UsageResult, error) {
	if pages <= 0 {
		return nil, fmt.Errorf("page count %d: %w", pages, models.ErrInvalidInput)
	}

	period := PeriodKey(now)
	limit, err := s.limitFor(userID)
	if err != nil {
		return nil, err
	}

	if err := s.store.EnsureCounter(userID, period, limit); err != nil {
		return nil, err
	}

	result, err := s.store.TryIncrement(userID, period, pages)
	if err != nil {
		return nil, err
	}
	if !result.Allowed {
		log.Printf("[usage] WARN: user %d denied %d pages (%d/%d used in %s)",
			userID, pages, result.CurrentCount, result.LimitCount, period)
		return result, models.ErrLimitReached
	}
	return result, nil
}

// Current returns the user's counter for the running period, materializing
// it so first-time users see their limit instead of a 404.
func (s *Service) Current(userID int64, now time.Time) (*models.UsageCounter, error) {
	period := PeriodKey(now)
	limit, err := s.limitFor(userID)
	if err != nil {
		return nil, err
	}
	if err := s.store.EnsureCounter(userID, period, limit); err != nil {
		return nil, err
	}
	return s.store.Counter(userID, period)
}

// GrantBonus raises the current period's limit. Used when invite codes are
// redeemed.
func (s *Service) GrantBonus(userID int64, bonus int, now time.Time) error {
	period := PeriodKey(now)
	limit, err := s.limitFor(userID)
	if err != nil {
		return err
	}
	if err := s.store.EnsureCounter(userID, period, limit); err != nil {
		return err
	}
	return s.store.AddBonusPages(userID, period, bonus)
}

func (s *Service) limitFor(userID int64) (int, error) {
	pro, err := s.subs.HasActivePro(userID)
	if err != nil {
		return 0, fmt.Errorf("resolve plan for user %d: %w", userID, err)
	}
	if pro {
		return s.proLimit, nil
	}
	return s.baseLimit, nil
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
		log.Printf("[usage] WARN: ignoring invalid %s=%q", key, v)
	}
	return fallback
}
