package invites

import (
	"context"
	"crypto/rand"
	"fmt"
	"log"
	"math/big"
	"os"
	"strconv"
	"time"

	"github.com/lib/pq"
	"github.com/studyforge/backend/internal/models"
	"github.com/studyforge/backend/internal/usage"
)

// codeCharset omits 0/O/1/I so codes survive being read aloud or
// handwritten.
const codeCharset = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const uniqueViolation = "23505"

type Service struct {
	store      *Store
	usage      *usage.Service
	bonusPages int
}

func NewService(store *Store, usageSvc *usage.Service) *Service {
	bonus := 50
	if v := os.Getenv("INVITE_BONUS_PAGES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			bonus = n
		}
	}
	return &Service{store: store, usage: usageSvc, bonusPages: bonus}
}

// ── Creation ────────────────────────────────────────────

// Create mints a new code for the inviter, capped at MaxOutstandingCodes
// redeemable codes at a time. Collisions with existing codes are retried
// with fresh randomness.
func (s *Service) Create(inviterID int64) (*models.InviteCode, error) {
	outstanding, err := s.store.CountOutstanding(inviterID)
	if err != nil {
		return nil, err
	}
	if outstanding >= models.MaxOutstandingCodes {
		return nil, fmt.Errorf("at most %d outstanding codes: %w", models.MaxOutstandingCodes, models.ErrLimitReached)
	}

	for attempt := 0; attempt < 5; attempt++ {
		code, err := generateCode(models.InviteCodeLength)
		if err != nil {
			return nil, fmt.Errorf("generate code: %w", err)
		}

		ic, err := s.store.Insert(inviterID, code, 5)
		if err == nil {
			return ic, nil
		}
		if pqErr, ok := err.(*pq.Error); ok && string(pqErr.Code) == uniqueViolation {
			log.Printf("[invites] code collision on attempt %d, retrying", attempt+1)
			continue
		}
		return nil, fmt.Errorf("insert invite code: %w", err)
	}
	return nil, fmt.Errorf("exhausted code generation attempts")
}

func generateCode(length int) (string, error) {
	max := big.NewInt(int64(len(codeCharset)))
	buf := make([]byte, length)
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		buf[i] = codeCharset[n.Int64()]
	}
	return string(buf), nil
}

// ── Validation ──────────────────────────────────────────

// Validate classifies a code without consuming it. The format check runs
// first so garbage input never touches the store.
func (s *Service) Validate(code string, now time.Time) (models.InviteVerdict, error) {
	if !ValidFormat(code) {
		return models.InviteInvalidFormat, nil
	}

	ic, err := s.store.GetByCode(code)
	if err == models.ErrNotFound {
		return models.InviteNotFound, nil
	}
	if err != nil {
		return "", err
	}

	return Classify(ic, now), nil
}

// ValidFormat reports whether a string even looks like a code: exactly
// InviteCodeLength characters from the unambiguous charset.
func ValidFormat(code string) bool {
	if len(code) != models.InviteCodeLength {
		return false
	}
	for i := 0; i < len(code); i++ {
		found := false
		for j := 0; j < len(codeCharset); j++ {
			if code[i] == codeCharset[j] {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// Classify maps a stored code's state to a verdict. Inactive wins over
// expired, expired over exhausted, matching the order a support agent would
// explain the failure.
func Classify(ic *models.InviteCode, now time.Time) models.InviteVerdict {
	if !ic.Active {
		return models.InviteInactive
	}
	if ic.ExpiresAt != nil && !ic.ExpiresAt.After(now) {
		return models.InviteExpired
	}
	if ic.UseCount >= ic.MaxUses {
		return models.InviteLimitReached
	}
	return models.InviteValid
}

// ── Redemption ──────────────────────────────────────────

// Redeem consumes the code for the user and grants both parties bonus pages
// for the current period.
func (s *Service) Redeem(ctx context.Context, userID int64, code string) (*models.RedeemInviteResponse, error) {
	verdict, err := s.Validate(code, time.Now())
	if err != nil {
		return nil, err
	}
	switch verdict {
	case models.InviteValid:
	case models.InviteNotFound:
		return nil, models.ErrNotFound
	case models.InviteLimitReached:
		return nil, fmt.Errorf("invite code exhausted: %w", models.ErrLimitReached)
	default:
		return nil, fmt.Errorf("invite code is %s: %w", verdict, models.ErrInvalidInput)
	}

	ic, err := s.store.GetByCode(code)
	if err != nil {
		return nil, err
	}
	if ic.InviterID == userID {
		return nil, fmt.Errorf("cannot redeem your own code: %w", models.ErrInvalidInput)
	}

	redeemed, err := s.store.HasRedeemed(ic.ID, userID)
	if err != nil {
		return nil, err
	}
	if redeemed {
		return nil, fmt.Errorf("code already redeemed: %w", models.ErrInvalidInput)
	}

	if err := s.store.Redeem(ctx, ic.ID, userID); err != nil {
		return nil, err
	}

	now := time.Now()
	if err := s.usage.GrantBonus(userID, s.bonusPages, now); err != nil {
		return nil, err
	}
	if err := s.usage.GrantBonus(ic.InviterID, s.bonusPages, now); err != nil {
		// The redeemer already got theirs; log rather than unwind.
		log.Printf("[invites] WARN: failed to grant inviter %d bonus: %v", ic.InviterID, err)
	}

	log.Printf("[invites] user %d redeemed code %s from user %d (+%d pages each)",
		userID, ic.Code, ic.InviterID, s.bonusPages)

	return &models.RedeemInviteResponse{BonusPages: s.bonusPages}, nil
}

func (s *Service) List(inviterID int64) ([]models.InviteCode, error) {
	codes, err := s.store.ListByInviter(inviterID)
	if err != nil {
		return nil, err
	}
	if codes == nil {
		codes = []models.InviteCode{}
	}
	return codes, nil
}
