package models

import "time"

// InviteCodeLength is the fixed code length. Malformed input is rejected
// before any store lookup.
const InviteCodeLength = 8

// MaxOutstandingCodes caps how many live codes one user may hold.
const MaxOutstandingCodes = 5

type InviteCode struct {
	ID        int64      `json:"id"`
	Code      string     `json:"code"`
	InviterID int64      `json:"inviter_id"`
	MaxUses   int        `json:"max_uses"`
	UseCount  int        `json:"use_count"`
	Active    bool       `json:"active"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// InviteVerdict classifies a validation outcome.
type InviteVerdict string

const (
	InviteValid         InviteVerdict = "VALID"
	InviteInvalidFormat InviteVerdict = "INVALID_FORMAT"
	InviteNotFound      InviteVerdict = "NOT_FOUND"
	InviteInactive      InviteVerdict = "INACTIVE"
	InviteExpired       InviteVerdict = "EXPIRED"
	InviteLimitReached  InviteVerdict = "LIMIT_REACHED"
)

type ValidateInviteRequest struct {
	Code string `json:"code"`
}

type ValidateInviteResponse struct {
	Valid   bool          `json:"valid"`
	Verdict InviteVerdict `json:"verdict"`
}

type RedeemInviteRequest struct {
	Code string `json:"code"`
}

type RedeemInviteResponse struct {
	BonusPages int `json:"bonus_pages"`
}

type InviteListResponse struct {
	Codes []InviteCode `json:"codes"`
}
