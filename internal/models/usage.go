package models

import "time"

// UsageCounter tracks pages uploaded per user per billing period. Period is
// a "YYYY-MM" month key. The row is created lazily with the limit in effect
// at creation time and incremented with a single conditional update.
type UsageCounter struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Period    string    `json:"period"`
	PagesUsed int       `json:"pages_used"`
	PageLimit int       `json:"page_limit"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UsageResult is the outcome of a check-and-increment. CurrentCount reflects
// the counter after a successful increment, or the unchanged value when the
// request was rejected.
type UsageResult struct {
	Allowed      bool `json:"allowed"`
	CurrentCount int  `json:"current_count"`
	LimitCount   int  `json:"limit_count"`
}
