package models

import "errors"

// Sentinel errors for the core error taxonomy. Services wrap these with
// fmt.Errorf("...: %w", ...) and handlers map them to HTTP statuses with
// errors.Is.
var (
	// ErrMalformedTree means an AI node batch failed structural validation
	// (unresolvable parent, inconsistent level, or cycle). The whole batch
	// is rejected and any prior tree is left untouched.
	ErrMalformedTree = errors.New("malformed knowledge tree")

	// ErrUnverifiedItem marks a generated quiz item with no source quote.
	// Such items are dropped from the batch rather than persisted silently.
	ErrUnverifiedItem = errors.New("unverified quiz item")

	// ErrLimitReached covers usage quotas and invite-code caps. User-visible,
	// not retryable.
	ErrLimitReached = errors.New("limit reached")

	// ErrInvalidInput means a bad request shape. Fails fast, no state change.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUpstreamFailure wraps AI/storage/billing provider errors. Surfaced
	// as retryable; the core performs no automatic retry beyond the bounded
	// attempts inside the generator client.
	ErrUpstreamFailure = errors.New("upstream failure")

	ErrNotFound  = errors.New("not found")
	ErrForbidden = errors.New("forbidden")
)

type ErrorResponse struct {
	Error string `json:"error"`
}
