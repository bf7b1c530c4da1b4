package models

import "time"

// Subscription mirrors the billing provider's state for one subscription.
// "Active" is computed from these fields, never stored; see billing.HasActivePro.
type Subscription struct {
	ID                 int64      `json:"id"`
	UserID             int64      `json:"user_id"`
	ProviderSubID      string     `json:"provider_subscription_id"`
	Status             string     `json:"status"`
	CurrentPeriodEnd   *time.Time `json:"current_period_end,omitempty"`
	CancelAtPeriodEnd  bool       `json:"cancel_at_period_end"`
	CanceledAt         *time.Time `json:"canceled_at,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

type CheckoutRequest struct {
	ProductID  string `json:"product_id"`
	SuccessURL string `json:"success_url"`
}

type CheckoutResponse struct {
	URL string `json:"url"`
}

// WebhookEvent is the provider's subscription-change notification payload.
type WebhookEvent struct {
	Type string              `json:"type"`
	Data WebhookSubscription `json:"data"`
}

type WebhookSubscription struct {
	SubscriptionID     string     `json:"subscription_id"`
	ExternalCustomerID string     `json:"external_customer_id"`
	Status             string     `json:"status"`
	CurrentPeriodEnd   *time.Time `json:"current_period_end"`
	CancelAtPeriodEnd  bool       `json:"cancel_at_period_end"`
	CanceledAt         *time.Time `json:"canceled_at"`
}

type SubscriptionResponse struct {
	Active        bool           `json:"active"`
	Subscriptions []Subscription `json:"subscriptions"`
}
