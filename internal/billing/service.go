package billing

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/studyforge/backend/internal/models"
)

type Service struct {
	store         *Store
	provider      Provider
	webhookSecret []byte
}

func NewService(store *Store, provider Provider) *Service {
	return &Service{
		store:         store,
		provider:      provider,
		webhookSecret: []byte(os.Getenv("BILLING_WEBHOOK_SECRET")),
	}
}

// HasActivePro satisfies the usage package's SubscriptionSource.
func (s *Service) HasActivePro(userID int64) (bool, error) {
	subs, err := s.store.ListForUser(userID)
	if err != nil {
		return false, err
	}
	return HasActivePro(subs, time.Now()), nil
}

// CreateCheckout opens a hosted checkout session. The user ID rides along as
// the external customer ID so the webhook can attribute the subscription.
func (s *Service) CreateCheckout(ctx context.Context, userID int64, req models.CheckoutRequest) (*models.CheckoutResponse, error) {
	if req.ProductID == "" {
		return nil, fmt.Errorf("product_id is required: %w", models.ErrInvalidInput)
	}

	url, err := s.provider.CreateCheckout(ctx, req.ProductID, strconv.FormatInt(userID, 10), req.SuccessURL)
	if err != nil {
		return nil, err
	}
	return &models.CheckoutResponse{URL: url}, nil
}

func (s *Service) Subscriptions(userID int64) (*models.SubscriptionResponse, error) {
	subs, err := s.store.ListForUser(userID)
	if err != nil {
		return nil, err
	}
	if subs == nil {
		subs = []models.Subscription{}
	}
	return &models.SubscriptionResponse{
		Active:        HasActivePro(subs, time.Now()),
		Subscriptions: subs,
	}, nil
}

// HandleWebhook verifies the processor's signature and folds the event into
// the subscriptions table. Unknown event types are acknowledged and ignored
// so the processor does not retry them forever.
func (s *Service) HandleWebhook(payload []byte, signature string) error {
	if !s.VerifySignature(payload, signature) {
		return fmt.Errorf("webhook signature mismatch: %w", models.ErrForbidden)
	}

	var event models.WebhookEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return fmt.Errorf("decode webhook payload: %w", models.ErrInvalidInput)
	}

	switch event.Type {
	case "subscription.created", "subscription.updated", "subscription.canceled":
	default:
		log.Printf("[billing] ignoring webhook event type %q", event.Type)
		return nil
	}

	userID, err := strconv.ParseInt(event.Data.ExternalCustomerID, 10, 64)
	if err != nil {
		return fmt.Errorf("webhook external_customer_id %q: %w", event.Data.ExternalCustomerID, models.ErrInvalidInput)
	}

	sub := models.Subscription{
		UserID:            userID,
		ProviderSubID:     event.Data.SubscriptionID,
		Status:            event.Data.Status,
		CurrentPeriodEnd:  event.Data.CurrentPeriodEnd,
		CancelAtPeriodEnd: event.Data.CancelAtPeriodEnd,
		CanceledAt:        event.Data.CanceledAt,
	}
	if sub.ProviderSubID == "" {
		return fmt.Errorf("webhook missing subscription_id: %w", models.ErrInvalidInput)
	}

	if err := s.store.Upsert(sub); err != nil {
		return err
	}

	log.Printf("[billing] %s: subscription %s for user %d is %s",
		event.Type, sub.ProviderSubID, userID, sub.Status)
	return nil
}

// VerifySignature checks the hex-encoded HMAC-SHA256 the processor sends in
// X-Signature.
func (s *Service) VerifySignature(payload []byte, signature string) bool {
	if len(s.webhookSecret) == 0 {
		log.Println("[billing] WARN: BILLING_WEBHOOK_SECRET not set, rejecting webhook")
		return false
	}

	mac := hmac.New(sha256.New, s.webhookSecret)
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
