package billing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/studyforge/backend/internal/models"
)

// HasActivePro reports whether any of the user's subscription rows grants
// pro access right now. A row qualifies when its status is active, it is not
// marked to lapse at period end, and the period end (if set) is still in the
// future.
func HasActivePro(subs []models.Subscription, now time.Time) bool {
	for _, sub := range subs {
		if sub.Status != "active" {
			continue
		}
		if sub.CancelAtPeriodEnd {
			continue
		}
		if sub.CurrentPeriodEnd != nil && !sub.CurrentPeriodEnd.After(now) {
			continue
		}
		return true
	}
	return false
}

// ── Checkout Provider ───────────────────────────────────

// Provider creates hosted checkout sessions with the payment processor.
type Provider interface {
	CreateCheckout(ctx context.Context, productID, externalCustomerID, successURL string) (string, error)
}

// HTTPProvider talks to the processor's REST API.
type HTTPProvider struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewHTTPProvider() *HTTPProvider {
	baseURL := os.Getenv("BILLING_API_URL")
	if baseURL == "" {
		baseURL = "https://api.billing.example.com/v1"
	}
	return &HTTPProvider{
		baseURL: baseURL,
		apiKey:  os.Getenv("BILLING_API_KEY"),
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

func (p *HTTPProvider) CreateCheckout(ctx context.Context, productID, externalCustomerID, successURL string) (string, error) {
	body, err := json.Marshal(map[string]string{
		"product_id":           productID,
		"external_customer_id": externalCustomerID,
		"success_url":          successURL,
	})
	if err != nil {
		return "", fmt.Errorf("encode checkout request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/checkouts", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build checkout request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("checkout request: %v: %w", err, models.ErrUpstreamFailure)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("checkout returned %d: %s: %w", resp.StatusCode, raw, models.ErrUpstreamFailure)
	}

	var out struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode checkout response: %w", err)
	}
	if out.URL == "" {
		return "", fmt.Errorf("checkout response missing url: %w", models.ErrUpstreamFailure)
	}
	return out.URL, nil
}

// MockProvider serves local development without processor credentials.
type MockProvider struct{}

func (MockProvider) CreateCheckout(ctx context.Context, productID, externalCustomerID, successURL string) (string, error) {
	return fmt.Sprintf("https://checkout.local/mock?product=%s&customer=%s", productID, externalCustomerID), nil
}
