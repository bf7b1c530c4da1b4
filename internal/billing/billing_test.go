package billing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"
	"time"

	"github.com/studyforge/backend/internal/models"
)

func timePtr(t time.Time) *time.Time { return &t }

func TestHasActivePro(t *testing.T) {
	now := time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		subs []models.Subscription
		want bool
	}{
		{"no subscriptions", nil, false},
		{
			"active with future period end",
			[]models.Subscription{{Status: "active", CurrentPeriodEnd: timePtr(now.Add(time.Hour))}},
			true,
		},
		{
			"active with expired period end",
			[]models.Subscription{{Status: "active", CurrentPeriodEnd: timePtr(now.Add(-time.Hour))}},
			false,
		},
		{
			"active without period end",
			[]models.Subscription{{Status: "active"}},
			true,
		},
		{
			"canceling at period end",
			[]models.Subscription{{Status: "active", CancelAtPeriodEnd: true, CurrentPeriodEnd: timePtr(now.Add(time.Hour))}},
			false,
		},
		{
			"inactive status",
			[]models.Subscription{{Status: "past_due", CurrentPeriodEnd: timePtr(now.Add(time.Hour))}},
			false,
		},
		{
			"one qualifying row among dead ones",
			[]models.Subscription{
				{Status: "canceled"},
				{Status: "active", CurrentPeriodEnd: timePtr(now.Add(time.Hour))},
			},
			true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HasActivePro(tt.subs, now); got != tt.want {
				t.Errorf("HasActivePro() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestVerifySignature(t *testing.T) {
	secret := []byte("test-secret")
	svc := &Service{webhookSecret: secret}

	payload := []byte(`{"type":"subscription.created"}`)
	mac := hmac.New(sha256.New, secret)
	mac.Write(payload)
	good := hex.EncodeToString(mac.Sum(nil))

	if !svc.VerifySignature(payload, good) {
		t.Error("expected valid signature to verify")
	}
	if svc.VerifySignature(payload, "deadbeef") {
		t.Error("expected bogus signature to fail")
	}
	if svc.VerifySignature([]byte("tampered"), good) {
		t.Error("expected tampered payload to fail")
	}

	unconfigured := &Service{}
	if unconfigured.VerifySignature(payload, good) {
		t.Error("expected missing secret to reject everything")
	}
}
