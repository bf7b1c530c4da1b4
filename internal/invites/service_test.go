package invites

import (
	"strings"
	"testing"
	"time"

	"github.com/studyforge/backend/internal/models"
)

func TestValidFormat(t *testing.T) {
	tests := []struct {
		name string
		code string
		want bool
	}{
		{"valid code", "ABCD2345", true},
		{"too short", "ABCD234", false},
		{"too long", "ABCD23456", false},
		{"lowercase rejected", "abcd2345", false},
		{"ambiguous zero rejected", "ABCD2340", false},
		{"ambiguous O rejected", "ABCDO345", false},
		{"ambiguous one rejected", "ABCD2341", false},
		{"ambiguous I rejected", "ABCDI345", false},
		{"punctuation rejected", "ABCD-345", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidFormat(tt.code); got != tt.want {
				t.Errorf("ValidFormat(%q) = %v, want %v", tt.code, got, tt.want)
			}
		})
	}
}

func TestGenerateCode(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		code, err := generateCode(models.InviteCodeLength)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !ValidFormat(code) {
			t.Fatalf("generated code %q fails its own format check", code)
		}
		for _, c := range code {
			if !strings.ContainsRune(codeCharset, c) {
				t.Fatalf("code %q contains %q outside charset", code, c)
			}
		}
		seen[code] = true
	}
	// 50 draws from 32^8 colliding would point at broken randomness.
	if len(seen) < 50 {
		t.Errorf("expected 50 distinct codes, got %d", len(seen))
	}
}

func TestClassify(t *testing.T) {
	now := time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	tests := []struct {
		name string
		code models.InviteCode
		want models.InviteVerdict
	}{
		{"fresh code", models.InviteCode{Active: true, MaxUses: 5}, models.InviteValid},
		{"deactivated", models.InviteCode{Active: false, MaxUses: 5}, models.InviteInactive},
		{"expired", models.InviteCode{Active: true, MaxUses: 5, ExpiresAt: &past}, models.InviteExpired},
		{"not yet expired", models.InviteCode{Active: true, MaxUses: 5, ExpiresAt: &future}, models.InviteValid},
		{"exhausted", models.InviteCode{Active: true, MaxUses: 5, UseCount: 5}, models.InviteLimitReached},
		{"inactive wins over expired", models.InviteCode{Active: false, MaxUses: 5, ExpiresAt: &past}, models.InviteInactive},
		{"expired wins over exhausted", models.InviteCode{Active: true, MaxUses: 5, UseCount: 5, ExpiresAt: &past}, models.InviteExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(&tt.code, now); got != tt.want {
				t.Errorf("Classify() = %q, want %q", got, tt.want)
			}
		})
	}
}
