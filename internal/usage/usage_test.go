package usage

import (
	"errors"
	"testing"
	"time"

	"github.com/studyforge/backend/internal/models"
)

func TestPeriodKey(t *testing.T) {
	tests := []struct {
		name string
		in   time.Time
		want string
	}{
		{"mid month", time.Date(2026, 8, 14, 9, 30, 0, 0, time.UTC), "2026-08"},
		{"single digit month", time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), "2026-01"},
		{"normalizes to UTC", time.Date(2026, 9, 1, 2, 0, 0, 0, time.FixedZone("early", 3*3600)), "2026-08"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PeriodKey(tt.in); got != tt.want {
				t.Errorf("PeriodKey(%v) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

type fakeSubs struct{ pro bool }

func (f fakeSubs) HasActivePro(userID int64) (bool, error) { return f.pro, nil }

func TestCheckAndIncrementRejectsNonPositivePages(t *testing.T) {
	// The store is never reached, so a nil store is safe here.
	svc := NewService(nil, fakeSubs{})

	for _, pages := range []int{0, -3} {
		_, err := svc.CheckAndIncrement(7, pages, time.Now())
		if !errors.Is(err, models.ErrInvalidInput) {
			t.Errorf("pages=%d: expected ErrInvalidInput, got %v", pages, err)
		}
	}
}

func TestLimitFor(t *testing.T) {
	starter := NewService(nil, fakeSubs{pro: false})
	if limit, _ := starter.limitFor(1); limit != 100 {
		t.Errorf("starter limit = %d, want 100", limit)
	}

	pro := NewService(nil, fakeSubs{pro: true})
	if limit, _ := pro.limitFor(1); limit != 1000 {
		t.Errorf("pro limit = %d, want 1000", limit)
	}
}
