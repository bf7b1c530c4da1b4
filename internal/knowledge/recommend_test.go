package knowledge

import (
	"testing"
	"time"

	"github.com/studyforge/backend/internal/models"
)

func TestSelectRecommendation(t *testing.T) {
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		subjects []models.SubjectProgress
		wantID   int64
		wantNil  bool
	}{
		{
			name:    "no subjects",
			wantNil: true,
		},
		{
			name: "lowest progress wins",
			subjects: []models.SubjectProgress{
				{SubjectID: 1, Progress: 60},
				{SubjectID: 2, Progress: 20},
				{SubjectID: 3, Progress: 90},
			},
			wantID: 2,
		},
		{
			name: "tie keeps input order",
			subjects: []models.SubjectProgress{
				{SubjectID: 1, Progress: 40},
				{SubjectID: 2, Progress: 40},
			},
			wantID: 1,
		},
		{
			name: "finished subjects skipped",
			subjects: []models.SubjectProgress{
				{SubjectID: 1, Progress: 100},
				{SubjectID: 2, Progress: 95},
			},
			wantID: 2,
		},
		{
			name: "all mastered picks most recent",
			subjects: []models.SubjectProgress{
				{SubjectID: 1, Progress: 100, LastStudiedAt: base},
				{SubjectID: 2, Progress: 100, LastStudiedAt: base.Add(48 * time.Hour)},
				{SubjectID: 3, Progress: 100, LastStudiedAt: base.Add(24 * time.Hour)},
			},
			wantID: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SelectRecommendation(tt.subjects)
			if tt.wantNil {
				if got != nil {
					t.Fatalf("expected nil, got subject %d", got.SubjectID)
				}
				return
			}
			if got == nil {
				t.Fatal("expected a recommendation, got nil")
			}
			if got.SubjectID != tt.wantID {
				t.Errorf("recommended subject %d, want %d", got.SubjectID, tt.wantID)
			}
		})
	}
}
