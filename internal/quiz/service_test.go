package quiz

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"

	"github.com/studyforge/backend/internal/models"
)

func TestFilterItems(t *testing.T) {
	allowed := map[int64]bool{1: true, 2: true}

	items := []models.RawQuizItem{
		{NodeID: 1, SourceQuote: "quoted text"},
		{NodeID: 1, SourceQuote: "   "}, // unverified
		{NodeID: 2, SourceQuote: "more text"},
		{NodeID: 9, SourceQuote: "wrong node"},
	}

	kept, dropped := FilterItems(items, allowed, false)
	if len(kept) != 2 {
		t.Fatalf("expected 2 kept, got %d", len(kept))
	}
	if dropped != 2 {
		t.Errorf("expected 2 dropped, got %d", dropped)
	}
	if kept[0].NodeID != 1 || kept[1].NodeID != 2 {
		t.Errorf("kept wrong items: %+v", kept)
	}
}

func TestFilterItemsOnePerNode(t *testing.T) {
	allowed := map[int64]bool{1: true}

	items := []models.RawQuizItem{
		{NodeID: 1, SourceQuote: "first", Question: "a"},
		{NodeID: 1, SourceQuote: "second", Question: "b"},
	}

	kept, dropped := FilterItems(items, allowed, true)
	if len(kept) != 1 || dropped != 1 {
		t.Fatalf("expected (1 kept, 1 dropped), got (%d, %d)", len(kept), dropped)
	}
	if kept[0].Question != "a" {
		t.Errorf("expected first item to win, got %q", kept[0].Question)
	}
}

func TestFilterItemsAllDropped(t *testing.T) {
	kept, dropped := FilterItems([]models.RawQuizItem{
		{NodeID: 1, SourceQuote: ""},
	}, map[int64]bool{1: true}, false)
	if kept != nil || dropped != 1 {
		t.Errorf("expected everything dropped, got kept=%v dropped=%d", kept, dropped)
	}
}

func TestAnswerCorrect(t *testing.T) {
	mc := &models.QuizItem{QuestionType: models.QuestionMultipleChoice, CorrectAnswer: "Mitochondria"}
	tf := &models.QuizItem{QuestionType: models.QuestionTrueFalse, CorrectAnswer: "true"}

	tests := []struct {
		name   string
		item   *models.QuizItem
		answer string
		want   bool
	}{
		{"exact match", mc, "Mitochondria", true},
		{"surrounding space trimmed", mc, "  Mitochondria ", true},
		{"case matters for choices", mc, "mitochondria", false},
		{"wrong choice", mc, "Ribosome", false},
		{"true_false case-insensitive", tf, "True", true},
		{"true_false wrong", tf, "false", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := answerCorrect(tt.item, tt.answer); got != tt.want {
				t.Errorf("answerCorrect(%q) = %v, want %v", tt.answer, got, tt.want)
			}
		})
	}
}

// ── Delete ordering ─────────────────────────────────────

type fakeResult struct{ rows int64 }

func (r fakeResult) LastInsertId() (int64, error) { return 0, nil }
func (r fakeResult) RowsAffected() (int64, error) { return r.rows, nil }

type orderedExecer struct {
	queries []string
	rows    int64
}

func (f *orderedExecer) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	f.queries = append(f.queries, query)
	return fakeResult{rows: f.rows}, nil
}

func TestDeleteSetOrder(t *testing.T) {
	ex := &orderedExecer{rows: 1}

	if err := deleteSetItems(context.Background(), ex, 5); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := deleteSetRow(context.Background(), ex, 5); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(ex.queries) != 2 {
		t.Fatalf("expected 2 statements, got %d", len(ex.queries))
	}
	if !strings.Contains(ex.queries[0], "quiz_items") {
		t.Errorf("items must be deleted first, got %q", ex.queries[0])
	}
	if !strings.Contains(ex.queries[1], "quiz_sets") {
		t.Errorf("set must be deleted second, got %q", ex.queries[1])
	}
}

func TestDeleteSetRowMissing(t *testing.T) {
	ex := &orderedExecer{rows: 0}
	err := deleteSetRow(context.Background(), ex, 99)
	if !errors.Is(err, models.ErrNotFound) {
		t.Errorf("expected ErrNotFound for missing set, got %v", err)
	}
}
