package knowledge

import (
	"errors"
	"testing"

	"github.com/studyforge/backend/internal/models"
)

func strPtr(s string) *string { return &s }

func TestOrderForest(t *testing.T) {
	raw := []models.RawNode{
		{ID: "node_3", ParentID: strPtr("node_2"), Name: "Leaf", Level: 2},
		{ID: "node_1", ParentID: nil, Name: "Root", Level: 0},
		{ID: "node_2", ParentID: strPtr("node_1"), Name: "Mid", Level: 1},
		{ID: "node_4", ParentID: nil, Name: "Second Root", Level: 0},
	}

	ordered, err := OrderForest(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ordered) != 4 {
		t.Fatalf("expected 4 nodes, got %d", len(ordered))
	}

	// Parents must come before children.
	pos := make(map[string]int)
	for i, n := range ordered {
		pos[n.ID] = i
	}
	if pos["node_1"] > pos["node_2"] || pos["node_2"] > pos["node_3"] {
		t.Errorf("nodes out of insert order: %v", ordered)
	}
}

func TestOrderForestRejects(t *testing.T) {
	tests := []struct {
		name string
		raw  []models.RawNode
	}{
		{"empty batch", nil},
		{"duplicate id", []models.RawNode{
			{ID: "node_1", Level: 0},
			{ID: "node_1", Level: 0},
		}},
		{"unresolved parent", []models.RawNode{
			{ID: "node_1", ParentID: strPtr("node_9"), Level: 1},
		}},
		{"root with nonzero level", []models.RawNode{
			{ID: "node_1", Level: 1},
		}},
		{"child skips a level", []models.RawNode{
			{ID: "node_1", Level: 0},
			{ID: "node_2", ParentID: strPtr("node_1"), Level: 2},
		}},
		{"level too deep", []models.RawNode{
			{ID: "node_1", Level: 0},
			{ID: "node_2", ParentID: strPtr("node_1"), Level: 1},
			{ID: "node_3", ParentID: strPtr("node_2"), Level: 2},
			{ID: "node_4", ParentID: strPtr("node_3"), Level: 3},
		}},
		{"self parent", []models.RawNode{
			{ID: "node_1", ParentID: strPtr("node_1"), Level: 1},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := OrderForest(tt.raw)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !errors.Is(err, models.ErrMalformedTree) {
				t.Errorf("expected ErrMalformedTree, got %v", err)
			}
		})
	}
}
