package generator

import (
	"context"
	"strings"
	"testing"

	"github.com/studyforge/backend/internal/models"
)

func TestParseTreeResponse(t *testing.T) {
	valid := `{"nodes":[
		{"id":"node_1","parent_id":null,"name":"Roots","description":"Top level.","level":0,"prerequisites":[]},
		{"id":"node_2","parent_id":"node_1","name":"Branch","description":"Child.","level":1,"prerequisites":["Roots"]}
	]}`

	nodes, err := ParseTreeResponse(valid)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(nodes) != 2 {
		t.Fatalf("expected 2 nodes, got %d", len(nodes))
	}
	if nodes[0].ParentID != nil {
		t.Errorf("expected nil parent for node_1, got %v", *nodes[0].ParentID)
	}
	if nodes[1].ParentID == nil || *nodes[1].ParentID != "node_1" {
		t.Errorf("expected node_2 parent node_1")
	}
}

func TestParseTreeResponseStripsFences(t *testing.T) {
	fenced := "```json\n{\"nodes\":[{\"id\":\"node_1\",\"parent_id\":null,\"name\":\"A\",\"description\":\"\",\"level\":0,\"prerequisites\":[]}]}\n```"

	nodes, err := ParseTreeResponse(fenced)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(nodes) != 1 {
		t.Fatalf("expected 1 node, got %d", len(nodes))
	}
}

func TestParseTreeResponseRejects(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"not json", "nope", "failed to parse JSON"},
		{"empty nodes", `{"nodes":[]}`, "no nodes"},
		{"missing id", `{"nodes":[{"id":"","parent_id":null,"name":"A","level":0}]}`, "empty id"},
		{"missing name", `{"nodes":[{"id":"node_1","parent_id":null,"name":"  ","level":0}]}`, "empty name"},
		{"level too deep", `{"nodes":[{"id":"node_1","parent_id":null,"name":"A","level":3}]}`, "outside range"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseTreeResponse(tt.body)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestParseQuizResponse(t *testing.T) {
	valid := `{"items":[
		{"node_id":12,"question_type":"multiple_choice","question":"Q?","options":["a","b","c","d"],"correct_answer":"b","explanation":"because","source_quote":"quoted"},
		{"node_id":13,"question_type":"true_false","question":"Q2?","options":["true","false"],"correct_answer":"false","explanation":"because","source_quote":""}
	]}`

	items, err := ParseQuizResponse(valid)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	// Empty source_quote passes the parser; the service decides what to drop.
	if items[1].SourceQuote != "" {
		t.Errorf("expected empty source_quote to survive parsing")
	}
}

func TestParseQuizResponseRejects(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"empty items", `{"items":[]}`, "no items"},
		{"missing node", `{"items":[{"node_id":0,"question_type":"multiple_choice","question":"Q?","options":["a","b","c","d"],"correct_answer":"a","explanation":"e","source_quote":"s"}]}`, "missing node_id"},
		{"wrong option count", `{"items":[{"node_id":1,"question_type":"multiple_choice","question":"Q?","options":["a","b"],"correct_answer":"a","explanation":"e","source_quote":"s"}]}`, "expected 4 options"},
		{"bad tf options", `{"items":[{"node_id":1,"question_type":"true_false","question":"Q?","options":["yes","no"],"correct_answer":"yes","explanation":"e","source_quote":"s"}]}`, "true_false options"},
		{"answer not an option", `{"items":[{"node_id":1,"question_type":"multiple_choice","question":"Q?","options":["a","b","c","d"],"correct_answer":"z","explanation":"e","source_quote":"s"}]}`, "not among options"},
		{"unknown type", `{"items":[{"node_id":1,"question_type":"essay","question":"Q?","options":[],"correct_answer":"","explanation":"e","source_quote":"s"}]}`, "invalid question_type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseQuizResponse(tt.body)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestMockClientQuizEchoesNodeIDs(t *testing.T) {
	nodes := []models.KnowledgeNode{
		{ID: 41, Name: "Alpha", Level: 0},
		{ID: 42, Name: "Beta", Level: 1},
	}
	prompt := BuildQuizUserPrompt(nodes, models.QuizAssessment, 1)

	resp, err := NewMockClient().Generate(context.Background(), QuizSystemPrompt(), prompt, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	items, err := ParseQuizResponse(resp.Content)
	if err != nil {
		t.Fatalf("mock output failed parsing: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].NodeID != 41 || items[1].NodeID != 42 {
		t.Errorf("expected node IDs 41 and 42, got %d and %d", items[0].NodeID, items[1].NodeID)
	}
}

func TestMockClientTreeOutputParses(t *testing.T) {
	resp, err := NewMockClient().Generate(context.Background(), TreeSystemPrompt(), BuildTreeUserPrompt("Sample"), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	nodes, err := ParseTreeResponse(resp.Content)
	if err != nil {
		t.Fatalf("mock output failed parsing: %v", err)
	}
	if len(nodes) == 0 {
		t.Fatal("expected mock nodes")
	}
}
