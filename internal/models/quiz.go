package models

import "time"

type QuizSetKind string

const (
	// QuizAssessment is the diagnostic phase: one item per node, used to
	// establish initial mastery.
	QuizAssessment QuizSetKind = "assessment"
	// QuizPractice is the review phase: a variable number of items targeting
	// nodes still unknown.
	QuizPractice QuizSetKind = "practice"
)

type QuestionType string

const (
	QuestionMultipleChoice QuestionType = "multiple_choice"
	QuestionTrueFalse      QuestionType = "true_false"
)

var ValidQuestionTypes = map[QuestionType]bool{
	QuestionMultipleChoice: true,
	QuestionTrueFalse:      true,
}

type QuizSet struct {
	ID         int64       `json:"id"`
	DocumentID int64       `json:"document_id"`
	Kind       QuizSetKind `json:"kind"`
	ItemCount  int         `json:"item_count"`
	CreatedAt  time.Time   `json:"created_at"`
}

type QuizItem struct {
	ID            int64        `json:"id"`
	QuizSetID     int64        `json:"quiz_set_id"`
	DocumentID    int64        `json:"document_id"`
	NodeID        *int64       `json:"node_id,omitempty"`
	QuestionType  QuestionType `json:"question_type"`
	Question      string       `json:"question"`
	Options       []string     `json:"options"`
	CorrectAnswer string       `json:"correct_answer"`
	Explanation   string       `json:"explanation"`
	SourceQuote   string       `json:"source_quote"`
	IsAssessment  bool         `json:"is_assessment"`
	CreatedAt     time.Time    `json:"created_at"`
}

// RawQuizItem is the AI-supplied item shape. NodeID refers to a persisted
// knowledge node of the same document.
type RawQuizItem struct {
	NodeID        int64        `json:"node_id"`
	QuestionType  QuestionType `json:"question_type"`
	Question      string       `json:"question"`
	Options       []string     `json:"options"`
	CorrectAnswer string       `json:"correct_answer"`
	Explanation   string       `json:"explanation"`
	SourceQuote   string       `json:"source_quote"`
}

// ── Serving Types (strip answers) ─────────────────────────

type ServedQuizItem struct {
	ID           int64        `json:"id"`
	NodeID       *int64       `json:"node_id,omitempty"`
	QuestionType QuestionType `json:"question_type"`
	Question     string       `json:"question"`
	Options      []string     `json:"options"`
	IsAssessment bool         `json:"is_assessment"`
}

type QuizSetResponse struct {
	Set   QuizSet          `json:"set"`
	Items []ServedQuizItem `json:"items"`
}

// ── Request/Response Types ────────────────────────────────

type GenerateQuizRequest struct {
	TargetNodeIDs []int64 `json:"target_node_ids,omitempty"`
	Count         int     `json:"count,omitempty"`
}

type GenerateQuizResponse struct {
	QuizSetID    int64 `json:"quiz_set_id"`
	ItemsSaved   int   `json:"items_saved"`
	ItemsDropped int   `json:"items_dropped"`
}

type SubmitAnswerRequest struct {
	Answer string `json:"answer"`
}

type SubmitAnswerResponse struct {
	Correct          bool       `json:"correct"`
	CorrectAnswer    string     `json:"correct_answer"`
	Explanation      string     `json:"explanation"`
	SourceQuote      string     `json:"source_quote"`
	NodeStatus       NodeStatus `json:"node_status,omitempty"`
	DocumentProgress int        `json:"document_progress"`
}
