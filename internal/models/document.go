package models

import "time"

type DocumentStatus string

const (
	DocumentPending    DocumentStatus = "pending"
	DocumentProcessing DocumentStatus = "processing"
	DocumentCompleted  DocumentStatus = "completed"
	DocumentFailed     DocumentStatus = "failed"
)

type Subject struct {
	ID            int64      `json:"id"`
	UserID        int64      `json:"user_id"`
	Name          string     `json:"name"`
	CreatedAt     time.Time  `json:"created_at"`
	LastStudiedAt *time.Time `json:"last_studied_at,omitempty"`
}

type Document struct {
	ID           int64          `json:"id"`
	SubjectID    int64          `json:"subject_id"`
	UserID       int64          `json:"user_id"`
	Title        string         `json:"title"`
	FilePath     string         `json:"-"`
	PageCount    int            `json:"page_count"`
	Status       DocumentStatus `json:"status"`
	ErrorMessage *string        `json:"error_message,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	CompletedAt  *time.Time     `json:"completed_at,omitempty"`
}

// ── Request/Response Types ────────────────────────────────

type CreateSubjectRequest struct {
	Name string `json:"name"`
}

type DocumentListResponse struct {
	Documents []Document `json:"documents"`
	Total     int        `json:"total"`
}

// DocumentStatusResponse is the polling payload while a document's tree and
// quizzes are being generated. Stage comes from the non-durable progress
// cache and may be empty if the entry was evicted.
type DocumentStatusResponse struct {
	DocumentID int64          `json:"document_id"`
	Status     DocumentStatus `json:"status"`
	Stage      string         `json:"stage,omitempty"`
	Error      *string        `json:"error,omitempty"`
}
