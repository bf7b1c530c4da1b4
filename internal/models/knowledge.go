package models

import "time"

// NodeStatus is the per-user mastery state of a knowledge node. It is
// mutated only by quiz submission and created lazily on first interaction.
type NodeStatus string

const (
	StatusUnknown  NodeStatus = "unknown"
	StatusLearning NodeStatus = "learning"
	StatusKnown    NodeStatus = "known"
)

var ValidNodeStatuses = map[NodeStatus]bool{
	StatusUnknown:  true,
	StatusLearning: true,
	StatusKnown:    true,
}

// KnowledgeNode is one concept unit extracted from a document. Nodes form a
// forest at most 3 levels deep: level equals the parent's level + 1, roots
// are level 0.
type KnowledgeNode struct {
	ID            int64      `json:"id"`
	DocumentID    int64      `json:"document_id"`
	ParentID      *int64     `json:"parent_id,omitempty"`
	Name          string     `json:"name"`
	Description   string     `json:"description"`
	Level         int        `json:"level"`
	Prerequisites []string   `json:"prerequisites"`
	Status        NodeStatus `json:"status"`
	CreatedAt     time.Time  `json:"created_at"`
}

// RawNode is the AI-supplied node shape before ingestion. IDs here are
// transient ("node_1", "node_2", ...) and are replaced with database
// identifiers on persist.
type RawNode struct {
	ID            string   `json:"id"`
	ParentID      *string  `json:"parent_id"`
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	Level         int      `json:"level"`
	Prerequisites []string `json:"prerequisites"`
}

type UserKnowledgeStatus struct {
	ID        int64      `json:"id"`
	UserID    int64      `json:"user_id"`
	NodeID    int64      `json:"node_id"`
	Status    NodeStatus `json:"status"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// ── Progress / Recommendation Types ───────────────────────

type DocumentProgressResponse struct {
	DocumentID int64 `json:"document_id"`
	TotalNodes int   `json:"total_nodes"`
	KnownNodes int   `json:"known_nodes"`
	Progress   int   `json:"progress"`
}

type SubjectProgressResponse struct {
	SubjectID int64                      `json:"subject_id"`
	Progress  int                        `json:"progress"`
	Documents []DocumentProgressResponse `json:"documents"`
}

// SubjectProgress is the selector input: one subject with its computed
// completion percentage and last activity time.
type SubjectProgress struct {
	SubjectID     int64     `json:"subject_id"`
	Name          string    `json:"name"`
	Progress      int       `json:"progress"`
	LastStudiedAt time.Time `json:"last_studied_at"`
}

type RecommendationResponse struct {
	Recommended *SubjectProgress  `json:"recommended"`
	Subjects    []SubjectProgress `json:"subjects"`
}

type TreeResponse struct {
	DocumentID int64           `json:"document_id"`
	Nodes      []KnowledgeNode `json:"nodes"`
}
