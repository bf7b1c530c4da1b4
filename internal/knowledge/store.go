package knowledge

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
	"github.com/studyforge/backend/internal/models"
)

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// ── Tree Persistence ────────────────────────────────────

// ReplaceTree swaps the document's knowledge tree for the given batch in one
// transaction. Nodes must already be in insert order (parents first); the
// transient IDs are remapped to database IDs as rows come back.
func (s *Store) ReplaceTree(ctx context.Context, documentID int64, ordered []models.RawNode) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin replace tree: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM knowledge_nodes WHERE document_id = $1`, documentID,
	); err != nil {
		return 0, fmt.Errorf("clear previous tree: %w", err)
	}

	idMap := make(map[string]int64, len(ordered))
	for _, n := range ordered {
		var parentID *int64
		if n.ParentID != nil {
			dbID, ok := idMap[*n.ParentID]
			if !ok {
				return 0, fmt.Errorf("node %q inserted before parent %q: %w", n.ID, *n.ParentID, models.ErrMalformedTree)
			}
			parentID = &dbID
		}

		prereqs := n.Prerequisites
		if prereqs == nil {
			prereqs = []string{}
		}

		var nodeID int64
		err := tx.QueryRowContext(ctx,
			`INSERT INTO knowledge_nodes (document_id, parent_id, name, description, level, prerequisites)
			 VALUES ($1, $2, $3, $4, $5, $6)
			 RETURNING id`,
			documentID, parentID, n.Name, n.Description, n.Level, pq.Array(prereqs),
		).Scan(&nodeID)
		if err != nil {
			return 0, fmt.Errorf("insert node %q: %w", n.ID, err)
		}
		idMap[n.ID] = nodeID
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit replace tree: %w", err)
	}
	return len(ordered), nil
}

// ── Node Queries ────────────────────────────────────────

const nodeCols = `n.id, n.document_id, n.parent_id, n.name, n.description, n.level, n.prerequisites,
		COALESCE(uks.status, 'unknown'), n.created_at`

// NodesByDocument returns the document's tree with the user's mastery status
// joined in. Nodes the user has never answered read as unknown.
func (s *Store) NodesByDocument(documentID, userID int64) ([]models.KnowledgeNode, error) {
	rows, err := s.db.Query(
		`SELECT `+nodeCols+`
		 FROM knowledge_nodes n
		 LEFT JOIN user_knowledge_status uks ON uks.node_id = n.id AND uks.user_id = $2
		 WHERE n.document_id = $1
		 ORDER BY n.level, n.id`,
		documentID, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("query nodes: %w", err)
	}
	defer rows.Close()

	return scanNodes(rows)
}

// NodesByIDs returns the subset of the document's nodes matching ids. Nodes
// belonging to other documents are silently absent from the result; callers
// compare lengths to detect cross-document references.
func (s *Store) NodesByIDs(documentID int64, ids []int64, userID int64) ([]models.KnowledgeNode, error) {
	rows, err := s.db.Query(
		`SELECT `+nodeCols+`
		 FROM knowledge_nodes n
		 LEFT JOIN user_knowledge_status uks ON uks.node_id = n.id AND uks.user_id = $3
		 WHERE n.document_id = $1 AND n.id = ANY($2)
		 ORDER BY n.level, n.id`,
		documentID, pq.Array(ids), userID,
	)
	if err != nil {
		return nil, fmt.Errorf("query nodes by ids: %w", err)
	}
	defer rows.Close()

	return scanNodes(rows)
}

// NodesMissingAssessment returns the document's nodes that have no assessment
// item yet. Used when generating the initial assessment so regeneration never
// duplicates per-node items.
func (s *Store) NodesMissingAssessment(documentID int64) ([]models.KnowledgeNode, error) {
	rows, err := s.db.Query(
		`SELECT `+nodeCols+`
		 FROM knowledge_nodes n
		 LEFT JOIN user_knowledge_status uks ON FALSE
		 WHERE n.document_id = $1
		   AND NOT EXISTS (
		       SELECT 1 FROM quiz_items qi
		       WHERE qi.node_id = n.id AND qi.is_assessment
		   )
		 ORDER BY n.level, n.id`,
		documentID,
	)
	if err != nil {
		return nil, fmt.Errorf("query unassessed nodes: %w", err)
	}
	defer rows.Close()

	return scanNodes(rows)
}

func scanNodes(rows *sql.Rows) ([]models.KnowledgeNode, error) {
	var nodes []models.KnowledgeNode
	for rows.Next() {
		var n models.KnowledgeNode
		if err := rows.Scan(&n.ID, &n.DocumentID, &n.ParentID, &n.Name, &n.Description,
			&n.Level, pq.Array(&n.Prerequisites), &n.Status, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan node: %w", err)
		}
		nodes = append(nodes, n)
	}
	return nodes, rows.Err()
}

// ── Mastery Status ──────────────────────────────────────

// UpsertStatus records the user's mastery of a node, creating the row lazily
// on first interaction.
func (s *Store) UpsertStatus(userID, nodeID int64, status models.NodeStatus) error {
	_, err := s.db.Exec(
		`INSERT INTO user_knowledge_status (user_id, node_id, status, updated_at)
		 VALUES ($1, $2, $3, NOW())
		 ON CONFLICT (user_id, node_id)
		 DO UPDATE SET status = EXCLUDED.status, updated_at = NOW()`,
		userID, nodeID, status,
	)
	if err != nil {
		return fmt.Errorf("upsert node status: %w", err)
	}
	return nil
}

// NodeCounts returns the document's node total and how many the user has
// mastered.
func (s *Store) NodeCounts(documentID, userID int64) (total, known int, err error) {
	err = s.db.QueryRow(
		`SELECT COUNT(*),
		        COUNT(*) FILTER (WHERE uks.status = 'known')
		 FROM knowledge_nodes n
		 LEFT JOIN user_knowledge_status uks ON uks.node_id = n.id AND uks.user_id = $2
		 WHERE n.document_id = $1`,
		documentID, userID,
	).Scan(&total, &known)
	if err != nil {
		return 0, 0, fmt.Errorf("count node statuses: %w", err)
	}
	return total, known, nil
}

// ── Ownership / Aggregation Reads ───────────────────────

// DocumentForUser loads a document and enforces ownership.
func (s *Store) DocumentForUser(documentID, userID int64) (*models.Document, error) {
	var d models.Document
	err := s.db.QueryRow(
		`SELECT id, subject_id, user_id, title, file_path, page_count, status, error_message, created_at, completed_at
		 FROM documents WHERE id = $1`,
		documentID,
	).Scan(&d.ID, &d.SubjectID, &d.UserID, &d.Title, &d.FilePath, &d.PageCount, &d.Status,
		&d.ErrorMessage, &d.CreatedAt, &d.CompletedAt)
	if err == sql.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}
	if d.UserID != userID {
		return nil, models.ErrForbidden
	}
	return &d, nil
}

// SubjectForUser loads a subject and enforces ownership.
func (s *Store) SubjectForUser(subjectID, userID int64) (*models.Subject, error) {
	var sub models.Subject
	err := s.db.QueryRow(
		`SELECT id, user_id, name, created_at, last_studied_at
		 FROM subjects WHERE id = $1`,
		subjectID,
	).Scan(&sub.ID, &sub.UserID, &sub.Name, &sub.CreatedAt, &sub.LastStudiedAt)
	if err == sql.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get subject: %w", err)
	}
	if sub.UserID != userID {
		return nil, models.ErrForbidden
	}
	return &sub, nil
}

// SubjectsForUser lists the user's subjects, oldest first.
func (s *Store) SubjectsForUser(userID int64) ([]models.Subject, error) {
	rows, err := s.db.Query(
		`SELECT id, user_id, name, created_at, last_studied_at
		 FROM subjects WHERE user_id = $1 ORDER BY created_at`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("query subjects: %w", err)
	}
	defer rows.Close()

	var subjects []models.Subject
	for rows.Next() {
		var sub models.Subject
		if err := rows.Scan(&sub.ID, &sub.UserID, &sub.Name, &sub.CreatedAt, &sub.LastStudiedAt); err != nil {
			return nil, fmt.Errorf("scan subject: %w", err)
		}
		subjects = append(subjects, sub)
	}
	return subjects, rows.Err()
}

// CompletedDocumentIDs lists the subject's documents that finished
// processing. Progress math only counts documents that actually have trees.
func (s *Store) CompletedDocumentIDs(subjectID int64) ([]int64, error) {
	rows, err := s.db.Query(
		`SELECT id FROM documents WHERE subject_id = $1 AND status = 'completed' ORDER BY id`,
		subjectID,
	)
	if err != nil {
		return nil, fmt.Errorf("query completed documents: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan document id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
