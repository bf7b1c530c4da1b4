package quiz

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

// ── Set Persistence ─────────────────────────────────────

// SaveSet writes a quiz set and its items in one transaction.
func (s *Store) SaveSet(ctx context.Context, documentID int64, kind models.QuizSetKind, items []models.RawQuizItem) (*models.QuizSet, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin save set: %w", err)
	}
	defer tx.Rollback()

	var set models.QuizSet
	err = tx.QueryRowContext(ctx,
		`INSERT INTO quiz_sets (document_id, kind)
		 VALUES ($1, $2)
		 RETURNING id, document_id, kind, created_at`,
		documentID, kind,
	).Scan(&set.ID, &set.DocumentID, &set.Kind, &set.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert quiz set: %w", err)
	}

	isAssessment := kind == models.QuizAssessment
	for _, item := range items {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO quiz_items
			     (quiz_set_id, document_id, node_id, question_type, question,
			      options, correct_answer, explanation, source_quote, is_assessment)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			set.ID, documentID, item.NodeID, item.QuestionType, item.Question,
			pq.Array(item.Options), item.CorrectAnswer, item.Explanation,
			item.SourceQuote, isAssessment,
		)
		if err != nil {
			return nil, fmt.Errorf("insert quiz item for node %d: %w", item.NodeID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit save set: %w", err)
	}

	set.ItemCount = len(items)
	return &set, nil
}

// DeleteSet removes a set and its items in one transaction. The schema has
// no cascade from quiz_sets on purpose; this method is the only delete path.
func (s *Store) DeleteSet(ctx context.Context, setID int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete set: %w", err)
	}
	defer tx.Rollback()

	if err := deleteSetItems(ctx, tx, setID); err != nil {
		return err
	}
	if err := deleteSetRow(ctx, tx, setID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete set: %w", err)
	}
	return nil
}

// execer is the subset of *sql.Tx the delete helpers need. Tests substitute
// a fake to check ordering.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

func deleteSetItems(ctx context.Context, ex execer, setID int64) error {
	if _, err := ex.ExecContext(ctx, `DELETE FROM quiz_items WHERE quiz_set_id = $1`, setID); err != nil {
		return fmt.Errorf("delete quiz items: %w", err)
	}
	return nil
}

func deleteSetRow(ctx context.Context, ex execer, setID int64) error {
	res, err := ex.ExecContext(ctx, `DELETE FROM quiz_sets WHERE id = $1`, setID)
	if err != nil {
		return fmt.Errorf("delete quiz set: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return models.ErrNotFound
	}
	return nil
}

// ── Reads ───────────────────────────────────────────────

// SetForUser loads a set and enforces ownership through its document.
func (s *Store) SetForUser(setID, userID int64) (*models.QuizSet, error) {
	var set models.QuizSet
	var ownerID int64
	err := s.db.QueryRow(
		`SELECT qs.id, qs.document_id, qs.kind, qs.created_at, d.user_id,
		        (SELECT COUNT(*) FROM quiz_items qi WHERE qi.quiz_set_id = qs.id)
		 FROM quiz_sets qs
		 JOIN documents d ON d.id = qs.document_id
		 WHERE qs.id = $1`,
		setID,
	).Scan(&set.ID, &set.DocumentID, &set.Kind, &set.CreatedAt, &ownerID, &set.ItemCount)
	if err == sql.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get quiz set: %w", err)
	}
	if ownerID != userID {
		return nil, models.ErrForbidden
	}
	return &set, nil
}

func (s *Store) ItemsBySet(setID int64) ([]models.QuizItem, error) {
	rows, err := s.db.Query(
		`SELECT id, quiz_set_id, document_id, node_id, question_type, question,
		        options, correct_answer, explanation, source_quote, is_assessment, created_at
		 FROM quiz_items WHERE quiz_set_id = $1 ORDER BY id`,
		setID,
	)
	if err != nil {
		return nil, fmt.Errorf("query quiz items: %w", err)
	}
	defer rows.Close()

	var items []models.QuizItem
	for rows.Next() {
		var item models.QuizItem
		if err := rows.Scan(&item.ID, &item.QuizSetID, &item.DocumentID, &item.NodeID,
			&item.QuestionType, &item.Question, pq.Array(&item.Options),
			&item.CorrectAnswer, &item.Explanation, &item.SourceQuote,
			&item.IsAssessment, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan quiz item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// ItemForUser loads one item and enforces ownership through its document.
func (s *Store) ItemForUser(itemID, userID int64) (*models.QuizItem, error) {
	var item models.QuizItem
	var ownerID int64
	err := s.db.QueryRow(
		`SELECT qi.id, qi.quiz_set_id, qi.document_id, qi.node_id, qi.question_type,
		        qi.question, qi.options, qi.correct_answer, qi.explanation,
		        qi.source_quote, qi.is_assessment, qi.created_at, d.user_id
		 FROM quiz_items qi
		 JOIN documents d ON d.id = qi.document_id
		 WHERE qi.id = $1`,
		itemID,
	).Scan(&item.ID, &item.QuizSetID, &item.DocumentID, &item.NodeID,
		&item.QuestionType, &item.Question, pq.Array(&item.Options),
		&item.CorrectAnswer, &item.Explanation, &item.SourceQuote,
		&item.IsAssessment, &item.CreatedAt, &ownerID)
	if err == sql.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get quiz item: %w", err)
	}
	if ownerID != userID {
		return nil, models.ErrForbidden
	}
	return &item, nil
}

func (s *Store) SetsByDocument(documentID int64) ([]models.QuizSet, error) {
	rows, err := s.db.Query(
		`SELECT qs.id, qs.document_id, qs.kind, qs.created_at,
		        (SELECT COUNT(*) FROM quiz_items qi WHERE qi.quiz_set_id = qs.id)
		 FROM quiz_sets qs
		 WHERE qs.document_id = $1
		 ORDER BY qs.created_at DESC`,
		documentID,
	)
	if err != nil {
		return nil, fmt.Errorf("query quiz sets: %w", err)
	}
	defer rows.Close()

	var sets []models.QuizSet
	for rows.Next() {
		var set models.QuizSet
		if err := rows.Scan(&set.ID, &set.DocumentID, &set.Kind, &set.CreatedAt, &set.ItemCount); err != nil {
			return nil, fmt.Errorf("scan quiz set: %w", err)
		}
		sets = append(sets, set)
	}
	return sets, rows.Err()
}

// TouchSubject bumps last_studied_at on the subject owning the document.
// Called on every answer submission so recommendations track real activity.
func (s *Store) TouchSubject(documentID int64) error {
	_, err := s.db.Exec(
		`UPDATE subjects SET last_studied_at = NOW()
		 WHERE id = (SELECT subject_id FROM documents WHERE id = $1)`,
		documentID,
	)
	if err != nil {
		return fmt.Errorf("touch subject: %w", err)
	}
	return nil
}
