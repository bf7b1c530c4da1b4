package documents

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/studyforge/backend/internal/models"
)

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// ── Subjects ────────────────────────────────────────────

func (s *Store) CreateSubject(userID int64, name string) (*models.Subject, error) {
	var sub models.Subject
	err := s.db.QueryRow(
		`INSERT INTO subjects (user_id, name)
		 VALUES ($1, $2)
		 RETURNING id, user_id, name, created_at, last_studied_at`,
		userID, name,
	).Scan(&sub.ID, &sub.UserID, &sub.Name, &sub.CreatedAt, &sub.LastStudiedAt)
	if err != nil {
		return nil, fmt.Errorf("create subject: %w", err)
	}
	return &sub, nil
}

func (s *Store) ListSubjects(userID int64) ([]models.Subject, error) {
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

func (s *Store) GetSubject(subjectID, userID int64) (*models.Subject, error) {
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

// DeleteSubject removes the subject row. Documents, nodes, statuses, and
// quiz data go with it via schema cascades; PDF files are the service's
// responsibility before calling this.
func (s *Store) DeleteSubject(subjectID int64) error {
	res, err := s.db.Exec(`DELETE FROM subjects WHERE id = $1`, subjectID)
	if err != nil {
		return fmt.Errorf("delete subject: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return models.ErrNotFound
	}
	return nil
}

// ── Documents ───────────────────────────────────────────

const documentCols = `id, subject_id, user_id, title, file_path, page_count, status, error_message, created_at, completed_at`

func (s *Store) InsertDocument(subjectID, userID int64, title, filePath string, pageCount int) (*models.Document, error) {
	var d models.Document
	err := s.db.QueryRow(
		`INSERT INTO documents (subject_id, user_id, title, file_path, page_count, status)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+documentCols,
		subjectID, userID, title, filePath, pageCount, models.DocumentPending,
	).Scan(&d.ID, &d.SubjectID, &d.UserID, &d.Title, &d.FilePath, &d.PageCount,
		&d.Status, &d.ErrorMessage, &d.CreatedAt, &d.CompletedAt)
	if err != nil {
		return nil, fmt.Errorf("insert document: %w", err)
	}
	return &d, nil
}

func (s *Store) ListDocuments(subjectID int64) ([]models.Document, error) {
	rows, err := s.db.Query(
		`SELECT `+documentCols+` FROM documents WHERE subject_id = $1 ORDER BY created_at DESC`,
		subjectID,
	)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()

	return scanDocuments(rows)
}

func (s *Store) GetDocument(documentID, userID int64) (*models.Document, error) {
	var d models.Document
	err := s.db.QueryRow(
		`SELECT `+documentCols+` FROM documents WHERE id = $1`,
		documentID,
	).Scan(&d.ID, &d.SubjectID, &d.UserID, &d.Title, &d.FilePath, &d.PageCount,
		&d.Status, &d.ErrorMessage, &d.CreatedAt, &d.CompletedAt)
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

func (s *Store) DeleteDocument(documentID int64) error {
	res, err := s.db.Exec(`DELETE FROM documents WHERE id = $1`, documentID)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return models.ErrNotFound
	}
	return nil
}

// ── Processing Worker ───────────────────────────────────

// ClaimPending flips up to limit pending documents to processing and returns
// them. SKIP LOCKED lets multiple server instances share the queue without
// double-claiming.
func (s *Store) ClaimPending(ctx context.Context, limit int) ([]models.Document, error) {
	rows, err := s.db.QueryContext(ctx,
		`UPDATE documents SET status = $1
		 WHERE id IN (
		     SELECT id FROM documents WHERE status = $2
		     ORDER BY created_at
		     LIMIT $3
		     FOR UPDATE SKIP LOCKED
		 )
		 RETURNING `+documentCols,
		models.DocumentProcessing, models.DocumentPending, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("claim pending documents: %w", err)
	}
	defer rows.Close()

	return scanDocuments(rows)
}

func (s *Store) MarkCompleted(documentID int64) error {
	_, err := s.db.Exec(
		`UPDATE documents SET status = $1, error_message = NULL, completed_at = NOW() WHERE id = $2`,
		models.DocumentCompleted, documentID,
	)
	if err != nil {
		return fmt.Errorf("mark document completed: %w", err)
	}
	return nil
}

func (s *Store) MarkFailed(documentID int64, errMsg string) error {
	_, err := s.db.Exec(
		`UPDATE documents SET status = $1, error_message = $2, completed_at = NOW() WHERE id = $3`,
		models.DocumentFailed, errMsg, documentID,
	)
	if err != nil {
		return fmt.Errorf("mark document failed: %w", err)
	}
	return nil
}

func scanDocuments(rows *sql.Rows) ([]models.Document, error) {
	var docs []models.Document
	for rows.Next() {
		var d models.Document
		if err := rows.Scan(&d.ID, &d.SubjectID, &d.UserID, &d.Title, &d.FilePath,
			&d.PageCount, &d.Status, &d.ErrorMessage, &d.CreatedAt, &d.CompletedAt); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}
