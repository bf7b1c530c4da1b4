package invites

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

// Insert persists a new code. A unique violation on the code column bubbles
// up as a *pq.Error so the service can retry with a fresh code.
func (s *Store) Insert(inviterID int64, code string, maxUses int) (*models.InviteCode, error) {
	var ic models.InviteCode
	err := s.db.QueryRow(
		`INSERT INTO invite_codes (code, inviter_id, max_uses)
		 VALUES ($1, $2, $3)
		 RETURNING id, code, inviter_id, max_uses, use_count, active, expires_at, created_at`,
		code, inviterID, maxUses,
	).Scan(&ic.ID, &ic.Code, &ic.InviterID, &ic.MaxUses, &ic.UseCount,
		&ic.Active, &ic.ExpiresAt, &ic.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &ic, nil
}

// CountOutstanding counts the inviter's codes that can still be redeemed.
func (s *Store) CountOutstanding(inviterID int64) (int, error) {
	var n int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM invite_codes
		 WHERE inviter_id = $1 AND active
		   AND use_count < max_uses
		   AND (expires_at IS NULL OR expires_at > NOW())`,
		inviterID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count outstanding codes: %w", err)
	}
	return n, nil
}

func (s *Store) GetByCode(code string) (*models.InviteCode, error) {
	var ic models.InviteCode
	err := s.db.QueryRow(
		`SELECT id, code, inviter_id, max_uses, use_count, active, expires_at, created_at
		 FROM invite_codes WHERE code = $1`,
		code,
	).Scan(&ic.ID, &ic.Code, &ic.InviterID, &ic.MaxUses, &ic.UseCount,
		&ic.Active, &ic.ExpiresAt, &ic.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get invite code: %w", err)
	}
	return &ic, nil
}

func (s *Store) ListByInviter(inviterID int64) ([]models.InviteCode, error) {
	rows, err := s.db.Query(
		`SELECT id, code, inviter_id, max_uses, use_count, active, expires_at, created_at
		 FROM invite_codes WHERE inviter_id = $1 ORDER BY created_at DESC`,
		inviterID,
	)
	if err != nil {
		return nil, fmt.Errorf("query invite codes: %w", err)
	}
	defer rows.Close()

	var codes []models.InviteCode
	for rows.Next() {
		var ic models.InviteCode
		if err := rows.Scan(&ic.ID, &ic.Code, &ic.InviterID, &ic.MaxUses, &ic.UseCount,
			&ic.Active, &ic.ExpiresAt, &ic.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan invite code: %w", err)
		}
		codes = append(codes, ic)
	}
	return codes, rows.Err()
}

// Redeem consumes one use of the code for the given user, atomically. The
// conditional UPDATE enforces the use cap under concurrency and the
// redemption row's unique constraint blocks double-redeeming.
func (s *Store) Redeem(ctx context.Context, codeID, userID int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin redeem: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE invite_codes
		 SET use_count = use_count + 1
		 WHERE id = $1 AND active AND use_count < max_uses
		   AND (expires_at IS NULL OR expires_at > NOW())`,
		codeID,
	)
	if err != nil {
		return fmt.Errorf("consume invite use: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return models.ErrLimitReached
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO invite_redemptions (code_id, user_id) VALUES ($1, $2)`,
		codeID, userID,
	); err != nil {
		return fmt.Errorf("record redemption: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit redeem: %w", err)
	}
	return nil
}

// HasRedeemed reports whether the user already used this code.
func (s *Store) HasRedeemed(codeID, userID int64) (bool, error) {
	var exists bool
	err := s.db.QueryRow(
		`SELECT EXISTS(SELECT 1 FROM invite_redemptions WHERE code_id = $1 AND user_id = $2)`,
		codeID, userID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check redemption: %w", err)
	}
	return exists, nil
}
