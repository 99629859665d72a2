package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/mmynk/billsplit/internal/models"
	"github.com/mmynk/billsplit/internal/storage"
)

const memberColumns = `id, email, display_name, phone, password_hash, created_at, updated_at`

// CreateMember inserts a new member into the database.
func (s *SQLiteStore) CreateMember(ctx context.Context, member *models.Member) error {
	query := `INSERT INTO members (` + memberColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, query,
		member.ID,
		strings.TrimSpace(member.Email),
		member.DisplayName,
		member.Phone,
		member.PasswordHash,
		member.CreatedAt,
		member.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create member: %w", err)
	}

	return nil
}

// UpdateMember updates a member's mutable fields.
func (s *SQLiteStore) UpdateMember(ctx context.Context, member *models.Member) error {
	member.UpdatedAt = time.Now().Unix()

	res, err := s.db.ExecContext(ctx,
		"UPDATE members SET display_name = ?, phone = ?, password_hash = ?, updated_at = ? WHERE id = ?",
		member.DisplayName, member.Phone, member.PasswordHash, member.UpdatedAt, member.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update member: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("member %s: %w", member.ID, storage.ErrNotFound)
	}

	return nil
}

// GetMemberByEmail retrieves a member by their email address.
func (s *SQLiteStore) GetMemberByEmail(ctx context.Context, email string) (*models.Member, error) {
	query := `SELECT ` + memberColumns + ` FROM members WHERE email = ?`

	member, err := scanMember(s.db.QueryRowContext(ctx, query, strings.TrimSpace(email)))
	if err == sql.ErrNoRows {
		return nil, nil // Member not found
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get member by email: %w", err)
	}

	return member, nil
}

// GetMemberByID retrieves a member by their ID.
func (s *SQLiteStore) GetMemberByID(ctx context.Context, id string) (*models.Member, error) {
	query := `SELECT ` + memberColumns + ` FROM members WHERE id = ?`

	member, err := scanMember(s.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil // Member not found
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get member by ID: %w", err)
	}

	return member, nil
}

func scanMember(row *sql.Row) (*models.Member, error) {
	member := &models.Member{}
	err := row.Scan(
		&member.ID,
		&member.Email,
		&member.DisplayName,
		&member.Phone,
		&member.PasswordHash,
		&member.CreatedAt,
		&member.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return member, nil
}
