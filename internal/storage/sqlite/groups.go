package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/billsplit/internal/models"
	"github.com/mmynk/billsplit/internal/storage"
)

// CreateGroup persists a new group and its initial members.
func (s *SQLiteStore) CreateGroup(ctx context.Context, group *models.Group) error {
	if group.ID == "" {
		group.ID = uuid.New().String()
	}
	if group.CreatedAt == 0 {
		group.CreatedAt = time.Now().Unix()
	}
	if group.Name == "" {
		group.Name = generateGroupName(group.Members)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		"INSERT INTO groups (id, name, created_at) VALUES (?, ?, ?)",
		group.ID, group.Name, group.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert group: %w", err)
	}

	ids := make([]string, len(group.Members))
	for i, m := range group.Members {
		ids[i] = m.ID
	}
	if err := addMembers(ctx, tx, group.ID, ids); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// GetGroup retrieves a group by ID with its members in join order.
func (s *SQLiteStore) GetGroup(ctx context.Context, groupID string) (*models.Group, error) {
	group := &models.Group{}
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, created_at FROM groups WHERE id = ?",
		groupID,
	).Scan(&group.ID, &group.Name, &group.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("group %s: %w", groupID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get group: %w", err)
	}

	if group.Members, err = s.groupMembers(ctx, group.ID); err != nil {
		return nil, err
	}

	return group, nil
}

// FindGroupByName returns the oldest group whose name contains filter.
func (s *SQLiteStore) FindGroupByName(ctx context.Context, filter string) (*models.Group, error) {
	group := &models.Group{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, created_at FROM groups
		 WHERE instr(lower(name), lower(?)) > 0
		 ORDER BY created_at, id LIMIT 1`,
		filter,
	).Scan(&group.ID, &group.Name, &group.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("group matching %q: %w", filter, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find group: %w", err)
	}

	if group.Members, err = s.groupMembers(ctx, group.ID); err != nil {
		return nil, err
	}

	return group, nil
}

// AddGroupMembers appends members to an existing group.
func (s *SQLiteStore) AddGroupMembers(ctx context.Context, groupID string, memberIDs []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx, "SELECT 1 FROM groups WHERE id = ?", groupID).Scan(&exists)
	if err == sql.ErrNoRows {
		return fmt.Errorf("group %s: %w", groupID, storage.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to check group existence: %w", err)
	}

	if err := addMembers(ctx, tx, groupID, memberIDs); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// addMembers appends memberIDs after the group's current last position,
// skipping members already present.
func addMembers(ctx context.Context, tx *sql.Tx, groupID string, memberIDs []string) error {
	var next int
	err := tx.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(position) + 1, 0) FROM group_members WHERE group_id = ?",
		groupID,
	).Scan(&next)
	if err != nil {
		return fmt.Errorf("failed to get member position: %w", err)
	}

	for _, id := range memberIDs {
		res, err := tx.ExecContext(ctx,
			"INSERT OR IGNORE INTO group_members (group_id, member_id, position) VALUES (?, ?, ?)",
			groupID, id, next,
		)
		if err != nil {
			return fmt.Errorf("failed to insert group member: %w", err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			next++
		}
	}

	return nil
}

func (s *SQLiteStore) groupMembers(ctx context.Context, groupID string) ([]models.LedgerMember, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT m.id, m.email, m.display_name
		 FROM group_members gm JOIN members m ON m.id = gm.member_id
		 WHERE gm.group_id = ? ORDER BY gm.position`,
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get group members: %w", err)
	}
	defer rows.Close()

	var members []models.LedgerMember
	for rows.Next() {
		var m models.LedgerMember
		if err := rows.Scan(&m.ID, &m.Email, &m.Name); err != nil {
			return nil, fmt.Errorf("failed to scan group member: %w", err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate group members: %w", err)
	}

	return members, nil
}

// generateGroupName creates a group name from its members.
func generateGroupName(members []models.LedgerMember) string {
	if len(members) == 0 {
		return fmt.Sprintf("Group - %s", time.Now().Format("Jan 2, 2006"))
	}
	names := make([]string, len(members))
	for i, m := range members {
		names[i] = m.Name
		if names[i] == "" {
			names[i] = m.Email
		}
	}
	if len(names) <= 3 {
		return fmt.Sprintf("Group with %s", strings.Join(names, ", "))
	}
	return fmt.Sprintf("Group with %s and %d others",
		strings.Join(names[:2], ", "),
		len(names)-2,
	)
}
