// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/mmynk/billsplit/internal/models"
)

var (
	// ErrNotFound is returned when a group or expense does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateExpense is returned when an expense with the same
	// fingerprint was already recorded.
	ErrDuplicateExpense = errors.New("expense already recorded")
)

// Store defines the interface for the local ledger's storage.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL, etc.)
// without changing the ledger or service layer.
type Store interface {
	// CreateMember persists a new member. The email must be unique.
	CreateMember(ctx context.Context, member *models.Member) error

	// UpdateMember saves a member's display name, phone and password hash.
	UpdateMember(ctx context.Context, member *models.Member) error

	// GetMemberByEmail retrieves a member by email, case-insensitively.
	// Returns nil, nil if no member has that email.
	GetMemberByEmail(ctx context.Context, email string) (*models.Member, error)

	// GetMemberByID retrieves a member by ID.
	// Returns nil, nil if the member does not exist.
	GetMemberByID(ctx context.Context, id string) (*models.Member, error)

	// CreateGroup persists a new group with its initial members, in order.
	// The group.ID field will be populated by the store.
	CreateGroup(ctx context.Context, group *models.Group) error

	// GetGroup retrieves a group and its members in join order.
	GetGroup(ctx context.Context, groupID string) (*models.Group, error)

	// FindGroupByName returns the oldest group whose name contains filter,
	// case-insensitively.
	FindGroupByName(ctx context.Context, filter string) (*models.Group, error)

	// AddGroupMembers appends members to a group. Members already in the
	// group keep their position.
	AddGroupMembers(ctx context.Context, groupID string, memberIDs []string) error

	// CreateExpense persists an expense and all its shares atomically.
	// The expense.ID field will be populated by the store.
	CreateExpense(ctx context.Context, expense *models.Expense) error

	// GetExpense retrieves an expense with its shares.
	GetExpense(ctx context.Context, expenseID string) (*models.Expense, error)

	// ListExpensesByGroup retrieves all expenses of a group, oldest first.
	ListExpensesByGroup(ctx context.Context, groupID string) ([]*models.Expense, error)

	// Close releases any resources held by the store.
	Close() error
}
