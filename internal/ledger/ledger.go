// Package ledger submits reconciled expenses to a shared-expense ledger:
// the local SQLite store or Splitwise.
package ledger

import (
	"context"
	"errors"

	"github.com/mmynk/billsplit/internal/models"
)

// ErrGroupNotFound is returned when no group matches a name filter.
var ErrGroupNotFound = errors.New("group not found")

// ErrUnknownPayer is returned when the payer-of-record is not a ledger member.
var ErrUnknownPayer = errors.New("payer is not a ledger member")

// Ledger is the external record of group expenses.
type Ledger interface {
	// FindGroup returns the first group whose name contains nameFilter,
	// case-insensitively.
	FindGroup(ctx context.Context, nameFilter string) (*models.Group, error)

	// CurrentMember returns the payer-of-record for new expenses.
	CurrentMember(ctx context.Context) (models.LedgerMember, error)

	// CreateExpense records an expense with its shares and returns the
	// ledger's expense ID. Either the whole expense is recorded or nothing.
	CreateExpense(ctx context.Context, expense *models.Expense) (string, error)
}
