package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/mmynk/billsplit/internal/models"
	"github.com/mmynk/billsplit/internal/storage"
)

// Ensure Local implements Ledger
var _ Ledger = (*Local)(nil)

// Local is a ledger backed by the application's own store.
type Local struct {
	store      storage.Store
	payerEmail string
}

// NewLocal creates a ledger over store whose payer-of-record is the member
// registered with payerEmail.
func NewLocal(store storage.Store, payerEmail string) *Local {
	return &Local{store: store, payerEmail: payerEmail}
}

// As returns a copy of the ledger acting on behalf of the member with email.
func (l *Local) As(email string) *Local {
	return &Local{store: l.store, payerEmail: email}
}

// FindGroup returns the oldest group whose name contains nameFilter.
func (l *Local) FindGroup(ctx context.Context, nameFilter string) (*models.Group, error) {
	group, err := l.store.FindGroupByName(ctx, nameFilter)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: no group matching %q", ErrGroupNotFound, nameFilter)
	}
	if err != nil {
		return nil, err
	}
	return group, nil
}

// CurrentMember returns the configured payer.
func (l *Local) CurrentMember(ctx context.Context) (models.LedgerMember, error) {
	if l.payerEmail == "" {
		return models.LedgerMember{}, fmt.Errorf("%w: no payer email configured", ErrUnknownPayer)
	}
	member, err := l.store.GetMemberByEmail(ctx, l.payerEmail)
	if err != nil {
		return models.LedgerMember{}, err
	}
	if member == nil {
		return models.LedgerMember{}, fmt.Errorf("%w: %s", ErrUnknownPayer, l.payerEmail)
	}
	return member.LedgerMember(), nil
}

// CreateExpense stores the expense and its shares in one transaction.
func (l *Local) CreateExpense(ctx context.Context, expense *models.Expense) (string, error) {
	if err := l.store.CreateExpense(ctx, expense); err != nil {
		return "", err
	}
	return expense.ID, nil
}
