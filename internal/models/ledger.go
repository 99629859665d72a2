package models

import "github.com/shopspring/decimal"

// LedgerMember is a group member as seen by the reconciler.
type LedgerMember struct {
	// ID is the ledger's opaque member identifier.
	ID string

	// Email is the member's email. May be empty for remote members that
	// never confirmed an address.
	Email string

	// Name is a display name, for logs and messages only.
	Name string
}

// ExpenseShare is one member's line in an expense allocation.
// Paid is nonzero only for the payer-of-record.
type ExpenseShare struct {
	MemberID string
	Owed     decimal.Decimal
	Paid     decimal.Decimal
}

// Group is a set of ledger members that share expenses.
type Group struct {
	// ID is the unique identifier for the group.
	ID string

	// Name is the display name of the group (e.g., "AT&T Family Plan").
	Name string

	// Members are the group's members in a stable order. Equal splits put
	// the rounding remainder on the last member, so this order is observable.
	Members []LedgerMember

	// CreatedAt is the Unix timestamp when the group was created.
	CreatedAt int64
}

// Expense is an expense submitted to the ledger.
type Expense struct {
	// ID is assigned by the ledger on submission.
	ID string

	// GroupID is the group the expense belongs to.
	GroupID string

	// Description is the expense label (e.g., "Wireless Bill for Nov 2025").
	Description string

	// Cost is the expense total.
	Cost decimal.Decimal

	// Currency is the ISO currency code. Always "USD" for now.
	Currency string

	// PayerID is the payer-of-record.
	PayerID string

	// Fingerprint identifies the bill the expense came from, used to refuse
	// double submission. Optional.
	Fingerprint string

	// Shares is the per-member allocation; owed values sum to Cost.
	Shares []ExpenseShare

	// CreatedAt is the Unix timestamp when the expense was recorded.
	CreatedAt int64
}
