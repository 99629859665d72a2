// Package models defines the core domain models for billsplit.
//
// # Bill Models
//
// A parsed wireless bill arrives as a BillSnapshot:
//   - LineItem: a single charge (plan fee, device installment, usage, tax)
//   - ParticipantCharge: the charges attributed to one line on the account
//   - BillSnapshot: the whole bill, with shared (account-level) charges
//
// The allocator turns a BillSnapshot into a SplitResult keyed by identity
// (an email when the contacts store knows the line's phone number, the
// participant's name otherwise).
//
// # Ledger Models
//
// The ledger is the group-expense service that records who owes whom:
//   - LedgerMember: a member as seen by the reconciler (ID + email)
//   - Member: a stored ledger account (local ledger only)
//   - Group: members in a stable order; the order matters for equal splits
//   - Expense / ExpenseShare: a submitted expense and its per-member shares
//
// # Money
//
// Every amount is a decimal.Decimal. Floats never cross a package boundary.
package models
