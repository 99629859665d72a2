package rpc

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Amounts are decimals and travel as JSON strings ("40.00"). Numbers are
// accepted on input.

// Member is a ledger member.
type Member struct {
	ID    string `json:"id"`
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
}

// Group is a ledger group with its members in join order.
type Group struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Members   []Member `json:"members"`
	CreatedAt int64    `json:"created_at"`
}

// Share is one member's line in an expense.
type Share struct {
	MemberID string          `json:"member_id"`
	Email    string          `json:"email,omitempty"`
	Name     string          `json:"name,omitempty"`
	Owed     decimal.Decimal `json:"owed"`
	Paid     decimal.Decimal `json:"paid"`
}

// Expense is a recorded expense.
type Expense struct {
	ID          string          `json:"id"`
	GroupID     string          `json:"group_id"`
	Description string          `json:"description"`
	Cost        decimal.Decimal `json:"cost"`
	Currency    string          `json:"currency"`
	PayerID     string          `json:"payer_id"`
	Shares      []Share         `json:"shares"`
	CreatedAt   int64           `json:"created_at"`
}

// LineItem is a single bill charge.
type LineItem struct {
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category,omitempty"`
}

// IdentityAmount is what one identity owes for a bill and how it was built.
type IdentityAmount struct {
	Identity    string          `json:"identity"`
	Amount      decimal.Decimal `json:"amount"`
	Individual  decimal.Decimal `json:"individual"`
	SharedShare decimal.Decimal `json:"shared_share"`
	Items       []LineItem      `json:"items,omitempty"`
}

// Divergence reports a bill whose declared total disagrees with its charges.
type Divergence struct {
	Declared   decimal.Decimal `json:"declared"`
	Computed   decimal.Decimal `json:"computed"`
	Difference decimal.Decimal `json:"difference"`
}

// Notification is the outcome of messaging one identity.
type Notification struct {
	Identity string `json:"identity"`
	State    string `json:"state"`
	Detail   string `json:"detail,omitempty"`
}

// Balance is a member's position across a group's expenses.
type Balance struct {
	MemberID   string          `json:"member_id"`
	Email      string          `json:"email,omitempty"`
	Name       string          `json:"name,omitempty"`
	TotalPaid  decimal.Decimal `json:"total_paid"`
	TotalOwed  decimal.Decimal `json:"total_owed"`
	NetBalance decimal.Decimal `json:"net_balance"`
}

// Debt is a simplified settlement: From pays To.
type Debt struct {
	From   string          `json:"from"`
	To     string          `json:"to"`
	Amount decimal.Decimal `json:"amount"`
}

// BillService

// AllocateRequest carries a bill document as produced by the extractor.
type AllocateRequest struct {
	Bill json.RawMessage `json:"bill"`
}

type AllocateResponse struct {
	// Amounts are sorted by identity.
	Amounts             []IdentityAmount `json:"amounts"`
	TotalBill           decimal.Decimal  `json:"total_bill"`
	UndistributedShared decimal.Decimal  `json:"undistributed_shared"`
	Divergence          *Divergence      `json:"divergence,omitempty"`
	Description         string           `json:"description,omitempty"`
	Issues              []string         `json:"issues,omitempty"`
}

// ReconcileRequest asks for the shares of an expense paid by the caller.
// Without splits the total is divided equally.
type ReconcileRequest struct {
	GroupID string                     `json:"group_id"`
	Total   decimal.Decimal            `json:"total"`
	Splits  map[string]decimal.Decimal `json:"splits,omitempty"`
}

type ReconcileResponse struct {
	Payer  Member  `json:"payer"`
	Shares []Share `json:"shares"`
}

type SubmitBillRequest struct {
	Bill        json.RawMessage `json:"bill"`
	GroupFilter string          `json:"group_filter,omitempty"`
	Notify      bool            `json:"notify,omitempty"`
	DryRun      bool            `json:"dry_run,omitempty"`
}

type SubmitBillResponse struct {
	ExpenseID     string           `json:"expense_id,omitempty"`
	Description   string           `json:"description"`
	Fingerprint   string           `json:"fingerprint"`
	Group         Group            `json:"group"`
	Payer         Member           `json:"payer"`
	Amounts       []IdentityAmount `json:"amounts"`
	Shares        []Share          `json:"shares"`
	Divergence    *Divergence      `json:"divergence,omitempty"`
	Issues        []string         `json:"issues,omitempty"`
	Notifications []Notification   `json:"notifications,omitempty"`
}

// GroupService

// CreateGroupRequest creates a group of the caller plus MemberEmails.
// Unknown emails become members without a password.
type CreateGroupRequest struct {
	Name         string   `json:"name"`
	MemberEmails []string `json:"member_emails"`
}

type CreateGroupResponse struct {
	Group Group `json:"group"`
}

type GetGroupRequest struct {
	GroupID string `json:"group_id"`
}

type GetGroupResponse struct {
	Group Group `json:"group"`
}

type AddMembersRequest struct {
	GroupID      string   `json:"group_id"`
	MemberEmails []string `json:"member_emails"`
}

type AddMembersResponse struct {
	Group Group `json:"group"`
}

type ListExpensesRequest struct {
	GroupID string `json:"group_id"`
}

type ListExpensesResponse struct {
	Expenses []Expense `json:"expenses"`
}

type GetBalancesRequest struct {
	GroupID string `json:"group_id"`
}

type GetBalancesResponse struct {
	Balances []Balance `json:"balances"`
	Debts    []Debt    `json:"debts"`
}

// AuthService

type RegisterRequest struct {
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Password    string `json:"password"`
}

type RegisterResponse struct {
	Member Member `json:"member"`
	Token  string `json:"token"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Member Member `json:"member"`
	Token  string `json:"token"`
}

type CurrentMemberRequest struct{}

type CurrentMemberResponse struct {
	Member Member `json:"member"`
}
