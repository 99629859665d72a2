package models

import "github.com/shopspring/decimal"

// LineItem represents a single charge on the bill.
type LineItem struct {
	// Description is the label printed on the bill (e.g., "Base Plan").
	Description string

	// Amount is the charge amount.
	Amount decimal.Decimal

	// Category groups charges (e.g., "Plan", "Device", "Usage", "Tax").
	Category string
}

// ParticipantCharge holds the charges attributed to one participant (one
// line on a wireless account).
type ParticipantCharge struct {
	// Name is the line owner's name as printed on the bill.
	Name string

	// ExternalID is the raw identifier of the line, usually a phone number.
	// Empty when the document did not carry one.
	ExternalID string

	// Items are the participant's individual charges, in bill order.
	Items []LineItem

	// IndividualTotal is the participant's total before shared costs.
	// Expected to equal the sum of Items; the allocator does not enforce it.
	IndividualTotal decimal.Decimal
}

// BillSnapshot is a parsed bill document.
type BillSnapshot struct {
	// TotalAmount is the bill's own declared total.
	TotalAmount decimal.Decimal

	// SharedCosts are account-level charges divided equally among participants.
	SharedCosts []LineItem

	// Participants are the per-line charge breakdowns.
	Participants []ParticipantCharge

	// PeriodStart and PeriodEnd bound the billing period, as printed.
	PeriodStart string
	PeriodEnd   string

	// UsagePeriod is the usage period label, as printed.
	UsagePeriod string
}

// IdentityMap resolves a participant's raw identifier to a canonical identity.
type IdentityMap interface {
	// Resolve returns the canonical identity for rawID, or fallbackName when
	// rawID is unknown.
	Resolve(rawID, fallbackName string) string
}

// IdentityDetail explains how one identity's amount was built.
type IdentityDetail struct {
	Individual  decimal.Decimal
	SharedShare decimal.Decimal
	Items       []LineItem
}

// TotalDivergenceWarning signals that the bill's declared total differs from
// the sum of its shared and individual charges. It is informational: the
// allocator never corrects it.
type TotalDivergenceWarning struct {
	Declared decimal.Decimal
	Computed decimal.Decimal
}

// Difference returns Declared - Computed.
func (w TotalDivergenceWarning) Difference() decimal.Decimal {
	return w.Declared.Sub(w.Computed)
}

// SplitResult is the allocator's output for one bill.
type SplitResult struct {
	// Amounts maps identity to the final amount owed, rounded to cents.
	Amounts map[string]decimal.Decimal

	// TotalBill is the bill's declared total, passed through unchanged.
	TotalBill decimal.Decimal

	// Details maps identity to the breakdown behind Amounts.
	Details map[string]IdentityDetail

	// UndistributedShared is the shared cost nobody was charged for. Nonzero
	// only when the bill has no participants.
	UndistributedShared decimal.Decimal

	// Divergence is set when TotalBill disagrees with the charges.
	Divergence *TotalDivergenceWarning

	// Description is a human-readable label for the billing period.
	Description string
}
