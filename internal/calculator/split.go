package calculator

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/mmynk/billsplit/internal/models"
)

// cents is the number of decimal places every owed amount is rounded to.
const cents = 2

// Allocate computes how much each participant owes for a bill.
//
// Algorithm: final = individual_total + shared_total / n, rounded half-up to
// cents. Shared costs are not remainder-corrected, so the sum of the rounded
// amounts may differ from the charges by up to n cents.
//
// Each participant is keyed by ids.Resolve(ExternalID, Name) when ids is
// non-nil and the participant carries an ExternalID, and by Name otherwise.
// A participant the map does not know keeps its name; nobody is dropped.
// Duplicate keys overwrite earlier entries.
//
// TotalBill is the bill's declared total, never a recomputation. When it
// disagrees with the charges, Divergence is set.
func Allocate(bill models.BillSnapshot, ids models.IdentityMap) models.SplitResult {
	sharedTotal := SumItems(bill.SharedCosts)

	result := models.SplitResult{
		Amounts:     make(map[string]decimal.Decimal, len(bill.Participants)),
		Details:     make(map[string]models.IdentityDetail, len(bill.Participants)),
		TotalBill:   bill.TotalAmount,
		Description: fmt.Sprintf("Bill for %s to %s", bill.PeriodStart, bill.PeriodEnd),
	}

	n := len(bill.Participants)
	sharedPerParticipant := decimal.Zero
	if n == 0 {
		result.UndistributedShared = sharedTotal
	} else {
		sharedPerParticipant = sharedTotal.Div(decimal.NewFromInt(int64(n)))
	}
	sharedShare := sharedPerParticipant.Round(cents)

	individualSum := decimal.Zero
	for _, p := range bill.Participants {
		individualSum = individualSum.Add(p.IndividualTotal)

		key := p.Name
		if ids != nil && p.ExternalID != "" {
			key = ids.Resolve(p.ExternalID, p.Name)
		}

		result.Amounts[key] = p.IndividualTotal.Add(sharedPerParticipant).Round(cents)
		result.Details[key] = models.IdentityDetail{
			Individual:  p.IndividualTotal,
			SharedShare: sharedShare,
			Items:       p.Items,
		}
	}

	computed := sharedTotal.Add(individualSum)
	if !computed.Round(cents).Equal(bill.TotalAmount.Round(cents)) {
		result.Divergence = &models.TotalDivergenceWarning{
			Declared: bill.TotalAmount,
			Computed: computed,
		}
	}

	return result
}

// SumItems returns the sum of the item amounts.
func SumItems(items []models.LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Amount)
	}
	return total
}
