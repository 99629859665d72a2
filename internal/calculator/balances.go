package calculator

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/mmynk/billsplit/internal/models"
)

// settleThreshold is the smallest debt worth reporting.
var settleThreshold = decimal.New(1, -2)

// MemberBalance represents the balance information for one group member.
type MemberBalance struct {
	MemberID   string
	NetBalance decimal.Decimal // Positive = owed money, Negative = owes money
	TotalPaid  decimal.Decimal // Total amount paid across all expenses
	TotalOwed  decimal.Decimal // Total amount this member owes
}

// DebtEdge represents a debt from one member to another.
type DebtEdge struct {
	From   string // Member who owes
	To     string // Member who is owed
	Amount decimal.Decimal
}

// CalculateGroupBalances computes balances across a group's expenses.
// It aggregates who paid what and who owes what, returning both individual
// member balances and a simplified list of debts.
//
// Algorithm:
// - For each share: the member paid Paid and owes Owed
// - Aggregate: net_balance = total_paid - total_owed
// - Debts: greedy matching of the largest debtor with the largest creditor
//
// Balances are returned sorted by member ID.
func CalculateGroupBalances(expenses []*models.Expense) ([]MemberBalance, []DebtEdge) {
	balances := make(map[string]*MemberBalance)

	for _, expense := range expenses {
		for _, share := range expense.Shares {
			bal, exists := balances[share.MemberID]
			if !exists {
				bal = &MemberBalance{MemberID: share.MemberID}
				balances[share.MemberID] = bal
			}
			bal.TotalPaid = bal.TotalPaid.Add(share.Paid)
			bal.TotalOwed = bal.TotalOwed.Add(share.Owed)
		}
	}

	memberBalances := make([]MemberBalance, 0, len(balances))
	for _, bal := range balances {
		bal.NetBalance = bal.TotalPaid.Sub(bal.TotalOwed)
		memberBalances = append(memberBalances, *bal)
	}
	sort.Slice(memberBalances, func(i, j int) bool {
		return memberBalances[i].MemberID < memberBalances[j].MemberID
	})

	return memberBalances, simplifyDebts(memberBalances)
}

func simplifyDebts(balances []MemberBalance) []DebtEdge {
	var creditors, debtors []MemberBalance
	for _, bal := range balances {
		switch bal.NetBalance.Sign() {
		case 1:
			creditors = append(creditors, bal)
		case -1:
			debtors = append(debtors, bal)
		}
	}

	// Largest first; ties broken by ID so the result is deterministic.
	sort.SliceStable(creditors, func(i, j int) bool {
		return creditors[i].NetBalance.GreaterThan(creditors[j].NetBalance)
	})
	sort.SliceStable(debtors, func(i, j int) bool {
		return debtors[i].NetBalance.LessThan(debtors[j].NetBalance)
	})

	owes := make([]decimal.Decimal, len(debtors))
	for i, d := range debtors {
		owes[i] = d.NetBalance.Neg()
	}
	owed := make([]decimal.Decimal, len(creditors))
	for j, c := range creditors {
		owed[j] = c.NetBalance
	}

	var edges []DebtEdge
	i, j := 0, 0
	for i < len(debtors) && j < len(creditors) {
		amount := decimal.Min(owes[i], owed[j])

		if amount.GreaterThanOrEqual(settleThreshold) {
			edges = append(edges, DebtEdge{
				From:   debtors[i].MemberID,
				To:     creditors[j].MemberID,
				Amount: amount,
			})
		}

		owes[i] = owes[i].Sub(amount)
		owed[j] = owed[j].Sub(amount)

		if owes[i].LessThan(settleThreshold) {
			i++
		}
		if owed[j].LessThan(settleThreshold) {
			j++
		}
	}

	return edges
}
