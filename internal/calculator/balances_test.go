package calculator

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/mmynk/billsplit/internal/models"
)

func share(memberID, owed, paid string) models.ExpenseShare {
	return models.ExpenseShare{MemberID: memberID, Owed: d(owed), Paid: d(paid)}
}

func TestCalculateGroupBalances(t *testing.T) {
	tests := []struct {
		name         string
		expenses     []*models.Expense
		validateFunc func(t *testing.T, balances []MemberBalance, debts []DebtEdge)
	}{
		{
			name:     "no expenses",
			expenses: nil,
			validateFunc: func(t *testing.T, balances []MemberBalance, debts []DebtEdge) {
				if len(balances) != 0 || len(debts) != 0 {
					t.Errorf("expected nothing, got %v %v", balances, debts)
				}
			},
		},
		{
			name: "single expense paid by one member",
			expenses: []*models.Expense{
				{Cost: d("100"), Shares: []models.ExpenseShare{
					share("alice", "40", "100"),
					share("bob", "60", "0"),
				}},
			},
			validateFunc: func(t *testing.T, balances []MemberBalance, debts []DebtEdge) {
				if len(balances) != 2 {
					t.Fatalf("got %d balances, want 2", len(balances))
				}
				alice, bob := balances[0], balances[1]
				if alice.MemberID != "alice" || !alice.NetBalance.Equal(d("60")) {
					t.Errorf("alice = %+v, want net 60", alice)
				}
				if bob.MemberID != "bob" || !bob.NetBalance.Equal(d("-60")) {
					t.Errorf("bob = %+v, want net -60", bob)
				}
				if len(debts) != 1 {
					t.Fatalf("got %d debts, want 1", len(debts))
				}
				if debts[0].From != "bob" || debts[0].To != "alice" || !debts[0].Amount.Equal(d("60")) {
					t.Errorf("debt = %+v", debts[0])
				}
			},
		},
		{
			name: "expenses by different payers net out",
			expenses: []*models.Expense{
				{Cost: d("90"), Shares: []models.ExpenseShare{
					share("alice", "30", "90"),
					share("bob", "30", "0"),
					share("carol", "30", "0"),
				}},
				{Cost: d("60"), Shares: []models.ExpenseShare{
					share("alice", "20", "0"),
					share("bob", "20", "60"),
					share("carol", "20", "0"),
				}},
			},
			validateFunc: func(t *testing.T, balances []MemberBalance, debts []DebtEdge) {
				// alice: paid 90, owes 50 -> +40
				// bob:   paid 60, owes 50 -> +10
				// carol: paid 0,  owes 50 -> -50
				want := map[string]string{"alice": "40", "bob": "10", "carol": "-50"}
				for _, b := range balances {
					if !b.NetBalance.Equal(d(want[b.MemberID])) {
						t.Errorf("%s net = %s, want %s", b.MemberID, b.NetBalance, want[b.MemberID])
					}
				}
				if len(debts) != 2 {
					t.Fatalf("got %d debts, want 2: %+v", len(debts), debts)
				}
				total := decimal.Zero
				for _, debt := range debts {
					if debt.From != "carol" {
						t.Errorf("unexpected debtor %s", debt.From)
					}
					total = total.Add(debt.Amount)
				}
				if !total.Equal(d("50")) {
					t.Errorf("carol pays %s in total, want 50", total)
				}
				if debts[0].To != "alice" || !debts[0].Amount.Equal(d("40")) {
					t.Errorf("largest creditor first: %+v", debts[0])
				}
			},
		},
		{
			name: "sub-cent residue ignored",
			expenses: []*models.Expense{
				{Cost: d("0.005"), Shares: []models.ExpenseShare{
					share("alice", "0", "0.005"),
					share("bob", "0.005", "0"),
				}},
			},
			validateFunc: func(t *testing.T, balances []MemberBalance, debts []DebtEdge) {
				if len(debts) != 0 {
					t.Errorf("expected no debts, got %+v", debts)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			balances, debts := CalculateGroupBalances(tt.expenses)
			tt.validateFunc(t, balances, debts)
		})
	}
}
