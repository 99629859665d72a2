package calculator

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mmynk/billsplit/internal/models"
)

// SplitTolerance is the largest accepted gap between an explicit split's sum
// and the expense total. It absorbs per-cent rounding done upstream.
var SplitTolerance = decimal.New(5, -2)

// Reconcile maps a split onto ledger members and returns the per-member
// owed/paid allocation for an expense of total paid entirely by payer.
//
// With a non-empty explicit split (email -> amount), each email is matched
// against the members' emails, then against the payer's email. An email that
// matches neither yields *UnknownMemberError. Emails resolving to the same
// member produce a single share carrying their summed amount. The amounts must add up to
// total within SplitTolerance or *SplitMismatchError is returned.
//
// Without an explicit split, total is divided equally: every member owes
// round(total/m, 2) except the last, who also absorbs the rounding
// remainder. Owed amounts then sum to total exactly. Members are taken in
// the order given.
//
// The payer's share carries Paid = total; everyone else pays nothing. If the
// payer is not otherwise part of the split, a zero-owed share is appended
// for them so that paid amounts always sum to total.
func Reconcile(total decimal.Decimal, members []models.LedgerMember, payer models.LedgerMember, explicit map[string]decimal.Decimal) ([]models.ExpenseShare, error) {
	if payer.ID == "" {
		return nil, ErrNoPayer
	}

	var (
		shares []models.ExpenseShare
		err    error
	)
	if len(explicit) > 0 {
		shares, err = explicitShares(total, members, payer, explicit)
	} else {
		shares, err = equalShares(total, members)
	}
	if err != nil {
		return nil, err
	}

	return assignPayer(shares, total, payer.ID), nil
}

func explicitShares(total decimal.Decimal, members []models.LedgerMember, payer models.LedgerMember, explicit map[string]decimal.Decimal) ([]models.ExpenseShare, error) {
	// Sorted so the reported unknown identity does not depend on map order.
	emails := make([]string, 0, len(explicit))
	for email := range explicit {
		emails = append(emails, email)
	}
	sort.Strings(emails)

	position := make(map[string]int, len(members))
	byEmail := make(map[string]string, len(members))
	for i, m := range members {
		position[m.ID] = i
		if key := emailKey(m.Email); key != "" {
			byEmail[key] = m.ID
		}
	}

	type resolved struct {
		memberID string
		amount   decimal.Decimal
	}
	// Keys that differ only in case or spacing name the same member; their
	// amounts are summed into one share.
	entries := make([]resolved, 0, len(emails))
	entryFor := make(map[string]int, len(emails))
	observed := decimal.Zero
	for _, email := range emails {
		memberID, ok := byEmail[emailKey(email)]
		if !ok {
			if key := emailKey(email); key == "" || key != emailKey(payer.Email) {
				return nil, &UnknownMemberError{Identity: email}
			}
			memberID = payer.ID
		}
		amount := explicit[email]
		observed = observed.Add(amount)
		if i, seen := entryFor[memberID]; seen {
			entries[i].amount = entries[i].amount.Add(amount)
			continue
		}
		entryFor[memberID] = len(entries)
		entries = append(entries, resolved{memberID: memberID, amount: amount})
	}

	if observed.Sub(total).Abs().GreaterThan(SplitTolerance) {
		return nil, &SplitMismatchError{Observed: observed, Expected: total}
	}

	// Member order first; payer fallbacks (not in members) go last.
	sort.SliceStable(entries, func(i, j int) bool {
		return rank(position, entries[i].memberID, len(members)) < rank(position, entries[j].memberID, len(members))
	})

	shares := make([]models.ExpenseShare, len(entries))
	for i, e := range entries {
		shares[i] = models.ExpenseShare{MemberID: e.memberID, Owed: e.amount, Paid: decimal.Zero}
	}
	return shares, nil
}

func equalShares(total decimal.Decimal, members []models.LedgerMember) ([]models.ExpenseShare, error) {
	m := len(members)
	if m == 0 {
		return nil, ErrNoMembers
	}

	count := decimal.NewFromInt(int64(m))
	base := total.Div(count).Round(cents)
	remainder := total.Sub(base.Mul(count))

	shares := make([]models.ExpenseShare, m)
	for i, member := range members {
		owed := base
		if i == m-1 {
			owed = base.Add(remainder)
		}
		shares[i] = models.ExpenseShare{MemberID: member.ID, Owed: owed, Paid: decimal.Zero}
	}
	return shares, nil
}

func assignPayer(shares []models.ExpenseShare, total decimal.Decimal, payerID string) []models.ExpenseShare {
	found := false
	for i := range shares {
		if shares[i].MemberID == payerID && !found {
			shares[i].Paid = total
			found = true
		}
	}
	if !found {
		shares = append(shares, models.ExpenseShare{MemberID: payerID, Owed: decimal.Zero, Paid: total})
	}
	return shares
}

func rank(position map[string]int, memberID string, fallback int) int {
	if p, ok := position[memberID]; ok {
		return p
	}
	return fallback
}

func emailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
