package sqlite

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/mmynk/billsplit/internal/models"
	"github.com/mmynk/billsplit/internal/storage"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	// Create temp directory for test database
	tempDir, err := os.MkdirTemp("", "billsplit-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tempDir) })

	store, err := New(filepath.Join(tempDir, "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	return store
}

func mustCreateMember(t *testing.T, store *SQLiteStore, email, name string) *models.Member {
	t.Helper()
	m := models.NewMember(email, name, "")
	if err := store.CreateMember(context.Background(), m); err != nil {
		t.Fatalf("CreateMember(%s) failed: %v", email, err)
	}
	return m
}

func TestMembers(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	alice := mustCreateMember(t, store, "alice@example.com", "Alice")

	t.Run("GetMemberByEmail is case-insensitive", func(t *testing.T) {
		got, err := store.GetMemberByEmail(ctx, " Alice@Example.COM ")
		if err != nil {
			t.Fatalf("GetMemberByEmail failed: %v", err)
		}
		if got == nil || got.ID != alice.ID {
			t.Fatalf("GetMemberByEmail = %+v, want %s", got, alice.ID)
		}
		if got.DisplayName != "Alice" {
			t.Errorf("DisplayName = %q, want Alice", got.DisplayName)
		}
	})

	t.Run("GetMemberByID", func(t *testing.T) {
		got, err := store.GetMemberByID(ctx, alice.ID)
		if err != nil {
			t.Fatalf("GetMemberByID failed: %v", err)
		}
		if got == nil || got.Email != "alice@example.com" {
			t.Errorf("GetMemberByID = %+v", got)
		}
	})

	t.Run("missing member returns nil", func(t *testing.T) {
		got, err := store.GetMemberByEmail(ctx, "nobody@example.com")
		if err != nil || got != nil {
			t.Errorf("GetMemberByEmail = %+v, %v; want nil, nil", got, err)
		}
	})

	t.Run("UpdateMember", func(t *testing.T) {
		alice.Phone = "+15550100001"
		alice.PasswordHash = "hash"
		if err := store.UpdateMember(ctx, alice); err != nil {
			t.Fatalf("UpdateMember failed: %v", err)
		}
		got, err := store.GetMemberByID(ctx, alice.ID)
		if err != nil {
			t.Fatalf("GetMemberByID failed: %v", err)
		}
		if got.Phone != "+15550100001" || got.PasswordHash != "hash" {
			t.Errorf("UpdateMember did not persist: %+v", got)
		}

		ghost := models.NewMember("ghost@example.com", "Ghost", "")
		if err := store.UpdateMember(ctx, ghost); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("err = %v, want ErrNotFound", err)
		}
	})

	t.Run("duplicate email rejected", func(t *testing.T) {
		dup := models.NewMember("ALICE@example.com", "Alice 2", "")
		if err := store.CreateMember(ctx, dup); err == nil {
			t.Error("Expected error for duplicate email, got nil")
		}
	})
}

func TestGroups(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	a := mustCreateMember(t, store, "a@x.com", "A")
	b := mustCreateMember(t, store, "b@x.com", "B")
	c := mustCreateMember(t, store, "c@x.com", "C")

	group := &models.Group{
		Name:    "AT&T Family Plan",
		Members: []models.LedgerMember{c.LedgerMember(), a.LedgerMember()},
	}
	if err := store.CreateGroup(ctx, group); err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	if group.ID == "" || group.CreatedAt == 0 {
		t.Fatalf("Expected ID and CreatedAt to be set, got %+v", group)
	}

	t.Run("GetGroup keeps member order", func(t *testing.T) {
		got, err := store.GetGroup(ctx, group.ID)
		if err != nil {
			t.Fatalf("GetGroup failed: %v", err)
		}
		if len(got.Members) != 2 || got.Members[0].ID != c.ID || got.Members[1].ID != a.ID {
			t.Errorf("Members = %+v, want [C A]", got.Members)
		}
	})

	t.Run("AddGroupMembers appends and skips existing", func(t *testing.T) {
		if err := store.AddGroupMembers(ctx, group.ID, []string{a.ID, b.ID}); err != nil {
			t.Fatalf("AddGroupMembers failed: %v", err)
		}
		got, err := store.GetGroup(ctx, group.ID)
		if err != nil {
			t.Fatalf("GetGroup failed: %v", err)
		}
		var ids []string
		for _, m := range got.Members {
			ids = append(ids, m.ID)
		}
		want := []string{c.ID, a.ID, b.ID}
		if strings.Join(ids, ",") != strings.Join(want, ",") {
			t.Errorf("Members = %v, want %v", ids, want)
		}
	})

	t.Run("AddGroupMembers on missing group", func(t *testing.T) {
		err := store.AddGroupMembers(ctx, "nonexistent-id", []string{a.ID})
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("err = %v, want ErrNotFound", err)
		}
	})

	t.Run("FindGroupByName matches substring case-insensitively", func(t *testing.T) {
		got, err := store.FindGroupByName(ctx, "at&t")
		if err != nil {
			t.Fatalf("FindGroupByName failed: %v", err)
		}
		if got.ID != group.ID {
			t.Errorf("FindGroupByName = %s, want %s", got.ID, group.ID)
		}
		if len(got.Members) != 3 {
			t.Errorf("Expected 3 members, got %d", len(got.Members))
		}
	})

	t.Run("FindGroupByName no match", func(t *testing.T) {
		_, err := store.FindGroupByName(ctx, "verizon")
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("err = %v, want ErrNotFound", err)
		}
	})

	t.Run("GetGroup returns error for nonexistent group", func(t *testing.T) {
		_, err := store.GetGroup(ctx, "nonexistent-id")
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("err = %v, want ErrNotFound", err)
		}
	})
}

func TestExpenses(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	a := mustCreateMember(t, store, "a@x.com", "A")
	b := mustCreateMember(t, store, "b@x.com", "B")
	group := &models.Group{Name: "Home", Members: []models.LedgerMember{a.LedgerMember(), b.LedgerMember()}}
	if err := store.CreateGroup(ctx, group); err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}

	expense := &models.Expense{
		GroupID:     group.ID,
		Description: "Wireless Bill for Nov 2025",
		Cost:        decimal.RequireFromString("100.10"),
		PayerID:     a.ID,
		Fingerprint: "bill-1",
		Shares: []models.ExpenseShare{
			{MemberID: a.ID, Owed: decimal.RequireFromString("40.05"), Paid: decimal.RequireFromString("100.10")},
			{MemberID: b.ID, Owed: decimal.RequireFromString("60.05"), Paid: decimal.Zero},
		},
	}

	t.Run("CreateExpense generates ID and currency", func(t *testing.T) {
		if err := store.CreateExpense(ctx, expense); err != nil {
			t.Fatalf("CreateExpense failed: %v", err)
		}
		if expense.ID == "" {
			t.Error("Expected expense ID to be generated")
		}
		if expense.Currency != "USD" {
			t.Errorf("Currency = %q, want USD", expense.Currency)
		}
	})

	t.Run("GetExpense keeps exact amounts", func(t *testing.T) {
		got, err := store.GetExpense(ctx, expense.ID)
		if err != nil {
			t.Fatalf("GetExpense failed: %v", err)
		}
		if !got.Cost.Equal(expense.Cost) {
			t.Errorf("Cost = %s, want %s", got.Cost, expense.Cost)
		}
		if len(got.Shares) != 2 {
			t.Fatalf("Expected 2 shares, got %d", len(got.Shares))
		}
		if got.Shares[0].MemberID != a.ID || !got.Shares[0].Owed.Equal(decimal.RequireFromString("40.05")) {
			t.Errorf("share[0] = %+v", got.Shares[0])
		}
		if !got.Shares[1].Paid.IsZero() {
			t.Errorf("share[1].Paid = %s, want 0", got.Shares[1].Paid)
		}
	})

	t.Run("duplicate fingerprint rejected", func(t *testing.T) {
		dup := &models.Expense{
			GroupID:     group.ID,
			Description: "again",
			Cost:        decimal.NewFromInt(1),
			PayerID:     a.ID,
			Fingerprint: "bill-1",
		}
		err := store.CreateExpense(ctx, dup)
		if !errors.Is(err, storage.ErrDuplicateExpense) {
			t.Errorf("err = %v, want ErrDuplicateExpense", err)
		}
	})

	t.Run("failed share insert rolls back expense", func(t *testing.T) {
		bad := &models.Expense{
			GroupID:     group.ID,
			Description: "broken",
			Cost:        decimal.NewFromInt(10),
			PayerID:     a.ID,
			Shares: []models.ExpenseShare{
				{MemberID: a.ID, Owed: decimal.NewFromInt(5), Paid: decimal.NewFromInt(10)},
				{MemberID: "no-such-member", Owed: decimal.NewFromInt(5), Paid: decimal.Zero},
			},
		}
		if err := store.CreateExpense(ctx, bad); err == nil {
			t.Fatal("Expected error for unknown share member, got nil")
		}
		if _, err := store.GetExpense(ctx, bad.ID); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("expense persisted after failed insert: %v", err)
		}
	})

	t.Run("ListExpensesByGroup", func(t *testing.T) {
		second := &models.Expense{
			GroupID:     group.ID,
			Description: "Wireless Bill for Dec 2025",
			Cost:        decimal.NewFromInt(50),
			PayerID:     a.ID,
			CreatedAt:   expense.CreatedAt + 1,
			Shares: []models.ExpenseShare{
				{MemberID: a.ID, Owed: decimal.NewFromInt(25), Paid: decimal.NewFromInt(50)},
				{MemberID: b.ID, Owed: decimal.NewFromInt(25), Paid: decimal.Zero},
			},
		}
		if err := store.CreateExpense(ctx, second); err != nil {
			t.Fatalf("CreateExpense failed: %v", err)
		}

		expenses, err := store.ListExpensesByGroup(ctx, group.ID)
		if err != nil {
			t.Fatalf("ListExpensesByGroup failed: %v", err)
		}
		if len(expenses) != 2 {
			t.Fatalf("Expected 2 expenses, got %d", len(expenses))
		}
		if expenses[0].ID != expense.ID || expenses[1].ID != second.ID {
			t.Errorf("expenses out of order: %s, %s", expenses[0].ID, expenses[1].ID)
		}
		for _, e := range expenses {
			if len(e.Shares) != 2 {
				t.Errorf("expense %s has %d shares, want 2", e.ID, len(e.Shares))
			}
		}
	})

	t.Run("ListExpensesByGroup empty", func(t *testing.T) {
		expenses, err := store.ListExpensesByGroup(ctx, "other-group")
		if err != nil {
			t.Fatalf("ListExpensesByGroup failed: %v", err)
		}
		if len(expenses) != 0 {
			t.Errorf("Expected no expenses, got %d", len(expenses))
		}
	})
}

func TestGenerateGroupName(t *testing.T) {
	member := func(name string) models.LedgerMember { return models.LedgerMember{Name: name} }

	tests := []struct {
		members      []models.LedgerMember
		wantContains string
	}{
		{nil, "Group -"},
		{[]models.LedgerMember{member("Alice")}, "Group with Alice"},
		{[]models.LedgerMember{member("Alice"), member("Bob")}, "Group with Alice, Bob"},
		{[]models.LedgerMember{{Email: "c@x.com"}}, "Group with c@x.com"},
		{[]models.LedgerMember{member("A"), member("B"), member("C"), member("D")}, "and 2 others"},
	}

	for _, tt := range tests {
		t.Run(tt.wantContains, func(t *testing.T) {
			got := generateGroupName(tt.members)
			if !strings.Contains(got, tt.wantContains) {
				t.Errorf("generateGroupName(%v) = %q, want to contain %q", tt.members, got, tt.wantContains)
			}
		})
	}
}
