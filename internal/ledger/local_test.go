package ledger

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/billsplit/internal/models"
	"github.com/mmynk/billsplit/internal/storage"
	"github.com/mmynk/billsplit/internal/storage/sqlite"
)

func TestLocal(t *testing.T) {
	ctx := context.Background()
	store, err := sqlite.New(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	payer := models.NewMember("payer@x.com", "Payer", "")
	other := models.NewMember("other@x.com", "Other", "")
	require.NoError(t, store.CreateMember(ctx, payer))
	require.NoError(t, store.CreateMember(ctx, other))

	group := &models.Group{
		Name:    "AT&T Wireless",
		Members: []models.LedgerMember{payer.LedgerMember(), other.LedgerMember()},
	}
	require.NoError(t, store.CreateGroup(ctx, group))

	l := NewLocal(store, "payer@x.com")

	t.Run("FindGroup", func(t *testing.T) {
		got, err := l.FindGroup(ctx, "at&t")
		require.NoError(t, err)
		assert.Equal(t, group.ID, got.ID)
		assert.Len(t, got.Members, 2)

		_, err = l.FindGroup(ctx, "t-mobile")
		assert.ErrorIs(t, err, ErrGroupNotFound)
	})

	t.Run("CurrentMember", func(t *testing.T) {
		me, err := l.CurrentMember(ctx)
		require.NoError(t, err)
		assert.Equal(t, payer.ID, me.ID)

		me, err = l.As("other@x.com").CurrentMember(ctx)
		require.NoError(t, err)
		assert.Equal(t, other.ID, me.ID)

		_, err = l.As("ghost@x.com").CurrentMember(ctx)
		assert.ErrorIs(t, err, ErrUnknownPayer)

		_, err = NewLocal(store, "").CurrentMember(ctx)
		assert.ErrorIs(t, err, ErrUnknownPayer)
	})

	t.Run("CreateExpense", func(t *testing.T) {
		expense := &models.Expense{
			GroupID:     group.ID,
			Description: "Wireless Bill for Nov 2025",
			Cost:        decimal.NewFromInt(10),
			PayerID:     payer.ID,
			Fingerprint: "abc",
			Shares: []models.ExpenseShare{
				{MemberID: payer.ID, Owed: decimal.NewFromInt(5), Paid: decimal.NewFromInt(10)},
				{MemberID: other.ID, Owed: decimal.NewFromInt(5), Paid: decimal.Zero},
			},
		}
		id, err := l.CreateExpense(ctx, expense)
		require.NoError(t, err)
		assert.NotEmpty(t, id)

		stored, err := store.GetExpense(ctx, id)
		require.NoError(t, err)
		assert.Len(t, stored.Shares, 2)

		again := *expense
		again.ID = ""
		_, err = l.CreateExpense(ctx, &again)
		assert.True(t, errors.Is(err, storage.ErrDuplicateExpense), "error = %v", err)
	})
}
