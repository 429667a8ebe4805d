package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"pantryhub-api/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_DecrementItem(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.CreateItem(ctx, model.InventoryItem{ID: "i1", Name: "rice", Quantity: 3}))

	err := store.RunInTx(ctx, func(tx Tx) error {
		ok, err := tx.DecrementItem(ctx, "i1", 5)
		require.NoError(t, err)
		assert.False(t, ok, "over stock")

		ok, err = tx.DecrementItem(ctx, "i1", 3)
		require.NoError(t, err)
		assert.True(t, ok, "exactly the remaining stock")

		ok, err = tx.DecrementItem(ctx, "i1", 1)
		require.NoError(t, err)
		assert.False(t, ok, "nothing left")

		ok, err = tx.DecrementItem(ctx, "missing", 1)
		require.NoError(t, err)
		assert.False(t, ok, "unknown item")
		return nil
	})
	require.NoError(t, err)

	item, err := store.GetItem(ctx, "i1")
	require.NoError(t, err)
	assert.Equal(t, 0.0, item.Quantity)
}

func TestMemoryStore_RunInTxRollsBackOnError(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.CreateItem(ctx, model.InventoryItem{ID: "i1", Name: "rice", Quantity: 10}))

	boom := errors.New("boom")
	err := store.RunInTx(ctx, func(tx Tx) error {
		ok, err := tx.DecrementItem(ctx, "i1", 4)
		require.NoError(t, err)
		require.True(t, ok)
		require.NoError(t, tx.AppendTransaction(ctx, model.TransactionRecord{ID: "t1", Type: model.TransactionOut, ItemID: "i1"}))
		require.NoError(t, tx.CreateOrder(ctx, model.Order{ID: "o1", Status: model.OrderPending}))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	item, err := store.GetItem(ctx, "i1")
	require.NoError(t, err)
	assert.Equal(t, 10.0, item.Quantity, "decrement rolled back")

	recs, err := store.ListTransactions(ctx, model.TransactionFilter{})
	require.NoError(t, err)
	assert.Empty(t, recs)

	order, err := store.GetOrder(ctx, "o1")
	require.NoError(t, err)
	assert.Nil(t, order)
}

func TestMemoryStore_MissingLookupsReturnNil(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	item, err := store.GetItem(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, item)

	order, err := store.GetOrder(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, order)

	last, err := store.LastCheckout(ctx, "student-1", "missing")
	require.NoError(t, err)
	assert.Nil(t, last)
}

func TestMemoryStore_LastCheckoutPicksNewest(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	base := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

	err := store.RunInTx(ctx, func(tx Tx) error {
		for i, ts := range []time.Time{base, base.Add(2 * time.Hour), base.Add(time.Hour)} {
			if err := tx.AppendCheckout(ctx, model.CheckoutRecord{
				ID: string(rune('a' + i)), StudentID: "student-1", ItemID: "i1", Timestamp: ts,
			}); err != nil {
				return err
			}
		}
		return tx.AppendCheckout(ctx, model.CheckoutRecord{
			ID: "other", StudentID: "student-2", ItemID: "i1", Timestamp: base.Add(3 * time.Hour),
		})
	})
	require.NoError(t, err)

	last, err := store.LastCheckout(ctx, "student-1", "i1")
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, base.Add(2*time.Hour), last.Timestamp)
}

func TestMemoryStore_ListTransactionsFilter(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	base := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

	err := store.RunInTx(ctx, func(tx Tx) error {
		recs := []model.TransactionRecord{
			{ID: "t1", Type: model.TransactionIn, ItemID: "i1", Timestamp: base},
			{ID: "t2", Type: model.TransactionOut, ItemID: "i1", Timestamp: base.Add(time.Hour)},
			{ID: "t3", Type: model.TransactionOut, ItemID: "i2", Timestamp: base.Add(2 * time.Hour)},
		}
		for _, rec := range recs {
			if err := tx.AppendTransaction(ctx, rec); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)

	out, err := store.ListTransactions(ctx, model.TransactionFilter{Type: model.TransactionOut})
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "t3", out[0].ID, "newest first")

	byItem, err := store.ListTransactions(ctx, model.TransactionFilter{ItemID: "i1"})
	require.NoError(t, err)
	assert.Len(t, byItem, 2)

	since, err := store.ListTransactions(ctx, model.TransactionFilter{Since: base.Add(90 * time.Minute)})
	require.NoError(t, err)
	require.Len(t, since, 1)
	assert.Equal(t, "t3", since[0].ID)

	limited, err := store.ListTransactions(ctx, model.TransactionFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestMemoryStore_StalePendingOrders(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	base := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

	err := store.RunInTx(ctx, func(tx Tx) error {
		orders := []model.Order{
			{ID: "old-pending", Status: model.OrderPending, CreatedAt: base.Add(-96 * time.Hour)},
			{ID: "old-fulfilled", Status: model.OrderFulfilled, CreatedAt: base.Add(-96 * time.Hour)},
			{ID: "fresh-pending", Status: model.OrderPending, CreatedAt: base.Add(-time.Hour)},
		}
		for _, o := range orders {
			if err := tx.CreateOrder(ctx, o); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)

	stale, err := store.StalePendingOrders(ctx, base.Add(-72*time.Hour))
	require.NoError(t, err)
	require.Len(t, stale, 1)
	assert.Equal(t, "old-pending", stale[0].ID)
}
