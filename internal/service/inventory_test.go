package service

import (
	"context"
	"testing"
	"time"

	"pantryhub-api/internal/cache"
	"pantryhub-api/internal/model"
	"pantryhub-api/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestInventory() (*InventoryService, *repository.MemoryStore) {
	store := repository.NewMemoryStore()
	return NewInventoryService(store, nil, 0), store
}

func TestInventory_CreateItem(t *testing.T) {
	svc, store := newTestInventory()

	item, err := svc.CreateItem(context.Background(), "staff-1", ItemInput{
		Name:     "apples",
		Category: "produce",
		Quantity: 12.5,
		Unit:     "kg",
		Cost:     1.2,
	})

	require.NoError(t, err)
	assert.NotEmpty(t, item.ID)
	assert.Equal(t, model.UnitKg, item.Unit)
	assert.True(t, item.IsWeighed, "derived from the unit")

	// The initial quantity shows up in the ledger as a restock.
	recs, err := store.ListTransactions(context.Background(), model.TransactionFilter{Type: model.TransactionIn})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, 12.5, recs[0].Quantity)
	assert.Equal(t, 15.0, recs[0].TotalCost)
	assert.Equal(t, "staff-1", recs[0].ActorID)
}

func TestInventory_CreateItemZeroQuantityNoLedgerEntry(t *testing.T) {
	svc, store := newTestInventory()

	_, err := svc.CreateItem(context.Background(), "staff-1", ItemInput{
		Name: "soup", Category: "canned", Unit: "item",
	})

	require.NoError(t, err)
	recs, err := store.ListTransactions(context.Background(), model.TransactionFilter{})
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestInventory_CreateItemValidation(t *testing.T) {
	svc, _ := newTestInventory()

	tests := []struct {
		name  string
		input ItemInput
	}{
		{"missing name", ItemInput{Category: "canned", Unit: "item"}},
		{"unknown unit", ItemInput{Name: "x", Category: "canned", Unit: "boxes"}},
		{"unknown category", ItemInput{Name: "x", Category: "misc", Unit: "item"}},
		{"negative quantity", ItemInput{Name: "x", Category: "canned", Unit: "item", Quantity: -1}},
		{"fractional count", ItemInput{Name: "x", Category: "canned", Unit: "item", Quantity: 1.5}},
		{"limit without amount", ItemInput{Name: "x", Category: "canned", Unit: "item", HasLimit: true}},
		{"negative duration", ItemInput{Name: "x", Category: "canned", Unit: "item", HasLimit: true, StudentLimit: 1, LimitDurationDays: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateItem(context.Background(), "staff-1", tt.input)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestInventory_UpdateItemNotFound(t *testing.T) {
	svc, _ := newTestInventory()

	_, err := svc.UpdateItem(context.Background(), "missing", ItemInput{
		Name: "x", Category: "canned", Unit: "item",
	})

	assert.ErrorIs(t, err, ErrItemNotFound)
}

func TestInventory_DeleteKeepsLedger(t *testing.T) {
	svc, store := newTestInventory()
	item, err := svc.CreateItem(context.Background(), "staff-1", ItemInput{
		Name: "rice", Category: "grains", Unit: "item", Quantity: 5,
	})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteItem(context.Background(), item.ID))

	got, err := store.GetItem(context.Background(), item.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	recs, err := store.ListTransactions(context.Background(), model.TransactionFilter{ItemID: item.ID})
	require.NoError(t, err)
	assert.Len(t, recs, 1, "history survives item deletion")
}

func TestInventory_Restock(t *testing.T) {
	svc, store := newTestInventory()
	item, err := svc.CreateItem(context.Background(), "staff-1", ItemInput{
		Name: "rice", Category: "grains", Unit: "item", Quantity: 5,
	})
	require.NoError(t, err)

	updated, err := svc.Restock(context.Background(), item.ID, 10, 0.5, "staff-2")

	require.NoError(t, err)
	assert.Equal(t, 15.0, updated.Quantity)

	got, err := store.GetItem(context.Background(), item.ID)
	require.NoError(t, err)
	assert.Equal(t, 15.0, got.Quantity)

	recs, err := store.ListTransactions(context.Background(), model.TransactionFilter{Type: model.TransactionIn, ItemID: item.ID})
	require.NoError(t, err)
	assert.Len(t, recs, 2, "creation plus restock")
}

func TestInventory_RestockRejectsBadQuantities(t *testing.T) {
	svc, _ := newTestInventory()
	item, err := svc.CreateItem(context.Background(), "staff-1", ItemInput{
		Name: "rice", Category: "grains", Unit: "item", Quantity: 5,
	})
	require.NoError(t, err)

	_, err = svc.Restock(context.Background(), item.ID, 0, 0, "staff-1")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Restock(context.Background(), item.ID, 2.5, 0, "staff-1")
	assert.ErrorIs(t, err, ErrInvalidInput, "fractional restock of a counted item")

	_, err = svc.Restock(context.Background(), "missing", 1, 0, "staff-1")
	assert.ErrorIs(t, err, ErrItemNotFound)
}

func TestInventory_CacheInvalidatedOnWrite(t *testing.T) {
	store := repository.NewMemoryStore()
	memCache := cache.NewMemoryCache()
	defer memCache.Close()
	svc := NewInventoryService(store, memCache, time.Minute)

	first, err := svc.ListItems(context.Background())
	require.NoError(t, err)
	assert.Empty(t, first)

	_, err = svc.CreateItem(context.Background(), "staff-1", ItemInput{
		Name: "rice", Category: "grains", Unit: "item", Quantity: 5,
	})
	require.NoError(t, err)

	// The cached empty list was dropped by the write.
	second, err := svc.ListItems(context.Background())
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, "rice", second[0].Name)
}

func TestInventory_GetStats(t *testing.T) {
	svc, _ := newTestInventory()

	_, err := svc.CreateItem(context.Background(), "staff-1", ItemInput{
		Name: "rice", Category: "grains", Unit: "item", Quantity: 20, Cost: 2,
	})
	require.NoError(t, err)
	low, err := svc.CreateItem(context.Background(), "staff-1", ItemInput{
		Name: "beans", Category: "canned", Unit: "item", Quantity: 3, Cost: 1,
	})
	require.NoError(t, err)

	stats, err := svc.GetStats(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalItems)
	assert.Equal(t, 43.0, stats.InventoryValue)
	assert.Equal(t, map[model.Category]int{
		model.CategoryGrains: 1,
		model.CategoryCanned: 1,
	}, stats.ItemsByCategory)
	require.Len(t, stats.LowStock, 1)
	assert.Equal(t, low.ID, stats.LowStock[0].ID)
	assert.Equal(t, 2, stats.RestocksLast7Days)
	assert.Equal(t, 0, stats.CheckoutsLast7Days)
}
