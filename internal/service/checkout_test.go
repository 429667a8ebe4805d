package service

import (
	"context"
	"testing"
	"time"

	"pantryhub-api/internal/model"
	"pantryhub-api/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCheckout(now time.Time) (*CheckoutService, *repository.MemoryStore) {
	store := repository.NewMemoryStore()
	eligibility := NewEligibility(store)
	eligibility.now = func() time.Time { return now }
	svc := NewCheckoutService(store, eligibility)
	svc.now = func() time.Time { return now }
	return svc, store
}

func itemQuantity(t *testing.T, store *repository.MemoryStore, id string) float64 {
	t.Helper()
	item, err := store.GetItem(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, item)
	return item.Quantity
}

func countTransactions(t *testing.T, store *repository.MemoryStore, typ model.TransactionType) int {
	t.Helper()
	recs, err := store.ListTransactions(context.Background(), model.TransactionFilter{Type: typ})
	require.NoError(t, err)
	return len(recs)
}

func TestCheckout_RoundTrip(t *testing.T) {
	now := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	svc, store := newTestCheckout(now)
	rice := seedItem(t, store, model.InventoryItem{Name: "rice", Quantity: 10, Cost: 2.5})
	beans := seedItem(t, store, model.InventoryItem{Name: "beans", Quantity: 6})

	result, err := svc.Checkout(context.Background(), "student-1", []CheckoutLine{
		{ItemID: rice.ID, Quantity: 2},
		{ItemID: beans.ID, Quantity: 1},
	})

	require.NoError(t, err)
	require.True(t, result.Success)
	require.NotEmpty(t, result.OrderID)

	assert.Equal(t, 8.0, itemQuantity(t, store, rice.ID))
	assert.Equal(t, 5.0, itemQuantity(t, store, beans.ID))

	// One "out" ledger entry per line, costed from the item.
	recs, err := store.ListTransactions(context.Background(), model.TransactionFilter{Type: model.TransactionOut})
	require.NoError(t, err)
	require.Len(t, recs, 2)
	for _, rec := range recs {
		if rec.ItemID == rice.ID {
			assert.Equal(t, 5.0, rec.TotalCost)
		}
		assert.Equal(t, "student-1", rec.ActorID)
		assert.Equal(t, now, rec.Timestamp)
	}

	// One checkout history record per line.
	history, err := store.RecentCheckouts(context.Background(), "student-1", 0)
	require.NoError(t, err)
	assert.Len(t, history, 2)

	// The order is pending and its stock has already been taken.
	order, err := store.GetOrder(context.Background(), result.OrderID)
	require.NoError(t, err)
	require.NotNil(t, order)
	assert.Equal(t, model.OrderPending, order.Status)
	assert.True(t, order.StockApplied)
	assert.Len(t, order.Lines, 2)
}

func TestCheckout_InvalidLineBlocksWholeBatch(t *testing.T) {
	svc, store := newTestCheckout(time.Now().UTC())
	rice := seedItem(t, store, model.InventoryItem{Name: "rice", Quantity: 10})
	pasta := seedItem(t, store, model.InventoryItem{
		Name: "pasta", Quantity: 5, HasLimit: true, StudentLimit: 1, LimitDurationDays: 7,
	})

	result, err := svc.Checkout(context.Background(), "student-1", []CheckoutLine{
		{ItemID: rice.ID, Quantity: 2},  // valid
		{ItemID: pasta.ID, Quantity: 3}, // over the per-student limit
	})

	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Empty(t, result.OrderID)
	assert.Equal(t, map[string]string{pasta.ID: "Limited to 1 item"}, result.Errors)

	// Nothing was mutated, including the valid line.
	assert.Equal(t, 10.0, itemQuantity(t, store, rice.ID))
	assert.Equal(t, 5.0, itemQuantity(t, store, pasta.ID))
	assert.Zero(t, countTransactions(t, store, model.TransactionOut))

	orders, err := store.ListOrders(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestCheckout_CollectsAllFailures(t *testing.T) {
	svc, store := newTestCheckout(time.Now().UTC())
	rice := seedItem(t, store, model.InventoryItem{Name: "rice", Quantity: 1})

	result, err := svc.Checkout(context.Background(), "student-1", []CheckoutLine{
		{ItemID: rice.ID, Quantity: 5},
		{ItemID: "ghost", Quantity: 1},
	})

	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, map[string]string{
		rice.ID: "Not enough quantity in stock",
		"ghost": "Item not found",
	}, result.Errors)
}

func TestCheckout_NoItems(t *testing.T) {
	svc, _ := newTestCheckout(time.Now().UTC())

	_, err := svc.Checkout(context.Background(), "student-1", nil)

	assert.ErrorIs(t, err, ErrNoItems)
}

func TestCheckout_SecondVisitHitsCooldown(t *testing.T) {
	now := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	svc, store := newTestCheckout(now)
	cereal := seedItem(t, store, model.InventoryItem{
		Name: "cereal", Quantity: 10, HasLimit: true, StudentLimit: 2, LimitDurationDays: 7,
	})

	first, err := svc.Checkout(context.Background(), "student-1", []CheckoutLine{{ItemID: cereal.ID, Quantity: 2}})
	require.NoError(t, err)
	require.True(t, first.Success)

	second, err := svc.Checkout(context.Background(), "student-1", []CheckoutLine{{ItemID: cereal.ID, Quantity: 1}})
	require.NoError(t, err)
	assert.False(t, second.Success)
	assert.Equal(t, "Available in 7 days", second.Errors[cereal.ID])

	// Other students are unaffected.
	other, err := svc.Checkout(context.Background(), "student-2", []CheckoutLine{{ItemID: cereal.ID, Quantity: 2}})
	require.NoError(t, err)
	assert.True(t, other.Success)
}

func TestAdminCheckout_BypassesLimitsNotStock(t *testing.T) {
	now := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	svc, store := newTestCheckout(now)
	pasta := seedItem(t, store, model.InventoryItem{
		Name: "pasta", Quantity: 4, HasLimit: true, StudentLimit: 1, LimitDurationDays: 7,
	})

	over, err := svc.AdminCheckout(context.Background(), "staff-1", "student-1", []CheckoutLine{{ItemID: pasta.ID, Quantity: 3}})
	require.NoError(t, err)
	assert.True(t, over.Success, "limit does not apply to admin checkouts")
	assert.Equal(t, 1.0, itemQuantity(t, store, pasta.ID))

	// The ledger records the admin as the actor.
	recs, err := store.ListTransactions(context.Background(), model.TransactionFilter{Type: model.TransactionOut})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "staff-1", recs[0].ActorID)

	tooMany, err := svc.AdminCheckout(context.Background(), "staff-1", "student-1", []CheckoutLine{{ItemID: pasta.ID, Quantity: 2}})
	require.NoError(t, err)
	assert.False(t, tooMany.Success, "stock sufficiency still applies")
	assert.Equal(t, "Not enough quantity in stock", tooMany.Errors[pasta.ID])
}

func TestPlaceOrder_DefersStock(t *testing.T) {
	now := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	svc, store := newTestCheckout(now)
	rice := seedItem(t, store, model.InventoryItem{Name: "rice", Quantity: 10})

	result, err := svc.PlaceOrder(context.Background(), "student-1", []CheckoutLine{{ItemID: rice.ID, Quantity: 2}})

	require.NoError(t, err)
	require.True(t, result.Success)

	// Validated but nothing taken yet.
	assert.Equal(t, 10.0, itemQuantity(t, store, rice.ID))
	assert.Zero(t, countTransactions(t, store, model.TransactionOut))

	order, err := store.GetOrder(context.Background(), result.OrderID)
	require.NoError(t, err)
	require.NotNil(t, order)
	assert.Equal(t, model.OrderPending, order.Status)
	assert.False(t, order.StockApplied)
}

func TestFulfillOrder_DeferredTakesStock(t *testing.T) {
	now := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	svc, store := newTestCheckout(now)
	rice := seedItem(t, store, model.InventoryItem{Name: "rice", Quantity: 10, Cost: 2})

	placed, err := svc.PlaceOrder(context.Background(), "student-1", []CheckoutLine{{ItemID: rice.ID, Quantity: 3}})
	require.NoError(t, err)

	order, err := svc.FulfillOrder(context.Background(), placed.OrderID, "staff-1")

	require.NoError(t, err)
	assert.Equal(t, model.OrderFulfilled, order.Status)
	require.NotNil(t, order.FulfilledAt)
	assert.True(t, order.StockApplied)

	assert.Equal(t, 7.0, itemQuantity(t, store, rice.ID))

	recs, err := store.ListTransactions(context.Background(), model.TransactionFilter{Type: model.TransactionOut})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, 6.0, recs[0].TotalCost)

	history, err := store.RecentCheckouts(context.Background(), "student-1", 0)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestFulfillOrder_ImmediateDoesNotDoubleDecrement(t *testing.T) {
	now := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	svc, store := newTestCheckout(now)
	rice := seedItem(t, store, model.InventoryItem{Name: "rice", Quantity: 10})

	checked, err := svc.Checkout(context.Background(), "student-1", []CheckoutLine{{ItemID: rice.ID, Quantity: 2}})
	require.NoError(t, err)
	require.True(t, checked.Success)
	require.Equal(t, 8.0, itemQuantity(t, store, rice.ID))

	order, err := svc.FulfillOrder(context.Background(), checked.OrderID, "staff-1")

	require.NoError(t, err)
	assert.Equal(t, model.OrderFulfilled, order.Status)
	assert.Equal(t, 8.0, itemQuantity(t, store, rice.ID), "stock was already taken at checkout")
	assert.Equal(t, 1, countTransactions(t, store, model.TransactionOut))
}

func TestFulfillOrder_InsufficientStock(t *testing.T) {
	now := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	svc, store := newTestCheckout(now)
	rice := seedItem(t, store, model.InventoryItem{Name: "rice", Quantity: 5})

	placed, err := svc.PlaceOrder(context.Background(), "student-1", []CheckoutLine{{ItemID: rice.ID, Quantity: 4}})
	require.NoError(t, err)

	// Stock drains between placement and fulfillment.
	drained, err := svc.Checkout(context.Background(), "student-2", []CheckoutLine{{ItemID: rice.ID, Quantity: 3}})
	require.NoError(t, err)
	require.True(t, drained.Success)

	_, err = svc.FulfillOrder(context.Background(), placed.OrderID, "staff-1")

	assert.ErrorIs(t, err, ErrInsufficientStock)

	// Nothing applied, the order stays pending with the failure recorded.
	assert.Equal(t, 2.0, itemQuantity(t, store, rice.ID))
	order, getErr := store.GetOrder(context.Background(), placed.OrderID)
	require.NoError(t, getErr)
	require.NotNil(t, order)
	assert.Equal(t, model.OrderPending, order.Status)
	assert.False(t, order.StockApplied)
	assert.Contains(t, order.Error, "Not enough quantity in stock")
}

func TestFulfillOrder_NotFound(t *testing.T) {
	svc, _ := newTestCheckout(time.Now().UTC())

	_, err := svc.FulfillOrder(context.Background(), "missing", "staff-1")

	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestCancelOrder_RestoresStock(t *testing.T) {
	now := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	svc, store := newTestCheckout(now)
	rice := seedItem(t, store, model.InventoryItem{Name: "rice", Quantity: 10})

	checked, err := svc.Checkout(context.Background(), "student-1", []CheckoutLine{{ItemID: rice.ID, Quantity: 4}})
	require.NoError(t, err)
	require.Equal(t, 6.0, itemQuantity(t, store, rice.ID))

	order, err := svc.CancelOrder(context.Background(), checked.OrderID, "staff-1")

	require.NoError(t, err)
	assert.Equal(t, model.OrderCancelled, order.Status)
	assert.False(t, order.StockApplied)
	assert.Equal(t, 10.0, itemQuantity(t, store, rice.ID))

	// Restoration shows up in the ledger as an "in" entry.
	assert.Equal(t, 1, countTransactions(t, store, model.TransactionIn))

	// Cancelled is terminal.
	_, err = svc.FulfillOrder(context.Background(), checked.OrderID, "staff-1")
	assert.ErrorIs(t, err, ErrOrderNotPending)
	_, err = svc.CancelOrder(context.Background(), checked.OrderID, "staff-1")
	assert.ErrorIs(t, err, ErrOrderNotPending)
}

func TestCancelOrder_DeferredRestoresNothing(t *testing.T) {
	now := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	svc, store := newTestCheckout(now)
	rice := seedItem(t, store, model.InventoryItem{Name: "rice", Quantity: 10})

	placed, err := svc.PlaceOrder(context.Background(), "student-1", []CheckoutLine{{ItemID: rice.ID, Quantity: 4}})
	require.NoError(t, err)

	order, err := svc.CancelOrder(context.Background(), placed.OrderID, "staff-1")

	require.NoError(t, err)
	assert.Equal(t, model.OrderCancelled, order.Status)
	assert.Equal(t, 10.0, itemQuantity(t, store, rice.ID))
	assert.Zero(t, countTransactions(t, store, model.TransactionIn), "no stock was taken, none is restored")
}
