package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"pantryhub-api/internal/model"
)

// MemoryStore is an in-memory implementation of Store.
// Use this for development/testing or single-instance deployments.
type MemoryStore struct {
	mu           sync.RWMutex
	items        map[string]model.InventoryItem
	checkouts    []model.CheckoutRecord
	transactions []model.TransactionRecord
	orders       map[string]model.Order
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		items:  make(map[string]model.InventoryItem),
		orders: make(map[string]model.Order),
	}
}

// GetItem retrieves an inventory item by ID.
func (s *MemoryStore) GetItem(ctx context.Context, id string) (*model.InventoryItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	it, ok := s.items[id]
	if !ok {
		return nil, nil
	}
	return &it, nil
}

// ListItems returns all inventory items ordered by name.
func (s *MemoryStore) ListItems(ctx context.Context) ([]model.InventoryItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]model.InventoryItem, 0, len(s.items))
	for _, it := range s.items {
		items = append(items, it)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })
	return items, nil
}

// CreateItem inserts a new inventory item.
func (s *MemoryStore) CreateItem(ctx context.Context, item model.InventoryItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items[item.ID] = item
	return nil
}

// UpdateItem overwrites an existing item by ID.
func (s *MemoryStore) UpdateItem(ctx context.Context, item model.InventoryItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items[item.ID] = item
	return nil
}

// DeleteItem removes an item.
func (s *MemoryStore) DeleteItem(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.items, id)
	return nil
}

// LastCheckout returns the student's most recent checkout of an item.
func (s *MemoryStore) LastCheckout(ctx context.Context, studentID, itemID string) (*model.CheckoutRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var last *model.CheckoutRecord
	for i := range s.checkouts {
		rec := s.checkouts[i]
		if rec.StudentID != studentID || rec.ItemID != itemID {
			continue
		}
		if last == nil || rec.Timestamp.After(last.Timestamp) {
			last = &rec
		}
	}
	return last, nil
}

// RecentCheckouts returns a student's checkout history, newest first.
func (s *MemoryStore) RecentCheckouts(ctx context.Context, studentID string, limit int) ([]model.CheckoutRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}
	var recs []model.CheckoutRecord
	for _, rec := range s.checkouts {
		if rec.StudentID == studentID {
			recs = append(recs, rec)
		}
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].Timestamp.After(recs[j].Timestamp) })
	if len(recs) > limit {
		recs = recs[:limit]
	}
	return recs, nil
}

// ListTransactions returns ledger entries matching the filter, newest first.
func (s *MemoryStore) ListTransactions(ctx context.Context, filter model.TransactionFilter) ([]model.TransactionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var recs []model.TransactionRecord
	for _, rec := range s.transactions {
		if filter.Type != "" && rec.Type != filter.Type {
			continue
		}
		if filter.ItemID != "" && rec.ItemID != filter.ItemID {
			continue
		}
		if !filter.Since.IsZero() && rec.Timestamp.Before(filter.Since) {
			continue
		}
		recs = append(recs, rec)
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].Timestamp.After(recs[j].Timestamp) })
	if filter.Limit > 0 && len(recs) > filter.Limit {
		recs = recs[:filter.Limit]
	}
	return recs, nil
}

// GetOrder retrieves an order by ID.
func (s *MemoryStore) GetOrder(ctx context.Context, id string) (*model.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.orders[id]
	if !ok {
		return nil, nil
	}
	return &o, nil
}

// ListOrders returns orders, optionally filtered by status, newest first.
func (s *MemoryStore) ListOrders(ctx context.Context, status model.OrderStatus) ([]model.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var orders []model.Order
	for _, o := range s.orders {
		if status != "" && o.Status != status {
			continue
		}
		orders = append(orders, o)
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].CreatedAt.After(orders[j].CreatedAt) })
	return orders, nil
}

// StalePendingOrders returns pending orders created before the cutoff.
func (s *MemoryStore) StalePendingOrders(ctx context.Context, cutoff time.Time) ([]model.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var orders []model.Order
	for _, o := range s.orders {
		if o.Status == model.OrderPending && o.CreatedAt.Before(cutoff) {
			orders = append(orders, o)
		}
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].CreatedAt.Before(orders[j].CreatedAt) })
	return orders, nil
}

// RunInTx executes fn against a snapshot of the store and applies the result
// only if fn returns nil. The write lock is held throughout, so the
// conditional decrement cannot race another checkout.
func (s *MemoryStore) RunInTx(ctx context.Context, fn func(tx Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memoryTx{
		items:        make(map[string]model.InventoryItem, len(s.items)),
		orders:       make(map[string]model.Order, len(s.orders)),
		checkouts:    append([]model.CheckoutRecord(nil), s.checkouts...),
		transactions: append([]model.TransactionRecord(nil), s.transactions...),
	}
	for k, v := range s.items {
		tx.items[k] = v
	}
	for k, v := range s.orders {
		tx.orders[k] = v
	}

	if err := fn(tx); err != nil {
		return err
	}

	s.items = tx.items
	s.orders = tx.orders
	s.checkouts = tx.checkouts
	s.transactions = tx.transactions
	return nil
}

// Close is a no-op for the memory store.
func (s *MemoryStore) Close() error {
	return nil
}

// memoryTx implements Tx on cloned state; the parent swaps it in on commit.
type memoryTx struct {
	items        map[string]model.InventoryItem
	orders       map[string]model.Order
	checkouts    []model.CheckoutRecord
	transactions []model.TransactionRecord
}

// epsilon absorbs float drift when comparing weighed quantities.
const epsilon = 1e-9

// DecrementItem subtracts stock only if enough remains at mutation time.
func (t *memoryTx) DecrementItem(ctx context.Context, itemID string, qty float64) (bool, error) {
	it, ok := t.items[itemID]
	if !ok || it.Quantity+epsilon < qty {
		return false, nil
	}
	it.Quantity -= qty
	if it.Quantity < 0 {
		it.Quantity = 0
	}
	it.UpdatedAt = time.Now().UTC()
	t.items[itemID] = it
	return true, nil
}

// IncrementItem adds qty back to an item's stock.
func (t *memoryTx) IncrementItem(ctx context.Context, itemID string, qty float64) error {
	it, ok := t.items[itemID]
	if !ok {
		return nil
	}
	it.Quantity += qty
	it.UpdatedAt = time.Now().UTC()
	t.items[itemID] = it
	return nil
}

// AppendTransaction appends one ledger entry.
func (t *memoryTx) AppendTransaction(ctx context.Context, rec model.TransactionRecord) error {
	t.transactions = append(t.transactions, rec)
	return nil
}

// AppendCheckout appends one checkout history record.
func (t *memoryTx) AppendCheckout(ctx context.Context, rec model.CheckoutRecord) error {
	t.checkouts = append(t.checkouts, rec)
	return nil
}

// CreateOrder inserts a new order.
func (t *memoryTx) CreateOrder(ctx context.Context, o model.Order) error {
	t.orders[o.ID] = o
	return nil
}

// UpdateOrder overwrites an order by ID.
func (t *memoryTx) UpdateOrder(ctx context.Context, o model.Order) error {
	t.orders[o.ID] = o
	return nil
}

// Ensure MemoryStore implements Store
var _ Store = (*MemoryStore)(nil)
