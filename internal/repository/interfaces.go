package repository

import (
	"context"
	"time"

	"pantryhub-api/internal/model"
)

// Store defines all pantry data access. Backends (sqlite, postgres, mysql,
// memory) are interchangeable and selected at startup; business logic never
// branches on which one is in use.
//
// Lookup methods return (nil, nil) when the record does not exist.
type Store interface {
	// GetItem retrieves an inventory item by ID.
	GetItem(ctx context.Context, id string) (*model.InventoryItem, error)

	// ListItems returns all inventory items ordered by name.
	ListItems(ctx context.Context) ([]model.InventoryItem, error)

	// CreateItem inserts a new inventory item.
	CreateItem(ctx context.Context, item model.InventoryItem) error

	// UpdateItem overwrites an existing item by ID.
	UpdateItem(ctx context.Context, item model.InventoryItem) error

	// DeleteItem removes an item. Ledger and history rows are kept.
	DeleteItem(ctx context.Context, id string) error

	// LastCheckout returns the student's most recent checkout of an item.
	LastCheckout(ctx context.Context, studentID, itemID string) (*model.CheckoutRecord, error)

	// RecentCheckouts returns a student's checkout history, newest first.
	RecentCheckouts(ctx context.Context, studentID string, limit int) ([]model.CheckoutRecord, error)

	// ListTransactions returns ledger entries matching the filter, newest first.
	ListTransactions(ctx context.Context, filter model.TransactionFilter) ([]model.TransactionRecord, error)

	// GetOrder retrieves an order by ID.
	GetOrder(ctx context.Context, id string) (*model.Order, error)

	// ListOrders returns orders, optionally filtered by status, newest first.
	ListOrders(ctx context.Context, status model.OrderStatus) ([]model.Order, error)

	// StalePendingOrders returns pending orders created before the cutoff.
	StalePendingOrders(ctx context.Context, cutoff time.Time) ([]model.Order, error)

	// RunInTx executes fn within a single transaction. All writes made through
	// the Tx take effect only if fn returns nil; any error rolls back every one
	// of them.
	RunInTx(ctx context.Context, fn func(tx Tx) error) error

	// Close closes the underlying connection.
	Close() error
}

// Tx exposes the write operations valid inside a Store transaction.
type Tx interface {
	// DecrementItem atomically subtracts qty from an item's stock, but only if
	// enough stock remains at mutation time (conditional update). Returns false
	// without mutating when stock is insufficient or the item is gone.
	DecrementItem(ctx context.Context, itemID string, qty float64) (bool, error)

	// IncrementItem adds qty back to an item's stock.
	IncrementItem(ctx context.Context, itemID string, qty float64) error

	// AppendTransaction appends one ledger entry.
	AppendTransaction(ctx context.Context, rec model.TransactionRecord) error

	// AppendCheckout appends one checkout history record.
	AppendCheckout(ctx context.Context, rec model.CheckoutRecord) error

	// CreateOrder inserts a new order.
	CreateOrder(ctx context.Context, o model.Order) error

	// UpdateOrder overwrites an order by ID.
	UpdateOrder(ctx context.Context, o model.Order) error
}
