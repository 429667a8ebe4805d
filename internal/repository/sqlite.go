package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"pantryhub-api/internal/model"

	_ "modernc.org/sqlite" // Pure Go SQLite driver - no CGO required
)

// SQLiteStore implements Store using SQLite.
// Thread-safe with WAL mode for high-concurrency reads.
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLiteStore creates a new SQLite store.
// dbPath is the path to the SQLite database file (e.g., "./data/pantry.db")
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_cache_size=10000&_busy_timeout=5000", dbPath)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite only supports 1 writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := createSQLiteTables(db); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	log.Printf("[SQLiteStore] Initialized with database: %s", dbPath)
	return &SQLiteStore{db: db}, nil
}

func createSQLiteTables(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS pantry_items (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		category TEXT NOT NULL,
		quantity REAL NOT NULL DEFAULT 0 CHECK (quantity >= 0),
		unit TEXT NOT NULL,
		is_weighed INTEGER NOT NULL DEFAULT 0,
		has_limit INTEGER NOT NULL DEFAULT 0,
		student_limit REAL NOT NULL DEFAULT 0,
		limit_duration_days INTEGER NOT NULL DEFAULT 0,
		limit_duration_minutes INTEGER NOT NULL DEFAULT 0,
		cost REAL NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);
	CREATE TABLE IF NOT EXISTS pantry_checkouts (
		id TEXT PRIMARY KEY,
		student_id TEXT NOT NULL,
		item_id TEXT NOT NULL,
		quantity REAL NOT NULL,
		unit TEXT NOT NULL,
		ts DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_checkouts_student_item ON pantry_checkouts(student_id, item_id, ts);
	CREATE TABLE IF NOT EXISTS pantry_transactions (
		id TEXT PRIMARY KEY,
		type TEXT NOT NULL,
		item_id TEXT NOT NULL,
		item_name TEXT NOT NULL,
		quantity REAL NOT NULL,
		unit TEXT NOT NULL,
		actor_id TEXT NOT NULL,
		cost REAL NOT NULL DEFAULT 0,
		total_cost REAL NOT NULL DEFAULT 0,
		ts DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_transactions_ts ON pantry_transactions(ts);
	CREATE INDEX IF NOT EXISTS idx_transactions_item ON pantry_transactions(item_id);
	CREATE TABLE IF NOT EXISTS pantry_orders (
		id TEXT PRIMARY KEY,
		student_id TEXT NOT NULL,
		lines_json TEXT NOT NULL,
		status TEXT NOT NULL,
		stock_applied INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL,
		fulfilled_at DATETIME,
		notified INTEGER NOT NULL DEFAULT 0,
		error TEXT NOT NULL DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS idx_orders_status ON pantry_orders(status, created_at);
	`
	_, err := db.Exec(query)
	return err
}

const sqliteItemColumns = `id, name, category, quantity, unit, is_weighed, has_limit,
	student_limit, limit_duration_days, limit_duration_minutes, cost, created_at, updated_at`

func scanSQLiteItem(row interface{ Scan(...interface{}) error }) (*model.InventoryItem, error) {
	var it model.InventoryItem
	err := row.Scan(&it.ID, &it.Name, &it.Category, &it.Quantity, &it.Unit, &it.IsWeighed,
		&it.HasLimit, &it.StudentLimit, &it.LimitDurationDays, &it.LimitDurationMinutes,
		&it.Cost, &it.CreatedAt, &it.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &it, nil
}

// GetItem retrieves an inventory item by ID.
func (s *SQLiteStore) GetItem(ctx context.Context, id string) (*model.InventoryItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT ` + sqliteItemColumns + ` FROM pantry_items WHERE id = ?`
	it, err := scanSQLiteItem(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get item: %w", err)
	}
	return it, nil
}

// ListItems returns all inventory items ordered by name.
func (s *SQLiteStore) ListItems(ctx context.Context) ([]model.InventoryItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT ` + sqliteItemColumns + ` FROM pantry_items ORDER BY name`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	defer rows.Close()

	var items []model.InventoryItem
	for rows.Next() {
		it, err := scanSQLiteItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, *it)
	}
	return items, rows.Err()
}

// CreateItem inserts a new inventory item.
func (s *SQLiteStore) CreateItem(ctx context.Context, item model.InventoryItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `INSERT INTO pantry_items (` + sqliteItemColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, query, item.ID, item.Name, item.Category, item.Quantity,
		item.Unit, item.IsWeighed, item.HasLimit, item.StudentLimit, item.LimitDurationDays,
		item.LimitDurationMinutes, item.Cost, item.CreatedAt, item.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create item: %w", err)
	}
	return nil
}

// UpdateItem overwrites an existing item by ID.
func (s *SQLiteStore) UpdateItem(ctx context.Context, item model.InventoryItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `UPDATE pantry_items SET name = ?, category = ?, quantity = ?, unit = ?,
		is_weighed = ?, has_limit = ?, student_limit = ?, limit_duration_days = ?,
		limit_duration_minutes = ?, cost = ?, updated_at = ? WHERE id = ?`
	_, err := s.db.ExecContext(ctx, query, item.Name, item.Category, item.Quantity, item.Unit,
		item.IsWeighed, item.HasLimit, item.StudentLimit, item.LimitDurationDays,
		item.LimitDurationMinutes, item.Cost, item.UpdatedAt, item.ID)
	if err != nil {
		return fmt.Errorf("failed to update item: %w", err)
	}
	return nil
}

// DeleteItem removes an item.
func (s *SQLiteStore) DeleteItem(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, `DELETE FROM pantry_items WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}
	return nil
}

// LastCheckout returns the student's most recent checkout of an item.
func (s *SQLiteStore) LastCheckout(ctx context.Context, studentID, itemID string) (*model.CheckoutRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT id, student_id, item_id, quantity, unit, ts FROM pantry_checkouts
		WHERE student_id = ? AND item_id = ? ORDER BY ts DESC LIMIT 1`

	var rec model.CheckoutRecord
	err := s.db.QueryRowContext(ctx, query, studentID, itemID).
		Scan(&rec.ID, &rec.StudentID, &rec.ItemID, &rec.Quantity, &rec.Unit, &rec.Timestamp)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get last checkout: %w", err)
	}
	return &rec, nil
}

// RecentCheckouts returns a student's checkout history, newest first.
func (s *SQLiteStore) RecentCheckouts(ctx context.Context, studentID string, limit int) ([]model.CheckoutRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}
	query := `SELECT id, student_id, item_id, quantity, unit, ts FROM pantry_checkouts
		WHERE student_id = ? ORDER BY ts DESC LIMIT ?`

	rows, err := s.db.QueryContext(ctx, query, studentID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list checkouts: %w", err)
	}
	defer rows.Close()

	var recs []model.CheckoutRecord
	for rows.Next() {
		var rec model.CheckoutRecord
		if err := rows.Scan(&rec.ID, &rec.StudentID, &rec.ItemID, &rec.Quantity, &rec.Unit, &rec.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan checkout: %w", err)
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// ListTransactions returns ledger entries matching the filter, newest first.
func (s *SQLiteStore) ListTransactions(ctx context.Context, filter model.TransactionFilter) ([]model.TransactionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT id, type, item_id, item_name, quantity, unit, actor_id, cost, total_cost, ts
		FROM pantry_transactions WHERE 1=1`
	var args []interface{}
	if filter.Type != "" {
		query += ` AND type = ?`
		args = append(args, filter.Type)
	}
	if filter.ItemID != "" {
		query += ` AND item_id = ?`
		args = append(args, filter.ItemID)
	}
	if !filter.Since.IsZero() {
		query += ` AND ts >= ?`
		args = append(args, filter.Since)
	}
	query += ` ORDER BY ts DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	var recs []model.TransactionRecord
	for rows.Next() {
		var rec model.TransactionRecord
		if err := rows.Scan(&rec.ID, &rec.Type, &rec.ItemID, &rec.ItemName, &rec.Quantity,
			&rec.Unit, &rec.ActorID, &rec.Cost, &rec.TotalCost, &rec.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

func scanSQLiteOrder(row interface{ Scan(...interface{}) error }) (*model.Order, error) {
	var o model.Order
	var linesJSON string
	var fulfilledAt sql.NullTime
	err := row.Scan(&o.ID, &o.StudentID, &linesJSON, &o.Status, &o.StockApplied,
		&o.CreatedAt, &fulfilledAt, &o.Notified, &o.Error)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(linesJSON), &o.Lines); err != nil {
		return nil, fmt.Errorf("failed to decode order lines: %w", err)
	}
	if fulfilledAt.Valid {
		o.FulfilledAt = &fulfilledAt.Time
	}
	return &o, nil
}

// GetOrder retrieves an order by ID.
func (s *SQLiteStore) GetOrder(ctx context.Context, id string) (*model.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT id, student_id, lines_json, status, stock_applied, created_at, fulfilled_at, notified, error
		FROM pantry_orders WHERE id = ?`
	o, err := scanSQLiteOrder(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return o, nil
}

// ListOrders returns orders, optionally filtered by status, newest first.
func (s *SQLiteStore) ListOrders(ctx context.Context, status model.OrderStatus) ([]model.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT id, student_id, lines_json, status, stock_applied, created_at, fulfilled_at, notified, error
		FROM pantry_orders`
	var args []interface{}
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC`

	return s.queryOrders(ctx, query, args...)
}

// StalePendingOrders returns pending orders created before the cutoff.
func (s *SQLiteStore) StalePendingOrders(ctx context.Context, cutoff time.Time) ([]model.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT id, student_id, lines_json, status, stock_applied, created_at, fulfilled_at, notified, error
		FROM pantry_orders WHERE status = ? AND created_at < ? ORDER BY created_at`
	return s.queryOrders(ctx, query, model.OrderPending, cutoff)
}

func (s *SQLiteStore) queryOrders(ctx context.Context, query string, args ...interface{}) ([]model.Order, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	var orders []model.Order
	for rows.Next() {
		o, err := scanSQLiteOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, *o)
	}
	return orders, rows.Err()
}

// RunInTx executes fn within a single SQLite transaction.
func (s *SQLiteStore) RunInTx(ctx context.Context, fn func(tx Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&sqliteTx{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// sqliteTx implements Tx on an open *sql.Tx.
type sqliteTx struct {
	tx *sql.Tx
}

// DecrementItem subtracts stock only if enough remains at mutation time.
func (t *sqliteTx) DecrementItem(ctx context.Context, itemID string, qty float64) (bool, error) {
	res, err := t.tx.ExecContext(ctx,
		`UPDATE pantry_items SET quantity = quantity - ?, updated_at = ? WHERE id = ? AND quantity >= ?`,
		qty, time.Now().UTC(), itemID, qty)
	if err != nil {
		return false, fmt.Errorf("failed to decrement item: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// IncrementItem adds qty back to an item's stock.
func (t *sqliteTx) IncrementItem(ctx context.Context, itemID string, qty float64) error {
	_, err := t.tx.ExecContext(ctx,
		`UPDATE pantry_items SET quantity = quantity + ?, updated_at = ? WHERE id = ?`,
		qty, time.Now().UTC(), itemID)
	if err != nil {
		return fmt.Errorf("failed to increment item: %w", err)
	}
	return nil
}

// AppendTransaction appends one ledger entry.
func (t *sqliteTx) AppendTransaction(ctx context.Context, rec model.TransactionRecord) error {
	_, err := t.tx.ExecContext(ctx,
		`INSERT INTO pantry_transactions (id, type, item_id, item_name, quantity, unit, actor_id, cost, total_cost, ts)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Type, rec.ItemID, rec.ItemName, rec.Quantity, rec.Unit, rec.ActorID,
		rec.Cost, rec.TotalCost, rec.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to append transaction: %w", err)
	}
	return nil
}

// AppendCheckout appends one checkout history record.
func (t *sqliteTx) AppendCheckout(ctx context.Context, rec model.CheckoutRecord) error {
	_, err := t.tx.ExecContext(ctx,
		`INSERT INTO pantry_checkouts (id, student_id, item_id, quantity, unit, ts)
		VALUES (?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.StudentID, rec.ItemID, rec.Quantity, rec.Unit, rec.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to append checkout: %w", err)
	}
	return nil
}

// CreateOrder inserts a new order.
func (t *sqliteTx) CreateOrder(ctx context.Context, o model.Order) error {
	linesJSON, err := json.Marshal(o.Lines)
	if err != nil {
		return fmt.Errorf("failed to encode order lines: %w", err)
	}
	_, err = t.tx.ExecContext(ctx,
		`INSERT INTO pantry_orders (id, student_id, lines_json, status, stock_applied, created_at, fulfilled_at, notified, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		o.ID, o.StudentID, string(linesJSON), o.Status, o.StockApplied, o.CreatedAt,
		nullTime(o.FulfilledAt), o.Notified, o.Error)
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

// UpdateOrder overwrites an order by ID.
func (t *sqliteTx) UpdateOrder(ctx context.Context, o model.Order) error {
	linesJSON, err := json.Marshal(o.Lines)
	if err != nil {
		return fmt.Errorf("failed to encode order lines: %w", err)
	}
	_, err = t.tx.ExecContext(ctx,
		`UPDATE pantry_orders SET student_id = ?, lines_json = ?, status = ?, stock_applied = ?,
		fulfilled_at = ?, notified = ?, error = ? WHERE id = ?`,
		o.StudentID, string(linesJSON), o.Status, o.StockApplied,
		nullTime(o.FulfilledAt), o.Notified, o.Error, o.ID)
	if err != nil {
		return fmt.Errorf("failed to update order: %w", err)
	}
	return nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

// Ensure SQLiteStore implements Store
var _ Store = (*SQLiteStore)(nil)
