package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"pantryhub-api/internal/model"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
)

// MySQLStore implements Store using MySQL.
type MySQLStore struct {
	db *sql.DB
}

// NewMySQLStore creates a new MySQL store.
// dsn format: "user:password@tcp(host:port)/dbname?parseTime=true"
func NewMySQLStore(dsn string) (*MySQLStore, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping MySQL: %w", err)
	}

	if err := createMySQLTables(db); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	log.Printf("[MySQLStore] Initialized")
	return &MySQLStore{db: db}, nil
}

func createMySQLTables(db *sql.DB) error {
	// go-sql-driver executes one statement per Exec by default.
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS pantry_items (
			id VARCHAR(64) PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			category VARCHAR(32) NOT NULL,
			quantity DOUBLE NOT NULL DEFAULT 0,
			unit VARCHAR(16) NOT NULL,
			is_weighed TINYINT(1) NOT NULL DEFAULT 0,
			has_limit TINYINT(1) NOT NULL DEFAULT 0,
			student_limit DOUBLE NOT NULL DEFAULT 0,
			limit_duration_days INT NOT NULL DEFAULT 0,
			limit_duration_minutes INT NOT NULL DEFAULT 0,
			cost DOUBLE NOT NULL DEFAULT 0,
			created_at DATETIME(6) NOT NULL,
			updated_at DATETIME(6) NOT NULL,
			CHECK (quantity >= 0)
		)`,
		`CREATE TABLE IF NOT EXISTS pantry_checkouts (
			id VARCHAR(64) PRIMARY KEY,
			student_id VARCHAR(64) NOT NULL,
			item_id VARCHAR(64) NOT NULL,
			quantity DOUBLE NOT NULL,
			unit VARCHAR(16) NOT NULL,
			ts DATETIME(6) NOT NULL,
			INDEX idx_checkouts_student_item (student_id, item_id, ts)
		)`,
		`CREATE TABLE IF NOT EXISTS pantry_transactions (
			id VARCHAR(64) PRIMARY KEY,
			type VARCHAR(8) NOT NULL,
			item_id VARCHAR(64) NOT NULL,
			item_name VARCHAR(255) NOT NULL,
			quantity DOUBLE NOT NULL,
			unit VARCHAR(16) NOT NULL,
			actor_id VARCHAR(64) NOT NULL,
			cost DOUBLE NOT NULL DEFAULT 0,
			total_cost DOUBLE NOT NULL DEFAULT 0,
			ts DATETIME(6) NOT NULL,
			INDEX idx_transactions_ts (ts),
			INDEX idx_transactions_item (item_id)
		)`,
		`CREATE TABLE IF NOT EXISTS pantry_orders (
			id VARCHAR(64) PRIMARY KEY,
			student_id VARCHAR(64) NOT NULL,
			lines_json TEXT NOT NULL,
			status VARCHAR(16) NOT NULL,
			stock_applied TINYINT(1) NOT NULL DEFAULT 0,
			created_at DATETIME(6) NOT NULL,
			fulfilled_at DATETIME(6) NULL,
			notified TINYINT(1) NOT NULL DEFAULT 0,
			error TEXT NOT NULL,
			INDEX idx_orders_status (status, created_at)
		)`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

const mysqlItemColumns = `id, name, category, quantity, unit, is_weighed, has_limit,
	student_limit, limit_duration_days, limit_duration_minutes, cost, created_at, updated_at`

func scanMySQLItem(row interface{ Scan(...interface{}) error }) (*model.InventoryItem, error) {
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
func (s *MySQLStore) GetItem(ctx context.Context, id string) (*model.InventoryItem, error) {
	query := `SELECT ` + mysqlItemColumns + ` FROM pantry_items WHERE id = ?`
	it, err := scanMySQLItem(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get item: %w", err)
	}
	return it, nil
}

// ListItems returns all inventory items ordered by name.
func (s *MySQLStore) ListItems(ctx context.Context) ([]model.InventoryItem, error) {
	query := `SELECT ` + mysqlItemColumns + ` FROM pantry_items ORDER BY name`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	defer rows.Close()

	var items []model.InventoryItem
	for rows.Next() {
		it, err := scanMySQLItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, *it)
	}
	return items, rows.Err()
}

// CreateItem inserts a new inventory item.
func (s *MySQLStore) CreateItem(ctx context.Context, item model.InventoryItem) error {
	query := `INSERT INTO pantry_items (` + mysqlItemColumns + `)
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
func (s *MySQLStore) UpdateItem(ctx context.Context, item model.InventoryItem) error {
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
func (s *MySQLStore) DeleteItem(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM pantry_items WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}
	return nil
}

// LastCheckout returns the student's most recent checkout of an item.
func (s *MySQLStore) LastCheckout(ctx context.Context, studentID, itemID string) (*model.CheckoutRecord, error) {
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
func (s *MySQLStore) RecentCheckouts(ctx context.Context, studentID string, limit int) ([]model.CheckoutRecord, error) {
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
func (s *MySQLStore) ListTransactions(ctx context.Context, filter model.TransactionFilter) ([]model.TransactionRecord, error) {
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

// GetOrder retrieves an order by ID.
func (s *MySQLStore) GetOrder(ctx context.Context, id string) (*model.Order, error) {
	query := `SELECT id, student_id, lines_json, status, stock_applied, created_at, fulfilled_at, notified, error
		FROM pantry_orders WHERE id = ?`

	var o model.Order
	var linesJSON string
	var fulfilledAt sql.NullTime
	err := s.db.QueryRowContext(ctx, query, id).Scan(&o.ID, &o.StudentID, &linesJSON,
		&o.Status, &o.StockApplied, &o.CreatedAt, &fulfilledAt, &o.Notified, &o.Error)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	if err := json.Unmarshal([]byte(linesJSON), &o.Lines); err != nil {
		return nil, fmt.Errorf("failed to decode order lines: %w", err)
	}
	if fulfilledAt.Valid {
		o.FulfilledAt = &fulfilledAt.Time
	}
	return &o, nil
}

// ListOrders returns orders, optionally filtered by status, newest first.
func (s *MySQLStore) ListOrders(ctx context.Context, status model.OrderStatus) ([]model.Order, error) {
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
func (s *MySQLStore) StalePendingOrders(ctx context.Context, cutoff time.Time) ([]model.Order, error) {
	query := `SELECT id, student_id, lines_json, status, stock_applied, created_at, fulfilled_at, notified, error
		FROM pantry_orders WHERE status = ? AND created_at < ? ORDER BY created_at`
	return s.queryOrders(ctx, query, model.OrderPending, cutoff)
}

func (s *MySQLStore) queryOrders(ctx context.Context, query string, args ...interface{}) ([]model.Order, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	var orders []model.Order
	for rows.Next() {
		var o model.Order
		var linesJSON string
		var fulfilledAt sql.NullTime
		if err := rows.Scan(&o.ID, &o.StudentID, &linesJSON, &o.Status, &o.StockApplied,
			&o.CreatedAt, &fulfilledAt, &o.Notified, &o.Error); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		if err := json.Unmarshal([]byte(linesJSON), &o.Lines); err != nil {
			return nil, fmt.Errorf("failed to decode order lines: %w", err)
		}
		if fulfilledAt.Valid {
			o.FulfilledAt = &fulfilledAt.Time
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

// RunInTx executes fn within a single MySQL transaction.
func (s *MySQLStore) RunInTx(ctx context.Context, fn func(tx Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&mysqlTx{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *MySQLStore) Close() error {
	return s.db.Close()
}

// mysqlTx implements Tx on an open *sql.Tx.
type mysqlTx struct {
	tx *sql.Tx
}

// DecrementItem subtracts stock only if enough remains at mutation time.
func (t *mysqlTx) DecrementItem(ctx context.Context, itemID string, qty float64) (bool, error) {
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
func (t *mysqlTx) IncrementItem(ctx context.Context, itemID string, qty float64) error {
	_, err := t.tx.ExecContext(ctx,
		`UPDATE pantry_items SET quantity = quantity + ?, updated_at = ? WHERE id = ?`,
		qty, time.Now().UTC(), itemID)
	if err != nil {
		return fmt.Errorf("failed to increment item: %w", err)
	}
	return nil
}

// AppendTransaction appends one ledger entry.
func (t *mysqlTx) AppendTransaction(ctx context.Context, rec model.TransactionRecord) error {
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
func (t *mysqlTx) AppendCheckout(ctx context.Context, rec model.CheckoutRecord) error {
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
func (t *mysqlTx) CreateOrder(ctx context.Context, o model.Order) error {
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
func (t *mysqlTx) UpdateOrder(ctx context.Context, o model.Order) error {
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

// Ensure MySQLStore implements Store
var _ Store = (*MySQLStore)(nil)
