package model

import (
	"fmt"
	"time"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderFulfilled OrderStatus = "fulfilled"
	OrderCancelled OrderStatus = "cancelled"
)

// ParseOrderStatus validates an order status string.
func ParseOrderStatus(s string) (OrderStatus, error) {
	switch OrderStatus(s) {
	case OrderPending, OrderFulfilled, OrderCancelled:
		return OrderStatus(s), nil
	}
	return "", fmt.Errorf("invalid order status %q", s)
}

// OrderLine is one requested item within an order, tagged with the
// category/unit resolved from inventory at creation time.
type OrderLine struct {
	ItemID   string   `json:"item_id"`
	ItemName string   `json:"item_name"`
	Quantity float64  `json:"quantity"`
	Category Category `json:"category"`
	Unit     Unit     `json:"unit"`
}

// Order is a multi-item request with its own fulfillment lifecycle.
// StockApplied records whether inventory has already been decremented for
// this order: true for immediate checkouts, false for deferred orders that
// take stock only at fulfillment. Fulfilled and cancelled are terminal.
type Order struct {
	ID           string      `json:"id"`
	StudentID    string      `json:"student_id"`
	Lines        []OrderLine `json:"lines"`
	Status       OrderStatus `json:"status"`
	StockApplied bool        `json:"stock_applied"`
	CreatedAt    time.Time   `json:"created_at"`
	FulfilledAt  *time.Time  `json:"fulfilled_at,omitempty"`
	Notified     bool        `json:"notified"`
	Error        string      `json:"error,omitempty"`
}
