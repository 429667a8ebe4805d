package service

import (
	"errors"
	"fmt"
)

// Business outcomes surfaced to callers as structured reasons. These are
// definitive answers, never retried; only store-layer failures (returned
// wrapped from the repository) are transient.
var (
	ErrItemNotFound      = errors.New("item not found")
	ErrOrderNotFound     = errors.New("order not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrOrderNotPending   = errors.New("order is not pending")
	ErrNoItems           = errors.New("no items requested")
	ErrInvalidInput      = errors.New("invalid input")
)

// Denial reasons shared between the eligibility engine and the orchestrator.
const (
	ReasonItemNotFound = "Item not found"
	ReasonOutOfStock   = "Not enough quantity in stock"
)

// stockConflict reports a conditional decrement that failed at mutation time,
// after validation had already passed (a lost race).
type stockConflict struct {
	ItemID   string
	ItemName string
}

func (e *stockConflict) Error() string {
	return fmt.Sprintf("insufficient stock for %s at mutation time", e.ItemName)
}

func (e *stockConflict) Unwrap() error {
	return ErrInsufficientStock
}
