package model

import (
	"fmt"
	"time"
)

// TransactionType marks the direction of a stock movement.
type TransactionType string

const (
	TransactionIn  TransactionType = "in"  // restock
	TransactionOut TransactionType = "out" // checkout
)

// ParseTransactionType validates a transaction type string.
func ParseTransactionType(s string) (TransactionType, error) {
	switch TransactionType(s) {
	case TransactionIn, TransactionOut:
		return TransactionType(s), nil
	}
	return "", fmt.Errorf("invalid transaction type %q", s)
}

// TransactionRecord is one entry in the append-only stock movement ledger.
// Never mutated after insert.
type TransactionRecord struct {
	ID        string          `json:"id"`
	Type      TransactionType `json:"type"`
	ItemID    string          `json:"item_id"`
	ItemName  string          `json:"item_name"`
	Quantity  float64         `json:"quantity"`
	Unit      Unit            `json:"unit"`
	ActorID   string          `json:"actor_id"`
	Cost      float64         `json:"cost,omitempty"`
	TotalCost float64         `json:"total_cost,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// TransactionFilter narrows ledger listings. Zero values mean "no filter".
type TransactionFilter struct {
	Type   TransactionType
	ItemID string
	Since  time.Time
	Limit  int
}
