package model

import "time"

// CheckoutRecord is one item line of a completed student checkout.
// Records are immutable once written; they exist to answer cooldown lookups.
type CheckoutRecord struct {
	ID        string    `json:"id"`
	StudentID string    `json:"student_id"`
	ItemID    string    `json:"item_id"`
	Quantity  float64   `json:"quantity"`
	Unit      Unit      `json:"unit"`
	Timestamp time.Time `json:"timestamp"`
}
