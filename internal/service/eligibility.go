package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"pantryhub-api/internal/model"
	"pantryhub-api/internal/repository"
	"pantryhub-api/pkg/timefmt"
)

// Decision is the outcome of an eligibility check. Available carries the
// quantity the student could still take when a request is denied for stock
// or limit reasons.
type Decision struct {
	Allowed   bool    `json:"allowed"`
	Reason    string  `json:"reason,omitempty"`
	Available float64 `json:"available_quantity,omitempty"`
}

// Eligibility decides whether a student may take a requested quantity of an
// item right now. It only reads; it never mutates state, so repeated calls
// with unchanged state return identical results.
type Eligibility struct {
	store repository.Store
	now   func() time.Time
}

// NewEligibility creates a new eligibility engine.
func NewEligibility(store repository.Store) *Eligibility {
	return &Eligibility{store: store, now: time.Now}
}

// CanTake checks a single student/item/quantity request. The checks run in
// order and the first failure wins: item existence, stock sufficiency,
// per-checkout limit, re-take cooldown.
func (e *Eligibility) CanTake(ctx context.Context, studentID, itemID string, qty float64) (Decision, error) {
	item, err := e.store.GetItem(ctx, itemID)
	if err != nil {
		return Decision{}, fmt.Errorf("eligibility lookup: %w", err)
	}
	if item == nil {
		return Decision{Reason: ReasonItemNotFound}, nil
	}
	return e.Evaluate(ctx, studentID, item, qty, false)
}

// Evaluate runs the eligibility checks against an already-loaded item.
// skipLimits drops the per-student limit and cooldown checks (admin direct
// checkout); stock sufficiency is never skipped.
func (e *Eligibility) Evaluate(ctx context.Context, studentID string, item *model.InventoryItem, qty float64, skipLimits bool) (Decision, error) {
	if qty <= 0 {
		return Decision{Reason: "Quantity must be positive"}, nil
	}

	if qty > item.Quantity {
		return Decision{Reason: ReasonOutOfStock, Available: item.Quantity}, nil
	}

	if skipLimits || !item.HasLimit {
		return Decision{Allowed: true}, nil
	}

	if qty > item.StudentLimit {
		return Decision{
			Reason:    "Limited to " + item.Unit.FormatQuantity(item.StudentLimit),
			Available: item.StudentLimit,
		}, nil
	}

	last, err := e.store.LastCheckout(ctx, studentID, item.ID)
	if err != nil {
		return Decision{}, fmt.Errorf("eligibility history lookup: %w", err)
	}
	if last != nil {
		cooldown := float64(item.CooldownMinutes())
		elapsed := e.now().Sub(last.Timestamp).Minutes()
		if elapsed < cooldown {
			// Round up so a partial minute still counts as a full one to wait.
			remaining := int(math.Ceil(cooldown - elapsed))
			return Decision{Reason: timefmt.Remaining(remaining)}, nil
		}
	}

	return Decision{Allowed: true}, nil
}
