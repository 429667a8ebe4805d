package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"pantryhub-api/internal/model"
	"pantryhub-api/internal/repository"
	"pantryhub-api/pkg/uid"
)

// CheckoutLine is one requested item in a checkout or order.
type CheckoutLine struct {
	ItemID   string  `json:"item_id"`
	ItemName string  `json:"item_name"`
	Quantity float64 `json:"quantity"`
}

// CheckoutResult reports the outcome of a batch checkout. On failure, Errors
// carries one reason per invalid line so the caller can show all problems at
// once.
type CheckoutResult struct {
	Success bool              `json:"success"`
	OrderID string            `json:"order_id,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
}

// CheckoutService orchestrates checkouts and the order lifecycle: it
// validates every line through the eligibility engine first, and only then
// mutates - inventory decrement, ledger append, history append and order
// creation happen inside one store transaction.
type CheckoutService struct {
	store       repository.Store
	eligibility *Eligibility
	now         func() time.Time
}

// NewCheckoutService creates a new checkout service.
func NewCheckoutService(store repository.Store, eligibility *Eligibility) *CheckoutService {
	return &CheckoutService{store: store, eligibility: eligibility, now: time.Now}
}

// Checkout performs an immediate student checkout of the given lines.
// Nothing is mutated unless every line passes validation.
func (s *CheckoutService) Checkout(ctx context.Context, studentID string, lines []CheckoutLine) (*CheckoutResult, error) {
	return s.checkout(ctx, studentID, studentID, lines, false)
}

// AdminCheckout performs a direct checkout on behalf of a student. Per-student
// limits and cooldowns are bypassed; stock sufficiency never is.
func (s *CheckoutService) AdminCheckout(ctx context.Context, adminID, studentID string, lines []CheckoutLine) (*CheckoutResult, error) {
	return s.checkout(ctx, adminID, studentID, lines, true)
}

func (s *CheckoutService) checkout(ctx context.Context, actorID, studentID string, lines []CheckoutLine, skipLimits bool) (*CheckoutResult, error) {
	items, failures, err := s.validate(ctx, studentID, lines, skipLimits)
	if err != nil {
		return nil, err
	}
	if len(failures) > 0 {
		return &CheckoutResult{Success: false, Errors: failures}, nil
	}

	now := s.now().UTC()
	orderID := uid.New()
	order := model.Order{
		ID:           orderID,
		StudentID:    studentID,
		Lines:        orderLines(lines, items),
		Status:       model.OrderPending,
		StockApplied: true,
		CreatedAt:    now,
	}

	err = s.store.RunInTx(ctx, func(tx repository.Tx) error {
		for _, line := range lines {
			item := items[line.ItemID]
			if err := s.takeLine(ctx, tx, actorID, studentID, item, line.Quantity, now); err != nil {
				return err
			}
		}
		return tx.CreateOrder(ctx, order)
	})
	if err != nil {
		// Validation passed on a stale snapshot but the conditional decrement
		// lost the race; the transaction rolled back and nothing was applied.
		var conflict *stockConflict
		if errors.As(err, &conflict) {
			log.Printf("[CheckoutService] Checkout race on item %s, whole batch rolled back", conflict.ItemID)
			return &CheckoutResult{Success: false, Errors: map[string]string{conflict.ItemID: ReasonOutOfStock}}, nil
		}
		return nil, err
	}

	return &CheckoutResult{Success: true, OrderID: orderID}, nil
}

// PlaceOrder creates a deferred order: every line is validated, but inventory
// is only taken later at fulfillment.
func (s *CheckoutService) PlaceOrder(ctx context.Context, studentID string, lines []CheckoutLine) (*CheckoutResult, error) {
	items, failures, err := s.validate(ctx, studentID, lines, false)
	if err != nil {
		return nil, err
	}
	if len(failures) > 0 {
		return &CheckoutResult{Success: false, Errors: failures}, nil
	}

	order := model.Order{
		ID:        uid.New(),
		StudentID: studentID,
		Lines:     orderLines(lines, items),
		Status:    model.OrderPending,
		CreatedAt: s.now().UTC(),
	}

	err = s.store.RunInTx(ctx, func(tx repository.Tx) error {
		return tx.CreateOrder(ctx, order)
	})
	if err != nil {
		return nil, err
	}
	return &CheckoutResult{Success: true, OrderID: order.ID}, nil
}

// FulfillOrder completes a pending order. For deferred orders stock
// sufficiency is re-checked and inventory taken now, all-or-nothing; on any
// insufficient line nothing is mutated and the failure is recorded on the
// order. Orders that already took stock at checkout are just marked fulfilled.
func (s *CheckoutService) FulfillOrder(ctx context.Context, orderID, actorID string) (*model.Order, error) {
	order, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, fmt.Errorf("order %s: %w", orderID, ErrOrderNotFound)
	}
	if order.Status != model.OrderPending {
		return nil, fmt.Errorf("order %s is %s: %w", orderID, order.Status, ErrOrderNotPending)
	}

	now := s.now().UTC()
	order.Status = model.OrderFulfilled
	order.FulfilledAt = &now
	order.Error = ""

	if order.StockApplied {
		// Inventory was already decremented at checkout time.
		err = s.store.RunInTx(ctx, func(tx repository.Tx) error {
			return tx.UpdateOrder(ctx, *order)
		})
		if err != nil {
			return nil, err
		}
		return order, nil
	}

	costs := make(map[string]float64, len(order.Lines))
	for _, line := range order.Lines {
		if item, err := s.store.GetItem(ctx, line.ItemID); err != nil {
			return nil, err
		} else if item != nil {
			costs[line.ItemID] = item.Cost
		}
	}

	order.StockApplied = true
	err = s.store.RunInTx(ctx, func(tx repository.Tx) error {
		for _, line := range order.Lines {
			ok, err := tx.DecrementItem(ctx, line.ItemID, line.Quantity)
			if err != nil {
				return err
			}
			if !ok {
				return &stockConflict{ItemID: line.ItemID, ItemName: line.ItemName}
			}
			cost := costs[line.ItemID]
			if err := tx.AppendTransaction(ctx, model.TransactionRecord{
				ID:        uid.New(),
				Type:      model.TransactionOut,
				ItemID:    line.ItemID,
				ItemName:  line.ItemName,
				Quantity:  line.Quantity,
				Unit:      line.Unit,
				ActorID:   actorID,
				Cost:      cost,
				TotalCost: cost * line.Quantity,
				Timestamp: now,
			}); err != nil {
				return err
			}
			if err := tx.AppendCheckout(ctx, model.CheckoutRecord{
				ID:        uid.New(),
				StudentID: order.StudentID,
				ItemID:    line.ItemID,
				Quantity:  line.Quantity,
				Unit:      line.Unit,
				Timestamp: now,
			}); err != nil {
				return err
			}
		}
		return tx.UpdateOrder(ctx, *order)
	})
	if err != nil {
		var conflict *stockConflict
		if errors.As(err, &conflict) {
			s.recordOrderError(ctx, orderID, fmt.Sprintf("%s: %s", conflict.ItemName, ReasonOutOfStock))
		}
		return nil, err
	}
	return order, nil
}

// CancelOrder cancels a pending order, restoring any stock it had taken.
// Cancelled is terminal: the order can no longer be fulfilled.
func (s *CheckoutService) CancelOrder(ctx context.Context, orderID, actorID string) (*model.Order, error) {
	order, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, fmt.Errorf("order %s: %w", orderID, ErrOrderNotFound)
	}
	if order.Status != model.OrderPending {
		return nil, fmt.Errorf("order %s is %s: %w", orderID, order.Status, ErrOrderNotPending)
	}

	now := s.now().UTC()
	restore := order.StockApplied
	order.Status = model.OrderCancelled
	order.StockApplied = false

	err = s.store.RunInTx(ctx, func(tx repository.Tx) error {
		if restore {
			for _, line := range order.Lines {
				if err := tx.IncrementItem(ctx, line.ItemID, line.Quantity); err != nil {
					return err
				}
				if err := tx.AppendTransaction(ctx, model.TransactionRecord{
					ID:        uid.New(),
					Type:      model.TransactionIn,
					ItemID:    line.ItemID,
					ItemName:  line.ItemName,
					Quantity:  line.Quantity,
					Unit:      line.Unit,
					ActorID:   actorID,
					Timestamp: now,
				}); err != nil {
					return err
				}
			}
		}
		return tx.UpdateOrder(ctx, *order)
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// validate runs the eligibility engine over every line, collecting all
// failures instead of stopping at the first, and snapshots the items for the
// mutation phase.
func (s *CheckoutService) validate(ctx context.Context, studentID string, lines []CheckoutLine, skipLimits bool) (map[string]*model.InventoryItem, map[string]string, error) {
	if len(lines) == 0 {
		return nil, nil, ErrNoItems
	}

	items := make(map[string]*model.InventoryItem, len(lines))
	failures := make(map[string]string)
	for _, line := range lines {
		item, err := s.store.GetItem(ctx, line.ItemID)
		if err != nil {
			return nil, nil, err
		}
		if item == nil {
			failures[line.ItemID] = ReasonItemNotFound
			continue
		}
		decision, err := s.eligibility.Evaluate(ctx, studentID, item, line.Quantity, skipLimits)
		if err != nil {
			return nil, nil, err
		}
		if !decision.Allowed {
			failures[line.ItemID] = decision.Reason
			continue
		}
		items[line.ItemID] = item
	}
	return items, failures, nil
}

// takeLine applies one checkout line inside the transaction: conditional
// decrement, ledger append, history append, all stamped with the shared now.
func (s *CheckoutService) takeLine(ctx context.Context, tx repository.Tx, actorID, studentID string, item *model.InventoryItem, qty float64, now time.Time) error {
	ok, err := tx.DecrementItem(ctx, item.ID, qty)
	if err != nil {
		return err
	}
	if !ok {
		return &stockConflict{ItemID: item.ID, ItemName: item.Name}
	}
	if err := tx.AppendTransaction(ctx, model.TransactionRecord{
		ID:        uid.New(),
		Type:      model.TransactionOut,
		ItemID:    item.ID,
		ItemName:  item.Name,
		Quantity:  qty,
		Unit:      item.Unit,
		ActorID:   actorID,
		Cost:      item.Cost,
		TotalCost: item.Cost * qty,
		Timestamp: now,
	}); err != nil {
		return err
	}
	return tx.AppendCheckout(ctx, model.CheckoutRecord{
		ID:        uid.New(),
		StudentID: studentID,
		ItemID:    item.ID,
		Quantity:  qty,
		Unit:      item.Unit,
		Timestamp: now,
	})
}

// recordOrderError best-effort persists a fulfillment failure on the order.
func (s *CheckoutService) recordOrderError(ctx context.Context, orderID, msg string) {
	order, err := s.store.GetOrder(ctx, orderID)
	if err != nil || order == nil {
		return
	}
	order.Error = msg
	err = s.store.RunInTx(ctx, func(tx repository.Tx) error {
		return tx.UpdateOrder(ctx, *order)
	})
	if err != nil {
		log.Printf("[CheckoutService] Failed to record error on order %s: %v", orderID, err)
	}
}

// orderLines builds order lines tagged with the category/unit resolved from
// the inventory snapshot taken during validation.
func orderLines(lines []CheckoutLine, items map[string]*model.InventoryItem) []model.OrderLine {
	out := make([]model.OrderLine, 0, len(lines))
	for _, line := range lines {
		item := items[line.ItemID]
		out = append(out, model.OrderLine{
			ItemID:   item.ID,
			ItemName: item.Name,
			Quantity: line.Quantity,
			Category: item.Category,
			Unit:     item.Unit,
		})
	}
	return out
}
