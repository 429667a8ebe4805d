package service

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"pantryhub-api/internal/cache"
	"pantryhub-api/internal/model"
	"pantryhub-api/internal/repository"
	"pantryhub-api/pkg/uid"
)

const (
	itemListCacheKey   = "pantry:items:all"
	itemCacheKeyPrefix = "pantry:item:"
	lowStockThreshold  = 5
)

// InventoryService handles staff-facing inventory management: item CRUD,
// restocking and usage stats. Reads go through the cache when one is
// configured; every write invalidates it.
type InventoryService struct {
	store    repository.Store
	cache    cache.Cache
	cacheTTL time.Duration
}

// NewInventoryService creates a new inventory service. cache may be nil.
func NewInventoryService(store repository.Store, c cache.Cache, cacheTTL time.Duration) *InventoryService {
	return &InventoryService{store: store, cache: c, cacheTTL: cacheTTL}
}

// ItemInput carries the writable fields of an inventory item.
type ItemInput struct {
	Name                 string  `json:"name"`
	Category             string  `json:"category"`
	Quantity             float64 `json:"quantity"`
	Unit                 string  `json:"unit"`
	HasLimit             bool    `json:"has_limit"`
	StudentLimit         float64 `json:"student_limit"`
	LimitDurationDays    int     `json:"limit_duration_days"`
	LimitDurationMinutes int     `json:"limit_duration_minutes"`
	Cost                 float64 `json:"cost"`
}

func (in *ItemInput) validate() (model.Unit, model.Category, error) {
	if in.Name == "" {
		return "", "", fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	unit, err := model.ParseUnit(in.Unit)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	category, err := model.ParseCategory(in.Category)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if in.Quantity < 0 {
		return "", "", fmt.Errorf("%w: quantity cannot be negative", ErrInvalidInput)
	}
	// Discrete items hold whole counts; only weighed units are fractional.
	if unit == model.UnitItem && in.Quantity != math.Trunc(in.Quantity) {
		return "", "", fmt.Errorf("%w: quantity must be a whole number for unit %q", ErrInvalidInput, unit)
	}
	if in.HasLimit && in.StudentLimit <= 0 {
		return "", "", fmt.Errorf("%w: student limit must be positive when a limit is set", ErrInvalidInput)
	}
	if in.LimitDurationDays < 0 || in.LimitDurationMinutes < 0 {
		return "", "", fmt.Errorf("%w: limit duration cannot be negative", ErrInvalidInput)
	}
	return unit, category, nil
}

// CreateItem validates and inserts a new inventory item. A non-zero initial
// quantity is recorded in the ledger as a restock.
func (s *InventoryService) CreateItem(ctx context.Context, actorID string, in ItemInput) (*model.InventoryItem, error) {
	unit, category, err := in.validate()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	item := model.InventoryItem{
		ID:                   uid.New(),
		Name:                 in.Name,
		Category:             category,
		Quantity:             in.Quantity,
		Unit:                 unit,
		IsWeighed:            unit.Weighed(),
		HasLimit:             in.HasLimit,
		StudentLimit:         in.StudentLimit,
		LimitDurationDays:    in.LimitDurationDays,
		LimitDurationMinutes: in.LimitDurationMinutes,
		Cost:                 in.Cost,
		CreatedAt:            now,
		UpdatedAt:            now,
	}

	if err := s.store.CreateItem(ctx, item); err != nil {
		return nil, err
	}
	if item.Quantity > 0 {
		err = s.store.RunInTx(ctx, func(tx repository.Tx) error {
			return tx.AppendTransaction(ctx, model.TransactionRecord{
				ID:        uid.New(),
				Type:      model.TransactionIn,
				ItemID:    item.ID,
				ItemName:  item.Name,
				Quantity:  item.Quantity,
				Unit:      item.Unit,
				ActorID:   actorID,
				Cost:      item.Cost,
				TotalCost: item.Cost * item.Quantity,
				Timestamp: now,
			})
		})
		if err != nil {
			return nil, err
		}
	}

	s.invalidate(ctx, item.ID)
	return &item, nil
}

// UpdateItem validates and overwrites an existing item.
func (s *InventoryService) UpdateItem(ctx context.Context, id string, in ItemInput) (*model.InventoryItem, error) {
	existing, err := s.store.GetItem(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, fmt.Errorf("item %s: %w", id, ErrItemNotFound)
	}

	unit, category, err := in.validate()
	if err != nil {
		return nil, err
	}

	item := *existing
	item.Name = in.Name
	item.Category = category
	item.Quantity = in.Quantity
	item.Unit = unit
	item.IsWeighed = unit.Weighed()
	item.HasLimit = in.HasLimit
	item.StudentLimit = in.StudentLimit
	item.LimitDurationDays = in.LimitDurationDays
	item.LimitDurationMinutes = in.LimitDurationMinutes
	item.Cost = in.Cost
	item.UpdatedAt = time.Now().UTC()

	if err := s.store.UpdateItem(ctx, item); err != nil {
		return nil, err
	}
	s.invalidate(ctx, id)
	return &item, nil
}

// DeleteItem removes an item from inventory. Ledger and checkout history are
// kept for reporting.
func (s *InventoryService) DeleteItem(ctx context.Context, id string) error {
	existing, err := s.store.GetItem(ctx, id)
	if err != nil {
		return err
	}
	if existing == nil {
		return fmt.Errorf("item %s: %w", id, ErrItemNotFound)
	}
	if err := s.store.DeleteItem(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, id)
	return nil
}

// GetItem retrieves a single item, via cache when available.
func (s *InventoryService) GetItem(ctx context.Context, id string) (*model.InventoryItem, error) {
	if s.cache == nil {
		return s.store.GetItem(ctx, id)
	}

	data, err := s.cache.GetOrSet(ctx, itemCacheKeyPrefix+id, s.cacheTTL, func() ([]byte, error) {
		item, err := s.store.GetItem(ctx, id)
		if err != nil {
			return nil, err
		}
		return json.Marshal(item)
	})
	if err != nil {
		return nil, err
	}

	var item *model.InventoryItem
	if err := json.Unmarshal(data, &item); err != nil {
		return nil, err
	}
	return item, nil
}

// ListItems returns all items, via cache when available.
func (s *InventoryService) ListItems(ctx context.Context) ([]model.InventoryItem, error) {
	if s.cache == nil {
		return s.store.ListItems(ctx)
	}

	data, err := s.cache.GetOrSet(ctx, itemListCacheKey, s.cacheTTL, func() ([]byte, error) {
		items, err := s.store.ListItems(ctx)
		if err != nil {
			return nil, err
		}
		return json.Marshal(items)
	})
	if err != nil {
		return nil, err
	}

	var items []model.InventoryItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// Restock adds stock to an item and records the movement in the ledger, as
// one transaction.
func (s *InventoryService) Restock(ctx context.Context, itemID string, qty, cost float64, actorID string) (*model.InventoryItem, error) {
	if qty <= 0 {
		return nil, fmt.Errorf("%w: restock quantity must be positive", ErrInvalidInput)
	}
	item, err := s.store.GetItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, fmt.Errorf("item %s: %w", itemID, ErrItemNotFound)
	}
	if item.Unit == model.UnitItem && qty != math.Trunc(qty) {
		return nil, fmt.Errorf("%w: quantity must be a whole number for unit %q", ErrInvalidInput, item.Unit)
	}

	now := time.Now().UTC()
	err = s.store.RunInTx(ctx, func(tx repository.Tx) error {
		if err := tx.IncrementItem(ctx, itemID, qty); err != nil {
			return err
		}
		return tx.AppendTransaction(ctx, model.TransactionRecord{
			ID:        uid.New(),
			Type:      model.TransactionIn,
			ItemID:    item.ID,
			ItemName:  item.Name,
			Quantity:  qty,
			Unit:      item.Unit,
			ActorID:   actorID,
			Cost:      cost,
			TotalCost: cost * qty,
			Timestamp: now,
		})
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, itemID)
	item.Quantity += qty
	item.UpdatedAt = now
	return item, nil
}

// Stats summarizes inventory and usage for the dashboards.
type Stats struct {
	TotalItems         int                    `json:"total_items"`
	InventoryValue     float64                `json:"inventory_value"`
	ItemsByCategory    map[model.Category]int `json:"items_by_category"`
	LowStock           []model.InventoryItem  `json:"low_stock"`
	CheckoutsLast7Days int                    `json:"checkouts_last_7_days"`
	RestocksLast7Days  int                    `json:"restocks_last_7_days"`
}

// GetStats computes summary statistics from current inventory and the ledger.
func (s *InventoryService) GetStats(ctx context.Context) (*Stats, error) {
	items, err := s.store.ListItems(ctx)
	if err != nil {
		return nil, err
	}

	stats := &Stats{
		TotalItems:      len(items),
		ItemsByCategory: make(map[model.Category]int),
	}
	for _, it := range items {
		stats.ItemsByCategory[it.Category]++
		stats.InventoryValue += it.Quantity * it.Cost
		if it.Quantity < lowStockThreshold {
			stats.LowStock = append(stats.LowStock, it)
		}
	}

	since := time.Now().UTC().AddDate(0, 0, -7)
	recs, err := s.store.ListTransactions(ctx, model.TransactionFilter{Since: since})
	if err != nil {
		return nil, err
	}
	for _, rec := range recs {
		switch rec.Type {
		case model.TransactionOut:
			stats.CheckoutsLast7Days++
		case model.TransactionIn:
			stats.RestocksLast7Days++
		}
	}
	return stats, nil
}

func (s *InventoryService) invalidate(ctx context.Context, itemID string) {
	if s.cache == nil {
		return
	}
	_ = s.cache.Delete(ctx, itemListCacheKey)
	_ = s.cache.Delete(ctx, itemCacheKeyPrefix+itemID)
}
