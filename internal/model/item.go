package model

import (
	"fmt"
	"time"
)

// Unit is the measurement unit of an inventory item.
type Unit string

const (
	UnitItem Unit = "item" // discrete counts
	UnitKg   Unit = "kg"
	UnitLb   Unit = "lb"
)

// ParseUnit validates a unit string.
func ParseUnit(s string) (Unit, error) {
	switch Unit(s) {
	case UnitItem, UnitKg, UnitLb:
		return Unit(s), nil
	}
	return "", fmt.Errorf("invalid unit %q", s)
}

// Weighed reports whether the unit is continuous (kg/lb) rather than discrete.
func (u Unit) Weighed() bool {
	return u == UnitKg || u == UnitLb
}

// FormatQuantity renders a quantity with its unit, pluralized for discrete items.
// Weighed quantities keep up to two decimals.
func (u Unit) FormatQuantity(qty float64) string {
	if u == UnitItem {
		if qty == 1 {
			return "1 item"
		}
		return fmt.Sprintf("%g items", qty)
	}
	return fmt.Sprintf("%g %s", qty, u)
}

// Category is a closed set of pantry shelf categories.
type Category string

const (
	CategoryProduce   Category = "produce"
	CategoryDairy     Category = "dairy"
	CategoryProtein   Category = "protein"
	CategoryGrains    Category = "grains"
	CategoryCanned    Category = "canned"
	CategorySnacks    Category = "snacks"
	CategoryBeverages Category = "beverages"
	CategoryHygiene   Category = "hygiene"
	CategoryOther     Category = "other"
)

// ParseCategory validates a category string.
func ParseCategory(s string) (Category, error) {
	switch Category(s) {
	case CategoryProduce, CategoryDairy, CategoryProtein, CategoryGrains,
		CategoryCanned, CategorySnacks, CategoryBeverages, CategoryHygiene, CategoryOther:
		return Category(s), nil
	}
	return "", fmt.Errorf("invalid category %q", s)
}

// InventoryItem is a stocked pantry item. Quantity is the single source of
// truth for available stock and never goes negative.
type InventoryItem struct {
	ID                   string    `json:"id"`
	Name                 string    `json:"name"`
	Category             Category  `json:"category"`
	Quantity             float64   `json:"quantity"`
	Unit                 Unit      `json:"unit"`
	IsWeighed            bool      `json:"is_weighed"`
	HasLimit             bool      `json:"has_limit"`
	StudentLimit         float64   `json:"student_limit"`
	LimitDurationDays    int       `json:"limit_duration_days"`
	LimitDurationMinutes int       `json:"limit_duration_minutes"`
	Cost                 float64   `json:"cost,omitempty"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// CooldownMinutes returns the combined re-take cooldown window in minutes.
func (i *InventoryItem) CooldownMinutes() int {
	return i.LimitDurationDays*24*60 + i.LimitDurationMinutes
}
