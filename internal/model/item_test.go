package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatQuantity(t *testing.T) {
	tests := []struct {
		unit Unit
		qty  float64
		want string
	}{
		{UnitItem, 1, "1 item"},
		{UnitItem, 2, "2 items"},
		{UnitItem, 0, "0 items"},
		{UnitKg, 1.5, "1.5 kg"},
		{UnitKg, 2, "2 kg"},
		{UnitLb, 0.25, "0.25 lb"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.unit.FormatQuantity(tt.qty))
	}
}

func TestParseUnit(t *testing.T) {
	unit, err := ParseUnit("kg")
	require.NoError(t, err)
	assert.Equal(t, UnitKg, unit)
	assert.True(t, unit.Weighed())

	unit, err = ParseUnit("item")
	require.NoError(t, err)
	assert.False(t, unit.Weighed())

	_, err = ParseUnit("boxes")
	assert.Error(t, err)
}

func TestParseCategory(t *testing.T) {
	category, err := ParseCategory("produce")
	require.NoError(t, err)
	assert.Equal(t, CategoryProduce, category)

	_, err = ParseCategory("misc")
	assert.Error(t, err)
}

func TestCooldownMinutes(t *testing.T) {
	item := InventoryItem{LimitDurationDays: 7}
	assert.Equal(t, 10080, item.CooldownMinutes())

	item = InventoryItem{LimitDurationDays: 1, LimitDurationMinutes: 30}
	assert.Equal(t, 1470, item.CooldownMinutes())

	item = InventoryItem{}
	assert.Zero(t, item.CooldownMinutes())
}
