package inventory_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/invorya-transformaciones/internal/domain/inventory"
)

func TestWeightedAverageCost(t *testing.T) {
	// 10 u a 5 + 10 u a 7 ⇒ 6
	got := inventory.WeightedAverageCost(decimal.NewFromInt(10), decimal.NewFromInt(5), decimal.NewFromInt(10), decimal.NewFromInt(7))
	assert.True(t, got.Equal(decimal.NewFromInt(6)), "obtuvo %s", got)
}

func TestWeightedAverageCost_SinStockResultante(t *testing.T) {
	got := inventory.WeightedAverageCost(decimal.Zero, decimal.NewFromInt(5), decimal.Zero, decimal.NewFromInt(7))
	assert.True(t, got.IsZero())
}

func TestValueOutbound(t *testing.T) {
	v := inventory.ValueOutbound(decimal.NewFromInt(20), decimal.NewFromInt(5), decimal.NewFromInt(4))
	assert.True(t, v.QtyAfter.Equal(decimal.NewFromInt(15)))
	assert.True(t, v.StockValueBefore.Equal(decimal.NewFromInt(80)))
	assert.True(t, v.StockValueAfter.Equal(decimal.NewFromInt(60)))
	assert.True(t, v.Rate.Equal(decimal.NewFromInt(4)))
}

func TestValueInbound(t *testing.T) {
	v := inventory.ValueInbound(decimal.NewFromInt(10), decimal.NewFromInt(5), decimal.NewFromInt(10), decimal.NewFromInt(7))
	assert.True(t, v.QtyAfter.Equal(decimal.NewFromInt(20)))
	assert.True(t, v.Rate.Equal(decimal.NewFromInt(6)))
	assert.True(t, v.StockValueBefore.Equal(decimal.NewFromInt(50)))
	assert.True(t, v.StockValueAfter.Equal(decimal.NewFromInt(120)))
}
