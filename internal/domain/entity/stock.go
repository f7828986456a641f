package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockBalance representa el saldo de un ítem en una bodega.
// CurrentStock es la existencia física; AvailableStock = CurrentStock - ReservedStock.
// Version se incrementa en cada escritura (compare-and-swap).
type StockBalance struct {
	ItemID         string
	WarehouseID    string
	CurrentStock   decimal.Decimal
	ReservedStock  decimal.Decimal
	AvailableStock decimal.Decimal
	Version        int64
	UpdatedAt      time.Time
	UpdatedBy      string
}

// Recalculate actualiza AvailableStock a partir de CurrentStock y ReservedStock.
func (b *StockBalance) Recalculate() {
	b.AvailableStock = b.CurrentStock.Sub(b.ReservedStock)
}

// Exists indica si el saldo ya fue persistido alguna vez.
func (b *StockBalance) Exists() bool {
	return b.Version > 0
}
