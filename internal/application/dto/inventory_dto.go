package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockBalanceResponse saldo de un ítem en una bodega.
type StockBalanceResponse struct {
	ItemID         string          `json:"itemId"`
	WarehouseID    string          `json:"warehouseId"`
	CurrentStock   decimal.Decimal `json:"currentStock"`
	ReservedStock  decimal.Decimal `json:"reservedStock"`
	AvailableStock decimal.Decimal `json:"availableStock"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

// StockTransactionItemResponse línea de una transacción con su foto antes/después.
type StockTransactionItemResponse struct {
	ItemID           string          `json:"itemId"`
	Quantity         decimal.Decimal `json:"quantity"`
	UnitCost         decimal.Decimal `json:"unitCost"`
	TotalCost        decimal.Decimal `json:"totalCost"`
	QtyBefore        decimal.Decimal `json:"qtyBefore"`
	QtyAfter         decimal.Decimal `json:"qtyAfter"`
	ValuationRate    decimal.Decimal `json:"valuationRate"`
	StockValueBefore decimal.Decimal `json:"stockValueBefore"`
	StockValueAfter  decimal.Decimal `json:"stockValueAfter"`
}

// StockTransactionResponse transacción de stock.
type StockTransactionResponse struct {
	ID          string                         `json:"id"`
	Code        string                         `json:"code"`
	Type        string                         `json:"type"`
	Purpose     string                         `json:"purpose"`
	WarehouseID string                         `json:"warehouseId"`
	ReferenceID string                         `json:"referenceId"`
	ReversesID  string                         `json:"reversesId,omitempty"`
	Notes       string                         `json:"notes,omitempty"`
	Date        time.Time                      `json:"date"`
	CreatedBy   string                         `json:"createdBy"`
	Items       []StockTransactionItemResponse `json:"items"`
}

// StockAdjustmentRequest body para POST /api/stock/adjustments.
type StockAdjustmentRequest struct {
	ItemID      string           `json:"itemId" validate:"required"`
	WarehouseID string           `json:"warehouseId" validate:"required"`
	Type        string           `json:"type" validate:"required,oneof=in out"`
	Quantity    decimal.Decimal  `json:"quantity"`
	UnitCost    *decimal.Decimal `json:"unitCost,omitempty"`
	Notes       string           `json:"notes,omitempty" validate:"max=500"`
}
