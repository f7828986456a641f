package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de transacción de stock.
const (
	StockTransactionIn  = "in"
	StockTransactionOut = "out"
)

// Propósito del movimiento (columna propia; nunca se codifica en Code).
const (
	PurposeConsumption = "consumption" // salida de una entrada de la orden
	PurposeProduction  = "production"  // entrada de una salida producida
	PurposeWaste       = "waste"       // registro contable de merma, no toca el saldo
	PurposeReversal    = "reversal"    // compensación de un movimiento previo
	PurposeAdjustment  = "adjustment"  // ajuste manual de inventario
)

// StockTransaction cabecera inmutable de un movimiento de stock.
type StockTransaction struct {
	ID          string
	Code        string // identificador generado, único en almacenamiento
	CompanyID   string
	Type        string // in, out
	Purpose     string
	WarehouseID string
	ReferenceID string // orden de transformación que lo originó
	ReversesID  string // transacción que compensa (solo Purpose=reversal)
	Notes       string
	Date        time.Time
	CreatedAt   time.Time
	CreatedBy   string
	Items       []StockTransactionItem
}

// StockTransactionItem línea de una transacción con la foto antes/después del saldo.
type StockTransactionItem struct {
	ID               string
	TransactionID    string
	ItemID           string
	Quantity         decimal.Decimal
	UnitCost         decimal.Decimal
	TotalCost        decimal.Decimal
	QtyBefore        decimal.Decimal
	QtyAfter         decimal.Decimal
	ValuationRate    decimal.Decimal
	StockValueBefore decimal.Decimal
	StockValueAfter  decimal.Decimal
}
