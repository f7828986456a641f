package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de una orden de transformación.
const (
	OrderStatusDraft     = "DRAFT"
	OrderStatusPreparing = "PREPARING"
	OrderStatusCompleted = "COMPLETED"
	OrderStatusCancelled = "CANCELLED"
)

// TransformationOrder una ejecución concreta de una plantilla en una bodega.
// Nunca se elimina: RetiredAt marca el retiro lógico.
type TransformationOrder struct {
	ID              string
	CompanyID       string
	TemplateID      string
	Code            string
	WarehouseID     string
	Status          string
	PlannedQuantity decimal.Decimal
	ActualQuantity  decimal.Decimal
	ExecutionDate   *time.Time
	CompletionDate  *time.Time
	TotalInputCost  decimal.Decimal
	TotalOutputCost decimal.Decimal
	TotalWasteCost  decimal.Decimal
	ScrapCost       decimal.Decimal // costo absorbido por salidas de desecho (castigo explícito)
	CostVariance    decimal.Decimal
	Notes           string
	Inputs          []OrderInput
	Outputs         []OrderOutput
	RetiredAt       *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
	CreatedBy       string
	UpdatedBy       string
}

// OrderInput línea de entrada; los campos de consumo se llenan al ejecutar.
type OrderInput struct {
	ID                 string
	OrderID            string
	ItemID             string
	UnitMeasure        string
	PlannedQuantity    decimal.Decimal
	ConsumedQuantity   decimal.Decimal
	UnitCost           decimal.Decimal
	TotalCost          decimal.Decimal
	StockTransactionID string
	Sequence           int
}

// OrderOutput línea de salida con costo asignado y referencias a sus movimientos.
type OrderOutput struct {
	ID                      string
	OrderID                 string
	ItemID                  string
	UnitMeasure             string
	PlannedQuantity         decimal.Decimal
	ProducedQuantity        decimal.Decimal
	WastedQuantity          decimal.Decimal
	WasteReason             string
	IsScrap                 bool
	AllocatedCostPerUnit    decimal.Decimal
	TotalAllocatedCost      decimal.Decimal
	WasteCostPerUnit        decimal.Decimal
	WasteTotalCost          decimal.Decimal
	StockTransactionID      string
	WasteStockTransactionID string
	Sequence                int
}

// FindInput devuelve la línea de entrada con el id dado o nil.
func (o *TransformationOrder) FindInput(id string) *OrderInput {
	for i := range o.Inputs {
		if o.Inputs[i].ID == id {
			return &o.Inputs[i]
		}
	}
	return nil
}

// FindOutput devuelve la línea de salida con el id dado o nil.
func (o *TransformationOrder) FindOutput(id string) *OrderOutput {
	for i := range o.Outputs {
		if o.Outputs[i].ID == id {
			return &o.Outputs[i]
		}
	}
	return nil
}

// IsRetired indica si la orden fue retirada.
func (o *TransformationOrder) IsRetired() bool {
	return o.RetiredAt != nil
}
