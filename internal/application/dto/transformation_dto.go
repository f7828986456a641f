package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/invorya-transformaciones/internal/domain"
)

// TemplateLineRequest línea de entrada o salida de una plantilla.
type TemplateLineRequest struct {
	ItemID      string          `json:"itemId" validate:"required"`
	UnitMeasure string          `json:"unitMeasure" validate:"max=20"`
	Quantity    decimal.Decimal `json:"quantity"`
	IsScrap     bool            `json:"isScrap,omitempty"` // solo salidas
}

// CreateTemplateRequest body para POST /api/transformation-templates.
type CreateTemplateRequest struct {
	Code        string                `json:"code" validate:"required,max=50"`
	Name        string                `json:"name" validate:"required,max=200"`
	Description string                `json:"description,omitempty" validate:"max=500"`
	Inputs      []TemplateLineRequest `json:"inputs" validate:"required,min=1,dive"`
	Outputs     []TemplateLineRequest `json:"outputs" validate:"required,min=1,dive"`
}

// UpdateTemplateRequest body para PUT /api/transformation-templates/:id.
// Inputs/Outputs reemplazan la estructura completa; rechazado si la plantilla ya fue usada.
type UpdateTemplateRequest struct {
	Name        *string               `json:"name,omitempty" validate:"omitempty,max=200"`
	Description *string               `json:"description,omitempty" validate:"omitempty,max=500"`
	IsActive    *bool                 `json:"isActive,omitempty"`
	Inputs      []TemplateLineRequest `json:"inputs,omitempty" validate:"omitempty,dive"`
	Outputs     []TemplateLineRequest `json:"outputs,omitempty" validate:"omitempty,dive"`
}

// TemplateLineResponse línea de plantilla.
type TemplateLineResponse struct {
	ID          string          `json:"id"`
	ItemID      string          `json:"itemId"`
	UnitMeasure string          `json:"unitMeasure"`
	Quantity    decimal.Decimal `json:"quantity"`
	IsScrap     bool            `json:"isScrap"`
	Sequence    int             `json:"sequence"`
}

// TemplateResponse plantilla con sus líneas.
type TemplateResponse struct {
	ID          string                 `json:"id"`
	CompanyID   string                 `json:"companyId"`
	Code        string                 `json:"code"`
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	IsActive    bool                   `json:"isActive"`
	UsageCount  int                    `json:"usageCount"`
	Locked      bool                   `json:"locked"`
	Inputs      []TemplateLineResponse `json:"inputs"`
	Outputs     []TemplateLineResponse `json:"outputs"`
	CreatedAt   time.Time              `json:"createdAt"`
	UpdatedAt   time.Time              `json:"updatedAt"`
}

// TemplateListResponse lista paginada de plantillas.
type TemplateListResponse struct {
	Items []TemplateResponse `json:"items"`
	Page  PageResponse       `json:"page"`
}

// TemplateValidationResponse resultado de validar una plantilla.
type TemplateValidationResponse struct {
	IsValid bool   `json:"isValid"`
	Code    string `json:"code,omitempty"`
	Error   string `json:"error,omitempty"`
}

// CreateOrderRequest body para POST /api/transformation-orders.
type CreateOrderRequest struct {
	TemplateID  string `json:"templateId" validate:"required"`
	WarehouseID string `json:"warehouseId" validate:"required"`
	Notes       string `json:"notes,omitempty" validate:"max=500"`
}

// TransitionRequest body para POST /api/transformation-orders/:id/transition.
type TransitionRequest struct {
	To string `json:"to" validate:"required"`
}

// TransitionValidationResponse resultado de GET .../validate-transition.
type TransitionValidationResponse struct {
	IsValid       bool   `json:"isValid"`
	CurrentStatus string `json:"currentStatus"`
	Code          string `json:"code,omitempty"`
	Error         string `json:"error,omitempty"`
}

// StockValidationResponse resultado de GET .../validate-stock.
type StockValidationResponse struct {
	IsAvailable       bool                      `json:"isAvailable"`
	InsufficientItems []domain.InsufficientItem `json:"insufficientItems"`
}

// ExecuteInputRequest consumo real de una línea de entrada.
type ExecuteInputRequest struct {
	InputLineID      string          `json:"inputLineId" validate:"required"`
	ConsumedQuantity decimal.Decimal `json:"consumedQuantity"`
}

// ExecuteOutputRequest producción real de una línea de salida.
type ExecuteOutputRequest struct {
	OutputLineID     string           `json:"outputLineId" validate:"required"`
	ProducedQuantity decimal.Decimal  `json:"producedQuantity"`
	WastedQuantity   *decimal.Decimal `json:"wastedQuantity,omitempty"`
	WasteReason      string           `json:"wasteReason,omitempty" validate:"max=500"`
}

// ExecuteTransformationRequest body para POST /api/transformation-orders/:id/execute.
type ExecuteTransformationRequest struct {
	ExecutionDate *time.Time             `json:"executionDate,omitempty"`
	Inputs        []ExecuteInputRequest  `json:"inputs" validate:"required,min=1,dive"`
	Outputs       []ExecuteOutputRequest `json:"outputs" validate:"required,min=1,dive"`
}

// StockTransactionIDs ids de las transacciones generadas por una ejecución.
type StockTransactionIDs struct {
	Inputs  []string `json:"inputs"`
	Outputs []string `json:"outputs"`
	Waste   []string `json:"waste"`
}

// ExecuteTransformationResponse respuesta de una ejecución exitosa.
type ExecuteTransformationResponse struct {
	Success             bool                `json:"success"`
	OrderID             string              `json:"orderId"`
	StockTransactionIDs StockTransactionIDs `json:"stockTransactionIds"`
	TotalInputCost      decimal.Decimal     `json:"totalInputCost"`
	TotalOutputCost     decimal.Decimal     `json:"totalOutputCost"`
	TotalWasteCost      decimal.Decimal     `json:"totalWasteCost"`
	ScrapCost           decimal.Decimal     `json:"scrapCost"`
	CostVariance        decimal.Decimal     `json:"costVariance"`
}

// ExecutionErrorResponse respuesta de una ejecución fallida.
type ExecutionErrorResponse struct {
	Success           bool                      `json:"success"`
	Code              string                    `json:"code"`
	Error             string                    `json:"error"`
	InsufficientItems []domain.InsufficientItem `json:"insufficientItems,omitempty"`
}

// OrderInputResponse línea de entrada de una orden.
type OrderInputResponse struct {
	ID                 string          `json:"id"`
	ItemID             string          `json:"itemId"`
	UnitMeasure        string          `json:"unitMeasure"`
	PlannedQuantity    decimal.Decimal `json:"plannedQuantity"`
	ConsumedQuantity   decimal.Decimal `json:"consumedQuantity"`
	UnitCost           decimal.Decimal `json:"unitCost"`
	TotalCost          decimal.Decimal `json:"totalCost"`
	StockTransactionID string          `json:"stockTransactionId,omitempty"`
	Sequence           int             `json:"sequence"`
}

// OrderOutputResponse línea de salida de una orden.
type OrderOutputResponse struct {
	ID                      string          `json:"id"`
	ItemID                  string          `json:"itemId"`
	UnitMeasure             string          `json:"unitMeasure"`
	PlannedQuantity         decimal.Decimal `json:"plannedQuantity"`
	ProducedQuantity        decimal.Decimal `json:"producedQuantity"`
	WastedQuantity          decimal.Decimal `json:"wastedQuantity"`
	WasteReason             string          `json:"wasteReason,omitempty"`
	IsScrap                 bool            `json:"isScrap"`
	AllocatedCostPerUnit    decimal.Decimal `json:"allocatedCostPerUnit"`
	TotalAllocatedCost      decimal.Decimal `json:"totalAllocatedCost"`
	WasteCostPerUnit        decimal.Decimal `json:"wasteCostPerUnit"`
	WasteTotalCost          decimal.Decimal `json:"wasteTotalCost"`
	StockTransactionID      string          `json:"stockTransactionId,omitempty"`
	WasteStockTransactionID string          `json:"wasteStockTransactionId,omitempty"`
	Sequence                int             `json:"sequence"`
}

// OrderResponse orden con sus líneas.
type OrderResponse struct {
	ID              string                `json:"id"`
	CompanyID       string                `json:"companyId"`
	TemplateID      string                `json:"templateId"`
	Code            string                `json:"code"`
	WarehouseID     string                `json:"warehouseId"`
	Status          string                `json:"status"`
	PlannedQuantity decimal.Decimal       `json:"plannedQuantity"`
	ActualQuantity  decimal.Decimal       `json:"actualQuantity"`
	ExecutionDate   *time.Time            `json:"executionDate,omitempty"`
	CompletionDate  *time.Time            `json:"completionDate,omitempty"`
	TotalInputCost  decimal.Decimal       `json:"totalInputCost"`
	TotalOutputCost decimal.Decimal       `json:"totalOutputCost"`
	TotalWasteCost  decimal.Decimal       `json:"totalWasteCost"`
	ScrapCost       decimal.Decimal       `json:"scrapCost"`
	CostVariance    decimal.Decimal       `json:"costVariance"`
	Notes           string                `json:"notes,omitempty"`
	Inputs          []OrderInputResponse  `json:"inputs"`
	Outputs         []OrderOutputResponse `json:"outputs"`
	CreatedAt       time.Time             `json:"createdAt"`
	UpdatedAt       time.Time             `json:"updatedAt"`
}

// OrderListResponse lista paginada de órdenes.
type OrderListResponse struct {
	Items []OrderResponse `json:"items"`
	Page  PageResponse    `json:"page"`
}

// LineageEdgeResponse arista de trazabilidad.
type LineageEdgeResponse struct {
	InputLineID        string          `json:"inputLineId"`
	OutputLineID       string          `json:"outputLineId"`
	InputQuantityUsed  decimal.Decimal `json:"inputQuantityUsed"`
	OutputQuantityFrom decimal.Decimal `json:"outputQuantityFrom"`
	CostAttributed     decimal.Decimal `json:"costAttributed"`
}

// LineageResponse trazabilidad completa de una orden.
type LineageResponse struct {
	OrderID string                `json:"orderId"`
	Edges   []LineageEdgeResponse `json:"edges"`
}
