package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateItemRequest entrada para crear un ítem.
type CreateItemRequest struct {
	Code        string          `json:"code" validate:"required,min=1,max=100"`
	Name        string          `json:"name" validate:"required,min=1,max=200"`
	UnitMeasure string          `json:"unitMeasure" validate:"max=20"`
	Cost        decimal.Decimal `json:"cost"`
}

// ItemResponse salida de un ítem.
type ItemResponse struct {
	ID          string          `json:"id"`
	CompanyID   string          `json:"companyId"`
	Code        string          `json:"code"`
	Name        string          `json:"name"`
	UnitMeasure string          `json:"unitMeasure"`
	Cost        decimal.Decimal `json:"cost"`
	IsActive    bool            `json:"isActive"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}
