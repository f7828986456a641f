package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Item representa un artículo del catálogo (materia prima, producto terminado o subproducto).
// Cost es el costo unitario vigente que el motor de transformaciones usa al consumir.
type Item struct {
	ID          string
	CompanyID   string
	Code        string // código único por empresa
	Name        string
	UnitMeasure string
	Cost        decimal.Decimal
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
