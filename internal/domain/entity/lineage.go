package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// LineageEdge atribuye parte de una salida (cantidad y costo) a una entrada consumida.
// Append-only: se crea una vez por ejecución.
type LineageEdge struct {
	ID                 string
	OrderID            string
	InputLineID        string
	OutputLineID       string
	InputQuantityUsed  decimal.Decimal
	OutputQuantityFrom decimal.Decimal
	CostAttributed     decimal.Decimal
	CreatedAt          time.Time
}
