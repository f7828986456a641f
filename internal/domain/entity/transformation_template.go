package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransformationTemplate receta reutilizable: entradas requeridas y salidas esperadas.
// Con UsageCount > 0 la estructura (líneas) queda bloqueada para edición.
type TransformationTemplate struct {
	ID          string
	CompanyID   string
	Code        string
	Name        string
	Description string
	IsActive    bool
	UsageCount  int
	Inputs      []TemplateInput
	Outputs     []TemplateOutput
	CreatedAt   time.Time
	UpdatedAt   time.Time
	CreatedBy   string
}

// TemplateInput ítem requerido por la receta.
type TemplateInput struct {
	ID          string
	TemplateID  string
	ItemID      string
	UnitMeasure string
	Quantity    decimal.Decimal
	Sequence    int
}

// TemplateOutput ítem esperado de la receta. IsScrap marca salidas sin valor recuperable.
type TemplateOutput struct {
	ID          string
	TemplateID  string
	ItemID      string
	UnitMeasure string
	Quantity    decimal.Decimal
	IsScrap     bool
	Sequence    int
}

// IsLocked indica si la plantilla ya fue usada por alguna orden.
func (t *TransformationTemplate) IsLocked() bool {
	return t.UsageCount > 0
}
