package transformation

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/invorya-transformaciones/internal/domain"
	"github.com/jhoicas/invorya-transformaciones/internal/domain/entity"
	"github.com/jhoicas/invorya-transformaciones/internal/domain/repository"
	domaintr "github.com/jhoicas/invorya-transformaciones/internal/domain/transformation"
)

// Validator validaciones de solo lectura: plantilla, stock y transiciones.
type Validator struct {
	templates repository.TemplateRepository
	orders    repository.OrderRepository
	stock     repository.StockRepository
	items     repository.ItemRepository
}

// NewValidator construye el validador.
func NewValidator(
	templates repository.TemplateRepository,
	orders repository.OrderRepository,
	stock repository.StockRepository,
	items repository.ItemRepository,
) *Validator {
	return &Validator{templates: templates, orders: orders, stock: stock, items: items}
}

// TemplateValidation resultado de ValidateTemplate. Err es nil cuando IsValid.
type TemplateValidation struct {
	IsValid bool
	Err     *domain.ValidationError
}

// ValidateTemplate verifica que la plantilla exista, esté activa y tenga entradas y salidas.
// El error devuelto solo indica fallos de lectura o de tenant.
func (v *Validator) ValidateTemplate(ctx context.Context, companyID, templateID string) (TemplateValidation, error) {
	t, err := v.templates.GetByID(ctx, templateID)
	if err != nil {
		return TemplateValidation{}, domain.Persistence("leer plantilla", err)
	}
	if t == nil {
		return invalidTemplate(domain.CodeTemplateNotFound, "plantilla no encontrada"), nil
	}
	if t.CompanyID != companyID {
		return TemplateValidation{}, domain.ErrForbidden
	}
	return checkTemplate(t), nil
}

func checkTemplate(t *entity.TransformationTemplate) TemplateValidation {
	switch {
	case !t.IsActive:
		return invalidTemplate(domain.CodeTemplateInactive, "la plantilla está inactiva")
	case len(t.Inputs) == 0:
		return invalidTemplate(domain.CodeTemplateNoInputs, "la plantilla no tiene entradas")
	case len(t.Outputs) == 0:
		return invalidTemplate(domain.CodeTemplateNoOutputs, "la plantilla no tiene salidas")
	}
	return TemplateValidation{IsValid: true}
}

func invalidTemplate(code, msg string) TemplateValidation {
	return TemplateValidation{IsValid: false, Err: domain.NewValidationError(code, msg)}
}

// StockAvailability resultado de ValidateStockAvailability.
type StockAvailability struct {
	IsAvailable       bool
	InsufficientItems []domain.InsufficientItem
}

// ValidateStockAvailability compara el disponible de cada entrada en la bodega de origen
// contra su cantidad planeada y reporta todos los faltantes.
func (v *Validator) ValidateStockAvailability(ctx context.Context, companyID, orderID string) (StockAvailability, error) {
	o, err := v.loadOrder(ctx, companyID, orderID)
	if err != nil {
		return StockAvailability{}, err
	}
	reqs := make([]requirement, 0, len(o.Inputs))
	for _, in := range o.Inputs {
		reqs = append(reqs, requirement{itemID: in.ItemID, quantity: in.PlannedQuantity})
	}
	short, err := v.shortfalls(ctx, o.WarehouseID, reqs, true)
	if err != nil {
		return StockAvailability{}, err
	}
	return StockAvailability{IsAvailable: len(short) == 0, InsufficientItems: short}, nil
}

// TransitionCheck resultado de ValidateTransition sobre una orden.
type TransitionCheck struct {
	IsValid       bool
	CurrentStatus string
	Err           *domain.InvalidTransitionError
}

// ValidateTransition informa si la orden puede pasar a target sin ejecutar.
func (v *Validator) ValidateTransition(ctx context.Context, companyID, orderID, target string) (TransitionCheck, error) {
	o, err := v.loadOrder(ctx, companyID, orderID)
	if err != nil {
		return TransitionCheck{}, err
	}
	check := TransitionCheck{IsValid: true, CurrentStatus: o.Status}
	if err := domaintr.ValidateTransition(o.Status, target); err != nil {
		te, _ := err.(*domain.InvalidTransitionError)
		check.IsValid = false
		check.Err = te
	}
	return check, nil
}

func (v *Validator) loadOrder(ctx context.Context, companyID, orderID string) (*entity.TransformationOrder, error) {
	o, err := v.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, domain.Persistence("leer orden", err)
	}
	if o == nil || o.IsRetired() {
		return nil, fmt.Errorf("%w: orden %s", domain.ErrNotFound, orderID)
	}
	if o.CompanyID != companyID {
		return nil, domain.ErrForbidden
	}
	return o, nil
}

type requirement struct {
	itemID   string
	quantity decimal.Decimal
}

// shortfalls agrega requerimientos por ítem y los compara con el saldo.
// useAvailable elige AvailableStock (planeación) o CurrentStock (ejecución).
func (v *Validator) shortfalls(ctx context.Context, warehouseID string, reqs []requirement, useAvailable bool) ([]domain.InsufficientItem, error) {
	totals := make(map[string]decimal.Decimal)
	order := make([]string, 0, len(reqs))
	for _, r := range reqs {
		if _, ok := totals[r.itemID]; !ok {
			order = append(order, r.itemID)
			totals[r.itemID] = decimal.Zero
		}
		totals[r.itemID] = totals[r.itemID].Add(r.quantity)
	}

	items, err := v.items.GetByIDs(ctx, order)
	if err != nil {
		return nil, domain.Persistence("leer ítems", err)
	}

	var short []domain.InsufficientItem
	for _, itemID := range order {
		required := totals[itemID]
		if !required.GreaterThan(decimal.Zero) {
			continue
		}
		bal, err := v.stock.Get(ctx, itemID, warehouseID)
		if err != nil {
			return nil, domain.Persistence("leer saldo", err)
		}
		available := bal.CurrentStock
		if useAvailable {
			available = bal.AvailableStock
		}
		if available.LessThan(required) {
			it := domain.InsufficientItem{ItemID: itemID, Required: required, Available: available}
			if item := items[itemID]; item != nil {
				it.ItemCode = item.Code
				it.ItemName = item.Name
			}
			short = append(short, it)
		}
	}
	return short, nil
}
