package transformation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/invorya-transformaciones/internal/application/dto"
	"github.com/jhoicas/invorya-transformaciones/internal/application/inventory"
	"github.com/jhoicas/invorya-transformaciones/internal/domain"
	"github.com/jhoicas/invorya-transformaciones/internal/domain/entity"
	"github.com/jhoicas/invorya-transformaciones/internal/domain/repository"
	domaintr "github.com/jhoicas/invorya-transformaciones/internal/domain/transformation"
)

// OrderUseCase gestión de órdenes de transformación (todo salvo la ejecución).
type OrderUseCase struct {
	txRunner   inventory.TxRunner
	orders     repository.OrderRepository
	templates  repository.TemplateRepository
	warehouses repository.WarehouseRepository
	items      repository.ItemRepository
	lineage    repository.LineageRepository
	validator  *Validator
	reports    ReportGenerator
	log        zerolog.Logger
}

// OrderDeps dependencias de OrderUseCase.
type OrderDeps struct {
	TxRunner   inventory.TxRunner
	Orders     repository.OrderRepository
	Templates  repository.TemplateRepository
	Warehouses repository.WarehouseRepository
	Items      repository.ItemRepository
	Lineage    repository.LineageRepository
	Validator  *Validator
	Reports    ReportGenerator
	Log        zerolog.Logger
}

// NewOrderUseCase construye el caso de uso.
func NewOrderUseCase(d OrderDeps) *OrderUseCase {
	return &OrderUseCase{
		txRunner:   d.TxRunner,
		orders:     d.Orders,
		templates:  d.Templates,
		warehouses: d.Warehouses,
		items:      d.Items,
		lineage:    d.Lineage,
		validator:  d.Validator,
		reports:    d.Reports,
		log:        d.Log,
	}
}

// Create crea una orden en DRAFT copiando las cantidades planeadas de la plantilla
// e incrementa usageCount de la plantilla en la misma transacción.
func (uc *OrderUseCase) Create(ctx context.Context, companyID, userID string, in dto.CreateOrderRequest) (*dto.OrderResponse, error) {
	check, err := uc.validator.ValidateTemplate(ctx, companyID, in.TemplateID)
	if err != nil {
		return nil, err
	}
	if !check.IsValid {
		if check.Err.Code == domain.CodeTemplateNotFound {
			return nil, fmt.Errorf("%w: plantilla %s", domain.ErrNotFound, in.TemplateID)
		}
		return nil, check.Err
	}

	wh, err := uc.warehouses.GetByID(ctx, in.WarehouseID)
	if err != nil {
		return nil, domain.Persistence("leer bodega", err)
	}
	if wh == nil {
		return nil, fmt.Errorf("%w: bodega %s", domain.ErrNotFound, in.WarehouseID)
	}
	if !wh.BelongsTo(companyID) {
		return nil, domain.NewValidationError(domain.CodeWarehouseMismatch, "la bodega no pertenece a la empresa")
	}
	if !wh.AcceptsMovements() {
		return nil, domain.NewValidationError(domain.CodeWarehouseInactive, "la bodega está inactiva")
	}

	var order *entity.TransformationOrder
	err = uc.txRunner.Run(ctx, func(r inventory.TxRepos) error {
		t, err := r.Templates.GetByID(ctx, in.TemplateID)
		if err != nil {
			return domain.Persistence("leer plantilla", err)
		}
		if t == nil {
			return fmt.Errorf("%w: plantilla %s", domain.ErrNotFound, in.TemplateID)
		}
		order = newOrderFromTemplate(t, companyID, userID, in)
		if err := r.Orders.Create(ctx, order); err != nil {
			return domain.Persistence("crear orden", err)
		}
		if err := r.Templates.IncrementUsage(ctx, t.ID); err != nil {
			return domain.Persistence("incrementar uso de plantilla", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("order_id", order.ID).Str("template_id", in.TemplateID).Msg("orden de transformación creada")
	return toOrderResponse(order), nil
}

func newOrderFromTemplate(t *entity.TransformationTemplate, companyID, userID string, in dto.CreateOrderRequest) *entity.TransformationOrder {
	now := time.Now()
	o := &entity.TransformationOrder{
		ID:              uuid.New().String(),
		CompanyID:       companyID,
		TemplateID:      t.ID,
		Code:            newOrderCode(),
		WarehouseID:     in.WarehouseID,
		Status:          entity.OrderStatusDraft,
		PlannedQuantity: decimal.Zero,
		ActualQuantity:  decimal.Zero,
		TotalInputCost:  decimal.Zero,
		TotalOutputCost: decimal.Zero,
		TotalWasteCost:  decimal.Zero,
		ScrapCost:       decimal.Zero,
		CostVariance:    decimal.Zero,
		Notes:           in.Notes,
		CreatedAt:       now,
		UpdatedAt:       now,
		CreatedBy:       userID,
		UpdatedBy:       userID,
	}
	for _, l := range t.Inputs {
		o.Inputs = append(o.Inputs, entity.OrderInput{
			ID:               uuid.New().String(),
			OrderID:          o.ID,
			ItemID:           l.ItemID,
			UnitMeasure:      l.UnitMeasure,
			PlannedQuantity:  l.Quantity,
			ConsumedQuantity: decimal.Zero,
			UnitCost:         decimal.Zero,
			TotalCost:        decimal.Zero,
			Sequence:         l.Sequence,
		})
	}
	for _, l := range t.Outputs {
		o.Outputs = append(o.Outputs, entity.OrderOutput{
			ID:                   uuid.New().String(),
			OrderID:              o.ID,
			ItemID:               l.ItemID,
			UnitMeasure:          l.UnitMeasure,
			PlannedQuantity:      l.Quantity,
			ProducedQuantity:     decimal.Zero,
			WastedQuantity:       decimal.Zero,
			IsScrap:              l.IsScrap,
			AllocatedCostPerUnit: decimal.Zero,
			TotalAllocatedCost:   decimal.Zero,
			WasteCostPerUnit:     decimal.Zero,
			WasteTotalCost:       decimal.Zero,
			Sequence:             l.Sequence,
		})
		o.PlannedQuantity = o.PlannedQuantity.Add(l.Quantity)
	}
	return o
}

func newOrderCode() string {
	raw := strings.ReplaceAll(uuid.New().String(), "-", "")
	return "TO-" + strings.ToUpper(raw[:8])
}

// GetByID obtiene una orden con sus líneas.
func (uc *OrderUseCase) GetByID(ctx context.Context, companyID, id string) (*dto.OrderResponse, error) {
	o, err := uc.validator.loadOrder(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	return toOrderResponse(o), nil
}

// List lista órdenes no retiradas de la empresa, opcionalmente por estado.
func (uc *OrderUseCase) List(ctx context.Context, companyID, status string, limit, offset int) (*dto.OrderListResponse, error) {
	if status != "" && !domaintr.IsKnownStatus(status) {
		return nil, domain.NewValidationError(domain.CodeUnknownStatus, "estado desconocido: "+status)
	}
	list, err := uc.orders.ListByCompany(ctx, companyID, repository.OrderFilter{Status: status, Limit: limit, Offset: offset})
	if err != nil {
		return nil, domain.Persistence("listar órdenes", err)
	}
	items := make([]dto.OrderResponse, 0, len(list))
	for _, o := range list {
		items = append(items, *toOrderResponse(o))
	}
	return &dto.OrderListResponse{Items: items, Page: dto.PageResponse{Limit: limit, Offset: offset, Count: len(items)}}, nil
}

// Transition aplica una transición directa (DRAFT, PREPARING, CANCELLED). COMPLETED requiere ejecución.
func (uc *OrderUseCase) Transition(ctx context.Context, companyID, userID, id, target string) (*dto.OrderResponse, error) {
	o, err := uc.validator.loadOrder(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	if err := domaintr.ValidateTransition(o.Status, target); err != nil {
		return nil, err
	}
	current := o.Status
	o.Status = target
	o.UpdatedAt = time.Now()
	o.UpdatedBy = userID
	if err := uc.orders.UpdateStatus(ctx, o, current); err != nil {
		if errors.Is(err, domain.ErrConcurrentModification) {
			return nil, fmt.Errorf("%w: la orden cambió de estado durante la transición", domain.ErrConflict)
		}
		return nil, domain.Persistence("actualizar estado", err)
	}
	uc.log.Info().Str("order_id", id).Str("from", current).Str("to", target).Msg("transición de orden")
	return toOrderResponse(o), nil
}

// ValidateTransition expone la validación de transición.
func (uc *OrderUseCase) ValidateTransition(ctx context.Context, companyID, id, target string) (*dto.TransitionValidationResponse, error) {
	res, err := uc.validator.ValidateTransition(ctx, companyID, id, target)
	if err != nil {
		return nil, err
	}
	out := &dto.TransitionValidationResponse{IsValid: res.IsValid, CurrentStatus: res.CurrentStatus}
	if res.Err != nil {
		out.Code = res.Err.Code
		out.Error = res.Err.Error()
	}
	return out, nil
}

// ValidateStock expone la validación de disponibilidad.
func (uc *OrderUseCase) ValidateStock(ctx context.Context, companyID, id string) (*dto.StockValidationResponse, error) {
	res, err := uc.validator.ValidateStockAvailability(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	items := res.InsufficientItems
	if items == nil {
		items = []domain.InsufficientItem{}
	}
	return &dto.StockValidationResponse{IsAvailable: res.IsAvailable, InsufficientItems: items}, nil
}

// Retire retira lógicamente una orden en DRAFT o CANCELLED. Las órdenes nunca se eliminan.
func (uc *OrderUseCase) Retire(ctx context.Context, companyID, id string) error {
	o, err := uc.validator.loadOrder(ctx, companyID, id)
	if err != nil {
		return err
	}
	if o.Status != entity.OrderStatusDraft && o.Status != entity.OrderStatusCancelled {
		return &domain.InvalidStateError{
			Operation: "retirar la orden",
			Current:   o.Status,
			Expected:  entity.OrderStatusDraft + " o " + entity.OrderStatusCancelled,
		}
	}
	if err := uc.orders.Retire(ctx, id, time.Now()); err != nil {
		return domain.Persistence("retirar orden", err)
	}
	return nil
}

// Lineage devuelve las aristas de trazabilidad de la orden.
func (uc *OrderUseCase) Lineage(ctx context.Context, companyID, id string) (*dto.LineageResponse, error) {
	if _, err := uc.validator.loadOrder(ctx, companyID, id); err != nil {
		return nil, err
	}
	edges, err := uc.lineage.ListByOrder(ctx, id)
	if err != nil {
		return nil, domain.Persistence("leer trazabilidad", err)
	}
	out := &dto.LineageResponse{OrderID: id, Edges: make([]dto.LineageEdgeResponse, 0, len(edges))}
	for _, e := range edges {
		out.Edges = append(out.Edges, dto.LineageEdgeResponse{
			InputLineID:        e.InputLineID,
			OutputLineID:       e.OutputLineID,
			InputQuantityUsed:  e.InputQuantityUsed,
			OutputQuantityFrom: e.OutputQuantityFrom,
			CostAttributed:     e.CostAttributed,
		})
	}
	return out, nil
}

// Report genera el reporte PDF de una orden completada.
func (uc *OrderUseCase) Report(ctx context.Context, companyID, id string) ([]byte, error) {
	o, err := uc.validator.loadOrder(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	if o.Status != entity.OrderStatusCompleted {
		return nil, &domain.InvalidStateError{Operation: "generar el reporte", Current: o.Status, Expected: entity.OrderStatusCompleted}
	}
	if uc.reports == nil {
		return nil, fmt.Errorf("generador de reportes no configurado")
	}
	t, err := uc.templates.GetByID(ctx, o.TemplateID)
	if err != nil {
		return nil, domain.Persistence("leer plantilla", err)
	}
	ids := make([]string, 0, len(o.Inputs)+len(o.Outputs))
	for _, l := range o.Inputs {
		ids = append(ids, l.ItemID)
	}
	for _, l := range o.Outputs {
		ids = append(ids, l.ItemID)
	}
	items, err := uc.items.GetByIDs(ctx, ids)
	if err != nil {
		return nil, domain.Persistence("leer ítems", err)
	}
	edges, err := uc.lineage.ListByOrder(ctx, id)
	if err != nil {
		return nil, domain.Persistence("leer trazabilidad", err)
	}
	return uc.reports.ExecutionReport(ReportData{Order: o, Template: t, Items: items, Lineage: edges})
}

func toOrderResponse(o *entity.TransformationOrder) *dto.OrderResponse {
	out := &dto.OrderResponse{
		ID:              o.ID,
		CompanyID:       o.CompanyID,
		TemplateID:      o.TemplateID,
		Code:            o.Code,
		WarehouseID:     o.WarehouseID,
		Status:          o.Status,
		PlannedQuantity: o.PlannedQuantity,
		ActualQuantity:  o.ActualQuantity,
		ExecutionDate:   o.ExecutionDate,
		CompletionDate:  o.CompletionDate,
		TotalInputCost:  o.TotalInputCost,
		TotalOutputCost: o.TotalOutputCost,
		TotalWasteCost:  o.TotalWasteCost,
		ScrapCost:       o.ScrapCost,
		CostVariance:    o.CostVariance,
		Notes:           o.Notes,
		Inputs:          make([]dto.OrderInputResponse, 0, len(o.Inputs)),
		Outputs:         make([]dto.OrderOutputResponse, 0, len(o.Outputs)),
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
	for _, l := range o.Inputs {
		out.Inputs = append(out.Inputs, dto.OrderInputResponse{
			ID:                 l.ID,
			ItemID:             l.ItemID,
			UnitMeasure:        l.UnitMeasure,
			PlannedQuantity:    l.PlannedQuantity,
			ConsumedQuantity:   l.ConsumedQuantity,
			UnitCost:           l.UnitCost,
			TotalCost:          l.TotalCost,
			StockTransactionID: l.StockTransactionID,
			Sequence:           l.Sequence,
		})
	}
	for _, l := range o.Outputs {
		out.Outputs = append(out.Outputs, dto.OrderOutputResponse{
			ID:                      l.ID,
			ItemID:                  l.ItemID,
			UnitMeasure:             l.UnitMeasure,
			PlannedQuantity:         l.PlannedQuantity,
			ProducedQuantity:        l.ProducedQuantity,
			WastedQuantity:          l.WastedQuantity,
			WasteReason:             l.WasteReason,
			IsScrap:                 l.IsScrap,
			AllocatedCostPerUnit:    l.AllocatedCostPerUnit,
			TotalAllocatedCost:      l.TotalAllocatedCost,
			WasteCostPerUnit:        l.WasteCostPerUnit,
			WasteTotalCost:          l.WasteTotalCost,
			StockTransactionID:      l.StockTransactionID,
			WasteStockTransactionID: l.WasteStockTransactionID,
			Sequence:                l.Sequence,
		})
	}
	return out
}
