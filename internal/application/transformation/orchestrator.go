package transformation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/invorya-transformaciones/internal/application/dto"
	"github.com/jhoicas/invorya-transformaciones/internal/application/inventory"
	"github.com/jhoicas/invorya-transformaciones/internal/domain"
	"github.com/jhoicas/invorya-transformaciones/internal/domain/entity"
	domaininv "github.com/jhoicas/invorya-transformaciones/internal/domain/inventory"
	domaintr "github.com/jhoicas/invorya-transformaciones/internal/domain/transformation"
)

// Orchestrator ejecuta una transformación: valida, consume entradas, asigna costos, produce
// salidas, registra merma y trazabilidad. Cada paso es atómico; ante un fallo fatal
// se compensan los pasos ya aplicados en orden inverso.
type Orchestrator struct {
	txRunner  inventory.TxRunner
	poster    *inventory.StockPoster
	validator *Validator
	locker    Locker
	lockTTL   time.Duration
	events    EventPublisher
	metrics   Metrics
	log       zerolog.Logger
}

// OrchestratorDeps dependencias del orquestador. Locker, Events y Metrics son opcionales.
type OrchestratorDeps struct {
	TxRunner  inventory.TxRunner
	Poster    *inventory.StockPoster
	Validator *Validator
	Locker    Locker
	LockTTL   time.Duration
	Events    EventPublisher
	Metrics   Metrics
	Log       zerolog.Logger
}

// NewOrchestrator construye el orquestador.
func NewOrchestrator(d OrchestratorDeps) *Orchestrator {
	o := &Orchestrator{
		txRunner:  d.TxRunner,
		poster:    d.Poster,
		validator: d.Validator,
		locker:    d.Locker,
		lockTTL:   d.LockTTL,
		events:    d.Events,
		metrics:   d.Metrics,
		log:       d.Log,
	}
	if o.events == nil {
		o.events = noopPublisher{}
	}
	if o.metrics == nil {
		o.metrics = noopMetrics{}
	}
	if o.lockTTL <= 0 {
		o.lockTTL = 30 * time.Second
	}
	return o
}

// LockKey clave del bloqueo de ejecución de una orden.
func LockKey(orderID string) string {
	return "transformation:order:" + orderID
}

type inputPlan struct {
	idx      int
	consumed decimal.Decimal
}

type outputPlan struct {
	idx      int
	produced decimal.Decimal
	wasted   decimal.Decimal
	reason   string
}

// execution estado mutable de una ejecución en curso.
type execution struct {
	order          *entity.TransformationOrder
	companyID      string
	actor          string
	date           time.Time
	totalInputCost decimal.Decimal
	allocation     map[string]domaintr.OutputAllocation
	totals         domaintr.Allocation
	ids            dto.StockTransactionIDs
}

// Execute ejecuta la orden. Precondiciones (la primera que falla gana, nada se modifica):
// la orden existe, está en PREPARING y todas las líneas referenciadas le pertenecen.
func (o *Orchestrator) Execute(ctx context.Context, companyID, userID, orderID string, in dto.ExecuteTransformationRequest) (*dto.ExecuteTransformationResponse, error) {
	start := time.Now()
	log := o.log.With().Str("order_id", orderID).Str("user_id", userID).Logger()

	if _, err := o.validator.loadOrder(ctx, companyID, orderID); err != nil {
		o.metrics.ObserveExecution(ResultRejected, time.Since(start))
		return nil, err
	}
	if o.locker != nil {
		lock, err := o.locker.Obtain(ctx, LockKey(orderID), o.lockTTL)
		if err != nil {
			o.metrics.ObserveExecution(ResultRejected, time.Since(start))
			if errors.Is(err, domain.ErrLockNotObtained) {
				return nil, err
			}
			return nil, fmt.Errorf("obtener bloqueo de la orden: %w", err)
		}
		defer func() {
			if err := lock.Release(context.WithoutCancel(ctx)); err != nil {
				log.Warn().Err(err).Msg("no se pudo liberar el bloqueo de la orden")
			}
		}()
	}

	// Se relee bajo el bloqueo: otra ejecución pudo completarla mientras se esperaba.
	order, err := o.validator.loadOrder(ctx, companyID, orderID)
	if err != nil {
		o.metrics.ObserveExecution(ResultRejected, time.Since(start))
		return nil, err
	}
	if err := domaintr.ValidateExecution(order.Status); err != nil {
		o.metrics.ObserveExecution(ResultRejected, time.Since(start))
		return nil, err
	}
	inputs, outputs, err := planLines(order, in)
	if err != nil {
		o.metrics.ObserveExecution(ResultRejected, time.Since(start))
		return nil, err
	}
	if err := o.preflight(ctx, order, inputs); err != nil {
		o.metrics.ObserveExecution(ResultRejected, time.Since(start))
		if errors.Is(err, domain.ErrInsufficientStock) {
			o.metrics.IncInsufficientStock()
		}
		return nil, err
	}

	ex := &execution{
		order:          order,
		companyID:      companyID,
		actor:          userID,
		date:           time.Now(),
		totalInputCost: decimal.Zero,
		ids:            dto.StockTransactionIDs{Inputs: []string{}, Outputs: []string{}, Waste: []string{}},
	}
	if in.ExecutionDate != nil {
		ex.date = *in.ExecutionDate
	}

	saga := NewSaga(log, func(step string, _ error) { o.metrics.IncStepFailure(step) })
	actual := decimal.Zero
	for _, p := range outputs {
		actual = actual.Add(p.produced)
	}
	saga.Add(o.completeStep(ex, actual))
	for _, p := range inputs {
		saga.Add(o.consumeStep(ex, p))
	}
	saga.Add(Step{Name: "allocate-costs", Action: func(context.Context) error {
		o.allocate(ex, outputs)
		return nil
	}})
	for _, p := range outputs {
		saga.Add(o.produceStep(ex, p))
		if p.wasted.GreaterThan(decimal.Zero) {
			saga.Add(o.wasteStep(ex, p))
		}
	}
	saga.Add(o.lineageStep(ex))
	saga.Add(o.finalizeStep(ex))

	if err := saga.Execute(ctx); err != nil {
		o.afterFailure(ctx, log, ex, err, start)
		return nil, err
	}

	o.metrics.ObserveExecution(ResultSuccess, time.Since(start))
	o.publish(ctx, log, Event{Type: EventCompleted, OrderID: orderID, CompanyID: companyID, ActorID: userID, OccurredAt: time.Now()})
	log.Info().
		Str("total_input_cost", order.TotalInputCost.String()).
		Str("total_output_cost", order.TotalOutputCost.String()).
		Str("cost_variance", order.CostVariance.String()).
		Msg("transformación ejecutada")

	return &dto.ExecuteTransformationResponse{
		Success:             true,
		OrderID:             orderID,
		StockTransactionIDs: ex.ids,
		TotalInputCost:      order.TotalInputCost,
		TotalOutputCost:     order.TotalOutputCost,
		TotalWasteCost:      order.TotalWasteCost,
		ScrapCost:           order.ScrapCost,
		CostVariance:        order.CostVariance,
	}, nil
}

func (o *Orchestrator) afterFailure(ctx context.Context, log zerolog.Logger, ex *execution, err error, start time.Time) {
	if errors.Is(err, domain.ErrInsufficientStock) {
		o.metrics.IncInsufficientStock()
	}
	var sagaErr *SagaError
	if !errors.As(err, &sagaErr) {
		o.metrics.ObserveExecution(ResultRejected, time.Since(start))
		return
	}
	if len(sagaErr.Compensated) == 0 && sagaErr.CompensationErr == nil {
		// falló el primer paso: no había nada que compensar
		o.metrics.ObserveExecution(ResultRejected, time.Since(start))
		return
	}
	o.metrics.IncCompensation()
	result := ResultCompensated
	if sagaErr.CompensationErr != nil {
		result = ResultInconsistent
		log.Error().Err(sagaErr.CompensationErr).Msg("compensación incompleta; revisar la orden manualmente")
	}
	o.metrics.ObserveExecution(result, time.Since(start))
	o.publish(ctx, log, Event{
		Type:       EventCompensated,
		OrderID:    ex.order.ID,
		CompanyID:  ex.companyID,
		ActorID:    ex.actor,
		Reason:     err.Error(),
		OccurredAt: time.Now(),
	})
}

func (o *Orchestrator) publish(ctx context.Context, log zerolog.Logger, ev Event) {
	if err := o.events.Publish(context.WithoutCancel(ctx), ev); err != nil {
		log.Warn().Err(err).Str("event", ev.Type).Msg("no se pudo publicar el evento")
	}
}

// planLines valida que cada línea referenciada pertenezca a la orden y que las cantidades no sean negativas.
func planLines(order *entity.TransformationOrder, in dto.ExecuteTransformationRequest) ([]inputPlan, []outputPlan, error) {
	inputIdx := make(map[string]int, len(order.Inputs))
	for i, l := range order.Inputs {
		inputIdx[l.ID] = i
	}
	outputIdx := make(map[string]int, len(order.Outputs))
	for i, l := range order.Outputs {
		outputIdx[l.ID] = i
	}

	inputs := make([]inputPlan, 0, len(in.Inputs))
	seen := make(map[string]bool)
	for _, r := range in.Inputs {
		idx, ok := inputIdx[r.InputLineID]
		if !ok {
			return nil, nil, domain.NewValidationError(domain.CodeInvalidInputLine, "id de línea de entrada inválido: "+r.InputLineID)
		}
		if seen[r.InputLineID] {
			return nil, nil, domain.NewValidationError(domain.CodeDuplicateLine, "línea de entrada repetida: "+r.InputLineID)
		}
		seen[r.InputLineID] = true
		inputs = append(inputs, inputPlan{idx: idx, consumed: r.ConsumedQuantity})
	}
	outputs := make([]outputPlan, 0, len(in.Outputs))
	for _, r := range in.Outputs {
		idx, ok := outputIdx[r.OutputLineID]
		if !ok {
			return nil, nil, domain.NewValidationError(domain.CodeInvalidOutputLine, "id de línea de salida inválido: "+r.OutputLineID)
		}
		if seen[r.OutputLineID] {
			return nil, nil, domain.NewValidationError(domain.CodeDuplicateLine, "línea de salida repetida: "+r.OutputLineID)
		}
		seen[r.OutputLineID] = true
		wasted := decimal.Zero
		if r.WastedQuantity != nil {
			wasted = *r.WastedQuantity
		}
		outputs = append(outputs, outputPlan{idx: idx, produced: r.ProducedQuantity, wasted: wasted, reason: r.WasteReason})
	}

	for _, p := range inputs {
		if p.consumed.IsNegative() {
			return nil, nil, domain.NewValidationError(domain.CodeInvalidQuantity, "la cantidad consumida no puede ser negativa")
		}
	}
	for _, p := range outputs {
		if p.produced.IsNegative() || p.wasted.IsNegative() {
			return nil, nil, domain.NewValidationError(domain.CodeInvalidQuantity, "las cantidades producida y mermada no pueden ser negativas")
		}
	}
	return inputs, outputs, nil
}

// preflight verifica el stock actual de todas las entradas antes de tocar nada y reporta todos los faltantes.
func (o *Orchestrator) preflight(ctx context.Context, order *entity.TransformationOrder, inputs []inputPlan) error {
	reqs := make([]requirement, 0, len(inputs))
	for _, p := range inputs {
		reqs = append(reqs, requirement{itemID: order.Inputs[p.idx].ItemID, quantity: p.consumed})
	}
	short, err := o.validator.shortfalls(ctx, order.WarehouseID, reqs, false)
	if err != nil {
		return err
	}
	if len(short) > 0 {
		return &domain.InsufficientStockError{WarehouseID: order.WarehouseID, Items: short}
	}
	return nil
}

func (o *Orchestrator) completeStep(ex *execution, actual decimal.Decimal) Step {
	return Step{
		Name: "complete-order",
		Action: func(ctx context.Context) error {
			upd := *ex.order
			now := time.Now()
			date := ex.date
			upd.Status = entity.OrderStatusCompleted
			upd.ExecutionDate = &date
			upd.CompletionDate = &now
			upd.ActualQuantity = actual
			upd.UpdatedAt = now
			upd.UpdatedBy = ex.actor
			err := o.txRunner.Run(ctx, func(r inventory.TxRepos) error {
				return r.Orders.UpdateStatus(ctx, &upd, entity.OrderStatusPreparing)
			})
			if err != nil {
				if errors.Is(err, domain.ErrConcurrentModification) {
					return fmt.Errorf("%w: la orden dejó de estar en PREPARING", domain.ErrConflict)
				}
				return domain.Persistence("completar orden", err)
			}
			*ex.order = upd
			return nil
		},
		Compensate: func(ctx context.Context) error {
			upd := *ex.order
			upd.Status = entity.OrderStatusPreparing
			upd.ExecutionDate = nil
			upd.CompletionDate = nil
			upd.ActualQuantity = decimal.Zero
			upd.UpdatedAt = time.Now()
			err := o.txRunner.Run(ctx, func(r inventory.TxRepos) error {
				return r.Orders.UpdateStatus(ctx, &upd, entity.OrderStatusCompleted)
			})
			if err != nil {
				return domain.Persistence("revertir estado", err)
			}
			*ex.order = upd
			return nil
		},
	}
}

func (o *Orchestrator) consumeStep(ex *execution, p inputPlan) Step {
	line := ex.order.Inputs[p.idx]
	return Step{
		Name: "consume:" + line.ID,
		Action: func(ctx context.Context) error {
			if p.consumed.IsZero() {
				return nil
			}
			current := ex.order.Inputs[p.idx]
			var updated entity.OrderInput
			posted, err := o.poster.Post(ctx, inventory.Posting{
				CompanyID:   ex.companyID,
				WarehouseID: ex.order.WarehouseID,
				ItemID:      current.ItemID,
				ReferenceID: ex.order.ID,
				Actor:       ex.actor,
				Type:        entity.StockTransactionOut,
				Purpose:     entity.PurposeConsumption,
				Quantity:    p.consumed,
				Date:        ex.date,
				Notes:       "consumo orden " + ex.order.Code,
			}, func(ctx context.Context, r inventory.TxRepos, posted *inventory.Posted) error {
				updated = current
				updated.ConsumedQuantity = p.consumed
				updated.UnitCost = posted.UnitCost
				updated.TotalCost = p.consumed.Mul(posted.UnitCost)
				updated.StockTransactionID = posted.Transaction.ID
				return r.Orders.UpdateInput(ctx, &updated)
			})
			if err != nil {
				return err
			}
			ex.order.Inputs[p.idx] = updated
			ex.totalInputCost = ex.totalInputCost.Add(updated.TotalCost)
			ex.ids.Inputs = append(ex.ids.Inputs, posted.Transaction.ID)
			return nil
		},
		Compensate: func(ctx context.Context) error {
			current := ex.order.Inputs[p.idx]
			if current.StockTransactionID == "" {
				return nil
			}
			unitCost := current.UnitCost
			reset := current
			reset.ConsumedQuantity = decimal.Zero
			reset.UnitCost = decimal.Zero
			reset.TotalCost = decimal.Zero
			reset.StockTransactionID = ""
			_, err := o.poster.Post(ctx, inventory.Posting{
				CompanyID:   ex.companyID,
				WarehouseID: ex.order.WarehouseID,
				ItemID:      current.ItemID,
				ReferenceID: ex.order.ID,
				ReversesID:  current.StockTransactionID,
				Actor:       ex.actor,
				Type:        entity.StockTransactionIn,
				Purpose:     entity.PurposeReversal,
				Quantity:    current.ConsumedQuantity,
				UnitCost:    &unitCost,
				Notes:       "reverso de consumo orden " + ex.order.Code,
			}, func(ctx context.Context, r inventory.TxRepos, _ *inventory.Posted) error {
				return r.Orders.UpdateInput(ctx, &reset)
			})
			if err != nil {
				return err
			}
			ex.totalInputCost = ex.totalInputCost.Sub(current.TotalCost)
			ex.order.Inputs[p.idx] = reset
			return nil
		},
	}
}

// allocate reparte el costo total de entradas entre todas las salidas de la orden;
// las no reportadas cuentan con cantidad cero.
func (o *Orchestrator) allocate(ex *execution, outputs []outputPlan) {
	reported := make(map[int]outputPlan, len(outputs))
	for _, p := range outputs {
		reported[p.idx] = p
	}
	quantities := make([]domaintr.OutputQuantity, 0, len(ex.order.Outputs))
	for i, l := range ex.order.Outputs {
		q := domaintr.OutputQuantity{LineID: l.ID, Produced: decimal.Zero, Wasted: decimal.Zero, IsScrap: l.IsScrap}
		if p, ok := reported[i]; ok {
			q.Produced = p.produced
			q.Wasted = p.wasted
		}
		quantities = append(quantities, q)
	}
	ex.totals = domaintr.Allocate(ex.totalInputCost, quantities)
	ex.allocation = make(map[string]domaintr.OutputAllocation, len(ex.totals.Outputs))
	for _, a := range ex.totals.Outputs {
		ex.allocation[a.LineID] = a
	}
}

func (o *Orchestrator) produceStep(ex *execution, p outputPlan) Step {
	line := ex.order.Outputs[p.idx]
	return Step{
		Name: "produce:" + line.ID,
		Action: func(ctx context.Context) error {
			current := ex.order.Outputs[p.idx]
			a := ex.allocation[current.ID]
			updated := current
			updated.ProducedQuantity = p.produced
			updated.WastedQuantity = p.wasted
			updated.WasteReason = p.reason
			updated.AllocatedCostPerUnit = a.CostPerUnit
			if current.IsScrap {
				updated.AllocatedCostPerUnit = decimal.Zero
			}
			updated.TotalAllocatedCost = a.AllocatedCost
			updated.WasteCostPerUnit = a.WasteCostPerUnit
			updated.WasteTotalCost = a.WasteTotalCost

			if !p.produced.GreaterThan(decimal.Zero) {
				err := o.txRunner.Run(ctx, func(r inventory.TxRepos) error {
					return r.Orders.UpdateOutput(ctx, &updated)
				})
				if err != nil {
					return domain.Persistence("actualizar salida", err)
				}
				ex.order.Outputs[p.idx] = updated
				return nil
			}

			unitCost := updated.AllocatedCostPerUnit
			posted, err := o.poster.Post(ctx, inventory.Posting{
				CompanyID:   ex.companyID,
				WarehouseID: ex.order.WarehouseID,
				ItemID:      current.ItemID,
				ReferenceID: ex.order.ID,
				Actor:       ex.actor,
				Type:        entity.StockTransactionIn,
				Purpose:     entity.PurposeProduction,
				Quantity:    p.produced,
				UnitCost:    &unitCost,
				Date:        ex.date,
				Notes:       "producción orden " + ex.order.Code,
			}, func(ctx context.Context, r inventory.TxRepos, posted *inventory.Posted) error {
				withTx := updated
				withTx.StockTransactionID = posted.Transaction.ID
				return r.Orders.UpdateOutput(ctx, &withTx)
			})
			if err != nil {
				return err
			}
			updated.StockTransactionID = posted.Transaction.ID
			ex.order.Outputs[p.idx] = updated
			ex.ids.Outputs = append(ex.ids.Outputs, posted.Transaction.ID)
			return nil
		},
		Compensate: func(ctx context.Context) error {
			current := ex.order.Outputs[p.idx]
			reset := current
			reset.ProducedQuantity = decimal.Zero
			reset.WastedQuantity = decimal.Zero
			reset.WasteReason = ""
			reset.AllocatedCostPerUnit = decimal.Zero
			reset.TotalAllocatedCost = decimal.Zero
			reset.WasteCostPerUnit = decimal.Zero
			reset.WasteTotalCost = decimal.Zero
			reset.StockTransactionID = ""

			if current.StockTransactionID == "" {
				err := o.txRunner.Run(ctx, func(r inventory.TxRepos) error {
					return r.Orders.UpdateOutput(ctx, &reset)
				})
				if err != nil {
					return domain.Persistence("revertir salida", err)
				}
				ex.order.Outputs[p.idx] = reset
				return nil
			}

			unitCost := current.AllocatedCostPerUnit
			_, err := o.poster.Post(ctx, inventory.Posting{
				CompanyID:   ex.companyID,
				WarehouseID: ex.order.WarehouseID,
				ItemID:      current.ItemID,
				ReferenceID: ex.order.ID,
				ReversesID:  current.StockTransactionID,
				Actor:       ex.actor,
				Type:        entity.StockTransactionOut,
				Purpose:     entity.PurposeReversal,
				Quantity:    current.ProducedQuantity,
				UnitCost:    &unitCost,
				Notes:       "reverso de producción orden " + ex.order.Code,
			}, func(ctx context.Context, r inventory.TxRepos, _ *inventory.Posted) error {
				return r.Orders.UpdateOutput(ctx, &reset)
			})
			if err != nil {
				return err
			}
			ex.order.Outputs[p.idx] = reset
			return nil
		},
	}
}

// wasteStep registra la merma como salida contable sin tocar el saldo (foto 0/0). Best-effort.
func (o *Orchestrator) wasteStep(ex *execution, p outputPlan) Step {
	line := ex.order.Outputs[p.idx]
	record := func(typ, purpose, reverses, notes string) inventory.RecordInput {
		cpu := ex.allocation[line.ID].WasteCostPerUnit
		return inventory.RecordInput{
			CompanyID:   ex.companyID,
			Type:        typ,
			Purpose:     purpose,
			WarehouseID: ex.order.WarehouseID,
			ReferenceID: ex.order.ID,
			ReversesID:  reverses,
			Notes:       notes,
			Actor:       ex.actor,
			Date:        ex.date,
			Lines: []inventory.RecordLine{{
				ItemID:   line.ItemID,
				Quantity: p.wasted,
				UnitCost: cpu,
				Valuation: domaininv.Valuation{
					QtyBefore:        decimal.Zero,
					QtyAfter:         decimal.Zero,
					Rate:             cpu,
					StockValueBefore: decimal.Zero,
					StockValueAfter:  decimal.Zero,
				},
			}},
		}
	}
	return Step{
		Name:       "waste:" + line.ID,
		BestEffort: true,
		Action: func(ctx context.Context) error {
			notes := "merma orden " + ex.order.Code
			if p.reason != "" {
				notes += ": " + p.reason
			}
			var updated entity.OrderOutput
			tx, err := o.poster.RecordOnly(ctx, record(entity.StockTransactionOut, entity.PurposeWaste, "", notes),
				func(ctx context.Context, r inventory.TxRepos, tx *entity.StockTransaction) error {
					updated = ex.order.Outputs[p.idx]
					updated.WasteStockTransactionID = tx.ID
					return r.Orders.UpdateOutput(ctx, &updated)
				})
			if err != nil {
				return err
			}
			ex.order.Outputs[p.idx] = updated
			ex.ids.Waste = append(ex.ids.Waste, tx.ID)
			return nil
		},
		Compensate: func(ctx context.Context) error {
			current := ex.order.Outputs[p.idx]
			if current.WasteStockTransactionID == "" {
				return nil
			}
			reset := current
			reset.WasteStockTransactionID = ""
			_, err := o.poster.RecordOnly(ctx,
				record(entity.StockTransactionIn, entity.PurposeReversal, current.WasteStockTransactionID, "reverso de merma orden "+ex.order.Code),
				func(ctx context.Context, r inventory.TxRepos, _ *entity.StockTransaction) error {
					return r.Orders.UpdateOutput(ctx, &reset)
				})
			if err != nil {
				return err
			}
			ex.order.Outputs[p.idx] = reset
			return nil
		},
	}
}

func (o *Orchestrator) lineageStep(ex *execution) Step {
	return Step{
		Name: "lineage",
		Action: func(ctx context.Context) error {
			var inputs []domaintr.InputContribution
			for _, l := range ex.order.Inputs {
				if l.ConsumedQuantity.GreaterThan(decimal.Zero) {
					inputs = append(inputs, domaintr.InputContribution{LineID: l.ID, Consumed: l.ConsumedQuantity, Cost: l.TotalCost})
				}
			}
			var outputs []domaintr.OutputShare
			for _, l := range ex.order.Outputs {
				if l.ProducedQuantity.Add(l.WastedQuantity).GreaterThan(decimal.Zero) {
					outputs = append(outputs, domaintr.OutputShare{
						LineID:        l.ID,
						Produced:      l.ProducedQuantity,
						Wasted:        l.WastedQuantity,
						AllocatedCost: l.TotalAllocatedCost,
					})
				}
			}
			edges := domaintr.BuildLineage(ex.order.ID, inputs, outputs, time.Now())
			if len(edges) == 0 {
				return nil
			}
			err := o.txRunner.Run(ctx, func(r inventory.TxRepos) error {
				return r.Lineage.CreateBatch(ctx, edges)
			})
			return domain.Persistence("registrar trazabilidad", err)
		},
		Compensate: func(ctx context.Context) error {
			err := o.txRunner.Run(ctx, func(r inventory.TxRepos) error {
				return r.Lineage.DeleteByOrder(ctx, ex.order.ID)
			})
			return domain.Persistence("eliminar trazabilidad", err)
		},
	}
}

func (o *Orchestrator) finalizeStep(ex *execution) Step {
	return Step{
		Name: "finalize-costs",
		Action: func(ctx context.Context) error {
			upd := *ex.order
			upd.TotalInputCost = ex.totalInputCost
			upd.TotalOutputCost = ex.totals.TotalOutputCost
			upd.TotalWasteCost = ex.totals.TotalWasteCost
			upd.ScrapCost = ex.totals.ScrapCost
			upd.CostVariance = ex.totals.CostVariance
			upd.UpdatedAt = time.Now()
			err := o.txRunner.Run(ctx, func(r inventory.TxRepos) error {
				return r.Orders.UpdateCosts(ctx, &upd)
			})
			if err != nil {
				return domain.Persistence("guardar costos", err)
			}
			*ex.order = upd
			return nil
		},
		Compensate: func(ctx context.Context) error {
			upd := *ex.order
			upd.TotalInputCost = decimal.Zero
			upd.TotalOutputCost = decimal.Zero
			upd.TotalWasteCost = decimal.Zero
			upd.ScrapCost = decimal.Zero
			upd.CostVariance = decimal.Zero
			upd.UpdatedAt = time.Now()
			err := o.txRunner.Run(ctx, func(r inventory.TxRepos) error {
				return r.Orders.UpdateCosts(ctx, &upd)
			})
			if err != nil {
				return domain.Persistence("revertir costos", err)
			}
			*ex.order = upd
			return nil
		},
	}
}
