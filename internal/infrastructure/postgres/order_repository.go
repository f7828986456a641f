package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/invorya-transformaciones/internal/domain"
	"github.com/jhoicas/invorya-transformaciones/internal/domain/entity"
	"github.com/jhoicas/invorya-transformaciones/internal/domain/repository"
)

var _ repository.OrderRepository = (*OrderRepo)(nil)

// OrderRepo órdenes de transformación con sus líneas de entrada y salida.
type OrderRepo struct {
	q Querier
}

// NewOrderRepository construye el adaptador. Pasar pool o tx (Querier).
func NewOrderRepository(q Querier) *OrderRepo {
	return &OrderRepo{q: q}
}

const orderColumns = `id, company_id, template_id, code, warehouse_id, status, planned_quantity, actual_quantity,
	execution_date, completion_date, total_input_cost, total_output_cost, total_waste_cost, scrap_cost, cost_variance,
	notes, retired_at, created_at, updated_at, created_by, updated_by`

const orderInputColumns = `id, order_id, item_id, unit_measure, planned_quantity, consumed_quantity, unit_cost, total_cost,
	stock_transaction_id, sequence`

const orderOutputColumns = `id, order_id, item_id, unit_measure, planned_quantity, produced_quantity, wasted_quantity,
	waste_reason, is_scrap, allocated_cost_per_unit, total_allocated_cost, waste_cost_per_unit, waste_total_cost,
	stock_transaction_id, waste_stock_transaction_id, sequence`

// Create inserta la orden y sus líneas en un batch.
func (r *OrderRepo) Create(ctx context.Context, o *entity.TransformationOrder) error {
	b := &pgx.Batch{}
	b.Queue(`INSERT INTO transformation_orders (`+orderColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)`,
		o.ID, o.CompanyID, o.TemplateID, o.Code, o.WarehouseID, o.Status, o.PlannedQuantity, o.ActualQuantity,
		o.ExecutionDate, o.CompletionDate, o.TotalInputCost, o.TotalOutputCost, o.TotalWasteCost, o.ScrapCost, o.CostVariance,
		o.Notes, o.RetiredAt, o.CreatedAt, o.UpdatedAt, o.CreatedBy, o.UpdatedBy)
	for _, l := range o.Inputs {
		b.Queue(`INSERT INTO transformation_order_inputs (`+orderInputColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			l.ID, o.ID, l.ItemID, l.UnitMeasure, l.PlannedQuantity, l.ConsumedQuantity, l.UnitCost, l.TotalCost,
			nullIfEmpty(l.StockTransactionID), l.Sequence)
	}
	for _, l := range o.Outputs {
		b.Queue(`INSERT INTO transformation_order_outputs (`+orderOutputColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
			l.ID, o.ID, l.ItemID, l.UnitMeasure, l.PlannedQuantity, l.ProducedQuantity, l.WastedQuantity,
			l.WasteReason, l.IsScrap, l.AllocatedCostPerUnit, l.TotalAllocatedCost, l.WasteCostPerUnit, l.WasteTotalCost,
			nullIfEmpty(l.StockTransactionID), nullIfEmpty(l.WasteStockTransactionID), l.Sequence)
	}
	return execBatch(ctx, r.q, b, "insert order")
}

func scanOrder(row pgx.Row, o *entity.TransformationOrder) error {
	return row.Scan(&o.ID, &o.CompanyID, &o.TemplateID, &o.Code, &o.WarehouseID, &o.Status, &o.PlannedQuantity, &o.ActualQuantity,
		&o.ExecutionDate, &o.CompletionDate, &o.TotalInputCost, &o.TotalOutputCost, &o.TotalWasteCost, &o.ScrapCost, &o.CostVariance,
		&o.Notes, &o.RetiredAt, &o.CreatedAt, &o.UpdatedAt, &o.CreatedBy, &o.UpdatedBy)
}

// GetByID obtiene la orden con sus líneas (incluidas las retiradas; el filtro es del caso de uso).
func (r *OrderRepo) GetByID(ctx context.Context, id string) (*entity.TransformationOrder, error) {
	var o entity.TransformationOrder
	if err := scanOrder(r.q.QueryRow(ctx, `SELECT `+orderColumns+` FROM transformation_orders WHERE id = $1`, id), &o); err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	if err := r.loadLines(ctx, map[string]*entity.TransformationOrder{o.ID: &o}); err != nil {
		return nil, err
	}
	return &o, nil
}

// ListByCompany lista órdenes no retiradas, más recientes primero.
func (r *OrderRepo) ListByCompany(ctx context.Context, companyID string, f repository.OrderFilter) ([]*entity.TransformationOrder, error) {
	rows, err := r.q.Query(ctx, `
		SELECT `+orderColumns+` FROM transformation_orders
		WHERE company_id = $1 AND retired_at IS NULL AND ($2 = '' OR status = $2)
		ORDER BY created_at DESC LIMIT $3 OFFSET $4`, companyID, f.Status, f.Limit, f.Offset)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	var list []*entity.TransformationOrder
	byID := make(map[string]*entity.TransformationOrder)
	for rows.Next() {
		var o entity.TransformationOrder
		if err := scanOrder(rows, &o); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan order: %w", err)
		}
		list = append(list, &o)
		byID[o.ID] = &o
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	if err := r.loadLines(ctx, byID); err != nil {
		return nil, err
	}
	return list, nil
}

func (r *OrderRepo) loadLines(ctx context.Context, byID map[string]*entity.TransformationOrder) error {
	if len(byID) == 0 {
		return nil
	}
	ids := make([]string, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}

	rows, err := r.q.Query(ctx, `SELECT `+orderInputColumns+` FROM transformation_order_inputs
		WHERE order_id = ANY($1) ORDER BY order_id, sequence`, ids)
	if err != nil {
		return fmt.Errorf("list order inputs: %w", err)
	}
	for rows.Next() {
		var (
			l  entity.OrderInput
			tx *string
		)
		if err := rows.Scan(&l.ID, &l.OrderID, &l.ItemID, &l.UnitMeasure, &l.PlannedQuantity, &l.ConsumedQuantity,
			&l.UnitCost, &l.TotalCost, &tx, &l.Sequence); err != nil {
			rows.Close()
			return fmt.Errorf("scan order input: %w", err)
		}
		l.StockTransactionID = derefString(tx)
		if o := byID[l.OrderID]; o != nil {
			o.Inputs = append(o.Inputs, l)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("list order inputs: %w", err)
	}

	rows, err = r.q.Query(ctx, `SELECT `+orderOutputColumns+` FROM transformation_order_outputs
		WHERE order_id = ANY($1) ORDER BY order_id, sequence`, ids)
	if err != nil {
		return fmt.Errorf("list order outputs: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			l         entity.OrderOutput
			tx, waste *string
		)
		if err := rows.Scan(&l.ID, &l.OrderID, &l.ItemID, &l.UnitMeasure, &l.PlannedQuantity, &l.ProducedQuantity, &l.WastedQuantity,
			&l.WasteReason, &l.IsScrap, &l.AllocatedCostPerUnit, &l.TotalAllocatedCost, &l.WasteCostPerUnit, &l.WasteTotalCost,
			&tx, &waste, &l.Sequence); err != nil {
			return fmt.Errorf("scan order output: %w", err)
		}
		l.StockTransactionID = derefString(tx)
		l.WasteStockTransactionID = derefString(waste)
		if o := byID[l.OrderID]; o != nil {
			o.Outputs = append(o.Outputs, l)
		}
	}
	return rows.Err()
}

// UpdateStatus compare-and-swap sobre status: solo escribe si el estado almacenado es expected.
func (r *OrderRepo) UpdateStatus(ctx context.Context, o *entity.TransformationOrder, expected string) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE transformation_orders
		SET status = $2, execution_date = $3, completion_date = $4, actual_quantity = $5, updated_at = $6, updated_by = $7
		WHERE id = $1 AND status = $8 AND retired_at IS NULL`,
		o.ID, o.Status, o.ExecutionDate, o.CompletionDate, o.ActualQuantity, o.UpdatedAt, o.UpdatedBy, expected)
	if err != nil {
		return fmt.Errorf("update order status: %w", mapWriteErr(err))
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrConcurrentModification
	}
	return nil
}

// UpdateInput persiste los campos de consumo de una línea de entrada.
func (r *OrderRepo) UpdateInput(ctx context.Context, l *entity.OrderInput) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE transformation_order_inputs
		SET consumed_quantity = $2, unit_cost = $3, total_cost = $4, stock_transaction_id = $5
		WHERE id = $1`,
		l.ID, l.ConsumedQuantity, l.UnitCost, l.TotalCost, nullIfEmpty(l.StockTransactionID))
	if err != nil {
		return fmt.Errorf("update order input: %w", mapWriteErr(err))
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// UpdateOutput persiste producción, merma, costos asignados y referencias a movimientos.
func (r *OrderRepo) UpdateOutput(ctx context.Context, l *entity.OrderOutput) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE transformation_order_outputs
		SET produced_quantity = $2, wasted_quantity = $3, waste_reason = $4, allocated_cost_per_unit = $5,
		    total_allocated_cost = $6, waste_cost_per_unit = $7, waste_total_cost = $8,
		    stock_transaction_id = $9, waste_stock_transaction_id = $10
		WHERE id = $1`,
		l.ID, l.ProducedQuantity, l.WastedQuantity, l.WasteReason, l.AllocatedCostPerUnit,
		l.TotalAllocatedCost, l.WasteCostPerUnit, l.WasteTotalCost,
		nullIfEmpty(l.StockTransactionID), nullIfEmpty(l.WasteStockTransactionID))
	if err != nil {
		return fmt.Errorf("update order output: %w", mapWriteErr(err))
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// UpdateCosts persiste los totales de costo de la ejecución.
func (r *OrderRepo) UpdateCosts(ctx context.Context, o *entity.TransformationOrder) error {
	_, err := r.q.Exec(ctx, `
		UPDATE transformation_orders
		SET total_input_cost = $2, total_output_cost = $3, total_waste_cost = $4, scrap_cost = $5,
		    cost_variance = $6, updated_at = $7
		WHERE id = $1`,
		o.ID, o.TotalInputCost, o.TotalOutputCost, o.TotalWasteCost, o.ScrapCost, o.CostVariance, o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update order costs: %w", mapWriteErr(err))
	}
	return nil
}

// Retire marca el retiro lógico; la fila nunca se elimina.
func (r *OrderRepo) Retire(ctx context.Context, id string, at time.Time) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE transformation_orders SET retired_at = $2, updated_at = $2
		WHERE id = $1 AND retired_at IS NULL`, id, at)
	if err != nil {
		return fmt.Errorf("retire order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
