package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/invorya-transformaciones/internal/domain/entity"
	"github.com/jhoicas/invorya-transformaciones/internal/domain/repository"
)

var _ repository.LineageRepository = (*LineageRepo)(nil)

// LineageRepo aristas de trazabilidad entrada → salida.
type LineageRepo struct {
	q Querier
}

// NewLineageRepository construye el adaptador. Pasar pool o tx (Querier).
func NewLineageRepository(q Querier) *LineageRepo {
	return &LineageRepo{q: q}
}

// CreateBatch inserta todas las aristas en un batch.
func (r *LineageRepo) CreateBatch(ctx context.Context, edges []*entity.LineageEdge) error {
	if len(edges) == 0 {
		return nil
	}
	b := &pgx.Batch{}
	for _, e := range edges {
		b.Queue(`
			INSERT INTO transformation_lineage
				(id, order_id, input_line_id, output_line_id, input_quantity_used, output_quantity_from, cost_attributed, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			e.ID, e.OrderID, e.InputLineID, e.OutputLineID, e.InputQuantityUsed, e.OutputQuantityFrom, e.CostAttributed, e.CreatedAt)
	}
	return execBatch(ctx, r.q, b, "insert lineage")
}

// ListByOrder aristas de una orden en orden de inserción (seq).
func (r *LineageRepo) ListByOrder(ctx context.Context, orderID string) ([]*entity.LineageEdge, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, order_id, input_line_id, output_line_id, input_quantity_used, output_quantity_from, cost_attributed, created_at
		FROM transformation_lineage WHERE order_id = $1 ORDER BY seq`, orderID)
	if err != nil {
		return nil, fmt.Errorf("list lineage: %w", err)
	}
	defer rows.Close()
	var list []*entity.LineageEdge
	for rows.Next() {
		var e entity.LineageEdge
		if err := rows.Scan(&e.ID, &e.OrderID, &e.InputLineID, &e.OutputLineID, &e.InputQuantityUsed,
			&e.OutputQuantityFrom, &e.CostAttributed, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan lineage: %w", err)
		}
		list = append(list, &e)
	}
	return list, rows.Err()
}

// DeleteByOrder elimina las aristas de una ejecución compensada.
func (r *LineageRepo) DeleteByOrder(ctx context.Context, orderID string) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM transformation_lineage WHERE order_id = $1`, orderID); err != nil {
		return fmt.Errorf("delete lineage: %w", err)
	}
	return nil
}
