package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/invorya-transformaciones/internal/domain/entity"
	"github.com/jhoicas/invorya-transformaciones/internal/domain/repository"
)

var _ repository.StockTransactionRepository = (*StockTransactionRepo)(nil)

// StockTransactionRepo transacciones de stock append-only (cabecera + líneas).
type StockTransactionRepo struct {
	q Querier
}

// NewStockTransactionRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockTransactionRepository(q Querier) *StockTransactionRepo {
	return &StockTransactionRepo{q: q}
}

const txColumns = `id, code, company_id, type, purpose, warehouse_id, reference_id, reverses_id, notes, date, created_at, created_by`

const txItemColumns = `id, transaction_id, item_id, quantity, unit_cost, total_cost, qty_before, qty_after,
	valuation_rate, stock_value_before, stock_value_after`

// Create inserta cabecera y líneas en un solo batch; la foto antes/después viaja en el mismo insert.
func (r *StockTransactionRepo) Create(ctx context.Context, tx *entity.StockTransaction) error {
	b := &pgx.Batch{}
	b.Queue(`INSERT INTO stock_transactions (`+txColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		tx.ID, tx.Code, tx.CompanyID, tx.Type, tx.Purpose, tx.WarehouseID,
		nullIfEmpty(tx.ReferenceID), nullIfEmpty(tx.ReversesID), tx.Notes, tx.Date, tx.CreatedAt, tx.CreatedBy)
	for _, it := range tx.Items {
		b.Queue(`INSERT INTO stock_transaction_items (`+txItemColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
			it.ID, tx.ID, it.ItemID, it.Quantity, it.UnitCost, it.TotalCost, it.QtyBefore, it.QtyAfter,
			it.ValuationRate, it.StockValueBefore, it.StockValueAfter)
	}
	return execBatch(ctx, r.q, b, "insert stock transaction")
}

// GetByID obtiene una transacción con sus líneas.
func (r *StockTransactionRepo) GetByID(ctx context.Context, id string) (*entity.StockTransaction, error) {
	rows, err := r.q.Query(ctx, `SELECT `+txColumns+` FROM stock_transactions WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("get stock transaction: %w", err)
	}
	list, err := r.collect(ctx, rows)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

// ListByReference transacciones de una referencia en orden de creación.
func (r *StockTransactionRepo) ListByReference(ctx context.Context, companyID, referenceID string) ([]*entity.StockTransaction, error) {
	rows, err := r.q.Query(ctx, `
		SELECT `+txColumns+` FROM stock_transactions
		WHERE company_id = $1 AND reference_id = $2
		ORDER BY seq`, companyID, referenceID)
	if err != nil {
		return nil, fmt.Errorf("list stock transactions: %w", err)
	}
	return r.collect(ctx, rows)
}

func (r *StockTransactionRepo) collect(ctx context.Context, rows pgx.Rows) ([]*entity.StockTransaction, error) {
	var list []*entity.StockTransaction
	byID := make(map[string]*entity.StockTransaction)
	ids := make([]string, 0)
	for rows.Next() {
		var (
			t                   entity.StockTransaction
			reference, reverses *string
		)
		if err := rows.Scan(&t.ID, &t.Code, &t.CompanyID, &t.Type, &t.Purpose, &t.WarehouseID,
			&reference, &reverses, &t.Notes, &t.Date, &t.CreatedAt, &t.CreatedBy); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan stock transaction: %w", err)
		}
		t.ReferenceID = derefString(reference)
		t.ReversesID = derefString(reverses)
		list = append(list, &t)
		byID[t.ID] = &t
		ids = append(ids, t.ID)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list stock transactions: %w", err)
	}
	if len(ids) == 0 {
		return list, nil
	}

	itemRows, err := r.q.Query(ctx, `SELECT `+txItemColumns+` FROM stock_transaction_items WHERE transaction_id = ANY($1) ORDER BY seq`, ids)
	if err != nil {
		return nil, fmt.Errorf("list stock transaction items: %w", err)
	}
	defer itemRows.Close()
	for itemRows.Next() {
		var it entity.StockTransactionItem
		if err := itemRows.Scan(&it.ID, &it.TransactionID, &it.ItemID, &it.Quantity, &it.UnitCost, &it.TotalCost,
			&it.QtyBefore, &it.QtyAfter, &it.ValuationRate, &it.StockValueBefore, &it.StockValueAfter); err != nil {
			return nil, fmt.Errorf("scan stock transaction item: %w", err)
		}
		if t := byID[it.TransactionID]; t != nil {
			t.Items = append(t.Items, it)
		}
	}
	if err := itemRows.Err(); err != nil {
		return nil, fmt.Errorf("list stock transaction items: %w", err)
	}
	return list, nil
}
