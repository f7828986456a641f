package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/invorya-transformaciones/internal/domain"
	"github.com/jhoicas/invorya-transformaciones/internal/domain/entity"
	"github.com/jhoicas/invorya-transformaciones/internal/domain/repository"
)

var _ repository.StockRepository = (*StockRepo)(nil)

// StockRepo implementación de StockRepository sobre PostgreSQL (usable con pool o tx).
type StockRepo struct {
	q Querier
}

// NewStockRepository construye el adaptador de stock. Pasar pool o tx (Querier).
func NewStockRepository(q Querier) *StockRepo {
	return &StockRepo{q: q}
}

const stockColumns = `item_id, warehouse_id, current_stock, reserved_stock, available_stock, version, updated_at, updated_by`

// Get obtiene el saldo de un ítem en una bodega; cero con Version 0 si no hay fila.
func (r *StockRepo) Get(ctx context.Context, itemID, warehouseID string) (*entity.StockBalance, error) {
	query := `SELECT ` + stockColumns + ` FROM stock_balances WHERE item_id = $1 AND warehouse_id = $2`
	return r.scanOne(ctx, query, itemID, warehouseID)
}

// GetForUpdate igual que Get y bloquea la fila hasta el fin de la transacción (SELECT FOR UPDATE).
func (r *StockRepo) GetForUpdate(ctx context.Context, itemID, warehouseID string) (*entity.StockBalance, error) {
	query := `SELECT ` + stockColumns + ` FROM stock_balances WHERE item_id = $1 AND warehouse_id = $2 FOR UPDATE`
	return r.scanOne(ctx, query, itemID, warehouseID)
}

func (r *StockRepo) scanOne(ctx context.Context, query, itemID, warehouseID string) (*entity.StockBalance, error) {
	var b entity.StockBalance
	err := r.q.QueryRow(ctx, query, itemID, warehouseID).Scan(
		&b.ItemID, &b.WarehouseID, &b.CurrentStock, &b.ReservedStock, &b.AvailableStock,
		&b.Version, &b.UpdatedAt, &b.UpdatedBy,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &entity.StockBalance{
				ItemID:         itemID,
				WarehouseID:    warehouseID,
				CurrentStock:   decimal.Zero,
				ReservedStock:  decimal.Zero,
				AvailableStock: decimal.Zero,
			}, nil
		}
		return nil, fmt.Errorf("get stock: %w", err)
	}
	return &b, nil
}

// Save inserta la fila (expectedVersion 0) o la actualiza solo si la versión no cambió.
func (r *StockRepo) Save(ctx context.Context, b *entity.StockBalance, expectedVersion int64) error {
	if expectedVersion == 0 {
		query := `
			INSERT INTO stock_balances (` + stockColumns + `)
			VALUES ($1, $2, $3, $4, $5, 1, $6, $7)
			ON CONFLICT (item_id, warehouse_id) DO NOTHING`
		tag, err := r.q.Exec(ctx, query,
			b.ItemID, b.WarehouseID, b.CurrentStock, b.ReservedStock, b.AvailableStock, b.UpdatedAt, b.UpdatedBy)
		if err != nil {
			return fmt.Errorf("insert stock: %w", mapWriteErr(err))
		}
		if tag.RowsAffected() == 0 {
			return domain.ErrConcurrentModification
		}
		b.Version = 1
		return nil
	}

	query := `
		UPDATE stock_balances
		SET current_stock = $3, reserved_stock = $4, available_stock = $5,
		    version = version + 1, updated_at = $6, updated_by = $7
		WHERE item_id = $1 AND warehouse_id = $2 AND version = $8`
	tag, err := r.q.Exec(ctx, query,
		b.ItemID, b.WarehouseID, b.CurrentStock, b.ReservedStock, b.AvailableStock, b.UpdatedAt, b.UpdatedBy, expectedVersion)
	if err != nil {
		return fmt.Errorf("update stock: %w", mapWriteErr(err))
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrConcurrentModification
	}
	b.Version = expectedVersion + 1
	return nil
}
