package repository

import (
	"context"

	"github.com/jhoicas/invorya-transformaciones/internal/domain/entity"
)

// StockRepository puerto para consultar/actualizar saldos por ítem+bodega.
// Usado dentro de transacciones para garantizar consistencia.
type StockRepository interface {
	// Get devuelve el saldo; si no existe fila devuelve un saldo en cero con Version 0.
	Get(ctx context.Context, itemID, warehouseID string) (*entity.StockBalance, error)
	// GetForUpdate igual que Get pero bloquea la fila (SELECT FOR UPDATE).
	GetForUpdate(ctx context.Context, itemID, warehouseID string) (*entity.StockBalance, error)
	// Save escribe el saldo si la versión almacenada es expectedVersion (0 = fila nueva).
	// Devuelve domain.ErrConcurrentModification si otro escritor ganó.
	Save(ctx context.Context, balance *entity.StockBalance, expectedVersion int64) error
}
