package repository

import (
	"context"

	"github.com/jhoicas/invorya-transformaciones/internal/domain/entity"
)

// StockTransactionRepository puerto append-only de transacciones de stock (cabecera + líneas).
type StockTransactionRepository interface {
	Create(ctx context.Context, tx *entity.StockTransaction) error
	GetByID(ctx context.Context, id string) (*entity.StockTransaction, error)
	ListByReference(ctx context.Context, companyID, referenceID string) ([]*entity.StockTransaction, error)
}
