package inventory

import (
	"context"

	"github.com/jhoicas/invorya-transformaciones/internal/domain/repository"
)

// TxRepos repositorios atados a una misma transacción de BD.
type TxRepos struct {
	Stock        repository.StockRepository
	Transactions repository.StockTransactionRepository
	Items        repository.ItemRepository
	Templates    repository.TemplateRepository
	Orders       repository.OrderRepository
	Lineage      repository.LineageRepository
}

// TxRunner ejecuta una función dentro de una transacción de BD, pasando repositorios atados a esa tx.
// Si fn devuelve error se hace Rollback; si no, Commit.
type TxRunner interface {
	Run(ctx context.Context, fn func(repos TxRepos) error) error
}
