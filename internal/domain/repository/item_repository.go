package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/invorya-transformaciones/internal/domain/entity"
)

// ItemRepository puerto del catálogo de ítems (fuente del costo unitario).
type ItemRepository interface {
	Create(ctx context.Context, item *entity.Item) error
	// GetByID devuelve nil, nil si no existe.
	GetByID(ctx context.Context, id string) (*entity.Item, error)
	GetByIDs(ctx context.Context, ids []string) (map[string]*entity.Item, error)
	// UpdateCost reescribe el costo vigente tras una entrada valorizada.
	UpdateCost(ctx context.Context, id string, cost decimal.Decimal, at time.Time) error
}
