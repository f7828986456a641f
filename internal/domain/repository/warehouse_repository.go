package repository

import (
	"context"

	"github.com/jhoicas/invorya-transformaciones/internal/domain/entity"
)

// WarehouseRepository puerto de lectura de bodegas (servicio de bodegas).
type WarehouseRepository interface {
	Create(ctx context.Context, warehouse *entity.Warehouse) error
	GetByID(ctx context.Context, id string) (*entity.Warehouse, error)
}
