package repository

import (
	"context"
	"time"

	"github.com/jhoicas/invorya-transformaciones/internal/domain/entity"
)

// TemplateRepository puerto de persistencia de plantillas de transformación.
type TemplateRepository interface {
	Create(ctx context.Context, template *entity.TransformationTemplate) error
	// GetByID devuelve la plantilla con sus líneas, o nil, nil si no existe.
	GetByID(ctx context.Context, id string) (*entity.TransformationTemplate, error)
	// Update reemplaza cabecera y líneas.
	Update(ctx context.Context, template *entity.TransformationTemplate) error
	ListByCompany(ctx context.Context, companyID string, limit, offset int) ([]*entity.TransformationTemplate, error)
	IncrementUsage(ctx context.Context, id string) error
}

// OrderFilter filtros de listado de órdenes.
type OrderFilter struct {
	Status string
	Limit  int
	Offset int
}

// OrderRepository puerto de persistencia de órdenes de transformación.
type OrderRepository interface {
	Create(ctx context.Context, order *entity.TransformationOrder) error
	// GetByID devuelve la orden con sus líneas, o nil, nil si no existe.
	GetByID(ctx context.Context, id string) (*entity.TransformationOrder, error)
	ListByCompany(ctx context.Context, companyID string, filter OrderFilter) ([]*entity.TransformationOrder, error)
	// UpdateStatus persiste estado, fechas y cantidad real solo si el estado almacenado es expected.
	// Devuelve domain.ErrConcurrentModification si el estado cambió.
	UpdateStatus(ctx context.Context, order *entity.TransformationOrder, expected string) error
	UpdateInput(ctx context.Context, input *entity.OrderInput) error
	UpdateOutput(ctx context.Context, output *entity.OrderOutput) error
	UpdateCosts(ctx context.Context, order *entity.TransformationOrder) error
	Retire(ctx context.Context, id string, at time.Time) error
}

// LineageRepository puerto de aristas de trazabilidad.
type LineageRepository interface {
	CreateBatch(ctx context.Context, edges []*entity.LineageEdge) error
	ListByOrder(ctx context.Context, orderID string) ([]*entity.LineageEdge, error)
	DeleteByOrder(ctx context.Context, orderID string) error
}
