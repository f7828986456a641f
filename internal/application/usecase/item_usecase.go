package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/invorya-transformaciones/internal/application/dto"
	"github.com/jhoicas/invorya-transformaciones/internal/domain"
	"github.com/jhoicas/invorya-transformaciones/internal/domain/entity"
	"github.com/jhoicas/invorya-transformaciones/internal/domain/repository"
)

// ItemUseCase catálogo de ítems (materias primas, productos y desechos).
// El stock se maneja vía movimientos, no desde aquí.
type ItemUseCase struct {
	repo repository.ItemRepository
}

// NewItemUseCase construye el caso de uso.
func NewItemUseCase(repo repository.ItemRepository) *ItemUseCase {
	return &ItemUseCase{repo: repo}
}

// Create crea un ítem activo. Cost es el costo unitario vigente que usarán los consumos.
func (uc *ItemUseCase) Create(ctx context.Context, companyID string, in dto.CreateItemRequest) (*dto.ItemResponse, error) {
	if in.Cost.IsNegative() {
		return nil, domain.NewValidationError(domain.CodeInvalidQuantity, "el costo no puede ser negativo")
	}
	if in.UnitMeasure == "" {
		in.UnitMeasure = "und"
	}
	now := time.Now()
	item := &entity.Item{
		ID:          uuid.New().String(),
		CompanyID:   companyID,
		Code:        in.Code,
		Name:        in.Name,
		UnitMeasure: in.UnitMeasure,
		Cost:        in.Cost,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := uc.repo.Create(ctx, item); err != nil {
		return nil, domain.Persistence("crear ítem", err)
	}
	return toItemResponse(item), nil
}

// GetByID obtiene un ítem de la empresa.
func (uc *ItemUseCase) GetByID(ctx context.Context, companyID, id string) (*dto.ItemResponse, error) {
	item, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, domain.Persistence("leer ítem", err)
	}
	if item == nil {
		return nil, fmt.Errorf("%w: ítem %s", domain.ErrNotFound, id)
	}
	if item.CompanyID != companyID {
		return nil, domain.ErrForbidden
	}
	return toItemResponse(item), nil
}

func toItemResponse(it *entity.Item) *dto.ItemResponse {
	return &dto.ItemResponse{
		ID:          it.ID,
		CompanyID:   it.CompanyID,
		Code:        it.Code,
		Name:        it.Name,
		UnitMeasure: it.UnitMeasure,
		Cost:        it.Cost,
		IsActive:    it.IsActive,
		CreatedAt:   it.CreatedAt,
		UpdatedAt:   it.UpdatedAt,
	}
}
