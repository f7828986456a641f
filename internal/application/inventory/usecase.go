package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/invorya-transformaciones/internal/application/dto"
	"github.com/jhoicas/invorya-transformaciones/internal/domain"
	"github.com/jhoicas/invorya-transformaciones/internal/domain/entity"
	"github.com/jhoicas/invorya-transformaciones/internal/domain/repository"
)

// AdjustStockUseCase registra ajustes manuales de inventario (entradas y salidas) con el mismo
// mecanismo atómico que usan las transformaciones: bloqueo del saldo, compare-and-swap y
// transacción de stock con su foto.
type AdjustStockUseCase struct {
	poster     *StockPoster
	items      repository.ItemRepository
	warehouses repository.WarehouseRepository
}

// NewAdjustStockUseCase construye el caso de uso.
func NewAdjustStockUseCase(
	poster *StockPoster,
	items repository.ItemRepository,
	warehouses repository.WarehouseRepository,
) *AdjustStockUseCase {
	return &AdjustStockUseCase{poster: poster, items: items, warehouses: warehouses}
}

// Adjust aplica el ajuste. Para entradas UnitCost es opcional (por defecto el costo vigente del ítem);
// las salidas se valorizan siempre al costo vigente y fallan si no hay stock suficiente.
func (uc *AdjustStockUseCase) Adjust(ctx context.Context, companyID, userID string, in dto.StockAdjustmentRequest) (*dto.StockTransactionResponse, error) {
	if in.Type != entity.StockTransactionIn && in.Type != entity.StockTransactionOut {
		return nil, domain.NewValidationError("INVALID_TYPE", "type debe ser in u out")
	}
	if !in.Quantity.GreaterThan(decimal.Zero) {
		return nil, domain.NewValidationError(domain.CodeInvalidQuantity, "la cantidad debe ser positiva")
	}
	if in.UnitCost != nil && in.UnitCost.IsNegative() {
		return nil, domain.NewValidationError(domain.CodeInvalidQuantity, "el costo no puede ser negativo")
	}
	if in.Type == entity.StockTransactionOut {
		in.UnitCost = nil
	}

	item, err := uc.items.GetByID(ctx, in.ItemID)
	if err != nil {
		return nil, domain.Persistence("leer ítem", err)
	}
	if item == nil {
		return nil, fmt.Errorf("%w: ítem %s", domain.ErrNotFound, in.ItemID)
	}
	if item.CompanyID != companyID {
		return nil, domain.ErrForbidden
	}
	wh, err := uc.warehouses.GetByID(ctx, in.WarehouseID)
	if err != nil {
		return nil, domain.Persistence("leer bodega", err)
	}
	if wh == nil {
		return nil, fmt.Errorf("%w: bodega %s", domain.ErrNotFound, in.WarehouseID)
	}
	if !wh.BelongsTo(companyID) {
		return nil, domain.ErrForbidden
	}
	if !wh.AcceptsMovements() {
		return nil, domain.NewValidationError(domain.CodeWarehouseInactive, "la bodega está inactiva")
	}

	posted, err := uc.poster.Post(ctx, Posting{
		CompanyID:   companyID,
		WarehouseID: in.WarehouseID,
		ItemID:      in.ItemID,
		Notes:       in.Notes,
		Actor:       userID,
		Type:        in.Type,
		Purpose:     entity.PurposeAdjustment,
		Quantity:    in.Quantity,
		UnitCost:    in.UnitCost,
		Date:        time.Now(),
	}, nil)
	if err != nil {
		return nil, err
	}
	out := ToTransactionResponse(posted.Transaction)
	return &out, nil
}
