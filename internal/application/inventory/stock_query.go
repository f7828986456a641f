package inventory

import (
	"context"
	"fmt"

	"github.com/jhoicas/invorya-transformaciones/internal/application/dto"
	"github.com/jhoicas/invorya-transformaciones/internal/domain"
	"github.com/jhoicas/invorya-transformaciones/internal/domain/entity"
	"github.com/jhoicas/invorya-transformaciones/internal/domain/repository"
)

// StockQueryUseCase consultas de saldo y auditoría de movimientos.
type StockQueryUseCase struct {
	ledger       *StockLedger
	items        repository.ItemRepository
	warehouses   repository.WarehouseRepository
	transactions repository.StockTransactionRepository
}

// NewStockQueryUseCase construye el caso de uso.
func NewStockQueryUseCase(
	ledger *StockLedger,
	items repository.ItemRepository,
	warehouses repository.WarehouseRepository,
	transactions repository.StockTransactionRepository,
) *StockQueryUseCase {
	return &StockQueryUseCase{ledger: ledger, items: items, warehouses: warehouses, transactions: transactions}
}

// GetBalance saldo de un ítem en una bodega de la empresa.
func (uc *StockQueryUseCase) GetBalance(ctx context.Context, companyID, itemID, warehouseID string) (*dto.StockBalanceResponse, error) {
	item, err := uc.items.GetByID(ctx, itemID)
	if err != nil {
		return nil, domain.Persistence("leer ítem", err)
	}
	if item == nil {
		return nil, fmt.Errorf("%w: ítem %s", domain.ErrNotFound, itemID)
	}
	if item.CompanyID != companyID {
		return nil, domain.ErrForbidden
	}
	wh, err := uc.warehouses.GetByID(ctx, warehouseID)
	if err != nil {
		return nil, domain.Persistence("leer bodega", err)
	}
	if wh == nil {
		return nil, fmt.Errorf("%w: bodega %s", domain.ErrNotFound, warehouseID)
	}
	if !wh.BelongsTo(companyID) {
		return nil, domain.ErrForbidden
	}

	b, err := uc.ledger.GetBalance(ctx, itemID, warehouseID)
	if err != nil {
		return nil, err
	}
	return &dto.StockBalanceResponse{
		ItemID:         b.ItemID,
		WarehouseID:    b.WarehouseID,
		CurrentStock:   b.CurrentStock,
		ReservedStock:  b.ReservedStock,
		AvailableStock: b.AvailableStock,
		UpdatedAt:      b.UpdatedAt,
	}, nil
}

// ListByReference movimientos originados por una referencia (orden de transformación), en orden de creación.
func (uc *StockQueryUseCase) ListByReference(ctx context.Context, companyID, referenceID string) ([]dto.StockTransactionResponse, error) {
	if referenceID == "" {
		return nil, domain.NewValidationError("MISSING_REFERENCE", "reference_id es requerido")
	}
	list, err := uc.transactions.ListByReference(ctx, companyID, referenceID)
	if err != nil {
		return nil, domain.Persistence("listar movimientos", err)
	}
	out := make([]dto.StockTransactionResponse, 0, len(list))
	for _, tx := range list {
		out = append(out, ToTransactionResponse(tx))
	}
	return out, nil
}

// ToTransactionResponse mapea una transacción a su DTO.
func ToTransactionResponse(tx *entity.StockTransaction) dto.StockTransactionResponse {
	r := dto.StockTransactionResponse{
		ID:          tx.ID,
		Code:        tx.Code,
		Type:        tx.Type,
		Purpose:     tx.Purpose,
		WarehouseID: tx.WarehouseID,
		ReferenceID: tx.ReferenceID,
		ReversesID:  tx.ReversesID,
		Notes:       tx.Notes,
		Date:        tx.Date,
		CreatedBy:   tx.CreatedBy,
		Items:       make([]dto.StockTransactionItemResponse, 0, len(tx.Items)),
	}
	for _, it := range tx.Items {
		r.Items = append(r.Items, dto.StockTransactionItemResponse{
			ItemID:           it.ItemID,
			Quantity:         it.Quantity,
			UnitCost:         it.UnitCost,
			TotalCost:        it.TotalCost,
			QtyBefore:        it.QtyBefore,
			QtyAfter:         it.QtyAfter,
			ValuationRate:    it.ValuationRate,
			StockValueBefore: it.StockValueBefore,
			StockValueAfter:  it.StockValueAfter,
		})
	}
	return r
}
