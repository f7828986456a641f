package inventory

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/invorya-transformaciones/internal/domain"
	"github.com/jhoicas/invorya-transformaciones/internal/domain/entity"
	domaininv "github.com/jhoicas/invorya-transformaciones/internal/domain/inventory"
	"github.com/jhoicas/invorya-transformaciones/internal/domain/repository"
)

// RecordLine línea a registrar con su foto de valorización ya calculada.
type RecordLine struct {
	ItemID    string
	Quantity  decimal.Decimal
	UnitCost  decimal.Decimal
	Valuation domaininv.Valuation
}

// RecordInput datos de una transacción de stock.
type RecordInput struct {
	CompanyID   string
	Type        string
	Purpose     string
	WarehouseID string
	ReferenceID string
	ReversesID  string
	Notes       string
	Actor       string
	Date        time.Time
	Lines       []RecordLine
}

var purposePrefix = map[string]string{
	entity.PurposeConsumption: "CON",
	entity.PurposeProduction:  "PRD",
	entity.PurposeWaste:       "WST",
	entity.PurposeReversal:    "REV",
	entity.PurposeAdjustment:  "ADJ",
}

// NewTransactionCode genera un código único ST-<propósito>-<8 hex>.
func NewTransactionCode(purpose string) string {
	prefix, ok := purposePrefix[purpose]
	if !ok {
		prefix = "GEN"
	}
	raw := strings.ReplaceAll(uuid.New().String(), "-", "")
	return "ST-" + prefix + "-" + strings.ToUpper(raw[:8])
}

// Record persiste cabecera y líneas de una transacción de stock (inmutable).
// La foto antes/después viaja en cada línea: se escribe junto con el insert, sin segunda escritura.
func Record(ctx context.Context, repo repository.StockTransactionRepository, in RecordInput) (*entity.StockTransaction, error) {
	if in.Type != entity.StockTransactionIn && in.Type != entity.StockTransactionOut {
		return nil, domain.NewValidationError(domain.CodeInvalidQuantity, "tipo de transacción inválido: "+in.Type)
	}
	if len(in.Lines) == 0 {
		return nil, domain.NewValidationError(domain.CodeInvalidQuantity, "la transacción no tiene líneas")
	}
	now := time.Now()
	date := in.Date
	if date.IsZero() {
		date = now
	}
	tx := &entity.StockTransaction{
		ID:          uuid.New().String(),
		Code:        NewTransactionCode(in.Purpose),
		CompanyID:   in.CompanyID,
		Type:        in.Type,
		Purpose:     in.Purpose,
		WarehouseID: in.WarehouseID,
		ReferenceID: in.ReferenceID,
		ReversesID:  in.ReversesID,
		Notes:       in.Notes,
		Date:        date,
		CreatedAt:   now,
		CreatedBy:   in.Actor,
		Items:       make([]entity.StockTransactionItem, 0, len(in.Lines)),
	}
	for _, l := range in.Lines {
		tx.Items = append(tx.Items, entity.StockTransactionItem{
			ID:               uuid.New().String(),
			TransactionID:    tx.ID,
			ItemID:           l.ItemID,
			Quantity:         l.Quantity,
			UnitCost:         l.UnitCost,
			TotalCost:        l.Quantity.Mul(l.UnitCost),
			QtyBefore:        l.Valuation.QtyBefore,
			QtyAfter:         l.Valuation.QtyAfter,
			ValuationRate:    l.Valuation.Rate,
			StockValueBefore: l.Valuation.StockValueBefore,
			StockValueAfter:  l.Valuation.StockValueAfter,
		})
	}
	if err := repo.Create(ctx, tx); err != nil {
		return nil, domain.Persistence("registrar transacción de stock", err)
	}
	return tx, nil
}
