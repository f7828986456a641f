package inventory

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/invorya-transformaciones/internal/domain"
	"github.com/jhoicas/invorya-transformaciones/internal/domain/entity"
	"github.com/jhoicas/invorya-transformaciones/internal/domain/repository"
)

// StockLedger acceso a saldos por ítem × bodega. Única fuente de verdad del stock.
type StockLedger struct {
	txRunner   TxRunner
	stockRepo  repository.StockRepository
	maxRetries int
}

// NewStockLedger construye el ledger. maxRetries aplica a conflictos de versión.
func NewStockLedger(txRunner TxRunner, stockRepo repository.StockRepository, maxRetries int) *StockLedger {
	return &StockLedger{txRunner: txRunner, stockRepo: stockRepo, maxRetries: maxRetries}
}

// GetBalance devuelve el saldo; cero si no hay fila.
func (l *StockLedger) GetBalance(ctx context.Context, itemID, warehouseID string) (*entity.StockBalance, error) {
	b, err := l.stockRepo.Get(ctx, itemID, warehouseID)
	if err != nil {
		return nil, domain.Persistence("leer saldo", err)
	}
	return b, nil
}

// ApplyDelta suma delta al saldo en su propia transacción. Crea la fila si no existe y
// rechaza deltas que dejarían el stock en negativo.
func (l *StockLedger) ApplyDelta(ctx context.Context, itemID, warehouseID string, delta decimal.Decimal, actor string) (*entity.StockBalance, error) {
	var out *entity.StockBalance
	err := withRetry(ctx, l.maxRetries, func() error {
		return l.txRunner.Run(ctx, func(r TxRepos) error {
			_, after, err := ApplyDeltaTx(ctx, r.Stock, itemID, warehouseID, delta, actor, time.Now())
			if err != nil {
				return err
			}
			out = after
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ApplyDeltaTx aplica delta usando el repositorio de una transacción ya abierta.
// Bloquea la fila, valida no-negatividad y escribe con compare-and-swap de versión.
// Devuelve la cantidad previa y el saldo resultante.
func ApplyDeltaTx(
	ctx context.Context,
	stockRepo repository.StockRepository,
	itemID, warehouseID string,
	delta decimal.Decimal,
	actor string,
	now time.Time,
) (decimal.Decimal, *entity.StockBalance, error) {
	bal, err := stockRepo.GetForUpdate(ctx, itemID, warehouseID)
	if err != nil {
		return decimal.Zero, nil, domain.Persistence("bloquear saldo", err)
	}
	before := bal.CurrentStock
	newStock := before.Add(delta)
	if newStock.LessThan(decimal.Zero) {
		return before, nil, &domain.InsufficientStockError{
			WarehouseID: warehouseID,
			Items: []domain.InsufficientItem{{
				ItemID:    itemID,
				Required:  delta.Neg(),
				Available: before,
			}},
		}
	}
	expected := bal.Version
	bal.CurrentStock = newStock
	bal.Recalculate()
	bal.UpdatedAt = now
	bal.UpdatedBy = actor
	if err := stockRepo.Save(ctx, bal, expected); err != nil {
		return before, nil, domain.Persistence("guardar saldo", err)
	}
	return before, bal, nil
}
