package inventory

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/invorya-transformaciones/internal/domain"
	"github.com/jhoicas/invorya-transformaciones/internal/domain/entity"
	domaininv "github.com/jhoicas/invorya-transformaciones/internal/domain/inventory"
)

// StockPoster aplica un movimiento de stock de forma atómica: bloqueo del saldo, delta con
// compare-and-swap, registro de la transacción con su foto y la actualización del llamador,
// todo en una sola transacción de BD. Reintenta ante conflictos de versión.
type StockPoster struct {
	txRunner   TxRunner
	maxRetries int
}

// NewStockPoster construye el poster.
func NewStockPoster(txRunner TxRunner, maxRetries int) *StockPoster {
	return &StockPoster{txRunner: txRunner, maxRetries: maxRetries}
}

// Posting movimiento a aplicar. Quantity siempre positiva; Type define el signo.
type Posting struct {
	CompanyID   string
	WarehouseID string
	ItemID      string
	ReferenceID string
	ReversesID  string
	Notes       string
	Actor       string
	Type        string
	Purpose     string
	Quantity    decimal.Decimal
	UnitCost    *decimal.Decimal // nil = costo vigente del ítem
	Date        time.Time
}

// Posted resultado de un movimiento aplicado.
type Posted struct {
	Transaction *entity.StockTransaction
	Balance     *entity.StockBalance
	Item        *entity.Item
	UnitCost    decimal.Decimal
}

// AfterPost se ejecuta dentro de la misma transacción, después de registrar el movimiento.
type AfterPost func(ctx context.Context, repos TxRepos, posted *Posted) error

// Post aplica el movimiento y ejecuta then en la misma transacción.
func (p *StockPoster) Post(ctx context.Context, in Posting, then AfterPost) (*Posted, error) {
	if !in.Quantity.GreaterThan(decimal.Zero) {
		return nil, domain.NewValidationError(domain.CodeInvalidQuantity, "la cantidad del movimiento debe ser positiva")
	}
	var out *Posted
	err := withRetry(ctx, p.maxRetries, func() error {
		return p.txRunner.Run(ctx, func(r TxRepos) error {
			posted, err := p.post(ctx, r, in)
			if err != nil {
				return err
			}
			if then != nil {
				if err := then(ctx, r, posted); err != nil {
					return err
				}
			}
			out = posted
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (p *StockPoster) post(ctx context.Context, r TxRepos, in Posting) (*Posted, error) {
	item, err := r.Items.GetByID(ctx, in.ItemID)
	if err != nil {
		return nil, domain.Persistence("leer ítem", err)
	}
	if item == nil {
		return nil, domain.NewValidationError(domain.CodeMissingItem, "ítem no encontrado: "+in.ItemID)
	}
	unitCost := item.Cost
	if in.UnitCost != nil {
		unitCost = *in.UnitCost
	}

	delta := in.Quantity
	if in.Type == entity.StockTransactionOut {
		delta = in.Quantity.Neg()
	}
	now := time.Now()
	before, bal, err := ApplyDeltaTx(ctx, r.Stock, in.ItemID, in.WarehouseID, delta, in.Actor, now)
	if err != nil {
		var insufficient *domain.InsufficientStockError
		if errors.As(err, &insufficient) {
			for i := range insufficient.Items {
				insufficient.Items[i].ItemCode = item.Code
				insufficient.Items[i].ItemName = item.Name
			}
		}
		return nil, err
	}

	var val domaininv.Valuation
	if in.Type == entity.StockTransactionOut {
		val = domaininv.ValueOutbound(before, in.Quantity, unitCost)
	} else {
		val = domaininv.ValueInbound(before, item.Cost, in.Quantity, unitCost)
	}

	tx, err := Record(ctx, r.Transactions, RecordInput{
		CompanyID:   in.CompanyID,
		Type:        in.Type,
		Purpose:     in.Purpose,
		WarehouseID: in.WarehouseID,
		ReferenceID: in.ReferenceID,
		ReversesID:  in.ReversesID,
		Notes:       in.Notes,
		Actor:       in.Actor,
		Date:        in.Date,
		Lines: []RecordLine{{
			ItemID:    in.ItemID,
			Quantity:  in.Quantity,
			UnitCost:  unitCost,
			Valuation: val,
		}},
	})
	if err != nil {
		return nil, err
	}
	// Producción y reversos mueven el promedio; el ajuste manual conserva el costo del catálogo.
	if in.Type == entity.StockTransactionIn && in.Purpose != entity.PurposeAdjustment && !val.Rate.Equal(item.Cost) {
		if err := r.Items.UpdateCost(ctx, item.ID, val.Rate, now); err != nil {
			return nil, domain.Persistence("actualizar costo del ítem", err)
		}
	}
	return &Posted{Transaction: tx, Balance: bal, Item: item, UnitCost: unitCost}, nil
}

// AfterRecord se ejecuta en la misma transacción que un registro sin efecto en saldo.
type AfterRecord func(ctx context.Context, repos TxRepos, tx *entity.StockTransaction) error

// RecordOnly registra una transacción que no toca saldos (p. ej. merma) junto con then.
func (p *StockPoster) RecordOnly(ctx context.Context, in RecordInput, then AfterRecord) (*entity.StockTransaction, error) {
	var out *entity.StockTransaction
	err := p.txRunner.Run(ctx, func(r TxRepos) error {
		tx, err := Record(ctx, r.Transactions, in)
		if err != nil {
			return err
		}
		if then != nil {
			if err := then(ctx, r, tx); err != nil {
				return err
			}
		}
		out = tx
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
