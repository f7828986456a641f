// Package inventory servicios de dominio de valorización de inventario.
package inventory

import "github.com/shopspring/decimal"

// WeightedAverageCost costo promedio ponderado tras una entrada:
//
//	nuevo = ((stock × costo) + (cantEntrada × costoEntrada)) / (stock + cantEntrada)
//
// Devuelve cero si el stock resultante no es positivo.
func WeightedAverageCost(stock, cost, inQty, inCost decimal.Decimal) decimal.Decimal {
	total := stock.Add(inQty)
	if total.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	return stock.Mul(cost).Add(inQty.Mul(inCost)).Div(total)
}

// Valuation foto de valorización de un saldo antes y después de un movimiento.
type Valuation struct {
	QtyBefore        decimal.Decimal
	QtyAfter         decimal.Decimal
	Rate             decimal.Decimal
	StockValueBefore decimal.Decimal
	StockValueAfter  decimal.Decimal
}

// ValueOutbound valoriza una salida al costo vigente del ítem.
func ValueOutbound(qtyBefore, qty, unitCost decimal.Decimal) Valuation {
	after := qtyBefore.Sub(qty)
	return Valuation{
		QtyBefore:        qtyBefore,
		QtyAfter:         after,
		Rate:             unitCost,
		StockValueBefore: qtyBefore.Mul(unitCost),
		StockValueAfter:  after.Mul(unitCost),
	}
}

// ValueInbound valoriza una entrada: el saldo previo al costo vigente y el resultante
// al promedio ponderado con el costo de la entrada.
func ValueInbound(qtyBefore, currentCost, qty, inCost decimal.Decimal) Valuation {
	after := qtyBefore.Add(qty)
	rate := WeightedAverageCost(qtyBefore, currentCost, qty, inCost)
	return Valuation{
		QtyBefore:        qtyBefore,
		QtyAfter:         after,
		Rate:             rate,
		StockValueBefore: qtyBefore.Mul(currentCost),
		StockValueAfter:  after.Mul(rate),
	}
}
