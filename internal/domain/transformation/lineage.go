package transformation

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/invorya-transformaciones/internal/domain/entity"
)

// InputContribution lo que aportó una entrada consumida.
type InputContribution struct {
	LineID   string
	Consumed decimal.Decimal
	Cost     decimal.Decimal
}

// OutputShare lo que recibió una salida.
type OutputShare struct {
	LineID        string
	Produced      decimal.Decimal
	Wasted        decimal.Decimal
	AllocatedCost decimal.Decimal
}

// InputWeights calcula la participación de cada entrada.
// Por costo (cost_i / Σcost); si el costo total es cero, por cantidad consumida;
// si también es cero, uniforme.
func InputWeights(inputs []InputContribution) []decimal.Decimal {
	weights := make([]decimal.Decimal, len(inputs))
	if len(inputs) == 0 {
		return weights
	}
	totalCost, totalQty := decimal.Zero, decimal.Zero
	for _, in := range inputs {
		totalCost = totalCost.Add(in.Cost)
		totalQty = totalQty.Add(in.Consumed)
	}
	for i, in := range inputs {
		switch {
		case totalCost.GreaterThan(decimal.Zero):
			weights[i] = in.Cost.Div(totalCost)
		case totalQty.GreaterThan(decimal.Zero):
			weights[i] = in.Consumed.Div(totalQty)
		default:
			weights[i] = decimal.NewFromInt(1).Div(decimal.NewFromInt(int64(len(inputs))))
		}
	}
	return weights
}

// BuildLineage genera una arista por cada par (entrada, salida).
//
//	costAttributed      = allocatedCost_o × w_i
//	inputQuantityUsed   = consumed_i × (produced_o + wasted_o) / Σ(produced + wasted)
//	outputQuantityFrom  = produced_o × w_i
func BuildLineage(orderID string, inputs []InputContribution, outputs []OutputShare, now time.Time) []*entity.LineageEdge {
	weights := InputWeights(inputs)

	totalOut := decimal.Zero
	for _, o := range outputs {
		totalOut = totalOut.Add(o.Produced).Add(o.Wasted)
	}

	edges := make([]*entity.LineageEdge, 0, len(inputs)*len(outputs))
	for _, o := range outputs {
		share := decimal.Zero
		if totalOut.GreaterThan(decimal.Zero) {
			share = o.Produced.Add(o.Wasted).Div(totalOut)
		}
		for i, in := range inputs {
			edges = append(edges, &entity.LineageEdge{
				ID:                 uuid.New().String(),
				OrderID:            orderID,
				InputLineID:        in.LineID,
				OutputLineID:       o.LineID,
				InputQuantityUsed:  in.Consumed.Mul(share),
				OutputQuantityFrom: o.Produced.Mul(weights[i]),
				CostAttributed:     o.AllocatedCost.Mul(weights[i]),
				CreatedAt:          now,
			})
		}
	}
	return edges
}
