package transformation_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/invorya-transformaciones/internal/domain/transformation"
)

func TestBuildLineage_UnaAristaPorPar(t *testing.T) {
	inputs := []transformation.InputContribution{
		{LineID: "i1", Consumed: d("10"), Cost: d("100")},
		{LineID: "i2", Consumed: d("10"), Cost: d("50")},
	}
	alloc := transformation.Allocate(d("150"), referenceOutputs())
	var outputs []transformation.OutputShare
	for i, o := range referenceOutputs() {
		outputs = append(outputs, transformation.OutputShare{
			LineID: o.LineID, Produced: o.Produced, Wasted: o.Wasted, AllocatedCost: alloc.Outputs[i].AllocatedCost,
		})
	}

	edges := transformation.BuildLineage("ord-1", inputs, outputs, time.Now())
	require.Len(t, edges, 6)

	// Σ_i costAttributed(i, o) = allocatedCost(o)
	perOutput := map[string]decimal.Decimal{}
	perInputQty := map[string]decimal.Decimal{}
	for _, e := range edges {
		assert.Equal(t, "ord-1", e.OrderID)
		perOutput[e.OutputLineID] = perOutput[e.OutputLineID].Add(e.CostAttributed)
		perInputQty[e.InputLineID] = perInputQty[e.InputLineID].Add(e.InputQuantityUsed)
	}
	for i, o := range alloc.Outputs {
		assert.True(t, perOutput[o.LineID].Sub(alloc.Outputs[i].AllocatedCost).Abs().LessThan(d("0.0001")),
			"la salida %s debe recibir exactamente su costo asignado", o.LineID)
	}
	// cada entrada reparte toda su cantidad consumida
	assert.True(t, perInputQty["i1"].Sub(d("10")).Abs().LessThan(d("0.0001")))
	assert.True(t, perInputQty["i2"].Sub(d("10")).Abs().LessThan(d("0.0001")))

	// la entrada 1 aporta 2/3 del costo de la salida 1
	assert.Equal(t, "44.44", edges[0].CostAttributed.StringFixed(2))
	assert.Equal(t, "22.22", edges[1].CostAttributed.StringFixed(2))
}

func TestInputWeights_CostoCeroUsaCantidad(t *testing.T) {
	w := transformation.InputWeights([]transformation.InputContribution{
		{LineID: "i1", Consumed: d("3"), Cost: d("0")},
		{LineID: "i2", Consumed: d("1"), Cost: d("0")},
	})
	assert.Equal(t, "0.75", w[0].StringFixed(2))
	assert.Equal(t, "0.25", w[1].StringFixed(2))
}

func TestInputWeights_TodoCeroUniforme(t *testing.T) {
	w := transformation.InputWeights([]transformation.InputContribution{
		{LineID: "i1", Consumed: d("0"), Cost: d("0")},
		{LineID: "i2", Consumed: d("0"), Cost: d("0")},
	})
	assert.Equal(t, "0.50", w[0].StringFixed(2))
	assert.Equal(t, "0.50", w[1].StringFixed(2))
}
