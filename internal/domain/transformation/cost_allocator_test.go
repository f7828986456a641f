package transformation_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/invorya-transformaciones/internal/domain/transformation"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// Caso de referencia: entradas 100 + 50 = 150; salidas producidas 8/4/0 con merma 0/1/5,
// la tercera es desecho. Total 18 unidades ⇒ 8.333… por unidad.
func referenceOutputs() []transformation.OutputQuantity {
	return []transformation.OutputQuantity{
		{LineID: "o1", Produced: d("8"), Wasted: d("0")},
		{LineID: "o2", Produced: d("4"), Wasted: d("1")},
		{LineID: "o3", Produced: d("0"), Wasted: d("5"), IsScrap: true},
	}
}

func TestAllocate_CasoDeReferencia(t *testing.T) {
	res := transformation.Allocate(d("150"), referenceOutputs())
	require.Len(t, res.Outputs, 3)

	assert.True(t, res.TotalOutputQuantity.Equal(d("18")))
	assert.Equal(t, "8.33", res.CostPerUnit.StringFixed(2))

	assert.Equal(t, "66.67", res.Outputs[0].AllocatedCost.StringFixed(2))
	assert.Equal(t, "33.33", res.Outputs[1].AllocatedCost.StringFixed(2))
	assert.Equal(t, "8.33", res.Outputs[1].WasteTotalCost.StringFixed(2))
	// costo total atribuible a la salida 2 (producción + merma)
	assert.Equal(t, "41.67", res.Outputs[1].AllocatedCost.Add(res.Outputs[1].WasteTotalCost).StringFixed(2))

	assert.True(t, res.Outputs[2].AllocatedCost.IsZero(), "el desecho no recibe costo")
	assert.Equal(t, "41.67", res.Outputs[2].WasteTotalCost.StringFixed(2))

	assert.Equal(t, "100.00", res.TotalOutputCost.StringFixed(2))
	assert.Equal(t, "50.00", res.TotalWasteCost.StringFixed(2))
	assert.True(t, res.CostVariance.Equal(res.TotalWasteCost))
}

func TestAllocate_ConservaElCosto(t *testing.T) {
	outs := []transformation.OutputQuantity{
		{LineID: "a", Produced: d("7"), Wasted: d("2")},
		{LineID: "b", Produced: d("3"), Wasted: d("0.5"), IsScrap: true},
		{LineID: "c", Produced: d("11.25"), Wasted: d("0")},
	}
	res := transformation.Allocate(d("987.65"), outs)
	sum := res.TotalOutputCost.Add(res.TotalWasteCost).Add(res.ScrapCost)
	assert.True(t, sum.Sub(d("987.65")).Abs().LessThan(d("0.0001")),
		"salidas + merma + desecho deben sumar el costo de entradas, obtuvo %s", sum)
	assert.True(t, res.ScrapCost.GreaterThan(decimal.Zero), "el desecho producido se castiga en ScrapCost")
}

func TestAllocate_SinCantidadCostoCero(t *testing.T) {
	res := transformation.Allocate(d("150"), []transformation.OutputQuantity{
		{LineID: "a", Produced: d("0"), Wasted: d("0")},
	})
	assert.True(t, res.CostPerUnit.IsZero())
	assert.True(t, res.Outputs[0].AllocatedCost.IsZero())
	assert.True(t, res.TotalOutputCost.IsZero())
}

func TestAllocate_Determinista(t *testing.T) {
	a := transformation.Allocate(d("150"), referenceOutputs())
	b := transformation.Allocate(d("150"), referenceOutputs())
	assert.Equal(t, a, b)
}
