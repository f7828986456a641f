package transformation

import "github.com/shopspring/decimal"

// OutputQuantity cantidades reportadas para una salida al ejecutar.
type OutputQuantity struct {
	LineID   string
	Produced decimal.Decimal
	Wasted   decimal.Decimal
	IsScrap  bool
}

// OutputAllocation costo asignado a una salida.
type OutputAllocation struct {
	LineID           string
	CostPerUnit      decimal.Decimal
	AllocatedCost    decimal.Decimal // 0 para desecho
	WasteCostPerUnit decimal.Decimal
	WasteTotalCost   decimal.Decimal
	ScrapCost        decimal.Decimal // costo que le correspondería a un desecho y se castiga
}

// Allocation resultado completo de la asignación.
//
// Se cumple TotalOutputCost + TotalWasteCost + ScrapCost = TotalInputCost
// (con tolerancia de redondeo) siempre que TotalOutputQuantity > 0.
type Allocation struct {
	TotalInputCost      decimal.Decimal
	TotalOutputQuantity decimal.Decimal
	CostPerUnit         decimal.Decimal
	Outputs             []OutputAllocation
	TotalOutputCost     decimal.Decimal
	TotalWasteCost      decimal.Decimal
	ScrapCost           decimal.Decimal
	CostVariance        decimal.Decimal
}

// Allocate reparte totalInputCost de forma uniforme por unidad entre lo producido y lo mermado.
// El denominador incluye la merma y las salidas de desecho, pero estas últimas no reciben costo.
// Función pura y determinista.
func Allocate(totalInputCost decimal.Decimal, outputs []OutputQuantity) Allocation {
	totalQty := decimal.Zero
	for _, o := range outputs {
		totalQty = totalQty.Add(o.Produced).Add(o.Wasted)
	}

	costPerUnit := decimal.Zero
	if totalQty.GreaterThan(decimal.Zero) {
		costPerUnit = totalInputCost.Div(totalQty)
	}

	res := Allocation{
		TotalInputCost:      totalInputCost,
		TotalOutputQuantity: totalQty,
		CostPerUnit:         costPerUnit,
		Outputs:             make([]OutputAllocation, 0, len(outputs)),
		TotalOutputCost:     decimal.Zero,
		TotalWasteCost:      decimal.Zero,
		ScrapCost:           decimal.Zero,
	}
	for _, o := range outputs {
		a := OutputAllocation{
			LineID:           o.LineID,
			CostPerUnit:      costPerUnit,
			AllocatedCost:    decimal.Zero,
			WasteCostPerUnit: decimal.Zero,
			WasteTotalCost:   decimal.Zero,
			ScrapCost:        decimal.Zero,
		}
		if o.IsScrap {
			a.ScrapCost = costPerUnit.Mul(o.Produced)
			res.ScrapCost = res.ScrapCost.Add(a.ScrapCost)
		} else {
			a.AllocatedCost = costPerUnit.Mul(o.Produced)
			res.TotalOutputCost = res.TotalOutputCost.Add(a.AllocatedCost)
		}
		if o.Wasted.GreaterThan(decimal.Zero) {
			a.WasteCostPerUnit = costPerUnit
			a.WasteTotalCost = costPerUnit.Mul(o.Wasted)
			res.TotalWasteCost = res.TotalWasteCost.Add(a.WasteTotalCost)
		}
		res.Outputs = append(res.Outputs, a)
	}
	res.CostVariance = res.TotalWasteCost
	return res
}
