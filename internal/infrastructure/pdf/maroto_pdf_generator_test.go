package pdf

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/invorya-transformaciones/internal/application/transformation"
	"github.com/jhoicas/invorya-transformaciones/internal/domain/entity"
)

func TestMoney_FormateaMilesYDecimales(t *testing.T) {
	cases := map[string]string{
		"0":          "$0,00",
		"8.33":       "$8,33",
		"1234567.5":  "$1.234.567,50",
		"-150":       "-$150,00",
		"99.999":     "$100,00",
		"66.6666667": "$66,67",
	}
	for in, want := range cases {
		assert.Equal(t, want, money(decimal.RequireFromString(in)), in)
	}
}

func TestExecutionReport_GeneraPDF(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	order := &entity.TransformationOrder{
		ID: "ord-1", Code: "TO-0A1B2C3D", Status: entity.OrderStatusCompleted,
		WarehouseID: "wh-1", ExecutionDate: &now, CompletionDate: &now,
		TotalInputCost:  decimal.NewFromInt(150),
		TotalOutputCost: decimal.NewFromInt(100),
		TotalWasteCost:  decimal.NewFromInt(50),
		Inputs: []entity.OrderInput{{
			ID: "in-1", ItemID: "a", PlannedQuantity: decimal.NewFromInt(10),
			ConsumedQuantity: decimal.NewFromInt(10), UnitCost: decimal.NewFromInt(10), TotalCost: decimal.NewFromInt(100),
		}},
		Outputs: []entity.OrderOutput{{
			ID: "out-1", ItemID: "o1", ProducedQuantity: decimal.NewFromInt(8),
			AllocatedCostPerUnit: decimal.RequireFromString("8.33"), TotalAllocatedCost: decimal.RequireFromString("66.67"),
		}},
	}
	data := transformation.ReportData{
		Order:    order,
		Template: &entity.TransformationTemplate{Code: "DESPIECE", Name: "Despiece"},
		Items:    map[string]*entity.Item{"a": {ID: "a", Code: "A", Name: "Materia"}},
		Lineage: []*entity.LineageEdge{{
			InputLineID: "in-1", OutputLineID: "out-1",
			InputQuantityUsed: decimal.NewFromInt(10), OutputQuantityFrom: decimal.NewFromInt(8),
			CostAttributed: decimal.RequireFromString("66.67"),
		}},
	}

	b, err := NewMarotoPDFGenerator().ExecutionReport(data)

	require.NoError(t, err)
	require.Greater(t, len(b), 4)
	assert.Equal(t, "%PDF", string(b[:4]))
}

func TestExecutionReport_SinOrden(t *testing.T) {
	_, err := NewMarotoPDFGenerator().ExecutionReport(transformation.ReportData{})
	assert.Error(t, err)
}
