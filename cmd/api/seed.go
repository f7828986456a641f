package main

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/invorya-transformaciones/internal/domain/entity"
	"github.com/jhoicas/invorya-transformaciones/internal/infrastructure/memory"
)

const (
	demoCompanyID   = "demo"
	demoWarehouseID = "wh-demo"
)

// seedDemo carga una bodega con materias primas y productos para probar la API sin base de datos.
func seedDemo(ctx context.Context, store *memory.Store) error {
	now := time.Now()
	if err := store.Warehouses().Create(ctx, &entity.Warehouse{
		ID: demoWarehouseID, CompanyID: demoCompanyID, Name: "Bodega demo", IsActive: true, CreatedAt: now, UpdatedAt: now,
	}); err != nil {
		return err
	}
	repos := store.Repos()
	items := []struct {
		id, code, name string
		cost, stock    int64
	}{
		{"mp-res", "MP-RES", "Canal de res", 12000, 500},
		{"mp-sal", "MP-SAL", "Sal", 800, 100},
		{"pt-lomo", "PT-LOMO", "Lomo", 0, 0},
		{"pt-molida", "PT-MOL", "Carne molida", 0, 0},
		{"de-hueso", "DE-HUE", "Hueso", 0, 0},
	}
	for _, it := range items {
		if err := repos.Items.Create(ctx, &entity.Item{
			ID: it.id, CompanyID: demoCompanyID, Code: it.code, Name: it.name, UnitMeasure: "kg",
			Cost: decimal.NewFromInt(it.cost), IsActive: true, CreatedAt: now, UpdatedAt: now,
		}); err != nil {
			return err
		}
		if it.stock == 0 {
			continue
		}
		b := &entity.StockBalance{ItemID: it.id, WarehouseID: demoWarehouseID, CurrentStock: decimal.NewFromInt(it.stock), UpdatedAt: now}
		b.Recalculate()
		if err := repos.Stock.Save(ctx, b, 0); err != nil {
			return err
		}
	}
	return nil
}
