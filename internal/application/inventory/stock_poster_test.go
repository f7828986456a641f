package inventory_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/invorya-transformaciones/internal/application/inventory"
	"github.com/jhoicas/invorya-transformaciones/internal/domain"
	"github.com/jhoicas/invorya-transformaciones/internal/domain/entity"
	"github.com/jhoicas/invorya-transformaciones/internal/infrastructure/memory"
)

const (
	testCompany   = "cmp-1"
	testWarehouse = "wh-1"
	testUser      = "user-1"
)

func seedItem(t *testing.T, store *memory.Store, id, code string, cost int64) {
	t.Helper()
	err := store.Repos().Items.Create(context.Background(), &entity.Item{
		ID: id, CompanyID: testCompany, Code: code, Name: "Ítem " + code,
		UnitMeasure: "kg", Cost: decimal.NewFromInt(cost), IsActive: true,
	})
	require.NoError(t, err)
}

func seedStock(t *testing.T, store *memory.Store, itemID string, qty int64) {
	t.Helper()
	b := &entity.StockBalance{
		ItemID: itemID, WarehouseID: testWarehouse,
		CurrentStock: decimal.NewFromInt(qty), ReservedStock: decimal.Zero,
	}
	b.Recalculate()
	require.NoError(t, store.Repos().Stock.Save(context.Background(), b, 0))
}

func TestStockLedger_GetBalanceSinFila(t *testing.T) {
	store := memory.NewStore()
	ledger := inventory.NewStockLedger(store, store.Repos().Stock, 3)

	b, err := ledger.GetBalance(context.Background(), "nada", testWarehouse)
	require.NoError(t, err)
	assert.True(t, b.CurrentStock.IsZero())
	assert.False(t, b.Exists())
}

func TestStockLedger_ApplyDeltaCreaFila(t *testing.T) {
	store := memory.NewStore()
	ledger := inventory.NewStockLedger(store, store.Repos().Stock, 3)

	b, err := ledger.ApplyDelta(context.Background(), "it-1", testWarehouse, decimal.NewFromInt(5), testUser)
	require.NoError(t, err)
	assert.True(t, b.CurrentStock.Equal(decimal.NewFromInt(5)))
	assert.Equal(t, int64(1), b.Version)
}

func TestStockLedger_RechazaNegativo(t *testing.T) {
	store := memory.NewStore()
	seedStock(t, store, "it-1", 3)
	ledger := inventory.NewStockLedger(store, store.Repos().Stock, 3)

	_, err := ledger.ApplyDelta(context.Background(), "it-1", testWarehouse, decimal.NewFromInt(-4), testUser)
	require.Error(t, err)
	var ise *domain.InsufficientStockError
	require.True(t, errors.As(err, &ise))
	require.Len(t, ise.Items, 1)
	assert.True(t, ise.Items[0].Available.Equal(decimal.NewFromInt(3)))
	assert.True(t, ise.Items[0].Required.Equal(decimal.NewFromInt(4)))

	b, _ := ledger.GetBalance(context.Background(), "it-1", testWarehouse)
	assert.True(t, b.CurrentStock.Equal(decimal.NewFromInt(3)), "el saldo no debe cambiar")
}

func TestStockPoster_SalidaRegistraFoto(t *testing.T) {
	store := memory.NewStore()
	seedItem(t, store, "it-1", "HARINA", 4)
	seedStock(t, store, "it-1", 20)
	poster := inventory.NewStockPoster(store, 3)

	posted, err := poster.Post(context.Background(), inventory.Posting{
		CompanyID: testCompany, WarehouseID: testWarehouse, ItemID: "it-1", ReferenceID: "ord-1",
		Actor: testUser, Type: entity.StockTransactionOut, Purpose: entity.PurposeConsumption,
		Quantity: decimal.NewFromInt(5),
	}, nil)
	require.NoError(t, err)

	tx := posted.Transaction
	assert.Equal(t, entity.PurposeConsumption, tx.Purpose)
	assert.Contains(t, tx.Code, "ST-CON-")
	require.Len(t, tx.Items, 1)
	line := tx.Items[0]
	assert.True(t, line.QtyBefore.Equal(decimal.NewFromInt(20)))
	assert.True(t, line.QtyAfter.Equal(decimal.NewFromInt(15)))
	assert.True(t, line.UnitCost.Equal(decimal.NewFromInt(4)), "la salida usa el costo vigente del ítem")
	assert.True(t, line.TotalCost.Equal(decimal.NewFromInt(20)))
	assert.True(t, line.StockValueAfter.Equal(decimal.NewFromInt(60)))

	stored, err := store.Repos().Transactions.GetByID(context.Background(), tx.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, tx.Code, stored.Code)
}

func TestStockPoster_FalloEnCallbackRevierteTodo(t *testing.T) {
	store := memory.NewStore()
	seedItem(t, store, "it-1", "HARINA", 4)
	seedStock(t, store, "it-1", 20)
	poster := inventory.NewStockPoster(store, 3)
	boom := errors.New("fallo al actualizar la línea")

	_, err := poster.Post(context.Background(), inventory.Posting{
		CompanyID: testCompany, WarehouseID: testWarehouse, ItemID: "it-1", ReferenceID: "ord-1",
		Type: entity.StockTransactionOut, Purpose: entity.PurposeConsumption, Quantity: decimal.NewFromInt(5),
	}, func(context.Context, inventory.TxRepos, *inventory.Posted) error { return boom })
	require.ErrorIs(t, err, boom)

	b, _ := store.Repos().Stock.Get(context.Background(), "it-1", testWarehouse)
	assert.True(t, b.CurrentStock.Equal(decimal.NewFromInt(20)), "saldo debe quedar intacto")
	txs, _ := store.Repos().Transactions.ListByReference(context.Background(), testCompany, "ord-1")
	assert.Empty(t, txs, "no debe quedar transacción registrada")
}

func TestStockPoster_EntradaPromedioPonderado(t *testing.T) {
	store := memory.NewStore()
	seedItem(t, store, "it-1", "PAN", 5)
	seedStock(t, store, "it-1", 10)
	poster := inventory.NewStockPoster(store, 3)
	cost := decimal.NewFromInt(7)

	posted, err := poster.Post(context.Background(), inventory.Posting{
		CompanyID: testCompany, WarehouseID: testWarehouse, ItemID: "it-1", ReferenceID: "ord-1",
		Type: entity.StockTransactionIn, Purpose: entity.PurposeProduction, Quantity: decimal.NewFromInt(10), UnitCost: &cost,
	}, nil)
	require.NoError(t, err)
	line := posted.Transaction.Items[0]
	assert.True(t, line.ValuationRate.Equal(decimal.NewFromInt(6)))
	assert.True(t, line.QtyAfter.Equal(decimal.NewFromInt(20)))
}

// La entrada de producción deja el promedio en el catálogo: la siguiente salida parte del
// mismo valor de inventario con el que cerró la entrada.
func TestStockPoster_ProduccionYConsumoEncadenanValor(t *testing.T) {
	store := memory.NewStore()
	seedItem(t, store, "it-1", "LOMO", 0)
	poster := inventory.NewStockPoster(store, 3)
	cost := decimal.RequireFromString("8.3333")

	produced, err := poster.Post(context.Background(), inventory.Posting{
		CompanyID: testCompany, WarehouseID: testWarehouse, ItemID: "it-1", ReferenceID: "ord-1",
		Type: entity.StockTransactionIn, Purpose: entity.PurposeProduction, Quantity: decimal.NewFromInt(8), UnitCost: &cost,
	}, nil)
	require.NoError(t, err)

	item, err := store.Repos().Items.GetByID(context.Background(), "it-1")
	require.NoError(t, err)
	assert.True(t, item.Cost.Equal(cost), "el catálogo queda con el costo promedio, got %s", item.Cost)

	consumed, err := poster.Post(context.Background(), inventory.Posting{
		CompanyID: testCompany, WarehouseID: testWarehouse, ItemID: "it-1", ReferenceID: "ord-2",
		Type: entity.StockTransactionOut, Purpose: entity.PurposeConsumption, Quantity: decimal.NewFromInt(3),
	}, nil)
	require.NoError(t, err)

	in, out := produced.Transaction.Items[0], consumed.Transaction.Items[0]
	assert.True(t, in.StockValueAfter.Equal(out.StockValueBefore),
		"valor tras producción %s ≠ valor antes del consumo %s", in.StockValueAfter, out.StockValueBefore)
	assert.True(t, out.UnitCost.Equal(cost))
}

func TestStockPoster_ReversoActualizaPromedio(t *testing.T) {
	store := memory.NewStore()
	seedItem(t, store, "it-1", "PAN", 5)
	seedStock(t, store, "it-1", 10)
	poster := inventory.NewStockPoster(store, 3)
	cost := decimal.NewFromInt(7)

	_, err := poster.Post(context.Background(), inventory.Posting{
		CompanyID: testCompany, WarehouseID: testWarehouse, ItemID: "it-1", ReferenceID: "ord-1", ReversesID: "tx-0",
		Type: entity.StockTransactionIn, Purpose: entity.PurposeReversal, Quantity: decimal.NewFromInt(10), UnitCost: &cost,
	}, nil)
	require.NoError(t, err)

	item, _ := store.Repos().Items.GetByID(context.Background(), "it-1")
	assert.True(t, item.Cost.Equal(decimal.NewFromInt(6)))
}

func TestStockPoster_FalloEnCallbackNoCambiaCosto(t *testing.T) {
	store := memory.NewStore()
	seedItem(t, store, "it-1", "PAN", 5)
	seedStock(t, store, "it-1", 10)
	poster := inventory.NewStockPoster(store, 3)
	cost := decimal.NewFromInt(7)
	boom := errors.New("fallo al guardar la orden")

	_, err := poster.Post(context.Background(), inventory.Posting{
		CompanyID: testCompany, WarehouseID: testWarehouse, ItemID: "it-1", ReferenceID: "ord-1",
		Type: entity.StockTransactionIn, Purpose: entity.PurposeProduction, Quantity: decimal.NewFromInt(10), UnitCost: &cost,
	}, func(context.Context, inventory.TxRepos, *inventory.Posted) error { return boom })
	require.ErrorIs(t, err, boom)

	item, _ := store.Repos().Items.GetByID(context.Background(), "it-1")
	assert.True(t, item.Cost.Equal(decimal.NewFromInt(5)), "el costo se revierte con la transacción")
}

func TestStockPoster_CantidadNoPositiva(t *testing.T) {
	store := memory.NewStore()
	poster := inventory.NewStockPoster(store, 3)
	_, err := poster.Post(context.Background(), inventory.Posting{Type: entity.StockTransactionOut, Quantity: decimal.Zero}, nil)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestRecord_TipoInvalido(t *testing.T) {
	store := memory.NewStore()
	_, err := inventory.Record(context.Background(), store.Repos().Transactions, inventory.RecordInput{
		Type: "transfer", Lines: []inventory.RecordLine{{ItemID: "x", Quantity: decimal.NewFromInt(1)}},
	})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

// Salidas concurrentes sobre el mismo saldo: ninguna se pierde y el stock nunca queda negativo.
func TestStockPoster_SalidasConcurrentesSerializadas(t *testing.T) {
	store := memory.NewStore()
	seedItem(t, store, "it-1", "HARINA", 1)
	seedStock(t, store, "it-1", 50)
	poster := inventory.NewStockPoster(store, 5)

	var wg sync.WaitGroup
	var mu sync.Mutex
	ok, rejected := 0, 0
	for i := 0; i < 60; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := poster.Post(context.Background(), inventory.Posting{
				CompanyID: testCompany, WarehouseID: testWarehouse, ItemID: "it-1", ReferenceID: "ord-c",
				Type: entity.StockTransactionOut, Purpose: entity.PurposeConsumption, Quantity: decimal.NewFromInt(1),
				Date: time.Now(),
			}, nil)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				ok++
			} else if errors.Is(err, domain.ErrInsufficientStock) {
				rejected++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, ok)
	assert.Equal(t, 10, rejected)
	b, _ := store.Repos().Stock.Get(context.Background(), "it-1", testWarehouse)
	assert.True(t, b.CurrentStock.IsZero())
}
