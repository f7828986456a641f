package inventory_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/invorya-transformaciones/internal/application/inventory"
	"github.com/jhoicas/invorya-transformaciones/internal/domain"
	"github.com/jhoicas/invorya-transformaciones/internal/domain/entity"
	"github.com/jhoicas/invorya-transformaciones/internal/infrastructure/memory"
)

func newQuery(t *testing.T) (*memory.Store, *inventory.StockQueryUseCase) {
	t.Helper()
	store := memory.NewStore()
	require.NoError(t, store.Warehouses().Create(context.Background(), &entity.Warehouse{ID: testWarehouse, CompanyID: testCompany, Name: "Principal", IsActive: true}))
	repos := store.Repos()
	ledger := inventory.NewStockLedger(store, repos.Stock, 3)
	return store, inventory.NewStockQueryUseCase(ledger, repos.Items, store.Warehouses(), repos.Transactions)
}

func TestStockQuery_GetBalance(t *testing.T) {
	store, uc := newQuery(t)
	seedItem(t, store, "it-1", "MP-1", 10)
	seedStock(t, store, "it-1", 7)

	b, err := uc.GetBalance(context.Background(), testCompany, "it-1", testWarehouse)
	require.NoError(t, err)
	assert.True(t, b.CurrentStock.Equal(decimal.NewFromInt(7)))
	assert.True(t, b.AvailableStock.Equal(decimal.NewFromInt(7)))
}

func TestStockQuery_GetBalanceOtraEmpresa(t *testing.T) {
	store, uc := newQuery(t)
	seedItem(t, store, "it-1", "MP-1", 10)

	_, err := uc.GetBalance(context.Background(), "cmp-otra", "it-1", testWarehouse)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = uc.GetBalance(context.Background(), testCompany, "no-existe", testWarehouse)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = uc.GetBalance(context.Background(), testCompany, "it-1", "wh-nada")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStockQuery_ListByReference(t *testing.T) {
	store, uc := newQuery(t)
	seedItem(t, store, "it-1", "MP-1", 10)
	seedStock(t, store, "it-1", 10)
	poster := inventory.NewStockPoster(store, 3)

	_, err := poster.Post(context.Background(), inventory.Posting{
		CompanyID: testCompany, WarehouseID: testWarehouse, ItemID: "it-1", ReferenceID: "ord-1",
		Actor: testUser, Type: entity.StockTransactionOut, Purpose: entity.PurposeConsumption, Quantity: decimal.NewFromInt(3),
	}, nil)
	require.NoError(t, err)

	list, err := uc.ListByReference(context.Background(), testCompany, "ord-1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, entity.PurposeConsumption, list[0].Purpose)
	assert.True(t, list[0].Items[0].QtyAfter.Equal(decimal.NewFromInt(7)))

	empty, err := uc.ListByReference(context.Background(), "cmp-otra", "ord-1")
	require.NoError(t, err)
	assert.Empty(t, empty, "los movimientos de otra empresa no se exponen")

	_, err = uc.ListByReference(context.Background(), testCompany, "")
	var ve *domain.ValidationError
	assert.True(t, errors.As(err, &ve))
}
