package transformation_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/invorya-transformaciones/internal/application/dto"
	"github.com/jhoicas/invorya-transformaciones/internal/application/transformation"
	"github.com/jhoicas/invorya-transformaciones/internal/domain"
	"github.com/jhoicas/invorya-transformaciones/internal/domain/entity"
)

// ──────────────────────────────────────────────────────────────────────────────
// Ejecución exitosa
// ──────────────────────────────────────────────────────────────────────────────

func TestExecute_CasoDeReferencia(t *testing.T) {
	e := newEnv(t)
	tpl := e.referenceSetup()
	o := e.preparedOrder(tpl.ID)
	ctx := context.Background()

	res, err := e.exec.Execute(ctx, companyID, userID, o.ID, referenceExecution(o))
	require.NoError(t, err)
	require.True(t, res.Success)

	assert.Equal(t, "150.00", res.TotalInputCost.StringFixed(2))
	assert.Equal(t, "100.00", res.TotalOutputCost.StringFixed(2))
	assert.Equal(t, "50.00", res.TotalWasteCost.StringFixed(2))
	assert.Equal(t, "50.00", res.CostVariance.StringFixed(2))
	assert.True(t, res.ScrapCost.IsZero(), "el desecho no produjo unidades")
	assert.Len(t, res.StockTransactionIDs.Inputs, 2)
	assert.Len(t, res.StockTransactionIDs.Outputs, 2, "la salida sin producción no genera movimiento")
	assert.Len(t, res.StockTransactionIDs.Waste, 2)

	// saldos
	assert.True(t, e.balance("A").Equal(d("10")))
	assert.True(t, e.balance("B").Equal(d("10")))
	assert.True(t, e.balance("O1").Equal(d("8")))
	assert.True(t, e.balance("O2").Equal(d("4")))
	assert.True(t, e.balance("O3").IsZero(), "la merma no incrementa el saldo")

	got := e.order(o.ID)
	assert.Equal(t, entity.OrderStatusCompleted, got.Status)
	assert.True(t, got.ActualQuantity.Equal(d("12")))
	require.NotNil(t, got.ExecutionDate)
	require.NotNil(t, got.CompletionDate)
	assert.Equal(t, "100.00", got.Inputs[0].TotalCost.StringFixed(2))
	assert.Equal(t, "50.00", got.Inputs[1].TotalCost.StringFixed(2))
	assert.Equal(t, "66.67", got.Outputs[0].TotalAllocatedCost.StringFixed(2))
	assert.Equal(t, "33.33", got.Outputs[1].TotalAllocatedCost.StringFixed(2))
	assert.Equal(t, "8.33", got.Outputs[1].WasteTotalCost.StringFixed(2))
	assert.True(t, got.Outputs[2].AllocatedCostPerUnit.IsZero(), "el desecho no recibe costo unitario")
	assert.NotEmpty(t, got.Outputs[1].WasteStockTransactionID)

	// movimientos
	txs, err := e.store.Repos().Transactions.ListByReference(ctx, companyID, o.ID)
	require.NoError(t, err)
	assert.Len(t, txs, 6)
	for _, tx := range txs {
		if tx.Purpose == entity.PurposeWaste {
			assert.Equal(t, entity.StockTransactionOut, tx.Type)
			assert.True(t, tx.Items[0].QtyBefore.IsZero() && tx.Items[0].QtyAfter.IsZero(), "la merma registra foto 0/0")
		}
	}

	// trazabilidad: 2 entradas × 3 salidas con cantidad
	lin, err := e.orders.Lineage(ctx, companyID, o.ID)
	require.NoError(t, err)
	assert.Len(t, lin.Edges, 6)
	attributed := map[string]decimal.Decimal{}
	for _, edge := range lin.Edges {
		attributed[edge.OutputLineID] = attributed[edge.OutputLineID].Add(edge.CostAttributed)
	}
	for _, out := range got.Outputs {
		assert.Equal(t, out.TotalAllocatedCost.StringFixed(2), attributed[out.ID].StringFixed(2),
			"Σ costAttributed de la salida %s debe igualar su costo asignado", out.ItemID)
	}

	assert.Equal(t, []string{transformation.EventCompleted}, e.events.types())
	assert.Equal(t, []string{transformation.ResultSuccess}, e.metrics.results)
}

func TestExecute_ConsumoCeroNoGeneraMovimiento(t *testing.T) {
	e := newEnv(t)
	tpl := e.referenceSetup()
	o := e.preparedOrder(tpl.ID)

	in := referenceExecution(o)
	in.Inputs[1].ConsumedQuantity = decimal.Zero

	res, err := e.exec.Execute(context.Background(), companyID, userID, o.ID, in)
	require.NoError(t, err)
	assert.Len(t, res.StockTransactionIDs.Inputs, 1)
	assert.True(t, e.balance("B").Equal(d("20")), "el saldo de B no cambia")
	assert.Equal(t, "100.00", res.TotalInputCost.StringFixed(2))
}

// ──────────────────────────────────────────────────────────────────────────────
// Precondiciones: nada se modifica
// ──────────────────────────────────────────────────────────────────────────────

func TestExecute_StockInsuficienteNoModificaNada(t *testing.T) {
	e := newEnv(t)
	tpl := e.referenceSetup()
	e.stock("A", "5")
	e.stock("B", "3")
	o := e.preparedOrder(tpl.ID)
	ctx := context.Background()

	_, err := e.exec.Execute(ctx, companyID, userID, o.ID, referenceExecution(o))
	require.Error(t, err)

	var ise *domain.InsufficientStockError
	require.True(t, errors.As(err, &ise))
	require.Len(t, ise.Items, 2, "se reportan todos los faltantes")
	assert.Equal(t, "MP-A", ise.Items[0].ItemCode)
	assert.True(t, ise.Items[0].Available.Equal(d("5")))
	assert.True(t, ise.Items[0].Required.Equal(d("10")))

	assert.True(t, e.balance("A").Equal(d("5")))
	assert.True(t, e.balance("B").Equal(d("3")))
	assert.Equal(t, entity.OrderStatusPreparing, e.order(o.ID).Status)
	txs, err := e.store.Repos().Transactions.ListByReference(ctx, companyID, o.ID)
	require.NoError(t, err)
	assert.Empty(t, txs)
	assert.Equal(t, 1, e.metrics.insufficient)
}

func TestExecute_LineaInvalida(t *testing.T) {
	e := newEnv(t)
	tpl := e.referenceSetup()
	o := e.preparedOrder(tpl.ID)

	in := referenceExecution(o)
	in.Inputs[0].InputLineID = "no-existe"

	_, err := e.exec.Execute(context.Background(), companyID, userID, o.ID, in)
	var ve *domain.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, domain.CodeInvalidInputLine, ve.Code)
	assert.True(t, e.balance("A").Equal(d("20")))
	assert.Equal(t, entity.OrderStatusPreparing, e.order(o.ID).Status)
}

func TestExecute_LineaDeSalidaDeOtraOrden(t *testing.T) {
	e := newEnv(t)
	tpl := e.referenceSetup()
	o := e.preparedOrder(tpl.ID)
	other := e.preparedOrder(tpl.ID)

	in := referenceExecution(o)
	in.Outputs[0].OutputLineID = other.Outputs[0].ID

	_, err := e.exec.Execute(context.Background(), companyID, userID, o.ID, in)
	var ve *domain.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, domain.CodeInvalidOutputLine, ve.Code)
}

func TestExecute_LineaRepetidaYCantidadNegativa(t *testing.T) {
	e := newEnv(t)
	tpl := e.referenceSetup()
	o := e.preparedOrder(tpl.ID)
	ctx := context.Background()

	dup := referenceExecution(o)
	dup.Inputs[1].InputLineID = dup.Inputs[0].InputLineID
	_, err := e.exec.Execute(ctx, companyID, userID, o.ID, dup)
	var ve *domain.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, domain.CodeDuplicateLine, ve.Code)

	neg := referenceExecution(o)
	neg.Outputs[0].ProducedQuantity = d("-1")
	_, err = e.exec.Execute(ctx, companyID, userID, o.ID, neg)
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, domain.CodeInvalidQuantity, ve.Code)
}

func TestExecute_EstadoIncorrecto(t *testing.T) {
	e := newEnv(t)
	tpl := e.referenceSetup()
	o, err := e.orders.Create(context.Background(), companyID, userID, dto.CreateOrderRequest{TemplateID: tpl.ID, WarehouseID: warehouseID})
	require.NoError(t, err)

	_, err = e.exec.Execute(context.Background(), companyID, userID, o.ID, referenceExecution(o))
	var se *domain.InvalidStateError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, entity.OrderStatusDraft, se.Current)
	assert.Equal(t, entity.OrderStatusPreparing, se.Expected)
}

func TestExecute_OrdenDeOtraEmpresa(t *testing.T) {
	e := newEnv(t)
	tpl := e.referenceSetup()
	o := e.preparedOrder(tpl.ID)

	_, err := e.exec.Execute(context.Background(), otherCompany, userID, o.ID, referenceExecution(o))
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = e.exec.Execute(context.Background(), companyID, userID, "no-existe", referenceExecution(o))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// La existencia y la empresa se validan antes de pedir el bloqueo: con el bloqueo tomado por
// otro proceso, una orden inexistente sigue respondiendo NotFound.
func TestExecute_OrdenInexistenteAntesQueBloqueo(t *testing.T) {
	e := newEnv(t)
	tpl := e.referenceSetup()
	o := e.preparedOrder(tpl.ID)
	ctx := context.Background()

	for _, id := range []string{"no-existe", o.ID} {
		_, err := e.locker.Obtain(ctx, transformation.LockKey(id), time.Minute)
		require.NoError(t, err)
	}

	_, err := e.exec.Execute(ctx, companyID, userID, "no-existe", referenceExecution(o))
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = e.exec.Execute(ctx, otherCompany, userID, o.ID, referenceExecution(o))
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = e.exec.Execute(ctx, companyID, userID, o.ID, referenceExecution(o))
	assert.ErrorIs(t, err, domain.ErrLockNotObtained, "una orden válida sí espera el bloqueo")
	assert.True(t, e.balance("A").Equal(d("20")))
}

func TestExecute_SegundaEjecucionRechazada(t *testing.T) {
	e := newEnv(t)
	tpl := e.referenceSetup()
	o := e.preparedOrder(tpl.ID)
	ctx := context.Background()

	_, err := e.exec.Execute(ctx, companyID, userID, o.ID, referenceExecution(o))
	require.NoError(t, err)
	_, err = e.exec.Execute(ctx, companyID, userID, o.ID, referenceExecution(o))
	assert.ErrorIs(t, err, domain.ErrInvalidState)
	assert.True(t, e.balance("A").Equal(d("10")), "la segunda ejecución no consume")
}

// ──────────────────────────────────────────────────────────────────────────────
// Compensación
// ──────────────────────────────────────────────────────────────────────────────

func TestExecute_FalloEnSalidaCompensaTodo(t *testing.T) {
	e := newEnv(t)
	tpl := e.referenceSetup()
	o := e.preparedOrder(tpl.ID)
	e.faults.failProduceItem = "O2"
	ctx := context.Background()

	_, err := e.exec.Execute(ctx, companyID, userID, o.ID, referenceExecution(o))
	require.Error(t, err)
	var se *transformation.SagaError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "produce:"+o.Outputs[1].ID, se.Step)
	assert.NoError(t, se.CompensationErr)

	assert.True(t, e.balance("A").Equal(d("20")), "la entrada A vuelve a su saldo")
	assert.True(t, e.balance("B").Equal(d("20")), "la entrada B vuelve a su saldo")
	assert.True(t, e.balance("O1").IsZero(), "la producción de O1 se revierte")
	assert.True(t, e.balance("O2").IsZero())

	got := e.order(o.ID)
	assert.Equal(t, entity.OrderStatusPreparing, got.Status)
	assert.Nil(t, got.CompletionDate)
	for _, l := range got.Inputs {
		assert.True(t, l.ConsumedQuantity.IsZero())
		assert.Empty(t, l.StockTransactionID)
	}
	assert.Empty(t, got.Outputs[0].StockTransactionID)

	// consumo A, consumo B, producción O1 y sus tres reversos
	txs, err := e.store.Repos().Transactions.ListByReference(ctx, companyID, o.ID)
	require.NoError(t, err)
	require.Len(t, txs, 6)
	reversed := map[string]bool{}
	for _, tx := range txs {
		if tx.Purpose == entity.PurposeReversal {
			require.NotEmpty(t, tx.ReversesID)
			reversed[tx.ReversesID] = true
		}
	}
	assert.Len(t, reversed, 3)

	lin, err := e.orders.Lineage(ctx, companyID, o.ID)
	require.NoError(t, err)
	assert.Empty(t, lin.Edges)

	assert.Equal(t, 1, e.metrics.compensations)
	assert.Equal(t, []string{transformation.ResultCompensated}, e.metrics.results)
	assert.Equal(t, []string{transformation.EventCompensated}, e.events.types())

	// la orden puede ejecutarse de nuevo
	e.faults.failProduceItem = ""
	_, err = e.exec.Execute(ctx, companyID, userID, o.ID, referenceExecution(o))
	require.NoError(t, err)
	assert.True(t, e.balance("O2").Equal(d("4")))
}

func TestExecute_FaltanteDuranteConsumoCompensa(t *testing.T) {
	e := newEnv(t)
	tpl := e.referenceSetup()
	o := e.preparedOrder(tpl.ID)
	// la validación previa ve 20 unidades; al bloquear la fila solo queda 1
	e.faults.shortItem = "B"

	_, err := e.exec.Execute(context.Background(), companyID, userID, o.ID, referenceExecution(o))
	var ise *domain.InsufficientStockError
	require.True(t, errors.As(err, &ise))
	require.Len(t, ise.Items, 1)
	assert.Equal(t, "MP-B", ise.Items[0].ItemCode)

	assert.True(t, e.balance("A").Equal(d("20")), "el consumo de A se compensa")
	assert.Equal(t, entity.OrderStatusPreparing, e.order(o.ID).Status)
}

func TestExecute_MermaBestEffort(t *testing.T) {
	e := newEnv(t)
	tpl := e.referenceSetup()
	o := e.preparedOrder(tpl.ID)
	e.faults.failWaste = true

	res, err := e.exec.Execute(context.Background(), companyID, userID, o.ID, referenceExecution(o))
	require.NoError(t, err, "el fallo de la merma no aborta la ejecución")
	assert.Empty(t, res.StockTransactionIDs.Waste)
	assert.Equal(t, "50.00", res.TotalWasteCost.StringFixed(2), "el costo de merma se contabiliza igual")

	got := e.order(o.ID)
	assert.Equal(t, entity.OrderStatusCompleted, got.Status)
	assert.Empty(t, got.Outputs[1].WasteStockTransactionID)
	assert.ElementsMatch(t, []string{"waste:" + o.Outputs[1].ID, "waste:" + o.Outputs[2].ID}, e.metrics.stepFailures)
}

// ──────────────────────────────────────────────────────────────────────────────
// Concurrencia
// ──────────────────────────────────────────────────────────────────────────────

func TestExecute_ConcurrenteSoloUnaGana(t *testing.T) {
	e := newEnv(t)
	tpl := e.referenceSetup()
	o := e.preparedOrder(tpl.ID)

	const workers = 8
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		ok       int
		rejected int
	)
	start := make(chan struct{})
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := e.exec.Execute(context.Background(), companyID, userID, o.ID, referenceExecution(o))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, domain.ErrLockNotObtained), errors.Is(err, domain.ErrInvalidState), errors.Is(err, domain.ErrConflict):
				rejected++
			default:
				t.Errorf("error inesperado: %v", err)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, 1, ok, "exactamente una ejecución debe completarse")
	assert.Equal(t, workers-1, rejected)
	assert.True(t, e.balance("A").Equal(d("10")), "las entradas se consumen una sola vez")
	assert.True(t, e.balance("O1").Equal(d("8")))
}
