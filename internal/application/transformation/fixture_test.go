package transformation_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/invorya-transformaciones/internal/application/dto"
	"github.com/jhoicas/invorya-transformaciones/internal/application/inventory"
	"github.com/jhoicas/invorya-transformaciones/internal/application/transformation"
	"github.com/jhoicas/invorya-transformaciones/internal/domain/entity"
	"github.com/jhoicas/invorya-transformaciones/internal/domain/repository"
	"github.com/jhoicas/invorya-transformaciones/internal/infrastructure/memory"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

const (
	companyID    = "cmp-1"
	otherCompany = "cmp-2"
	warehouseID  = "wh-1"
	userID       = "user-1"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// faults fallas inyectables sobre los repositorios de una transacción.
type faults struct {
	mu              sync.Mutex
	failProduceItem string // UpdateOutput con producción registrada falla para este ítem
	failWaste       bool   // Create de transacciones de merma falla
	shortItem       string // GetForUpdate reporta stock 1 para este ítem
}

type faultyRunner struct {
	inner inventory.TxRunner
	f     *faults
}

func (r *faultyRunner) Run(ctx context.Context, fn func(repos inventory.TxRepos) error) error {
	return r.inner.Run(ctx, func(repos inventory.TxRepos) error {
		repos.Orders = &faultyOrders{OrderRepository: repos.Orders, f: r.f}
		repos.Transactions = &faultyTransactions{StockTransactionRepository: repos.Transactions, f: r.f}
		repos.Stock = &faultyStock{StockRepository: repos.Stock, f: r.f}
		return fn(repos)
	})
}

type faultyOrders struct {
	repository.OrderRepository
	f *faults
}

func (o *faultyOrders) UpdateOutput(ctx context.Context, out *entity.OrderOutput) error {
	o.f.mu.Lock()
	item := o.f.failProduceItem
	o.f.mu.Unlock()
	if item != "" && out.ItemID == item && out.StockTransactionID != "" {
		return errors.New("disco lleno")
	}
	return o.OrderRepository.UpdateOutput(ctx, out)
}

type faultyTransactions struct {
	repository.StockTransactionRepository
	f *faults
}

func (t *faultyTransactions) Create(ctx context.Context, tx *entity.StockTransaction) error {
	t.f.mu.Lock()
	fail := t.f.failWaste
	t.f.mu.Unlock()
	if fail && tx.Purpose == entity.PurposeWaste {
		return errors.New("servicio de auditoría caído")
	}
	return t.StockTransactionRepository.Create(ctx, tx)
}

type faultyStock struct {
	repository.StockRepository
	f *faults
}

func (s *faultyStock) GetForUpdate(ctx context.Context, itemID, warehouseID string) (*entity.StockBalance, error) {
	b, err := s.StockRepository.GetForUpdate(ctx, itemID, warehouseID)
	s.f.mu.Lock()
	short := s.f.shortItem
	s.f.mu.Unlock()
	if err == nil && itemID == short {
		b.CurrentStock = decimal.NewFromInt(1)
		b.Recalculate()
	}
	return b, err
}

type recordedMetrics struct {
	mu            sync.Mutex
	results       []string
	compensations int
	stepFailures  []string
	insufficient  int
}

func (m *recordedMetrics) ObserveExecution(result string, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results = append(m.results, result)
}

func (m *recordedMetrics) IncCompensation() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.compensations++
}

func (m *recordedMetrics) IncStepFailure(step string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stepFailures = append(m.stepFailures, step)
}

func (m *recordedMetrics) IncInsufficientStock() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.insufficient++
}

type recordedEvents struct {
	mu     sync.Mutex
	events []transformation.Event
}

func (p *recordedEvents) Publish(_ context.Context, ev transformation.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *recordedEvents) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type env struct {
	t         *testing.T
	store     *memory.Store
	faults    *faults
	metrics   *recordedMetrics
	events    *recordedEvents
	locker    *memory.Locker
	templates *transformation.TemplateUseCase
	orders    *transformation.OrderUseCase
	exec      *transformation.Orchestrator
}

func newEnv(t *testing.T) *env {
	t.Helper()
	store := memory.NewStore()
	f := &faults{}
	runner := &faultyRunner{inner: store, f: f}
	repos := store.Repos()
	validator := transformation.NewValidator(repos.Templates, repos.Orders, repos.Stock, repos.Items)
	e := &env{
		t:       t,
		store:   store,
		faults:  f,
		metrics: &recordedMetrics{},
		events:  &recordedEvents{},
		locker:  memory.NewLocker(),
	}
	e.templates = transformation.NewTemplateUseCase(repos.Templates, repos.Items, validator)
	e.orders = transformation.NewOrderUseCase(transformation.OrderDeps{
		TxRunner:   runner,
		Orders:     repos.Orders,
		Templates:  repos.Templates,
		Warehouses: store.Warehouses(),
		Items:      repos.Items,
		Lineage:    repos.Lineage,
		Validator:  validator,
		Log:        zerolog.Nop(),
	})
	e.exec = transformation.NewOrchestrator(transformation.OrchestratorDeps{
		TxRunner:  runner,
		Poster:    inventory.NewStockPoster(runner, 3),
		Validator: validator,
		Locker:    e.locker,
		LockTTL:   time.Minute,
		Events:    e.events,
		Metrics:   e.metrics,
		Log:       zerolog.Nop(),
	})

	ctx := context.Background()
	require.NoError(t, store.Warehouses().Create(ctx, &entity.Warehouse{ID: warehouseID, CompanyID: companyID, Name: "Principal", IsActive: true}))
	require.NoError(t, store.Warehouses().Create(ctx, &entity.Warehouse{ID: "wh-otra", CompanyID: otherCompany, Name: "Ajena", IsActive: true}))
	return e
}

func (e *env) item(id, code string, cost string) {
	e.t.Helper()
	require.NoError(e.t, e.store.Repos().Items.Create(context.Background(), &entity.Item{
		ID: id, CompanyID: companyID, Code: code, Name: "Ítem " + code, UnitMeasure: "kg", Cost: d(cost), IsActive: true,
	}))
}

func (e *env) stock(itemID, qty string) {
	e.t.Helper()
	b := &entity.StockBalance{ItemID: itemID, WarehouseID: warehouseID, CurrentStock: d(qty), ReservedStock: decimal.Zero}
	b.Recalculate()
	cur, err := e.store.Repos().Stock.Get(context.Background(), itemID, warehouseID)
	require.NoError(e.t, err)
	require.NoError(e.t, e.store.Repos().Stock.Save(context.Background(), b, cur.Version))
}

func (e *env) balance(itemID string) decimal.Decimal {
	e.t.Helper()
	b, err := e.store.Repos().Stock.Get(context.Background(), itemID, warehouseID)
	require.NoError(e.t, err)
	return b.CurrentStock
}

// referenceSetup ítems del caso de referencia: A (costo 10) y B (costo 5) como entradas,
// O1, O2 y O3 (desecho) como salidas. Stock inicial de 20 para A y B.
func (e *env) referenceSetup() *dto.TemplateResponse {
	e.t.Helper()
	e.item("A", "MP-A", "10")
	e.item("B", "MP-B", "5")
	e.item("O1", "PT-1", "0")
	e.item("O2", "PT-2", "0")
	e.item("O3", "DES-3", "0")
	e.stock("A", "20")
	e.stock("B", "20")
	tpl, err := e.templates.Create(context.Background(), companyID, userID, dto.CreateTemplateRequest{
		Code: "DESPIECE",
		Name: "Despiece",
		Inputs: []dto.TemplateLineRequest{
			{ItemID: "A", Quantity: d("10")},
			{ItemID: "B", Quantity: d("10")},
		},
		Outputs: []dto.TemplateLineRequest{
			{ItemID: "O1", Quantity: d("8")},
			{ItemID: "O2", Quantity: d("5")},
			{ItemID: "O3", Quantity: d("5"), IsScrap: true},
		},
	})
	require.NoError(e.t, err)
	return tpl
}

// preparedOrder crea una orden de la plantilla y la pasa a PREPARING.
func (e *env) preparedOrder(templateID string) *dto.OrderResponse {
	e.t.Helper()
	ctx := context.Background()
	o, err := e.orders.Create(ctx, companyID, userID, dto.CreateOrderRequest{TemplateID: templateID, WarehouseID: warehouseID})
	require.NoError(e.t, err)
	o, err = e.orders.Transition(ctx, companyID, userID, o.ID, entity.OrderStatusPreparing)
	require.NoError(e.t, err)
	return o
}

// referenceExecution consumo 10/10 y producción 8/4/0 con merma 0/1/5.
func referenceExecution(o *dto.OrderResponse) dto.ExecuteTransformationRequest {
	w := func(s string) *decimal.Decimal { v := d(s); return &v }
	return dto.ExecuteTransformationRequest{
		Inputs: []dto.ExecuteInputRequest{
			{InputLineID: o.Inputs[0].ID, ConsumedQuantity: d("10")},
			{InputLineID: o.Inputs[1].ID, ConsumedQuantity: d("10")},
		},
		Outputs: []dto.ExecuteOutputRequest{
			{OutputLineID: o.Outputs[0].ID, ProducedQuantity: d("8"), WastedQuantity: w("0")},
			{OutputLineID: o.Outputs[1].ID, ProducedQuantity: d("4"), WastedQuantity: w("1"), WasteReason: "recorte"},
			{OutputLineID: o.Outputs[2].ID, ProducedQuantity: d("0"), WastedQuantity: w("5"), WasteReason: "hueso"},
		},
	}
}

func (e *env) order(id string) *dto.OrderResponse {
	e.t.Helper()
	o, err := e.orders.GetByID(context.Background(), companyID, id)
	require.NoError(e.t, err)
	return o
}
