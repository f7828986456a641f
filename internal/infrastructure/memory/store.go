// Package memory implementa los puertos de persistencia en memoria (modo desarrollo y tests).
// Run serializa las transacciones y restaura el estado completo si fn falla.
package memory

import (
	"context"
	"sync"

	"github.com/jhoicas/invorya-transformaciones/internal/application/inventory"
	"github.com/jhoicas/invorya-transformaciones/internal/domain/entity"
)

var _ inventory.TxRunner = (*Store)(nil)

type stockKey struct {
	itemID      string
	warehouseID string
}

type state struct {
	items        map[string]*entity.Item
	warehouses   map[string]*entity.Warehouse
	balances     map[stockKey]*entity.StockBalance
	transactions map[string]*entity.StockTransaction
	txOrder      []string
	templates    map[string]*entity.TransformationTemplate
	orders       map[string]*entity.TransformationOrder
	lineage      map[string][]*entity.LineageEdge
}

func newState() *state {
	return &state{
		items:        make(map[string]*entity.Item),
		warehouses:   make(map[string]*entity.Warehouse),
		balances:     make(map[stockKey]*entity.StockBalance),
		transactions: make(map[string]*entity.StockTransaction),
		templates:    make(map[string]*entity.TransformationTemplate),
		orders:       make(map[string]*entity.TransformationOrder),
		lineage:      make(map[string][]*entity.LineageEdge),
	}
}

// Store almacenamiento en memoria con semántica transaccional.
type Store struct {
	txMu sync.Mutex   // una transacción (o escritura suelta) a la vez
	mu   sync.RWMutex // protege data
	data *state
}

// NewStore crea un store vacío.
func NewStore() *Store {
	return &Store{data: newState()}
}

// Run ejecuta fn con repositorios transaccionales. Si fn devuelve error el estado vuelve a la foto previa.
func (s *Store) Run(ctx context.Context, fn func(repos inventory.TxRepos) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.RLock()
	snapshot := s.data.clone()
	s.mu.RUnlock()

	if err := fn(s.repos(true)); err != nil {
		s.mu.Lock()
		s.data = snapshot
		s.mu.Unlock()
		return err
	}
	return nil
}

// Repos devuelve repositorios fuera de transacción (equivalente al pool).
func (s *Store) Repos() inventory.TxRepos {
	return s.repos(false)
}

func (s *Store) repos(inTx bool) inventory.TxRepos {
	return inventory.TxRepos{
		Stock:        &StockRepo{s: s, inTx: inTx},
		Transactions: &StockTransactionRepo{s: s, inTx: inTx},
		Items:        &ItemRepo{s: s, inTx: inTx},
		Templates:    &TemplateRepo{s: s, inTx: inTx},
		Orders:       &OrderRepo{s: s, inTx: inTx},
		Lineage:      &LineageRepo{s: s, inTx: inTx},
	}
}

// Warehouses repositorio de bodegas.
func (s *Store) Warehouses() *WarehouseRepo {
	return &WarehouseRepo{s: s}
}

// write ejecuta fn con el lock de escritura. Fuera de una transacción también toma txMu
// para no intercalarse con una transacción que podría restaurar su foto.
func (s *Store) write(inTx bool, fn func(st *state) error) error {
	if !inTx {
		s.txMu.Lock()
		defer s.txMu.Unlock()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.data)
}

func (s *Store) read(fn func(st *state) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(s.data)
}

func (st *state) clone() *state {
	c := newState()
	for k, v := range st.items {
		it := *v
		c.items[k] = &it
	}
	for k, v := range st.warehouses {
		w := *v
		c.warehouses[k] = &w
	}
	for k, v := range st.balances {
		b := *v
		c.balances[k] = &b
	}
	for k, v := range st.transactions {
		c.transactions[k] = copyTransaction(v)
	}
	c.txOrder = append([]string(nil), st.txOrder...)
	for k, v := range st.templates {
		c.templates[k] = copyTemplate(v)
	}
	for k, v := range st.orders {
		c.orders[k] = copyOrder(v)
	}
	for k, edges := range st.lineage {
		cp := make([]*entity.LineageEdge, 0, len(edges))
		for _, e := range edges {
			ec := *e
			cp = append(cp, &ec)
		}
		c.lineage[k] = cp
	}
	return c
}

func copyTransaction(t *entity.StockTransaction) *entity.StockTransaction {
	c := *t
	c.Items = append([]entity.StockTransactionItem(nil), t.Items...)
	return &c
}

func copyTemplate(t *entity.TransformationTemplate) *entity.TransformationTemplate {
	c := *t
	c.Inputs = append([]entity.TemplateInput(nil), t.Inputs...)
	c.Outputs = append([]entity.TemplateOutput(nil), t.Outputs...)
	return &c
}

func copyOrder(o *entity.TransformationOrder) *entity.TransformationOrder {
	c := *o
	c.Inputs = append([]entity.OrderInput(nil), o.Inputs...)
	c.Outputs = append([]entity.OrderOutput(nil), o.Outputs...)
	if o.ExecutionDate != nil {
		t := *o.ExecutionDate
		c.ExecutionDate = &t
	}
	if o.CompletionDate != nil {
		t := *o.CompletionDate
		c.CompletionDate = &t
	}
	if o.RetiredAt != nil {
		t := *o.RetiredAt
		c.RetiredAt = &t
	}
	return &c
}
