package memory

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/invorya-transformaciones/internal/domain"
	"github.com/jhoicas/invorya-transformaciones/internal/domain/entity"
	"github.com/jhoicas/invorya-transformaciones/internal/domain/repository"
)

var (
	_ repository.ItemRepository             = (*ItemRepo)(nil)
	_ repository.WarehouseRepository        = (*WarehouseRepo)(nil)
	_ repository.StockRepository            = (*StockRepo)(nil)
	_ repository.StockTransactionRepository = (*StockTransactionRepo)(nil)
	_ repository.TemplateRepository         = (*TemplateRepo)(nil)
	_ repository.OrderRepository            = (*OrderRepo)(nil)
	_ repository.LineageRepository          = (*LineageRepo)(nil)
)

// ItemRepo catálogo de ítems en memoria.
type ItemRepo struct {
	s    *Store
	inTx bool
}

func (r *ItemRepo) Create(_ context.Context, item *entity.Item) error {
	return r.s.write(r.inTx, func(st *state) error {
		if _, ok := st.items[item.ID]; ok {
			return domain.ErrDuplicate
		}
		c := *item
		st.items[item.ID] = &c
		return nil
	})
}

func (r *ItemRepo) GetByID(_ context.Context, id string) (*entity.Item, error) {
	var out *entity.Item
	_ = r.s.read(func(st *state) error {
		if it, ok := st.items[id]; ok {
			c := *it
			out = &c
		}
		return nil
	})
	return out, nil
}

func (r *ItemRepo) GetByIDs(_ context.Context, ids []string) (map[string]*entity.Item, error) {
	out := make(map[string]*entity.Item, len(ids))
	_ = r.s.read(func(st *state) error {
		for _, id := range ids {
			if it, ok := st.items[id]; ok {
				c := *it
				out[id] = &c
			}
		}
		return nil
	})
	return out, nil
}

func (r *ItemRepo) UpdateCost(_ context.Context, id string, cost decimal.Decimal, at time.Time) error {
	return r.s.write(r.inTx, func(st *state) error {
		it, ok := st.items[id]
		if !ok {
			return domain.ErrNotFound
		}
		c := *it
		c.Cost = cost
		c.UpdatedAt = at
		st.items[id] = &c
		return nil
	})
}

// WarehouseRepo bodegas en memoria.
type WarehouseRepo struct {
	s *Store
}

func (r *WarehouseRepo) Create(_ context.Context, w *entity.Warehouse) error {
	return r.s.write(false, func(st *state) error {
		c := *w
		st.warehouses[w.ID] = &c
		return nil
	})
}

func (r *WarehouseRepo) GetByID(_ context.Context, id string) (*entity.Warehouse, error) {
	var out *entity.Warehouse
	_ = r.s.read(func(st *state) error {
		if w, ok := st.warehouses[id]; ok {
			c := *w
			out = &c
		}
		return nil
	})
	return out, nil
}

// StockRepo saldos en memoria con compare-and-swap de versión.
type StockRepo struct {
	s    *Store
	inTx bool
}

func (r *StockRepo) Get(_ context.Context, itemID, warehouseID string) (*entity.StockBalance, error) {
	out := &entity.StockBalance{
		ItemID:         itemID,
		WarehouseID:    warehouseID,
		CurrentStock:   decimal.Zero,
		ReservedStock:  decimal.Zero,
		AvailableStock: decimal.Zero,
	}
	_ = r.s.read(func(st *state) error {
		if b, ok := st.balances[stockKey{itemID, warehouseID}]; ok {
			c := *b
			out = &c
		}
		return nil
	})
	return out, nil
}

// GetForUpdate en memoria equivale a Get: las transacciones ya están serializadas.
func (r *StockRepo) GetForUpdate(ctx context.Context, itemID, warehouseID string) (*entity.StockBalance, error) {
	return r.Get(ctx, itemID, warehouseID)
}

func (r *StockRepo) Save(_ context.Context, b *entity.StockBalance, expectedVersion int64) error {
	return r.s.write(r.inTx, func(st *state) error {
		k := stockKey{b.ItemID, b.WarehouseID}
		var current int64
		if cur, ok := st.balances[k]; ok {
			current = cur.Version
		}
		if current != expectedVersion {
			return domain.ErrConcurrentModification
		}
		b.Version = expectedVersion + 1
		c := *b
		st.balances[k] = &c
		return nil
	})
}

// StockTransactionRepo transacciones de stock append-only.
type StockTransactionRepo struct {
	s    *Store
	inTx bool
}

func (r *StockTransactionRepo) Create(_ context.Context, tx *entity.StockTransaction) error {
	return r.s.write(r.inTx, func(st *state) error {
		if _, ok := st.transactions[tx.ID]; ok {
			return domain.ErrDuplicate
		}
		for _, existing := range st.transactions {
			if existing.Code == tx.Code {
				return domain.ErrDuplicate
			}
		}
		st.transactions[tx.ID] = copyTransaction(tx)
		st.txOrder = append(st.txOrder, tx.ID)
		return nil
	})
}

func (r *StockTransactionRepo) GetByID(_ context.Context, id string) (*entity.StockTransaction, error) {
	var out *entity.StockTransaction
	_ = r.s.read(func(st *state) error {
		if t, ok := st.transactions[id]; ok {
			out = copyTransaction(t)
		}
		return nil
	})
	return out, nil
}

func (r *StockTransactionRepo) ListByReference(_ context.Context, companyID, referenceID string) ([]*entity.StockTransaction, error) {
	var out []*entity.StockTransaction
	_ = r.s.read(func(st *state) error {
		for _, id := range st.txOrder {
			t := st.transactions[id]
			if t.CompanyID == companyID && t.ReferenceID == referenceID {
				out = append(out, copyTransaction(t))
			}
		}
		return nil
	})
	return out, nil
}

// TemplateRepo plantillas en memoria.
type TemplateRepo struct {
	s    *Store
	inTx bool
}

func (r *TemplateRepo) Create(_ context.Context, t *entity.TransformationTemplate) error {
	return r.s.write(r.inTx, func(st *state) error {
		for _, existing := range st.templates {
			if existing.CompanyID == t.CompanyID && existing.Code == t.Code {
				return domain.ErrDuplicate
			}
		}
		st.templates[t.ID] = copyTemplate(t)
		return nil
	})
}

func (r *TemplateRepo) GetByID(_ context.Context, id string) (*entity.TransformationTemplate, error) {
	var out *entity.TransformationTemplate
	_ = r.s.read(func(st *state) error {
		if t, ok := st.templates[id]; ok {
			out = copyTemplate(t)
		}
		return nil
	})
	return out, nil
}

func (r *TemplateRepo) Update(_ context.Context, t *entity.TransformationTemplate) error {
	return r.s.write(r.inTx, func(st *state) error {
		if _, ok := st.templates[t.ID]; !ok {
			return domain.ErrNotFound
		}
		st.templates[t.ID] = copyTemplate(t)
		return nil
	})
}

func (r *TemplateRepo) ListByCompany(_ context.Context, companyID string, limit, offset int) ([]*entity.TransformationTemplate, error) {
	var list []*entity.TransformationTemplate
	_ = r.s.read(func(st *state) error {
		for _, t := range st.templates {
			if t.CompanyID == companyID {
				list = append(list, copyTemplate(t))
			}
		}
		return nil
	})
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	return paginate(list, limit, offset), nil
}

func (r *TemplateRepo) IncrementUsage(_ context.Context, id string) error {
	return r.s.write(r.inTx, func(st *state) error {
		t, ok := st.templates[id]
		if !ok {
			return domain.ErrNotFound
		}
		t.UsageCount++
		return nil
	})
}

// OrderRepo órdenes en memoria.
type OrderRepo struct {
	s    *Store
	inTx bool
}

func (r *OrderRepo) Create(_ context.Context, o *entity.TransformationOrder) error {
	return r.s.write(r.inTx, func(st *state) error {
		if _, ok := st.orders[o.ID]; ok {
			return domain.ErrDuplicate
		}
		st.orders[o.ID] = copyOrder(o)
		return nil
	})
}

func (r *OrderRepo) GetByID(_ context.Context, id string) (*entity.TransformationOrder, error) {
	var out *entity.TransformationOrder
	_ = r.s.read(func(st *state) error {
		if o, ok := st.orders[id]; ok {
			out = copyOrder(o)
		}
		return nil
	})
	return out, nil
}

func (r *OrderRepo) ListByCompany(_ context.Context, companyID string, f repository.OrderFilter) ([]*entity.TransformationOrder, error) {
	var list []*entity.TransformationOrder
	_ = r.s.read(func(st *state) error {
		for _, o := range st.orders {
			if o.CompanyID != companyID || o.RetiredAt != nil {
				continue
			}
			if f.Status != "" && o.Status != f.Status {
				continue
			}
			list = append(list, copyOrder(o))
		}
		return nil
	})
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	return paginate(list, f.Limit, f.Offset), nil
}

func (r *OrderRepo) UpdateStatus(_ context.Context, o *entity.TransformationOrder, expected string) error {
	return r.s.write(r.inTx, func(st *state) error {
		cur, ok := st.orders[o.ID]
		if !ok {
			return domain.ErrNotFound
		}
		if cur.Status != expected {
			return domain.ErrConcurrentModification
		}
		cur.Status = o.Status
		cur.ActualQuantity = o.ActualQuantity
		cur.ExecutionDate = o.ExecutionDate
		cur.CompletionDate = o.CompletionDate
		cur.UpdatedAt = o.UpdatedAt
		cur.UpdatedBy = o.UpdatedBy
		return nil
	})
}

func (r *OrderRepo) UpdateInput(_ context.Context, in *entity.OrderInput) error {
	return r.s.write(r.inTx, func(st *state) error {
		o, ok := st.orders[in.OrderID]
		if !ok {
			return domain.ErrNotFound
		}
		line := o.FindInput(in.ID)
		if line == nil {
			return domain.ErrNotFound
		}
		*line = *in
		return nil
	})
}

func (r *OrderRepo) UpdateOutput(_ context.Context, out *entity.OrderOutput) error {
	return r.s.write(r.inTx, func(st *state) error {
		o, ok := st.orders[out.OrderID]
		if !ok {
			return domain.ErrNotFound
		}
		line := o.FindOutput(out.ID)
		if line == nil {
			return domain.ErrNotFound
		}
		*line = *out
		return nil
	})
}

func (r *OrderRepo) UpdateCosts(_ context.Context, o *entity.TransformationOrder) error {
	return r.s.write(r.inTx, func(st *state) error {
		cur, ok := st.orders[o.ID]
		if !ok {
			return domain.ErrNotFound
		}
		cur.TotalInputCost = o.TotalInputCost
		cur.TotalOutputCost = o.TotalOutputCost
		cur.TotalWasteCost = o.TotalWasteCost
		cur.ScrapCost = o.ScrapCost
		cur.CostVariance = o.CostVariance
		cur.UpdatedAt = o.UpdatedAt
		return nil
	})
}

func (r *OrderRepo) Retire(_ context.Context, id string, at time.Time) error {
	return r.s.write(r.inTx, func(st *state) error {
		cur, ok := st.orders[id]
		if !ok {
			return domain.ErrNotFound
		}
		t := at
		cur.RetiredAt = &t
		cur.UpdatedAt = at
		return nil
	})
}

// LineageRepo aristas de trazabilidad en memoria.
type LineageRepo struct {
	s    *Store
	inTx bool
}

func (r *LineageRepo) CreateBatch(_ context.Context, edges []*entity.LineageEdge) error {
	return r.s.write(r.inTx, func(st *state) error {
		for _, e := range edges {
			c := *e
			st.lineage[e.OrderID] = append(st.lineage[e.OrderID], &c)
		}
		return nil
	})
}

func (r *LineageRepo) ListByOrder(_ context.Context, orderID string) ([]*entity.LineageEdge, error) {
	var out []*entity.LineageEdge
	_ = r.s.read(func(st *state) error {
		for _, e := range st.lineage[orderID] {
			c := *e
			out = append(out, &c)
		}
		return nil
	})
	return out, nil
}

func (r *LineageRepo) DeleteByOrder(_ context.Context, orderID string) error {
	return r.s.write(r.inTx, func(st *state) error {
		delete(st.lineage, orderID)
		return nil
	})
}

func paginate[T any](list []T, limit, offset int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(list) {
		return nil
	}
	list = list[offset:]
	if limit > 0 && limit < len(list) {
		list = list[:limit]
	}
	return list
}
