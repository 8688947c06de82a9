package memory

import (
	"context"
	"sort"
	"time"

	"github.com/jhoicas/Inventario-ledger/internal/domain"
	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/Inventario-ledger/internal/domain/inventory"
)

// ProductRepo implementa repository.ProductRepository.
type ProductRepo struct{ v view }

func (r *ProductRepo) GetByID(_ context.Context, id string) (*entity.Product, error) {
	var out *entity.Product
	err := r.v.with(func(st *state) error {
		if p, ok := st.products[id]; ok {
			out = &p
		}
		return nil
	})
	return out, err
}

// WarehouseRepo implementa repository.WarehouseRepository.
type WarehouseRepo struct{ v view }

func (r *WarehouseRepo) GetByID(_ context.Context, id string) (*entity.Warehouse, error) {
	var out *entity.Warehouse
	err := r.v.with(func(st *state) error {
		if w, ok := st.warehouses[id]; ok {
			out = &w
		}
		return nil
	})
	return out, err
}

// StockRepo implementa repository.StockRepository.
type StockRepo struct{ v view }

func (r *StockRepo) Get(_ context.Context, productID, warehouseID string) (*entity.Stock, error) {
	key := entity.StockKey{ProductID: productID, WarehouseID: warehouseID}
	out := &entity.Stock{ProductID: productID, WarehouseID: warehouseID}
	err := r.v.with(func(st *state) error {
		if s, ok := st.stock[key]; ok {
			*out = s
		}
		return nil
	})
	return out, err
}

// GetForUpdate crea la fila si falta; el bloqueo lo da el mutex de la transacción.
func (r *StockRepo) GetForUpdate(_ context.Context, productID, warehouseID string) (*entity.Stock, error) {
	key := entity.StockKey{ProductID: productID, WarehouseID: warehouseID}
	var out entity.Stock
	err := r.v.with(func(st *state) error {
		s, ok := st.stock[key]
		if !ok {
			s = entity.Stock{ProductID: productID, WarehouseID: warehouseID, UpdatedAt: time.Now()}
			st.stock[key] = s
		}
		out = s
		return nil
	})
	return &out, err
}

func (r *StockRepo) Upsert(_ context.Context, s *entity.Stock) error {
	if s.Quantity < 0 {
		return domain.Invalid("quantity", "stock negativo")
	}
	return r.v.with(func(st *state) error {
		st.stock[entity.StockKey{ProductID: s.ProductID, WarehouseID: s.WarehouseID}] = *s
		return nil
	})
}

// BatchRepo implementa repository.BatchRepository.
type BatchRepo struct{ v view }

func (r *BatchRepo) Create(_ context.Context, b *entity.Batch) error {
	return r.v.with(func(st *state) error {
		for _, existing := range st.batches {
			if existing.BatchNumber == b.BatchNumber {
				return domain.ErrSequenceRace
			}
		}
		st.batches[b.ID] = *b
		return nil
	})
}

func (r *BatchRepo) GetByID(_ context.Context, id string) (*entity.Batch, error) {
	var out *entity.Batch
	err := r.v.with(func(st *state) error {
		if b, ok := st.batches[id]; ok {
			out = &b
		}
		return nil
	})
	return out, err
}

func (r *BatchRepo) ListAvailable(_ context.Context, productID, warehouseID string) ([]*entity.Batch, error) {
	var out []*entity.Batch
	err := r.v.with(func(st *state) error {
		for _, b := range st.batches {
			if b.ProductID == productID && b.WarehouseID == warehouseID && b.RemainingQty > 0 {
				out = append(out, &b)
			}
		}
		return nil
	})
	inventory.SortFIFO(out)
	return out, err
}

// SumRemaining suma el saldo de todos los lotes de una fila de stock.
func (r *BatchRepo) SumRemaining(_ context.Context, productID, warehouseID string) (int64, error) {
	var sum int64
	err := r.v.with(func(st *state) error {
		for _, b := range st.batches {
			if b.ProductID == productID && b.WarehouseID == warehouseID {
				sum += b.RemainingQty
			}
		}
		return nil
	})
	return sum, err
}

func (r *BatchRepo) UpdateRemaining(_ context.Context, id string, remaining int64) error {
	return r.v.with(func(st *state) error {
		b, ok := st.batches[id]
		if !ok {
			return domain.NotFound("lote", id)
		}
		if remaining < 0 {
			return domain.Invalid("remaining_qty", "saldo de lote negativo")
		}
		b.RemainingQty = remaining
		st.batches[id] = b
		return nil
	})
}

func (r *BatchRepo) Delete(_ context.Context, id string) error {
	return r.v.with(func(st *state) error {
		for _, m := range st.movements {
			if m.BatchID == id {
				return domain.Conflict("el lote está referenciado por " + m.MovementNumber)
			}
		}
		delete(st.batches, id)
		return nil
	})
}

// MovementRepo implementa repository.MovementRepository.
type MovementRepo struct{ v view }

func (r *MovementRepo) Create(_ context.Context, m *entity.Movement) error {
	return r.v.with(func(st *state) error {
		for _, existing := range st.movements {
			if existing.MovementNumber == m.MovementNumber {
				return domain.ErrSequenceRace
			}
		}
		st.movements[m.ID] = *m
		return nil
	})
}

func (r *MovementRepo) GetByID(_ context.Context, id string) (*entity.Movement, error) {
	var out *entity.Movement
	err := r.v.with(func(st *state) error {
		if m, ok := st.movements[id]; ok {
			out = &m
		}
		return nil
	})
	return out, err
}

func (r *MovementRepo) GetForUpdate(ctx context.Context, id string) (*entity.Movement, error) {
	return r.GetByID(ctx, id)
}

func (r *MovementRepo) Update(_ context.Context, m *entity.Movement) error {
	return r.v.with(func(st *state) error {
		if _, ok := st.movements[m.ID]; !ok {
			return domain.NotFound("movimiento", m.ID)
		}
		st.movements[m.ID] = *m
		return nil
	})
}

func (r *MovementRepo) Delete(_ context.Context, id string) error {
	return r.v.with(func(st *state) error {
		for _, m := range st.movements {
			if m.ReturnOfID == id {
				return domain.Conflict("el movimiento tiene devoluciones asociadas")
			}
		}
		delete(st.movements, id)
		delete(st.consumptions, id)
		return nil
	})
}

func (r *MovementRepo) ReplaceConsumptions(_ context.Context, movementID string, consumptions []entity.BatchConsumption) error {
	return r.v.with(func(st *state) error {
		if len(consumptions) == 0 {
			delete(st.consumptions, movementID)
			return nil
		}
		st.consumptions[movementID] = append([]entity.BatchConsumption(nil), consumptions...)
		return nil
	})
}

func (r *MovementRepo) ListConsumptions(_ context.Context, movementID string) ([]entity.BatchConsumption, error) {
	var out []entity.BatchConsumption
	err := r.v.with(func(st *state) error {
		out = append(out, st.consumptions[movementID]...)
		return nil
	})
	return out, err
}

func (r *MovementRepo) SumReturned(_ context.Context, saleID string) (int64, error) {
	var sum int64
	err := r.v.with(func(st *state) error {
		for _, m := range st.movements {
			if m.ReturnOfID == saleID {
				sum += m.Quantity
			}
		}
		return nil
	})
	return sum, err
}

func (r *MovementRepo) ListOpenCredits(_ context.Context, companyID string, dueBefore time.Time) ([]*entity.Movement, error) {
	var out []*entity.Movement
	err := r.v.with(func(st *state) error {
		for _, m := range st.movements {
			if m.CompanyID != companyID || m.CreditPaid || m.CreditDueDate == nil || !m.HasCredit() {
				continue
			}
			if m.CreditDueDate.After(dueBefore) {
				continue
			}
			out = append(out, &m)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreditDueDate.Equal(*out[j].CreditDueDate) {
			return out[i].CreditDueDate.Before(*out[j].CreditDueDate)
		}
		return out[i].MovementNumber < out[j].MovementNumber
	})
	return out, err
}

// SequenceRepo implementa repository.SequenceRepository con un contador por nombre.
type SequenceRepo struct{ v view }

func (r *SequenceRepo) Next(_ context.Context, scope, prefix string) (int64, error) {
	var next int64
	err := r.v.with(func(st *state) error {
		name := inventory.CounterName(scope, prefix)
		st.counters[name]++
		next = st.counters[name]
		return nil
	})
	return next, err
}

// OutboxRepo implementa repository.OutboxRepository.
type OutboxRepo struct{ v view }

func (r *OutboxRepo) Enqueue(_ context.Context, ev *entity.OutboxEvent) error {
	return r.v.with(func(st *state) error {
		st.outbox[ev.ID] = *ev
		st.outboxOrder = append(st.outboxOrder, ev.ID)
		return nil
	})
}

func (r *OutboxRepo) ClaimPending(_ context.Context, now, staleBefore time.Time, limit int) ([]*entity.OutboxEvent, error) {
	var out []*entity.OutboxEvent
	err := r.v.with(func(st *state) error {
		for _, id := range st.outboxOrder {
			if len(out) >= limit {
				break
			}
			ev, ok := st.outbox[id]
			if !ok {
				continue
			}
			ready := ev.Status == entity.OutboxPending && (ev.NextAttemptAt == nil || !ev.NextAttemptAt.After(now))
			stale := ev.Status == entity.OutboxProcessing && ev.LockedAt != nil && ev.LockedAt.Before(staleBefore)
			if !ready && !stale {
				continue
			}
			lockedAt := now
			ev.Status = entity.OutboxProcessing
			ev.LockedAt = &lockedAt
			ev.Attempts++
			st.outbox[id] = ev
			claimed := ev
			out = append(out, &claimed)
		}
		return nil
	})
	return out, err
}

func (r *OutboxRepo) MarkSent(_ context.Context, id string, at time.Time) error {
	return r.v.with(func(st *state) error {
		ev, ok := st.outbox[id]
		if !ok {
			return domain.NotFound("evento", id)
		}
		ev.Status = entity.OutboxSent
		ev.DispatchedAt = &at
		ev.LockedAt = nil
		ev.LastError = ""
		st.outbox[id] = ev
		return nil
	})
}

func (r *OutboxRepo) MarkFailed(_ context.Context, id, lastError string, nextAttempt time.Time, dead bool) error {
	return r.v.with(func(st *state) error {
		ev, ok := st.outbox[id]
		if !ok {
			return domain.NotFound("evento", id)
		}
		ev.LastError = lastError
		ev.LockedAt = nil
		if dead {
			ev.Status = entity.OutboxDead
			ev.NextAttemptAt = nil
		} else {
			ev.Status = entity.OutboxPending
			ev.NextAttemptAt = &nextAttempt
		}
		st.outbox[id] = ev
		return nil
	})
}

// Events lista el outbox en orden de creación (inspección y tests).
func (r *OutboxRepo) Events(_ context.Context) ([]entity.OutboxEvent, error) {
	var out []entity.OutboxEvent
	err := r.v.with(func(st *state) error {
		for _, id := range st.outboxOrder {
			if ev, ok := st.outbox[id]; ok {
				out = append(out, ev)
			}
		}
		return nil
	})
	return out, err
}
