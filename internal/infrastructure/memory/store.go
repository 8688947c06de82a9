package memory

import (
	"context"
	"sync"

	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/Inventario-ledger/internal/domain/repository"
)

// Store es la implementación en memoria del ledger (DB_DRIVER=memory y tests).
// Serializa transacciones con un mutex y trabaja sobre una copia del estado:
// si fn falla la copia se descarta y el estado queda intacto.
type Store struct {
	mu sync.Mutex
	st *state
}

type state struct {
	products     map[string]entity.Product
	warehouses   map[string]entity.Warehouse
	stock        map[entity.StockKey]entity.Stock
	batches      map[string]entity.Batch
	movements    map[string]entity.Movement
	consumptions map[string][]entity.BatchConsumption
	counters     map[string]int64
	outbox       map[string]entity.OutboxEvent
	outboxOrder  []string
}

// NewStore crea un Store vacío.
func NewStore() *Store {
	return &Store{st: &state{
		products:     map[string]entity.Product{},
		warehouses:   map[string]entity.Warehouse{},
		stock:        map[entity.StockKey]entity.Stock{},
		batches:      map[string]entity.Batch{},
		movements:    map[string]entity.Movement{},
		consumptions: map[string][]entity.BatchConsumption{},
		counters:     map[string]int64{},
		outbox:       map[string]entity.OutboxEvent{},
	}}
}

func (s *state) clone() *state {
	c := &state{
		products:     make(map[string]entity.Product, len(s.products)),
		warehouses:   make(map[string]entity.Warehouse, len(s.warehouses)),
		stock:        make(map[entity.StockKey]entity.Stock, len(s.stock)),
		batches:      make(map[string]entity.Batch, len(s.batches)),
		movements:    make(map[string]entity.Movement, len(s.movements)),
		consumptions: make(map[string][]entity.BatchConsumption, len(s.consumptions)),
		counters:     make(map[string]int64, len(s.counters)),
		outbox:       make(map[string]entity.OutboxEvent, len(s.outbox)),
		outboxOrder:  append([]string(nil), s.outboxOrder...),
	}
	for k, v := range s.products {
		c.products[k] = v
	}
	for k, v := range s.warehouses {
		c.warehouses[k] = v
	}
	for k, v := range s.stock {
		c.stock[k] = v
	}
	for k, v := range s.batches {
		c.batches[k] = v
	}
	for k, v := range s.movements {
		c.movements[k] = v
	}
	for k, v := range s.consumptions {
		c.consumptions[k] = append([]entity.BatchConsumption(nil), v...)
	}
	for k, v := range s.counters {
		c.counters[k] = v
	}
	for k, v := range s.outbox {
		c.outbox[k] = v
	}
	return c
}

// view da acceso al estado: el de la transacción en curso, o el vigente bajo el mutex.
type view struct {
	store *Store
	tx    *state
}

func (v view) with(fn func(st *state) error) error {
	if v.tx != nil {
		return fn(v.tx)
	}
	v.store.mu.Lock()
	defer v.store.mu.Unlock()
	return fn(v.store.st)
}

// Run implementa inventory.TxRunner.
func (s *Store) Run(ctx context.Context, fn func(ctx context.Context, repos repository.TxRepos) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	work := s.st.clone()
	v := view{store: s, tx: work}
	repos := repository.TxRepos{
		Stock:     &StockRepo{v: v},
		Batches:   &BatchRepo{v: v},
		Movements: &MovementRepo{v: v},
		Sequences: &SequenceRepo{v: v},
		Outbox:    &OutboxRepo{v: v},
	}
	if err := fn(ctx, repos); err != nil {
		return err
	}
	s.st = work
	return nil
}

// AddProduct registra un producto del catálogo.
func (s *Store) AddProduct(p entity.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.products[p.ID] = p
}

// AddWarehouse registra una bodega.
func (s *Store) AddWarehouse(w entity.Warehouse) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.warehouses[w.ID] = w
}

func (s *Store) live() view { return view{store: s} }

// Products repositorio de lectura de productos.
func (s *Store) Products() *ProductRepo { return &ProductRepo{v: s.live()} }

// Warehouses repositorio de lectura de bodegas.
func (s *Store) Warehouses() *WarehouseRepo { return &WarehouseRepo{v: s.live()} }

// Stock repositorio de stock fuera de transacción.
func (s *Store) Stock() *StockRepo { return &StockRepo{v: s.live()} }

// Batches repositorio de lotes fuera de transacción.
func (s *Store) Batches() *BatchRepo { return &BatchRepo{v: s.live()} }

// Movements repositorio de movimientos fuera de transacción.
func (s *Store) Movements() *MovementRepo { return &MovementRepo{v: s.live()} }

// Outbox repositorio del outbox fuera de transacción (despachador).
func (s *Store) Outbox() *OutboxRepo { return &OutboxRepo{v: s.live()} }
