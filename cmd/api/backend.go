package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/jhoicas/Inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/Inventario-ledger/internal/domain/repository"
	"github.com/jhoicas/Inventario-ledger/internal/infrastructure/memory"
	"github.com/jhoicas/Inventario-ledger/internal/infrastructure/postgres"
	"github.com/jhoicas/Inventario-ledger/pkg/config"
)

// backend agrupa los adaptadores de persistencia según DB_DRIVER.
type backend struct {
	txRunner   inventory.TxRunner
	products   repository.ProductRepository
	warehouses repository.WarehouseRepository
	stock      repository.StockRepository
	movements  repository.MovementRepository
	outbox     repository.OutboxRepository
	ping       func(ctx context.Context) error
	close      func()
}

func openBackend(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*backend, error) {
	if cfg.DB.Driver == "memory" {
		log.Warn().Msg("DB_DRIVER=memory: el ledger no persiste y el catálogo inicia vacío")
		store := memory.NewStore()
		return &backend{
			txRunner:   store,
			products:   store.Products(),
			warehouses: store.Warehouses(),
			stock:      store.Stock(),
			movements:  store.Movements(),
			outbox:     store.Outbox(),
			close:      func() {},
		}, nil
	}

	seqMode, err := postgres.ParseSequenceMode(cfg.Ledger.SequenceMode)
	if err != nil {
		return nil, err
	}
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return nil, err
	}
	if cfg.DB.AutoMigrate {
		if err := postgres.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, fmt.Errorf("migraciones: %w", err)
		}
		log.Info().Msg("migraciones aplicadas")
	}
	return &backend{
		txRunner:   postgres.NewTxRunner(pool, seqMode, log),
		products:   postgres.NewProductRepository(pool),
		warehouses: postgres.NewWarehouseRepository(pool),
		stock:      postgres.NewStockRepository(pool),
		movements:  postgres.NewMovementRepository(pool),
		outbox:     postgres.NewOutboxRepository(pool),
		ping:       pool.Ping,
		close:      pool.Close,
	}, nil
}
