package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/jhoicas/Inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/Inventario-ledger/internal/domain/repository"
)

var _ inventory.TxRunner = (*TxRunner)(nil)

const defaultTxRetries = 3

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool         *pgxpool.Pool
	sequenceMode SequenceMode
	maxRetries   int
	log          zerolog.Logger
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool, mode SequenceMode, log zerolog.Logger) *TxRunner {
	if mode == "" {
		mode = SequenceCounter
	}
	return &TxRunner{pool: pool, sequenceMode: mode, maxRetries: defaultTxRetries, log: log}
}

// Run inicia una transacción, ejecuta fn con repos atados a la tx y hace Commit o Rollback.
// Fallas de serialización y deadlocks se reintentan con la transacción completa.
func (r *TxRunner) Run(ctx context.Context, fn func(ctx context.Context, repos repository.TxRepos) error) error {
	var err error
	for attempt := 1; attempt <= r.maxRetries; attempt++ {
		err = r.runOnce(ctx, fn)
		if !isRetryable(err) || ctx.Err() != nil {
			return err
		}
		r.log.Warn().Err(err).Int("attempt", attempt).Msg("transacción reintentable")
	}
	return err
}

func (r *TxRunner) runOnce(ctx context.Context, fn func(ctx context.Context, repos repository.TxRepos) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	repos := repository.TxRepos{
		Stock:     NewStockRepository(tx),
		Batches:   NewBatchRepository(tx),
		Movements: NewMovementRepository(tx),
		Sequences: NewSequenceRepository(tx, r.sequenceMode),
		Outbox:    NewOutboxRepository(tx),
	}
	if err := fn(ctx, repos); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
