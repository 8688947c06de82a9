package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Inventario-ledger/internal/domain"
	"github.com/jhoicas/Inventario-ledger/internal/domain/inventory"
	"github.com/jhoicas/Inventario-ledger/internal/domain/repository"
)

var _ repository.SequenceRepository = (*SequenceRepo)(nil)

// SequenceMode estrategia de consecutivos.
type SequenceMode string

const (
	// SequenceCounter fila contadora por ámbito+prefijo, incremento atómico.
	SequenceCounter SequenceMode = "counter"
	// SequenceLegacy lee el último número existente y suma uno; las carreras las detecta el índice único.
	SequenceLegacy SequenceMode = "legacy"
)

// ParseSequenceMode "" equivale a counter.
func ParseSequenceMode(s string) (SequenceMode, error) {
	switch SequenceMode(s) {
	case "", SequenceCounter:
		return SequenceCounter, nil
	case SequenceLegacy:
		return SequenceLegacy, nil
	}
	return "", domain.Invalid("sequence_mode", fmt.Sprintf("modo no soportado: %q", s))
}

// SequenceRepo consecutivos sobre PostgreSQL. Debe usarse con la tx de la inserción.
type SequenceRepo struct {
	q    Querier
	mode SequenceMode
}

// NewSequenceRepository construye el adaptador. Pasar tx (Querier).
func NewSequenceRepository(q Querier, mode SequenceMode) *SequenceRepo {
	return &SequenceRepo{q: q, mode: mode}
}

// tabla y columna donde vive el número de cada ámbito
func numberSource(scope string) (table, column string, err error) {
	switch scope {
	case inventory.ScopeMovement:
		return "movements", "movement_number", nil
	case inventory.ScopeBatch:
		return "batches", "batch_number", nil
	}
	return "", "", domain.Invalid("scope", fmt.Sprintf("ámbito de consecutivo desconocido: %q", scope))
}

const (
	incrementCounterSQL = `UPDATE sequence_counters SET last_value = last_value + 1 WHERE name = $1 RETURNING last_value`

	initCounterSQL = `
		INSERT INTO sequence_counters (name, last_value) VALUES ($1, $2 + 1)
		ON CONFLICT (name) DO UPDATE SET last_value = sequence_counters.last_value + 1
		RETURNING last_value`
)

// seedQuery mayor sufijo numérico existente para el prefijo ($1), 0 si no hay.
func seedQuery(table, column string) string {
	return fmt.Sprintf(`
		SELECT COALESCE(MAX(CAST(substring(%[2]s FROM length($1) + 2) AS BIGINT)), 0)
		FROM %[1]s WHERE %[2]s ~ ('^' || $1 || '-[0-9]+$')`, table, column)
}

// legacyQuery último número registrado con el prefijo ($1).
func legacyQuery(table, column string) string {
	return fmt.Sprintf(`
		SELECT %[2]s FROM %[1]s WHERE %[2]s LIKE $1 || '-%%'
		ORDER BY created_at DESC, %[2]s DESC LIMIT 1`, table, column)
}

// Next retorna el siguiente consecutivo del prefijo.
func (r *SequenceRepo) Next(ctx context.Context, scope, prefix string) (int64, error) {
	table, column, err := numberSource(scope)
	if err != nil {
		return 0, err
	}
	if r.mode == SequenceLegacy {
		return r.nextLegacy(ctx, table, column, prefix)
	}
	return r.nextCounter(ctx, table, column, inventory.CounterName(scope, prefix), prefix)
}

func (r *SequenceRepo) nextCounter(ctx context.Context, table, column, name, prefix string) (int64, error) {
	var next int64
	err := r.q.QueryRow(ctx, incrementCounterSQL, name).Scan(&next)
	if err == nil {
		return next, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("increment sequence %s: %w", name, err)
	}

	// Primera vez: sembrar desde el mayor número existente.
	var last int64
	if err := r.q.QueryRow(ctx, seedQuery(table, column), prefix).Scan(&last); err != nil {
		return 0, fmt.Errorf("seed sequence %s: %w", name, err)
	}
	err = r.q.QueryRow(ctx, initCounterSQL, name, last).Scan(&next)
	if err != nil {
		return 0, fmt.Errorf("init sequence %s: %w", name, err)
	}
	return next, nil
}

func (r *SequenceRepo) nextLegacy(ctx context.Context, table, column, prefix string) (int64, error) {
	var last string
	err := r.q.QueryRow(ctx, legacyQuery(table, column), prefix).Scan(&last)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("last number %s: %w", prefix, err)
	}
	next, err := inventory.NextAfter(prefix, last)
	if err != nil {
		return 0, err
	}
	_, seq, err := inventory.ParseNumber(next)
	return seq, err
}
