package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Inventario-ledger/internal/domain"
	"github.com/jhoicas/Inventario-ledger/internal/domain/inventory"
)

// ─────────────────────────────────────────────────────────────────────────────
// Querier con respuestas programadas
// ─────────────────────────────────────────────────────────────────────────────

type scriptedRow struct {
	val any
	err error
}

func (r scriptedRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	switch d := dest[0].(type) {
	case *int64:
		*d = r.val.(int64)
	case *string:
		*d = r.val.(string)
	default:
		return fmt.Errorf("destino no soportado %T", dest[0])
	}
	return nil
}

type call struct {
	sql  string
	args []any
}

type scriptedQuerier struct {
	rows  []scriptedRow
	calls []call
}

func (q *scriptedQuerier) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	q.calls = append(q.calls, call{sql: sql, args: args})
	if len(q.rows) == 0 {
		return scriptedRow{err: errors.New("consulta inesperada")}
	}
	row := q.rows[0]
	q.rows = q.rows[1:]
	return row
}

func (q *scriptedQuerier) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, errors.New("exec no esperado")
}

func (q *scriptedQuerier) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, errors.New("query no esperado")
}

func compact(sql string) string { return strings.Join(strings.Fields(sql), " ") }

// ─────────────────────────────────────────────────────────────────────────────
// SQL generado
// ─────────────────────────────────────────────────────────────────────────────

func TestSequenceSQL_PorAmbito(t *testing.T) {
	cases := []struct {
		scope  string
		seed   string
		legacy string
	}{
		{
			scope:  inventory.ScopeMovement,
			seed:   `SELECT COALESCE(MAX(CAST(substring(movement_number FROM length($1) + 2) AS BIGINT)), 0) FROM movements WHERE movement_number ~ ('^' || $1 || '-[0-9]+$')`,
			legacy: `SELECT movement_number FROM movements WHERE movement_number LIKE $1 || '-%' ORDER BY created_at DESC, movement_number DESC LIMIT 1`,
		},
		{
			scope:  inventory.ScopeBatch,
			seed:   `SELECT COALESCE(MAX(CAST(substring(batch_number FROM length($1) + 2) AS BIGINT)), 0) FROM batches WHERE batch_number ~ ('^' || $1 || '-[0-9]+$')`,
			legacy: `SELECT batch_number FROM batches WHERE batch_number LIKE $1 || '-%' ORDER BY created_at DESC, batch_number DESC LIMIT 1`,
		},
	}
	for _, tc := range cases {
		t.Run(tc.scope, func(t *testing.T) {
			table, column, err := numberSource(tc.scope)
			require.NoError(t, err)
			assert.Equal(t, tc.seed, compact(seedQuery(table, column)))
			assert.Equal(t, tc.legacy, compact(legacyQuery(table, column)))
		})
	}

	_, _, err := numberSource("factura")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

// ─────────────────────────────────────────────────────────────────────────────
// Modo contador
// ─────────────────────────────────────────────────────────────────────────────

func TestSequenceCounter_IncrementaFilaExistente(t *testing.T) {
	q := &scriptedQuerier{rows: []scriptedRow{{val: int64(42)}}}
	repo := NewSequenceRepository(q, SequenceCounter)

	next, err := repo.Next(context.Background(), inventory.ScopeMovement, "VEN")
	require.NoError(t, err)
	assert.EqualValues(t, 42, next)
	require.Len(t, q.calls, 1)
	assert.Equal(t, incrementCounterSQL, q.calls[0].sql)
	assert.Equal(t, []any{"movement:VEN"}, q.calls[0].args)
}

func TestSequenceCounter_SiembraDesdeElMayorExistente(t *testing.T) {
	q := &scriptedQuerier{rows: []scriptedRow{
		{err: pgx.ErrNoRows},
		{val: int64(17)},
		{val: int64(18)},
	}}
	repo := NewSequenceRepository(q, SequenceCounter)

	next, err := repo.Next(context.Background(), inventory.ScopeBatch, "ING")
	require.NoError(t, err)
	assert.EqualValues(t, 18, next)

	require.Len(t, q.calls, 3)
	assert.Equal(t, seedQuery("batches", "batch_number"), q.calls[1].sql)
	assert.Equal(t, []any{"ING"}, q.calls[1].args)
	assert.Equal(t, initCounterSQL, q.calls[2].sql)
	assert.Equal(t, []any{"batch:ING", int64(17)}, q.calls[2].args)
}

func TestSequenceCounter_ErrorDelDriverSeEnvuelve(t *testing.T) {
	boom := &pgconn.PgError{Code: "57014"}
	q := &scriptedQuerier{rows: []scriptedRow{{err: boom}}}
	repo := NewSequenceRepository(q, SequenceCounter)

	_, err := repo.Next(context.Background(), inventory.ScopeMovement, "VEN")
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Len(t, q.calls, 1, "no siembra cuando el error no es ErrNoRows")
}

// ─────────────────────────────────────────────────────────────────────────────
// Modo legacy
// ─────────────────────────────────────────────────────────────────────────────

func TestSequenceLegacy_SumaUnoAlUltimo(t *testing.T) {
	q := &scriptedQuerier{rows: []scriptedRow{{val: "VEN-000009"}}}
	repo := NewSequenceRepository(q, SequenceLegacy)

	next, err := repo.Next(context.Background(), inventory.ScopeMovement, "VEN")
	require.NoError(t, err)
	assert.EqualValues(t, 10, next)
	require.Len(t, q.calls, 1)
	assert.Equal(t, legacyQuery("movements", "movement_number"), q.calls[0].sql)
	assert.Equal(t, []any{"VEN"}, q.calls[0].args)
}

func TestSequenceLegacy_SinFilasEmpiezaEnUno(t *testing.T) {
	q := &scriptedQuerier{rows: []scriptedRow{{err: pgx.ErrNoRows}}}
	repo := NewSequenceRepository(q, SequenceLegacy)

	next, err := repo.Next(context.Background(), inventory.ScopeBatch, "DEV")
	require.NoError(t, err)
	assert.EqualValues(t, 1, next)
}

func TestSequenceLegacy_NumeroMalFormado(t *testing.T) {
	q := &scriptedQuerier{rows: []scriptedRow{{val: "VEN-abc"}}}
	repo := NewSequenceRepository(q, SequenceLegacy)

	_, err := repo.Next(context.Background(), inventory.ScopeMovement, "VEN")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
