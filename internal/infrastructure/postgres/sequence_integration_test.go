//go:build integration

package postgres

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Inventario-ledger/internal/domain/inventory"
	"github.com/jhoicas/Inventario-ledger/pkg/config"
)

// Requiere LEDGER_TEST_DATABASE_URL: go test -tags integration ./internal/infrastructure/postgres/...
func TestSequenceRepo_Integracion(t *testing.T) {
	url := os.Getenv("LEDGER_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("LEDGER_TEST_DATABASE_URL no definido")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := NewPool(ctx, config.DBConfig{DatabaseURL: url, MaxConns: 4})
	require.NoError(t, err)
	defer pool.Close()
	require.NoError(t, Migrate(ctx, pool))

	prefix := fmt.Sprintf("T%d", time.Now().UnixNano()%1_000_000_000)

	t.Run("contador", func(t *testing.T) {
		repo := NewSequenceRepository(pool, SequenceCounter)
		first, err := repo.Next(ctx, inventory.ScopeMovement, prefix)
		require.NoError(t, err)
		assert.EqualValues(t, 1, first)

		second, err := repo.Next(ctx, inventory.ScopeMovement, prefix)
		require.NoError(t, err)
		assert.EqualValues(t, 2, second)

		other, err := repo.Next(ctx, inventory.ScopeBatch, prefix)
		require.NoError(t, err)
		assert.EqualValues(t, 1, other, "cada ámbito tiene su contador")
	})

	t.Run("legacy sin filas", func(t *testing.T) {
		repo := NewSequenceRepository(pool, SequenceLegacy)
		next, err := repo.Next(ctx, inventory.ScopeMovement, prefix+"L")
		require.NoError(t, err)
		assert.EqualValues(t, 1, next)
	})
}
