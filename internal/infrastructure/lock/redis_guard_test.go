package lock_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Inventario-ledger/internal/infrastructure/lock"
)

func newGuard(t *testing.T) (*lock.RedisGuard, *miniredis.Miniredis) {
	t.Helper()
	guard, mr, _ := newGuardWithLog(t)
	return guard, mr
}

func newGuardWithLog(t *testing.T) (*lock.RedisGuard, *miniredis.Miniredis, *bytes.Buffer) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	var buf bytes.Buffer
	return lock.NewRedisGuard(client, zerolog.New(&buf)), mr, &buf
}

func TestRedisGuard_Exclusivo(t *testing.T) {
	guard, _ := newGuard(t)
	ctx := context.Background()

	release, ok, err := guard.TryAcquire(ctx, "credit_rescan:c1", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = guard.TryAcquire(ctx, "credit_rescan:c1", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "el segundo intento no debe obtener el lock")

	// Otra empresa no comparte el lock.
	releaseOther, ok, err := guard.TryAcquire(ctx, "credit_rescan:c2", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
	releaseOther()

	release()
	release2, ok, err := guard.TryAcquire(ctx, "credit_rescan:c1", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok, "tras liberar se puede tomar de nuevo")
	release2()
}

func TestRedisGuard_ExpiraPorTTL(t *testing.T) {
	guard, mr := newGuard(t)
	ctx := context.Background()

	_, ok, err := guard.TryAcquire(ctx, "credit_rescan:c1", time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	mr.FastForward(2 * time.Second)
	release, ok, err := guard.TryAcquire(ctx, "credit_rescan:c1", time.Second)
	require.NoError(t, err)
	assert.True(t, ok)
	release()
}

func TestRedisGuard_RedisCaido(t *testing.T) {
	guard, mr := newGuard(t)
	mr.Close()
	_, ok, err := guard.TryAcquire(context.Background(), "credit_rescan:c1", time.Second)
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestRedisGuard_LiberarLockExpirado_SeRegistra(t *testing.T) {
	guard, mr, logs := newGuardWithLog(t)
	ctx := context.Background()

	release, ok, err := guard.TryAcquire(ctx, "credit_rescan:c1", time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	mr.FastForward(2 * time.Second)
	release()
	assert.Contains(t, logs.String(), "el lock expiró antes de liberarlo")
	assert.Contains(t, logs.String(), `"lock_key":"credit_rescan:c1"`)
}

func TestRedisGuard_LiberarConRedisCaido_SeRegistraError(t *testing.T) {
	guard, mr, logs := newGuardWithLog(t)

	release, ok, err := guard.TryAcquire(context.Background(), "credit_rescan:c1", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	mr.Close()
	release()
	assert.Contains(t, logs.String(), `"level":"error"`)
	assert.Contains(t, logs.String(), "liberar lock")
}

func TestRedisGuard_LiberacionNormal_SinLogs(t *testing.T) {
	guard, _, logs := newGuardWithLog(t)

	release, ok, err := guard.TryAcquire(context.Background(), "credit_rescan:c1", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)
	release()
	assert.Empty(t, logs.String())
}
