package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/jhoicas/Inventario-ledger/internal/application/alerting"
)

var _ alerting.Guard = (*RedisGuard)(nil)

const keyPrefix = "inventario-ledger:lock:"

// RedisGuard lock distribuido sobre Redis (bsm/redislock).
type RedisGuard struct {
	locker *redislock.Client
	log    zerolog.Logger
}

// NewRedisGuard construye el guard sobre un cliente go-redis.
func NewRedisGuard(client redis.UniversalClient, log zerolog.Logger) *RedisGuard {
	return &RedisGuard{locker: redislock.New(client), log: log}
}

// TryAcquire intenta tomar el lock sin esperar. ok=false si lo tiene otro proceso.
func (g *RedisGuard) TryAcquire(ctx context.Context, key string, ttl time.Duration) (func(), bool, error) {
	l, err := g.locker.Obtain(ctx, keyPrefix+key, ttl, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("obtain lock %s: %w", key, err)
	}
	release := func() {
		err := l.Release(context.Background())
		switch {
		case err == nil:
		case errors.Is(err, redislock.ErrLockNotHeld):
			g.log.Warn().Str("lock_key", key).Dur("ttl", ttl).Msg("el lock expiró antes de liberarlo")
		default:
			g.log.Error().Err(err).Str("lock_key", key).Msg("liberar lock")
		}
	}
	return release, true, nil
}
