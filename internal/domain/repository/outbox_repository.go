package repository

import (
	"context"
	"time"

	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
)

// OutboxRepository persiste eventos post-commit.
type OutboxRepository interface {
	Enqueue(ctx context.Context, ev *entity.OutboxEvent) error
	// ClaimPending marca como processing hasta limit eventos listos e incrementa sus intentos.
	// Eventos processing más viejos que staleBefore se reclaman de nuevo.
	ClaimPending(ctx context.Context, now, staleBefore time.Time, limit int) ([]*entity.OutboxEvent, error)
	MarkSent(ctx context.Context, id string, at time.Time) error
	// MarkFailed reprograma el evento para nextAttempt, o lo deja dead si dead es true.
	MarkFailed(ctx context.Context, id, lastError string, nextAttempt time.Time, dead bool) error
}
