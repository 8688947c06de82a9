package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/Inventario-ledger/internal/domain"
	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/Inventario-ledger/internal/domain/repository"
)

var _ repository.OutboxRepository = (*OutboxRepo)(nil)

// OutboxRepo eventos post-commit en ledger_outbox.
type OutboxRepo struct {
	q Querier
}

// NewOutboxRepository construye el adaptador. Pasar pool o tx (Querier).
func NewOutboxRepository(q Querier) *OutboxRepo {
	return &OutboxRepo{q: q}
}

// Enqueue inserta el evento en estado pending.
func (r *OutboxRepo) Enqueue(ctx context.Context, ev *entity.OutboxEvent) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO ledger_outbox (id, kind, company_id, payload, status, attempts, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		ev.ID, ev.Kind, ev.CompanyID, []byte(ev.Payload), ev.Status, ev.Attempts, ev.CreatedAt)
	if err != nil {
		return fmt.Errorf("enqueue outbox: %w", err)
	}
	return nil
}

// ClaimPending toma eventos listos con SKIP LOCKED para que varios despachadores no se pisen.
func (r *OutboxRepo) ClaimPending(ctx context.Context, now, staleBefore time.Time, limit int) ([]*entity.OutboxEvent, error) {
	rows, err := r.q.Query(ctx, `
		UPDATE ledger_outbox SET status = 'processing', locked_at = $1, attempts = attempts + 1
		WHERE id IN (
			SELECT id FROM ledger_outbox
			WHERE (status = 'pending' AND (next_attempt_at IS NULL OR next_attempt_at <= $1))
			   OR (status = 'processing' AND locked_at < $2)
			ORDER BY created_at
			LIMIT $3
			FOR UPDATE SKIP LOCKED
		)
		RETURNING id::text, kind, company_id::text, payload, status, attempts, next_attempt_at,
			COALESCE(last_error, ''), locked_at, created_at, dispatched_at`,
		now, staleBefore, limit)
	if err != nil {
		return nil, fmt.Errorf("claim outbox: %w", err)
	}
	defer rows.Close()

	var list []*entity.OutboxEvent
	for rows.Next() {
		var ev entity.OutboxEvent
		var payload []byte
		if err := rows.Scan(&ev.ID, &ev.Kind, &ev.CompanyID, &payload, &ev.Status, &ev.Attempts, &ev.NextAttemptAt,
			&ev.LastError, &ev.LockedAt, &ev.CreatedAt, &ev.DispatchedAt); err != nil {
			return nil, fmt.Errorf("scan outbox: %w", err)
		}
		ev.Payload = payload
		list = append(list, &ev)
	}
	return list, rows.Err()
}

// MarkSent cierra el evento.
func (r *OutboxRepo) MarkSent(ctx context.Context, id string, at time.Time) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE ledger_outbox SET status = 'sent', dispatched_at = $2, locked_at = NULL, last_error = NULL
		WHERE id = $1`, id, at)
	if err != nil {
		return fmt.Errorf("mark outbox sent: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFound("evento", id)
	}
	return nil
}

// MarkFailed reprograma el evento o lo deja dead.
func (r *OutboxRepo) MarkFailed(ctx context.Context, id, lastError string, nextAttempt time.Time, dead bool) error {
	status := entity.OutboxPending
	next := &nextAttempt
	if dead {
		status = entity.OutboxDead
		next = nil
	}
	tag, err := r.q.Exec(ctx, `
		UPDATE ledger_outbox SET status = $2, last_error = $3, next_attempt_at = $4, locked_at = NULL
		WHERE id = $1`, id, status, lastError, next)
	if err != nil {
		return fmt.Errorf("mark outbox failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFound("evento", id)
	}
	return nil
}
