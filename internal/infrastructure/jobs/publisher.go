package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/jhoicas/Inventario-ledger/internal/application/alerting"
	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
)

var (
	_ alerting.Publisher = (*AsynqPublisher)(nil)
	_ alerting.Publisher = (*InlinePublisher)(nil)
)

// Enqueuer es la parte de *asynq.Client que usa el publicador.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// AsynqPublisher encola los eventos del outbox en Redis para cmd/worker.
type AsynqPublisher struct {
	client      Enqueuer
	rescanDelay time.Duration
}

// NewAsynqPublisher construye el publicador. rescanDelay agrupa recálculos de cartera cercanos.
func NewAsynqPublisher(client Enqueuer, rescanDelay time.Duration) *AsynqPublisher {
	return &AsynqPublisher{client: client, rescanDelay: rescanDelay}
}

// Publish encola la tarea. Un TaskID repetido significa que ya se encoló antes.
func (p *AsynqPublisher) Publish(ctx context.Context, ev *entity.OutboxEvent) error {
	task, err := NewTask(ev)
	if err != nil {
		return err
	}
	var opts []asynq.Option
	if ev.Kind == entity.EventCreditRescan && p.rescanDelay > 0 {
		opts = append(opts, asynq.ProcessIn(p.rescanDelay))
	}
	if _, err := p.client.EnqueueContext(ctx, task, opts...); err != nil {
		if errors.Is(err, asynq.ErrTaskIDConflict) {
			return nil
		}
		return fmt.Errorf("enqueue %s: %w", task.Type(), err)
	}
	return nil
}

// HandleFunc ejecuta un evento en proceso (alerting.Service.Handle).
type HandleFunc func(ctx context.Context, ev *entity.OutboxEvent) error

// InlinePublisher ejecuta los eventos en el mismo proceso (ALERTS_MODE=inline, sin Redis).
// El recálculo de cartera se difiere rescanDelay; sus errores solo se registran.
type InlinePublisher struct {
	handle      HandleFunc
	rescanDelay time.Duration
	timeout     time.Duration
	log         zerolog.Logger
}

// NewInlinePublisher construye el publicador en proceso.
func NewInlinePublisher(handle HandleFunc, rescanDelay time.Duration, log zerolog.Logger) *InlinePublisher {
	return &InlinePublisher{handle: handle, rescanDelay: rescanDelay, timeout: 30 * time.Second, log: log}
}

// Publish ejecuta el evento; los errores síncronos vuelven al despachador para reintento.
func (p *InlinePublisher) Publish(ctx context.Context, ev *entity.OutboxEvent) error {
	if ev.Kind == entity.EventCreditRescan && p.rescanDelay > 0 {
		copied := *ev
		time.AfterFunc(p.rescanDelay, func() {
			runCtx, cancel := context.WithTimeout(context.Background(), p.timeout)
			defer cancel()
			if err := p.handle(runCtx, &copied); err != nil {
				p.log.Warn().Err(err).Str("event_id", copied.ID).Str("kind", copied.Kind).Msg("evento diferido")
			}
		})
		return nil
	}
	return p.handle(ctx, ev)
}
