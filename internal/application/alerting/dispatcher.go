package alerting

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/Inventario-ledger/internal/domain/repository"
)

// Resultados de despacho.
const (
	DispatchSent    = "sent"
	DispatchRetried = "retried"
	DispatchDead    = "dead"
)

// Publisher entrega un evento ya confirmado a su ejecutor (cola asynq o en proceso).
type Publisher interface {
	Publish(ctx context.Context, ev *entity.OutboxEvent) error
}

// DispatchRecorder recibe el resultado de cada despacho (métricas).
type DispatchRecorder interface {
	ObserveDispatch(kind, result string)
}

type noopDispatchRecorder struct{}

func (noopDispatchRecorder) ObserveDispatch(string, string) {}

// DispatcherConfig parámetros del despachador del outbox.
type DispatcherConfig struct {
	PollInterval time.Duration
	BatchSize    int
	MaxAttempts  int
	StaleAfter   time.Duration // un evento processing más viejo que esto se reclama de nuevo
	BaseBackoff  time.Duration
	MaxBackoff   time.Duration
}

func (c DispatcherConfig) withDefaults() DispatcherConfig {
	if c.PollInterval <= 0 {
		c.PollInterval = 2 * time.Second
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 50
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 8
	}
	if c.StaleAfter <= 0 {
		c.StaleAfter = time.Minute
	}
	if c.BaseBackoff <= 0 {
		c.BaseBackoff = 5 * time.Second
	}
	if c.MaxBackoff <= 0 {
		c.MaxBackoff = 10 * time.Minute
	}
	return c
}

// Dispatcher drena el outbox después de cada commit (Wake) o por sondeo.
type Dispatcher struct {
	outbox    repository.OutboxRepository
	publisher Publisher
	cfg       DispatcherConfig
	log       zerolog.Logger
	recorder  DispatchRecorder
	now       func() time.Time
	wake      chan struct{}
}

// NewDispatcher construye el despachador. outbox debe operar fuera de transacción (pool).
func NewDispatcher(outbox repository.OutboxRepository, publisher Publisher, cfg DispatcherConfig, log zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		outbox:    outbox,
		publisher: publisher,
		cfg:       cfg.withDefaults(),
		log:       log.With().Str("component", "outbox").Logger(),
		recorder:  noopDispatchRecorder{},
		now:       time.Now,
		wake:      make(chan struct{}, 1),
	}
}

// WithRecorder asigna el receptor de métricas.
func (d *Dispatcher) WithRecorder(r DispatchRecorder) *Dispatcher {
	if r != nil {
		d.recorder = r
	}
	return d
}

// WithClock reemplaza el reloj (tests).
func (d *Dispatcher) WithClock(now func() time.Time) *Dispatcher {
	d.now = now
	return d
}

// Wake pide un ciclo de despacho inmediato. No bloquea.
func (d *Dispatcher) Wake() {
	select {
	case d.wake <- struct{}{}:
	default:
	}
}

// Run despacha hasta que ctx se cancele.
func (d *Dispatcher) Run(ctx context.Context) error {
	ticker := time.NewTicker(d.cfg.PollInterval)
	defer ticker.Stop()
	d.log.Info().Dur("poll_interval", d.cfg.PollInterval).Msg("despachador de outbox iniciado")
	for {
		if _, err := d.DispatchOnce(ctx); err != nil && ctx.Err() == nil {
			d.log.Error().Err(err).Msg("ciclo de despacho")
		}
		select {
		case <-ctx.Done():
			d.log.Info().Msg("despachador de outbox detenido")
			return nil
		case <-ticker.C:
		case <-d.wake:
		}
	}
}

// DispatchOnce reclama un lote de eventos y los publica. Retorna cuántos se enviaron.
func (d *Dispatcher) DispatchOnce(ctx context.Context) (int, error) {
	now := d.now()
	events, err := d.outbox.ClaimPending(ctx, now, now.Add(-d.cfg.StaleAfter), d.cfg.BatchSize)
	if err != nil {
		return 0, err
	}
	sent := 0
	for _, ev := range events {
		if err := d.publisher.Publish(ctx, ev); err != nil {
			if markErr := d.fail(ctx, ev, err); markErr != nil {
				return sent, markErr
			}
			continue
		}
		if err := d.outbox.MarkSent(ctx, ev.ID, d.now()); err != nil {
			return sent, err
		}
		d.recorder.ObserveDispatch(ev.Kind, DispatchSent)
		sent++
	}
	return sent, nil
}

func (d *Dispatcher) fail(ctx context.Context, ev *entity.OutboxEvent, cause error) error {
	dead := ev.Attempts >= d.cfg.MaxAttempts
	next := d.now().Add(Backoff(ev.Attempts, d.cfg.BaseBackoff, d.cfg.MaxBackoff))
	logEv := d.log.Warn()
	result := DispatchRetried
	if dead {
		logEv = d.log.Error()
		result = DispatchDead
	}
	logEv.Err(cause).Str("event_id", ev.ID).Str("kind", ev.Kind).Int("attempts", ev.Attempts).Bool("dead", dead).
		Msg("publicar evento")
	d.recorder.ObserveDispatch(ev.Kind, result)
	return d.outbox.MarkFailed(ctx, ev.ID, cause.Error(), next, dead)
}

// Backoff exponencial: base * 2^(attempt-1), con tope max.
func Backoff(attempt int, base, max time.Duration) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	delay := base
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= max {
			return max
		}
	}
	if delay > max {
		return max
	}
	return delay
}
