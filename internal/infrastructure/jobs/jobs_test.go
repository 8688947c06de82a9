package jobs_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Inventario-ledger/internal/application/alerting"
	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/Inventario-ledger/internal/infrastructure/jobs"
	"github.com/jhoicas/Inventario-ledger/internal/infrastructure/memory"
)

type fakeEnqueuer struct {
	tasks []*asynq.Task
	opts  [][]asynq.Option
	err   error
}

func (f *fakeEnqueuer) EnqueueContext(_ context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.tasks = append(f.tasks, task)
	f.opts = append(f.opts, opts)
	return &asynq.TaskInfo{ID: "x", Type: task.Type()}, nil
}

func event(t *testing.T, kind string, payload any) *entity.OutboxEvent {
	t.Helper()
	ev, err := entity.NewOutboxEvent(kind, "c1", payload, time.Now())
	require.NoError(t, err)
	return ev
}

func processIn(opts []asynq.Option) (time.Duration, bool) {
	for _, o := range opts {
		if o.Type() == asynq.ProcessInOpt {
			d, ok := o.Value().(time.Duration)
			return d, ok
		}
	}
	return 0, false
}

// ─────────────────────────────────────────────────────────────────────────────
// Tareas y publicador asynq
// ─────────────────────────────────────────────────────────────────────────────

func TestTaskType(t *testing.T) {
	typ, err := jobs.TaskType(entity.EventLowStockCheck)
	require.NoError(t, err)
	assert.Equal(t, jobs.TaskLowStockCheck, typ)

	typ, err = jobs.TaskType(entity.EventCreditRescan)
	require.NoError(t, err)
	assert.Equal(t, jobs.TaskCreditRescan, typ)

	_, err = jobs.TaskType("otro")
	assert.Error(t, err)
}

func TestAsynqPublisher_LowStockSinDemora(t *testing.T) {
	enq := &fakeEnqueuer{}
	ev := event(t, entity.EventLowStockCheck, entity.LowStockCheckPayload{CompanyID: "c1", ProductID: "p1", WarehouseID: "w1"})

	require.NoError(t, jobs.NewAsynqPublisher(enq, 5*time.Second).Publish(context.Background(), ev))
	require.Len(t, enq.tasks, 1)
	assert.Equal(t, jobs.TaskLowStockCheck, enq.tasks[0].Type())
	assert.JSONEq(t, string(ev.Payload), string(enq.tasks[0].Payload()))
	_, delayed := processIn(enq.opts[0])
	assert.False(t, delayed)
}

func TestAsynqPublisher_RescanConDemora(t *testing.T) {
	enq := &fakeEnqueuer{}
	ev := event(t, entity.EventCreditRescan, entity.CreditRescanPayload{CompanyID: "c1"})

	require.NoError(t, jobs.NewAsynqPublisher(enq, 5*time.Second).Publish(context.Background(), ev))
	d, ok := processIn(enq.opts[0])
	require.True(t, ok)
	assert.Equal(t, 5*time.Second, d)
}

func TestAsynqPublisher_TaskIDRepetido_NoEsError(t *testing.T) {
	enq := &fakeEnqueuer{err: asynq.ErrTaskIDConflict}
	ev := event(t, entity.EventLowStockCheck, entity.LowStockCheckPayload{})
	assert.NoError(t, jobs.NewAsynqPublisher(enq, 0).Publish(context.Background(), ev))
}

func TestAsynqPublisher_FallaRedis(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	enq := &fakeEnqueuer{err: cause}
	ev := event(t, entity.EventLowStockCheck, entity.LowStockCheckPayload{})
	err := jobs.NewAsynqPublisher(enq, 0).Publish(context.Background(), ev)
	assert.ErrorIs(t, err, cause)
}

// ─────────────────────────────────────────────────────────────────────────────
// Publicador en proceso
// ─────────────────────────────────────────────────────────────────────────────

func TestInlinePublisher_EjecutaSincrono(t *testing.T) {
	var calls int32
	pub := jobs.NewInlinePublisher(func(context.Context, *entity.OutboxEvent) error {
		atomic.AddInt32(&calls, 1)
		return errors.New("falló")
	}, time.Hour, zerolog.Nop())

	err := pub.Publish(context.Background(), event(t, entity.EventLowStockCheck, entity.LowStockCheckPayload{}))
	assert.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestInlinePublisher_DifiereRescan(t *testing.T) {
	var calls int32
	pub := jobs.NewInlinePublisher(func(context.Context, *entity.OutboxEvent) error {
		atomic.AddInt32(&calls, 1)
		return nil
	}, 20*time.Millisecond, zerolog.Nop())

	require.NoError(t, pub.Publish(context.Background(), event(t, entity.EventCreditRescan, entity.CreditRescanPayload{})))
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
	assert.Eventually(t, func() bool { return atomic.LoadInt32(&calls) == 1 }, 2*time.Second, 5*time.Millisecond)
}

// ─────────────────────────────────────────────────────────────────────────────
// Handlers
// ─────────────────────────────────────────────────────────────────────────────

type recordingNotifier struct{ lowStock int }

func (n *recordingNotifier) NotifyLowStock(context.Context, alerting.LowStockEvent) error {
	n.lowStock++
	return nil
}

func (n *recordingNotifier) NotifyCreditsDue(context.Context, []alerting.CreditDueEvent) error {
	return nil
}

type noCredits struct{}

func (noCredits) ListDueCredits(context.Context, string, time.Time) ([]entity.Credit, error) {
	return nil, nil
}

func TestHandlers(t *testing.T) {
	store := memory.NewStore()
	store.AddProduct(entity.Product{ID: "p1", CompanyID: "c1", Name: "Té", MinStockThreshold: 5})
	n := &recordingNotifier{}
	svc := alerting.NewService(store.Products(), store.Stock(), noCredits{}, n, zerolog.Nop())
	h := jobs.NewHandlers(svc)

	t.Run("payload ilegible no se reintenta", func(t *testing.T) {
		err := h.HandleLowStockCheck(context.Background(), asynq.NewTask(jobs.TaskLowStockCheck, []byte("{")))
		assert.ErrorIs(t, err, asynq.SkipRetry)
		err = h.HandleCreditRescan(context.Background(), asynq.NewTask(jobs.TaskCreditRescan, []byte("no-json")))
		assert.ErrorIs(t, err, asynq.SkipRetry)
	})

	t.Run("stock bajo notifica", func(t *testing.T) {
		task := asynq.NewTask(jobs.TaskLowStockCheck, []byte(`{"company_id":"c1","product_id":"p1","warehouse_id":"w1"}`))
		require.NoError(t, h.HandleLowStockCheck(context.Background(), task))
		assert.Equal(t, 1, n.lowStock)
	})

	t.Run("registro de handlers", func(t *testing.T) {
		handlers := h.TaskHandlers()
		require.Len(t, handlers, 2)
		assert.Equal(t, jobs.TaskLowStockCheck, handlers[0].Type)
		assert.Equal(t, jobs.TaskCreditRescan, handlers[1].Type)
	})
}
