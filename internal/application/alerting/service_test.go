package alerting_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Inventario-ledger/internal/application/alerting"
	"github.com/jhoicas/Inventario-ledger/internal/domain"
	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/Inventario-ledger/internal/infrastructure/memory"
)

// ─────────────────────────────────────────────────────────────────────────────
// Dobles de prueba
// ─────────────────────────────────────────────────────────────────────────────

type fakeNotifier struct {
	lowStock []alerting.LowStockEvent
	credits  [][]alerting.CreditDueEvent
	err      error
}

func (f *fakeNotifier) NotifyLowStock(_ context.Context, ev alerting.LowStockEvent) error {
	if f.err != nil {
		return f.err
	}
	f.lowStock = append(f.lowStock, ev)
	return nil
}

func (f *fakeNotifier) NotifyCreditsDue(_ context.Context, events []alerting.CreditDueEvent) error {
	if f.err != nil {
		return f.err
	}
	f.credits = append(f.credits, events)
	return nil
}

type fakeLister struct {
	credits []entity.Credit
	calls   int
}

func (f *fakeLister) ListDueCredits(_ context.Context, _ string, _ time.Time) ([]entity.Credit, error) {
	f.calls++
	return f.credits, nil
}

type fakeGuard struct {
	held     bool
	released int
}

func (g *fakeGuard) TryAcquire(_ context.Context, _ string, _ time.Duration) (func(), bool, error) {
	if g.held {
		return nil, false, nil
	}
	return func() { g.released++ }, true, nil
}

type countingRecorder struct{ results map[string]int }

func (r *countingRecorder) ObserveAlert(kind, result string) { r.results[kind+"/"+result]++ }

func newStore(t *testing.T, threshold, qty int64) *memory.Store {
	t.Helper()
	store := memory.NewStore()
	store.AddProduct(entity.Product{ID: "p1", CompanyID: "c1", Name: "Café", MinStockThreshold: threshold})
	store.AddWarehouse(entity.Warehouse{ID: "w1", CompanyID: "c1", Name: "Principal"})
	require.NoError(t, store.Stock().Upsert(context.Background(), &entity.Stock{ProductID: "p1", WarehouseID: "w1", Quantity: qty}))
	return store
}

func newService(store *memory.Store, n alerting.Notifier, l alerting.CreditLister) *alerting.Service {
	return alerting.NewService(store.Products(), store.Stock(), l, n, zerolog.Nop())
}

var lowStockPayload = entity.LowStockCheckPayload{CompanyID: "c1", ProductID: "p1", WarehouseID: "w1"}

// ─────────────────────────────────────────────────────────────────────────────
// Stock bajo
// ─────────────────────────────────────────────────────────────────────────────

func TestCheckLowStock_BajoUmbral_Notifica(t *testing.T) {
	store := newStore(t, 10, 4)
	n := &fakeNotifier{}
	rec := &countingRecorder{results: map[string]int{}}
	svc := newService(store, n, &fakeLister{}).WithRecorder(rec)

	result, err := svc.CheckLowStock(context.Background(), lowStockPayload)
	require.NoError(t, err)
	assert.Equal(t, alerting.ResultNotified, result)
	require.Len(t, n.lowStock, 1)
	assert.Equal(t, alerting.LowStockEvent{
		CompanyID: "c1", ProductID: "p1", ProductName: "Café", WarehouseID: "w1", CurrentStock: 4, Threshold: 10,
	}, n.lowStock[0])
	assert.Equal(t, 1, rec.results["low_stock_check/notified"])
}

func TestCheckLowStock_EnUmbral_NoNotifica(t *testing.T) {
	store := newStore(t, 10, 10)
	n := &fakeNotifier{}
	result, err := newService(store, n, &fakeLister{}).CheckLowStock(context.Background(), lowStockPayload)
	require.NoError(t, err)
	assert.Equal(t, alerting.ResultSkipped, result)
	assert.Empty(t, n.lowStock)
}

func TestCheckLowStock_SinUmbral_NoNotifica(t *testing.T) {
	store := newStore(t, 0, 0)
	n := &fakeNotifier{}
	result, err := newService(store, n, &fakeLister{}).CheckLowStock(context.Background(), lowStockPayload)
	require.NoError(t, err)
	assert.Equal(t, alerting.ResultSkipped, result)
}

func TestCheckLowStock_ProductoInexistente_NoNotifica(t *testing.T) {
	store := newStore(t, 10, 0)
	n := &fakeNotifier{}
	p := lowStockPayload
	p.ProductID = "otro"
	result, err := newService(store, n, &fakeLister{}).CheckLowStock(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, alerting.ResultSkipped, result)
	assert.Empty(t, n.lowStock)
}

func TestCheckLowStock_FallaNotifier_RetornaError(t *testing.T) {
	store := newStore(t, 10, 1)
	n := &fakeNotifier{err: errors.New("smtp caído")}
	result, err := newService(store, n, &fakeLister{}).CheckLowStock(context.Background(), lowStockPayload)
	require.Error(t, err)
	assert.Equal(t, alerting.ResultFailed, result)
}

// ─────────────────────────────────────────────────────────────────────────────
// Cartera
// ─────────────────────────────────────────────────────────────────────────────

func dueCredits() []entity.Credit {
	due := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	return []entity.Credit{
		{MovementID: "m1", MovementNumber: "VEN-000001", CompanyID: "c1", Amount: decimal.NewFromInt(100),
			DueDate: due, Status: entity.CreditOverdue, DaysOverdue: 2},
		{MovementID: "m2", MovementNumber: "VEN-000002", CompanyID: "c1", Amount: decimal.NewFromInt(50),
			DueDate: due.AddDate(0, 0, 4), Status: entity.CreditPending, DaysUntilDue: 2},
	}
}

func TestRescanCredits_NotificaEnUnLote(t *testing.T) {
	store := newStore(t, 0, 0)
	n := &fakeNotifier{}
	guard := &fakeGuard{}
	svc := newService(store, n, &fakeLister{credits: dueCredits()}).WithGuard(guard)

	result, err := svc.RescanCredits(context.Background(), entity.CreditRescanPayload{CompanyID: "c1"})
	require.NoError(t, err)
	assert.Equal(t, alerting.ResultNotified, result)
	require.Len(t, n.credits, 1)
	require.Len(t, n.credits[0], 2)
	assert.Equal(t, "VEN-000001", n.credits[0][0].MovementNumber)
	assert.Equal(t, entity.CreditOverdue, n.credits[0][0].Status)
	assert.Equal(t, 2, n.credits[0][1].DaysUntilDue)
	assert.Equal(t, 1, guard.released)
}

func TestRescanCredits_LockTomado_NoHaceNada(t *testing.T) {
	store := newStore(t, 0, 0)
	n := &fakeNotifier{}
	lister := &fakeLister{credits: dueCredits()}
	svc := newService(store, n, lister).WithGuard(&fakeGuard{held: true})

	result, err := svc.RescanCredits(context.Background(), entity.CreditRescanPayload{CompanyID: "c1"})
	require.NoError(t, err)
	assert.Equal(t, alerting.ResultSkipped, result)
	assert.Zero(t, lister.calls)
	assert.Empty(t, n.credits)
}

func TestRescanCredits_SinCreditos_NoNotifica(t *testing.T) {
	store := newStore(t, 0, 0)
	n := &fakeNotifier{}
	result, err := newService(store, n, &fakeLister{}).RescanCredits(context.Background(), entity.CreditRescanPayload{CompanyID: "c1"})
	require.NoError(t, err)
	assert.Equal(t, alerting.ResultSkipped, result)
	assert.Empty(t, n.credits)
}

// ─────────────────────────────────────────────────────────────────────────────
// Handle
// ─────────────────────────────────────────────────────────────────────────────

func TestHandle_EventoLowStock(t *testing.T) {
	store := newStore(t, 10, 3)
	n := &fakeNotifier{}
	ev, err := entity.NewOutboxEvent(entity.EventLowStockCheck, "c1", lowStockPayload, time.Now())
	require.NoError(t, err)

	require.NoError(t, newService(store, n, &fakeLister{}).Handle(context.Background(), ev))
	assert.Len(t, n.lowStock, 1)
}

func TestHandle_TipoDesconocido(t *testing.T) {
	store := newStore(t, 0, 0)
	err := newService(store, &fakeNotifier{}, &fakeLister{}).
		Handle(context.Background(), &entity.OutboxEvent{Kind: "otro", Payload: []byte(`{}`)})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestHandle_PayloadIlegible(t *testing.T) {
	store := newStore(t, 0, 0)
	err := newService(store, &fakeNotifier{}, &fakeLister{}).
		Handle(context.Background(), &entity.OutboxEvent{Kind: entity.EventCreditRescan, Payload: []byte(`{`)})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
