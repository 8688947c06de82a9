package metrics_test

import (
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Inventario-ledger/internal/domain"
	"github.com/jhoicas/Inventario-ledger/internal/infrastructure/metrics"
)

func TestOutcome(t *testing.T) {
	assert.Equal(t, metrics.OutcomeOK, metrics.Outcome(nil))
	assert.Equal(t, metrics.OutcomeRejected, metrics.Outcome(domain.Invalid("quantity", "debe ser mayor a 0")))
	assert.Equal(t, metrics.OutcomeRejected, metrics.Outcome(&domain.InsufficientStockError{Requested: 5, Available: 1}))
	assert.Equal(t, metrics.OutcomeIntegrity, metrics.Outcome(fmt.Errorf("sale: %w", domain.ErrNoApplicableLots)))
	assert.Equal(t, metrics.OutcomeRetryable, metrics.Outcome(domain.ErrSequenceRace))
	assert.Equal(t, metrics.OutcomeError, metrics.Outcome(errors.New("conexión perdida")))
}

func TestObserveOperation(t *testing.T) {
	m := metrics.New("test")
	m.ObserveOperation("record_sale", nil, 10*time.Millisecond)
	m.ObserveOperation("record_sale", nil, 10*time.Millisecond)
	m.ObserveOperation("record_sale", domain.ErrNoApplicableLots, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.LedgerOperations.WithLabelValues("record_sale", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LedgerOperations.WithLabelValues("record_sale", "integrity")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.IntegrityFaults))
}

func TestObserveDispatchYAlert(t *testing.T) {
	m := metrics.New("test")
	m.ObserveDispatch("low_stock_check", "sent")
	m.ObserveAlert("credit_rescan", "skipped")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.OutboxDispatched.WithLabelValues("low_stock_check", "sent")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AlertsProcessed.WithLabelValues("credit_rescan", "skipped")))
}

func TestHandler_ExponeMetricas(t *testing.T) {
	m := metrics.New("test")
	m.ObserveOperation("record_purchase", nil, time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `test_operations_total{operation="record_purchase",outcome="ok"} 1`)
}
