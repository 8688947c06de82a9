package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jhoicas/Inventario-ledger/internal/application/alerting"
	"github.com/jhoicas/Inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/Inventario-ledger/internal/domain"
)

var (
	_ inventory.Recorder        = (*Metrics)(nil)
	_ alerting.Recorder         = (*Metrics)(nil)
	_ alerting.DispatchRecorder = (*Metrics)(nil)
)

// Resultado de una operación del ledger.
const (
	OutcomeOK        = "ok"
	OutcomeRejected  = "rejected"
	OutcomeRetryable = "retryable"
	OutcomeIntegrity = "integrity"
	OutcomeError     = "error"
)

// Metrics métricas Prometheus del ledger, el outbox y las alertas.
type Metrics struct {
	registry *prometheus.Registry

	LedgerOperations *prometheus.CounterVec
	LedgerDuration   *prometheus.HistogramVec
	IntegrityFaults  prometheus.Counter
	OutboxDispatched *prometheus.CounterVec
	AlertsProcessed  *prometheus.CounterVec
}

// New registra las métricas en un registry propio bajo namespace.
func New(namespace string) *Metrics {
	if namespace == "" {
		namespace = "ledger"
	}
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{registry: registry}
	m.LedgerOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Operaciones del ledger por resultado",
		},
		[]string{"operation", "outcome"},
	)
	m.LedgerDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_duration_seconds",
			Help:      "Duración de las operaciones del ledger (incluye reintentos)",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"operation"},
	)
	m.IntegrityFaults = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "integrity_faults_total",
		Help:      "Ventas donde los lotes no cubrieron el stock registrado",
	})
	m.OutboxDispatched = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outbox_dispatched_total",
			Help:      "Eventos del outbox despachados por resultado",
		},
		[]string{"kind", "result"},
	)
	m.AlertsProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_processed_total",
			Help:      "Revisiones de alertas por resultado",
		},
		[]string{"kind", "result"},
	)
	registry.MustRegister(m.LedgerOperations, m.LedgerDuration, m.IntegrityFaults, m.OutboxDispatched, m.AlertsProcessed)
	return m
}

// Outcome clasifica el error de una operación.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, domain.ErrNoApplicableLots):
		return OutcomeIntegrity
	case errors.Is(err, domain.ErrSequenceRace):
		return OutcomeRetryable
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrInsufficientStock), errors.Is(err, domain.ErrConflict),
		errors.Is(err, domain.ErrForbidden):
		return OutcomeRejected
	}
	return OutcomeError
}

// ObserveOperation implementa inventory.Recorder.
func (m *Metrics) ObserveOperation(operation string, err error, elapsed time.Duration) {
	outcome := Outcome(err)
	m.LedgerOperations.WithLabelValues(operation, outcome).Inc()
	m.LedgerDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
	if outcome == OutcomeIntegrity {
		m.IntegrityFaults.Inc()
	}
}

// ObserveDispatch implementa alerting.DispatchRecorder.
func (m *Metrics) ObserveDispatch(kind, result string) {
	m.OutboxDispatched.WithLabelValues(kind, result).Inc()
}

// ObserveAlert implementa alerting.Recorder.
func (m *Metrics) ObserveAlert(kind, result string) {
	m.AlertsProcessed.WithLabelValues(kind, result).Inc()
}

// Handler expone /metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
