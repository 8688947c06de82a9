package inventory

import (
	"context"
	"time"

	"github.com/jhoicas/Inventario-ledger/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando repositorios atados a esa tx.
// Si fn retorna error la transacción se revierte completa.
type TxRunner interface {
	Run(ctx context.Context, fn func(ctx context.Context, repos repository.TxRepos) error) error
}

// Recorder recibe el resultado de cada operación del ledger (métricas).
type Recorder interface {
	ObserveOperation(operation string, err error, elapsed time.Duration)
}

// Actor identifica quién ejecuta la operación; viene del JWT.
type Actor struct {
	CompanyID string
	UserID    string
}

type noopRecorder struct{}

func (noopRecorder) ObserveOperation(string, error, time.Duration) {}
