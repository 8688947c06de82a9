package repository

import (
	"context"

	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
)

// BatchRepository define el puerto de persistencia de lotes FIFO.
type BatchRepository interface {
	Create(ctx context.Context, batch *entity.Batch) error
	GetByID(ctx context.Context, id string) (*entity.Batch, error)
	// ListAvailable retorna lotes con saldo, del más antiguo al más reciente.
	ListAvailable(ctx context.Context, productID, warehouseID string) ([]*entity.Batch, error)
	UpdateRemaining(ctx context.Context, id string, remaining int64) error
	Delete(ctx context.Context, id string) error
}
