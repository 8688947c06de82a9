package repository

import (
	"context"
	"time"

	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
)

// MovementRepository define el puerto de persistencia del ledger de movimientos.
type MovementRepository interface {
	// Create falla con domain.ErrSequenceRace si el número ya existe.
	Create(ctx context.Context, m *entity.Movement) error
	GetByID(ctx context.Context, id string) (*entity.Movement, error)
	GetForUpdate(ctx context.Context, id string) (*entity.Movement, error)
	Update(ctx context.Context, m *entity.Movement) error
	Delete(ctx context.Context, id string) error

	ReplaceConsumptions(ctx context.Context, movementID string, consumptions []entity.BatchConsumption) error
	ListConsumptions(ctx context.Context, movementID string) ([]entity.BatchConsumption, error)

	// SumReturned suma las cantidades ya devueltas de una venta.
	SumReturned(ctx context.Context, saleID string) (int64, error)
	// ListOpenCredits retorna créditos sin pagar con vencimiento <= dueBefore, ordenados por vencimiento.
	ListOpenCredits(ctx context.Context, companyID string, dueBefore time.Time) ([]*entity.Movement, error)
}
