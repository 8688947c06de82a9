package alerting

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
)

// LowStockEvent se emite cuando el stock de una fila queda por debajo del umbral del producto.
type LowStockEvent struct {
	CompanyID    string
	ProductID    string
	ProductName  string
	WarehouseID  string
	CurrentStock int64
	Threshold    int64
}

// CreditDueEvent un crédito vencido o próximo a vencer.
type CreditDueEvent struct {
	CompanyID      string
	MovementID     string
	MovementNumber string
	CustomerID     string
	Amount         decimal.Decimal
	DueDate        time.Time
	Status         entity.CreditStatus
	DaysOverdue    int
	DaysUntilDue   int
}

// Notifier entrega alertas (correo, log, webhook). Errores no afectan el ledger.
type Notifier interface {
	NotifyLowStock(ctx context.Context, ev LowStockEvent) error
	NotifyCreditsDue(ctx context.Context, events []CreditDueEvent) error
}

func creditEvent(c entity.Credit) CreditDueEvent {
	return CreditDueEvent{
		CompanyID:      c.CompanyID,
		MovementID:     c.MovementID,
		MovementNumber: c.MovementNumber,
		CustomerID:     c.CustomerID,
		Amount:         c.Amount,
		DueDate:        c.DueDate,
		Status:         c.Status,
		DaysOverdue:    c.DaysOverdue,
		DaysUntilDue:   c.DaysUntilDue,
	}
}
