package notify

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/jhoicas/Inventario-ledger/internal/application/alerting"
)

var _ alerting.Notifier = (*LogNotifier)(nil)

// LogNotifier registra las alertas en el log estructurado. Reemplazable por correo o webhook.
type LogNotifier struct {
	log zerolog.Logger
}

// NewLogNotifier construye el notifier.
func NewLogNotifier(log zerolog.Logger) *LogNotifier {
	return &LogNotifier{log: log.With().Str("component", "notifier").Logger()}
}

func (n *LogNotifier) NotifyLowStock(_ context.Context, ev alerting.LowStockEvent) error {
	n.log.Warn().
		Str("company_id", ev.CompanyID).
		Str("product_id", ev.ProductID).
		Str("product_name", ev.ProductName).
		Str("warehouse_id", ev.WarehouseID).
		Int64("current_stock", ev.CurrentStock).
		Int64("threshold", ev.Threshold).
		Msg("stock bajo")
	return nil
}

func (n *LogNotifier) NotifyCreditsDue(_ context.Context, events []alerting.CreditDueEvent) error {
	for _, ev := range events {
		n.log.Info().
			Str("company_id", ev.CompanyID).
			Str("movement_id", ev.MovementID).
			Str("movement_number", ev.MovementNumber).
			Str("customer_id", ev.CustomerID).
			Str("amount", ev.Amount.StringFixed(2)).
			Str("due_date", ev.DueDate.Format("2006-01-02")).
			Str("status", string(ev.Status)).
			Int("days_overdue", ev.DaysOverdue).
			Int("days_until_due", ev.DaysUntilDue).
			Msg("crédito por cobrar")
	}
	return nil
}
