package jobs

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/jhoicas/Inventario-ledger/internal/application/alerting"
	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
)

// Handlers adapta alerting.Service a tareas asynq.
type Handlers struct {
	svc *alerting.Service
}

// NewHandlers construye los handlers.
func NewHandlers(svc *alerting.Service) *Handlers {
	return &Handlers{svc: svc}
}

// HandleLowStockCheck procesa TaskLowStockCheck.
func (h *Handlers) HandleLowStockCheck(ctx context.Context, t *asynq.Task) error {
	var payload entity.LowStockCheckPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("low_stock_check: %v: %w", err, asynq.SkipRetry)
	}
	_, err := h.svc.CheckLowStock(ctx, payload)
	return err
}

// HandleCreditRescan procesa TaskCreditRescan.
func (h *Handlers) HandleCreditRescan(ctx context.Context, t *asynq.Task) error {
	var payload entity.CreditRescanPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("credit_rescan: %v: %w", err, asynq.SkipRetry)
	}
	_, err := h.svc.RescanCredits(ctx, payload)
	return err
}

// TaskHandlers registro para el Worker.
func (h *Handlers) TaskHandlers() []TaskHandler {
	return []TaskHandler{
		{Type: TaskLowStockCheck, Handler: h.HandleLowStockCheck},
		{Type: TaskCreditRescan, Handler: h.HandleCreditRescan},
	}
}
