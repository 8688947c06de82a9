package jobs

import (
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
)

const (
	// QueueLedger cola de las alertas del ledger.
	QueueLedger = "ledger"
	// TaskLowStockCheck revisa el umbral de una fila de stock.
	TaskLowStockCheck = "ledger:low_stock_check"
	// TaskCreditRescan recalcula la cartera por vencer de una empresa.
	TaskCreditRescan = "ledger:credit_rescan"

	taskMaxRetry = 5
)

// TaskType traduce el tipo de evento del outbox al tipo de tarea asynq.
func TaskType(kind string) (string, error) {
	switch kind {
	case entity.EventLowStockCheck:
		return TaskLowStockCheck, nil
	case entity.EventCreditRescan:
		return TaskCreditRescan, nil
	}
	return "", fmt.Errorf("jobs: tipo de evento sin tarea: %q", kind)
}

// NewTask construye la tarea de un evento. El id del evento se usa como TaskID:
// republicar el mismo evento no duplica la tarea.
func NewTask(ev *entity.OutboxEvent) (*asynq.Task, error) {
	typ, err := TaskType(ev.Kind)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(typ, ev.Payload,
		asynq.Queue(QueueLedger),
		asynq.TaskID(ev.ID),
		asynq.MaxRetry(taskMaxRetry),
	), nil
}
