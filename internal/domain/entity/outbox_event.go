package entity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Tipos de evento post-commit.
const (
	EventLowStockCheck = "low_stock_check"
	EventCreditRescan  = "credit_rescan"
)

// Estados del outbox.
const (
	OutboxPending    = "pending"
	OutboxProcessing = "processing"
	OutboxSent       = "sent"
	OutboxDead       = "dead"
)

// OutboxEvent se escribe en la misma transacción que la mutación y se despacha después del commit.
type OutboxEvent struct {
	ID            string
	Kind          string
	CompanyID     string
	Payload       json.RawMessage
	Status        string
	Attempts      int
	NextAttemptAt *time.Time
	LastError     string
	LockedAt      *time.Time
	CreatedAt     time.Time
	DispatchedAt  *time.Time
}

// LowStockCheckPayload pide revisar el umbral de una fila de stock.
type LowStockCheckPayload struct {
	CompanyID   string `json:"company_id"`
	ProductID   string `json:"product_id"`
	WarehouseID string `json:"warehouse_id"`
}

// CreditRescanPayload pide recalcular los créditos próximos a vencer de una empresa.
type CreditRescanPayload struct {
	CompanyID   string    `json:"company_id"`
	RequestedAt time.Time `json:"requested_at"`
}

// NewOutboxEvent serializa el payload y deja el evento pendiente.
func NewOutboxEvent(kind, companyID string, payload any, now time.Time) (*OutboxEvent, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &OutboxEvent{
		ID:        uuid.New().String(),
		Kind:      kind,
		CompanyID: companyID,
		Payload:   raw,
		Status:    OutboxPending,
		CreatedAt: now,
	}, nil
}
