package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentRequest selección de pago de una compra, venta o carrito.
type PaymentRequest struct {
	PaymentType  string           `json:"payment_type" validate:"required,oneof=cash credit mixed"`
	CashAmount   *decimal.Decimal `json:"cash_amount,omitempty"`
	CreditAmount *decimal.Decimal `json:"credit_amount,omitempty"`
	CreditDays   int              `json:"credit_days" validate:"min=0,max=3650"`
}

// ShippingRequest datos de envío de una venta.
type ShippingRequest struct {
	HasShipping    bool            `json:"has_shipping"`
	ShippingCost   decimal.Decimal `json:"shipping_cost"`
	ShippingPaidBy string          `json:"shipping_paid_by,omitempty" validate:"omitempty,oneof=seller customer"`
}

// RecordPurchaseRequest body para POST /api/ledger/purchases.
type RecordPurchaseRequest struct {
	ProductID    string          `json:"product_id" validate:"required"`
	WarehouseID  string          `json:"warehouse_id" validate:"required"`
	Quantity     int64           `json:"quantity" validate:"gt=0"`
	UnitCost     decimal.Decimal `json:"unit_cost"`
	PurchaseDate *time.Time      `json:"purchase_date,omitempty"`
	CustomerID   string          `json:"customer_id,omitempty"`
	Notes        string          `json:"notes,omitempty" validate:"max=500"`
	PaymentRequest
}

// RecordSaleRequest body para POST /api/ledger/sales y PUT /api/ledger/sales/:id.
// En edición MovementDate se ignora: la fecha original se conserva.
type RecordSaleRequest struct {
	ProductID    string          `json:"product_id" validate:"required"`
	WarehouseID  string          `json:"warehouse_id" validate:"required"`
	Quantity     int64           `json:"quantity" validate:"gt=0"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	MovementDate *time.Time      `json:"movement_date,omitempty"`
	CustomerID   string          `json:"customer_id,omitempty"`
	Notes        string          `json:"notes,omitempty" validate:"max=500"`
	PaymentRequest
	ShippingRequest
}

// CartItemRequest línea de un carrito.
type CartItemRequest struct {
	ProductID string          `json:"product_id" validate:"required"`
	Quantity  int64           `json:"quantity" validate:"gt=0"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// CartSaleRequest body para POST /api/ledger/carts: una selección de pago para todas las líneas.
type CartSaleRequest struct {
	WarehouseID  string            `json:"warehouse_id" validate:"required"`
	Items        []CartItemRequest `json:"items" validate:"required,min=1,max=200,dive"`
	MovementDate *time.Time        `json:"movement_date,omitempty"`
	CustomerID   string            `json:"customer_id,omitempty"`
	Notes        string            `json:"notes,omitempty" validate:"max=500"`
	PaymentRequest
	ShippingRequest
}

// ReturnSaleRequest body para POST /api/ledger/sales/:id/returns.
type ReturnSaleRequest struct {
	Quantity int64  `json:"quantity" validate:"gt=0"`
	Notes    string `json:"notes,omitempty" validate:"max=500"`
}

// MarkCreditPaidRequest body para POST /api/ledger/movements/:id/pay.
type MarkCreditPaidRequest struct {
	PaidDate *time.Time `json:"paid_date,omitempty"`
}

// MovementResponse representación pública de un movimiento.
type MovementResponse struct {
	ID             string           `json:"id"`
	MovementNumber string           `json:"movement_number"`
	Type           string           `json:"type"`
	ProductID      string           `json:"product_id"`
	WarehouseID    string           `json:"warehouse_id"`
	BatchID        string           `json:"batch_id"`
	Quantity       int64            `json:"quantity"`
	UnitPrice      decimal.Decimal  `json:"unit_price"`
	TotalAmount    decimal.Decimal  `json:"total_amount"`
	UnitCost       *decimal.Decimal `json:"unit_cost,omitempty"`
	Profit         *decimal.Decimal `json:"profit,omitempty"`
	PaymentType    string           `json:"payment_type"`
	CashAmount     *decimal.Decimal `json:"cash_amount,omitempty"`
	CreditAmount   *decimal.Decimal `json:"credit_amount,omitempty"`
	CreditDays     int              `json:"credit_days"`
	CreditDueDate  *time.Time       `json:"credit_due_date,omitempty"`
	CreditPaid     bool             `json:"credit_paid"`
	CreditPaidDate *time.Time       `json:"credit_paid_date,omitempty"`
	HasShipping    bool             `json:"has_shipping"`
	ShippingCost   decimal.Decimal  `json:"shipping_cost"`
	ShippingPaidBy string           `json:"shipping_paid_by,omitempty"`
	CustomerID     string           `json:"customer_id,omitempty"`
	ReturnOfID     string           `json:"return_of_id,omitempty"`
	Notes          string           `json:"notes,omitempty"`
	MovementDate   time.Time        `json:"movement_date"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

// CreditResponse un crédito en la cartera.
type CreditResponse struct {
	MovementID     string          `json:"movement_id"`
	MovementNumber string          `json:"movement_number"`
	MovementType   string          `json:"movement_type"`
	CustomerID     string          `json:"customer_id,omitempty"`
	ProductID      string          `json:"product_id"`
	Amount         decimal.Decimal `json:"amount"`
	DueDate        string          `json:"due_date"` // YYYY-MM-DD en la zona de negocio
	Status         string          `json:"status"`
	DaysOverdue    int             `json:"days_overdue"`
	DaysUntilDue   int             `json:"days_until_due"`
}
