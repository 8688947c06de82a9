package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de movimiento del ledger.
const (
	MovementTypePurchase = "purchase"
	MovementTypeSale     = "sale"
)

// Prefijos de consecutivo de movimientos.
const (
	MovementPrefixPurchase = "ING"
	MovementPrefixSale     = "VEN"
	MovementPrefixReturn   = "DEV"
)

// Formas de pago.
const (
	PaymentCash   = "cash"
	PaymentCredit = "credit"
	PaymentMixed  = "mixed"
)

// Quién asume el envío.
const (
	ShippingPaidBySeller   = "seller"
	ShippingPaidByCustomer = "customer"
)

// Movement es una compra, una venta o una devolución (compra con prefijo DEV y ReturnOfID).
type Movement struct {
	ID             string
	CompanyID      string
	MovementNumber string
	Type           string
	ProductID      string
	WarehouseID    string
	BatchID        string // lote creado (compra) o primer lote consumido (venta)
	Quantity       int64
	UnitPrice      decimal.Decimal
	TotalAmount    decimal.Decimal
	UnitCost       *decimal.Decimal // costo ponderado FIFO, solo ventas
	Profit         *decimal.Decimal // solo ventas
	PaymentType    string
	CashAmount     *decimal.Decimal
	CreditAmount   *decimal.Decimal
	CreditDays     int
	CreditDueDate  *time.Time
	CreditPaid     bool
	CreditPaidDate *time.Time
	HasShipping    bool
	ShippingCost   decimal.Decimal
	ShippingPaidBy string
	CustomerID     string
	ReturnOfID     string
	Notes          string
	MovementDate   time.Time
	CreatedBy      string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// IsSale indica si el movimiento descuenta inventario.
func (m *Movement) IsSale() bool { return m.Type == MovementTypeSale }

// IsReturn indica si el movimiento es el reingreso de una venta.
func (m *Movement) IsReturn() bool { return m.ReturnOfID != "" }

// HasCredit indica si parte del movimiento quedó a crédito.
func (m *Movement) HasCredit() bool {
	return m.PaymentType == PaymentCredit || m.PaymentType == PaymentMixed
}

// Key retorna la fila de stock afectada.
func (m *Movement) Key() StockKey {
	return StockKey{ProductID: m.ProductID, WarehouseID: m.WarehouseID}
}
