package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estado de un crédito calculado a partir de la fecha de negocio.
type CreditStatus string

const (
	CreditPaid    CreditStatus = "paid"
	CreditOverdue CreditStatus = "overdue"
	CreditPending CreditStatus = "pending"
)

// Credit es la vista de cartera de un movimiento con saldo a crédito.
type Credit struct {
	MovementID     string
	MovementNumber string
	MovementType   string
	CompanyID      string
	CustomerID     string
	ProductID      string
	Amount         decimal.Decimal
	DueDate        time.Time
	Status         CreditStatus
	DaysOverdue    int
	DaysUntilDue   int
}
