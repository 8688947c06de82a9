package inventory

import (
	"github.com/jhoicas/Inventario-ledger/internal/domain"
	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// Escala de los montos pagados por línea.
const moneyScale = 2

// PaymentInput es la selección de pago tal como llega del cliente.
type PaymentInput struct {
	Type         string
	CashAmount   *decimal.Decimal
	CreditAmount *decimal.Decimal
}

// PaymentSplit es el pago ya validado de una línea.
type PaymentSplit struct {
	Type         string
	CashAmount   *decimal.Decimal
	CreditAmount *decimal.Decimal
}

// Cash retorna el monto de contado (0 si no aplica).
func (p PaymentSplit) Cash() decimal.Decimal {
	if p.CashAmount == nil {
		return decimal.Zero
	}
	return *p.CashAmount
}

// Credit retorna el monto a crédito (0 si no aplica).
func (p PaymentSplit) Credit() decimal.Decimal {
	if p.CreditAmount == nil {
		return decimal.Zero
	}
	return *p.CreditAmount
}

// SplitSingle valida el pago de una línea contra su total.
// En cash y credit los montos pueden omitirse; si vienen deben coincidir con el total.
func SplitSingle(total decimal.Decimal, in PaymentInput) (PaymentSplit, error) {
	switch in.Type {
	case entity.PaymentCash:
		if err := expectAmount("cash_amount", in.CashAmount, total); err != nil {
			return PaymentSplit{}, err
		}
		if err := expectZero("credit_amount", in.CreditAmount); err != nil {
			return PaymentSplit{}, err
		}
		return PaymentSplit{Type: entity.PaymentCash, CashAmount: ptr(total)}, nil
	case entity.PaymentCredit:
		if err := expectAmount("credit_amount", in.CreditAmount, total); err != nil {
			return PaymentSplit{}, err
		}
		if err := expectZero("cash_amount", in.CashAmount); err != nil {
			return PaymentSplit{}, err
		}
		return PaymentSplit{Type: entity.PaymentCredit, CreditAmount: ptr(total)}, nil
	case entity.PaymentMixed:
		if in.CashAmount == nil || in.CreditAmount == nil {
			return PaymentSplit{}, domain.Invalid("payment", "pago mixto requiere cash_amount y credit_amount")
		}
		if !in.CashAmount.IsPositive() || !in.CreditAmount.IsPositive() {
			return PaymentSplit{}, domain.Invalid("payment", "en pago mixto ambos montos deben ser mayores a cero")
		}
		if !in.CashAmount.Add(*in.CreditAmount).Equal(total) {
			return PaymentSplit{}, domain.Invalid("payment", "contado + crédito debe ser igual al total "+total.String())
		}
		return PaymentSplit{Type: entity.PaymentMixed, CashAmount: ptr(*in.CashAmount), CreditAmount: ptr(*in.CreditAmount)}, nil
	default:
		return PaymentSplit{}, domain.Invalid("payment_type", "debe ser cash, credit o mixed")
	}
}

// SplitCart reparte una selección de pago global entre las líneas de un carrito.
// Cada línea recibe round2(total × contado / subtotal) salvo la última, que absorbe el residuo
// para que la suma de contado sea exacta. Si el residuo no cabe en la última línea se asigna
// a la línea de mayor total.
func SplitCart(lineTotals []decimal.Decimal, in PaymentInput) ([]PaymentSplit, error) {
	if len(lineTotals) == 0 {
		return nil, domain.Invalid("items", "el carrito no tiene líneas")
	}
	subtotal := decimal.Zero
	for _, t := range lineTotals {
		if t.IsNegative() {
			return nil, domain.Invalid("items", "el total de una línea no puede ser negativo")
		}
		subtotal = subtotal.Add(t)
	}
	global, err := SplitSingle(subtotal, in)
	if err != nil {
		return nil, err
	}

	out := make([]PaymentSplit, len(lineTotals))
	if global.Type != entity.PaymentMixed {
		for i, t := range lineTotals {
			if global.Type == entity.PaymentCash {
				out[i] = PaymentSplit{Type: entity.PaymentCash, CashAmount: ptr(t)}
			} else {
				out[i] = PaymentSplit{Type: entity.PaymentCredit, CreditAmount: ptr(t)}
			}
		}
		return out, nil
	}

	globalCash := global.Cash()
	cash := make([]decimal.Decimal, len(lineTotals))
	for i, t := range lineTotals {
		cash[i] = t.Mul(globalCash).DivRound(subtotal, moneyScale)
	}
	last := len(lineTotals) - 1
	target := last
	residual := globalCash.Sub(sumExcept(cash, last))
	if residual.IsNegative() || residual.GreaterThan(lineTotals[last]) {
		target = largestIndex(lineTotals)
		residual = globalCash.Sub(sumExcept(cash, target))
		if residual.IsNegative() || residual.GreaterThan(lineTotals[target]) {
			return nil, domain.Invalid("payment", "no es posible repartir el contado entre las líneas")
		}
	}
	cash[target] = residual

	for i, t := range lineTotals {
		out[i] = PaymentSplit{
			Type:         entity.PaymentMixed,
			CashAmount:   ptr(cash[i]),
			CreditAmount: ptr(t.Sub(cash[i])),
		}
	}
	return out, nil
}

func expectAmount(field string, got *decimal.Decimal, total decimal.Decimal) error {
	if got != nil && !got.Equal(total) {
		return domain.Invalid(field, "debe ser igual al total "+total.String())
	}
	return nil
}

func expectZero(field string, got *decimal.Decimal) error {
	if got != nil && !got.IsZero() {
		return domain.Invalid(field, "no aplica para esta forma de pago")
	}
	return nil
}

func sumExcept(values []decimal.Decimal, skip int) decimal.Decimal {
	sum := decimal.Zero
	for i, v := range values {
		if i != skip {
			sum = sum.Add(v)
		}
	}
	return sum
}

func largestIndex(values []decimal.Decimal) int {
	idx := 0
	for i, v := range values {
		if v.GreaterThan(values[idx]) {
			idx = i
		}
	}
	return idx
}

func ptr(d decimal.Decimal) *decimal.Decimal { return &d }
