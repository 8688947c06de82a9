package inventory

import (
	"github.com/jhoicas/Inventario-ledger/internal/domain"
	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// Shipping describe el envío de una venta.
type Shipping struct {
	Enabled bool
	Cost    decimal.Decimal
	PaidBy  string
}

// Validate revisa la coherencia del envío.
func (s Shipping) Validate() error {
	if !s.Enabled {
		if !s.Cost.IsZero() || s.PaidBy != "" {
			return domain.Invalid("shipping", "costo o responsable de envío sin envío habilitado")
		}
		return nil
	}
	if s.Cost.IsNegative() {
		return domain.Invalid("shipping_cost", "no puede ser negativo")
	}
	if s.PaidBy != entity.ShippingPaidBySeller && s.PaidBy != entity.ShippingPaidByCustomer {
		return domain.Invalid("shipping_paid_by", "debe ser seller o customer")
	}
	return nil
}

// SellerCost es lo que el envío le resta a la utilidad.
func (s Shipping) SellerCost() decimal.Decimal {
	if s.Enabled && s.PaidBy == entity.ShippingPaidBySeller {
		return s.Cost
	}
	return decimal.Zero
}

// SaleProfit = total − costo FIFO exacto − envío asumido por el vendedor.
func SaleProfit(totalAmount, totalCost decimal.Decimal, shipping Shipping) decimal.Decimal {
	return totalAmount.Sub(totalCost).Sub(shipping.SellerCost())
}
