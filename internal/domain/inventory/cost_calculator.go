package inventory

import "github.com/shopspring/decimal"

// Escala con la que se persisten los costos unitarios (NUMERIC(18,4)).
const costScale = 4

// WeightedUnitCost implementa el costo promedio ponderado de una salida (servicio de dominio).
// CostoUnitario = CostoTotalConsumido / CantidadConsumida
func WeightedUnitCost(totalCost decimal.Decimal, quantity int64) decimal.Decimal {
	if quantity <= 0 {
		return decimal.Zero
	}
	return totalCost.DivRound(decimal.NewFromInt(quantity), costScale)
}

// LineTotal calcula precio × cantidad sin redondeo.
func LineTotal(unitPrice decimal.Decimal, quantity int64) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(quantity))
}
