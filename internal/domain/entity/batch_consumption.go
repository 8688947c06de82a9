package entity

import "github.com/shopspring/decimal"

// BatchConsumption registra cuántas unidades de un lote tomó una venta.
// Permite revertir la venta devolviendo cada unidad a su lote de origen.
type BatchConsumption struct {
	MovementID string
	BatchID    string
	Quantity   int64
	UnitCost   decimal.Decimal
	Ordinal    int
}
