package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Prefijos de consecutivo de lotes.
const (
	BatchPrefixPurchase = "ING" // ingreso por compra
	BatchPrefixReturn   = "DEV" // reingreso por devolución
)

// Batch es un lote de costeo FIFO creado por una compra o una devolución.
type Batch struct {
	ID              string
	BatchNumber     string
	ProductID       string
	WarehouseID     string
	MovementID      string // movimiento que creó el lote
	InitialQuantity int64
	RemainingQty    int64
	UnitCost        decimal.Decimal
	PurchaseDate    time.Time
	CreatedAt       time.Time
}

// Untouched indica que ninguna venta ha consumido el lote.
func (b *Batch) Untouched() bool {
	return b.RemainingQty == b.InitialQuantity
}

// Key retorna la fila de stock a la que pertenece el lote.
func (b *Batch) Key() StockKey {
	return StockKey{ProductID: b.ProductID, WarehouseID: b.WarehouseID}
}
