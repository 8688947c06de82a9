package inventory

import (
	"sort"

	"github.com/jhoicas/Inventario-ledger/internal/domain"
	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// BatchDraw es lo que una venta toma de un lote.
type BatchDraw struct {
	BatchID   string
	Quantity  int64
	Remaining int64 // saldo del lote después de la toma
	UnitCost  decimal.Decimal
}

// Allocation es el resultado de recorrer los lotes en orden FIFO.
type Allocation struct {
	ProductID        string
	WarehouseID      string
	Requested        int64
	Draws            []BatchDraw
	TotalCost        decimal.Decimal // exacto
	WeightedUnitCost decimal.Decimal // redondeado a 4 decimales
	FirstBatchID     string
}

// Consumptions convierte las tomas en filas de consumo de la venta.
func (a *Allocation) Consumptions(movementID string) []entity.BatchConsumption {
	out := make([]entity.BatchConsumption, 0, len(a.Draws))
	for i, d := range a.Draws {
		out = append(out, entity.BatchConsumption{
			MovementID: movementID,
			BatchID:    d.BatchID,
			Quantity:   d.Quantity,
			UnitCost:   d.UnitCost,
			Ordinal:    i,
		})
	}
	return out
}

// SortFIFO ordena lotes del más antiguo al más reciente; empates por número de lote.
func SortFIFO(batches []*entity.Batch) {
	sort.SliceStable(batches, func(i, j int) bool {
		if !batches[i].PurchaseDate.Equal(batches[j].PurchaseDate) {
			return batches[i].PurchaseDate.Before(batches[j].PurchaseDate)
		}
		return batches[i].BatchNumber < batches[j].BatchNumber
	})
}

// AllocateFIFO consume lotes del más antiguo al más reciente hasta cubrir requested.
// No modifica stock ni lotes: el llamador aplica Draws dentro de su transacción.
func AllocateFIFO(stock *entity.Stock, batches []*entity.Batch, requested int64) (*Allocation, error) {
	if requested <= 0 {
		return nil, domain.Invalid("quantity", "debe ser mayor a cero")
	}
	if stock == nil {
		return nil, domain.Invalid("stock", "fila de stock requerida")
	}
	if stock.Quantity < requested {
		return nil, &domain.InsufficientStockError{
			ProductID:   stock.ProductID,
			WarehouseID: stock.WarehouseID,
			Requested:   requested,
			Available:   stock.Quantity,
		}
	}

	ordered := make([]*entity.Batch, 0, len(batches))
	for _, b := range batches {
		if b != nil && b.RemainingQty > 0 {
			ordered = append(ordered, b)
		}
	}
	SortFIFO(ordered)

	alloc := &Allocation{
		ProductID:   stock.ProductID,
		WarehouseID: stock.WarehouseID,
		Requested:   requested,
		TotalCost:   decimal.Zero,
	}
	needed := requested
	for _, b := range ordered {
		if needed == 0 {
			break
		}
		take := min(b.RemainingQty, needed)
		alloc.TotalCost = alloc.TotalCost.Add(b.UnitCost.Mul(decimal.NewFromInt(take)))
		alloc.Draws = append(alloc.Draws, BatchDraw{
			BatchID:   b.ID,
			Quantity:  take,
			Remaining: b.RemainingQty - take,
			UnitCost:  b.UnitCost,
		})
		if alloc.FirstBatchID == "" {
			alloc.FirstBatchID = b.ID
		}
		needed -= take
	}
	if needed > 0 {
		return nil, &domain.NoApplicableLotsError{
			ProductID:   stock.ProductID,
			WarehouseID: stock.WarehouseID,
			Requested:   requested,
			Missing:     needed,
		}
	}

	alloc.WeightedUnitCost = WeightedUnitCost(alloc.TotalCost, requested)
	return alloc, nil
}
