package inventory

import (
	"fmt"

	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
)

// ReversalMode define cómo se devuelven unidades a los lotes al revertir una venta.
type ReversalMode string

const (
	// ReversalExact devuelve a cada lote lo que la venta le tomó.
	ReversalExact ReversalMode = "exact"
	// ReversalLegacy devuelve todo al primer lote de la venta.
	ReversalLegacy ReversalMode = "legacy"
)

// ParseReversalMode acepta "" como exact.
func ParseReversalMode(s string) (ReversalMode, error) {
	switch ReversalMode(s) {
	case "", ReversalExact:
		return ReversalExact, nil
	case ReversalLegacy:
		return ReversalLegacy, nil
	default:
		return "", fmt.Errorf("modo de reversión desconocido: %q", s)
	}
}

// Restore es una devolución de unidades a un lote.
type Restore struct {
	BatchID  string
	Quantity int64
}

// RestorePlan calcula qué lotes reciben las unidades de una venta revertida.
// Sin consumos registrados se usa el lote de la venta.
func RestorePlan(mode ReversalMode, sale *entity.Movement, consumptions []entity.BatchConsumption) []Restore {
	if mode == ReversalLegacy || len(consumptions) == 0 {
		return []Restore{{BatchID: sale.BatchID, Quantity: sale.Quantity}}
	}
	plan := make([]Restore, 0, len(consumptions))
	for _, c := range consumptions {
		plan = append(plan, Restore{BatchID: c.BatchID, Quantity: c.Quantity})
	}
	return plan
}
