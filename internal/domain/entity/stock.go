package entity

import (
	"sort"
	"time"
)

// Stock representa el stock agregado de un producto en una bodega.
// La fila se crea implícitamente con cantidad 0 la primera vez que se necesita.
type Stock struct {
	ProductID   string
	WarehouseID string
	Quantity    int64
	UpdatedAt   time.Time
}

// StockKey identifica una fila de stock.
type StockKey struct {
	ProductID   string
	WarehouseID string
}

func (k StockKey) String() string { return k.ProductID + "/" + k.WarehouseID }

// SortedKeys deduplica las llaves y las ordena; bloquear filas siempre en este orden evita deadlocks.
func SortedKeys(keys ...StockKey) []StockKey {
	seen := make(map[StockKey]struct{}, len(keys))
	out := make([]StockKey, 0, len(keys))
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ProductID != out[j].ProductID {
			return out[i].ProductID < out[j].ProductID
		}
		return out[i].WarehouseID < out[j].WarehouseID
	})
	return out
}
