package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Inventario-ledger/internal/domain"
	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/Inventario-ledger/internal/domain/repository"
)

var _ repository.BatchRepository = (*BatchRepo)(nil)

// BatchRepo lotes FIFO sobre PostgreSQL (usable con pool o tx).
type BatchRepo struct {
	q Querier
}

// NewBatchRepository construye el adaptador. Pasar pool o tx (Querier).
func NewBatchRepository(q Querier) *BatchRepo {
	return &BatchRepo{q: q}
}

const batchColumns = `id::text, batch_number, product_id::text, warehouse_id::text, COALESCE(movement_id::text, ''),
	initial_quantity, remaining_qty, unit_cost, purchase_date, created_at`

func scanBatch(row pgx.Row) (*entity.Batch, error) {
	var b entity.Batch
	err := row.Scan(&b.ID, &b.BatchNumber, &b.ProductID, &b.WarehouseID, &b.MovementID,
		&b.InitialQuantity, &b.RemainingQty, &b.UnitCost, &b.PurchaseDate, &b.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// Create inserta el lote. Un batch_number repetido se reporta como domain.ErrSequenceRace.
func (r *BatchRepo) Create(ctx context.Context, b *entity.Batch) error {
	query := `
		INSERT INTO batches (id, batch_number, product_id, warehouse_id, movement_id,
			initial_quantity, remaining_qty, unit_cost, purchase_date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.q.Exec(ctx, query,
		b.ID, b.BatchNumber, b.ProductID, b.WarehouseID, nullString(b.MovementID),
		b.InitialQuantity, b.RemainingQty, b.UnitCost, b.PurchaseDate, b.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrSequenceRace
		}
		return fmt.Errorf("insert batch: %w", err)
	}
	return nil
}

// GetByID obtiene un lote. nil, nil si no existe.
func (r *BatchRepo) GetByID(ctx context.Context, id string) (*entity.Batch, error) {
	b, err := scanBatch(r.q.QueryRow(ctx, `SELECT `+batchColumns+` FROM batches WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isInvalidText(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get batch: %w", err)
	}
	return b, nil
}

// ListAvailable lotes con saldo en orden FIFO. Llamar con la fila de stock ya bloqueada.
func (r *BatchRepo) ListAvailable(ctx context.Context, productID, warehouseID string) ([]*entity.Batch, error) {
	query := `SELECT ` + batchColumns + `
		FROM batches
		WHERE product_id = $1 AND warehouse_id = $2 AND remaining_qty > 0
		ORDER BY purchase_date ASC, batch_number ASC`
	rows, err := r.q.Query(ctx, query, productID, warehouseID)
	if err != nil {
		return nil, fmt.Errorf("list batches: %w", err)
	}
	defer rows.Close()

	var list []*entity.Batch
	for rows.Next() {
		b, err := scanBatch(rows)
		if err != nil {
			return nil, fmt.Errorf("scan batch: %w", err)
		}
		list = append(list, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list batches: %w", err)
	}
	return list, nil
}

// UpdateRemaining fija el saldo del lote.
func (r *BatchRepo) UpdateRemaining(ctx context.Context, id string, remaining int64) error {
	if remaining < 0 {
		return domain.Invalid("remaining_qty", "saldo de lote negativo")
	}
	tag, err := r.q.Exec(ctx, `UPDATE batches SET remaining_qty = $2 WHERE id = $1`, id, remaining)
	if err != nil {
		return fmt.Errorf("update batch remaining: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFound("lote", id)
	}
	return nil
}

// Delete borra el lote. Si otra fila aún lo referencia retorna ConflictError.
func (r *BatchRepo) Delete(ctx context.Context, id string) error {
	_, err := r.q.Exec(ctx, `DELETE FROM batches WHERE id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.Conflict("el lote está referenciado por otros movimientos")
		}
		return fmt.Errorf("delete batch: %w", err)
	}
	return nil
}
