package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Inventario-ledger/internal/domain"
	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/Inventario-ledger/internal/domain/repository"
)

var _ repository.MovementRepository = (*MovementRepo)(nil)

// MovementRepo ledger de movimientos sobre PostgreSQL (usable con pool o tx).
type MovementRepo struct {
	q Querier
}

// NewMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewMovementRepository(q Querier) *MovementRepo {
	return &MovementRepo{q: q}
}

const movementColumns = `id::text, company_id::text, movement_number, type, product_id::text, warehouse_id::text,
	COALESCE(batch_id::text, ''), quantity, unit_price, total_amount, unit_cost, profit,
	payment_type, cash_amount, credit_amount, credit_days, credit_due_date, credit_paid, credit_paid_date,
	has_shipping, shipping_cost, COALESCE(shipping_paid_by, ''), COALESCE(customer_id, ''),
	COALESCE(return_of_id::text, ''), COALESCE(notes, ''), movement_date, COALESCE(created_by, ''),
	created_at, updated_at`

func scanMovement(row pgx.Row) (*entity.Movement, error) {
	var m entity.Movement
	err := row.Scan(
		&m.ID, &m.CompanyID, &m.MovementNumber, &m.Type, &m.ProductID, &m.WarehouseID,
		&m.BatchID, &m.Quantity, &m.UnitPrice, &m.TotalAmount, &m.UnitCost, &m.Profit,
		&m.PaymentType, &m.CashAmount, &m.CreditAmount, &m.CreditDays, &m.CreditDueDate, &m.CreditPaid, &m.CreditPaidDate,
		&m.HasShipping, &m.ShippingCost, &m.ShippingPaidBy, &m.CustomerID,
		&m.ReturnOfID, &m.Notes, &m.MovementDate, &m.CreatedBy,
		&m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// Create inserta el movimiento. Un movement_number repetido se reporta como domain.ErrSequenceRace.
func (r *MovementRepo) Create(ctx context.Context, m *entity.Movement) error {
	query := `
		INSERT INTO movements (id, company_id, movement_number, type, product_id, warehouse_id, batch_id,
			quantity, unit_price, total_amount, unit_cost, profit,
			payment_type, cash_amount, credit_amount, credit_days, credit_due_date, credit_paid, credit_paid_date,
			has_shipping, shipping_cost, shipping_paid_by, customer_id, return_of_id, notes,
			movement_date, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19,
			$20, $21, $22, $23, $24, $25, $26, $27, $28, $29)`
	_, err := r.q.Exec(ctx, query,
		m.ID, m.CompanyID, m.MovementNumber, m.Type, m.ProductID, m.WarehouseID, nullString(m.BatchID),
		m.Quantity, m.UnitPrice, m.TotalAmount, m.UnitCost, m.Profit,
		m.PaymentType, m.CashAmount, m.CreditAmount, m.CreditDays, m.CreditDueDate, m.CreditPaid, m.CreditPaidDate,
		m.HasShipping, m.ShippingCost, nullString(m.ShippingPaidBy), nullString(m.CustomerID),
		nullString(m.ReturnOfID), nullString(m.Notes),
		m.MovementDate, nullString(m.CreatedBy), m.CreatedAt, m.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrSequenceRace
		}
		return fmt.Errorf("insert movement: %w", err)
	}
	return nil
}

// GetByID obtiene un movimiento. nil, nil si no existe.
func (r *MovementRepo) GetByID(ctx context.Context, id string) (*entity.Movement, error) {
	m, err := scanMovement(r.q.QueryRow(ctx, `SELECT `+movementColumns+` FROM movements WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isInvalidText(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get movement: %w", err)
	}
	return m, nil
}

// GetForUpdate obtiene el movimiento y bloquea la fila.
func (r *MovementRepo) GetForUpdate(ctx context.Context, id string) (*entity.Movement, error) {
	if _, err := parseUUID(id); err != nil {
		return nil, nil
	}
	m, err := scanMovement(r.q.QueryRow(ctx, `SELECT `+movementColumns+` FROM movements WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get movement for update: %w", err)
	}
	return m, nil
}

// Update reescribe el movimiento en sitio; número, fecha y creación no cambian.
func (r *MovementRepo) Update(ctx context.Context, m *entity.Movement) error {
	query := `
		UPDATE movements SET
			product_id = $2, warehouse_id = $3, batch_id = $4, quantity = $5, unit_price = $6,
			total_amount = $7, unit_cost = $8, profit = $9, payment_type = $10, cash_amount = $11,
			credit_amount = $12, credit_days = $13, credit_due_date = $14, credit_paid = $15,
			credit_paid_date = $16, has_shipping = $17, shipping_cost = $18, shipping_paid_by = $19,
			customer_id = $20, notes = $21, updated_at = $22
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query,
		m.ID, m.ProductID, m.WarehouseID, nullString(m.BatchID), m.Quantity, m.UnitPrice,
		m.TotalAmount, m.UnitCost, m.Profit, m.PaymentType, m.CashAmount,
		m.CreditAmount, m.CreditDays, m.CreditDueDate, m.CreditPaid,
		m.CreditPaidDate, m.HasShipping, m.ShippingCost, nullString(m.ShippingPaidBy),
		nullString(m.CustomerID), nullString(m.Notes), m.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update movement: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFound("movimiento", m.ID)
	}
	return nil
}

// Delete borra el movimiento (sus consumos caen por ON DELETE CASCADE).
func (r *MovementRepo) Delete(ctx context.Context, id string) error {
	_, err := r.q.Exec(ctx, `DELETE FROM movements WHERE id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.Conflict("el movimiento tiene devoluciones asociadas")
		}
		return fmt.Errorf("delete movement: %w", err)
	}
	return nil
}

// ReplaceConsumptions reemplaza los lotes consumidos por una venta.
func (r *MovementRepo) ReplaceConsumptions(ctx context.Context, movementID string, consumptions []entity.BatchConsumption) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM movement_batch_consumptions WHERE movement_id = $1`, movementID); err != nil {
		return fmt.Errorf("delete consumptions: %w", err)
	}
	for _, c := range consumptions {
		_, err := r.q.Exec(ctx, `
			INSERT INTO movement_batch_consumptions (movement_id, batch_id, ordinal, quantity, unit_cost)
			VALUES ($1, $2, $3, $4, $5)`,
			movementID, c.BatchID, c.Ordinal, c.Quantity, c.UnitCost)
		if err != nil {
			return fmt.Errorf("insert consumption: %w", err)
		}
	}
	return nil
}

// ListConsumptions lotes consumidos por la venta, en orden de consumo.
func (r *MovementRepo) ListConsumptions(ctx context.Context, movementID string) ([]entity.BatchConsumption, error) {
	rows, err := r.q.Query(ctx, `
		SELECT movement_id::text, batch_id::text, ordinal, quantity, unit_cost
		FROM movement_batch_consumptions WHERE movement_id = $1
		ORDER BY ordinal`, movementID)
	if err != nil {
		return nil, fmt.Errorf("list consumptions: %w", err)
	}
	defer rows.Close()

	var list []entity.BatchConsumption
	for rows.Next() {
		var c entity.BatchConsumption
		if err := rows.Scan(&c.MovementID, &c.BatchID, &c.Ordinal, &c.Quantity, &c.UnitCost); err != nil {
			return nil, fmt.Errorf("scan consumption: %w", err)
		}
		list = append(list, c)
	}
	return list, rows.Err()
}

// SumReturned suma lo ya devuelto de una venta.
func (r *MovementRepo) SumReturned(ctx context.Context, saleID string) (int64, error) {
	var sum int64
	err := r.q.QueryRow(ctx, `SELECT COALESCE(SUM(quantity), 0) FROM movements WHERE return_of_id = $1`, saleID).Scan(&sum)
	if err != nil {
		return 0, fmt.Errorf("sum returned: %w", err)
	}
	return sum, nil
}

// ListOpenCredits créditos sin pagar con vencimiento <= dueBefore.
func (r *MovementRepo) ListOpenCredits(ctx context.Context, companyID string, dueBefore time.Time) ([]*entity.Movement, error) {
	if _, err := parseUUID(companyID); err != nil {
		return nil, nil
	}
	query := `SELECT ` + movementColumns + `
		FROM movements
		WHERE company_id = $1 AND credit_paid = FALSE
		  AND payment_type IN ('credit', 'mixed')
		  AND credit_due_date IS NOT NULL AND credit_due_date <= $2
		ORDER BY credit_due_date ASC, movement_number ASC`
	rows, err := r.q.Query(ctx, query, companyID, dueBefore)
	if err != nil {
		return nil, fmt.Errorf("list open credits: %w", err)
	}
	defer rows.Close()

	var list []*entity.Movement
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		list = append(list, m)
	}
	return list, rows.Err()
}
