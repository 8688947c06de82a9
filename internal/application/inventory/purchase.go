package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Inventario-ledger/internal/application/dto"
	"github.com/jhoicas/Inventario-ledger/internal/domain"
	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/Inventario-ledger/internal/domain/inventory"
	"github.com/jhoicas/Inventario-ledger/internal/domain/repository"
)

// RecordPurchase crea un lote ING, suma el stock y registra el movimiento de compra.
func (uc *LedgerUseCase) RecordPurchase(ctx context.Context, actor Actor, in dto.RecordPurchaseRequest) (*entity.Movement, error) {
	if err := validateStruct(uc.validate, in); err != nil {
		return nil, err
	}
	if in.UnitCost.IsNegative() {
		return nil, domain.Invalid("unit_cost", "no puede ser negativo")
	}
	product, err := uc.loadProduct(ctx, actor, in.ProductID, in.WarehouseID)
	if err != nil {
		return nil, err
	}
	total := inventory.LineTotal(in.UnitCost, in.Quantity)
	split, err := inventory.SplitSingle(total, paymentInput(in.PaymentRequest))
	if err != nil {
		return nil, err
	}
	date := uc.movementDate(in.PurchaseDate)

	var mov *entity.Movement
	err = uc.execute(ctx, OpRecordPurchase, func(ctx context.Context, r repository.TxRepos) error {
		key := entity.StockKey{ProductID: product.ID, WarehouseID: in.WarehouseID}
		stocks, err := lockStock(ctx, r, key)
		if err != nil {
			return err
		}
		now := uc.tracker.Now()
		m := &entity.Movement{
			ID:           uuid.New().String(),
			CompanyID:    actor.CompanyID,
			Type:         entity.MovementTypePurchase,
			ProductID:    product.ID,
			WarehouseID:  in.WarehouseID,
			Quantity:     in.Quantity,
			UnitPrice:    in.UnitCost,
			TotalAmount:  total,
			UnitCost:     &in.UnitCost,
			CustomerID:   in.CustomerID,
			Notes:        in.Notes,
			MovementDate: date,
			CreatedBy:    actor.UserID,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		uc.applyPayment(m, split, in.CreditDays)
		batch, err := uc.createLot(ctx, r, m, stocks[key], entity.MovementPrefixPurchase, entity.BatchPrefixPurchase, in.UnitCost, date)
		if err != nil {
			return err
		}
		if m.CreditDueDate != nil {
			if err := uc.enqueueCreditRescan(ctx, r, actor.CompanyID); err != nil {
				return err
			}
		}
		uc.log.Info().
			Str("movement_id", m.ID).
			Str("movement_number", m.MovementNumber).
			Str("batch_number", batch.BatchNumber).
			Str("product_id", m.ProductID).
			Str("warehouse_id", m.WarehouseID).
			Int64("quantity", m.Quantity).
			Msg("compra registrada")
		mov = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	return mov, nil
}

// createLot numera el movimiento y su lote, inserta ambos y suma el stock.
// Usado por compras y devoluciones.
func (uc *LedgerUseCase) createLot(
	ctx context.Context,
	r repository.TxRepos,
	m *entity.Movement,
	stock *entity.Stock,
	movementPrefix, batchPrefix string,
	unitCost decimal.Decimal,
	purchaseDate time.Time,
) (*entity.Batch, error) {
	movNumber, err := nextNumber(ctx, r, inventory.ScopeMovement, movementPrefix)
	if err != nil {
		return nil, err
	}
	batchNumber, err := nextNumber(ctx, r, inventory.ScopeBatch, batchPrefix)
	if err != nil {
		return nil, err
	}
	batch := &entity.Batch{
		ID:              uuid.New().String(),
		BatchNumber:     batchNumber,
		ProductID:       m.ProductID,
		WarehouseID:     m.WarehouseID,
		MovementID:      m.ID,
		InitialQuantity: m.Quantity,
		RemainingQty:    m.Quantity,
		UnitCost:        unitCost,
		PurchaseDate:    purchaseDate,
		CreatedAt:       m.CreatedAt,
	}
	if err := r.Batches.Create(ctx, batch); err != nil {
		return nil, err
	}
	m.MovementNumber = movNumber
	m.BatchID = batch.ID
	if err := r.Movements.Create(ctx, m); err != nil {
		return nil, err
	}
	stock.Quantity += m.Quantity
	stock.UpdatedAt = m.CreatedAt
	if err := r.Stock.Upsert(ctx, stock); err != nil {
		return nil, err
	}
	return batch, nil
}

// applyPayment copia el pago validado al movimiento y deriva el vencimiento del crédito.
func (uc *LedgerUseCase) applyPayment(m *entity.Movement, split inventory.PaymentSplit, creditDays int) {
	m.PaymentType = split.Type
	m.CashAmount = split.CashAmount
	m.CreditAmount = split.CreditAmount
	m.CreditDays = 0
	m.CreditDueDate = nil
	m.CreditPaid = split.Type == entity.PaymentCash
	m.CreditPaidDate = nil
	if split.Type != entity.PaymentCash {
		m.CreditDays = creditDays
		m.CreditDueDate = uc.tracker.DueDate(split.Type, m.MovementDate, creditDays)
	}
}
