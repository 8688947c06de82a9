package inventory

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/jhoicas/Inventario-ledger/internal/application/dto"
	"github.com/jhoicas/Inventario-ledger/internal/domain"
	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/Inventario-ledger/internal/domain/inventory"
	"github.com/jhoicas/Inventario-ledger/internal/domain/repository"
)

// DeleteMovement elimina un movimiento revirtiendo su efecto en stock y lotes.
// Venta: devuelve las unidades a sus lotes. Compra o devolución: elimina el lote si nadie lo ha consumido.
func (uc *LedgerUseCase) DeleteMovement(ctx context.Context, actor Actor, id string) error {
	return uc.execute(ctx, OpDeleteMovement, func(ctx context.Context, r repository.TxRepos) error {
		mov, err := lockMovement(ctx, r, actor, id)
		if err != nil {
			return err
		}
		stocks, err := lockStock(ctx, r, mov.Key())
		if err != nil {
			return err
		}
		if mov.IsSale() {
			if err := refuseIfReturned(ctx, r, mov, "eliminar"); err != nil {
				return err
			}
			if err := uc.reverseSale(ctx, r, mov, stocks[mov.Key()]); err != nil {
				return err
			}
			if err := r.Movements.Delete(ctx, mov.ID); err != nil {
				return err
			}
			uc.log.Info().Str("movement_id", mov.ID).Str("movement_number", mov.MovementNumber).Msg("venta eliminada")
			return nil
		}

		batch, err := r.Batches.GetByID(ctx, mov.BatchID)
		if err != nil {
			return err
		}
		if batch == nil {
			return domain.NotFound("lote", mov.BatchID)
		}
		if !batch.Untouched() {
			return domain.Conflict(fmt.Sprintf("el lote %s ya fue consumido (%d de %d disponibles)",
				batch.BatchNumber, batch.RemainingQty, batch.InitialQuantity))
		}
		stock := stocks[mov.Key()]
		if stock.Quantity < mov.Quantity {
			return &domain.NoApplicableLotsError{
				ProductID:   mov.ProductID,
				WarehouseID: mov.WarehouseID,
				Requested:   mov.Quantity,
				Missing:     mov.Quantity - stock.Quantity,
			}
		}
		now := uc.tracker.Now()
		stock.Quantity -= mov.Quantity
		stock.UpdatedAt = now
		if err := r.Stock.Upsert(ctx, stock); err != nil {
			return err
		}
		if err := r.Movements.Delete(ctx, mov.ID); err != nil {
			return err
		}
		if err := r.Batches.Delete(ctx, batch.ID); err != nil {
			return err
		}
		if err := uc.enqueueLowStock(ctx, r, actor.CompanyID, mov.Key()); err != nil {
			return err
		}
		uc.log.Info().
			Str("movement_id", mov.ID).
			Str("movement_number", mov.MovementNumber).
			Str("batch_number", batch.BatchNumber).
			Msg("compra eliminada")
		return nil
	})
}

// EditSale reemplaza los valores de una venta: revierte la original, vuelve a asignar lotes FIFO con los
// nuevos valores y actualiza el movimiento en el mismo registro. Si el stock no alcanza nada cambia.
func (uc *LedgerUseCase) EditSale(ctx context.Context, actor Actor, id string, in dto.RecordSaleRequest) (*entity.Movement, error) {
	line, err := uc.prepareSale(ctx, actor, in)
	if err != nil {
		return nil, err
	}
	var mov *entity.Movement
	err = uc.execute(ctx, OpEditSale, func(ctx context.Context, r repository.TxRepos) error {
		orig, err := lockMovement(ctx, r, actor, id)
		if err != nil {
			return err
		}
		if !orig.IsSale() {
			return domain.Conflict("solo se pueden editar ventas")
		}
		if err := refuseIfReturned(ctx, r, orig, "editar"); err != nil {
			return err
		}
		stocks, err := lockStock(ctx, r, orig.Key(), line.key())
		if err != nil {
			return err
		}
		if err := uc.reverseSale(ctx, r, orig, stocks[orig.Key()]); err != nil {
			return err
		}

		alloc, stock, err := allocate(ctx, r, line.key(), line.quantity)
		if err != nil {
			return err
		}
		wasCash := orig.PaymentType == entity.PaymentCash
		paid, paidDate := orig.CreditPaid, orig.CreditPaidDate

		now := uc.tracker.Now()
		line.date = orig.MovementDate
		uc.fillSale(orig, line, alloc, now)
		if orig.PaymentType != entity.PaymentCash && !wasCash {
			orig.CreditPaid, orig.CreditPaidDate = paid, paidDate
		}
		if err := r.Movements.Update(ctx, orig); err != nil {
			return err
		}
		if err := applyAllocation(ctx, r, orig.ID, alloc, stock, now); err != nil {
			return err
		}
		if err := uc.enqueueLowStock(ctx, r, actor.CompanyID, line.key()); err != nil {
			return err
		}
		if orig.CreditDueDate != nil {
			if err := uc.enqueueCreditRescan(ctx, r, actor.CompanyID); err != nil {
				return err
			}
		}
		uc.log.Info().
			Str("movement_id", orig.ID).
			Str("movement_number", orig.MovementNumber).
			Str("product_id", orig.ProductID).
			Int64("quantity", orig.Quantity).
			Msg("venta editada")
		mov = orig
		return nil
	})
	if err != nil {
		return nil, err
	}
	return mov, nil
}

// ReturnSale reingresa unidades de una venta como un lote DEV al costo de la venta original.
// La venta original no se modifica.
func (uc *LedgerUseCase) ReturnSale(ctx context.Context, actor Actor, saleID string, in dto.ReturnSaleRequest) (*entity.Movement, error) {
	if err := validateStruct(uc.validate, in); err != nil {
		return nil, err
	}
	var mov *entity.Movement
	err := uc.execute(ctx, OpReturnSale, func(ctx context.Context, r repository.TxRepos) error {
		sale, err := lockMovement(ctx, r, actor, saleID)
		if err != nil {
			return err
		}
		if !sale.IsSale() {
			return domain.Invalid("movement_id", "solo se pueden devolver ventas")
		}
		returned, err := r.Movements.SumReturned(ctx, sale.ID)
		if err != nil {
			return err
		}
		if left := sale.Quantity - returned; in.Quantity > left {
			return domain.Invalid("quantity", fmt.Sprintf("máximo %d unidades por devolver de %s", left, sale.MovementNumber))
		}
		stocks, err := lockStock(ctx, r, sale.Key())
		if err != nil {
			return err
		}

		unitCost := sale.UnitPrice
		if sale.UnitCost != nil {
			unitCost = *sale.UnitCost
		}
		total := inventory.LineTotal(unitCost, in.Quantity)
		now := uc.tracker.Now()
		m := &entity.Movement{
			ID:           uuid.New().String(),
			CompanyID:    sale.CompanyID,
			Type:         entity.MovementTypePurchase,
			ProductID:    sale.ProductID,
			WarehouseID:  sale.WarehouseID,
			Quantity:     in.Quantity,
			UnitPrice:    unitCost,
			TotalAmount:  total,
			UnitCost:     &unitCost,
			PaymentType:  entity.PaymentCash,
			CashAmount:   &total,
			CreditPaid:   true,
			CustomerID:   sale.CustomerID,
			ReturnOfID:   sale.ID,
			Notes:        returnNotes(sale, in.Notes),
			MovementDate: now,
			CreatedBy:    actor.UserID,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		batch, err := uc.createLot(ctx, r, m, stocks[sale.Key()], entity.MovementPrefixReturn, entity.BatchPrefixReturn, unitCost, now)
		if err != nil {
			return err
		}
		uc.log.Info().
			Str("movement_id", m.ID).
			Str("movement_number", m.MovementNumber).
			Str("return_of", sale.MovementNumber).
			Str("batch_number", batch.BatchNumber).
			Int64("quantity", m.Quantity).
			Msg("devolución registrada")
		mov = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	return mov, nil
}

// reverseSale devuelve las unidades de una venta a sus lotes y al stock (ya bloqueado).
func (uc *LedgerUseCase) reverseSale(ctx context.Context, r repository.TxRepos, sale *entity.Movement, stock *entity.Stock) error {
	consumptions, err := r.Movements.ListConsumptions(ctx, sale.ID)
	if err != nil {
		return err
	}
	for _, rs := range inventory.RestorePlan(uc.cfg.ReversalMode, sale, consumptions) {
		batch, err := r.Batches.GetByID(ctx, rs.BatchID)
		if err != nil {
			return err
		}
		if batch == nil {
			return &domain.NoApplicableLotsError{
				ProductID:   sale.ProductID,
				WarehouseID: sale.WarehouseID,
				Requested:   sale.Quantity,
				Missing:     rs.Quantity,
			}
		}
		if err := r.Batches.UpdateRemaining(ctx, batch.ID, batch.RemainingQty+rs.Quantity); err != nil {
			return err
		}
	}
	if err := r.Movements.ReplaceConsumptions(ctx, sale.ID, nil); err != nil {
		return err
	}
	stock.Quantity += sale.Quantity
	stock.UpdatedAt = uc.tracker.Now()
	return r.Stock.Upsert(ctx, stock)
}

func refuseIfReturned(ctx context.Context, r repository.TxRepos, sale *entity.Movement, action string) error {
	returned, err := r.Movements.SumReturned(ctx, sale.ID)
	if err != nil {
		return err
	}
	if returned > 0 {
		return domain.Conflict(fmt.Sprintf("no se puede %s la venta %s: tiene %d unidades devueltas", action, sale.MovementNumber, returned))
	}
	return nil
}

func returnNotes(sale *entity.Movement, extra string) string {
	note := fmt.Sprintf("Devolución de venta %s (id %s)", sale.MovementNumber, sale.ID)
	if extra = strings.TrimSpace(extra); extra != "" {
		note += ": " + extra
	}
	return note
}
