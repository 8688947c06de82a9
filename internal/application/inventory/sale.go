package inventory

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Inventario-ledger/internal/application/dto"
	"github.com/jhoicas/Inventario-ledger/internal/domain"
	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/Inventario-ledger/internal/domain/inventory"
	"github.com/jhoicas/Inventario-ledger/internal/domain/repository"
)

// saleLine es una venta ya validada, lista para asignar lotes.
type saleLine struct {
	product     *entity.Product
	warehouseID string
	quantity    int64
	unitPrice   decimal.Decimal
	total       decimal.Decimal
	split       inventory.PaymentSplit
	creditDays  int
	shipping    inventory.Shipping
	customerID  string
	notes       string
	date        time.Time
}

func (l saleLine) key() entity.StockKey {
	return entity.StockKey{ProductID: l.product.ID, WarehouseID: l.warehouseID}
}

func shippingFrom(in dto.ShippingRequest) inventory.Shipping {
	return inventory.Shipping{Enabled: in.HasShipping, Cost: in.ShippingCost, PaidBy: in.ShippingPaidBy}
}

// prepareSale valida el request de una venta individual (registro o edición).
func (uc *LedgerUseCase) prepareSale(ctx context.Context, actor Actor, in dto.RecordSaleRequest) (saleLine, error) {
	if err := validateStruct(uc.validate, in); err != nil {
		return saleLine{}, err
	}
	if in.UnitPrice.IsNegative() {
		return saleLine{}, domain.Invalid("unit_price", "no puede ser negativo")
	}
	shipping := shippingFrom(in.ShippingRequest)
	if err := shipping.Validate(); err != nil {
		return saleLine{}, err
	}
	product, err := uc.loadProduct(ctx, actor, in.ProductID, in.WarehouseID)
	if err != nil {
		return saleLine{}, err
	}
	total := inventory.LineTotal(in.UnitPrice, in.Quantity)
	split, err := inventory.SplitSingle(total, paymentInput(in.PaymentRequest))
	if err != nil {
		return saleLine{}, err
	}
	return saleLine{
		product:     product,
		warehouseID: in.WarehouseID,
		quantity:    in.Quantity,
		unitPrice:   in.UnitPrice,
		total:       total,
		split:       split,
		creditDays:  in.CreditDays,
		shipping:    shipping,
		customerID:  in.CustomerID,
		notes:       in.Notes,
		date:        uc.movementDate(in.MovementDate),
	}, nil
}

// RecordSale asigna lotes FIFO, descuenta stock y registra la venta con su costo y utilidad.
func (uc *LedgerUseCase) RecordSale(ctx context.Context, actor Actor, in dto.RecordSaleRequest) (*entity.Movement, error) {
	line, err := uc.prepareSale(ctx, actor, in)
	if err != nil {
		return nil, err
	}
	var mov *entity.Movement
	err = uc.execute(ctx, OpRecordSale, func(ctx context.Context, r repository.TxRepos) error {
		if _, err := lockStock(ctx, r, line.key()); err != nil {
			return err
		}
		m, err := uc.applySale(ctx, r, actor, line)
		if err != nil {
			return err
		}
		if err := uc.enqueueLowStock(ctx, r, actor.CompanyID, line.key()); err != nil {
			return err
		}
		if m.CreditDueDate != nil {
			if err := uc.enqueueCreditRescan(ctx, r, actor.CompanyID); err != nil {
				return err
			}
		}
		mov = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	return mov, nil
}

// RecordCartSale registra un carrito: una venta por línea, con el pago global repartido en proporción
// al total de cada línea. Envío y notas quedan solo en la primera línea. Todo o nada.
func (uc *LedgerUseCase) RecordCartSale(ctx context.Context, actor Actor, in dto.CartSaleRequest) ([]*entity.Movement, error) {
	if err := validateStruct(uc.validate, in); err != nil {
		return nil, err
	}
	shipping := shippingFrom(in.ShippingRequest)
	if err := shipping.Validate(); err != nil {
		return nil, err
	}
	date := uc.movementDate(in.MovementDate)

	lines := make([]saleLine, 0, len(in.Items))
	totals := make([]decimal.Decimal, 0, len(in.Items))
	for i, item := range in.Items {
		if item.UnitPrice.IsNegative() {
			return nil, domain.Invalid("items["+strconv.Itoa(i)+"].unit_price", "no puede ser negativo")
		}
		product, err := uc.loadProduct(ctx, actor, item.ProductID, in.WarehouseID)
		if err != nil {
			return nil, err
		}
		total := inventory.LineTotal(item.UnitPrice, item.Quantity)
		totals = append(totals, total)
		line := saleLine{
			product:     product,
			warehouseID: in.WarehouseID,
			quantity:    item.Quantity,
			unitPrice:   item.UnitPrice,
			total:       total,
			creditDays:  in.CreditDays,
			customerID:  in.CustomerID,
			date:        date,
		}
		if i == 0 {
			line.shipping = shipping
			line.notes = in.Notes
		}
		lines = append(lines, line)
	}
	splits, err := inventory.SplitCart(totals, paymentInput(in.PaymentRequest))
	if err != nil {
		return nil, err
	}
	for i := range lines {
		lines[i].split = splits[i]
	}

	var movs []*entity.Movement
	err = uc.execute(ctx, OpRecordCartSale, func(ctx context.Context, r repository.TxRepos) error {
		keys := make([]entity.StockKey, 0, len(lines))
		for _, l := range lines {
			keys = append(keys, l.key())
		}
		if _, err := lockStock(ctx, r, keys...); err != nil {
			return err
		}
		out := make([]*entity.Movement, 0, len(lines))
		withCredit := false
		for _, l := range lines {
			m, err := uc.applySale(ctx, r, actor, l)
			if err != nil {
				return err
			}
			withCredit = withCredit || m.CreditDueDate != nil
			out = append(out, m)
		}
		if err := uc.enqueueLowStock(ctx, r, actor.CompanyID, keys...); err != nil {
			return err
		}
		if withCredit {
			if err := uc.enqueueCreditRescan(ctx, r, actor.CompanyID); err != nil {
				return err
			}
		}
		movs = out
		return nil
	})
	if err != nil {
		return nil, err
	}
	return movs, nil
}

// applySale ejecuta una línea de venta con la fila de stock ya bloqueada.
func (uc *LedgerUseCase) applySale(ctx context.Context, r repository.TxRepos, actor Actor, l saleLine) (*entity.Movement, error) {
	alloc, stock, err := allocate(ctx, r, l.key(), l.quantity)
	if err != nil {
		return nil, err
	}
	number, err := nextNumber(ctx, r, inventory.ScopeMovement, entity.MovementPrefixSale)
	if err != nil {
		return nil, err
	}
	now := uc.tracker.Now()
	m := &entity.Movement{
		ID:             uuid.New().String(),
		CompanyID:      actor.CompanyID,
		MovementNumber: number,
		Type:           entity.MovementTypeSale,
		MovementDate:   l.date,
		CreatedBy:      actor.UserID,
		CreatedAt:      now,
	}
	uc.fillSale(m, l, alloc, now)
	if err := r.Movements.Create(ctx, m); err != nil {
		return nil, err
	}
	if err := applyAllocation(ctx, r, m.ID, alloc, stock, now); err != nil {
		return nil, err
	}
	uc.log.Info().
		Str("movement_id", m.ID).
		Str("movement_number", m.MovementNumber).
		Str("product_id", m.ProductID).
		Str("warehouse_id", m.WarehouseID).
		Int64("quantity", m.Quantity).
		Int("batches", len(alloc.Draws)).
		Msg("venta registrada")
	return m, nil
}

// fillSale escribe sobre m los valores de la línea y el resultado FIFO. No toca número, fecha ni creación.
func (uc *LedgerUseCase) fillSale(m *entity.Movement, l saleLine, alloc *inventory.Allocation, now time.Time) {
	unitCost := alloc.WeightedUnitCost
	profit := inventory.SaleProfit(l.total, alloc.TotalCost, l.shipping)
	m.ProductID = l.product.ID
	m.WarehouseID = l.warehouseID
	m.BatchID = alloc.FirstBatchID
	m.Quantity = l.quantity
	m.UnitPrice = l.unitPrice
	m.TotalAmount = l.total
	m.UnitCost = &unitCost
	m.Profit = &profit
	m.HasShipping = l.shipping.Enabled
	m.ShippingCost = l.shipping.Cost
	m.ShippingPaidBy = l.shipping.PaidBy
	m.CustomerID = l.customerID
	m.Notes = l.notes
	m.UpdatedAt = now
	uc.applyPayment(m, l.split, l.creditDays)
}

// allocate lee el stock bloqueado y sus lotes, y corre FIFO.
func allocate(ctx context.Context, r repository.TxRepos, key entity.StockKey, qty int64) (*inventory.Allocation, *entity.Stock, error) {
	stock, err := r.Stock.GetForUpdate(ctx, key.ProductID, key.WarehouseID)
	if err != nil {
		return nil, nil, err
	}
	batches, err := r.Batches.ListAvailable(ctx, key.ProductID, key.WarehouseID)
	if err != nil {
		return nil, nil, err
	}
	alloc, err := inventory.AllocateFIFO(stock, batches, qty)
	if err != nil {
		return nil, nil, err
	}
	return alloc, stock, nil
}

// applyAllocation persiste saldos de lotes, consumos de la venta y el stock descontado.
func applyAllocation(ctx context.Context, r repository.TxRepos, movementID string, alloc *inventory.Allocation, stock *entity.Stock, now time.Time) error {
	for _, d := range alloc.Draws {
		if err := r.Batches.UpdateRemaining(ctx, d.BatchID, d.Remaining); err != nil {
			return err
		}
	}
	if err := r.Movements.ReplaceConsumptions(ctx, movementID, alloc.Consumptions(movementID)); err != nil {
		return err
	}
	stock.Quantity -= alloc.Requested
	stock.UpdatedAt = now
	return r.Stock.Upsert(ctx, stock)
}
