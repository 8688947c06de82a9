package inventory

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/jhoicas/Inventario-ledger/internal/application/dto"
	"github.com/jhoicas/Inventario-ledger/internal/domain"
	"github.com/jhoicas/Inventario-ledger/internal/domain/credit"
	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/Inventario-ledger/internal/domain/inventory"
	"github.com/jhoicas/Inventario-ledger/internal/domain/repository"
)

// Nombres de operación para logs y métricas.
const (
	OpRecordPurchase = "record_purchase"
	OpRecordSale     = "record_sale"
	OpRecordCartSale = "record_cart_sale"
	OpEditSale       = "edit_sale"
	OpDeleteMovement = "delete_movement"
	OpReturnSale     = "return_sale"
	OpMarkCreditPaid = "mark_credit_paid"
)

// Config parámetros del ledger.
type Config struct {
	ReversalMode    inventory.ReversalMode
	DueSoonDays     int
	SequenceRetries int
}

// LedgerUseCase registra compras, ventas y devoluciones con costeo FIFO, y las revierte de forma segura.
// Toda mutación corre en una transacción que bloquea primero las filas de stock afectadas.
type LedgerUseCase struct {
	txRunner      TxRunner
	productRepo   repository.ProductRepository
	warehouseRepo repository.WarehouseRepository
	movementRepo  repository.MovementRepository
	tracker       *credit.Tracker
	validate      *validator.Validate
	cfg           Config
	log           zerolog.Logger
	recorder      Recorder
	onCommit      func()
}

// NewLedgerUseCase construye el caso de uso. movementRepo se usa solo para lecturas fuera de transacción.
func NewLedgerUseCase(
	txRunner TxRunner,
	productRepo repository.ProductRepository,
	warehouseRepo repository.WarehouseRepository,
	movementRepo repository.MovementRepository,
	tracker *credit.Tracker,
	cfg Config,
	log zerolog.Logger,
) *LedgerUseCase {
	if cfg.ReversalMode == "" {
		cfg.ReversalMode = inventory.ReversalExact
	}
	if cfg.DueSoonDays < 0 {
		cfg.DueSoonDays = 0
	}
	if cfg.SequenceRetries <= 0 {
		cfg.SequenceRetries = 3
	}
	return &LedgerUseCase{
		txRunner:      txRunner,
		productRepo:   productRepo,
		warehouseRepo: warehouseRepo,
		movementRepo:  movementRepo,
		tracker:       tracker,
		validate:      newValidator(),
		cfg:           cfg,
		log:           log.With().Str("component", "ledger").Logger(),
		recorder:      noopRecorder{},
	}
}

// WithRecorder asigna el receptor de métricas.
func (uc *LedgerUseCase) WithRecorder(r Recorder) *LedgerUseCase {
	if r != nil {
		uc.recorder = r
	}
	return uc
}

// OnCommit registra una función que se llama después de cada commit exitoso (p. ej. despertar el despachador del outbox).
func (uc *LedgerUseCase) OnCommit(fn func()) *LedgerUseCase {
	uc.onCommit = fn
	return uc
}

// execute corre fn en una transacción, reintenta colisiones de consecutivo y registra el resultado.
func (uc *LedgerUseCase) execute(ctx context.Context, op string, fn func(ctx context.Context, r repository.TxRepos) error) error {
	start := time.Now()
	var err error
	for attempt := 1; attempt <= uc.cfg.SequenceRetries; attempt++ {
		err = uc.txRunner.Run(ctx, fn)
		if !errors.Is(err, domain.ErrSequenceRace) {
			break
		}
		uc.log.Warn().Str("operation", op).Int("attempt", attempt).Msg("colisión de consecutivo, reintentando")
	}
	uc.recorder.ObserveOperation(op, err, time.Since(start))

	switch {
	case err == nil:
		if uc.onCommit != nil {
			uc.onCommit()
		}
	case errors.Is(err, domain.ErrNoApplicableLots):
		uc.log.Error().Err(err).Str("operation", op).Msg("falla de integridad: lotes no cubren el stock")
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrInsufficientStock), errors.Is(err, domain.ErrConflict),
		errors.Is(err, domain.ErrForbidden):
		uc.log.Debug().Err(err).Str("operation", op).Msg("operación rechazada")
	default:
		uc.log.Error().Err(err).Str("operation", op).Msg("operación fallida")
	}
	return err
}

// loadProduct valida que producto y bodega existan y pertenezcan a la empresa del actor.
func (uc *LedgerUseCase) loadProduct(ctx context.Context, actor Actor, productID, warehouseID string) (*entity.Product, error) {
	product, err := uc.productRepo.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.NotFound("producto", productID)
	}
	if product.CompanyID != actor.CompanyID {
		return nil, domain.ErrForbidden
	}
	wh, err := uc.warehouseRepo.GetByID(ctx, warehouseID)
	if err != nil {
		return nil, err
	}
	if wh == nil || wh.CompanyID != actor.CompanyID {
		return nil, domain.NotFound("bodega", warehouseID)
	}
	return product, nil
}

// lockMovement bloquea el movimiento y valida que sea de la empresa del actor.
func lockMovement(ctx context.Context, r repository.TxRepos, actor Actor, id string) (*entity.Movement, error) {
	mov, err := r.Movements.GetForUpdate(ctx, id)
	if err != nil {
		return nil, err
	}
	if mov == nil {
		return nil, domain.NotFound("movimiento", id)
	}
	if mov.CompanyID != actor.CompanyID {
		return nil, domain.ErrForbidden
	}
	return mov, nil
}

// lockStock bloquea las filas de stock en orden determinístico y las retorna por llave.
func lockStock(ctx context.Context, r repository.TxRepos, keys ...entity.StockKey) (map[entity.StockKey]*entity.Stock, error) {
	out := make(map[entity.StockKey]*entity.Stock, len(keys))
	for _, k := range entity.SortedKeys(keys...) {
		st, err := r.Stock.GetForUpdate(ctx, k.ProductID, k.WarehouseID)
		if err != nil {
			return nil, err
		}
		out[k] = st
	}
	return out, nil
}

func nextNumber(ctx context.Context, r repository.TxRepos, scope, prefix string) (string, error) {
	seq, err := r.Sequences.Next(ctx, scope, prefix)
	if err != nil {
		return "", err
	}
	return inventory.FormatNumber(prefix, seq), nil
}

func (uc *LedgerUseCase) movementDate(in *time.Time) time.Time {
	if in == nil || in.IsZero() {
		return uc.tracker.Now()
	}
	return *in
}

func (uc *LedgerUseCase) enqueue(ctx context.Context, r repository.TxRepos, kind, companyID string, payload any) error {
	ev, err := entity.NewOutboxEvent(kind, companyID, payload, uc.tracker.Now())
	if err != nil {
		return err
	}
	return r.Outbox.Enqueue(ctx, ev)
}

// enqueueLowStock pide revisar el umbral de cada fila que bajó.
func (uc *LedgerUseCase) enqueueLowStock(ctx context.Context, r repository.TxRepos, companyID string, keys ...entity.StockKey) error {
	for _, k := range entity.SortedKeys(keys...) {
		payload := entity.LowStockCheckPayload{CompanyID: companyID, ProductID: k.ProductID, WarehouseID: k.WarehouseID}
		if err := uc.enqueue(ctx, r, entity.EventLowStockCheck, companyID, payload); err != nil {
			return err
		}
	}
	return nil
}

func (uc *LedgerUseCase) enqueueCreditRescan(ctx context.Context, r repository.TxRepos, companyID string) error {
	payload := entity.CreditRescanPayload{CompanyID: companyID, RequestedAt: uc.tracker.Now()}
	return uc.enqueue(ctx, r, entity.EventCreditRescan, companyID, payload)
}

// GetMovement retorna un movimiento de la empresa del actor.
func (uc *LedgerUseCase) GetMovement(ctx context.Context, actor Actor, id string) (*entity.Movement, error) {
	mov, err := uc.movementRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if mov == nil {
		return nil, domain.NotFound("movimiento", id)
	}
	if mov.CompanyID != actor.CompanyID {
		return nil, domain.ErrForbidden
	}
	return mov, nil
}

func paymentInput(p dto.PaymentRequest) inventory.PaymentInput {
	return inventory.PaymentInput{Type: p.PaymentType, CashAmount: p.CashAmount, CreditAmount: p.CreditAmount}
}

// Location zona horaria de negocio (fechas de crédito).
func (uc *LedgerUseCase) Location() *time.Location { return uc.tracker.Location() }
