package alerting

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/jhoicas/Inventario-ledger/internal/domain"
	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/Inventario-ledger/internal/domain/repository"
)

// Resultados de una revisión.
const (
	ResultNotified = "notified"
	ResultSkipped  = "skipped"
	ResultFailed   = "failed"
)

const rescanLockTTL = 30 * time.Second

// CreditLister lista créditos por vencer de una empresa (inventory.LedgerUseCase).
type CreditLister interface {
	ListDueCredits(ctx context.Context, companyID string, asOf time.Time) ([]entity.Credit, error)
}

// Guard evita que dos workers recalculen la cartera de la misma empresa a la vez.
// ok=false significa que otro proceso tiene el lock.
type Guard interface {
	TryAcquire(ctx context.Context, key string, ttl time.Duration) (release func(), ok bool, err error)
}

// Recorder recibe el resultado de cada revisión (métricas).
type Recorder interface {
	ObserveAlert(kind, result string)
}

type noopRecorder struct{}

func (noopRecorder) ObserveAlert(string, string) {}

// Service convierte eventos del outbox en notificaciones. Solo lee el ledger.
type Service struct {
	products repository.ProductRepository
	stock    repository.StockRepository
	credits  CreditLister
	notifier Notifier
	guard    Guard
	recorder Recorder
	log      zerolog.Logger
}

// NewService construye el servicio de alertas.
func NewService(
	products repository.ProductRepository,
	stock repository.StockRepository,
	credits CreditLister,
	notifier Notifier,
	log zerolog.Logger,
) *Service {
	return &Service{
		products: products,
		stock:    stock,
		credits:  credits,
		notifier: notifier,
		recorder: noopRecorder{},
		log:      log.With().Str("component", "alerting").Logger(),
	}
}

// WithGuard asigna el lock distribuido del recálculo de cartera.
func (s *Service) WithGuard(g Guard) *Service {
	s.guard = g
	return s
}

// WithRecorder asigna el receptor de métricas.
func (s *Service) WithRecorder(r Recorder) *Service {
	if r != nil {
		s.recorder = r
	}
	return s
}

// Handle despacha un evento del outbox según su tipo.
func (s *Service) Handle(ctx context.Context, ev *entity.OutboxEvent) error {
	switch ev.Kind {
	case entity.EventLowStockCheck:
		var p entity.LowStockCheckPayload
		if err := json.Unmarshal(ev.Payload, &p); err != nil {
			return domain.Invalid("payload", "low_stock_check ilegible: "+err.Error())
		}
		_, err := s.CheckLowStock(ctx, p)
		return err
	case entity.EventCreditRescan:
		var p entity.CreditRescanPayload
		if err := json.Unmarshal(ev.Payload, &p); err != nil {
			return domain.Invalid("payload", "credit_rescan ilegible: "+err.Error())
		}
		_, err := s.RescanCredits(ctx, p)
		return err
	}
	return domain.Invalid("kind", fmt.Sprintf("tipo de evento desconocido: %q", ev.Kind))
}

// CheckLowStock relee el stock y notifica si quedó por debajo del umbral del producto.
func (s *Service) CheckLowStock(ctx context.Context, p entity.LowStockCheckPayload) (string, error) {
	result, err := s.checkLowStock(ctx, p)
	s.recorder.ObserveAlert(entity.EventLowStockCheck, result)
	return result, err
}

func (s *Service) checkLowStock(ctx context.Context, p entity.LowStockCheckPayload) (string, error) {
	product, err := s.products.GetByID(ctx, p.ProductID)
	if err != nil {
		return ResultFailed, fmt.Errorf("get product: %w", err)
	}
	if product == nil || product.MinStockThreshold <= 0 {
		return ResultSkipped, nil
	}
	st, err := s.stock.Get(ctx, p.ProductID, p.WarehouseID)
	if err != nil {
		return ResultFailed, fmt.Errorf("get stock: %w", err)
	}
	if st.Quantity >= product.MinStockThreshold {
		return ResultSkipped, nil
	}
	ev := LowStockEvent{
		CompanyID:    product.CompanyID,
		ProductID:    product.ID,
		ProductName:  product.Name,
		WarehouseID:  p.WarehouseID,
		CurrentStock: st.Quantity,
		Threshold:    product.MinStockThreshold,
	}
	if err := s.notifier.NotifyLowStock(ctx, ev); err != nil {
		s.log.Warn().Err(err).Str("product_id", p.ProductID).Str("warehouse_id", p.WarehouseID).Msg("notificar stock bajo")
		return ResultFailed, err
	}
	return ResultNotified, nil
}

// RescanCredits recalcula los créditos por vencer de la empresa y los notifica en un solo lote.
// Si otro worker tiene el lock de la empresa, no hace nada.
func (s *Service) RescanCredits(ctx context.Context, p entity.CreditRescanPayload) (string, error) {
	result, err := s.rescanCredits(ctx, p)
	s.recorder.ObserveAlert(entity.EventCreditRescan, result)
	return result, err
}

func (s *Service) rescanCredits(ctx context.Context, p entity.CreditRescanPayload) (string, error) {
	if s.guard != nil {
		release, ok, err := s.guard.TryAcquire(ctx, "credit_rescan:"+p.CompanyID, rescanLockTTL)
		if err != nil {
			return ResultFailed, fmt.Errorf("lock credit rescan: %w", err)
		}
		if !ok {
			s.log.Debug().Str("company_id", p.CompanyID).Msg("recálculo de cartera en curso en otro worker")
			return ResultSkipped, nil
		}
		defer release()
	}

	credits, err := s.credits.ListDueCredits(ctx, p.CompanyID, time.Time{})
	if err != nil {
		return ResultFailed, err
	}
	if len(credits) == 0 {
		return ResultSkipped, nil
	}
	events := make([]CreditDueEvent, 0, len(credits))
	for _, c := range credits {
		events = append(events, creditEvent(c))
	}
	if err := s.notifier.NotifyCreditsDue(ctx, events); err != nil {
		s.log.Warn().Err(err).Str("company_id", p.CompanyID).Int("credits", len(events)).Msg("notificar cartera")
		return ResultFailed, err
	}
	return ResultNotified, nil
}
