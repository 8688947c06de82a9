package inventory

import (
	"context"
	"time"

	"github.com/jhoicas/Inventario-ledger/internal/application/dto"
	"github.com/jhoicas/Inventario-ledger/internal/domain"
	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/Inventario-ledger/internal/domain/repository"
)

// MarkCreditPaid marca como pagado el crédito de un movimiento. paid_date por defecto es ahora.
func (uc *LedgerUseCase) MarkCreditPaid(ctx context.Context, actor Actor, id string, in dto.MarkCreditPaidRequest) (*entity.Movement, error) {
	var mov *entity.Movement
	err := uc.execute(ctx, OpMarkCreditPaid, func(ctx context.Context, r repository.TxRepos) error {
		m, err := lockMovement(ctx, r, actor, id)
		if err != nil {
			return err
		}
		if !m.HasCredit() {
			return domain.Invalid("payment_type", "el movimiento es de contado, no tiene crédito")
		}
		if m.CreditPaid {
			return domain.Conflict("el crédito de " + m.MovementNumber + " ya está pagado")
		}
		now := uc.tracker.Now()
		paidDate := now
		if in.PaidDate != nil && !in.PaidDate.IsZero() {
			paidDate = *in.PaidDate
		}
		m.CreditPaid = true
		m.CreditPaidDate = &paidDate
		m.UpdatedAt = now
		if err := r.Movements.Update(ctx, m); err != nil {
			return err
		}
		uc.log.Info().Str("movement_id", m.ID).Str("movement_number", m.MovementNumber).Msg("crédito pagado")
		mov = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	return mov, nil
}

// ListDueCredits lista créditos sin pagar de la empresa que vencen hasta asOf + días de aviso,
// incluidos los vencidos. asOf cero significa hoy.
func (uc *LedgerUseCase) ListDueCredits(ctx context.Context, companyID string, asOf time.Time) ([]entity.Credit, error) {
	if companyID == "" {
		return nil, domain.Invalid("company_id", "es obligatorio")
	}
	today := uc.tracker.Today()
	if !asOf.IsZero() {
		today = uc.tracker.DayOf(asOf)
	}
	limit := today.AddDate(0, 0, uc.cfg.DueSoonDays)
	movs, err := uc.movementRepo.ListOpenCredits(ctx, companyID, limit)
	if err != nil {
		return nil, err
	}
	out := make([]entity.Credit, 0, len(movs))
	for _, m := range movs {
		out = append(out, uc.tracker.View(m, today))
	}
	return out, nil
}
