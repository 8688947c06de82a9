package credit

import (
	"fmt"
	"math"
	"time"

	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
)

// DefaultUTCOffsetHours es la zona de negocio (Colombia, UTC−5, sin horario de verano).
const DefaultUTCOffsetHours = -5

// Tracker calcula vencimientos y estados de crédito en días calendario de la zona de negocio,
// sin depender de la zona horaria del servidor.
type Tracker struct {
	loc *time.Location
	now func() time.Time
}

// NewTracker crea un Tracker con zona fija UTC+offsetHours.
func NewTracker(offsetHours int) *Tracker {
	name := fmt.Sprintf("UTC%+03d", offsetHours)
	return &Tracker{
		loc: time.FixedZone(name, offsetHours*3600),
		now: time.Now,
	}
}

// WithClock reemplaza el reloj (tests).
func (t *Tracker) WithClock(now func() time.Time) *Tracker {
	t.now = now
	return t
}

// Location retorna la zona de negocio.
func (t *Tracker) Location() *time.Location { return t.loc }

// Now retorna el instante actual del reloj configurado.
func (t *Tracker) Now() time.Time { return t.now() }

// Today es la medianoche de hoy en la zona de negocio.
func (t *Tracker) Today() time.Time { return t.DayOf(t.now()) }

// DayOf lleva un instante a la medianoche de su día en la zona de negocio.
func (t *Tracker) DayOf(ts time.Time) time.Time {
	local := ts.In(t.loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, t.loc)
}

// DueDate = día del movimiento + creditDays días calendario. Nil si no hay plazo o la venta es de contado.
func (t *Tracker) DueDate(paymentType string, movementDate time.Time, creditDays int) *time.Time {
	if creditDays <= 0 {
		return nil
	}
	if paymentType != entity.PaymentCredit && paymentType != entity.PaymentMixed {
		return nil
	}
	due := t.DayOf(movementDate).AddDate(0, 0, creditDays)
	return &due
}

// Status calcula el estado del crédito frente a today (medianoche de negocio).
// Vencer hoy no es mora.
func (t *Tracker) Status(paid bool, dueDate *time.Time, today time.Time) (entity.CreditStatus, int) {
	if paid {
		return entity.CreditPaid, 0
	}
	if dueDate == nil {
		return entity.CreditPending, 0
	}
	due := t.DayOf(*dueDate)
	if due.Before(today) {
		return entity.CreditOverdue, DaysBetween(due, today)
	}
	return entity.CreditPending, 0
}

// View arma la vista de cartera de un movimiento con crédito.
func (t *Tracker) View(m *entity.Movement, today time.Time) entity.Credit {
	status, overdue := t.Status(m.CreditPaid, m.CreditDueDate, today)
	c := entity.Credit{
		MovementID:     m.ID,
		MovementNumber: m.MovementNumber,
		MovementType:   m.Type,
		CompanyID:      m.CompanyID,
		CustomerID:     m.CustomerID,
		ProductID:      m.ProductID,
		Status:         status,
		DaysOverdue:    overdue,
	}
	if m.CreditAmount != nil {
		c.Amount = *m.CreditAmount
	}
	if m.CreditDueDate != nil {
		c.DueDate = t.DayOf(*m.CreditDueDate)
		if status == entity.CreditPending {
			c.DaysUntilDue = DaysBetween(today, c.DueDate)
		}
	}
	return c
}

// DaysBetween = floor((to − from) / 24h).
func DaysBetween(from, to time.Time) int {
	return int(math.Floor(to.Sub(from).Hours() / 24))
}
