package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/Inventario-ledger/internal/application/dto"
	"github.com/jhoicas/Inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
)

// LedgerHandler maneja compras, ventas, devoluciones y cartera (protegido).
type LedgerHandler struct {
	uc  *inventory.LedgerUseCase
	log zerolog.Logger
}

// NewLedgerHandler construye el handler.
func NewLedgerHandler(uc *inventory.LedgerUseCase, log zerolog.Logger) *LedgerHandler {
	return &LedgerHandler{uc: uc, log: log.With().Str("component", "http").Logger()}
}

func badBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
}

// RecordPurchase godoc
// @Summary      Registrar compra (crea lote ING)
// @Tags         ledger
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RecordPurchaseRequest  true  "producto, bodega, cantidad, costo unitario y pago"
// @Success      201   {object}  dto.MovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/ledger/purchases [post]
func (h *LedgerHandler) RecordPurchase(c *fiber.Ctx) error {
	var in dto.RecordPurchaseRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	mov, err := h.uc.RecordPurchase(c.UserContext(), actorFrom(c), in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toMovementResponse(mov))
}

// RecordSale godoc
// @Summary      Registrar venta con costeo FIFO
// @Tags         ledger
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RecordSaleRequest  true  "producto, bodega, cantidad, precio, pago y envío"
// @Success      201   {object}  dto.MovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse  "INSUFFICIENT_STOCK con details.available"
// @Router       /api/ledger/sales [post]
func (h *LedgerHandler) RecordSale(c *fiber.Ctx) error {
	var in dto.RecordSaleRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	mov, err := h.uc.RecordSale(c.UserContext(), actorFrom(c), in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toMovementResponse(mov))
}

// RecordCartSale godoc
// @Summary      Registrar carrito: una venta por línea con pago prorrateado
// @Tags         ledger
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CartSaleRequest  true  "bodega, líneas y selección global de pago"
// @Success      201   {object}  dto.ListResponse[dto.MovementResponse]
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/ledger/carts [post]
func (h *LedgerHandler) RecordCartSale(c *fiber.Ctx) error {
	var in dto.CartSaleRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	movs, err := h.uc.RecordCartSale(c.UserContext(), actorFrom(c), in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	items := make([]dto.MovementResponse, 0, len(movs))
	for _, m := range movs {
		items = append(items, toMovementResponse(m))
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ListResponse[dto.MovementResponse]{Items: items, Total: len(items)})
}

// EditSale godoc
// @Summary      Editar venta (revierte y recalcula FIFO en una transacción)
// @Tags         ledger
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                 true  "ID de la venta"
// @Param        body  body  dto.RecordSaleRequest  true  "nuevos valores"
// @Success      200   {object}  dto.MovementResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/ledger/sales/{id} [put]
func (h *LedgerHandler) EditSale(c *fiber.Ctx) error {
	var in dto.RecordSaleRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	mov, err := h.uc.EditSale(c.UserContext(), actorFrom(c), c.Params("id"), in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(toMovementResponse(mov))
}

// ReturnSale godoc
// @Summary      Devolución parcial o total de una venta (crea lote DEV)
// @Tags         ledger
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                 true  "ID de la venta"
// @Param        body  body  dto.ReturnSaleRequest  true  "cantidad a devolver"
// @Success      201   {object}  dto.MovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/ledger/sales/{id}/returns [post]
func (h *LedgerHandler) ReturnSale(c *fiber.Ctx) error {
	var in dto.ReturnSaleRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	mov, err := h.uc.ReturnSale(c.UserContext(), actorFrom(c), c.Params("id"), in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toMovementResponse(mov))
}

// GetMovement godoc
// @Summary      Obtener movimiento
// @Tags         ledger
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del movimiento"
// @Success      200  {object}  dto.MovementResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/ledger/movements/{id} [get]
func (h *LedgerHandler) GetMovement(c *fiber.Ctx) error {
	mov, err := h.uc.GetMovement(c.UserContext(), actorFrom(c), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(toMovementResponse(mov))
}

// DeleteMovement godoc
// @Summary      Borrar movimiento revirtiendo stock y lotes
// @Tags         ledger
// @Security     Bearer
// @Param        id   path  string  true  "ID del movimiento"
// @Success      204
// @Failure      409  {object}  dto.ErrorResponse  "lote ya consumido o venta con devoluciones"
// @Router       /api/ledger/movements/{id} [delete]
func (h *LedgerHandler) DeleteMovement(c *fiber.Ctx) error {
	if err := h.uc.DeleteMovement(c.UserContext(), actorFrom(c), c.Params("id")); err != nil {
		return writeError(c, h.log, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// MarkCreditPaid godoc
// @Summary      Marcar crédito como pagado
// @Tags         credits
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                     true   "ID del movimiento"
// @Param        body  body  dto.MarkCreditPaidRequest  false  "paid_date (por defecto ahora)"
// @Success      200   {object}  dto.MovementResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/ledger/movements/{id}/pay [post]
func (h *LedgerHandler) MarkCreditPaid(c *fiber.Ctx) error {
	var in dto.MarkCreditPaidRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&in); err != nil {
			return badBody(c)
		}
	}
	mov, err := h.uc.MarkCreditPaid(c.UserContext(), actorFrom(c), c.Params("id"), in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(toMovementResponse(mov))
}

// ListDueCredits godoc
// @Summary      Créditos vencidos y por vencer
// @Tags         credits
// @Security     Bearer
// @Produce      json
// @Param        as_of  query  string  false  "fecha YYYY-MM-DD en la zona de negocio (por defecto hoy)"
// @Success      200    {object}  dto.ListResponse[dto.CreditResponse]
// @Failure      400    {object}  dto.ErrorResponse
// @Router       /api/ledger/credits/due [get]
func (h *LedgerHandler) ListDueCredits(c *fiber.Ctx) error {
	loc := h.uc.Location()
	var asOf time.Time
	if raw := c.Query("as_of"); raw != "" {
		parsed, err := time.ParseInLocation("2006-01-02", raw, loc)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "as_of debe tener formato YYYY-MM-DD"})
		}
		asOf = parsed
	}
	credits, err := h.uc.ListDueCredits(c.UserContext(), GetCompanyID(c), asOf)
	if err != nil {
		return writeError(c, h.log, err)
	}
	items := make([]dto.CreditResponse, 0, len(credits))
	for _, cr := range credits {
		items = append(items, dto.CreditResponse{
			MovementID:     cr.MovementID,
			MovementNumber: cr.MovementNumber,
			MovementType:   cr.MovementType,
			CustomerID:     cr.CustomerID,
			ProductID:      cr.ProductID,
			Amount:         cr.Amount,
			DueDate:        cr.DueDate.In(loc).Format("2006-01-02"),
			Status:         string(cr.Status),
			DaysOverdue:    cr.DaysOverdue,
			DaysUntilDue:   cr.DaysUntilDue,
		})
	}
	return c.JSON(dto.ListResponse[dto.CreditResponse]{Items: items, Total: len(items)})
}

func toMovementResponse(m *entity.Movement) dto.MovementResponse {
	return dto.MovementResponse{
		ID:             m.ID,
		MovementNumber: m.MovementNumber,
		Type:           m.Type,
		ProductID:      m.ProductID,
		WarehouseID:    m.WarehouseID,
		BatchID:        m.BatchID,
		Quantity:       m.Quantity,
		UnitPrice:      m.UnitPrice,
		TotalAmount:    m.TotalAmount,
		UnitCost:       m.UnitCost,
		Profit:         m.Profit,
		PaymentType:    m.PaymentType,
		CashAmount:     m.CashAmount,
		CreditAmount:   m.CreditAmount,
		CreditDays:     m.CreditDays,
		CreditDueDate:  m.CreditDueDate,
		CreditPaid:     m.CreditPaid,
		CreditPaidDate: m.CreditPaidDate,
		HasShipping:    m.HasShipping,
		ShippingCost:   m.ShippingCost,
		ShippingPaidBy: m.ShippingPaidBy,
		CustomerID:     m.CustomerID,
		ReturnOfID:     m.ReturnOfID,
		Notes:          m.Notes,
		MovementDate:   m.MovementDate,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}
