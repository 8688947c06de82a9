package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/rs/zerolog"

	"github.com/jhoicas/Inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/Inventario-ledger/pkg/jwt"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Ledger      *inventory.LedgerUseCase
	JWTSecret   string
	ServiceName string
	Logger      zerolog.Logger
	Metrics     http.Handler                    // opcional: /metrics
	HealthCheck func(ctx context.Context) error // opcional: ping a la BD
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	app.Get("/health", func(c *fiber.Ctx) error {
		if deps.HealthCheck != nil {
			ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
			defer cancel()
			if err := deps.HealthCheck(ctx); err != nil {
				return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "degraded", "service": deps.ServiceName})
			}
		}
		return c.JSON(fiber.Map{"status": "ok", "service": deps.ServiceName})
	})
	if deps.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(deps.Metrics))
	}

	api := app.Group("/api")

	// Rutas protegidas (requieren Bearer Token)
	ledger := api.Group("/ledger", AuthMiddleware(deps.JWTSecret))
	h := NewLedgerHandler(deps.Ledger, deps.Logger)

	buyers := RequireRole(jwt.RoleAdmin, jwt.RoleBodeguero)
	sellers := RequireRole(jwt.RoleAdmin, jwt.RoleVendedor)
	anyRole := RequireRole(jwt.RoleAdmin, jwt.RoleBodeguero, jwt.RoleVendedor)
	adminOnly := RequireRole(jwt.RoleAdmin)

	ledger.Post("/purchases", buyers, h.RecordPurchase)
	ledger.Post("/sales", sellers, h.RecordSale)
	ledger.Post("/carts", sellers, h.RecordCartSale)
	ledger.Put("/sales/:id", adminOnly, h.EditSale)
	ledger.Post("/sales/:id/returns", sellers, h.ReturnSale)

	ledger.Get("/movements/:id", anyRole, h.GetMovement)
	ledger.Delete("/movements/:id", adminOnly, h.DeleteMovement)
	ledger.Post("/movements/:id/pay", sellers, h.MarkCreditPaid)

	ledger.Get("/credits/due", sellers, h.ListDueCredits)
}
