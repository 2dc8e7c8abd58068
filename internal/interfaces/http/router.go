package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/nfe-api/internal/application/billing"
	"github.com/jhoicas/nfe-api/pkg/jwt"
	"github.com/jhoicas/nfe-api/pkg/logger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	EmitInvoice *billing.EmitInvoiceUseCase
	JWTSecret   string
	Log         *logger.Logger
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api")

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	nfe := protected.Group("/nfe")
	nfeHandler := NewNFeHandler(deps.EmitInvoice, deps.Log)
	nfe.Post("/", RequireRole(jwt.RoleEmitter), nfeHandler.Emit)
	nfe.Post("/access-key", RequireRole(jwt.RoleEmitter, jwt.RoleViewer), nfeHandler.AccessKey)
	nfe.Get("/certificate", RequireRole(jwt.RoleEmitter, jwt.RoleViewer), nfeHandler.Certificate)
}
