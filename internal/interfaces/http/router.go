package http

import (
	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Sync      *SyncHandler
	JWTSecret string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	// Documentación OpenAPI (estática, servida desde docs/)
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api")

	// Rutas protegidas (requieren Bearer Token de servicio)
	protected := api.Group("/sync", AuthMiddleware(deps.JWTSecret))

	// Disparo manual de corridas (solo ops y scheduler)
	trigger := protected.Group("/", RequireRole(RoleOps, RoleScheduler))
	trigger.Post("/inventory", deps.Sync.TriggerInventory)
	trigger.Post("/orders", deps.Sync.TriggerOrders)
	trigger.Post("/returns", deps.Sync.TriggerReturns)

	// Consulta de corridas (cualquier token válido)
	protected.Get("/runs/:id", deps.Sync.GetRun)
}
