package http

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Pinger dependencia verificable por /health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Sales     *SaleHandler
	Products  *ProductHandler
	Stats     *StatsHandler
	Inventory *InventoryHandler
	Chatbot   *ChatbotHandler
	// Checks nombre → dependencia; /health responde 503 si alguna falla.
	Checks map[string]Pinger
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	app.Get("/health", health(deps.Checks))

	api := app.Group("/api")

	sales := api.Group("/sales")
	sales.Post("/", deps.Sales.Create)
	sales.Get("/", deps.Sales.List)
	sales.Get("/:id", deps.Sales.GetByID)
	sales.Get("/:id/receipt", deps.Sales.Receipt)

	products := api.Group("/products")
	products.Post("/", deps.Products.Create)
	products.Get("/", deps.Products.List)
	products.Get("/low-stock", deps.Products.LowStock)
	products.Get("/barcode/:code", deps.Products.GetByBarcode)
	products.Get("/:id", deps.Products.GetByID)
	products.Put("/:id", deps.Products.Update)
	products.Delete("/:id", deps.Products.Delete)
	products.Post("/:id/restock", deps.Products.Restock)

	stats := api.Group("/stats")
	stats.Get("/summary", deps.Stats.Summary)
	stats.Get("/top-products", deps.Stats.TopProducts)
	stats.Get("/daily", deps.Stats.Daily)
	stats.Get("/inventory", deps.Stats.Inventory)

	api.Get("/inventory/replenishment", deps.Inventory.Replenishment)

	api.Post("/chatbot", deps.Chatbot.Ask)
}

// health godoc
// @Summary      Estado del servicio
// @Tags         health
// @Produce      json
// @Success      200  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /health [get]
func health(checks map[string]Pinger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		out := fiber.Map{"status": "ok"}
		status := fiber.StatusOK
		for name, p := range checks {
			if err := p.Ping(ctx); err != nil {
				out[name] = err.Error()
				out["status"] = "degraded"
				status = fiber.StatusServiceUnavailable
				continue
			}
			out[name] = "ok"
		}
		return c.Status(status).JSON(out)
	}
}

// ErrorHandler respuesta JSON para errores no manejados (404 de ruta, pánicos recuperados).
func ErrorHandler(c *fiber.Ctx, err error) error {
	if fe, ok := err.(*fiber.Error); ok {
		code := "INTERNAL"
		switch fe.Code {
		case fiber.StatusNotFound:
			code = "NOT_FOUND"
		case fiber.StatusMethodNotAllowed:
			code = "METHOD_NOT_ALLOWED"
		case fiber.StatusRequestEntityTooLarge:
			code = "INVALID_BODY"
		}
		return fail(c, fe.Code, code, fe.Message, nil)
	}
	return writeError(c, err)
}
