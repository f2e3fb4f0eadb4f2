package http

import (
	"os"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog"
)

// ServerConfig opciones de la app Fiber.
type ServerConfig struct {
	Name        string
	SwaggerFile string // vacío o inexistente = sin /docs
}

// NewApp crea la app con recover, log de peticiones, Swagger opcional y las rutas.
func NewApp(cfg ServerConfig, log zerolog.Logger, deps RouterDeps) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      cfg.Name,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
		BodyLimit:    1 << 20,
		ErrorHandler: ErrorHandler,
	})
	app.Use(RequestLogger(log))
	app.Use(recover.New())

	if cfg.SwaggerFile != "" {
		if _, err := os.Stat(cfg.SwaggerFile); err == nil {
			// UI en http://<host>:<port>/docs
			app.Use(swagger.New(swagger.Config{
				BasePath: "/",
				FilePath: cfg.SwaggerFile,
				Path:     "docs",
				Title:    cfg.Name + " API",
			}))
		} else {
			log.Warn().Str("file", cfg.SwaggerFile).Msg("swagger.json no encontrado, /docs deshabilitado")
		}
	}

	Router(app, deps)
	return app
}
