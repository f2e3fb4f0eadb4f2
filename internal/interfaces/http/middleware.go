package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const headerRequestID = "X-Request-ID"

// RequestLogger asigna un request id, deja un logger con ese id en el contexto
// y registra cada petición al terminar.
func RequestLogger(base zerolog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		rid := c.Get(headerRequestID)
		if _, err := uuid.Parse(rid); err != nil {
			rid = uuid.NewString()
		}
		c.Set(headerRequestID, rid)
		c.Locals("request_id", rid)

		log := base.With().Str("request_id", rid).Logger()
		c.SetUserContext(log.WithContext(c.UserContext()))

		err := c.Next()
		if err != nil {
			// el error handler de fiber escribe la respuesta; aquí solo se registra
			if herr := c.App().ErrorHandler(c, err); herr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		status := c.Response().StatusCode()
		ev := log.Info()
		if status >= fiber.StatusInternalServerError {
			ev = log.Error()
		}
		ev.Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Msg("petición HTTP")
		return nil
	}
}

// GetRequestID request id de la petición actual.
func GetRequestID(c *fiber.Ctx) string {
	v, _ := c.Locals("request_id").(string)
	return v
}
