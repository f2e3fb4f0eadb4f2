package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/tienda-pos/internal/application/dto"
	"github.com/jhoicas/tienda-pos/internal/domain"
)

func fail(c *fiber.Ctx, status int, code, msg string, details any) error {
	return c.Status(status).JSON(dto.ErrorResponse{Error: msg, Code: code, Details: details})
}

func badBody(c *fiber.Ctx) error {
	return fail(c, fiber.StatusBadRequest, "INVALID_BODY", "cuerpo de la petición inválido", nil)
}

// writeError traduce errores de dominio a status + código. Los errores de la venta
// (producto inexistente incluido) son 400; ErrNotFound de un recurso pedido por id es 404.
func writeError(c *fiber.Ctx, err error) error {
	var (
		line   *domain.InvalidLineError
		notFnd *domain.ProductNotFoundError
		stock  *domain.InsufficientStockError
	)
	switch {
	case errors.Is(err, domain.ErrEmptyCart):
		return fail(c, fiber.StatusBadRequest, "EMPTY_CART", err.Error(), nil)
	case errors.As(err, &line):
		return fail(c, fiber.StatusBadRequest, "INVALID_LINE", err.Error(),
			fiber.Map{"index": line.Index, "reason": line.Reason})
	case errors.As(err, &notFnd):
		return fail(c, fiber.StatusBadRequest, "PRODUCT_NOT_FOUND", err.Error(),
			fiber.Map{"product_id": notFnd.ProductID})
	case errors.As(err, &stock):
		return fail(c, fiber.StatusBadRequest, "INSUFFICIENT_STOCK", err.Error(),
			fiber.Map{"product_id": stock.ProductID, "requested": stock.Requested, "available": stock.Available})
	case errors.Is(err, domain.ErrInsufficientStock):
		return fail(c, fiber.StatusBadRequest, "INSUFFICIENT_STOCK", err.Error(), nil)
	case errors.Is(err, domain.ErrInvalidInput):
		return fail(c, fiber.StatusBadRequest, "INVALID_INPUT", err.Error(), nil)
	case errors.Is(err, domain.ErrNotFound):
		return fail(c, fiber.StatusNotFound, "NOT_FOUND", err.Error(), nil)
	case errors.Is(err, domain.ErrDuplicate):
		return fail(c, fiber.StatusConflict, "DUPLICATE", err.Error(), nil)
	case errors.Is(err, domain.ErrConflict):
		return fail(c, fiber.StatusConflict, "CONFLICT", err.Error(), nil)
	}
	zerolog.Ctx(c.UserContext()).Error().Err(err).Str("path", c.Path()).Msg("error interno")
	return fail(c, fiber.StatusInternalServerError, "INTERNAL", "error interno", nil)
}
