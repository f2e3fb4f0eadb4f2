package http

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/tienda-pos/internal/domain"
)

func idParam(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: id debe ser un entero positivo", domain.ErrInvalidInput)
	}
	return id, nil
}

// timeQuery acepta RFC3339 o YYYY-MM-DD (UTC). Vacío = nil.
func timeQuery(c *fiber.Ctx, key string) (*time.Time, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339Nano, time.DateOnly} {
		if t, err := time.Parse(layout, raw); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, fmt.Errorf("%w: %s debe ser RFC3339 o YYYY-MM-DD", domain.ErrInvalidInput, key)
}

func rangeQuery(c *fiber.Ctx) (from, to *time.Time, err error) {
	if from, err = timeQuery(c, "from"); err != nil {
		return nil, nil, err
	}
	if to, err = timeQuery(c, "to"); err != nil {
		return nil, nil, err
	}
	return from, to, nil
}
