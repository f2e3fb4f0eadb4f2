package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/tienda-pos/internal/application/usecase"
)

// StatsHandler endpoints de estadísticas (solo lectura, cacheadas).
type StatsHandler struct {
	uc *usecase.StatsUseCase
}

// NewStatsHandler construye el handler.
func NewStatsHandler(uc *usecase.StatsUseCase) *StatsHandler {
	return &StatsHandler{uc: uc}
}

// Summary godoc
// @Summary      Resumen de ventas
// @Description  Sin rango usa el mes en curso. fresh=true ignora la caché.
// @Tags         stats
// @Produce      json
// @Param        from   query  string  false  "Desde (inclusivo)"
// @Param        to     query  string  false  "Hasta (exclusivo)"
// @Param        fresh  query  bool    false  "Ignorar caché"
// @Success      200    {object}  dto.SalesSummaryDTO
// @Failure      400    {object}  dto.ErrorResponse
// @Router       /api/stats/summary [get]
func (h *StatsHandler) Summary(c *fiber.Ctx) error {
	from, to, err := rangeQuery(c)
	if err != nil {
		return writeError(c, err)
	}
	r, err := h.uc.ResolveRange(from, to)
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.Summary(c.UserContext(), r, c.QueryBool("fresh"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// TopProducts godoc
// @Summary      Productos más vendidos
// @Tags         stats
// @Produce      json
// @Param        from   query  string  false  "Desde (inclusivo)"
// @Param        to     query  string  false  "Hasta (exclusivo)"
// @Param        limit  query  int     false  "Límite"  default(10)
// @Param        fresh  query  bool    false  "Ignorar caché"
// @Success      200    {object}  dto.TopProductsDTO
// @Router       /api/stats/top-products [get]
func (h *StatsHandler) TopProducts(c *fiber.Ctx) error {
	from, to, err := rangeQuery(c)
	if err != nil {
		return writeError(c, err)
	}
	r, err := h.uc.ResolveRange(from, to)
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.TopProducts(c.UserContext(), r, c.QueryInt("limit", 10), c.QueryBool("fresh"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Daily godoc
// @Summary      Ventas por día (UTC)
// @Tags         stats
// @Produce      json
// @Param        from   query  string  false  "Desde (inclusivo)"
// @Param        to     query  string  false  "Hasta (exclusivo)"
// @Param        fresh  query  bool    false  "Ignorar caché"
// @Success      200    {object}  dto.DailySalesListDTO
// @Router       /api/stats/daily [get]
func (h *StatsHandler) Daily(c *fiber.Ctx) error {
	from, to, err := rangeQuery(c)
	if err != nil {
		return writeError(c, err)
	}
	r, err := h.uc.ResolveRange(from, to)
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.DailySales(c.UserContext(), r, c.QueryBool("fresh"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Inventory godoc
// @Summary      Valorización del inventario
// @Tags         stats
// @Produce      json
// @Param        fresh  query  bool  false  "Ignorar caché"
// @Success      200    {object}  dto.InventoryValueDTO
// @Router       /api/stats/inventory [get]
func (h *StatsHandler) Inventory(c *fiber.Ctx) error {
	out, err := h.uc.Inventory(c.UserContext(), c.QueryBool("fresh"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}
