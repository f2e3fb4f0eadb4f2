package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/tienda-pos/internal/application/inventory"
)

// InventoryHandler endpoints de reposición.
type InventoryHandler struct {
	replenishment *inventory.ReplenishmentUseCase
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(replenishment *inventory.ReplenishmentUseCase) *InventoryHandler {
	return &InventoryHandler{replenishment: replenishment}
}

// Replenishment godoc
// @Summary      Lista de reposición
// @Description  Productos en o bajo el stock mínimo con la cantidad sugerida de pedido,
// @Description  priorizados por margen y ventas de los últimos 90 días.
// @Tags         inventory
// @Produce      json
// @Success      200  {array}   dto.ReplenishmentSuggestionDTO
// @Failure      500  {object}  dto.ErrorResponse
// @Router       /api/inventory/replenishment [get]
func (h *InventoryHandler) Replenishment(c *fiber.Ctx) error {
	out, err := h.replenishment.GenerateReplenishmentList(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}
