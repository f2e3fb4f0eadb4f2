package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/tienda-pos/internal/application/chatbot"
	"github.com/jhoicas/tienda-pos/internal/application/dto"
)

// ChatbotHandler asistente de consultas en texto libre.
type ChatbotHandler struct {
	uc *chatbot.UseCase
}

// NewChatbotHandler construye el handler.
func NewChatbotHandler(uc *chatbot.UseCase) *ChatbotHandler {
	return &ChatbotHandler{uc: uc}
}

// Ask godoc
// @Summary      Preguntar al asistente
// @Description  Responde sobre precios, stock, más vendidos, valor del inventario y ventas.
// @Tags         chatbot
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ChatbotRequest  true  "Mensaje"
// @Success      200   {object}  dto.ChatbotResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/chatbot [post]
func (h *ChatbotHandler) Ask(c *fiber.Ctx) error {
	var in dto.ChatbotRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.Ask(c.UserContext(), in.Message)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}
