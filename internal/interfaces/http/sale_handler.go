package http

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/tienda-pos/internal/application/dto"
	"github.com/jhoicas/tienda-pos/internal/application/sales"
	"github.com/jhoicas/tienda-pos/internal/domain/entity"
)

// SaleHandler endpoints de ventas.
type SaleHandler struct {
	process *sales.ProcessSaleUseCase
	query   *sales.QueryUseCase
	receipt *sales.ReceiptUseCase
}

// NewSaleHandler construye el handler.
func NewSaleHandler(process *sales.ProcessSaleUseCase, query *sales.QueryUseCase, receipt *sales.ReceiptUseCase) *SaleHandler {
	return &SaleHandler{process: process, query: query, receipt: receipt}
}

// Create godoc
// @Summary      Registrar venta
// @Description  Valida el carrito contra el catálogo y confirma la venta de forma atómica.
// @Description  price/cost enviados por el cliente se ignoran para los totales.
// @Tags         sales
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateSaleRequest  true  "Carrito"
// @Success      201   {object}  dto.CreateSaleResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      500   {object}  dto.ErrorResponse
// @Router       /api/sales [post]
func (h *SaleHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateSaleRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	cart := sales.Cart{Items: make([]sales.CartLine, 0, len(in.Items))}
	for _, l := range in.Items {
		cart.Items = append(cart.Items, sales.CartLine{
			ProductID: l.ProductID, Quantity: l.Quantity, Price: l.Price, Cost: l.Cost,
		})
	}
	res, err := h.process.ProcessSale(c.UserContext(), cart)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.CreateSaleResponse{
		SaleID: res.SaleID, Total: res.Total, Profit: res.Profit, CreatedAt: res.CreatedAt,
	})
}

// List godoc
// @Summary      Listar ventas
// @Tags         sales
// @Produce      json
// @Param        from    query  string  false  "Desde (RFC3339 o YYYY-MM-DD, inclusivo)"
// @Param        to      query  string  false  "Hasta (exclusivo)"
// @Param        limit   query  int     false  "Límite"  default(50)
// @Param        offset  query  int     false  "Offset"  default(0)
// @Success      200     {object}  dto.SaleListResponse
// @Failure      400     {object}  dto.ErrorResponse
// @Router       /api/sales [get]
func (h *SaleHandler) List(c *fiber.Ctx) error {
	from, to, err := rangeQuery(c)
	if err != nil {
		return writeError(c, err)
	}
	page, err := h.query.ListSales(c.UserContext(), from, to, c.QueryInt("limit", 50), c.QueryInt("offset", 0))
	if err != nil {
		return writeError(c, err)
	}
	out := dto.SaleListResponse{
		Items: make([]dto.SaleResponse, 0, len(page.Sales)),
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset},
	}
	for _, s := range page.Sales {
		out.Items = append(out.Items, toSaleResponse(s))
	}
	return c.JSON(out)
}

// GetByID godoc
// @Summary      Obtener venta con sus líneas
// @Tags         sales
// @Produce      json
// @Param        id   path  int  true  "ID de la venta"
// @Success      200  {object}  dto.SaleResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/sales/{id} [get]
func (h *SaleHandler) GetByID(c *fiber.Ctx) error {
	id, err := idParam(c)
	if err != nil {
		return writeError(c, err)
	}
	s, err := h.query.GetSale(c.UserContext(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toSaleResponse(s))
}

// Receipt godoc
// @Summary      Comprobante PDF de la venta
// @Tags         sales
// @Produce      application/pdf
// @Param        id   path  int  true  "ID de la venta"
// @Success      200  {file}    binary
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/sales/{id}/receipt [get]
func (h *SaleHandler) Receipt(c *fiber.Ctx) error {
	id, err := idParam(c)
	if err != nil {
		return writeError(c, err)
	}
	pdf, err := h.receipt.GetReceiptPDF(c.UserContext(), id)
	if err != nil {
		return writeError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`inline; filename="venta-%d.pdf"`, id))
	return c.Send(pdf)
}

func toSaleResponse(s *entity.Sale) dto.SaleResponse {
	out := dto.SaleResponse{ID: s.ID, Total: s.Total, Profit: s.Profit, CreatedAt: s.CreatedAt}
	for _, it := range s.Items {
		out.Items = append(out.Items, dto.SaleItemResponse{
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			Price:       it.Price,
			Cost:        it.Cost,
			Quantity:    it.Quantity,
			Subtotal:    it.Subtotal(),
		})
	}
	return out
}
