package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// SaleLineRequest línea del carrito. price/cost se aceptan pero no se usan para los totales.
type SaleLineRequest struct {
	ProductID int64            `json:"product_id"`
	Quantity  int              `json:"quantity"`
	Price     *decimal.Decimal `json:"price,omitempty"`
	Cost      *decimal.Decimal `json:"cost,omitempty"`
}

// CreateSaleRequest carrito propuesto.
type CreateSaleRequest struct {
	Items []SaleLineRequest `json:"items"`
}

// CreateSaleResponse resultado de una venta confirmada.
type CreateSaleResponse struct {
	SaleID    int64           `json:"sale_id"`
	Total     decimal.Decimal `json:"total"`
	Profit    decimal.Decimal `json:"profit"`
	CreatedAt time.Time       `json:"created_at"`
}

// SaleItemResponse línea de una venta registrada.
type SaleItemResponse struct {
	ProductID   int64           `json:"product_id"`
	ProductName string          `json:"product_name"`
	Price       decimal.Decimal `json:"price"`
	Cost        decimal.Decimal `json:"cost"`
	Quantity    int             `json:"quantity"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

// SaleResponse venta con o sin líneas.
type SaleResponse struct {
	ID        int64              `json:"id"`
	Total     decimal.Decimal    `json:"total"`
	Profit    decimal.Decimal    `json:"profit"`
	CreatedAt time.Time          `json:"created_at"`
	Items     []SaleItemResponse `json:"items,omitempty"`
}

// SaleListResponse lista paginada de ventas.
type SaleListResponse struct {
	Items []SaleResponse `json:"items"`
	Page  PageResponse   `json:"page"`
}
