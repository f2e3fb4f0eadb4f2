package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Sale cabecera de una venta. Inmutable una vez creada: Total y Profit
// siempre se pueden reconstruir sumando sus líneas.
type Sale struct {
	ID        int64
	Total     decimal.Decimal
	Profit    decimal.Decimal
	CreatedAt time.Time
	Items     []SaleItem
}

// SaleItem línea de una venta. ProductName, Price y Cost son copias del producto
// al momento de la venta; ediciones posteriores del catálogo no las alteran.
type SaleItem struct {
	ID          int64
	SaleID      int64
	ProductID   int64
	ProductName string
	Price       decimal.Decimal
	Cost        decimal.Decimal
	Quantity    int
}

// Subtotal precio × cantidad.
func (i SaleItem) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Profit (precio − costo) × cantidad.
func (i SaleItem) Profit() decimal.Decimal {
	return i.Price.Sub(i.Cost).Mul(decimal.NewFromInt(int64(i.Quantity)))
}
