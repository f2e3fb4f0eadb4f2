package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product representa un producto del catálogo de la tienda.
// Stock solo baja por ventas (procesador de ventas) o por ajustes del catálogo.
type Product struct {
	ID        int64
	Name      string
	Category  string
	Barcode   *string         // opcional; único cuando existe
	Cost      decimal.Decimal // costo unitario de adquisición
	Price     decimal.Decimal // precio unitario de venta
	Stock     int             // unidades disponibles, nunca negativo
	MinStock  int             // umbral de reposición
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsLowStock indica si el producto está en o por debajo del umbral de reposición.
func (p *Product) IsLowStock() bool {
	return p.Stock <= p.MinStock
}
