package repository

import (
	"context"
	"time"

	"github.com/jhoicas/tienda-pos/internal/domain/entity"
)

// SaleFilter filtros para listar ventas. From/To nil = sin límite.
type SaleFilter struct {
	From   *time.Time
	To     *time.Time
	Limit  int
	Offset int
}

// SaleRepository define el puerto del libro de ventas (Sale Ledger).
// Solo agrega: no existen operaciones de actualización ni borrado.
type SaleRepository interface {
	// Create persiste la cabecera y asigna ID y CreatedAt.
	Create(ctx context.Context, sale *entity.Sale) error
	// CreateItem persiste una línea; asigna ID.
	CreateItem(ctx context.Context, item *entity.SaleItem) error
	// GetByID devuelve la venta con sus líneas o nil, nil si no existe.
	GetByID(ctx context.Context, id int64) (*entity.Sale, error)
	// List devuelve cabeceras (sin líneas), más reciente primero.
	List(ctx context.Context, filter SaleFilter) ([]*entity.Sale, error)
}
