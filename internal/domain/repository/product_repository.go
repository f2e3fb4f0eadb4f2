package repository

import (
	"context"

	"github.com/jhoicas/tienda-pos/internal/domain/entity"
)

// ProductRepository define el puerto de persistencia para Product (Inventory Store).
// Las implementaciones se pueden atar a un pool o a una transacción.
type ProductRepository interface {
	Create(ctx context.Context, product *entity.Product) error
	// GetByID devuelve nil, nil si el producto no existe.
	GetByID(ctx context.Context, id int64) (*entity.Product, error)
	// GetForUpdate igual que GetByID pero bloquea la fila hasta el fin de la transacción.
	GetForUpdate(ctx context.Context, id int64) (*entity.Product, error)
	GetByBarcode(ctx context.Context, barcode string) (*entity.Product, error)
	Update(ctx context.Context, product *entity.Product) error
	// DecrementStock resta amount del stock. Retorna domain.ErrInsufficientStock si el
	// stock quedaría negativo y domain.ErrNotFound si el producto no existe.
	DecrementStock(ctx context.Context, id int64, amount int) error
	List(ctx context.Context, limit, offset int) ([]*entity.Product, error)
	// Search busca por nombre, categoría o código de barras (sin distinguir mayúsculas).
	Search(ctx context.Context, term string, limit int) ([]*entity.Product, error)
	// ListLowStock productos con stock <= min_stock, menor stock primero.
	ListLowStock(ctx context.Context, limit int) ([]*entity.Product, error)
	Delete(ctx context.Context, id int64) error
}
