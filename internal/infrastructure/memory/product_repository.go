package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jhoicas/tienda-pos/internal/domain"
	"github.com/jhoicas/tienda-pos/internal/domain/entity"
	"github.com/jhoicas/tienda-pos/internal/domain/repository"
)

var _ repository.ProductRepository = (*ProductRepository)(nil)

// ProductRepository implementa repository.ProductRepository en memoria.
type ProductRepository struct {
	store *Store
	tx    *data // no nil cuando el repo está atado a una transacción
}

// NewProductRepository repo sobre el estado confirmado.
func NewProductRepository(store *Store) *ProductRepository {
	return &ProductRepository{store: store}
}

func (r *ProductRepository) do(fn func(d *data) error) error {
	if r.tx != nil {
		return fn(r.tx)
	}
	return r.store.view(fn)
}

func barcodeTaken(d *data, barcode *string, exceptID int64) bool {
	if barcode == nil || *barcode == "" {
		return false
	}
	for id, p := range d.products {
		if id != exceptID && p.Barcode != nil && *p.Barcode == *barcode {
			return true
		}
	}
	return false
}

func (r *ProductRepository) Create(ctx context.Context, product *entity.Product) error {
	return r.do(func(d *data) error {
		if barcodeTaken(d, product.Barcode, 0) {
			return domain.ErrDuplicate
		}
		d.nextProductID++
		now := time.Now().UTC()
		product.ID = d.nextProductID
		product.CreatedAt = now
		product.UpdatedAt = now
		d.products[product.ID] = *product
		return nil
	})
}

func (r *ProductRepository) GetByID(ctx context.Context, id int64) (*entity.Product, error) {
	var out *entity.Product
	err := r.do(func(d *data) error {
		if p, ok := d.products[id]; ok {
			out = &p
		}
		return nil
	})
	return out, err
}

// GetForUpdate equivale a GetByID: el mutex de la transacción ya serializa el acceso.
func (r *ProductRepository) GetForUpdate(ctx context.Context, id int64) (*entity.Product, error) {
	return r.GetByID(ctx, id)
}

func (r *ProductRepository) GetByBarcode(ctx context.Context, barcode string) (*entity.Product, error) {
	var out *entity.Product
	err := r.do(func(d *data) error {
		for _, p := range d.products {
			if p.Barcode != nil && *p.Barcode == barcode {
				p := p
				out = &p
				return nil
			}
		}
		return nil
	})
	return out, err
}

func (r *ProductRepository) Update(ctx context.Context, product *entity.Product) error {
	return r.do(func(d *data) error {
		cur, ok := d.products[product.ID]
		if !ok {
			return domain.ErrNotFound
		}
		if barcodeTaken(d, product.Barcode, product.ID) {
			return domain.ErrDuplicate
		}
		product.CreatedAt = cur.CreatedAt
		product.UpdatedAt = time.Now().UTC()
		d.products[product.ID] = *product
		return nil
	})
}

func (r *ProductRepository) DecrementStock(ctx context.Context, id int64, amount int) error {
	if amount <= 0 {
		return fmt.Errorf("%w: amount debe ser positivo (%d)", domain.ErrInvalidInput, amount)
	}
	return r.do(func(d *data) error {
		p, ok := d.products[id]
		if !ok {
			return domain.ErrNotFound
		}
		if p.Stock < amount {
			return domain.ErrInsufficientStock
		}
		p.Stock -= amount
		p.UpdatedAt = time.Now().UTC()
		d.products[id] = p
		return nil
	})
}

// sortedProducts copia los productos que cumplen keep, ordenados por ID.
func sortedProducts(d *data, keep func(p entity.Product) bool) []*entity.Product {
	out := make([]*entity.Product, 0, len(d.products))
	for _, p := range d.products {
		if keep == nil || keep(p) {
			p := p
			out = append(out, &p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func page(list []*entity.Product, limit, offset int) []*entity.Product {
	if offset >= len(list) {
		return []*entity.Product{}
	}
	list = list[offset:]
	if limit > 0 && limit < len(list) {
		list = list[:limit]
	}
	return list
}

func (r *ProductRepository) List(ctx context.Context, limit, offset int) ([]*entity.Product, error) {
	var out []*entity.Product
	err := r.do(func(d *data) error {
		out = page(sortedProducts(d, nil), limit, offset)
		return nil
	})
	return out, err
}

func (r *ProductRepository) Search(ctx context.Context, term string, limit int) ([]*entity.Product, error) {
	term = strings.ToLower(strings.TrimSpace(term))
	var out []*entity.Product
	err := r.do(func(d *data) error {
		out = page(sortedProducts(d, func(p entity.Product) bool {
			if strings.Contains(strings.ToLower(p.Name), term) || strings.Contains(strings.ToLower(p.Category), term) {
				return true
			}
			return p.Barcode != nil && strings.Contains(strings.ToLower(*p.Barcode), term)
		}), limit, 0)
		return nil
	})
	return out, err
}

func (r *ProductRepository) ListLowStock(ctx context.Context, limit int) ([]*entity.Product, error) {
	var out []*entity.Product
	err := r.do(func(d *data) error {
		list := sortedProducts(d, func(p entity.Product) bool { return p.IsLowStock() })
		sort.SliceStable(list, func(i, j int) bool { return list[i].Stock < list[j].Stock })
		out = page(list, limit, 0)
		return nil
	})
	return out, err
}

func (r *ProductRepository) Delete(ctx context.Context, id int64) error {
	return r.do(func(d *data) error {
		if _, ok := d.products[id]; !ok {
			return domain.ErrNotFound
		}
		delete(d.products, id)
		return nil
	})
}
