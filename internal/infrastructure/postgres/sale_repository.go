package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/tienda-pos/internal/domain/entity"
	"github.com/jhoicas/tienda-pos/internal/domain/repository"
)

var _ repository.SaleRepository = (*SaleRepo)(nil)

// SaleRepo libro de ventas sobre PostgreSQL. Solo inserta y lee.
type SaleRepo struct {
	q Querier
}

// NewSaleRepository construye el adaptador. Pasar pool o tx (Querier).
func NewSaleRepository(q Querier) *SaleRepo {
	return &SaleRepo{q: q}
}

// Create inserta la cabecera y asigna ID y CreatedAt.
func (r *SaleRepo) Create(ctx context.Context, sale *entity.Sale) error {
	if sale.CreatedAt.IsZero() {
		sale.CreatedAt = time.Now().UTC()
	}
	err := r.q.QueryRow(ctx,
		`INSERT INTO sales (total, profit, created_at) VALUES ($1, $2, $3) RETURNING id, created_at`,
		sale.Total, sale.Profit, sale.CreatedAt,
	).Scan(&sale.ID, &sale.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert sale: %w", err)
	}
	return nil
}

// CreateItem inserta una línea de venta.
func (r *SaleRepo) CreateItem(ctx context.Context, item *entity.SaleItem) error {
	err := r.q.QueryRow(ctx,
		`INSERT INTO sale_items (sale_id, product_id, product_name, price, cost, quantity)
		 VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		item.SaleID, item.ProductID, item.ProductName, item.Price, item.Cost, item.Quantity,
	).Scan(&item.ID)
	if err != nil {
		return fmt.Errorf("insert sale item: %w", err)
	}
	return nil
}

// GetByID devuelve la venta con sus líneas (orden de inserción).
func (r *SaleRepo) GetByID(ctx context.Context, id int64) (*entity.Sale, error) {
	var s entity.Sale
	err := r.q.QueryRow(ctx, `SELECT id, total, profit, created_at FROM sales WHERE id = $1`, id).
		Scan(&s.ID, &s.Total, &s.Profit, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get sale: %w", err)
	}

	rows, err := r.q.Query(ctx,
		`SELECT id, sale_id, product_id, product_name, price, cost, quantity
		 FROM sale_items WHERE sale_id = $1 ORDER BY id`, id)
	if err != nil {
		return nil, fmt.Errorf("get sale items: %w", err)
	}
	defer rows.Close()
	s.Items = make([]entity.SaleItem, 0)
	for rows.Next() {
		var it entity.SaleItem
		if err := rows.Scan(&it.ID, &it.SaleID, &it.ProductID, &it.ProductName, &it.Price, &it.Cost, &it.Quantity); err != nil {
			return nil, fmt.Errorf("scan sale item: %w", err)
		}
		s.Items = append(s.Items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &s, nil
}

// List cabeceras en [From, To), más reciente primero.
func (r *SaleRepo) List(ctx context.Context, filter repository.SaleFilter) ([]*entity.Sale, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.q.Query(ctx, `
		SELECT id, total, profit, created_at FROM sales
		WHERE ($1::timestamptz IS NULL OR created_at >= $1)
		  AND ($2::timestamptz IS NULL OR created_at < $2)
		ORDER BY created_at DESC, id DESC
		LIMIT $3 OFFSET $4`,
		filter.From, filter.To, limit, filter.Offset)
	if err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}
	defer rows.Close()
	list := make([]*entity.Sale, 0)
	for rows.Next() {
		var s entity.Sale
		if err := rows.Scan(&s.ID, &s.Total, &s.Profit, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan sale: %w", err)
		}
		list = append(list, &s)
	}
	return list, rows.Err()
}
