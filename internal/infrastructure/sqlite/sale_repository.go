package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jhoicas/tienda-pos/internal/domain/entity"
	"github.com/jhoicas/tienda-pos/internal/domain/repository"
)

var _ repository.SaleRepository = (*SaleRepo)(nil)

// SaleRepo libro de ventas sobre SQLite.
type SaleRepo struct {
	q Querier
}

// NewSaleRepository construye el adaptador.
func NewSaleRepository(q Querier) *SaleRepo {
	return &SaleRepo{q: q}
}

func (r *SaleRepo) Create(ctx context.Context, sale *entity.Sale) error {
	if sale.CreatedAt.IsZero() {
		sale.CreatedAt = time.Now().UTC()
	}
	cents, err := toCents(sale.Total, sale.Profit)
	if err != nil {
		return err
	}
	res, err := r.q.ExecContext(ctx,
		`INSERT INTO sales (total_cents, profit_cents, created_at) VALUES (?, ?, ?)`,
		cents[0], cents[1], toUnix(sale.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert sale: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert sale: %w", err)
	}
	sale.ID = id
	sale.CreatedAt = fromUnix(toUnix(sale.CreatedAt))
	return nil
}

func (r *SaleRepo) CreateItem(ctx context.Context, item *entity.SaleItem) error {
	cents, err := toCents(item.Price, item.Cost)
	if err != nil {
		return err
	}
	res, err := r.q.ExecContext(ctx,
		`INSERT INTO sale_items (sale_id, product_id, product_name, price_cents, cost_cents, quantity)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		item.SaleID, item.ProductID, item.ProductName, cents[0], cents[1], item.Quantity,
	)
	if err != nil {
		return fmt.Errorf("insert sale item: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert sale item: %w", err)
	}
	item.ID = id
	return nil
}

func (r *SaleRepo) GetByID(ctx context.Context, id int64) (*entity.Sale, error) {
	var (
		s                    entity.Sale
		totalC, profitC, crt int64
	)
	err := r.q.QueryRowContext(ctx, `SELECT id, total_cents, profit_cents, created_at FROM sales WHERE id = ?`, id).
		Scan(&s.ID, &totalC, &profitC, &crt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get sale: %w", err)
	}
	s.Total, s.Profit, s.CreatedAt = fromCents(totalC), fromCents(profitC), fromUnix(crt)

	rows, err := r.q.QueryContext(ctx,
		`SELECT id, sale_id, product_id, product_name, price_cents, cost_cents, quantity
		 FROM sale_items WHERE sale_id = ? ORDER BY id`, id)
	if err != nil {
		return nil, fmt.Errorf("get sale items: %w", err)
	}
	defer rows.Close()
	s.Items = make([]entity.SaleItem, 0)
	for rows.Next() {
		var (
			it            entity.SaleItem
			priceC, costC int64
		)
		if err := rows.Scan(&it.ID, &it.SaleID, &it.ProductID, &it.ProductName, &priceC, &costC, &it.Quantity); err != nil {
			return nil, fmt.Errorf("scan sale item: %w", err)
		}
		it.Price, it.Cost = fromCents(priceC), fromCents(costC)
		s.Items = append(s.Items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SaleRepo) List(ctx context.Context, filter repository.SaleFilter) ([]*entity.Sale, error) {
	var (
		where []string
		args  []any
	)
	if filter.From != nil {
		where = append(where, "created_at >= ?")
		args = append(args, toUnix(*filter.From))
	}
	if filter.To != nil {
		where = append(where, "created_at < ?")
		args = append(args, toUnix(*filter.To))
	}
	query := `SELECT id, total_cents, profit_cents, created_at FROM sales`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = -1 // sin límite en SQLite
	}
	query += " ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?"
	args = append(args, limit, filter.Offset)

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}
	defer rows.Close()
	list := make([]*entity.Sale, 0)
	for rows.Next() {
		var (
			s                    entity.Sale
			totalC, profitC, crt int64
		)
		if err := rows.Scan(&s.ID, &totalC, &profitC, &crt); err != nil {
			return nil, fmt.Errorf("scan sale: %w", err)
		}
		s.Total, s.Profit, s.CreatedAt = fromCents(totalC), fromCents(profitC), fromUnix(crt)
		list = append(list, &s)
	}
	return list, rows.Err()
}
