package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/tienda-pos/internal/domain/repository"
)

var _ repository.StatsRepository = (*StatsRepo)(nil)

// StatsRepo agregados de solo lectura sobre el pool (nunca dentro de la tx de venta).
type StatsRepo struct {
	pool *pgxpool.Pool
}

// NewStatsRepository construye el adaptador.
func NewStatsRepository(pool *pgxpool.Pool) *StatsRepo {
	return &StatsRepo{pool: pool}
}

func (r *StatsRepo) GetSalesSummary(ctx context.Context, from, to time.Time) (repository.SalesSummaryResult, error) {
	var out repository.SalesSummaryResult
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(s.total), 0),
		       COALESCE(SUM(s.profit), 0),
		       COALESCE((SELECT SUM(i.quantity) FROM sale_items i JOIN sales s2 ON s2.id = i.sale_id
		                 WHERE s2.created_at >= $1 AND s2.created_at < $2), 0)
		FROM sales s
		WHERE s.created_at >= $1 AND s.created_at < $2`,
		from, to,
	).Scan(&out.SalesCount, &out.Revenue, &out.Profit, &out.UnitsSold)
	if err != nil {
		return out, fmt.Errorf("sales summary: %w", err)
	}
	return out, nil
}

func (r *StatsRepo) GetTopProducts(ctx context.Context, from, to time.Time, limit int) ([]repository.TopProductResult, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT i.product_id,
		       (ARRAY_AGG(i.product_name ORDER BY i.id DESC))[1],
		       SUM(i.quantity),
		       SUM(i.price * i.quantity),
		       SUM((i.price - i.cost) * i.quantity)
		FROM sale_items i
		JOIN sales s ON s.id = i.sale_id
		WHERE s.created_at >= $1 AND s.created_at < $2
		GROUP BY i.product_id
		ORDER BY SUM(i.quantity) DESC, i.product_id
		LIMIT $3`,
		from, to, limit)
	if err != nil {
		return nil, fmt.Errorf("top products: %w", err)
	}
	defer rows.Close()
	out := make([]repository.TopProductResult, 0)
	for rows.Next() {
		var t repository.TopProductResult
		if err := rows.Scan(&t.ProductID, &t.ProductName, &t.UnitsSold, &t.Revenue, &t.Profit); err != nil {
			return nil, fmt.Errorf("scan top product: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *StatsRepo) GetDailySales(ctx context.Context, from, to time.Time) ([]repository.DailySalesResult, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT date_trunc('day', created_at AT TIME ZONE 'UTC') AS day,
		       COUNT(*), SUM(total), SUM(profit)
		FROM sales
		WHERE created_at >= $1 AND created_at < $2
		GROUP BY day
		ORDER BY day`,
		from, to)
	if err != nil {
		return nil, fmt.Errorf("daily sales: %w", err)
	}
	defer rows.Close()
	out := make([]repository.DailySalesResult, 0)
	for rows.Next() {
		var d repository.DailySalesResult
		if err := rows.Scan(&d.Day, &d.SalesCount, &d.Revenue, &d.Profit); err != nil {
			return nil, fmt.Errorf("scan daily sales: %w", err)
		}
		d.Day = d.Day.UTC()
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *StatsRepo) GetInventoryValue(ctx context.Context) (repository.InventoryValueResult, error) {
	var out repository.InventoryValueResult
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(stock), 0),
		       COALESCE(SUM(stock * cost), 0),
		       COALESCE(SUM(stock * price), 0),
		       COUNT(*) FILTER (WHERE stock <= min_stock)
		FROM products`,
	).Scan(&out.ProductCount, &out.TotalUnits, &out.CostValue, &out.RetailValue, &out.LowStockCount)
	if err != nil {
		return out, fmt.Errorf("inventory value: %w", err)
	}
	return out, nil
}
