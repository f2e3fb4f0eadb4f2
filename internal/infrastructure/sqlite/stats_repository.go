package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/tienda-pos/internal/domain/repository"
)

var _ repository.StatsRepository = (*StatsRepo)(nil)

const nanosPerDay = int64(24 * time.Hour)

// StatsRepo agregados de solo lectura.
type StatsRepo struct {
	q Querier
}

// NewStatsRepository construye el adaptador.
func NewStatsRepository(q Querier) *StatsRepo {
	return &StatsRepo{q: q}
}

func (r *StatsRepo) GetSalesSummary(ctx context.Context, from, to time.Time) (repository.SalesSummaryResult, error) {
	var (
		out             repository.SalesSummaryResult
		revenue, profit int64
	)
	err := r.q.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(total_cents), 0),
		       COALESCE(SUM(profit_cents), 0),
		       COALESCE((SELECT SUM(i.quantity) FROM sale_items i JOIN sales s2 ON s2.id = i.sale_id
		                 WHERE s2.created_at >= ?1 AND s2.created_at < ?2), 0)
		FROM sales
		WHERE created_at >= ?1 AND created_at < ?2`,
		toUnix(from), toUnix(to),
	).Scan(&out.SalesCount, &revenue, &profit, &out.UnitsSold)
	if err != nil {
		return out, fmt.Errorf("sales summary: %w", err)
	}
	out.Revenue, out.Profit = fromCents(revenue), fromCents(profit)
	return out, nil
}

func (r *StatsRepo) GetTopProducts(ctx context.Context, from, to time.Time, limit int) ([]repository.TopProductResult, error) {
	// product_name sale de la fila con MAX(i.id): la línea más reciente del grupo
	rows, err := r.q.QueryContext(ctx, `
		SELECT i.product_id, i.product_name, MAX(i.id),
		       SUM(i.quantity),
		       SUM(i.price_cents * i.quantity),
		       SUM((i.price_cents - i.cost_cents) * i.quantity)
		FROM sale_items i
		JOIN sales s ON s.id = i.sale_id
		WHERE s.created_at >= ? AND s.created_at < ?
		GROUP BY i.product_id
		ORDER BY SUM(i.quantity) DESC, i.product_id
		LIMIT ?`,
		toUnix(from), toUnix(to), limit)
	if err != nil {
		return nil, fmt.Errorf("top products: %w", err)
	}
	defer rows.Close()
	out := make([]repository.TopProductResult, 0)
	for rows.Next() {
		var (
			t               repository.TopProductResult
			lastID          int64
			revenue, profit int64
		)
		if err := rows.Scan(&t.ProductID, &t.ProductName, &lastID, &t.UnitsSold, &revenue, &profit); err != nil {
			return nil, fmt.Errorf("scan top product: %w", err)
		}
		t.Revenue, t.Profit = fromCents(revenue), fromCents(profit)
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *StatsRepo) GetDailySales(ctx context.Context, from, to time.Time) ([]repository.DailySalesResult, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT created_at / ?1 AS day, COUNT(*), SUM(total_cents), SUM(profit_cents)
		FROM sales
		WHERE created_at >= ?2 AND created_at < ?3
		GROUP BY day
		ORDER BY day`,
		nanosPerDay, toUnix(from), toUnix(to))
	if err != nil {
		return nil, fmt.Errorf("daily sales: %w", err)
	}
	defer rows.Close()
	out := make([]repository.DailySalesResult, 0)
	for rows.Next() {
		var (
			d               repository.DailySalesResult
			day             int64
			revenue, profit int64
		)
		if err := rows.Scan(&day, &d.SalesCount, &revenue, &profit); err != nil {
			return nil, fmt.Errorf("scan daily sales: %w", err)
		}
		d.Day = fromUnix(day * nanosPerDay)
		d.Revenue, d.Profit = fromCents(revenue), fromCents(profit)
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *StatsRepo) GetInventoryValue(ctx context.Context) (repository.InventoryValueResult, error) {
	var (
		out              repository.InventoryValueResult
		costVal, retailV int64
	)
	err := r.q.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(stock), 0),
		       COALESCE(SUM(stock * cost_cents), 0),
		       COALESCE(SUM(stock * price_cents), 0),
		       COALESCE(SUM(CASE WHEN stock <= min_stock THEN 1 ELSE 0 END), 0)
		FROM products`,
	).Scan(&out.ProductCount, &out.TotalUnits, &costVal, &retailV, &out.LowStockCount)
	if err != nil {
		return out, fmt.Errorf("inventory value: %w", err)
	}
	out.CostValue, out.RetailValue = fromCents(costVal), fromCents(retailV)
	return out, nil
}
