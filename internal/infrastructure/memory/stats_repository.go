package memory

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/tienda-pos/internal/domain/repository"
)

var _ repository.StatsRepository = (*StatsRepository)(nil)

// StatsRepository agrega sobre el estado confirmado.
type StatsRepository struct {
	store *Store
}

// NewStatsRepository construye el repo.
func NewStatsRepository(store *Store) *StatsRepository {
	return &StatsRepository{store: store}
}

func (r *StatsRepository) GetSalesSummary(ctx context.Context, from, to time.Time) (repository.SalesSummaryResult, error) {
	out := repository.SalesSummaryResult{Revenue: decimal.Zero, Profit: decimal.Zero}
	err := r.store.view(func(d *data) error {
		for _, s := range d.sales {
			if !inRange(s.CreatedAt, &from, &to) {
				continue
			}
			out.SalesCount++
			out.Revenue = out.Revenue.Add(s.Total)
			out.Profit = out.Profit.Add(s.Profit)
			for _, it := range s.Items {
				out.UnitsSold += it.Quantity
			}
		}
		return nil
	})
	return out, err
}

func (r *StatsRepository) GetTopProducts(ctx context.Context, from, to time.Time, limit int) ([]repository.TopProductResult, error) {
	var out []repository.TopProductResult
	err := r.store.view(func(d *data) error {
		acc := make(map[int64]*repository.TopProductResult)
		lastItem := make(map[int64]int64) // nombre del snapshot más reciente
		for _, s := range d.sales {
			if !inRange(s.CreatedAt, &from, &to) {
				continue
			}
			for _, it := range s.Items {
				t, ok := acc[it.ProductID]
				if !ok {
					t = &repository.TopProductResult{ProductID: it.ProductID, ProductName: it.ProductName}
					acc[it.ProductID] = t
				}
				if it.ID > lastItem[it.ProductID] {
					lastItem[it.ProductID] = it.ID
					t.ProductName = it.ProductName
				}
				t.UnitsSold += it.Quantity
				t.Revenue = t.Revenue.Add(it.Subtotal())
				t.Profit = t.Profit.Add(it.Profit())
			}
		}
		out = make([]repository.TopProductResult, 0, len(acc))
		for _, t := range acc {
			out = append(out, *t)
		}
		sort.Slice(out, func(i, j int) bool {
			if out[i].UnitsSold != out[j].UnitsSold {
				return out[i].UnitsSold > out[j].UnitsSold
			}
			return out[i].ProductID < out[j].ProductID
		})
		if limit > 0 && limit < len(out) {
			out = out[:limit]
		}
		return nil
	})
	return out, err
}

func (r *StatsRepository) GetDailySales(ctx context.Context, from, to time.Time) ([]repository.DailySalesResult, error) {
	var out []repository.DailySalesResult
	err := r.store.view(func(d *data) error {
		acc := make(map[time.Time]*repository.DailySalesResult)
		for _, s := range d.sales {
			if !inRange(s.CreatedAt, &from, &to) {
				continue
			}
			day := s.CreatedAt.UTC().Truncate(24 * time.Hour)
			ds, ok := acc[day]
			if !ok {
				ds = &repository.DailySalesResult{Day: day}
				acc[day] = ds
			}
			ds.SalesCount++
			ds.Revenue = ds.Revenue.Add(s.Total)
			ds.Profit = ds.Profit.Add(s.Profit)
		}
		out = make([]repository.DailySalesResult, 0, len(acc))
		for _, ds := range acc {
			out = append(out, *ds)
		}
		sort.Slice(out, func(i, j int) bool { return out[i].Day.Before(out[j].Day) })
		return nil
	})
	return out, err
}

func (r *StatsRepository) GetInventoryValue(ctx context.Context) (repository.InventoryValueResult, error) {
	out := repository.InventoryValueResult{CostValue: decimal.Zero, RetailValue: decimal.Zero}
	err := r.store.view(func(d *data) error {
		for _, p := range d.products {
			out.ProductCount++
			out.TotalUnits += p.Stock
			units := decimal.NewFromInt(int64(p.Stock))
			out.CostValue = out.CostValue.Add(p.Cost.Mul(units))
			out.RetailValue = out.RetailValue.Add(p.Price.Mul(units))
			if p.IsLowStock() {
				out.LowStockCount++
			}
		}
		return nil
	})
	return out, err
}
