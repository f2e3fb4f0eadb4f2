package inventory

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/tienda-pos/internal/application/dto"
	"github.com/jhoicas/tienda-pos/internal/domain/repository"
)

const (
	historyDays     = 90
	historyMaxItems = 500
	maxSuggestions  = 200
)

// ReplenishmentUseCase lista de reposición: productos en o bajo stock mínimo,
// priorizados por margen histórico y volumen de ventas.
type ReplenishmentUseCase struct {
	productRepo repository.ProductRepository
	statsRepo   repository.StatsRepository
	now         func() time.Time
}

// NewReplenishmentUseCase construye el caso de uso.
func NewReplenishmentUseCase(productRepo repository.ProductRepository, statsRepo repository.StatsRepository) *ReplenishmentUseCase {
	return &ReplenishmentUseCase{
		productRepo: productRepo,
		statsRepo:   statsRepo,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// IdealStock nivel objetivo tras reponer: 1.5 × stock mínimo, redondeado hacia arriba.
func IdealStock(minStock int) int {
	return (minStock*3 + 1) / 2
}

// GenerateReplenishmentList sugerencias de pedido. El historial de ventas es opcional:
// si falla, el margen se estima con precio y costo actuales.
func (uc *ReplenishmentUseCase) GenerateReplenishmentList(ctx context.Context) ([]dto.ReplenishmentSuggestionDTO, error) {
	low, err := uc.productRepo.ListLowStock(ctx, maxSuggestions)
	if err != nil {
		return nil, err
	}
	if len(low) == 0 {
		return []dto.ReplenishmentSuggestionDTO{}, nil
	}

	end := uc.now()
	start := end.AddDate(0, 0, -historyDays)
	history, _ := uc.statsRepo.GetTopProducts(ctx, start, end, historyMaxItems)
	byID := make(map[int64]repository.TopProductResult, len(history))
	for _, h := range history {
		byID[h.ProductID] = h
	}

	hundred := decimal.NewFromInt(100)
	out := make([]dto.ReplenishmentSuggestionDTO, 0, len(low))
	for _, p := range low {
		ideal := IdealStock(p.MinStock)
		qty := ideal - p.Stock
		if qty < 0 {
			qty = 0
		}
		var margin decimal.Decimal
		var sold int
		if h, ok := byID[p.ID]; ok {
			sold = h.UnitsSold
			if h.Revenue.IsPositive() {
				margin = h.Profit.Div(h.Revenue).Mul(hundred).Round(2)
			}
		} else if p.Price.IsPositive() {
			margin = p.Price.Sub(p.Cost).Div(p.Price).Mul(hundred).Round(2)
		}
		out = append(out, dto.ReplenishmentSuggestionDTO{
			ProductID:           p.ID,
			ProductName:         p.Name,
			CurrentStock:        p.Stock,
			MinStock:            p.MinStock,
			IdealStock:          ideal,
			SuggestedOrderQty:   qty,
			UnitCost:            p.Cost,
			EstimatedOrderCost:  p.Cost.Mul(decimal.NewFromInt(int64(qty))),
			GrossMarginPct:      margin,
			UnitsSoldLast90Days: sold,
		})
	}

	// margen desc, unidades vendidas desc, déficit desc, id asc
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.GrossMarginPct.Equal(b.GrossMarginPct) {
			return a.GrossMarginPct.GreaterThan(b.GrossMarginPct)
		}
		if a.UnitsSoldLast90Days != b.UnitsSoldLast90Days {
			return a.UnitsSoldLast90Days > b.UnitsSoldLast90Days
		}
		if da, db := a.MinStock-a.CurrentStock, b.MinStock-b.CurrentStock; da != db {
			return da > db
		}
		return a.ProductID < b.ProductID
	})
	for i := range out {
		out[i].Priority = i + 1
	}
	return out, nil
}
