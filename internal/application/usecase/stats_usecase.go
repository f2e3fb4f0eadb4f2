package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/tienda-pos/internal/application/dto"
	"github.com/jhoicas/tienda-pos/internal/application/ports"
	"github.com/jhoicas/tienda-pos/internal/domain"
	"github.com/jhoicas/tienda-pos/internal/domain/repository"
)

const (
	defaultTopLimit = 10
	maxTopLimit     = 100
)

// StatsUseCase estadísticas de solo lectura, opcionalmente cacheadas.
type StatsUseCase struct {
	repo  repository.StatsRepository
	cache ports.Cache // nil = sin caché
	ttl   time.Duration
	log   zerolog.Logger
	now   func() time.Time
}

// NewStatsUseCase construye el caso de uso. cache puede ser nil.
func NewStatsUseCase(repo repository.StatsRepository, cache ports.Cache, ttl time.Duration, log zerolog.Logger) *StatsUseCase {
	return &StatsUseCase{
		repo:  repo,
		cache: cache,
		ttl:   ttl,
		log:   log.With().Str("component", "stats").Logger(),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// ResolveRange completa un rango [from, to). Sin from: inicio del mes en curso (UTC).
// Sin to: inicio del día siguiente a hoy.
func (uc *StatsUseCase) ResolveRange(from, to *time.Time) (dto.DateRange, error) {
	now := uc.now()
	r := dto.DateRange{
		From: time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC),
		To:   time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, time.UTC),
	}
	if from != nil {
		r.From = from.UTC()
	}
	if to != nil {
		r.To = to.UTC()
	}
	if !r.From.Before(r.To) {
		return r, fmt.Errorf("%w: from debe ser anterior a to", domain.ErrInvalidInput)
	}
	return r, nil
}

// TodayRange [00:00, 24:00) del día actual en UTC.
func (uc *StatsUseCase) TodayRange() dto.DateRange {
	now := uc.now()
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return dto.DateRange{From: start, To: start.AddDate(0, 0, 1)}
}

// cached devuelve el valor de la caché o lo carga y lo guarda. Los errores de caché solo se registran.
func cached[T any](ctx context.Context, uc *StatsUseCase, key string, fresh bool, load func() (T, error)) (T, error) {
	if uc.cache != nil && !fresh {
		var hit T
		found, err := uc.cache.Get(ctx, key, &hit)
		if err != nil {
			uc.log.Warn().Err(err).Str("key", key).Msg("lectura de caché fallida")
		} else if found {
			return hit, nil
		}
	}
	v, err := load()
	if err != nil {
		return v, err
	}
	if uc.cache != nil && uc.ttl > 0 {
		if err := uc.cache.Set(ctx, key, v, uc.ttl); err != nil {
			uc.log.Warn().Err(err).Str("key", key).Msg("escritura de caché fallida")
		}
	}
	return v, nil
}

func rangeKey(prefix string, r dto.DateRange) string {
	return fmt.Sprintf("stats:%s:%d:%d", prefix, r.From.Unix(), r.To.Unix())
}

// Summary resumen de ventas del período.
func (uc *StatsUseCase) Summary(ctx context.Context, r dto.DateRange, fresh bool) (*dto.SalesSummaryDTO, error) {
	return cached(ctx, uc, rangeKey("summary", r), fresh, func() (*dto.SalesSummaryDTO, error) {
		res, err := uc.repo.GetSalesSummary(ctx, r.From, r.To)
		if err != nil {
			return nil, err
		}
		avg := decimal.Zero
		if res.SalesCount > 0 {
			avg = res.Revenue.Div(decimal.NewFromInt(int64(res.SalesCount))).Round(2)
		}
		return &dto.SalesSummaryDTO{
			Range:         r,
			SalesCount:    res.SalesCount,
			UnitsSold:     res.UnitsSold,
			Revenue:       res.Revenue,
			Profit:        res.Profit,
			AverageTicket: avg,
		}, nil
	})
}

// TopProducts más vendidos por unidades.
func (uc *StatsUseCase) TopProducts(ctx context.Context, r dto.DateRange, limit int, fresh bool) (*dto.TopProductsDTO, error) {
	if limit <= 0 {
		limit = defaultTopLimit
	}
	if limit > maxTopLimit {
		limit = maxTopLimit
	}
	key := fmt.Sprintf("%s:%d", rangeKey("top", r), limit)
	return cached(ctx, uc, key, fresh, func() (*dto.TopProductsDTO, error) {
		list, err := uc.repo.GetTopProducts(ctx, r.From, r.To, limit)
		if err != nil {
			return nil, err
		}
		items := make([]dto.TopProductDTO, 0, len(list))
		for _, t := range list {
			items = append(items, dto.TopProductDTO{
				ProductID:   t.ProductID,
				ProductName: t.ProductName,
				UnitsSold:   t.UnitsSold,
				Revenue:     t.Revenue,
				Profit:      t.Profit,
			})
		}
		return &dto.TopProductsDTO{Range: r, Items: items}, nil
	})
}

// DailySales serie de ventas por día.
func (uc *StatsUseCase) DailySales(ctx context.Context, r dto.DateRange, fresh bool) (*dto.DailySalesListDTO, error) {
	return cached(ctx, uc, rangeKey("daily", r), fresh, func() (*dto.DailySalesListDTO, error) {
		list, err := uc.repo.GetDailySales(ctx, r.From, r.To)
		if err != nil {
			return nil, err
		}
		days := make([]dto.DailySalesDTO, 0, len(list))
		for _, d := range list {
			days = append(days, dto.DailySalesDTO{
				Day:        d.Day.UTC().Format("2006-01-02"),
				SalesCount: d.SalesCount,
				Revenue:    d.Revenue,
				Profit:     d.Profit,
			})
		}
		return &dto.DailySalesListDTO{Range: r, Days: days}, nil
	})
}

// Inventory valorización del inventario actual.
func (uc *StatsUseCase) Inventory(ctx context.Context, fresh bool) (*dto.InventoryValueDTO, error) {
	return cached(ctx, uc, "stats:inventory", fresh, func() (*dto.InventoryValueDTO, error) {
		res, err := uc.repo.GetInventoryValue(ctx)
		if err != nil {
			return nil, err
		}
		return &dto.InventoryValueDTO{
			ProductCount:    res.ProductCount,
			TotalUnits:      res.TotalUnits,
			CostValue:       res.CostValue,
			RetailValue:     res.RetailValue,
			PotentialProfit: res.RetailValue.Sub(res.CostValue),
			LowStockCount:   res.LowStockCount,
		}, nil
	})
}
