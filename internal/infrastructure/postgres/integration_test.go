package postgres_test

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/jhoicas/tienda-pos/internal/application/sales"
	"github.com/jhoicas/tienda-pos/internal/domain"
	"github.com/jhoicas/tienda-pos/internal/domain/entity"
	"github.com/jhoicas/tienda-pos/internal/infrastructure/postgres"
	"github.com/jhoicas/tienda-pos/pkg/config"
)

// newTestPool conecta a POS_TEST_DATABASE_URL; sin esa variable la prueba se omite.
func newTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	url := os.Getenv("POS_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("POS_TEST_DATABASE_URL no definido")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	pool, err := postgres.NewPool(ctx, config.DBConfig{DatabaseURL: url})
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, postgres.Migrate(ctx, pool, zerolog.Nop()))
	_, err = pool.Exec(ctx, `TRUNCATE sale_items, sales, products RESTART IDENTITY`)
	require.NoError(t, err)
	return pool
}

func TestPostgres_VentaYConcurrencia(t *testing.T) {
	pool := newTestPool(t)
	ctx := context.Background()
	products := postgres.NewProductRepository(pool)
	salesRepo := postgres.NewSaleRepository(pool)

	rice := &entity.Product{Name: "Arroz 1kg", Category: "granos", Price: decimal.NewFromInt(50), Cost: decimal.NewFromInt(40), Stock: 10, MinStock: 2}
	last := &entity.Product{Name: "Última", Category: "otros", Price: decimal.NewFromInt(9), Cost: decimal.NewFromInt(5), Stock: 1}
	require.NoError(t, products.Create(ctx, rice))
	require.NoError(t, products.Create(ctx, last))

	uc := sales.NewProcessSaleUseCase(postgres.NewTxRunner(pool), sales.Config{MaxAttempts: 3, RetryBackoff: 5 * time.Millisecond}, zerolog.Nop(), noop.NewTracerProvider().Tracer("test"))

	res, err := uc.ProcessSale(ctx, sales.Cart{Items: []sales.CartLine{{ProductID: rice.ID, Quantity: 3}}})
	require.NoError(t, err)
	assert.Equal(t, "150", res.Total.String())
	assert.Equal(t, "30", res.Profit.String())

	stored, err := salesRepo.GetByID(ctx, res.SaleID)
	require.NoError(t, err)
	require.Len(t, stored.Items, 1)
	got, err := products.GetByID(ctx, rice.ID)
	require.NoError(t, err)
	assert.Equal(t, 7, got.Stock)

	_, err = uc.ProcessSale(ctx, sales.Cart{Items: []sales.CartLine{{ProductID: rice.ID, Quantity: 11}}})
	var stockErr *domain.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, 7, stockErr.Available)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = uc.ProcessSale(ctx, sales.Cart{Items: []sales.CartLine{{ProductID: last.ID, Quantity: 1}}})
		}(i)
	}
	wg.Wait()
	okCount := 0
	for _, e := range errs {
		if e == nil {
			okCount++
			continue
		}
		assert.True(t, errors.Is(e, domain.ErrInsufficientStock), "error inesperado: %v", e)
	}
	assert.Equal(t, 1, okCount)
	got, err = products.GetByID(ctx, last.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Stock)

	assert.ErrorIs(t, products.DecrementStock(ctx, last.ID, 1), domain.ErrInsufficientStock)
	assert.ErrorIs(t, products.DecrementStock(ctx, 12345, 1), domain.ErrNotFound)
	assert.ErrorIs(t, products.DecrementStock(ctx, rice.ID, -5), domain.ErrInvalidInput)

	inv, err := postgres.NewStatsRepository(pool).GetInventoryValue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, inv.ProductCount)
	assert.Equal(t, 7, inv.TotalUnits)
}
