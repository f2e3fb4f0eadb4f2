package sqlite_test

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/jhoicas/tienda-pos/internal/application/sales"
	"github.com/jhoicas/tienda-pos/internal/domain"
	"github.com/jhoicas/tienda-pos/internal/domain/entity"
	"github.com/jhoicas/tienda-pos/internal/domain/repository"
	"github.com/jhoicas/tienda-pos/internal/infrastructure/sqlite"
)

func openStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "pos.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	require.NoError(t, store.Migrate(context.Background()))
	require.NoError(t, store.Migrate(context.Background()), "el esquema es idempotente")
	return store
}

func ptr(s string) *string { return &s }

func TestSQLite_CRUDProducto(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	repo := sqlite.NewProductRepository(store.DB())

	p := &entity.Product{Name: "Arroz 1kg", Category: "Granos", Barcode: ptr("7701"), Price: decimal.RequireFromString("50.00"), Cost: decimal.RequireFromString("40.5"), Stock: 10, MinStock: 3}
	require.NoError(t, repo.Create(ctx, p))
	assert.Positive(t, p.ID)

	dup := &entity.Product{Name: "Otro", Barcode: ptr("7701"), Price: decimal.NewFromInt(1)}
	assert.ErrorIs(t, repo.Create(ctx, dup), domain.ErrDuplicate)

	got, err := repo.GetByBarcode(ctx, "7701")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "40.5", got.Cost.String())
	assert.Equal(t, "Granos", got.Category)

	found, err := repo.Search(ctx, "arroz", 10)
	require.NoError(t, err)
	assert.Len(t, found, 1)

	got.Stock = 2
	require.NoError(t, repo.Update(ctx, got))
	low, err := repo.ListLowStock(ctx, 10)
	require.NoError(t, err)
	require.Len(t, low, 1)

	got.Stock = -1
	assert.ErrorIs(t, repo.Update(ctx, got), domain.ErrInvalidInput)

	missing, err := repo.GetByID(ctx, 999)
	require.NoError(t, err)
	assert.Nil(t, missing)

	require.NoError(t, repo.Delete(ctx, p.ID))
	assert.ErrorIs(t, repo.Delete(ctx, p.ID), domain.ErrNotFound)
}

func TestSQLite_ProcesarVenta(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	products := sqlite.NewProductRepository(store.DB())
	ledger := sqlite.NewSaleRepository(store.DB())

	rice := &entity.Product{Name: "Arroz 1kg", Price: decimal.NewFromInt(50), Cost: decimal.NewFromInt(40), Stock: 10}
	require.NoError(t, products.Create(ctx, rice))

	uc := sales.NewProcessSaleUseCase(sqlite.NewTxRunner(store), sales.Config{MaxAttempts: 3}, zerolog.Nop(), noop.NewTracerProvider().Tracer("test"))

	res, err := uc.ProcessSale(ctx, sales.Cart{Items: []sales.CartLine{{ProductID: rice.ID, Quantity: 3}}})
	require.NoError(t, err)
	assert.Equal(t, "150", res.Total.String())
	assert.Equal(t, "30", res.Profit.String())

	_, err = uc.ProcessSale(ctx, sales.Cart{Items: []sales.CartLine{{ProductID: rice.ID, Quantity: 11}}})
	var stockErr *domain.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, 11, stockErr.Requested)
	assert.Equal(t, 7, stockErr.Available)

	_, err = uc.ProcessSale(ctx, sales.Cart{Items: []sales.CartLine{{ProductID: 999, Quantity: 1}}})
	var nfErr *domain.ProductNotFoundError
	require.ErrorAs(t, err, &nfErr)

	stored, err := ledger.GetByID(ctx, res.SaleID)
	require.NoError(t, err)
	require.Len(t, stored.Items, 1)
	assert.Equal(t, "Arroz 1kg", stored.Items[0].ProductName)
	assert.WithinDuration(t, time.Now(), stored.CreatedAt, time.Minute)

	list, err := ledger.List(ctx, repository.SaleFilter{})
	require.NoError(t, err)
	assert.Len(t, list, 1)

	got, err := products.GetByID(ctx, rice.ID)
	require.NoError(t, err)
	assert.Equal(t, 7, got.Stock)
}

func TestSQLite_VentaFueraDeRangoNoCorrompe(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	products := sqlite.NewProductRepository(store.DB())
	ledger := sqlite.NewSaleRepository(store.DB())

	rice := &entity.Product{Name: "Arroz 1kg", Price: decimal.NewFromInt(50), Cost: decimal.NewFromInt(40), Stock: 10}
	require.NoError(t, products.Create(ctx, rice))
	gold := &entity.Product{Name: "Lingote", Price: decimal.RequireFromString("999999999999.99"), Cost: decimal.NewFromInt(1), Stock: 5}
	require.NoError(t, products.Create(ctx, gold))

	uc := sales.NewProcessSaleUseCase(sqlite.NewTxRunner(store), sales.Config{MaxAttempts: 1}, zerolog.Nop(), noop.NewTracerProvider().Tracer("test"))

	half := math.MaxInt/2 + 1
	_, err := uc.ProcessSale(ctx, sales.Cart{Items: []sales.CartLine{{ProductID: rice.ID, Quantity: half}, {ProductID: rice.ID, Quantity: half}}})
	var lineErr *domain.InvalidLineError
	require.ErrorAs(t, err, &lineErr)

	_, err = uc.ProcessSale(ctx, sales.Cart{Items: []sales.CartLine{{ProductID: gold.ID, Quantity: 2}}})
	require.ErrorIs(t, err, domain.ErrInvalidInput)

	got, err := products.GetByID(ctx, rice.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, got.Stock)
	got, err = products.GetByID(ctx, gold.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, got.Stock)
	list, err := ledger.List(ctx, repository.SaleFilter{})
	require.NoError(t, err)
	assert.Empty(t, list)

	// el adaptador tampoco trunca importes que no caben en NUMERIC(14,2)
	huge := &entity.Sale{Total: decimal.New(1, 17), Profit: decimal.Zero}
	assert.ErrorIs(t, ledger.Create(ctx, huge), domain.ErrInvalidInput)
	bad := &entity.Product{Name: "Caro", Price: decimal.New(1, 13)}
	assert.ErrorIs(t, products.Create(ctx, bad), domain.ErrInvalidInput)

	assert.ErrorIs(t, products.DecrementStock(ctx, rice.ID, -3), domain.ErrInvalidInput)
	assert.ErrorIs(t, products.DecrementStock(ctx, rice.ID, 0), domain.ErrInvalidInput)
}

func TestSQLite_ConcurrenciaUltimaUnidad(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	products := sqlite.NewProductRepository(store.DB())
	p := &entity.Product{Name: "Última", Price: decimal.NewFromInt(9), Cost: decimal.NewFromInt(5), Stock: 1}
	require.NoError(t, products.Create(ctx, p))

	uc := sales.NewProcessSaleUseCase(sqlite.NewTxRunner(store), sales.Config{MaxAttempts: 3}, zerolog.Nop(), noop.NewTracerProvider().Tracer("test"))

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = uc.ProcessSale(ctx, sales.Cart{Items: []sales.CartLine{{ProductID: p.ID, Quantity: 1}}})
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, e := range errs {
		if e == nil {
			ok++
			continue
		}
		assert.True(t, errors.Is(e, domain.ErrInsufficientStock), "error inesperado: %v", e)
	}
	assert.Equal(t, 1, ok)
	got, err := products.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Stock)
}

func TestSQLite_Estadisticas(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	products := sqlite.NewProductRepository(store.DB())
	a := &entity.Product{Name: "A", Price: decimal.RequireFromString("2.50"), Cost: decimal.RequireFromString("1.75"), Stock: 10, MinStock: 2}
	b := &entity.Product{Name: "B", Price: decimal.RequireFromString("7"), Cost: decimal.RequireFromString("4.10"), Stock: 3, MinStock: 5}
	require.NoError(t, products.Create(ctx, a))
	require.NoError(t, products.Create(ctx, b))

	uc := sales.NewProcessSaleUseCase(sqlite.NewTxRunner(store), sales.Config{MaxAttempts: 1}, zerolog.Nop(), noop.NewTracerProvider().Tracer("test"))
	_, err := uc.ProcessSale(ctx, sales.Cart{Items: []sales.CartLine{{ProductID: a.ID, Quantity: 4}, {ProductID: b.ID, Quantity: 1}}})
	require.NoError(t, err)
	_, err = uc.ProcessSale(ctx, sales.Cart{Items: []sales.CartLine{{ProductID: a.ID, Quantity: 1}}})
	require.NoError(t, err)

	stats := sqlite.NewStatsRepository(store.DB())
	from := time.Now().Add(-time.Hour)
	to := time.Now().Add(time.Hour)

	sum, err := stats.GetSalesSummary(ctx, from, to)
	require.NoError(t, err)
	assert.Equal(t, 2, sum.SalesCount)
	assert.Equal(t, 6, sum.UnitsSold)
	// 4×2.50 + 7 + 2.50
	assert.Equal(t, "19.5", sum.Revenue.String())
	// 5×0.75 + 2.90
	assert.Equal(t, "6.65", sum.Profit.String())

	top, err := stats.GetTopProducts(ctx, from, to, 5)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, a.ID, top[0].ProductID)
	assert.Equal(t, 5, top[0].UnitsSold)
	assert.Equal(t, "12.5", top[0].Revenue.String())

	daily, err := stats.GetDailySales(ctx, from, to)
	require.NoError(t, err)
	require.NotEmpty(t, daily)
	total := 0
	for _, d := range daily {
		total += d.SalesCount
	}
	assert.Equal(t, 2, total)

	inv, err := stats.GetInventoryValue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, inv.ProductCount)
	// 5 + 2 unidades; costo 5×1.75 + 2×4.10
	assert.Equal(t, 7, inv.TotalUnits)
	assert.Equal(t, "16.95", inv.CostValue.String())
	assert.Equal(t, 1, inv.LowStockCount)
}
