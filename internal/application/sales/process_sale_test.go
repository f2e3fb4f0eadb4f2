package sales_test

import (
	"bytes"
	"context"
	"errors"
	"math"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/goleak"

	"github.com/jhoicas/tienda-pos/internal/application/sales"
	"github.com/jhoicas/tienda-pos/internal/domain"
	"github.com/jhoicas/tienda-pos/internal/domain/entity"
	"github.com/jhoicas/tienda-pos/internal/domain/repository"
	"github.com/jhoicas/tienda-pos/internal/domain/sale"
	"github.com/jhoicas/tienda-pos/internal/infrastructure/memory"
)

type fixture struct {
	store    *memory.Store
	products *memory.ProductRepository
	sales    *memory.SaleRepository
	runner   sales.TxRunner
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	return &fixture{
		store:    store,
		products: memory.NewProductRepository(store),
		sales:    memory.NewSaleRepository(store),
		runner:   memory.NewTxRunner(store),
	}
}

func (f *fixture) useCase(cfg sales.Config) *sales.ProcessSaleUseCase {
	return sales.NewProcessSaleUseCase(f.runner, cfg, zerolog.Nop(), noop.NewTracerProvider().Tracer("test"))
}

func (f *fixture) addProduct(t *testing.T, name, price, cost string, stock int) *entity.Product {
	t.Helper()
	p := &entity.Product{
		Name:     name,
		Category: "general",
		Price:    decimal.RequireFromString(price),
		Cost:     decimal.RequireFromString(cost),
		Stock:    stock,
		MinStock: 1,
	}
	require.NoError(t, f.products.Create(context.Background(), p))
	return p
}

func (f *fixture) stockOf(t *testing.T, id int64) int {
	t.Helper()
	p, err := f.products.GetByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, p)
	return p.Stock
}

func (f *fixture) saleCount(t *testing.T) int {
	t.Helper()
	list, err := f.sales.List(context.Background(), repository.SaleFilter{})
	require.NoError(t, err)
	return len(list)
}

func line(id int64, qty int) sales.CartLine {
	return sales.CartLine{ProductID: id, Quantity: qty}
}

func TestProcessSale_VentaExitosa(t *testing.T) {
	f := newFixture(t)
	p := f.addProduct(t, "Café 500g", "50", "40", 10)
	uc := f.useCase(sales.Config{MaxAttempts: 3})

	res, err := uc.ProcessSale(context.Background(), sales.Cart{Items: []sales.CartLine{line(p.ID, 3)}})
	require.NoError(t, err)

	assert.True(t, decimal.NewFromInt(150).Equal(res.Total), "total %s", res.Total)
	assert.True(t, decimal.NewFromInt(30).Equal(res.Profit), "profit %s", res.Profit)
	assert.Positive(t, res.SaleID)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "Café 500g", res.Items[0].ProductName)
	assert.Equal(t, 7, f.stockOf(t, p.ID))

	stored, err := f.sales.GetByID(context.Background(), res.SaleID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	require.Len(t, stored.Items, 1)
	assert.Equal(t, 3, stored.Items[0].Quantity)
	assert.True(t, stored.Total.Equal(res.Total))
}

func TestProcessSale_VariosProductos(t *testing.T) {
	f := newFixture(t)
	a := f.addProduct(t, "Arroz", "3.25", "2.10", 20)
	b := f.addProduct(t, "Aceite", "12.99", "9.50", 5)
	uc := f.useCase(sales.Config{MaxAttempts: 1})

	res, err := uc.ProcessSale(context.Background(), sales.Cart{Items: []sales.CartLine{line(b.ID, 2), line(a.ID, 4)}})
	require.NoError(t, err)

	// 2×12.99 + 4×3.25 = 38.98 ; 2×3.49 + 4×1.15 = 11.58
	assert.Equal(t, "38.98", res.Total.StringFixed(2))
	assert.Equal(t, "11.58", res.Profit.StringFixed(2))
	require.Len(t, res.Items, 2)
	assert.Equal(t, b.ID, res.Items[0].ProductID, "las líneas conservan el orden del carrito")
	assert.Equal(t, 16, f.stockOf(t, a.ID))
	assert.Equal(t, 3, f.stockOf(t, b.ID))
}

func TestProcessSale_CarritoVacio(t *testing.T) {
	f := newFixture(t)
	uc := f.useCase(sales.Config{MaxAttempts: 3})

	_, err := uc.ProcessSale(context.Background(), sales.Cart{})
	require.ErrorIs(t, err, domain.ErrEmptyCart)
	assert.Equal(t, 0, f.saleCount(t))
}

func TestProcessSale_LineaInvalida(t *testing.T) {
	f := newFixture(t)
	p := f.addProduct(t, "Pan", "1", "0.5", 10)
	uc := f.useCase(sales.Config{MaxAttempts: 1})

	_, err := uc.ProcessSale(context.Background(), sales.Cart{Items: []sales.CartLine{line(p.ID, 1), line(p.ID, 0)}})
	var lineErr *domain.InvalidLineError
	require.ErrorAs(t, err, &lineErr)
	assert.Equal(t, 1, lineErr.Index)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = uc.ProcessSale(context.Background(), sales.Cart{Items: []sales.CartLine{line(-4, 1)}})
	require.ErrorAs(t, err, &lineErr)
	assert.Equal(t, 0, lineErr.Index)

	assert.Equal(t, 10, f.stockOf(t, p.ID))
	assert.Equal(t, 0, f.saleCount(t))
}

func TestProcessSale_DemasiadasLineas(t *testing.T) {
	f := newFixture(t)
	p := f.addProduct(t, "Chicle", "0.10", "0.05", 100)
	uc := f.useCase(sales.Config{MaxAttempts: 1, MaxLines: 2})

	_, err := uc.ProcessSale(context.Background(), sales.Cart{Items: []sales.CartLine{line(p.ID, 1), line(p.ID, 1), line(p.ID, 1)}})
	require.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Equal(t, 100, f.stockOf(t, p.ID))
}

func TestProcessSale_CantidadesFueraDeRango(t *testing.T) {
	f := newFixture(t)
	p := f.addProduct(t, "Arroz 1kg", "50", "40", 10)
	uc := f.useCase(sales.Config{MaxAttempts: 1})

	half := math.MaxInt/2 + 1
	cases := []struct {
		name  string
		items []sales.CartLine
		index int
	}{
		{"suma que desborda int", []sales.CartLine{line(p.ID, half), line(p.ID, half)}, 0},
		{"línea sobre el máximo", []sales.CartLine{line(p.ID, sale.MaxQuantity+1)}, 0},
		{"suma sobre el máximo", []sales.CartLine{line(p.ID, sale.MaxQuantity), line(p.ID, 1)}, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := uc.ProcessSale(context.Background(), sales.Cart{Items: tc.items})
			var lineErr *domain.InvalidLineError
			require.ErrorAs(t, err, &lineErr)
			assert.Equal(t, tc.index, lineErr.Index)
			assert.True(t, domain.IsClientError(err))
		})
	}

	assert.Equal(t, 10, f.stockOf(t, p.ID))
	assert.Equal(t, 0, f.saleCount(t))
}

func TestProcessSale_ImporteExcesivo(t *testing.T) {
	f := newFixture(t)
	p := f.addProduct(t, "Lingote", "999999999999.99", "1", 5)
	uc := f.useCase(sales.Config{MaxAttempts: 1})

	_, err := uc.ProcessSale(context.Background(), sales.Cart{Items: []sales.CartLine{line(p.ID, 2)}})
	require.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.True(t, domain.IsClientError(err))
	assert.Equal(t, 5, f.stockOf(t, p.ID))
	assert.Equal(t, 0, f.saleCount(t))

	res, err := uc.ProcessSale(context.Background(), sales.Cart{Items: []sales.CartLine{line(p.ID, 1)}})
	require.NoError(t, err)
	assert.True(t, res.Total.Equal(sale.MaxAmount))
}

func TestProcessSale_StockInsuficiente(t *testing.T) {
	f := newFixture(t)
	p := f.addProduct(t, "Leche", "4", "3", 2)
	uc := f.useCase(sales.Config{MaxAttempts: 3})

	_, err := uc.ProcessSale(context.Background(), sales.Cart{Items: []sales.CartLine{line(p.ID, 3)}})
	var stockErr *domain.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, p.ID, stockErr.ProductID)
	assert.Equal(t, 3, stockErr.Requested)
	assert.Equal(t, 2, stockErr.Available)
	assert.True(t, domain.IsClientError(err))

	assert.Equal(t, 2, f.stockOf(t, p.ID))
	assert.Equal(t, 0, f.saleCount(t))
}

func TestProcessSale_LineasDuplicadasSeSuman(t *testing.T) {
	f := newFixture(t)
	p := f.addProduct(t, "Huevos", "0.30", "0.20", 5)
	uc := f.useCase(sales.Config{MaxAttempts: 1})

	// 3 + 3 supera el stock aunque cada línea por separado cabría
	_, err := uc.ProcessSale(context.Background(), sales.Cart{Items: []sales.CartLine{line(p.ID, 3), line(p.ID, 3)}})
	var stockErr *domain.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, 6, stockErr.Requested)
	assert.Equal(t, 5, f.stockOf(t, p.ID))

	res, err := uc.ProcessSale(context.Background(), sales.Cart{Items: []sales.CartLine{line(p.ID, 2), line(p.ID, 2)}})
	require.NoError(t, err)
	assert.Len(t, res.Items, 2)
	assert.Equal(t, "1.20", res.Total.StringFixed(2))
	assert.Equal(t, 1, f.stockOf(t, p.ID))
}

func TestProcessSale_ProductoInexistente(t *testing.T) {
	f := newFixture(t)
	p := f.addProduct(t, "Sal", "1", "0.4", 10)
	uc := f.useCase(sales.Config{MaxAttempts: 3})

	_, err := uc.ProcessSale(context.Background(), sales.Cart{Items: []sales.CartLine{line(p.ID, 1), line(999, 1), line(998, 1)}})
	var nfErr *domain.ProductNotFoundError
	require.ErrorAs(t, err, &nfErr)
	assert.Equal(t, int64(999), nfErr.ProductID, "se reporta el primer faltante en orden del carrito")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.Equal(t, 10, f.stockOf(t, p.ID))
	assert.Equal(t, 0, f.saleCount(t))
}

func TestProcessSale_InexistenteAntesQueStock(t *testing.T) {
	f := newFixture(t)
	p := f.addProduct(t, "Azúcar", "2", "1", 1)
	uc := f.useCase(sales.Config{MaxAttempts: 1})

	_, err := uc.ProcessSale(context.Background(), sales.Cart{Items: []sales.CartLine{line(p.ID, 50), line(777, 1)}})
	var nfErr *domain.ProductNotFoundError
	require.ErrorAs(t, err, &nfErr)
	assert.Equal(t, int64(777), nfErr.ProductID)
}

func TestProcessSale_PrecioDelClienteIgnorado(t *testing.T) {
	f := newFixture(t)
	p := f.addProduct(t, "Queso", "10", "7", 5)
	var buf bytes.Buffer
	uc := sales.NewProcessSaleUseCase(f.runner, sales.Config{MaxAttempts: 1}, zerolog.New(&buf), noop.NewTracerProvider().Tracer("test"))

	cheap := decimal.NewFromInt(1)
	res, err := uc.ProcessSale(context.Background(), sales.Cart{Items: []sales.CartLine{
		{ProductID: p.ID, Quantity: 2, Price: &cheap, Cost: &cheap},
	}})
	require.NoError(t, err)
	assert.Equal(t, "20", res.Total.String())
	assert.Equal(t, "6", res.Profit.String())
	assert.Contains(t, buf.String(), "precio enviado por el cliente ignorado")
	assert.Contains(t, buf.String(), "costo enviado por el cliente ignorado")
}

func TestProcessSale_SnapshotNoCambiaConElCatalogo(t *testing.T) {
	f := newFixture(t)
	p := f.addProduct(t, "Jabón", "5", "3", 10)
	uc := f.useCase(sales.Config{MaxAttempts: 1})

	res, err := uc.ProcessSale(context.Background(), sales.Cart{Items: []sales.CartLine{line(p.ID, 1)}})
	require.NoError(t, err)

	cur, err := f.products.GetByID(context.Background(), p.ID)
	require.NoError(t, err)
	cur.Price = decimal.NewFromInt(99)
	cur.Name = "Jabón premium"
	require.NoError(t, f.products.Update(context.Background(), cur))

	stored, err := f.sales.GetByID(context.Background(), res.SaleID)
	require.NoError(t, err)
	assert.Equal(t, "Jabón", stored.Items[0].ProductName)
	assert.Equal(t, "5", stored.Items[0].Price.String())
}

func TestProcessSale_Concurrencia_UltimaUnidad(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := newFixture(t)
	p := f.addProduct(t, "Última unidad", "100", "60", 1)
	uc := f.useCase(sales.Config{MaxAttempts: 3})

	const buyers = 16
	var (
		wg       sync.WaitGroup
		ok       atomic.Int32
		rejected atomic.Int32
	)
	start := make(chan struct{})
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := uc.ProcessSale(context.Background(), sales.Cart{Items: []sales.CartLine{line(p.ID, 1)}})
			switch {
			case err == nil:
				ok.Add(1)
			case errors.Is(err, domain.ErrInsufficientStock):
				rejected.Add(1)
			default:
				t.Errorf("error inesperado: %v", err)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int32(1), ok.Load())
	assert.Equal(t, int32(buyers-1), rejected.Load())
	assert.Equal(t, 0, f.stockOf(t, p.ID))
	assert.Equal(t, 1, f.saleCount(t))
}

func TestProcessSale_Concurrencia_Conciliacion(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := newFixture(t)
	a := f.addProduct(t, "A", "2.50", "1.75", 30)
	b := f.addProduct(t, "B", "7.00", "4.10", 30)
	uc := f.useCase(sales.Config{MaxAttempts: 3})

	var wg sync.WaitGroup
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			// orden alterno para cubrir carritos con productos en orden distinto
			cart := sales.Cart{Items: []sales.CartLine{line(a.ID, 1), line(b.ID, 1)}}
			if i%2 == 1 {
				cart.Items[0], cart.Items[1] = cart.Items[1], cart.Items[0]
			}
			_, _ = uc.ProcessSale(context.Background(), cart)
		}(i)
	}
	wg.Wait()

	list, err := f.sales.List(context.Background(), repository.SaleFilter{})
	require.NoError(t, err)
	assert.Len(t, list, 30, "solo caben 30 ventas de cada producto")

	sold := map[int64]int{}
	for _, h := range list {
		s, err := f.sales.GetByID(context.Background(), h.ID)
		require.NoError(t, err)
		total, profit := decimal.Zero, decimal.Zero
		for _, it := range s.Items {
			sold[it.ProductID] += it.Quantity
			total = total.Add(it.Subtotal())
			profit = profit.Add(it.Profit())
		}
		assert.True(t, total.Equal(s.Total), "total de la venta %d no concilia", s.ID)
		assert.True(t, profit.Equal(s.Profit), "utilidad de la venta %d no concilia", s.ID)
	}
	assert.Equal(t, 30-sold[a.ID], f.stockOf(t, a.ID))
	assert.Equal(t, 30-sold[b.ID], f.stockOf(t, b.ID))
	assert.Equal(t, 0, f.stockOf(t, a.ID))
}

// faultyRunner delega en un TxRunner real pero hace fallar DecrementStock para un producto.
type faultyRunner struct {
	inner  sales.TxRunner
	failOn int64
}

type faultyProducts struct {
	repository.ProductRepository
	failOn int64
}

func (p faultyProducts) DecrementStock(ctx context.Context, id int64, amount int) error {
	if id == p.failOn {
		return errors.New("disco lleno")
	}
	return p.ProductRepository.DecrementStock(ctx, id, amount)
}

func (r *faultyRunner) Run(ctx context.Context, fn func(repository.ProductRepository, repository.SaleRepository) error) error {
	return r.inner.Run(ctx, func(pr repository.ProductRepository, sr repository.SaleRepository) error {
		return fn(faultyProducts{ProductRepository: pr, failOn: r.failOn}, sr)
	})
}

func TestProcessSale_FalloDeAlmacenamiento_NoDejaRastro(t *testing.T) {
	f := newFixture(t)
	a := f.addProduct(t, "A", "1", "0.5", 10)
	b := f.addProduct(t, "B", "2", "1", 10)
	f.runner = &faultyRunner{inner: f.runner, failOn: b.ID}
	uc := f.useCase(sales.Config{MaxAttempts: 3})

	_, err := uc.ProcessSale(context.Background(), sales.Cart{Items: []sales.CartLine{line(a.ID, 2), line(b.ID, 2)}})
	require.Error(t, err)
	assert.False(t, domain.IsClientError(err))

	// A se descontó dentro de la tx antes del fallo; el rollback lo deshace
	assert.Equal(t, 10, f.stockOf(t, a.ID))
	assert.Equal(t, 10, f.stockOf(t, b.ID))
	assert.Equal(t, 0, f.saleCount(t))
}

// conflictRunner devuelve ErrTxConflict en los primeros n intentos.
type conflictRunner struct {
	inner sales.TxRunner
	n     int32
	calls atomic.Int32
}

func (r *conflictRunner) Run(ctx context.Context, fn func(repository.ProductRepository, repository.SaleRepository) error) error {
	if r.calls.Add(1) <= r.n {
		return r.inner.Run(ctx, func(pr repository.ProductRepository, sr repository.SaleRepository) error {
			if err := fn(pr, sr); err != nil {
				return err
			}
			return domain.ErrTxConflict
		})
	}
	return r.inner.Run(ctx, fn)
}

func TestProcessSale_ReintentaConflictos(t *testing.T) {
	f := newFixture(t)
	p := f.addProduct(t, "Té", "3", "2", 5)
	cr := &conflictRunner{inner: f.runner, n: 2}
	f.runner = cr
	uc := f.useCase(sales.Config{MaxAttempts: 3, RetryBackoff: time.Millisecond})

	res, err := uc.ProcessSale(context.Background(), sales.Cart{Items: []sales.CartLine{line(p.ID, 1)}})
	require.NoError(t, err)
	assert.Equal(t, int32(3), cr.calls.Load())
	assert.Equal(t, 4, f.stockOf(t, p.ID))
	assert.Equal(t, 1, f.saleCount(t), "los intentos fallidos no dejan ventas")
	assert.Positive(t, res.SaleID)
}

func TestProcessSale_AgotaReintentos(t *testing.T) {
	f := newFixture(t)
	p := f.addProduct(t, "Té", "3", "2", 5)
	cr := &conflictRunner{inner: f.runner, n: 10}
	f.runner = cr
	uc := f.useCase(sales.Config{MaxAttempts: 2})

	_, err := uc.ProcessSale(context.Background(), sales.Cart{Items: []sales.CartLine{line(p.ID, 1)}})
	require.ErrorIs(t, err, domain.ErrTxConflict)
	assert.Equal(t, int32(2), cr.calls.Load())
	assert.Equal(t, 5, f.stockOf(t, p.ID))
}

func TestProcessSale_NoReintentaErroresDeCliente(t *testing.T) {
	f := newFixture(t)
	p := f.addProduct(t, "Té", "3", "2", 1)
	cr := &conflictRunner{inner: f.runner}
	f.runner = cr
	uc := f.useCase(sales.Config{MaxAttempts: 5})

	_, err := uc.ProcessSale(context.Background(), sales.Cart{Items: []sales.CartLine{line(p.ID, 2)}})
	require.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Equal(t, int32(1), cr.calls.Load())
}

func TestProcessSale_RechazoEsIdempotente(t *testing.T) {
	f := newFixture(t)
	p := f.addProduct(t, "Vino", "20", "12", 1)
	uc := f.useCase(sales.Config{MaxAttempts: 1})
	cart := sales.Cart{Items: []sales.CartLine{line(p.ID, 2)}}

	_, err1 := uc.ProcessSale(context.Background(), cart)
	_, err2 := uc.ProcessSale(context.Background(), cart)
	require.Error(t, err1)
	assert.Equal(t, err1.Error(), err2.Error())
	assert.Equal(t, 1, f.stockOf(t, p.ID))
	assert.Equal(t, 0, f.saleCount(t))
}

func TestProcessSale_ContextoCancelado(t *testing.T) {
	f := newFixture(t)
	p := f.addProduct(t, "Pan", "1", "0.5", 3)
	uc := f.useCase(sales.Config{MaxAttempts: 3})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := uc.ProcessSale(ctx, sales.Cart{Items: []sales.CartLine{line(p.ID, 1)}})
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 3, f.stockOf(t, p.ID))
}

func TestProcessSale_RegistraSpanPorIntento(t *testing.T) {
	f := newFixture(t)
	p := f.addProduct(t, "Té", "3", "2", 5)
	cr := &conflictRunner{inner: f.runner, n: 1}
	f.runner = cr

	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	uc := sales.NewProcessSaleUseCase(f.runner, sales.Config{MaxAttempts: 2}, zerolog.Nop(), tp.Tracer("test"))

	_, err := uc.ProcessSale(context.Background(), sales.Cart{Items: []sales.CartLine{line(p.ID, 1)}})
	require.NoError(t, err)

	spans := rec.Ended()
	require.Len(t, spans, 2)
	for _, s := range spans {
		assert.Equal(t, "sales.ProcessSale", s.Name())
	}
	assert.Equal(t, "Error", spans[0].Status().Code.String())
	assert.Equal(t, "Unset", spans[1].Status().Code.String())
}

func TestDecrementStock_RechazaCantidadNoPositiva(t *testing.T) {
	f := newFixture(t)
	p := f.addProduct(t, "Pan", "1", "0.5", 10)

	for _, amount := range []int{0, -1, math.MinInt} {
		assert.ErrorIs(t, f.products.DecrementStock(context.Background(), p.ID, amount), domain.ErrInvalidInput)
	}
	assert.Equal(t, 10, f.stockOf(t, p.ID))
}
