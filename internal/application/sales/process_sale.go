package sales

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jhoicas/tienda-pos/internal/domain"
	"github.com/jhoicas/tienda-pos/internal/domain/entity"
	"github.com/jhoicas/tienda-pos/internal/domain/repository"
	"github.com/jhoicas/tienda-pos/internal/domain/sale"
)

// CartLine línea pedida por el cliente. Price y Cost se aceptan solo para mostrar:
// los totales se calculan siempre con el snapshot del catálogo.
type CartLine struct {
	ProductID int64
	Quantity  int
	Price     *decimal.Decimal
	Cost      *decimal.Decimal
}

// Cart carrito propuesto. Un mismo producto puede aparecer en varias líneas.
type Cart struct {
	Items []CartLine
}

// SaleResult resultado de una venta confirmada.
type SaleResult struct {
	SaleID    int64
	Total     decimal.Decimal
	Profit    decimal.Decimal
	CreatedAt time.Time
	Items     []entity.SaleItem
}

// Config parámetros del procesador.
type Config struct {
	MaxAttempts  int           // intentos ante domain.ErrTxConflict (mínimo 1)
	RetryBackoff time.Duration // espera base entre intentos; se multiplica por el número de intento
	MaxLines     int           // 0 = sin límite
}

// ProcessSaleUseCase convierte un carrito en una venta: valida disponibilidad y, en la
// misma transacción, crea cabecera + líneas y descuenta el stock (todo o nada).
type ProcessSaleUseCase struct {
	txRunner TxRunner
	cfg      Config
	log      zerolog.Logger
	tracer   trace.Tracer
	now      func() time.Time
}

// NewProcessSaleUseCase construye el caso de uso.
func NewProcessSaleUseCase(txRunner TxRunner, cfg Config, log zerolog.Logger, tracer trace.Tracer) *ProcessSaleUseCase {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	return &ProcessSaleUseCase{
		txRunner: txRunner,
		cfg:      cfg,
		log:      log.With().Str("component", "sales").Logger(),
		tracer:   tracer,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// ProcessSale valida el carrito y confirma la venta de forma atómica.
//
// Errores de cliente (sin efectos): domain.ErrEmptyCart, *domain.InvalidLineError,
// *domain.ProductNotFoundError, *domain.InsufficientStockError y domain.ErrInvalidInput
// cuando el importe no cabe en las columnas de dinero.
// Cualquier otro error es de almacenamiento y garantiza que no quedó nada escrito.
func (uc *ProcessSaleUseCase) ProcessSale(ctx context.Context, cart Cart) (*SaleResult, error) {
	if err := uc.checkShape(cart); err != nil {
		uc.log.Info().Err(err).Int("lines", len(cart.Items)).Msg("venta rechazada")
		return nil, err
	}

	ids := make([]int64, len(cart.Items))
	qtys := make([]int, len(cart.Items))
	for i, l := range cart.Items {
		ids[i] = l.ProductID
		qtys[i] = l.Quantity
	}
	demand := sale.AggregateDemand(ids, qtys)

	var err error
	for attempt := 1; attempt <= uc.cfg.MaxAttempts; attempt++ {
		var res *SaleResult
		res, err = uc.attempt(ctx, cart, demand, attempt)
		if err == nil {
			uc.log.Info().
				Int64("sale_id", res.SaleID).
				Str("total", res.Total.String()).
				Str("profit", res.Profit.String()).
				Int("lines", len(res.Items)).
				Int("attempt", attempt).
				Msg("venta registrada")
			return res, nil
		}
		if !errors.Is(err, domain.ErrTxConflict) || attempt == uc.cfg.MaxAttempts {
			break
		}
		uc.log.Warn().Err(err).Int("attempt", attempt).Msg("conflicto de transacción, reintentando venta")
		if werr := uc.wait(ctx, attempt); werr != nil {
			err = werr
			break
		}
	}

	if domain.IsClientError(err) {
		uc.log.Info().Err(err).Int("lines", len(cart.Items)).Msg("venta rechazada")
	} else {
		uc.log.Error().Err(err).Int("lines", len(cart.Items)).Msg("no se pudo registrar la venta")
	}
	return nil, err
}

// checkShape validaciones que no necesitan el almacén.
func (uc *ProcessSaleUseCase) checkShape(cart Cart) error {
	if len(cart.Items) == 0 {
		return domain.ErrEmptyCart
	}
	if uc.cfg.MaxLines > 0 && len(cart.Items) > uc.cfg.MaxLines {
		return fmt.Errorf("%w: el carrito supera %d líneas", domain.ErrInvalidInput, uc.cfg.MaxLines)
	}
	sums := make(map[int64]int, len(cart.Items))
	for i, l := range cart.Items {
		if l.ProductID <= 0 {
			return &domain.InvalidLineError{Index: i, Reason: "product_id debe ser positivo"}
		}
		if l.Quantity <= 0 {
			return &domain.InvalidLineError{Index: i, Reason: "quantity debe ser positiva"}
		}
		if l.Quantity > sale.MaxQuantity {
			return &domain.InvalidLineError{Index: i, Reason: fmt.Sprintf("quantity no puede superar %d", sale.MaxQuantity)}
		}
		if sums[l.ProductID] > sale.MaxQuantity-l.Quantity {
			return &domain.InvalidLineError{Index: i, Reason: fmt.Sprintf("la cantidad total del producto %d supera %d", l.ProductID, sale.MaxQuantity)}
		}
		sums[l.ProductID] += l.Quantity
	}
	return nil
}

// attempt un intento completo de validación + commit dentro de una sola transacción.
func (uc *ProcessSaleUseCase) attempt(ctx context.Context, cart Cart, demand []sale.Demand, attempt int) (*SaleResult, error) {
	ctx, span := uc.tracer.Start(ctx, "sales.ProcessSale", trace.WithAttributes(
		attribute.Int("sale.lines", len(cart.Items)),
		attribute.Int("sale.products", len(demand)),
		attribute.Int("sale.attempt", attempt),
	))
	defer span.End()

	var result *SaleResult
	err := uc.txRunner.Run(ctx, func(
		productRepo repository.ProductRepository,
		saleRepo repository.SaleRepository,
	) error {
		// 1) Bloquea y carga cada producto en orden ascendente de ID (evita deadlocks)
		products := make(map[int64]*entity.Product, len(demand))
		for _, dm := range demand {
			p, err := productRepo.GetForUpdate(ctx, dm.ProductID)
			if err != nil {
				return err
			}
			if p != nil {
				products[dm.ProductID] = p
			}
		}

		// 2) Existencia: se reporta el primer faltante según el orden del carrito
		for _, l := range cart.Items {
			if _, ok := products[l.ProductID]; !ok {
				return &domain.ProductNotFoundError{ProductID: l.ProductID}
			}
		}

		// 3) Disponibilidad sobre la cantidad sumada por producto
		for _, dm := range demand {
			p := products[dm.ProductID]
			if dm.Quantity > p.Stock {
				return &domain.InsufficientStockError{
					ProductID: dm.ProductID,
					Requested: dm.Quantity,
					Available: p.Stock,
				}
			}
		}

		// 4) Snapshot de precio/costo y totales
		lines := make([]sale.Line, len(cart.Items))
		for i, l := range cart.Items {
			p := products[l.ProductID]
			uc.warnClientValues(l, p)
			lines[i] = sale.Line{ProductID: p.ID, Price: p.Price, Cost: p.Cost, Quantity: l.Quantity}
		}
		totals := sale.ComputeTotals(lines)
		if !sale.WithinAmount(totals.Total) || !sale.WithinAmount(totals.Profit) {
			return fmt.Errorf("%w: el importe de la venta supera %s", domain.ErrInvalidInput, sale.MaxAmount.String())
		}

		// 5) Cabecera
		header := &entity.Sale{
			Total:     totals.Total,
			Profit:    totals.Profit,
			CreatedAt: uc.now(),
		}
		if err := saleRepo.Create(ctx, header); err != nil {
			return err
		}

		// 6) Una línea por cada línea del carrito
		items := make([]entity.SaleItem, 0, len(cart.Items))
		for i, l := range cart.Items {
			p := products[l.ProductID]
			item := entity.SaleItem{
				SaleID:      header.ID,
				ProductID:   p.ID,
				ProductName: p.Name,
				Price:       lines[i].Price,
				Cost:        lines[i].Cost,
				Quantity:    l.Quantity,
			}
			if err := saleRepo.CreateItem(ctx, &item); err != nil {
				return err
			}
			items = append(items, item)
		}

		// 7) Descuento de stock, una vez por producto
		for _, dm := range demand {
			if err := productRepo.DecrementStock(ctx, dm.ProductID, dm.Quantity); err != nil {
				return err
			}
		}

		header.Items = items
		result = &SaleResult{
			SaleID:    header.ID,
			Total:     header.Total,
			Profit:    header.Profit,
			CreatedAt: header.CreatedAt,
			Items:     items,
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int64("sale.id", result.SaleID))
	return result, nil
}

// warnClientValues deja constancia cuando el cliente envía precio/costo distintos al catálogo.
func (uc *ProcessSaleUseCase) warnClientValues(l CartLine, p *entity.Product) {
	if l.Price != nil && !l.Price.Equal(p.Price) {
		uc.log.Warn().
			Int64("product_id", p.ID).
			Str("client_price", l.Price.String()).
			Str("price", p.Price.String()).
			Msg("precio enviado por el cliente ignorado")
	}
	if l.Cost != nil && !l.Cost.Equal(p.Cost) {
		uc.log.Warn().
			Int64("product_id", p.ID).
			Str("client_cost", l.Cost.String()).
			Str("cost", p.Cost.String()).
			Msg("costo enviado por el cliente ignorado")
	}
}

func (uc *ProcessSaleUseCase) wait(ctx context.Context, attempt int) error {
	if uc.cfg.RetryBackoff <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(uc.cfg.RetryBackoff * time.Duration(attempt))
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
