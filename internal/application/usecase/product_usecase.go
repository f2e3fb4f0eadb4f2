package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/jhoicas/tienda-pos/internal/application/dto"
	"github.com/jhoicas/tienda-pos/internal/application/sales"
	"github.com/jhoicas/tienda-pos/internal/domain"
	"github.com/jhoicas/tienda-pos/internal/domain/entity"
	"github.com/jhoicas/tienda-pos/internal/domain/inventory"
	"github.com/jhoicas/tienda-pos/internal/domain/repository"
	"github.com/jhoicas/tienda-pos/internal/domain/sale"
)

// ProductUseCase casos de uso del catálogo. El stock solo se descuenta vía ventas;
// se incrementa con Restock o se fija manualmente con Update.
type ProductUseCase struct {
	repo     repository.ProductRepository
	txRunner sales.TxRunner
	log      zerolog.Logger
}

// NewProductUseCase construye el caso de uso.
func NewProductUseCase(repo repository.ProductRepository, txRunner sales.TxRunner, log zerolog.Logger) *ProductUseCase {
	return &ProductUseCase{repo: repo, txRunner: txRunner, log: log.With().Str("component", "catalog").Logger()}
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", domain.ErrInvalidInput, fmt.Sprintf(format, args...))
}

func normalizeBarcode(b *string) *string {
	if b == nil {
		return nil
	}
	s := strings.TrimSpace(*b)
	if s == "" {
		return nil
	}
	return &s
}

func validateProduct(p *entity.Product) error {
	p.Name = strings.TrimSpace(p.Name)
	p.Category = strings.TrimSpace(p.Category)
	p.Barcode = normalizeBarcode(p.Barcode)
	p.Price = p.Price.Round(2)
	p.Cost = p.Cost.Round(2)
	switch {
	case p.Name == "":
		return invalid("name es obligatorio")
	case p.Price.IsNegative():
		return invalid("price no puede ser negativo")
	case p.Cost.IsNegative():
		return invalid("cost no puede ser negativo")
	case p.Stock < 0:
		return invalid("stock no puede ser negativo")
	case p.MinStock < 0:
		return invalid("min_stock no puede ser negativo")
	case !sale.WithinAmount(p.Price) || !sale.WithinAmount(p.Cost):
		return invalid("price y cost no pueden superar %s", sale.MaxAmount.String())
	case p.Stock > sale.MaxQuantity || p.MinStock > sale.MaxQuantity:
		return invalid("stock y min_stock no pueden superar %d", sale.MaxQuantity)
	}
	return nil
}

// Create crea un nuevo producto.
func (uc *ProductUseCase) Create(ctx context.Context, in dto.CreateProductRequest) (*dto.ProductResponse, error) {
	product := &entity.Product{
		Name:     in.Name,
		Category: in.Category,
		Barcode:  in.Barcode,
		Price:    in.Price,
		Cost:     in.Cost,
		Stock:    in.Stock,
		MinStock: in.MinStock,
	}
	if err := validateProduct(product); err != nil {
		return nil, err
	}
	if err := uc.repo.Create(ctx, product); err != nil {
		return nil, err
	}
	return ToProductResponse(product), nil
}

// GetByID obtiene un producto por ID; domain.ErrNotFound si no existe.
func (uc *ProductUseCase) GetByID(ctx context.Context, id int64) (*dto.ProductResponse, error) {
	product, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.ErrNotFound
	}
	return ToProductResponse(product), nil
}

// GetByBarcode busca por código de barras exacto.
func (uc *ProductUseCase) GetByBarcode(ctx context.Context, barcode string) (*dto.ProductResponse, error) {
	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return nil, invalid("barcode es obligatorio")
	}
	product, err := uc.repo.GetByBarcode(ctx, barcode)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.ErrNotFound
	}
	return ToProductResponse(product), nil
}

// Update aplica los campos presentes en in. Lectura y escritura van en la misma transacción
// con el producto bloqueado: una venta concurrente no pierde su descuento de stock.
func (uc *ProductUseCase) Update(ctx context.Context, id int64, in dto.UpdateProductRequest) (*dto.ProductResponse, error) {
	var updated *entity.Product
	err := uc.txRunner.Run(ctx, func(productRepo repository.ProductRepository, _ repository.SaleRepository) error {
		product, err := productRepo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if product == nil {
			return domain.ErrNotFound
		}
		applyUpdate(product, in)
		if err := validateProduct(product); err != nil {
			return err
		}
		if err := productRepo.Update(ctx, product); err != nil {
			return err
		}
		updated = product
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ToProductResponse(updated), nil
}

func applyUpdate(product *entity.Product, in dto.UpdateProductRequest) {
	if in.Name != nil {
		product.Name = *in.Name
	}
	if in.Category != nil {
		product.Category = *in.Category
	}
	if in.Barcode != nil {
		product.Barcode = in.Barcode
	}
	if in.Price != nil {
		product.Price = *in.Price
	}
	if in.Cost != nil {
		product.Cost = *in.Cost
	}
	if in.Stock != nil {
		product.Stock = *in.Stock
	}
	if in.MinStock != nil {
		product.MinStock = *in.MinStock
	}
}

// Restock registra una entrada de mercadería: recalcula el costo promedio ponderado y suma stock,
// todo dentro de una transacción con el producto bloqueado.
func (uc *ProductUseCase) Restock(ctx context.Context, id int64, in dto.RestockRequest) (*dto.ProductResponse, error) {
	if in.Quantity <= 0 {
		return nil, invalid("quantity debe ser positiva")
	}
	if in.UnitCost.IsNegative() {
		return nil, invalid("unit_cost no puede ser negativo")
	}
	if in.Quantity > sale.MaxQuantity || !sale.WithinAmount(in.UnitCost) {
		return nil, invalid("quantity o unit_cost fuera de rango")
	}
	var updated *entity.Product
	err := uc.txRunner.Run(ctx, func(productRepo repository.ProductRepository, _ repository.SaleRepository) error {
		p, err := productRepo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if p == nil {
			return domain.ErrNotFound
		}
		if p.Stock > sale.MaxQuantity-in.Quantity {
			return invalid("el stock resultante supera %d", sale.MaxQuantity)
		}
		p.Cost = inventory.CostCalculator(p.Stock, p.Cost, in.Quantity, in.UnitCost)
		p.Stock += in.Quantity
		if err := productRepo.Update(ctx, p); err != nil {
			return err
		}
		updated = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().
		Int64("product_id", id).
		Int("quantity", in.Quantity).
		Int("stock", updated.Stock).
		Str("cost", updated.Cost.String()).
		Msg("entrada de mercadería registrada")
	return ToProductResponse(updated), nil
}

// List lista productos; con search != "" filtra por nombre, categoría o código.
func (uc *ProductUseCase) List(ctx context.Context, search string, page dto.PageRequest) (*dto.ProductListResponse, error) {
	page.DefaultPage()
	var (
		list []*entity.Product
		err  error
	)
	if s := strings.TrimSpace(search); s != "" {
		list, err = uc.repo.Search(ctx, s, page.Limit)
		page.Offset = 0
	} else {
		list, err = uc.repo.List(ctx, page.Limit, page.Offset)
	}
	if err != nil {
		return nil, err
	}
	return &dto.ProductListResponse{
		Items: toProductResponses(list),
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset},
	}, nil
}

// LowStock productos con stock <= min_stock.
func (uc *ProductUseCase) LowStock(ctx context.Context, limit int) ([]dto.ProductResponse, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	list, err := uc.repo.ListLowStock(ctx, limit)
	if err != nil {
		return nil, err
	}
	return toProductResponses(list), nil
}

// Delete elimina un producto. El historial de ventas conserva su snapshot.
func (uc *ProductUseCase) Delete(ctx context.Context, id int64) error {
	return uc.repo.Delete(ctx, id)
}

// ToProductResponse convierte la entidad a DTO.
func ToProductResponse(p *entity.Product) *dto.ProductResponse {
	if p == nil {
		return nil
	}
	return &dto.ProductResponse{
		ID:        p.ID,
		Name:      p.Name,
		Category:  p.Category,
		Barcode:   p.Barcode,
		Price:     p.Price,
		Cost:      p.Cost,
		Stock:     p.Stock,
		MinStock:  p.MinStock,
		LowStock:  p.IsLowStock(),
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

func toProductResponses(list []*entity.Product) []dto.ProductResponse {
	out := make([]dto.ProductResponse, 0, len(list))
	for _, p := range list {
		out = append(out, *ToProductResponse(p))
	}
	return out
}
