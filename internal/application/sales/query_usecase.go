package sales

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/tienda-pos/internal/domain"
	"github.com/jhoicas/tienda-pos/internal/domain/entity"
	"github.com/jhoicas/tienda-pos/internal/domain/repository"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

// QueryUseCase lecturas sobre el libro de ventas.
type QueryUseCase struct {
	saleRepo repository.SaleRepository
}

// NewQueryUseCase construye el caso de uso.
func NewQueryUseCase(saleRepo repository.SaleRepository) *QueryUseCase {
	return &QueryUseCase{saleRepo: saleRepo}
}

// GetSale devuelve la venta con sus líneas o domain.ErrNotFound.
func (uc *QueryUseCase) GetSale(ctx context.Context, id int64) (*entity.Sale, error) {
	if id <= 0 {
		return nil, domain.ErrInvalidInput
	}
	s, err := uc.saleRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, domain.ErrNotFound
	}
	return s, nil
}

// SalePage página de cabeceras con los límites efectivamente aplicados.
type SalePage struct {
	Sales  []*entity.Sale
	Limit  int
	Offset int
}

// ListSales devuelve cabeceras en [from, to), más reciente primero. limit se acota a
// [1, 200] (50 por defecto) y offset negativo pasa a 0.
func (uc *QueryUseCase) ListSales(ctx context.Context, from, to *time.Time, limit, offset int) (*SalePage, error) {
	if from != nil && to != nil && !from.Before(*to) {
		return nil, fmt.Errorf("%w: from debe ser anterior a to", domain.ErrInvalidInput)
	}
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	list, err := uc.saleRepo.List(ctx, repository.SaleFilter{From: from, To: to, Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	return &SalePage{Sales: list, Limit: limit, Offset: offset}, nil
}
