package memory

import (
	"context"
	"slices"
	"sort"
	"time"

	"github.com/jhoicas/tienda-pos/internal/domain"
	"github.com/jhoicas/tienda-pos/internal/domain/entity"
	"github.com/jhoicas/tienda-pos/internal/domain/repository"
)

var _ repository.SaleRepository = (*SaleRepository)(nil)

// SaleRepository implementa repository.SaleRepository en memoria.
type SaleRepository struct {
	store *Store
	tx    *data
}

// NewSaleRepository repo sobre el estado confirmado.
func NewSaleRepository(store *Store) *SaleRepository {
	return &SaleRepository{store: store}
}

func (r *SaleRepository) do(fn func(d *data) error) error {
	if r.tx != nil {
		return fn(r.tx)
	}
	return r.store.view(fn)
}

func (r *SaleRepository) Create(ctx context.Context, sale *entity.Sale) error {
	return r.do(func(d *data) error {
		d.nextSaleID++
		sale.ID = d.nextSaleID
		if sale.CreatedAt.IsZero() {
			sale.CreatedAt = time.Now().UTC()
		}
		stored := *sale
		stored.Items = nil
		d.sales[sale.ID] = stored
		return nil
	})
}

func (r *SaleRepository) CreateItem(ctx context.Context, item *entity.SaleItem) error {
	return r.do(func(d *data) error {
		s, ok := d.sales[item.SaleID]
		if !ok {
			return domain.ErrNotFound
		}
		d.nextItemID++
		item.ID = d.nextItemID
		s.Items = append(slices.Clip(s.Items), *item)
		d.sales[s.ID] = s
		return nil
	})
}

func (r *SaleRepository) GetByID(ctx context.Context, id int64) (*entity.Sale, error) {
	var out *entity.Sale
	err := r.do(func(d *data) error {
		if s, ok := d.sales[id]; ok {
			s.Items = slices.Clone(s.Items)
			out = &s
		}
		return nil
	})
	return out, err
}

func (r *SaleRepository) List(ctx context.Context, filter repository.SaleFilter) ([]*entity.Sale, error) {
	var out []*entity.Sale
	err := r.do(func(d *data) error {
		list := make([]*entity.Sale, 0)
		for _, s := range d.sales {
			if !inRange(s.CreatedAt, filter.From, filter.To) {
				continue
			}
			s.Items = nil
			s := s
			list = append(list, &s)
		}
		sort.Slice(list, func(i, j int) bool {
			if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
				return list[i].CreatedAt.After(list[j].CreatedAt)
			}
			return list[i].ID > list[j].ID
		})
		if filter.Offset >= len(list) {
			out = []*entity.Sale{}
			return nil
		}
		list = list[filter.Offset:]
		if filter.Limit > 0 && filter.Limit < len(list) {
			list = list[:filter.Limit]
		}
		out = list
		return nil
	})
	return out, err
}

// inRange [from, to); nil = sin límite.
func inRange(t time.Time, from, to *time.Time) bool {
	if from != nil && t.Before(*from) {
		return false
	}
	if to != nil && !t.Before(*to) {
		return false
	}
	return true
}
