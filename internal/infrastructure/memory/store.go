// Package memory implementa los puertos de persistencia en memoria.
// Un único mutex serializa las transacciones; cada transacción trabaja sobre una copia
// del estado que reemplaza al original solo en el commit. Pensado para desarrollo y pruebas.
package memory

import (
	"context"
	"maps"
	"sync"

	"github.com/jhoicas/tienda-pos/internal/domain/entity"
)

type data struct {
	products      map[int64]entity.Product
	sales         map[int64]entity.Sale
	nextProductID int64
	nextSaleID    int64
	nextItemID    int64
}

func (d *data) clone() *data {
	return &data{
		products:      maps.Clone(d.products),
		sales:         maps.Clone(d.sales),
		nextProductID: d.nextProductID,
		nextSaleID:    d.nextSaleID,
		nextItemID:    d.nextItemID,
	}
}

// Store estado compartido del backend en memoria.
type Store struct {
	mu   sync.Mutex
	data *data
}

// NewStore crea un almacén vacío.
func NewStore() *Store {
	return &Store{data: &data{
		products: make(map[int64]entity.Product),
		sales:    make(map[int64]entity.Sale),
	}}
}

// view ejecuta fn sobre el estado confirmado, bajo el mutex.
func (s *Store) view(fn func(d *data) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.data)
}

// Ping implementa el chequeo de salud; el backend en memoria siempre está disponible.
func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}
