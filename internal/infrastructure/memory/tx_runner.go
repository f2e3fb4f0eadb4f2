package memory

import (
	"context"

	"github.com/jhoicas/tienda-pos/internal/application/sales"
	"github.com/jhoicas/tienda-pos/internal/domain/repository"
)

var _ sales.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks con aislamiento serializable sobre el Store.
type TxRunner struct {
	store *Store
}

// NewTxRunner construye el runner.
func NewTxRunner(store *Store) *TxRunner {
	return &TxRunner{store: store}
}

// Run toma el mutex, ejecuta fn sobre una copia y la publica solo si fn retorna nil.
// Ante error o panic la copia se descarta.
func (r *TxRunner) Run(ctx context.Context, fn func(
	productRepo repository.ProductRepository,
	saleRepo repository.SaleRepository,
) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	staged := r.store.data.clone()
	if err := fn(&ProductRepository{store: r.store, tx: staged}, &SaleRepository{store: r.store, tx: staged}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	r.store.data = staged
	return nil
}
