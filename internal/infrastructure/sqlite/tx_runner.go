package sqlite

import (
	"context"
	"fmt"

	"github.com/jhoicas/tienda-pos/internal/application/sales"
	"github.com/jhoicas/tienda-pos/internal/domain/repository"
)

var _ sales.TxRunner = (*TxRunner)(nil)

// TxRunner transacciones BEGIN IMMEDIATE sobre la única conexión del Store.
type TxRunner struct {
	store *Store
}

// NewTxRunner construye el runner.
func NewTxRunner(store *Store) *TxRunner {
	return &TxRunner{store: store}
}

// Run inicia una transacción, ejecuta fn con repos atados a la tx y hace Commit o Rollback.
func (r *TxRunner) Run(ctx context.Context, fn func(
	productRepo repository.ProductRepository,
	saleRepo repository.SaleRepository,
) error) error {
	tx, err := r.store.db.BeginTx(ctx, nil)
	if err != nil {
		return mapTxError(fmt.Errorf("begin transaction: %w", err))
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(NewProductRepository(tx), NewSaleRepository(tx)); err != nil {
		return mapTxError(err)
	}
	if err := tx.Commit(); err != nil {
		return mapTxError(fmt.Errorf("commit transaction: %w", err))
	}
	return nil
}
