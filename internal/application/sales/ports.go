package sales

import (
	"context"

	"github.com/jhoicas/tienda-pos/internal/domain/entity"
	"github.com/jhoicas/tienda-pos/internal/domain/repository"
)

// TxRunner ejecuta fn dentro de una transacción, pasando repositorios atados a esa tx.
// Commit si fn retorna nil; Rollback en cualquier otro caso (también ante panic).
// Los conflictos propios del motor (serialización, deadlock, BD ocupada) se devuelven
// como domain.ErrTxConflict para que el caller pueda reintentar desde cero.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		productRepo repository.ProductRepository,
		saleRepo repository.SaleRepository,
	) error) error
}

// ReceiptGenerator genera la representación imprimible (PDF) de una venta confirmada.
type ReceiptGenerator interface {
	GenerateReceiptPDF(ctx context.Context, storeName string, sale *entity.Sale) ([]byte, error)
}
