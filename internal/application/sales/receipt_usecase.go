package sales

import (
	"context"
	"fmt"
)

// ReceiptUseCase genera el comprobante PDF de una venta.
type ReceiptUseCase struct {
	query     *QueryUseCase
	generator ReceiptGenerator
	storeName string
}

// NewReceiptUseCase construye el caso de uso.
func NewReceiptUseCase(query *QueryUseCase, generator ReceiptGenerator, storeName string) *ReceiptUseCase {
	return &ReceiptUseCase{query: query, generator: generator, storeName: storeName}
}

// GetReceiptPDF carga la venta y genera su PDF. domain.ErrNotFound si no existe.
func (uc *ReceiptUseCase) GetReceiptPDF(ctx context.Context, saleID int64) ([]byte, error) {
	s, err := uc.query.GetSale(ctx, saleID)
	if err != nil {
		return nil, err
	}
	pdf, err := uc.generator.GenerateReceiptPDF(ctx, uc.storeName, s)
	if err != nil {
		return nil, fmt.Errorf("generar comprobante: %w", err)
	}
	return pdf, nil
}
