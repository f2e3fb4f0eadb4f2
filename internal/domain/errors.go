package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrInvalidInput      = errors.New("entrada inválida")
	ErrDuplicate         = errors.New("recurso duplicado")
	ErrConflict          = errors.New("conflicto con el estado actual")
	ErrInsufficientStock = errors.New("stock insuficiente")
	ErrEmptyCart         = errors.New("el carrito está vacío")
	// ErrTxConflict la transacción chocó con otra (serialización, deadlock, BD ocupada).
	// Es un error de almacenamiento reintentable: se repite validación + commit desde cero.
	ErrTxConflict = errors.New("conflicto de transacción concurrente")
)

// ProductNotFoundError el carrito referencia un producto inexistente.
type ProductNotFoundError struct {
	ProductID int64
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("producto %d no encontrado", e.ProductID)
}

// Is permite errors.Is(err, ErrNotFound).
func (e *ProductNotFoundError) Is(target error) bool { return target == ErrNotFound }

// InsufficientStockError la cantidad sumada de un producto supera su stock disponible.
type InsufficientStockError struct {
	ProductID int64
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("stock insuficiente para producto %d: solicitado %d, disponible %d",
		e.ProductID, e.Requested, e.Available)
}

// Is permite errors.Is(err, ErrInsufficientStock).
func (e *InsufficientStockError) Is(target error) bool { return target == ErrInsufficientStock }

// InvalidLineError una línea del carrito no es válida (cantidad <= 0 o product_id <= 0).
type InvalidLineError struct {
	Index  int
	Reason string
}

func (e *InvalidLineError) Error() string {
	return fmt.Sprintf("línea %d inválida: %s", e.Index, e.Reason)
}

// Is permite errors.Is(err, ErrInvalidInput).
func (e *InvalidLineError) Is(target error) bool { return target == ErrInvalidInput }

// IsClientError indica si el error es atribuible a la petición (400) y no al almacenamiento (500).
func IsClientError(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, ErrEmptyCart),
		errors.Is(err, ErrInvalidInput),
		errors.Is(err, ErrInsufficientStock),
		errors.Is(err, ErrNotFound),
		errors.Is(err, ErrDuplicate):
		return true
	}
	return false
}
