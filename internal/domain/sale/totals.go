// Package sale contiene los servicios de dominio puros del procesador de ventas:
// agregación de cantidades por producto y cálculo de totales.
package sale

import (
	"math"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/tienda-pos/internal/domain/entity"
)

// MaxQuantity mayor cantidad por línea y por producto; quantity y stock son INTEGER en todos los backends.
const MaxQuantity = math.MaxInt32

// MaxAmount mayor importe representable en NUMERIC(14,2).
var MaxAmount = decimal.RequireFromString("999999999999.99")

// WithinAmount indica si |d| cabe en las columnas de dinero.
func WithinAmount(d decimal.Decimal) bool {
	return d.Abs().LessThanOrEqual(MaxAmount)
}

// Line línea ya valorizada con el snapshot de precio/costo del producto.
type Line struct {
	ProductID int64
	Price     decimal.Decimal
	Cost      decimal.Decimal
	Quantity  int
}

// Totals resultado de ComputeTotals.
type Totals struct {
	Total  decimal.Decimal // Σ price × qty
	Profit decimal.Decimal // Σ (price − cost) × qty
}

// ComputeTotals suma total y utilidad sobre todas las líneas.
func ComputeTotals(lines []Line) Totals {
	total := decimal.Zero
	profit := decimal.Zero
	for _, l := range lines {
		qty := decimal.NewFromInt(int64(l.Quantity))
		total = total.Add(l.Price.Mul(qty))
		profit = profit.Add(l.Price.Sub(l.Cost).Mul(qty))
	}
	return Totals{Total: total, Profit: profit}
}

// TotalsFromItems reconstruye los totales a partir de líneas persistidas.
func TotalsFromItems(items []entity.SaleItem) Totals {
	lines := make([]Line, len(items))
	for i, it := range items {
		lines[i] = Line{ProductID: it.ProductID, Price: it.Price, Cost: it.Cost, Quantity: it.Quantity}
	}
	return ComputeTotals(lines)
}

// Demand cantidad total pedida de un producto sumando todas sus líneas.
type Demand struct {
	ProductID int64
	Quantity  int
}

// AggregateDemand suma cantidades por producto. El resultado va ordenado por ProductID
// ascendente: es el orden en que se toman los locks para evitar deadlocks.
// Una suma que supera MaxQuantity se satura en math.MaxInt (nunca desborda a negativo).
func AggregateDemand(productIDs []int64, quantities []int) []Demand {
	byID := make(map[int64]int, len(productIDs))
	for i, id := range productIDs {
		byID[id] = addQuantity(byID[id], quantities[i])
	}
	out := make([]Demand, 0, len(byID))
	for id, qty := range byID {
		out = append(out, Demand{ProductID: id, Quantity: qty})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out
}

func addQuantity(a, b int) int {
	if a > MaxQuantity || b > MaxQuantity || b > MaxQuantity-a {
		return math.MaxInt
	}
	return a + b
}
