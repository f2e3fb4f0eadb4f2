package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// SalesSummaryResult agregados de ventas en un período.
type SalesSummaryResult struct {
	SalesCount int
	UnitsSold  int
	Revenue    decimal.Decimal // Σ sales.total
	Profit     decimal.Decimal // Σ sales.profit
}

// TopProductResult ventas agrupadas por producto (según el snapshot de la línea).
type TopProductResult struct {
	ProductID   int64
	ProductName string
	UnitsSold   int
	Revenue     decimal.Decimal // Σ price × qty
	Profit      decimal.Decimal // Σ (price − cost) × qty
}

// DailySalesResult ventas de un día calendario (UTC).
type DailySalesResult struct {
	Day        time.Time
	SalesCount int
	Revenue    decimal.Decimal
	Profit     decimal.Decimal
}

// InventoryValueResult valorización del inventario actual.
type InventoryValueResult struct {
	ProductCount  int
	TotalUnits    int
	CostValue     decimal.Decimal // Σ stock × cost
	RetailValue   decimal.Decimal // Σ stock × price
	LowStockCount int             // productos con stock <= min_stock
}

// StatsRepository consultas de solo lectura sobre ventas confirmadas e inventario.
// Nunca participa del camino de escritura.
type StatsRepository interface {
	GetSalesSummary(ctx context.Context, from, to time.Time) (SalesSummaryResult, error)
	GetTopProducts(ctx context.Context, from, to time.Time, limit int) ([]TopProductResult, error)
	GetDailySales(ctx context.Context, from, to time.Time) ([]DailySalesResult, error)
	GetInventoryValue(ctx context.Context) (InventoryValueResult, error)
}
