package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// DateRange período [From, To) usado por las estadísticas.
type DateRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// SalesSummaryDTO resumen de ventas de un período.
type SalesSummaryDTO struct {
	Range         DateRange       `json:"range"`
	SalesCount    int             `json:"sales_count"`
	UnitsSold     int             `json:"units_sold"`
	Revenue       decimal.Decimal `json:"revenue"`
	Profit        decimal.Decimal `json:"profit"`
	AverageTicket decimal.Decimal `json:"average_ticket"`
}

// TopProductDTO producto más vendido.
type TopProductDTO struct {
	ProductID   int64           `json:"product_id"`
	ProductName string          `json:"product_name"`
	UnitsSold   int             `json:"units_sold"`
	Revenue     decimal.Decimal `json:"revenue"`
	Profit      decimal.Decimal `json:"profit"`
}

// TopProductsDTO lista de más vendidos.
type TopProductsDTO struct {
	Range DateRange       `json:"range"`
	Items []TopProductDTO `json:"items"`
}

// DailySalesDTO ventas de un día.
type DailySalesDTO struct {
	Day        string          `json:"day"` // YYYY-MM-DD (UTC)
	SalesCount int             `json:"sales_count"`
	Revenue    decimal.Decimal `json:"revenue"`
	Profit     decimal.Decimal `json:"profit"`
}

// DailySalesListDTO serie diaria.
type DailySalesListDTO struct {
	Range DateRange       `json:"range"`
	Days  []DailySalesDTO `json:"days"`
}

// InventoryValueDTO valorización del inventario.
type InventoryValueDTO struct {
	ProductCount    int             `json:"product_count"`
	TotalUnits      int             `json:"total_units"`
	CostValue       decimal.Decimal `json:"cost_value"`
	RetailValue     decimal.Decimal `json:"retail_value"`
	PotentialProfit decimal.Decimal `json:"potential_profit"`
	LowStockCount   int             `json:"low_stock_count"`
}
