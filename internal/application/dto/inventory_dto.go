package dto

import "github.com/shopspring/decimal"

// ReplenishmentSuggestionDTO producto a reponer con la cantidad sugerida de pedido.
type ReplenishmentSuggestionDTO struct {
	Priority            int             `json:"priority"` // 1 = más urgente
	ProductID           int64           `json:"product_id"`
	ProductName         string          `json:"product_name"`
	CurrentStock        int             `json:"current_stock"`
	MinStock            int             `json:"min_stock"`
	IdealStock          int             `json:"ideal_stock"`
	SuggestedOrderQty   int             `json:"suggested_order_qty"`
	UnitCost            decimal.Decimal `json:"unit_cost"`
	EstimatedOrderCost  decimal.Decimal `json:"estimated_order_cost"`
	GrossMarginPct      decimal.Decimal `json:"gross_margin_pct"`
	UnitsSoldLast90Days int             `json:"units_sold_last_90_days"`
}
