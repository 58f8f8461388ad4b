package protocol

import "github.com/shopspring/decimal"

// StockAdjusted reports one change to a product or raw material stock counter.
type StockAdjusted struct {
	Kind       string `json:"kind"`
	ItemID     int64  `json:"item_id"`
	Name       string `json:"name"`
	Delta      int    `json:"delta"`
	StockAfter int    `json:"stock_after"`
	Reason     string `json:"reason"`
	SourceKind string `json:"source_kind,omitempty"`
	SourceID   int64  `json:"source_id,omitempty"`
	Actor      string `json:"actor,omitempty"`
}

// StockLow is sent when an adjustment leaves an item below its threshold.
type StockLow struct {
	Kind      string `json:"kind"`
	ItemID    int64  `json:"item_id"`
	Name      string `json:"name"`
	Stock     int    `json:"stock"`
	Threshold int    `json:"threshold"`
	Shortfall int    `json:"shortfall"`
}

// OrderStatus announces a customer order saved with a new or repeated status.
type OrderStatus struct {
	OrderID    int64  `json:"order_id"`
	CustomerID int64  `json:"customer_id"`
	OldStatus  string `json:"old_status,omitempty"`
	Status     string `json:"status"`
	Actor      string `json:"actor,omitempty"`
}

// ProductionStatus announces a production order status save.
type ProductionStatus struct {
	ProductionOrderID int64               `json:"production_order_id"`
	OldStatus         string              `json:"old_status,omitempty"`
	Status            string              `json:"status"`
	TotalCost         decimal.NullDecimal `json:"total_cost"`
	Actor             string              `json:"actor,omitempty"`
}
