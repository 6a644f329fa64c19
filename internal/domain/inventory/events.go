package inventory

import "time"

// StockChangedEvent is emitted whenever a product's on-hand quantity changes.
type StockChangedEvent struct {
	ProductID  string    `json:"product_id"`
	Delta      int       `json:"delta"`
	Quantity   int       `json:"quantity"`
	Available  int       `json:"available"`
	OccurredAt time.Time `json:"occurred_at"`
}

func (StockChangedEvent) EventName() string { return "inventory.stock_changed" }

func NewStockChangedEvent(item *Item, delta int) StockChangedEvent {
	return StockChangedEvent{
		ProductID:  item.ProductID,
		Delta:      delta,
		Quantity:   item.Quantity,
		Available:  item.AvailableQuantity(),
		OccurredAt: time.Now().UTC(),
	}
}

// LowStockEvent is emitted when available stock falls to or below the configured threshold.
type LowStockEvent struct {
	ProductID  string    `json:"product_id"`
	Available  int       `json:"available"`
	Threshold  int       `json:"threshold"`
	OccurredAt time.Time `json:"occurred_at"`
}

func (LowStockEvent) EventName() string { return "inventory.low_stock" }

func NewLowStockEvent(item *Item, threshold int) LowStockEvent {
	return LowStockEvent{
		ProductID:  item.ProductID,
		Available:  item.AvailableQuantity(),
		Threshold:  threshold,
		OccurredAt: time.Now().UTC(),
	}
}

func (e StockChangedEvent) AggregateID() string { return e.ProductID }

func (e LowStockEvent) AggregateID() string { return e.ProductID }
