package order

import "time"

// PlacedEvent is emitted after an order and its stock decrements are committed.
type PlacedEvent struct {
	OrderID          string    `json:"order_id"`
	UserID           string    `json:"user_id"`
	PaymentReference string    `json:"payment_reference"`
	ProductIDs       []string  `json:"product_ids"`
	Total            string    `json:"total"`
	OccurredAt       time.Time `json:"occurred_at"`
}

func (PlacedEvent) EventName() string { return "order.placed" }

func NewPlacedEvent(o *Order) PlacedEvent {
	ids := make([]string, 0, len(o.Items))
	for _, it := range o.Items {
		ids = append(ids, it.ProductID)
	}
	total, _ := o.Total()
	return PlacedEvent{
		OrderID:          o.ID,
		UserID:           o.UserID,
		PaymentReference: o.PaymentReference,
		ProductIDs:       ids,
		Total:            total.String(),
		OccurredAt:       time.Now().UTC(),
	}
}

// PaymentCapturedNotPlacedEvent is emitted when a payment was confirmed but the
// order could not be committed. The charge must be refunded by an operator.
type PaymentCapturedNotPlacedEvent struct {
	UserID           string    `json:"user_id"`
	PaymentReference string    `json:"payment_reference"`
	Reason           string    `json:"reason"`
	OccurredAt       time.Time `json:"occurred_at"`
}

func (PaymentCapturedNotPlacedEvent) EventName() string { return "order.payment_captured_not_placed" }

func NewPaymentCapturedNotPlacedEvent(userID, reference, reason string) PaymentCapturedNotPlacedEvent {
	return PaymentCapturedNotPlacedEvent{
		UserID:           userID,
		PaymentReference: reference,
		Reason:           reason,
		OccurredAt:       time.Now().UTC(),
	}
}

func (e PlacedEvent) AggregateID() string { return e.OrderID }

func (e PaymentCapturedNotPlacedEvent) AggregateID() string { return e.PaymentReference }
