package inventory

import (
	"context"

	"github.com/Zhima-Mochi/minishop-storefront/internal/application"
	domain "github.com/Zhima-Mochi/minishop-storefront/internal/domain/inventory"
	domoutbox "github.com/Zhima-Mochi/minishop-storefront/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-storefront/internal/observability"

	"go.opentelemetry.io/otel/attribute"
)

const workerService = "inventory-worker"

// Worker surfaces low-stock signals for replenishment.
type Worker struct {
	subscriber domoutbox.Subscriber
	inst       application.Instrument
}

func NewWorker(subscriber domoutbox.Subscriber, tel observability.Observability) *Worker {
	return &Worker{
		subscriber: subscriber,
		inst:       application.NewInstrument(tel, workerService),
	}
}

func (w *Worker) Start() {
	if w.subscriber == nil {
		return
	}
	w.subscriber.Subscribe(domain.LowStockEvent{}.EventName(), w.handleLowStock)
}

func (w *Worker) handleLowStock(ctx context.Context, e domoutbox.Event) (err error) {
	evt, ok := e.(domain.LowStockEvent)
	if !ok {
		return nil
	}
	ctx, call := w.inst.Begin(ctx, "inventory.worker.low_stock", "LowStock",
		attribute.String("event", e.EventName()),
		attribute.String("product.id", evt.ProductID),
	)
	defer func() { call.End(err) }()

	application.LoggerFrom(ctx, w.inst).Warn("inventory_low_stock",
		observability.F("product_id", evt.ProductID),
		observability.F("available", evt.Available),
		observability.F("threshold", evt.Threshold),
	)
	return nil
}
