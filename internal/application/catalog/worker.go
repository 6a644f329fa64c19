package catalog

import (
	"context"
	"errors"

	"github.com/Zhima-Mochi/minishop-storefront/internal/application"
	domain "github.com/Zhima-Mochi/minishop-storefront/internal/domain/catalog"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/inventory"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/order"
	domoutbox "github.com/Zhima-Mochi/minishop-storefront/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-storefront/internal/observability"

	"go.opentelemetry.io/otel/attribute"
)

const workerService = "catalog-worker"

// Worker drops cached catalog reads whose stock figures an event made stale.
type Worker struct {
	subscriber domoutbox.Subscriber
	cache      Cache
	inst       application.Instrument
}

func NewWorker(subscriber domoutbox.Subscriber, cache Cache, tel observability.Observability) *Worker {
	return &Worker{
		subscriber: subscriber,
		cache:      cache,
		inst:       application.NewInstrument(tel, workerService),
	}
}

func (w *Worker) Start() {
	if w.subscriber == nil || w.cache == nil {
		return
	}
	w.subscriber.Subscribe(order.PlacedEvent{}.EventName(), w.handleOrderPlaced)
	w.subscriber.Subscribe(inventory.StockChangedEvent{}.EventName(), w.handleStockChanged)
}

func (w *Worker) handleOrderPlaced(ctx context.Context, e domoutbox.Event) (err error) {
	evt, ok := e.(order.PlacedEvent)
	if !ok {
		return nil
	}
	ctx, call := w.inst.Begin(ctx, "catalog.worker.order_placed", "InvalidateOnOrderPlaced",
		attribute.String("event", e.EventName()),
		attribute.String("order.id", evt.OrderID),
	)
	defer func() { call.End(err) }()

	keys := make([]string, 0, len(evt.ProductIDs))
	for _, id := range evt.ProductIDs {
		keys = append(keys, domain.ProductKey(id))
	}
	if err := w.remove(ctx, keys...); err != nil {
		call.Fail("CACHE_REMOVE_FAILED")
		return err
	}
	if err := w.cache.RemoveByPattern(ctx, domain.ProductListKey+"*"); err != nil {
		call.Fail("CACHE_REMOVE_FAILED")
		return err
	}
	call.With(observability.F("keys", len(keys)))
	return nil
}

func (w *Worker) handleStockChanged(ctx context.Context, e domoutbox.Event) (err error) {
	evt, ok := e.(inventory.StockChangedEvent)
	if !ok {
		return nil
	}
	ctx, call := w.inst.Begin(ctx, "catalog.worker.stock_changed", "InvalidateOnStockChanged",
		attribute.String("event", e.EventName()),
		attribute.String("product.id", evt.ProductID),
	)
	defer func() { call.End(err) }()

	if err := w.remove(ctx, domain.ProductKey(evt.ProductID), domain.ProductListKey); err != nil {
		call.Fail("CACHE_REMOVE_FAILED")
		return err
	}
	return nil
}

func (w *Worker) remove(ctx context.Context, keys ...string) error {
	var errs []error
	for _, k := range keys {
		if err := w.cache.Remove(ctx, k); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
