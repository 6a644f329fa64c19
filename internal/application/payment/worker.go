package payment

import (
	"context"

	"github.com/Zhima-Mochi/minishop-storefront/internal/application"
	domorder "github.com/Zhima-Mochi/minishop-storefront/internal/domain/order"
	domoutbox "github.com/Zhima-Mochi/minishop-storefront/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-storefront/internal/observability"

	"go.opentelemetry.io/otel/attribute"
)

const workerService = "payment-worker"

// Worker raises captured-but-not-placed payments for manual refund follow-up.
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
	w.subscriber.Subscribe(domorder.PaymentCapturedNotPlacedEvent{}.EventName(), w.handleCapturedNotPlaced)
}

func (w *Worker) handleCapturedNotPlaced(ctx context.Context, e domoutbox.Event) (err error) {
	evt, ok := e.(domorder.PaymentCapturedNotPlacedEvent)
	if !ok {
		return nil
	}
	ctx, call := w.inst.Begin(ctx, "payment.worker.captured_not_placed", "CapturedNotPlaced",
		attribute.String("event", e.EventName()),
		attribute.String("payment.reference", evt.PaymentReference),
	)
	defer func() { call.End(err) }()

	application.LoggerFrom(ctx, w.inst).Error("refund_required",
		observability.F("user_id", evt.UserID),
		observability.F("payment_reference", evt.PaymentReference),
		observability.F("reason", evt.Reason),
		observability.F("occurred_at", evt.OccurredAt),
	)
	return nil
}
