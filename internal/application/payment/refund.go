package payment

import (
	"context"
	"fmt"
	"time"

	"github.com/Zhima-Mochi/minishop-storefront/internal/application"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/order"
	domain "github.com/Zhima-Mochi/minishop-storefront/internal/domain/payment"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/placement"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/store"
	"github.com/Zhima-Mochi/minishop-storefront/internal/observability"

	"go.opentelemetry.io/otel/attribute"
)

const (
	paymentService = "payment-service"
	paymentPeer    = "payment-gateway"
)

type RefundCommand struct {
	PaymentReference string
}

type RefundResult struct {
	PaymentReference string
	// LastPlacementStatus is the latest audit status for the reference, if any.
	LastPlacementStatus placement.Status
}

// RefundUseCase is the operator's manual compensation for a captured charge.
// Placement never refunds on its own. A refund is accepted only when the
// latest placement attempt for the reference ended CAPTURED_NOT_PLACED, or
// when it COMMITTED an order that has since been cancelled.
type RefundUseCase struct {
	gateway domain.Gateway
	audit   placement.Log
	uow     store.UnitOfWork
	inst    application.Instrument
	ext     application.External
}

func NewRefundUseCase(gateway domain.Gateway, audit placement.Log, uow store.UnitOfWork, tel observability.Observability) *RefundUseCase {
	return &RefundUseCase{
		gateway: gateway,
		audit:   audit,
		uow:     uow,
		inst:    application.NewInstrument(tel, paymentService),
		ext:     application.NewExternal(tel),
	}
}

var _ application.UseCase[RefundCommand, *RefundResult] = (*RefundUseCase)(nil)

func (uc *RefundUseCase) Execute(ctx context.Context, cmd RefundCommand) (_ *RefundResult, err error) {
	ctx, call := uc.inst.Begin(ctx, "payment.refund", "RefundPayment",
		attribute.String("payment.reference", cmd.PaymentReference),
	)
	defer func() { call.End(err) }()

	if cmd.PaymentReference == "" {
		call.Fail("REFERENCE_REQUIRED")
		return nil, fmt.Errorf("%w: payment reference is required", domain.ErrRefundFailed)
	}

	last, err := uc.lastAttempt(ctx, cmd.PaymentReference)
	if err != nil {
		call.Fail("PLACEMENT_LOG_UNAVAILABLE")
		return nil, err
	}
	result := &RefundResult{PaymentReference: cmd.PaymentReference, LastPlacementStatus: last.Status}
	call.With(observability.F("placement_status", string(last.Status)))
	if err := uc.allow(ctx, last); err != nil {
		call.Fail("REFUND_NOT_ALLOWED")
		return nil, err
	}

	ctx, span := uc.ext.Span(ctx, "Payment.RefundPayment", paymentPeer)
	defer span.End()
	start := time.Now()
	res, err := uc.gateway.RefundPayment(ctx, cmd.PaymentReference)
	switch {
	case err != nil:
		uc.ext.Observe(paymentPeer, "refund_payment", "error", start)
		call.Fail("GATEWAY_ERROR")
		return nil, fmt.Errorf("%w: %w", domain.ErrRefundFailed, err)
	case !res.Succeeded:
		uc.ext.Observe(paymentPeer, "refund_payment", "rejected", start)
		call.Fail("REFUND_REJECTED")
		return nil, fmt.Errorf("%w: %s", domain.ErrRefundFailed, res.Reason)
	}
	uc.ext.Observe(paymentPeer, "refund_payment", "success", start)
	return result, nil
}

// lastAttempt returns the latest placement log entry for reference. A
// reference with no recorded attempt yields the zero Entry.
func (uc *RefundUseCase) lastAttempt(ctx context.Context, reference string) (placement.Entry, error) {
	if uc.audit == nil {
		return placement.Entry{}, nil
	}
	entries, err := uc.audit.ListByReference(ctx, reference)
	if err != nil {
		return placement.Entry{}, fmt.Errorf("read placement log: %w", err)
	}
	if len(entries) == 0 {
		return placement.Entry{}, nil
	}
	return entries[len(entries)-1], nil
}

func (uc *RefundUseCase) allow(ctx context.Context, last placement.Entry) error {
	switch last.Status {
	case placement.StatusCapturedNotPlaced:
		return nil
	case placement.StatusCommitted:
		if uc.uow == nil || last.OrderID == "" {
			break
		}
		var status order.Status
		err := uc.uow.Within(ctx, func(ctx context.Context, tx store.Tx) error {
			o, err := tx.Orders().Get(ctx, last.OrderID)
			if err != nil {
				return err
			}
			status = o.Status
			return nil
		})
		if err != nil {
			return err
		}
		if status == order.StatusCancelled {
			return nil
		}
		return fmt.Errorf("%w: order %s is %s", domain.ErrRefundNotAllowed, last.OrderID, status)
	case "":
		return fmt.Errorf("%w: no placement attempt recorded", domain.ErrRefundNotAllowed)
	}
	return fmt.Errorf("%w: last placement status is %s", domain.ErrRefundNotAllowed, last.Status)
}
