package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Zhima-Mochi/minishop-storefront/internal/application"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/cart"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/money"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/payment"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/placement"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/store"
	"github.com/Zhima-Mochi/minishop-storefront/internal/observability"

	"go.opentelemetry.io/otel/attribute"
)

type CreatePaymentIntentCommand struct {
	UserID        string
	CustomerEmail string
}

type PaymentIntent struct {
	Reference string
	Amount    money.Money
}

// CreatePaymentIntentUseCase asks the gateway for an intent sized to the buyer's cart total.
// The amount is written to the placement log so placement can compare it with
// the cart it finally charges for.
type CreatePaymentIntentUseCase struct {
	uow     store.UnitOfWork
	gateway payment.Gateway
	audit   placement.Log
	inst    application.Instrument
	ext     application.External
}

func NewCreatePaymentIntentUseCase(uow store.UnitOfWork, gateway payment.Gateway, audit placement.Log, tel observability.Observability) *CreatePaymentIntentUseCase {
	return &CreatePaymentIntentUseCase{
		uow:     uow,
		gateway: gateway,
		audit:   audit,
		inst:    application.NewInstrument(tel, checkoutService),
		ext:     application.NewExternal(tel),
	}
}

var _ application.UseCase[CreatePaymentIntentCommand, *PaymentIntent] = (*CreatePaymentIntentUseCase)(nil)

func (uc *CreatePaymentIntentUseCase) Execute(ctx context.Context, cmd CreatePaymentIntentCommand) (_ *PaymentIntent, err error) {
	ctx, call := uc.inst.Begin(ctx, "checkout.create_payment_intent", "CreatePaymentIntent",
		attribute.String("order.user_id", cmd.UserID),
	)
	defer func() { call.End(err) }()

	if cmd.UserID == "" {
		call.Fail("UNAUTHENTICATED")
		return nil, application.ErrUnauthenticated
	}

	var total money.Money
	err = uc.uow.Within(ctx, func(ctx context.Context, tx store.Tx) error {
		c, err := tx.Carts().Get(ctx, cmd.UserID)
		if errors.Is(err, cart.ErrNotFound) || (err == nil && c.IsEmpty()) {
			return application.ErrEmptyCart
		}
		if err != nil {
			return err
		}
		total, err = c.Total()
		return err
	})
	if err != nil {
		call.Fail("CART_UNAVAILABLE")
		return nil, err
	}

	ctx, span := uc.ext.Span(ctx, "Payment.CreatePaymentIntent", paymentPeer)
	defer span.End()
	start := time.Now()
	res, err := uc.gateway.CreatePaymentIntent(ctx, total, cmd.CustomerEmail)
	switch {
	case err != nil:
		uc.ext.Observe(paymentPeer, "create_payment_intent", "error", start)
		call.Fail("GATEWAY_ERROR")
		return nil, fmt.Errorf("%w: %w", payment.ErrPaymentFailed, err)
	case !res.Succeeded:
		uc.ext.Observe(paymentPeer, "create_payment_intent", "rejected", start)
		call.Fail("INTENT_REJECTED")
		return nil, fmt.Errorf("%w: %s", payment.ErrPaymentFailed, res.Reason)
	}
	uc.ext.Observe(paymentPeer, "create_payment_intent", "success", start)

	call.With(observability.F("payment_reference", res.Reference))
	appendEntry(ctx, uc.audit, uc.inst, placement.Entry{
		UserID:           cmd.UserID,
		PaymentReference: res.Reference,
		Status:           placement.StatusIntentCreated,
		Step:             "create_intent",
		Amount:           total.String(),
	})
	return &PaymentIntent{Reference: res.Reference, Amount: total}, nil
}
