package payment

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/money"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/order"
	domain "github.com/Zhima-Mochi/minishop-storefront/internal/domain/payment"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/placement"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/store"
	"github.com/Zhima-Mochi/minishop-storefront/internal/infrastructure/memory"
	infrapayment "github.com/Zhima-Mochi/minishop-storefront/internal/infrastructure/payment"
	"github.com/Zhima-Mochi/minishop-storefront/internal/observability"
)

type refundFixture struct {
	gw    *infrapayment.Simulator
	audit *memory.PlacementLog
	st    *memory.Store
	uc    *RefundUseCase
}

func newRefundFixture() *refundFixture {
	f := &refundFixture{
		gw:    infrapayment.NewSimulator(),
		audit: memory.NewPlacementLog(),
		st:    memory.NewStore(),
	}
	f.uc = NewRefundUseCase(f.gw, f.audit, f.st, observability.Nop())
	return f
}

// captured creates and confirms a 12.00 USD intent.
func (f *refundFixture) captured(t *testing.T) string {
	t.Helper()
	ctx := context.Background()
	intent, err := f.gw.CreatePaymentIntent(ctx, money.MustParse("12.00", "USD"), "")
	require.NoError(t, err)
	_, err = f.gw.ConfirmPayment(ctx, intent.Reference)
	require.NoError(t, err)
	return intent.Reference
}

// committed stores an open order for ref and records it as COMMITTED.
func (f *refundFixture) committed(t *testing.T, ref string) *order.Order {
	t.Helper()
	ctx := context.Background()
	o, err := order.New("order-1", "user-1", "addr-1", "addr-1", ref)
	require.NoError(t, err)
	require.NoError(t, o.AddItem("p-1", "Mug", money.MustParse("12.00", "USD"), 1))
	require.NoError(t, f.st.Within(ctx, func(ctx context.Context, tx store.Tx) error {
		return tx.Orders().Create(ctx, o)
	}))
	require.NoError(t, f.audit.Append(ctx, placement.Entry{
		PaymentReference: ref, OrderID: o.ID, Status: placement.StatusCommitted,
	}))
	return o
}

func TestRefundCapturedPayment(t *testing.T) {
	ctx := context.Background()
	f := newRefundFixture()
	ref := f.captured(t)
	require.NoError(t, f.audit.Append(ctx, placement.Entry{PaymentReference: ref, Status: placement.StatusCapturedNotPlaced}))

	res, err := f.uc.Execute(ctx, RefundCommand{PaymentReference: ref})
	require.NoError(t, err)
	assert.Equal(t, placement.StatusCapturedNotPlaced, res.LastPlacementStatus)

	_, err = f.uc.Execute(ctx, RefundCommand{PaymentReference: ref})
	assert.ErrorIs(t, err, domain.ErrRefundFailed, "already refunded")

	_, err = f.uc.Execute(ctx, RefundCommand{})
	assert.ErrorIs(t, err, domain.ErrRefundFailed)
}

func TestRefundRefusedWithoutPlacementAttempt(t *testing.T) {
	f := newRefundFixture()
	ref := f.captured(t)

	_, err := f.uc.Execute(context.Background(), RefundCommand{PaymentReference: ref})
	assert.ErrorIs(t, err, domain.ErrRefundNotAllowed)
}

func TestRefundRefusedForLiveOrder(t *testing.T) {
	ctx := context.Background()
	f := newRefundFixture()
	ref := f.captured(t)
	f.committed(t, ref)

	_, err := f.uc.Execute(ctx, RefundCommand{PaymentReference: ref})
	assert.ErrorIs(t, err, domain.ErrRefundNotAllowed)

	// The charge is still refundable once the order is cancelled.
	require.NoError(t, f.st.Within(ctx, func(ctx context.Context, tx store.Tx) error {
		o, err := tx.Orders().Get(ctx, "order-1")
		if err != nil {
			return err
		}
		if err := o.MoveToStatus(order.StatusCancelled); err != nil {
			return err
		}
		return tx.Orders().Update(ctx, o)
	}))
	res, err := f.uc.Execute(ctx, RefundCommand{PaymentReference: ref})
	require.NoError(t, err)
	assert.Equal(t, placement.StatusCommitted, res.LastPlacementStatus)
}

func TestRefundRefusedAfterFailedAttempt(t *testing.T) {
	ctx := context.Background()
	f := newRefundFixture()
	ref := f.captured(t)
	require.NoError(t, f.audit.Append(ctx, placement.Entry{PaymentReference: ref, Status: placement.StatusFailed}))

	_, err := f.uc.Execute(ctx, RefundCommand{PaymentReference: ref})
	assert.ErrorIs(t, err, domain.ErrRefundNotAllowed)
}
