package payment

import (
	"context"
	"errors"

	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/money"
)

var (
	ErrPaymentFailed = errors.New("payment: payment failed")
	ErrRefundFailed  = errors.New("payment: refund failed")
	// ErrRefundNotAllowed rejects refunds for charges backing a live order.
	ErrRefundNotAllowed = errors.New("payment: refund not allowed")
)

// Result is the gateway's verdict on a call. Business rejections are reported
// here with Succeeded=false; the error return is reserved for transport faults.
type Result struct {
	Succeeded bool
	Reference string
	Reason    string
}

func Succeeded(reference string) Result {
	return Result{Succeeded: true, Reference: reference}
}

func Failed(reference, reason string) Result {
	return Result{Reference: reference, Reason: reason}
}

// Gateway is the external payment provider.
type Gateway interface {
	CreatePaymentIntent(ctx context.Context, amount money.Money, customerEmail string) (Result, error)
	ConfirmPayment(ctx context.Context, reference string) (Result, error)
	RefundPayment(ctx context.Context, reference string) (Result, error)
}
