package httppresentation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/Zhima-Mochi/minishop-storefront/internal/application"
	"github.com/Zhima-Mochi/minishop-storefront/internal/application/checkout"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/address"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/cart"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/catalog"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/inventory"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/money"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/order"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/payment"
	"github.com/Zhima-Mochi/minishop-storefront/internal/observability"
	"github.com/Zhima-Mochi/minishop-storefront/internal/observability/logctx"
)

const (
	codeNotFound                 = "NOT_FOUND"
	codeConflict                 = "CONFLICT"
	codeInvalidRequest           = "INVALID_REQUEST"
	codePreconditionFailed       = "PRECONDITION_FAILED"
	codePaymentFailed            = "PAYMENT_FAILED"
	codePaymentCapturedNotPlaced = "PAYMENT_CAPTURED_NOT_PLACED"
	codeUnauthenticated          = "UNAUTHENTICATED"
	codeRateLimited              = "RATE_LIMITED"
	codeTimeout                  = "TIMEOUT"
	codeInternal                 = "INTERNAL"

	maxBodyBytes = 1 << 20
)

var (
	errRateLimited = errors.New("too many requests")
	errInternal    = errors.New("internal error")
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// classify maps an error kind to its status and stable code. Captured-not-placed
// wraps the write failure, so it is checked before anything it may wrap.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, application.ErrPaymentCapturedNotPlaced):
		return http.StatusConflict, codePaymentCapturedNotPlaced
	case errors.Is(err, application.ErrUnauthenticated):
		return http.StatusUnauthorized, codeUnauthenticated
	case errors.Is(err, cart.ErrNotFound),
		errors.Is(err, cart.ErrItemNotFound),
		errors.Is(err, order.ErrNotFound),
		errors.Is(err, inventory.ErrNotFound),
		errors.Is(err, catalog.ErrNotFound),
		errors.Is(err, address.ErrNotFound),
		errors.Is(err, application.ErrProductNotFound):
		return http.StatusNotFound, codeNotFound
	case errors.Is(err, order.ErrConflict),
		errors.Is(err, order.ErrAlreadyFinished),
		errors.Is(err, catalog.ErrNameTaken):
		return http.StatusConflict, codeConflict
	case errors.Is(err, inventory.ErrInsufficientStock),
		errors.Is(err, inventory.ErrReleaseExceedsHeld),
		errors.Is(err, application.ErrEmptyCart),
		errors.Is(err, order.ErrOrderNotOpen),
		errors.Is(err, order.ErrInvalidTransition),
		errors.Is(err, payment.ErrRefundNotAllowed):
		return http.StatusUnprocessableEntity, codePreconditionFailed
	case errors.Is(err, payment.ErrPaymentFailed),
		errors.Is(err, payment.ErrRefundFailed):
		return http.StatusPaymentRequired, codePaymentFailed
	case errors.Is(err, cart.ErrInvalidQuantity),
		errors.Is(err, cart.ErrInvalidUser),
		errors.Is(err, inventory.ErrInvalidQuantity),
		errors.Is(err, inventory.ErrInvalidProductID),
		errors.Is(err, order.ErrInvalidQuantity),
		errors.Is(err, order.ErrInvalidStatus),
		errors.Is(err, order.ErrMissingOwner),
		errors.Is(err, order.ErrMissingAddress),
		errors.Is(err, catalog.ErrInvalidName),
		errors.Is(err, catalog.ErrInvalidPrice),
		errors.Is(err, address.ErrInvalid),
		errors.Is(err, money.ErrCurrencyMismatch),
		errors.Is(err, money.ErrInvalidCurrency),
		errors.Is(err, money.ErrInvalidAmount),
		errors.Is(err, money.ErrNegativeAmount),
		errors.Is(err, checkout.ErrInvalidCommand),
		errors.Is(err, errBadRequest):
		return http.StatusBadRequest, codeInvalidRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, codeTimeout
	default:
		return http.StatusInternalServerError, codeInternal
	}
}

func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := classify(err)
	if status >= http.StatusInternalServerError {
		logctx.FromOr(r.Context(), nil).Error("http_request_failed",
			observability.F("error", err),
			observability.F("code", code),
		)
		if status == http.StatusInternalServerError {
			err = errInternal
		}
	}
	writeError(w, status, code, err)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error(), Code: code})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

var errBadRequest = errors.New("malformed request body")

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	return decode(w, r, dst, false)
}

// decodeOptionalJSON accepts an empty body and leaves dst untouched.
func decodeOptionalJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	return decode(w, r, dst, true)
}

func decode(w http.ResponseWriter, r *http.Request, dst any, optional bool) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			if optional {
				return nil
			}
			return errBadRequest
		}
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}
