package httppresentation

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Zhima-Mochi/minishop-storefront/internal/application/checkout"
	apppayment "github.com/Zhima-Mochi/minishop-storefront/internal/application/payment"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/money"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/placement"
)

type createIntentRequest struct {
	CustomerEmail string `json:"customer_email"`
}

type intentResponse struct {
	Reference string      `json:"reference"`
	Amount    money.Money `json:"amount"`
}

type refundResponse struct {
	PaymentReference    string           `json:"payment_reference"`
	LastPlacementStatus placement.Status `json:"last_placement_status,omitempty"`
}

func (h *Handler) handleCreatePaymentIntent(w http.ResponseWriter, r *http.Request) {
	var req createIntentRequest
	if err := decodeOptionalJSON(w, r, &req); err != nil {
		writeDomainError(w, r, err)
		return
	}
	intent, err := h.svc.Intents.Execute(r.Context(), checkout.CreatePaymentIntentCommand{
		UserID:        UserFrom(r.Context()),
		CustomerEmail: req.CustomerEmail,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, intentResponse{Reference: intent.Reference, Amount: intent.Amount})
}

func (h *Handler) handleRefund(w http.ResponseWriter, r *http.Request) {
	if !requireUser(w, r) {
		return
	}
	res, err := h.svc.Refunds.Execute(r.Context(), apppayment.RefundCommand{
		PaymentReference: chi.URLParam(r, "reference"),
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, refundResponse{
		PaymentReference:    res.PaymentReference,
		LastPlacementStatus: res.LastPlacementStatus,
	})
}
