package httppresentation

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Zhima-Mochi/minishop-storefront/internal/application/checkout"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/address"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/money"
	domorder "github.com/Zhima-Mochi/minishop-storefront/internal/domain/order"
)

type addressRequest struct {
	ID      string           `json:"id,omitempty"`
	Details *address.Details `json:"details,omitempty"`
}

type placeOrderRequest struct {
	PaymentReference string          `json:"payment_reference"`
	Shipping         addressRequest  `json:"shipping"`
	Billing          *addressRequest `json:"billing,omitempty"`
}

type placeOrderResponse struct {
	OrderID string      `json:"order_id"`
	Total   money.Money `json:"total"`
}

type changeStatusRequest struct {
	Status string `json:"status"`
}

type orderResponse struct {
	ID                string          `json:"id"`
	UserID            string          `json:"user_id"`
	Status            domorder.Status `json:"status"`
	ShippingAddressID string          `json:"shipping_address_id"`
	BillingAddressID  string          `json:"billing_address_id,omitempty"`
	PaymentReference  string          `json:"payment_reference"`
	Items             []domorder.Item `json:"items"`
	Total             *money.Money    `json:"total,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	ModifiedAt        time.Time       `json:"modified_at"`
	CompletedAt       *time.Time      `json:"completed_at,omitempty"`
}

func toOrderResponse(o *domorder.Order) orderResponse {
	resp := orderResponse{
		ID:                o.ID,
		UserID:            o.UserID,
		Status:            o.Status,
		ShippingAddressID: o.ShippingAddressID,
		BillingAddressID:  o.BillingAddressID,
		PaymentReference:  o.PaymentReference,
		Items:             append([]domorder.Item{}, o.Items...),
		CreatedAt:         o.CreatedAt,
		ModifiedAt:        o.ModifiedAt,
		CompletedAt:       o.CompletedAt,
	}
	if total, err := o.Total(); err == nil && !total.IsEmpty() {
		resp.Total = &total
	}
	return resp
}

func (h *Handler) handlePlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req placeOrderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDomainError(w, r, err)
		return
	}
	cmd := checkout.PlaceOrderCommand{
		UserID:           UserFrom(r.Context()),
		PaymentReference: req.PaymentReference,
		Shipping:         checkout.AddressInput{ID: req.Shipping.ID, Details: req.Shipping.Details},
	}
	if req.Billing != nil {
		cmd.Billing = checkout.AddressInput{ID: req.Billing.ID, Details: req.Billing.Details}
	}

	res, err := h.svc.PlaceOrder.Execute(r.Context(), cmd)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.Header().Set("Location", "/orders/"+res.OrderID)
	writeJSON(w, http.StatusCreated, placeOrderResponse{OrderID: res.OrderID, Total: res.Total})
}

func (h *Handler) handleListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.svc.Orders.ListOrders(r.Context(), UserFrom(r.Context()))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	out := make([]orderResponse, 0, len(orders))
	for _, o := range orders {
		out = append(out, toOrderResponse(o))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.svc.Orders.GetOrder(r.Context(), UserFrom(r.Context()), chi.URLParam(r, "orderID"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(o))
}

func (h *Handler) handleCancelOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.svc.Orders.CancelOrder(r.Context(), UserFrom(r.Context()), chi.URLParam(r, "orderID"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(o))
}

func (h *Handler) handleChangeOrderStatus(w http.ResponseWriter, r *http.Request) {
	if !requireUser(w, r) {
		return
	}
	var req changeStatusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDomainError(w, r, err)
		return
	}
	to, err := domorder.ParseStatus(req.Status)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	o, err := h.svc.Orders.ChangeStatus(r.Context(), chi.URLParam(r, "orderID"), to)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(o))
}
