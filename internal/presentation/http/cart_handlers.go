package httppresentation

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	appcart "github.com/Zhima-Mochi/minishop-storefront/internal/application/cart"
	domcart "github.com/Zhima-Mochi/minishop-storefront/internal/domain/cart"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/money"
)

type cartItemResponse struct {
	ProductID  string      `json:"product_id"`
	Quantity   int         `json:"quantity"`
	UnitPrice  money.Money `json:"unit_price"`
	TotalPrice money.Money `json:"total_price"`
}

type cartResponse struct {
	UserID string             `json:"user_id"`
	Items  []cartItemResponse `json:"items"`
	Total  *money.Money       `json:"total,omitempty"`
}

func toCartResponse(c *domcart.Cart) cartResponse {
	resp := cartResponse{UserID: c.UserID, Items: make([]cartItemResponse, 0, len(c.Items))}
	for _, it := range c.Items {
		resp.Items = append(resp.Items, cartItemResponse{
			ProductID:  it.ProductID,
			Quantity:   it.Quantity,
			UnitPrice:  it.UnitPrice,
			TotalPrice: it.TotalPrice(),
		})
	}
	if total, err := c.Total(); err == nil && !total.IsEmpty() {
		resp.Total = &total
	}
	return resp
}

type validatedResponse struct {
	Status string `json:"status"`
}

type addCartItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type changeCartItemRequest struct {
	Quantity int `json:"quantity"`
}

func (h *Handler) handleGetCart(w http.ResponseWriter, r *http.Request) {
	c, err := h.svc.Cart.Get(r.Context(), UserFrom(r.Context()))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCartResponse(c))
}

// handleAddCartItem validates only for anonymous callers and answers 202.
func (h *Handler) handleAddCartItem(w http.ResponseWriter, r *http.Request) {
	var req addCartItemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDomainError(w, r, err)
		return
	}
	c, err := h.svc.Cart.AddItem(r.Context(), appcart.ItemInput{
		UserID:    UserFrom(r.Context()),
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
	})
	h.writeCartMutation(w, r, c, err)
}

func (h *Handler) handleChangeCartItem(w http.ResponseWriter, r *http.Request) {
	var req changeCartItemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDomainError(w, r, err)
		return
	}
	c, err := h.svc.Cart.ChangeItemQuantity(r.Context(), appcart.ItemInput{
		UserID:    UserFrom(r.Context()),
		ProductID: chi.URLParam(r, "productID"),
		Quantity:  req.Quantity,
	})
	h.writeCartMutation(w, r, c, err)
}

func (h *Handler) handleRemoveCartItem(w http.ResponseWriter, r *http.Request) {
	c, err := h.svc.Cart.RemoveItem(r.Context(), UserFrom(r.Context()), chi.URLParam(r, "productID"))
	h.writeCartMutation(w, r, c, err)
}

func (h *Handler) handleClearCart(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Cart.Clear(r.Context(), UserFrom(r.Context())); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) writeCartMutation(w http.ResponseWriter, r *http.Request, c *domcart.Cart, err error) {
	switch {
	case err != nil:
		writeDomainError(w, r, err)
	case c == nil:
		writeJSON(w, http.StatusAccepted, validatedResponse{Status: "validated"})
	default:
		writeJSON(w, http.StatusOK, toCartResponse(c))
	}
}
