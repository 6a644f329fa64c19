package httppresentation

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	appcatalog "github.com/Zhima-Mochi/minishop-storefront/internal/application/catalog"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/money"
)

type createProductRequest struct {
	Name            string      `json:"name"`
	Price           money.Money `json:"price"`
	InitialQuantity int         `json:"initial_quantity"`
}

type restockRequest struct {
	Quantity int `json:"quantity"`
}

func (h *Handler) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	if !requireUser(w, r) {
		return
	}
	var req createProductRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDomainError(w, r, err)
		return
	}
	p, err := h.svc.Catalog.CreateProduct(r.Context(), appcatalog.CreateProductInput{
		Name:            req.Name,
		Price:           req.Price,
		InitialQuantity: req.InitialQuantity,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.Header().Set("Location", "/products/"+p.ID)
	writeJSON(w, http.StatusCreated, p)
}

func (h *Handler) handleListProducts(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.Catalog.ListProducts(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if list == nil {
		list = []appcatalog.ProductView{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handler) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.Catalog.GetProduct(r.Context(), chi.URLParam(r, "productID"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) handleRestock(w http.ResponseWriter, r *http.Request) {
	h.adjustStock(w, r, h.svc.Catalog.Restock)
}

func (h *Handler) handleHoldStock(w http.ResponseWriter, r *http.Request) {
	h.adjustStock(w, r, h.svc.Catalog.HoldStock)
}

func (h *Handler) handleReleaseStock(w http.ResponseWriter, r *http.Request) {
	h.adjustStock(w, r, h.svc.Catalog.ReleaseStock)
}

func (h *Handler) adjustStock(w http.ResponseWriter, r *http.Request,
	fn func(ctx context.Context, id string, n int) (*appcatalog.ProductView, error),
) {
	if !requireUser(w, r) {
		return
	}
	var req restockRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDomainError(w, r, err)
		return
	}
	p, err := fn(r.Context(), chi.URLParam(r, "productID"), req.Quantity)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) handleRemoveProduct(w http.ResponseWriter, r *http.Request) {
	if !requireUser(w, r) {
		return
	}
	if err := h.svc.Catalog.RemoveProduct(r.Context(), chi.URLParam(r, "productID")); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
