// Package httppresentation is the thin HTTP surface over the storefront use cases.
package httppresentation

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"github.com/Zhima-Mochi/minishop-storefront/internal/application"
	appcart "github.com/Zhima-Mochi/minishop-storefront/internal/application/cart"
	appcatalog "github.com/Zhima-Mochi/minishop-storefront/internal/application/catalog"
	"github.com/Zhima-Mochi/minishop-storefront/internal/application/checkout"
	apporder "github.com/Zhima-Mochi/minishop-storefront/internal/application/order"
	apppayment "github.com/Zhima-Mochi/minishop-storefront/internal/application/payment"
	"github.com/Zhima-Mochi/minishop-storefront/internal/observability"
)

const componentHTTPHandler = "http_server"

type Services struct {
	Cart       *appcart.Service
	Catalog    *appcatalog.Service
	Orders     *apporder.Service
	PlaceOrder application.UseCase[checkout.PlaceOrderCommand, *checkout.PlaceOrderResult]
	Intents    application.UseCase[checkout.CreatePaymentIntentCommand, *checkout.PaymentIntent]
	Refunds    application.UseCase[apppayment.RefundCommand, *apppayment.RefundResult]
}

type Options struct {
	Auth        *Authenticator
	Limiter     *RateLimiter
	CORSOrigins []string
	// Metrics serves /metrics when set.
	Metrics http.Handler
	// Ready backs /health; nil always reports ok.
	Ready func(ctx context.Context) error
}

type Handler struct {
	svc  Services
	opts Options
	log  observability.Logger
	tel  observability.Observability
}

func NewHandler(svc Services, opts Options, logger observability.Logger, tel observability.Observability) *Handler {
	if tel == nil {
		tel = observability.Nop()
	}
	if logger == nil {
		logger = tel.Logger()
	}
	if opts.Auth == nil {
		opts.Auth = NewAuthenticator("")
	}
	return &Handler{
		svc:  svc,
		opts: opts,
		log:  logger.With(observability.F("component", componentHTTPHandler)),
		tel:  tel,
	}
}

// Router wires Trace → request logger and metrics → access log → recoverer →
// rate limit → auth → handler, wrapped in CORS.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(h.withTrace)
	r.Use(h.withObservability)
	r.Use(h.withAccessLog)
	r.Use(middleware.Recoverer)
	r.Use(h.opts.Limiter.Middleware)
	r.Use(h.opts.Auth.Middleware)

	r.Get("/health", h.handleHealth)
	if h.opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", h.opts.Metrics)
	}

	r.Route("/cart", func(r chi.Router) {
		r.Get("/", h.handleGetCart)
		r.Delete("/", h.handleClearCart)
		r.Post("/items", h.handleAddCartItem)
		r.Put("/items/{productID}", h.handleChangeCartItem)
		r.Delete("/items/{productID}", h.handleRemoveCartItem)
	})

	r.Route("/payments", func(r chi.Router) {
		r.Post("/intents", h.handleCreatePaymentIntent)
		r.Post("/{reference}/refund", h.handleRefund)
	})

	r.Route("/orders", func(r chi.Router) {
		r.Post("/", h.handlePlaceOrder)
		r.Get("/", h.handleListOrders)
		r.Get("/{orderID}", h.handleGetOrder)
		r.Post("/{orderID}/cancel", h.handleCancelOrder)
		r.Put("/{orderID}/status", h.handleChangeOrderStatus)
	})

	r.Route("/products", func(r chi.Router) {
		r.Post("/", h.handleCreateProduct)
		r.Get("/", h.handleListProducts)
		r.Get("/{productID}", h.handleGetProduct)
		r.Post("/{productID}/restock", h.handleRestock)
		r.Post("/{productID}/hold", h.handleHoldStock)
		r.Post("/{productID}/release", h.handleReleaseStock)
		r.Delete("/{productID}", h.handleRemoveProduct)
	})

	origins := h.opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type", headerRequestID, headerUserID},
		ExposedHeaders: []string{headerRequestID},
		MaxAge:         300,
	}).Handler(r)
}

type healthResponse struct {
	Status string    `json:"status"`
	Time   time.Time `json:"time"`
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if h.opts.Ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.opts.Ready(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "unavailable", Time: time.Now().UTC()})
			return
		}
	}
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Time: time.Now().UTC()})
}
