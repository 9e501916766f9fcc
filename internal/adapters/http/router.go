package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/viralforge/storefront/internal/application"
)

// ReadinessCheck reports whether backing stores are reachable.
type ReadinessCheck func(ctx context.Context) error

// Handler is the HTTP adapter entrypoint for storefront use-cases.
type Handler struct {
	service *application.Service
	cookies cookieSettings
	ready   ReadinessCheck
}

// NewHandler constructs an HTTP handler bound to application service. ready may be nil.
func NewHandler(service *application.Service, ready ReadinessCheck) *Handler {
	return &Handler{
		service: service,
		cookies: newCookieSettings(service.SessionConfig()),
		ready:   ready,
	}
}

// NewRouter registers the storefront routes behind the middleware stack and authorization gate.
func NewRouter(handler *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(recoverMiddleware)
	r.Use(loggingMiddleware)
	r.Use(handler.authorizationGate(defaultAccessPolicies))

	r.Get("/healthz", handler.healthz)
	r.Get("/readyz", handler.readyz)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", handler.register)
		r.Post("/login", handler.login)
		r.Post("/logout", handler.logout)
		r.Get("/session", handler.session)
	})

	r.Get("/products", handler.listProducts)
	r.Get("/products/{id}", handler.getProduct)

	r.Route("/orders", func(r chi.Router) {
		r.Get("/", handler.listOrders)
		r.Post("/create", handler.createOrder)
		r.Get("/{id}", handler.getOrder)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Get("/orders", handler.adminListOrders)
		r.Patch("/orders/{id}", handler.adminUpdateOrder)
		r.Get("/products", handler.adminListProducts)
		r.Patch("/products/{id}", handler.adminUpdateProduct)
		r.Get("/analytics", handler.adminAnalytics)
	})

	return r
}
