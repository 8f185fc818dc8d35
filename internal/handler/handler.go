package handler

import (
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/rcaps4street/storefront/internal/assets"
	"github.com/rcaps4street/storefront/internal/domain/cart"
	"github.com/rcaps4street/storefront/internal/domain/order"
	"github.com/rcaps4street/storefront/internal/domain/product"
)

// Config holds non-dependency configuration for the Handler.
type Config struct {
	// ImageBaseURL is prepended to relative image paths in product
	// responses. When empty, image paths are returned as stored.
	ImageBaseURL string
	// CatalogPath is where checkout redirects on empty cart or
	// persistence failure.
	CatalogPath string
	// AdminKey is the operator capability token guarding admin routes.
	AdminKey string
	// AdminKeyPepper feeds the HMAC used to compare presented keys.
	AdminKeyPepper string
}

// Handler owns the HTTP surface: catalog browsing, cart, checkout, and the
// admin CRUD. Business logic lives in the injected domain dependencies.
type Handler struct {
	cfg      Config
	products product.Repository
	carts    cart.Store
	orders   order.Repository
	checkout *order.Service
	uploads  assets.Uploader

	admin *adminAuth
}

// New constructs a Handler with the required domain dependencies.
func New(
	cfg Config,
	products product.Repository,
	carts cart.Store,
	orders order.Repository,
	checkout *order.Service,
	uploads assets.Uploader,
) *Handler {
	if cfg.CatalogPath == "" {
		cfg.CatalogPath = "/api/products"
	}
	return &Handler{
		cfg:      cfg,
		products: products,
		carts:    carts,
		orders:   orders,
		checkout: checkout,
		uploads:  uploads,
		admin:    newAdminAuth(cfg.AdminKey, cfg.AdminKeyPepper),
	}
}

// Routes builds the API router. Everything under /api shares the cart
// session cookie; admin routes additionally require the capability token.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(cartSession)

	r.Get("/products", h.listProducts)
	r.Get("/products/{id}", h.getProduct)

	r.Get("/cart", h.viewCart)
	r.Post("/cart", h.addToCart)
	r.Delete("/cart/{id}", h.removeFromCart)
	r.Delete("/cart", h.emptyCart)

	r.Post("/checkout", h.handleCheckout)

	r.Group(func(r chi.Router) {
		r.Use(h.admin.middleware)

		r.Get("/orders", h.listOrders)

		r.Route("/admin", func(r chi.Router) {
			r.Post("/products", h.createProduct)
			r.Put("/products/{id}", h.updateProduct)
			r.Delete("/products/{id}", h.deleteProduct)
			r.Delete("/products", h.clearStore)
			r.Delete("/orders", h.wipeOrders)
			r.Get("/orders/export", h.exportOrders)
			r.Post("/uploads", h.uploadAsset)
		})
	})

	return r
}

// imageURL resolves a stored image reference against the configured base.
// Absolute URLs pass through unchanged.
func (h *Handler) imageURL(image string) string {
	if image == "" || h.cfg.ImageBaseURL == "" {
		return image
	}
	if strings.HasPrefix(image, "http://") || strings.HasPrefix(image, "https://") {
		return image
	}
	return strings.TrimRight(h.cfg.ImageBaseURL, "/") + "/" + strings.TrimLeft(image, "/")
}
