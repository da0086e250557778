package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/xenking/storefront/internal/domain/catalog"
	"github.com/xenking/storefront/internal/domain/product"
)

// DefaultMaxBodyBytes limits request bodies. Product images travel inline as
// data URIs, hence the generous size.
const DefaultMaxBodyBytes = 10 << 20

// Catalog is the subset of catalog.Service the HTTP layer depends on.
type Catalog interface {
	List(ctx context.Context) ([]product.Product, error)
	ByCategory(ctx context.Context, category string) ([]product.Product, error)
	Featured(ctx context.Context) ([]product.Product, error)
	Newest(ctx context.Context, limit int) ([]product.Product, error)
	Recommended(ctx context.Context) ([]product.Summary, error)
	CreateProduct(ctx context.Context, req catalog.CreateRequest) (*product.Product, error)
	DeleteProduct(ctx context.Context, id string) error
	ToggleFeatured(ctx context.Context, id string) (*product.Product, error)
}

var _ Catalog = (*catalog.Service)(nil)

// Config holds non-dependency configuration for the Handler.
type Config struct {
	// MaxBodyBytes caps request bodies. Zero means DefaultMaxBodyBytes.
	MaxBodyBytes int64
}

// Handler serves the product catalog API.
type Handler struct {
	catalog      Catalog
	maxBodyBytes int64
}

// NewHandler constructs a Handler over the catalog service.
func NewHandler(cfg Config, c Catalog) *Handler {
	maxBody := cfg.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = DefaultMaxBodyBytes
	}
	return &Handler{
		catalog:      c,
		maxBodyBytes: maxBody,
	}
}

// Routes registers the catalog endpoints on r under /api/products.
func (h *Handler) Routes(r chi.Router) {
	r.Route("/api/products", func(r chi.Router) {
		r.Get("/", h.listProducts)
		r.Get("/featured", h.featuredProducts)
		r.Get("/new", h.newestProducts)
		r.Get("/recommendations", h.recommendedProducts)
		r.Get("/category/{category}", h.productsByCategory)
		r.Post("/", h.createProduct)
		r.Patch("/{id}", h.toggleFeatured)
		r.Delete("/{id}", h.deleteProduct)
	})
}

// Router returns a chi router serving only the catalog endpoints.
func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeMessage(w, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeMessage(w, http.StatusMethodNotAllowed, "Method not allowed")
	})
	h.Routes(r)
	return r
}
