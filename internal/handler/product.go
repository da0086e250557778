package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/jx"

	"github.com/xenking/storefront/internal/domain/catalog"
	"github.com/xenking/storefront/internal/domain/product"
)

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeWrapped(e, products) })
}

func (h *Handler) featuredProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.Featured(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { product.EncodeList(e, products) })
}

func (h *Handler) newestProducts(w http.ResponseWriter, r *http.Request) {
	limit := catalog.ParseLimit(r.URL.Query().Get("limit"))
	products, err := h.catalog.Newest(r.Context(), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { product.EncodeList(e, products) })
}

func (h *Handler) recommendedProducts(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.catalog.Recommended(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ArrStart()
		for _, s := range summaries {
			s.Encode(e)
		}
		e.ArrEnd()
	})
}

func (h *Handler) productsByCategory(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.ByCategory(r.Context(), chi.URLParam(r, "category"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeWrapped(e, products) })
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeCreate(w, r)
	if !ok {
		return
	}
	p, err := h.catalog.CreateProduct(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p.Encode)
}

func (h *Handler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.DeleteProduct(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Product deleted successfully")
}

func (h *Handler) toggleFeatured(w http.ResponseWriter, r *http.Request) {
	p, err := h.catalog.ToggleFeatured(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p.Encode)
}

// encodeWrapped writes {"products": [...]}.
func encodeWrapped(e *jx.Encoder, products []product.Product) {
	e.ObjStart()
	e.FieldStart("products")
	product.EncodeList(e, products)
	e.ObjEnd()
}
