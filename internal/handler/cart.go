package handler

import (
	"encoding/json"
	"maps"
	"net/http"
	"slices"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/rcaps4street/storefront/internal/domain/cart"
	"github.com/rcaps4street/storefront/internal/domain/product"
)

// addToCart appends one occurrence of a product id to the session cart.
// The id is accepted as either a JSON string or number (or a form field)
// and normalized once here; everything downstream sees canonical ids.
func (h *Handler) addToCart(w http.ResponseWriter, r *http.Request) {
	raw := h.readProductID(r)
	if raw == "" {
		writeError(w, http.StatusBadRequest, "product id required")
		return
	}
	id := product.NormalizeID(raw)

	count, err := h.carts.Add(r.Context(), SessionID(r.Context()), id)
	if err != nil {
		internalError(w, r, "add to cart", err)
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("status", func(e *jx.Encoder) { e.Str("success") })
			e.Field("cart_count", func(e *jx.Encoder) { e.Int(count) })
		})
	})
}

// readProductID extracts the product id from a JSON body or form field.
func (h *Handler) readProductID(r *http.Request) string {
	if ct := r.Header.Get("Content-Type"); ct == "" || ct == "application/json" {
		var body struct {
			ID json.RawMessage `json:"id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err == nil && len(body.ID) > 0 {
			return string(body.ID)
		}
		return ""
	}
	if err := r.ParseForm(); err != nil {
		return ""
	}
	return r.PostFormValue("id")
}

// viewCart renders the collapsed cart: distinct resolvable products with
// quantities and line totals. Stale ids referencing deleted products are
// skipped, same as at checkout.
func (h *Handler) viewCart(w http.ResponseWriter, r *http.Request) {
	ids, err := h.carts.Get(r.Context(), SessionID(r.Context()))
	if err != nil {
		internalError(w, r, "read cart", err)
		return
	}

	counts := cart.Collapse(ids)

	type line struct {
		p   *product.Product
		qty int
	}
	var (
		lines []line
		total int64
	)
	for _, id := range slices.Sorted(maps.Keys(counts)) {
		p, err := h.products.GetByID(r.Context(), id)
		if err != nil {
			if errors.Is(err, product.ErrNotFound) {
				continue
			}
			internalError(w, r, "resolve cart product", err)
			return
		}
		lines = append(lines, line{p: p, qty: counts[id]})
		total += p.Price * int64(counts[id])
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("items", func(e *jx.Encoder) {
				e.Arr(func(e *jx.Encoder) {
					for _, l := range lines {
						e.Obj(func(e *jx.Encoder) {
							e.Field("id", func(e *jx.Encoder) { e.Str(l.p.ID) })
							e.Field("name", func(e *jx.Encoder) { e.Str(l.p.Name) })
							e.Field("price", func(e *jx.Encoder) { e.Int64(l.p.Price) })
							e.Field("quantity", func(e *jx.Encoder) { e.Int(l.qty) })
							e.Field("line_total", func(e *jx.Encoder) { e.Int64(l.p.Price * int64(l.qty)) })
							e.Field("image", func(e *jx.Encoder) { e.Str(h.imageURL(l.p.Image)) })
						})
					}
				})
			})
			e.Field("total", func(e *jx.Encoder) { e.Int64(total) })
			e.Field("cart_count", func(e *jx.Encoder) { e.Int(len(ids)) })
		})
	})
}

// removeFromCart drops every occurrence of one product id.
func (h *Handler) removeFromCart(w http.ResponseWriter, r *http.Request) {
	id := product.NormalizeID(chi.URLParam(r, "id"))
	if err := h.carts.Remove(r.Context(), SessionID(r.Context()), id); err != nil {
		internalError(w, r, "remove from cart", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// emptyCart clears the session cart; clearing an empty cart is a no-op.
func (h *Handler) emptyCart(w http.ResponseWriter, r *http.Request) {
	if err := h.carts.Clear(r.Context(), SessionID(r.Context())); err != nil {
		internalError(w, r, "empty cart", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
