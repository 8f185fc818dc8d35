package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/rcaps4street/storefront/internal/domain/order"
)

// checkoutRequest is the customer-facing checkout form. It decodes from
// JSON or a classic urlencoded form post.
type checkoutRequest struct {
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	Address       string `json:"address"`
	City          string `json:"city"`
	Zip           string `json:"zip"`
	PaymentMethod string `json:"payment_method"`
	PaymentProof  string `json:"payment_proof_url"`
}

// handleCheckout runs the checkout transaction for the session cart.
//
// An empty cart and a persistence failure both degrade to a redirect back
// to the catalog rather than an error page; only the latter is logged.
// Notification outcome never influences the response.
func (h *Handler) handleCheckout(w http.ResponseWriter, r *http.Request) {
	req, err := decodeCheckout(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "malformed checkout form")
		return
	}
	if req.Email == "" {
		writeError(w, http.StatusBadRequest, "email required")
		return
	}

	o, err := h.checkout.Checkout(r.Context(), SessionID(r.Context()), order.CheckoutRequest{
		CustomerEmail:   req.Email,
		Phone:           req.Phone,
		Address:         req.Address,
		City:            req.City,
		Zip:             req.Zip,
		PaymentMethod:   req.PaymentMethod,
		PaymentProofURL: req.PaymentProof,
	})
	if err != nil {
		if !errors.Is(err, order.ErrEmptyCart) {
			zctx.From(r.Context()).Error("checkout failed", zap.Error(err))
		}
		http.Redirect(w, r, h.cfg.CatalogPath, http.StatusSeeOther)
		return
	}

	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) {
		h.encodeOrder(e, o)
	})
}

func decodeCheckout(r *http.Request) (checkoutRequest, error) {
	var req checkoutRequest

	ct := r.Header.Get("Content-Type")
	if strings.HasPrefix(ct, "application/x-www-form-urlencoded") || strings.HasPrefix(ct, "multipart/form-data") {
		if err := r.ParseForm(); err != nil {
			return req, err
		}
		req.Email = r.PostFormValue("email")
		req.Phone = r.PostFormValue("phone")
		req.Address = r.PostFormValue("address")
		req.City = r.PostFormValue("city")
		req.Zip = r.PostFormValue("zip")
		req.PaymentMethod = r.PostFormValue("payment_method")
		req.PaymentProof = r.PostFormValue("payment_proof_url")
		return req, nil
	}

	err := json.NewDecoder(r.Body).Decode(&req)
	return req, err
}

func (h *Handler) encodeOrder(e *jx.Encoder, o *order.Order) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("order_id", func(e *jx.Encoder) { e.Str(o.OrderID) })
		e.Field("date", func(e *jx.Encoder) { e.Str(o.Date()) })
		e.Field("email", func(e *jx.Encoder) { e.Str(o.CustomerEmail) })
		if o.Phone != "" {
			e.Field("phone", func(e *jx.Encoder) { e.Str(o.Phone) })
		}
		e.Field("shipping", func(e *jx.Encoder) { e.Str(o.ShippingAddress) })
		e.Field("payment_method", func(e *jx.Encoder) { e.Str(o.PaymentMethod) })
		e.Field("payment_status", func(e *jx.Encoder) { e.Str(o.PaymentStatus) })
		if o.PaymentProofURL != "" {
			e.Field("payment_proof_url", func(e *jx.Encoder) { e.Str(o.PaymentProofURL) })
		}
		e.Field("items", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, it := range o.Items {
					e.Obj(func(e *jx.Encoder) {
						e.Field("name", func(e *jx.Encoder) { e.Str(it.Name) })
						e.Field("price", func(e *jx.Encoder) { e.Int64(it.Price) })
						e.Field("quantity", func(e *jx.Encoder) { e.Int(it.Quantity) })
						e.Field("image", func(e *jx.Encoder) { e.Str(h.imageURL(it.Image)) })
					})
				}
			})
		})
		e.Field("total", func(e *jx.Encoder) { e.Int64(o.Total) })
	})
}
