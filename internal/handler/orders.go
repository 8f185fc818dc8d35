package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	pgzip "github.com/klauspost/pgzip"
	"go.uber.org/zap"
)

// listOrders returns the full order history, newest first. The persisted
// record shape is the de facto wire contract for exports and admin views.
func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.List(r.Context())
	if err != nil {
		internalError(w, r, "list orders", err)
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Arr(func(e *jx.Encoder) {
			for i := range orders {
				h.encodeOrder(e, &orders[i])
			}
		})
	})
}

// wipeOrders deletes the entire order history.
func (h *Handler) wipeOrders(w http.ResponseWriter, r *http.Request) {
	if err := h.orders.DeleteAll(r.Context()); err != nil {
		internalError(w, r, "wipe orders", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// exportOrders streams the order history as gzipped JSON. Order archives
// grow without bound (append-only store), so the export is compressed on
// the fly instead of buffered.
func (h *Handler) exportOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.List(r.Context())
	if err != nil {
		internalError(w, r, "export orders", err)
		return
	}

	filename := "orders-" + time.Now().Format("2006-01-02") + ".json.gz"
	w.Header().Set("Content-Type", "application/gzip")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)

	gz := pgzip.NewWriter(w)
	enc := json.NewEncoder(gz)
	enc.SetIndent("", "  ")

	type exportOrder struct {
		OrderID         string          `json:"order_id"`
		Date            string          `json:"date"`
		Email           string          `json:"email"`
		Phone           string          `json:"phone,omitempty"`
		Shipping        string          `json:"shipping"`
		PaymentMethod   string          `json:"payment_method"`
		PaymentStatus   string          `json:"payment_status"`
		PaymentProofURL string          `json:"payment_proof_url,omitempty"`
		Items           json.RawMessage `json:"items"`
		Total           int64           `json:"total"`
	}

	out := make([]exportOrder, 0, len(orders))
	for i := range orders {
		o := &orders[i]
		items, err := json.Marshal(o.Items)
		if err != nil {
			zctx.From(r.Context()).Error("marshal export items", zap.Error(err))
			continue
		}
		out = append(out, exportOrder{
			OrderID:         o.OrderID,
			Date:            o.Date(),
			Email:           o.CustomerEmail,
			Phone:           o.Phone,
			Shipping:        o.ShippingAddress,
			PaymentMethod:   o.PaymentMethod,
			PaymentStatus:   o.PaymentStatus,
			PaymentProofURL: o.PaymentProofURL,
			Items:           items,
			Total:           o.Total,
		})
	}

	if err := enc.Encode(out); err != nil {
		zctx.From(r.Context()).Error("encode order export", zap.Error(err))
	}
	if err := gz.Close(); err != nil {
		zctx.From(r.Context()).Error("flush order export", zap.Error(err))
	}
}
