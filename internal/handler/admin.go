package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/rcaps4street/storefront/internal/domain/product"
)

const maxUploadBytes = 10 << 20

type productForm struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	Category string `json:"category"`
	Badge    string `json:"badge"`
	Image    string `json:"image"`
	Stock    int    `json:"stock"`
}

// createProduct adds a catalog product. When the client does not supply an
// id, one is derived from the creation timestamp at millisecond granularity
// so rapid successive creations stay distinct.
func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	var form productForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		writeError(w, http.StatusBadRequest, "malformed product")
		return
	}
	if form.Name == "" {
		writeError(w, http.StatusBadRequest, "name required")
		return
	}
	if form.Price < 0 || form.Stock < 0 {
		writeError(w, http.StatusBadRequest, "price and stock must be non-negative")
		return
	}

	id := product.NormalizeID(form.ID)
	if id == "" {
		id = strconv.FormatInt(time.Now().UnixMilli(), 10)
	}

	p := &product.Product{
		ID:       id,
		Name:     form.Name,
		Price:    form.Price,
		Category: form.Category,
		Badge:    form.Badge,
		Image:    form.Image,
		Stock:    form.Stock,
	}
	if err := h.products.Create(r.Context(), p); err != nil {
		internalError(w, r, "create product", err)
		return
	}

	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) {
		h.encodeProduct(e, p)
	})
}

// updateProduct applies a partial edit (price, stock, badge, ...) to an
// existing product. Absent fields keep their stored values.
func (h *Handler) updateProduct(w http.ResponseWriter, r *http.Request) {
	id := product.NormalizeID(chi.URLParam(r, "id"))

	var form struct {
		Name     *string `json:"name"`
		Price    *int64  `json:"price"`
		Category *string `json:"category"`
		Badge    *string `json:"badge"`
		Image    *string `json:"image"`
		Stock    *int    `json:"stock"`
	}
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		writeError(w, http.StatusBadRequest, "malformed product")
		return
	}

	p, err := h.products.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, product.ErrNotFound) {
			writeError(w, http.StatusNotFound, "product not found")
			return
		}
		internalError(w, r, "get product for update", err)
		return
	}

	if form.Name != nil {
		p.Name = *form.Name
	}
	if form.Price != nil {
		if *form.Price < 0 {
			writeError(w, http.StatusBadRequest, "price must be non-negative")
			return
		}
		p.Price = *form.Price
	}
	if form.Category != nil {
		p.Category = *form.Category
	}
	if form.Badge != nil {
		p.Badge = *form.Badge
	}
	if form.Image != nil {
		p.Image = *form.Image
	}
	if form.Stock != nil {
		if *form.Stock < 0 {
			writeError(w, http.StatusBadRequest, "stock must be non-negative")
			return
		}
		p.Stock = *form.Stock
	}

	if err := h.products.Update(r.Context(), p); err != nil {
		internalError(w, r, "update product", err)
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		h.encodeProduct(e, p)
	})
}

func (h *Handler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	id := product.NormalizeID(chi.URLParam(r, "id"))

	if err := h.products.Delete(r.Context(), id); err != nil {
		if errors.Is(err, product.ErrNotFound) {
			writeError(w, http.StatusNotFound, "product not found")
			return
		}
		internalError(w, r, "delete product", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// clearStore empties the whole catalog.
func (h *Handler) clearStore(w http.ResponseWriter, r *http.Request) {
	if err := h.products.DeleteAll(r.Context()); err != nil {
		internalError(w, r, "clear store", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// uploadAsset stores an uploaded file (product photo or payment proof) and
// returns its public URL. The field name "photo" is kept for compatibility
// with the original storefront forms; "file" also works.
func (h *Handler) uploadAsset(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "malformed upload")
		return
	}

	file, header, err := r.FormFile("photo")
	if err != nil {
		file, header, err = r.FormFile("file")
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, "file required")
		return
	}
	defer file.Close()

	url, err := h.uploads.Upload(r.Context(), header.Filename, file)
	if err != nil {
		internalError(w, r, "store upload", err)
		return
	}

	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("url", func(e *jx.Encoder) { e.Str(url) })
		})
	})
}
