package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	pgzip "github.com/klauspost/pgzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcaps4street/storefront/internal/domain/order"
)

const testAdminKey = "hunter2"

func adminEnv(t *testing.T) *env {
	t.Helper()
	return newEnv(t, Config{AdminKey: testAdminKey, AdminKeyPepper: "pepper"})
}

// doAdmin is do with the admin key header attached.
func (e *env) doAdmin(t *testing.T, method, target, contentType, body string) *httptest.ResponseRecorder {
	t.Helper()

	var r io.Reader
	if body != "" {
		r = bytes.NewReader([]byte(body))
	}
	req := httptest.NewRequest(method, target, r)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("X-Admin-Key", testAdminKey)

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func TestAdminAuth(t *testing.T) {
	e := adminEnv(t)

	t.Run("no key", func(t *testing.T) {
		w := e.do(t, http.MethodGet, "/orders", "", "")
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("wrong key", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/orders", nil)
		req.Header.Set("X-Admin-Key", "guess")
		w := httptest.NewRecorder()
		e.router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("header key", func(t *testing.T) {
		w := e.doAdmin(t, http.MethodGet, "/orders", "", "")
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("legacy query param", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/orders?key="+testAdminKey, nil)
		w := httptest.NewRecorder()
		e.router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestAdminAuth_DisabledWithoutConfiguredKey(t *testing.T) {
	e := newEnv(t, Config{})

	req := httptest.NewRequest(http.MethodGet, "/orders", nil)
	req.Header.Set("X-Admin-Key", "anything")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code, "no configured key means no admin surface")
}

func TestCreateProduct(t *testing.T) {
	e := adminEnv(t)

	w := e.doAdmin(t, http.MethodPost, "/admin/products", "application/json",
		`{"id":"2001","name":"Hoodie","price":120000,"category":"tops","stock":5}`)
	require.Equal(t, http.StatusCreated, w.Code, "body: %s", w.Body.String())

	var got map[string]any
	decodeBody(t, w, &got)
	assert.Equal(t, "2001", got["id"])

	p, ok := e.products.byID["2001"]
	require.True(t, ok)
	assert.Equal(t, int64(120000), p.Price)
}

func TestCreateProduct_GeneratesID(t *testing.T) {
	e := adminEnv(t)

	w := e.doAdmin(t, http.MethodPost, "/admin/products", "application/json",
		`{"name":"Tee","price":45000,"stock":20}`)
	require.Equal(t, http.StatusCreated, w.Code)

	var got map[string]any
	decodeBody(t, w, &got)
	assert.NotEmpty(t, got["id"])
}

func TestCreateProduct_Validation(t *testing.T) {
	e := adminEnv(t)

	w := e.doAdmin(t, http.MethodPost, "/admin/products", "application/json", `{"price":100}`)
	assert.Equal(t, http.StatusBadRequest, w.Code, "name required")

	w = e.doAdmin(t, http.MethodPost, "/admin/products", "application/json",
		`{"name":"Tee","price":-1}`)
	assert.Equal(t, http.StatusBadRequest, w.Code, "negative price rejected")
}

func TestUpdateProduct_PartialEdit(t *testing.T) {
	e := adminEnv(t)
	e.products.byID["1001"] = catalogProduct("1001")

	w := e.doAdmin(t, http.MethodPut, "/admin/products/1001", "application/json",
		`{"price":55000,"badge":"SALE"}`)
	require.Equal(t, http.StatusOK, w.Code, "body: %s", w.Body.String())

	p := e.products.byID["1001"]
	assert.Equal(t, int64(55000), p.Price)
	assert.Equal(t, "SALE", p.Badge)
	assert.Equal(t, "Snapback 1001", p.Name, "absent fields keep stored values")
	assert.Equal(t, 12, p.Stock)
}

func TestUpdateProduct_NotFound(t *testing.T) {
	e := adminEnv(t)

	w := e.doAdmin(t, http.MethodPut, "/admin/products/missing", "application/json", `{"price":1}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteProductAndClearStore(t *testing.T) {
	e := adminEnv(t)
	e.products.byID["1001"] = catalogProduct("1001")
	e.products.byID["1002"] = catalogProduct("1002")

	w := e.doAdmin(t, http.MethodDelete, "/admin/products/1001", "", "")
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.NotContains(t, e.products.byID, "1001")

	w = e.doAdmin(t, http.MethodDelete, "/admin/products/1001", "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = e.doAdmin(t, http.MethodDelete, "/admin/products", "", "")
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, e.products.byID)
}

func TestWipeOrders(t *testing.T) {
	e := adminEnv(t)
	e.orders.orders = []order.Order{{OrderID: "RR-1001"}}

	w := e.doAdmin(t, http.MethodDelete, "/admin/orders", "", "")
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, e.orders.orders)
}

func TestExportOrders(t *testing.T) {
	e := adminEnv(t)
	e.orders.orders = []order.Order{{
		OrderID:       "RR-4821",
		CustomerEmail: "buyer@example.com",
		PaymentMethod: "cod",
		PaymentStatus: "unpaid",
		Items:         []order.Item{{Name: "Snapback", Price: 50000, Quantity: 3}},
		Total:         150000,
		CreatedAt:     time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC),
	}}

	w := e.doAdmin(t, http.MethodGet, "/admin/orders/export", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/gzip", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), ".json.gz")

	gz, err := pgzip.NewReader(w.Body)
	require.NoError(t, err)
	var out []map[string]any
	require.NoError(t, json.NewDecoder(gz).Decode(&out))

	require.Len(t, out, 1)
	assert.Equal(t, "RR-4821", out[0]["order_id"])
	assert.Equal(t, "Mar 01, 2026", out[0]["date"])
	assert.Equal(t, float64(150000), out[0]["total"])
}

func TestUploadAsset(t *testing.T) {
	e := adminEnv(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("photo", "proof.jpg")
	require.NoError(t, err)
	_, err = part.Write([]byte("fake image bytes"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/admin/uploads", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("X-Admin-Key", testAdminKey)
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code, "body: %s", w.Body.String())

	var got map[string]any
	decodeBody(t, w, &got)
	assert.Equal(t, "/static/uploads/proof.jpg", got["url"])
	assert.Equal(t, []string{"proof.jpg"}, e.uploads.names)
}

func TestUploadAsset_MissingFile(t *testing.T) {
	e := adminEnv(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("note", "no file here"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/admin/uploads", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("X-Admin-Key", testAdminKey)
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
