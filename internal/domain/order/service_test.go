package order

import (
	"context"
	"testing"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcaps4street/storefront/internal/domain/product"
)

// --- Mock implementations ---

type mockProductRepo struct {
	byID   map[string]*product.Product
	getErr error

	decremented map[string]int
}

func (m *mockProductRepo) List(context.Context) ([]product.Product, error) { return nil, nil }

func (m *mockProductRepo) GetByID(_ context.Context, id string) (*product.Product, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	p, ok := m.byID[id]
	if !ok {
		return nil, product.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *mockProductRepo) Create(context.Context, *product.Product) error { return nil }
func (m *mockProductRepo) Update(context.Context, *product.Product) error { return nil }
func (m *mockProductRepo) Delete(context.Context, string) error           { return nil }
func (m *mockProductRepo) DeleteAll(context.Context) error                { return nil }

func (m *mockProductRepo) DecrementStock(_ context.Context, id string, by int) (int, error) {
	p, ok := m.byID[id]
	if !ok {
		return 0, product.ErrNotFound
	}
	p.Stock -= by
	if p.Stock < 0 {
		p.Stock = 0
	}
	if m.decremented == nil {
		m.decremented = make(map[string]int)
	}
	m.decremented[id] += by
	return p.Stock, nil
}

type mockCartStore struct {
	items    map[string][]string
	clearErr error
	cleared  int
}

func (m *mockCartStore) Get(_ context.Context, sessionID string) ([]string, error) {
	return m.items[sessionID], nil
}

func (m *mockCartStore) Add(_ context.Context, sessionID, id string) (int, error) {
	m.items[sessionID] = append(m.items[sessionID], id)
	return len(m.items[sessionID]), nil
}

func (m *mockCartStore) Remove(context.Context, string, string) error { return nil }

func (m *mockCartStore) Clear(_ context.Context, sessionID string) error {
	if m.clearErr != nil {
		return m.clearErr
	}
	m.cleared++
	delete(m.items, sessionID)
	return nil
}

type mockOrderRepo struct {
	appended []*Order
	err      error
	events   *[]string
}

func (m *mockOrderRepo) Append(_ context.Context, o *Order) error {
	if m.err != nil {
		return m.err
	}
	m.appended = append(m.appended, o)
	if m.events != nil {
		*m.events = append(*m.events, "append")
	}
	return nil
}

func (m *mockOrderRepo) List(context.Context) ([]Order, error)      { return nil, nil }
func (m *mockOrderRepo) ListIDs(context.Context) ([]string, error)  { return nil, nil }
func (m *mockOrderRepo) DeleteAll(context.Context) error            { return nil }

type mockNotifier struct {
	orders []*Order
	events *[]string
}

func (m *mockNotifier) OrderPlaced(_ context.Context, o *Order) {
	m.orders = append(m.orders, o)
	if m.events != nil {
		*m.events = append(*m.events, "notify")
	}
}

// --- Helpers ---

func newTestProduct(id, name string, price int64, stock int) *product.Product {
	return &product.Product{
		ID:       id,
		Name:     name,
		Price:    price,
		Category: "caps",
		Image:    "images/products/" + id + ".jpg",
		Stock:    stock,
	}
}

type fixture struct {
	products *mockProductRepo
	carts    *mockCartStore
	orders   *mockOrderRepo
	notifier *mockNotifier
	svc      *Service
}

func newFixture(cartIDs []string, products ...*product.Product) *fixture {
	byID := make(map[string]*product.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	f := &fixture{
		products: &mockProductRepo{byID: byID},
		carts:    &mockCartStore{items: map[string][]string{"sess": cartIDs}},
		orders:   &mockOrderRepo{},
		notifier: &mockNotifier{},
	}
	f.svc = NewService(f.products, f.carts, f.orders, NewIDGenerator(false), f.notifier)
	return f
}

var checkoutForm = CheckoutRequest{
	CustomerEmail: "buyer@example.com",
	Address:       "123 Side St",
	City:          "Quezon City",
	Zip:           "1100",
	PaymentMethod: "cod",
}

// --- Tests ---

func TestCheckout_EmptyCart(t *testing.T) {
	f := newFixture(nil)

	_, err := f.svc.Checkout(context.Background(), "sess", checkoutForm)
	require.ErrorIs(t, err, ErrEmptyCart)

	assert.Empty(t, f.orders.appended, "no order must be created")
	assert.Empty(t, f.notifier.orders, "no notification must be attempted")
	assert.Zero(t, f.carts.cleared)
}

func TestCheckout_CollapsesMultiset(t *testing.T) {
	f := newFixture(
		[]string{"p1", "p2", "p1"},
		newTestProduct("p1", "Snapback", 1000, 10),
		newTestProduct("p2", "Hoodie", 2500, 10),
	)

	o, err := f.svc.Checkout(context.Background(), "sess", checkoutForm)
	require.NoError(t, err)

	assert.Equal(t, int64(2*1000+2500), o.Total)
	require.Len(t, o.Items, 2)
	assert.Equal(t, Item{Name: "Snapback", Price: 1000, Quantity: 2, Image: "images/products/p1.jpg"}, o.Items[0])
	assert.Equal(t, Item{Name: "Hoodie", Price: 2500, Quantity: 1, Image: "images/products/p2.jpg"}, o.Items[1])
}

func TestCheckout_SkipsUnresolvableIDs(t *testing.T) {
	f := newFixture(
		[]string{"p1", "ghost", "ghost"},
		newTestProduct("p1", "Snapback", 1000, 10),
	)

	o, err := f.svc.Checkout(context.Background(), "sess", checkoutForm)
	require.NoError(t, err)

	assert.Equal(t, int64(1000), o.Total, "stale ids contribute nothing")
	require.Len(t, o.Items, 1)
	assert.Equal(t, "Snapback", o.Items[0].Name)
}

func TestCheckout_AllEntriesStale(t *testing.T) {
	f := newFixture([]string{"ghost"})

	o, err := f.svc.Checkout(context.Background(), "sess", checkoutForm)
	require.NoError(t, err)

	assert.Zero(t, o.Total)
	assert.Empty(t, o.Items)
	require.Len(t, f.orders.appended, 1, "an empty-but-persisted order mirrors the reference behavior")
}

func TestCheckout_StockDecrementFloored(t *testing.T) {
	f := newFixture(
		[]string{"1001", "1001", "1001"},
		newTestProduct("1001", "Snapback", 500, 2),
	)

	o, err := f.svc.Checkout(context.Background(), "sess", checkoutForm)
	require.NoError(t, err)

	assert.Equal(t, int64(1500), o.Total)
	require.Len(t, o.Items, 1)
	assert.Equal(t, 3, o.Items[0].Quantity)
	assert.Equal(t, 3, f.products.decremented["1001"])
	assert.Equal(t, 0, f.products.byID["1001"].Stock, "stock floors at zero")
}

func TestCheckout_PersistBeforeNotify(t *testing.T) {
	var events []string
	f := newFixture([]string{"p1"}, newTestProduct("p1", "Snapback", 1000, 5))
	f.orders.events = &events
	f.notifier.events = &events

	_, err := f.svc.Checkout(context.Background(), "sess", checkoutForm)
	require.NoError(t, err)

	require.Equal(t, []string{"append", "notify"}, events)
}

func TestCheckout_ClearsCartAfterPersist(t *testing.T) {
	f := newFixture([]string{"p1"}, newTestProduct("p1", "Snapback", 1000, 5))

	_, err := f.svc.Checkout(context.Background(), "sess", checkoutForm)
	require.NoError(t, err)

	assert.Equal(t, 1, f.carts.cleared)
	assert.Empty(t, f.carts.items["sess"])
}

func TestCheckout_PersistFailureLeavesCartIntact(t *testing.T) {
	f := newFixture([]string{"p1"}, newTestProduct("p1", "Snapback", 1000, 5))
	f.orders.err = errors.New("store unavailable")

	_, err := f.svc.Checkout(context.Background(), "sess", checkoutForm)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "persist order")

	assert.Zero(t, f.carts.cleared, "cart must survive a failed persist")
	assert.Equal(t, []string{"p1"}, f.carts.items["sess"])
	assert.Empty(t, f.notifier.orders, "no notification without a durable order")
}

func TestCheckout_CartClearFailureStillSucceeds(t *testing.T) {
	f := newFixture([]string{"p1"}, newTestProduct("p1", "Snapback", 1000, 5))
	f.carts.clearErr = errors.New("redis down")

	o, err := f.svc.Checkout(context.Background(), "sess", checkoutForm)
	require.NoError(t, err, "the sale is already durable")
	assert.NotEmpty(t, o.OrderID)
	assert.Len(t, f.notifier.orders, 1)
}

func TestCheckout_OrderFields(t *testing.T) {
	f := newFixture([]string{"p1"}, newTestProduct("p1", "Snapback", 1000, 5))

	o, err := f.svc.Checkout(context.Background(), "sess", CheckoutRequest{
		CustomerEmail:   "buyer@example.com",
		Phone:           "+63 900 000 0000",
		Address:         "123 Side St",
		City:            "Quezon City",
		Zip:             "1100",
		PaymentMethod:   "gcash",
		PaymentProofURL: "/static/uploads/proof.jpg",
	})
	require.NoError(t, err)

	assert.Equal(t, "buyer@example.com", o.CustomerEmail)
	assert.Equal(t, "123 Side St, Quezon City, 1100", o.ShippingAddress)
	assert.Equal(t, "proof_submitted", o.PaymentStatus)
	assert.Regexp(t, `^RR-\d{4}$`, o.OrderID)
	assert.False(t, o.CreatedAt.IsZero())
}

func TestDerivePaymentStatus(t *testing.T) {
	assert.Equal(t, "unpaid", derivePaymentStatus("cod", ""))
	assert.Equal(t, "unpaid", derivePaymentStatus("COD", "/proof.jpg"))
	assert.Equal(t, "proof_submitted", derivePaymentStatus("gcash", "/proof.jpg"))
	assert.Equal(t, "pending_verification", derivePaymentStatus("bank", ""))
}

func TestJoinShipping_SkipsEmptyParts(t *testing.T) {
	assert.Equal(t, "123 Side St, Quezon City", joinShipping("123 Side St", "", "Quezon City", " "))
	assert.Equal(t, "", joinShipping("", ""))
}
