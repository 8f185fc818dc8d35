package notify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcaps4street/storefront/internal/domain/order"
)

func TestRenderReceipt(t *testing.T) {
	html, err := RenderReceipt(&order.Order{
		OrderID:         "RR-4821",
		ShippingAddress: "123 Side St, Quezon City, 1100",
		Items: []order.Item{
			{Name: "Snapback", Price: 50000, Quantity: 3},
			{Name: "Hoodie", Price: 120000, Quantity: 1},
		},
		Total:     270000,
		CreatedAt: time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	assert.Contains(t, html, "Order ID: RR-4821")
	assert.Contains(t, html, "Date: Mar 01, 2026")
	assert.Contains(t, html, "Snapback (x3)")
	assert.Contains(t, html, "₱1500.00", "line total for three snapbacks")
	assert.Contains(t, html, "TOTAL: ₱2700.00")
}

func TestRenderReceipt_EscapesHTML(t *testing.T) {
	html, err := RenderReceipt(&order.Order{
		OrderID:   "RR-0001",
		Items:     []order.Item{{Name: "<script>alert(1)</script>", Price: 100, Quantity: 1}},
		Total:     100,
		CreatedAt: time.Now(),
	})
	require.NoError(t, err)
	assert.NotContains(t, html, "<script>")
}

func TestFormatMoney(t *testing.T) {
	assert.Equal(t, "₱0.00", FormatMoney(0))
	assert.Equal(t, "₱0.05", FormatMoney(5))
	assert.Equal(t, "₱1500.00", FormatMoney(150000))
	assert.Equal(t, "₱12.34", FormatMoney(1234))
	assert.Equal(t, "-₱1.50", FormatMoney(-150))
}
