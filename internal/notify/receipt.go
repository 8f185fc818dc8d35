package notify

import (
	"fmt"
	"html/template"
	"strings"

	"github.com/rcaps4street/storefront/internal/domain/order"
)

// receiptTmpl mirrors the storefront's dark receipt styling. Inline styles
// only: mail clients strip <style> blocks.
var receiptTmpl = template.Must(template.New("receipt").Funcs(template.FuncMap{
	"money": FormatMoney,
}).Parse(`<div style="background-color: #000; color: #fff; padding: 30px; font-family: sans-serif;">
  <h1 style="border-bottom: 1px solid #fff; padding-bottom: 10px;">RECEIPT</h1>
  <p>Order ID: {{.OrderID}}</p>
  <p>Date: {{.Date}}</p>
  <p>Shipping to: {{.ShippingAddress}}</p>
  <table style="width: 100%; border-collapse: collapse;">
  {{- range .Items}}
    <tr style="border-bottom: 1px solid #333;">
      <td style="padding: 10px; color: #fff;">{{.Name}} (x{{.Quantity}})</td>
      <td style="padding: 10px; color: #fff; text-align: right;">{{money .LineTotal}}</td>
    </tr>
  {{- end}}
  </table>
  <h2 style="text-align: right; border-top: 1px solid #fff; padding-top: 10px;">TOTAL: {{money .Total}}</h2>
</div>`))

type receiptItem struct {
	Name      string
	Quantity  int
	LineTotal int64
}

type receiptData struct {
	OrderID         string
	Date            string
	ShippingAddress string
	Items           []receiptItem
	Total           int64
}

// RenderReceipt produces the HTML receipt body for an order.
func RenderReceipt(o *order.Order) (string, error) {
	data := receiptData{
		OrderID:         o.OrderID,
		Date:            o.Date(),
		ShippingAddress: o.ShippingAddress,
		Total:           o.Total,
	}
	for _, it := range o.Items {
		data.Items = append(data.Items, receiptItem{
			Name:      it.Name,
			Quantity:  it.Quantity,
			LineTotal: it.Price * int64(it.Quantity),
		})
	}

	var sb strings.Builder
	if err := receiptTmpl.Execute(&sb, data); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// FormatMoney renders an amount in minor currency units as pesos,
// e.g. 150000 -> "₱1500.00".
func FormatMoney(minor int64) string {
	sign := ""
	if minor < 0 {
		sign = "-"
		minor = -minor
	}
	return fmt.Sprintf("%s₱%d.%02d", sign, minor/100, minor%100)
}
