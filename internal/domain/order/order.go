package order

import (
	"context"
	"time"
)

// Order is an immutable record of a completed checkout. Items are a snapshot
// taken at checkout time and are decoupled from later catalog mutation.
type Order struct {
	OrderID         string
	CustomerEmail   string
	Phone           string
	ShippingAddress string
	PaymentMethod   string
	PaymentStatus   string
	PaymentProofURL string
	Items           []Item
	Total           int64
	CreatedAt       time.Time
}

// Item is a single order line captured at checkout time.
type Item struct {
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	Quantity int    `json:"quantity"`
	Image    string `json:"image"`
}

// Date returns the creation timestamp formatted for display, matching the
// receipt and order-history views ("Sep 01, 2026").
func (o *Order) Date() string {
	return o.CreatedAt.Format("Jan 02, 2006")
}

// Repository defines persistence for orders. The collection is append-only:
// orders are never updated in place, only appended and (administratively)
// wiped wholesale.
type Repository interface {
	Append(ctx context.Context, o *Order) error
	List(ctx context.Context) ([]Order, error)
	ListIDs(ctx context.Context) ([]string, error)
	DeleteAll(ctx context.Context) error
}
