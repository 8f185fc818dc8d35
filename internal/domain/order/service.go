package order

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/rcaps4street/storefront/internal/domain/cart"
	"github.com/rcaps4street/storefront/internal/domain/product"
)

// ErrEmptyCart signals that checkout was invoked with nothing in the cart.
// It is not an error condition for the caller beyond routing back to the
// catalog; no side effects have occurred.
var ErrEmptyCart = fmt.Errorf("cart is empty")

// Notifier receives a completed order for best-effort receipt delivery.
// Implementations must never block the caller beyond a queue handoff and
// must never propagate delivery failure.
type Notifier interface {
	OrderPlaced(ctx context.Context, o *Order)
}

// CheckoutRequest is the customer-supplied input to the checkout transaction.
type CheckoutRequest struct {
	CustomerEmail   string
	Phone           string
	Address         string
	City            string
	Zip             string
	PaymentMethod   string
	PaymentProofURL string
}

// Service implements the checkout transaction: it converts the session cart
// into a durable order record, decrements inventory, and hands the receipt
// to the notifier. Persistence of the order happens-before any notification
// attempt; the cart is cleared only after persistence succeeds, regardless
// of notification outcome.
type Service struct {
	products product.Repository
	carts    cart.Store
	orders   Repository
	ids      *IDGenerator
	notifier Notifier
	tracer   trace.Tracer
	now      func() time.Time
}

// NewService creates a checkout Service with the required dependencies.
func NewService(
	products product.Repository,
	carts cart.Store,
	orders Repository,
	ids *IDGenerator,
	notifier Notifier,
) *Service {
	return &Service{
		products: products,
		carts:    carts,
		orders:   orders,
		ids:      ids,
		notifier: notifier,
		tracer:   otel.Tracer("storefront/checkout"),
		now:      time.Now,
	}
}

// Checkout runs the full transaction for the given session.
//
// Cart entries that no longer resolve to a catalog product are skipped
// silently: they contribute neither to the total nor to the item snapshot.
// Stock is decremented per resolved line, floored at zero by the store.
func (s *Service) Checkout(ctx context.Context, sessionID string, req CheckoutRequest) (*Order, error) {
	ctx, span := s.tracer.Start(ctx, "Checkout")
	defer span.End()

	ids, err := s.carts.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("read cart: %w", err)
	}
	if len(ids) == 0 {
		return nil, ErrEmptyCart
	}

	counts := cart.Collapse(ids)

	// Sorted walk keeps the item snapshot deterministic for a given cart.
	o := &Order{
		CustomerEmail:   req.CustomerEmail,
		Phone:           req.Phone,
		ShippingAddress: joinShipping(req.Address, req.City, req.Zip),
		PaymentMethod:   req.PaymentMethod,
		PaymentStatus:   derivePaymentStatus(req.PaymentMethod, req.PaymentProofURL),
		PaymentProofURL: req.PaymentProofURL,
		CreatedAt:       s.now(),
	}
	for _, id := range slices.Sorted(maps.Keys(counts)) {
		qty := counts[id]

		p, err := s.products.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, product.ErrNotFound) {
				// Stale cart entry referencing a deleted product.
				continue
			}
			return nil, fmt.Errorf("resolve product %q: %w", id, err)
		}

		o.Items = append(o.Items, Item{
			Name:     p.Name,
			Price:    p.Price,
			Quantity: qty,
			Image:    p.Image,
		})
		o.Total += p.Price * int64(qty)

		if _, err := s.products.DecrementStock(ctx, id, qty); err != nil {
			return nil, fmt.Errorf("decrement stock for %q: %w", id, err)
		}
	}

	o.OrderID = s.ids.Next()
	span.SetAttributes(
		attribute.String("order.id", o.OrderID),
		attribute.Int64("order.total", o.Total),
	)

	// Durability of the sale record takes priority over everything that
	// follows: persist before clearing the cart or attempting delivery.
	if err := s.orders.Append(ctx, o); err != nil {
		return nil, fmt.Errorf("persist order %q: %w", o.OrderID, err)
	}

	if err := s.carts.Clear(ctx, sessionID); err != nil {
		// The sale is already secured; a stale cart is an annoyance,
		// not a reason to fail the transaction.
		zctx.From(ctx).Warn("clear cart after checkout",
			zap.String("order_id", o.OrderID),
			zap.Error(err),
		)
	}

	s.notifier.OrderPlaced(ctx, o)

	return o, nil
}

func joinShipping(parts ...string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, ", ")
}

// derivePaymentStatus maps the self-reported payment method to a status.
// Nothing here is verified against a gateway; the status exists so the
// operator can triage orders in the admin view.
func derivePaymentStatus(method, proofURL string) string {
	switch {
	case strings.EqualFold(method, "cod"):
		return "unpaid"
	case proofURL != "":
		return "proof_submitted"
	default:
		return "pending_verification"
	}
}
