package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rcaps4street/storefront/internal/domain/order"
)

const (
	appendOrderSQL = `INSERT INTO orders
		(order_id, customer_email, phone, shipping_address, payment_method,
		 payment_status, payment_proof_url, items, total, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	listOrdersSQL = `SELECT order_id, customer_email, phone, shipping_address,
		payment_method, payment_status, payment_proof_url, items, total, created_at
		FROM orders ORDER BY created_at DESC`

	listOrderIDsSQL = `SELECT order_id FROM orders`

	deleteAllOrdersSQL = `DELETE FROM orders`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL. The
// collection is append-only; nothing here updates an order in place.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Append persists a new order. The item snapshot is serialized to JSON for
// storage in the JSONB column.
func (r *OrderRepository) Append(ctx context.Context, o *order.Order) error {
	itemsJSON, err := json.Marshal(o.Items)
	if err != nil {
		return fmt.Errorf("marshaling order items: %w", err)
	}

	_, err = r.pool.Exec(ctx, appendOrderSQL,
		o.OrderID, o.CustomerEmail, o.Phone, o.ShippingAddress,
		o.PaymentMethod, o.PaymentStatus, o.PaymentProofURL,
		itemsJSON, o.Total, o.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("appending order %q: %w", o.OrderID, err)
	}

	return nil
}

// List returns all orders, newest first.
func (r *OrderRepository) List(ctx context.Context) ([]order.Order, error) {
	rows, err := r.pool.Query(ctx, listOrdersSQL)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	return pgx.CollectRows(rows, scanOrder)
}

// ListIDs returns the references of all persisted orders; used to seed the
// id generator's membership filter at startup.
func (r *OrderRepository) ListIDs(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, listOrderIDsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing order ids: %w", err)
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

// DeleteAll wipes the order history.
func (r *OrderRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, deleteAllOrdersSQL); err != nil {
		return fmt.Errorf("wiping orders: %w", err)
	}
	return nil
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var (
		o         order.Order
		itemsJSON []byte
	)
	err := row.Scan(
		&o.OrderID, &o.CustomerEmail, &o.Phone, &o.ShippingAddress,
		&o.PaymentMethod, &o.PaymentStatus, &o.PaymentProofURL,
		&itemsJSON, &o.Total, &o.CreatedAt,
	)
	if err != nil {
		return o, err
	}
	if err := json.Unmarshal(itemsJSON, &o.Items); err != nil {
		return o, fmt.Errorf("unmarshaling items for order %q: %w", o.OrderID, err)
	}
	return o, nil
}
