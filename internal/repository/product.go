package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rcaps4street/storefront/internal/domain/product"
)

const (
	listProductsSQL = `SELECT id, name, price, category, badge, image, stock
		FROM products ORDER BY id`

	getProductByIDSQL = `SELECT id, name, price, category, badge, image, stock
		FROM products WHERE id = $1`

	createProductSQL = `INSERT INTO products (id, name, price, category, badge, image, stock)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	updateProductSQL = `UPDATE products
		SET name = $2, price = $3, category = $4, badge = $5, image = $6, stock = $7
		WHERE id = $1`

	deleteProductSQL     = `DELETE FROM products WHERE id = $1`
	deleteAllProductsSQL = `DELETE FROM products`

	// GREATEST keeps the decrement atomic and floored at zero in a single
	// statement, closing the read-modify-write oversell race between
	// concurrent checkouts.
	decrementStockSQL = `UPDATE products SET stock = GREATEST(stock - $2, 0)
		WHERE id = $1 RETURNING stock`
)

var _ product.Repository = (*ProductRepository)(nil)

// ProductRepository implements product.Repository backed by PostgreSQL.
type ProductRepository struct {
	pool *pgxpool.Pool
}

// NewProductRepository returns a ProductRepository that uses the given pool.
func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// List returns all products from the catalog ordered by ID.
func (r *ProductRepository) List(ctx context.Context) ([]product.Product, error) {
	rows, err := r.pool.Query(ctx, listProductsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	return pgx.CollectRows(rows, scanProduct)
}

// GetByID returns a single product by its identifier.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*product.Product, error) {
	rows, err := r.pool.Query(ctx, getProductByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting product %q: %w", id, err)
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, product.ErrNotFound
		}
		return nil, fmt.Errorf("getting product %q: %w", id, err)
	}
	return &p, nil
}

// Create inserts a new catalog product.
func (r *ProductRepository) Create(ctx context.Context, p *product.Product) error {
	_, err := r.pool.Exec(ctx, createProductSQL,
		p.ID, p.Name, p.Price, p.Category, p.Badge, p.Image, p.Stock,
	)
	if err != nil {
		return fmt.Errorf("creating product %q: %w", p.ID, err)
	}
	return nil
}

// Update replaces the mutable fields of an existing product.
func (r *ProductRepository) Update(ctx context.Context, p *product.Product) error {
	tag, err := r.pool.Exec(ctx, updateProductSQL,
		p.ID, p.Name, p.Price, p.Category, p.Badge, p.Image, p.Stock,
	)
	if err != nil {
		return fmt.Errorf("updating product %q: %w", p.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return product.ErrNotFound
	}
	return nil
}

// Delete removes a product from the catalog.
func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, deleteProductSQL, id)
	if err != nil {
		return fmt.Errorf("deleting product %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return product.ErrNotFound
	}
	return nil
}

// DeleteAll clears the entire catalog.
func (r *ProductRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, deleteAllProductsSQL); err != nil {
		return fmt.Errorf("clearing products: %w", err)
	}
	return nil
}

// DecrementStock atomically reduces stock by the given amount, floored at
// zero, and returns the new stock level.
func (r *ProductRepository) DecrementStock(ctx context.Context, id string, by int) (int, error) {
	var stock int
	err := r.pool.QueryRow(ctx, decrementStockSQL, id, by).Scan(&stock)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, product.ErrNotFound
		}
		return 0, fmt.Errorf("decrementing stock for %q: %w", id, err)
	}
	return stock, nil
}

func scanProduct(row pgx.CollectableRow) (product.Product, error) {
	var p product.Product
	err := row.Scan(&p.ID, &p.Name, &p.Price, &p.Category, &p.Badge, &p.Image, &p.Stock)
	return p, err
}
