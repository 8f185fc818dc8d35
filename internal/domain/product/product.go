package product

import (
	"context"
	"strconv"
	"strings"

	"github.com/go-faster/errors"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// Product represents a catalog item available for purchase. Price is stored
// in the smallest currency unit. Stock is never negative.
type Product struct {
	ID       string
	Name     string
	Price    int64
	Category string
	Badge    string
	Image    string
	Stock    int
}

// Repository defines catalog operations. DecrementStock must floor the
// result at zero and apply the decrement atomically at the store level so
// concurrent checkouts against the same product cannot oversell.
type Repository interface {
	List(ctx context.Context) ([]Product, error)
	GetByID(ctx context.Context, id string) (*Product, error)
	Create(ctx context.Context, p *Product) error
	Update(ctx context.Context, p *Product) error
	Delete(ctx context.Context, id string) error
	DeleteAll(ctx context.Context) error
	DecrementStock(ctx context.Context, id string, by int) (newStock int, err error)
}

// NormalizeID converts any incoming product identifier to its canonical
// string form. Clients historically sent ids both as JSON numbers and as
// strings ("123" vs 123); normalizing once at the boundary means every
// lookup downstream deals with a single representation.
func NormalizeID(raw string) string {
	s := strings.TrimSpace(raw)
	// Strip a leading/trailing quote pair left by sloppy form encoders.
	s = strings.Trim(s, `"`)
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return strconv.FormatInt(n, 10)
	}
	return s
}
