package main

import (
	"context"
	"encoding/json"
	"flag"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"

	"github.com/go-faster/errors"
	pgzip "github.com/klauspost/pgzip"
	"golang.org/x/sync/errgroup"

	"github.com/rcaps4street/storefront/internal/domain/product"
	"github.com/rcaps4street/storefront/internal/repository"
)

// seedWorkers bounds concurrent inserts during seeding.
const seedWorkers = 4

type productJSON struct {
	ID       json.Number `json:"id"`
	Name     string      `json:"name"`
	Price    int64       `json:"price"`
	Category string      `json:"category"`
	Badge    string      `json:"badge"`
	Image    string      `json:"image"`
	Stock    int         `json:"stock"`
}

func main() {
	var (
		databaseURL  string
		productsFile string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&productsFile, "products-file", "db/seed/products.json", "path to products JSON file (optionally .gz)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, productsFile); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, productsFile string) error {
	slog.Info("connecting to database")

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	products, err := loadProducts(productsFile)
	if err != nil {
		return errors.Wrap(err, "load products")
	}

	repo := repository.NewProductRepository(pool)

	var seeded atomic.Int64
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(seedWorkers)
	for _, pj := range products {
		g.Go(func() error {
			p := &product.Product{
				ID:       product.NormalizeID(pj.ID.String()),
				Name:     pj.Name,
				Price:    pj.Price,
				Category: pj.Category,
				Badge:    pj.Badge,
				Image:    pj.Image,
				Stock:    pj.Stock,
			}
			if err := repo.Create(ctx, p); err != nil {
				// Re-running the seed against an existing catalog is
				// fine; existing rows are skipped.
				slog.Warn("skipping product", slog.String("id", p.ID), slog.String("error", err.Error()))
				return nil
			}
			seeded.Add(1)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return errors.Wrap(err, "seed products")
	}

	slog.Info("products seeded", slog.Int64("count", seeded.Load()), slog.Int("total", len(products)))
	return nil
}

// loadProducts reads the products JSON file, transparently decompressing
// .gz archives.
func loadProducts(path string) ([]productJSON, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := pgzip.NewReader(f)
		if err != nil {
			return nil, errors.Wrap(err, "open gzip stream")
		}
		defer gz.Close()
		r = gz
	}

	var products []productJSON
	if err := json.NewDecoder(r).Decode(&products); err != nil {
		return nil, errors.Wrap(err, "decode products")
	}
	return products, nil
}
