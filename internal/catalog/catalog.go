// Package catalog serves read-mostly product lookups from an in-memory snapshot
// of the product repository.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/fjod/go_cart/chat-service/internal/domain"
	"golang.org/x/sync/singleflight"
)

var ErrProductNotFound = errors.New("product not found")

// Field selects a product attribute for substring search.
type Field int

const (
	FieldName Field = iota
	FieldCategory
	FieldSKU
)

// ProductSource is the durable side of the catalog.
// Consumers define this interface, not the SQL implementation
type ProductSource interface {
	GetAllProducts(ctx context.Context) ([]*domain.Product, error)
}

type Catalog struct {
	source ProductSource
	sfg    singleflight.Group // collapses concurrent loads

	mu       sync.RWMutex
	products []domain.Product
	bySKU    map[string]int // upper-cased sku -> index in products
	loaded   bool
}

func NewCatalog(source ProductSource) *Catalog {
	return &Catalog{source: source}
}

// NewStaticCatalog builds a catalog over a fixed product list, in the given order.
func NewStaticCatalog(products []domain.Product) *Catalog {
	c := &Catalog{}
	c.install(products)
	return c
}

// Reload replaces the snapshot with a fresh read from the source.
func (c *Catalog) Reload(ctx context.Context) error {
	return c.load(ctx, true)
}

func (c *Catalog) load(ctx context.Context, force bool) error {
	if c.source == nil {
		return nil
	}
	_, err, _ := c.sfg.Do("products", func() (interface{}, error) {
		if !force && c.isLoaded() {
			return nil, nil
		}
		rows, err := c.source.GetAllProducts(ctx)
		if err != nil {
			return nil, fmt.Errorf("load catalog: %w", err)
		}
		products := make([]domain.Product, 0, len(rows))
		for _, p := range rows {
			products = append(products, *p)
		}
		c.install(products)
		return nil, nil
	})
	return err
}

func (c *Catalog) install(products []domain.Product) {
	bySKU := make(map[string]int, len(products))
	for i, p := range products {
		bySKU[strings.ToUpper(p.SKU)] = i
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.products = products
	c.bySKU = bySKU
	c.loaded = true
}

func (c *Catalog) isLoaded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loaded
}

func (c *Catalog) snapshot(ctx context.Context) ([]domain.Product, map[string]int, error) {
	if !c.isLoaded() {
		if err := c.load(ctx, false); err != nil {
			return nil, nil, err
		}
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.products, c.bySKU, nil
}

// FindBySKU looks a product up by SKU, ignoring case.
func (c *Catalog) FindBySKU(ctx context.Context, sku string) (domain.Product, error) {
	products, bySKU, err := c.snapshot(ctx)
	if err != nil {
		return domain.Product{}, err
	}
	i, ok := bySKU[strings.ToUpper(sku)]
	if !ok {
		return domain.Product{}, ErrProductNotFound
	}
	return products[i], nil
}

// Search returns up to limit products, in catalog order, whose selected fields
// contain query case-insensitively. A non-positive limit means no limit.
func (c *Catalog) Search(ctx context.Context, query string, limit int, fields ...Field) ([]domain.Product, error) {
	products, _, err := c.snapshot(ctx)
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(query)
	var found []domain.Product
	for _, p := range products {
		if limit > 0 && len(found) >= limit {
			break
		}
		if matches(p, needle, fields) {
			found = append(found, p)
		}
	}
	return found, nil
}

// ListFirst returns the first n products in catalog order.
func (c *Catalog) ListFirst(ctx context.Context, n int) ([]domain.Product, error) {
	products, _, err := c.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	if n > len(products) {
		n = len(products)
	}
	out := make([]domain.Product, n)
	copy(out, products[:n])
	return out, nil
}

func matches(p domain.Product, needle string, fields []Field) bool {
	for _, f := range fields {
		var hay string
		switch f {
		case FieldName:
			hay = p.Name
		case FieldCategory:
			hay = p.Category
		case FieldSKU:
			hay = p.SKU
		}
		if strings.Contains(strings.ToLower(hay), needle) {
			return true
		}
	}
	return false
}
