package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/fjod/go_cart/chat-service/internal/catalog"
	"github.com/fjod/go_cart/chat-service/internal/domain"
	"github.com/fjod/go_cart/chat-service/internal/money"
	"github.com/fjod/go_cart/chat-service/internal/store"
)

// Catalog is the product lookup the chat needs.
type Catalog interface {
	FindBySKU(ctx context.Context, sku string) (domain.Product, error)
	Search(ctx context.Context, query string, limit int, fields ...catalog.Field) ([]domain.Product, error)
	ListFirst(ctx context.Context, n int) ([]domain.Product, error)
}

// loadCart reads the session's items and joins them with catalog data.
func loadCart(ctx context.Context, carts store.CartStore, products Catalog, sessionID string) ([]domain.CartLine, error) {
	items, err := carts.ListItems(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list cart items: %w", err)
	}

	lines := make([]domain.CartLine, 0, len(items))
	for _, item := range items {
		product, err := products.FindBySKU(ctx, item.SKU)
		if errors.Is(err, catalog.ErrProductNotFound) {
			slog.WarnContext(ctx, "cart item references unknown product",
				slog.String("session_id", sessionID),
				slog.String("sku", item.SKU),
			)
			continue
		}
		if err != nil {
			return nil, err
		}
		lines = append(lines, domain.CartLine{Item: item, Product: product})
	}
	return lines, nil
}

func renderCart(lines []domain.CartLine) *domain.CartView {
	view := &domain.CartView{
		Items: make([]domain.CartLineView, 0, len(lines)),
		Total: money.Format(domain.CartTotal(lines)),
	}
	for _, l := range lines {
		view.Items = append(view.Items, domain.CartLineView{
			SKU:        l.Product.SKU,
			Name:       l.Product.Name,
			Quantity:   l.Item.Quantity,
			PriceTotal: money.Format(l.LineTotal()),
		})
	}
	return view
}

func renderProducts(products []domain.Product) []domain.ProductView {
	views := make([]domain.ProductView, 0, len(products))
	for _, p := range products {
		views = append(views, domain.ProductView{
			SKU:      p.SKU,
			Name:     p.Name,
			Price:    money.Format(p.PriceMinorUnits),
			ImageURL: p.ImageURL,
			Category: p.Category,
		})
	}
	return views
}
