package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/fjod/go_cart/chat-service/internal/catalog"
	"github.com/fjod/go_cart/chat-service/internal/domain"
	"github.com/fjod/go_cart/chat-service/internal/events"
	"github.com/fjod/go_cart/chat-service/internal/money"
	"github.com/fjod/go_cart/chat-service/internal/store"
)

const (
	offersLimit   = 4
	searchLimit   = 8
	fallbackLimit = 3

	searchPrefix = "buscar "
	addPrefix    = "agregar "

	// MaxAddQuantity caps the quantity of a single "agregar" command.
	MaxAddQuantity = 9999
)

// quantityMarker matches a trailing "x2" / "× 2" on an add command.
var quantityMarker = regexp.MustCompile(`(?i)\s*[x×]\s*(\d+)\s*$`)

var errInvalidQuantity = errors.New("invalid quantity")

// request is one normalized message on its way through the intents.
type request struct {
	session *domain.Session
	message string
	baseURL string
}

type intent struct {
	name   string
	match  func(message string) bool
	handle func(ctx context.Context, req request) (*domain.Reply, error)
}

// Resolver maps a normalized chat message to a reply. Intents are tried in
// order and the first match wins; anything else goes to the fallback search.
type Resolver struct {
	catalog   Catalog
	carts     store.CartStore
	publisher events.Publisher
	now       func() time.Time
	intents   []intent
}

func NewResolver(products Catalog, carts store.CartStore, publisher events.Publisher, now func() time.Time) *Resolver {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if now == nil {
		now = time.Now
	}
	r := &Resolver{catalog: products, carts: carts, publisher: publisher, now: now}
	r.intents = []intent{
		{name: "offers", match: equals("ver ofertas"), handle: r.showOffers},
		{name: "search", match: hasPrefix(searchPrefix), handle: r.search},
		{name: "add", match: hasPrefix(addPrefix), handle: r.addToCart},
		{name: "cart", match: equals("carrito"), handle: r.showCart},
		{name: "checkout", match: equals("pagar", "checkout", "pago"), handle: r.checkout},
	}
	return r
}

// Normalize trims and lower-cases a raw chat message.
func Normalize(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// Resolve answers rawMessage for an already admitted session. baseURL is the
// public origin used to build payment links.
func (r *Resolver) Resolve(ctx context.Context, session *domain.Session, rawMessage, baseURL string) (*domain.Reply, error) {
	req := request{session: session, message: Normalize(rawMessage), baseURL: baseURL}

	for _, in := range r.intents {
		if in.match(req.message) {
			slog.DebugContext(ctx, "intent matched",
				slog.String("session_id", session.ID),
				slog.String("intent", in.name),
			)
			return in.handle(ctx, req)
		}
	}
	return r.fallback(ctx, req)
}

func (r *Resolver) showOffers(ctx context.Context, _ request) (*domain.Reply, error) {
	products, err := r.catalog.ListFirst(ctx, offersLimit)
	if err != nil {
		return nil, err
	}
	return &domain.Reply{Reply: offersMessage, Products: renderProducts(products)}, nil
}

func (r *Resolver) search(ctx context.Context, req request) (*domain.Reply, error) {
	query := strings.TrimSpace(strings.TrimPrefix(req.message, searchPrefix))
	if query == "" {
		return &domain.Reply{Reply: searchEmptyMessage}, nil
	}

	products, err := r.catalog.Search(ctx, query, searchLimit, catalog.FieldName, catalog.FieldCategory, catalog.FieldSKU)
	if err != nil {
		return nil, err
	}
	if len(products) == 0 {
		return &domain.Reply{Reply: fmt.Sprintf(searchNotFoundFormat, query)}, nil
	}
	return &domain.Reply{
		Reply:    fmt.Sprintf(searchFoundFormat, len(products), query),
		Products: renderProducts(products),
	}, nil
}

func (r *Resolver) addToCart(ctx context.Context, req request) (*domain.Reply, error) {
	sku, quantity, err := parseAddCommand(strings.TrimPrefix(req.message, addPrefix))
	if errors.Is(err, errInvalidQuantity) {
		return &domain.Reply{Reply: fmt.Sprintf(invalidQuantityFormat, MaxAddQuantity)}, nil
	}

	product, err := r.catalog.FindBySKU(ctx, sku)
	if errors.Is(err, catalog.ErrProductNotFound) {
		return &domain.Reply{Reply: fmt.Sprintf(skuNotFoundFormat, sku)}, nil
	}
	if err != nil {
		return nil, err
	}

	// stored sku, not the typed one, keys the cart row
	item, created, err := r.carts.GetOrCreateItem(ctx, req.session.ID, product.SKU, quantity)
	if err != nil {
		return nil, fmt.Errorf("add to cart: %w", err)
	}
	if !created {
		if _, err := r.carts.IncrementItem(ctx, item, quantity); err != nil {
			return nil, fmt.Errorf("increment cart item: %w", err)
		}
	}

	lines, err := loadCart(ctx, r.carts, r.catalog, req.session.ID)
	if err != nil {
		return nil, err
	}
	return &domain.Reply{
		Reply: fmt.Sprintf(addedFormat, quantity, product.Name, money.Format(product.PriceMinorUnits)),
		Cart:  renderCart(lines),
	}, nil
}

func (r *Resolver) showCart(ctx context.Context, req request) (*domain.Reply, error) {
	lines, err := loadCart(ctx, r.carts, r.catalog, req.session.ID)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return &domain.Reply{Reply: cartEmptyMessage}, nil
	}
	return &domain.Reply{Reply: cartMessage, Cart: renderCart(lines)}, nil
}

func (r *Resolver) checkout(ctx context.Context, req request) (*domain.Reply, error) {
	lines, err := loadCart(ctx, r.carts, r.catalog, req.session.ID)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return &domain.Reply{Reply: paymentEmptyMessage}, nil
	}

	link := PaymentLink(req.baseURL, req.session.ID)
	r.publishCheckout(ctx, req.session.ID, lines, link)

	return &domain.Reply{
		Reply:       paymentReadyMessage,
		PaymentLink: link,
		Cart:        renderCart(lines),
	}, nil
}

func (r *Resolver) fallback(ctx context.Context, req request) (*domain.Reply, error) {
	products, err := r.catalog.Search(ctx, req.message, fallbackLimit, catalog.FieldName, catalog.FieldCategory)
	if err != nil {
		return nil, err
	}
	if len(products) == 0 {
		return &domain.Reply{Reply: HelpMessage}, nil
	}
	return &domain.Reply{Reply: didYouMeanMessage, Products: renderProducts(products)}, nil
}

// publishCheckout is best effort: a broker outage never fails the chat reply.
func (r *Resolver) publishCheckout(ctx context.Context, sessionID string, lines []domain.CartLine, link string) {
	event := events.CheckoutRequested{
		SessionID:   sessionID,
		Items:       make([]events.CheckoutItem, 0, len(lines)),
		TotalMinor:  domain.CartTotal(lines),
		Total:       money.Format(domain.CartTotal(lines)),
		PaymentLink: link,
		RequestedAt: r.now().UTC(),
	}
	for _, l := range lines {
		event.Items = append(event.Items, events.CheckoutItem{
			SKU:       l.Product.SKU,
			Name:      l.Product.Name,
			Quantity:  l.Item.Quantity,
			UnitMinor: l.Product.PriceMinorUnits,
			LineMinor: l.LineTotal(),
		})
	}

	if err := r.publisher.PublishCheckoutRequested(ctx, event); err != nil {
		slog.WarnContext(ctx, "checkout event not published",
			slog.String("session_id", sessionID),
			slog.Any("err", err),
		)
	}
}

// PaymentLink builds the demo payment page URL for a session.
func PaymentLink(baseURL, sessionID string) string {
	return strings.TrimRight(baseURL, "/") + "/pay/" + sessionID
}

// parseAddCommand splits "zap-001 x2" into ("ZAP-001", 2). The quantity
// defaults to 1 when no marker is present.
func parseAddCommand(text string) (string, int, error) {
	text = strings.TrimSpace(text)
	quantity := 1

	if m := quantityMarker.FindStringSubmatchIndex(text); m != nil {
		n, err := strconv.Atoi(text[m[2]:m[3]])
		if err != nil || n < 1 || n > MaxAddQuantity {
			return "", 0, errInvalidQuantity
		}
		quantity = n
		text = text[:m[0]]
	}

	return strings.ToUpper(strings.TrimSpace(text)), quantity, nil
}

func equals(options ...string) func(string) bool {
	return func(message string) bool {
		for _, o := range options {
			if message == o {
				return true
			}
		}
		return false
	}
}

func hasPrefix(prefix string) func(string) bool {
	return func(message string) bool {
		return strings.HasPrefix(message, prefix)
	}
}
