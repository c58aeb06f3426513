package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/fjod/go_cart/chat-service/internal/catalog"
	"github.com/fjod/go_cart/chat-service/internal/domain"
	"github.com/fjod/go_cart/chat-service/internal/events"
	"github.com/fjod/go_cart/chat-service/internal/store"
	"github.com/stretchr/testify/require"
)

const testBaseURL = "http://shop.test"

var seedProducts = []domain.Product{
	{SKU: "ZAP-001", Name: "Zapatillas Nike Air Max", PriceMinorUnits: 15990000, Category: "Calzado", ImageURL: "https://picsum.photos/300/300?random=1"},
	{SKU: "CAM-002", Name: "Camisa Polo Lacoste", PriceMinorUnits: 8990000, Category: "Ropa", ImageURL: "https://picsum.photos/300/300?random=2"},
	{SKU: "REL-003", Name: "Reloj Casio G-Shock", PriceMinorUnits: 25990000, Category: "Accesorios", ImageURL: "https://picsum.photos/300/300?random=3"},
	{SKU: "AUD-004", Name: "Audífonos Sony WH-1000XM4", PriceMinorUnits: 39990000, Category: "Electrónicos", ImageURL: "https://picsum.photos/300/300?random=4"},
	{SKU: "MOC-005", Name: "Mochila Samsonite", PriceMinorUnits: 12990000, Category: "Accesorios", ImageURL: "https://picsum.photos/300/300?random=5"},
	{SKU: "PAN-006", Name: "Pantalón Jeans Levis", PriceMinorUnits: 6990000, Category: "Ropa", ImageURL: "https://picsum.photos/300/300?random=6"},
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.CheckoutRequested
	err    error
}

func (p *recordingPublisher) PublishCheckoutRequested(_ context.Context, e events.CheckoutRequested) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

type fixture struct {
	store     *store.MemoryStore
	clock     *fakeClock
	publisher *recordingPublisher
	chat      *ChatService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:     store.NewMemoryStore(),
		clock:     newFakeClock(),
		publisher: &recordingPublisher{},
	}
	f.chat = NewChatService(f.store, f.store, catalog.NewStaticCatalog(seedProducts),
		WithClock(f.clock.Now),
		WithPublisher(f.publisher),
	)
	return f
}

func (f *fixture) openSession(t *testing.T) *domain.Session {
	t.Helper()
	session, err := f.chat.CreateSession(context.Background())
	require.NoError(t, err)
	return session
}

func (f *fixture) send(t *testing.T, sessionID, message string) *domain.Reply {
	t.Helper()
	reply, err := f.chat.ProcessMessage(context.Background(), sessionID, message, testBaseURL)
	require.NoError(t, err)
	return reply
}

func productSKUs(views []domain.ProductView) []string {
	out := make([]string, 0, len(views))
	for _, v := range views {
		out = append(out, v.SKU)
	}
	return out
}
