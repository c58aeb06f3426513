package catalog

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fjod/go_cart/chat-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixture = []domain.Product{
	{SKU: "ZAP-001", Name: "Zapatillas Nike Air Max", PriceMinorUnits: 15990000, Category: "Calzado"},
	{SKU: "CAM-002", Name: "Camisa Polo Lacoste", PriceMinorUnits: 8990000, Category: "Ropa"},
	{SKU: "REL-003", Name: "Reloj Casio G-Shock", PriceMinorUnits: 25990000, Category: "Accesorios"},
	{SKU: "AUD-004", Name: "Audífonos Sony WH-1000XM4", PriceMinorUnits: 39990000, Category: "Electrónicos"},
	{SKU: "MOC-005", Name: "Mochila Samsonite", PriceMinorUnits: 12990000, Category: "Accesorios"},
	{SKU: "PAN-006", Name: "Pantalón Jeans Levis", PriceMinorUnits: 6990000, Category: "Ropa"},
}

type countingSource struct {
	calls atomic.Int32
	delay time.Duration
	err   error
}

func (s *countingSource) GetAllProducts(context.Context) ([]*domain.Product, error) {
	s.calls.Add(1)
	time.Sleep(s.delay)
	if s.err != nil {
		return nil, s.err
	}
	out := make([]*domain.Product, len(fixture))
	for i := range fixture {
		p := fixture[i]
		out[i] = &p
	}
	return out, nil
}

func skus(products []domain.Product) []string {
	out := make([]string, 0, len(products))
	for _, p := range products {
		out = append(out, p.SKU)
	}
	return out
}

func TestFindBySKU_CaseInsensitive(t *testing.T) {
	c := NewStaticCatalog(fixture)
	ctx := context.Background()

	p, err := c.FindBySKU(ctx, "zap-001")
	require.NoError(t, err)
	assert.Equal(t, "ZAP-001", p.SKU)

	p, err = c.FindBySKU(ctx, "Pan-006")
	require.NoError(t, err)
	assert.Equal(t, "Pantalón Jeans Levis", p.Name)

	_, err = c.FindBySKU(ctx, "ZAP-999")
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestSearch_FieldsAndOrder(t *testing.T) {
	c := NewStaticCatalog(fixture)
	ctx := context.Background()

	found, err := c.Search(ctx, "ropa", 8, FieldName, FieldCategory, FieldSKU)
	require.NoError(t, err)
	assert.Equal(t, []string{"CAM-002", "PAN-006"}, skus(found))

	found, err = c.Search(ctx, "JEANS", 8, FieldName, FieldCategory)
	require.NoError(t, err)
	assert.Equal(t, []string{"PAN-006"}, skus(found))

	// sku only matches when the sku field is selected
	found, err = c.Search(ctx, "rel-", 8, FieldName, FieldCategory)
	require.NoError(t, err)
	assert.Empty(t, found)

	found, err = c.Search(ctx, "rel-", 8, FieldSKU)
	require.NoError(t, err)
	assert.Equal(t, []string{"REL-003"}, skus(found))

	found, err = c.Search(ctx, "audífonos", 8, FieldName)
	require.NoError(t, err)
	assert.Equal(t, []string{"AUD-004"}, skus(found))
}

func TestSearch_Limit(t *testing.T) {
	c := NewStaticCatalog(fixture)

	found, err := c.Search(context.Background(), "a", 3, FieldName, FieldCategory)
	require.NoError(t, err)
	assert.Equal(t, []string{"ZAP-001", "CAM-002", "REL-003"}, skus(found))
}

func TestListFirst(t *testing.T) {
	c := NewStaticCatalog(fixture)
	ctx := context.Background()

	first, err := c.ListFirst(ctx, 4)
	require.NoError(t, err)
	assert.Equal(t, []string{"ZAP-001", "CAM-002", "REL-003", "AUD-004"}, skus(first))

	all, err := c.ListFirst(ctx, 100)
	require.NoError(t, err)
	assert.Len(t, all, 6)
}

func TestCatalog_LazyLoadCollapsesConcurrentCallers(t *testing.T) {
	src := &countingSource{delay: 50 * time.Millisecond}
	c := NewCatalog(src)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.FindBySKU(context.Background(), "ZAP-001")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), src.calls.Load())
}

func TestCatalog_LoadError(t *testing.T) {
	boom := errors.New("db down")
	c := NewCatalog(&countingSource{err: boom})

	_, err := c.ListFirst(context.Background(), 4)
	assert.ErrorIs(t, err, boom)
}
