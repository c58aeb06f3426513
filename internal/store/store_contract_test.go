package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/fjod/go_cart/chat-service/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOpenSession(lastActivity time.Time) *domain.Session {
	return &domain.Session{
		ID:           uuid.NewString(),
		Status:       domain.SessionStatusOpen,
		CreatedAt:    lastActivity,
		LastActivity: lastActivity,
	}
}

// runStoreContract checks the behaviour every Store backend must share.
func runStoreContract(t *testing.T, newStore func(t *testing.T) Store) {
	t.Run("CreateAndGetSession", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		now := time.Now().Truncate(time.Millisecond)
		session := newOpenSession(now)

		require.NoError(t, s.CreateSession(ctx, session))

		got, err := s.GetSession(ctx, session.ID)
		require.NoError(t, err)
		assert.Equal(t, session.ID, got.ID)
		assert.Equal(t, domain.SessionStatusOpen, got.Status)
		assert.True(t, got.LastActivity.Equal(now))
	})

	t.Run("CreateSession_Duplicate", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		session := newOpenSession(time.Now())

		require.NoError(t, s.CreateSession(ctx, session))
		assert.ErrorIs(t, s.CreateSession(ctx, session), ErrSessionExists)
	})

	t.Run("GetSession_NotFound", func(t *testing.T) {
		s := newStore(t)
		_, err := s.GetSession(context.Background(), uuid.NewString())
		assert.ErrorIs(t, err, ErrSessionNotFound)
	})

	t.Run("SaveSession_UpdatesStatusAndActivity", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		start := time.Now().Truncate(time.Millisecond)
		session := newOpenSession(start)
		require.NoError(t, s.CreateSession(ctx, session))

		session.LastActivity = start.Add(time.Minute)
		session.Status = domain.SessionStatusClosed
		require.NoError(t, s.SaveSession(ctx, session))

		got, err := s.GetSession(ctx, session.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.SessionStatusClosed, got.Status)
		assert.True(t, got.LastActivity.Equal(start.Add(time.Minute)))
		assert.True(t, got.CreatedAt.Equal(start))
	})

	t.Run("SaveSession_NotFound", func(t *testing.T) {
		s := newStore(t)
		err := s.SaveSession(context.Background(), newOpenSession(time.Now()))
		assert.ErrorIs(t, err, ErrSessionNotFound)
	})

	t.Run("IdleSessions", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		now := time.Now().Truncate(time.Millisecond)

		stale := newOpenSession(now.Add(-10 * time.Minute))
		fresh := newOpenSession(now)
		closed := newOpenSession(now.Add(-10 * time.Minute))
		closed.Status = domain.SessionStatusClosed
		for _, sess := range []*domain.Session{stale, fresh, closed} {
			require.NoError(t, s.CreateSession(ctx, sess))
		}

		idle, err := s.IdleSessions(ctx, now.Add(-5*time.Minute))
		require.NoError(t, err)
		require.Len(t, idle, 1)
		assert.Equal(t, stale.ID, idle[0].ID)

		// closing removes it from the idle set
		stale.Status = domain.SessionStatusClosed
		require.NoError(t, s.SaveSession(ctx, stale))
		idle, err = s.IdleSessions(ctx, now.Add(-5*time.Minute))
		require.NoError(t, err)
		assert.Empty(t, idle)
	})

	t.Run("GetOrCreateItem_ThenIncrement", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		sessionID := uuid.NewString()

		item, created, err := s.GetOrCreateItem(ctx, sessionID, "ZAP-001", 2)
		require.NoError(t, err)
		assert.True(t, created)
		assert.Equal(t, 2, item.Quantity)

		item, created, err = s.GetOrCreateItem(ctx, sessionID, "ZAP-001", 5)
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, 2, item.Quantity, "existing row keeps its quantity")

		item, err = s.IncrementItem(ctx, item, 3)
		require.NoError(t, err)
		assert.Equal(t, 5, item.Quantity)

		items, err := s.ListItems(ctx, sessionID)
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, "ZAP-001", items[0].SKU)
		assert.Equal(t, 5, items[0].Quantity)
		assert.Equal(t, sessionID, items[0].SessionID)
	})

	t.Run("ListItems_InsertionOrderAndIsolation", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		a, b := uuid.NewString(), uuid.NewString()

		for _, sku := range []string{"PAN-006", "ZAP-001", "CAM-002"} {
			_, _, err := s.GetOrCreateItem(ctx, a, sku, 1)
			require.NoError(t, err)
		}
		_, _, err := s.GetOrCreateItem(ctx, b, "REL-003", 1)
		require.NoError(t, err)

		items, err := s.ListItems(ctx, a)
		require.NoError(t, err)
		require.Len(t, items, 3)
		assert.Equal(t, "PAN-006", items[0].SKU)
		assert.Equal(t, "ZAP-001", items[1].SKU)
		assert.Equal(t, "CAM-002", items[2].SKU)

		items, err = s.ListItems(ctx, uuid.NewString())
		require.NoError(t, err)
		assert.Empty(t, items)
	})

	t.Run("IncrementItem_Missing", func(t *testing.T) {
		s := newStore(t)
		_, err := s.IncrementItem(context.Background(), domain.CartItem{SessionID: uuid.NewString(), SKU: "ZAP-001"}, 1)
		assert.ErrorIs(t, err, ErrItemNotFound)
	})

	t.Run("InvalidQuantity", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		_, _, err := s.GetOrCreateItem(ctx, uuid.NewString(), "ZAP-001", 0)
		assert.ErrorIs(t, err, ErrInvalidQuantity)
		_, err = s.IncrementItem(ctx, domain.CartItem{SessionID: uuid.NewString(), SKU: "ZAP-001"}, -1)
		assert.ErrorIs(t, err, ErrInvalidQuantity)
	})

	t.Run("ConcurrentGetOrCreate_OneRow", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		sessionID := uuid.NewString()

		var wg sync.WaitGroup
		var mu sync.Mutex
		createdCount := 0
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, created, err := s.GetOrCreateItem(ctx, sessionID, "ZAP-001", 1)
				assert.NoError(t, err)
				if created {
					mu.Lock()
					createdCount++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, 1, createdCount)
		items, err := s.ListItems(ctx, sessionID)
		require.NoError(t, err)
		assert.Len(t, items, 1)
	})
}
