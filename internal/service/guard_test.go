package service

import (
	"context"
	"testing"
	"time"

	"github.com/fjod/go_cart/chat-service/internal/domain"
	"github.com/fjod/go_cart/chat-service/internal/store"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupGuard(t *testing.T) (*Guard, *store.MemoryStore, *fakeClock, *domain.Session) {
	t.Helper()
	clock := newFakeClock()
	st := store.NewMemoryStore()
	session := &domain.Session{
		ID:           uuid.NewString(),
		Status:       domain.SessionStatusOpen,
		CreatedAt:    clock.Now(),
		LastActivity: clock.Now(),
	}
	require.NoError(t, st.CreateSession(context.Background(), session))
	return NewGuard(st, 5*time.Minute, clock.Now), st, clock, session
}

func TestAdmit_TouchesLiveSession(t *testing.T) {
	guard, st, clock, session := setupGuard(t)
	ctx := context.Background()

	clock.Advance(5*time.Minute - time.Second)
	got, err := guard.Admit(ctx, session.ID)
	require.NoError(t, err)
	assert.True(t, got.LastActivity.Equal(clock.Now()))

	stored, err := st.GetSession(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SessionStatusOpen, stored.Status)
	assert.True(t, stored.LastActivity.Equal(clock.Now()), "touch must be persisted")
}

func TestAdmit_ExactlyAtTimeoutIsStillLive(t *testing.T) {
	guard, _, clock, session := setupGuard(t)

	clock.Advance(5 * time.Minute)
	_, err := guard.Admit(context.Background(), session.ID)
	assert.NoError(t, err)
}

func TestAdmit_ExpiresAndCloses(t *testing.T) {
	guard, st, clock, session := setupGuard(t)
	ctx := context.Background()

	clock.Advance(5*time.Minute + time.Second)
	_, err := guard.Admit(ctx, session.ID)
	assert.ErrorIs(t, err, ErrSessionExpired)

	stored, err := st.GetSession(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SessionStatusClosed, stored.Status)
	assert.True(t, stored.LastActivity.Equal(session.LastActivity), "an expired session is not touched")

	// once closed it is simply gone for callers
	_, err = guard.Admit(ctx, session.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestAdmit_UnknownSession(t *testing.T) {
	guard, _, _, _ := setupGuard(t)

	_, err := guard.Admit(context.Background(), uuid.NewString())
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestAdmit_ClosedSession(t *testing.T) {
	guard, st, _, session := setupGuard(t)
	ctx := context.Background()

	session.Close()
	require.NoError(t, st.SaveSession(ctx, session))

	_, err := guard.Admit(ctx, session.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestAdmit_LastActivityNeverMovesBack(t *testing.T) {
	guard, st, clock, session := setupGuard(t)
	ctx := context.Background()

	clock.Advance(2 * time.Minute)
	_, err := guard.Admit(ctx, session.ID)
	require.NoError(t, err)
	high := clock.Now()

	// a clock step backwards must not rewind the session
	clock.Advance(-time.Minute)
	got, err := guard.Admit(ctx, session.ID)
	require.NoError(t, err)
	assert.True(t, got.LastActivity.Equal(high))

	stored, err := st.GetSession(ctx, session.ID)
	require.NoError(t, err)
	assert.True(t, stored.LastActivity.Equal(high))
}

func TestAdmit_KeepAliveExtendsWindow(t *testing.T) {
	guard, _, clock, session := setupGuard(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		clock.Advance(4 * time.Minute)
		_, err := guard.Admit(ctx, session.ID)
		require.NoError(t, err, "heartbeat %d", i)
	}
}
