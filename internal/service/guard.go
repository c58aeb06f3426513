package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fjod/go_cart/chat-service/internal/domain"
	"github.com/fjod/go_cart/chat-service/internal/store"
)

// DefaultSessionTimeout is how long a session may stay idle before it expires.
const DefaultSessionTimeout = 5 * time.Minute

// Guard admits requests for a session. Every successful lookup either touches
// the session or closes it.
type Guard struct {
	sessions store.SessionStore
	timeout  time.Duration
	now      func() time.Time
}

func NewGuard(sessions store.SessionStore, timeout time.Duration, now func() time.Time) *Guard {
	if timeout <= 0 {
		timeout = DefaultSessionTimeout
	}
	if now == nil {
		now = time.Now
	}
	return &Guard{sessions: sessions, timeout: timeout, now: now}
}

// Admit returns the live, freshly touched session. Unknown or closed sessions
// fail with ErrSessionNotFound. Sessions idle past the timeout are closed and
// fail with ErrSessionExpired.
func (g *Guard) Admit(ctx context.Context, sessionID string) (*domain.Session, error) {
	session, err := g.sessions.GetSession(ctx, sessionID)
	if errors.Is(err, store.ErrSessionNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if session.Status.IsTerminal() {
		return nil, ErrSessionNotFound
	}

	now := g.now()
	if session.IsExpired(now, g.timeout) {
		session.Close()
		if err := g.sessions.SaveSession(ctx, session); err != nil {
			return nil, fmt.Errorf("close expired session: %w", err)
		}
		return nil, ErrSessionExpired
	}

	session.Touch(now)
	if err := g.sessions.SaveSession(ctx, session); err != nil {
		return nil, fmt.Errorf("touch session: %w", err)
	}
	return session, nil
}
