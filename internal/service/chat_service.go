package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/fjod/go_cart/chat-service/internal/domain"
	"github.com/fjod/go_cart/chat-service/internal/events"
	"github.com/fjod/go_cart/chat-service/internal/store"
	"github.com/google/uuid"
)

type ChatService struct {
	sessions store.SessionStore
	carts    store.CartStore
	catalog  Catalog
	guard    *Guard
	resolver *Resolver
	locks    *sessionLocks
	timeout  time.Duration
	now      func() time.Time
}

type Option func(*options)

type options struct {
	timeout   time.Duration
	now       func() time.Time
	publisher events.Publisher
}

// WithSessionTimeout overrides the inactivity window (default 5 minutes).
func WithSessionTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func WithPublisher(p events.Publisher) Option {
	return func(o *options) { o.publisher = p }
}

func NewChatService(sessions store.SessionStore, carts store.CartStore, products Catalog, opts ...Option) *ChatService {
	o := options{timeout: DefaultSessionTimeout, now: time.Now, publisher: events.NopPublisher{}}
	for _, opt := range opts {
		opt(&o)
	}
	if o.timeout <= 0 {
		o.timeout = DefaultSessionTimeout
	}

	return &ChatService{
		sessions: sessions,
		carts:    carts,
		catalog:  products,
		guard:    NewGuard(sessions, o.timeout, o.now),
		resolver: NewResolver(products, carts, o.publisher, o.now),
		locks:    newSessionLocks(),
		timeout:  o.timeout,
		now:      o.now,
	}
}

// Timeout is the inactivity window applied to sessions.
func (s *ChatService) Timeout() time.Duration {
	return s.timeout
}

// CreateSession opens a new session.
func (s *ChatService) CreateSession(ctx context.Context) (*domain.Session, error) {
	now := s.now()
	session := &domain.Session{
		ID:           uuid.NewString(),
		Status:       domain.SessionStatusOpen,
		CreatedAt:    now,
		LastActivity: now,
	}
	if err := s.sessions.CreateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	slog.InfoContext(ctx, "session created", slog.String("session_id", session.ID))
	return session, nil
}

// Heartbeat runs the lifecycle guard only.
func (s *ChatService) Heartbeat(ctx context.Context, sessionID string) error {
	unlock := s.locks.lock(sessionID)
	defer unlock()

	_, err := s.admit(ctx, sessionID)
	return err
}

// ProcessMessage admits the session, then resolves the message against it.
// Guard, resolution and cart mutation run under the session's lock.
func (s *ChatService) ProcessMessage(ctx context.Context, sessionID, message, baseURL string) (*domain.Reply, error) {
	unlock := s.locks.lock(sessionID)
	defer unlock()

	session, err := s.admit(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return s.resolver.Resolve(ctx, session, message, baseURL)
}

// PaymentSummary renders the cart of any known session, open or closed.
func (s *ChatService) PaymentSummary(ctx context.Context, sessionID string) (*domain.CartView, error) {
	if _, err := s.sessions.GetSession(ctx, sessionID); err != nil {
		if errors.Is(err, store.ErrSessionNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("load session: %w", err)
	}

	lines, err := loadCart(ctx, s.carts, s.catalog, sessionID)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}
	return renderCart(lines), nil
}

// CloseIdleSessions closes every open session idle past the timeout and
// returns how many it closed.
func (s *ChatService) CloseIdleSessions(ctx context.Context) (int, error) {
	now := s.now()
	idle, err := s.sessions.IdleSessions(ctx, now.Add(-s.timeout))
	if err != nil {
		return 0, fmt.Errorf("list idle sessions: %w", err)
	}

	closed := 0
	for _, candidate := range idle {
		ok, err := s.closeIfExpired(ctx, candidate.ID)
		if err != nil {
			return closed, err
		}
		if ok {
			closed++
		}
	}
	return closed, nil
}

func (s *ChatService) closeIfExpired(ctx context.Context, sessionID string) (bool, error) {
	unlock := s.locks.lock(sessionID)
	defer unlock()

	// re-read under the lock: a request may have touched it meanwhile
	session, err := s.sessions.GetSession(ctx, sessionID)
	if errors.Is(err, store.ErrSessionNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("load session: %w", err)
	}
	if session.Status.IsTerminal() || !session.IsExpired(s.now(), s.timeout) {
		return false, nil
	}

	session.Close()
	if err := s.sessions.SaveSession(ctx, session); err != nil {
		return false, fmt.Errorf("close idle session: %w", err)
	}
	return true, nil
}

func (s *ChatService) admit(ctx context.Context, sessionID string) (*domain.Session, error) {
	session, err := s.guard.Admit(ctx, sessionID)
	if errors.Is(err, ErrSessionExpired) {
		slog.InfoContext(ctx, "session expired", slog.String("session_id", sessionID))
	}
	return session, err
}
