package store

import (
	"context"
	"errors"
	"time"

	"github.com/fjod/go_cart/chat-service/internal/domain"
)

// Common errors returned by the store
var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExists   = errors.New("session already exists")
	ErrItemNotFound    = errors.New("cart item not found")
	ErrInvalidQuantity = errors.New("quantity must be positive")
)

// SessionStore keeps chat sessions keyed by id.
type SessionStore interface {
	// CreateSession stores a new session. Fails with ErrSessionExists on id reuse.
	CreateSession(ctx context.Context, s *domain.Session) error

	// GetSession returns a copy of the session, whatever its status.
	GetSession(ctx context.Context, id string) (*domain.Session, error)

	// SaveSession persists status and last activity of an existing session.
	SaveSession(ctx context.Context, s *domain.Session) error

	// IdleSessions lists open sessions whose last activity is before cutoff.
	IdleSessions(ctx context.Context, cutoff time.Time) ([]domain.Session, error)
}

// CartStore keeps cart items keyed by (session, sku).
type CartStore interface {
	// GetOrCreateItem returns the existing item for (sessionID, sku), or creates it
	// with initialQty. created reports which of the two happened.
	GetOrCreateItem(ctx context.Context, sessionID, sku string, initialQty int) (item domain.CartItem, created bool, err error)

	// IncrementItem adds delta to an existing item and returns the updated item.
	IncrementItem(ctx context.Context, item domain.CartItem, delta int) (domain.CartItem, error)

	// ListItems returns the session's items in the order they were first added.
	ListItems(ctx context.Context, sessionID string) ([]domain.CartItem, error)
}

// Store is a durable backend for both sessions and carts.
type Store interface {
	SessionStore
	CartStore

	// Close releases connections held by the backend
	Close() error
}
