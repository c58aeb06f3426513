package store

import (
	"context"
	"sync"
	"time"

	"github.com/fjod/go_cart/chat-service/internal/domain"
)

// MemoryStore implements Store with in-memory storage
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*domain.Session    // sessionID -> session
	carts    map[string][]*domain.CartItem // sessionID -> items in insertion order
}

// NewMemoryStore creates a new in-memory session and cart store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*domain.Session),
		carts:    make(map[string][]*domain.CartItem),
	}
}

func (s *MemoryStore) CreateSession(_ context.Context, session *domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sessions[session.ID]; exists {
		return ErrSessionExists
	}
	cp := *session
	s.sessions[session.ID] = &cp
	return nil
}

func (s *MemoryStore) GetSession(_ context.Context, id string) (*domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, exists := s.sessions[id]
	if !exists {
		return nil, ErrSessionNotFound
	}
	cp := *session
	return &cp, nil
}

func (s *MemoryStore) SaveSession(_ context.Context, session *domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, exists := s.sessions[session.ID]
	if !exists {
		return ErrSessionNotFound
	}
	stored.Status = session.Status
	stored.LastActivity = session.LastActivity
	return nil
}

func (s *MemoryStore) IdleSessions(_ context.Context, cutoff time.Time) ([]domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var idle []domain.Session
	for _, session := range s.sessions {
		if session.Status == domain.SessionStatusOpen && session.LastActivity.Before(cutoff) {
			idle = append(idle, *session)
		}
	}
	return idle, nil
}

func (s *MemoryStore) GetOrCreateItem(_ context.Context, sessionID, sku string, initialQty int) (domain.CartItem, bool, error) {
	if initialQty <= 0 {
		return domain.CartItem{}, false, ErrInvalidQuantity
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, item := range s.carts[sessionID] {
		if item.SKU == sku {
			return *item, false, nil
		}
	}

	item := &domain.CartItem{
		SessionID: sessionID,
		SKU:       sku,
		Quantity:  initialQty,
		AddedAt:   time.Now(),
	}
	s.carts[sessionID] = append(s.carts[sessionID], item)
	return *item, true, nil
}

func (s *MemoryStore) IncrementItem(_ context.Context, item domain.CartItem, delta int) (domain.CartItem, error) {
	if delta <= 0 {
		return domain.CartItem{}, ErrInvalidQuantity
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, stored := range s.carts[item.SessionID] {
		if stored.SKU == item.SKU {
			stored.Quantity += delta
			return *stored, nil
		}
	}
	return domain.CartItem{}, ErrItemNotFound
}

func (s *MemoryStore) ListItems(_ context.Context, sessionID string) ([]domain.CartItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]domain.CartItem, 0, len(s.carts[sessionID]))
	for _, item := range s.carts[sessionID] {
		items = append(items, *item)
	}
	return items, nil
}

// Close is a no-op for the memory store
func (s *MemoryStore) Close() error {
	return nil
}
