package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/fjod/go_cart/chat-service/internal/domain"
	"github.com/redis/go-redis/v9"
)

const openSessionsKey = "sessions:open"

// RedisStore implements Store on top of a Redis server.
//
// Layout:
//
//	session:<id>        JSON encoded domain.Session
//	sessions:open       sorted set of open session ids scored by last activity (unix ms)
//	cart:<id>           hash sku -> quantity
//	cart:<id>:added     hash sku -> added at (unix ns)
//	cart:<id>:order     list of skus in insertion order
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (r *RedisStore) CreateSession(ctx context.Context, s *domain.Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal session failed: %w", err)
	}

	ok, err := r.client.SetNX(ctx, sessionKey(s.ID), data, 0).Result()
	if err != nil {
		return fmt.Errorf("redis setnx failed: %w", err)
	}
	if !ok {
		return ErrSessionExists
	}

	if s.Status == domain.SessionStatusOpen {
		if err := r.client.ZAdd(ctx, openSessionsKey, openMember(s)).Err(); err != nil {
			return fmt.Errorf("redis zadd failed: %w", err)
		}
	}
	return nil
}

func (r *RedisStore) GetSession(ctx context.Context, id string) (*domain.Session, error) {
	data, err := r.client.Get(ctx, sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var s domain.Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("unmarshal session failed: %w", err)
	}
	return &s, nil
}

func (r *RedisStore) SaveSession(ctx context.Context, s *domain.Session) error {
	existing, err := r.GetSession(ctx, s.ID)
	if err != nil {
		return err
	}
	existing.Status = s.Status
	existing.LastActivity = s.LastActivity

	data, err := json.Marshal(existing)
	if err != nil {
		return fmt.Errorf("marshal session failed: %w", err)
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, sessionKey(s.ID), data, 0)
		if existing.Status == domain.SessionStatusOpen {
			pipe.ZAdd(ctx, openSessionsKey, openMember(existing))
		} else {
			pipe.ZRem(ctx, openSessionsKey, existing.ID)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis save session failed: %w", err)
	}
	return nil
}

func (r *RedisStore) IdleSessions(ctx context.Context, cutoff time.Time) ([]domain.Session, error) {
	ids, err := r.client.ZRangeByScore(ctx, openSessionsKey, &redis.ZRangeBy{
		Min: "-inf",
		Max: "(" + strconv.FormatInt(cutoff.UnixMilli(), 10),
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("redis zrangebyscore failed: %w", err)
	}

	idle := make([]domain.Session, 0, len(ids))
	for _, id := range ids {
		s, err := r.GetSession(ctx, id)
		if errors.Is(err, ErrSessionNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if s.Status == domain.SessionStatusOpen && s.LastActivity.Before(cutoff) {
			idle = append(idle, *s)
		}
	}
	return idle, nil
}

func (r *RedisStore) GetOrCreateItem(ctx context.Context, sessionID, sku string, initialQty int) (domain.CartItem, bool, error) {
	if initialQty <= 0 {
		return domain.CartItem{}, false, ErrInvalidQuantity
	}

	created, err := r.client.HSetNX(ctx, cartKey(sessionID), sku, initialQty).Result()
	if err != nil {
		return domain.CartItem{}, false, fmt.Errorf("redis hsetnx failed: %w", err)
	}

	if created {
		now := time.Now()
		_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, cartAddedKey(sessionID), sku, now.UnixNano())
			pipe.RPush(ctx, cartOrderKey(sessionID), sku)
			return nil
		})
		if err != nil {
			return domain.CartItem{}, false, fmt.Errorf("redis cart index failed: %w", err)
		}
		return domain.CartItem{SessionID: sessionID, SKU: sku, Quantity: initialQty, AddedAt: now}, true, nil
	}

	item, err := r.getItem(ctx, sessionID, sku)
	if err != nil {
		return domain.CartItem{}, false, err
	}
	return item, false, nil
}

func (r *RedisStore) IncrementItem(ctx context.Context, item domain.CartItem, delta int) (domain.CartItem, error) {
	if delta <= 0 {
		return domain.CartItem{}, ErrInvalidQuantity
	}

	exists, err := r.client.HExists(ctx, cartKey(item.SessionID), item.SKU).Result()
	if err != nil {
		return domain.CartItem{}, fmt.Errorf("redis hexists failed: %w", err)
	}
	if !exists {
		return domain.CartItem{}, ErrItemNotFound
	}

	qty, err := r.client.HIncrBy(ctx, cartKey(item.SessionID), item.SKU, int64(delta)).Result()
	if err != nil {
		return domain.CartItem{}, fmt.Errorf("redis hincrby failed: %w", err)
	}
	item.Quantity = int(qty)
	return item, nil
}

func (r *RedisStore) ListItems(ctx context.Context, sessionID string) ([]domain.CartItem, error) {
	skus, err := r.client.LRange(ctx, cartOrderKey(sessionID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis lrange failed: %w", err)
	}
	if len(skus) == 0 {
		return []domain.CartItem{}, nil
	}

	quantities, err := r.client.HMGet(ctx, cartKey(sessionID), skus...).Result()
	if err != nil {
		return nil, fmt.Errorf("redis hmget failed: %w", err)
	}
	added, err := r.client.HMGet(ctx, cartAddedKey(sessionID), skus...).Result()
	if err != nil {
		return nil, fmt.Errorf("redis hmget failed: %w", err)
	}

	items := make([]domain.CartItem, 0, len(skus))
	for i, sku := range skus {
		qty, ok := parseInt(quantities[i])
		if !ok {
			continue
		}
		item := domain.CartItem{SessionID: sessionID, SKU: sku, Quantity: int(qty)}
		if ns, ok := parseInt(added[i]); ok {
			item.AddedAt = time.Unix(0, ns)
		}
		items = append(items, item)
	}
	return items, nil
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}

func (r *RedisStore) getItem(ctx context.Context, sessionID, sku string) (domain.CartItem, error) {
	qty, err := r.client.HGet(ctx, cartKey(sessionID), sku).Int64()
	if errors.Is(err, redis.Nil) {
		return domain.CartItem{}, ErrItemNotFound
	}
	if err != nil {
		return domain.CartItem{}, fmt.Errorf("redis hget failed: %w", err)
	}

	item := domain.CartItem{SessionID: sessionID, SKU: sku, Quantity: int(qty)}
	if ns, err := r.client.HGet(ctx, cartAddedKey(sessionID), sku).Int64(); err == nil {
		item.AddedAt = time.Unix(0, ns)
	}
	return item, nil
}

func parseInt(v interface{}) (int64, bool) {
	s, ok := v.(string)
	if !ok {
		return 0, false
	}
	n, err := strconv.ParseInt(s, 10, 64)
	return n, err == nil
}

func openMember(s *domain.Session) redis.Z {
	return redis.Z{Score: float64(s.LastActivity.UnixMilli()), Member: s.ID}
}

func sessionKey(id string) string {
	return fmt.Sprintf("session:%s", id)
}

func cartKey(sessionID string) string {
	return fmt.Sprintf("cart:%s", sessionID)
}

func cartAddedKey(sessionID string) string {
	return fmt.Sprintf("cart:%s:added", sessionID)
}

func cartOrderKey(sessionID string) string {
	return fmt.Sprintf("cart:%s:order", sessionID)
}
