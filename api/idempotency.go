package api

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	dedupeNamespace = "study-planner"
	dedupeKeyPrefix = "idem"
)

// RedisDeduper stores idempotency keys in Redis so every instance sees the
// same claims.
type RedisDeduper struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisDeduper creates a deduper using the provided Redis client and TTL.
func NewRedisDeduper(client *redis.Client, ttl time.Duration) *RedisDeduper {
	return &RedisDeduper{client: client, ttl: ttl}
}

func (r *RedisDeduper) key(key string) string {
	return fmt.Sprintf("%s:%s:%s", dedupeNamespace, dedupeKeyPrefix, key)
}

// Claim records the key with an empty value if it does not already exist.
func (r *RedisDeduper) Claim(ctx context.Context, key string) (bool, error) {
	return r.client.SetNX(ctx, r.key(key), "", r.ttl).Result()
}

// Resolve stores the created activity id under an existing claim, keeping its TTL.
func (r *RedisDeduper) Resolve(ctx context.Context, key, activityID string) error {
	ok, err := r.client.SetXX(ctx, r.key(key), activityID, redis.KeepTTL).Result()
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("idempotency key %q expired before resolve", key)
	}
	return nil
}

// Lookup returns the activity id bound to key. A missing key reads as pending.
func (r *RedisDeduper) Lookup(ctx context.Context, key string) (string, error) {
	val, err := r.client.Get(ctx, r.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return val, err
}

// Remove deletes a claim, pending or resolved.
func (r *RedisDeduper) Remove(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.key(key)).Err()
}

type memoryClaim struct {
	activityID string
	expiresAt  time.Time
}

// MemoryDeduper keeps idempotency keys in process memory.
type MemoryDeduper struct {
	mu     sync.Mutex
	claims map[string]memoryClaim
	ttl    time.Duration
	now    func() time.Time
}

// NewMemoryDeduper creates an in-process deduper whose claims expire after ttl.
func NewMemoryDeduper(ttl time.Duration) *MemoryDeduper {
	return &MemoryDeduper{claims: make(map[string]memoryClaim), ttl: ttl, now: time.Now}
}

func (m *MemoryDeduper) Claim(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	if c, ok := m.claims[key]; ok && now.Before(c.expiresAt) {
		return false, nil
	}
	m.claims[key] = memoryClaim{expiresAt: now.Add(m.ttl)}
	m.sweep(now)
	return true, nil
}

func (m *MemoryDeduper) Resolve(_ context.Context, key, activityID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.claims[key]
	if !ok || !m.now().Before(c.expiresAt) {
		return fmt.Errorf("idempotency key %q expired before resolve", key)
	}
	c.activityID = activityID
	m.claims[key] = c
	return nil
}

func (m *MemoryDeduper) Lookup(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.claims[key]
	if !ok || !m.now().Before(c.expiresAt) {
		return "", nil
	}
	return c.activityID, nil
}

func (m *MemoryDeduper) Remove(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.claims, key)
	m.mu.Unlock()
	return nil
}

// sweep drops expired claims; mu must be held.
func (m *MemoryDeduper) sweep(now time.Time) {
	for k, c := range m.claims {
		if !now.Before(c.expiresAt) {
			delete(m.claims, k)
		}
	}
}
