package session

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/dipscan/internal/analytics"
	"github.com/wonny/dipscan/pkg/redis"
)

// RedisStore keeps sessions in Redis so API replicas can share them.
// Expiry is delegated to the key TTL.
type RedisStore struct {
	cache *redis.Cache
	ttl   time.Duration
}

// NewRedisStore creates a Redis-backed store
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{
		cache: redis.NewCache(client, "dipscan"),
		ttl:   ttl,
	}
}

// Create stores an analysis under a new ID
func (s *RedisStore) Create(ctx context.Context, analysis *analytics.Analysis) (*Session, error) {
	sess := newSession(analysis, time.Now().UTC(), s.ttl)

	if err := s.cache.Set(ctx, redis.SessionKey(sess.ID), sess, s.ttl); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}
	return sess, nil
}

// Get returns a live session
func (s *RedisStore) Get(ctx context.Context, id string) (*Session, error) {
	if !validID(id) {
		return nil, ErrNotFound
	}

	var sess Session
	found, err := s.cache.Get(ctx, redis.SessionKey(id), &sess)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if !found {
		return nil, ErrNotFound
	}
	return &sess, nil
}

// Delete removes a session
func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return ErrNotFound
	}

	deleted, err := s.cache.Delete(ctx, redis.SessionKey(id))
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if !deleted {
		return ErrNotFound
	}
	return nil
}
