package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/wonny/dipscan/internal/analytics"
	"github.com/wonny/dipscan/pkg/redis"
)

// ErrNotFound is returned for unknown or expired sessions
var ErrNotFound = errors.New("session not found")

// Session is one uploaded analysis kept for follow-up view requests
type Session struct {
	ID        string              `json:"id"`
	CreatedAt time.Time           `json:"created_at"`
	ExpiresAt time.Time           `json:"expires_at"`
	Analysis  *analytics.Analysis `json:"analysis"`
}

// Store keeps sessions between requests. Stored analyses are never mutated.
type Store interface {
	Create(ctx context.Context, analysis *analytics.Analysis) (*Session, error)
	Get(ctx context.Context, id string) (*Session, error)
	Delete(ctx context.Context, id string) error
}

// New returns a Redis-backed store when Redis is enabled, else an in-memory one
func New(client *redis.Client, ttl time.Duration) Store {
	if client != nil && client.Enabled() {
		return NewRedisStore(client, ttl)
	}
	return NewMemoryStore(ttl)
}

func newSession(analysis *analytics.Analysis, now time.Time, ttl time.Duration) *Session {
	return &Session{
		ID:        uuid.NewString(),
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
		Analysis:  analysis,
	}
}

// validID rejects anything that is not a UUID before touching storage
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
