package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/lexlab-ai/funnel/internal/adapter"
	"github.com/lexlab-ai/funnel/internal/domain"
)

// Store persists admin sessions until they expire
type Store interface {
	Save(ctx context.Context, s *Session) error
	// Get returns domain.ErrSessionNotFound for unknown or expired sessions
	Get(ctx context.Context, id string) (*Session, error)
	Delete(ctx context.Context, id string) error
}

type memoryStore struct {
	mu       sync.Mutex
	sessions map[string]Session
	clock    adapter.Clock
}

// NewMemoryStore creates a process-local session store
func NewMemoryStore(clock adapter.Clock) Store {
	return &memoryStore{sessions: make(map[string]Session), clock: clock}
}

func (m *memoryStore) Save(_ context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock.Now()
	for id, existing := range m.sessions {
		if !now.Before(existing.ExpiresAt) {
			delete(m.sessions, id)
		}
	}
	m.sessions[s.ID] = *s
	return nil
}

func (m *memoryStore) Get(_ context.Context, id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok || !m.clock.Now().Before(s.ExpiresAt) {
		return nil, domain.ErrSessionNotFound
	}
	return &s, nil
}

func (m *memoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, id)
	return nil
}

type redisStore struct {
	client    adapter.RedisClient
	keyPrefix string
	clock     adapter.Clock
}

// NewRedisStore creates a session store shared by all API instances.
// Keys expire in Redis together with the session.
func NewRedisStore(client adapter.RedisClient, keyPrefix string, clock adapter.Clock) Store {
	return &redisStore{client: client, keyPrefix: keyPrefix, clock: clock}
}

func (r *redisStore) Save(ctx context.Context, s *Session) error {
	ttl := s.ExpiresAt.Sub(r.clock.Now())
	if ttl <= 0 {
		return fmt.Errorf("session %s already expired", s.ID)
	}

	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	if err := r.client.Set(ctx, r.keyPrefix+s.ID, data, ttl); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (r *redisStore) Get(ctx context.Context, id string) (*Session, error) {
	data, err := r.client.Get(ctx, r.keyPrefix+id)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	if !r.clock.Now().Before(s.ExpiresAt) {
		return nil, domain.ErrSessionNotFound
	}
	return &s, nil
}

func (r *redisStore) Delete(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, r.keyPrefix+id); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
