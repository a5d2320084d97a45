package services

import (
	"context"
	"sync"
	"time"
)

type memorySession struct {
	ident    Identity
	lastSeen time.Time
}

// MemorySessionStore is an in-process SessionStore for tests and local runs
// without Redis. Same idle semantics: Resolve refreshes the deadline,
// ExpireIdleOlderThan sweeps everything idle since before the cutoff.
type MemorySessionStore struct {
	mu       sync.Mutex
	ttl      time.Duration
	sessions map[string]memorySession
	now      func() time.Time
}

// NewMemorySessionStore constructs a MemorySessionStore with the given idle TTL.
func NewMemorySessionStore(ttl time.Duration) *MemorySessionStore {
	return &MemorySessionStore{
		ttl:      ttl,
		sessions: make(map[string]memorySession),
		now:      time.Now,
	}
}

func (s *MemorySessionStore) Create(ctx context.Context, ident Identity) (string, error) {
	token, err := newSessionToken()
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	if ident.CreatedAt.IsZero() {
		ident.CreatedAt = now
	}
	s.sessions[token] = memorySession{ident: ident, lastSeen: now}
	return token, nil
}

func (s *MemorySessionStore) Resolve(ctx context.Context, token string) (Identity, bool, error) {
	if token == "" {
		return Identity{}, false, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[token]
	if !ok {
		return Identity{}, false, nil
	}

	now := s.now()
	if now.Sub(sess.lastSeen) > s.ttl {
		delete(s.sessions, token)
		return Identity{}, false, nil
	}

	sess.lastSeen = now
	s.sessions[token] = sess
	return sess.ident, true, nil
}

func (s *MemorySessionStore) Destroy(ctx context.Context, token string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[token]; !ok {
		return false, nil
	}
	delete(s.sessions, token)
	return true, nil
}

func (s *MemorySessionStore) ExpireIdleOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for token, sess := range s.sessions {
		if sess.lastSeen.Before(cutoff) {
			delete(s.sessions, token)
			removed++
		}
	}
	return removed, nil
}
