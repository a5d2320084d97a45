package services

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// SessionKeyPrefix is the Redis key prefix for sessions
	SessionKeyPrefix = "session:"
)

// Identity is the snapshot bound to a session at login time. The token that
// references it is the only thing the client ever holds.
type Identity struct {
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

// SessionStore maps opaque tokens to identity snapshots. Sessions expire on
// idle; resolving one pushes its deadline out again. Each Create mints an
// independent session, so one user may hold several at once.
type SessionStore interface {
	Create(ctx context.Context, ident Identity) (string, error)
	Resolve(ctx context.Context, token string) (Identity, bool, error)
	Destroy(ctx context.Context, token string) (bool, error)
	ExpireIdleOlderThan(ctx context.Context, cutoff time.Time) (int, error)
}

// RedisSessionStore is the production SessionStore.
type RedisSessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisSessionStore constructs a RedisSessionStore with the given idle TTL.
func NewRedisSessionStore(client *redis.Client, ttl time.Duration) *RedisSessionStore {
	return &RedisSessionStore{client: client, ttl: ttl}
}

// newSessionToken generates a secure session token.
func newSessionToken() (string, error) {
	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(tokenBytes), nil
}

func (s *RedisSessionStore) Create(ctx context.Context, ident Identity) (string, error) {
	token, err := newSessionToken()
	if err != nil {
		return "", err
	}

	if ident.CreatedAt.IsZero() {
		ident.CreatedAt = time.Now()
	}
	payload, err := json.Marshal(ident)
	if err != nil {
		return "", err
	}

	if err := s.client.Set(ctx, SessionKeyPrefix+token, payload, s.ttl).Err(); err != nil {
		return "", err
	}
	return token, nil
}

func (s *RedisSessionStore) Resolve(ctx context.Context, token string) (Identity, bool, error) {
	if token == "" {
		return Identity{}, false, nil
	}

	payload, err := s.client.Get(ctx, SessionKeyPrefix+token).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Identity{}, false, nil
		}
		return Identity{}, false, err
	}

	var ident Identity
	if err := json.Unmarshal(payload, &ident); err != nil {
		return Identity{}, false, err
	}

	// Rolling idle window: each resolve pushes the deadline out again
	if err := s.client.Expire(ctx, SessionKeyPrefix+token, s.ttl).Err(); err != nil {
		return Identity{}, false, err
	}

	return ident, true, nil
}

func (s *RedisSessionStore) Destroy(ctx context.Context, token string) (bool, error) {
	if token == "" {
		return false, nil
	}
	deleted, err := s.client.Del(ctx, SessionKeyPrefix+token).Result()
	if err != nil {
		return false, err
	}
	return deleted > 0, nil
}

// ExpireIdleOlderThan is a no-op for Redis: the server evicts idle sessions
// itself once their TTL runs out.
func (s *RedisSessionStore) ExpireIdleOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	return 0, nil
}
