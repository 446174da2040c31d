package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"

	"trading-journal/apperr"
)

// RefreshStore keeps the ids of refresh tokens that have not been revoked.
type RefreshStore interface {
	Save(ctx context.Context, id string, userID uint, ttl time.Duration) error
	// Lookup returns ErrAuthenticationRequired for unknown or expired ids.
	Lookup(ctx context.Context, id string) (uint, error)
	Delete(ctx context.Context, id string) error
}

type RedisStore struct {
	Client *redis.Client
}

func NewRedisStore(opt *redis.Options) *RedisStore {
	return &RedisStore{Client: redis.NewClient(opt)}
}

func refreshKey(id string) string {
	return "refresh:" + id
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.Client.Ping(ctx).Err()
}

func (s *RedisStore) Close() error {
	return s.Client.Close()
}

func (s *RedisStore) Save(ctx context.Context, id string, userID uint, ttl time.Duration) error {
	return s.Client.Set(ctx, refreshKey(id), userID, ttl).Err()
}

func (s *RedisStore) Lookup(ctx context.Context, id string) (uint, error) {
	v, err := s.Client.Get(ctx, refreshKey(id)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, fmt.Errorf("%w: %w", apperr.ErrAuthenticationRequired, ErrTokenRevoked)
	}
	if err != nil {
		return 0, err
	}
	userID, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("refresh token %s: %w", id, err)
	}
	return uint(userID), nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	return s.Client.Del(ctx, refreshKey(id)).Err()
}

// MemoryStore is used when no redis address is configured. Tokens do not
// survive a restart.
type MemoryStore struct {
	mu     sync.Mutex
	tokens map[string]memoryToken
	now    func() time.Time
}

type memoryToken struct {
	userID  uint
	expires time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tokens: map[string]memoryToken{}, now: time.Now}
}

func (s *MemoryStore) Save(_ context.Context, id string, userID uint, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for k, t := range s.tokens {
		if now.After(t.expires) {
			delete(s.tokens, k)
		}
	}
	s.tokens[id] = memoryToken{userID: userID, expires: now.Add(ttl)}
	return nil
}

func (s *MemoryStore) Lookup(_ context.Context, id string) (uint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tokens[id]
	if !ok || s.now().After(t.expires) {
		return 0, fmt.Errorf("%w: %w", apperr.ErrAuthenticationRequired, ErrTokenRevoked)
	}
	return t.userID, nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, id)
	return nil
}
