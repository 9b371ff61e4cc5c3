package auth

import (
	"context"
	"errors"
	"sync"

	"github.com/go-redis/redis/v8"
)

var ErrTokenRevoked = errors.New("token has been revoked")

// Revoker tracks session tokens that must be rejected despite still
// being within their validity window. Entries stay until Clear runs;
// there is no expiry-based eviction.
type Revoker interface {
	Revoke(ctx context.Context, token string) error
	IsRevoked(ctx context.Context, token string) (bool, error)
	Clear(ctx context.Context) error
}

// MemoryRevoker is a process-local mutex-guarded set. Revocations are
// visible only on the instance that performed them.
type MemoryRevoker struct {
	mu     sync.RWMutex
	tokens map[string]struct{}
}

func NewMemoryRevoker() *MemoryRevoker {
	return &MemoryRevoker{tokens: make(map[string]struct{})}
}

func (r *MemoryRevoker) Revoke(_ context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokens[token] = struct{}{}
	return nil
}

func (r *MemoryRevoker) IsRevoked(_ context.Context, token string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, revoked := r.tokens[token]
	return revoked, nil
}

func (r *MemoryRevoker) Clear(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokens = make(map[string]struct{})
	return nil
}

const redisRevocationKey = "session:revoked-tokens"

// RedisRevoker shares the revocation set across relay instances
// through a single Redis set.
type RedisRevoker struct {
	redisClient *redis.Client
}

func NewRedisRevoker(redisClient *redis.Client) *RedisRevoker {
	return &RedisRevoker{redisClient: redisClient}
}

func (r *RedisRevoker) Revoke(ctx context.Context, token string) error {
	return r.redisClient.SAdd(ctx, redisRevocationKey, token).Err()
}

func (r *RedisRevoker) IsRevoked(ctx context.Context, token string) (bool, error) {
	return r.redisClient.SIsMember(ctx, redisRevocationKey, token).Result()
}

func (r *RedisRevoker) Clear(ctx context.Context) error {
	return r.redisClient.Del(ctx, redisRevocationKey).Err()
}
