package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// 仅删除仍由本次持有的键
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisGuard 基于 SETNX 的互斥键，值为每次获取的令牌
type RedisGuard struct {
	client *redis.Client
}

func NewRedisGuard(client *redis.Client) *RedisGuard {
	return &RedisGuard{client: client}
}

func (g *RedisGuard) Acquire(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	token := uuid.New().String()
	ok, err := g.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil || !ok {
		return "", false, err
	}
	return token, true, nil
}

func (g *RedisGuard) Release(ctx context.Context, key, token string) error {
	return releaseScript.Run(ctx, g.client, []string{key}, token).Err()
}

type memoryLock struct {
	token   string
	expires time.Time
}

// MemoryGuard 单实例部署时的进程内互斥键
type MemoryGuard struct {
	mu   sync.Mutex
	keys map[string]memoryLock
}

func NewMemoryGuard() *MemoryGuard {
	return &MemoryGuard{keys: make(map[string]memoryLock)}
}

func (g *MemoryGuard) Acquire(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if l, ok := g.keys[key]; ok && time.Now().Before(l.expires) {
		return "", false, nil
	}
	token := uuid.New().String()
	g.keys[key] = memoryLock{token: token, expires: time.Now().Add(ttl)}
	return token, true, nil
}

func (g *MemoryGuard) Release(ctx context.Context, key, token string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if l, ok := g.keys[key]; ok && l.token == token {
		delete(g.keys, key)
	}
	return nil
}

func synthesisKey(rfqID string) string {
	return "synth:" + rfqID + ":accepted"
}
