// Package content implements the provider federation's shared
// content-seen cache: a process-wide set of (source, fingerprint) pairs
// with bounded age, used to suppress cross-provider duplicates in the
// search federation and AI-search enrichment.
package content

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cicosss/earlybird/internal/model"
)

// SeenCache is the interface the search federation and AI router depend on.
type SeenCache interface {
	IsSeen(content, source string) bool
	MarkSeen(content, source string)
}

// memorySeenCache is the default in-process implementation.
type memorySeenCache struct {
	mu  sync.Mutex
	ttl time.Duration
	m   map[string]time.Time
}

// NewMemory builds an in-process seen-cache with the given bounded age.
func NewMemory(ttl time.Duration) SeenCache {
	return &memorySeenCache{ttl: ttl, m: make(map[string]time.Time)}
}

func key(content, source string) string {
	return model.ContentFingerprint(content, source)
}

func (c *memorySeenCache) IsSeen(content, source string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	k := key(content, source)
	seenAt, ok := c.m[k]
	if !ok {
		return false
	}
	if c.ttl > 0 && time.Since(seenAt) > c.ttl {
		delete(c.m, k)
		return false
	}
	return true
}

func (c *memorySeenCache) MarkSeen(content, source string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[key(content, source)] = time.Now()
}

// redisSeenCache backs the seen-set with Redis so dedup survives process
// restarts and is shared across replicas.
type redisSeenCache struct {
	r   *redis.Client
	ttl time.Duration
}

func (c *redisSeenCache) IsSeen(content, source string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	n, err := c.r.Exists(ctx, "seen:"+key(content, source)).Result()
	return err == nil && n > 0
}

func (c *redisSeenCache) MarkSeen(content, source string) {
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	_ = c.r.Set(ctx, "seen:"+key(content, source), 1, c.ttl).Err()
}

// NewAuto picks a Redis-backed cache when REDIS_ADDR is set, else falls
// back to the in-process implementation.
func NewAuto(ttl time.Duration) SeenCache {
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		return &redisSeenCache{r: redis.NewClient(&redis.Options{Addr: addr}), ttl: ttl}
	}
	return NewMemory(ttl)
}
