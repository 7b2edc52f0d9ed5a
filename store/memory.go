package store

import (
	"context"
	"sync"
	"time"

	"github.com/rushteam/shoprec/core"
)

// MemoryVectorCache 是内存实现的用户向量缓存，用于测试和原型。
//
// 确保实现了 core.VectorCache 接口
var _ core.VectorCache = (*MemoryVectorCache)(nil)

type memoryCacheEntry struct {
	vector   []float64
	expireAt time.Time
}

type MemoryVectorCache struct {
	mu      sync.RWMutex
	entries map[int64]memoryCacheEntry

	// defaultTTL 默认过期时间（秒）
	defaultTTL int

	// now 可注入时钟，便于测试过期逻辑
	now func() time.Time
}

// NewMemoryVectorCache 创建内存用户向量缓存。
func NewMemoryVectorCache(defaultTTLSeconds int) *MemoryVectorCache {
	if defaultTTLSeconds <= 0 {
		defaultTTLSeconds = 600
	}
	return &MemoryVectorCache{
		entries:    make(map[int64]memoryCacheEntry),
		defaultTTL: defaultTTLSeconds,
		now:        time.Now,
	}
}

func (c *MemoryVectorCache) GetUserVector(_ context.Context, userID int64) ([]float64, error) {
	c.mu.RLock()
	entry, ok := c.entries[userID]
	c.mu.RUnlock()

	if !ok || c.now().After(entry.expireAt) {
		return nil, core.ErrCacheMiss
	}

	out := make([]float64, len(entry.vector))
	copy(out, entry.vector)
	return out, nil
}

func (c *MemoryVectorCache) SetUserVector(_ context.Context, userID int64, vector []float64, ttlSeconds int) error {
	if len(vector) == 0 {
		return nil
	}
	ttl := ttlSeconds
	if ttl <= 0 {
		ttl = c.defaultTTL
	}

	stored := make([]float64, len(vector))
	copy(stored, vector)

	c.mu.Lock()
	c.entries[userID] = memoryCacheEntry{
		vector:   stored,
		expireAt: c.now().Add(time.Duration(ttl) * time.Second),
	}
	c.mu.Unlock()
	return nil
}

func (c *MemoryVectorCache) DeleteUserVector(_ context.Context, userID int64) error {
	c.mu.Lock()
	delete(c.entries, userID)
	c.mu.Unlock()
	return nil
}

func (c *MemoryVectorCache) Close() error {
	c.mu.Lock()
	c.entries = make(map[int64]memoryCacheEntry)
	c.mu.Unlock()
	return nil
}
