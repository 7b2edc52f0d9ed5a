package filter

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/redis/go-redis/v9"
)

// RedisBloomChecker 是基于 Redis + bits-and-blooms/bloom 的布隆过滤器检查器。
// 序列化后的布隆过滤器按天分桶存在 Redis，进程内缓存反序列化结果，
// 避免每个候选都读一次 Redis。
//
// 确保实现了 BloomChecker 接口
var _ BloomChecker = (*RedisBloomChecker)(nil)

type RedisBloomChecker struct {
	client *redis.Client

	// capacity 预期容量（元素数量）
	capacity uint
	// falsePositiveRate 期望的误判率（例如 0.01 表示 1%）
	falsePositiveRate float64

	// 本地缓存，避免频繁从 Redis 读取和反序列化
	cache map[string]*bloom.BloomFilter
	mu    sync.RWMutex
}

// NewRedisBloomChecker 创建布隆过滤器检查器。
func NewRedisBloomChecker(client *redis.Client, capacity uint, falsePositiveRate float64) *RedisBloomChecker {
	return &RedisBloomChecker{
		client:            client,
		capacity:          capacity,
		falsePositiveRate: falsePositiveRate,
		cache:             make(map[string]*bloom.BloomFilter),
	}
}

// CheckInBloomFilter 检查 productID 是否在指定 key 的布隆过滤器中。
// true 表示可能在（存在误判可能），false 表示一定不在。
func (r *RedisBloomChecker) CheckInBloomFilter(ctx context.Context, key string, productID int64) (bool, error) {
	member := []byte(strconv.FormatInt(productID, 10))

	r.mu.RLock()
	cached, exists := r.cache[key]
	r.mu.RUnlock()
	if exists && cached != nil {
		return cached.Test(member), nil
	}

	data, err := r.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		// 过滤器不存在，表示一定不在
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get bloom filter from redis: %w", err)
	}

	bf := bloom.NewWithEstimates(r.capacity, r.falsePositiveRate)
	if _, err := bf.ReadFrom(bytes.NewReader(data)); err != nil {
		return false, fmt.Errorf("deserialize bloom filter: %w", err)
	}

	r.mu.Lock()
	r.cache[key] = bf
	r.mu.Unlock()

	return bf.Test(member), nil
}

// AddToBloomFilter 将 productID 写入指定 key 的布隆过滤器。
// 用于曝光数据收集侧，ttl 为过期时间（秒），0 表示不过期。
func (r *RedisBloomChecker) AddToBloomFilter(ctx context.Context, key string, productID int64, ttl int) error {
	member := []byte(strconv.FormatInt(productID, 10))

	r.mu.RLock()
	cached, exists := r.cache[key]
	r.mu.RUnlock()

	var bf *bloom.BloomFilter
	if exists && cached != nil {
		bf = cached
	} else {
		data, err := r.client.Get(ctx, key).Bytes()
		switch {
		case err == redis.Nil:
			bf = bloom.NewWithEstimates(r.capacity, r.falsePositiveRate)
		case err != nil:
			return fmt.Errorf("get bloom filter from redis: %w", err)
		default:
			bf = bloom.NewWithEstimates(r.capacity, r.falsePositiveRate)
			if _, err := bf.ReadFrom(bytes.NewReader(data)); err != nil {
				return fmt.Errorf("deserialize bloom filter: %w", err)
			}
		}
	}

	bf.Add(member)

	var buf bytes.Buffer
	if _, err := bf.WriteTo(&buf); err != nil {
		return fmt.Errorf("serialize bloom filter: %w", err)
	}

	var expire time.Duration
	if ttl > 0 {
		expire = time.Duration(ttl) * time.Second
	}
	if err := r.client.Set(ctx, key, buf.Bytes(), expire).Err(); err != nil {
		return fmt.Errorf("write bloom filter to redis: %w", err)
	}

	r.mu.Lock()
	r.cache[key] = bf
	r.mu.Unlock()
	return nil
}
