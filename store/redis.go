package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rushteam/shoprec/core"
)

// RedisVectorCache 是基于 Redis 的用户向量缓存实现。
//
// 向量以 JSON 数组存储，key 为 {prefix}{userID}，写入带 TTL。
// 缓存只是性能优化，Redis 故障时调用方回退到重算。
//
// 确保实现了 core.VectorCache 接口
var _ core.VectorCache = (*RedisVectorCache)(nil)

type RedisVectorCache struct {
	client *redis.Client

	// keyPrefix 缓存 key 前缀
	keyPrefix string

	// defaultTTL 默认过期时间（秒），SetUserVector 未指定 TTL 时使用
	defaultTTL int
}

// RedisCacheOption 配置选项
type RedisCacheOption func(*redisCacheOptions)

type redisCacheOptions struct {
	password   string
	db         int
	keyPrefix  string
	defaultTTL int
	client     *redis.Client
}

// WithRedisPassword 设置 Redis 密码
func WithRedisPassword(password string) RedisCacheOption {
	return func(o *redisCacheOptions) { o.password = password }
}

// WithRedisDB 设置 Redis 数据库编号
func WithRedisDB(db int) RedisCacheOption {
	return func(o *redisCacheOptions) { o.db = db }
}

// WithRedisKeyPrefix 设置缓存 key 前缀
func WithRedisKeyPrefix(prefix string) RedisCacheOption {
	return func(o *redisCacheOptions) { o.keyPrefix = prefix }
}

// WithRedisDefaultTTL 设置默认过期时间（秒）
func WithRedisDefaultTTL(seconds int) RedisCacheOption {
	return func(o *redisCacheOptions) { o.defaultTTL = seconds }
}

// WithRedisClient 直接注入已有的 Redis 客户端（连接池共享场景）
func WithRedisClient(client *redis.Client) RedisCacheOption {
	return func(o *redisCacheOptions) { o.client = client }
}

// NewRedisVectorCache 创建 Redis 用户向量缓存，并验证连通性。
func NewRedisVectorCache(ctx context.Context, addr string, opts ...RedisCacheOption) (*RedisVectorCache, error) {
	options := &redisCacheOptions{
		keyPrefix:  "user_vector:",
		defaultTTL: 600,
	}
	for _, opt := range opts {
		opt(options)
	}

	client := options.client
	if client == nil {
		client = redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: options.password,
			DB:       options.db,
		})
	}

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis %s: %w", addr, err)
	}

	return &RedisVectorCache{
		client:     client,
		keyPrefix:  options.keyPrefix,
		defaultTTL: options.defaultTTL,
	}, nil
}

func (c *RedisVectorCache) key(userID int64) string {
	return fmt.Sprintf("%s%d", c.keyPrefix, userID)
}

// GetUserVector 读取缓存的用户向量，不存在返回 core.ErrCacheMiss。
func (c *RedisVectorCache) GetUserVector(ctx context.Context, userID int64) ([]float64, error) {
	data, err := c.client.Get(ctx, c.key(userID)).Bytes()
	if err == redis.Nil {
		return nil, core.ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("get user vector from redis: %w", err)
	}

	var vector []float64
	if err := json.Unmarshal(data, &vector); err != nil {
		// 脏数据按未命中处理，等下一次写入覆盖
		return nil, core.ErrCacheMiss
	}
	return vector, nil
}

// SetUserVector 写入用户向量，ttlSeconds <= 0 时使用默认 TTL。
func (c *RedisVectorCache) SetUserVector(ctx context.Context, userID int64, vector []float64, ttlSeconds int) error {
	if len(vector) == 0 {
		return nil
	}
	data, err := json.Marshal(vector)
	if err != nil {
		return fmt.Errorf("marshal user vector: %w", err)
	}

	ttl := ttlSeconds
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	expire := time.Duration(ttl) * time.Second
	if err := c.client.Set(ctx, c.key(userID), data, expire).Err(); err != nil {
		return fmt.Errorf("set user vector to redis: %w", err)
	}
	return nil
}

// DeleteUserVector 删除缓存的用户向量。
func (c *RedisVectorCache) DeleteUserVector(ctx context.Context, userID int64) error {
	if err := c.client.Del(ctx, c.key(userID)).Err(); err != nil {
		return fmt.Errorf("delete user vector from redis: %w", err)
	}
	return nil
}

// Close 关闭 Redis 连接。
func (c *RedisVectorCache) Close() error {
	return c.client.Close()
}
