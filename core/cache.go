package core

import "context"

// VectorCache 是用户向量缓存的领域接口。
//
// 缓存只是性能优化：向量按请求重算，缓存丢失只影响重算成本，
// 永远不影响正确性。写入带 TTL，同一 userID 的写入是幂等覆盖
// （last-writer-wins），不存在读改写竞争。
//
// 实现：
//   - store.RedisVectorCache（生产）
//   - store.MemoryVectorCache（测试/原型）
type VectorCache interface {
	// GetUserVector 读取缓存的用户向量，不存在返回 ErrCacheMiss
	GetUserVector(ctx context.Context, userID int64) ([]float64, error)

	// SetUserVector 写入用户向量，ttlSeconds <= 0 时使用实现默认值
	SetUserVector(ctx context.Context, userID int64, vector []float64, ttlSeconds int) error

	// DeleteUserVector 显式失效（通常依赖 TTL 过期，此操作仅为完整性暴露）
	DeleteUserVector(ctx context.Context, userID int64) error

	// Close 关闭连接/释放资源
	Close() error
}

// ErrCacheMiss 表示用户向量不在缓存中
var ErrCacheMiss = NewDomainError(ModuleStore, ErrorCodeNotFound, "cache: user vector not found")

// IsCacheMiss 检查错误是否为缓存未命中
func IsCacheMiss(err error) bool {
	if err == nil {
		return false
	}
	domainErr := GetDomainError(err)
	return domainErr != nil && domainErr.Module == ModuleStore && domainErr.Code == ErrorCodeNotFound
}
