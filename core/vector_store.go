package core

import "context"

// VectorStore 是商品向量索引的领域接口。
//
// 设计原则：
//   - 定义在领域层（core），由基础设施层（vector / store）实现
//   - 索引的构建与调优不在本系统范围内，这里只读：向量检索 + 点查
//
// 实现：
//   - vector.MilvusStore 实现此接口（Milvus 向量数据库）
//   - store.MemoryVectorStore 实现此接口（内存实现，测试/原型）
type VectorStore interface {
	// SearchByVector 按余弦相似度检索 topK 个最相似商品（按相似度降序）。
	// filter 为可选的候选限定条件，nil 表示不限定。
	SearchByVector(ctx context.Context, vector []float64, topK int, filter *SearchFilter) ([]VectorHit, error)

	// LookupByIDs 批量点查商品向量，返回 map（无序）。
	// 不存在的 ID 不出现在结果中，不报错。
	LookupByIDs(ctx context.Context, ids []int64) (map[int64][]float64, error)

	// Close 关闭连接
	Close() error
}

// SearchFilter 是向量检索的候选限定条件。
// 各实现自行翻译：Milvus 翻译为 `product_id in [...]` 表达式，
// 内存实现直接做集合判断。
type SearchFilter struct {
	// RestrictIDs 非空时，只在这些商品 ID 中检索
	RestrictIDs []int64
}

// VectorHit 是一条向量检索命中。
type VectorHit struct {
	ProductID int64
	Score     float64 // 余弦相似度，越大越相似
}

// Vector 相关错误
var (
	ErrVectorUnavailable = NewDomainError(ModuleVector, ErrorCodeUnavailable, "vector: index unavailable")
)
