package core

import "context"

// Catalog 是商品目录的领域接口。
//
// GetByIDs 不保证返回顺序，调用方需要按检索顺序重排；
// 目录里查不到的 ID 静默丢弃，不让整个响应失败。
//
// 实现：
//   - signal.ProductServiceClient（商品服务 REST 客户端）
type Catalog interface {
	// GetByIDs 批量获取商品详情（单次调用，顺序不保证）
	GetByIDs(ctx context.Context, ids []int64) ([]*Product, error)

	// GetHotProducts 获取热门商品（冷启动/兜底）
	GetHotProducts(ctx context.Context, limit int) ([]*Product, error)
}
