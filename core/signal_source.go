package core

import "context"

// SignalSource 是用户信号源的领域接口：兴趣标签、分组行为历史、
// 搜索关键词、已购商品。数据由上游用户服务拥有，这里只读。
//
// 任何一路信号失败都只降级该路信号为"缺失"，由编排层做部分失败合并，
// 不会让整个推荐请求失败。
//
// 实现：
//   - signal.UserServiceClient（用户服务 REST 客户端）
//   - signal.FeastInterestSource（兴趣改走 Feast 特征库的装饰器）
type SignalSource interface {
	// GetInterests 获取用户兴趣标签（code -> 展示名）
	GetInterests(ctx context.Context, userID int64) (map[string]string, error)

	// GetBehaviorsGrouped 获取按行为类型分组的行为历史（最近 lookbackDays 天）
	GetBehaviorsGrouped(ctx context.Context, userID int64, lookbackDays int) (map[BehaviorType][]BehaviorRecord, error)

	// GetSearchKeywords 获取最近搜索关键词（按时间倒序、首现去重）
	GetSearchKeywords(ctx context.Context, userID int64, lookbackDays int) ([]string, error)

	// GetPurchasedProductIDs 获取已购商品 ID 集合（用于结果过滤）
	GetPurchasedProductIDs(ctx context.Context, userID int64, lookbackDays int) (map[int64]struct{}, error)
}
