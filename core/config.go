package core

import "time"

// EngineConfig 是推荐/搜索引擎的策略配置。
//
// 这里的权重和阈值是上游沿用下来的默认策略值：
// 它们是配置项而不是硬编码，但融合算法本身（同商品多行为取最大权重、
// 搜索向量与基础向量取算术平均）是行为约定，不随配置变化。
type EngineConfig struct {
	// MinBehaviorCount 使用行为推荐的最少行为数
	MinBehaviorCount int

	// LookbackDays 考虑的用户行为历史天数
	LookbackDays int

	// SimilarityFloor 相似度阈值（余弦相似度），低于则不出现在搜索/相似结果中
	SimilarityFloor float64

	// VectorCacheTTL 用户向量缓存时间（秒）
	VectorCacheTTL int

	// BehaviorWeights 各行为类型的权重（按转化信号强弱）
	BehaviorWeights map[BehaviorType]float64

	// BehaviorBlendWeight / InterestBlendWeight 行为向量与兴趣向量的融合权重
	BehaviorBlendWeight float64
	InterestBlendWeight float64

	// RecentKeywordLimit 参与搜索向量的最近关键词个数
	RecentKeywordLimit int

	// CandidateMultiplier 检索候选倍数：top_k = limit * CandidateMultiplier，
	// 为已购过滤留出余量
	CandidateMultiplier int

	// SimilarHeadroom 相似商品检索的额外候选数：top_k = limit + SimilarHeadroom
	SimilarHeadroom int

	// PortTimeout 每次跨端口调用的超时时间
	PortTimeout time.Duration
}

// DefaultEngineConfig 返回与上游一致的默认配置。
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		MinBehaviorCount: 3,
		LookbackDays:     30,
		SimilarityFloor:  0.45,
		VectorCacheTTL:   600,
		BehaviorWeights: map[BehaviorType]float64{
			BehaviorPurchase: 3.0, // 购买 - 最强的转化信号
			BehaviorAddCart:  2.5, // 加购 - 强烈的购买意向
			BehaviorLike:     2.0, // 点赞 - 明确的正向反馈
			BehaviorShare:    1.5, // 分享 - 愿意推荐给他人
			BehaviorView:     1.0, // 浏览 - 基础兴趣信号
		},
		BehaviorBlendWeight: 0.6,
		InterestBlendWeight: 0.4,
		RecentKeywordLimit:  5,
		CandidateMultiplier: 3,
		SimilarHeadroom:     10,
		PortTimeout:         10 * time.Second,
	}
}

// BehaviorWeight 返回行为类型的权重，未配置的类型按最低权重 1.0 处理。
func (c EngineConfig) BehaviorWeight(bt BehaviorType) float64 {
	if w, ok := c.BehaviorWeights[bt]; ok {
		return w
	}
	return 1.0
}
