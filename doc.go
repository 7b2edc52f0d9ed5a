// Package shoprec 是电商场景的推荐与语义搜索引擎。
//
// 设计要点：
// - 策略分层: 个性化（缓存/融合向量检索）→ 冷启动（热门商品）→ 兜底，降级通过 Strategy 标记暴露
// - 信号融合: 行为/兴趣/搜索三路信号加权融合为用户向量，任一路缺失可降级
// - Pipeline-first: 检索后处理通过 Node 串联（去重 → 过滤 → 截断），自定义 Node 即可插拔扩展
// - 端口与适配: 领域接口定义在 core，Milvus/Redis/上游微服务都是可替换的适配器
package shoprec

import (
	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/pipeline"
)

// 轻量 facade：便于用户直接 import "shoprec" 使用核心抽象。
type Pipeline = pipeline.Pipeline
type Node = pipeline.Node
type Kind = pipeline.Kind

type Product = core.Product
type RecommendationResult = core.RecommendationResult
type SearchPage = core.SearchPage
type Strategy = core.Strategy

const (
	KindFilter = pipeline.KindFilter
	KindReRank = pipeline.KindReRank

	StrategyPersonalized = core.StrategyPersonalized
	StrategyColdStart    = core.StrategyColdStart
	StrategyFallback     = core.StrategyFallback
)
