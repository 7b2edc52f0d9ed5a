// Package recommend 是个性化推荐的编排层。
//
// 一次推荐按固定的状态机推进：
//
//	缓存检查 → 信号采集 → 充分性判断 → 向量融合 → 向量检索
//	    ↓ 命中                ↓ 不足/融合失败        ↓ 无结果
//	个性化检索            冷启动（热门商品）      冷启动（热门商品）
//
// 缓存命中但检索不到结果时不冷启动，落回信号采集用新信号重算。
//
// 对外的契约是"推荐永不失败"：链路内部的任何错误都被吸收并降级，
// 调用方只能通过结果上的 Strategy 标记观察到降级。
package recommend

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/fusion"
	"github.com/rushteam/shoprec/retrieval"
)

// Engine 是推荐编排引擎。
type Engine struct {
	cache     core.VectorCache
	signals   core.SignalSource
	catalog   core.Catalog
	fusion    *fusion.Engine
	retrieval *retrieval.Pipeline
	cfg       core.EngineConfig
	logger    zerolog.Logger
}

// NewEngine 创建推荐编排引擎。
func NewEngine(
	cache core.VectorCache,
	signalSource core.SignalSource,
	catalog core.Catalog,
	fusionEngine *fusion.Engine,
	retrievalPipeline *retrieval.Pipeline,
	cfg core.EngineConfig,
	logger zerolog.Logger,
) *Engine {
	return &Engine{
		cache:     cache,
		signals:   signalSource,
		catalog:   catalog,
		fusion:    fusionEngine,
		retrieval: retrievalPipeline,
		cfg:       cfg,
		logger:    logger.With().Str("module", "recommend").Logger(),
	}
}

// Recommend 为用户生成个性化推荐列表。
//
// 永不失败：内部错误一律吸收并降级，结果通过 Strategy 标记降级层级：
//   - personalized：缓存向量或融合向量检索命中
//   - cold_start：信号不足 / 融合失败 / 检索无结果，返回热门商品
//   - fallback：链路内部出错后的降级（热门商品，可能为空列表）
func (e *Engine) Recommend(ctx context.Context, userID int64, limit int) *core.RecommendationResult {
	if limit <= 0 {
		limit = 10
	}

	// 1. 缓存命中直接走个性化检索，跳过融合。已购剔除是硬约束，
	// 缓存路径也要拉一次已购集合（尽力而为，失败不剔除）
	if vector, err := e.cache.GetUserVector(ctx, userID); err == nil && len(vector) > 0 {
		products, perr := e.personalize(ctx, userID, vector, limit, e.purchasedBestEffort(ctx, userID))
		if perr != nil {
			e.logger.Warn().Err(perr).Int64("user_id", userID).Msg("personalize with cached vector failed")
			return e.degrade(ctx, userID, limit)
		}
		if len(products) > 0 {
			return &core.RecommendationResult{Products: products, Strategy: core.StrategyPersonalized}
		}
		// 缓存向量检索不到任何结果说明向量可能已经过时，
		// 不直接冷启动，落回完整链路用新信号重算
		e.logger.Debug().Int64("user_id", userID).Msg("cached vector yielded no results, recomputing")
	}

	// 2. 并发采集信号（单路失败只降级该路）
	sig := e.gatherSignals(ctx, userID)

	// 3. 信号不足直接冷启动，不做融合
	if !e.sufficient(sig) {
		e.logger.Debug().Int64("user_id", userID).
			Int("behaviors", core.CountVectorBehaviors(sig.grouped)).
			Msg("insufficient signals, cold start")
		return e.coldStart(ctx, userID, limit)
	}

	// 4. 融合用户向量
	vector, ok := e.fusion.ComputeUserVector(ctx, sig.interests, sig.grouped, sig.keywords)
	if !ok {
		return e.coldStart(ctx, userID, limit)
	}

	// 5. 写缓存是尽力而为，失败只记日志
	if err := e.cache.SetUserVector(ctx, userID, vector, e.cfg.VectorCacheTTL); err != nil {
		e.logger.Warn().Err(err).Int64("user_id", userID).Msg("cache user vector failed")
	}

	// 6. 个性化检索（剔除已购商品）
	products, err := e.personalize(ctx, userID, vector, limit, sig.purchased)
	if err != nil {
		e.logger.Warn().Err(err).Int64("user_id", userID).Msg("personalize failed")
		return e.degrade(ctx, userID, limit)
	}
	if len(products) == 0 {
		return e.coldStart(ctx, userID, limit)
	}
	return &core.RecommendationResult{Products: products, Strategy: core.StrategyPersonalized}
}

// personalize 按用户向量检索候选并关联商品详情。
func (e *Engine) personalize(
	ctx context.Context,
	userID int64,
	vector []float64,
	limit int,
	exclude map[int64]struct{},
) ([]*core.Product, error) {
	ids, err := e.retrieval.Retrieve(ctx, &retrieval.Query{
		UserID:     userID,
		Vector:     vector,
		TopK:       limit * e.cfg.CandidateMultiplier,
		Limit:      limit,
		ExcludeIDs: exclude,
	})
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []*core.Product{}, nil
	}
	return e.retrieval.JoinCatalog(ctx, ids)
}

// sufficient 判断信号是否足以尝试个性化：兴趣、行为、关键词任一即可。
func (e *Engine) sufficient(sig *signals) bool {
	if len(sig.interests) > 0 {
		return true
	}
	if core.CountVectorBehaviors(sig.grouped) >= e.cfg.MinBehaviorCount {
		return true
	}
	return len(sig.keywords) > 0
}

// coldStart 返回热门商品，标记 cold_start。
// 热门拉取失败或为空时再降一级到 fallback（空列表）。
func (e *Engine) coldStart(ctx context.Context, userID int64, limit int) *core.RecommendationResult {
	products, err := e.catalog.GetHotProducts(ctx, limit)
	if err != nil {
		e.logger.Warn().Err(err).Int64("user_id", userID).Msg("get hot products failed")
		return &core.RecommendationResult{Products: []*core.Product{}, Strategy: core.StrategyFallback}
	}
	if len(products) == 0 {
		return &core.RecommendationResult{Products: []*core.Product{}, Strategy: core.StrategyFallback}
	}
	return &core.RecommendationResult{Products: products, Strategy: core.StrategyColdStart}
}

// degrade 是链路出错后的兜底：同样回到热门商品，但标记 fallback，
// 让调用方能把"出错降级"和"正常冷启动"区分开。
func (e *Engine) degrade(ctx context.Context, userID int64, limit int) *core.RecommendationResult {
	products, err := e.catalog.GetHotProducts(ctx, limit)
	if err != nil || products == nil {
		products = []*core.Product{}
	}
	return &core.RecommendationResult{Products: products, Strategy: core.StrategyFallback}
}
