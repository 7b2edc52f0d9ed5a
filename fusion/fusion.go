// Package fusion 把用户的多路信号融合成一个用户向量。
//
// 融合来源有三路：
//  1. 行为向量：用户交互过的商品 embedding 的加权平均
//  2. 兴趣向量：用户画像兴趣标签文本的 embedding
//  3. 搜索向量：最近搜索关键词文本的 embedding
//
// 行为与兴趣按固定权重线性混合，搜索向量再与混合结果取算术平均。
// 三路信号都是尽力而为：任何一路缺失或失败都不阻断融合，
// 只有三路全部缺失时才视为无法生成用户向量。
package fusion

import (
	"context"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/rushteam/shoprec/core"
)

// Engine 是用户向量融合引擎。
type Engine struct {
	vectors  core.VectorStore
	embedder core.Embedder
	cfg      core.EngineConfig
	logger   zerolog.Logger
}

// NewEngine 创建融合引擎。
func NewEngine(vectors core.VectorStore, embedder core.Embedder, cfg core.EngineConfig, logger zerolog.Logger) *Engine {
	return &Engine{
		vectors:  vectors,
		embedder: embedder,
		cfg:      cfg,
		logger:   logger.With().Str("module", "fusion").Logger(),
	}
}

// ComputeUserVector 融合兴趣、行为、搜索三路信号，返回用户向量。
// 返回 (nil, false) 表示三路信号都不可用，调用方应转入冷启动。
//
// 行为路只在达到最少行为数时参与融合：零星的一两次交互噪音太大，
// 不如只用画像和搜索信号。
func (e *Engine) ComputeUserVector(
	ctx context.Context,
	interests map[string]string,
	grouped map[core.BehaviorType][]core.BehaviorRecord,
	keywords []string,
) ([]float64, bool) {
	var behaviorVec []float64
	if core.CountVectorBehaviors(grouped) >= e.cfg.MinBehaviorCount {
		behaviorVec = e.behaviorVector(ctx, grouped)
	}
	interestVec := e.interestVector(ctx, interests)
	searchVec := e.searchVector(ctx, keywords)

	base := blend(behaviorVec, interestVec, e.cfg.BehaviorBlendWeight, e.cfg.InterestBlendWeight)
	fused := mean(base, searchVec)
	if len(fused) == 0 {
		return nil, false
	}

	e.logger.Debug().
		Bool("behavior", len(behaviorVec) > 0).
		Bool("interest", len(interestVec) > 0).
		Bool("search", len(searchVec) > 0).
		Int("dim", len(fused)).
		Msg("user vector fused")
	return fused, true
}

// behaviorVector 计算行为向量：交互商品 embedding 的加权平均。
// 同一商品有多种行为时取权重最大的那一种，而不是把权重累加，
// 避免高频浏览盖过一次购买。
func (e *Engine) behaviorVector(ctx context.Context, grouped map[core.BehaviorType][]core.BehaviorRecord) []float64 {
	if len(grouped) == 0 {
		return nil
	}

	maxWeight := make(map[int64]float64)
	for _, bt := range core.VectorBehaviorTypes {
		weight := e.cfg.BehaviorWeight(bt)
		for i := range grouped[bt] {
			id, ok := grouped[bt][i].ProductID()
			if !ok {
				continue
			}
			if weight > maxWeight[id] {
				maxWeight[id] = weight
			}
		}
	}
	if len(maxWeight) == 0 {
		return nil
	}

	ids := make([]int64, 0, len(maxWeight))
	for id := range maxWeight {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	embeddings, err := e.vectors.LookupByIDs(ctx, ids)
	if err != nil {
		e.logger.Warn().Err(err).Int("products", len(ids)).Msg("lookup product embeddings failed")
		return nil
	}

	var sum []float64
	var totalWeight float64
	for _, id := range ids {
		vec, ok := embeddings[id]
		if !ok || len(vec) == 0 {
			continue
		}
		w := maxWeight[id]
		sum = addScaled(sum, vec, w)
		totalWeight += w
	}
	if totalWeight == 0 || len(sum) == 0 {
		return nil
	}
	return scale(sum, 1/totalWeight)
}

// interestVector 把兴趣标签值拼成一段文本做 embedding。
// 按 key 排序保证同一份画像每次生成同样的输入文本。
func (e *Engine) interestVector(ctx context.Context, interests map[string]string) []float64 {
	if len(interests) == 0 {
		return nil
	}
	keys := make([]string, 0, len(interests))
	for k := range interests {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		if v := strings.TrimSpace(interests[k]); v != "" {
			parts = append(parts, v)
		}
	}
	if len(parts) == 0 {
		return nil
	}
	return e.embedText(ctx, strings.Join(parts, " "), "interest")
}

// searchVector 把最近的搜索关键词拼成文本做 embedding。
// keywords 已按时间从新到旧去重，这里只取配置数量内的前几个。
func (e *Engine) searchVector(ctx context.Context, keywords []string) []float64 {
	if len(keywords) == 0 {
		return nil
	}
	limit := e.cfg.RecentKeywordLimit
	if limit > 0 && len(keywords) > limit {
		keywords = keywords[:limit]
	}
	text := strings.TrimSpace(strings.Join(keywords, " "))
	if text == "" {
		return nil
	}
	return e.embedText(ctx, text, "search")
}

func (e *Engine) embedText(ctx context.Context, text, source string) []float64 {
	vec, err := e.embedder.EmbedQuery(ctx, text)
	if err != nil {
		e.logger.Warn().Err(err).Str("source", source).Msg("embed text failed")
		return nil
	}
	return vec
}
