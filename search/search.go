// Package search 提供关键词语义搜索：把查询文本向量化后在商品
// 向量索引中检索，再按相似度阈值过滤并分页。
package search

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/retrieval"
)

// Engine 是语义搜索引擎。
type Engine struct {
	embedder  core.Embedder
	retrieval *retrieval.Pipeline
	cfg       core.EngineConfig
	logger    zerolog.Logger
}

// NewEngine 创建语义搜索引擎。
func NewEngine(
	embedder core.Embedder,
	retrievalPipeline *retrieval.Pipeline,
	cfg core.EngineConfig,
	logger zerolog.Logger,
) *Engine {
	return &Engine{
		embedder:  embedder,
		retrieval: retrievalPipeline,
		cfg:       cfg,
		logger:    logger.With().Str("module", "search").Logger(),
	}
}

// Search 按关键词做语义搜索，返回分页结果。
//
// 永不失败：空关键词、向量化失败、索引故障都返回数据为空但
// 分页元信息合法的结果页。
//
// 检索视野为 pageNumber*pageSize 个候选，Total 只统计视野内
// 过阈值的命中数（见 core.SearchPage 的说明）。
func (e *Engine) Search(ctx context.Context, keyword string, pageNumber, pageSize int) *core.SearchPage {
	if pageNumber < 1 {
		pageNumber = 1
	}
	if pageSize <= 0 {
		pageSize = 10
	}

	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return core.EmptySearchPage(pageNumber, pageSize)
	}

	vector, err := e.embedder.EmbedQuery(ctx, keyword)
	if err != nil || len(vector) == 0 {
		e.logger.Warn().Err(err).Str("keyword", keyword).Msg("embed keyword failed")
		return core.EmptySearchPage(pageNumber, pageSize)
	}

	horizon := pageNumber * pageSize
	ids, err := e.retrieval.Retrieve(ctx, &retrieval.Query{
		Vector: vector,
		TopK:   horizon,
		Floor:  e.cfg.SimilarityFloor,
	})
	if err != nil {
		e.logger.Warn().Err(err).Str("keyword", keyword).Msg("search retrieval failed")
		return core.EmptySearchPage(pageNumber, pageSize)
	}

	total := len(ids)
	start := (pageNumber - 1) * pageSize
	if start >= total {
		return &core.SearchPage{
			Data:       []*core.Product{},
			Total:      total,
			PageNumber: pageNumber,
			PageSize:   pageSize,
		}
	}
	end := start + pageSize
	if end > total {
		end = total
	}

	products, err := e.retrieval.JoinCatalog(ctx, ids[start:end])
	if err != nil {
		e.logger.Warn().Err(err).Str("keyword", keyword).Msg("join catalog failed")
		return core.EmptySearchPage(pageNumber, pageSize)
	}

	return &core.SearchPage{
		Data:       products,
		Total:      total,
		PageNumber: pageNumber,
		PageSize:   pageSize,
	}
}

// RerankByKeyword 把一批既有候选商品按与关键词的语义相似度重排，
// 返回前 limit 个。倒排/运营位给出候选，这里只负责排序。
//
// 关键词向量化失败返回空列表；检索或关联失败时按候选原始顺序
// 截断返回，重排失败不丢已有候选。
func (e *Engine) RerankByKeyword(ctx context.Context, keyword string, limit int, productIDs []int64) []*core.Product {
	if limit <= 0 {
		limit = 10
	}
	if len(productIDs) == 0 {
		return []*core.Product{}
	}

	keyword = strings.TrimSpace(keyword)
	vector, err := e.embedder.EmbedQuery(ctx, keyword)
	if err != nil || len(vector) == 0 {
		e.logger.Warn().Err(err).Str("keyword", keyword).Msg("embed keyword failed")
		return []*core.Product{}
	}

	ids, err := e.retrieval.Retrieve(ctx, &retrieval.Query{
		Vector:      vector,
		TopK:        len(productIDs),
		Limit:       limit,
		RestrictIDs: productIDs,
	})
	if err != nil || len(ids) == 0 {
		e.logger.Warn().Err(err).Str("keyword", keyword).Msg("rerank retrieval failed")
		return e.passthrough(ctx, productIDs, limit)
	}

	products, err := e.retrieval.JoinCatalog(ctx, ids)
	if err != nil {
		return e.passthrough(ctx, productIDs, limit)
	}
	return products
}

// passthrough 按候选原始顺序关联详情并截断，作为重排失败的兜底。
func (e *Engine) passthrough(ctx context.Context, productIDs []int64, limit int) []*core.Product {
	if len(productIDs) > limit {
		productIDs = productIDs[:limit]
	}
	products, err := e.retrieval.JoinCatalog(ctx, productIDs)
	if err != nil {
		return []*core.Product{}
	}
	return products
}
