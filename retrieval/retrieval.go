// Package retrieval 把向量检索和后处理链路（去重、过滤、截断）
// 组装成一次完整的候选召回。
package retrieval

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/filter"
	"github.com/rushteam/shoprec/pipeline"
	"github.com/rushteam/shoprec/pkg/conv"
	"github.com/rushteam/shoprec/pkg/utils"
	"github.com/rushteam/shoprec/rerank"
)

// Query 是一次候选召回的参数。
type Query struct {
	// UserID 发起请求的用户（匿名场景为 0）
	UserID int64

	// Vector 查询向量
	Vector []float64

	// TopK 向量检索候选数（一般大于 Limit，给过滤留余量）
	TopK int

	// Limit 最终返回的候选数上限，<= 0 表示不截断
	Limit int

	// Floor 相似度阈值，<= 0 表示不启用阈值过滤
	Floor float64

	// ExcludeIDs 剔除集合：已购商品、相似查询的商品自身
	ExcludeIDs map[int64]struct{}

	// RestrictIDs 非空时只在这些商品中检索（搜索结果重排场景）
	RestrictIDs []int64
}

// Pipeline 是候选召回执行器：向量检索 + Node 链后处理。
type Pipeline struct {
	vectors core.VectorStore
	catalog core.Catalog
	logger  zerolog.Logger

	// ExtraNodes 追加在去重/过滤之后、截断之前的策略节点
	// （规则过滤、已曝光过滤等），可选。
	ExtraNodes []pipeline.Node
}

// NewPipeline 创建召回执行器。
func NewPipeline(vectors core.VectorStore, catalog core.Catalog, logger zerolog.Logger) *Pipeline {
	return &Pipeline{
		vectors: vectors,
		catalog: catalog,
		logger:  logger.With().Str("module", "retrieval").Logger(),
	}
}

// Vectors 暴露底层向量索引，供相似商品等点查场景复用同一连接。
func (p *Pipeline) Vectors() core.VectorStore {
	return p.vectors
}

// Retrieve 执行一次候选召回，返回按相似度降序的商品 ID 列表。
func (p *Pipeline) Retrieve(ctx context.Context, q *Query) ([]int64, error) {
	if q == nil || len(q.Vector) == 0 {
		return nil, nil
	}

	var sf *core.SearchFilter
	if len(q.RestrictIDs) > 0 {
		sf = &core.SearchFilter{RestrictIDs: q.RestrictIDs}
	}

	hits, err := p.vectors.SearchByVector(ctx, q.Vector, q.TopK, sf)
	if err != nil {
		return nil, err
	}
	if len(hits) == 0 {
		return nil, nil
	}

	candidates := make([]*core.Candidate, 0, len(hits))
	for _, h := range hits {
		c := core.NewCandidate(h.ProductID, h.Score)
		// 召回来源标记随候选流经整条链路，规则过滤和 explain 都依赖它
		c.PutLabel("recall_source", utils.Label{Value: "ann", Source: "retrieval"})
		candidates = append(candidates, c)
	}

	filters := []filter.Filter{&filter.ExcludeFilter{}}
	if q.Floor > 0 {
		filters = append(filters, &filter.SimilarityFloorFilter{Floor: q.Floor})
	}

	nodes := []pipeline.Node{
		&filter.DedupNode{},
		&filter.FilterNode{Filters: filters},
	}
	nodes = append(nodes, p.ExtraNodes...)
	nodes = append(nodes, &rerank.TopNNode{N: q.Limit})

	qctx := &core.QueryContext{UserID: q.UserID, ExcludeIDs: q.ExcludeIDs}
	pl := &pipeline.Pipeline{Nodes: nodes}

	out, err := pl.Run(ctx, qctx, candidates)
	if err != nil {
		return nil, err
	}

	ids := conv.ConvertSlice(out, func(c *core.Candidate) (int64, bool) {
		if c == nil {
			return 0, false
		}
		return c.ID, true
	})
	p.logger.Debug().
		Int("hits", len(hits)).
		Int("kept", len(ids)).
		Msg("retrieve done")
	return ids, nil
}

// JoinCatalog 按检索顺序关联商品详情。目录里查不到的 ID 静默丢弃。
func (p *Pipeline) JoinCatalog(ctx context.Context, ids []int64) ([]*core.Product, error) {
	if len(ids) == 0 {
		return []*core.Product{}, nil
	}

	products, err := p.catalog.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	byID := make(map[int64]*core.Product, len(products))
	for _, prod := range products {
		if prod != nil {
			byID[prod.ID] = prod
		}
	}

	out := make([]*core.Product, 0, len(ids))
	for _, id := range ids {
		if prod, ok := byID[id]; ok {
			out = append(out, prod)
		}
	}
	return out, nil
}
