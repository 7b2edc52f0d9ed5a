package recommend

import (
	"context"

	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/retrieval"
)

// SimilarProducts 返回与指定商品最相似的商品列表（剔除商品自身，
// 应用相似度阈值）。
//
// 与 Recommend 同一契约：永不失败。商品向量不存在或链路出错时
// 返回空列表，由调用方决定页面兜底。
func (e *Engine) SimilarProducts(ctx context.Context, productID int64, limit int) []*core.Product {
	if limit <= 0 {
		limit = 10
	}

	embeddings, err := e.retrieval.Vectors().LookupByIDs(ctx, []int64{productID})
	if err != nil {
		e.logger.Warn().Err(err).Int64("product_id", productID).Msg("lookup product vector failed")
		return []*core.Product{}
	}
	vector, ok := embeddings[productID]
	if !ok || len(vector) == 0 {
		// 商品未入向量索引（新品或下架），没有相似可言
		return []*core.Product{}
	}

	ids, err := e.retrieval.Retrieve(ctx, &retrieval.Query{
		Vector:     vector,
		TopK:       limit + e.cfg.SimilarHeadroom,
		Limit:      limit,
		Floor:      e.cfg.SimilarityFloor,
		ExcludeIDs: map[int64]struct{}{productID: {}},
	})
	if err != nil {
		e.logger.Warn().Err(err).Int64("product_id", productID).Msg("similar retrieval failed")
		return []*core.Product{}
	}
	if len(ids) == 0 {
		return []*core.Product{}
	}

	products, err := e.retrieval.JoinCatalog(ctx, ids)
	if err != nil {
		e.logger.Warn().Err(err).Int64("product_id", productID).Msg("join catalog failed")
		return []*core.Product{}
	}
	return products
}
