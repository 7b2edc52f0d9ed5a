package signal

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rushteam/shoprec/core"
)

// ProductServiceClient 是商品服务的 REST 客户端，实现 core.Catalog。
//
// 确保实现了 core.Catalog 接口
var _ core.Catalog = (*ProductServiceClient)(nil)

type ProductServiceClient struct {
	rest *restClient
}

// NewProductServiceClient 创建商品服务客户端。
func NewProductServiceClient(baseURL string, timeout time.Duration) *ProductServiceClient {
	return &ProductServiceClient{rest: newRESTClient(baseURL, timeout)}
}

type batchQuery struct {
	IDs []int64 `json:"ids"`
}

// GetByIDs 批量获取商品详情。上游按存在的 ID 返回，顺序不保证。
func (c *ProductServiceClient) GetByIDs(ctx context.Context, ids []int64) ([]*core.Product, error) {
	if len(ids) == 0 {
		return []*core.Product{}, nil
	}
	data, err := c.rest.do(ctx, http.MethodPost, "/api/v1/products/batch", batchQuery{IDs: ids})
	if err != nil {
		return nil, err
	}
	return decodeEnvelope[[]*core.Product](data)
}

// GetHotProducts 获取热门商品（按销量/热度排序，冷启动与兜底使用）。
func (c *ProductServiceClient) GetHotProducts(ctx context.Context, limit int) ([]*core.Product, error) {
	if limit <= 0 {
		limit = 10
	}
	path := fmt.Sprintf("/api/v1/products/hot?limit=%d", limit)
	data, err := c.rest.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	return decodeEnvelope[[]*core.Product](data)
}
