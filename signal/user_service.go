package signal

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/rushteam/shoprec/core"
)

// UserServiceClient 是用户服务的 REST 客户端，实现 core.SignalSource。
//
// 行为历史一次拉全量（回看窗口内），分组、关键词提取、已购集合
// 都在客户端做：上游只暴露一个行为查询接口，切分逻辑属于本系统。
//
// 确保实现了 core.SignalSource 接口
var _ core.SignalSource = (*UserServiceClient)(nil)

type UserServiceClient struct {
	rest *restClient
}

// NewUserServiceClient 创建用户服务客户端。
func NewUserServiceClient(baseURL string, timeout time.Duration) *UserServiceClient {
	return &UserServiceClient{rest: newRESTClient(baseURL, timeout)}
}

// GetInterests 获取用户兴趣标签（code -> 展示名）。
func (c *UserServiceClient) GetInterests(ctx context.Context, userID int64) (map[string]string, error) {
	path := fmt.Sprintf("/api/v1/users/%d/interests", userID)
	data, err := c.rest.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	return decodeEnvelope[map[string]string](data)
}

type behaviorQuery struct {
	UserID        int64    `json:"userId"`
	BehaviorTypes []string `json:"behaviorTypes,omitempty"`
	Days          int      `json:"days"`
}

// fetchBehaviors 拉取回看窗口内的行为记录。types 为空表示不限类型。
func (c *UserServiceClient) fetchBehaviors(
	ctx context.Context,
	userID int64,
	lookbackDays int,
	types []core.BehaviorType,
) ([]core.BehaviorRecord, error) {
	body := behaviorQuery{UserID: userID, Days: lookbackDays}
	for _, t := range types {
		body.BehaviorTypes = append(body.BehaviorTypes, string(t))
	}

	data, err := c.rest.do(ctx, http.MethodPost, "/api/v1/behaviors/query", body)
	if err != nil {
		return nil, err
	}
	return decodeEnvelope[[]core.BehaviorRecord](data)
}

// GetBehaviorsGrouped 获取按行为类型分组的行为历史。
func (c *UserServiceClient) GetBehaviorsGrouped(
	ctx context.Context,
	userID int64,
	lookbackDays int,
) (map[core.BehaviorType][]core.BehaviorRecord, error) {
	records, err := c.fetchBehaviors(ctx, userID, lookbackDays, core.VectorBehaviorTypes)
	if err != nil {
		return nil, err
	}

	grouped := make(map[core.BehaviorType][]core.BehaviorRecord)
	for _, r := range records {
		grouped[r.BehaviorType] = append(grouped[r.BehaviorType], r)
	}
	return grouped, nil
}

// GetSearchKeywords 获取最近搜索关键词，按时间从新到旧、首现去重。
func (c *UserServiceClient) GetSearchKeywords(
	ctx context.Context,
	userID int64,
	lookbackDays int,
) ([]string, error) {
	records, err := c.fetchBehaviors(ctx, userID, lookbackDays, []core.BehaviorType{core.BehaviorSearch})
	if err != nil {
		return nil, err
	}
	return ExtractKeywords(records), nil
}

// GetPurchasedProductIDs 获取已购商品 ID 集合。
func (c *UserServiceClient) GetPurchasedProductIDs(
	ctx context.Context,
	userID int64,
	lookbackDays int,
) (map[int64]struct{}, error) {
	records, err := c.fetchBehaviors(ctx, userID, lookbackDays, []core.BehaviorType{core.BehaviorPurchase})
	if err != nil {
		return nil, err
	}

	out := make(map[int64]struct{}, len(records))
	for i := range records {
		if id, ok := records[i].ProductID(); ok {
			out[id] = struct{}{}
		}
	}
	return out, nil
}

// ExtractKeywords 从搜索行为中提取关键词：按时间从新到旧排序，
// 空白关键词跳过，重复关键词只保留最新一次。
func ExtractKeywords(records []core.BehaviorRecord) []string {
	sorted := make([]core.BehaviorRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})

	seen := make(map[string]struct{})
	out := make([]string, 0, len(sorted))
	for i := range sorted {
		kw := strings.TrimSpace(sorted[i].SearchKeyword)
		if kw == "" {
			continue
		}
		if _, ok := seen[kw]; ok {
			continue
		}
		seen[kw] = struct{}{}
		out = append(out, kw)
	}
	return out
}
