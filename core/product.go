package core

// Product 是商品目录返回的商品记录。
// 对推荐引擎而言内容是透传的：引擎只依赖 ID 做 join 与排序，
// 其余字段原样返回给调用方。
type Product struct {
	ID     int64          `json:"id"`
	Name   string         `json:"name"`
	Price  float64        `json:"price"`
	Images []string       `json:"images,omitempty"`
	Tags   []string       `json:"tags,omitempty"`
	Meta   map[string]any `json:"meta,omitempty"`
}

// Strategy 是推荐结果携带的策略标记，调用方只能看到这一层降级信息。
type Strategy string

const (
	// StrategyPersonalized 个性化推荐：缓存向量或融合向量检索命中
	StrategyPersonalized Strategy = "personalized"
	// StrategyColdStart 冷启动：信号不足或个性化无结果，返回热门商品
	StrategyColdStart Strategy = "cold_start"
	// StrategyFallback 兜底：链路内部出错后的降级路径（可能为空列表）
	StrategyFallback Strategy = "fallback"
)

// RecommendationResult 是 Recommend 的返回值：有序商品列表 + 策略标记。
type RecommendationResult struct {
	Products []*Product `json:"products"`
	Strategy Strategy   `json:"strategy"`
}

// SearchPage 是语义搜索的分页结果。
//
// 注意：Total 只统计本次查询视野（pageNumber*pageSize 个候选）内
// 通过相似度阈值且去重后的命中数，深分页时可能低估全量匹配数。
// 这是沿用上游的既定取舍（以延迟换精确计数），不要“顺手修掉”。
type SearchPage struct {
	Data       []*Product `json:"data"`
	Total      int        `json:"total"`
	PageNumber int        `json:"page_number"`
	PageSize   int        `json:"page_size"`
}

// EmptySearchPage 返回一个数据为空但分页元信息合法的结果页。
func EmptySearchPage(pageNumber, pageSize int) *SearchPage {
	return &SearchPage{
		Data:       []*Product{},
		Total:      0,
		PageNumber: pageNumber,
		PageSize:   pageSize,
	}
}
