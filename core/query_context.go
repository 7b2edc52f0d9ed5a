package core

// QueryContext 承载一次检索的请求级上下文，贯穿过滤链路透传。
type QueryContext struct {
	// UserID 发起请求的用户（关键词搜索等匿名场景为 0）
	UserID int64

	// ExcludeIDs 需要从结果中剔除的商品 ID：已购商品、相似查询中的商品自身
	ExcludeIDs map[int64]struct{}

	// Params 请求级参数，供规则过滤等策略节点读取
	Params map[string]any
}

// Excluded 判断商品是否在剔除集合中。
func (q *QueryContext) Excluded(id int64) bool {
	if q == nil || q.ExcludeIDs == nil {
		return false
	}
	_, ok := q.ExcludeIDs[id]
	return ok
}
