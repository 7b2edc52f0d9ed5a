package filter

import (
	"context"

	"github.com/rushteam/shoprec/core"
)

// ExcludeFilter 剔除请求级排除集合中的候选：已购商品、相似查询的商品自身。
// 也支持静态剔除列表（运营黑名单等）。
type ExcludeFilter struct {
	// IDs 静态剔除列表（可选）
	IDs map[int64]struct{}
}

func (f *ExcludeFilter) Name() string { return "filter.exclude" }

func (f *ExcludeFilter) ShouldFilter(
	_ context.Context,
	qctx *core.QueryContext,
	c *core.Candidate,
) (bool, error) {
	if c == nil {
		return true, nil
	}
	if qctx.Excluded(c.ID) {
		return true, nil
	}
	if f.IDs != nil {
		if _, ok := f.IDs[c.ID]; ok {
			return true, nil
		}
	}
	return false, nil
}

var _ Filter = (*ExcludeFilter)(nil)
