package filter

import (
	"context"

	"github.com/rushteam/shoprec/core"
)

// Filter 表示一个单候选判定器：返回 true 则该候选被剔除。
// 多个 Filter 通过 FilterNode 组合进检索链路。
type Filter interface {
	Name() string
	ShouldFilter(ctx context.Context, qctx *core.QueryContext, c *core.Candidate) (bool, error)
}
