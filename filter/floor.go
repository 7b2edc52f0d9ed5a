package filter

import (
	"context"

	"github.com/rushteam/shoprec/core"
)

// SimilarityFloorFilter 剔除相似度低于阈值的候选。
// 低于阈值的候选是整体剔除，不是降序排到后面：
// 搜索和相似商品场景里，不够像就是不出现。
type SimilarityFloorFilter struct {
	// Floor 余弦相似度阈值
	Floor float64
}

func (f *SimilarityFloorFilter) Name() string { return "filter.floor" }

func (f *SimilarityFloorFilter) ShouldFilter(
	_ context.Context,
	_ *core.QueryContext,
	c *core.Candidate,
) (bool, error) {
	if c == nil {
		return true, nil
	}
	return c.Score < f.Floor, nil
}

var _ Filter = (*SimilarityFloorFilter)(nil)
