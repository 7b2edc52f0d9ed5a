package filter

import (
	"context"

	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/pipeline"
)

// DedupNode 按商品 ID 去重，保留第一个出现的（相似度最高的）。
// 重复候选的 Labels 合并到保留的那一个上。
type DedupNode struct{}

func (n *DedupNode) Name() string        { return "filter.dedup" }
func (n *DedupNode) Kind() pipeline.Kind { return pipeline.KindFilter }

func (n *DedupNode) Process(
	_ context.Context,
	_ *core.QueryContext,
	candidates []*core.Candidate,
) ([]*core.Candidate, error) {
	if len(candidates) == 0 {
		return candidates, nil
	}

	seen := make(map[int64]*core.Candidate, len(candidates))
	out := make([]*core.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c == nil {
			continue
		}
		if first, ok := seen[c.ID]; ok {
			for k, v := range c.Labels {
				first.PutLabel(k, v)
			}
			continue
		}
		seen[c.ID] = c
		out = append(out, c)
	}
	return out, nil
}

var _ pipeline.Node = (*DedupNode)(nil)
