package pipeline

import (
	"context"

	"github.com/rushteam/shoprec/core"
)

// Pipeline 把检索后处理拆成可组合的 Node 链：去重 → 过滤 → 截断。
type Pipeline struct {
	Nodes []Node
}

func (p *Pipeline) Run(
	ctx context.Context,
	qctx *core.QueryContext,
	candidates []*core.Candidate,
) ([]*core.Candidate, error) {
	cur := candidates
	for _, node := range p.Nodes {
		// 候选被过滤空后，后续节点不再有事可做
		if len(cur) == 0 {
			return cur, nil
		}
		next, err := node.Process(ctx, qctx, cur)
		if err != nil {
			return nil, err
		}
		cur = next
	}
	return cur, nil
}
