package rerank

import (
	"context"

	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/pipeline"
)

// TopNNode 是 Top-N 截断节点，在过滤之后截取前 N 个候选。
// 候选已按相似度降序，截断等价于"凑满 N 个就停"的短路收集。
type TopNNode struct {
	// N 要保留的候选数量（Top N）
	// 如果 N <= 0，则返回所有候选（不截断）
	N int
}

func (n *TopNNode) Name() string {
	return "rerank.topn"
}

func (n *TopNNode) Kind() pipeline.Kind {
	return pipeline.KindReRank
}

func (n *TopNNode) Process(
	_ context.Context,
	_ *core.QueryContext,
	candidates []*core.Candidate,
) ([]*core.Candidate, error) {
	if n.N <= 0 {
		return candidates, nil
	}
	if len(candidates) <= n.N {
		return candidates, nil
	}
	return candidates[:n.N], nil
}

var _ pipeline.Node = (*TopNNode)(nil)
