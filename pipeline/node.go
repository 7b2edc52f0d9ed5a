package pipeline

import (
	"context"

	"github.com/rushteam/shoprec/core"
)

// Kind 用于标记 Node 类型，方便观测/治理（例如按阶段打点）。
type Kind string

const (
	KindFilter Kind = "filter" // 过滤阶段：剔除不符合约束的候选
	KindReRank Kind = "rerank" // 重排阶段：截断/调序
)

// Node 是检索-过滤链路的最小可扩展单元。
// 统一采用"输入 candidates -> 输出 candidates"的形态，
// 方便去重、阈值过滤、剔除、截断等操作自由组合。
type Node interface {
	Name() string
	Kind() Kind

	Process(
		ctx context.Context,
		qctx *core.QueryContext,
		candidates []*core.Candidate,
	) ([]*core.Candidate, error)
}
