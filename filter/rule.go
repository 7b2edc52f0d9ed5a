package filter

import (
	"context"

	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/pkg/dsl"
)

// RuleFilter 按 CEL 规则表达式剔除候选：规则不匹配的候选被剔除。
// 规则来自配置（config.filter_rules），例如 "candidate.score >= 0.5"。
type RuleFilter struct {
	rule *dsl.Rule
}

// NewRuleFilter 编译规则表达式并构建过滤器。
func NewRuleFilter(expr string) (*RuleFilter, error) {
	rule, err := dsl.NewRule(expr)
	if err != nil {
		return nil, err
	}
	return &RuleFilter{rule: rule}, nil
}

func (f *RuleFilter) Name() string { return "filter.rule" }

func (f *RuleFilter) ShouldFilter(
	_ context.Context,
	qctx *core.QueryContext,
	c *core.Candidate,
) (bool, error) {
	if c == nil {
		return true, nil
	}
	ok, err := f.rule.Match(c, qctx)
	if err != nil {
		return false, err
	}
	// 规则表达的是"保留条件"，不匹配则剔除
	return !ok, nil
}

var _ Filter = (*RuleFilter)(nil)
