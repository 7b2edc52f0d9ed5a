// Package dsl 提供基于 CEL (Common Expression Language) 的候选规则求值器，
// 用于把配置里的过滤规则应用到检索候选上。
package dsl

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/pkg/conv"
)

var (
	// celEnv 是全局的 CEL 环境，线程安全，可复用
	celEnv     *cel.Env
	celEnvOnce sync.Once
	celEnvErr  error
)

func getCELEnv() (*cel.Env, error) {
	celEnvOnce.Do(func() {
		celEnv, celEnvErr = cel.NewEnv(
			cel.Variable("candidate", cel.DynType),
			cel.Variable("label", cel.DynType),
			cel.Variable("query", cel.DynType),
		)
	})
	return celEnv, celEnvErr
}

// Rule 是一条编译后的候选规则，可被多次并发求值。
//
// 表达式语法（CEL 标准语法）：
//   - 数值：candidate.score >= 0.5
//   - 标签：label.recall_source == "ann"
//   - 逻辑：candidate.score > 0.6 && label.recall_source != null
//   - 请求参数：query.user_id != 0
type Rule struct {
	expr string
	prg  cel.Program
}

// NewRule 编译一条规则表达式。空表达式返回恒真规则。
func NewRule(expr string) (*Rule, error) {
	r := &Rule{expr: expr}
	if expr == "" {
		return r, nil
	}

	env, err := getCELEnv()
	if err != nil {
		return nil, fmt.Errorf("cel env: %w", err)
	}

	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile rule %q: %w", expr, issues.Err())
	}

	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program rule %q: %w", expr, err)
	}

	r.prg = prg
	return r, nil
}

// Expr 返回规则的原始表达式。
func (r *Rule) Expr() string { return r.expr }

// Match 对单个候选求值，返回布尔结果。
// 注意：CEL 访问不存在的 key 会报错，规则应使用 label.key != null 检查存在性。
func (r *Rule) Match(c *core.Candidate, qctx *core.QueryContext) (bool, error) {
	if r.prg == nil {
		return true, nil
	}

	out, _, err := r.prg.Eval(buildInput(c, qctx))
	if err != nil {
		return false, fmt.Errorf("eval rule %q: %w", r.expr, err)
	}

	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("rule %q must return boolean, got %T", r.expr, out.Value())
	}
	return result, nil
}

// buildInput 构建 CEL 表达式的输入数据
func buildInput(c *core.Candidate, qctx *core.QueryContext) map[string]any {
	labels := make(map[string]any, len(c.Labels))
	labelAccessor := make(map[string]any, len(c.Labels))
	for k, v := range c.Labels {
		labels[k] = map[string]any{"value": v.Value, "source": v.Source}
		// label.recall_source 直接返回 value，兼容简写
		labelAccessor[k] = v.Value
	}

	candidate := map[string]any{
		"id":     c.ID,
		"score":  c.Score,
		"labels": labels,
	}

	query := map[string]any{}
	if qctx != nil {
		query["user_id"] = qctx.UserID
		// 数值参数统一成 float64，避免规则里 int/double 比较的类型噪音
		params := make(map[string]any, len(qctx.Params))
		for k, v := range qctx.Params {
			if f, ok := conv.ToFloat64(v); ok {
				params[k] = f
				continue
			}
			params[k] = v
		}
		query["params"] = params
	}

	return map[string]any{
		"candidate": candidate,
		"label":     labelAccessor,
		"query":     query,
	}
}
