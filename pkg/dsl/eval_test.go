package dsl

import (
	"testing"

	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/pkg/utils"
)

func TestRuleScoreThreshold(t *testing.T) {
	rule, err := NewRule("candidate.score >= 0.5")
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		score float64
		want  bool
	}{
		{0.9, true},
		{0.5, true},
		{0.49, false},
	}
	for _, tt := range tests {
		got, err := rule.Match(core.NewCandidate(1, tt.score), nil)
		if err != nil {
			t.Fatal(err)
		}
		if got != tt.want {
			t.Fatalf("score %f: match = %v, want %v", tt.score, got, tt.want)
		}
	}
}

func TestRuleLabelShorthand(t *testing.T) {
	rule, err := NewRule(`label.channel == "ann"`)
	if err != nil {
		t.Fatal(err)
	}

	c := core.NewCandidate(1, 0.8)
	c.PutLabel("channel", utils.Label{Value: "ann", Source: "test"})

	got, err := rule.Match(c, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !got {
		t.Fatal("label shorthand did not match")
	}
}

func TestRuleQueryParamsNumericNormalization(t *testing.T) {
	// YAML/JSON 里解析出的 int 参数在规则里应能与 double 比较
	rule, err := NewRule("query.params.min_price >= 100.0")
	if err != nil {
		t.Fatal(err)
	}

	qctx := &core.QueryContext{
		UserID: 7,
		Params: map[string]any{"min_price": 150},
	}
	got, err := rule.Match(core.NewCandidate(1, 0.8), qctx)
	if err != nil {
		t.Fatal(err)
	}
	if !got {
		t.Fatal("int param did not compare against double literal")
	}
}

func TestEmptyRuleAlwaysMatches(t *testing.T) {
	rule, err := NewRule("")
	if err != nil {
		t.Fatal(err)
	}
	got, err := rule.Match(core.NewCandidate(1, 0), nil)
	if err != nil || !got {
		t.Fatalf("empty rule = (%v, %v), want (true, nil)", got, err)
	}
}

func TestInvalidRuleFailsToCompile(t *testing.T) {
	if _, err := NewRule("candidate.score >="); err == nil {
		t.Fatal("invalid expression compiled without error")
	}
}

func TestNonBooleanRuleRejectedAtEval(t *testing.T) {
	rule, err := NewRule("candidate.score + 1.0")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := rule.Match(core.NewCandidate(1, 0.5), nil); err == nil {
		t.Fatal("non-boolean rule evaluated without error")
	}
}
