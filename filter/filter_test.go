package filter

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/pkg/utils"
)

func candidates(pairs ...float64) []*core.Candidate {
	out := make([]*core.Candidate, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, core.NewCandidate(int64(pairs[i]), pairs[i+1]))
	}
	return out
}

func ids(cs []*core.Candidate) []int64 {
	out := make([]int64, 0, len(cs))
	for _, c := range cs {
		out = append(out, c.ID)
	}
	return out
}

func TestFilterNodeCombinesFilters(t *testing.T) {
	node := &FilterNode{Filters: []Filter{
		&SimilarityFloorFilter{Floor: 0.45},
		&ExcludeFilter{IDs: map[int64]struct{}{2: {}}},
	}}

	qctx := &core.QueryContext{UserID: 7}
	out, err := node.Process(context.Background(), qctx, candidates(1, 0.9, 2, 0.8, 3, 0.3))
	if err != nil {
		t.Fatal(err)
	}
	got := ids(out)
	if len(got) != 1 || got[0] != 1 {
		t.Fatalf("kept = %v, want [1]", got)
	}
}

type erroringFilter struct{}

func (erroringFilter) Name() string { return "filter.error" }
func (erroringFilter) ShouldFilter(context.Context, *core.QueryContext, *core.Candidate) (bool, error) {
	return true, errors.New("boom")
}

func TestFilterNodeFailOpen(t *testing.T) {
	node := &FilterNode{Filters: []Filter{erroringFilter{}}}

	out, err := node.Process(context.Background(), nil, candidates(1, 0.9))
	if err != nil {
		t.Fatal(err)
	}
	// 过滤器出错时跳过该过滤器，候选保留
	if len(out) != 1 {
		t.Fatalf("kept = %d, want 1 (fail open)", len(out))
	}
}

func TestExcludeFilterRequestScope(t *testing.T) {
	f := &ExcludeFilter{}
	qctx := &core.QueryContext{ExcludeIDs: map[int64]struct{}{5: {}}}

	drop, err := f.ShouldFilter(context.Background(), qctx, core.NewCandidate(5, 0.9))
	if err != nil || !drop {
		t.Fatalf("ShouldFilter(5) = (%v, %v), want (true, nil)", drop, err)
	}
	drop, err = f.ShouldFilter(context.Background(), qctx, core.NewCandidate(6, 0.9))
	if err != nil || drop {
		t.Fatalf("ShouldFilter(6) = (%v, %v), want (false, nil)", drop, err)
	}
}

func TestDedupNodeMergesLabels(t *testing.T) {
	first := core.NewCandidate(1, 0.9)
	first.PutLabel("channel", utils.Label{Value: "ann", Source: "recall"})
	dup := core.NewCandidate(1, 0.7)
	dup.PutLabel("channel", utils.Label{Value: "hot", Source: "ops"})
	other := core.NewCandidate(2, 0.8)

	node := &DedupNode{}
	out, err := node.Process(context.Background(), nil, []*core.Candidate{first, dup, other})
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 2 || out[0].ID != 1 || out[1].ID != 2 {
		t.Fatalf("deduped = %v", ids(out))
	}
	if out[0].Score != 0.9 {
		t.Fatalf("kept score = %f, want first occurrence 0.9", out[0].Score)
	}
	merged := out[0].Labels["channel"]
	if merged.Value != "ann|hot" {
		t.Fatalf("merged label = %q, want accumulated values", merged.Value)
	}
}

func TestRuleFilterDropsNonMatching(t *testing.T) {
	f, err := NewRuleFilter("candidate.score >= 0.5")
	if err != nil {
		t.Fatal(err)
	}

	drop, err := f.ShouldFilter(context.Background(), nil, core.NewCandidate(1, 0.3))
	if err != nil || !drop {
		t.Fatalf("low score: (%v, %v), want (true, nil)", drop, err)
	}
	drop, err = f.ShouldFilter(context.Background(), nil, core.NewCandidate(2, 0.8))
	if err != nil || drop {
		t.Fatalf("high score: (%v, %v), want (false, nil)", drop, err)
	}
}

type stubExposedStore struct{ exposed []int64 }

func (s *stubExposedStore) GetExposedItems(context.Context, int64) ([]int64, error) {
	return s.exposed, nil
}

type stubBloom struct{ hits map[string]map[int64]bool }

func (s *stubBloom) CheckInBloomFilter(_ context.Context, key string, productID int64) (bool, error) {
	return s.hits[key][productID], nil
}

func TestExposedNodeStoreAndBloom(t *testing.T) {
	now := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
	node := &ExposedNode{
		Store: &stubExposedStore{exposed: []int64{2}},
		Bloom: &stubBloom{hits: map[string]map[int64]bool{
			"user:exposed:bloom:7:2026-08-23": {3: true},
		}},
		KeyPrefix: "user:exposed",
		DayWindow: 3,
		now:       func() time.Time { return now },
	}

	qctx := &core.QueryContext{UserID: 7}
	out, err := node.Process(context.Background(), qctx, candidates(1, 0.9, 2, 0.8, 3, 0.7))
	if err != nil {
		t.Fatal(err)
	}
	// 2 在精确曝光列表，3 命中昨天的布隆分桶
	got := ids(out)
	if len(got) != 1 || got[0] != 1 {
		t.Fatalf("kept = %v, want [1]", got)
	}
}

func TestExposedNodeAnonymousPassthrough(t *testing.T) {
	node := &ExposedNode{Store: &stubExposedStore{exposed: []int64{1}}}

	out, err := node.Process(context.Background(), &core.QueryContext{UserID: 0}, candidates(1, 0.9))
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 1 {
		t.Fatal("anonymous request should not be exposure-filtered")
	}
}
