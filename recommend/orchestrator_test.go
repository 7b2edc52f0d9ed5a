package recommend

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"

	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/fusion"
	"github.com/rushteam/shoprec/retrieval"
	"github.com/rushteam/shoprec/store"
)

type stubSignals struct {
	interests map[string]string
	grouped   map[core.BehaviorType][]core.BehaviorRecord
	keywords  []string
	purchased map[int64]struct{}
	err       error

	calls atomic.Int32
}

func (s *stubSignals) GetInterests(context.Context, int64) (map[string]string, error) {
	s.calls.Add(1)
	return s.interests, s.err
}

func (s *stubSignals) GetBehaviorsGrouped(context.Context, int64, int) (map[core.BehaviorType][]core.BehaviorRecord, error) {
	s.calls.Add(1)
	return s.grouped, s.err
}

func (s *stubSignals) GetSearchKeywords(context.Context, int64, int) ([]string, error) {
	s.calls.Add(1)
	return s.keywords, s.err
}

func (s *stubSignals) GetPurchasedProductIDs(context.Context, int64, int) (map[int64]struct{}, error) {
	s.calls.Add(1)
	return s.purchased, s.err
}

type stubCatalog struct {
	products map[int64]*core.Product
	hot      []*core.Product
	hotErr   error
}

func (s *stubCatalog) GetByIDs(_ context.Context, ids []int64) ([]*core.Product, error) {
	out := make([]*core.Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := s.products[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *stubCatalog) GetHotProducts(context.Context, int) ([]*core.Product, error) {
	return s.hot, s.hotErr
}

type stubEmbedder struct{ byText map[string][]float64 }

func (s *stubEmbedder) EmbedQuery(_ context.Context, text string) ([]float64, error) {
	return s.byText[text], nil
}

type failingVectorStore struct{ err error }

func (s *failingVectorStore) SearchByVector(context.Context, []float64, int, *core.SearchFilter) ([]core.VectorHit, error) {
	return nil, s.err
}
func (s *failingVectorStore) LookupByIDs(context.Context, []int64) (map[int64][]float64, error) {
	return nil, s.err
}
func (s *failingVectorStore) Close() error { return nil }

type flakySetCache struct {
	*store.MemoryVectorCache
	setErr error
}

func (c *flakySetCache) SetUserVector(context.Context, int64, []float64, int) error {
	return c.setErr
}

func catalogFor(ids ...int64) *stubCatalog {
	products := make(map[int64]*core.Product, len(ids))
	for _, id := range ids {
		products[id] = &core.Product{ID: id, Name: "p"}
	}
	return &stubCatalog{
		products: products,
		hot:      []*core.Product{{ID: 900, Name: "hot"}, {ID: 901, Name: "hot"}},
	}
}

func newTestEngine(
	cache core.VectorCache,
	vs core.VectorStore,
	sig core.SignalSource,
	catalog core.Catalog,
	emb core.Embedder,
) *Engine {
	cfg := core.DefaultEngineConfig()
	fus := fusion.NewEngine(vs, emb, cfg, zerolog.Nop())
	ret := retrieval.NewPipeline(vs, catalog, zerolog.Nop())
	return NewEngine(cache, sig, catalog, fus, ret, cfg, zerolog.Nop())
}

func TestRecommendCachedVectorSkipsSignalGather(t *testing.T) {
	ctx := context.Background()

	vs := store.NewMemoryVectorStore()
	vs.Add(1, []float64{1, 0})
	vs.Add(2, []float64{0.9, 0.1})

	cache := store.NewMemoryVectorCache(600)
	if err := cache.SetUserVector(ctx, 7, []float64{1, 0}, 0); err != nil {
		t.Fatal(err)
	}

	sig := &stubSignals{}
	e := newTestEngine(cache, vs, sig, catalogFor(1, 2), &stubEmbedder{})

	result := e.Recommend(ctx, 7, 10)
	if result.Strategy != core.StrategyPersonalized {
		t.Fatalf("strategy = %s, want personalized", result.Strategy)
	}
	if len(result.Products) != 2 {
		t.Fatalf("products = %d, want 2", len(result.Products))
	}
	// 缓存命中只拉已购集合这一路信号，不做完整采集
	if sig.calls.Load() != 1 {
		t.Fatalf("signal source called %d times, want 1 (purchased only)", sig.calls.Load())
	}
}

func TestRecommendCachedVectorStillExcludesPurchased(t *testing.T) {
	ctx := context.Background()

	vs := store.NewMemoryVectorStore()
	vs.Add(1, []float64{1, 0})
	vs.Add(2, []float64{0.9, 0.1})

	cache := store.NewMemoryVectorCache(600)
	if err := cache.SetUserVector(ctx, 7, []float64{1, 0}, 0); err != nil {
		t.Fatal(err)
	}

	sig := &stubSignals{purchased: map[int64]struct{}{1: {}}}
	e := newTestEngine(cache, vs, sig, catalogFor(1, 2), &stubEmbedder{})

	result := e.Recommend(ctx, 7, 10)
	if result.Strategy != core.StrategyPersonalized {
		t.Fatalf("strategy = %s, want personalized", result.Strategy)
	}
	for _, p := range result.Products {
		if p.ID == 1 {
			t.Fatal("purchased product 1 appeared on cached-vector path")
		}
	}
}

func TestRecommendStaleCachedVectorRecomputes(t *testing.T) {
	ctx := context.Background()

	vs := store.NewMemoryVectorStore()
	vs.Add(1, []float64{1, 0})
	vs.Add(2, []float64{0.9, 0.1})

	// 缓存了一个检索不到任何结果的向量，但用户有充足的新行为
	cache := store.NewMemoryVectorCache(600)
	if err := cache.SetUserVector(ctx, 7, []float64{0, 0}, 0); err != nil {
		t.Fatal(err)
	}

	sig := &stubSignals{
		grouped: map[core.BehaviorType][]core.BehaviorRecord{
			core.BehaviorView: {
				{UserID: 7, BehaviorType: core.BehaviorView, TargetType: core.TargetProduct, TargetID: 1},
				{UserID: 7, BehaviorType: core.BehaviorView, TargetType: core.TargetProduct, TargetID: 1},
				{UserID: 7, BehaviorType: core.BehaviorView, TargetType: core.TargetProduct, TargetID: 2},
			},
		},
	}
	e := newTestEngine(cache, vs, sig, catalogFor(1, 2), &stubEmbedder{})

	result := e.Recommend(ctx, 7, 10)
	if result.Strategy != core.StrategyPersonalized {
		t.Fatalf("strategy = %s, want personalized via recompute after empty cached-vector result", result.Strategy)
	}
	if len(result.Products) != 2 {
		t.Fatalf("products = %d, want 2", len(result.Products))
	}
	// 缓存命中后又做了完整采集：1 次已购 + 4 路信号
	if sig.calls.Load() != 5 {
		t.Fatalf("signal source called %d times, want 5", sig.calls.Load())
	}

	// 重算出的向量应覆盖过时缓存
	vector, err := cache.GetUserVector(ctx, 7)
	if err != nil {
		t.Fatal(err)
	}
	if len(vector) != 2 || vector[0] == 0 {
		t.Fatalf("cached vector = %v, want recomputed behavior vector", vector)
	}
}

func TestRecommendInsufficientBehaviorsColdStart(t *testing.T) {
	ctx := context.Background()

	sig := &stubSignals{
		grouped: map[core.BehaviorType][]core.BehaviorRecord{
			core.BehaviorView: {
				{UserID: 7, BehaviorType: core.BehaviorView, TargetType: core.TargetProduct, TargetID: 1},
				{UserID: 7, BehaviorType: core.BehaviorView, TargetType: core.TargetProduct, TargetID: 2},
			},
		},
	}
	e := newTestEngine(store.NewMemoryVectorCache(600), store.NewMemoryVectorStore(), sig, catalogFor(), &stubEmbedder{})

	result := e.Recommend(ctx, 7, 10)
	if result.Strategy != core.StrategyColdStart {
		t.Fatalf("strategy = %s, want cold_start", result.Strategy)
	}
	if len(result.Products) != 2 || result.Products[0].ID != 900 {
		t.Fatalf("products = %v, want hot products", result.Products)
	}
}

func TestRecommendPersonalizedExcludesPurchased(t *testing.T) {
	ctx := context.Background()

	vs := store.NewMemoryVectorStore()
	vs.Add(1, []float64{1, 0})
	vs.Add(2, []float64{0.95, 0.05})
	vs.Add(3, []float64{0.9, 0.1})

	sig := &stubSignals{
		grouped: map[core.BehaviorType][]core.BehaviorRecord{
			core.BehaviorView: {
				{UserID: 42, BehaviorType: core.BehaviorView, TargetType: core.TargetProduct, TargetID: 2},
				{UserID: 42, BehaviorType: core.BehaviorView, TargetType: core.TargetProduct, TargetID: 3},
			},
			core.BehaviorPurchase: {
				{UserID: 42, BehaviorType: core.BehaviorPurchase, TargetType: core.TargetProduct, TargetID: 1},
			},
		},
		purchased: map[int64]struct{}{1: {}},
	}
	cache := store.NewMemoryVectorCache(600)
	e := newTestEngine(cache, vs, sig, catalogFor(1, 2, 3), &stubEmbedder{})

	result := e.Recommend(ctx, 42, 10)
	if result.Strategy != core.StrategyPersonalized {
		t.Fatalf("strategy = %s, want personalized", result.Strategy)
	}
	for _, p := range result.Products {
		if p.ID == 1 {
			t.Fatal("purchased product 1 appeared in recommendations")
		}
	}
	if len(result.Products) != 2 {
		t.Fatalf("products = %d, want 2", len(result.Products))
	}

	// 个性化成功后用户向量应已写入缓存
	if _, err := cache.GetUserVector(ctx, 42); err != nil {
		t.Fatalf("user vector not cached: %v", err)
	}
}

func TestRecommendCacheWriteFailureIgnored(t *testing.T) {
	ctx := context.Background()

	vs := store.NewMemoryVectorStore()
	vs.Add(1, []float64{1, 0})
	vs.Add(2, []float64{0.9, 0.1})
	vs.Add(3, []float64{0.8, 0.2})

	sig := &stubSignals{
		grouped: map[core.BehaviorType][]core.BehaviorRecord{
			core.BehaviorView: {
				{UserID: 7, BehaviorType: core.BehaviorView, TargetType: core.TargetProduct, TargetID: 1},
				{UserID: 7, BehaviorType: core.BehaviorView, TargetType: core.TargetProduct, TargetID: 2},
				{UserID: 7, BehaviorType: core.BehaviorView, TargetType: core.TargetProduct, TargetID: 3},
			},
		},
	}
	cache := &flakySetCache{
		MemoryVectorCache: store.NewMemoryVectorCache(600),
		setErr:            errors.New("redis down"),
	}
	e := newTestEngine(cache, vs, sig, catalogFor(1, 2, 3), &stubEmbedder{})

	result := e.Recommend(ctx, 7, 10)
	if result.Strategy != core.StrategyPersonalized {
		t.Fatalf("strategy = %s, want personalized despite cache write failure", result.Strategy)
	}
}

func TestRecommendDegradeToFallbackOnRetrievalError(t *testing.T) {
	ctx := context.Background()

	cache := store.NewMemoryVectorCache(600)
	if err := cache.SetUserVector(ctx, 7, []float64{1, 0}, 0); err != nil {
		t.Fatal(err)
	}

	vs := &failingVectorStore{err: errors.New("index down")}
	e := newTestEngine(cache, vs, &stubSignals{}, catalogFor(), &stubEmbedder{})

	result := e.Recommend(ctx, 7, 10)
	if result.Strategy != core.StrategyFallback {
		t.Fatalf("strategy = %s, want fallback", result.Strategy)
	}
	if len(result.Products) != 2 {
		t.Fatalf("products = %d, want hot products as fallback", len(result.Products))
	}
}

func TestRecommendFallbackEmptyWhenHotAlsoFails(t *testing.T) {
	ctx := context.Background()

	cache := store.NewMemoryVectorCache(600)
	if err := cache.SetUserVector(ctx, 7, []float64{1, 0}, 0); err != nil {
		t.Fatal(err)
	}

	catalog := &stubCatalog{hotErr: errors.New("catalog down")}
	vs := &failingVectorStore{err: errors.New("index down")}
	e := newTestEngine(cache, vs, &stubSignals{}, catalog, &stubEmbedder{})

	result := e.Recommend(ctx, 7, 10)
	if result.Strategy != core.StrategyFallback {
		t.Fatalf("strategy = %s, want fallback", result.Strategy)
	}
	if result.Products == nil || len(result.Products) != 0 {
		t.Fatalf("products = %v, want empty non-nil slice", result.Products)
	}
}

func TestRecommendAllSignalsFailColdStart(t *testing.T) {
	ctx := context.Background()

	sig := &stubSignals{err: errors.New("user service down")}
	e := newTestEngine(store.NewMemoryVectorCache(600), store.NewMemoryVectorStore(), sig, catalogFor(), &stubEmbedder{})

	result := e.Recommend(ctx, 7, 10)
	if result.Strategy != core.StrategyColdStart {
		t.Fatalf("strategy = %s, want cold_start", result.Strategy)
	}
}

func TestSimilarProductsExcludesSelfAndFloor(t *testing.T) {
	ctx := context.Background()

	vs := store.NewMemoryVectorStore()
	vs.Add(1, []float64{1, 0})
	vs.Add(2, []float64{0.98, 0.199})
	vs.Add(3, []float64{0, 1}) // 与商品 1 正交，低于阈值

	e := newTestEngine(store.NewMemoryVectorCache(600), vs, &stubSignals{}, catalogFor(1, 2, 3), &stubEmbedder{})

	products := e.SimilarProducts(ctx, 1, 10)
	if len(products) != 1 || products[0].ID != 2 {
		t.Fatalf("SimilarProducts = %v, want only product 2", products)
	}
}

func TestSimilarProductsUnknownProduct(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(store.NewMemoryVectorCache(600), store.NewMemoryVectorStore(), &stubSignals{}, catalogFor(), &stubEmbedder{})

	products := e.SimilarProducts(ctx, 999, 10)
	if products == nil || len(products) != 0 {
		t.Fatalf("SimilarProducts = %v, want empty non-nil slice", products)
	}
}

func TestRefreshUserVector(t *testing.T) {
	ctx := context.Background()

	vs := store.NewMemoryVectorStore()
	vs.Add(1, []float64{1, 0})

	sig := &stubSignals{
		grouped: map[core.BehaviorType][]core.BehaviorRecord{
			core.BehaviorView: {
				{UserID: 7, BehaviorType: core.BehaviorView, TargetType: core.TargetProduct, TargetID: 1},
				{UserID: 7, BehaviorType: core.BehaviorView, TargetType: core.TargetProduct, TargetID: 1},
				{UserID: 7, BehaviorType: core.BehaviorView, TargetType: core.TargetProduct, TargetID: 1},
			},
		},
	}
	cache := store.NewMemoryVectorCache(600)
	e := newTestEngine(cache, vs, sig, catalogFor(1), &stubEmbedder{})

	if err := e.RefreshUserVector(ctx, 7); err != nil {
		t.Fatal(err)
	}
	vector, err := cache.GetUserVector(ctx, 7)
	if err != nil {
		t.Fatal(err)
	}
	if len(vector) != 2 || vector[0] != 1 {
		t.Fatalf("cached vector = %v", vector)
	}

	// 信号消失后刷新静默跳过，旧缓存留给 TTL 过期
	sig.grouped = nil
	if err := e.RefreshUserVector(ctx, 7); err != nil {
		t.Fatal(err)
	}
	if _, err := cache.GetUserVector(ctx, 7); err != nil {
		t.Fatalf("err = %v, cached vector should survive a skipped refresh", err)
	}
}

func TestRecommendKeywordsAloneSufficient(t *testing.T) {
	ctx := context.Background()

	vs := store.NewMemoryVectorStore()
	vs.Add(1, []float64{1, 0})
	vs.Add(2, []float64{0.9, 0.1})

	sig := &stubSignals{keywords: []string{"蓝牙耳机"}}
	emb := &stubEmbedder{byText: map[string][]float64{"蓝牙耳机": {1, 0}}}
	e := newTestEngine(store.NewMemoryVectorCache(600), vs, sig, catalogFor(1, 2), emb)

	result := e.Recommend(ctx, 7, 10)
	if result.Strategy != core.StrategyPersonalized {
		t.Fatalf("strategy = %s, want personalized from keywords alone", result.Strategy)
	}
	if len(result.Products) != 2 {
		t.Fatalf("products = %d, want 2", len(result.Products))
	}
}

func TestRecommendEmptyHotProductsFallback(t *testing.T) {
	ctx := context.Background()

	catalog := &stubCatalog{} // 没有热门商品
	e := newTestEngine(store.NewMemoryVectorCache(600), store.NewMemoryVectorStore(), &stubSignals{}, catalog, &stubEmbedder{})

	result := e.Recommend(ctx, 7, 10)
	if result.Strategy != core.StrategyFallback {
		t.Fatalf("strategy = %s, want fallback when hot products are empty", result.Strategy)
	}
	if result.Products == nil || len(result.Products) != 0 {
		t.Fatalf("products = %v, want empty non-nil slice", result.Products)
	}
}
