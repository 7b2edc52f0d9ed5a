package store

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/rushteam/shoprec/core"
)

// MemoryVectorStore 是内存实现的商品向量索引，用于测试和原型。
// 检索为全量暴力余弦，只适合小数据集。
//
// 确保实现了 core.VectorStore 接口
var _ core.VectorStore = (*MemoryVectorStore)(nil)

type MemoryVectorStore struct {
	mu         sync.RWMutex
	embeddings map[int64][]float64
}

// NewMemoryVectorStore 创建内存向量索引。
func NewMemoryVectorStore() *MemoryVectorStore {
	return &MemoryVectorStore{
		embeddings: make(map[int64][]float64),
	}
}

// Add 写入/覆盖一个商品向量。
func (s *MemoryVectorStore) Add(productID int64, vector []float64) {
	stored := make([]float64, len(vector))
	copy(stored, vector)

	s.mu.Lock()
	s.embeddings[productID] = stored
	s.mu.Unlock()
}

// SearchByVector 暴力计算余弦相似度，返回按相似度降序的 topK 命中。
func (s *MemoryVectorStore) SearchByVector(
	_ context.Context,
	vector []float64,
	topK int,
	filter *core.SearchFilter,
) ([]core.VectorHit, error) {
	if len(vector) == 0 || topK <= 0 {
		return nil, nil
	}

	var restrict map[int64]struct{}
	if filter != nil && len(filter.RestrictIDs) > 0 {
		restrict = make(map[int64]struct{}, len(filter.RestrictIDs))
		for _, id := range filter.RestrictIDs {
			restrict[id] = struct{}{}
		}
	}

	s.mu.RLock()
	hits := make([]core.VectorHit, 0, len(s.embeddings))
	for id, emb := range s.embeddings {
		if restrict != nil {
			if _, ok := restrict[id]; !ok {
				continue
			}
		}
		score, ok := cosineSimilarity(vector, emb)
		if !ok {
			continue
		}
		hits = append(hits, core.VectorHit{ProductID: id, Score: score})
	}
	s.mu.RUnlock()

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		// 分数相同按 ID 升序，保证结果可复现
		return hits[i].ProductID < hits[j].ProductID
	})
	if len(hits) > topK {
		hits = hits[:topK]
	}
	return hits, nil
}

// LookupByIDs 批量点查，不存在的 ID 不出现在结果中。
func (s *MemoryVectorStore) LookupByIDs(_ context.Context, ids []int64) (map[int64][]float64, error) {
	out := make(map[int64][]float64, len(ids))

	s.mu.RLock()
	for _, id := range ids {
		if emb, ok := s.embeddings[id]; ok {
			vec := make([]float64, len(emb))
			copy(vec, emb)
			out[id] = vec
		}
	}
	s.mu.RUnlock()
	return out, nil
}

func (s *MemoryVectorStore) Close() error {
	s.mu.Lock()
	s.embeddings = make(map[int64][]float64)
	s.mu.Unlock()
	return nil
}

// cosineSimilarity 计算两个向量的余弦相似度。
// 维度不一致或任一为零向量时返回 (0, false)。
func cosineSimilarity(a, b []float64) (float64, bool) {
	if len(a) == 0 || len(a) != len(b) {
		return 0, false
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0, false
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), true
}
