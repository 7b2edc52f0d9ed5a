package core

import "github.com/rushteam/shoprec/pkg/utils"

// Candidate 是检索-过滤链路中的统一承载结构：商品 ID、相似度分数、标签。
// Labels 用于解释与观测；Score 用于阈值过滤与排序。
type Candidate struct {
	ID     int64
	Score  float64
	Labels map[string]utils.Label
}

func NewCandidate(id int64, score float64) *Candidate {
	return &Candidate{
		ID:     id,
		Score:  score,
		Labels: make(map[string]utils.Label),
	}
}

// PutLabel 写入 Label；若已存在同名 key，则按默认 Merge 规则累积。
func (c *Candidate) PutLabel(key string, lbl utils.Label) {
	if c.Labels == nil {
		c.Labels = make(map[string]utils.Label)
	}
	if old, ok := c.Labels[key]; ok {
		c.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	c.Labels[key] = lbl
}
