package filter

import (
	"context"
	"fmt"
	"time"

	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/pipeline"
	"github.com/rushteam/shoprec/pkg/utils"
)

// ExposedNode 是已曝光过滤节点，剔除用户近期已经看过的商品，
// 避免个性化列表反复推同一批。支持两种数据源：
//  1. 近期曝光 ID 列表（短周期、精确）- 通过 ExposedStore 获取
//  2. 布隆过滤器（长周期、按天分桶）- 通过 BloomChecker 检查
//
// 两者都可选；都未配置时节点等价于透传。
type ExposedNode struct {
	// Store 近期曝光列表来源（可选）
	Store ExposedStore

	// Bloom 布隆过滤器检查器（可选），按天分桶：
	// key 为 {KeyPrefix}:bloom:{userID}:{yyyy-MM-dd}
	Bloom BloomChecker

	// KeyPrefix 布隆过滤器 key 前缀，例如 "user:exposed"
	KeyPrefix string

	// DayWindow 布隆过滤器回看天数，0 表示不启用布隆检查
	DayWindow int

	// now 可注入时钟，便于测试
	now func() time.Time
}

// ExposedStore 是近期曝光存储接口。
type ExposedStore interface {
	// GetExposedItems 获取用户近期曝光过的商品 ID 列表
	GetExposedItems(ctx context.Context, userID int64) ([]int64, error)
}

// BloomChecker 是布隆过滤器检查接口。
// 返回 true 表示可能曝光过（存在误判），false 表示一定没有。
type BloomChecker interface {
	CheckInBloomFilter(ctx context.Context, key string, productID int64) (bool, error)
}

func (n *ExposedNode) Name() string        { return "filter.exposed" }
func (n *ExposedNode) Kind() pipeline.Kind { return pipeline.KindFilter }

func (n *ExposedNode) Process(
	ctx context.Context,
	qctx *core.QueryContext,
	candidates []*core.Candidate,
) ([]*core.Candidate, error) {
	if len(candidates) == 0 || qctx == nil || qctx.UserID == 0 {
		return candidates, nil
	}
	if n.Store == nil && (n.Bloom == nil || n.DayWindow <= 0) {
		return candidates, nil
	}

	// 精确列表整批拉一次，布隆检查按候选逐个做
	exposed := make(map[int64]struct{})
	if n.Store != nil {
		ids, err := n.Store.GetExposedItems(ctx, qctx.UserID)
		if err == nil {
			for _, id := range ids {
				exposed[id] = struct{}{}
			}
		}
		// 曝光数据拉取失败时失败开放：漏过滤好过整个请求失败
	}

	out := make([]*core.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c == nil {
			continue
		}
		if _, ok := exposed[c.ID]; ok {
			c.PutLabel("filtered", utils.Label{Value: "true", Source: n.Name()})
			continue
		}
		if n.inBloomWindow(ctx, qctx.UserID, c.ID) {
			c.PutLabel("filtered", utils.Label{Value: "true", Source: n.Name()})
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (n *ExposedNode) inBloomWindow(ctx context.Context, userID, productID int64) bool {
	if n.Bloom == nil || n.DayWindow <= 0 {
		return false
	}
	nowFn := n.now
	if nowFn == nil {
		nowFn = time.Now
	}
	today := nowFn()
	for d := 0; d < n.DayWindow; d++ {
		date := today.AddDate(0, 0, -d).Format("2006-01-02")
		key := fmt.Sprintf("%s:bloom:%d:%s", n.KeyPrefix, userID, date)
		hit, err := n.Bloom.CheckInBloomFilter(ctx, key, productID)
		if err != nil {
			continue
		}
		if hit {
			return true
		}
	}
	return false
}

var _ pipeline.Node = (*ExposedNode)(nil)
