package signal

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	feastsdk "github.com/feast-dev/feast/sdk/go"

	"github.com/rushteam/shoprec/core"
)

// FeastInterestSource 是 core.SignalSource 的装饰器：兴趣标签改从
// Feast 特征库在线读取，其余信号透传给被装饰的信号源。
//
// 特征库不可用或返回空时回退到原信号源的兴趣接口，
// 保持"信号缺失可降级"的整体约定。
type FeastInterestSource struct {
	core.SignalSource

	client  *feastsdk.GrpcClient
	project string

	// featureRefs 形如 "user_profile:interest_category" 的特征引用
	featureRefs []string

	// entityKey 实体键名，默认 "user_id"
	entityKey string
}

// NewFeastInterestSource 创建 Feast 兴趣装饰器。
func NewFeastInterestSource(
	base core.SignalSource,
	host string,
	port int,
	project string,
	featureRefs []string,
) (*FeastInterestSource, error) {
	if port == 0 {
		port = 6565
	}
	client, err := feastsdk.NewGrpcClient(host, port)
	if err != nil {
		return nil, fmt.Errorf("create feast client: %w", err)
	}
	return &FeastInterestSource{
		SignalSource: base,
		client:       client,
		project:      project,
		featureRefs:  featureRefs,
		entityKey:    "user_id",
	}, nil
}

// GetInterests 从 Feast 在线特征读取兴趣标签。
// 特征名取引用的最后一段作为标签 code，值转为字符串作为展示名。
func (s *FeastInterestSource) GetInterests(ctx context.Context, userID int64) (map[string]string, error) {
	if s.client == nil || len(s.featureRefs) == 0 {
		return s.SignalSource.GetInterests(ctx, userID)
	}

	req := &feastsdk.OnlineFeaturesRequest{
		Features: s.featureRefs,
		Entities: []feastsdk.Row{
			{s.entityKey: feastsdk.Int64Val(userID)},
		},
		Project: s.project,
	}

	resp, err := s.client.GetOnlineFeatures(ctx, req)
	if err != nil {
		// 特征库故障回退到原信号源
		return s.SignalSource.GetInterests(ctx, userID)
	}

	rows := resp.Rows()
	if len(rows) == 0 {
		return s.SignalSource.GetInterests(ctx, userID)
	}

	out := make(map[string]string)
	row := rows[0]
	for _, ref := range s.featureRefs {
		// 不同版本的 SDK 响应里 key 可能是完整引用或短名
		val, exists := row[ref]
		if !exists {
			val, exists = row[featureName(ref)]
		}
		if !exists || val == nil {
			continue
		}
		if str := stringifyFeatureValue(val); str != "" {
			out[featureName(ref)] = str
		}
	}
	if len(out) == 0 {
		return s.SignalSource.GetInterests(ctx, userID)
	}
	return out, nil
}

// featureName 取特征引用 "view:name" 的 name 部分。
func featureName(ref string) string {
	if idx := strings.LastIndex(ref, ":"); idx >= 0 {
		return ref[idx+1:]
	}
	return ref
}

// stringifyFeatureValue 把 Feast 特征值转为字符串，空值返回 ""。
func stringifyFeatureValue(val interface{}) string {
	switch v := val.(type) {
	case string:
		return v
	case int64:
		return strconv.FormatInt(v, 10)
	case int32:
		return strconv.FormatInt(int64(v), 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case bool:
		return strconv.FormatBool(v)
	case []byte:
		return string(v)
	case nil:
		return ""
	default:
		// SDK 的 Row 值是 protobuf Value 类型，优先用 getter 提取
		type stringGetter interface{ GetStringVal() string }
		type int64Getter interface{ GetInt64Val() int64 }
		type doubleGetter interface{ GetDoubleVal() float64 }
		if g, ok := val.(stringGetter); ok {
			if s := g.GetStringVal(); s != "" {
				return s
			}
		}
		if g, ok := val.(int64Getter); ok {
			if n := g.GetInt64Val(); n != 0 {
				return strconv.FormatInt(n, 10)
			}
		}
		if g, ok := val.(doubleGetter); ok {
			if f := g.GetDoubleVal(); f != 0 {
				return strconv.FormatFloat(f, 'f', -1, 64)
			}
		}
		return fmt.Sprintf("%v", val)
	}
}

var _ core.SignalSource = (*FeastInterestSource)(nil)
