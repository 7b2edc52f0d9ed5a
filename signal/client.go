// Package signal 提供用户信号源与商品目录的上游客户端实现：
// 用户服务 / 商品服务的 REST 客户端，以及兴趣改走 Feast 特征库的装饰器。
package signal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rushteam/shoprec/core"
)

// resultEnvelope 是上游微服务的统一响应包装。
type resultEnvelope[T any] struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Success bool   `json:"success"`
	Data    T      `json:"data"`
}

// restClient 封装上游 REST 调用的公共部分：超时、JSON 编解码、
// 响应包装解析、trace 透传。
type restClient struct {
	baseURL string
	http    *http.Client
}

func newRESTClient(baseURL string, timeout time.Duration) *restClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &restClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

// traceIDKey 是 context 中 trace ID 的 key 类型。
type traceIDKey struct{}

// WithTraceID 在 context 中携带 trace ID，随上游调用透传。
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey{}, traceID)
}

func traceIDFrom(ctx context.Context) string {
	if v, ok := ctx.Value(traceIDKey{}).(string); ok {
		return v
	}
	return ""
}

func (c *restClient) do(ctx context.Context, method, path string, body any) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if traceID := traceIDFrom(ctx); traceID != "" {
		req.Header.Set("X-Trace-Id", traceID)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, core.NewDomainError(core.ModuleSignal, core.ErrorCodeUnavailable,
			fmt.Sprintf("signal: call %s %s: %v", method, path, err))
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, core.NewDomainError(core.ModuleSignal, core.ErrorCodeUnavailable,
			fmt.Sprintf("signal: %s %s returned status %d", method, path, resp.StatusCode))
	}
	return data, nil
}

// decodeEnvelope 解析统一响应包装，success=false 按上游失败处理。
func decodeEnvelope[T any](data []byte) (T, error) {
	var envelope resultEnvelope[T]
	if err := json.Unmarshal(data, &envelope); err != nil {
		var zero T
		return zero, fmt.Errorf("decode response envelope: %w", err)
	}
	if !envelope.Success {
		var zero T
		return zero, core.NewDomainError(core.ModuleSignal, core.ErrorCodeUnavailable,
			fmt.Sprintf("signal: upstream error %d: %s", envelope.Code, envelope.Message))
	}
	return envelope.Data, nil
}
