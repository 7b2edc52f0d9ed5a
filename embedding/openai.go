// Package embedding 提供 core.Embedder 的 OpenAI 兼容实现。
// BaseURL 可替换为任何 OpenAI 兼容的推理服务（本地网关、私有化部署等）。
package embedding

import (
	"context"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/rushteam/shoprec/core"
)

// OpenAIEmbedder 通过 OpenAI 兼容 API 生成文本向量。
//
// 确保实现了 core.Embedder 接口
var _ core.Embedder = (*OpenAIEmbedder)(nil)

type OpenAIEmbedder struct {
	client *openai.Client
	model  openai.EmbeddingModel

	// dimensions 输出维度，0 表示使用模型默认维度
	dimensions int
}

// OpenAIOption 配置选项
type OpenAIOption func(*openAIOptions)

type openAIOptions struct {
	baseURL    string
	model      string
	dimensions int
}

// WithBaseURL 指定 OpenAI 兼容服务地址
func WithBaseURL(baseURL string) OpenAIOption {
	return func(o *openAIOptions) { o.baseURL = baseURL }
}

// WithModel 指定 embedding 模型
func WithModel(model string) OpenAIOption {
	return func(o *openAIOptions) { o.model = model }
}

// WithDimensions 指定输出维度（需索引端维度一致）
func WithDimensions(dim int) OpenAIOption {
	return func(o *openAIOptions) { o.dimensions = dim }
}

// NewOpenAIEmbedder 创建 OpenAI 兼容的文本向量生成器。
func NewOpenAIEmbedder(apiKey string, opts ...OpenAIOption) *OpenAIEmbedder {
	options := &openAIOptions{
		model: string(openai.SmallEmbedding3),
	}
	for _, opt := range opts {
		opt(options)
	}

	clientConfig := openai.DefaultConfig(apiKey)
	if options.baseURL != "" {
		clientConfig.BaseURL = options.baseURL
	}

	return &OpenAIEmbedder{
		client:     openai.NewClientWithConfig(clientConfig),
		model:      openai.EmbeddingModel(options.model),
		dimensions: options.dimensions,
	}
}

// EmbedQuery 生成单条文本的向量。空文本返回空向量，不报错：
// 调用方把空向量当作该路信号缺失处理。
func (e *OpenAIEmbedder) EmbedQuery(ctx context.Context, text string) ([]float64, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	req := openai.EmbeddingRequest{
		Input: []string{text},
		Model: e.model,
	}
	if e.dimensions > 0 {
		req.Dimensions = e.dimensions
	}

	resp, err := e.client.CreateEmbeddings(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("create embeddings failed: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, core.NewDomainError(core.ModuleEmbedding, core.ErrorCodeInternalError, "embedding: empty response")
	}

	raw := resp.Data[0].Embedding
	out := make([]float64, len(raw))
	for i, v := range raw {
		out[i] = float64(v)
	}
	return out, nil
}
