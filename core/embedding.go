package core

import "context"

// Embedder 是文本嵌入模型的领域接口。
//
// 约定：空白输入返回空向量和 nil error，永远不因空输入报错；
// 调用方把空向量视作该路信号缺失，而不是硬错误。
//
// 实现：
//   - embedding.OpenAIEmbedder（OpenAI 兼容端点：bailian/dashscope 等）
type Embedder interface {
	// EmbedQuery 将查询文本转为固定维度向量
	EmbedQuery(ctx context.Context, text string) ([]float64, error)
}
