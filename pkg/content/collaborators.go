package content

import "context"

// Generator 文本生成协作方，由 llm_provider 客户端实现
type Generator interface {
	// Generate 生成文本
	Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error)
	// GenerateStructured 生成并解析 JSON 结构化输出
	GenerateStructured(ctx context.Context, systemPrompt, userPrompt string, out interface{}) error
	// ModelName 客户端绑定的模型名
	ModelName() string
}

// GeneratorResolver 按阶段解析生成客户端
type GeneratorResolver interface {
	// ResolveGenerator 按模型名取客户端，模型不可用时返回错误
	ResolveGenerator(model string) (Generator, error)
}

// AssetSearcher 素材检索协作方，未命中时返回 nil, nil
type AssetSearcher interface {
	SearchAsset(ctx context.Context, query string) (url string, found bool, err error)
}

// Publisher 发布协作方
type Publisher interface {
	// Publish 发布内容，返回外部 ID 和访问地址
	Publish(ctx context.Context, taskID, title, body string, tags []string) (externalID, publishedURL string, err error)
}

// CostRecorder 成本记录协作方，记录失败只影响遥测，不影响任务
type CostRecorder interface {
	Record(ctx context.Context, taskID string, phase PhaseName, amount float64)
}
