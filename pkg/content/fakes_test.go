package content

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fakeGenerator 测试用生成客户端
type fakeGenerator struct {
	name         string
	generateFn   func(systemPrompt, userPrompt string) (string, error)
	structuredFn func(systemPrompt, userPrompt string, out interface{}) error
	calls        int
}

func (g *fakeGenerator) Generate(_ context.Context, systemPrompt, userPrompt string) (string, error) {
	g.calls++
	if g.generateFn == nil {
		return "生成结果", nil
	}
	return g.generateFn(systemPrompt, userPrompt)
}

func (g *fakeGenerator) GenerateStructured(_ context.Context, systemPrompt, userPrompt string, out interface{}) error {
	g.calls++
	if g.structuredFn == nil {
		return fmt.Errorf("no structured handler")
	}
	return g.structuredFn(systemPrompt, userPrompt, out)
}

func (g *fakeGenerator) ModelName() string {
	return g.name
}

// structuredScores 构造固定打分的结构化评估回调
func structuredScores(score float64, suggestions ...string) func(string, string, interface{}) error {
	return func(_, _ string, out interface{}) error {
		result := map[string]interface{}{
			"clarity": score, "accuracy": score, "completeness": score,
			"relevance": score, "seo": score, "readability": score, "engagement": score,
			"feedback":    "测试反馈",
			"suggestions": suggestions,
		}
		data, _ := json.Marshal(result)
		return json.Unmarshal(data, out)
	}
}

// fakePublisher 测试用发布端
type fakePublisher struct {
	failTimes int
	published int
}

func (p *fakePublisher) Publish(_ context.Context, taskID, _, _ string, _ []string) (string, string, error) {
	if p.failTimes > 0 {
		p.failTimes--
		return "", "", fmt.Errorf("cms unavailable")
	}
	p.published++
	return "ext-" + taskID, "https://cms.example.com/articles/" + taskID, nil
}

// sampleArticle 构造满足全部规则检查的文章
func sampleArticle(topic string, target int) string {
	article := fmt.Sprintf(`# %s实战指南

%s是当下值得深入研究的方向，%s的应用场景也越来越多。

## 背景
先交代背景和问题。

## 实践步骤
- 第一步：明确目标
- 第二步：动手验证
例如先跑通最小示例。

## 进阶建议
持续迭代并记录结论。

## 总结
以上就是全部内容，欢迎关注了解更多。
`, topic, topic, topic)
	for countWords(article) < target {
		article += "这里再补充一些具体的细节说明。\n"
	}
	return article
}

// newTestFileStore 创建临时目录上的文件存储
func newTestFileStore(t *testing.T) *FileStore {
	tmpDir, err := os.MkdirTemp("", "content_store_test_*")
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.RemoveAll(tmpDir) })

	store, err := NewFileStore(tmpDir)
	require.NoError(t, err)
	return store
}

// newTestTask 创建一个待处理任务
func newTestTask(id, topic string) *Task {
	now := time.Now()
	return &Task{
		ID:     id,
		Topic:  topic,
		Status: TaskStatusPending,
		Params: GenerationParams{
			Topic:             topic,
			TargetLength:      100,
			QualityPreference: TierBalanced,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// testEngineConfig 测试用引擎配置，退避和轮询间隔压到最小
func testEngineConfig() *EngineConfig {
	cfg := DefaultEngineConfig()
	cfg.PhaseTimeout = 2 * time.Second
	cfg.PhaseRetries = 1
	cfg.RetryBackoff = time.Millisecond
	cfg.PollInterval = 10 * time.Millisecond
	cfg.Workers = 1
	return cfg
}
