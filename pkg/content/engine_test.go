package content

import (
	"context"
	"fmt"
	"testing"
	"time"

	"ai_content/model"
	"ai_content/pkg/clients/llm_provider"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pipelineGenerator 按阶段提示词分发的生成客户端
func pipelineGenerator(topic string, target int) *fakeGenerator {
	return &fakeGenerator{
		name: "deepseek-chat",
		generateFn: func(systemPrompt, _ string) (string, error) {
			switch systemPrompt {
			case ResearchSystemPrompt:
				return "研究提纲：要点一、要点二", nil
			default:
				return sampleArticle(topic, target), nil
			}
		},
	}
}

func newTestEngine(t *testing.T, generator Generator, cfg *EngineConfig) (*Engine, *FileStore) {
	store := newTestFileStore(t)
	selector := NewModelSelector([]ProviderEntry{
		{Name: llm_provider.ProviderDeepseek, Generator: generator},
		{Name: llm_provider.ProviderLocal, Generator: generator},
		{Name: llm_provider.ProviderOpenAI},
	})
	evaluator := NewQualityEvaluator(EvalModePattern, cfg.QualityThreshold)
	registry := NewHandlerRegistry(evaluator, nil)
	engine := NewEngine(cfg, store, selector, registry, NewBroker(), LogCostRecorder{})
	return engine, store
}

// createGeneratingTask 建任务并迁移到执行中
func createGeneratingTask(t *testing.T, store Store, id, topic string) {
	require.NoError(t, store.Create(newTestTask(id, topic)))
	_, err := store.Update(id, func(task *Task) error {
		task.Status = TaskStatusGenerating
		return nil
	})
	require.NoError(t, err)
}

func TestRunPipelineHappyPath(t *testing.T) {
	cfg := testEngineConfig()
	engine, store := newTestEngine(t, pipelineGenerator("Go 并发", 100), cfg)
	createGeneratingTask(t, store, "task-1", "Go 并发")

	require.NoError(t, engine.RunPipeline(context.Background(), "task-1"))

	task, err := store.Get("task-1")
	require.NoError(t, err)
	assert.Equal(t, TaskStatusAwaitingApproval, task.Status)
	assert.NotEmpty(t, task.Content)
	assert.NotEmpty(t, task.ResearchNotes)
	// 首轮评估即达标，不进改写循环
	assert.Len(t, task.QualityHistory, 1)
	assert.True(t, task.QualityHistory[0].Passed)
	assert.Zero(t, task.IterationCount)
	assert.False(t, task.QualityGateExhausted)
	// deepseek 有单价，实际成本应大于零
	assert.Greater(t, task.CostActual, 0.0)
}

func TestRunPipelineQualityExhausted(t *testing.T) {
	cfg := testEngineConfig()
	// 所有阶段都产出不达标的内容
	generator := &fakeGenerator{
		name: "deepseek-chat",
		generateFn: func(_, _ string) (string, error) {
			return "短文。", nil
		},
	}
	engine, store := newTestEngine(t, generator, cfg)
	createGeneratingTask(t, store, "task-1", "Go 并发")

	require.NoError(t, engine.RunPipeline(context.Background(), "task-1"))

	task, err := store.Get("task-1")
	require.NoError(t, err)
	// 轮数用尽仍进入人工审核，不静默失败
	assert.Equal(t, TaskStatusAwaitingApproval, task.Status)
	assert.True(t, task.QualityGateExhausted)
	assert.Equal(t, cfg.MaxIterations, task.IterationCount)
	// 初评 1 次 + 每轮改写后 1 次
	assert.Len(t, task.QualityHistory, cfg.MaxIterations+1)
	for _, qa := range task.QualityHistory {
		assert.False(t, qa.Passed)
	}
}

func TestRunPipelineDraftFailure(t *testing.T) {
	cfg := testEngineConfig()
	calls := 0
	generator := &fakeGenerator{
		name: "deepseek-chat",
		generateFn: func(systemPrompt, _ string) (string, error) {
			if systemPrompt == DraftSystemPrompt {
				calls++
				return "", fmt.Errorf("provider overloaded")
			}
			return "研究提纲", nil
		},
	}
	engine, store := newTestEngine(t, generator, cfg)
	createGeneratingTask(t, store, "task-1", "Go 并发")

	err := engine.RunPipeline(context.Background(), "task-1")
	require.Error(t, err)

	task, getErr := store.Get("task-1")
	require.NoError(t, getErr)
	assert.Equal(t, TaskStatusFailed, task.Status)
	assert.NotEmpty(t, task.FailureReason)
	require.NotNil(t, task.CompletedAt)
	// 首次执行 + 重试次数
	assert.Equal(t, cfg.PhaseRetries+1, calls)
}

func TestRunPipelineRetrySucceeds(t *testing.T) {
	cfg := testEngineConfig()
	draftCalls := 0
	generator := &fakeGenerator{
		name: "deepseek-chat",
		generateFn: func(systemPrompt, _ string) (string, error) {
			if systemPrompt == DraftSystemPrompt {
				draftCalls++
				if draftCalls == 1 {
					return "", fmt.Errorf("transient error")
				}
			}
			return sampleArticle("Go 并发", 100), nil
		},
	}
	engine, store := newTestEngine(t, generator, cfg)
	createGeneratingTask(t, store, "task-1", "Go 并发")

	require.NoError(t, engine.RunPipeline(context.Background(), "task-1"))

	task, err := store.Get("task-1")
	require.NoError(t, err)
	assert.Equal(t, TaskStatusAwaitingApproval, task.Status)
	assert.Equal(t, 2, draftCalls)
}

func TestRunPipelineResearchSkipOnError(t *testing.T) {
	cfg := testEngineConfig()
	generator := &fakeGenerator{
		name: "deepseek-chat",
		generateFn: func(systemPrompt, _ string) (string, error) {
			if systemPrompt == ResearchSystemPrompt {
				return "", fmt.Errorf("search backend down")
			}
			return sampleArticle("Go 并发", 100), nil
		},
	}
	engine, store := newTestEngine(t, generator, cfg)
	createGeneratingTask(t, store, "task-1", "Go 并发")

	// 调研失败不拖垮整条流水线
	require.NoError(t, engine.RunPipeline(context.Background(), "task-1"))

	task, err := store.Get("task-1")
	require.NoError(t, err)
	assert.Equal(t, TaskStatusAwaitingApproval, task.Status)
	assert.Empty(t, task.ResearchNotes)
	assert.NotEmpty(t, task.Content)
}

func TestRunPipelineWrongState(t *testing.T) {
	cfg := testEngineConfig()
	engine, store := newTestEngine(t, pipelineGenerator("Go 并发", 100), cfg)
	require.NoError(t, store.Create(newTestTask("task-1", "Go 并发")))

	// pending 状态不允许直接跑流水线
	err := engine.RunPipeline(context.Background(), "task-1")
	require.Error(t, err)
	assert.True(t, model.IsCode(err, model.ErrorState))

	// 不存在的任务
	err = engine.RunPipeline(context.Background(), "no-such-task")
	require.Error(t, err)
	assert.True(t, model.IsCode(err, model.ErrorTaskNotFound))
}

func TestRunPhaseTimeout(t *testing.T) {
	cfg := testEngineConfig()
	cfg.PhaseTimeout = 20 * time.Millisecond
	cfg.PhaseRetries = 0

	engine, store := newTestEngine(t, &slowGenerator{delay: 200 * time.Millisecond}, cfg)
	createGeneratingTask(t, store, "task-1", "Go 并发")

	task, err := store.Get("task-1")
	require.NoError(t, err)

	start := time.Now()
	err = engine.RunPhase(context.Background(), task, PhaseDefinition{
		Name:       PhaseDraft,
		Required:   true,
		Timeout:    cfg.PhaseTimeout,
		MaxRetries: 0,
	})
	require.Error(t, err)
	// 超时生效，不会等满生成耗时
	assert.Less(t, time.Since(start), 150*time.Millisecond)
}

func TestRunPipelineProgressEvents(t *testing.T) {
	cfg := testEngineConfig()
	engine, store := newTestEngine(t, pipelineGenerator("Go 并发", 100), cfg)
	createGeneratingTask(t, store, "task-1", "Go 并发")

	events, unsubscribe := engine.broker.Subscribe()
	defer unsubscribe()

	require.NoError(t, engine.RunPipeline(context.Background(), "task-1"))

	var collected []ProgressEvent
	for {
		select {
		case event := <-events:
			collected = append(collected, event)
			continue
		default:
		}
		break
	}

	require.NotEmpty(t, collected)
	// 进度单调推进到 100
	last := collected[len(collected)-1]
	assert.Equal(t, 100, last.Percent)
	for _, event := range collected {
		assert.Equal(t, "task-1", event.TaskID)
		assert.GreaterOrEqual(t, event.Percent, 0)
		assert.LessOrEqual(t, event.Percent, 100)
	}
}

// slowGenerator 响应 ctx 超时的慢速生成客户端
type slowGenerator struct {
	delay time.Duration
}

func (g *slowGenerator) Generate(ctx context.Context, _, _ string) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-time.After(g.delay):
		return "内容", nil
	}
}

func (g *slowGenerator) GenerateStructured(ctx context.Context, _, _ string, _ interface{}) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(g.delay):
		return nil
	}
}

func (g *slowGenerator) ModelName() string { return "slow" }
