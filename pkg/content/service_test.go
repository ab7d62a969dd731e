package content

import (
	"context"
	"testing"

	"ai_content/model"
	"ai_content/pkg/clients/llm_provider"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) (*Service, *FileStore) {
	cfg := testEngineConfig()
	store := newTestFileStore(t)
	selector := NewModelSelector([]ProviderEntry{
		{Name: llm_provider.ProviderDeepseek, Generator: &fakeGenerator{name: "deepseek-chat"}},
		{Name: llm_provider.ProviderLocal, Generator: &fakeGenerator{name: "qwen-local"}},
		{Name: llm_provider.ProviderOpenAI},
	})
	gate := NewApprovalGate(store, &fakePublisher{})
	service := NewService(cfg, store, selector, gate, NewBroker(), nil)
	return service, store
}

func TestServiceCreateTask(t *testing.T) {
	service, store := newTestService(t)

	resp, err := service.CreateTask(context.Background(), &GenerateRequest{
		Topic:             "Go 并发",
		TargetLength:      1000,
		Tags:              []string{"golang"},
		QualityPreference: TierBalanced.String(),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.TaskID)
	assert.Equal(t, TaskStatusPending.String(), resp.Status)
	assert.Greater(t, resp.CostEstimate, 0.0)

	task, err := store.Get(resp.TaskID)
	require.NoError(t, err)
	require.NotNil(t, task)
	assert.Equal(t, "Go 并发", task.Topic)
	assert.Equal(t, 1000, task.Params.TargetLength)
	assert.Equal(t, resp.CostEstimate, task.CostEstimate)
}

func TestServiceCreateTaskValidation(t *testing.T) {
	service, _ := newTestService(t)
	ctx := context.Background()

	// 空主题
	_, err := service.CreateTask(ctx, &GenerateRequest{Topic: "   "})
	require.Error(t, err)
	assert.True(t, model.IsCode(err, model.ErrorValidation))

	// 非法档位
	_, err = service.CreateTask(ctx, &GenerateRequest{Topic: "主题", QualityPreference: "ultra"})
	require.Error(t, err)
	assert.True(t, model.IsCode(err, model.ErrorValidation))

	// 未知阶段名
	_, err = service.CreateTask(ctx, &GenerateRequest{
		Topic:           "主题",
		ModelSelections: map[string]string{"review": "deepseek"},
	})
	require.Error(t, err)
	assert.True(t, model.IsCode(err, model.ErrorValidation))
}

func TestServiceCreateTaskExplicitModel(t *testing.T) {
	service, store := newTestService(t)

	// 显式指定的模型原样保留，价格表之外的标识符按 0 价预估，不阻塞创建
	resp, err := service.CreateTask(context.Background(), &GenerateRequest{
		Topic:           "主题",
		ModelSelections: map[string]string{PhaseDraft.String(): "gpt-x"},
	})
	require.NoError(t, err)

	task, err := store.Get(resp.TaskID)
	require.NoError(t, err)
	require.NotNil(t, task)
	assert.Equal(t, "gpt-x", task.Params.ModelSelections[PhaseDraft.String()])
}

func TestServiceReopenRejectedTask(t *testing.T) {
	service, store := newTestService(t)
	ctx := context.Background()

	// 来源任务不存在
	_, err := service.CreateTask(ctx, &GenerateRequest{Topic: "主题", SourceTaskID: "no-such-task"})
	require.Error(t, err)
	assert.True(t, model.IsCode(err, model.ErrorTaskNotFound))

	// 来源任务不是 rejected 状态
	require.NoError(t, store.Create(newTestTask("source-1", "原任务")))
	_, err = service.CreateTask(ctx, &GenerateRequest{Topic: "主题", SourceTaskID: "source-1"})
	require.Error(t, err)
	assert.True(t, model.IsCode(err, model.ErrorState))

	// 被拒绝的任务可以重开
	createAwaitingTask(t, store, "source-2")
	_, err = store.Update("source-2", func(task *Task) error {
		task.Status = TaskStatusRejected
		task.Approval = &Approval{Decision: DecisionReject, ReviewerID: "r-1", Reason: "重写"}
		return nil
	})
	require.NoError(t, err)

	resp, err := service.CreateTask(ctx, &GenerateRequest{Topic: "主题", SourceTaskID: "source-2"})
	require.NoError(t, err)
	reopened, err := store.Get(resp.TaskID)
	require.NoError(t, err)
	assert.Equal(t, "source-2", reopened.Params.SourceTaskID)
}

func TestServiceGetTask(t *testing.T) {
	service, store := newTestService(t)

	// 空 ID
	_, err := service.GetTask("")
	require.Error(t, err)
	assert.True(t, model.IsCode(err, model.ErrorEmptyId))

	// 不存在
	_, err = service.GetTask("no-such-task")
	require.Error(t, err)
	assert.True(t, model.IsCode(err, model.ErrorTaskNotFound))

	require.NoError(t, store.Create(newTestTask("task-1", "查询")))
	task, err := service.GetTask("task-1")
	require.NoError(t, err)
	assert.Equal(t, "查询", task.Topic)
}

func TestServiceCancelTask(t *testing.T) {
	service, store := newTestService(t)
	ctx := context.Background()

	require.NoError(t, store.Create(newTestTask("task-1", "取消")))
	task, err := service.CancelTask(ctx, "task-1")
	require.NoError(t, err)
	assert.Equal(t, TaskStatusCancelled, task.Status)

	// 终态任务不能再取消
	_, err = service.CancelTask(ctx, "task-1")
	require.Error(t, err)
	assert.True(t, model.IsCode(err, model.ErrorState))
}

func TestServiceEstimateCost(t *testing.T) {
	service, _ := newTestService(t)

	resp, err := service.EstimateCost(&EstimateRequest{
		TargetLength:      500,
		QualityPreference: TierBest.String(),
	})
	require.NoError(t, err)
	assert.Len(t, resp.ByPhase, 5)
	// best 档在 openai 不可用时回落到 deepseek
	assert.Equal(t, llm_provider.ProviderDeepseek, resp.Models[PhaseDraft.String()])

	_, err = service.EstimateCost(&EstimateRequest{QualityPreference: "ultra"})
	require.Error(t, err)
	assert.True(t, model.IsCode(err, model.ErrorValidation))
}

func TestServiceGetStats(t *testing.T) {
	service, store := newTestService(t)

	require.NoError(t, store.Create(newTestTask("task-1", "统计")))
	createAwaitingTask(t, store, "task-2")

	stats, err := service.GetStats()
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 1, stats.Pending)
	assert.Equal(t, 1, stats.AwaitingApproval)
}
