package content

import (
	"context"
	"testing"

	"ai_content/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// createAwaitingTask 造一个等待审核的任务
func createAwaitingTask(t *testing.T, store Store, id string) {
	createGeneratingTask(t, store, id, "审核流程")
	_, err := store.Update(id, func(task *Task) error {
		task.Status = TaskStatusAwaitingApproval
		task.Content = "# 审核流程\n正文内容"
		return nil
	})
	require.NoError(t, err)
}

func TestApproveAndPublish(t *testing.T) {
	store := newTestFileStore(t)
	publisher := &fakePublisher{}
	gate := NewApprovalGate(store, publisher)
	createAwaitingTask(t, store, "task-1")

	task, err := gate.SubmitDecision(context.Background(), "task-1", &ApprovalRequest{
		Decision:   DecisionApprove.String(),
		ReviewerID: "reviewer-1",
	})
	require.NoError(t, err)

	assert.Equal(t, TaskStatusPublished, task.Status)
	assert.Equal(t, "ext-task-1", task.ExternalID)
	assert.NotEmpty(t, task.PublishedURL)
	assert.False(t, task.PublishFailed)
	require.NotNil(t, task.Approval)
	assert.Equal(t, DecisionApprove, task.Approval.Decision)
	assert.Equal(t, "reviewer-1", task.Approval.ReviewerID)
	assert.Equal(t, 1, publisher.published)
}

func TestRejectRequiresReason(t *testing.T) {
	store := newTestFileStore(t)
	gate := NewApprovalGate(store, &fakePublisher{})
	createAwaitingTask(t, store, "task-1")

	// 缺理由的拒绝是参数错误
	_, err := gate.SubmitDecision(context.Background(), "task-1", &ApprovalRequest{
		Decision:   DecisionReject.String(),
		ReviewerID: "reviewer-1",
	})
	require.Error(t, err)
	assert.True(t, model.IsCode(err, model.ErrorValidation))

	task, err := gate.SubmitDecision(context.Background(), "task-1", &ApprovalRequest{
		Decision:   DecisionReject.String(),
		ReviewerID: "reviewer-1",
		Reason:     "事实性错误太多",
	})
	require.NoError(t, err)
	assert.Equal(t, TaskStatusRejected, task.Status)
	require.NotNil(t, task.CompletedAt)
	assert.Equal(t, "事实性错误太多", task.Approval.Reason)
}

func TestApprovalWrongState(t *testing.T) {
	store := newTestFileStore(t)
	gate := NewApprovalGate(store, &fakePublisher{})
	require.NoError(t, store.Create(newTestTask("task-1", "状态")))

	// pending 任务不能审核
	_, err := gate.SubmitDecision(context.Background(), "task-1", &ApprovalRequest{
		Decision:   DecisionApprove.String(),
		ReviewerID: "reviewer-1",
	})
	require.Error(t, err)
	assert.True(t, model.IsCode(err, model.ErrorState))

	// 非法决定
	createAwaitingTask(t, store, "task-2")
	_, err = gate.SubmitDecision(context.Background(), "task-2", &ApprovalRequest{
		Decision:   "maybe",
		ReviewerID: "reviewer-1",
	})
	require.Error(t, err)
	assert.True(t, model.IsCode(err, model.ErrorValidation))
}

func TestPublishFailureKeepsApproval(t *testing.T) {
	store := newTestFileStore(t)
	publisher := &fakePublisher{failTimes: 1}
	gate := NewApprovalGate(store, publisher)
	createAwaitingTask(t, store, "task-1")

	task, err := gate.SubmitDecision(context.Background(), "task-1", &ApprovalRequest{
		Decision:   DecisionApprove.String(),
		ReviewerID: "reviewer-1",
	})
	require.Error(t, err)
	assert.True(t, model.IsCode(err, model.ErrorPublish))

	// 审核结果保留，任务停在 approved 并标记发布失败
	require.NotNil(t, task)
	assert.Equal(t, TaskStatusApproved, task.Status)
	assert.True(t, task.PublishFailed)
	require.NotNil(t, task.Approval)

	// 重试发布成功后进入发布终态
	retried, err := gate.RetryPublish(context.Background(), "task-1")
	require.NoError(t, err)
	assert.Equal(t, TaskStatusPublished, retried.Status)
	assert.False(t, retried.PublishFailed)
	assert.Equal(t, 1, publisher.published)
}

func TestRetryPublishWrongState(t *testing.T) {
	store := newTestFileStore(t)
	gate := NewApprovalGate(store, &fakePublisher{})

	// 不存在的任务
	_, err := gate.RetryPublish(context.Background(), "no-such-task")
	require.Error(t, err)
	assert.True(t, model.IsCode(err, model.ErrorTaskNotFound))

	// 没有发布失败标记的任务不能重试
	createAwaitingTask(t, store, "task-1")
	_, err = gate.RetryPublish(context.Background(), "task-1")
	require.Error(t, err)
	assert.True(t, model.IsCode(err, model.ErrorState))
}

func TestExtractTitle(t *testing.T) {
	task := newTestTask("task-1", "备用主题")
	task.Content = "前言\n# 正式标题\n正文"
	assert.Equal(t, "正式标题", extractTitle(task))

	task.Content = "没有标题的正文"
	assert.Equal(t, "备用主题", extractTitle(task))
}
