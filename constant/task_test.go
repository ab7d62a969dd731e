package constant

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestTaskStatusIsValid 测试状态有效性检查
func TestTaskStatusIsValid(t *testing.T) {
	valid := []TaskStatus{
		TaskStatusPending, TaskStatusGenerating, TaskStatusAwaitingApproval,
		TaskStatusApproved, TaskStatusRejected, TaskStatusPublished,
		TaskStatusFailed, TaskStatusCancelled,
	}
	for _, s := range valid {
		assert.True(t, s.IsValid(), "状态 %s 应该有效", s)
	}

	assert.False(t, TaskStatus("unknown").IsValid())
	assert.False(t, TaskStatus("").IsValid())
}

// TestTaskStatusIsTerminal 测试终态判断
func TestTaskStatusIsTerminal(t *testing.T) {
	assert.True(t, TaskStatusPublished.IsTerminal())
	assert.True(t, TaskStatusFailed.IsTerminal())
	assert.True(t, TaskStatusRejected.IsTerminal())
	assert.True(t, TaskStatusCancelled.IsTerminal())

	assert.False(t, TaskStatusPending.IsTerminal())
	assert.False(t, TaskStatusGenerating.IsTerminal())
	assert.False(t, TaskStatusAwaitingApproval.IsTerminal())
	assert.False(t, TaskStatusApproved.IsTerminal())
}

// TestCanTransition 测试状态机迁移表
func TestCanTransition(t *testing.T) {
	// 合法迁移
	assert.True(t, CanTransition(TaskStatusPending, TaskStatusGenerating))
	assert.True(t, CanTransition(TaskStatusGenerating, TaskStatusAwaitingApproval))
	assert.True(t, CanTransition(TaskStatusGenerating, TaskStatusFailed))
	assert.True(t, CanTransition(TaskStatusAwaitingApproval, TaskStatusApproved))
	assert.True(t, CanTransition(TaskStatusAwaitingApproval, TaskStatusRejected))
	assert.True(t, CanTransition(TaskStatusApproved, TaskStatusPublished))

	// 任意非终态都可以取消
	assert.True(t, CanTransition(TaskStatusPending, TaskStatusCancelled))
	assert.True(t, CanTransition(TaskStatusGenerating, TaskStatusCancelled))
	assert.True(t, CanTransition(TaskStatusAwaitingApproval, TaskStatusCancelled))
	assert.True(t, CanTransition(TaskStatusApproved, TaskStatusCancelled))

	// 非法迁移
	assert.False(t, CanTransition(TaskStatusPending, TaskStatusAwaitingApproval))
	assert.False(t, CanTransition(TaskStatusPending, TaskStatusPublished))
	assert.False(t, CanTransition(TaskStatusGenerating, TaskStatusApproved))
	assert.False(t, CanTransition(TaskStatusAwaitingApproval, TaskStatusPublished))
}

// TestCanTransitionTerminal 终态不允许任何出边，拒绝后只能新建任务
func TestCanTransitionTerminal(t *testing.T) {
	terminals := []TaskStatus{
		TaskStatusPublished, TaskStatusFailed, TaskStatusRejected, TaskStatusCancelled,
	}
	all := []TaskStatus{
		TaskStatusPending, TaskStatusGenerating, TaskStatusAwaitingApproval,
		TaskStatusApproved, TaskStatusRejected, TaskStatusPublished,
		TaskStatusFailed, TaskStatusCancelled,
	}
	for _, from := range terminals {
		for _, to := range all {
			assert.False(t, CanTransition(from, to), "%s -> %s 应该被拒绝", from, to)
		}
	}
}

// TestDimensionWeights 权重表覆盖全部维度且总和为 1
func TestDimensionWeights(t *testing.T) {
	sum := 0.0
	for _, w := range DimensionWeights {
		sum += w
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
	assert.Len(t, DimensionWeights, 7)
}

// TestEnumValidity 测试其余枚举的有效性检查
func TestEnumValidity(t *testing.T) {
	assert.True(t, TierFast.IsValid())
	assert.True(t, TierBalanced.IsValid())
	assert.True(t, TierBest.IsValid())
	assert.False(t, QualityTier("ultra").IsValid())

	assert.True(t, EvalModePattern.IsValid())
	assert.True(t, EvalModeModel.IsValid())
	assert.True(t, EvalModeHybrid.IsValid())
	assert.False(t, EvalMode("manual").IsValid())

	assert.True(t, DecisionApprove.IsValid())
	assert.True(t, DecisionReject.IsValid())
	assert.False(t, ApprovalDecision("defer").IsValid())

	assert.True(t, PhaseDraft.IsValid())
	assert.False(t, PhaseName("review").IsValid())
}
