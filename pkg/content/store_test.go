package content

import (
	"os"
	"path/filepath"
	"testing"

	"ai_content/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStoreCreateAndGet(t *testing.T) {
	store := newTestFileStore(t)

	task := newTestTask("task-1", "Go 并发")
	require.NoError(t, store.Create(task))

	// 重复创建被拒绝
	err := store.Create(newTestTask("task-1", "重复任务"))
	require.Error(t, err)
	assert.True(t, model.IsCode(err, model.ErrorValidation))

	got, err := store.Get("task-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Go 并发", got.Topic)
	assert.Equal(t, TaskStatusPending, got.Status)

	// 不存在的任务返回 nil, nil
	missing, err := store.Get("no-such-task")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestFileStoreUpdateTransitions(t *testing.T) {
	store := newTestFileStore(t)
	require.NoError(t, store.Create(newTestTask("task-1", "状态机")))

	// 合法迁移 pending -> generating
	updated, err := store.Update("task-1", func(task *Task) error {
		task.Status = TaskStatusGenerating
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, TaskStatusGenerating, updated.Status)

	// 非法迁移 generating -> published 被拒绝，任务保持原状
	_, err = store.Update("task-1", func(task *Task) error {
		task.Status = TaskStatusPublished
		return nil
	})
	require.Error(t, err)
	assert.True(t, model.IsCode(err, model.ErrorState))

	got, err := store.Get("task-1")
	require.NoError(t, err)
	assert.Equal(t, TaskStatusGenerating, got.Status)
}

func TestFileStoreTerminalImmutable(t *testing.T) {
	store := newTestFileStore(t)
	require.NoError(t, store.Create(newTestTask("task-1", "终态")))

	// 进入终态时写入完成时间
	cancelled, err := store.Update("task-1", func(task *Task) error {
		task.Status = TaskStatusCancelled
		return nil
	})
	require.NoError(t, err)
	require.NotNil(t, cancelled.CompletedAt)

	// 终态任务不可再更新
	_, err = store.Update("task-1", func(task *Task) error {
		task.Content = "新内容"
		return nil
	})
	require.Error(t, err)
	assert.True(t, model.IsCode(err, model.ErrorState))
}

func TestFileStorePersistence(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "content_store_test_*")
	require.NoError(t, err)
	defer func() { _ = os.RemoveAll(tmpDir) }()

	store, err := NewFileStore(tmpDir)
	require.NoError(t, err)

	task := newTestTask("task-1", "持久化")
	task.Content = "# 持久化\n正文"
	require.NoError(t, store.Create(task))

	// task.json 和 content.md 都落盘
	assert.FileExists(t, filepath.Join(tmpDir, "task-1", "task.json"))
	assert.FileExists(t, filepath.Join(tmpDir, "task-1", "content.md"))

	// 新实例从磁盘恢复
	reloaded, err := NewFileStore(tmpDir)
	require.NoError(t, err)
	got, err := reloaded.Get("task-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "持久化", got.Topic)
	assert.Equal(t, task.Content, got.Content)
}

func TestFileStoreListFilterAndPaging(t *testing.T) {
	store := newTestFileStore(t)

	for i := 0; i < 5; i++ {
		task := newTestTask(string(rune('a'+i))+"-task", "列表")
		require.NoError(t, store.Create(task))
	}
	_, err := store.Update("a-task", func(task *Task) error {
		task.Status = TaskStatusGenerating
		return nil
	})
	require.NoError(t, err)

	// 状态过滤
	status := TaskStatusPending
	tasks, total, err := store.List(&TaskFilter{Status: &status})
	require.NoError(t, err)
	assert.Equal(t, 4, total)
	assert.Len(t, tasks, 4)

	// 分页
	tasks, total, err = store.List(&TaskFilter{Limit: 2, Offset: 0})
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	assert.Len(t, tasks, 2)
}

func TestFileStoreUpdateApplyError(t *testing.T) {
	store := newTestFileStore(t)
	require.NoError(t, store.Create(newTestTask("task-1", "回滚")))

	// apply 返回错误时不落盘
	_, err := store.Update("task-1", func(task *Task) error {
		task.Content = "不应保存"
		return model.NewError(model.ErrorValidation, nil)
	})
	require.Error(t, err)

	got, err := store.Get("task-1")
	require.NoError(t, err)
	assert.Empty(t, got.Content)
}

func TestFileStoreDelete(t *testing.T) {
	store := newTestFileStore(t)
	require.NoError(t, store.Create(newTestTask("task-1", "删除")))

	require.NoError(t, store.Delete("task-1"))
	got, err := store.Get("task-1")
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.NoDirExists(t, store.taskDir("task-1"))
}

func TestFileStoreStats(t *testing.T) {
	store := newTestFileStore(t)
	require.NoError(t, store.Create(newTestTask("task-1", "统计一")))
	require.NoError(t, store.Create(newTestTask("task-2", "统计二")))
	require.NoError(t, store.Create(newTestTask("task-3", "统计三")))

	_, err := store.Update("task-2", func(task *Task) error {
		task.Status = TaskStatusGenerating
		return nil
	})
	require.NoError(t, err)
	_, err = store.Update("task-3", func(task *Task) error {
		task.Status = TaskStatusCancelled
		return nil
	})
	require.NoError(t, err)

	stats, err := store.Stats()
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 1, stats.Pending)
	assert.Equal(t, 1, stats.Generating)
	assert.Equal(t, 1, stats.Cancelled)
	assert.Zero(t, stats.Published)
}
