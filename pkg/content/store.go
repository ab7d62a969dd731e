package content

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"ai_content/constant"
	"ai_content/model"

	log "github.com/sirupsen/logrus"
)

// Store 任务存储接口
// Update 是唯一的变更入口：读取-修改-写入在锁内完成，状态迁移由存储层强制校验
type Store interface {
	// Create 创建任务，ID 已存在时返回错误
	Create(task *Task) error
	// Get 获取任务，不存在时返回 nil, nil
	Get(taskID string) (*Task, error)
	// List 按条件列出任务，返回任务和总数
	List(filter *TaskFilter) ([]*Task, int, error)
	// Update 原子更新：apply 在当前快照上修改，状态迁移非法时整个更新被拒绝
	Update(taskID string, apply func(*Task) error) (*Task, error)
	// Delete 删除任务
	Delete(taskID string) error
	// Stats 按状态统计任务数量
	Stats() (*model.TaskStats, error)
}

// applyUpdate 在锁内执行 apply 并校验状态迁移，所有 Store 实现共用
func applyUpdate(current *Task, apply func(*Task) error) (*Task, error) {
	if current.Status.IsTerminal() {
		return nil, model.NewTaskError(model.ErrorState, current.ID,
			fmt.Errorf("task in terminal status %s is immutable", current.Status))
	}

	// 在副本上修改，apply 失败或迁移非法时不落盘
	updated := cloneTask(current)
	if err := apply(updated); err != nil {
		return nil, err
	}

	if updated.Status != current.Status {
		if !constant.CanTransition(current.Status, updated.Status) {
			return nil, model.NewTaskError(model.ErrorState, current.ID,
				fmt.Errorf("illegal transition %s -> %s", current.Status, updated.Status))
		}
		if updated.Status.IsTerminal() {
			now := time.Now()
			updated.CompletedAt = &now
		}
	}

	updated.UpdatedAt = time.Now()
	return updated, nil
}

func cloneTask(t *Task) *Task {
	copied := *t
	if t.QualityHistory != nil {
		copied.QualityHistory = make([]QualityAssessment, len(t.QualityHistory))
		copy(copied.QualityHistory, t.QualityHistory)
	}
	if t.Approval != nil {
		approval := *t.Approval
		copied.Approval = &approval
	}
	if t.Params.Tags != nil {
		copied.Params.Tags = append([]string(nil), t.Params.Tags...)
	}
	if t.Params.ModelSelections != nil {
		copied.Params.ModelSelections = make(map[string]string, len(t.Params.ModelSelections))
		for k, v := range t.Params.ModelSelections {
			copied.Params.ModelSelections[k] = v
		}
	}
	return &copied
}

// matchFilter 检查任务是否满足过滤条件
func matchFilter(t *Task, filter *TaskFilter) bool {
	if filter == nil {
		return true
	}
	if filter.Status != nil && t.Status != *filter.Status {
		return false
	}
	if filter.StartDate != nil && t.CreatedAt.Before(*filter.StartDate) {
		return false
	}
	if filter.EndDate != nil && t.CreatedAt.After(*filter.EndDate) {
		return false
	}
	return true
}

// pageTasks 按创建时间倒序排序并分页
func pageTasks(tasks []*Task, filter *TaskFilter) []*Task {
	sort.Slice(tasks, func(i, j int) bool {
		return tasks[i].CreatedAt.After(tasks[j].CreatedAt)
	})

	if filter == nil {
		return tasks
	}

	offset := filter.Offset
	if offset > len(tasks) {
		offset = len(tasks)
	}
	tasks = tasks[offset:]

	limit := filter.Limit
	if limit <= 0 {
		limit = constant.DefaultPageLimit
	}
	if limit < len(tasks) {
		tasks = tasks[:limit]
	}
	return tasks
}

// FileStore 基于文件的任务存储实现
// 每个任务一个目录：task.json 为权威数据，content.md 为人类可读镜像
type FileStore struct {
	basePath string
	mu       sync.RWMutex
	cache    map[string]*Task
}

// NewFileStore 创建文件存储
func NewFileStore(basePath string) (*FileStore, error) {
	// 确保目录存在
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	fs := &FileStore{
		basePath: basePath,
		cache:    make(map[string]*Task),
	}
	if err := fs.loadAll(); err != nil {
		return nil, err
	}
	return fs, nil
}

// loadAll 启动时把磁盘上的任务读入缓存
func (fs *FileStore) loadAll() error {
	entries, err := os.ReadDir(fs.basePath)
	if err != nil {
		return fmt.Errorf("failed to read tasks directory: %w", err)
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		task, err := fs.readTask(entry.Name())
		if err != nil {
			log.Warnf("Failed to load task %s: %v", entry.Name(), err)
			continue
		}
		if task != nil {
			fs.cache[task.ID] = task
		}
	}
	return nil
}

func (fs *FileStore) taskDir(taskID string) string {
	return filepath.Join(fs.basePath, taskID)
}

func (fs *FileStore) readTask(taskID string) (*Task, error) {
	jsonPath := filepath.Join(fs.taskDir(taskID), "task.json")
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read task file: %w", err)
	}

	var task Task
	if err := json.Unmarshal(data, &task); err != nil {
		return nil, fmt.Errorf("failed to unmarshal task: %w", err)
	}
	return &task, nil
}

func (fs *FileStore) writeTask(task *Task) error {
	if err := os.MkdirAll(fs.taskDir(task.ID), 0755); err != nil {
		return fmt.Errorf("failed to create task directory: %w", err)
	}

	jsonPath := filepath.Join(fs.taskDir(task.ID), "task.json")
	data, err := json.MarshalIndent(task, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal task: %w", err)
	}
	if err := os.WriteFile(jsonPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write task file: %w", err)
	}

	// 同时保存 Markdown 格式（人类可读）
	mdPath := filepath.Join(fs.taskDir(task.ID), "content.md")
	if err := os.WriteFile(mdPath, []byte(taskToMarkdown(task)), 0644); err != nil {
		log.Warnf("Failed to write content markdown: %v", err)
	}

	return nil
}

// Create 创建任务
func (fs *FileStore) Create(task *Task) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if _, ok := fs.cache[task.ID]; ok {
		return model.NewTaskError(model.ErrorValidation, task.ID, fmt.Errorf("task already exists"))
	}

	now := time.Now()
	if task.CreatedAt.IsZero() {
		task.CreatedAt = now
	}
	task.UpdatedAt = now

	if err := fs.writeTask(task); err != nil {
		return err
	}
	fs.cache[task.ID] = cloneTask(task)
	return nil
}

// Get 获取任务
func (fs *FileStore) Get(taskID string) (*Task, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	task, ok := fs.cache[taskID]
	if !ok {
		return nil, nil
	}
	return cloneTask(task), nil
}

// List 列出任务
func (fs *FileStore) List(filter *TaskFilter) ([]*Task, int, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	var matched []*Task
	for _, task := range fs.cache {
		if matchFilter(task, filter) {
			matched = append(matched, cloneTask(task))
		}
	}

	total := len(matched)
	return pageTasks(matched, filter), total, nil
}

// Update 原子更新任务
func (fs *FileStore) Update(taskID string, apply func(*Task) error) (*Task, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	current, ok := fs.cache[taskID]
	if !ok {
		return nil, model.NewTaskError(model.ErrorTaskNotFound, taskID, nil)
	}

	updated, err := applyUpdate(current, apply)
	if err != nil {
		return nil, err
	}

	if err := fs.writeTask(updated); err != nil {
		return nil, err
	}
	fs.cache[taskID] = updated
	return cloneTask(updated), nil
}

// Delete 删除任务
func (fs *FileStore) Delete(taskID string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	delete(fs.cache, taskID)
	return os.RemoveAll(fs.taskDir(taskID))
}

// Stats 按状态统计任务数量
func (fs *FileStore) Stats() (*model.TaskStats, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	stats := &model.TaskStats{Total: len(fs.cache)}
	for _, task := range fs.cache {
		switch task.Status {
		case TaskStatusPending:
			stats.Pending++
		case TaskStatusGenerating:
			stats.Generating++
		case TaskStatusAwaitingApproval:
			stats.AwaitingApproval++
		case TaskStatusApproved:
			stats.Approved++
		case TaskStatusPublished:
			stats.Published++
		case TaskStatusRejected:
			stats.Rejected++
		case TaskStatusFailed:
			stats.Failed++
		case TaskStatusCancelled:
			stats.Cancelled++
		}
	}
	return stats, nil
}

// taskToMarkdown 将任务转换为 Markdown 格式
func taskToMarkdown(task *Task) string {
	md := fmt.Sprintf(`# %s

## Status
%s

## Content
%s
`, task.Topic, task.Status, task.Content)

	if len(task.QualityHistory) > 0 {
		md += "\n## Quality History\n| Iteration | Mode | Aggregate | Passed |\n|-----------|------|-----------|--------|\n"
		for _, qa := range task.QualityHistory {
			md += fmt.Sprintf("| %d | %s | %.2f | %v |\n", qa.Iteration, qa.Mode, qa.Aggregate, qa.Passed)
		}
	}

	if task.Approval != nil {
		md += fmt.Sprintf("\n## Approval\n- Decision: %s\n- Reviewer: %s\n- Reason: %s\n",
			task.Approval.Decision, task.Approval.ReviewerID, task.Approval.Reason)
	}

	md += fmt.Sprintf(`
---
- Created: %s
- Updated: %s
`, task.CreatedAt.Format(time.RFC3339), task.UpdatedAt.Format(time.RFC3339))

	return md
}
