package repository

import (
	"ai_content/entity"
	"ai_content/model"
)

// ContentTaskRepository 内容任务仓库接口
type ContentTaskRepository interface {
	// Upsert 创建或更新内容任务
	Upsert(req *model.UpsertTaskCondition) error
	// Get 获取单个任务，不存在时返回 nil, nil
	Get(taskID string) (*entity.ContentTask, error)
	// Query 高级查询（支持分页、排序、过滤）
	Query(condition *model.TaskQueryCondition) ([]*entity.ContentTask, int64, error)
	// Delete 删除任务
	Delete(taskID string) error
	// GetStats 获取任务统计
	GetStats() (*model.TaskStats, error)
}
