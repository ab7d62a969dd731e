package xormimplement

import (
	"ai_content/constant"
	"ai_content/entity"
	"ai_content/model"
	"ai_content/repository"
	"fmt"
	"time"

	"xorm.io/builder"
)

// ========== ContentTaskRepository 实现 ==========

type ContentTaskRepository struct {
	session *Session
}

func NewContentTaskRepository(session *Session) repository.ContentTaskRepository {
	return &ContentTaskRepository{session: session}
}

func (r *ContentTaskRepository) Upsert(req *model.UpsertTaskCondition) error {
	if req == nil {
		return fmt.Errorf("upsert request cannot be nil")
	}
	if req.ID == "" {
		return fmt.Errorf("task id is required")
	}

	// 先尝试获取现有记录
	existing := &entity.ContentTask{}
	has, err := r.session.Table(entity.TableNameContentTask).
		Where(builder.Eq{entity.ContentTaskFieldID: req.ID}).
		Get(existing)
	if err != nil {
		return fmt.Errorf("failed to check existing task: %w", err)
	}

	if has {
		// 更新现有记录
		updateData := make(map[string]interface{})
		updateData[entity.ContentTaskFieldUpdatedAt] = time.Now()

		if req.Topic != "" {
			updateData[entity.ContentTaskFieldTopic] = req.Topic
		}
		if req.Status != nil {
			updateData[entity.ContentTaskFieldStatus] = *req.Status
		}
		if req.CurrentPhase != nil {
			updateData[entity.ContentTaskFieldCurrentPhase] = *req.CurrentPhase
		}
		if req.ParamsJSON != nil {
			updateData[entity.ContentTaskFieldParamsJSON] = *req.ParamsJSON
		}
		if req.SelectionsJSON != nil {
			updateData[entity.ContentTaskFieldSelectionsJSON] = *req.SelectionsJSON
		}
		if req.QualityHistoryJSON != nil {
			updateData[entity.ContentTaskFieldQualityHistoryJSON] = *req.QualityHistoryJSON
		}
		if req.ApprovalJSON != nil {
			updateData[entity.ContentTaskFieldApprovalJSON] = *req.ApprovalJSON
		}
		if req.Content != nil {
			updateData[entity.ContentTaskFieldContent] = *req.Content
		}
		if req.ResearchNotes != nil {
			updateData[entity.ContentTaskFieldResearchNotes] = *req.ResearchNotes
		}
		if req.CoverAssetURL != nil {
			updateData[entity.ContentTaskFieldCoverAssetURL] = *req.CoverAssetURL
		}
		if req.IterationCount != nil {
			updateData[entity.ContentTaskFieldIterationCount] = *req.IterationCount
		}
		if req.QualityGateExhausted != nil {
			updateData[entity.ContentTaskFieldQualityGateExhausted] = *req.QualityGateExhausted
		}
		if req.PublishFailed != nil {
			updateData[entity.ContentTaskFieldPublishFailed] = *req.PublishFailed
		}
		if req.ExternalID != nil {
			updateData[entity.ContentTaskFieldExternalID] = *req.ExternalID
		}
		if req.PublishedURL != nil {
			updateData[entity.ContentTaskFieldPublishedURL] = *req.PublishedURL
		}
		if req.CostEstimate != nil {
			updateData[entity.ContentTaskFieldCostEstimate] = *req.CostEstimate
		}
		if req.CostActual != nil {
			updateData[entity.ContentTaskFieldCostActual] = *req.CostActual
		}
		if req.FailureReason != nil {
			updateData[entity.ContentTaskFieldFailureReason] = *req.FailureReason
		}
		if req.CompletedAt != nil {
			updateData[entity.ContentTaskFieldCompletedAt] = *req.CompletedAt
		}

		_, err = r.session.Table(entity.TableNameContentTask).
			Where(builder.Eq{entity.ContentTaskFieldID: req.ID}).
			Update(updateData)
		if err != nil {
			return fmt.Errorf("failed to update task: %w", err)
		}
	} else {
		// 插入新记录
		status := constant.TaskStatusPending.String()
		if req.Status != nil {
			status = *req.Status
		}

		newTask := &entity.ContentTask{
			ID:        req.ID,
			Topic:     req.Topic,
			Status:    status,
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		}

		if req.CurrentPhase != nil {
			newTask.CurrentPhase = *req.CurrentPhase
		}
		if req.ParamsJSON != nil {
			newTask.ParamsJSON = *req.ParamsJSON
		}
		if req.SelectionsJSON != nil {
			newTask.SelectionsJSON = *req.SelectionsJSON
		}
		if req.QualityHistoryJSON != nil {
			newTask.QualityHistoryJSON = *req.QualityHistoryJSON
		}
		if req.ApprovalJSON != nil {
			newTask.ApprovalJSON = *req.ApprovalJSON
		}
		if req.Content != nil {
			newTask.Content = *req.Content
		}
		if req.ResearchNotes != nil {
			newTask.ResearchNotes = *req.ResearchNotes
		}
		if req.CoverAssetURL != nil {
			newTask.CoverAssetURL = *req.CoverAssetURL
		}
		if req.IterationCount != nil {
			newTask.IterationCount = *req.IterationCount
		}
		if req.QualityGateExhausted != nil {
			newTask.QualityGateExhausted = *req.QualityGateExhausted
		}
		if req.PublishFailed != nil {
			newTask.PublishFailed = *req.PublishFailed
		}
		if req.ExternalID != nil {
			newTask.ExternalID = *req.ExternalID
		}
		if req.PublishedURL != nil {
			newTask.PublishedURL = *req.PublishedURL
		}
		if req.CostEstimate != nil {
			newTask.CostEstimate = *req.CostEstimate
		}
		if req.CostActual != nil {
			newTask.CostActual = *req.CostActual
		}
		if req.FailureReason != nil {
			newTask.FailureReason = *req.FailureReason
		}
		if req.CompletedAt != nil {
			newTask.CompletedAt = req.CompletedAt
		}

		_, err = r.session.Table(entity.TableNameContentTask).Insert(newTask)
		if err != nil {
			return fmt.Errorf("failed to insert task: %w", err)
		}
	}

	return nil
}

func (r *ContentTaskRepository) Get(taskID string) (*entity.ContentTask, error) {
	if taskID == "" {
		return nil, fmt.Errorf("task_id is required")
	}

	result := &entity.ContentTask{}
	ok, err := r.session.Table(entity.TableNameContentTask).
		Where(builder.Eq{entity.ContentTaskFieldID: taskID}).
		Get(result)
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}

	if !ok {
		return nil, nil
	}

	return result, nil
}

func (r *ContentTaskRepository) Query(condition *model.TaskQueryCondition) ([]*entity.ContentTask, int64, error) {
	if condition == nil {
		condition = &model.TaskQueryCondition{}
	}

	// 构建查询条件
	var conds []builder.Cond
	if condition.Status != nil && *condition.Status != "" {
		conds = append(conds, builder.Eq{entity.ContentTaskFieldStatus: *condition.Status})
	}
	if condition.Topic != nil && *condition.Topic != "" {
		conds = append(conds, builder.Like{entity.ContentTaskFieldTopic, *condition.Topic})
	}
	if condition.StartDate != nil {
		conds = append(conds, builder.Gte{entity.ContentTaskFieldCreatedAt: *condition.StartDate})
	}
	if condition.EndDate != nil {
		conds = append(conds, builder.Lte{entity.ContentTaskFieldCreatedAt: *condition.EndDate})
	}

	whereCond := builder.NewCond()
	if len(conds) > 0 {
		whereCond = builder.And(conds...)
	}

	// 计算总数
	total, err := r.session.Table(entity.TableNameContentTask).Where(whereCond).Count(&entity.ContentTask{})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count tasks: %w", err)
	}

	// 查询数据
	session := r.session.Table(entity.TableNameContentTask).Where(whereCond)
	pagerOrder(session, condition, WithDefaultOrderField(entity.ContentTaskFieldCreatedAt))

	var results []*entity.ContentTask
	err = session.Find(&results)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query tasks: %w", err)
	}

	return results, total, nil
}

func (r *ContentTaskRepository) Delete(taskID string) error {
	if taskID == "" {
		return fmt.Errorf("task_id is required")
	}

	_, err := r.session.Table(entity.TableNameContentTask).
		Where(builder.Eq{entity.ContentTaskFieldID: taskID}).
		Delete(&entity.ContentTask{})
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	return nil
}

func (r *ContentTaskRepository) GetStats() (*model.TaskStats, error) {
	stats := &model.TaskStats{}

	total, err := r.session.Table(entity.TableNameContentTask).Count(&entity.ContentTask{})
	if err != nil {
		return nil, fmt.Errorf("failed to count total tasks: %w", err)
	}
	stats.Total = int(total)

	// 各状态数量
	counts := map[constant.TaskStatus]*int{
		constant.TaskStatusPending:          &stats.Pending,
		constant.TaskStatusGenerating:       &stats.Generating,
		constant.TaskStatusAwaitingApproval: &stats.AwaitingApproval,
		constant.TaskStatusApproved:         &stats.Approved,
		constant.TaskStatusPublished:        &stats.Published,
		constant.TaskStatusRejected:         &stats.Rejected,
		constant.TaskStatusFailed:           &stats.Failed,
		constant.TaskStatusCancelled:        &stats.Cancelled,
	}
	for status, target := range counts {
		count, err := r.session.Table(entity.TableNameContentTask).
			Where(builder.Eq{entity.ContentTaskFieldStatus: status.String()}).
			Count(&entity.ContentTask{})
		if err != nil {
			return nil, fmt.Errorf("failed to count %s tasks: %w", status, err)
		}
		*target = int(count)
	}

	return stats, nil
}
