package content

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"ai_content/constant"
	"ai_content/entity"
	"ai_content/model"
	"ai_content/pkg/tools"
	"ai_content/repository"
	"ai_content/repository/factory"

	log "github.com/sirupsen/logrus"
)

// DBStore 数据库存储实现，混合模式下异步镜像到文件
type DBStore struct {
	factory        factory.Factory
	fileStore      *FileStore // 混合模式下的 Markdown 镜像
	mu             sync.Mutex
	enableFileSync bool
}

// NewDBStore 创建数据库存储
func NewDBStore(f factory.Factory, filePath string, enableFileSync bool) (*DBStore, error) {
	var fileStore *FileStore
	if enableFileSync && filePath != "" {
		var err error
		fileStore, err = NewFileStore(filePath)
		if err != nil {
			log.Warnf("Failed to create file store for sync: %v", err)
			fileStore = nil
		}
	}

	return &DBStore{
		factory:        f,
		fileStore:      fileStore,
		enableFileSync: enableFileSync,
	}, nil
}

// NewStore 按配置创建存储实现
func NewStore(cfg *EngineConfig, f factory.Factory) (Store, error) {
	switch cfg.StorageType {
	case StorageTypeFile:
		return NewFileStore(cfg.StoragePath)
	case StorageTypeDB:
		return NewDBStore(f, "", false)
	case StorageTypeHybrid:
		return NewDBStore(f, cfg.StoragePath, cfg.EnableFileSync)
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.StorageType)
	}
}

func (ds *DBStore) newRepo() (repoCloser, error) {
	session := ds.factory.NewSession(context.Background())
	repo, err := ds.factory.NewContentTaskRepository(session)
	if err != nil {
		_ = session.Close()
		return repoCloser{}, model.NewError(model.ErrorNewRepo, err)
	}
	return repoCloser{repo: repo, close: session.Close}, nil
}

type repoCloser struct {
	repo  repository.ContentTaskRepository
	close func() error
}

// Create 创建任务
func (ds *DBStore) Create(task *Task) error {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	rc, err := ds.newRepo()
	if err != nil {
		return err
	}
	defer tools.ErrorWithPrintContext(rc.close, "close session")

	existing, err := rc.repo.Get(task.ID)
	if err != nil {
		return model.NewTaskError(model.ErrorDB, task.ID, err)
	}
	if existing != nil {
		return model.NewTaskError(model.ErrorValidation, task.ID, fmt.Errorf("task already exists"))
	}

	req, err := taskToCondition(task)
	if err != nil {
		return err
	}
	if err := rc.repo.Upsert(req); err != nil {
		return model.NewTaskError(model.ErrorDB, task.ID, err)
	}

	ds.syncToFile(task)
	return nil
}

// Get 获取任务
func (ds *DBStore) Get(taskID string) (*Task, error) {
	rc, err := ds.newRepo()
	if err != nil {
		return nil, err
	}
	defer tools.ErrorWithPrintContext(rc.close, "close session")

	record, err := rc.repo.Get(taskID)
	if err != nil {
		return nil, model.NewTaskError(model.ErrorDB, taskID, err)
	}
	if record == nil {
		return nil, nil
	}
	return entityToTask(record)
}

// List 列出任务
func (ds *DBStore) List(filter *TaskFilter) ([]*Task, int, error) {
	rc, err := ds.newRepo()
	if err != nil {
		return nil, 0, err
	}
	defer tools.ErrorWithPrintContext(rc.close, "close session")

	condition := &model.TaskQueryCondition{}
	if filter != nil {
		if filter.Status != nil {
			status := filter.Status.String()
			condition.Status = &status
		}
		condition.StartDate = filter.StartDate
		condition.EndDate = filter.EndDate
		limit := filter.Limit
		if limit <= 0 {
			limit = constant.DefaultPageLimit
		}
		condition.Pager = &model.Pager{Limit: limit, Offset: filter.Offset}
	}

	records, total, err := rc.repo.Query(condition)
	if err != nil {
		return nil, 0, model.NewError(model.ErrorDB, err)
	}

	tasks := make([]*Task, 0, len(records))
	for _, record := range records {
		task, err := entityToTask(record)
		if err != nil {
			log.Warnf("Failed to decode task %s: %v", record.ID, err)
			continue
		}
		tasks = append(tasks, task)
	}
	return tasks, int(total), nil
}

// Update 原子更新任务，锁内完成读取-修改-写入
func (ds *DBStore) Update(taskID string, apply func(*Task) error) (*Task, error) {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	rc, err := ds.newRepo()
	if err != nil {
		return nil, err
	}
	defer tools.ErrorWithPrintContext(rc.close, "close session")

	record, err := rc.repo.Get(taskID)
	if err != nil {
		return nil, model.NewTaskError(model.ErrorDB, taskID, err)
	}
	if record == nil {
		return nil, model.NewTaskError(model.ErrorTaskNotFound, taskID, nil)
	}

	current, err := entityToTask(record)
	if err != nil {
		return nil, err
	}

	updated, err := applyUpdate(current, apply)
	if err != nil {
		return nil, err
	}

	req, err := taskToCondition(updated)
	if err != nil {
		return nil, err
	}
	if err := rc.repo.Upsert(req); err != nil {
		return nil, model.NewTaskError(model.ErrorDB, taskID, err)
	}

	ds.syncToFile(updated)
	return updated, nil
}

// Delete 删除任务
func (ds *DBStore) Delete(taskID string) error {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	rc, err := ds.newRepo()
	if err != nil {
		return err
	}
	defer tools.ErrorWithPrintContext(rc.close, "close session")

	if err := rc.repo.Delete(taskID); err != nil {
		return model.NewTaskError(model.ErrorDB, taskID, err)
	}

	if ds.enableFileSync && ds.fileStore != nil {
		go func() {
			if err := ds.fileStore.Delete(taskID); err != nil {
				log.Warnf("Failed to delete task files: %v", err)
			}
		}()
	}
	return nil
}

// Stats 按状态统计任务数量
func (ds *DBStore) Stats() (*model.TaskStats, error) {
	rc, err := ds.newRepo()
	if err != nil {
		return nil, err
	}
	defer tools.ErrorWithPrintContext(rc.close, "close session")

	stats, err := rc.repo.GetStats()
	if err != nil {
		return nil, model.NewError(model.ErrorDB, err)
	}
	return stats, nil
}

// syncToFile 异步镜像到文件，不阻塞主流程
func (ds *DBStore) syncToFile(task *Task) {
	if !ds.enableFileSync || ds.fileStore == nil {
		return
	}
	snapshot := cloneTask(task)
	go func() {
		ds.fileStore.mu.Lock()
		defer ds.fileStore.mu.Unlock()
		if err := ds.fileStore.writeTask(snapshot); err != nil {
			log.Warnf("Failed to sync task to file: %v", err)
		}
		ds.fileStore.cache[snapshot.ID] = snapshot
	}()
}

// taskToCondition 任务结构转仓库更新条件
func taskToCondition(task *Task) (*model.UpsertTaskCondition, error) {
	paramsJSON, err := json.Marshal(task.Params)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal params: %w", err)
	}
	selectionsJSON, err := json.Marshal(task.Params.ModelSelections)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal selections: %w", err)
	}
	historyJSON, err := json.Marshal(task.QualityHistory)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal quality history: %w", err)
	}
	approvalJSON := "null"
	if task.Approval != nil {
		data, err := json.Marshal(task.Approval)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal approval: %w", err)
		}
		approvalJSON = string(data)
	}

	status := task.Status.String()
	currentPhase := task.CurrentPhase.String()
	params := string(paramsJSON)
	selections := string(selectionsJSON)
	history := string(historyJSON)
	iteration := task.IterationCount

	return &model.UpsertTaskCondition{
		ID:                   task.ID,
		Topic:                task.Topic,
		Status:               &status,
		CurrentPhase:         &currentPhase,
		ParamsJSON:           &params,
		SelectionsJSON:       &selections,
		QualityHistoryJSON:   &history,
		ApprovalJSON:         &approvalJSON,
		Content:              &task.Content,
		ResearchNotes:        &task.ResearchNotes,
		CoverAssetURL:        &task.CoverAssetURL,
		IterationCount:       &iteration,
		QualityGateExhausted: &task.QualityGateExhausted,
		PublishFailed:        &task.PublishFailed,
		ExternalID:           &task.ExternalID,
		PublishedURL:         &task.PublishedURL,
		CostEstimate:         &task.CostEstimate,
		CostActual:           &task.CostActual,
		FailureReason:        &task.FailureReason,
		CompletedAt:          task.CompletedAt,
	}, nil
}

// entityToTask 数据库实体转任务结构
func entityToTask(record *entity.ContentTask) (*Task, error) {
	task := &Task{
		ID:                   record.ID,
		Topic:                record.Topic,
		Status:               TaskStatus(record.Status),
		CurrentPhase:         PhaseName(record.CurrentPhase),
		Content:              record.Content,
		ResearchNotes:        record.ResearchNotes,
		CoverAssetURL:        record.CoverAssetURL,
		IterationCount:       record.IterationCount,
		QualityGateExhausted: record.QualityGateExhausted,
		PublishFailed:        record.PublishFailed,
		ExternalID:           record.ExternalID,
		PublishedURL:         record.PublishedURL,
		CostEstimate:         record.CostEstimate,
		CostActual:           record.CostActual,
		FailureReason:        record.FailureReason,
		CreatedAt:            record.CreatedAt,
		UpdatedAt:            record.UpdatedAt,
		CompletedAt:          record.CompletedAt,
	}

	if record.ParamsJSON != "" {
		if err := json.Unmarshal([]byte(record.ParamsJSON), &task.Params); err != nil {
			return nil, fmt.Errorf("failed to unmarshal params: %w", err)
		}
	}
	if record.QualityHistoryJSON != "" {
		if err := json.Unmarshal([]byte(record.QualityHistoryJSON), &task.QualityHistory); err != nil {
			return nil, fmt.Errorf("failed to unmarshal quality history: %w", err)
		}
	}
	if record.ApprovalJSON != "" && record.ApprovalJSON != "null" {
		task.Approval = &Approval{}
		if err := json.Unmarshal([]byte(record.ApprovalJSON), task.Approval); err != nil {
			return nil, fmt.Errorf("failed to unmarshal approval: %w", err)
		}
	}

	return task, nil
}
