package content

import (
	"context"
	"fmt"
	"strings"
	"time"

	"ai_content/constant"
	"ai_content/model"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// Service 内容任务服务门面，HTTP 层只依赖这一层
type Service struct {
	cfg      *EngineConfig
	store    Store
	selector *ModelSelector
	gate     *ApprovalGate
	broker   *Broker
	pool     *Pool
}

// NewService 创建服务门面
func NewService(cfg *EngineConfig, store Store, selector *ModelSelector, gate *ApprovalGate, broker *Broker, pool *Pool) *Service {
	return &Service{
		cfg:      cfg,
		store:    store,
		selector: selector,
		gate:     gate,
		broker:   broker,
		pool:     pool,
	}
}

// CreateTask 创建内容任务
// 创建时先完成参数校验和成本预估，预估失败的任务不会入队
func (s *Service) CreateTask(ctx context.Context, req *GenerateRequest) (*GenerateResponse, error) {
	params, err := s.buildParams(req)
	if err != nil {
		return nil, err
	}

	estimate, err := s.selector.EstimateCost(params, s.cfg.MaxIterations)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	task := &Task{
		ID:           uuid.New().String(),
		Topic:        params.Topic,
		Status:       TaskStatusPending,
		Params:       *params,
		CostEstimate: estimate.Total,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.Create(task); err != nil {
		return nil, err
	}

	log.Infof("task created: task_id=%s, topic=%s, cost_estimate=%.6f", task.ID, task.Topic, task.CostEstimate)
	return &GenerateResponse{
		TaskID:       task.ID,
		Status:       task.Status.String(),
		CostEstimate: task.CostEstimate,
	}, nil
}

// buildParams 请求转生成参数，补默认值并校验
func (s *Service) buildParams(req *GenerateRequest) (*GenerationParams, error) {
	if strings.TrimSpace(req.Topic) == "" {
		return nil, model.NewError(model.ErrorValidation, fmt.Errorf("topic is required"))
	}

	tier := TierBalanced
	if req.QualityPreference != "" {
		tier = QualityTier(req.QualityPreference)
		if !tier.IsValid() {
			return nil, model.NewError(model.ErrorValidation, fmt.Errorf("invalid quality preference %q", req.QualityPreference))
		}
	}

	for phase := range req.ModelSelections {
		if !PhaseName(phase).IsValid() {
			return nil, model.NewError(model.ErrorValidation, fmt.Errorf("unknown phase %q in model selections", phase))
		}
	}

	targetLength := req.TargetLength
	if targetLength <= 0 {
		targetLength = constant.DefaultTargetLength
	}

	params := &GenerationParams{
		Topic:             strings.TrimSpace(req.Topic),
		Style:             req.Style,
		Tone:              req.Tone,
		TargetLength:      targetLength,
		Tags:              req.Tags,
		ModelSelections:   req.ModelSelections,
		QualityPreference: tier,
	}

	// 重开被拒绝的任务：来源必须存在且处于 rejected 状态
	if req.SourceTaskID != "" {
		source, err := s.store.Get(req.SourceTaskID)
		if err != nil {
			return nil, err
		}
		if source == nil {
			return nil, model.NewTaskError(model.ErrorTaskNotFound, req.SourceTaskID, nil)
		}
		if source.Status != TaskStatusRejected {
			return nil, model.NewTaskError(model.ErrorState, req.SourceTaskID,
				fmt.Errorf("only rejected tasks can be reopened, status=%s", source.Status))
		}
		params.SourceTaskID = source.ID
	}

	return params, nil
}

// GetTask 查询任务
func (s *Service) GetTask(taskID string) (*Task, error) {
	if taskID == constant.EmptyString {
		return nil, model.NewError(model.ErrorEmptyId, nil)
	}
	task, err := s.store.Get(taskID)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, model.NewTaskError(model.ErrorTaskNotFound, taskID, nil)
	}
	return task, nil
}

// ListTasks 列出任务
func (s *Service) ListTasks(filter *TaskFilter) ([]*Task, int, error) {
	return s.store.List(filter)
}

// GetStats 按状态统计任务数量
func (s *Service) GetStats() (*model.TaskStats, error) {
	return s.store.Stats()
}

// CancelTask 取消任务
// 先落库再打断执行协程，终态任务不可取消
func (s *Service) CancelTask(_ context.Context, taskID string) (*Task, error) {
	if taskID == constant.EmptyString {
		return nil, model.NewError(model.ErrorEmptyId, nil)
	}

	task, err := s.store.Update(taskID, func(t *Task) error {
		t.Status = TaskStatusCancelled
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.pool != nil {
		s.pool.Cancel(taskID)
	}
	log.Infof("task cancelled: task_id=%s", taskID)
	return task, nil
}

// SubmitDecision 提交人工审核决定
func (s *Service) SubmitDecision(ctx context.Context, taskID string, req *ApprovalRequest) (*Task, error) {
	if taskID == constant.EmptyString {
		return nil, model.NewError(model.ErrorEmptyId, nil)
	}
	return s.gate.SubmitDecision(ctx, taskID, req)
}

// RetryPublish 重试发布
func (s *Service) RetryPublish(ctx context.Context, taskID string) (*Task, error) {
	if taskID == constant.EmptyString {
		return nil, model.NewError(model.ErrorEmptyId, nil)
	}
	return s.gate.RetryPublish(ctx, taskID)
}

// EstimateCost 不创建任务的成本预估
func (s *Service) EstimateCost(req *EstimateRequest) (*EstimateResponse, error) {
	tier := TierBalanced
	if req.QualityPreference != "" {
		tier = QualityTier(req.QualityPreference)
		if !tier.IsValid() {
			return nil, model.NewError(model.ErrorValidation, fmt.Errorf("invalid quality preference %q", req.QualityPreference))
		}
	}

	params := &GenerationParams{
		TargetLength:      req.TargetLength,
		ModelSelections:   req.ModelSelections,
		QualityPreference: tier,
	}
	return s.selector.EstimateCost(params, s.cfg.MaxIterations)
}

// SubscribeProgress 订阅进度事件
func (s *Service) SubscribeProgress() (<-chan ProgressEvent, func()) {
	return s.broker.Subscribe()
}
