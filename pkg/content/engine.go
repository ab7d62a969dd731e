package content

import (
	"context"
	"fmt"
	"time"

	"ai_content/constant"
	"ai_content/model"

	log "github.com/sirupsen/logrus"
)

// phaseProgress 各阶段开始时的整体进度
var phaseProgress = map[PhaseName]int{
	PhaseResearch: 10,
	PhaseDraft:    30,
	PhaseAssess:   55,
	PhaseRefine:   70,
	PhaseFinalize: 90,
}

// Engine 内容生成编排引擎，负责阶段执行、重试和进度上报
type Engine struct {
	cfg      *EngineConfig
	store    Store
	selector *ModelSelector
	registry HandlerRegistry
	broker   *Broker
	costs    CostRecorder
}

// NewEngine 创建编排引擎
func NewEngine(cfg *EngineConfig, store Store, selector *ModelSelector, registry HandlerRegistry, broker *Broker, costs CostRecorder) *Engine {
	return &Engine{
		cfg:      cfg,
		store:    store,
		selector: selector,
		registry: registry,
		broker:   broker,
		costs:    costs,
	}
}

// emit 发布进度事件
func (e *Engine) emit(task *Task, phase PhaseName, percent int, message string, startedAt time.Time) {
	if e.broker == nil {
		return
	}
	e.broker.Publish(ProgressEvent{
		TaskID:  task.ID,
		Phase:   phase,
		Percent: percent,
		Message: message,
		Elapsed: time.Since(startedAt).Milliseconds(),
	})
}

// RunPhase 执行单个阶段：解析模型、限时执行、失败按退避重试
func (e *Engine) RunPhase(ctx context.Context, task *Task, def PhaseDefinition) error {
	provider := e.selector.Resolve(def.Name, &task.Params)
	generator, err := e.selector.ResolveGenerator(provider)
	if err != nil {
		return err
	}
	handler, err := e.registry.Get(def.Name)
	if err != nil {
		return err
	}

	backoff := e.cfg.RetryBackoff
	var lastErr error
	for attempt := 0; attempt <= def.MaxRetries; attempt++ {
		if ctx.Err() != nil {
			return model.NewTaskError(model.ErrorCancelled, task.ID, ctx.Err())
		}
		if attempt > 0 {
			log.Infof("retrying phase: task_id=%s, phase=%s, attempt=%d", task.ID, def.Name, attempt)
			select {
			case <-ctx.Done():
				return model.NewTaskError(model.ErrorCancelled, task.ID, ctx.Err())
			case <-time.After(backoff):
			}
			backoff *= 2
		}

		attemptCtx, cancel := context.WithTimeout(ctx, def.Timeout)
		err := handler.Execute(attemptCtx, task, generator)
		cancel()
		if err == nil {
			cost := e.selector.PhaseCost(def.Name, provider, task.Params.TargetLength)
			task.CostActual += cost
			if e.costs != nil {
				e.costs.Record(ctx, task.ID, def.Name, cost)
			}
			return nil
		}

		// 参数和状态类错误重试无意义
		if model.IsCode(err, model.ErrorValidation) || model.IsCode(err, model.ErrorState) {
			return err
		}
		lastErr = err
		log.Warnf("phase attempt failed: task_id=%s, phase=%s, attempt=%d, err=%v", task.ID, def.Name, attempt, err)
	}

	if ctx.Err() != nil {
		return model.NewTaskError(model.ErrorCancelled, task.ID, ctx.Err())
	}
	return lastErr
}

// RunPipeline 执行完整流水线：research → draft → 评估改写循环 → finalize
// 正常结束后任务进入人工审核状态
func (e *Engine) RunPipeline(ctx context.Context, taskID string) error {
	task, err := e.store.Get(taskID)
	if err != nil {
		return err
	}
	if task == nil {
		return model.NewTaskError(model.ErrorTaskNotFound, taskID, nil)
	}
	if task.Status != TaskStatusGenerating {
		return model.NewTaskError(model.ErrorState, taskID,
			fmt.Errorf("pipeline requires status %s, got %s", TaskStatusGenerating, task.Status))
	}

	startedAt := time.Now()
	defs := make(map[PhaseName]PhaseDefinition)
	for _, def := range DefaultPhaseDefinitions(e.cfg) {
		defs[def.Name] = def
	}

	// 调研，可跳过
	if err := e.runStage(ctx, task, defs[PhaseResearch], startedAt); err != nil {
		if model.IsCode(err, model.ErrorCancelled) {
			return e.handleCancelled(task)
		}
		return e.failTask(task, PhaseResearch, err, startedAt)
	}

	// 初稿，必需
	if err := e.runStage(ctx, task, defs[PhaseDraft], startedAt); err != nil {
		if model.IsCode(err, model.ErrorCancelled) {
			return e.handleCancelled(task)
		}
		return e.failTask(task, PhaseDraft, err, startedAt)
	}

	// 评估驱动的有界改写循环
	controller := NewRefineController(e, defs[PhaseAssess], defs[PhaseRefine])
	outcome, err := controller.Run(ctx, task, startedAt)
	if err != nil {
		if model.IsCode(err, model.ErrorCancelled) {
			return e.handleCancelled(task)
		}
		return e.failTask(task, PhaseAssess, err, startedAt)
	}
	task.QualityGateExhausted = outcome == RefineOutcomeExhausted

	// 终稿润色，可跳过
	if err := e.runStage(ctx, task, defs[PhaseFinalize], startedAt); err != nil {
		if model.IsCode(err, model.ErrorCancelled) {
			return e.handleCancelled(task)
		}
		return e.failTask(task, PhaseFinalize, err, startedAt)
	}

	task.Status = TaskStatusAwaitingApproval
	task.CurrentPhase = constant.EmptyString
	if err := e.persist(task); err != nil {
		return err
	}

	message := "生成完成，等待人工审核"
	if task.QualityGateExhausted {
		message = "改写轮数用尽仍未达标，等待人工审核"
	}
	e.emit(task, "", 100, message, startedAt)
	return nil
}

// runStage 执行一个阶段并持久化结果，可跳过的阶段失败时记录后继续
func (e *Engine) runStage(ctx context.Context, task *Task, def PhaseDefinition, startedAt time.Time) error {
	task.CurrentPhase = def.Name
	if err := e.persist(task); err != nil {
		return err
	}
	e.emit(task, def.Name, phaseProgress[def.Name], fmt.Sprintf("阶段 %s 开始", def.Name), startedAt)

	if err := e.RunPhase(ctx, task, def); err != nil {
		if def.SkipOnError && !model.IsCode(err, model.ErrorCancelled) {
			log.Warnf("skipping optional phase: task_id=%s, phase=%s, err=%v", task.ID, def.Name, err)
			e.emit(task, def.Name, phaseProgress[def.Name], fmt.Sprintf("阶段 %s 失败，已跳过", def.Name), startedAt)
			return nil
		}
		return err
	}

	if err := e.persist(task); err != nil {
		return err
	}
	e.emit(task, def.Name, phaseProgress[def.Name], fmt.Sprintf("阶段 %s 完成", def.Name), startedAt)
	return nil
}

// failTask 必需阶段失败，任务进入失败终态
func (e *Engine) failTask(task *Task, phase PhaseName, cause error, startedAt time.Time) error {
	log.Errorf("pipeline failed: task_id=%s, phase=%s, err=%v", task.ID, phase, cause)

	task.Status = TaskStatusFailed
	task.FailureReason = cause.Error()
	if err := e.persist(task); err != nil {
		log.Errorf("failed to persist failed task: task_id=%s, err=%v", task.ID, err)
	}
	e.emit(task, phase, 100, "任务失败："+cause.Error(), startedAt)
	return cause
}

// handleCancelled 执行中被取消：取消状态由取消方写入，这里不再落库
func (e *Engine) handleCancelled(task *Task) error {
	log.Infof("pipeline cancelled: task_id=%s", task.ID)
	return model.NewTaskError(model.ErrorCancelled, task.ID, nil)
}

// persist 将工作副本的执行结果写回存储
func (e *Engine) persist(task *Task) error {
	updated, err := e.store.Update(task.ID, func(t *Task) error {
		t.Status = task.Status
		t.CurrentPhase = task.CurrentPhase
		t.Content = task.Content
		t.ResearchNotes = task.ResearchNotes
		t.QualityHistory = task.QualityHistory
		t.IterationCount = task.IterationCount
		t.QualityGateExhausted = task.QualityGateExhausted
		t.CoverAssetURL = task.CoverAssetURL
		t.CostActual = task.CostActual
		t.FailureReason = task.FailureReason
		return nil
	})
	if err != nil {
		return err
	}
	task.UpdatedAt = updated.UpdatedAt
	task.CompletedAt = updated.CompletedAt
	return nil
}
