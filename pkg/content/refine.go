package content

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
)

// RefineOutcome 改写循环的结果
type RefineOutcome string

const (
	// RefineOutcomePassed 内容达到质量门槛
	RefineOutcomePassed RefineOutcome = "passed"
	// RefineOutcomeExhausted 轮数用尽仍未达标，保留历史最优版本
	RefineOutcomeExhausted RefineOutcome = "exhausted"
)

// RefineController 评估驱动的有界改写循环
// 执行序列：assess → (refine → assess) × 至多 MaxIterations 轮
type RefineController struct {
	engine    *Engine
	assessDef PhaseDefinition
	refineDef PhaseDefinition
}

// NewRefineController 创建改写循环控制器
func NewRefineController(engine *Engine, assessDef, refineDef PhaseDefinition) *RefineController {
	return &RefineController{engine: engine, assessDef: assessDef, refineDef: refineDef}
}

// Run 执行改写循环
// 达标立即结束；轮数用尽时回退到得分最高的版本，由调用方标记质量门未达标
func (c *RefineController) Run(ctx context.Context, task *Task, startedAt time.Time) (RefineOutcome, error) {
	if err := c.engine.runStage(ctx, task, c.assessDef, startedAt); err != nil {
		return "", err
	}

	bestContent := task.Content
	bestScore := task.LatestAssessment().Aggregate

	for {
		latest := task.LatestAssessment()
		if latest.Aggregate > bestScore {
			bestContent = task.Content
			bestScore = latest.Aggregate
		}

		if latest.Passed {
			log.Infof("quality gate passed: task_id=%s, score=%.2f, iteration=%d", task.ID, latest.Aggregate, latest.Iteration)
			return RefineOutcomePassed, nil
		}

		if task.IterationCount >= c.engine.cfg.MaxIterations {
			log.Warnf("quality gate exhausted: task_id=%s, best_score=%.2f, iterations=%d", task.ID, bestScore, task.IterationCount)
			task.Content = bestContent
			if err := c.engine.persist(task); err != nil {
				return "", err
			}
			return RefineOutcomeExhausted, nil
		}

		task.IterationCount++
		if err := c.engine.runStage(ctx, task, c.refineDef, startedAt); err != nil {
			return "", err
		}
		if err := c.engine.runStage(ctx, task, c.assessDef, startedAt); err != nil {
			return "", err
		}
	}
}
