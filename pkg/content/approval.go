package content

import (
	"context"
	"fmt"
	"strings"
	"time"

	"ai_content/constant"
	"ai_content/model"

	log "github.com/sirupsen/logrus"
)

// ApprovalGate 人工审核关口：审核决定落库，通过后触发发布
type ApprovalGate struct {
	store     Store
	publisher Publisher
}

// NewApprovalGate 创建审核关口
func NewApprovalGate(store Store, publisher Publisher) *ApprovalGate {
	return &ApprovalGate{store: store, publisher: publisher}
}

// SubmitDecision 提交审核决定
// 通过后立即尝试发布；发布失败不回滚审核结果，任务停在 approved 并可重试发布
func (g *ApprovalGate) SubmitDecision(ctx context.Context, taskID string, req *ApprovalRequest) (*Task, error) {
	decision := ApprovalDecision(req.Decision)
	if !decision.IsValid() {
		return nil, model.NewTaskError(model.ErrorValidation, taskID, fmt.Errorf("invalid decision %q", req.Decision))
	}
	if decision == DecisionReject && strings.TrimSpace(req.Reason) == "" {
		return nil, model.NewTaskError(model.ErrorValidation, taskID, fmt.Errorf("reject requires a reason"))
	}

	task, err := g.store.Update(taskID, func(t *Task) error {
		if t.Status != TaskStatusAwaitingApproval {
			return model.NewTaskError(model.ErrorState, taskID,
				fmt.Errorf("approval requires status %s, got %s", TaskStatusAwaitingApproval, t.Status))
		}
		t.Approval = &Approval{
			Decision:   decision,
			ReviewerID: req.ReviewerID,
			Reason:     req.Reason,
			DecidedAt:  time.Now(),
		}
		if decision == DecisionApprove {
			t.Status = TaskStatusApproved
		} else {
			t.Status = TaskStatusRejected
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Infof("approval decision recorded: task_id=%s, decision=%s, reviewer=%s", taskID, decision, req.ReviewerID)

	if decision == DecisionApprove {
		return g.publish(ctx, task)
	}
	return task, nil
}

// RetryPublish 重试发布，仅允许上次发布失败的已审核任务
func (g *ApprovalGate) RetryPublish(ctx context.Context, taskID string) (*Task, error) {
	task, err := g.store.Get(taskID)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, model.NewTaskError(model.ErrorTaskNotFound, taskID, nil)
	}
	if task.Status != TaskStatusApproved || !task.PublishFailed {
		return nil, model.NewTaskError(model.ErrorState, taskID,
			fmt.Errorf("retry publish requires an approved task with a failed publish, status=%s", task.Status))
	}
	return g.publish(ctx, task)
}

// publish 发布内容并落库发布结果
func (g *ApprovalGate) publish(ctx context.Context, task *Task) (*Task, error) {
	externalID, publishedURL, err := g.publisher.Publish(ctx, task.ID, extractTitle(task), task.Content, task.Params.Tags)
	if err != nil {
		log.Errorf("publish failed: task_id=%s, err=%v", task.ID, err)
		// 发布失败任务停留在 approved，标记可重试
		marked, markErr := g.store.Update(task.ID, func(t *Task) error {
			t.PublishFailed = true
			return nil
		})
		if markErr != nil {
			log.Errorf("failed to mark publish failure: task_id=%s, err=%v", task.ID, markErr)
			return task, model.NewTaskError(model.ErrorPublish, task.ID, err)
		}
		return marked, model.NewTaskError(model.ErrorPublish, task.ID, err)
	}

	published, err := g.store.Update(task.ID, func(t *Task) error {
		t.Status = TaskStatusPublished
		t.PublishFailed = false
		t.ExternalID = externalID
		t.PublishedURL = publishedURL
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Infof("task published: task_id=%s, external_id=%s, url=%s", task.ID, externalID, publishedURL)
	return published, nil
}

// extractTitle 从正文首个一级标题提取题目，没有则退回主题
func extractTitle(task *Task) string {
	for _, line := range strings.Split(task.Content, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "# ") {
			return strings.TrimSpace(strings.TrimPrefix(line, "# "))
		}
	}
	if task.Topic != constant.EmptyString {
		return task.Topic
	}
	return task.Params.Topic
}
