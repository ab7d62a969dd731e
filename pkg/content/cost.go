package content

import (
	"context"

	goredis "github.com/go-redis/redis/v8"
	log "github.com/sirupsen/logrus"
)

const (
	costTaskKeyPrefix  = "ai_content:cost:task:"
	costPhaseKeyPrefix = "ai_content:cost:phase:"
)

// RedisCostRecorder 基于 redis 的成本累计器
// 记录失败只打日志，不影响任务执行
type RedisCostRecorder struct {
	client *goredis.Client
}

// NewRedisCostRecorder 创建 redis 成本累计器
func NewRedisCostRecorder(client *goredis.Client) *RedisCostRecorder {
	return &RedisCostRecorder{client: client}
}

func (r *RedisCostRecorder) Record(ctx context.Context, taskID string, phase PhaseName, amount float64) {
	if amount <= 0 {
		return
	}
	pipe := r.client.Pipeline()
	pipe.IncrByFloat(ctx, costTaskKeyPrefix+taskID, amount)
	pipe.IncrByFloat(ctx, costPhaseKeyPrefix+phase.String(), amount)
	if _, err := pipe.Exec(ctx); err != nil {
		log.Warnf("cost record failed: task_id=%s, phase=%s, err=%v", taskID, phase, err)
	}
}

// LogCostRecorder 未配置 redis 时的日志成本记录器
type LogCostRecorder struct{}

func (LogCostRecorder) Record(_ context.Context, taskID string, phase PhaseName, amount float64) {
	if amount <= 0 {
		return
	}
	log.Infof("phase cost: task_id=%s, phase=%s, amount=%.6f", taskID, phase, amount)
}
