package model

import "time"

// ========== 内容任务查询条件 ==========

// TaskQueryCondition 内容任务查询条件
type TaskQueryCondition struct {
	Status    *string    `json:"status"`
	Topic     *string    `json:"topic"` // like 查询
	StartDate *time.Time `json:"start_date"`
	EndDate   *time.Time `json:"end_date"`
	*Pager
	*Order
}

func (c *TaskQueryCondition) GetPager() *Pager {
	return c.Pager
}

func (c *TaskQueryCondition) GetOrder() *Order {
	return c.Order
}

// UpsertTaskCondition 创建/更新内容任务条件
// 指针字段为 nil 时表示不更新对应列
type UpsertTaskCondition struct {
	ID                   string     `json:"id"`
	Topic                string     `json:"topic"`
	Status               *string    `json:"status"`
	CurrentPhase         *string    `json:"current_phase"`
	ParamsJSON           *string    `json:"params_json"`
	SelectionsJSON       *string    `json:"selections_json"`
	QualityHistoryJSON   *string    `json:"quality_history_json"`
	ApprovalJSON         *string    `json:"approval_json"`
	Content              *string    `json:"content"`
	ResearchNotes        *string    `json:"research_notes"`
	CoverAssetURL        *string    `json:"cover_asset_url"`
	IterationCount       *int       `json:"iteration_count"`
	QualityGateExhausted *bool      `json:"quality_gate_exhausted"`
	PublishFailed        *bool      `json:"publish_failed"`
	ExternalID           *string    `json:"external_id"`
	PublishedURL         *string    `json:"published_url"`
	CostEstimate         *float64   `json:"cost_estimate"`
	CostActual           *float64   `json:"cost_actual"`
	FailureReason        *string    `json:"failure_reason"`
	CompletedAt          *time.Time `json:"completed_at"`
}

// ========== 任务统计 ==========

// TaskStats 按状态的任务统计
type TaskStats struct {
	Total            int `json:"total"`
	Pending          int `json:"pending"`
	Generating       int `json:"generating"`
	AwaitingApproval int `json:"awaiting_approval"`
	Approved         int `json:"approved"`
	Published        int `json:"published"`
	Rejected         int `json:"rejected"`
	Failed           int `json:"failed"`
	Cancelled        int `json:"cancelled"`
}
