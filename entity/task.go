package entity

import "time"

// ========== 内容任务表 ==========

const (
	TableNameContentTask = "content_tasks"

	ContentTaskFieldID                   = "id"
	ContentTaskFieldTopic                = "topic"
	ContentTaskFieldStatus               = "status"
	ContentTaskFieldCurrentPhase         = "current_phase"
	ContentTaskFieldParamsJSON           = "params_json"
	ContentTaskFieldSelectionsJSON       = "selections_json"
	ContentTaskFieldQualityHistoryJSON   = "quality_history_json"
	ContentTaskFieldApprovalJSON         = "approval_json"
	ContentTaskFieldContent              = "content"
	ContentTaskFieldResearchNotes        = "research_notes"
	ContentTaskFieldCoverAssetURL        = "cover_asset_url"
	ContentTaskFieldIterationCount       = "iteration_count"
	ContentTaskFieldQualityGateExhausted = "quality_gate_exhausted"
	ContentTaskFieldPublishFailed        = "publish_failed"
	ContentTaskFieldExternalID           = "external_id"
	ContentTaskFieldPublishedURL         = "published_url"
	ContentTaskFieldCostEstimate         = "cost_estimate"
	ContentTaskFieldCostActual           = "cost_actual"
	ContentTaskFieldFailureReason        = "failure_reason"
	ContentTaskFieldCreatedAt            = "created_at"
	ContentTaskFieldUpdatedAt            = "updated_at"
	ContentTaskFieldCompletedAt          = "completed_at"
)

// ContentTask 内容任务数据库实体
type ContentTask struct {
	ID                   string     `xorm:"pk varchar(64) 'id'" json:"id"`
	Topic                string     `xorm:"text 'topic'" json:"topic"`
	Status               string     `xorm:"varchar(32) index 'status'" json:"status"`
	CurrentPhase         string     `xorm:"varchar(32) 'current_phase'" json:"current_phase"`
	ParamsJSON           string     `xorm:"text 'params_json'" json:"params_json"`
	SelectionsJSON       string     `xorm:"text 'selections_json'" json:"selections_json"`
	QualityHistoryJSON   string     `xorm:"text 'quality_history_json'" json:"quality_history_json"`
	ApprovalJSON         string     `xorm:"text 'approval_json'" json:"approval_json"`
	Content              string     `xorm:"text 'content'" json:"content"`
	ResearchNotes        string     `xorm:"text 'research_notes'" json:"research_notes"`
	CoverAssetURL        string     `xorm:"varchar(512) 'cover_asset_url'" json:"cover_asset_url"`
	IterationCount       int        `xorm:"int 'iteration_count'" json:"iteration_count"`
	QualityGateExhausted bool       `xorm:"bool 'quality_gate_exhausted'" json:"quality_gate_exhausted"`
	PublishFailed        bool       `xorm:"bool 'publish_failed'" json:"publish_failed"`
	ExternalID           string     `xorm:"varchar(128) 'external_id'" json:"external_id"`
	PublishedURL         string     `xorm:"varchar(512) 'published_url'" json:"published_url"`
	CostEstimate         float64    `xorm:"double 'cost_estimate'" json:"cost_estimate"`
	CostActual           float64    `xorm:"double 'cost_actual'" json:"cost_actual"`
	FailureReason        string     `xorm:"text 'failure_reason'" json:"failure_reason"`
	CreatedAt            time.Time  `xorm:"created 'created_at'" json:"created_at"`
	UpdatedAt            time.Time  `xorm:"updated 'updated_at'" json:"updated_at"`
	CompletedAt          *time.Time `xorm:"'completed_at'" json:"completed_at"`
}

func (e *ContentTask) TableName() string {
	return TableNameContentTask
}
