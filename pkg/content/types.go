// Package content 实现内容生成编排引擎
// 核心流程：
// 1. 任务入队后由工作池按阶段流水线执行（research → draft → assess → refine → finalize）
// 2. 质量评估驱动有界改写循环，未达标不静默失败
// 3. 达标或轮数用尽后进入人工审核关口
// 4. 审核通过后发布，发布失败可单独重试
package content

import (
	"time"

	"ai_content/constant"
)

// 类型别名，方便包内使用
type (
	TaskStatus       = constant.TaskStatus
	PhaseName        = constant.PhaseName
	QualityTier      = constant.QualityTier
	EvalMode         = constant.EvalMode
	ApprovalDecision = constant.ApprovalDecision
	StorageType      = constant.StorageType
	QualityDimension = constant.QualityDimension
)

// 常量别名，保持包内调用简洁
const (
	TaskStatusPending          = constant.TaskStatusPending
	TaskStatusGenerating       = constant.TaskStatusGenerating
	TaskStatusAwaitingApproval = constant.TaskStatusAwaitingApproval
	TaskStatusApproved         = constant.TaskStatusApproved
	TaskStatusRejected         = constant.TaskStatusRejected
	TaskStatusPublished        = constant.TaskStatusPublished
	TaskStatusFailed           = constant.TaskStatusFailed
	TaskStatusCancelled        = constant.TaskStatusCancelled

	PhaseResearch = constant.PhaseResearch
	PhaseDraft    = constant.PhaseDraft
	PhaseAssess   = constant.PhaseAssess
	PhaseRefine   = constant.PhaseRefine
	PhaseFinalize = constant.PhaseFinalize

	TierFast     = constant.TierFast
	TierBalanced = constant.TierBalanced
	TierBest     = constant.TierBest

	EvalModePattern = constant.EvalModePattern
	EvalModeModel   = constant.EvalModeModel
	EvalModeHybrid  = constant.EvalModeHybrid

	DecisionApprove = constant.DecisionApprove
	DecisionReject  = constant.DecisionReject

	StorageTypeFile   = constant.StorageTypeFile
	StorageTypeDB     = constant.StorageTypeDB
	StorageTypeHybrid = constant.StorageTypeHybrid

	ModelSelectionAuto = constant.ModelSelectionAuto
)

// GenerationParams 生成参数
type GenerationParams struct {
	Topic             string            `json:"topic"`                    // 内容主题
	Style             string            `json:"style,omitempty"`          // 文体风格，eg: "技术博客"
	Tone              string            `json:"tone,omitempty"`           // 语气，eg: "专业"
	TargetLength      int               `json:"target_length"`            // 目标字数
	Tags              []string          `json:"tags,omitempty"`           // 标签
	ModelSelections   map[string]string `json:"model_selections"`         // 阶段名 -> 模型名 / auto
	QualityPreference QualityTier       `json:"quality_preference"`       // auto 选择时使用的档位
	SourceTaskID      string            `json:"source_task_id,omitempty"` // 被拒绝任务重开时携带的来源任务ID
}

// QualityAssessment 一轮质量评估结果
type QualityAssessment struct {
	Iteration   int                          `json:"iteration"`             // 第几轮评估（0 为初稿）
	Mode        EvalMode                     `json:"mode"`                  // 本轮使用的评估模式
	Dimensions  map[QualityDimension]float64 `json:"dimensions"`            // 各维度得分 [0,10]
	Aggregate   float64                      `json:"aggregate"`             // 加权综合分
	Passed      bool                         `json:"passed"`                // 是否达到质量门槛
	Feedback    string                       `json:"feedback,omitempty"`    // 评估意见
	Suggestions []string                     `json:"suggestions,omitempty"` // 改进建议，未达标时非空
	NeedsReview bool                         `json:"needs_review"`          // hybrid 模式下模型与规则分歧过大
	EvaluatedAt time.Time                    `json:"evaluated_at"`          // 评估时间
}

// Approval 人工审核记录，每个任务至多一条
type Approval struct {
	Decision   ApprovalDecision `json:"decision"`         // 审核决定
	ReviewerID string           `json:"reviewer_id"`      // 审核人
	Reason     string           `json:"reason,omitempty"` // 理由，拒绝时必填
	DecidedAt  time.Time        `json:"decided_at"`       // 决定时间
}

// Task 内容任务（对应 task.json）
type Task struct {
	ID             string              `json:"id"`                        // 任务唯一标识符
	Topic          string              `json:"topic"`                     // 内容主题
	Status         TaskStatus          `json:"status"`                    // 任务状态
	CurrentPhase   PhaseName           `json:"current_phase,omitempty"`   // 当前执行阶段
	Params         GenerationParams    `json:"params"`                    // 生成参数
	Content        string              `json:"content,omitempty"`         // 当前最优内容
	ResearchNotes  string              `json:"research_notes,omitempty"`  // 调研阶段产出
	QualityHistory []QualityAssessment `json:"quality_history,omitempty"` // 各轮评估记录
	IterationCount int                 `json:"iteration_count"`           // 已执行的改写轮数
	Approval       *Approval           `json:"approval,omitempty"`        // 人工审核记录

	// 质量门与发布标记
	QualityGateExhausted bool   `json:"quality_gate_exhausted"` // 改写轮数用尽仍未达标
	PublishFailed        bool   `json:"publish_failed"`         // 上次发布失败，可重试
	ExternalID           string `json:"external_id,omitempty"`  // CMS 侧的内容ID
	PublishedURL         string `json:"published_url,omitempty"`
	CoverAssetURL        string `json:"cover_asset_url,omitempty"` // finalize 阶段挂接的封面素材

	// 成本
	CostEstimate float64 `json:"cost_estimate"` // 创建时的预估成本
	CostActual   float64 `json:"cost_actual"`   // 按阶段累计的实际成本

	FailureReason string     `json:"failure_reason,omitempty"` // 失败原因
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"` // 进入终态的时间
}

// LatestAssessment 返回最近一轮评估，没有时返回 nil
func (t *Task) LatestAssessment() *QualityAssessment {
	if len(t.QualityHistory) == 0 {
		return nil
	}
	return &t.QualityHistory[len(t.QualityHistory)-1]
}

// PhaseDefinition 阶段定义
type PhaseDefinition struct {
	Name        PhaseName     `json:"name"`          // 阶段名
	Required    bool          `json:"required"`      // 必需阶段失败则任务失败
	SkipOnError bool          `json:"skip_on_error"` // 可跳过阶段失败时记录并继续
	Timeout     time.Duration `json:"timeout"`       // 单次执行超时
	MaxRetries  int           `json:"max_retries"`   // 重试次数（不含首次执行）
}

// ProgressEvent 进度事件
type ProgressEvent struct {
	TaskID    string    `json:"task_id"`
	Phase     PhaseName `json:"phase,omitempty"`
	Percent   int       `json:"percent"`           // 整体进度 [0,100]
	Message   string    `json:"message,omitempty"` // 人类可读说明
	Elapsed   int64     `json:"elapsed_ms"`        // 任务启动以来的耗时（毫秒）
	Timestamp time.Time `json:"timestamp"`
}

// TaskFilter 任务列表过滤条件
type TaskFilter struct {
	Status    *TaskStatus `json:"status,omitempty"`
	StartDate *time.Time  `json:"start_date,omitempty"`
	EndDate   *time.Time  `json:"end_date,omitempty"`
	Offset    int         `json:"offset"`
	Limit     int         `json:"limit"`
}

// GenerateRequest 创建任务请求
type GenerateRequest struct {
	Topic             string            `json:"topic" binding:"required"` // 内容主题（必填）
	Style             string            `json:"style,omitempty"`
	Tone              string            `json:"tone,omitempty"`
	TargetLength      int               `json:"target_length,omitempty"`
	Tags              []string          `json:"tags,omitempty"`
	ModelSelections   map[string]string `json:"model_selections,omitempty"`   // 阶段名 -> 模型名 / auto
	QualityPreference string            `json:"quality_preference,omitempty"` // fast / balanced / best
	SourceTaskID      string            `json:"source_task_id,omitempty"`     // 重开来源任务
}

// GenerateResponse 创建任务响应
type GenerateResponse struct {
	TaskID       string  `json:"task_id"`
	Status       string  `json:"status"`
	CostEstimate float64 `json:"cost_estimate"`
}

// ApprovalRequest 审核请求
type ApprovalRequest struct {
	Decision   string `json:"decision" binding:"required"`    // approve / reject
	ReviewerID string `json:"reviewer_id" binding:"required"` // 审核人（必填）
	Reason     string `json:"reason,omitempty"`               // 拒绝时必填
}

// EstimateRequest 成本预估请求
type EstimateRequest struct {
	TargetLength      int               `json:"target_length,omitempty"`
	ModelSelections   map[string]string `json:"model_selections,omitempty"`
	QualityPreference string            `json:"quality_preference,omitempty"`
}

// EstimateResponse 成本预估响应
type EstimateResponse struct {
	Total   float64            `json:"total"`
	ByPhase map[string]float64 `json:"by_phase"`
	Models  map[string]string  `json:"models"` // 阶段名 -> 实际解析出的模型
}

// EngineConfig 编排引擎配置
type EngineConfig struct {
	// 存储配置
	StorageType    StorageType `json:"storage_type"`     // 存储类型（file文件/db数据库/hybrid混合）
	StoragePath    string      `json:"storage_path"`     // 文件存储路径
	EnableFileSync bool        `json:"enable_file_sync"` // 混合模式下是否同步到文件系统

	// 执行配置
	Workers       int           `json:"workers"`        // 工作协程数
	MaxIterations int           `json:"max_iterations"` // 最大改写轮数
	PhaseTimeout  time.Duration `json:"phase_timeout"`  // 单阶段超时
	PhaseRetries  int           `json:"phase_retries"`  // 阶段重试次数
	RetryBackoff  time.Duration `json:"retry_backoff"`  // 重试退避基数，按次翻倍
	PollInterval  time.Duration `json:"poll_interval"`  // 工作池轮询间隔

	// 质量配置
	QualityThreshold float64  `json:"quality_threshold"` // 达标分
	EvalMode         EvalMode `json:"eval_mode"`         // 评估模式
}

// DefaultEngineConfig 返回默认配置
func DefaultEngineConfig() *EngineConfig {
	return &EngineConfig{
		StorageType:      StorageTypeFile,
		StoragePath:      constant.DefaultTaskStoragePath,
		EnableFileSync:   true,
		Workers:          constant.DefaultWorkerCount,
		MaxIterations:    constant.DefaultMaxIterations,
		PhaseTimeout:     constant.DefaultPhaseTimeout,
		PhaseRetries:     constant.DefaultPhaseRetries,
		RetryBackoff:     constant.DefaultRetryBackoff,
		PollInterval:     2 * time.Second,
		QualityThreshold: constant.DefaultQualityThreshold,
		EvalMode:         EvalModeHybrid,
	}
}

// DefaultPhaseDefinitions 返回标准流水线的阶段定义
func DefaultPhaseDefinitions(cfg *EngineConfig) []PhaseDefinition {
	return []PhaseDefinition{
		{Name: PhaseResearch, Required: false, SkipOnError: true, Timeout: cfg.PhaseTimeout, MaxRetries: cfg.PhaseRetries},
		{Name: PhaseDraft, Required: true, Timeout: cfg.PhaseTimeout, MaxRetries: cfg.PhaseRetries},
		{Name: PhaseAssess, Required: true, Timeout: cfg.PhaseTimeout, MaxRetries: cfg.PhaseRetries},
		{Name: PhaseRefine, Required: true, Timeout: cfg.PhaseTimeout, MaxRetries: cfg.PhaseRetries},
		{Name: PhaseFinalize, Required: false, SkipOnError: true, Timeout: cfg.PhaseTimeout, MaxRetries: cfg.PhaseRetries},
	}
}
