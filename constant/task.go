package constant

import "time"

// =============================================
// 任务状态常量
// =============================================

// TaskStatus 任务状态类型
type TaskStatus string

const (
	// TaskStatusPending 待处理
	TaskStatusPending TaskStatus = "pending"
	// TaskStatusGenerating 生成中
	TaskStatusGenerating TaskStatus = "generating"
	// TaskStatusAwaitingApproval 等待人工审核
	TaskStatusAwaitingApproval TaskStatus = "awaiting_approval"
	// TaskStatusApproved 审核通过
	TaskStatusApproved TaskStatus = "approved"
	// TaskStatusRejected 审核拒绝（终态）
	TaskStatusRejected TaskStatus = "rejected"
	// TaskStatusPublished 已发布（终态）
	TaskStatusPublished TaskStatus = "published"
	// TaskStatusFailed 失败（终态）
	TaskStatusFailed TaskStatus = "failed"
	// TaskStatusCancelled 已取消（终态）
	TaskStatusCancelled TaskStatus = "cancelled"
)

// String 返回状态的字符串值
func (s TaskStatus) String() string {
	return string(s)
}

// IsValid 检查状态是否有效
func (s TaskStatus) IsValid() bool {
	switch s {
	case TaskStatusPending, TaskStatusGenerating, TaskStatusAwaitingApproval,
		TaskStatusApproved, TaskStatusRejected, TaskStatusPublished,
		TaskStatusFailed, TaskStatusCancelled:
		return true
	}
	return false
}

// IsTerminal 是否为终态，终态任务不可再变更
func (s TaskStatus) IsTerminal() bool {
	switch s {
	case TaskStatusPublished, TaskStatusFailed, TaskStatusRejected, TaskStatusCancelled:
		return true
	}
	return false
}

// taskTransitions 状态机允许的迁移表
var taskTransitions = map[TaskStatus][]TaskStatus{
	TaskStatusPending:          {TaskStatusGenerating, TaskStatusCancelled},
	TaskStatusGenerating:       {TaskStatusAwaitingApproval, TaskStatusFailed, TaskStatusCancelled},
	TaskStatusAwaitingApproval: {TaskStatusApproved, TaskStatusRejected, TaskStatusCancelled},
	TaskStatusApproved:         {TaskStatusPublished, TaskStatusCancelled},
}

// CanTransition 检查状态迁移是否合法，纯函数
func CanTransition(from, to TaskStatus) bool {
	for _, next := range taskTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// =============================================
// 阶段常量
// =============================================

// PhaseName 生成流水线阶段名
type PhaseName string

const (
	// PhaseResearch 资料调研阶段（可跳过）
	PhaseResearch PhaseName = "research"
	// PhaseDraft 初稿生成阶段
	PhaseDraft PhaseName = "draft"
	// PhaseAssess 质量评估阶段
	PhaseAssess PhaseName = "assess"
	// PhaseRefine 改写提升阶段
	PhaseRefine PhaseName = "refine"
	// PhaseFinalize 终稿整理阶段（可跳过）
	PhaseFinalize PhaseName = "finalize"
)

// String 返回阶段名的字符串值
func (p PhaseName) String() string {
	return string(p)
}

// IsValid 检查阶段名是否有效
func (p PhaseName) IsValid() bool {
	switch p {
	case PhaseResearch, PhaseDraft, PhaseAssess, PhaseRefine, PhaseFinalize:
		return true
	}
	return false
}

// =============================================
// 模型档位常量
// =============================================

// QualityTier 模型选择档位
type QualityTier string

const (
	// TierFast 速度优先
	TierFast QualityTier = "fast"
	// TierBalanced 均衡
	TierBalanced QualityTier = "balanced"
	// TierBest 质量优先
	TierBest QualityTier = "best"
)

// String 返回档位的字符串值
func (t QualityTier) String() string {
	return string(t)
}

// IsValid 检查档位是否有效
func (t QualityTier) IsValid() bool {
	switch t {
	case TierFast, TierBalanced, TierBest:
		return true
	}
	return false
}

// ModelSelectionAuto 表示由选择器按档位决定模型
const ModelSelectionAuto = "auto"

// =============================================
// 评估模式常量
// =============================================

// EvalMode 质量评估模式
type EvalMode string

const (
	// EvalModePattern 规则评估，确定性
	EvalModePattern EvalMode = "pattern"
	// EvalModeModel 模型评估
	EvalModeModel EvalMode = "model"
	// EvalModeHybrid 混合评估，规则保底
	EvalModeHybrid EvalMode = "hybrid"
)

// String 返回评估模式的字符串值
func (m EvalMode) String() string {
	return string(m)
}

// IsValid 检查评估模式是否有效
func (m EvalMode) IsValid() bool {
	switch m {
	case EvalModePattern, EvalModeModel, EvalModeHybrid:
		return true
	}
	return false
}

// =============================================
// 审核决定常量
// =============================================

// ApprovalDecision 人工审核决定
type ApprovalDecision string

const (
	// DecisionApprove 通过
	DecisionApprove ApprovalDecision = "approve"
	// DecisionReject 拒绝
	DecisionReject ApprovalDecision = "reject"
)

// String 返回决定的字符串值
func (d ApprovalDecision) String() string {
	return string(d)
}

// IsValid 检查决定是否有效
func (d ApprovalDecision) IsValid() bool {
	switch d {
	case DecisionApprove, DecisionReject:
		return true
	}
	return false
}

// =============================================
// 存储类型常量
// =============================================

// StorageType 存储类型
type StorageType string

const (
	// StorageTypeFile 仅文件存储
	StorageTypeFile StorageType = "file"
	// StorageTypeDB 仅数据库存储
	StorageTypeDB StorageType = "db"
	// StorageTypeHybrid 混合模式（数据库 + 文件镜像）
	StorageTypeHybrid StorageType = "hybrid"
)

// String 返回存储类型的字符串值
func (s StorageType) String() string {
	return string(s)
}

// IsValid 检查存储类型是否有效
func (s StorageType) IsValid() bool {
	switch s {
	case StorageTypeFile, StorageTypeDB, StorageTypeHybrid:
		return true
	}
	return false
}

// =============================================
// 质量维度常量
// =============================================

// QualityDimension 质量评估维度
type QualityDimension string

const (
	DimensionClarity      QualityDimension = "clarity"
	DimensionAccuracy     QualityDimension = "accuracy"
	DimensionCompleteness QualityDimension = "completeness"
	DimensionRelevance    QualityDimension = "relevance"
	DimensionSEO          QualityDimension = "seo"
	DimensionReadability  QualityDimension = "readability"
	DimensionEngagement   QualityDimension = "engagement"
)

// String 返回维度的字符串值
func (d QualityDimension) String() string {
	return string(d)
}

// DimensionWeights 各维度在综合分中的权重，总和为 1
var DimensionWeights = map[QualityDimension]float64{
	DimensionClarity:      0.15,
	DimensionAccuracy:     0.20,
	DimensionCompleteness: 0.15,
	DimensionRelevance:    0.15,
	DimensionSEO:          0.10,
	DimensionReadability:  0.15,
	DimensionEngagement:   0.10,
}

// =============================================
// 默认配置常量
// =============================================

const (
	// DefaultTaskStoragePath 默认任务存储路径
	DefaultTaskStoragePath = ".tasks"
	// DefaultQualityThreshold 默认质量达标分
	DefaultQualityThreshold = 7.0
	// DefaultMaxIterations 默认最大改写轮数
	DefaultMaxIterations = 2
	// DefaultWorkerCount 默认工作协程数
	DefaultWorkerCount = 3
	// DefaultPhaseTimeout 默认单阶段超时
	DefaultPhaseTimeout = 120 * time.Second
	// DefaultPhaseRetries 默认阶段重试次数（不含首次执行）
	DefaultPhaseRetries = 2
	// DefaultRetryBackoff 默认重试退避基数，按次翻倍
	DefaultRetryBackoff = 500 * time.Millisecond
	// DefaultTargetLength 默认目标字数
	DefaultTargetLength = 800
)
