package content

import (
	"context"
	"fmt"
	"strings"

	"ai_content/model"

	log "github.com/sirupsen/logrus"
)

// PhaseHandler 单个阶段的执行逻辑
// Execute 只修改内存中的任务副本，持久化由引擎统一完成
type PhaseHandler interface {
	Name() PhaseName
	Execute(ctx context.Context, task *Task, generator Generator) error
}

// HandlerRegistry 阶段名到处理器的映射
type HandlerRegistry map[PhaseName]PhaseHandler

// NewHandlerRegistry 创建标准流水线的处理器注册表
func NewHandlerRegistry(evaluator *QualityEvaluator, assets AssetSearcher) HandlerRegistry {
	return HandlerRegistry{
		PhaseResearch: &researchHandler{},
		PhaseDraft:    &draftHandler{},
		PhaseAssess:   &assessHandler{evaluator: evaluator},
		PhaseRefine:   &refineHandler{},
		PhaseFinalize: &finalizeHandler{assets: assets},
	}
}

// Get 按阶段名取处理器
func (r HandlerRegistry) Get(phase PhaseName) (PhaseHandler, error) {
	handler, ok := r[phase]
	if !ok {
		return nil, model.NewError(model.ErrorValidation, fmt.Errorf("no handler registered for phase %s", phase))
	}
	return handler, nil
}

// ========== research ==========

type researchHandler struct{}

func (h *researchHandler) Name() PhaseName { return PhaseResearch }

// Execute 产出研究提纲，供初稿阶段使用
func (h *researchHandler) Execute(ctx context.Context, task *Task, generator Generator) error {
	userPrompt := fmt.Sprintf(ResearchUserPromptTemplate, task.Params.Topic, task.Params.Style, task.Params.Tone)
	notes, err := generator.Generate(ctx, ResearchSystemPrompt, userPrompt)
	if err != nil {
		return model.NewTaskError(model.ErrorProvider, task.ID, err)
	}
	task.ResearchNotes = notes
	return nil
}

// ========== draft ==========

type draftHandler struct{}

func (h *draftHandler) Name() PhaseName { return PhaseDraft }

// Execute 生成初稿
func (h *draftHandler) Execute(ctx context.Context, task *Task, generator Generator) error {
	draft, err := generator.Generate(ctx, DraftSystemPrompt, BuildDraftUserPrompt(&task.Params, task.ResearchNotes))
	if err != nil {
		return model.NewTaskError(model.ErrorProvider, task.ID, err)
	}
	if strings.TrimSpace(draft) == "" {
		return model.NewTaskError(model.ErrorProvider, task.ID, fmt.Errorf("draft phase produced empty content"))
	}
	task.Content = draft
	return nil
}

// ========== assess ==========

type assessHandler struct {
	evaluator *QualityEvaluator
}

func (h *assessHandler) Name() PhaseName { return PhaseAssess }

// Execute 评估当前内容，结果追加到质量历史
func (h *assessHandler) Execute(ctx context.Context, task *Task, generator Generator) error {
	assessment, err := h.evaluator.Evaluate(ctx, task, task.IterationCount, generator)
	if err != nil {
		return err
	}
	task.QualityHistory = append(task.QualityHistory, *assessment)
	return nil
}

// ========== refine ==========

type refineHandler struct{}

func (h *refineHandler) Name() PhaseName { return PhaseRefine }

// Execute 根据最近一轮评估反馈改写内容
func (h *refineHandler) Execute(ctx context.Context, task *Task, generator Generator) error {
	assessment := task.LatestAssessment()
	if assessment == nil {
		return model.NewTaskError(model.ErrorState, task.ID, fmt.Errorf("refine phase requires a prior assessment"))
	}

	refined, err := generator.Generate(ctx, RefineSystemPrompt, BuildRefineUserPrompt(task, assessment))
	if err != nil {
		return model.NewTaskError(model.ErrorProvider, task.ID, err)
	}
	if strings.TrimSpace(refined) == "" {
		return model.NewTaskError(model.ErrorProvider, task.ID, fmt.Errorf("refine phase produced empty content"))
	}
	task.Content = refined
	return nil
}

// ========== finalize ==========

type finalizeHandler struct {
	assets AssetSearcher
}

func (h *finalizeHandler) Name() PhaseName { return PhaseFinalize }

// Execute 发布前润色并尝试挂接封面素材
// 素材检索失败不影响阶段结果
func (h *finalizeHandler) Execute(ctx context.Context, task *Task, generator Generator) error {
	polished, err := generator.Generate(ctx, FinalizeSystemPrompt,
		fmt.Sprintf(FinalizeUserPromptTemplate, task.Params.Topic, task.Content))
	if err != nil {
		return model.NewTaskError(model.ErrorProvider, task.ID, err)
	}
	if strings.TrimSpace(polished) != "" {
		task.Content = polished
	}

	if h.assets != nil {
		url, found, err := h.assets.SearchAsset(ctx, task.Params.Topic)
		if err != nil {
			log.Warnf("asset search failed: task_id=%s, err=%v", task.ID, err)
		} else if found {
			task.CoverAssetURL = url
		}
	}
	return nil
}
