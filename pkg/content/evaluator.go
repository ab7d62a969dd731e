package content

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"
	"unicode"

	"ai_content/constant"
	"ai_content/model"

	log "github.com/sirupsen/logrus"
)

const hybridDivergenceLimit = 2.0

// QualityEvaluator 质量评估器，支持规则/模型/混合三种模式
type QualityEvaluator struct {
	mode      EvalMode
	threshold float64
}

// NewQualityEvaluator 创建质量评估器
func NewQualityEvaluator(mode EvalMode, threshold float64) *QualityEvaluator {
	if !mode.IsValid() {
		mode = EvalModeHybrid
	}
	if threshold <= 0 {
		threshold = constant.DefaultQualityThreshold
	}
	return &QualityEvaluator{mode: mode, threshold: threshold}
}

// Threshold 当前质量门槛
func (e *QualityEvaluator) Threshold() float64 {
	return e.threshold
}

// Evaluate 评估一轮内容质量
// generator 仅 model/hybrid 模式使用，pattern 模式可传 nil
func (e *QualityEvaluator) Evaluate(ctx context.Context, task *Task, iteration int, generator Generator) (*QualityAssessment, error) {
	pattern := e.evaluatePattern(task)

	var result *QualityAssessment
	switch e.mode {
	case EvalModePattern:
		result = pattern
	case EvalModeModel:
		modelResult, err := e.evaluateModel(ctx, task, generator)
		if err != nil {
			return nil, err
		}
		result = modelResult
	case EvalModeHybrid:
		modelResult, err := e.evaluateModel(ctx, task, generator)
		if err != nil {
			// 模型评估失败时退回规则结果，保证评估总能完成
			log.Warnf("model evaluation failed, falling back to pattern: task_id=%s, err=%v", task.ID, err)
			result = pattern
			result.Feedback = strings.TrimSpace(result.Feedback + "\n模型评估不可用，本轮仅使用规则评估。")
			break
		}
		result = e.mergeHybrid(pattern, modelResult)
	}

	result.Iteration = iteration
	result.Mode = e.mode
	result.Passed = result.Aggregate >= e.threshold
	result.EvaluatedAt = time.Now()

	// 未达标时必须给出改进建议
	if !result.Passed && len(result.Suggestions) == 0 {
		result.Suggestions = []string{"对照主题补充关键信息并优化结构"}
	}

	return result, nil
}

// mergeHybrid 混合模式合并：模型分为准，规则分保底，分歧过大标记需人工复核
func (e *QualityEvaluator) mergeHybrid(pattern, modelResult *QualityAssessment) *QualityAssessment {
	merged := *modelResult
	if pattern.Aggregate > merged.Aggregate {
		merged.Aggregate = pattern.Aggregate
	}

	if math.Abs(modelResult.Aggregate-pattern.Aggregate) > hybridDivergenceLimit {
		merged.NeedsReview = true
		merged.Feedback = strings.TrimSpace(merged.Feedback +
			fmt.Sprintf("\n规则评估(%.1f)与模型评估(%.1f)分歧较大，建议人工复核。", pattern.Aggregate, modelResult.Aggregate))
	}
	return &merged
}

// ========== 规则评估 ==========

type patternCheck struct {
	deduction  float64
	dimensions []QualityDimension
	suggestion string
	failed     func(task *Task, words int) bool
}

var patternChecks = []patternCheck{
	{
		deduction:  2.0,
		dimensions: []QualityDimension{constant.DimensionCompleteness},
		suggestion: "调整篇幅至目标字数的 0.7~1.3 倍",
		failed: func(task *Task, words int) bool {
			target := task.Params.TargetLength
			if target <= 0 {
				target = constant.DefaultTargetLength
			}
			return float64(words) < 0.7*float64(target) || float64(words) > 1.3*float64(target)
		},
	},
	{
		deduction:  1.5,
		dimensions: []QualityDimension{constant.DimensionReadability},
		suggestion: "增加小标题，至少划分 3 个章节",
		failed: func(task *Task, _ int) bool {
			return strings.Count(task.Content, "\n## ")+strings.Count(task.Content, "\n### ") < 3
		},
	},
	{
		deduction:  1.0,
		dimensions: []QualityDimension{constant.DimensionSEO},
		suggestion: "添加一级标题作为文章题目",
		failed: func(task *Task, _ int) bool {
			return !strings.HasPrefix(strings.TrimSpace(task.Content), "# ")
		},
	},
	{
		deduction:  1.0,
		dimensions: []QualityDimension{constant.DimensionCompleteness},
		suggestion: "补充总结或结论段落",
		failed: func(task *Task, _ int) bool {
			lower := strings.ToLower(task.Content)
			return !strings.Contains(lower, "总结") && !strings.Contains(lower, "结论") &&
				!strings.Contains(lower, "conclusion") && !strings.Contains(lower, "summary")
		},
	},
	{
		deduction:  1.0,
		dimensions: []QualityDimension{constant.DimensionEngagement},
		suggestion: "加入列表或示例让内容更具体",
		failed: func(task *Task, _ int) bool {
			return !strings.Contains(task.Content, "\n- ") && !strings.Contains(task.Content, "\n1. ") &&
				!strings.Contains(task.Content, "例如") && !strings.Contains(task.Content, "示例")
		},
	},
	{
		deduction:  0.5,
		dimensions: []QualityDimension{constant.DimensionEngagement},
		suggestion: "结尾加入引导读者行动的内容",
		failed: func(task *Task, _ int) bool {
			lower := strings.ToLower(task.Content)
			return !strings.Contains(lower, "欢迎") && !strings.Contains(lower, "关注") &&
				!strings.Contains(lower, "try") && !strings.Contains(lower, "了解更多")
		},
	},
	{
		deduction:  1.0,
		dimensions: []QualityDimension{constant.DimensionRelevance, constant.DimensionSEO},
		suggestion: "在正文中多次呼应主题关键词",
		failed: func(task *Task, _ int) bool {
			keywords := topicKeywords(task)
			if len(keywords) == 0 {
				return false
			}
			hits := 0
			lower := strings.ToLower(task.Content)
			for _, kw := range keywords {
				hits += strings.Count(lower, strings.ToLower(kw))
			}
			return hits < 2
		},
	},
}

// evaluatePattern 规则评估，确定性
// 综合分从 10 分起按命中的检查项扣减，维度分只做问题定位
func (e *QualityEvaluator) evaluatePattern(task *Task) *QualityAssessment {
	words := countWords(task.Content)

	scores := make(map[QualityDimension]float64, len(constant.DimensionWeights))
	for dim := range constant.DimensionWeights {
		scores[dim] = 10.0
	}

	aggregate := 10.0
	var suggestions []string
	for _, check := range patternChecks {
		if check.failed(task, words) {
			aggregate -= check.deduction
			for _, dim := range check.dimensions {
				scores[dim] = clampScore(scores[dim] - check.deduction)
			}
			suggestions = append(suggestions, check.suggestion)
		}
	}

	return &QualityAssessment{
		Dimensions:  scores,
		Aggregate:   clampScore(aggregate),
		Suggestions: suggestions,
	}
}

// topicKeywords 主题和标签拆出的关键词
func topicKeywords(task *Task) []string {
	var keywords []string
	for _, field := range strings.Fields(task.Params.Topic) {
		if len([]rune(field)) >= 2 {
			keywords = append(keywords, field)
		}
	}
	keywords = append(keywords, task.Params.Tags...)
	return keywords
}

// countWords 统计字数：中日韩字符逐字计数，其余按空白分词
func countWords(text string) int {
	count := 0
	inWord := false
	for _, r := range text {
		switch {
		case unicode.Is(unicode.Han, r) || unicode.Is(unicode.Hiragana, r) || unicode.Is(unicode.Katakana, r):
			count++
			inWord = false
		case unicode.IsSpace(r) || unicode.IsPunct(r):
			inWord = false
		default:
			if !inWord {
				count++
				inWord = true
			}
		}
	}
	return count
}

func clampScore(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 10 {
		return 10
	}
	return score
}

// ========== 模型评估 ==========

type modelEvalResult struct {
	Clarity      float64  `json:"clarity"`
	Accuracy     float64  `json:"accuracy"`
	Completeness float64  `json:"completeness"`
	Relevance    float64  `json:"relevance"`
	SEO          float64  `json:"seo"`
	Readability  float64  `json:"readability"`
	Engagement   float64  `json:"engagement"`
	Feedback     string   `json:"feedback"`
	Suggestions  []string `json:"suggestions"`
}

// evaluateModel 模型评估：结构化输出各维度分
func (e *QualityEvaluator) evaluateModel(ctx context.Context, task *Task, generator Generator) (*QualityAssessment, error) {
	if generator == nil {
		return nil, model.NewTaskError(model.ErrorProvider, task.ID, fmt.Errorf("no generator for model evaluation"))
	}

	var parsed modelEvalResult
	userPrompt := fmt.Sprintf(AssessUserPromptTemplate, task.Params.Topic, task.Content)
	if err := generator.GenerateStructured(ctx, AssessSystemPrompt, userPrompt, &parsed); err != nil {
		return nil, model.NewTaskError(model.ErrorProvider, task.ID, err)
	}

	scores := map[QualityDimension]float64{
		constant.DimensionClarity:      clampScore(parsed.Clarity),
		constant.DimensionAccuracy:     clampScore(parsed.Accuracy),
		constant.DimensionCompleteness: clampScore(parsed.Completeness),
		constant.DimensionRelevance:    clampScore(parsed.Relevance),
		constant.DimensionSEO:          clampScore(parsed.SEO),
		constant.DimensionReadability:  clampScore(parsed.Readability),
		constant.DimensionEngagement:   clampScore(parsed.Engagement),
	}

	aggregate := 0.0
	for dim, weight := range constant.DimensionWeights {
		aggregate += scores[dim] * weight
	}

	return &QualityAssessment{
		Dimensions:  scores,
		Aggregate:   clampScore(aggregate),
		Feedback:    parsed.Feedback,
		Suggestions: parsed.Suggestions,
	}, nil
}
