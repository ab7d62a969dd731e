package content

import (
	"fmt"
	"strings"

	"ai_content/constant"
)

// 各阶段的系统提示词
const (
	ResearchSystemPrompt = `你是一名资深的内容研究员。请围绕给定主题收集要点，输出一份结构化的研究提纲，供后续写作使用。
要求：
1. 列出 5~8 个与主题强相关的要点
2. 每个要点附一句说明
3. 指出目标读者最关心的 2~3 个问题
只输出提纲本身，不要输出多余的解释。`

	DraftSystemPrompt = `你是一名专业的内容创作者。请根据给定的主题、写作要求和研究提纲，用 Markdown 写出一篇完整的文章。
要求：
1. 以一级标题（# ）开头作为文章题目
2. 正文至少划分 3 个带小标题的章节
3. 适当使用列表和示例
4. 以总结段落收尾，并在结尾引导读者行动
5. 篇幅贴近目标字数`

	RefineSystemPrompt = `你是一名严谨的内容编辑。请根据质量评估反馈改写文章，保留原文的结构和优点，重点解决反馈指出的问题。
只输出改写后的完整 Markdown 文章，不要输出修改说明。`

	FinalizeSystemPrompt = `你是一名发布前的终审编辑。请对文章做最后润色：修正错别字和病句、统一格式、优化标题。
不要改变文章的结构和观点，只输出润色后的完整 Markdown 文章。`

	AssessSystemPrompt = `你是一名严格的内容质量评审。请从以下 7 个维度对文章打分（0~10 分，可带一位小数）：
clarity（清晰度）、accuracy（准确性）、completeness（完整性）、relevance（相关性）、seo（搜索优化）、readability（可读性）、engagement（吸引力）。
必须输出 JSON，格式如下：
{"clarity": 8.0, "accuracy": 7.5, "completeness": 8.0, "relevance": 9.0, "seo": 7.0, "readability": 8.5, "engagement": 7.0, "feedback": "总体评价", "suggestions": ["改进建议1", "改进建议2"]}
不要输出 JSON 以外的任何内容。`
)

// 各阶段的用户提示词模板
const (
	ResearchUserPromptTemplate = "主题：%s\n文体风格：%s\n语气：%s"

	AssessUserPromptTemplate = "主题：%s\n\n待评审文章：\n%s"

	RefineUserPromptTemplate = `主题：%s

质量评估反馈：
%s

改进建议：
%s

原文：
%s`

	FinalizeUserPromptTemplate = "主题：%s\n\n待润色文章：\n%s"
)

// BuildDraftUserPrompt 拼装初稿阶段的用户提示词
func BuildDraftUserPrompt(params *GenerationParams, research string) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("主题：%s\n", params.Topic))

	targetLength := params.TargetLength
	if targetLength <= 0 {
		targetLength = constant.DefaultTargetLength
	}
	sb.WriteString(fmt.Sprintf("目标字数：%d 字左右\n", targetLength))

	if params.Style != "" {
		sb.WriteString(fmt.Sprintf("文体风格：%s\n", params.Style))
	}
	if params.Tone != "" {
		sb.WriteString(fmt.Sprintf("语气风格：%s\n", params.Tone))
	}
	if len(params.Tags) > 0 {
		sb.WriteString(fmt.Sprintf("关键词：%s\n", strings.Join(params.Tags, "、")))
	}
	if research != "" {
		sb.WriteString(fmt.Sprintf("\n研究提纲：\n%s\n", research))
	}
	return sb.String()
}

// BuildRefineUserPrompt 拼装改写阶段的用户提示词
func BuildRefineUserPrompt(task *Task, assessment *QualityAssessment) string {
	feedback := assessment.Feedback
	if feedback == "" {
		feedback = fmt.Sprintf("综合得分 %.1f，未达到质量要求", assessment.Aggregate)
	}
	suggestions := "无"
	if len(assessment.Suggestions) > 0 {
		suggestions = "- " + strings.Join(assessment.Suggestions, "\n- ")
	}
	return fmt.Sprintf(RefineUserPromptTemplate, task.Params.Topic, feedback, suggestions, task.Content)
}
