package content

import (
	"fmt"

	"ai_content/constant"
	"ai_content/model"
	"ai_content/pkg/clients/llm_provider"

	log "github.com/sirupsen/logrus"
)

// tierChains 各档位的供应商优先级链，local 永远兜底
var tierChains = map[QualityTier][]string{
	TierFast:     {llm_provider.ProviderDeepseek, llm_provider.ProviderLocal},
	TierBalanced: {llm_provider.ProviderDeepseek, llm_provider.ProviderOpenAI, llm_provider.ProviderLocal},
	TierBest:     {llm_provider.ProviderOpenAI, llm_provider.ProviderDeepseek, llm_provider.ProviderLocal},
}

// providerPricePerKToken 每千 token 的参考价格（美元）
var providerPricePerKToken = map[string]float64{
	llm_provider.ProviderOpenAI:   0.03,
	llm_provider.ProviderDeepseek: 0.004,
	llm_provider.ProviderLocal:    0.0,
}

// phaseTokenFactors 各阶段消耗 token 相对目标字数的系数
var phaseTokenFactors = map[PhaseName]float64{
	PhaseResearch: 0.5,
	PhaseDraft:    1.5,
	PhaseAssess:   0.5,
	PhaseRefine:   1.0,
	PhaseFinalize: 0.3,
}

// tokensPerWord 每个目标字对应的 token 估算系数
const tokensPerWord = 1.3

// ProviderEntry 选择器中的一个供应商条目
type ProviderEntry struct {
	Name      string
	Generator Generator // nil 表示不可用
}

// ModelSelector 模型选择器
// 可用性在构造时计算一次，进程内不再变化
type ModelSelector struct {
	entries map[string]ProviderEntry
}

// NewModelSelector 用给定的供应商条目创建选择器
func NewModelSelector(entries []ProviderEntry) *ModelSelector {
	s := &ModelSelector{entries: make(map[string]ProviderEntry, len(entries))}
	for _, entry := range entries {
		s.entries[entry.Name] = entry
	}
	return s
}

// NewModelSelectorFromConfig 从配置构建选择器，地址未配置或缺少 API key 的供应商视为不可用
func NewModelSelectorFromConfig() *ModelSelector {
	entries := make([]ProviderEntry, 0, 3)
	for _, name := range llm_provider.KnownProviders() {
		client := llm_provider.FromConfig(name)
		// 除 local 外必须配置 API key
		if client != nil && name != llm_provider.ProviderLocal && llm_provider.APIKeyOf(name) == "" {
			log.Warnf("provider %s has no api key, marked unavailable", name)
			client = nil
		}
		entry := ProviderEntry{Name: name}
		if client != nil {
			entry.Generator = client
		}
		entries = append(entries, entry)
	}
	return NewModelSelector(entries)
}

func (s *ModelSelector) available(name string) bool {
	entry, ok := s.entries[name]
	return ok && entry.Generator != nil
}

// Resolve 解析某阶段使用的供应商
// 显式指定（非 auto）原样返回，用户选择永远生效；auto 按档位链选第一个可用的供应商，local 兜底
func (s *ModelSelector) Resolve(phase PhaseName, params *GenerationParams) string {
	if params.ModelSelections != nil {
		if sel, ok := params.ModelSelections[phase.String()]; ok && sel != "" && sel != ModelSelectionAuto {
			if !s.available(sel) {
				log.Warnf("explicit model %q for phase %s is not in the available set", sel, phase)
			}
			return sel
		}
	}

	tier := params.QualityPreference
	if !tier.IsValid() {
		tier = TierBalanced
	}

	for _, name := range tierChains[tier] {
		if s.available(name) {
			return name
		}
	}

	// 链上全部不可用时回落到 local，供应商配置缺失不阻塞任务创建
	return llm_provider.ProviderLocal
}

// ResolveGenerator 按供应商名取生成客户端
func (s *ModelSelector) ResolveGenerator(name string) (Generator, error) {
	entry, ok := s.entries[name]
	if !ok || entry.Generator == nil {
		return nil, model.NewError(model.ErrorProvider, fmt.Errorf("provider %q is not available", name))
	}
	return entry.Generator, nil
}

// PhaseCost 某阶段在指定供应商上的成本估算
func (s *ModelSelector) PhaseCost(phase PhaseName, provider string, targetLength int) float64 {
	if targetLength <= 0 {
		targetLength = constant.DefaultTargetLength
	}
	tokens := float64(targetLength) * tokensPerWord * phaseTokenFactors[phase]
	return tokens / 1000 * providerPricePerKToken[provider]
}

// EstimateCost 整条流水线的成本估算
// 改写阶段按最大轮数计入，预估是上界
func (s *ModelSelector) EstimateCost(params *GenerationParams, maxIterations int) (*EstimateResponse, error) {
	resp := &EstimateResponse{
		ByPhase: make(map[string]float64),
		Models:  make(map[string]string),
	}

	phases := []PhaseName{PhaseResearch, PhaseDraft, PhaseAssess, PhaseRefine, PhaseFinalize}
	for _, phase := range phases {
		provider := s.Resolve(phase, params)
		cost := s.PhaseCost(phase, provider, params.TargetLength)
		if phase == PhaseRefine || phase == PhaseAssess {
			// assess 首轮 1 次 + 每轮改写后 1 次；refine 至多 maxIterations 轮
			rounds := maxIterations
			if phase == PhaseAssess {
				rounds = maxIterations + 1
			}
			cost *= float64(rounds)
		}
		resp.ByPhase[phase.String()] = cost
		resp.Models[phase.String()] = provider
		resp.Total += cost
	}

	return resp, nil
}
