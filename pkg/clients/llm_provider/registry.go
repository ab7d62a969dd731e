package llm_provider

import (
	"fmt"
	"os"
	"strings"

	"ai_content/config"
	"ai_content/constant"

	"github.com/spf13/cast"
)

const (
	ProviderOpenAI   = "openai"
	ProviderDeepseek = "deepseek"
	ProviderLocal    = "local"

	apiKeyEnvFormat = "PROVIDER_%s_API_KEY"

	// local 未配置地址时使用的默认本地推理服务地址
	defaultLocalAddr = "http://127.0.0.1:11434/v1"
)

// providerKeys 每个供应商在配置中的键
type providerKeys struct {
	addr        string
	model       string
	temperature string
	maxTokens   string
}

var providerConfigKeys = map[string]providerKeys{
	ProviderOpenAI: {
		addr:        config.ProviderOpenAIAddr,
		model:       config.ProviderOpenAIModel,
		temperature: config.ProviderOpenAITemperature,
		maxTokens:   config.ProviderOpenAIMaxTokens,
	},
	ProviderDeepseek: {
		addr:        config.ProviderDeepseekAddr,
		model:       config.ProviderDeepseekModel,
		temperature: config.ProviderDeepseekTemperature,
		maxTokens:   config.ProviderDeepseekMaxTokens,
	},
	ProviderLocal: {
		addr:        config.ProviderLocalAddr,
		model:       config.ProviderLocalModel,
		temperature: config.ProviderLocalTemperature,
		maxTokens:   config.ProviderLocalMaxTokens,
	},
}

// APIKeyOf 从环境变量读取供应商的 API key
func APIKeyOf(name string) string {
	return os.Getenv(fmt.Sprintf(apiKeyEnvFormat, strings.ToUpper(name)))
}

// FromConfig 按供应商名称从配置构建客户端
// local 永远可构建（缺省地址兜底），其余供应商未配置地址时返回 nil
func FromConfig(name string) *Client {
	keys, ok := providerConfigKeys[name]
	if !ok {
		return nil
	}

	conf := config.GetInstance()
	addr := conf.GetString(keys.addr)
	if addr == constant.EmptyString {
		if name != ProviderLocal {
			return nil
		}
		addr = defaultLocalAddr
	}

	params := ClientParams{
		Name:      name,
		BaseURL:   addr,
		APIKey:    APIKeyOf(name),
		ModelName: conf.GetString(keys.model),
	}

	var opts []Option
	if conf.IsSet(keys.temperature) {
		opts = append(opts, WithTemperature(cast.ToFloat32(conf.GetFloat64(keys.temperature))))
	}
	if conf.IsSet(keys.maxTokens) {
		opts = append(opts, WithMaxTokens(conf.GetInt(keys.maxTokens)))
	}

	return NewClient(params, opts...)
}

// KnownProviders 已知供应商名称，按配置顺序
func KnownProviders() []string {
	return []string{ProviderOpenAI, ProviderDeepseek, ProviderLocal}
}
