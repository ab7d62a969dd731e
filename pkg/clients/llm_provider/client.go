package llm_provider

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/sashabaranov/go-openai"
	log "github.com/sirupsen/logrus"
)

const (
	clientNameProvider = "llm_provider"
)

// Client 模型供应商客户端，封装 OpenAI 兼容的 chat-completion 协议
type Client struct {
	config *Config
	client *openai.Client
}

// NewClient 创建新的供应商客户端
// 必须传入 name, baseURL, modelName，apiKey 仅 local 供应商可为空
func NewClient(params ClientParams, opts ...Option) *Client {
	config := DefaultConfig()
	config.Name = params.Name
	config.BaseURL = params.BaseURL
	config.APIKey = params.APIKey
	config.ModelName = params.ModelName

	// 应用可选配置
	for _, opt := range opts {
		opt(config)
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	clientConfig.BaseURL = config.BaseURL

	return &Client{
		config: config,
		client: openai.NewClientWithConfig(clientConfig),
	}
}

// GetConfig 获取当前配置
func (c *Client) GetConfig() *Config {
	return c.config
}

// ModelName 返回客户端绑定的模型名称
func (c *Client) ModelName() string {
	return c.config.ModelName
}

// postChatCompletions 非流式调用，返回完整响应
func (c *Client) postChatCompletions(ctx context.Context, messages []openai.ChatCompletionMessage) (*openai.ChatCompletionResponse, error) {
	request := openai.ChatCompletionRequest{
		Model:       c.config.ModelName,
		Messages:    messages,
		MaxTokens:   c.config.MaxTokens,
		Temperature: c.config.Temperature,
		Stream:      false,
	}

	// debug 出完整的请求参数，json格式（仅在 debug 级别时序列化）
	if log.GetLevel() == log.DebugLevel {
		requestJson, err := json.MarshalIndent(request, "", "  ")
		if err != nil {
			log.Errorf("%s chat completion request json marshal error: %v", clientNameProvider, err)
			return nil, err
		}
		if _, err := fmt.Fprintf(os.Stdout, "[DEBUG] %s(%s) chat completion request:\n%s\n", clientNameProvider, c.config.Name, string(requestJson)); err != nil {
			log.Warnf("%s failed to write debug output: %v", clientNameProvider, err)
		}
	}

	response, err := c.client.CreateChatCompletion(ctx, request)

	if err != nil {
		log.Errorf("%s(%s) chat completion error: %v", clientNameProvider, c.config.Name, err)
		return nil, err
	}

	// debug 出完整的响应内容，json格式（仅在 debug 级别时序列化）
	if log.GetLevel() == log.DebugLevel {
		responseJson, err := json.MarshalIndent(response, "", "  ")
		if err != nil {
			log.Errorf("%s chat completion response json marshal error: %v", clientNameProvider, err)
		} else {
			if _, err := fmt.Fprintf(os.Stdout, "[DEBUG] %s(%s) chat completion response:\n%s\n", clientNameProvider, c.config.Name, string(responseJson)); err != nil {
				log.Warnf("%s failed to write debug output: %v", clientNameProvider, err)
			}
		}
	}

	return &response, nil
}

// Generate 使用系统提示词生成文本内容
func (c *Client) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	messages := []openai.ChatCompletionMessage{
		{
			Role:    openai.ChatMessageRoleSystem,
			Content: systemPrompt,
		},
		{
			Role:    openai.ChatMessageRoleUser,
			Content: userPrompt,
		},
	}

	response, err := c.postChatCompletions(ctx, messages)
	if err != nil {
		return "", err
	}

	if response == nil {
		log.Errorf("%s chat completion response is nil", clientNameProvider)
		return "", fmt.Errorf("chat completion response is nil")
	}

	if len(response.Choices) == 0 {
		log.Errorf("%s chat completion response has no choices", clientNameProvider)
		return "", fmt.Errorf("chat completion response has no choices")
	}

	content := response.Choices[0].Message.Content
	if content == "" {
		log.Warnf("%s chat completion response content is empty", clientNameProvider)
	}

	return content, nil
}

// GenerateStructured 生成并解析 JSON 结构化输出
func (c *Client) GenerateStructured(ctx context.Context, systemPrompt, userPrompt string, out interface{}) error {
	content, err := c.Generate(ctx, systemPrompt, userPrompt)
	if err != nil {
		return err
	}

	content = CleanJSONResponse(content)
	if err := json.Unmarshal([]byte(content), out); err != nil {
		return fmt.Errorf("failed to parse structured response: %w", err)
	}

	return nil
}

// CleanJSONResponse 清理模型输出中的代码块包裹
func CleanJSONResponse(response string) string {
	response = strings.TrimSpace(response)
	if strings.HasPrefix(response, "```json") {
		response = strings.TrimPrefix(response, "```json")
	} else if strings.HasPrefix(response, "```") {
		response = strings.TrimPrefix(response, "```")
	}
	response = strings.TrimSuffix(response, "```")
	return strings.TrimSpace(response)
}
