package llm_provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/suite"
)

type ProviderClientTest struct {
	suite.Suite
}

// newCompletionServer 构造一个返回固定内容的 OpenAI 兼容测试服务
func newCompletionServer(t *testing.T, content string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := openai.ChatCompletionResponse{
			Choices: []openai.ChatCompletionChoice{
				{Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: content}},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			t.Errorf("encode response error: %v", err)
		}
	}))
}

// TestNewClient 测试创建客户端及默认值
func (s *ProviderClientTest) TestNewClient() {
	params := ClientParams{
		Name:      "openai",
		BaseURL:   "https://api.example.com/v1",
		APIKey:    "test-api-key",
		ModelName: "test-model",
	}

	client := NewClient(params)

	s.NotNil(client)
	s.Equal(params.BaseURL, client.config.BaseURL)
	s.Equal(params.ModelName, client.ModelName())
	// 验证默认值
	s.Equal(float32(0.7), client.config.Temperature)
	s.Equal(4096, client.config.MaxTokens)
}

// TestNewClientWithOptions 测试选项覆盖默认值
func (s *ProviderClientTest) TestNewClientWithOptions() {
	client := NewClient(ClientParams{
		Name:      "local",
		BaseURL:   "http://localhost:11434/v1",
		ModelName: "qwen",
	}, WithTemperature(0.2), WithMaxTokens(1024))

	s.Equal(float32(0.2), client.config.Temperature)
	s.Equal(1024, client.config.MaxTokens)
}

// TestGenerate 测试文本生成
func (s *ProviderClientTest) TestGenerate() {
	server := newCompletionServer(s.T(), "生成的正文")
	defer server.Close()

	client := NewClient(ClientParams{
		Name:      "local",
		BaseURL:   server.URL + "/v1",
		ModelName: "test-model",
	})

	content, err := client.Generate(context.Background(), "系统提示", "用户提示")
	s.NoError(err)
	s.Equal("生成的正文", content)
}

// TestGenerateStructured 测试结构化输出解析，包含代码块包裹的情况
func (s *ProviderClientTest) TestGenerateStructured() {
	server := newCompletionServer(s.T(), "```json\n{\"score\": 8.5}\n```")
	defer server.Close()

	client := NewClient(ClientParams{
		Name:      "local",
		BaseURL:   server.URL + "/v1",
		ModelName: "test-model",
	})

	var out struct {
		Score float64 `json:"score"`
	}
	err := client.GenerateStructured(context.Background(), "系统提示", "用户提示", &out)
	s.NoError(err)
	s.Equal(8.5, out.Score)
}

// TestCleanJSONResponse 测试代码块清理
func (s *ProviderClientTest) TestCleanJSONResponse() {
	s.Equal(`{"a":1}`, CleanJSONResponse("```json\n{\"a\":1}\n```"))
	s.Equal(`{"a":1}`, CleanJSONResponse("```\n{\"a\":1}\n```"))
	s.Equal(`{"a":1}`, CleanJSONResponse(`  {"a":1}  `))
}

func TestProviderClient(t *testing.T) {
	suite.Run(t, new(ProviderClientTest))
}
