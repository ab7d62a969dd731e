package cms

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"ai_content/config"
	"ai_content/pkg/clients/httptool"

	log "github.com/sirupsen/logrus"
)

const (
	clientNameCMS = "cms"

	publishPath = "/api/articles"
)

var (
	instance *Client
	once     sync.Once
)

// Client CMS 发布客户端
type Client struct {
	hc *httptool.HTTPClient
}

// PublishRequest 发布请求
type PublishRequest struct {
	TaskID  string   `json:"task_id"`
	Title   string   `json:"title"`
	Content string   `json:"content"`
	Tags    []string `json:"tags,omitempty"`
}

// PublishResult 发布结果
type PublishResult struct {
	ExternalID string `json:"external_id"`
	URL        string `json:"url"`
}

// NewClient 创建 CMS 客户端
func NewClient(baseAddr, token string) *Client {
	hc := httptool.NewHTTPClient(baseAddr, clientNameCMS, 30*time.Second, nil, nil)
	hc.SetHeader(httptool.HeaderContentType, "application/json")
	if token != "" {
		hc.SetHeader("Authorization", "Bearer "+token)
	}
	return &Client{hc: hc}
}

// GetInstance 获取 CMS 客户端单例
func GetInstance() *Client {
	once.Do(func() {
		conf := config.GetInstance()
		instance = NewClient(
			conf.GetString(config.CMSBaseURL),
			conf.GetString(config.CMSToken),
		)
	})
	return instance
}

// Publish 发布内容到 CMS，返回外部 ID 和访问地址
func (c *Client) Publish(ctx context.Context, req *PublishRequest) (*PublishResult, error) {
	body, err := c.hc.PostJSONWithContext(ctx, publishPath, req)
	if err != nil {
		log.Errorf("%s publish error: task_id=%s, err=%v", clientNameCMS, req.TaskID, err)
		return nil, err
	}

	var result PublishResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse publish response: %w", err)
	}

	if result.ExternalID == "" {
		return nil, fmt.Errorf("publish response missing external_id")
	}

	log.Infof("%s published: task_id=%s, external_id=%s", clientNameCMS, req.TaskID, result.ExternalID)
	return &result, nil
}
