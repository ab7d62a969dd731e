package assets

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sync"
	"time"

	"ai_content/config"
	"ai_content/pkg/clients/httptool"

	log "github.com/sirupsen/logrus"
)

const (
	clientNameAssets = "assets"

	searchPath = "/api/assets/search"
)

var (
	instance *Client
	once     sync.Once
)

// Client 素材检索客户端
type Client struct {
	hc *httptool.HTTPClient
}

// AssetRef 素材引用
type AssetRef struct {
	ID      string `json:"id"`
	URL     string `json:"url"`
	Caption string `json:"caption,omitempty"`
}

type searchResponse struct {
	Assets []AssetRef `json:"assets"`
}

// NewClient 创建素材检索客户端
func NewClient(baseAddr, token string) *Client {
	hc := httptool.NewHTTPClient(baseAddr, clientNameAssets, 15*time.Second, nil, nil)
	hc.SetHeader(httptool.HeaderContentType, "application/json")
	if token != "" {
		hc.SetHeader("Authorization", "Bearer "+token)
	}
	return &Client{hc: hc}
}

// GetInstance 获取素材检索客户端单例
func GetInstance() *Client {
	once.Do(func() {
		conf := config.GetInstance()
		instance = NewClient(
			conf.GetString(config.AssetsBaseURL),
			conf.GetString(config.AssetsToken),
		)
	})
	return instance
}

// Search 按关键词检索封面素材，未命中时返回 nil, nil
func (c *Client) Search(ctx context.Context, query string) (*AssetRef, error) {
	params := map[string][]string{
		"q":     {url.QueryEscape(query)},
		"limit": {"1"},
	}

	body, err := c.hc.GetParamsWithContext(ctx, searchPath, params)
	if err != nil {
		log.Errorf("%s search error: query=%s, err=%v", clientNameAssets, query, err)
		return nil, err
	}

	var result searchResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse search response: %w", err)
	}

	if len(result.Assets) == 0 {
		return nil, nil
	}

	return &result.Assets[0], nil
}
