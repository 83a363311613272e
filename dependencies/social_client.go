package dependencies

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Xushengqwer/go-common/core"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	appConfig "github.com/Xushengqwer/autopost_service/config"
)

// SocialClientInterface 定义了社媒发布客户端需要实现的方法
type SocialClientInterface interface {
	// PublishPost 以指定账号发布一条内容，返回平台侧的帖子 ID
	PublishPost(ctx context.Context, accountID, text string) (string, error)
}

// socialClient 是 SocialClientInterface 的 HTTP 实现
type socialClient struct {
	cfg    appConfig.SocialConfig
	client *http.Client
	logger *core.ZapLogger
}

type publishRequest struct {
	AccountID string `json:"account_id"`
	Text      string `json:"text"`
}

type publishResponse struct {
	PostID  string `json:"post_id"`
	Message string `json:"message,omitempty"`
}

func (c *socialClient) PublishPost(ctx context.Context, accountID, text string) (string, error) {
	body, err := json.Marshal(publishRequest{AccountID: accountID, Text: text})
	if err != nil {
		return "", fmt.Errorf("序列化发布请求失败: %w", err)
	}

	url := strings.TrimRight(c.cfg.BaseURL, "/") + "/posts"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("构造发布请求失败: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.Token)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("社媒平台请求失败: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("读取社媒平台响应失败: %w", err)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		c.logger.Warn("社媒平台返回非成功状态",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", respBody),
		)
		return "", fmt.Errorf("社媒平台返回状态 %d", resp.StatusCode)
	}

	var parsed publishResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("解析社媒平台响应失败: %w", err)
	}
	if parsed.PostID == "" {
		return "", fmt.Errorf("社媒平台未返回帖子 ID: %s", parsed.Message)
	}
	return parsed.PostID, nil
}

// InitSocialClient 初始化社媒发布客户端
func InitSocialClient(cfg *appConfig.SocialConfig, logger *core.ZapLogger) (SocialClientInterface, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("socialConfig.baseURL 不能为空")
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	logger.Info("社媒发布客户端初始化成功", zap.String("baseURL", cfg.BaseURL))
	return &socialClient{
		cfg: *cfg,
		client: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		logger: logger,
	}, nil
}
