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

// AIBackend 定义了生成后端需要实现的方法。
// 各具体实现走 OpenAI 兼容协议，以标识字符串互为替换；
// 编排器只依赖这个接口，主/兜底后端的选择由注册表完成。
type AIBackend interface {
	// Name 返回后端标识（如 "qwen" / "deepseek"）
	Name() string
	// Generate 生成一段文本
	Generate(ctx context.Context, prompt, systemPrompt string, maxTokens int) (string, error)
	// Embed 计算文本的定长向量表示
	Embed(ctx context.Context, text string) ([]float64, error)
}

// openAIBackend 是 AIBackend 的 OpenAI 兼容实现 (chat/completions + embeddings)。
type openAIBackend struct {
	cfg    appConfig.AIBackendConfig
	client *http.Client
	logger *core.ZapLogger
}

// --- OpenAI 兼容协议的请求/响应结构 ---

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embedResponse struct {
	Data []struct {
		Embedding []float64 `json:"embedding"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

func (b *openAIBackend) Name() string {
	return b.cfg.Name
}

// postJSON 发送一次带鉴权的 JSON 请求并读回响应体。
func (b *openAIBackend) postJSON(ctx context.Context, path string, payload interface{}) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("序列化请求体失败: %w", err)
	}

	url := strings.TrimRight(b.cfg.BaseURL, "/") + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("构造请求失败: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+b.cfg.APIKey)

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("后端 %s 请求失败: %w", b.cfg.Name, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("读取后端响应失败: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		b.logger.Warn("AI 后端返回非 200 状态",
			zap.String("backend", b.cfg.Name),
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", respBody),
		)
		return nil, fmt.Errorf("后端 %s 返回状态 %d", b.cfg.Name, resp.StatusCode)
	}
	return respBody, nil
}

func (b *openAIBackend) Generate(ctx context.Context, prompt, systemPrompt string, maxTokens int) (string, error) {
	messages := make([]chatMessage, 0, 2)
	if systemPrompt != "" {
		messages = append(messages, chatMessage{Role: "system", Content: systemPrompt})
	}
	messages = append(messages, chatMessage{Role: "user", Content: prompt})

	respBody, err := b.postJSON(ctx, "/chat/completions", chatRequest{
		Model:     b.cfg.ChatModel,
		Messages:  messages,
		MaxTokens: maxTokens,
	})
	if err != nil {
		return "", err
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("解析后端 %s 生成响应失败: %w", b.cfg.Name, err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("后端 %s 业务错误: %s", b.cfg.Name, parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("后端 %s 未返回任何候选", b.cfg.Name)
	}

	// 模型偶尔会把正文包进 markdown 代码块，这里统一剥掉
	text := strings.TrimSpace(parsed.Choices[0].Message.Content)
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text), nil
}

func (b *openAIBackend) Embed(ctx context.Context, text string) ([]float64, error) {
	respBody, err := b.postJSON(ctx, "/embeddings", embedRequest{
		Model: b.cfg.EmbedModel,
		Input: []string{text},
	})
	if err != nil {
		return nil, err
	}

	var parsed embedResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("解析后端 %s 向量响应失败: %w", b.cfg.Name, err)
	}
	if parsed.Error != nil {
		return nil, fmt.Errorf("后端 %s 业务错误: %s", b.cfg.Name, parsed.Error.Message)
	}
	if len(parsed.Data) == 0 || len(parsed.Data[0].Embedding) == 0 {
		return nil, fmt.Errorf("后端 %s 未返回向量", b.cfg.Name)
	}
	return parsed.Data[0].Embedding, nil
}

// AIRegistry 按标识管理已配置的后端，并固定主/兜底选择。
type AIRegistry struct {
	backends map[string]AIBackend
	primary  string
	fallback string
}

// NewAIRegistry 用一组现成的后端实例组装注册表。
// fallback 传空串表示不配置兜底后端。
func NewAIRegistry(backends []AIBackend, primary, fallback string) *AIRegistry {
	registry := &AIRegistry{
		backends: make(map[string]AIBackend, len(backends)),
		primary:  primary,
		fallback: fallback,
	}
	for _, backend := range backends {
		registry.backends[backend.Name()] = backend
	}
	return registry
}

// Get 按标识取后端，未配置时返回错误。
func (r *AIRegistry) Get(name string) (AIBackend, error) {
	backend, ok := r.backends[name]
	if !ok {
		return nil, fmt.Errorf("未配置的 AI 后端: %q", name)
	}
	return backend, nil
}

// Primary 返回配置的主后端。
func (r *AIRegistry) Primary() AIBackend {
	return r.backends[r.primary]
}

// Fallback 返回配置的兜底后端，未配置时为 nil。
func (r *AIRegistry) Fallback() AIBackend {
	if r.fallback == "" {
		return nil
	}
	return r.backends[r.fallback]
}

// InitAIRegistry 根据配置初始化全部生成后端。
// HTTP 客户端挂 otelhttp Transport，出站调用纳入分布式追踪。
func InitAIRegistry(cfg *appConfig.AIConfig, logger *core.ZapLogger) (*AIRegistry, error) {
	if len(cfg.Backends) == 0 {
		return nil, fmt.Errorf("aiConfig.backends 未配置任何后端")
	}

	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	httpClient := &http.Client{
		Timeout:   timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}

	backends := make([]AIBackend, 0, len(cfg.Backends))
	for _, backendCfg := range cfg.Backends {
		if backendCfg.Name == "" || backendCfg.BaseURL == "" || backendCfg.ChatModel == "" {
			return nil, fmt.Errorf("AI 后端配置不完整 (name=%q, baseURL=%q, chatModel=%q)",
				backendCfg.Name, backendCfg.BaseURL, backendCfg.ChatModel)
		}
		// 向量全部由主后端计算，只有主后端必须配置嵌入模型
		if backendCfg.Name == cfg.Primary && backendCfg.EmbedModel == "" {
			return nil, fmt.Errorf("主后端 %q 未配置 embedModel，语义查重无法工作", backendCfg.Name)
		}
		backends = append(backends, &openAIBackend{
			cfg:    backendCfg,
			client: httpClient,
			logger: logger,
		})
		logger.Info("已注册 AI 后端",
			zap.String("name", backendCfg.Name),
			zap.String("chatModel", backendCfg.ChatModel),
			zap.String("embedModel", backendCfg.EmbedModel),
		)
	}
	registry := NewAIRegistry(backends, cfg.Primary, cfg.Fallback)

	if _, ok := registry.backends[cfg.Primary]; !ok {
		return nil, fmt.Errorf("主后端 %q 不在已配置的后端列表中", cfg.Primary)
	}
	if cfg.Fallback != "" {
		if _, ok := registry.backends[cfg.Fallback]; !ok {
			return nil, fmt.Errorf("兜底后端 %q 不在已配置的后端列表中", cfg.Fallback)
		}
	}

	logger.Info("AI 后端注册表初始化成功",
		zap.Int("count", len(registry.backends)),
		zap.String("primary", cfg.Primary),
		zap.String("fallback", cfg.Fallback),
	)
	return registry, nil
}
