package dependencies

import (
	"testing"

	sharedConfig "github.com/Xushengqwer/go-common/config"
	"github.com/Xushengqwer/go-common/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appConfig "github.com/Xushengqwer/autopost_service/config"
)

func testLogger(t *testing.T) *core.ZapLogger {
	t.Helper()
	logger, err := core.NewZapLogger(sharedConfig.ZapConfig{})
	require.NoError(t, err)
	return logger
}

func backendConfig(name, embedModel string) appConfig.AIBackendConfig {
	return appConfig.AIBackendConfig{
		Name:       name,
		BaseURL:    "https://example.com/v1",
		APIKey:     "sk-test",
		ChatModel:  name + "-chat",
		EmbedModel: embedModel,
	}
}

func TestInitAIRegistry_FallbackWithoutEmbedModel(t *testing.T) {
	// 向量全部由主后端计算，兜底后端不配置嵌入模型也能用
	cfg := &appConfig.AIConfig{
		Primary:  "qwen",
		Fallback: "deepseek",
		Backends: []appConfig.AIBackendConfig{
			backendConfig("qwen", "qwen-embed"),
			backendConfig("deepseek", ""),
		},
	}

	registry, err := InitAIRegistry(cfg, testLogger(t))
	require.NoError(t, err)
	assert.Equal(t, "qwen", registry.Primary().Name())
	assert.Equal(t, "deepseek", registry.Fallback().Name())
}

func TestInitAIRegistry_PrimaryRequiresEmbedModel(t *testing.T) {
	cfg := &appConfig.AIConfig{
		Primary: "qwen",
		Backends: []appConfig.AIBackendConfig{
			backendConfig("qwen", ""),
		},
	}

	_, err := InitAIRegistry(cfg, testLogger(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "embedModel")
}

func TestInitAIRegistry_RequiresChatModel(t *testing.T) {
	backend := backendConfig("qwen", "qwen-embed")
	backend.ChatModel = ""
	cfg := &appConfig.AIConfig{
		Primary:  "qwen",
		Backends: []appConfig.AIBackendConfig{backend},
	}

	_, err := InitAIRegistry(cfg, testLogger(t))
	assert.Error(t, err)
}

func TestInitAIRegistry_UnknownPrimary(t *testing.T) {
	cfg := &appConfig.AIConfig{
		Primary: "nonexistent",
		Backends: []appConfig.AIBackendConfig{
			backendConfig("qwen", "qwen-embed"),
		},
	}

	_, err := InitAIRegistry(cfg, testLogger(t))
	assert.Error(t, err)
}
