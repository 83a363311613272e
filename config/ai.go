package config

// AIBackendConfig 一个生成后端的连接配置。
// 各后端走 OpenAI 兼容协议 (chat/completions + embeddings)，以 Name 作为选择标识。
type AIBackendConfig struct {
	Name       string `mapstructure:"name" json:"name" yaml:"name"`
	BaseURL    string `mapstructure:"baseURL" json:"baseURL" yaml:"baseURL"`
	APIKey     string `mapstructure:"apiKey" json:"-" yaml:"apiKey"`
	ChatModel  string `mapstructure:"chatModel" json:"chatModel" yaml:"chatModel"`
	EmbedModel string `mapstructure:"embedModel" json:"embedModel" yaml:"embedModel"`
}

// AIConfig 生成后端集合与主/兜底选择。
type AIConfig struct {
	Backends []AIBackendConfig `mapstructure:"backends" json:"backends" yaml:"backends"`

	// Primary 主后端标识；Fallback 兜底后端标识（主后端尝试耗尽后恰好调用一次）
	Primary  string `mapstructure:"primary" json:"primary" yaml:"primary"`
	Fallback string `mapstructure:"fallback" json:"fallback" yaml:"fallback"`

	// TimeoutSeconds 单次后端网络调用超时（秒）
	TimeoutSeconds int `mapstructure:"timeoutSeconds" json:"timeoutSeconds" yaml:"timeoutSeconds"`
}
