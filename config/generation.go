package config

// GenerationConfig 生成编排器的运营可调参数。
type GenerationConfig struct {
	// MaxRetries 主后端的最大尝试次数（后端异常与相似度超标都消耗一次尝试）。
	MaxRetries int `mapstructure:"maxRetries" json:"maxRetries" yaml:"maxRetries"`

	// MaxFixRetries 结构校验失败后修正重试的最大次数，与 MaxRetries 独立计数。
	MaxFixRetries int `mapstructure:"maxFixRetries" json:"maxFixRetries" yaml:"maxFixRetries"`

	// SimilarityThreshold 余弦相似度可接受上限（含边界）：
	// maxSimilarity > threshold 才判超标，等于阈值视为可接受。
	SimilarityThreshold float64 `mapstructure:"similarityThreshold" json:"similarityThreshold" yaml:"similarityThreshold"`

	// RecentWindow 相似度比对时取最近已发布向量的条数 N。
	RecentWindow int `mapstructure:"recentWindow" json:"recentWindow" yaml:"recentWindow"`

	// ScenarioProbability 计划含可选"场景"维度的基线概率 [0,1]。
	ScenarioProbability float64 `mapstructure:"scenarioProbability" json:"scenarioProbability" yaml:"scenarioProbability"`

	// UsageWindowDays 计划选择器统计维度使用量的滚动窗口天数。
	UsageWindowDays int `mapstructure:"usageWindowDays" json:"usageWindowDays" yaml:"usageWindowDays"`

	// MaxTokens 单次生成调用的默认 token 预算。
	MaxTokens int `mapstructure:"maxTokens" json:"maxTokens" yaml:"maxTokens"`

	// StaleAfterMinutes 帖子停留在 GENERATING 超过该分钟数即视为僵死，
	// 由恢复任务重新入队（至少一次语义，不做分布式锁）。
	StaleAfterMinutes int `mapstructure:"staleAfterMinutes" json:"staleAfterMinutes" yaml:"staleAfterMinutes"`
}
