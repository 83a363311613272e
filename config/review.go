package config

// ReviewConfig 审核环节配置。
type ReviewConfig struct {
	// AutoApprove 自动批准开关：开启后，进入 PENDING_REVIEW 的草稿会立即被批准并入队发布。
	// 注意 ACTION_REQUIRED 的帖子不受该开关影响，始终等待人工。
	AutoApprove bool `mapstructure:"autoApprove" json:"autoApprove" yaml:"autoApprove"`

	// DefaultReviewerID 审核请求默认指派的审核人
	DefaultReviewerID string `mapstructure:"defaultReviewerID" json:"defaultReviewerID" yaml:"defaultReviewerID"`
}

// SocialConfig 社交平台发布客户端配置（平台接口细节归属外部协作方）。
type SocialConfig struct {
	BaseURL        string `mapstructure:"baseURL" json:"baseURL" yaml:"baseURL"`
	Token          string `mapstructure:"token" json:"-" yaml:"token"`
	AccountID      string `mapstructure:"accountID" json:"accountID" yaml:"accountID"`
	TimeoutSeconds int    `mapstructure:"timeoutSeconds" json:"timeoutSeconds" yaml:"timeoutSeconds"`
}
