package config

type KafkaConfig struct {
	Brokers         []string `mapstructure:"brokers" json:"brokers" yaml:"brokers"`
	Topics          Topics   `mapstructure:"topics" json:"topics" yaml:"topics"`
	ConsumerGroupID string   `mapstructure:"consumer_group_id" json:"consumer_group_id" yaml:"consumer_group_id"`
}

type Topics struct {
	GenerateJobs    string `mapstructure:"generateJobs" yaml:"generateJobs"`       // 生成任务队列
	PublishJobs     string `mapstructure:"publishJobs" yaml:"publishJobs"`         // 发布任务队列
	ReviewRequest   string `mapstructure:"reviewRequest" yaml:"reviewRequest"`     // 审核请求（出站，通知通道消费）
	ReviewApproved  string `mapstructure:"reviewApproved" yaml:"reviewApproved"`   // 审核通过事件（入站）
	ReviewSkipped   string `mapstructure:"reviewSkipped" yaml:"reviewSkipped"`     // 审核放弃事件（入站）
	EngagementStats string `mapstructure:"engagementStats" yaml:"engagementStats"` // 互动数据同步事件（入站）
}
