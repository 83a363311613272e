package config

import "github.com/Xushengqwer/go-common/config"

// AutopostConfig 服务的聚合配置，由 core.LoadConfig 从 YAML 一次性加载。
// 决策/生成时读取的运营可调参数（探索因子、相似度阈值、违禁词表等）全部集中在这里，
// 不在代码里写死。
type AutopostConfig struct {
	ZapConfig     config.ZapConfig     `mapstructure:"zapConfig" json:"zapConfig" yaml:"zapConfig"`
	GormLogConfig config.GormLogConfig `mapstructure:"gormLogConfig" json:"gormLogConfig" yaml:"gormLogConfig"`
	ServerConfig  config.ServerConfig  `mapstructure:"serverConfig" json:"serverConfig" yaml:"serverConfig"`
	TracerConfig  config.TracerConfig  `mapstructure:"tracerConfig" json:"tracerConfig" yaml:"tracerConfig"`

	MySQLConfig MySQLConfig `mapstructure:"mysqlConfig" json:"mysqlConfig" yaml:"mysqlConfig"`
	RedisConfig RedisConfig `mapstructure:"redisConfig" json:"redisConfig" yaml:"redisConfig"`
	KafkaConfig KafkaConfig `mapstructure:"kafkaConfig" json:"kafkaConfig" yaml:"kafkaConfig"`

	SchedulerConfig  SchedulerConfig  `mapstructure:"schedulerConfig" json:"schedulerConfig" yaml:"schedulerConfig"`
	GenerationConfig GenerationConfig `mapstructure:"generationConfig" json:"generationConfig" yaml:"generationConfig"`
	CheckerConfig    CheckerConfig    `mapstructure:"checkerConfig" json:"checkerConfig" yaml:"checkerConfig"`
	AIConfig         AIConfig         `mapstructure:"aiConfig" json:"aiConfig" yaml:"aiConfig"`
	ReviewConfig     ReviewConfig     `mapstructure:"reviewConfig" json:"reviewConfig" yaml:"reviewConfig"`
	SocialConfig     SocialConfig     `mapstructure:"socialConfig" json:"socialConfig" yaml:"socialConfig"`
}
