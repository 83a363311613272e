package config

// RedisConfig Redis 连接配置。
// 本服务用 Redis 做两件事：近期文案窗口（校验器的字符集近重复检查）
// 与维度使用量的短 TTL 缓存，均可丢失、可重建。
type RedisConfig struct {
	Address  string `mapstructure:"address" json:"address" yaml:"address"`
	Password string `mapstructure:"password" json:"password" yaml:"password"`
	DB       int    `mapstructure:"db" json:"db" yaml:"db"`
	PoolSize int    `mapstructure:"poolSize" json:"poolSize" yaml:"poolSize"`
}
