package config

// SchedulerConfig Bandit 调度器的运营可调参数。
type SchedulerConfig struct {
	// ExplorationFactor UCB 探索系数 c，典型取值 1.0 ~ 2.0。
	// 越大越倾向尝试数据少的臂。
	ExplorationFactor float64 `mapstructure:"explorationFactor" json:"explorationFactor" yaml:"explorationFactor"`

	// MinTrialsPerArm 每个臂的最小试验次数。
	// 试验数低于该值的臂进入强制探索：分数落在保留区间 [999,1000)，
	// 必然压过任何正常计算的分数。
	MinTrialsPerArm int64 `mapstructure:"minTrialsPerArm" json:"minTrialsPerArm" yaml:"minTrialsPerArm"`

	// WindowStart / WindowEnd 每日发布时间窗口，"HH:MM" 格式的本地民用时间。
	// 发布时刻在 [start, end) 内均匀抽取。
	WindowStart string `mapstructure:"windowStart" json:"windowStart" yaml:"windowStart"`
	WindowEnd   string `mapstructure:"windowEnd" json:"windowEnd" yaml:"windowEnd"`

	// UTCOffsetHours 运营地的固定 UTC 偏移（小时）。
	// 时间窗口按该固定偏移换算成绝对时刻，不随夏令时漂移。
	UTCOffsetHours int `mapstructure:"utcOffsetHours" json:"utcOffsetHours" yaml:"utcOffsetHours"`

	// ActiveWeekdays 全局可投放星期，1=周一..7=周日（内部约定）。为空表示每天投放。
	ActiveWeekdays []int `mapstructure:"activeWeekdays" json:"activeWeekdays" yaml:"activeWeekdays"`

	// PostsPerDay 每天的排期槽位数。
	PostsPerDay int `mapstructure:"postsPerDay" json:"postsPerDay" yaml:"postsPerDay"`
}
