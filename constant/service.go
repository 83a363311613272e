package constant

// 服务标识常量，用于追踪 (OTel) 与日志标记
const (
	ServiceName    = "autopost_service"
	ServiceVersion = "1.0.0"
)

// 定时任务的 cron 表达式
const (
	// DailyScheduleCron 每日排期决策任务的调度表达式。
	// 每天凌晨 2 点运行一次：此时前一天的互动数据大多已由分析服务同步完毕，
	// Bandit 读取到的臂统计相对新鲜。
	DailyScheduleCron = "0 2 * * *"

	// StaleRecoveryCron 僵死生成任务恢复的调度表达式。
	// 每 10 分钟扫描一次停留在 GENERATING 状态超时的帖子并重新入队。
	StaleRecoveryCron = "*/10 * * * *"
)
