package entities

import (
	"time"

	"github.com/Xushengqwer/go-common/models/entities"

	"github.com/Xushengqwer/autopost_service/models/enums"
)

// BanditDecision 一次排期决策的审计记录
// - 表名: bandit_decisions
// - {schedule_date, slot} 唯一索引即幂等约束：同一天同一槽位只会产生一条决策，
//   调度周期重复触发时由该约束兜底，不依赖进程内锁
// - 创建于决策时刻；对应帖子走到终态后回填 outcome
type BanditDecision struct {
	entities.BaseModel

	// 决策所属日期（当天零点，固定 UTC 偏移的本地历日）
	ScheduleDate time.Time `gorm:"type:date;not null;uniqueIndex:idx_schedule_slot,priority:1"`

	// 当日槽位序号，从 0 开始；postsPerDay=1 时恒为 0
	Slot int `gorm:"type:int;not null;uniqueIndex:idx_schedule_slot,priority:2"`

	// 选中的模板（臂）ID
	TemplateID uint64 `gorm:"type:bigint;not null;index"`

	// 抽取到的发布时刻
	ScheduledAt time.Time `gorm:"not null"`

	// 决策时计算出的分数（强制探索时落在保留区间）
	Score float64 `gorm:"type:double;not null"`

	// 是否为强制探索选择
	IsExploration bool `gorm:"default:false"`

	// 自由文本理由，便于回溯为什么选了这个臂
	Reason string `gorm:"type:varchar(255)"`

	// 由本决策创建的帖子ID，创建帖子失败时为 NULL
	PostID *uint64 `gorm:"type:bigint;index"`

	// 决策最终结果，帖子终态后回填
	Outcome enums.DecisionOutcome `gorm:"type:int;default:0"`
}
