package entities

import (
	"github.com/Xushengqwer/go-common/models/entities"
)

// ContentTemplate 可复用内容模板，即 Bandit 问题中的一个臂 (arm)
// - 表名: content_templates
// - 不变式: 平均互动率永远由累计量 (engaged/views) 现算，不单独维护一列，避免漂移
// - 变更方: trials/views/engaged 仅由互动数据同步消费者以原子自增方式更新，调度器只读
type ContentTemplate struct {
	entities.BaseModel

	// 模板名，便于运营辨识
	Name string `gorm:"type:varchar(64);not null"`

	// 是否参与调度
	Enabled bool `gorm:"default:true;index"`

	// 固定文案模板；非空时该臂直接使用字面模板，编排器跳过计划解析
	FixedText string `gorm:"type:text"`

	// 提示词倾向描述，拼入系统提示，引导该臂的风格
	PromptHint string `gorm:"type:varchar(255)"`

	// 允许投放的星期列表，1=周一 .. 7=周日（内部约定，与宿主平台的星期编号无关）
	// 为空表示每天可投
	ActiveWeekdays []int `gorm:"type:text;serializer:json"`

	// 累计试验次数（该臂被调度并实际发布的次数）
	Trials int64 `gorm:"type:bigint;default:0"`

	// 互动累计量: 曝光数与互动数，由分析同步服务原子自增
	Views   int64 `gorm:"type:bigint;default:0"`
	Engaged int64 `gorm:"type:bigint;default:0"`
}

// AvgEngagementRate 从累计量现算平均互动率，无曝光时为 0。
// engaged/views 天然落在 [0,1]，UCB 打分前仍会做一次钳制。
func (t *ContentTemplate) AvgEngagementRate() float64 {
	if t.Views <= 0 {
		return 0
	}
	return float64(t.Engaged) / float64(t.Views)
}

// ActiveOn 判断该臂在内部星期编号 weekday (1=周一..7=周日) 是否可投。
func (t *ContentTemplate) ActiveOn(weekday int) bool {
	if len(t.ActiveWeekdays) == 0 {
		return true
	}
	for _, d := range t.ActiveWeekdays {
		if d == weekday {
			return true
		}
	}
	return false
}
