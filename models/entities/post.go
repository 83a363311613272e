package entities

import (
	"database/sql"
	"time"

	"github.com/Xushengqwer/go-common/models/entities"

	"github.com/Xushengqwer/autopost_service/models/enums"
)

// Post 受管内容单元
// - 使用场景: 自动发布流水线中的一条内容，从排期创建到发布/失败/跳过的全生命周期都落在这一行上
// - 表名: posts (GORM 默认使用结构体名复数形式)
// - 设计意图:
//   - 帖子行即为持久化检查点：worker 崩溃后凭 status 字段即可恢复推进，不依赖进程内状态
//   - 计划维度冗余到帖子上，便于 30 天使用量聚合与后续效果分析，不需要反查修订版本
//   - 永不硬删除，只做软状态迁移（SKIPPED / FAILED 等），保留可追溯性
type Post struct {
	entities.BaseModel // 嵌入自定义的 BaseModel ,包含 ID, CreatedAt, UpdatedAt, DeletedAt，支持软删除

	// 生命周期状态，见 enums.PostStatus 的迁移表
	// - 同一时刻只有一个状态；迁移必须经过仓库层的 CanTransitionTo 校验
	Status enums.PostStatus `gorm:"type:int;default:0;index"`

	// 创建来源，排期周期创建时为决策任务标识，人工创建时为操作员ID
	CreatedBy string `gorm:"type:varchar(64);not null"`

	// 审批人与审批时间，仅在状态越过 APPROVED 后写入
	ApprovedBy sql.NullString `gorm:"type:varchar(64)"`
	ApprovedAt *time.Time

	// 预期发布时间，由调度器在每日时间窗口内均匀抽取
	ScheduledAt *time.Time `gorm:"index"`

	// 实际发布时间，仅在终态 POSTED 写入
	PostedAt *time.Time

	// 发布成功后平台返回的外部ID/永久链接
	PlatformPostID sql.NullString `gorm:"type:varchar(255)"`

	// 最近一次失败的错误码与错误信息
	// - 每次新失败整体覆盖（不追加），只保留最近一条，这是对外唯一的错误表面
	LastErrorCode    sql.NullString `gorm:"type:varchar(64)"`
	LastErrorMessage sql.NullString `gorm:"type:varchar(512)"`

	// 选中计划的各维度 code，冗余存储用于使用量统计
	// - ScenarioCode 为可选维度，计划未包含场景时存 NULL
	ModuleCode   string         `gorm:"type:varchar(32);not null;index"`
	ScenarioCode sql.NullString `gorm:"type:varchar(32)"`
	OutletCode   string         `gorm:"type:varchar(32);not null"`
	ToneCode     string         `gorm:"type:varchar(32);not null"`
	EndingCode   string         `gorm:"type:varchar(32);not null"`
	LengthCode   string         `gorm:"type:varchar(32);not null"`

	// 篇幅目标的字符区间，来自 length 维度选项，校验器按内容字符数比对
	MinChars int `gorm:"type:int;default:0"`
	MaxChars int `gorm:"type:int;default:0"`

	// 是否为 AI 生成内容
	AIGenerated bool `gorm:"default:true"`

	// 生成重试计数，校验修正循环每失败一次递增
	RetryCount int `gorm:"type:int;default:0"`
}
