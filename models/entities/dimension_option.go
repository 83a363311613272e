package entities

import (
	"github.com/Xushengqwer/go-common/models/entities"

	"github.com/Xushengqwer/autopost_service/models/enums"
)

// DimensionOption 内容维度目录项
// - 表名: dimension_options
// - 生命周期: 由操作员配置；计划选择器只读；使用量通过扫描近 30 天帖子推断，不回写本表
type DimensionOption struct {
	entities.BaseModel

	// 维度类型 (module / scenario / outlet / tone / ending / length)
	DimensionType enums.DimensionType `gorm:"type:varchar(16);not null;uniqueIndex:idx_dim_code,priority:1"`

	// 选项 code，维度内唯一，落到帖子的冗余字段上
	Code string `gorm:"type:varchar(32);not null;uniqueIndex:idx_dim_code,priority:2"`

	// 展示名，参与提示词拼装
	Name string `gorm:"type:varchar(64);not null"`

	// 目标使用占比 [0,1]，计划选择器以此为基准做加权抽取
	Weight float64 `gorm:"type:double;default:0"`

	// 兼容的模块 code 列表，TEXT JSON；为空表示不受模块约束
	// - 兼容性是建议性的：过滤后候选集为空时回退到全集，不作为硬失败
	CompatibleModules []string `gorm:"type:text;serializer:json"`

	// 互斥的选项 code 列表，TEXT JSON
	IncompatibleWith []string `gorm:"type:text;serializer:json"`

	// 是否启用
	Enabled bool `gorm:"default:true;index"`

	// 篇幅区间，仅 length 维度使用，其余维度为 0
	MinChars int `gorm:"type:int;default:0"`
	MaxChars int `gorm:"type:int;default:0"`
}

// CompatibleWith 判断该选项是否声明了兼容给定模块。
// 未声明任何兼容列表时视为无约束，返回 false 交由上层决定是否过滤。
func (o *DimensionOption) CompatibleWith(moduleCode string) bool {
	for _, m := range o.CompatibleModules {
		if m == moduleCode {
			return true
		}
	}
	return false
}
