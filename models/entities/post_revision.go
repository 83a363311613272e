package entities

import (
	"github.com/Xushengqwer/go-common/models/entities"
)

// SimilarityHit 一条相似度命中记录: 与哪个已发布帖子相似、相似度多少。
type SimilarityHit struct {
	PostID uint64  `json:"post_id"`
	Score  float64 `json:"score"`
}

// GenerationParams 产出本次修订所用的生成参数。
// - 仅记录可复现"意图"的小字段（计划各维度 code 与 token 预算）；
//   修正指令等任意长度的提示文本刻意不入库，重新生成时会重新渲染。
type GenerationParams struct {
	ModuleCode   string `json:"module_code"`
	ScenarioCode string `json:"scenario_code,omitempty"`
	OutletCode   string `json:"outlet_code"`
	ToneCode     string `json:"tone_code"`
	EndingCode   string `json:"ending_code"`
	LengthCode   string `json:"length_code"`
	MinChars     int    `json:"min_chars"`
	MaxChars     int    `json:"max_chars"`
	MaxTokens    int    `json:"max_tokens"`
}

// PostRevision 一次生成尝试的不可变产物
// - 表名: post_revisions
// - 不变式:
//   - 同一帖子的 revision_no 从 1 开始严格递增且连续，由仓库层在事务内分配
//   - 创建后不再修改；"当前修订"始终是 revision_no 最大的一条
type PostRevision struct {
	entities.BaseModel

	// 所属帖子ID，与 revision_no 组成唯一索引，保证修订号不重复
	PostID uint64 `gorm:"type:bigint;not null;uniqueIndex:idx_post_revision,priority:1"`

	// 修订号，同一帖子内单调递增
	RevisionNo int `gorm:"type:int;not null;uniqueIndex:idx_post_revision,priority:2"`

	// 生成的正文，保留换行符
	Content string `gorm:"type:text;not null"`

	// 产出本修订的后端标识（如 "qwen" / "deepseek"）
	Backend string `gorm:"type:varchar(32);not null"`

	// 是否由兜底后端产出（主后端尝试耗尽后的一次兜底调用）
	FromFallback bool `gorm:"default:false"`

	// 创建时刻观测到的最大余弦相似度
	SimilarityMax float64 `gorm:"type:double;default:0"`

	// 相似度命中明细，TEXT JSON 存储
	SimilarityHits []SimilarityHit `gorm:"type:text;serializer:json"`

	// 生成参数快照，TEXT JSON 存储，重新生成时复用
	Params GenerationParams `gorm:"type:text;serializer:json"`
}
