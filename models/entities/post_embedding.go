package entities

import (
	"github.com/Xushengqwer/go-common/models/entities"
)

// PostEmbedding 帖子正文的定长向量表示
// - 表名: post_embeddings
// - 每个帖子只保留一行（post_id 唯一索引），再生成时覆盖更新；相似度引擎只读
// - 向量以 TEXT JSON 存储。量级是每天个位数新增、比对窗口几十条，
//   MySQL + 内存余弦足够，不需要向量数据库
type PostEmbedding struct {
	entities.BaseModel

	// 归属帖子ID
	PostID uint64 `gorm:"type:bigint;not null;uniqueIndex"`

	// 产出向量的后端标识
	Backend string `gorm:"type:varchar(32);not null"`

	// 向量维数，读取时用于一致性校验
	Dim int `gorm:"type:int;not null"`

	// 向量本体，TEXT JSON
	Vector []float64 `gorm:"type:text;serializer:json"`
}
