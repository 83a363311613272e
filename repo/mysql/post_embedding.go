package mysql

import (
	"context"

	"github.com/Xushengqwer/go-common/core"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Xushengqwer/autopost_service/models/entities"
)

// PostEmbeddingRepository 帖子向量的持久化操作接口。
// 每个帖子只保留一行向量；相似度引擎按创建顺序取最近 N 条做余弦比对。
type PostEmbeddingRepository interface {
	// Upsert 写入一条向量记录。post_id 唯一约束，
	// 再生成同一帖子时覆盖旧向量而不是新增行。
	Upsert(ctx context.Context, db *gorm.DB, embedding *entities.PostEmbedding) error

	// ListRecent 取最近 n 条向量记录（按创建倒序）。
	ListRecent(ctx context.Context, n int) ([]*entities.PostEmbedding, error)
}

type postEmbeddingRepository struct {
	db     *gorm.DB
	logger *core.ZapLogger
}

// NewPostEmbeddingRepository 是 postEmbeddingRepository 的构造函数。
func NewPostEmbeddingRepository(db *gorm.DB, logger *core.ZapLogger) PostEmbeddingRepository {
	return &postEmbeddingRepository{db: db, logger: logger}
}

func (r *postEmbeddingRepository) Upsert(ctx context.Context, db *gorm.DB, embedding *entities.PostEmbedding) error {
	err := db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "post_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"backend", "dim", "vector", "updated_at"}),
		}).
		Create(embedding).Error
	if err != nil {
		r.logger.Error("写入帖子向量失败", zap.Error(err), zap.Uint64("postID", embedding.PostID))
		return err
	}
	return nil
}

func (r *postEmbeddingRepository) ListRecent(ctx context.Context, n int) ([]*entities.PostEmbedding, error) {
	var embeddings []*entities.PostEmbedding
	err := r.db.WithContext(ctx).
		Order("id DESC").
		Limit(n).
		Find(&embeddings).Error
	if err != nil {
		r.logger.Error("读取近期帖子向量失败", zap.Error(err), zap.Int("n", n))
		return nil, err
	}
	return embeddings, nil
}
