package mysql

import (
	"context"
	"errors"

	"github.com/Xushengqwer/go-common/commonerrors"
	"github.com/Xushengqwer/go-common/core"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Xushengqwer/autopost_service/models/entities"
)

// PostRevisionRepository 修订版本的持久化操作接口。
// 修订是不可变的：只有创建与读取，没有更新与删除。
type PostRevisionRepository interface {
	// CreateNextRevision 为帖子追加下一个修订版本。
	// - 在传入的事务内锁定该帖子现有最大修订号（SELECT ... FOR UPDATE），
	//   分配 max+1 后插入，保证同一帖子的修订号从 1 开始严格连续；
	//   {post_id, revision_no} 唯一索引在极端情况下兜底。
	// - 调用方负责把本方法与帖子状态推进放进同一个事务。
	CreateNextRevision(ctx context.Context, tx *gorm.DB, revision *entities.PostRevision) error

	// GetLatestRevision 获取帖子当前修订（修订号最大的一条）。
	// - 帖子尚无修订时返回 commonerrors.ErrRepoNotFound。
	GetLatestRevision(ctx context.Context, postID uint64) (*entities.PostRevision, error)

	// GetByID 根据修订 ID 读取单条修订。
	GetByID(ctx context.Context, id uint64) (*entities.PostRevision, error)

	// ListByPostID 按修订号升序列出帖子的全部修订。
	ListByPostID(ctx context.Context, postID uint64) ([]*entities.PostRevision, error)
}

type postRevisionRepository struct {
	db     *gorm.DB
	logger *core.ZapLogger
}

// NewPostRevisionRepository 是 postRevisionRepository 的构造函数。
func NewPostRevisionRepository(db *gorm.DB, logger *core.ZapLogger) PostRevisionRepository {
	return &postRevisionRepository{db: db, logger: logger}
}

func (r *postRevisionRepository) CreateNextRevision(ctx context.Context, tx *gorm.DB, revision *entities.PostRevision) error {
	// 行锁定住该帖子的修订序列，序列化并发尝试，保证修订号连续不重复。
	var last entities.PostRevision
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("post_id = ?", revision.PostID).
		Order("revision_no DESC").
		First(&last).Error

	switch {
	case err == nil:
		revision.RevisionNo = last.RevisionNo + 1
	case errors.Is(err, gorm.ErrRecordNotFound):
		revision.RevisionNo = 1
	default:
		r.logger.Error("锁定帖子修订序列失败", zap.Error(err), zap.Uint64("postID", revision.PostID))
		return err
	}

	if err := tx.WithContext(ctx).Create(revision).Error; err != nil {
		r.logger.Error("插入修订版本失败",
			zap.Error(err),
			zap.Uint64("postID", revision.PostID),
			zap.Int("revisionNo", revision.RevisionNo),
		)
		return err
	}
	return nil
}

func (r *postRevisionRepository) GetLatestRevision(ctx context.Context, postID uint64) (*entities.PostRevision, error) {
	var revision entities.PostRevision
	err := r.db.WithContext(ctx).
		Where("post_id = ?", postID).
		Order("revision_no DESC").
		First(&revision).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, commonerrors.ErrRepoNotFound
		}
		r.logger.Error("获取最新修订失败", zap.Error(err), zap.Uint64("postID", postID))
		return nil, err
	}
	return &revision, nil
}

func (r *postRevisionRepository) GetByID(ctx context.Context, id uint64) (*entities.PostRevision, error) {
	var revision entities.PostRevision
	err := r.db.WithContext(ctx).First(&revision, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, commonerrors.ErrRepoNotFound
		}
		r.logger.Error("根据 ID 获取修订失败", zap.Error(err), zap.Uint64("revisionID", id))
		return nil, err
	}
	return &revision, nil
}

func (r *postRevisionRepository) ListByPostID(ctx context.Context, postID uint64) ([]*entities.PostRevision, error) {
	var revisions []*entities.PostRevision
	err := r.db.WithContext(ctx).
		Where("post_id = ?", postID).
		Order("revision_no ASC").
		Find(&revisions).Error
	if err != nil {
		r.logger.Error("列出帖子修订失败", zap.Error(err), zap.Uint64("postID", postID))
		return nil, err
	}
	return revisions, nil
}
