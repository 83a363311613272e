package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Xushengqwer/go-common/commonerrors"
	"github.com/Xushengqwer/go-common/core"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Xushengqwer/autopost_service/models/entities"
	"github.com/Xushengqwer/autopost_service/models/enums"
	"github.com/Xushengqwer/autopost_service/myErrors"
)

// PostRepository 定义了帖子数据在 MySQL 中的持久化操作接口。
// 接口的设计旨在将数据访问逻辑与业务逻辑（服务层）解耦。
type PostRepository interface {
	// CreatePost 持久化一个新的帖子记录（排期周期或人工操作的起点，状态为 DRAFT）。
	// - db 参数允许传入事务对象，与决策记录的写入保持原子。
	CreatePost(ctx context.Context, db *gorm.DB, post *entities.Post) error

	// GetPostByID 根据单个 ID 检索帖子。
	// - 未找到时返回 commonerrors.ErrRepoNotFound。
	GetPostByID(ctx context.Context, id uint64) (*entities.Post, error)

	// TransitionStatus 以比较并交换方式推进帖子生命周期状态。
	// - 先按迁移表校验 from → to 是否合法（非法返回 myErrors.ErrInvalidTransition）；
	// - UPDATE ... WHERE id = ? AND status = from 保证并发 worker 下同一迁移只生效一次，
	//   行未命中（已被他人推进或帖子不存在）返回 commonerrors.ErrRepoNotFound；
	// - updates 携带随状态一起落库的附加字段（approved_by、posted_at、错误字段等）。
	TransitionStatus(ctx context.Context, db *gorm.DB, postID uint64, from, to enums.PostStatus, updates map[string]interface{}) error

	// SetLastError 覆盖式写入帖子的最近错误（不追加，只保留最近一条）。
	SetLastError(ctx context.Context, postID uint64, code, message string) error

	// ListPosts 按可选状态分页查询帖子列表，按创建时间倒序。
	ListPosts(ctx context.Context, status *enums.PostStatus, offset, limit int) ([]*entities.Post, int64, error)

	// ListStaleGenerating 查询停留在 GENERATING 早于 before 的帖子，供恢复任务重新入队。
	ListStaleGenerating(ctx context.Context, before time.Time, limit int) ([]*entities.Post, error)

	// CountDimensionUsage 聚合滚动窗口内（since 之后创建的帖子）某一维度各 code 的使用次数。
	// 计划选择器据此推断使用占比；本方法只读，不回写目录表。
	CountDimensionUsage(ctx context.Context, dim enums.DimensionType, since time.Time) (map[string]int64, error)
}

// postRepository 是 PostRepository 接口针对 MySQL 的具体实现。
type postRepository struct {
	db     *gorm.DB
	logger *core.ZapLogger
}

// NewPostRepository 是 postRepository 的构造函数。
func NewPostRepository(db *gorm.DB, logger *core.ZapLogger) PostRepository {
	return &postRepository{db: db, logger: logger}
}

func (r *postRepository) CreatePost(ctx context.Context, db *gorm.DB, post *entities.Post) error {
	if err := db.WithContext(ctx).Create(post).Error; err != nil {
		return err
	}
	return nil
}

func (r *postRepository) GetPostByID(ctx context.Context, id uint64) (*entities.Post, error) {
	var post entities.Post
	err := r.db.WithContext(ctx).First(&post, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			r.logger.Warn("根据 ID 获取帖子未找到", zap.Uint64("postID", id))
			return nil, commonerrors.ErrRepoNotFound
		}
		r.logger.Error("根据 ID 获取帖子数据库查询失败", zap.Uint64("postID", id), zap.Error(err))
		return nil, err
	}
	return &post, nil
}

// TransitionStatus 实现帖子状态的受控推进。
func (r *postRepository) TransitionStatus(ctx context.Context, db *gorm.DB, postID uint64, from, to enums.PostStatus, updates map[string]interface{}) error {
	if !from.CanTransitionTo(to) {
		r.logger.Error("拒绝不合法的状态迁移",
			zap.Uint64("postID", postID),
			zap.String("from", from.String()),
			zap.String("to", to.String()),
		)
		return myErrors.ErrInvalidTransition
	}

	updateMap := make(map[string]interface{}, len(updates)+2)
	for k, v := range updates {
		updateMap[k] = v
	}
	updateMap["status"] = to
	updateMap["updated_at"] = time.Now()

	result := db.WithContext(ctx).
		Model(&entities.Post{}).
		Where("id = ? AND status = ? AND deleted_at IS NULL", postID, from).
		Updates(updateMap)

	if result.Error != nil {
		r.logger.Error("推进帖子状态数据库操作失败",
			zap.Error(result.Error),
			zap.Uint64("postID", postID),
			zap.String("to", to.String()),
		)
		return result.Error
	}
	if result.RowsAffected == 0 {
		// 帖子不存在，或状态已被其他 worker 推进（CAS 未命中）
		r.logger.Warn("状态迁移未命中任何行",
			zap.Uint64("postID", postID),
			zap.String("from", from.String()),
			zap.String("to", to.String()),
		)
		return commonerrors.ErrRepoNotFound
	}

	r.logger.Info("帖子状态已推进",
		zap.Uint64("postID", postID),
		zap.String("from", from.String()),
		zap.String("to", to.String()),
	)
	return nil
}

func (r *postRepository) SetLastError(ctx context.Context, postID uint64, code, message string) error {
	result := r.db.WithContext(ctx).
		Model(&entities.Post{}).
		Where("id = ? AND deleted_at IS NULL", postID).
		Updates(map[string]interface{}{
			"last_error_code":    sql.NullString{String: code, Valid: code != ""},
			"last_error_message": sql.NullString{String: message, Valid: message != ""},
			"updated_at":         time.Now(),
		})
	if result.Error != nil {
		r.logger.Error("写入帖子最近错误失败", zap.Error(result.Error), zap.Uint64("postID", postID))
		return result.Error
	}
	if result.RowsAffected == 0 {
		return commonerrors.ErrRepoNotFound
	}
	return nil
}

func (r *postRepository) ListPosts(ctx context.Context, status *enums.PostStatus, offset, limit int) ([]*entities.Post, int64, error) {
	var posts []*entities.Post
	var total int64

	query := r.db.WithContext(ctx).Model(&entities.Post{})
	countQuery := r.db.WithContext(ctx).Model(&entities.Post{})
	if status != nil {
		query = query.Where("status = ?", *status)
		countQuery = countQuery.Where("status = ?", *status)
	}

	if err := countQuery.Count(&total).Error; err != nil {
		r.logger.Error("帖子列表计数查询失败", zap.Error(err), zap.Any("status", status))
		return nil, 0, fmt.Errorf("计数帖子失败: %w", err)
	}
	if total == 0 {
		return posts, 0, nil
	}

	err := query.Order("created_at DESC").Order("id DESC").
		Offset(offset).Limit(limit).
		Find(&posts).Error
	if err != nil {
		r.logger.Error("帖子列表查询失败", zap.Error(err), zap.Any("status", status))
		return nil, 0, fmt.Errorf("查询帖子列表失败: %w", err)
	}
	return posts, total, nil
}

func (r *postRepository) ListStaleGenerating(ctx context.Context, before time.Time, limit int) ([]*entities.Post, error) {
	var posts []*entities.Post
	err := r.db.WithContext(ctx).
		Where("status = ? AND updated_at < ?", enums.StatusGenerating, before).
		Order("updated_at ASC").
		Limit(limit).
		Find(&posts).Error
	if err != nil {
		r.logger.Error("查询僵死生成帖子失败", zap.Error(err), zap.Time("before", before))
		return nil, err
	}
	return posts, nil
}

// dimensionColumn 维度类型到帖子冗余列的映射。
// 显式映射而非字符串拼接，避免把外部输入带进 SQL。
func dimensionColumn(dim enums.DimensionType) (string, bool) {
	switch dim {
	case enums.DimensionModule:
		return "module_code", true
	case enums.DimensionScenario:
		return "scenario_code", true
	case enums.DimensionOutlet:
		return "outlet_code", true
	case enums.DimensionTone:
		return "tone_code", true
	case enums.DimensionEnding:
		return "ending_code", true
	case enums.DimensionLength:
		return "length_code", true
	}
	return "", false
}

func (r *postRepository) CountDimensionUsage(ctx context.Context, dim enums.DimensionType, since time.Time) (map[string]int64, error) {
	column, ok := dimensionColumn(dim)
	if !ok {
		return nil, fmt.Errorf("未知的维度类型: %s", dim)
	}

	type usageRow struct {
		Code  sql.NullString
		Count int64
	}
	var rows []usageRow

	err := r.db.WithContext(ctx).
		Model(&entities.Post{}).
		Select(fmt.Sprintf("%s AS code, COUNT(*) AS count", column)).
		Where("created_at >= ?", since).
		Group(column).
		Scan(&rows).Error
	if err != nil {
		r.logger.Error("维度使用量聚合查询失败", zap.Error(err), zap.String("dimension", string(dim)))
		return nil, err
	}

	usage := make(map[string]int64, len(rows))
	for _, row := range rows {
		// scenario 为可选维度，NULL 表示计划未包含场景，不计入任何 code
		if row.Code.Valid && row.Code.String != "" {
			usage[row.Code.String] = row.Count
		}
	}
	return usage, nil
}
