package mysql

import (
	"context"
	"time"

	"github.com/Xushengqwer/go-common/commonerrors"
	"github.com/Xushengqwer/go-common/core"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Xushengqwer/autopost_service/models/entities"
	"github.com/Xushengqwer/autopost_service/models/enums"
)

// DimensionOptionRepository 维度目录的持久化操作接口。
// 目录由操作员维护，计划选择器只读；每次构建计划都读当前快照，不做进程内缓存
// （权重与启用状态会随时调整，见 Redis 层的短 TTL 使用量缓存）。
type DimensionOptionRepository interface {
	// ListEnabledByType 列出某一维度的全部启用选项。
	ListEnabledByType(ctx context.Context, dim enums.DimensionType) ([]*entities.DimensionOption, error)

	// ListAll 列出全部选项（含停用），供管理后台使用。
	ListAll(ctx context.Context) ([]*entities.DimensionOption, error)

	// Create 新增目录项（seeder 与管理后台使用）。
	Create(ctx context.Context, option *entities.DimensionOption) error

	// SetEnabled 启用/停用一个目录项。
	SetEnabled(ctx context.Context, id uint64, enabled bool) error
}

type dimensionOptionRepository struct {
	db     *gorm.DB
	logger *core.ZapLogger
}

// NewDimensionOptionRepository 是 dimensionOptionRepository 的构造函数。
func NewDimensionOptionRepository(db *gorm.DB, logger *core.ZapLogger) DimensionOptionRepository {
	return &dimensionOptionRepository{db: db, logger: logger}
}

func (r *dimensionOptionRepository) ListEnabledByType(ctx context.Context, dim enums.DimensionType) ([]*entities.DimensionOption, error) {
	var options []*entities.DimensionOption
	err := r.db.WithContext(ctx).
		Where("dimension_type = ? AND enabled = ?", dim, true).
		Order("id ASC").
		Find(&options).Error
	if err != nil {
		r.logger.Error("查询启用维度选项失败", zap.Error(err), zap.String("dimension", string(dim)))
		return nil, err
	}
	return options, nil
}

func (r *dimensionOptionRepository) ListAll(ctx context.Context) ([]*entities.DimensionOption, error) {
	var options []*entities.DimensionOption
	err := r.db.WithContext(ctx).
		Order("dimension_type ASC").Order("id ASC").
		Find(&options).Error
	if err != nil {
		r.logger.Error("查询全部维度选项失败", zap.Error(err))
		return nil, err
	}
	return options, nil
}

func (r *dimensionOptionRepository) Create(ctx context.Context, option *entities.DimensionOption) error {
	if err := r.db.WithContext(ctx).Create(option).Error; err != nil {
		r.logger.Error("创建维度选项失败",
			zap.Error(err),
			zap.String("dimension", string(option.DimensionType)),
			zap.String("code", option.Code),
		)
		return err
	}
	return nil
}

func (r *dimensionOptionRepository) SetEnabled(ctx context.Context, id uint64, enabled bool) error {
	result := r.db.WithContext(ctx).
		Model(&entities.DimensionOption{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"enabled": enabled, "updated_at": time.Now()})
	if result.Error != nil {
		r.logger.Error("更新维度选项启用状态失败", zap.Error(result.Error), zap.Uint64("id", id))
		return result.Error
	}
	if result.RowsAffected == 0 {
		return commonerrors.ErrRepoNotFound
	}
	return nil
}
