package mysql

import (
	"context"
	"errors"
	"time"

	"github.com/Xushengqwer/go-common/commonerrors"
	"github.com/Xushengqwer/go-common/core"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Xushengqwer/autopost_service/models/entities"
)

// ContentTemplateRepository 内容模板（Bandit 臂）的持久化操作接口。
// 统计口径约定：trials/views/engaged 只增不减、只用原子自增更新，
// 平均互动率永远由累计量现算。调度器对本仓库只读。
type ContentTemplateRepository interface {
	// ListEnabled 列出全部启用模板。
	ListEnabled(ctx context.Context) ([]*entities.ContentTemplate, error)

	// ListAll 列出全部模板（含停用），供管理后台使用。
	ListAll(ctx context.Context) ([]*entities.ContentTemplate, error)

	// GetByID 读取单个模板。未找到时返回 commonerrors.ErrRepoNotFound。
	GetByID(ctx context.Context, id uint64) (*entities.ContentTemplate, error)

	// TotalTrials 当前全池累计试验次数（UCB 公式中的 totalTrials）。
	TotalTrials(ctx context.Context) (int64, error)

	// AddEngagement 累加统计数据（原子自增），仅由分析同步消费者调用。
	// trials 是试验数增量，分析服务在一次投放的首份数据里带 1。
	AddEngagement(ctx context.Context, id uint64, trials, views, engaged int64) error

	// Create 新增模板（seeder 与管理后台使用）。
	Create(ctx context.Context, template *entities.ContentTemplate) error

	// SetEnabled 启用/停用模板。
	SetEnabled(ctx context.Context, id uint64, enabled bool) error
}

type contentTemplateRepository struct {
	db     *gorm.DB
	logger *core.ZapLogger
}

// NewContentTemplateRepository 是 contentTemplateRepository 的构造函数。
func NewContentTemplateRepository(db *gorm.DB, logger *core.ZapLogger) ContentTemplateRepository {
	return &contentTemplateRepository{db: db, logger: logger}
}

func (r *contentTemplateRepository) ListEnabled(ctx context.Context) ([]*entities.ContentTemplate, error) {
	var templates []*entities.ContentTemplate
	err := r.db.WithContext(ctx).
		Where("enabled = ?", true).
		Order("id ASC").
		Find(&templates).Error
	if err != nil {
		r.logger.Error("查询启用模板失败", zap.Error(err))
		return nil, err
	}
	return templates, nil
}

func (r *contentTemplateRepository) ListAll(ctx context.Context) ([]*entities.ContentTemplate, error) {
	var templates []*entities.ContentTemplate
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&templates).Error; err != nil {
		r.logger.Error("查询全部模板失败", zap.Error(err))
		return nil, err
	}
	return templates, nil
}

func (r *contentTemplateRepository) GetByID(ctx context.Context, id uint64) (*entities.ContentTemplate, error) {
	var template entities.ContentTemplate
	err := r.db.WithContext(ctx).First(&template, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, commonerrors.ErrRepoNotFound
		}
		r.logger.Error("根据 ID 获取模板失败", zap.Error(err), zap.Uint64("templateID", id))
		return nil, err
	}
	return &template, nil
}

func (r *contentTemplateRepository) TotalTrials(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&entities.ContentTemplate{}).
		Select("COALESCE(SUM(trials), 0)").
		Where("enabled = ?", true).
		Scan(&total).Error
	if err != nil {
		r.logger.Error("统计全池试验次数失败", zap.Error(err))
		return 0, err
	}
	return total, nil
}

func (r *contentTemplateRepository) AddEngagement(ctx context.Context, id uint64, trials, views, engaged int64) error {
	result := r.db.WithContext(ctx).
		Model(&entities.ContentTemplate{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"trials":     gorm.Expr("trials + ?", trials),
			"views":      gorm.Expr("views + ?", views),
			"engaged":    gorm.Expr("engaged + ?", engaged),
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		r.logger.Error("累加模板互动数据失败",
			zap.Error(result.Error),
			zap.Uint64("templateID", id),
			zap.Int64("trials", trials),
			zap.Int64("views", views),
			zap.Int64("engaged", engaged),
		)
		return result.Error
	}
	if result.RowsAffected == 0 {
		return commonerrors.ErrRepoNotFound
	}
	return nil
}

func (r *contentTemplateRepository) Create(ctx context.Context, template *entities.ContentTemplate) error {
	if err := r.db.WithContext(ctx).Create(template).Error; err != nil {
		r.logger.Error("创建模板失败", zap.Error(err), zap.String("name", template.Name))
		return err
	}
	return nil
}

func (r *contentTemplateRepository) SetEnabled(ctx context.Context, id uint64, enabled bool) error {
	result := r.db.WithContext(ctx).
		Model(&entities.ContentTemplate{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"enabled": enabled, "updated_at": time.Now()})
	if result.Error != nil {
		r.logger.Error("更新模板启用状态失败", zap.Error(result.Error), zap.Uint64("templateID", id))
		return result.Error
	}
	if result.RowsAffected == 0 {
		return commonerrors.ErrRepoNotFound
	}
	return nil
}
