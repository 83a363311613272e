package mysql

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Xushengqwer/go-common/commonerrors"
	"github.com/Xushengqwer/go-common/core"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Xushengqwer/autopost_service/models/entities"
	"github.com/Xushengqwer/autopost_service/models/enums"
	"github.com/Xushengqwer/autopost_service/myErrors"
)

// BanditDecisionRepository 排期决策记录的持久化操作接口。
// 幂等性依赖 {schedule_date, slot} 唯一索引：调度周期不做进程内互斥，
// 并发/重复触发时靠数据库唯一约束收敛成恰好一条决策。
type BanditDecisionRepository interface {
	// Create 写入一条决策记录。
	// - 同一 {日期, 槽位} 已存在时返回 myErrors.ErrDecisionExists，调用方按"本槽位已排"跳过。
	// - db 参数允许与帖子创建放进同一事务。
	Create(ctx context.Context, db *gorm.DB, decision *entities.BanditDecision) error

	// AttachPost 决策创建帖子成功后回填帖子ID。
	AttachPost(ctx context.Context, db *gorm.DB, decisionID, postID uint64) error

	// UpdateOutcomeByPostID 帖子走到终态后回填决策结果。
	// 找不到关联决策不算错误（人工创建的帖子没有决策记录）。
	UpdateOutcomeByPostID(ctx context.Context, postID uint64, outcome enums.DecisionOutcome) error

	// List 按决策时间倒序分页列出决策记录。
	List(ctx context.Context, offset, limit int) ([]*entities.BanditDecision, int64, error)

	// CountForDate 统计某日已有的决策条数，调度周期据此决定还需要补多少槽位。
	CountForDate(ctx context.Context, date time.Time) (int64, error)
}

type banditDecisionRepository struct {
	db     *gorm.DB
	logger *core.ZapLogger
}

// NewBanditDecisionRepository 是 banditDecisionRepository 的构造函数。
func NewBanditDecisionRepository(db *gorm.DB, logger *core.ZapLogger) BanditDecisionRepository {
	return &banditDecisionRepository{db: db, logger: logger}
}

// isDuplicateKey 识别唯一约束冲突。
// GORM 的错误翻译在不同驱动版本下表现不一，这里同时兜底 MySQL 1062 的报错文案。
func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return strings.Contains(err.Error(), "Duplicate entry")
}

func (r *banditDecisionRepository) Create(ctx context.Context, db *gorm.DB, decision *entities.BanditDecision) error {
	if err := db.WithContext(ctx).Create(decision).Error; err != nil {
		if isDuplicateKey(err) {
			r.logger.Warn("该槽位已有决策记录，视为幂等跳过",
				zap.Time("scheduleDate", decision.ScheduleDate),
				zap.Int("slot", decision.Slot),
			)
			return myErrors.ErrDecisionExists
		}
		r.logger.Error("写入排期决策失败",
			zap.Error(err),
			zap.Time("scheduleDate", decision.ScheduleDate),
			zap.Int("slot", decision.Slot),
		)
		return err
	}
	return nil
}

func (r *banditDecisionRepository) AttachPost(ctx context.Context, db *gorm.DB, decisionID, postID uint64) error {
	result := db.WithContext(ctx).
		Model(&entities.BanditDecision{}).
		Where("id = ?", decisionID).
		Updates(map[string]interface{}{"post_id": postID, "updated_at": time.Now()})
	if result.Error != nil {
		r.logger.Error("回填决策关联帖子失败",
			zap.Error(result.Error),
			zap.Uint64("decisionID", decisionID),
			zap.Uint64("postID", postID),
		)
		return result.Error
	}
	if result.RowsAffected == 0 {
		return commonerrors.ErrRepoNotFound
	}
	return nil
}

func (r *banditDecisionRepository) UpdateOutcomeByPostID(ctx context.Context, postID uint64, outcome enums.DecisionOutcome) error {
	result := r.db.WithContext(ctx).
		Model(&entities.BanditDecision{}).
		Where("post_id = ?", postID).
		Updates(map[string]interface{}{"outcome": outcome, "updated_at": time.Now()})
	if result.Error != nil {
		r.logger.Error("回填决策结果失败",
			zap.Error(result.Error),
			zap.Uint64("postID", postID),
			zap.String("outcome", outcome.String()),
		)
		return result.Error
	}
	if result.RowsAffected == 0 {
		// 人工创建的帖子没有对应决策，属正常情况
		r.logger.Debug("帖子无关联决策记录，跳过结果回填", zap.Uint64("postID", postID))
	}
	return nil
}

func (r *banditDecisionRepository) List(ctx context.Context, offset, limit int) ([]*entities.BanditDecision, int64, error) {
	var decisions []*entities.BanditDecision
	var total int64

	if err := r.db.WithContext(ctx).Model(&entities.BanditDecision{}).Count(&total).Error; err != nil {
		r.logger.Error("决策记录计数失败", zap.Error(err))
		return nil, 0, fmt.Errorf("计数决策记录失败: %w", err)
	}
	if total == 0 {
		return decisions, 0, nil
	}

	err := r.db.WithContext(ctx).
		Order("schedule_date DESC").Order("slot DESC").
		Offset(offset).Limit(limit).
		Find(&decisions).Error
	if err != nil {
		r.logger.Error("查询决策记录失败", zap.Error(err))
		return nil, 0, fmt.Errorf("查询决策记录失败: %w", err)
	}
	return decisions, total, nil
}

func (r *banditDecisionRepository) CountForDate(ctx context.Context, date time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&entities.BanditDecision{}).
		Where("schedule_date = ?", date.Format("2006-01-02")).
		Count(&count).Error
	if err != nil {
		r.logger.Error("统计当日决策条数失败", zap.Error(err), zap.Time("date", date))
		return 0, err
	}
	return count, nil
}
