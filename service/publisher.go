package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Xushengqwer/go-common/core"
	"go.uber.org/zap"
	"gorm.io/gorm"

	appConfig "github.com/Xushengqwer/autopost_service/config"
	"github.com/Xushengqwer/autopost_service/dependencies"
	"github.com/Xushengqwer/autopost_service/models/enums"
	"github.com/Xushengqwer/autopost_service/myErrors"
	"github.com/Xushengqwer/autopost_service/repo/mysql"
	redisRepo "github.com/Xushengqwer/autopost_service/repo/redis"
)

const errCodePublishFailed = "PUBLISH_FAILED"

// PublishService 定义了帖子发布的接口。
type PublishService interface {
	// Publish 把已批准帖子的指定修订发布到社交平台。
	// - APPROVED → PUBLISHING → POSTED，失败时 PUBLISHING → FAILED 并记录错误表面。
	// - 发布成功后把正文推入近期文案窗口，并回填决策结果。
	Publish(ctx context.Context, postID, revisionID uint64, accountID string) error
}

// publishService 是 PublishService 接口的具体实现。
type publishService struct {
	postRepo     mysql.PostRepository
	revisionRepo mysql.PostRevisionRepository
	decisionRepo mysql.BanditDecisionRepository
	recentTexts  redisRepo.RecentTextRepository
	socialClient dependencies.SocialClientInterface
	db           *gorm.DB
	cfg          appConfig.SocialConfig
	logger       *core.ZapLogger
}

// NewPublishService 是 publishService 的构造函数。
func NewPublishService(
	db *gorm.DB,
	postRepo mysql.PostRepository,
	revisionRepo mysql.PostRevisionRepository,
	decisionRepo mysql.BanditDecisionRepository,
	recentTexts redisRepo.RecentTextRepository,
	socialClient dependencies.SocialClientInterface,
	cfg appConfig.SocialConfig,
	logger *core.ZapLogger,
) PublishService {
	return &publishService{
		postRepo:     postRepo,
		revisionRepo: revisionRepo,
		decisionRepo: decisionRepo,
		recentTexts:  recentTexts,
		socialClient: socialClient,
		db:           db,
		cfg:          cfg,
		logger:       logger,
	}
}

func (s *publishService) Publish(ctx context.Context, postID, revisionID uint64, accountID string) error {
	revision, err := s.revisionRepo.GetByID(ctx, revisionID)
	if err != nil {
		return fmt.Errorf("加载修订 %d 失败: %w", revisionID, err)
	}
	if revision.PostID != postID {
		return fmt.Errorf("修订 %d 不属于帖子 %d: %w", revisionID, postID, myErrors.ErrInvalidTransition)
	}

	if err := s.postRepo.TransitionStatus(ctx, s.db, postID, enums.StatusApproved, enums.StatusPublishing, nil); err != nil {
		return fmt.Errorf("帖子 %d 进入 PUBLISHING 失败: %w", postID, err)
	}

	if accountID == "" {
		accountID = s.cfg.AccountID
	}

	platformPostID, err := s.socialClient.PublishPost(ctx, accountID, revision.Content)
	if err != nil {
		return s.markFailed(ctx, postID, err)
	}

	now := time.Now()
	updates := map[string]interface{}{
		"posted_at":        now,
		"platform_post_id": platformPostID,
	}
	if err := s.postRepo.TransitionStatus(ctx, s.db, postID, enums.StatusPublishing, enums.StatusPosted, updates); err != nil {
		return fmt.Errorf("帖子 %d 进入 POSTED 失败: %w", postID, err)
	}

	// 发布成功后的副作用都是尽力而为，失败只记日志不回滚终态
	if err := s.recentTexts.Push(ctx, revision.Content); err != nil {
		s.logger.Warn("推入近期文案窗口失败", zap.Uint64("postID", postID), zap.Error(err))
	}
	if err := s.decisionRepo.UpdateOutcomeByPostID(ctx, postID, enums.OutcomePosted); err != nil {
		s.logger.Warn("回填决策结果失败", zap.Uint64("postID", postID), zap.Error(err))
	}

	s.logger.Info("帖子发布成功",
		zap.Uint64("postID", postID),
		zap.Uint64("revisionID", revisionID),
		zap.String("platformPostID", platformPostID),
	)
	return nil
}

// markFailed 发布失败: PUBLISHING → FAILED，错误表面整体覆盖，决策结果回填 Failed。
func (s *publishService) markFailed(ctx context.Context, postID uint64, cause error) error {
	updates := map[string]interface{}{
		"last_error_code":    errCodePublishFailed,
		"last_error_message": truncateError(cause.Error()),
	}
	if err := s.postRepo.TransitionStatus(ctx, s.db, postID, enums.StatusPublishing, enums.StatusFailed, updates); err != nil {
		s.logger.Error("记录发布失败状态时出错", zap.Uint64("postID", postID), zap.Error(err))
	}
	if err := s.decisionRepo.UpdateOutcomeByPostID(ctx, postID, enums.OutcomeFailed); err != nil {
		s.logger.Warn("回填决策结果失败", zap.Uint64("postID", postID), zap.Error(err))
	}

	s.logger.Error("帖子发布失败", zap.Uint64("postID", postID), zap.Error(cause))
	return fmt.Errorf("发布帖子 %d 失败: %w", postID, cause)
}
