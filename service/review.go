package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Xushengqwer/go-common/core"
	"go.uber.org/zap"
	"gorm.io/gorm"

	appConfig "github.com/Xushengqwer/autopost_service/config"
	"github.com/Xushengqwer/autopost_service/models/enums"
	"github.com/Xushengqwer/autopost_service/mq/producer"
	"github.com/Xushengqwer/autopost_service/repo/mysql"
)

// ReviewService 定义了审核通道的接口。
// 审核本身发生在外部（通知通道 + 人工确认），本服务只负责:
// 发出审核请求、消费审核结论事件、以及自动审批开关打开时的直通路径。
type ReviewService interface {
	// RequestReview 为一条待审修订发出审核请求。
	// - 自动审批开关打开且内容未被相似度标记时，直接走 MarkApproved 直通。
	RequestReview(ctx context.Context, postID, revisionID uint64, content string, similarityFlagged bool, maxSimilarity float64) error

	// MarkApproved 消费审核通过结论: PENDING_REVIEW/ACTION_REQUIRED → APPROVED，并投递发布任务。
	MarkApproved(ctx context.Context, postID uint64, approverID string) error

	// MarkSkipped 消费放弃结论: 任何非终态 → SKIPPED，决策结果回填 Expired。
	MarkSkipped(ctx context.Context, postID uint64, operatorID, reason string) error
}

// reviewService 是 ReviewService 接口的具体实现。
type reviewService struct {
	postRepo     mysql.PostRepository
	revisionRepo mysql.PostRevisionRepository
	decisionRepo mysql.BanditDecisionRepository
	db           *gorm.DB
	kafkaSvc     *producer.KafkaProducer
	cfg          appConfig.ReviewConfig
	logger       *core.ZapLogger
}

// NewReviewService 是 reviewService 的构造函数。
func NewReviewService(
	db *gorm.DB,
	postRepo mysql.PostRepository,
	revisionRepo mysql.PostRevisionRepository,
	decisionRepo mysql.BanditDecisionRepository,
	kafkaSvc *producer.KafkaProducer,
	cfg appConfig.ReviewConfig,
	logger *core.ZapLogger,
) ReviewService {
	return &reviewService{
		postRepo:     postRepo,
		revisionRepo: revisionRepo,
		decisionRepo: decisionRepo,
		db:           db,
		kafkaSvc:     kafkaSvc,
		cfg:          cfg,
		logger:       logger,
	}
}

func (s *reviewService) RequestReview(ctx context.Context, postID, revisionID uint64, content string, similarityFlagged bool, maxSimilarity float64) error {
	// 被相似度标记的内容永远走人工审核，自动审批只覆盖干净内容
	if s.cfg.AutoApprove && !similarityFlagged {
		s.logger.Info("自动审批开关已开，内容直通审批", zap.Uint64("postID", postID))
		return s.MarkApproved(ctx, postID, "auto-approve")
	}

	if err := s.kafkaSvc.SendReviewRequestEvent(ctx, postID, revisionID, content, s.cfg.DefaultReviewerID, similarityFlagged, maxSimilarity); err != nil {
		return fmt.Errorf("发送审核请求失败: %w", err)
	}
	return nil
}

func (s *reviewService) MarkApproved(ctx context.Context, postID uint64, approverID string) error {
	post, err := s.postRepo.GetPostByID(ctx, postID)
	if err != nil {
		return fmt.Errorf("加载帖子失败: %w", err)
	}

	now := time.Now()
	updates := map[string]interface{}{
		"approved_by": approverID,
		"approved_at": now,
	}
	if err := s.postRepo.TransitionStatus(ctx, s.db, postID, post.Status, enums.StatusApproved, updates); err != nil {
		return fmt.Errorf("帖子 %d 迁移到 APPROVED 失败: %w", postID, err)
	}

	revision, err := s.revisionRepo.GetLatestRevision(ctx, postID)
	if err != nil {
		return fmt.Errorf("加载帖子 %d 最新修订失败: %w", postID, err)
	}

	if err := s.kafkaSvc.EnqueuePublishJob(ctx, postID, revision.ID, "", post.ScheduledAt); err != nil {
		// 发布任务投递失败不回滚审批结果，运营可以从后台手动触发发布
		s.logger.Error("投递发布任务失败", zap.Uint64("postID", postID), zap.Error(err))
	}

	s.logger.Info("帖子审批通过",
		zap.Uint64("postID", postID),
		zap.String("approver", approverID),
	)
	return nil
}

func (s *reviewService) MarkSkipped(ctx context.Context, postID uint64, operatorID, reason string) error {
	post, err := s.postRepo.GetPostByID(ctx, postID)
	if err != nil {
		return fmt.Errorf("加载帖子失败: %w", err)
	}

	if err := s.postRepo.TransitionStatus(ctx, s.db, postID, post.Status, enums.StatusSkipped, nil); err != nil {
		return fmt.Errorf("帖子 %d 迁移到 SKIPPED 失败: %w", postID, err)
	}

	if err := s.decisionRepo.UpdateOutcomeByPostID(ctx, postID, enums.OutcomeExpired); err != nil {
		s.logger.Warn("回填决策结果失败", zap.Uint64("postID", postID), zap.Error(err))
	}

	s.logger.Info("帖子已跳过",
		zap.Uint64("postID", postID),
		zap.String("operator", operatorID),
		zap.String("reason", reason),
	)
	return nil
}
