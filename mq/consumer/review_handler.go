package consumer

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/Xushengqwer/go-common/commonerrors"
	"github.com/Xushengqwer/go-common/core"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/Xushengqwer/autopost_service/models/events"
	"github.com/Xushengqwer/autopost_service/myErrors"
	"github.com/Xushengqwer/autopost_service/service"
)

// ReviewApprovedHandler 消费审核通过事件: PENDING_REVIEW/ACTION_REQUIRED → APPROVED。
type ReviewApprovedHandler struct {
	logger    *core.ZapLogger
	reviewSvc service.ReviewService
}

func NewReviewApprovedHandler(logger *core.ZapLogger, reviewSvc service.ReviewService) *ReviewApprovedHandler {
	return &ReviewApprovedHandler{
		logger:    logger,
		reviewSvc: reviewSvc,
	}
}

func (h *ReviewApprovedHandler) Handle(ctx context.Context, msg kafka.Message) error {
	var event events.ReviewApprovedEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		h.logger.Error("ReviewApprovedHandler: 反序列化消息失败", zap.Error(err), zap.ByteString("value", msg.Value))
		return nil
	}

	h.logger.Info("ReviewApprovedHandler: 收到审核通过事件",
		zap.String("event_id", event.EventID),
		zap.Uint64("post_id", event.PostID))

	err := h.reviewSvc.MarkApproved(ctx, event.PostID, event.ApproverID)
	if err != nil {
		if errors.Is(err, commonerrors.ErrRepoNotFound) || errors.Is(err, myErrors.ErrInvalidTransition) {
			// 事件重放或状态已被后台入口推进，按幂等丢弃
			h.logger.Warn("ReviewApprovedHandler: 事件已失效，丢弃",
				zap.Uint64("post_id", event.PostID), zap.Error(err))
			return nil
		}
		return err
	}
	return nil
}

// ReviewSkippedHandler 消费放弃事件: 任何非终态 → SKIPPED。
type ReviewSkippedHandler struct {
	logger    *core.ZapLogger
	reviewSvc service.ReviewService
}

func NewReviewSkippedHandler(logger *core.ZapLogger, reviewSvc service.ReviewService) *ReviewSkippedHandler {
	return &ReviewSkippedHandler{
		logger:    logger,
		reviewSvc: reviewSvc,
	}
}

func (h *ReviewSkippedHandler) Handle(ctx context.Context, msg kafka.Message) error {
	var event events.ReviewSkippedEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		h.logger.Error("ReviewSkippedHandler: 反序列化消息失败", zap.Error(err), zap.ByteString("value", msg.Value))
		return nil
	}

	h.logger.Info("ReviewSkippedHandler: 收到放弃事件",
		zap.String("event_id", event.EventID),
		zap.Uint64("post_id", event.PostID))

	err := h.reviewSvc.MarkSkipped(ctx, event.PostID, event.OperatorID, event.Reason)
	if err != nil {
		if errors.Is(err, commonerrors.ErrRepoNotFound) || errors.Is(err, myErrors.ErrInvalidTransition) {
			h.logger.Warn("ReviewSkippedHandler: 事件已失效，丢弃",
				zap.Uint64("post_id", event.PostID), zap.Error(err))
			return nil
		}
		return err
	}
	return nil
}
