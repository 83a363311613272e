package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/Xushengqwer/go-common/commonerrors"
	"github.com/Xushengqwer/go-common/core"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/Xushengqwer/autopost_service/models/events"
	"github.com/Xushengqwer/autopost_service/myErrors"
	"github.com/Xushengqwer/autopost_service/service"
)

// PublishJobHandler 消费发布任务: 把已批准帖子的指定修订发布到社交平台。
type PublishJobHandler struct {
	logger     *core.ZapLogger
	publishSvc service.PublishService
}

func NewPublishJobHandler(logger *core.ZapLogger, publishSvc service.PublishService) *PublishJobHandler {
	return &PublishJobHandler{
		logger:     logger,
		publishSvc: publishSvc,
	}
}

func (h *PublishJobHandler) Handle(ctx context.Context, msg kafka.Message) error {
	var event events.PublishJobEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		h.logger.Error("PublishJobHandler: 反序列化消息失败", zap.Error(err), zap.ByteString("value", msg.Value))
		return nil
	}

	// 带预约时刻的任务未到点时等待; 队列重投语义会兜底更长的延迟
	if event.ScheduledFor != nil {
		if wait := time.Until(*event.ScheduledFor); wait > 0 && wait < time.Minute {
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	h.logger.Info("PublishJobHandler: 收到发布任务",
		zap.String("event_id", event.EventID),
		zap.Uint64("post_id", event.PostID),
		zap.Uint64("revision_id", event.RevisionID))

	err := h.publishSvc.Publish(ctx, event.PostID, event.RevisionID, event.AccountID)
	if err != nil {
		if errors.Is(err, commonerrors.ErrRepoNotFound) || errors.Is(err, myErrors.ErrInvalidTransition) {
			// 帖子不存在或状态已被别的入口推进，重投没有意义
			h.logger.Warn("PublishJobHandler: 任务已失效，丢弃",
				zap.Uint64("post_id", event.PostID), zap.Error(err))
			return nil
		}
		return err
	}

	return nil
}
