package consumer

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/Xushengqwer/go-common/commonerrors"
	"github.com/Xushengqwer/go-common/core"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/Xushengqwer/autopost_service/models/dto"
	"github.com/Xushengqwer/autopost_service/models/events"
	"github.com/Xushengqwer/autopost_service/myErrors"
	"github.com/Xushengqwer/autopost_service/service"
)

// MessageHandler 定义了处理 Kafka 消息的接口
type MessageHandler interface {
	Handle(ctx context.Context, msg kafka.Message) error
}

// GenerateJobHandler 消费生成任务: 对指定帖子执行一轮生成尝试循环。
// 编排器内部已有尝试预算和终态落地，这里只区分"值得队列重投"与"终结性失败"。
type GenerateJobHandler struct {
	logger        *core.ZapLogger
	generationSvc service.GenerationService
}

func NewGenerateJobHandler(logger *core.ZapLogger, generationSvc service.GenerationService) *GenerateJobHandler {
	return &GenerateJobHandler{
		logger:        logger,
		generationSvc: generationSvc,
	}
}

func (h *GenerateJobHandler) Handle(ctx context.Context, msg kafka.Message) error {
	var event events.GenerateJobEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		h.logger.Error("GenerateJobHandler: 反序列化消息失败", zap.Error(err), zap.ByteString("value", msg.Value))
		return nil // 无法解析的消息不重试
	}

	h.logger.Info("GenerateJobHandler: 收到生成任务",
		zap.String("event_id", event.EventID),
		zap.Uint64("post_id", event.PostID))

	opts := &dto.GenerateOptions{
		TemplateID:   event.TemplateID,
		PlanOverride: event.PlanOverride,
		BackendHint:  event.BackendHint,
	}

	_, err := h.generationSvc.Generate(ctx, event.PostID, opts)
	if err != nil {
		if errors.Is(err, commonerrors.ErrRepoNotFound) {
			h.logger.Warn("GenerateJobHandler: 帖子不存在，丢弃任务", zap.Uint64("post_id", event.PostID))
			return nil
		}
		if errors.Is(err, myErrors.ErrAllBackendsExhausted) || errors.Is(err, myErrors.ErrInvalidTransition) {
			// 编排器已把帖子落到对应状态，队列重投不会改变结果
			h.logger.Warn("GenerateJobHandler: 生成终结性失败，不重投",
				zap.Uint64("post_id", event.PostID), zap.Error(err))
			return nil
		}
		return err
	}

	h.logger.Info("GenerateJobHandler: 生成任务处理完成", zap.Uint64("post_id", event.PostID))
	return nil
}
