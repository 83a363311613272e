package consumer

import (
	"context"
	"encoding/json"

	"github.com/Xushengqwer/go-common/core"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/Xushengqwer/autopost_service/models/events"
	"github.com/Xushengqwer/autopost_service/repo/mysql"
)

// EngagementStatsHandler 消费互动数据同步事件。
// 臂统计的唯一写入方: 试验/曝光/互动累计量以原子自增更新，调度器只读。
type EngagementStatsHandler struct {
	logger       *core.ZapLogger
	templateRepo mysql.ContentTemplateRepository
}

func NewEngagementStatsHandler(logger *core.ZapLogger, templateRepo mysql.ContentTemplateRepository) *EngagementStatsHandler {
	return &EngagementStatsHandler{
		logger:       logger,
		templateRepo: templateRepo,
	}
}

func (h *EngagementStatsHandler) Handle(ctx context.Context, msg kafka.Message) error {
	var event events.EngagementStatsEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		h.logger.Error("EngagementStatsHandler: 反序列化消息失败", zap.Error(err), zap.ByteString("value", msg.Value))
		return nil
	}

	if event.TemplateID == 0 {
		// 人工帖子没有关联臂，只做日志留痕
		h.logger.Debug("EngagementStatsHandler: 事件不关联任何模板，跳过",
			zap.Uint64("post_id", event.PostID))
		return nil
	}

	if err := h.templateRepo.AddEngagement(ctx, event.TemplateID, event.Trials, event.Views, event.Engaged); err != nil {
		h.logger.Error("EngagementStatsHandler: 累加互动数据失败",
			zap.Uint64("template_id", event.TemplateID), zap.Error(err))
		return err
	}

	h.logger.Info("EngagementStatsHandler: 互动数据已同步",
		zap.Uint64("template_id", event.TemplateID),
		zap.Int64("trials", event.Trials),
		zap.Int64("views", event.Views),
		zap.Int64("engaged", event.Engaged))
	return nil
}
