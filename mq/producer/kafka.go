package producer

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Xushengqwer/go-common/core"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/Xushengqwer/autopost_service/config"
	"github.com/Xushengqwer/autopost_service/models/dto"
	"github.com/Xushengqwer/autopost_service/models/events"
)

// KafkaProducer Kafka 消息生产者。
// 任务主题 (generate/publish) 把 Kafka 当异步队列底座用，事件主题做审核通知出站。
type KafkaProducer struct {
	writer *kafka.Writer
	logger *core.ZapLogger
	topics config.Topics
}

// NewKafkaProducer 创建一个新的 Kafka 生产者实例
func NewKafkaProducer(config config.KafkaConfig, logger *core.ZapLogger) *KafkaProducer {
	writer := &kafka.Writer{
		Addr:     kafka.TCP(config.Brokers...),
		Balancer: &kafka.LeastBytes{},
	}
	return &KafkaProducer{
		writer: writer,
		logger: logger,
		topics: config.Topics,
	}
}

// SendEvent 发送事件到指定 Kafka 主题
func (p *KafkaProducer) SendEvent(ctx context.Context, topic string, event interface{}) error {
	eventBytes, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("序列化 Kafka 事件失败", zap.Error(err), zap.String("topic", topic))
		return err
	}

	p.logger.Debug("发送 Kafka 消息",
		zap.String("topic", topic),
		zap.ByteString("payload", eventBytes))

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Value: eventBytes,
	})

	if err != nil {
		p.logger.Error("写入 Kafka 消息失败", zap.Error(err), zap.String("topic", topic))
	} else {
		p.logger.Info("Kafka 消息发送成功", zap.String("topic", topic))
	}
	return err
}

// EnqueueGenerateJob 投递一条生成任务。
// - 意图: 要求 worker 对指定帖子执行一轮生成尝试循环
// - 输入: postID 帖子 ID, templateID 调度臂 ID (手工触发时为 0),
//   planOverride 可选计划覆盖, backendHint 可选后端指定
func (p *KafkaProducer) EnqueueGenerateJob(ctx context.Context, postID, templateID uint64, planOverride *dto.Plan, backendHint string) error {
	event := events.GenerateJobEvent{
		EventID:      uuid.New().String(),
		Timestamp:    time.Now(),
		PostID:       postID,
		TemplateID:   templateID,
		PlanOverride: planOverride,
		BackendHint:  backendHint,
	}
	return p.SendEvent(ctx, p.topics.GenerateJobs, event)
}

// EnqueuePublishJob 投递一条发布任务。
// - 意图: 将已批准帖子的指定修订发布到社交平台
func (p *KafkaProducer) EnqueuePublishJob(ctx context.Context, postID, revisionID uint64, accountID string, scheduledFor *time.Time) error {
	event := events.PublishJobEvent{
		EventID:      uuid.New().String(),
		Timestamp:    time.Now(),
		PostID:       postID,
		RevisionID:   revisionID,
		AccountID:    accountID,
		ScheduledFor: scheduledFor,
	}
	return p.SendEvent(ctx, p.topics.PublishJobs, event)
}

// SendReviewRequestEvent 发送审核请求事件。
// - 意图: 通知通道服务推送一条待审内容给审核人
func (p *KafkaProducer) SendReviewRequestEvent(ctx context.Context, postID, revisionID uint64, content, reviewerID string, similarityFlagged bool, maxSimilarity float64) error {
	event := events.ReviewRequestEvent{
		EventID:           uuid.New().String(),
		Timestamp:         time.Now(),
		PostID:            postID,
		RevisionID:        revisionID,
		Content:           content,
		ReviewerID:        reviewerID,
		SimilarityFlagged: similarityFlagged,
		MaxSimilarity:     maxSimilarity,
	}
	return p.SendEvent(ctx, p.topics.ReviewRequest, event)
}

// Close 关闭底层 writer，停机时调用。
func (p *KafkaProducer) Close() error {
	if err := p.writer.Close(); err != nil {
		p.logger.Error("关闭 Kafka writer 失败", zap.Error(err))
		return err
	}
	return nil
}
