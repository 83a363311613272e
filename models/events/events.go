package events

import (
	"time"

	"github.com/Xushengqwer/autopost_service/models/dto"
)

// 本服务在 Kafka 上收发的事件/任务载荷。
// 任务型消息 (GenerateJob / PublishJob) 把 Kafka 当作异步队列底座使用：
// 投递重试、可见性超时等由队列语义兜底，与编排器内部更细粒度的尝试预算相互独立。

// GenerateJobEvent 生成任务：要求 worker 对指定帖子执行一轮生成尝试循环。
type GenerateJobEvent struct {
	EventID   string    `json:"event_id"`
	Timestamp time.Time `json:"timestamp"`

	PostID uint64 `json:"post_id"`

	// 调度产生的任务携带模板 ID，编排器据此读取固定文案与提示词倾向；
	// 手工触发的再生成任务可以为 0
	TemplateID uint64 `json:"template_id,omitempty"`

	// 可选覆盖：指定计划 / 指定后端，缺省由编排器自行解析
	PlanOverride *dto.Plan `json:"plan_override,omitempty"`
	BackendHint  string    `json:"backend_hint,omitempty"`
}

// PublishJobEvent 发布任务：将指定修订发布到社交平台。
type PublishJobEvent struct {
	EventID   string    `json:"event_id"`
	Timestamp time.Time `json:"timestamp"`

	PostID     uint64     `json:"post_id"`
	RevisionID uint64     `json:"revision_id"`
	AccountID  string     `json:"account_id,omitempty"`
	ScheduledFor *time.Time `json:"scheduled_for,omitempty"`
}

// ReviewRequestEvent 对外发出的审核请求，由通知通道服务消费后推送给审核人。
type ReviewRequestEvent struct {
	EventID   string    `json:"event_id"`
	Timestamp time.Time `json:"timestamp"`

	PostID     uint64 `json:"post_id"`
	RevisionID uint64 `json:"revision_id"`
	Content    string `json:"content"`
	ReviewerID string `json:"reviewer_id,omitempty"`

	// 相似度超阈值被兜底接受时为 true，提示审核人重点比对近期内容
	SimilarityFlagged bool    `json:"similarity_flagged"`
	MaxSimilarity     float64 `json:"max_similarity"`
}

// ReviewApprovedEvent 审核通过事件（入站），由审核通道服务产生。
type ReviewApprovedEvent struct {
	EventID   string    `json:"event_id"`
	Timestamp time.Time `json:"timestamp"`

	PostID     uint64 `json:"post_id"`
	ApproverID string `json:"approver_id"`
}

// ReviewSkippedEvent 审核放弃事件（入站）：操作员决定跳过该帖子。
type ReviewSkippedEvent struct {
	EventID   string    `json:"event_id"`
	Timestamp time.Time `json:"timestamp"`

	PostID     uint64 `json:"post_id"`
	OperatorID string `json:"operator_id"`
	Reason     string `json:"reason,omitempty"`
}

// EngagementStatsEvent 互动数据同步事件（入站），由分析服务在拿到真实互动数据后产生。
// 臂统计只通过该事件以原子自增更新，调度器自身从不回写。
type EngagementStatsEvent struct {
	EventID   string    `json:"event_id"`
	Timestamp time.Time `json:"timestamp"`

	PostID     uint64 `json:"post_id"`
	TemplateID uint64 `json:"template_id"`

	// Trials 试验数增量：一次投放的首份同步带 1，后续增量同步带 0
	Trials  int64 `json:"trials"`
	Views   int64 `json:"views"`
	Engaged int64 `json:"engaged"`
}
