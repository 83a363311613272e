package vo

import (
	"time"

	"github.com/Xushengqwer/autopost_service/models/entities"
)

// DecisionResponse 定义了单条排期决策记录的响应结构。
type DecisionResponse struct {
	ID            uint64    `json:"id"`                // 决策ID
	ScheduleDate  string    `json:"schedule_date"`     // 决策所属日期 (YYYY-MM-DD)
	Slot          int       `json:"slot"`              // 当日槽位序号
	TemplateID    uint64    `json:"template_id"`       // 选中的模板(臂)ID
	ScheduledAt   time.Time `json:"scheduled_at"`      // 抽取到的发布时刻
	Score         float64   `json:"score"`             // 决策分数
	IsExploration bool      `json:"is_exploration"`    // 是否强制探索
	Reason        string    `json:"reason"`            // 决策理由
	PostID        *uint64   `json:"post_id,omitempty"` // 关联帖子ID
	Outcome       string    `json:"outcome"`           // 最终结果 (PENDING/POSTED/FAILED/EXPIRED)
	CreatedAt     time.Time `json:"created_at"`        // 决策创建时间
}

// ListDecisionsResponse 分页查询排期决策的响应。
type ListDecisionsResponse struct {
	Decisions []*DecisionResponse `json:"decisions"` // 当前页决策列表
	Total     int64               `json:"total"`     // 总记录数
}

// NewDecisionResponse 将决策实体转换为响应 VO。
func NewDecisionResponse(d *entities.BanditDecision) *DecisionResponse {
	return &DecisionResponse{
		ID:            d.ID,
		ScheduleDate:  d.ScheduleDate.Format("2006-01-02"),
		Slot:          d.Slot,
		TemplateID:    d.TemplateID,
		ScheduledAt:   d.ScheduledAt,
		Score:         d.Score,
		IsExploration: d.IsExploration,
		Reason:        d.Reason,
		PostID:        d.PostID,
		Outcome:       d.Outcome.String(),
		CreatedAt:     d.CreatedAt,
	}
}
