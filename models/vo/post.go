package vo

import (
	"time"

	"github.com/Xushengqwer/autopost_service/models/entities"
)

// PostResponse 定义了帖子基础信息的响应数据结构
type PostResponse struct {
	ID           uint64     `json:"id"`                       // 帖子ID
	Status       int        `json:"status"`                   // 生命周期状态码
	StatusName   string     `json:"status_name"`              // 状态可读名 (DRAFT/GENERATING/...)
	CreatedBy    string     `json:"created_by"`               // 创建来源
	ModuleCode   string     `json:"module_code"`              // 题材模块
	ScenarioCode *string    `json:"scenario_code,omitempty"`  // 场景（可选维度）
	OutletCode   string     `json:"outlet_code"`              // 化解/出口方式
	ToneCode     string     `json:"tone_code"`                // 语气
	EndingCode   string     `json:"ending_code"`              // 结尾风格
	LengthCode   string     `json:"length_code"`              // 篇幅档位
	RetryCount   int        `json:"retry_count"`              // 生成重试次数
	ScheduledAt  *time.Time `json:"scheduled_at,omitempty"`   // 预期发布时间
	PostedAt     *time.Time `json:"posted_at,omitempty"`      // 实际发布时间
	LastError    *string    `json:"last_error,omitempty"`     // 最近一次错误信息
	CreatedAt    time.Time  `json:"created_at"`               // 创建时间
	UpdatedAt    time.Time  `json:"updated_at"`               // 更新时间
}

// RevisionResponse 定义了单个修订版本的响应结构。
type RevisionResponse struct {
	ID            uint64                   `json:"id"`             // 修订ID
	RevisionNo    int                      `json:"revision_no"`    // 修订号，从 1 开始
	Content       string                   `json:"content"`        // 生成正文
	Backend       string                   `json:"backend"`        // 产出后端
	FromFallback  bool                     `json:"from_fallback"`  // 是否兜底后端产出
	SimilarityMax float64                  `json:"similarity_max"` // 创建时观测的最大相似度
	Hits          []entities.SimilarityHit `json:"hits,omitempty"` // 相似度命中明细
	CreatedAt     time.Time                `json:"created_at"`     // 创建时间
}

// PostDetailResponse 帖子详情：基础信息 + 全部修订历史（修订号升序）。
type PostDetailResponse struct {
	Post      *PostResponse       `json:"post"`
	Revisions []*RevisionResponse `json:"revisions"`
}

// ListPostsResponse 分页查询帖子的响应。
type ListPostsResponse struct {
	Posts []*PostResponse `json:"posts"` // 当前页帖子列表
	Total int64           `json:"total"` // 符合条件的总记录数
}

// NewPostResponse 将帖子实体转换为响应 VO。
func NewPostResponse(post *entities.Post) *PostResponse {
	resp := &PostResponse{
		ID:          post.ID,
		Status:      int(post.Status),
		StatusName:  post.Status.String(),
		CreatedBy:   post.CreatedBy,
		ModuleCode:  post.ModuleCode,
		OutletCode:  post.OutletCode,
		ToneCode:    post.ToneCode,
		EndingCode:  post.EndingCode,
		LengthCode:  post.LengthCode,
		RetryCount:  post.RetryCount,
		ScheduledAt: post.ScheduledAt,
		PostedAt:    post.PostedAt,
		CreatedAt:   post.CreatedAt,
		UpdatedAt:   post.UpdatedAt,
	}
	if post.ScenarioCode.Valid {
		resp.ScenarioCode = &post.ScenarioCode.String
	}
	if post.LastErrorMessage.Valid {
		resp.LastError = &post.LastErrorMessage.String
	}
	return resp
}
