package dto

// ListPostsRequest 按状态分页查询帖子列表的请求。
type ListPostsRequest struct {
	// 帖子状态 (0:草稿 1:生成中 2:待审核 3:需介入 4:已批准 5:发布中 6:已发布 7:失败 8:已跳过)，不传表示全部
	Status *int `form:"status" binding:"omitempty,min=0,max=8"`

	// 页码，从 1 开始
	Page int `form:"page" binding:"required,min=1"`

	// 每页数量
	PageSize int `form:"pageSize" binding:"required,min=1,max=100"`
}

// ApprovePostRequest 批准帖子的请求。
type ApprovePostRequest struct {
	PostID     uint64 `json:"postID" binding:"required"`
	ApproverID string `json:"approverID" binding:"required"`
}

// SkipPostRequest 跳过帖子的请求。
type SkipPostRequest struct {
	PostID     uint64 `json:"postID" binding:"required"`
	OperatorID string `json:"operatorID" binding:"required"`
	Reason     string `json:"reason" binding:"max=255"`
}

// RegeneratePostRequest 对已有帖子重新触发生成的请求。
// 不带覆盖参数时复用上一修订记录的生成参数。
type RegeneratePostRequest struct {
	PostID      uint64 `json:"postID" binding:"required"`
	BackendHint string `json:"backendHint" binding:"omitempty,max=32"`
}

// ListDecisionsRequest 分页查询排期决策记录的请求。
type ListDecisionsRequest struct {
	Page     int `form:"page" binding:"required,min=1"`
	PageSize int `form:"pageSize" binding:"required,min=1,max=100"`
}

// ToggleOptionRequest 启用/停用一个维度选项或模板的请求。
type ToggleOptionRequest struct {
	ID      uint64 `json:"id" binding:"required"`
	Enabled bool   `json:"enabled"`
}
