package dto

// GenerateOptions 一次生成调用的可选参数。
// - 均为可选：缺省时编排器优先复用该帖子上一修订记录的生成参数（"按同样的意图重试"），
//   没有历史修订时再走计划选择器重新构建计划。
type GenerateOptions struct {
	// 调度臂 ID，非 0 时编排器读取模板的固定文案与提示词倾向
	TemplateID uint64 `json:"template_id,omitempty"`

	// 指定计划，覆盖计划选择器
	PlanOverride *Plan `json:"plan_override,omitempty"`

	// 指定后端标识，覆盖配置中的主后端
	BackendHint string `json:"backend_hint,omitempty"`

	// 覆盖 token 预算，0 表示使用配置默认值
	MaxTokens int `json:"max_tokens,omitempty"`
}

// GenerateResult 生成调用的返回值。
type GenerateResult struct {
	Text           string  `json:"text"`
	BackendUsed    string  `json:"backend_used"`
	FromFallback   bool    `json:"from_fallback"`
	MaxSimilarity  float64 `json:"max_similarity"`
	SimilarityOver bool    `json:"similarity_over"` // 超出阈值但被兜底接受
	RevisionID     uint64  `json:"revision_id"`
	RevisionNo     int     `json:"revision_no"`
}
