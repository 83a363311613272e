package dto

// PlanOption 计划中一个已解析的维度选项，code 入库、name 参与提示词拼装。
type PlanOption struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// Plan 一次生成请求的具体内容组合（瞬态对象）。
// - 不单独持久化，只以冗余字段形式复制到 Post 与 PostRevision 上。
// - Scenario 用指针表达"可选维度"：nil 即计划不含场景，
//   避免空字符串哨兵在提示词拼装与落库两处产生歧义。
type Plan struct {
	Module   PlanOption  `json:"module"`
	Scenario *PlanOption `json:"scenario,omitempty"`
	Outlet   PlanOption  `json:"outlet"`
	Tone     PlanOption  `json:"tone"`
	Ending   PlanOption  `json:"ending"`
	Length   PlanOption  `json:"length"`

	// 篇幅目标字符区间，来自 Length 选项
	MinChars int `json:"min_chars"`
	MaxChars int `json:"max_chars"`
}

// ScenarioCode 返回场景 code，计划不含场景时返回空串（仅用于落库的 NULL 判断）。
func (p *Plan) ScenarioCode() string {
	if p.Scenario == nil {
		return ""
	}
	return p.Scenario.Code
}
