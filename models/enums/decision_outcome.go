package enums

// DecisionOutcome 一条排期决策的最终结果。
// 决策创建时为 Pending，等对应帖子走到终态后由发布/审核链路回填。
type DecisionOutcome int

const (
	OutcomePending DecisionOutcome = 0 // 帖子尚未走到终态
	OutcomePosted  DecisionOutcome = 1 // 帖子成功发布
	OutcomeFailed  DecisionOutcome = 2 // 帖子发布失败
	OutcomeExpired DecisionOutcome = 3 // 帖子被跳过/过期，未发布
)

// String 返回结果的可读名称。
func (o DecisionOutcome) String() string {
	switch o {
	case OutcomePending:
		return "PENDING"
	case OutcomePosted:
		return "POSTED"
	case OutcomeFailed:
		return "FAILED"
	case OutcomeExpired:
		return "EXPIRED"
	default:
		return "UNKNOWN"
	}
}
