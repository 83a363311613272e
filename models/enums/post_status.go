package enums

// PostStatus 帖子生命周期状态。
// - 帖子行自身即为持久化检查点：进程重启后，处于瞬时状态的帖子可以被继续推进，
//   而不依赖任何进程内的内存状态。
// - 0 起始的整数枚举，便于数据库存储与查询。
type PostStatus int

const (
	// StatusDraft 草稿：排期周期或人工操作刚创建帖子，尚未开始生成。入口状态。
	StatusDraft PostStatus = 0

	// StatusGenerating 生成中：编排器正在执行生成尝试循环。瞬时状态，可恢复。
	StatusGenerating PostStatus = 1

	// StatusPendingReview 待审核：草稿通过结构校验且相似度在阈值内，等待人工/自动审核。
	StatusPendingReview PostStatus = 2

	// StatusActionRequired 需人工介入：相似度超阈值被标记，或校验修正重试次数耗尽。
	StatusActionRequired PostStatus = 3

	// StatusApproved 已批准：审核通道确认可以发布。
	StatusApproved PostStatus = 4

	// StatusPublishing 发布中：发布任务正在调用社交平台接口。瞬时状态。
	StatusPublishing PostStatus = 5

	// StatusPosted 已发布：终态（成功）。posted_at 仅在此状态下写入。
	StatusPosted PostStatus = 6

	// StatusFailed 发布失败：终态（失败），错误码/错误信息记录在帖子上。
	StatusFailed PostStatus = 7

	// StatusSkipped 已跳过：操作员或过期策略在发布前放弃该帖子。终态。
	StatusSkipped PostStatus = 8
)

// transitions 合法状态迁移表。
// 任何非终态都允许迁移到 StatusSkipped（操作员/过期兜底），因此单独在 CanTransitionTo 中处理。
var transitions = map[PostStatus][]PostStatus{
	StatusDraft:          {StatusGenerating},
	StatusGenerating:     {StatusGenerating, StatusPendingReview, StatusActionRequired},
	StatusPendingReview:  {StatusApproved, StatusGenerating},
	StatusActionRequired: {StatusApproved, StatusGenerating},
	StatusApproved:       {StatusPublishing},
	StatusPublishing:     {StatusPosted, StatusFailed},
}

// CanTransitionTo 判断从当前状态迁移到 target 是否合法。
// - PENDING_REVIEW / ACTION_REQUIRED 不允许跳过 APPROVED 直达 POSTED，
//   自动批准也是先显式迁移到 APPROVED 再走发布链路。
func (s PostStatus) CanTransitionTo(target PostStatus) bool {
	if target == StatusSkipped {
		return !s.IsTerminal()
	}
	for _, next := range transitions[s] {
		if next == target {
			return true
		}
	}
	return false
}

// IsTerminal 判断当前状态是否为终态。
func (s PostStatus) IsTerminal() bool {
	switch s {
	case StatusPosted, StatusFailed, StatusSkipped:
		return true
	}
	return false
}

// String 返回状态的可读名称，用于日志与接口返回。
func (s PostStatus) String() string {
	switch s {
	case StatusDraft:
		return "DRAFT"
	case StatusGenerating:
		return "GENERATING"
	case StatusPendingReview:
		return "PENDING_REVIEW"
	case StatusActionRequired:
		return "ACTION_REQUIRED"
	case StatusApproved:
		return "APPROVED"
	case StatusPublishing:
		return "PUBLISHING"
	case StatusPosted:
		return "POSTED"
	case StatusFailed:
		return "FAILED"
	case StatusSkipped:
		return "SKIPPED"
	default:
		return "UNKNOWN"
	}
}
