package myErrors

import "errors"

// ErrCacheMiss 表示在缓存层未找到对应的键值
var ErrCacheMiss = errors.New("cache: key not found (miss)")

// ErrNoEligibleArm 表示调度器没有任何可选的启用臂。
// 这不是故障：调用方据此跳过当天的排期周期（"今天什么都不做"是合法结果）。
var ErrNoEligibleArm = errors.New("scheduler: no eligible arm")

// ErrAllBackendsExhausted 表示主后端的全部尝试与兜底后端的一次尝试均告失败。
// 对单次生成调用是致命的，帖子会带着最近一次错误进入 ACTION_REQUIRED / FAILED。
var ErrAllBackendsExhausted = errors.New("generation: all backends exhausted")

// ErrInvalidTransition 表示一次不符合生命周期迁移表的状态变更请求。
var ErrInvalidTransition = errors.New("post: invalid status transition")

// ErrDecisionExists 表示 {schedule_date, slot} 已有决策记录，
// 由唯一约束兜底幂等，重复触发的排期周期视为无事发生。
var ErrDecisionExists = errors.New("scheduler: decision already exists for slot")
