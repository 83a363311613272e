package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/Xushengqwer/go-common/core"
	"go.uber.org/zap"
	"gorm.io/gorm"

	appConfig "github.com/Xushengqwer/autopost_service/config"
	"github.com/Xushengqwer/autopost_service/models/dto"
	"github.com/Xushengqwer/autopost_service/models/entities"
	"github.com/Xushengqwer/autopost_service/models/enums"
	"github.com/Xushengqwer/autopost_service/myErrors"
	"github.com/Xushengqwer/autopost_service/mq/producer"
	"github.com/Xushengqwer/autopost_service/repo/mysql"
)

// 强制探索分数的保留区间 [999, 1000)。
// 区间下界必然压过任何正常 UCB 分数，区间内再随机化打破并列，
// 避免多个数据不足的臂按目录顺序固定取第一个。
const (
	forcedExplorationBase  = 999.0
	forcedExplorationRange = 1.0
)

// ArmDecision 一次臂选择的结论。
type ArmDecision struct {
	Template      *entities.ContentTemplate
	Score         float64
	IsExploration bool
	Reason        string
}

// BanditScheduler 定义了 UCB 排期调度的接口。
// 每个调度周期至多产生 postsPerDay 条决策，幂等性由
// {schedule_date, slot} 唯一约束在持久层兜底，不做进程内锁。
type BanditScheduler interface {
	// SelectArm 从候选臂池中按 UCB 规则选出一个臂。
	// - weekday 为内部星期编号 (1=周一..7=周日)，不在臂的可投星期内的臂不参选。
	// - 没有任何可选臂时返回 nil，这是合法的"今天不投"结论，不是错误。
	SelectArm(pool []*entities.ContentTemplate, totalTrials int64, weekday int) *ArmDecision

	// ScheduleDaily 执行一次完整的每日排期周期。
	// - 为当天每个空余槽位选臂、抽取发布时刻、创建决策记录与草稿帖子、投递生成任务。
	// - 槽位冲突（决策已存在）时跳过该槽位继续。
	// - 没有任何可投放的臂时返回 myErrors.ErrNoEligibleArm，剩余槽位保持空置。
	ScheduleDaily(ctx context.Context) error
}

// banditScheduler 是 BanditScheduler 接口的具体实现。
type banditScheduler struct {
	templateRepo mysql.ContentTemplateRepository // 臂/模板的 MySQL 操作
	decisionRepo mysql.BanditDecisionRepository  // 决策审计记录的 MySQL 操作
	postRepo     mysql.PostRepository            // 草稿帖子的 MySQL 操作
	planSvc      PlanService                     // 计划解析，固定文案臂不走它
	db           *gorm.DB                        // 事务管理
	kafkaSvc     *producer.KafkaProducer         // 生成任务投递
	cfg          appConfig.SchedulerConfig
	rng          *rand.Rand
	logger       *core.ZapLogger
}

// NewBanditScheduler 是 banditScheduler 的构造函数。
func NewBanditScheduler(
	db *gorm.DB,
	templateRepo mysql.ContentTemplateRepository,
	decisionRepo mysql.BanditDecisionRepository,
	postRepo mysql.PostRepository,
	planSvc PlanService,
	kafkaSvc *producer.KafkaProducer,
	cfg appConfig.SchedulerConfig,
	logger *core.ZapLogger,
) BanditScheduler {
	return &banditScheduler{
		templateRepo: templateRepo,
		decisionRepo: decisionRepo,
		postRepo:     postRepo,
		planSvc:      planSvc,
		db:           db,
		kafkaSvc:     kafkaSvc,
		cfg:          cfg,
		rng:          rand.New(rand.NewSource(time.Now().UnixNano())),
		logger:       logger,
	}
}

// internalWeekday 把 time.Weekday (0=周日..6=周六) 换算成内部编号 (1=周一..7=周日)。
// 不依赖宿主平台的星期起点约定。
func internalWeekday(t time.Time) int {
	return int(t.Weekday()+6)%7 + 1
}

// clamp01 把平均互动率钳制到 [0,1]。
func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func (s *banditScheduler) SelectArm(pool []*entities.ContentTemplate, totalTrials int64, weekday int) *ArmDecision {
	var best *ArmDecision
	for _, arm := range pool {
		if !arm.Enabled || !arm.ActiveOn(weekday) {
			continue
		}

		var decision ArmDecision
		decision.Template = arm
		switch {
		case arm.Trials < s.cfg.MinTrialsPerArm:
			// 数据不足的臂进入强制探索保留区间，必然压过任何正常分数
			decision.Score = forcedExplorationBase + s.rng.Float64()*forcedExplorationRange
			decision.IsExploration = true
			decision.Reason = fmt.Sprintf("强制探索: 试验数 %d 低于下限 %d", arm.Trials, s.cfg.MinTrialsPerArm)
		case totalTrials <= 0:
			// 冷启动: 总试验数为 0 时对数未定义，所有臂给小随机分
			decision.Score = s.rng.Float64() * 0.01
			decision.IsExploration = true
			decision.Reason = "冷启动: 全池无试验记录，随机选择"
		default:
			reward := clamp01(arm.AvgEngagementRate())
			bonus := s.cfg.ExplorationFactor * math.Sqrt(math.Log(float64(totalTrials))/float64(arm.Trials))
			decision.Score = reward + bonus
			decision.Reason = fmt.Sprintf("UCB: 平均互动率 %.4f + 探索项 %.4f (试验 %d/%d)", reward, bonus, arm.Trials, totalTrials)
		}

		if best == nil || decision.Score > best.Score {
			d := decision
			best = &d
		}
	}
	return best
}

// location 固定 UTC 偏移的运营地时区，发布窗口不随夏令时漂移。
func (s *banditScheduler) location() *time.Location {
	return time.FixedZone("operating", s.cfg.UTCOffsetHours*3600)
}

// parseWindowClock 解析 "HH:MM" 格式的民用时刻。
func parseWindowClock(value string) (hour, minute int, err error) {
	if _, err = fmt.Sscanf(value, "%d:%d", &hour, &minute); err != nil {
		return 0, 0, fmt.Errorf("时间窗口格式非法 %q: %w", value, err)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("时间窗口越界 %q", value)
	}
	return hour, minute, nil
}

// drawScheduledAt 在当日发布窗口 [windowStart, windowEnd) 内均匀抽取发布时刻。
func (s *banditScheduler) drawScheduledAt(day time.Time) (time.Time, error) {
	startHour, startMin, err := parseWindowClock(s.cfg.WindowStart)
	if err != nil {
		return time.Time{}, err
	}
	endHour, endMin, err := parseWindowClock(s.cfg.WindowEnd)
	if err != nil {
		return time.Time{}, err
	}

	loc := s.location()
	start := time.Date(day.Year(), day.Month(), day.Day(), startHour, startMin, 0, 0, loc)
	end := time.Date(day.Year(), day.Month(), day.Day(), endHour, endMin, 0, 0, loc)
	if !end.After(start) {
		return time.Time{}, fmt.Errorf("时间窗口为空: [%s, %s)", s.cfg.WindowStart, s.cfg.WindowEnd)
	}

	offset := time.Duration(s.rng.Int63n(int64(end.Sub(start))))
	return start.Add(offset), nil
}

// activeToday 判断当天是否在全局可投放星期内。
func (s *banditScheduler) activeToday(weekday int) bool {
	if len(s.cfg.ActiveWeekdays) == 0 {
		return true
	}
	for _, d := range s.cfg.ActiveWeekdays {
		if d == weekday {
			return true
		}
	}
	return false
}

func (s *banditScheduler) ScheduleDaily(ctx context.Context) error {
	now := time.Now().In(s.location())
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.location())
	weekday := internalWeekday(now)

	if !s.activeToday(weekday) {
		s.logger.Info("当天不在全局可投放星期内，跳过本次排期", zap.Int("weekday", weekday))
		return nil
	}

	// 已占用的槽位数，排期周期重复触发时从这里续排
	occupied, err := s.decisionRepo.CountForDate(ctx, today)
	if err != nil {
		return fmt.Errorf("统计当日已有决策失败: %w", err)
	}
	if int(occupied) >= s.cfg.PostsPerDay {
		s.logger.Info("当日槽位已排满", zap.Int64("occupied", occupied))
		return nil
	}

	pool, err := s.templateRepo.ListEnabled(ctx)
	if err != nil {
		return fmt.Errorf("加载启用模板失败: %w", err)
	}
	totalTrials, err := s.templateRepo.TotalTrials(ctx)
	if err != nil {
		return fmt.Errorf("统计总试验次数失败: %w", err)
	}

	for slot := int(occupied); slot < s.cfg.PostsPerDay; slot++ {
		decision := s.SelectArm(pool, totalTrials, weekday)
		if decision == nil {
			// 无可选臂是合法的"今天不投"结论，用哨兵错误让调用方区分于故障
			s.logger.Info("没有可投放的臂，本周期剩余槽位跳过", zap.Int("slot", slot))
			return myErrors.ErrNoEligibleArm
		}
		if err := s.scheduleSlot(ctx, today, slot, decision); err != nil {
			if errors.Is(err, myErrors.ErrDecisionExists) {
				s.logger.Warn("槽位决策已存在，跳过", zap.Int("slot", slot))
				continue
			}
			return err
		}
	}
	return nil
}

// scheduleSlot 落地一个槽位的决策: 决策记录 + 草稿帖子 + 生成任务。
func (s *banditScheduler) scheduleSlot(ctx context.Context, day time.Time, slot int, decision *ArmDecision) error {
	scheduledAt, err := s.drawScheduledAt(day)
	if err != nil {
		return err
	}

	// 固定文案臂不需要计划，计划解析留给普通臂
	var plan *dto.Plan
	if decision.Template.FixedText == "" {
		plan, err = s.planSvc.BuildPlan(ctx)
		if err != nil {
			return fmt.Errorf("解析内容计划失败: %w", err)
		}
	}

	var postID uint64
	record := &entities.BanditDecision{
		ScheduleDate:  day,
		Slot:          slot,
		TemplateID:    decision.Template.ID,
		ScheduledAt:   scheduledAt,
		Score:         decision.Score,
		IsExploration: decision.IsExploration,
		Reason:        decision.Reason,
		Outcome:       enums.OutcomePending,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.decisionRepo.Create(ctx, tx, record); err != nil {
			return err
		}

		post := s.buildDraftPost(decision, plan, scheduledAt)
		if err := s.postRepo.CreatePost(ctx, tx, post); err != nil {
			return fmt.Errorf("创建草稿帖子失败: %w", err)
		}
		postID = post.ID

		// 臂统计不在这里回写: 试验数随真实互动数据由分析同步消费者累加
		return s.decisionRepo.AttachPost(ctx, tx, record.ID, post.ID)
	})
	if err != nil {
		return err
	}

	// 任务投递在事务提交后执行；投递失败由僵死恢复任务兜底重新入队
	if err := s.kafkaSvc.EnqueueGenerateJob(ctx, postID, decision.Template.ID, plan, ""); err != nil {
		s.logger.Error("投递生成任务失败，等待恢复任务重试",
			zap.Uint64("postID", postID), zap.Error(err))
	}

	s.logger.Info("排期槽位落地完成",
		zap.Int("slot", slot),
		zap.Uint64("templateID", decision.Template.ID),
		zap.Uint64("postID", postID),
		zap.Float64("score", decision.Score),
		zap.Bool("exploration", decision.IsExploration),
		zap.Time("scheduledAt", scheduledAt),
	)
	return nil
}

// buildDraftPost 按决策与计划组装草稿帖子实体。
func (s *banditScheduler) buildDraftPost(decision *ArmDecision, plan *dto.Plan, scheduledAt time.Time) *entities.Post {
	post := &entities.Post{
		Status:      enums.StatusDraft,
		CreatedBy:   fmt.Sprintf("scheduler:%d", decision.Template.ID),
		ScheduledAt: &scheduledAt,
		AIGenerated: decision.Template.FixedText == "",
	}
	if plan != nil {
		post.ModuleCode = plan.Module.Code
		post.OutletCode = plan.Outlet.Code
		post.ToneCode = plan.Tone.Code
		post.EndingCode = plan.Ending.Code
		post.LengthCode = plan.Length.Code
		post.MinChars = plan.MinChars
		post.MaxChars = plan.MaxChars
		if plan.Scenario != nil {
			post.ScenarioCode.String = plan.Scenario.Code
			post.ScenarioCode.Valid = true
		}
	} else {
		// 固定文案臂: 维度冗余列填模板标识，使用量统计会把它们单独归为一类
		post.ModuleCode = "fixed"
		post.OutletCode = "fixed"
		post.ToneCode = "fixed"
		post.EndingCode = "fixed"
		post.LengthCode = "fixed"
	}
	return post
}
