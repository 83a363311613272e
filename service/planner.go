package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/Xushengqwer/go-common/core"
	"go.uber.org/zap"

	appConfig "github.com/Xushengqwer/autopost_service/config"
	"github.com/Xushengqwer/autopost_service/models/dto"
	"github.com/Xushengqwer/autopost_service/models/entities"
	"github.com/Xushengqwer/autopost_service/models/enums"
	"github.com/Xushengqwer/autopost_service/myErrors"
	"github.com/Xushengqwer/autopost_service/repo/mysql"
	redisRepo "github.com/Xushengqwer/autopost_service/repo/redis"
)

// 使用占比与目标权重的偏离带：低于 0.8 倍权重加探索奖励，高于 1.2 倍权重加惩罚。
const (
	usageLowBand  = 0.8
	usageHighBand = 1.2
	usageBonus    = 0.5
	usagePenalty  = 0.3
)

// defaultOptions 维度没有任何启用选项时的兜底默认值。
// 计划解析永远返回完整计划，不因目录缺口而失败。
var defaultOptions = map[enums.DimensionType]dto.PlanOption{
	enums.DimensionModule:   {Code: "daily", Name: "日常"},
	enums.DimensionScenario: {Code: "general", Name: "通用场景"},
	enums.DimensionOutlet:   {Code: "plain", Name: "平铺直叙"},
	enums.DimensionTone:     {Code: "calm", Name: "平静"},
	enums.DimensionEnding:   {Code: "abrupt", Name: "戛然而止"},
	enums.DimensionLength:   {Code: "medium", Name: "中等篇幅"},
}

const (
	defaultMinChars = 40
	defaultMaxChars = 120
)

// PlanService 定义了内容计划解析的接口。
// 每次调用都基于当前启用选项快照重建累计权重数组做加权抽签，
// 不跨调用缓存，因为权重和使用占比都是时变的。
type PlanService interface {
	// SelectOption 为单个维度抽取一个选项。
	// - moduleFilter 非空时按模块兼容性收缩候选集；收缩至空则回退全量候选（兼容性是建议性的）。
	// - 维度没有启用选项时返回固定默认值，不报错。
	SelectOption(ctx context.Context, dim enums.DimensionType, moduleFilter string) (*dto.PlanOption, *entities.DimensionOption, error)

	// BuildPlan 按固定顺序解析全部维度，组装一份完整计划。
	// 场景维度可选：按基线概率纳入，或其近期使用量低于窗口总量三分之一时纳入。
	BuildPlan(ctx context.Context) (*dto.Plan, error)
}

// planService 是 PlanService 接口的具体实现。
type planService struct {
	optionRepo mysql.DimensionOptionRepository  // 维度选项目录的 MySQL 操作
	postRepo   mysql.PostRepository             // 用于统计滚动窗口内的维度使用量
	usageCache redisRepo.UsageCacheRepository   // 使用量统计的 Redis 缓存
	cfg        appConfig.GenerationConfig
	rng        *rand.Rand
	logger     *core.ZapLogger
}

// NewPlanService 是 planService 的构造函数。
func NewPlanService(
	optionRepo mysql.DimensionOptionRepository,
	postRepo mysql.PostRepository,
	usageCache redisRepo.UsageCacheRepository,
	cfg appConfig.GenerationConfig,
	logger *core.ZapLogger,
) PlanService {
	return &planService{
		optionRepo: optionRepo,
		postRepo:   postRepo,
		usageCache: usageCache,
		cfg:        cfg,
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
		logger:     logger,
	}
}

// loadUsage 取指定维度在滚动窗口内的使用量统计，优先走 Redis 缓存。
func (s *planService) loadUsage(ctx context.Context, dim enums.DimensionType) (map[string]int64, error) {
	usage, err := s.usageCache.Get(ctx, dim)
	if err == nil {
		return usage, nil
	}
	if !errors.Is(err, myErrors.ErrCacheMiss) {
		// 缓存异常不致命，降级直查数据库
		s.logger.Warn("读取维度使用量缓存失败，降级直查数据库",
			zap.String("dimension", string(dim)), zap.Error(err))
	}

	since := time.Now().AddDate(0, 0, -s.cfg.UsageWindowDays)
	usage, err = s.postRepo.CountDimensionUsage(ctx, dim, since)
	if err != nil {
		return nil, fmt.Errorf("统计维度 %s 使用量失败: %w", dim, err)
	}
	if cacheErr := s.usageCache.Set(ctx, dim, usage); cacheErr != nil {
		s.logger.Warn("回写维度使用量缓存失败",
			zap.String("dimension", string(dim)), zap.Error(cacheErr))
	}
	return usage, nil
}

// adjustedScore 按使用占比偏离度调整选项的抽签分数。
// 权重为 0 的选项不参与奖惩，分数恒为 0，永远不会被抽中。
func adjustedScore(weight, usageRatio float64) float64 {
	if weight <= 0 {
		return 0
	}
	score := weight
	switch {
	case usageRatio < usageLowBand*weight:
		score += usageBonus
	case usageRatio > usageHighBand*weight:
		score -= usagePenalty
	}
	if score < 0 {
		score = 0
	}
	return score
}

func (s *planService) SelectOption(ctx context.Context, dim enums.DimensionType, moduleFilter string) (*dto.PlanOption, *entities.DimensionOption, error) {
	candidates, err := s.optionRepo.ListEnabledByType(ctx, dim)
	if err != nil {
		return nil, nil, fmt.Errorf("加载维度 %s 的启用选项失败: %w", dim, err)
	}

	// 维度目录为空：回退固定默认值，计划解析不失败
	if len(candidates) == 0 {
		fallback := defaultOptions[dim]
		s.logger.Warn("维度没有任何启用选项，使用固定默认值",
			zap.String("dimension", string(dim)),
			zap.String("defaultCode", fallback.Code),
		)
		return &fallback, nil, nil
	}

	// 模块兼容性过滤是建议性的：收缩到空集就放弃过滤，退回全量候选
	if moduleFilter != "" {
		compatible := make([]*entities.DimensionOption, 0, len(candidates))
		for _, option := range candidates {
			if option.CompatibleWith(moduleFilter) {
				compatible = append(compatible, option)
			}
		}
		if len(compatible) > 0 {
			candidates = compatible
		} else {
			s.logger.Debug("模块兼容性过滤清空了候选集，回退全量候选",
				zap.String("dimension", string(dim)),
				zap.String("module", moduleFilter),
			)
		}
	}

	usage, err := s.loadUsage(ctx, dim)
	if err != nil {
		return nil, nil, err
	}
	var totalUsage int64
	for _, count := range usage {
		totalUsage += count
	}

	// 每次调用重建累计权重数组做加权抽签
	scores := make([]float64, len(candidates))
	var totalScore float64
	for i, option := range candidates {
		var usageRatio float64
		if totalUsage > 0 {
			usageRatio = float64(usage[option.Code]) / float64(totalUsage)
		}
		scores[i] = adjustedScore(option.Weight, usageRatio)
		totalScore += scores[i]
	}

	var chosen *entities.DimensionOption
	if totalScore <= 0 {
		// 全部候选分数为 0（如目录里只剩权重 0 的选项），退化为均匀抽取
		chosen = candidates[s.rng.Intn(len(candidates))]
	} else {
		roll := s.rng.Float64() * totalScore
		var cumulative float64
		chosen = candidates[len(candidates)-1]
		for i, option := range candidates {
			cumulative += scores[i]
			if roll < cumulative {
				chosen = option
				break
			}
		}
	}

	return &dto.PlanOption{Code: chosen.Code, Name: chosen.Name}, chosen, nil
}

// scenarioUsageBelowThird 判断场景维度近期使用量是否低于窗口总量的三分之一。
func (s *planService) scenarioUsageBelowThird(ctx context.Context) bool {
	usage, err := s.loadUsage(ctx, enums.DimensionScenario)
	if err != nil {
		s.logger.Warn("统计场景使用量失败，按基线概率处理", zap.Error(err))
		return false
	}
	var scenarioTotal int64
	for _, count := range usage {
		scenarioTotal += count
	}

	// 以全部帖子量为分母：用模块维度的窗口总量近似
	moduleUsage, err := s.loadUsage(ctx, enums.DimensionModule)
	if err != nil {
		return false
	}
	var windowTotal int64
	for _, count := range moduleUsage {
		windowTotal += count
	}
	if windowTotal == 0 {
		return false
	}
	return float64(scenarioTotal) < float64(windowTotal)/3.0
}

func (s *planService) BuildPlan(ctx context.Context) (*dto.Plan, error) {
	plan := &dto.Plan{}

	// 1. 题材模块，后续出口维度的兼容性过滤依赖它
	moduleOpt, _, err := s.SelectOption(ctx, enums.DimensionModule, "")
	if err != nil {
		return nil, err
	}
	plan.Module = *moduleOpt

	// 2. 场景（可选维度）：基线概率纳入，或近期占比偏低时补偿性纳入
	if s.rng.Float64() < s.cfg.ScenarioProbability || s.scenarioUsageBelowThird(ctx) {
		scenarioOpt, _, err := s.SelectOption(ctx, enums.DimensionScenario, "")
		if err != nil {
			return nil, err
		}
		plan.Scenario = scenarioOpt
	}

	// 3. 出口/化解方式，受模块兼容性约束
	outletOpt, _, err := s.SelectOption(ctx, enums.DimensionOutlet, plan.Module.Code)
	if err != nil {
		return nil, err
	}
	plan.Outlet = *outletOpt

	// 4. 语气
	toneOpt, _, err := s.SelectOption(ctx, enums.DimensionTone, "")
	if err != nil {
		return nil, err
	}
	plan.Tone = *toneOpt

	// 5. 结尾风格
	endingOpt, _, err := s.SelectOption(ctx, enums.DimensionEnding, "")
	if err != nil {
		return nil, err
	}
	plan.Ending = *endingOpt

	// 6. 篇幅档位，携带字符区间
	lengthOpt, lengthEntity, err := s.SelectOption(ctx, enums.DimensionLength, "")
	if err != nil {
		return nil, err
	}
	plan.Length = *lengthOpt
	if lengthEntity != nil && lengthEntity.MaxChars > 0 {
		plan.MinChars = lengthEntity.MinChars
		plan.MaxChars = lengthEntity.MaxChars
	} else {
		plan.MinChars = defaultMinChars
		plan.MaxChars = defaultMaxChars
	}

	s.logger.Info("内容计划解析完成",
		zap.String("module", plan.Module.Code),
		zap.String("scenario", plan.ScenarioCode()),
		zap.String("outlet", plan.Outlet.Code),
		zap.String("tone", plan.Tone.Code),
		zap.String("ending", plan.Ending.Code),
		zap.String("length", plan.Length.Code),
	)
	return plan, nil
}
