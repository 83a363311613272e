package service

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appConfig "github.com/Xushengqwer/autopost_service/config"
	"github.com/Xushengqwer/autopost_service/models/entities"
	"github.com/Xushengqwer/autopost_service/models/enums"
)

func option(dim enums.DimensionType, code, name string, weight float64) *entities.DimensionOption {
	return &entities.DimensionOption{
		DimensionType: dim,
		Code:          code,
		Name:          name,
		Weight:        weight,
		Enabled:       true,
	}
}

func newTestPlanner(t *testing.T, options map[enums.DimensionType][]*entities.DimensionOption, usage map[enums.DimensionType]map[string]int64, cfg appConfig.GenerationConfig) *planService {
	t.Helper()
	return &planService{
		optionRepo: &fakeOptionRepo{byType: options},
		usageCache: &fakeUsageCache{usage: usage},
		cfg:        cfg,
		rng:        rand.New(rand.NewSource(7)),
		logger:     testLogger(t),
	}
}

func TestAdjustedScore(t *testing.T) {
	// 权重 0 的选项分数恒为 0
	assert.Equal(t, 0.0, adjustedScore(0, 0))
	assert.Equal(t, 0.0, adjustedScore(-1, 0))

	// 使用占比低于 0.8 倍权重: 探索奖励
	assert.InDelta(t, 0.5+usageBonus, adjustedScore(0.5, 0.1), 1e-9)

	// 使用占比高于 1.2 倍权重: 惩罚
	assert.InDelta(t, 0.5-usagePenalty, adjustedScore(0.5, 0.9), 1e-9)

	// 带内: 不奖不罚
	assert.InDelta(t, 0.5, adjustedScore(0.5, 0.5), 1e-9)

	// 惩罚后不为负
	assert.Equal(t, 0.0, adjustedScore(0.2, 0.9))
}

func TestSelectOption_WeightOneAlwaysWins(t *testing.T) {
	planner := newTestPlanner(t, map[enums.DimensionType][]*entities.DimensionOption{
		enums.DimensionTone: {
			option(enums.DimensionTone, "calm", "平静", 1.0),
			option(enums.DimensionTone, "playful", "俏皮", 0.0),
			option(enums.DimensionTone, "wry", "自嘲", 0.0),
		},
	}, nil, appConfig.GenerationConfig{})

	// 权重 0 的兄弟选项分数为 0，权重 1.0 的选项每次必中
	for i := 0; i < 100; i++ {
		chosen, _, err := planner.SelectOption(context.Background(), enums.DimensionTone, "")
		require.NoError(t, err)
		assert.Equal(t, "calm", chosen.Code)
	}
}

func TestSelectOption_EmptyDimensionFallsBackToDefault(t *testing.T) {
	planner := newTestPlanner(t, map[enums.DimensionType][]*entities.DimensionOption{}, nil, appConfig.GenerationConfig{})

	chosen, entity, err := planner.SelectOption(context.Background(), enums.DimensionModule, "")
	require.NoError(t, err)
	assert.Nil(t, entity)
	assert.Equal(t, defaultOptions[enums.DimensionModule].Code, chosen.Code)
}

func TestSelectOption_CompatibilityFilter(t *testing.T) {
	compatible := option(enums.DimensionOutlet, "contrast", "对比切入", 0.5)
	compatible.CompatibleModules = []string{"observation"}
	other := option(enums.DimensionOutlet, "detail", "细节切入", 0.5)
	other.CompatibleModules = []string{"reflection"}

	planner := newTestPlanner(t, map[enums.DimensionType][]*entities.DimensionOption{
		enums.DimensionOutlet: {compatible, other},
	}, nil, appConfig.GenerationConfig{})

	// 过滤后只剩一个兼容选项
	for i := 0; i < 20; i++ {
		chosen, _, err := planner.SelectOption(context.Background(), enums.DimensionOutlet, "observation")
		require.NoError(t, err)
		assert.Equal(t, "contrast", chosen.Code)
	}
}

func TestSelectOption_FilterEmptyFallsBackToFullPool(t *testing.T) {
	first := option(enums.DimensionOutlet, "detail", "细节切入", 0.5)
	first.CompatibleModules = []string{"reflection"}
	second := option(enums.DimensionOutlet, "story", "小故事切入", 0.5)
	second.CompatibleModules = []string{"reflection"}

	planner := newTestPlanner(t, map[enums.DimensionType][]*entities.DimensionOption{
		enums.DimensionOutlet: {first, second},
	}, nil, appConfig.GenerationConfig{})

	// 没有任何选项兼容 "question": 兼容性是建议性的，回退全量候选而不是失败
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		chosen, _, err := planner.SelectOption(context.Background(), enums.DimensionOutlet, "question")
		require.NoError(t, err)
		seen[chosen.Code] = true
	}
	assert.True(t, seen["detail"] || seen["story"])
}

func TestSelectOption_AllZeroWeightsUniformFallback(t *testing.T) {
	planner := newTestPlanner(t, map[enums.DimensionType][]*entities.DimensionOption{
		enums.DimensionTone: {
			option(enums.DimensionTone, "calm", "平静", 0.0),
			option(enums.DimensionTone, "playful", "俏皮", 0.0),
		},
	}, nil, appConfig.GenerationConfig{})

	// 总分为 0 时退化为均匀抽取，两个选项都应出现
	seen := map[string]bool{}
	for i := 0; i < 200; i++ {
		chosen, _, err := planner.SelectOption(context.Background(), enums.DimensionTone, "")
		require.NoError(t, err)
		seen[chosen.Code] = true
	}
	assert.True(t, seen["calm"])
	assert.True(t, seen["playful"])
}

func fullCatalog() map[enums.DimensionType][]*entities.DimensionOption {
	length := option(enums.DimensionLength, "medium", "中", 1.0)
	length.MinChars = 60
	length.MaxChars = 120
	return map[enums.DimensionType][]*entities.DimensionOption{
		enums.DimensionModule:   {option(enums.DimensionModule, "observation", "生活观察", 1.0)},
		enums.DimensionScenario: {option(enums.DimensionScenario, "commute", "通勤路上", 1.0)},
		enums.DimensionOutlet:   {option(enums.DimensionOutlet, "detail", "细节切入", 1.0)},
		enums.DimensionTone:     {option(enums.DimensionTone, "calm", "平静", 1.0)},
		enums.DimensionEnding:   {option(enums.DimensionEnding, "abrupt", "戛然而止", 1.0)},
		enums.DimensionLength:   {length},
	}
}

func TestBuildPlan_ScenarioIncludedByProbability(t *testing.T) {
	planner := newTestPlanner(t, fullCatalog(), nil, appConfig.GenerationConfig{
		ScenarioProbability: 1.0,
	})

	plan, err := planner.BuildPlan(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "observation", plan.Module.Code)
	require.NotNil(t, plan.Scenario)
	assert.Equal(t, "commute", plan.Scenario.Code)
	assert.Equal(t, "detail", plan.Outlet.Code)
	assert.Equal(t, "calm", plan.Tone.Code)
	assert.Equal(t, "abrupt", plan.Ending.Code)
	assert.Equal(t, "medium", plan.Length.Code)
	assert.Equal(t, 60, plan.MinChars)
	assert.Equal(t, 120, plan.MaxChars)
}

func TestBuildPlan_ScenarioExcluded(t *testing.T) {
	// 基线概率 0 且场景近期用量不低于窗口总量三分之一: 不纳入场景
	usage := map[enums.DimensionType]map[string]int64{
		enums.DimensionScenario: {"commute": 10},
		enums.DimensionModule:   {"observation": 12},
	}
	planner := newTestPlanner(t, fullCatalog(), usage, appConfig.GenerationConfig{
		ScenarioProbability: 0.0,
	})

	plan, err := planner.BuildPlan(context.Background())
	require.NoError(t, err)
	assert.Nil(t, plan.Scenario)
	assert.Equal(t, "", plan.ScenarioCode())
}

func TestBuildPlan_ScenarioCompensation(t *testing.T) {
	// 基线概率 0 但场景近期用量低于窗口总量三分之一: 补偿性纳入
	usage := map[enums.DimensionType]map[string]int64{
		enums.DimensionScenario: {"commute": 1},
		enums.DimensionModule:   {"observation": 12},
	}
	planner := newTestPlanner(t, fullCatalog(), usage, appConfig.GenerationConfig{
		ScenarioProbability: 0.0,
	})

	plan, err := planner.BuildPlan(context.Background())
	require.NoError(t, err)
	require.NotNil(t, plan.Scenario)
	assert.Equal(t, "commute", plan.Scenario.Code)
}

func TestBuildPlan_DefaultLengthBounds(t *testing.T) {
	catalog := fullCatalog()
	delete(catalog, enums.DimensionLength)
	planner := newTestPlanner(t, catalog, nil, appConfig.GenerationConfig{
		ScenarioProbability: 1.0,
	})

	plan, err := planner.BuildPlan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, defaultMinChars, plan.MinChars)
	assert.Equal(t, defaultMaxChars, plan.MaxChars)
}
